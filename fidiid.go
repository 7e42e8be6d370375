package tsprep

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// UnlistedSampleError reports a VCF sample missing from an individual list.
type UnlistedSampleError struct {
	SampleID string
	ListPath string
}

func (e *UnlistedSampleError) Error() string {
	return fmt.Sprintf("individual %q found in VCF but not in %s", e.SampleID, e.ListPath)
}

// LoadIndividualList reads a two-column individual list, individual ID then
// family ID, and maps each individual to its family. A later row for the
// same individual wins.
func LoadIndividualList(ctx context.Context, path string, client *storage.Client) (map[string]string, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ReadIndividualList(rc, path)
}

func ReadIndividualList(r io.Reader, path string) (map[string]string, error) {
	out := make(map[string]string)

	fr := newFieldReader(r)
	for {
		fields, line, err := fr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return nil, &FormatError{Path: path, Line: line, Reason: "expected individual and family columns"}
		}
		out[fields[0]] = fields[1]
	}

	return out, nil
}

// WriteSampleNames writes one "FID<TAB>IID" row per VCF sample, in VCF column
// order. Every sample must be in families.
func WriteSampleNames(w io.Writer, vcfSamples []string, families map[string]string, listPath string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	for _, iid := range vcfSamples {
		fid, found := families[iid]
		if !found {
			return &UnlistedSampleError{SampleID: iid, ListPath: listPath}
		}
		if err := cw.Write([]string{fid, iid}); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
