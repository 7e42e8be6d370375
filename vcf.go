package tsprep

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/brentp/vcfgo"
	"github.com/carbocation/pfx"
)

// VCF is an open variant file. Only a forward pass is possible; to read the
// records again, open the file again.
type VCF struct {
	FilePath string
	NSamples int

	reader *vcfgo.Reader
	closer io.Closer
}

// OpenVCF opens a plain, BGZF or zstd compressed VCF through OpenInput and
// parses its header.
func OpenVCF(ctx context.Context, path string, client *storage.Client) (*VCF, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}

	v, err := NewVCF(rc, path)
	if err != nil {
		rc.Close()
		return nil, err
	}
	v.closer = rc

	return v, nil
}

// NewVCF parses the header of an already opened VCF stream.
func NewVCF(r io.Reader, path string) (*VCF, error) {
	// Samples are parsed per record by the VariantReader.
	reader, err := vcfgo.NewReader(r, true)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return &VCF{
		FilePath: path,
		NSamples: len(reader.Header.SampleNames),
		reader:   reader,
	}, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (v *VCF) Close() error {
	if v.closer == nil {
		return nil
	}
	c := v.closer
	v.closer = nil
	return c.Close()
}
