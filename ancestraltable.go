package tsprep

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
)

// Recognised header names. The numeric layout is the one written by the
// ancestral-allele step of the tree-sequence pipeline (chrom, pos,
// anc_allele); the symbolic layout is the Compara export (chrom, position,
// alleles, ancestor).
var (
	chromColumns    = []string{"chrom", "chromosome", "chr"}
	positionColumns = []string{"pos", "position"}
	numericColumns  = []string{"anc_allele"}
	symbolColumns   = []string{"ancestor"}
)

// LoadNumericAncestors reads an ancestors table of allele indices.
func LoadNumericAncestors(ctx context.Context, path string, client *storage.Client) (NumericAncestors, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ReadNumericAncestors(rc, path)
}

// ReadNumericAncestors parses an ancestors table of allele indices. Empty
// and "." values are stored as Missing; a later row for the same locus
// replaces an earlier one.
func ReadNumericAncestors(r io.Reader, path string) (NumericAncestors, error) {
	out := make(NumericAncestors)

	err := readAncestorTable(r, path, numericColumns, func(locus Locus, value string, line int) error {
		if value == "" || value == "." {
			out[locus] = Missing
			return nil
		}
		idx, err := strconv.Atoi(value)
		if err != nil {
			return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf("ancestral allele index %q is not an integer", value)}
		}
		out[locus] = idx
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// LoadSymbolicAncestors reads an ancestors table of allele letters.
func LoadSymbolicAncestors(ctx context.Context, path string, client *storage.Client) (SymbolicAncestors, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return ReadSymbolicAncestors(rc, path)
}

// ReadSymbolicAncestors parses an ancestors table of allele letters. Letters
// are upper-cased: lower case marks low-confidence calls in EPO ancestral
// sequences, which are still used.
func ReadSymbolicAncestors(r io.Reader, path string) (SymbolicAncestors, error) {
	out := make(SymbolicAncestors)

	err := readAncestorTable(r, path, symbolColumns, func(locus Locus, value string, line int) error {
		if value == "" {
			return nil
		}
		out[locus] = strings.ToUpper(value)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func readAncestorTable(r io.Reader, path string, valueNames []string, add func(Locus, string, int) error) error {
	fr := newFieldReader(r)

	header, line, err := fr.Read()
	if err == io.EOF {
		return &FormatError{Path: path, Line: 1, Reason: "ancestors table is empty"}
	} else if err != nil {
		return err
	}

	chromCol := findColumn(header, chromColumns)
	posCol := findColumn(header, positionColumns)
	valueCol := findColumn(header, valueNames)
	for name, col := range map[string]int{"chromosome": chromCol, "position": posCol, valueNames[0]: valueCol} {
		if col < 0 {
			return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf("header has no %s column: %v", name, header)}
		}
	}
	width := max(chromCol, posCol, valueCol) + 1

	for {
		fields, line, err := fr.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if len(fields) < width {
			// Trailing empty value columns are dropped by some writers.
			if len(fields) == valueCol && valueCol == width-1 {
				fields = append(fields, "")
			} else {
				return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf("expected at least %d fields, found %d", width, len(fields))}
			}
		}

		pos, err := strconv.Atoi(fields[posCol])
		if err != nil || pos < 1 {
			return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf("position %q is not a positive integer", fields[posCol])}
		}

		if err := add(Locus{Chromosome: fields[chromCol], Position: pos}, fields[valueCol], line); err != nil {
			return err
		}
	}
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimPrefix(h, "#"))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}
