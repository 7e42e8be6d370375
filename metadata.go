package tsprep

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// MetadataRow is one (population, sample) assignment from a metadata file.
type MetadataRow struct {
	Population string
	SampleID   string
	Line       int
}

// MetadataReader streams the rows of a metadata file. It is single pass; to
// read the file again, open it again.
type MetadataReader struct {
	Path     string
	RowsSeen int

	fields *fieldReader
	closer io.Closer
	err    error
}

// OpenMetadata opens a metadata file through OpenInput.
func OpenMetadata(ctx context.Context, path string, client *storage.Client) (*MetadataReader, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}

	mr := NewMetadataReader(rc, path)
	mr.closer = rc

	return mr, nil
}

// NewMetadataReader reads metadata rows from r. path is only used in errors.
func NewMetadataReader(r io.Reader, path string) *MetadataReader {
	return &MetadataReader{
		Path:   path,
		fields: newFieldReader(r),
	}
}

// Delimiter reports the delimiter that was detected for this file.
func (mr *MetadataReader) Delimiter() Delimiter {
	return mr.fields.Delimiter
}

func (mr *MetadataReader) Error() error {
	return mr.err
}

// Read returns the next row, or nil at the end of the file or on error.
// Columns past the second are ignored.
func (mr *MetadataReader) Read() *MetadataRow {
	if mr.err != nil {
		return nil
	}

	fields, line, err := mr.fields.Read()
	if err == io.EOF {
		return nil
	} else if err != nil {
		mr.err = err
		return nil
	}

	if len(fields) < 2 {
		mr.err = &FormatError{Path: mr.Path, Line: line, Reason: fmt.Sprintf("expected population and sample columns, found %d field(s)", len(fields))}
		return nil
	}
	if fields[0] == "" || fields[1] == "" {
		mr.err = &FormatError{Path: mr.Path, Line: line, Reason: "population and sample must not be empty"}
		return nil
	}

	mr.RowsSeen++

	return &MetadataRow{Population: fields[0], SampleID: fields[1], Line: line}
}

// Close releases the underlying file, if the reader owns one.
func (mr *MetadataReader) Close() error {
	if mr.closer == nil {
		return nil
	}
	return mr.closer.Close()
}

// LoadMetadata reads every row of a metadata file.
func LoadMetadata(ctx context.Context, path string, client *storage.Client) ([]MetadataRow, error) {
	mr, err := OpenMetadata(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer mr.Close()

	var rows []MetadataRow
	for row := mr.Read(); row != nil; row = mr.Read() {
		rows = append(rows, *row)
	}
	if err := mr.Error(); err != nil {
		return nil, err
	}

	return rows, nil
}
