package tsprep

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/carbocation/pfx"
)

// fieldReader yields the trimmed fields of each non-blank row of a delimited
// text stream whose delimiter is sniffed from its first SniffSize bytes.
type fieldReader struct {
	Delimiter Delimiter

	csv     *csv.Reader
	scanner *bufio.Scanner
	line    int
}

func newFieldReader(r io.Reader) *fieldReader {
	br := bufio.NewReaderSize(r, 4*SniffSize)
	sample, _ := br.Peek(SniffSize)

	fr := &fieldReader{Delimiter: DetectDelimiter(sample)}

	switch fr.Delimiter {
	case DelimiterWhitespace:
		fr.scanner = bufio.NewScanner(br)
		fr.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	default:
		fr.csv = csv.NewReader(br)
		fr.csv.FieldsPerRecord = -1
		fr.csv.LazyQuotes = true
		fr.csv.Comma = '\t'
		if fr.Delimiter == DelimiterComma {
			fr.csv.Comma = ','
		}
	}

	return fr
}

// Read returns io.EOF once the stream is exhausted. line is 1-based.
func (fr *fieldReader) Read() (fields []string, line int, err error) {
	if fr.scanner != nil {
		for fr.scanner.Scan() {
			fr.line++
			fields = strings.Fields(fr.scanner.Text())
			if len(fields) == 0 {
				continue
			}
			return fields, fr.line, nil
		}
		if err := fr.scanner.Err(); err != nil {
			return nil, fr.line, pfx.Err(err)
		}
		return nil, fr.line, io.EOF
	}

	for {
		fields, err = fr.csv.Read()
		if err == io.EOF {
			return nil, 0, io.EOF
		} else if err != nil {
			return nil, 0, pfx.Err(err)
		}
		line, _ = fr.csv.FieldPos(0)

		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		return fields, line, nil
	}
}
