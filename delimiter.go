package tsprep

import (
	"bytes"
	"strings"
)

// SniffSize is how many leading bytes are inspected to pick a delimiter.
const SniffSize = 1024

// Delimiter is the field separator of a metadata or ancestral table.
type Delimiter uint8

const (
	// DelimiterTab is the default when nothing else fits.
	DelimiterTab Delimiter = iota
	DelimiterComma
	// DelimiterWhitespace splits on runs of spaces and tabs.
	DelimiterWhitespace
)

func (d Delimiter) String() string {
	switch d {
	case DelimiterTab:
		return "tab"
	case DelimiterComma:
		return "comma"
	case DelimiterWhitespace:
		return "whitespace"

	default:
		return "Illegal selection"
	}
}

// DetectDelimiter picks the delimiter from at most SniffSize leading bytes:
// whichever of tab, comma or runs of whitespace splits the most sampled
// lines, preferring them in that order on a tie. With no split line at all,
// DelimiterTab is returned. Rows that do not fit are left for the reader to
// report with their own line number. When the sample was cut short, the
// trailing partial line is not considered.
func DetectDelimiter(sample []byte) Delimiter {
	if len(sample) > SniffSize {
		sample = sample[:SniffSize]
	}
	if len(sample) == SniffSize {
		if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
			sample = sample[:i]
		}
	}

	var lines []string
	for _, line := range strings.Split(string(sample), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return DelimiterTab
	}

	count := func(ok func(string) bool) int {
		n := 0
		for _, line := range lines {
			if ok(line) {
				n++
			}
		}
		return n
	}

	// Candidates in order of precedence; ties keep the earlier one.
	candidates := []struct {
		d Delimiter
		n int
	}{
		{DelimiterTab, count(func(l string) bool { return strings.Contains(l, "\t") })},
		{DelimiterComma, count(func(l string) bool { return strings.Contains(l, ",") })},
		{DelimiterWhitespace, count(func(l string) bool { return len(strings.Fields(l)) > 1 })},
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.n > best.n {
			best = c
		}
	}

	return best.d
}
