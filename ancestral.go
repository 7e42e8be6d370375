package tsprep

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// AncestralMethod selects how the ancestral allele of each site is resolved.
// Exactly one method is used for a run.
type AncestralMethod uint8

const (
	AncestralUnset AncestralMethod = iota
	// AncestralReference always picks the reference allele.
	AncestralReference
	// AncestralMajor picks the most frequent allele, ties going to the lower
	// index.
	AncestralMajor
	// AncestralNumeric reads allele indices from an ancestors table.
	AncestralNumeric
	// AncestralSymbolic reads allele letters from an ancestors table, such as
	// Ensembl Compara EPO ancestral sequences.
	AncestralSymbolic
)

var ancestralMethodNames = []string{"", "reference", "major", "numeric", "symbolic"}

func (m AncestralMethod) String() string {
	if m == AncestralUnset {
		return "unset"
	}
	if int(m) < len(ancestralMethodNames) {
		return ancestralMethodNames[m]
	}
	return "Illegal selection"
}

func (m AncestralMethod) MarshalText() ([]byte, error) {
	if int(m) >= len(ancestralMethodNames) {
		return nil, fmt.Errorf("invalid ancestral method %d", m)
	}
	return []byte(ancestralMethodNames[m]), nil
}

func (m *AncestralMethod) UnmarshalText(text []byte) error {
	for i, name := range ancestralMethodNames {
		if strings.EqualFold(string(text), name) {
			*m = AncestralMethod(i)
			return nil
		}
	}
	return &ConfigError{Field: "ancestral.method", Reason: fmt.Sprintf("%q is not one of reference, major, numeric, symbolic", text)}
}

// NeedsTable reports whether the method reads an external ancestors table.
func (m AncestralMethod) NeedsTable() bool {
	return m == AncestralNumeric || m == AncestralSymbolic
}

// Locus keys the ancestors tables.
type Locus struct {
	Chromosome string
	Position   int
}

func (l Locus) String() string {
	return fmt.Sprintf("%s:%d", l.Chromosome, l.Position)
}

// NumericAncestors maps a locus to an allele index (Missing when the table
// had no usable value).
type NumericAncestors map[Locus]int

// SymbolicAncestors maps a locus to an upper case allele letter.
type SymbolicAncestors map[Locus]string

// AncestralResolver returns the index of the ancestral allele in
// site.Alleles, or Missing. calls are the raw calls of the record.
type AncestralResolver func(site *Site, calls []Call) int

// NewAncestralResolver turns a method into the single function used for
// every site of a run. numeric and symbolic are only consulted by their
// respective methods.
func NewAncestralResolver(method AncestralMethod, numeric NumericAncestors, symbolic SymbolicAncestors, log logrus.FieldLogger) (AncestralResolver, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	switch method {
	case AncestralReference:
		return func(*Site, []Call) int { return 0 }, nil

	case AncestralMajor:
		return majorAllele, nil

	case AncestralNumeric:
		if numeric == nil {
			return nil, &ConfigError{Field: "ancestral.table", Reason: "the numeric method needs an ancestors table"}
		}
		return func(site *Site, _ []Call) int {
			idx, found := numeric[Locus{site.Chromosome, site.Position}]
			if !found || idx < 0 {
				return Missing
			}
			if idx >= len(site.Alleles) {
				log.WithFields(logrus.Fields{"chrom": site.Chromosome, "pos": site.Position, "index": idx}).
					Warnln("Ancestral allele index is past the site alleles; treating as missing")
				return Missing
			}
			return idx
		}, nil

	case AncestralSymbolic:
		if symbolic == nil {
			return nil, &ConfigError{Field: "ancestral.table", Reason: "the symbolic method needs an ancestors table"}
		}
		return func(site *Site, _ []Call) int {
			letter, found := symbolic[Locus{site.Chromosome, site.Position}]
			if !found {
				return Missing
			}
			return alleleIndex(site.Alleles, letter)
		}, nil
	}

	return nil, &ConfigError{Field: "ancestral.method", Reason: "exactly one ancestral method must be selected"}
}

// majorAllele counts every non-missing allele call and returns the most
// frequent allele. Ties resolve to the lowest index, so the reference allele
// wins any tie it is part of.
func majorAllele(site *Site, calls []Call) int {
	counts := make([]int, len(site.Alleles))
	for _, call := range calls {
		for _, a := range call.Alleles {
			if a >= 0 && a < len(counts) {
				counts[a]++
			}
		}
	}

	best := 0
	for i, n := range counts {
		if n > counts[best] {
			best = i
		}
	}

	return best
}
