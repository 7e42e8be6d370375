package tsprep

import (
	"fmt"
	"strings"
)

// FormatError reports a malformed row in a delimited input file.
type FormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
}

// AlignmentError reports a registered individual that has no column in the
// VCF, or a VCF header that cannot be mapped unambiguously.
type AlignmentError struct {
	SampleID  string
	Available []string
	Reason    string
}

func (e *AlignmentError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "not found in VCF samples"
	}
	return fmt.Sprintf("sample %q %s; VCF samples are [%s]", e.SampleID, reason, strings.Join(e.Available, ", "))
}

// DuplicateIndividualError reports a sample ID registered more than once.
type DuplicateIndividualError struct {
	SampleID string
	First    int
}

func (e *DuplicateIndividualError) Error() string {
	return fmt.Sprintf("sample %q is already registered as individual %d", e.SampleID, e.First)
}

// MultiChromosomeError is returned when a VCF holds more than one chromosome.
type MultiChromosomeError struct {
	Expected string
	Found    string
	Position int
}

func (e *MultiChromosomeError) Error() string {
	return fmt.Sprintf("found chromosome %s at position %d, but this run is on chromosome %s; only one chromosome per VCF is supported", e.Found, e.Position, e.Expected)
}

// UnphasedGenotypeError is returned for a site with at least one unphased
// genotype call.
type UnphasedGenotypeError struct {
	Chromosome string
	Position   int
	SampleID   string
}

func (e *UnphasedGenotypeError) Error() string {
	return fmt.Sprintf("%s:%d: genotype of sample %q is not phased", e.Chromosome, e.Position, e.SampleID)
}

// UnknownAlleleError reports an allele outside of A, C, G, T and *.
type UnknownAlleleError struct {
	Chromosome string
	Position   int
	Allele     string
}

func (e *UnknownAlleleError) Error() string {
	return fmt.Sprintf("%s:%d: allele %q is not one of A, C, G, T, *", e.Chromosome, e.Position, e.Allele)
}

// UnsortedPositionError reports a position lower than the previous one.
type UnsortedPositionError struct {
	Chromosome string
	Previous   int
	Position   int
}

func (e *UnsortedPositionError) Error() string {
	return fmt.Sprintf("%s:%d comes after position %d; the VCF must be sorted", e.Chromosome, e.Position, e.Previous)
}

// PloidyError reports a genotype call that is not diploid.
type PloidyError struct {
	Chromosome string
	Position   int
	SampleID   string
	Ploidy     int
}

func (e *PloidyError) Error() string {
	return fmt.Sprintf("%s:%d: sample %q has ploidy %d, expected %d", e.Chromosome, e.Position, e.SampleID, e.Ploidy, Ploidy)
}

// GenotypeRangeError reports an allele call pointing past the site alleles.
type GenotypeRangeError struct {
	Chromosome string
	Position   int
	SampleID   string
	Allele     int
	NAlleles   int
}

func (e *GenotypeRangeError) Error() string {
	return fmt.Sprintf("%s:%d: sample %q calls allele %d but the site has %d alleles", e.Chromosome, e.Position, e.SampleID, e.Allele, e.NAlleles)
}

// ConfigError reports an invalid run configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}
