package tsprep

import "strings"

// GenotypeRecord holds Ploidy allele indices per registered individual, in
// registration order. Missing marks an unknown allele.
type GenotypeRecord []int8

// Site is one encoded, validated variant. It is never modified after it has
// been emitted.
type Site struct {
	Chromosome string
	Position   int

	// Alleles starts with the reference allele, followed by the ALT alleles in
	// file order, all upper case.
	Alleles []string

	// AncestralAlleleIndex indexes Alleles, or is Missing.
	AncestralAlleleIndex int

	Genotypes GenotypeRecord
}

// AncestralState returns the ancestral allele, or "" when it is Missing.
func (s *Site) AncestralState() string {
	if s.AncestralAlleleIndex < 0 || s.AncestralAlleleIndex >= len(s.Alleles) {
		return ""
	}
	return s.Alleles[s.AncestralAlleleIndex]
}

// Individual returns a copy of the two alleles of logical individual i.
func (s *Site) Individual(i int) []int8 {
	out := make([]int8, Ploidy)
	copy(out, s.Genotypes[Ploidy*i:Ploidy*i+Ploidy])
	return out
}

// alleleIndex returns the index of allele in alleles, or Missing.
func alleleIndex(alleles []string, allele string) int {
	allele = strings.ToUpper(allele)
	for i, a := range alleles {
		if a == allele {
			return i
		}
	}
	return Missing
}
