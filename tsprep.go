// Package tsprep prepares phased VCF genotypes and population metadata for
// tree-sequence inference. Individuals are laid out in metadata order, not in
// VCF column order, and every site is validated before it reaches a Sink.
package tsprep

// Missing marks an allele call or ancestral state that could not be
// determined. It matches the tskit MISSING_DATA convention.
const Missing = -1

// Ploidy is the only ploidy supported: every individual owns two genotype
// slots.
const Ploidy = 2

// SoftwareName and SoftwareVersion are recorded in the provenance of every
// output unless the Config overrides them.
const (
	SoftwareName    = "tsprep"
	SoftwareVersion = "0.3.0"
)

// allowedAlleles is the site allele alphabet accepted by the inference
// engine.
var allowedAlleles = map[string]struct{}{
	"A": {},
	"C": {},
	"G": {},
	"T": {},
	"*": {},
}

// IsAllowedAllele reports whether allele is one of A, C, G, T or *.
func IsAllowedAllele(allele string) bool {
	_, ok := allowedAlleles[allele]
	return ok
}
