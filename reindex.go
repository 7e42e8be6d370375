package tsprep

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"github.com/willf/bitset"
)

// Reindexer maps registered individuals (logical order) to the VCF columns
// that hold their genotypes (physical order). It is built once per run.
type Reindexer struct {
	columns     []int
	fileColumns []string
	claimed     *bitset.BitSet
}

// BuildReindexer looks up every registered sample in the VCF column list.
// A sample that is absent, or that names more than one VCF column, yields an
// *AlignmentError.
func BuildReindexer(fileColumns, registration []string) (*Reindexer, error) {
	position := make(map[string]int, len(fileColumns))
	repeated := make(map[string][]int)
	for c, sampleID := range fileColumns {
		if first, seen := position[sampleID]; seen {
			if len(repeated[sampleID]) == 0 {
				repeated[sampleID] = append(repeated[sampleID], first)
			}
			repeated[sampleID] = append(repeated[sampleID], c)
			continue
		}
		position[sampleID] = c
	}

	r := &Reindexer{
		columns:     make([]int, len(registration)),
		fileColumns: fileColumns,
		claimed:     bitset.New(uint(len(fileColumns))),
	}

	for i, sampleID := range registration {
		c, found := position[sampleID]
		if !found {
			return nil, &AlignmentError{SampleID: sampleID, Available: fileColumns}
		}
		if cols := repeated[sampleID]; len(cols) > 0 {
			return nil, &AlignmentError{SampleID: sampleID, Available: fileColumns, Reason: fmt.Sprintf("names VCF columns %v", cols)}
		}
		r.columns[i] = c
		r.claimed.Set(uint(c))
	}

	return r, nil
}

// Len is the number of registered individuals.
func (r *Reindexer) Len() int {
	return len(r.columns)
}

// Column returns the VCF column of logical individual i.
func (r *Reindexer) Column(i int) int {
	return r.columns[i]
}

// Unused returns the VCF samples that no registered individual maps to, in
// column order.
func (r *Reindexer) Unused() []string {
	var out []string
	for c, sampleID := range r.fileColumns {
		if !r.claimed.Test(uint(c)) {
			out = append(out, sampleID)
		}
	}
	return out
}

// Apply copies the diploid call of each registered individual's VCF column c
// into slots 2i and 2i+1 of dst. nAlleles bounds the allele indices.
func (r *Reindexer) Apply(v *Variant, nAlleles int, dst GenotypeRecord) error {
	if len(dst) != Ploidy*len(r.columns) {
		return pfx.Err(fmt.Errorf("genotype record has %d slots, expected %d", len(dst), Ploidy*len(r.columns)))
	}
	if len(v.Calls) != len(r.fileColumns) {
		return pfx.Err(fmt.Errorf("%s:%d: record has %d genotype calls but the header names %d samples", v.Chromosome, v.Position, len(v.Calls), len(r.fileColumns)))
	}

	for i, c := range r.columns {
		call := v.Calls[c]
		if len(call.Alleles) != Ploidy {
			return &PloidyError{Chromosome: v.Chromosome, Position: v.Position, SampleID: r.fileColumns[c], Ploidy: len(call.Alleles)}
		}

		for j, allele := range call.Alleles {
			switch {
			case allele < 0:
				dst[Ploidy*i+j] = Missing
			case allele >= nAlleles || allele > math.MaxInt8:
				return &GenotypeRangeError{Chromosome: v.Chromosome, Position: v.Position, SampleID: r.fileColumns[c], Allele: allele, NAlleles: nAlleles}
			default:
				dst[Ploidy*i+j] = int8(allele)
			}
		}
	}

	return nil
}
