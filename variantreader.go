package tsprep

import (
	"fmt"

	"github.com/brentp/vcfgo"
	"github.com/carbocation/pfx"
)

// VariantReader walks the records of a VCF in file order.
type VariantReader struct {
	VariantsSeen uint32
	v            *VCF
	err          error
}

func (v *VCF) NewVariantReader() *VariantReader {
	return &VariantReader{v: v}
}

func (vr *VariantReader) Error() error {
	return vr.err
}

// Read returns the next record, or nil at the end of the file or on the first
// malformed record. Check Error after a nil.
func (vr *VariantReader) Read() (variant *Variant) {
	if vr.err != nil {
		return nil
	}

	rdr := vr.v.reader

	// vcfgo indexes fields without bounds checks, so blank lines and rows
	// with more sample columns than the header panic inside it.
	defer func() {
		if r := recover(); r != nil {
			vr.err = &FormatError{Path: vr.v.FilePath, Line: int(rdr.LineNumber), Reason: fmt.Sprintf("malformed VCF record: %v", r)}
			variant = nil
		}
	}()

	raw := rdr.Read()
	if err := rdr.Error(); err != nil {
		vr.err = pfx.Err(fmt.Errorf("%s: %w", vr.v.FilePath, err))
		rdr.Clear()
		return nil
	}
	if raw == nil {
		return nil
	}

	if err := raw.Header.ParseSamples(raw); err != nil {
		vr.err = pfx.Err(fmt.Errorf("%s:%d: %w", raw.Chrom(), raw.Pos, err))
		return nil
	}

	v, err := convertVariant(raw, vr.v.FilePath)
	if err != nil {
		vr.err = err
		return nil
	}

	vr.VariantsSeen++

	return v
}

func convertVariant(raw *vcfgo.Variant, path string) (*Variant, error) {
	v := &Variant{
		Chromosome: raw.Chrom(),
		Position:   int(raw.Pos),
		ID:         raw.Id(),
		Ref:        raw.Ref(),
		Alt:        raw.Alt(),
		Calls:      make([]Call, len(raw.Samples)),
	}

	for i, sample := range raw.Samples {
		if sample == nil {
			// The row ended before this header sample.
			return nil, &FormatError{
				Path:   path,
				Line:   int(raw.LineNumber),
				Reason: fmt.Sprintf("%s:%d: no genotype column for sample %q", v.Chromosome, v.Position, raw.Header.SampleNames[i]),
			}
		}
		if len(sample.GT) == 0 {
			v.Calls[i] = Call{Alleles: []int{Missing, Missing}}
			continue
		}

		alleles := make([]int, len(sample.GT))
		for j, gt := range sample.GT {
			if gt < 0 {
				gt = Missing
			}
			alleles[j] = gt
		}
		v.Calls[i] = Call{Alleles: alleles, Phased: sample.Phased}
	}

	return v, nil
}
