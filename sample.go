package tsprep

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// Sample is one genotype column of a VCF.
type Sample struct {
	SampleID string
}

// ReadSamples returns the VCF samples in column order.
func ReadSamples(v *VCF) ([]Sample, error) {
	if v.reader == nil {
		return nil, pfx.Err(fmt.Errorf("v.reader is nil"))
	}

	names := v.reader.Header.SampleNames
	if len(names) == 0 {
		return nil, pfx.Err(fmt.Errorf("%s declares no samples", v.FilePath))
	}

	samples := make([]Sample, 0, len(names))
	for _, name := range names {
		samples = append(samples, Sample{SampleID: name})
	}

	return samples, nil
}

// SampleIDs flattens samples into their IDs, preserving order.
func SampleIDs(samples []Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.SampleID
	}
	return out
}
