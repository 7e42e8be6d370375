package tsprep

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncoder(t *testing.T, method AncestralMethod, opts EncoderOptions) *SiteEncoder {
	t.Helper()

	columns := []string{"Sample1", "Sample2", "Sample3"}
	r, err := BuildReindexer(columns, []string{"Sample3", "Sample2", "Sample1"})
	require.NoError(t, err)

	resolve, err := NewAncestralResolver(method, nil, nil, opts.Logger)
	require.NoError(t, err)

	return NewSiteEncoder(r, columns, resolve, opts)
}

func variantAt(chrom string, pos int, ref string, alt []string, calls ...Call) *Variant {
	return &Variant{Chromosome: chrom, Position: pos, Ref: ref, Alt: alt, Calls: calls}
}

func TestEncodeScenario(t *testing.T) {
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{})

	site, err := enc.Encode(variantAt("1", 100, "a", []string{"g"}, phased(0, 0), phased(0, 1), phased(1, 1)))
	require.NoError(t, err)
	require.NotNil(t, site)

	assert.Equal(t, []int8{1, 1}, []int8(site.Individual(0)))
	assert.Equal(t, GenotypeRecord{1, 1, 0, 1, 0, 0}, site.Genotypes)

	// Changing the returned alleles leaves the site untouched.
	ind := site.Individual(1)
	ind[0] = 1
	assert.Equal(t, GenotypeRecord{1, 1, 0, 1, 0, 0}, site.Genotypes)
	assert.Equal(t, []string{"A", "G"}, site.Alleles)
	assert.Equal(t, 0, site.AncestralAlleleIndex)
	assert.Equal(t, "A", site.AncestralState())
	assert.Equal(t, "1", enc.Chromosome())
	assert.Equal(t, 100, enc.LastPosition())
}

func TestEncodeDuplicatePosition(t *testing.T) {
	log, hook := quietLogger()
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{Logger: log})

	first, err := enc.Encode(variantAt("1", 100, "A", []string{"G"}, phased(0, 0), phased(0, 0), phased(0, 0)))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := enc.Encode(variantAt("1", 100, "A", []string{"T"}, phased(1, 1), phased(1, 1), phased(1, 1)))
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Equal(t, 1, enc.Stats().Duplicates)
	assert.Equal(t, 1, enc.Stats().Emitted)
	assert.Equal(t, 2, enc.Stats().Records)
	assert.NotNil(t, hook.LastEntry())

	// The kept record is not affected.
	assert.Equal(t, []string{"A", "G"}, first.Alleles)
}

func TestEncodeMultiChromosome(t *testing.T) {
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{})

	_, err := enc.Encode(variantAt("1", 100, "A", []string{"G"}, phased(0, 0), phased(0, 0), phased(0, 0)))
	require.NoError(t, err)

	_, err = enc.Encode(variantAt("2", 50, "A", []string{"G"}, phased(0, 0), phased(0, 0), phased(0, 0)))
	var mce *MultiChromosomeError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "1", mce.Expected)
	assert.Equal(t, "2", mce.Found)
}

func TestEncodeUnphased(t *testing.T) {
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{})

	unphased := Call{Alleles: []int{0, 1}}
	_, err := enc.Encode(variantAt("1", 100, "A", []string{"G"}, phased(0, 0), unphased, phased(0, 0)))

	var ue *UnphasedGenotypeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Sample2", ue.SampleID)
	assert.Equal(t, 100, ue.Position)
}

func TestEncodeUnphasedMissingCallIsAccepted(t *testing.T) {
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{})

	missing := Call{Alleles: []int{Missing, Missing}}
	site, err := enc.Encode(variantAt("1", 100, "A", []string{"G"}, missing, phased(0, 1), phased(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, GenotypeRecord{1, 1, 0, 1, -1, -1}, site.Genotypes)
}

func TestEncodeUnknownAllele(t *testing.T) {
	v := func() *Variant {
		return variantAt("1", 100, "A", []string{"N"}, phased(0, 0), phased(0, 1), phased(1, 1))
	}

	t.Run("lenient", func(t *testing.T) {
		log, hook := quietLogger()
		enc := newTestEncoder(t, AncestralReference, EncoderOptions{Logger: log})

		site, err := enc.Encode(v())
		require.NoError(t, err)
		require.NotNil(t, site)
		assert.Equal(t, []string{"A", "N"}, site.Alleles)
		assert.Equal(t, 1, enc.Stats().UnknownAlleleSites)
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "N", hook.LastEntry().Data["allele"])
	})

	t.Run("strict", func(t *testing.T) {
		enc := newTestEncoder(t, AncestralReference, EncoderOptions{StrictAlleles: true})

		_, err := enc.Encode(v())
		var ue *UnknownAlleleError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "N", ue.Allele)
	})
}

func TestEncodeAlleles(t *testing.T) {
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{StrictAlleles: true})

	site, err := enc.Encode(variantAt("1", 10, "c", []string{"t", "*"}, phased(0, 2), phased(1, 0), phased(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "T", "*"}, site.Alleles)

	// Monomorphic site
	site, err = enc.Encode(variantAt("1", 11, "G", []string{"."}, phased(0, 0), phased(0, 0), phased(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, []string{"G"}, site.Alleles)
}

func TestEncodeUnsorted(t *testing.T) {
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{})

	_, err := enc.Encode(variantAt("1", 100, "A", []string{"G"}, phased(0, 0), phased(0, 0), phased(0, 0)))
	require.NoError(t, err)

	_, err = enc.Encode(variantAt("1", 99, "A", []string{"G"}, phased(0, 0), phased(0, 0), phased(0, 0)))
	var ue *UnsortedPositionError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 100, ue.Previous)
}

func TestEncodeMajorAndMissingAncestral(t *testing.T) {
	enc := newTestEncoder(t, AncestralMajor, EncoderOptions{})

	site, err := enc.Encode(variantAt("1", 100, "A", []string{"C"}, phased(0, 1), phased(1, 1), phased(0, 0)))
	require.NoError(t, err)
	// A=3, C=3: tie to the reference
	assert.Equal(t, 0, site.AncestralAlleleIndex)

	site, err = enc.Encode(variantAt("1", 101, "A", []string{"C"}, phased(0, 1), phased(1, 1), phased(1, 0)))
	require.NoError(t, err)
	assert.Equal(t, 1, site.AncestralAlleleIndex)

	numeric, err := NewAncestralResolver(AncestralNumeric, NumericAncestors{}, nil, nil)
	require.NoError(t, err)
	r, _ := BuildReindexer([]string{"S"}, []string{"S"})
	enc = NewSiteEncoder(r, []string{"S"}, numeric, EncoderOptions{})
	site, err = enc.Encode(variantAt("1", 5, "A", []string{"C"}, phased(0, 1)))
	require.NoError(t, err)
	assert.Equal(t, Missing, site.AncestralAlleleIndex)
	assert.Equal(t, "", site.AncestralState())
	assert.Equal(t, 1, enc.Stats().MissingAncestral)
}

func TestEncodeAllFromVCF(t *testing.T) {
	text := vcfText([]string{"Sample1", "Sample2", "Sample3"},
		vcfRecord("1", 100, "A", "G", "0|0", "0|1", "1|1"),
		vcfRecord("1", 100, "A", "T", "1|1", "1|1", "1|1"),
		vcfRecord("1", 200, "C", "T", "1|0", ".|.", "0|1"),
	)

	vcf, err := NewVCF(strings.NewReader(text), "test.vcf")
	require.NoError(t, err)
	defer vcf.Close()

	enc := newTestEncoder(t, AncestralReference, EncoderOptions{})

	var sites []*Site
	err = enc.EncodeAll(context.Background(), vcf.NewVariantReader(), func(s *Site) error {
		sites = append(sites, s)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, sites, 2)
	assert.Equal(t, GenotypeRecord{1, 1, 0, 1, 0, 0}, sites[0].Genotypes)
	assert.Equal(t, GenotypeRecord{0, 1, -1, -1, 1, 0}, sites[1].Genotypes)
	assert.Equal(t, 1, enc.Stats().Duplicates)
}

func TestEncodeAllStopsOnVisitErrorAndCancel(t *testing.T) {
	text := vcfText([]string{"Sample1", "Sample2", "Sample3"},
		vcfRecord("1", 100, "A", "G", "0|0", "0|1", "1|1"),
		vcfRecord("1", 200, "C", "T", "1|0", "0|0", "0|1"),
	)

	vcf, err := NewVCF(strings.NewReader(text), "test.vcf")
	require.NoError(t, err)

	boom := errors.New("boom")
	enc := newTestEncoder(t, AncestralReference, EncoderOptions{})
	err = enc.EncodeAll(context.Background(), vcf.NewVariantReader(), func(*Site) error { return boom })
	assert.ErrorIs(t, err, boom)

	vcf, err = NewVCF(strings.NewReader(text), "test.vcf")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc = newTestEncoder(t, AncestralReference, EncoderOptions{})
	err = enc.EncodeAll(ctx, vcf.NewVariantReader(), func(*Site) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, enc.Stats().Emitted)
}
