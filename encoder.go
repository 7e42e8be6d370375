package tsprep

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/sirupsen/logrus"
)

// EncoderOptions tunes the validation policy of a SiteEncoder.
type EncoderOptions struct {
	// StrictAlleles aborts on an allele outside A, C, G, T, *. When false the
	// site is logged and still emitted.
	StrictAlleles bool

	Logger logrus.FieldLogger
}

// EncoderStats counts what happened to the records seen so far.
type EncoderStats struct {
	Records            int
	Emitted            int
	Duplicates         int
	UnknownAlleleSites int
	MissingAncestral   int
}

// SiteEncoder validates VCF records in file order and turns them into Sites.
// It holds the per-run state (chromosome, last accepted position) and is not
// safe for concurrent use.
type SiteEncoder struct {
	opts        EncoderOptions
	log         logrus.FieldLogger
	reindexer   *Reindexer
	resolve     AncestralResolver
	fileColumns []string

	chromosome   string
	lastPosition int
	stats        EncoderStats
}

// NewSiteEncoder builds an encoder for one pass. fileColumns are the VCF
// sample names in column order, used to name samples in errors.
func NewSiteEncoder(reindexer *Reindexer, fileColumns []string, resolve AncestralResolver, opts EncoderOptions) *SiteEncoder {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &SiteEncoder{
		opts:        opts,
		log:         log,
		reindexer:   reindexer,
		resolve:     resolve,
		fileColumns: fileColumns,
	}
}

// Chromosome is the chromosome of the run, set by the first record.
func (e *SiteEncoder) Chromosome() string {
	return e.chromosome
}

// LastPosition is the position of the last emitted site, 0 before any.
func (e *SiteEncoder) LastPosition() int {
	return e.lastPosition
}

func (e *SiteEncoder) Stats() EncoderStats {
	return e.stats
}

// Encode validates one record. It returns (nil, nil) when the record repeats
// the previously accepted position and is skipped. Any error is fatal for
// the pass.
func (e *SiteEncoder) Encode(v *Variant) (*Site, error) {
	e.stats.Records++

	if e.chromosome == "" {
		e.chromosome = v.Chromosome
	} else if v.Chromosome != e.chromosome {
		return nil, &MultiChromosomeError{Expected: e.chromosome, Found: v.Chromosome, Position: v.Position}
	}

	if v.Position < 1 {
		return nil, pfx.Err(fmt.Errorf("%s: invalid position %d", v.Chromosome, v.Position))
	}

	if e.stats.Emitted > 0 {
		if v.Position == e.lastPosition {
			e.stats.Duplicates++
			e.log.WithFields(logrus.Fields{"chrom": v.Chromosome, "pos": v.Position}).
				Infoln("Skipping duplicate position, keeping the first record")
			return nil, nil
		}
		if v.Position < e.lastPosition {
			return nil, &UnsortedPositionError{Chromosome: v.Chromosome, Previous: e.lastPosition, Position: v.Position}
		}
	}

	for c, call := range v.Calls {
		// Phase is meaningless for fully missing and haploid calls; the latter
		// fail the ploidy check when reindexed.
		if call.Phased || len(call.Alleles) < Ploidy || call.isMissing() {
			continue
		}
		return nil, &UnphasedGenotypeError{Chromosome: v.Chromosome, Position: v.Position, SampleID: e.sampleAt(c)}
	}

	alleles, err := e.alleles(v)
	if err != nil {
		return nil, err
	}

	site := &Site{
		Chromosome: v.Chromosome,
		Position:   v.Position,
		Alleles:    alleles,
	}

	site.AncestralAlleleIndex = e.resolve(site, v.Calls)
	if site.AncestralAlleleIndex == Missing {
		e.stats.MissingAncestral++
	}

	site.Genotypes = make(GenotypeRecord, Ploidy*e.reindexer.Len())
	if err := e.reindexer.Apply(v, len(alleles), site.Genotypes); err != nil {
		return nil, err
	}

	e.lastPosition = v.Position
	e.stats.Emitted++

	return site, nil
}

// alleles builds the site alphabet: REF then ALT, upper case. A lone "." ALT
// means the site has no alternate allele.
func (e *SiteEncoder) alleles(v *Variant) ([]string, error) {
	alleles := make([]string, 0, 1+len(v.Alt))
	alleles = append(alleles, strings.ToUpper(v.Ref))
	for _, alt := range v.Alt {
		if alt == "." || alt == "" {
			continue
		}
		alleles = append(alleles, strings.ToUpper(alt))
	}

	var unknown *UnknownAlleleError
	for _, allele := range alleles {
		if IsAllowedAllele(allele) {
			continue
		}
		unknown = &UnknownAlleleError{Chromosome: v.Chromosome, Position: v.Position, Allele: allele}
		if e.opts.StrictAlleles {
			return nil, unknown
		}
		e.log.WithFields(logrus.Fields{"chrom": v.Chromosome, "pos": v.Position, "allele": allele}).
			Warnln("Allele is not one of A, C, G, T, *")
	}
	if unknown != nil {
		e.stats.UnknownAlleleSites++
	}

	return alleles, nil
}

func (e *SiteEncoder) sampleAt(c int) string {
	if c < len(e.fileColumns) {
		return e.fileColumns[c]
	}
	return fmt.Sprintf("column %d", c)
}

// EncodeAll reads vr to the end, passing every emitted site to visit. It
// stops at the first error, including cancellation of ctx.
func (e *SiteEncoder) EncodeAll(ctx context.Context, vr *VariantReader, visit func(*Site) error) error {
	for v := vr.Read(); v != nil; v = vr.Read() {
		if err := ctx.Err(); err != nil {
			return err
		}

		site, err := e.Encode(v)
		if err != nil {
			return err
		}
		if site == nil {
			continue
		}

		if err := visit(site); err != nil {
			return err
		}
	}

	return vr.Error()
}
