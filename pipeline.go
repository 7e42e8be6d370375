package tsprep

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Progress is logged every progressInterval emitted sites.
const progressInterval = 100000

// Summary describes a completed run.
type Summary struct {
	RunID          string
	Chromosome     string
	SequenceLength int
	Populations    int
	Individuals    int
	Sites          int

	// UnusedSamples are VCF columns with no metadata row.
	UnusedSamples []string

	Stats EncoderStats
}

// Run prepares one chromosome: it reads the metadata, aligns the VCF columns
// to it and streams every validated site into sink, which is finalized on
// success. On any error, including cancellation of ctx, the sink is aborted
// and nothing is finalized.
func Run(ctx context.Context, cfg Config, sink Sink) (summary *Summary, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	defer func() {
		if err == nil {
			return
		}
		if abortErr := sink.Abort(); abortErr != nil {
			log.WithError(abortErr).Warnln("Could not discard partial output")
		}
	}()

	rows, err := LoadMetadata(ctx, cfg.Metadata, cfg.Storage)
	if err != nil {
		return nil, err
	}
	regs, err := BuildRegistries(rows, cfg.DuplicateSamples, log)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"populations": regs.Populations.Len(), "individuals": regs.Individuals.Len()}).
		Infoln("Loaded metadata from", cfg.Metadata)

	vcf, err := OpenVCF(ctx, cfg.VCF, cfg.Storage)
	if err != nil {
		return nil, err
	}
	defer vcf.Close()

	samples, err := ReadSamples(vcf)
	if err != nil {
		return nil, err
	}
	columns := SampleIDs(samples)

	reindexer, err := BuildReindexer(columns, regs.Individuals.SampleIDs())
	if err != nil {
		return nil, err
	}
	unused := reindexer.Unused()
	if len(unused) > 0 {
		log.WithField("samples", len(unused)).Infoln("VCF samples without metadata are ignored")
	}

	resolve, err := buildResolver(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	popIDs := make([]int, regs.Populations.Len())
	for _, pop := range regs.Populations.Populations() {
		if popIDs[pop.ID], err = sink.AddPopulation(Metadata{"name": pop.Name}); err != nil {
			return nil, err
		}
	}
	for _, ind := range regs.Individuals.Individuals() {
		if _, err = sink.AddIndividual(Ploidy, Metadata{"name": ind.SampleID}, popIDs[ind.PopulationID]); err != nil {
			return nil, err
		}
	}

	enc := NewSiteEncoder(reindexer, columns, resolve, EncoderOptions{StrictAlleles: cfg.StrictAlleles, Logger: log})
	err = enc.EncodeAll(ctx, vcf.NewVariantReader(), func(site *Site) error {
		if err := sink.AddSite(site.Position, site.Genotypes, site.Alleles, site.AncestralAlleleIndex); err != nil {
			return err
		}
		if n := enc.Stats().Emitted; n%progressInterval == 0 {
			log.WithFields(logrus.Fields{"chrom": site.Chromosome, "pos": site.Position}).Infoln("Processed", n, "sites")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := enc.Stats()
	if stats.Emitted == 0 {
		log.Warnln("No sites were emitted from", cfg.VCF)
	}

	seqLen := enc.LastPosition() + 1
	if cfg.SequenceLength > 0 {
		if cfg.SequenceLength < seqLen {
			log.WithFields(logrus.Fields{"configured": cfg.SequenceLength, "derived": seqLen}).
				Warnln("Configured sequence length does not cover the last site; using the derived length")
		} else {
			seqLen = cfg.SequenceLength
		}
	}

	software := cfg.software()
	prov := NewProvenance(software.Name, software.Version)
	prov.Parameters = ProvenanceParameters{
		VCF:               cfg.VCF,
		Metadata:          cfg.Metadata,
		AncestralMethod:   cfg.Ancestral.Method.String(),
		AncestralTable:    cfg.Ancestral.Table,
		StrictAlleles:     cfg.StrictAlleles,
		PopulationsAdded:  regs.Populations.Len(),
		IndividualsAdded:  regs.Individuals.Len(),
		SitesAdded:        stats.Emitted,
		DuplicatesSkipped: stats.Duplicates,
		MissingAncestral:  stats.MissingAncestral,
	}

	info := FinalizeInfo{Chromosome: enc.Chromosome(), SequenceLength: seqLen, Provenance: prov}
	if err = sink.Finalize(info); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"chrom":             info.Chromosome,
		"sites":             stats.Emitted,
		"duplicates":        stats.Duplicates,
		"missing_ancestral": stats.MissingAncestral,
		"run_id":            prov.RunID,
	}).Infoln("Finished")

	return &Summary{
		RunID:          prov.RunID,
		Chromosome:     info.Chromosome,
		SequenceLength: seqLen,
		Populations:    regs.Populations.Len(),
		Individuals:    regs.Individuals.Len(),
		Sites:          stats.Emitted,
		UnusedSamples:  unused,
		Stats:          stats,
	}, nil
}

func buildResolver(ctx context.Context, cfg Config, log logrus.FieldLogger) (AncestralResolver, error) {
	var numeric NumericAncestors
	var symbolic SymbolicAncestors
	var err error

	switch cfg.Ancestral.Method {
	case AncestralNumeric:
		numeric, err = LoadNumericAncestors(ctx, cfg.Ancestral.Table, cfg.Storage)
		if err != nil {
			return nil, err
		}
		log.WithField("loci", len(numeric)).Infoln("Loaded ancestral allele indices from", cfg.Ancestral.Table)
	case AncestralSymbolic:
		symbolic, err = LoadSymbolicAncestors(ctx, cfg.Ancestral.Table, cfg.Storage)
		if err != nil {
			return nil, err
		}
		log.WithField("loci", len(symbolic)).Infoln("Loaded ancestral alleles from", cfg.Ancestral.Table)
	}

	return NewAncestralResolver(cfg.Ancestral.Method, numeric, symbolic, log)
}
