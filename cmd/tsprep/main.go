package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/carbocation/tsprep"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML run file. Flags that are set override its values.")
	vcfPath := flag.String("vcf", "", "Phased VCF for a single chromosome (local, ~/, or gs://; plain, gzip, bgzip or zstd)")
	metadataPath := flag.String("metadata", "", "Two-column population/sample metadata file")
	asReference := flag.Bool("ancestral-as-reference", false, "Use the reference allele as the ancestral allele")
	asMajor := flag.Bool("ancestral-as-major", false, "Use the most frequent allele as the ancestral allele")
	ancestorsTable := flag.String("ancestors-table", "", "Table of ancestral allele indices (chrom, pos, anc_allele)")
	comparaTable := flag.String("compara-table", "", "Table of ancestral allele letters (chrom, position, ancestor)")
	output := flag.String("output", "", "Output path")
	format := flag.String("format", "", "Output format: sqlite (default) or arrow")
	chunkSize := flag.Int("chunk-size", 0, "Sites per Arrow record batch")
	strict := flag.Bool("strict-alleles", false, "Fail on alleles other than A, C, G, T, *")
	duplicates := flag.String("duplicate-samples", "", "Samples listed twice in the metadata: fail (default), keep-first, overwrite")
	seqLen := flag.Int("sequence-length", 0, "Sequence length, if longer than the last position + 1")
	verbose := flag.Bool("verbose", false, "Log at debug level")
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg := &tsprep.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = tsprep.LoadConfig(*configPath); err != nil {
			log.Fatalln(err)
		}
	}

	ancestral, ok, err := tsprep.AncestralFlags{
		AsReference:    *asReference,
		AsMajor:        *asMajor,
		AncestorsTable: *ancestorsTable,
		ComparaTable:   *comparaTable,
	}.Config()
	if err != nil {
		flag.PrintDefaults()
		log.Fatalln(err)
	}
	if ok {
		cfg.Ancestral = ancestral
	}

	if *vcfPath != "" {
		cfg.VCF = *vcfPath
	}
	if *metadataPath != "" {
		cfg.Metadata = *metadataPath
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *chunkSize > 0 {
		cfg.Output.ChunkSize = *chunkSize
	}
	if *strict {
		cfg.StrictAlleles = true
	}
	if *duplicates != "" {
		if err := cfg.DuplicateSamples.UnmarshalText([]byte(*duplicates)); err != nil {
			log.Fatalln(err)
		}
	}
	if *seqLen > 0 {
		cfg.SequenceLength = *seqLen
	}
	cfg.Logger = logger

	if err := cfg.Validate(); err != nil {
		flag.PrintDefaults()
		log.Fatalln(err)
	}
	if err := cfg.ValidateOutput(); err != nil {
		flag.PrintDefaults()
		log.Fatalln(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink, err := tsprep.NewSink(cfg.Output)
	if err != nil {
		log.Fatalln(err)
	}

	summary, err := tsprep.Run(ctx, *cfg, sink)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Printf("Wrote %s: chromosome %s, %d populations, %d individuals, %d sites (%d duplicate positions skipped, %d without ancestral allele), sequence length %d\n",
		cfg.Output.Path, summary.Chromosome, summary.Populations, summary.Individuals, summary.Sites,
		summary.Stats.Duplicates, summary.Stats.MissingAncestral, summary.SequenceLength)
}
