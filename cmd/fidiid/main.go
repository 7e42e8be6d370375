package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/carbocation/tsprep"
	"github.com/sirupsen/logrus"
)

const (
	vcfSuffix    = ".vcf.gz"
	outputSuffix = ".sample_names.txt"
)

func main() {
	indivList := flag.String("indiv-list", "", "Individual list: individual ID and family ID, tab separated")
	directory := flag.String("directory", "", "Directory to scan for *.vcf.gz files")
	flag.Parse()

	if *indivList == "" || *directory == "" {
		flag.PrintDefaults()
		log.Fatalln("-indiv-list and -directory are required")
	}

	ctx := context.Background()

	families, err := tsprep.LoadIndividualList(ctx, *indivList, nil)
	if err != nil {
		log.Fatalln(err)
	}

	dir := genomisc.ExpandHome(*directory)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	var vcfs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), vcfSuffix) {
			vcfs = append(vcfs, entry.Name())
		}
	}
	sort.Strings(vcfs)

	logrus.WithField("directory", dir).Infoln("Found", len(vcfs), "VCF files")

	for _, name := range vcfs {
		outPath := filepath.Join(dir, strings.TrimSuffix(name, vcfSuffix)+outputSuffix)
		n, err := writeOne(ctx, filepath.Join(dir, name), outPath, families, *indivList)
		if err != nil {
			log.Fatalln(err)
		}
		logrus.WithField("output", outPath).Infoln("Wrote", n, "individuals")
	}
}

func writeOne(ctx context.Context, vcfPath, outPath string, families map[string]string, listPath string) (int, error) {
	vcf, err := tsprep.OpenVCF(ctx, vcfPath, nil)
	if err != nil {
		return 0, err
	}
	defer vcf.Close()

	samples, err := tsprep.ReadSamples(vcf)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, pfx.Err(err)
	}

	if err := tsprep.WriteSampleNames(out, tsprep.SampleIDs(samples), families, listPath); err != nil {
		out.Close()
		os.Remove(outPath)
		return 0, err
	}

	if err := out.Close(); err != nil {
		return 0, pfx.Err(err)
	}

	return len(samples), nil
}
