package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/carbocation/tsprep"
)

func main() {
	path := flag.String("store", "", "Filename of the sample store to summarise")
	nSites := flag.Int("sites", 10, "Number of leading sites to print")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No store file given")
	}

	store, err := tsprep.OpenStore(*path)
	if err != nil {
		log.Fatalln(err)
	}
	defer store.Close()

	log.Println("SQLite driver:", tsprep.WhichSQLiteDriver())

	chrom, err := store.Chromosome()
	if err != nil {
		log.Fatalln(err)
	}
	seqLen, err := store.SequenceLength()
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("Chromosome %s, sequence length %d\n", chrom, seqLen)

	provs, err := store.Provenances()
	if err != nil {
		log.Fatalln(err)
	}
	for _, p := range provs {
		var record tsprep.Provenance
		if err := json.Unmarshal([]byte(p.Record), &record); err != nil {
			log.Fatalln(err)
		}
		log.Printf("Run %s at %s by %s %s: %+v\n", p.RunID, p.Timestamp.Time(), record.Software.Name, record.Software.Version, record.Parameters)
	}

	pops, err := store.Populations()
	if err != nil {
		log.Fatalln(err)
	}
	for _, pop := range pops {
		fmt.Printf("Population %d) %s\n", pop.ID, pop.Metadata)
	}

	inds, err := store.Individuals()
	if err != nil {
		log.Fatalln(err)
	}
	for i, ind := range inds {
		if i > 10 {
			break
		}
		fmt.Printf("Individual %d) population %d, ploidy %d, %s\n", ind.ID, ind.PopulationID, ind.Ploidy, ind.Metadata)
	}
	log.Println("Saw", len(inds), "individuals")

	i := 0
	err = store.Sites(func(site *tsprep.Site) error {
		if i < *nSites {
			fmt.Printf("%d) %s:%d %v ancestral=%q genotypes=%v\n", i, site.Chromosome, site.Position, site.Alleles, site.AncestralState(), site.Genotypes)
		}
		i++
		return nil
	})
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Saw", i, "sites")
}
