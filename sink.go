package tsprep

// Metadata is the JSON object attached to populations and individuals.
type Metadata map[string]interface{}

// FinalizeInfo is handed to a Sink once every site has been added.
type FinalizeInfo struct {
	Chromosome     string
	SequenceLength int
	Provenance     Provenance
}

// Sink receives the prepared sample data: populations, then individuals,
// then sites in increasing position order. Nothing written to a Sink may be
// treated as valid input downstream until Finalize returns nil; Abort
// discards everything written so far.
type Sink interface {
	AddPopulation(metadata Metadata) (int, error)
	AddIndividual(ploidy int, metadata Metadata, population int) (int, error)
	AddSite(position int, genotypes GenotypeRecord, alleles []string, ancestralAlleleIndex int) error
	Finalize(info FinalizeInfo) error
	Abort() error
}

// MemoryIndividual is an individual held by a MemorySink.
type MemoryIndividual struct {
	Ploidy     int
	Metadata   Metadata
	Population int
}

// MemorySite is a site held by a MemorySink.
type MemorySite struct {
	Position             int
	Genotypes            GenotypeRecord
	Alleles              []string
	AncestralAlleleIndex int
}

// MemorySink keeps everything in memory. It is mostly useful in tests and
// for small dry runs.
type MemorySink struct {
	Populations []Metadata
	Individuals []MemoryIndividual
	Sites       []MemorySite
	Info        *FinalizeInfo
	Aborted     bool
}

func (m *MemorySink) AddPopulation(metadata Metadata) (int, error) {
	m.Populations = append(m.Populations, metadata)
	return len(m.Populations) - 1, nil
}

func (m *MemorySink) AddIndividual(ploidy int, metadata Metadata, population int) (int, error) {
	m.Individuals = append(m.Individuals, MemoryIndividual{Ploidy: ploidy, Metadata: metadata, Population: population})
	return len(m.Individuals) - 1, nil
}

func (m *MemorySink) AddSite(position int, genotypes GenotypeRecord, alleles []string, ancestralAlleleIndex int) error {
	gt := make(GenotypeRecord, len(genotypes))
	copy(gt, genotypes)
	al := make([]string, len(alleles))
	copy(al, alleles)

	m.Sites = append(m.Sites, MemorySite{Position: position, Genotypes: gt, Alleles: al, AncestralAlleleIndex: ancestralAlleleIndex})
	return nil
}

func (m *MemorySink) Finalize(info FinalizeInfo) error {
	m.Info = &info
	return nil
}

func (m *MemorySink) Abort() error {
	m.Aborted = true
	m.Sites = nil
	return nil
}
