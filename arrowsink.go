package tsprep

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

const (
	// DefaultArrowChunkSize is the number of sites per record batch.
	DefaultArrowChunkSize = 4096

	// ArrowInfoSuffix names the JSON file written next to the Arrow file with
	// the chromosome, sequence length and provenance of the run.
	ArrowInfoSuffix = ".info.json"
)

// Fixed leading columns of the Arrow genotype matrix. Each individual then
// contributes one int8 column per haplotype, named <sample>_0 and <sample>_1.
const (
	ArrowPositionColumn  = "position"
	ArrowAllelesColumn   = "alleles"
	ArrowAncestralColumn = "ancestral_allele_index"
	arrowFixedColumns    = 3
)

type arrowIndividual struct {
	Name       string `json:"name"`
	Population int    `json:"population"`
	Ploidy     int    `json:"ploidy"`
}

// ArrowInfo is the content of the ArrowInfoSuffix sidecar.
type ArrowInfo struct {
	Chromosome     string     `json:"chromosome"`
	SequenceLength int        `json:"sequence_length"`
	Sites          int        `json:"sites"`
	Provenance     Provenance `json:"provenance"`
}

// ArrowSink writes sites as rows of an Arrow IPC file. Population and
// individual metadata are stored as JSON in the schema metadata under the
// keys "populations" and "individuals".
type ArrowSink struct {
	Path      string
	ChunkSize int

	partial        string
	file           *os.File
	pool           *memory.GoAllocator
	populations    []Metadata
	individuals    []arrowIndividual
	schema         *arrow.Schema
	writer         *ipc.FileWriter
	builders       []array.Builder
	numRowsInChunk int
	sites          int
}

// NewArrowSink creates path + ".partial"; Finalize renames it to path.
func NewArrowSink(path string, chunkSize int) (*ArrowSink, error) {
	path = genomisc.ExpandHome(path)
	if chunkSize < 1 {
		chunkSize = DefaultArrowChunkSize
	}

	partial := path + ".partial"
	file, err := os.Create(partial)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &ArrowSink{
		Path:      path,
		ChunkSize: chunkSize,
		partial:   partial,
		file:      file,
		pool:      memory.NewGoAllocator(),
	}, nil
}

func (a *ArrowSink) AddPopulation(metadata Metadata) (int, error) {
	if a.writer != nil {
		return 0, fmt.Errorf("population added after the first site")
	}
	a.populations = append(a.populations, metadata)
	return len(a.populations) - 1, nil
}

func (a *ArrowSink) AddIndividual(ploidy int, metadata Metadata, population int) (int, error) {
	if a.writer != nil {
		return 0, fmt.Errorf("individual added after the first site")
	}
	if ploidy != Ploidy {
		return 0, fmt.Errorf("the Arrow sink only holds diploid individuals, got ploidy %d", ploidy)
	}
	if population < 0 || population >= len(a.populations) {
		return 0, fmt.Errorf("individual refers to population %d, but only %d populations were added", population, len(a.populations))
	}

	name, _ := metadata["name"].(string)
	if name == "" {
		name = fmt.Sprintf("individual%d", len(a.individuals))
	}

	a.individuals = append(a.individuals, arrowIndividual{Name: name, Population: population, Ploidy: ploidy})
	return len(a.individuals) - 1, nil
}

func (a *ArrowSink) init() error {
	pops, err := json.Marshal(a.populations)
	if err != nil {
		return pfx.Err(err)
	}
	inds, err := json.Marshal(a.individuals)
	if err != nil {
		return pfx.Err(err)
	}

	fields := make([]arrow.Field, 0, arrowFixedColumns+Ploidy*len(a.individuals))
	fields = append(fields,
		arrow.Field{Name: ArrowPositionColumn, Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: ArrowAllelesColumn, Type: arrow.BinaryTypes.String},
		arrow.Field{Name: ArrowAncestralColumn, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	)
	for _, ind := range a.individuals {
		for h := 0; h < Ploidy; h++ {
			fields = append(fields, arrow.Field{Name: fmt.Sprintf("%s_%d", ind.Name, h), Type: arrow.PrimitiveTypes.Int8})
		}
	}

	md := arrow.NewMetadata([]string{"populations", "individuals"}, []string{string(pops), string(inds)})
	a.schema = arrow.NewSchema(fields, &md)

	a.writer, err = ipc.NewFileWriter(a.file, ipc.WithSchema(a.schema), ipc.WithAllocator(a.pool))
	if err != nil {
		return pfx.Err(err)
	}

	a.builders = make([]array.Builder, len(fields))
	a.builders[0] = array.NewInt64Builder(a.pool)
	a.builders[1] = array.NewStringBuilder(a.pool)
	a.builders[2] = array.NewInt64Builder(a.pool)
	for i := arrowFixedColumns; i < len(fields); i++ {
		a.builders[i] = array.NewInt8Builder(a.pool)
	}

	return nil
}

func (a *ArrowSink) AddSite(position int, genotypes GenotypeRecord, alleles []string, ancestralAlleleIndex int) error {
	if a.writer == nil {
		if err := a.init(); err != nil {
			return err
		}
	}

	if len(genotypes) != len(a.builders)-arrowFixedColumns {
		return fmt.Errorf("position %d: expected %d genotypes, got %d", position, len(a.builders)-arrowFixedColumns, len(genotypes))
	}

	al, err := json.Marshal(alleles)
	if err != nil {
		return pfx.Err(err)
	}

	a.builders[0].(*array.Int64Builder).Append(int64(position))
	a.builders[1].(*array.StringBuilder).Append(string(al))
	if ancestralAlleleIndex == Missing {
		a.builders[2].(*array.Int64Builder).AppendNull()
	} else {
		a.builders[2].(*array.Int64Builder).Append(int64(ancestralAlleleIndex))
	}
	for i, g := range genotypes {
		a.builders[arrowFixedColumns+i].(*array.Int8Builder).Append(g)
	}

	a.numRowsInChunk++
	a.sites++

	if a.numRowsInChunk == a.ChunkSize {
		return a.writeChunk()
	}

	return nil
}

func (a *ArrowSink) writeChunk() error {
	cols := make([]arrow.Array, 0, len(a.builders))
	for _, b := range a.builders {
		// NewArray resets the builder
		cols = append(cols, b.NewArray())
	}

	record := array.NewRecord(a.schema, cols, int64(a.numRowsInChunk))
	defer record.Release()
	for _, col := range cols {
		col.Release()
	}

	if err := a.writer.Write(record); err != nil {
		return pfx.Err(err)
	}

	a.numRowsInChunk = 0

	return nil
}

// Finalize flushes the last batch, writes the sidecar and renames both files
// into place.
func (a *ArrowSink) Finalize(info FinalizeInfo) error {
	if a.file == nil {
		return fmt.Errorf("arrow sink %s is already closed", a.Path)
	}

	var sidecar []byte

	if a.writer == nil {
		if err := a.init(); err != nil {
			return err
		}
	}
	if a.numRowsInChunk > 0 {
		if err := a.writeChunk(); err != nil {
			return err
		}
	}
	err := a.writer.Close()
	a.writer = nil
	a.release()
	if err != nil {
		return pfx.Err(err)
	}

	if err := a.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return pfx.Err(err)
	}
	a.file = nil

	sidecar, err = json.MarshalIndent(ArrowInfo{
		Chromosome:     info.Chromosome,
		SequenceLength: info.SequenceLength,
		Sites:          a.sites,
		Provenance:     info.Provenance,
	}, "", "  ")
	if err != nil {
		return pfx.Err(err)
	}
	if err := os.WriteFile(a.partial+ArrowInfoSuffix, sidecar, 0644); err != nil {
		return pfx.Err(err)
	}

	if err := os.Rename(a.partial+ArrowInfoSuffix, a.Path+ArrowInfoSuffix); err != nil {
		return pfx.Err(err)
	}
	if err := os.Rename(a.partial, a.Path); err != nil {
		return pfx.Err(err)
	}
	a.partial = ""

	return nil
}

// Abort closes and removes the partial file.
func (a *ArrowSink) Abort() error {
	if a.partial == "" {
		return nil
	}

	if a.writer != nil {
		a.writer.Close()
		a.writer = nil
	}
	a.release()
	if a.file != nil {
		a.file.Close()
		a.file = nil
	}

	for _, path := range []string{a.partial, a.partial + ArrowInfoSuffix} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return pfx.Err(err)
		}
	}
	a.partial = ""

	return nil
}

func (a *ArrowSink) release() {
	for _, b := range a.builders {
		b.Release()
	}
	a.builders = nil
}

// ReadArrowInfo reads the sidecar of a finalized Arrow file.
func ReadArrowInfo(path string) (*ArrowInfo, error) {
	raw, err := os.ReadFile(genomisc.ExpandHome(path) + ArrowInfoSuffix)
	if err != nil {
		return nil, pfx.Err(err)
	}

	info := &ArrowInfo{}
	if err := json.Unmarshal(raw, info); err != nil {
		return nil, pfx.Err(err)
	}

	return info, nil
}
