package tsprep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArrowFile(t *testing.T, path string) (*ipc.FileReader, func()) {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	reader, err := ipc.NewFileReader(file)
	require.NoError(t, err)

	return reader, func() {
		reader.Close()
		file.Close()
	}
}

func TestArrowSinkLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genotypes.arrow")

	// A chunk size of 2 splits the three sites over two record batches.
	sink, err := NewArrowSink(path, 2)
	require.NoError(t, err)
	fillSink(t, sink)

	info := testFinalizeInfo()
	require.NoError(t, sink.Finalize(info))
	assert.NoFileExists(t, path+".partial")

	reader, done := readArrowFile(t, path)
	defer done()

	schema := reader.Schema()
	names := make([]string, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"position", "alleles", "ancestral_allele_index", "Sample3_0", "Sample3_1", "Sample2_0", "Sample2_1"}, names)

	md := schema.Metadata()
	pops := md.FindKey("populations")
	require.GreaterOrEqual(t, pops, 0)
	assert.JSONEq(t, `[{"name":"PopA"},{"name":"PopB"}]`, md.Values()[pops])

	inds := md.FindKey("individuals")
	require.GreaterOrEqual(t, inds, 0)
	assert.JSONEq(t, `[{"name":"Sample3","population":0,"ploidy":2},{"name":"Sample2","population":1,"ploidy":2}]`, md.Values()[inds])

	require.Equal(t, 2, reader.NumRecords())

	var positions []int64
	var ancestral []int64
	var nulls []bool
	var alleles []string
	var sample2 []int8
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.Record(i)
		require.NoError(t, err)

		pos := rec.Column(0).(*array.Int64)
		al := rec.Column(1).(*array.String)
		anc := rec.Column(2).(*array.Int64)
		s2 := rec.Column(6).(*array.Int8)
		for j := 0; j < int(rec.NumRows()); j++ {
			positions = append(positions, pos.Value(j))
			alleles = append(alleles, al.Value(j))
			nulls = append(nulls, anc.IsNull(j))
			ancestral = append(ancestral, anc.Value(j))
			sample2 = append(sample2, s2.Value(j))
		}
	}

	assert.Equal(t, []int64{100, 200, 300}, positions)
	assert.Equal(t, []bool{false, true, false}, nulls)
	assert.Equal(t, int64(0), ancestral[0])
	assert.Equal(t, `["C","G","*"]`, alleles[1])
	assert.Equal(t, []int8{1, 2, 0}, sample2)

	got, err := ReadArrowInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "chr1", got.Chromosome)
	assert.Equal(t, 301, got.SequenceLength)
	assert.Equal(t, 3, got.Sites)
	assert.Equal(t, info.Provenance.RunID, got.Provenance.RunID)
}

func TestArrowSinkNoSites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.arrow")

	sink, err := NewArrowSink(path, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultArrowChunkSize, sink.ChunkSize)

	_, err = sink.AddPopulation(Metadata{"name": "PopA"})
	require.NoError(t, err)
	_, err = sink.AddIndividual(Ploidy, Metadata{"name": "S1"}, 0)
	require.NoError(t, err)
	require.NoError(t, sink.Finalize(testFinalizeInfo()))

	reader, done := readArrowFile(t, path)
	defer done()
	assert.Equal(t, 0, reader.NumRecords())
	assert.Len(t, reader.Schema().Fields(), 5)
}

func TestArrowSinkAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aborted.arrow")

	sink, err := NewArrowSink(path, 1)
	require.NoError(t, err)
	fillSink(t, sink)

	require.NoError(t, sink.Abort())
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".partial")
	assert.NoFileExists(t, path+ArrowInfoSuffix)
}

func TestArrowSinkRejectsBadInput(t *testing.T) {
	sink, err := NewArrowSink(filepath.Join(t.TempDir(), "bad.arrow"), 10)
	require.NoError(t, err)
	defer sink.Abort()

	_, err = sink.AddIndividual(Ploidy, Metadata{"name": "S1"}, 0)
	assert.Error(t, err)

	_, err = sink.AddPopulation(Metadata{"name": "P"})
	require.NoError(t, err)
	_, err = sink.AddIndividual(1, Metadata{"name": "S1"}, 0)
	assert.Error(t, err)

	_, err = sink.AddIndividual(Ploidy, Metadata{"name": "S1"}, 0)
	require.NoError(t, err)

	assert.Error(t, sink.AddSite(10, GenotypeRecord{0}, []string{"A"}, 0))
	require.NoError(t, sink.AddSite(10, GenotypeRecord{0, 0}, []string{"A"}, 0))

	_, err = sink.AddPopulation(Metadata{"name": "Q"})
	assert.Error(t, err, "schema is fixed after the first site")
}
