package tsprep

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulationRegistry(t *testing.T) {
	r := NewPopulationRegistry()

	assert.Equal(t, 0, r.Register("PopA"))
	assert.Equal(t, 1, r.Register("PopB"))
	assert.Equal(t, 0, r.Register("PopA"))
	assert.Equal(t, 2, r.Len())

	id, ok := r.Lookup("PopB")
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	_, ok = r.Lookup("PopC")
	assert.False(t, ok)

	assert.Equal(t, []Population{{ID: 0, Name: "PopA"}, {ID: 1, Name: "PopB"}}, r.Populations())
}

func TestIndividualRegistryOrder(t *testing.T) {
	r := NewIndividualRegistry(DuplicateFail)

	for i, s := range []string{"Sample3", "Sample2", "Sample1"} {
		id, added, err := r.Register(s, i%2)
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, i, id)
	}

	assert.Equal(t, []string{"Sample3", "Sample2", "Sample1"}, r.SampleIDs())
	assert.Equal(t, 6, r.NumSlots())
}

func TestIndividualRegistryDuplicates(t *testing.T) {
	t.Run("fail", func(t *testing.T) {
		r := NewIndividualRegistry(DuplicateFail)
		_, _, err := r.Register("S1", 0)
		require.NoError(t, err)

		_, _, err = r.Register("S1", 1)
		var dup *DuplicateIndividualError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "S1", dup.SampleID)
		assert.Equal(t, 0, dup.First)
	})

	t.Run("keep-first", func(t *testing.T) {
		r := NewIndividualRegistry(DuplicateKeepFirst)
		r.Register("S1", 0)
		id, added, err := r.Register("S1", 1)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, 0, id)
		assert.Equal(t, 0, r.Individuals()[0].PopulationID)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("overwrite", func(t *testing.T) {
		r := NewIndividualRegistry(DuplicateOverwrite)
		r.Register("S1", 0)
		r.Register("S2", 0)
		id, added, err := r.Register("S1", 1)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, 0, id)
		assert.Equal(t, 1, r.Individuals()[0].PopulationID)
		assert.Equal(t, []string{"S1", "S2"}, r.SampleIDs())
	})
}

func TestDuplicatePolicyText(t *testing.T) {
	var p DuplicatePolicy
	require.NoError(t, p.UnmarshalText([]byte("Keep-First")))
	assert.Equal(t, DuplicateKeepFirst, p)

	out, err := DuplicateOverwrite.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "overwrite", string(out))

	var ce *ConfigError
	assert.True(t, errors.As(p.UnmarshalText([]byte("ignore")), &ce))
}

func TestBuildRegistries(t *testing.T) {
	rows := []MetadataRow{
		{Population: "PopA", SampleID: "Sample3", Line: 1},
		{Population: "PopB", SampleID: "Sample2", Line: 2},
		{Population: "PopA", SampleID: "Sample1", Line: 3},
	}

	regs, err := BuildRegistries(rows, DuplicateFail, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, regs.Populations.Len())
	assert.Equal(t, []string{"Sample3", "Sample2", "Sample1"}, regs.Individuals.SampleIDs())

	inds := regs.Individuals.Individuals()
	assert.Equal(t, 0, inds[0].PopulationID)
	assert.Equal(t, 1, inds[1].PopulationID)
	assert.Equal(t, 0, inds[2].PopulationID)
}

func TestBuildRegistriesDuplicateLogged(t *testing.T) {
	rows := []MetadataRow{
		{Population: "PopA", SampleID: "S1", Line: 1},
		{Population: "PopB", SampleID: "S1", Line: 2},
	}

	log, hook := quietLogger()
	regs, err := BuildRegistries(rows, DuplicateKeepFirst, log)
	require.NoError(t, err)

	assert.Equal(t, 1, regs.Individuals.Len())
	// The population of the skipped row is still registered.
	assert.Equal(t, 2, regs.Populations.Len())

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "S1", hook.LastEntry().Data["sample"])

	_, err = BuildRegistries(rows, DuplicateFail, log)
	var dup *DuplicateIndividualError
	assert.True(t, errors.As(err, &dup))
}
