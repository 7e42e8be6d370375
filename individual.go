package tsprep

import (
	"fmt"
	"strings"
)

// Individual is a diploid sample. Individual i owns genotype slots 2i and
// 2i+1 of every site, whatever its VCF column is.
type Individual struct {
	ID           int
	SampleID     string
	PopulationID int
}

// DuplicatePolicy decides what happens when a sample ID is registered twice.
type DuplicatePolicy uint8

const (
	// DuplicateFail returns a *DuplicateIndividualError.
	DuplicateFail DuplicatePolicy = iota
	// DuplicateKeepFirst ignores the later registration.
	DuplicateKeepFirst
	// DuplicateOverwrite keeps the ID and slots of the first registration and
	// moves the individual to the later population.
	DuplicateOverwrite
)

var duplicatePolicyNames = []string{"fail", "keep-first", "overwrite"}

func (p DuplicatePolicy) String() string {
	if int(p) < len(duplicatePolicyNames) {
		return duplicatePolicyNames[p]
	}
	return "Illegal selection"
}

func (p DuplicatePolicy) MarshalText() ([]byte, error) {
	if int(p) >= len(duplicatePolicyNames) {
		return nil, fmt.Errorf("invalid duplicate policy %d", p)
	}
	return []byte(p.String()), nil
}

func (p *DuplicatePolicy) UnmarshalText(text []byte) error {
	for i, name := range duplicatePolicyNames {
		if strings.EqualFold(string(text), name) {
			*p = DuplicatePolicy(i)
			return nil
		}
	}
	return &ConfigError{Field: "duplicate_samples", Reason: fmt.Sprintf("%q is not one of %s", text, strings.Join(duplicatePolicyNames, ", "))}
}

// IndividualRegistry assigns individual IDs in registration (metadata) order.
type IndividualRegistry struct {
	Policy DuplicatePolicy

	ids         map[string]int
	individuals []Individual
}

func NewIndividualRegistry(policy DuplicatePolicy) *IndividualRegistry {
	return &IndividualRegistry{
		Policy: policy,
		ids:    make(map[string]int),
	}
}

// Register returns the individual ID for sampleID. The second return value is
// false when a duplicate was ignored or overwritten instead of allocated.
func (r *IndividualRegistry) Register(sampleID string, populationID int) (int, bool, error) {
	if id, exists := r.ids[sampleID]; exists {
		switch r.Policy {
		case DuplicateKeepFirst:
			return id, false, nil
		case DuplicateOverwrite:
			r.individuals[id].PopulationID = populationID
			return id, false, nil
		default:
			return id, false, &DuplicateIndividualError{SampleID: sampleID, First: id}
		}
	}

	id := len(r.individuals)
	r.ids[sampleID] = id
	r.individuals = append(r.individuals, Individual{ID: id, SampleID: sampleID, PopulationID: populationID})

	return id, true, nil
}

// Lookup returns the individual ID of sampleID.
func (r *IndividualRegistry) Lookup(sampleID string) (int, bool) {
	id, exists := r.ids[sampleID]
	return id, exists
}

func (r *IndividualRegistry) Len() int {
	return len(r.individuals)
}

// Individuals returns the registered individuals ordered by ID.
func (r *IndividualRegistry) Individuals() []Individual {
	out := make([]Individual, len(r.individuals))
	copy(out, r.individuals)
	return out
}

// SampleIDs returns sample IDs in registration order.
func (r *IndividualRegistry) SampleIDs() []string {
	out := make([]string, len(r.individuals))
	for i, ind := range r.individuals {
		out[i] = ind.SampleID
	}
	return out
}

// NumSlots is the genotype record length: Ploidy slots per individual.
func (r *IndividualRegistry) NumSlots() int {
	return Ploidy * len(r.individuals)
}
