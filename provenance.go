package tsprep

import (
	"encoding/json"
	"time"

	"github.com/carbocation/pfx"
	"github.com/google/uuid"
)

// Provenance records how an output was produced. Its JSON form is stored
// next to the data by every file-backed Sink.
type Provenance struct {
	RunID      string               `json:"run_id"`
	Timestamp  time.Time            `json:"timestamp"`
	Software   Software             `json:"software"`
	Parameters ProvenanceParameters `json:"parameters"`
}

type Software struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ProvenanceParameters struct {
	VCF               string `json:"vcf"`
	Metadata          string `json:"metadata"`
	AncestralMethod   string `json:"ancestral_method"`
	AncestralTable    string `json:"ancestral_table,omitempty"`
	StrictAlleles     bool   `json:"strict_alleles"`
	PopulationsAdded  int    `json:"populations_added"`
	IndividualsAdded  int    `json:"individuals_added"`
	SitesAdded        int    `json:"sites_added"`
	DuplicatesSkipped int    `json:"duplicates_skipped"`
	MissingAncestral  int    `json:"missing_ancestral"`
}

// NewProvenance starts a record with a fresh run ID and the current time.
func NewProvenance(name, version string) Provenance {
	return Provenance{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Software:  Software{Name: name, Version: version},
	}
}

func (p Provenance) JSON() (string, error) {
	out, err := json.Marshal(p)
	if err != nil {
		return "", pfx.Err(err)
	}
	return string(out), nil
}
