package tsprep

import "github.com/sirupsen/logrus"

// Registries holds the populations and individuals of a run, frozen once
// built.
type Registries struct {
	Populations *PopulationRegistry
	Individuals *IndividualRegistry
}

// BuildRegistries registers the population of every row, then its sample.
// Population IDs follow first appearance in the metadata, including rows
// whose sample turns out to be a duplicate.
func BuildRegistries(rows []MetadataRow, policy DuplicatePolicy, log logrus.FieldLogger) (*Registries, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	regs := &Registries{
		Populations: NewPopulationRegistry(),
		Individuals: NewIndividualRegistry(policy),
	}

	for _, row := range rows {
		popID := regs.Populations.Register(row.Population)

		id, added, err := regs.Individuals.Register(row.SampleID, popID)
		if err != nil {
			return nil, err
		}
		if !added {
			log.WithFields(logrus.Fields{"sample": row.SampleID, "line": row.Line, "individual": id, "policy": policy.String()}).
				Warnln("Sample listed more than once in metadata")
		}
	}

	return regs, nil
}
