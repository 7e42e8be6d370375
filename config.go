package tsprep

import (
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Output formats understood by NewSink.
const (
	FormatSQLite = "sqlite"
	FormatArrow  = "arrow"
)

type AncestralConfig struct {
	Method AncestralMethod `yaml:"method"`

	// Table is the ancestors table for the numeric and symbolic methods.
	Table string `yaml:"table"`
}

type OutputConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"`
	ChunkSize int    `yaml:"chunk_size"`
}

// Config describes one run. It can be loaded from YAML with LoadConfig or
// filled in from flags.
type Config struct {
	VCF      string `yaml:"vcf"`
	Metadata string `yaml:"metadata"`

	Ancestral AncestralConfig `yaml:"ancestral"`

	// StrictAlleles turns alleles outside A, C, G, T, * into an error.
	StrictAlleles bool `yaml:"strict_alleles"`

	DuplicateSamples DuplicatePolicy `yaml:"duplicate_samples"`

	// SequenceLength overrides the derived length (last position + 1) when it
	// is larger.
	SequenceLength int `yaml:"sequence_length"`

	SoftwareName    string `yaml:"software_name"`
	SoftwareVersion string `yaml:"software_version"`

	Output OutputConfig `yaml:"output"`

	Logger  logrus.FieldLogger `yaml:"-"`
	Storage *storage.Client    `yaml:"-"`
}

// AncestralFlags are the command-line switches that each select one
// ancestral method.
type AncestralFlags struct {
	AsReference    bool
	AsMajor        bool
	AncestorsTable string
	ComparaTable   string
}

// Config returns the ancestral section selected by the flags. ok is false
// when no flag is set, so a method from a config file can stand. Setting more
// than one flag is a ConfigError.
func (f AncestralFlags) Config() (cfg AncestralConfig, ok bool, err error) {
	selected := 0
	for _, set := range []bool{f.AsReference, f.AsMajor, f.AncestorsTable != "", f.ComparaTable != ""} {
		if set {
			selected++
		}
	}
	if selected > 1 {
		return AncestralConfig{}, false, &ConfigError{
			Field:  "ancestral",
			Reason: "-ancestral-as-reference, -ancestral-as-major, -ancestors-table and -compara-table are mutually exclusive",
		}
	}

	switch {
	case f.AsReference:
		return AncestralConfig{Method: AncestralReference}, true, nil
	case f.AsMajor:
		return AncestralConfig{Method: AncestralMajor}, true, nil
	case f.AncestorsTable != "":
		return AncestralConfig{Method: AncestralNumeric, Table: f.AncestorsTable}, true, nil
	case f.ComparaTable != "":
		return AncestralConfig{Method: AncestralSymbolic, Table: f.ComparaTable}, true, nil
	}

	return AncestralConfig{}, false, nil
}

// LoadConfig reads a YAML run file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(genomisc.ExpandHome(path))
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return cfg, nil
}

// Validate checks that the configuration describes exactly one runnable
// job. It does not touch the filesystem.
func (c *Config) Validate() error {
	if c.VCF == "" {
		return &ConfigError{Field: "vcf", Reason: "a VCF path is required"}
	}
	if c.Metadata == "" {
		return &ConfigError{Field: "metadata", Reason: "a metadata path is required"}
	}

	switch c.Ancestral.Method {
	case AncestralReference, AncestralMajor, AncestralNumeric, AncestralSymbolic:
	default:
		return &ConfigError{Field: "ancestral.method", Reason: "exactly one ancestral method must be selected"}
	}
	if c.Ancestral.Method.NeedsTable() && c.Ancestral.Table == "" {
		return &ConfigError{Field: "ancestral.table", Reason: fmt.Sprintf("the %s method needs an ancestors table", c.Ancestral.Method)}
	}
	if !c.Ancestral.Method.NeedsTable() && c.Ancestral.Table != "" {
		return &ConfigError{Field: "ancestral.table", Reason: fmt.Sprintf("the %s method does not read an ancestors table", c.Ancestral.Method)}
	}

	if c.DuplicateSamples > DuplicateOverwrite {
		return &ConfigError{Field: "duplicate_samples", Reason: fmt.Sprintf("unknown policy %d", c.DuplicateSamples)}
	}
	if c.SequenceLength < 0 {
		return &ConfigError{Field: "sequence_length", Reason: "must not be negative"}
	}

	return nil
}

// ValidateOutput checks the output section, which only the binaries need.
func (c *Config) ValidateOutput() error {
	if c.Output.Path == "" {
		return &ConfigError{Field: "output.path", Reason: "an output path is required"}
	}
	switch c.Output.Format {
	case "", FormatSQLite, FormatArrow:
	default:
		return &ConfigError{Field: "output.format", Reason: fmt.Sprintf("%q is not one of %s, %s", c.Output.Format, FormatSQLite, FormatArrow)}
	}
	return nil
}

func (c *Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c *Config) software() Software {
	s := Software{Name: c.SoftwareName, Version: c.SoftwareVersion}
	if s.Name == "" {
		s.Name = SoftwareName
	}
	if s.Version == "" {
		s.Version = SoftwareVersion
	}
	return s
}

// NewSink creates the sink described by the output section.
func NewSink(out OutputConfig) (Sink, error) {
	switch out.Format {
	case "", FormatSQLite:
		s, err := CreateStore(out.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case FormatArrow:
		a, err := NewArrowSink(out.Path, out.ChunkSize)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, &ConfigError{Field: "output.format", Reason: fmt.Sprintf("%q is not one of %s, %s", out.Format, FormatSQLite, FormatArrow)}
}
