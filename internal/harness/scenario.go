package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/criteria/internal/criteria"
)

// Scenario defines a conformance test scenario: a registry, seed data, and
// the criteria cases run against them.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas is the path to a schema file or CUE directory.
	// Relative paths are resolved against the scenario file location.
	Schemas string `yaml:"schemas,omitempty"`

	// InlineSchemas declares schemas in the scenario itself.
	InlineSchemas []criteria.Schema `yaml:"inline_schemas,omitempty"`

	// Seed lists rows inserted before any case runs.
	Seed []SeedBlock `yaml:"seed,omitempty"`

	// Links lists pivot rows inserted after seeding.
	Links []LinkStep `yaml:"links,omitempty"`

	// Cases are run in order against the seeded store.
	Cases []Case `yaml:"cases"`
}

// SeedBlock inserts rows into one schema's table.
type SeedBlock struct {
	Schema string           `yaml:"schema"`
	Rows   []map[string]any `yaml:"rows"`
}

// LinkStep connects two rows through a many-to-many relation.
type LinkStep struct {
	Schema   string `yaml:"schema"`
	Relation string `yaml:"relation"`
	Local    any    `yaml:"local"`
	Target   any    `yaml:"target"`
}

// SeedFile is a standalone file of seed rows and links, used to populate a
// database outside a scenario.
type SeedFile struct {
	Seed  []SeedBlock `yaml:"seed"`
	Links []LinkStep  `yaml:"links,omitempty"`
}

// LoadSeedFile reads a seed YAML file. Unknown fields are rejected.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var file SeedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	return &file, nil
}

// Case runs one criteria document and checks its outcome.
type Case struct {
	Name string `yaml:"name"`

	// Criteria is an inline criteria document.
	Criteria yaml.Node `yaml:"criteria,omitempty"`

	// CriteriaFile is a path to a criteria document, relative to the
	// scenario file.
	CriteriaFile string `yaml:"criteria_file,omitempty"`

	Expect Expect `yaml:"expect"`
}

// HasInlineCriteria reports whether the case carries an inline document.
func (c Case) HasInlineCriteria() bool {
	return c.Criteria.Kind != 0
}

// Expect lists the checks applied to a case. Unset fields are not checked.
type Expect struct {
	IDs    []any            `yaml:"ids,omitempty"`
	Count  *int64           `yaml:"count,omitempty"`
	SQL    string           `yaml:"sql,omitempty"`
	Params []any            `yaml:"params,omitempty"`
	Rows   []map[string]any `yaml:"rows,omitempty"`
	Error  string           `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative schema and criteria paths are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative paths against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Strict field validation catches typos like "case:" vs "cases:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		scenario.Schemas = resolvePath(basePath, scenario.Schemas)
		for i := range scenario.Cases {
			scenario.Cases[i].CriteriaFile = resolvePath(basePath, scenario.Cases[i].CriteriaFile)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Schemas == "" && len(s.InlineSchemas) == 0:
		return fmt.Errorf("schemas or inline_schemas is required")
	case s.Schemas != "" && len(s.InlineSchemas) > 0:
		return fmt.Errorf("schemas and inline_schemas are mutually exclusive")
	}

	if s.Schemas != "" {
		if _, err := os.Stat(s.Schemas); os.IsNotExist(err) {
			return fmt.Errorf("schema path not found: %s", s.Schemas)
		}
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, block := range s.Seed {
		if block.Schema == "" {
			return fmt.Errorf("seed[%d]: schema is required", i)
		}
	}

	for i, link := range s.Links {
		if link.Schema == "" || link.Relation == "" {
			return fmt.Errorf("links[%d]: schema and relation are required", i)
		}
		if link.Local == nil || link.Target == nil {
			return fmt.Errorf("links[%d]: local and target are required", i)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true

		if c.HasInlineCriteria() == (c.CriteriaFile != "") {
			return fmt.Errorf("cases[%d]: exactly one of criteria or criteria_file is required", i)
		}
		if c.Expect.Error != "" && (c.Expect.IDs != nil || c.Expect.Rows != nil || c.Expect.Count != nil) {
			return fmt.Errorf("cases[%d]: error cannot be combined with ids, rows or count", i)
		}
	}

	return nil
}
