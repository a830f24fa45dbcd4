package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/typeinfo/internal/compiler"
)

// Scenario defines a layout conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists .cue and .yaml schema files to load, in order.
	Schemas []string `yaml:"schemas,omitempty"`

	// Types declares additional types inline, after all schemas.
	Types []compiler.TypeDoc `yaml:"types,omitempty"`

	// Assertions validate the resolved layouts and failures.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion types.
const (
	AssertLayout      = "layout"
	AssertError       = "error"
	AssertEqual       = "equal"
	AssertFingerprint = "fingerprint"
)

// Assertion is one expectation about the scenario's outcome.
// Which fields apply depends on Type.
type Assertion struct {
	Type string `yaml:"type"`

	// Name is the declared type the assertion is about.
	Name string `yaml:"name"`

	// layout
	Size   *int          `yaml:"size,omitempty"`
	Align  *int          `yaml:"align,omitempty"`
	Policy string        `yaml:"policy,omitempty"`
	Fields []FieldExpect `yaml:"fields,omitempty"`

	// error
	Code string `yaml:"code,omitempty"`

	// equal
	Other string `yaml:"other,omitempty"`

	// fingerprint
	Fingerprint string `yaml:"fingerprint,omitempty"`
}

// FieldExpect is the expected placement of one field. Fields are matched
// by position; Size is checked only when set.
type FieldExpect struct {
	Name   string `yaml:"name"`
	Offset int    `yaml:"offset"`
	Size   *int   `yaml:"size,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Schema paths are
// resolved relative to the directory holding the file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative schema paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" for "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, schema := range scenario.Schemas {
		if !filepath.IsAbs(schema) && basePath != "" {
			scenario.Schemas[i] = filepath.Join(basePath, schema)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Schemas) == 0 && len(s.Types) == 0 {
		return fmt.Errorf("at least one schema or inline type is required")
	}

	for i, schema := range s.Schemas {
		switch filepath.Ext(schema) {
		case ".cue", ".yaml", ".yml":
		default:
			return fmt.Errorf("schemas[%d]: unsupported schema file %q", i, schema)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch a.Type {
	case AssertLayout:
		if a.Size == nil && a.Align == nil && a.Policy == "" && len(a.Fields) == 0 {
			return fmt.Errorf("layout assertion for %s checks nothing", a.Name)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("error assertion requires code")
		}
	case AssertEqual:
		if a.Other == "" {
			return fmt.Errorf("equal assertion requires other")
		}
	case AssertFingerprint:
		if a.Fingerprint == "" {
			return fmt.Errorf("fingerprint assertion requires fingerprint")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	return nil
}
