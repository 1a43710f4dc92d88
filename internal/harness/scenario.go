package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/blockdoc/internal/engine"
)

// Scenario is one edit scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Initial is the starting document: "" or "empty" for a fresh document,
	// otherwise a JSON file path relative to the scenario file.
	Initial string `yaml:"initial,omitempty"`

	// IDs is the prefix of generated block ids. Default: "block".
	IDs string `yaml:"ids,omitempty"`

	// BlockTypes maps a block type to the data fields that give it a value.
	// Types not listed always have a value.
	BlockTypes map[string][]string `yaml:"block_types,omitempty"`

	// DefaultBlockType overrides the placeholder type.
	DefaultBlockType string `yaml:"default_block_type,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`

	// dir is the directory of the scenario file; relative paths resolve
	// against it.
	dir string
}

// Step is one op of a scenario. ExpectError names the error the op must
// fail with; a step without it must succeed.
type Step struct {
	engine.OpSpec `yaml:",inline"`
	ExpectError   string `yaml:"expect_error,omitempty"`
}

// Expected error names.
const (
	ErrorUnknownBlock     = "unknown_block"
	ErrorIndexOutOfRange  = "index_out_of_range"
	ErrorInvalidOperation = "invalid_op"
)

var expectErrors = []string{ErrorUnknownBlock, ErrorIndexOutOfRange, ErrorInvalidOperation}

// Assertion validates the final document.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Index is the layout position (block_type, has_value).
	Index int `yaml:"index,omitempty"`

	// Count is the expected size (layout_len, blocks_count).
	Count int `yaml:"count,omitempty"`

	// BlockType is the expected type tag (block_type).
	BlockType string `yaml:"block_type,omitempty"`

	// IDs is the expected layout (layout_equals).
	IDs []string `yaml:"ids,omitempty"`

	// Want is the expected hasValue result (has_value).
	Want *bool `yaml:"want,omitempty"`
}

// Assertion type constants.
const (
	AssertLayoutLen    = "layout_len"
	AssertBlocksCount  = "blocks_count"
	AssertBlockType    = "block_type"
	AssertLayoutEquals = "layout_equals"
	AssertHasValue     = "has_value"
)

var assertionTypes = []string{AssertLayoutLen, AssertBlocksCount, AssertBlockType, AssertLayoutEquals, AssertHasValue}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.dir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario decodes a scenario. Relative paths in it resolve against
// the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// initialPath returns the resolved path of the initial document, or "" for
// an empty start.
func (s *Scenario) initialPath() string {
	if s.Initial == "" || s.Initial == "empty" {
		return ""
	}
	if filepath.IsAbs(s.Initial) || s.dir == "" {
		return s.Initial
	}
	return filepath.Join(s.dir, s.Initial)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if step.ExpectError != "" && !slices.Contains(expectErrors, step.ExpectError) {
			return fmt.Errorf("steps[%d]: unknown expect_error %q", i, step.ExpectError)
		}
	}

	for i, a := range s.Assertions {
		if !slices.Contains(assertionTypes, a.Type) {
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		switch a.Type {
		case AssertBlockType:
			if a.BlockType == "" {
				return fmt.Errorf("assertions[%d]: block_type is required", i)
			}
		case AssertLayoutEquals:
			if len(a.IDs) == 0 {
				return fmt.Errorf("assertions[%d]: ids is required", i)
			}
		case AssertHasValue:
			if a.Want == nil {
				return fmt.Errorf("assertions[%d]: want is required", i)
			}
		}
	}
	return nil
}
