// Package config loads blockdoc settings.
//
// Settings are an explicit value passed to constructors. Nothing in blockdoc
// reads process-wide configuration.
//
// # File Format
//
//	default_block_type: text
//	type_field: "@type"
//	read_only_field: readOnly
//	reserved_key: volto.blocks
//	blocks_suffix: blocks
//	layout_suffix: blocks_layout
//	layout_items_key: items
//	block_types_dir: ./blocktypes
//	database: ./blockdoc.db
//
// Every field is optional; omitted fields keep their defaults. Relative paths
// are resolved against the directory holding the settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for Settings.
const (
	DefaultBlockType      = "text"
	DefaultTypeField      = "@type"
	DefaultReadOnlyField  = "readOnly"
	DefaultReservedKey    = "volto.blocks"
	DefaultBlocksSuffix   = "blocks"
	DefaultLayoutSuffix   = "blocks_layout"
	DefaultLayoutItemsKey = "items"
)

// Settings configures the editor and the tools around it.
type Settings struct {
	// DefaultBlockType is the type inserted automatically to keep the
	// document non-empty and to provide trailing placeholders.
	DefaultBlockType string `yaml:"default_block_type"`

	// TypeField is the block data field holding the block type tag.
	TypeField string `yaml:"type_field"`

	// ReadOnlyField marks a block as locked when it holds true.
	ReadOnlyField string `yaml:"read_only_field"`

	// ReservedKey is a document key that ends like the blocks fields but is
	// never one of them.
	ReservedKey string `yaml:"reserved_key"`

	// BlocksSuffix and LayoutSuffix locate the data and layout fields.
	BlocksSuffix string `yaml:"blocks_suffix"`
	LayoutSuffix string `yaml:"layout_suffix"`

	// LayoutItemsKey is the key of the id list inside the layout field.
	LayoutItemsKey string `yaml:"layout_items_key"`

	// BlockTypesDir holds CUE block type definitions. Optional.
	BlockTypesDir string `yaml:"block_types_dir,omitempty"`

	// Database is the SQLite revision store path. Optional.
	Database string `yaml:"database,omitempty"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		DefaultBlockType: DefaultBlockType,
		TypeField:        DefaultTypeField,
		ReadOnlyField:    DefaultReadOnlyField,
		ReservedKey:      DefaultReservedKey,
		BlocksSuffix:     DefaultBlocksSuffix,
		LayoutSuffix:     DefaultLayoutSuffix,
		LayoutItemsKey:   DefaultLayoutItemsKey,
	}
}

// Load reads a settings file. Unknown keys are rejected so typos surface
// instead of silently falling back to defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	if s.BlockTypesDir != "" && !filepath.IsAbs(s.BlockTypesDir) {
		s.BlockTypesDir = filepath.Join(base, s.BlockTypesDir)
	}
	if s.Database != "" && !filepath.IsAbs(s.Database) {
		s.Database = filepath.Join(base, s.Database)
	}
	return s, nil
}

// Parse decodes settings from YAML, filling defaults for omitted fields.
func Parse(data []byte) (Settings, error) {
	s := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s.fillDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// fillDefaults restores defaults for fields explicitly set to "".
func (s *Settings) fillDefaults() {
	d := Default()
	if s.DefaultBlockType == "" {
		s.DefaultBlockType = d.DefaultBlockType
	}
	if s.TypeField == "" {
		s.TypeField = d.TypeField
	}
	if s.ReadOnlyField == "" {
		s.ReadOnlyField = d.ReadOnlyField
	}
	if s.ReservedKey == "" {
		s.ReservedKey = d.ReservedKey
	}
	if s.BlocksSuffix == "" {
		s.BlocksSuffix = d.BlocksSuffix
	}
	if s.LayoutSuffix == "" {
		s.LayoutSuffix = d.LayoutSuffix
	}
	if s.LayoutItemsKey == "" {
		s.LayoutItemsKey = d.LayoutItemsKey
	}
}

// Validate checks that the settings can locate a document's fields
// unambiguously.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.DefaultBlockType) == "" {
		return fmt.Errorf("default_block_type must not be blank")
	}
	if s.BlocksSuffix == s.LayoutSuffix {
		return fmt.Errorf("blocks_suffix and layout_suffix must differ (both %q)", s.BlocksSuffix)
	}
	return nil
}
