package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// File is the on-disk catalog layout.
type File struct {
	Definitions []Definition `json:"definitions" yaml:"definitions"`
}

// FormatFromPath picks the format from a file extension. Anything that is
// not .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads definitions from r.
func Decode(r io.Reader, format Format) ([]Definition, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode yaml catalog: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode json catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}

	for i, d := range f.Definitions {
		kind, err := ParseKind(string(d.Kind))
		if err != nil {
			return nil, fmt.Errorf("definition %d (hash %d): %w", i, d.Hash, err)
		}
		f.Definitions[i].Kind = kind
	}
	return f.Definitions, nil
}

// LoadFile reads a JSON or YAML catalog file into a new Memory catalog.
func LoadFile(path string) (*Memory, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = fh.Close() }()

	defs, err := Decode(fh, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemory(defs...), nil
}

// Encode writes definitions to w.
func Encode(w io.Writer, defs []Definition, format Format) error {
	f := File{Definitions: defs}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("failed to encode yaml catalog: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("failed to encode json catalog: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported catalog format %q", format)
	}
}
