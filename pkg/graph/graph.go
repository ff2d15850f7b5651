package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/clusterview/pkg/errors"
)

// Supported dataset encodings.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// =============================================================================
// Dataset Serialization API
// =============================================================================

// FormatFromPath infers the dataset encoding from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported dataset extension %q (want .json, .toml, .yaml)", filepath.Ext(path))
}

// ReadDatasetFile reads a dataset file, choosing the decoder by extension.
func ReadDatasetFile(path string) (*Dataset, error) {
	if err := errors.ValidateFilename(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f, format)
}

// ReadDataset decodes a dataset in the given format from r.
// Only syntax errors fail; use [Dataset.Check] for integrity problems.
func ReadDataset(r io.Reader, format string) (*Dataset, error) {
	var d Dataset
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown dataset format %q", format)
	}
	return New(d.Nodes, d.Links, d.Clusters), nil
}

// WriteDataset writes d as indented JSON to w.
func WriteDataset(d *Dataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalDataset converts a dataset to JSON bytes.
func MarshalDataset(d *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDataset(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
