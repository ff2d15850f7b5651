package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
)

// File reads a dataset from a local file. The format follows the extension.
type File struct {
	path string
}

// NewFile validates path and returns a provider for it. The file is not
// opened until Load.
func NewFile(path string) (*File, error) {
	if err := errors.ValidateFilename(path); err != nil {
		return nil, err
	}
	if _, err := graph.FormatFromPath(path); err != nil {
		return nil, err
	}
	return &File{path: path}, nil
}

func (f *File) Load(ctx context.Context) (*graph.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return graph.ReadDatasetFile(f.path)
}

func (f *File) Source() string { return f.path }

// Version identifies the file by absolute path, size, and modification time.
func (f *File) Version(ctx context.Context) (string, error) {
	abs, err := filepath.Abs(f.path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s@%d:%d", abs, info.Size(), info.ModTime().UnixNano()), nil
}

func (f *File) Close(context.Context) error { return nil }

var (
	_ Provider  = (*File)(nil)
	_ Versioned = (*File)(nil)
)
