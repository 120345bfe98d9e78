// Package fs reads registry documents from a directory holding one
// <chain>.json, <chain>.yaml or <chain>.yml file per chain.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/pagedao/hub-api/pkg/contenthub"
	"github.com/pagedao/hub-api/pkg/contenthub/registrysource"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Source implements contenthub.RegistrySource over a directory
type Source struct {
	dir string
}

// New creates a registry source reading from dir
func New(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("registry path %s is not a directory", dir)
	}
	return &Source{dir: dir}, nil
}

// GetContracts returns the records of chain, or of every chain for "all".
func (s *Source) GetContracts(ctx context.Context, chain string) ([]contenthub.ContentRecord, error) {
	return registrysource.Collect(ctx, chain, s.read)
}

func (s *Source) read(ctx context.Context, chain contenthub.Chain) ([]byte, error) {
	for _, ext := range extensions {
		data, err := os.ReadFile(filepath.Join(s.dir, string(chain)+ext))
		if errors.Is(err, iofs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, registrysource.ErrNoDocument
}
