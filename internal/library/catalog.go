package library

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
)

// LoadCatalog builds an in-memory catalog from stored definitions.
func LoadCatalog(ctx context.Context, defs repository.DefinitionRepository) (*catalog.Memory, error) {
	all, err := defs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	return catalog.NewMemory(all...), nil
}

// SyncCatalog stores the definitions of file in the definition repository
// and returns them as a catalog.
func SyncCatalog(ctx context.Context, defs repository.DefinitionRepository, path string) (*catalog.Memory, error) {
	mem, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := defs.Upsert(ctx, mem.All()); err != nil {
		return nil, fmt.Errorf("failed to store definitions: %w", err)
	}
	return mem, nil
}
