package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/storage"
)

// DefinitionRepository stores catalog definitions.
type DefinitionRepository interface {
	// Upsert inserts or replaces definitions in one transaction.
	Upsert(ctx context.Context, defs []catalog.Definition) error

	// Get returns storage.ErrNotFound when the hash is unknown.
	Get(ctx context.Context, hash uint32) (*catalog.Definition, error)

	// ListByKind returns definitions of kind ordered by hash.
	ListByKind(ctx context.Context, kind catalog.Kind) ([]catalog.Definition, error)

	// ListAll returns every definition ordered by hash.
	ListAll(ctx context.Context) ([]catalog.Definition, error)
}

type definitionRepository struct {
	db *sql.DB
}

// NewDefinitionRepository creates a new definition repository.
func NewDefinitionRepository(db *sql.DB) DefinitionRepository {
	return &definitionRepository{db: db}
}

const definitionColumns = `hash, kind, name, item_type, tier, variant_group`

func (r *definitionRepository) Upsert(ctx context.Context, defs []catalog.Definition) error {
	if len(defs) == 0 {
		return nil
	}
	return storage.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO definitions (`+definitionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(hash) DO UPDATE SET
				kind = excluded.kind,
				name = excluded.name,
				item_type = excluded.item_type,
				tier = excluded.tier,
				variant_group = excluded.variant_group
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare definition upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, d := range defs {
			if _, err := stmt.ExecContext(ctx, int64(d.Hash), string(d.Kind), d.DisplayName, d.ItemType, d.Tier, d.VariantGroupKey); err != nil {
				return fmt.Errorf("failed to upsert definition %d: %w", d.Hash, err)
			}
		}
		return nil
	})
}

func (r *definitionRepository) Get(ctx context.Context, hash uint32) (*catalog.Definition, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+definitionColumns+` FROM definitions WHERE hash = ?`, int64(hash))
	d, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *definitionRepository) ListByKind(ctx context.Context, kind catalog.Kind) ([]catalog.Definition, error) {
	return r.query(ctx, `SELECT `+definitionColumns+` FROM definitions WHERE kind = ? ORDER BY hash`, string(kind))
}

func (r *definitionRepository) ListAll(ctx context.Context) ([]catalog.Definition, error) {
	return r.query(ctx, `SELECT `+definitionColumns+` FROM definitions ORDER BY hash`)
}

func (r *definitionRepository) query(ctx context.Context, query string, args ...any) ([]catalog.Definition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]catalog.Definition, 0)
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDefinition(row rowScanner) (catalog.Definition, error) {
	var (
		d    catalog.Definition
		hash int64
		kind string
	)
	if err := row.Scan(&hash, &kind, &d.DisplayName, &d.ItemType, &d.Tier, &d.VariantGroupKey); err != nil {
		return d, err
	}
	d.Hash = uint32(hash)
	d.Kind = catalog.Kind(kind)
	return d, nil
}
