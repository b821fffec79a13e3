package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ramonehamilton/wishlist-companion/internal/storage"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/models"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

const timeLayout = "2006-01-02 15:04:05.999999"

// ItemFilter narrows ListItems. Zero values mean no restriction.
type ItemFilter struct {
	WeaponHashes []uint32
	Tag          wishlist.Tag
	ExcludeTrash bool
	Limit        uint64
	Offset       uint64
}

// WishlistRepository handles database operations for imported wishlists.
type WishlistRepository interface {
	// Save inserts or updates the wishlist record and replaces its items.
	Save(ctx context.Context, wl *models.Wishlist, items []wishlist.Item) error

	// GetByID returns storage.ErrNotFound when no record matches.
	GetByID(ctx context.Context, id string) (*models.Wishlist, error)

	// GetBySource returns storage.ErrNotFound when no record matches.
	GetBySource(ctx context.Context, source string) (*models.Wishlist, error)

	// List returns all wishlists, most recently updated first.
	List(ctx context.Context) ([]*models.Wishlist, error)

	// Delete removes the wishlist and its items.
	Delete(ctx context.Context, id string) error

	// ListItems returns stored items in their original order.
	ListItems(ctx context.Context, wishlistID string, filter ItemFilter) ([]wishlist.Item, error)
}

type wishlistRepository struct {
	db *sql.DB
}

// NewWishlistRepository creates a new wishlist repository.
func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

const wishlistColumns = `id, source, title, description, digest, item_count, parse_stats, created_at, updated_at`

func (r *wishlistRepository) Save(ctx context.Context, wl *models.Wishlist, items []wishlist.Item) error {
	if wl == nil {
		return fmt.Errorf("wishlist is required")
	}
	if wl.Source == "" {
		return fmt.Errorf("wishlist source is required")
	}

	now := time.Now().UTC()
	if wl.ID == "" {
		wl.ID = uuid.NewString()
	}
	if wl.CreatedAt.IsZero() {
		wl.CreatedAt = now
	}
	wl.UpdatedAt = now
	wl.ItemCount = len(items)

	stats, err := json.Marshal(wl.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode parse stats: %w", err)
	}

	return storage.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO wishlists (`+wishlistColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source = excluded.source,
				title = excluded.title,
				description = excluded.description,
				digest = excluded.digest,
				item_count = excluded.item_count,
				parse_stats = excluded.parse_stats,
				updated_at = excluded.updated_at
		`,
			wl.ID, wl.Source, wl.Title, wl.Description, wl.Digest, wl.ItemCount, string(stats),
			wl.CreatedAt.Format(timeLayout), wl.UpdatedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to save wishlist: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = ?`, wl.ID); err != nil {
			return fmt.Errorf("failed to clear wishlist items: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO wishlist_items (
				wishlist_id, position, item_id, weapon_hash, perk_hashes, notes, tags,
				citation_author, citation_link, citation_timestamp
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare item insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, it := range items {
			_, err := stmt.ExecContext(ctx,
				wl.ID, i, it.ID, int64(it.WeaponHash), joinHashes(it.PerkHashes), it.Notes, int64(it.Tags),
				it.CitationAuthor, it.CitationLink, it.CitationTimestamp,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *wishlistRepository) GetByID(ctx context.Context, id string) (*models.Wishlist, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+wishlistColumns+` FROM wishlists WHERE id = ?`, id)
	return scanWishlist(row)
}

func (r *wishlistRepository) GetBySource(ctx context.Context, source string) (*models.Wishlist, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+wishlistColumns+` FROM wishlists WHERE source = ?`, source)
	return scanWishlist(row)
}

func (r *wishlistRepository) List(ctx context.Context) ([]*models.Wishlist, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+wishlistColumns+` FROM wishlists ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.Wishlist, 0)
	for rows.Next() {
		wl, err := scanWishlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wl)
	}
	return out, rows.Err()
}

func (r *wishlistRepository) Delete(ctx context.Context, id string) error {
	return storage.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete wishlist items: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM wishlists WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete wishlist: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

func (r *wishlistRepository) ListItems(ctx context.Context, wishlistID string, filter ItemFilter) ([]wishlist.Item, error) {
	query := squirrel.
		Select("item_id", "weapon_hash", "perk_hashes", "notes", "tags",
			"citation_author", "citation_link", "citation_timestamp").
		From("wishlist_items").
		Where(squirrel.Eq{"wishlist_id": wishlistID}).
		OrderBy("position")

	if len(filter.WeaponHashes) > 0 {
		hashes := make([]int64, len(filter.WeaponHashes))
		for i, h := range filter.WeaponHashes {
			hashes[i] = int64(h)
		}
		query = query.Where(squirrel.Eq{"weapon_hash": hashes})
	}
	if filter.Tag != 0 {
		query = query.Where("(tags & ?) != 0", int64(filter.Tag))
	}
	if filter.ExcludeTrash {
		query = query.Where("(tags & ?) = 0", int64(wishlist.TagTrash))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit == 0 {
			query = query.Limit(uint64(1<<63 - 1))
		}
		query = query.Offset(filter.Offset)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]wishlist.Item, 0)
	for rows.Next() {
		var (
			it     wishlist.Item
			weapon int64
			perks  string
			tags   int64
		)
		if err := rows.Scan(&it.ID, &weapon, &perks, &it.Notes, &tags,
			&it.CitationAuthor, &it.CitationLink, &it.CitationTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.WeaponHash = uint32(weapon)
		// Bits outside the vocabulary are dropped.
		it.Tags = wishlist.Tags(tags).Union(0)
		if it.PerkHashes, err = splitHashes(perks); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWishlist(row rowScanner) (*models.Wishlist, error) {
	var (
		wl                   models.Wishlist
		stats                string
		createdAt, updatedAt string
	)
	err := row.Scan(&wl.ID, &wl.Source, &wl.Title, &wl.Description, &wl.Digest, &wl.ItemCount,
		&stats, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wishlist: %w", err)
	}
	if stats != "" {
		if err := json.Unmarshal([]byte(stats), &wl.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode parse stats: %w", err)
		}
	}
	wl.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	wl.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &wl, nil
}

func joinHashes(hashes []uint32) string {
	parts := make([]string, len(hashes))
	for i, h := range hashes {
		parts[i] = strconv.FormatUint(uint64(h), 10)
	}
	return strings.Join(parts, ",")
}

func splitHashes(s string) ([]uint32, error) {
	out := make([]uint32, 0)
	if s == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("corrupt perk list %q: %w", s, err)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}
