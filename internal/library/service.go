// Package library manages the collection of imported wishlists: importing
// text, querying stored rolls, consolidating them per weapon and exporting
// them back to canonical text.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/digest"
	"github.com/ramonehamilton/wishlist-companion/internal/events"
	"github.com/ramonehamilton/wishlist-companion/internal/metrics"
	"github.com/ramonehamilton/wishlist-companion/internal/perkvariant"
	"github.com/ramonehamilton/wishlist-companion/internal/storage"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/models"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist/consolidate"
)

// ErrNotFound is returned when a wishlist does not exist.
var ErrNotFound = storage.ErrNotFound

// ErrSourceRequired is returned by Import when source is blank.
var ErrSourceRequired = errors.New("library: source is required")

// Service is safe for concurrent use.
type Service struct {
	wishlists  repository.WishlistRepository
	dispatcher *events.Dispatcher
	metrics    *metrics.WishlistMetrics
	logger     *slog.Logger

	mu       sync.RWMutex
	source   catalog.Source
	resolver *catalog.Resolver

	// importMu serializes imports so the digest check and the write are
	// atomic per service.
	importMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithDispatcher publishes wishlist events to d.
func WithDispatcher(d *events.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithMetrics records operation latency in m.
func WithMetrics(m *metrics.WishlistMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCatalog resolves weapon names and variants from src.
func WithCatalog(src catalog.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
			s.resolver = catalog.NewResolver(src)
		}
	}
}

// NewService creates a new library service.
func NewService(wishlists repository.WishlistRepository, opts ...Option) *Service {
	s := &Service{wishlists: wishlists}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = events.NewDispatcher(s.logger)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewWishlistMetrics()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Dispatcher returns the dispatcher used for wishlist events.
func (s *Service) Dispatcher() *events.Dispatcher { return s.dispatcher }

// Metrics returns the service metrics.
func (s *Service) Metrics() *metrics.WishlistMetrics { return s.metrics }

// SetCatalog replaces the catalog snapshot. A nil src disables name and
// variant resolution.
func (s *Service) SetCatalog(src catalog.Source) {
	var r *catalog.Resolver
	if src != nil {
		r = catalog.NewResolver(src)
	}
	s.mu.Lock()
	s.source = src
	s.resolver = r
	s.mu.Unlock()
}

// Catalog returns the current catalog source, or nil.
func (s *Service) Catalog() catalog.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Resolver returns the current catalog resolver, or nil.
func (s *Service) Resolver() *catalog.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// ImportResult describes the outcome of Import.
type ImportResult struct {
	Wishlist  *models.Wishlist    `json:"wishlist"`
	Stats     wishlist.ParseStats `json:"stats"`
	Created   bool                `json:"created"`
	Unchanged bool                `json:"unchanged"`
}

// Import parses text and stores it under source. Re-importing identical
// text for a source is a no-op reported as Unchanged; new text replaces the
// stored rolls and keeps the wishlist ID.
func (s *Service) Import(ctx context.Context, source, text string) (result *ImportResult, err error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrSourceRequired
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordImport(time.Since(start), result != nil && result.Unchanged, err)
	}()

	s.importMu.Lock()
	defer s.importMu.Unlock()

	sum := digest.Text(text)

	existing, err := s.wishlists.GetBySource(ctx, source)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up %s: %w", source, err)
	}
	if existing != nil && existing.Digest == sum {
		s.logger.Debug("wishlist unchanged", "source", source, "digest", sum)
		s.dispatch(ctx, events.WishlistSkipped, events.WishlistSkippedEvent{
			ID: existing.ID, Source: source, Digest: sum,
		})
		return &ImportResult{Wishlist: existing, Stats: existing.Stats, Unchanged: true}, nil
	}

	parseStart := time.Now()
	doc, stats := wishlist.ParseWithStats(text)
	s.metrics.RecordParse(time.Since(parseStart), stats.Items, stats.Malformed)

	wl := existing
	if wl == nil {
		wl = &models.Wishlist{Source: source}
	}
	wl.Title = doc.Title
	wl.Description = doc.Description
	wl.Digest = sum
	wl.Stats = stats

	if err := s.wishlists.Save(ctx, wl, doc.Items); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", source, err)
	}

	s.logger.Info("wishlist imported",
		"source", source, "id", wl.ID, "items", stats.Items, "malformed", stats.Malformed)
	s.dispatch(ctx, events.WishlistUpdated, events.WishlistUpdatedEvent{
		ID:        wl.ID,
		Source:    source,
		Title:     wl.Title,
		Digest:    sum,
		ItemCount: wl.ItemCount,
		Malformed: stats.Malformed,
		Created:   existing == nil,
	})

	return &ImportResult{Wishlist: wl, Stats: stats, Created: existing == nil}, nil
}

// List returns all stored wishlists, most recently updated first.
func (s *Service) List(ctx context.Context) ([]*models.Wishlist, error) {
	return s.wishlists.List(ctx)
}

// Get returns a wishlist by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Wishlist, error) {
	return s.wishlists.GetByID(ctx, id)
}

// Delete removes a wishlist and its rolls.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.wishlists.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("wishlist deleted", "id", id)
	s.dispatch(ctx, events.WishlistDeleted, events.WishlistDeletedEvent{ID: id})
	return nil
}

// Items returns the stored rolls of a wishlist. A filter on weapon hashes
// is widened to every variant of those weapons when a catalog is set.
func (s *Service) Items(ctx context.Context, id string, filter repository.ItemFilter) ([]wishlist.Item, error) {
	if _, err := s.wishlists.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if r := s.Resolver(); r != nil && len(filter.WeaponHashes) > 0 {
		filter.WeaponHashes = r.WeaponIndex().Expand(perkvariant.NewHashSet(filter.WeaponHashes...)).Sorted()
	}
	return s.wishlists.ListItems(ctx, id, filter)
}

// Document loads a stored wishlist as a parsed document.
func (s *Service) Document(ctx context.Context, id string) (*wishlist.Document, error) {
	wl, err := s.wishlists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.wishlists.ListItems(ctx, id, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	return &wishlist.Document{Title: wl.Title, Description: wl.Description, Items: items}, nil
}

// Summaries consolidates the stored rolls of a wishlist into one summary
// per logical weapon, in order of first appearance.
func (s *Service) Summaries(ctx context.Context, id string) ([]*consolidate.Consolidated, error) {
	items, err := s.Items(ctx, id, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	return s.Consolidate(items), nil
}

// Consolidate groups items per logical weapon and consolidates each group.
func (s *Service) Consolidate(items []wishlist.Item) []*consolidate.Consolidated {
	start := time.Now()
	defer func() { s.metrics.RecordConsolidate(time.Since(start)) }()

	return consolidate.All(items, s.SerializeOptions().Variants)
}

// Export renders a stored wishlist as canonical text.
func (s *Service) Export(ctx context.Context, id string) (string, error) {
	doc, err := s.Document(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Serialize(doc), nil
}

// Serialize renders doc with the current catalog.
func (s *Service) Serialize(doc *wishlist.Document) string {
	start := time.Now()
	defer func() { s.metrics.RecordSerialize(time.Since(start)) }()

	return wishlist.SerializeDocument(doc, s.SerializeOptions())
}

// Parse parses text and records parse metrics.
func (s *Service) Parse(text string) (*wishlist.Document, wishlist.ParseStats) {
	start := time.Now()
	doc, stats := wishlist.ParseWithStats(text)
	s.metrics.RecordParse(time.Since(start), stats.Items, stats.Malformed)
	return doc, stats
}

// SerializeOptions returns serializer callbacks for the current catalog.
// Without a catalog the options are empty.
func (s *Service) SerializeOptions() wishlist.SerializeOptions {
	r := s.Resolver()
	if r == nil {
		return wishlist.SerializeOptions{}
	}
	return wishlist.SerializeOptions{Names: r.Name, Variants: r.Variants}
}

func (s *Service) dispatch(ctx context.Context, eventType string, data any) {
	s.dispatcher.Dispatch(events.Event{Type: eventType, Data: data, Context: ctx})
}
