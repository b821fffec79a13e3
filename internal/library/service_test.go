package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/events"
	"github.com/ramonehamilton/wishlist-companion/internal/storage"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

const sampleList = `title:Sample
description:Two weapons
dimwishlist:item=11&perks=1,2#notes:Great for raids. Recommended MW: Range.|tags:pve
dimwishlist:item=10&perks=3#notes:Also good|tags:pvp
dimwishlist:item=20&perks=4|tags:pve
not a directive
`

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) observer() *events.FuncObserver {
	return &events.FuncObserver{ObserverName: "recorder", Fn: func(e events.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	}}
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func testCatalog() *catalog.Memory {
	return catalog.NewMemory(
		catalog.Definition{Hash: 10, Kind: catalog.KindWeapon, DisplayName: "Austringer", ItemType: "Hand Cannon", VariantGroupKey: "austringer"},
		catalog.Definition{Hash: 11, Kind: catalog.KindWeapon, DisplayName: "Austringer", ItemType: "Hand Cannon", VariantGroupKey: "austringer"},
		catalog.Definition{Hash: 20, Kind: catalog.KindWeapon, DisplayName: "Zephyr", ItemType: "Sword"},
	)
}

func setupService(t *testing.T, opts ...Option) (*Service, *recorder, *storage.DB) {
	t.Helper()

	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rec := &recorder{}
	svc := NewService(repository.NewWishlistRepository(db.Conn()), opts...)
	svc.Dispatcher().Register(rec.observer())
	return svc, rec, db
}

func TestService_Import(t *testing.T) {
	svc, rec, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, "lists/sample.txt", sampleList)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Unchanged)
	assert.Equal(t, "Sample", res.Wishlist.Title)
	assert.Equal(t, 3, res.Wishlist.ItemCount)
	assert.Equal(t, 1, res.Stats.Unrecognized)

	again, err := svc.Import(ctx, "lists/sample.txt", sampleList)
	require.NoError(t, err)
	assert.True(t, again.Unchanged)
	assert.Equal(t, res.Wishlist.ID, again.Wishlist.ID)

	changed, err := svc.Import(ctx, "lists/sample.txt", "dimwishlist:item=20&perks=4\n")
	require.NoError(t, err)
	assert.False(t, changed.Created)
	assert.False(t, changed.Unchanged)
	assert.Equal(t, res.Wishlist.ID, changed.Wishlist.ID)
	assert.Equal(t, 1, changed.Wishlist.ItemCount)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, []string{events.WishlistUpdated, events.WishlistSkipped, events.WishlistUpdated}, rec.types())

	first, ok := events.Data[events.WishlistUpdatedEvent](rec.events[0])
	require.True(t, ok)
	assert.True(t, first.Created)
	assert.Equal(t, 3, first.ItemCount)

	stats := svc.Metrics().GetStats()
	assert.Equal(t, uint64(2), stats.Imports)
	assert.Equal(t, uint64(1), stats.ImportsUnchanged)
}

func TestService_ImportRequiresSource(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Import(context.Background(), "  ", sampleList)
	assert.ErrorIs(t, err, ErrSourceRequired)
}

func TestService_Delete(t *testing.T) {
	svc, rec, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, "a", sampleList)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, res.Wishlist.ID))
	assert.Contains(t, rec.types(), events.WishlistDeleted)

	_, err = svc.Get(ctx, res.Wishlist.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.ErrorIs(t, svc.Delete(ctx, res.Wishlist.ID), ErrNotFound)
	_, err = svc.Items(ctx, res.Wishlist.ID, repository.ItemFilter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ItemsExpandVariants(t *testing.T) {
	ctx := context.Background()

	plain, _, _ := setupService(t)
	res, err := plain.Import(ctx, "a", sampleList)
	require.NoError(t, err)
	items, err := plain.Items(ctx, res.Wishlist.ID, repository.ItemFilter{WeaponHashes: []uint32{10}})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	withCatalog, _, _ := setupService(t, WithCatalog(testCatalog()))
	res, err = withCatalog.Import(ctx, "a", sampleList)
	require.NoError(t, err)
	items, err = withCatalog.Items(ctx, res.Wishlist.ID, repository.ItemFilter{WeaponHashes: []uint32{10}})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = withCatalog.Items(ctx, res.Wishlist.ID, repository.ItemFilter{Tag: wishlist.TagPvP})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint32(10), items[0].WeaponHash)
}

func TestService_Summaries(t *testing.T) {
	svc, _, _ := setupService(t, WithCatalog(testCatalog()))
	ctx := context.Background()

	res, err := svc.Import(ctx, "a", sampleList)
	require.NoError(t, err)

	summaries, err := svc.Summaries(ctx, res.Wishlist.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	austringer := summaries[0]
	assert.Equal(t, uint32(10), austringer.WeaponHash)
	assert.Equal(t, 2, austringer.OriginalCount)
	assert.Equal(t, []uint32{1, 2, 3}, austringer.PerkHashes)
	assert.Equal(t, []string{"Range"}, austringer.Masterworks)
	assert.Equal(t, []string{"pvp", "pve"}, austringer.Tags.Strings())

	assert.Equal(t, uint32(20), summaries[1].WeaponHash)
	assert.Equal(t, 1, summaries[1].OriginalCount)
}

func TestService_Export(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	res, err := svc.Import(ctx, "a", "title:T\ndimwishlist:item=10&perks=1\ndimwishlist:item=11&perks=1\n")
	require.NoError(t, err)

	text, err := svc.Export(ctx, res.Wishlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "title:T\n\ndimwishlist:item=10&perks=1\n\ndimwishlist:item=11&perks=1\n", text)

	svc.SetCatalog(testCatalog())
	text, err = svc.Export(ctx, res.Wishlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "title:T\n\n"+
		"// ===== Austringer (Hand Cannon) =====\n"+
		"// Unknown\n"+
		"dimwishlist:item=10&perks=1\n"+
		"dimwishlist:item=11&perks=1\n", text)

	svc.SetCatalog(nil)
	assert.Nil(t, svc.Resolver())

	_, err = svc.Export(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncCatalog(t *testing.T) {
	_, _, db := setupService(t)
	ctx := context.Background()
	defs := repository.NewDefinitionRepository(db.Conn())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
definitions:
  - hash: 10
    kind: weapon
    name: Austringer
  - hash: 1000
    kind: perk
    name: Rampage
`), 0o600))

	mem, err := SyncCatalog(ctx, defs, path)
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len())

	loaded, err := LoadCatalog(ctx, defs)
	require.NoError(t, err)
	assert.Equal(t, mem.All(), loaded.All())

	_, err = SyncCatalog(ctx, defs, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
