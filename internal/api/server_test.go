package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiwebsocket "github.com/ramonehamilton/wishlist-companion/internal/api/websocket"
	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/config"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
	"github.com/ramonehamilton/wishlist-companion/internal/logging"
	"github.com/ramonehamilton/wishlist-companion/internal/storage"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
)

const sampleList = `title:Sample
dimwishlist:item=11&perks=300,2#notes:Raid pick [YT: Maven https://youtu.be/abc @1:05]|tags:pve
dimwishlist:item=10&perks=3|tags:pvp
dimwishlist:item=-20&perks=4
`

func testCatalog() *catalog.Memory {
	return catalog.NewMemory(
		catalog.Definition{Hash: 10, Kind: catalog.KindWeapon, DisplayName: "Austringer", ItemType: "Hand Cannon", VariantGroupKey: "austringer"},
		catalog.Definition{Hash: 11, Kind: catalog.KindWeapon, DisplayName: "Austringer", ItemType: "Hand Cannon", VariantGroupKey: "austringer"},
		catalog.Definition{Hash: 20, Kind: catalog.KindWeapon, DisplayName: "Zephyr", ItemType: "Sword"},
		catalog.Definition{Hash: 300, Kind: catalog.KindPerk, DisplayName: "Outlaw"},
		catalog.Definition{Hash: 301, Kind: catalog.KindPerk, DisplayName: "Outlaw Enhanced"},
	)
}

func newTestServer(t *testing.T, cfg *Config, opts ...library.Option) (*Server, *library.Service) {
	t.Helper()

	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]library.Option{library.WithLogger(logging.Discard())}, opts...)
	svc := library.NewService(repository.NewWishlistRepository(db.Conn()), opts...)
	return NewServer(cfg, svc, logging.Discard()), svc
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the {"data": ...} envelope into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func importSample(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/v1/wishlists", map[string]string{"source": "sample.txt", "text": sampleList})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Wishlist struct {
			ID string `json:"id"`
		} `json:"wishlist"`
	}
	decodeData(t, rec, &res)
	require.NotEmpty(t, res.Wishlist.ID)
	return res.Wishlist.ID
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.RateLimit)
}

func TestConfigFrom(t *testing.T) {
	c := config.DefaultConfig()
	c.API.Port = 9999
	c.API.RequestTimeout = "5s"

	cfg, err := ConfigFrom(c)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, c.API.Burst, cfg.Burst)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestParseEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/wishlists/parse", map[string]string{"text": sampleList + "junk\n"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Document struct {
			Title string            `json:"title"`
			Items []json.RawMessage `json:"items"`
		} `json:"document"`
		Stats struct {
			Unrecognized int `json:"unrecognized"`
		} `json:"stats"`
	}
	decodeData(t, rec, &res)
	assert.Equal(t, "Sample", res.Document.Title)
	assert.Len(t, res.Document.Items, 3)
	assert.Equal(t, 1, res.Stats.Unrecognized)
}

func TestSerializeEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := map[string]any{
		"title": "Mine",
		"items": []map[string]any{
			{"weapon_hash": 5, "perk_hashes": []uint32{1, 2}, "tags": []string{"trash", "pvp"}},
		},
	}
	rec := do(t, s, http.MethodPost, "/api/v1/wishlists/serialize", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res map[string]string
	decodeData(t, rec, &res)
	assert.Equal(t, "title:Mine\n\ndimwishlist:item=-5&perks=1,2|tags:pvp\n", res["text"])
}

func TestConsolidateEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	t.Run("empty items", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/v1/wishlists/consolidate", map[string]any{"items": []any{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("merges per weapon", func(t *testing.T) {
		body := map[string]any{"items": []map[string]any{
			{"weapon_hash": 1, "perk_hashes": []uint32{2}, "tags": []string{"pve"}},
			{"weapon_hash": 1, "perk_hashes": []uint32{3}, "tags": []string{"pvp"}},
		}}
		rec := do(t, s, http.MethodPost, "/api/v1/wishlists/consolidate", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res []struct {
			PerkHashes    []uint32 `json:"perk_hashes"`
			Tags          []string `json:"tags"`
			OriginalCount int      `json:"original_count"`
		}
		decodeData(t, rec, &res)
		require.Len(t, res, 1)
		assert.Equal(t, []uint32{2, 3}, res[0].PerkHashes)
		assert.Equal(t, []string{"pvp", "pve"}, res[0].Tags)
		assert.Equal(t, 2, res[0].OriginalCount)
	})
}

func TestDigestEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/wishlists/digest", map[string]string{"text": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	var one map[string]string
	decodeData(t, rec, &one)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", one["digest"])

	rec = do(t, s, http.MethodPost, "/api/v1/wishlists/digest", map[string][]string{"texts": {"a", "a", "b"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var many map[string][]string
	decodeData(t, rec, &many)
	require.Len(t, many["digests"], 3)
	assert.Equal(t, many["digests"][0], many["digests"][1])
	assert.NotEqual(t, many["digests"][0], many["digests"][2])
}

func TestWishlistLifecycle(t *testing.T) {
	s, _ := newTestServer(t, nil)
	id := importSample(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/wishlists", map[string]string{"source": "sample.txt", "text": sampleList})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unchanged":true`)

	rec = do(t, s, http.MethodGet, "/api/v1/wishlists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lists []map[string]any
	decodeData(t, rec, &lists)
	assert.Len(t, lists, 1)

	rec = do(t, s, http.MethodGet, "/api/v1/wishlists/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sample.txt"`)

	rec = do(t, s, http.MethodDelete, "/api/v1/wishlists/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/wishlists/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/wishlists/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/wishlists", map[string]string{"source": "  ", "text": sampleList})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wishlists", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItemsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil, library.WithCatalog(testCatalog()))
	id := importSample(t, s)

	tests := []struct {
		name  string
		query string
		code  int
		count int
	}{
		{"all", "", http.StatusOK, 3},
		{"variant expansion", "?weapon=10", http.StatusOK, 2},
		{"tag", "?tag=pve", http.StatusOK, 1},
		{"exclude trash", "?exclude_trash=true", http.StatusOK, 2},
		{"limit", "?limit=1", http.StatusOK, 1},
		{"bad weapon", "?weapon=abc", http.StatusBadRequest, 0},
		{"bad tag", "?tag=bogus", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/wishlists/"+id+"/items"+tt.query, nil)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var items []map[string]any
			decodeData(t, rec, &items)
			assert.Len(t, items, tt.count)
		})
	}

	rec := do(t, s, http.MethodGet, "/api/v1/wishlists/missing/items", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummariesEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil, library.WithCatalog(testCatalog()))
	id := importSample(t, s)

	rec := do(t, s, http.MethodGet, "/api/v1/wishlists/"+id+"/summaries", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res []struct {
		WeaponHash    uint32 `json:"weapon_hash"`
		OriginalCount int    `json:"original_count"`
	}
	decodeData(t, rec, &res)
	require.Len(t, res, 2)
	assert.Equal(t, uint32(10), res[0].WeaponHash)
	assert.Equal(t, 2, res[0].OriginalCount)
}

func TestExportEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil, library.WithCatalog(testCatalog()))
	id := importSample(t, s)

	rec := do(t, s, http.MethodGet, "/api/v1/wishlists/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "// ===== Austringer (Hand Cannon) =====")
	assert.Contains(t, rec.Body.String(), "dimwishlist:item=-20&perks=4")

	rec = do(t, s, http.MethodGet, "/api/v1/wishlists/"+id+"/export?format=md", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "## Austringer (Hand Cannon)")
	assert.Contains(t, rec.Body.String(), "https://youtu.be/abc?t=65s")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = do(t, s, http.MethodGet, "/api/v1/wishlists/"+id+"/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "weapon_hash")

	rec = do(t, s, http.MethodGet, "/api/v1/wishlists/"+id+"/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPerkMatchEndpoint(t *testing.T) {
	t.Run("with catalog", func(t *testing.T) {
		s, _ := newTestServer(t, nil, library.WithCatalog(testCatalog()))

		rec := do(t, s, http.MethodPost, "/api/v1/perks/match", map[string]any{"perk_hash": 300, "roll_perks": []uint32{7, 301}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res struct {
			Member    bool     `json:"member"`
			Matched   *uint32  `json:"matched"`
			Canonical uint32   `json:"canonical"`
			Variants  []uint32 `json:"variants"`
		}
		decodeData(t, rec, &res)
		assert.True(t, res.Member)
		require.NotNil(t, res.Matched)
		assert.Equal(t, uint32(301), *res.Matched)
		assert.Equal(t, uint32(300), res.Canonical)
		assert.Equal(t, []uint32{300, 301}, res.Variants)
	})

	t.Run("without catalog", func(t *testing.T) {
		s, _ := newTestServer(t, nil)

		rec := do(t, s, http.MethodPost, "/api/v1/perks/match", map[string]any{"perk_hash": 300, "roll_perks": []uint32{301}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"member":false`)
	})

	t.Run("missing perk", func(t *testing.T) {
		s, _ := newTestServer(t, nil)

		rec := do(t, s, http.MethodPost, "/api/v1/perks/match", map[string]any{"roll_perks": []uint32{1}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCatalogSearchEndpoint(t *testing.T) {
	s, svc := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/catalog/search?q=zephyr", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	svc.SetCatalog(testCatalog())

	rec = do(t, s, http.MethodGet, "/api/v1/catalog/search?q=zephir", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Zephyr"`)

	rec = do(t, s, http.MethodGet, "/api/v1/catalog/search?q=outlaw&kind=perk&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Outlaw"`)

	rec = do(t, s, http.MethodGet, "/api/v1/catalog/search?q=x&kind=armor", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSystemEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s, http.MethodGet, "/health", nil)

	rec := do(t, s, http.MethodGet, "/api/v1/system/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"wishlist-companion-api"`)

	rec = do(t, s, http.MethodGet, "/api/v1/system/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		APIRequests uint64 `json:"api_requests"`
	}
	decodeData(t, rec, &stats)
	assert.Equal(t, uint64(2), stats.APIRequests)
}

func TestContentTypeEnforced(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wishlists/parse", strings.NewReader(`{"text":""}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 16
	s, _ := newTestServer(t, cfg)

	rec := do(t, s, http.MethodPost, "/api/v1/wishlists/parse", map[string]string{"text": strings.Repeat("x", 64)})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	cfg.Burst = 2
	s, _ := newTestServer(t, cfg)

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, s, http.MethodGet, "/api/v1/system/version", nil).Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", nil).Code)
}

func TestServer_Shutdown_NotStarted(t *testing.T) {
	s, _ := newTestServer(t, nil)

	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_StartForwardsEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	s, svc := newTestServer(t, cfg)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), errAlreadyStart)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Shutdown(ctx))
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.WebSocketHub().ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = svc.Import(context.Background(), "live.txt", sampleList)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev apiwebsocket.Event
	require.NoError(t, json.Unmarshal(message, &ev))
	assert.Equal(t, "wishlist:updated", ev.Type)
}
