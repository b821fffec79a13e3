package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/wishlist-companion/internal/api/response"
	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/digest"
	"github.com/ramonehamilton/wishlist-companion/internal/export"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
	"github.com/ramonehamilton/wishlist-companion/internal/storage/repository"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

// WishlistHandler handles wishlist API requests.
type WishlistHandler struct {
	svc *library.Service
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(svc *library.Service) *WishlistHandler {
	return &WishlistHandler{svc: svc}
}

// TextRequest carries raw wishlist text.
type TextRequest struct {
	Text string `json:"text"`
}

// ParseResponse is the result of parsing wishlist text.
type ParseResponse struct {
	Document *wishlist.Document  `json:"document"`
	Stats    wishlist.ParseStats `json:"stats"`
}

// Parse parses wishlist text without storing it.
func (h *WishlistHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	doc, stats := h.svc.Parse(req.Text)
	response.Success(w, ParseResponse{Document: doc, Stats: stats})
}

// SerializeRequest is a document to render as wishlist text.
type SerializeRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Items       []wishlist.Item `json:"items"`
}

// Serialize renders items as canonical wishlist text.
func (h *WishlistHandler) Serialize(w http.ResponseWriter, r *http.Request) {
	var req SerializeRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	text := h.svc.Serialize(&wishlist.Document{
		Title:       req.Title,
		Description: req.Description,
		Items:       req.Items,
	})
	response.Success(w, map[string]string{"text": text})
}

// ItemsRequest carries parsed rolls.
type ItemsRequest struct {
	Items []wishlist.Item `json:"items"`
}

// Consolidate groups rolls per weapon and merges each group.
func (h *WishlistHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	var req ItemsRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if len(req.Items) == 0 {
		response.BadRequest(w, errors.New("items are required"))
		return
	}

	response.Success(w, h.svc.Consolidate(req.Items))
}

// DigestRequest carries one text or a batch of texts.
type DigestRequest struct {
	Text  *string  `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`
}

// Digest returns content version tokens.
func (h *WishlistHandler) Digest(w http.ResponseWriter, r *http.Request) {
	var req DigestRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	if req.Text != nil {
		response.Success(w, map[string]string{"digest": digest.Text(*req.Text)})
		return
	}

	sums, err := digest.All(r.Context(), req.Texts)
	if err != nil {
		response.ServiceUnavailable(w, err)
		return
	}
	response.Success(w, map[string][]string{"digests": sums})
}

// ImportRequest stores wishlist text under a source name.
type ImportRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Import stores a wishlist. New wishlists answer 201.
func (h *WishlistHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}

	result, err := h.svc.Import(r.Context(), req.Source, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Created {
		response.Created(w, result)
		return
	}
	response.Success(w, result)
}

// List returns all stored wishlists.
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, lists)
}

// Get returns one wishlist.
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	wl, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, wl)
}

// Delete removes a wishlist.
func (h *WishlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}

// Items returns stored rolls. Query parameters: weapon (comma separated
// hashes), tag, exclude_trash, limit, offset.
func (h *WishlistHandler) Items(w http.ResponseWriter, r *http.Request) {
	filter, err := itemFilter(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	items, err := h.svc.Items(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, items)
}

// Summaries returns one consolidated summary per weapon.
func (h *WishlistHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.Summaries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, summaries)
}

// Export downloads a wishlist. format=txt (default) returns canonical
// wishlist text; csv, json and md return the per-weapon summary report.
func (h *WishlistHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := strings.ToLower(r.URL.Query().Get("format"))

	if format == "" || format == "txt" {
		text, err := h.svc.Export(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
		return
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	wl, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	summaries, err := h.svc.Summaries(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var lookup catalog.Lookup
	if src := h.svc.Catalog(); src != nil {
		lookup = src
	}
	rows := export.BuildRows(summaries, lookup)

	title := wl.Title
	if title == "" {
		title = wl.Source
	}
	w.Header().Set("Content-Type", contentType(f))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.GenerateFilename(title, f)))
	w.WriteHeader(http.StatusOK)
	_ = export.Write(w, rows, export.Options{Format: f, Title: title})
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatCSV:
		return "text/csv; charset=utf-8"
	case export.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json"
	}
}

func itemFilter(r *http.Request) (repository.ItemFilter, error) {
	q := r.URL.Query()
	var filter repository.ItemFilter

	if v := q.Get("weapon"); v != "" {
		for _, s := range strings.Split(v, ",") {
			hash, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
			if err != nil {
				return filter, fmt.Errorf("invalid weapon hash %q", s)
			}
			filter.WeaponHashes = append(filter.WeaponHashes, uint32(hash))
		}
	}
	if v := q.Get("tag"); v != "" {
		tag, ok := wishlist.ParseTag(v)
		if !ok {
			return filter, fmt.Errorf("unknown tag %q", v)
		}
		filter.Tag = tag
	}
	if v := q.Get("exclude_trash"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid exclude_trash %q", v)
		}
		filter.ExcludeTrash = b
	}
	var err error
	if filter.Limit, err = uintParam(q.Get("limit")); err != nil {
		return filter, fmt.Errorf("invalid limit: %w", err)
	}
	if filter.Offset, err = uintParam(q.Get("offset")); err != nil {
		return filter, fmt.Errorf("invalid offset: %w", err)
	}
	return filter, nil
}

func uintParam(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
