package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ramonehamilton/wishlist-companion/internal/api/response"
	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
	"github.com/ramonehamilton/wishlist-companion/internal/perkvariant"
)

// errNoCatalog is returned by catalog-backed endpoints before a catalog is
// loaded.
var errNoCatalog = errors.New("no definition catalog loaded")

// PerkHandler answers perk variant and catalog queries.
type PerkHandler struct {
	svc *library.Service
}

// NewPerkHandler creates a new PerkHandler.
func NewPerkHandler(svc *library.Service) *PerkHandler {
	return &PerkHandler{svc: svc}
}

// MatchRequest asks whether a perk, or any of its variants, is on a roll.
type MatchRequest struct {
	PerkHash  uint32   `json:"perk_hash"`
	RollPerks []uint32 `json:"roll_perks"`
}

// MatchResponse answers a MatchRequest.
type MatchResponse struct {
	Member    bool     `json:"member"`
	Matched   *uint32  `json:"matched,omitempty"`
	Canonical uint32   `json:"canonical"`
	Variants  []uint32 `json:"variants"`
}

// Match checks variant-aware perk membership. Without a catalog every perk
// is its own only variant.
func (h *PerkHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.PerkHash == 0 {
		response.BadRequest(w, errors.New("perk_hash is required"))
		return
	}

	var index *perkvariant.Index
	if res := h.svc.Resolver(); res != nil {
		index = res.PerkIndex()
	}

	resp := MatchResponse{
		Canonical: index.Canonical(req.PerkHash),
		Variants:  index.Variants(req.PerkHash),
	}
	if hash, ok := index.FindMember(req.PerkHash, perkvariant.NewHashSet(req.RollPerks...)); ok {
		resp.Member = true
		resp.Matched = &hash
	}
	response.Success(w, resp)
}

// Search fuzzy-matches catalog names. Query parameters: q, kind (weapon or
// perk, default weapon), limit (default 10).
func (h *PerkHandler) Search(w http.ResponseWriter, r *http.Request) {
	src := h.svc.Catalog()
	if src == nil {
		response.ServiceUnavailable(w, errNoCatalog)
		return
	}

	q := r.URL.Query()
	name := q.Get("q")
	if name == "" {
		response.BadRequest(w, errors.New("q is required"))
		return
	}

	kind := catalog.KindWeapon
	if v := q.Get("kind"); v != "" {
		k, err := catalog.ParseKind(v)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		kind = k
	}

	limit := 10
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(w, errors.New("invalid limit"))
			return
		}
		limit = n
	}

	response.Success(w, catalog.SearchByName(src, kind, name, catalog.DefaultMinScore, limit))
}
