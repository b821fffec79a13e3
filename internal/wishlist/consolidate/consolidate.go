// Package consolidate merges the wishlist rolls recorded for one logical
// weapon into a single summary for display.
package consolidate

import (
	"errors"

	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

// ErrEmptyGroup is returned when Consolidate is called without items. It
// points at a bug in the caller's grouping step, not at bad input data.
var ErrEmptyGroup = errors.New("consolidate: empty item group")

// Consolidated is a read-only summary over a non-empty group of items.
type Consolidated struct {
	WeaponHash  uint32        `json:"weapon_hash"`
	PerkHashes  []uint32      `json:"perk_hashes"`
	Notes       string        `json:"notes,omitempty"`
	Masterworks []string      `json:"masterworks,omitempty"`
	Tags        wishlist.Tags `json:"tags"`

	OriginalCount      int `json:"original_count"`
	OriginalNotesCount int `json:"original_notes_count"`

	PrimaryCitation         *wishlist.Citation `json:"primary_citation,omitempty"`
	AdditionalCitationCount int                `json:"additional_citation_count"`

	SourceItems []wishlist.Item `json:"-"`
}

// Consolidate merges items into one summary. The weapon hash of the summary
// is the first item's hash.
func Consolidate(items []wishlist.Item) (*Consolidated, error) {
	if len(items) == 0 {
		return nil, ErrEmptyGroup
	}

	c := &Consolidated{
		WeaponHash:    items[0].WeaponHash,
		PerkHashes:    unionPerks(items),
		OriginalCount: len(items),
		SourceItems:   items,
	}
	for _, it := range items {
		c.Tags = c.Tags.Union(it.Tags)
	}

	notes := make([]string, 0, len(items))
	for _, it := range items {
		if it.Notes != "" {
			notes = append(notes, it.Notes)
		}
	}
	c.OriginalNotesCount = len(notes)
	c.Notes, c.Masterworks = mergeNotes(notes)

	c.PrimaryCitation, c.AdditionalCitationCount = selectCitation(items)
	return c, nil
}

// MustConsolidate is like Consolidate but panics on an empty group.
func MustConsolidate(items []wishlist.Item) *Consolidated {
	c, err := Consolidate(items)
	if err != nil {
		panic(err)
	}
	return c
}

func unionPerks(items []wishlist.Item) []uint32 {
	seen := make(map[uint32]struct{})
	out := make([]uint32, 0)
	for _, it := range items {
		for _, p := range it.PerkHashes {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// selectCitation deduplicates citations by link. The first linked citation
// is primary and the remaining distinct links are counted. A citation
// without a link is used only when no item carries a link.
func selectCitation(items []wishlist.Item) (*wishlist.Citation, int) {
	var primary *wishlist.Citation
	var fallback *wishlist.Citation
	links := make(map[string]struct{})

	for _, it := range items {
		c, ok := it.Citation()
		if !ok {
			continue
		}
		if c.Link == "" {
			if fallback == nil {
				fb := c
				fallback = &fb
			}
			continue
		}
		if _, dup := links[c.Link]; dup {
			continue
		}
		links[c.Link] = struct{}{}
		if primary == nil {
			p := c
			primary = &p
		}
	}

	if primary == nil {
		return fallback, 0
	}
	return primary, len(links) - 1
}

// Group is the set of items recorded for one logical weapon.
type Group struct {
	WeaponHash uint32
	Items      []wishlist.Item
}

// GroupByWeapon groups items by logical weapon. With a variant resolver the
// key is the minimum hash among an item's variants; otherwise the raw weapon
// hash. Groups keep encounter order.
func GroupByWeapon(items []wishlist.Item, variants wishlist.VariantFunc) []Group {
	groups := make([]Group, 0)
	index := make(map[uint32]int)

	for _, it := range items {
		key := it.WeaponHash
		if variants != nil {
			for _, v := range variants(it.WeaponHash) {
				if v < key {
					key = v
				}
			}
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{WeaponHash: key})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// All groups items by weapon and consolidates every group.
func All(items []wishlist.Item, variants wishlist.VariantFunc) []*Consolidated {
	groups := GroupByWeapon(items, variants)
	out := make([]*Consolidated, 0, len(groups))
	for _, g := range groups {
		c := MustConsolidate(g.Items)
		c.WeaponHash = g.WeaponHash
		out = append(out, c)
	}
	return out
}
