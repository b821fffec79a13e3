// Package littlelight converts between LittleLight JSON wishlists and the
// dimwishlist item model.
//
// LittleLight keeps the perk column structure of a roll: plugs[i] lists the
// acceptable perks for column i. The dimwishlist text format cannot express
// that, so a roll expands to one flat item per combination.
package littlelight

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

// MaxNoteRunes is the length at which roll descriptions are cut when they
// become inline notes.
const MaxNoteRunes = 100

// Wishlist is a LittleLight wishlist file.
type Wishlist struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Data        []Roll `json:"data"`
}

// Roll is one LittleLight entry.
type Roll struct {
	Hash        uint32     `json:"hash"`
	Plugs       [][]uint32 `json:"plugs"`
	Tags        []string   `json:"tags,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Decode reads a LittleLight wishlist.
func Decode(r io.Reader) (*Wishlist, error) {
	var wl Wishlist
	if err := json.NewDecoder(r).Decode(&wl); err != nil {
		return nil, fmt.Errorf("failed to decode littlelight wishlist: %w", err)
	}
	return &wl, nil
}

// Encode writes wl as indented JSON.
func Encode(w io.Writer, wl *Wishlist) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wl); err != nil {
		return fmt.Errorf("failed to encode littlelight wishlist: %w", err)
	}
	return nil
}

var tagAliases = map[string]wishlist.Tag{
	"godpve": wishlist.TagPvE,
	"godpvp": wishlist.TagPvP,
	"mouse":  wishlist.TagMKB,
}

var tagNames = map[wishlist.Tag]string{
	wishlist.TagPvP:        "PvP",
	wishlist.TagPvE:        "PvE",
	wishlist.TagMKB:        "Mouse",
	wishlist.TagController: "Controller",
	wishlist.TagAlt:        "Alt",
	wishlist.TagTrash:      "Trash",
}

// ItemTags maps LittleLight tag names onto the dimwishlist vocabulary.
// Unknown names are dropped. A roll without any usable tag is tagged pve.
func (r Roll) ItemTags() wishlist.Tags {
	var tags wishlist.Tags
	for _, name := range r.Tags {
		if t, ok := wishlist.ParseTag(name); ok {
			tags = tags.With(t)
			continue
		}
		if t, ok := tagAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
			tags = tags.With(t)
		}
	}
	if tags.IsEmpty() {
		tags = wishlist.NewTags(wishlist.TagPvE)
	}
	return tags
}

// ShortNote turns a roll description into a single-line inline note.
func ShortNote(description string) string {
	runes := []rune(description)
	if len(runes) > MaxNoteRunes {
		description = string(runes[:MaxNoteRunes]) + "..."
	}
	return strings.NewReplacer("\n", " ", "|", "-").Replace(description)
}

// Combinations returns the cartesian product of the non-empty plug columns.
// Empty columns are skipped; a roll with no perks has no combinations.
func (r Roll) Combinations() [][]uint32 {
	combos := [][]uint32{{}}
	for _, col := range r.Plugs {
		if len(col) == 0 {
			continue
		}
		next := make([][]uint32, 0, len(combos)*len(col))
		for _, prefix := range combos {
			for _, h := range col {
				combo := make([]uint32, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, h))
			}
		}
		combos = next
	}
	if len(combos) == 1 && len(combos[0]) == 0 {
		return nil
	}
	return combos
}

// Expand flattens the roll into one item per perk combination. newID may be
// nil, in which case random UUIDs are used.
func (r Roll) Expand(newID func() string) []wishlist.Item {
	if newID == nil {
		newID = uuid.NewString
	}
	combos := r.Combinations()
	items := make([]wishlist.Item, 0, len(combos))
	notes := ShortNote(r.Description)
	tags := r.ItemTags()
	for _, perks := range combos {
		items = append(items, wishlist.Item{
			ID:         newID(),
			WeaponHash: r.Hash,
			PerkHashes: perks,
			Notes:      notes,
			Tags:       tags,
		})
	}
	return items
}

// ToDocument expands every roll of wl into a wishlist document.
func ToDocument(wl *Wishlist, newID func() string) *wishlist.Document {
	doc := &wishlist.Document{
		Title:       wl.Name,
		Description: wl.Description,
		Items:       make([]wishlist.Item, 0, len(wl.Data)),
	}
	for _, r := range wl.Data {
		doc.Items = append(doc.Items, r.Expand(newID)...)
	}
	return doc
}

// FromItems builds a LittleLight wishlist from flat items. Each perk gets its
// own column since the flat form carries no column information.
func FromItems(name, description string, items []wishlist.Item) *Wishlist {
	wl := &Wishlist{Name: name, Description: description, Data: make([]Roll, 0, len(items))}
	for _, it := range items {
		plugs := make([][]uint32, len(it.PerkHashes))
		for i, p := range it.PerkHashes {
			plugs[i] = []uint32{p}
		}
		tags := make([]string, 0)
		for _, t := range it.Tags.List() {
			tags = append(tags, tagNames[t])
		}
		wl.Data = append(wl.Data, Roll{
			Hash:        it.WeaponHash,
			Plugs:       plugs,
			Tags:        tags,
			Description: it.Notes,
		})
	}
	return wl
}
