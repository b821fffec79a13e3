package wishlist

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultAuthor labels rolls without a citation author.
const DefaultAuthor = "Unknown"

// NameFunc resolves a weapon hash to its display name and item type.
type NameFunc func(hash uint32) (name, itemType string, ok bool)

// VariantFunc returns every hash considered the same weapon as hash. The
// result may or may not include hash itself.
type VariantFunc func(hash uint32) []uint32

// SerializeOptions controls Serialize. Names and Variants are optional;
// without them output keeps encounter order, omits headers and groups by raw
// weapon hash.
type SerializeOptions struct {
	Title       string
	Description string
	Names       NameFunc
	Variants    VariantFunc
}

type weaponGroup struct {
	key      uint32
	name     string
	itemType string
	authors  []*authorGroup
	byAuthor map[string]*authorGroup
}

type authorGroup struct {
	author string
	items  []Item
}

// SerializeDocument serializes doc, taking title and description from the
// document unless opts sets them.
func SerializeDocument(doc *Document, opts SerializeOptions) string {
	if doc == nil {
		return Serialize(nil, opts)
	}
	if opts.Title == "" {
		opts.Title = doc.Title
	}
	if opts.Description == "" {
		opts.Description = doc.Description
	}
	return Serialize(doc.Items, opts)
}

// Serialize renders items as canonical wishlist text.
//
// Items are grouped per logical weapon, then per citation author. Inside an
// author group identical rolls (same perks, notes and tags) are written once
// and sorted by that signature. Each roll is written once per variant hash
// so that exact-hash consumers see it under every physical item.
func Serialize(items []Item, opts SerializeOptions) string {
	var sb strings.Builder

	if opts.Title != "" || opts.Description != "" {
		if opts.Title != "" {
			sb.WriteString(keywordTitle)
			sb.WriteString(opts.Title)
			sb.WriteByte('\n')
		}
		if opts.Description != "" {
			sb.WriteString(keywordDescription)
			sb.WriteString(opts.Description)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}

	groups := groupItems(items, opts)
	if opts.Names != nil {
		sort.SliceStable(groups, func(i, j int) bool {
			a, b := strings.ToLower(groups[i].name), strings.ToLower(groups[j].name)
			if a != b {
				return a < b
			}
			return groups[i].key < groups[j].key
		})
	}

	for gi, g := range groups {
		if gi > 0 {
			sb.WriteByte('\n')
		}
		if opts.Names != nil {
			sb.WriteString("// ===== ")
			sb.WriteString(g.name)
			if g.itemType != "" {
				sb.WriteString(" (")
				sb.WriteString(g.itemType)
				sb.WriteString(")")
			}
			sb.WriteString(" =====\n")
		}
		for _, ag := range g.authors {
			if opts.Names != nil {
				sb.WriteString("// ")
				sb.WriteString(ag.author)
				sb.WriteByte('\n')
			}
			for _, it := range uniqueRolls(ag.items) {
				notes := wireNotes(it)
				// Only inline notes end at '|', so such notes travel as a
				// block note that is cleared again after the roll.
				block := strings.Contains(notes, "|")
				if block {
					sb.WriteString(keywordBlockNote)
					sb.WriteString(notes)
					sb.WriteByte('\n')
					notes = ""
				}
				for _, hash := range variantHashes(it.WeaponHash, opts.Variants) {
					writeItemLine(&sb, it, hash, notes)
				}
				if block {
					sb.WriteString(keywordBlockNote)
					sb.WriteByte('\n')
				}
			}
		}
	}

	return sb.String()
}

func groupItems(items []Item, opts SerializeOptions) []*weaponGroup {
	groups := make([]*weaponGroup, 0)
	byKey := make(map[uint32]*weaponGroup)

	for _, it := range items {
		key := it.WeaponHash
		if opts.Variants != nil {
			key = minHash(it.WeaponHash, opts.Variants(it.WeaponHash))
		}
		g, ok := byKey[key]
		if !ok {
			g = &weaponGroup{key: key, byAuthor: make(map[string]*authorGroup)}
			if opts.Names != nil {
				g.name, g.itemType = resolveGroupName(key, it.WeaponHash, opts.Names)
			}
			byKey[key] = g
			groups = append(groups, g)
		}

		author := it.CitationAuthor
		if author == "" {
			author = DefaultAuthor
		}
		ag, ok := g.byAuthor[author]
		if !ok {
			ag = &authorGroup{author: author}
			g.byAuthor[author] = ag
			g.authors = append(g.authors, ag)
		}
		ag.items = append(ag.items, it)
	}

	return groups
}

func resolveGroupName(key, hash uint32, names NameFunc) (string, string) {
	if name, itemType, ok := names(key); ok && name != "" {
		return name, itemType
	}
	if name, itemType, ok := names(hash); ok && name != "" {
		return name, itemType
	}
	return strconv.FormatUint(uint64(key), 10), ""
}

// RollSignature identifies a roll by perks, notes and tags. Two items with
// the same signature are the same recommendation. A citation not already
// quoted in the notes counts as part of them.
func RollSignature(it Item) string {
	var sb strings.Builder
	for i, p := range it.PerkHashes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	sb.WriteByte('#')
	sb.WriteString(it.Notes)
	if c, ok := it.Citation(); ok && !HasCitationMarker(it.Notes) {
		sb.WriteByte(' ')
		sb.WriteString(c.Marker())
	}
	sb.WriteByte('|')
	sb.WriteString(it.Tags.String())
	return sb.String()
}

// uniqueRolls keeps the first item per signature and sorts by signature.
func uniqueRolls(items []Item) []Item {
	type keyed struct {
		sig  string
		item Item
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]keyed, 0, len(items))
	for _, it := range items {
		sig := RollSignature(it)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, keyed{sig: sig, item: it})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].sig < out[j].sig })

	result := make([]Item, len(out))
	for i, k := range out {
		result[i] = k.item
	}
	return result
}

func variantHashes(hash uint32, variants VariantFunc) []uint32 {
	if variants == nil {
		return []uint32{hash}
	}
	set := map[uint32]struct{}{hash: {}}
	for _, v := range variants(hash) {
		set[v] = struct{}{}
	}
	out := make([]uint32, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func minHash(hash uint32, variants []uint32) uint32 {
	m := hash
	for _, v := range variants {
		if v < m {
			m = v
		}
	}
	return m
}

func writeItemLine(sb *strings.Builder, it Item, hash uint32, notes string) {
	sb.WriteString(keywordItem)
	sb.WriteString("item=")
	if it.IsTrash() {
		sb.WriteByte('-')
	}
	sb.WriteString(strconv.FormatUint(uint64(hash), 10))

	if len(it.PerkHashes) > 0 {
		sb.WriteString("&perks=")
		for i, p := range it.PerkHashes {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatUint(uint64(p), 10))
		}
	}

	if notes != "" {
		sb.WriteString(keywordNotes)
		sb.WriteString(notes)
	}

	if tags := it.Tags.Without(TagTrash); !tags.IsEmpty() {
		sb.WriteString(keywordTags)
		sb.WriteString(tags.String())
	}
	sb.WriteByte('\n')
}

// wireNotes returns the notes text as it goes on the wire: a single line with
// the citation appended only when the notes do not already carry a marker.
func wireNotes(it Item) string {
	notes := SanitizeNotes(it.Notes)
	if HasCitationMarker(notes) {
		return notes
	}
	c, ok := it.Citation()
	if !ok {
		return notes
	}
	if notes == "" {
		return c.Marker()
	}
	return notes + " " + c.Marker()
}

// SanitizeNotes folds free text onto one line.
func SanitizeNotes(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}
