// Package stats computes descriptive statistics over wishlist rolls.
package stats

import (
	"sort"

	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

// TagCount is the number of rolls carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// WeaponCount is the number of rolls recorded for a logical weapon.
type WeaponCount struct {
	WeaponHash uint32 `json:"weapon_hash"`
	Name       string `json:"name,omitempty"`
	Rolls      int    `json:"rolls"`
	Trash      int    `json:"trash"`
	Authors    int    `json:"authors"`
}

// Noise reports content the parser dropped.
type Noise struct {
	Malformed    int `json:"malformed"`
	Unrecognized int `json:"unrecognized"`
	InvalidPerks int `json:"invalid_perks"`
	DroppedTags  int `json:"dropped_tags"`
}

// Total returns the sum of all noise counters.
func (n Noise) Total() int {
	return n.Malformed + n.Unrecognized + n.InvalidPerks + n.DroppedTags
}

// Summary describes a set of rolls.
type Summary struct {
	Rolls        int           `json:"rolls"`
	Weapons      int           `json:"weapons"`
	Untagged     int           `json:"untagged"`
	WithNotes    int           `json:"with_notes"`
	WithCitation int           `json:"with_citation"`
	Tags         []TagCount    `json:"tags"`
	PerWeapon    []WeaponCount `json:"per_weapon"`
	Noise        Noise         `json:"noise"`
}

// Options controls Compute. Both callbacks are optional.
type Options struct {
	Variants wishlist.VariantFunc
	Names    wishlist.NameFunc
	Parse    *wishlist.ParseStats
}

// Compute summarizes items. Rolls on variants of the same weapon are
// counted together under the smallest variant hash. PerWeapon is ordered by
// roll count, descending, then by hash.
func Compute(items []wishlist.Item, opts Options) *Summary {
	s := &Summary{}
	tagCounts := make(map[wishlist.Tag]int)
	byWeapon := make(map[uint32]*WeaponCount)
	authors := make(map[uint32]map[string]struct{})

	for _, it := range items {
		s.Rolls++
		if it.Tags.Without(wishlist.TagTrash).IsEmpty() {
			s.Untagged++
		}
		if it.Notes != "" {
			s.WithNotes++
		}
		if _, ok := it.Citation(); ok {
			s.WithCitation++
		}
		for _, tag := range it.Tags.List() {
			tagCounts[tag]++
		}

		key := weaponKey(it.WeaponHash, opts.Variants)
		wc, ok := byWeapon[key]
		if !ok {
			wc = &WeaponCount{WeaponHash: key}
			if opts.Names != nil {
				if name, _, ok := opts.Names(key); ok {
					wc.Name = name
				}
			}
			byWeapon[key] = wc
			authors[key] = make(map[string]struct{})
		}
		wc.Rolls++
		if it.IsTrash() {
			wc.Trash++
		}
		author := it.CitationAuthor
		if author == "" {
			author = wishlist.DefaultAuthor
		}
		authors[key][author] = struct{}{}
	}

	for _, tag := range wishlist.AllTags() {
		if n := tagCounts[tag]; n > 0 {
			s.Tags = append(s.Tags, TagCount{Tag: tag.String(), Count: n})
		}
	}

	s.PerWeapon = make([]WeaponCount, 0, len(byWeapon))
	for key, wc := range byWeapon {
		wc.Authors = len(authors[key])
		s.PerWeapon = append(s.PerWeapon, *wc)
	}
	sort.Slice(s.PerWeapon, func(i, j int) bool {
		a, b := s.PerWeapon[i], s.PerWeapon[j]
		if a.Rolls != b.Rolls {
			return a.Rolls > b.Rolls
		}
		return a.WeaponHash < b.WeaponHash
	})
	s.Weapons = len(s.PerWeapon)

	if opts.Parse != nil {
		s.Noise = Noise{
			Malformed:    opts.Parse.Malformed,
			Unrecognized: opts.Parse.Unrecognized,
			InvalidPerks: opts.Parse.InvalidPerks,
			DroppedTags:  opts.Parse.DroppedTags,
		}
	}
	return s
}

// TopWeapons returns at most n entries of PerWeapon.
func (s *Summary) TopWeapons(n int) []WeaponCount {
	if n <= 0 || n >= len(s.PerWeapon) {
		return s.PerWeapon
	}
	return s.PerWeapon[:n]
}

// AverageRollsPerWeapon returns Rolls / Weapons, or 0 for an empty summary.
func (s *Summary) AverageRollsPerWeapon() float64 {
	if s.Weapons == 0 {
		return 0
	}
	return float64(s.Rolls) / float64(s.Weapons)
}

func weaponKey(hash uint32, variants wishlist.VariantFunc) uint32 {
	key := hash
	if variants == nil {
		return key
	}
	for _, v := range variants(hash) {
		if v < key {
			key = v
		}
	}
	return key
}
