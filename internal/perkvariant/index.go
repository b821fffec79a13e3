// Package perkvariant groups numeric perk identifiers that refer to the same
// perk (a base perk, its enhanced version, and re-issued copies) into
// equivalence classes.
package perkvariant

import (
	"sort"
	"strings"
)

const enhancedSuffix = " enhanced"

// Entry is one perk definition as seen by the index builder.
type Entry struct {
	Hash uint32
	Name string
	Tier string
	// GroupKey, when set, overrides name-based grouping.
	GroupKey string
}

// Class is an equivalence class of perk hashes.
type Class struct {
	Canonical uint32   `json:"canonical"`
	Members   []uint32 `json:"members"`
}

// Index answers variant queries. A nil or empty index treats every hash as
// its own singleton class. An Index is read-only after Build and safe for
// concurrent use.
type Index struct {
	classes map[uint32]*Class
	count   int
}

type builderGroup struct {
	members  []uint32
	enhanced map[uint32]bool
}

// Build scans entries once and returns the index.
//
// Entries are grouped by explicit GroupKey when present, otherwise by
// normalized name and tier. A name ending in "Enhanced" joins the group of
// its base name, preferring the same tier and falling back to any tier.
func Build(entries []Entry) *Index {
	groups := make(map[string]*builderGroup)
	order := make([]string, 0)
	byBase := make(map[string]string) // base name -> first group key seen
	seen := make(map[uint32]bool)

	add := func(key string, hash uint32, enhanced bool) {
		g, ok := groups[key]
		if !ok {
			g = &builderGroup{enhanced: make(map[uint32]bool)}
			groups[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, hash)
		g.enhanced[hash] = enhanced
	}

	var pending []Entry
	for _, e := range entries {
		if seen[e.Hash] {
			continue
		}
		seen[e.Hash] = true

		if e.GroupKey != "" {
			add("key\x00"+e.GroupKey, e.Hash, isEnhanced(e.Name))
			continue
		}
		name := normalizeName(e.Name)
		if strings.HasSuffix(name, enhancedSuffix) {
			pending = append(pending, e)
			continue
		}
		key := nameKey(name, e.Tier)
		add(key, e.Hash, false)
		if _, ok := byBase[name]; !ok {
			byBase[name] = key
		}
	}

	for _, e := range pending {
		name := normalizeName(e.Name)
		base := strings.TrimSuffix(name, enhancedSuffix)
		key := nameKey(base, e.Tier)
		if _, ok := groups[key]; !ok {
			if other, ok := byBase[base]; ok {
				key = other
			}
		}
		add(key, e.Hash, true)
	}

	idx := &Index{classes: make(map[uint32]*Class, len(seen))}
	for _, key := range order {
		g := groups[key]
		sort.Slice(g.members, func(i, j int) bool { return g.members[i] < g.members[j] })
		cls := &Class{Canonical: canonical(g), Members: g.members}
		for _, h := range g.members {
			idx.classes[h] = cls
		}
		idx.count++
	}
	return idx
}

// canonical is the smallest non-enhanced member, or the smallest member when
// every member is enhanced. Members are sorted.
func canonical(g *builderGroup) uint32 {
	for _, h := range g.members {
		if !g.enhanced[h] {
			return h
		}
	}
	return g.members[0]
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func isEnhanced(name string) bool {
	return strings.HasSuffix(normalizeName(name), enhancedSuffix)
}

func nameKey(name, tier string) string {
	return "name\x00" + name + "\x00" + strings.ToLower(strings.TrimSpace(tier))
}

// Len returns the number of classes in the index.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.count
}

// Class returns the class of hash. Unknown hashes form a singleton class.
func (x *Index) Class(hash uint32) Class {
	if x != nil {
		if c, ok := x.classes[hash]; ok {
			return Class{Canonical: c.Canonical, Members: append([]uint32(nil), c.Members...)}
		}
	}
	return Class{Canonical: hash, Members: []uint32{hash}}
}

// Canonical returns the representative hash of hash's class.
func (x *Index) Canonical(hash uint32) uint32 {
	if x != nil {
		if c, ok := x.classes[hash]; ok {
			return c.Canonical
		}
	}
	return hash
}

// Variants returns every member of hash's class in ascending order,
// including hash. It matches wishlist.VariantFunc.
func (x *Index) Variants(hash uint32) []uint32 {
	return x.Class(hash).Members
}

// IsMember reports whether any variant of hash is in set.
func (x *Index) IsMember(hash uint32, set HashSet) bool {
	_, ok := x.FindMember(hash, set)
	return ok
}

// FindMember returns the variant of hash present in set. The canonical hash
// is preferred, then hash itself, then the smallest other member.
func (x *Index) FindMember(hash uint32, set HashSet) (uint32, bool) {
	if len(set) == 0 {
		return 0, false
	}
	if x == nil {
		return hash, set.Has(hash)
	}
	c, ok := x.classes[hash]
	if !ok {
		return hash, set.Has(hash)
	}
	if set.Has(c.Canonical) {
		return c.Canonical, true
	}
	if set.Has(hash) {
		return hash, true
	}
	for _, m := range c.Members {
		if set.Has(m) {
			return m, true
		}
	}
	return 0, false
}

// Expand returns a new set holding the full class of every hash in set.
func (x *Index) Expand(set HashSet) HashSet {
	out := make(HashSet, len(set))
	for h := range set {
		if x != nil {
			if c, ok := x.classes[h]; ok {
				for _, m := range c.Members {
					out.Add(m)
				}
				continue
			}
		}
		out.Add(h)
	}
	return out
}
