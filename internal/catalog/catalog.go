// Package catalog resolves numeric definition hashes to display metadata.
//
// The wishlist parser and the consolidation engine never need a catalog.
// It is consulted only for cosmetic serializer output (group headers,
// alphabetical ordering, variant expansion) and for perk variant matching.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind distinguishes weapon definitions from perk definitions.
type Kind string

const (
	KindWeapon Kind = "weapon"
	KindPerk   Kind = "perk"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindWeapon:
		return KindWeapon, nil
	case KindPerk:
		return KindPerk, nil
	default:
		return "", fmt.Errorf("unknown definition kind %q", s)
	}
}

// Definition is the narrow view of a manifest record used here. Optional
// fields are empty strings when the source does not provide them.
type Definition struct {
	Hash            uint32 `json:"hash" yaml:"hash"`
	Kind            Kind   `json:"kind" yaml:"kind"`
	DisplayName     string `json:"name" yaml:"name"`
	ItemType        string `json:"item_type,omitempty" yaml:"item_type,omitempty"`
	Tier            string `json:"tier,omitempty" yaml:"tier,omitempty"`
	VariantGroupKey string `json:"variant_group,omitempty" yaml:"variant_group,omitempty"`
}

// Lookup resolves a single hash.
type Lookup interface {
	Lookup(hash uint32) (Definition, bool)
}

// Source is a Lookup that can also enumerate its definitions.
type Source interface {
	Lookup
	ListByKind(kind Kind) []Definition
}

// Memory is an in-memory catalog. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	defs map[uint32]Definition
}

// NewMemory returns a catalog holding defs. Later duplicates replace earlier
// ones.
func NewMemory(defs ...Definition) *Memory {
	m := &Memory{defs: make(map[uint32]Definition, len(defs))}
	m.Add(defs...)
	return m
}

// Add inserts or replaces definitions.
func (m *Memory) Add(defs ...Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range defs {
		m.defs[d.Hash] = d
	}
}

// Len returns the number of definitions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.defs)
}

// Lookup implements Lookup.
func (m *Memory) Lookup(hash uint32) (Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.defs[hash]
	return d, ok
}

// ListByKind returns all definitions of kind ordered by hash.
func (m *Memory) ListByKind(kind Kind) []Definition {
	m.mu.RLock()
	out := make([]Definition, 0, len(m.defs))
	for _, d := range m.defs {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

// All returns every definition ordered by hash.
func (m *Memory) All() []Definition {
	m.mu.RLock()
	out := make([]Definition, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}
