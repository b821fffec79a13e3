package perkvariant

import "sort"

// HashSet is a set of hashes.
type HashSet map[uint32]struct{}

// NewHashSet returns a set holding hashes.
func NewHashSet(hashes ...uint32) HashSet {
	s := make(HashSet, len(hashes))
	for _, h := range hashes {
		s.Add(h)
	}
	return s
}

func (s HashSet) Add(h uint32) { s[h] = struct{}{} }

func (s HashSet) Has(h uint32) bool {
	_, ok := s[h]
	return ok
}

// Sorted returns the members in ascending order.
func (s HashSet) Sorted() []uint32 {
	out := make([]uint32, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
