package wishlist

import (
	"encoding/json"
	"strings"
)

// Tag is one value of the closed tag vocabulary.
type Tag uint8

// Tags in vocabulary order. The order is also the rendering order.
const (
	TagPvP Tag = 1 << iota
	TagPvE
	TagMKB
	TagController
	TagAlt
	TagTrash
)

var tagNames = []struct {
	tag  Tag
	name string
}{
	{TagPvP, "pvp"},
	{TagPvE, "pve"},
	{TagMKB, "mkb"},
	{TagController, "controller"},
	{TagAlt, "alt"},
	{TagTrash, "trash"},
}

// String returns the wire token for a single tag.
func (t Tag) String() string {
	for _, tn := range tagNames {
		if tn.tag == t {
			return tn.name
		}
	}
	return ""
}

// AllTags returns the vocabulary in rendering order.
func AllTags() []Tag {
	out := make([]Tag, len(tagNames))
	for i, tn := range tagNames {
		out[i] = tn.tag
	}
	return out
}

// ParseTag maps a wire token to a tag. Matching is case-insensitive and
// surrounding whitespace is ignored.
func ParseTag(s string) (Tag, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, tn := range tagNames {
		if tn.name == s {
			return tn.tag, true
		}
	}
	return 0, false
}

// Tags is a set of tags. Only vocabulary values can be stored.
type Tags uint8

const allTags = Tags(TagPvP | TagPvE | TagMKB | TagController | TagAlt | TagTrash)

// NewTags builds a set from the given tags.
func NewTags(tags ...Tag) Tags {
	var s Tags
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

// ParseTags parses a comma separated tag list. Unknown tokens are dropped;
// the number of dropped tokens is returned alongside the set.
func ParseTags(csv string) (Tags, int) {
	var s Tags
	dropped := 0
	for _, tok := range strings.Split(csv, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		t, ok := ParseTag(tok)
		if !ok {
			dropped++
			continue
		}
		s = s.With(t)
	}
	return s, dropped
}

// Has reports whether t is in the set.
func (s Tags) Has(t Tag) bool {
	return s&Tags(t) != 0
}

// With returns the set with t added.
func (s Tags) With(t Tag) Tags {
	return (s | Tags(t)) & allTags
}

// Without returns the set with t removed.
func (s Tags) Without(t Tag) Tags {
	return s &^ Tags(t)
}

// Union returns the union of both sets.
func (s Tags) Union(o Tags) Tags {
	return (s | o) & allTags
}

// IsEmpty reports whether the set has no tags.
func (s Tags) IsEmpty() bool {
	return s&allTags == 0
}

// List returns the tags in vocabulary order.
func (s Tags) List() []Tag {
	out := make([]Tag, 0, len(tagNames))
	for _, tn := range tagNames {
		if s.Has(tn.tag) {
			out = append(out, tn.tag)
		}
	}
	return out
}

// Strings returns the wire tokens in vocabulary order.
func (s Tags) Strings() []string {
	out := make([]string, 0, len(tagNames))
	for _, tn := range tagNames {
		if s.Has(tn.tag) {
			out = append(out, tn.name)
		}
	}
	return out
}

// String renders the set as a comma separated list.
func (s Tags) String() string {
	return strings.Join(s.Strings(), ",")
}

// MarshalJSON encodes the set as an array of tag names.
func (s Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an array of tag names, dropping unknown values.
func (s *Tags) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var out Tags
	for _, n := range names {
		if t, ok := ParseTag(n); ok {
			out = out.With(t)
		}
	}
	*s = out
	return nil
}
