package consolidate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

// NoteSeparator joins the distinct note groups of a summary.
const NoteSeparator = " | "

var (
	// "Recommended MW: Range, Handling." at the end of a note.
	masterworkPattern = regexp.MustCompile(`(?i)\s*recommended\s+mw\s*:\s*([^.]*)\.?\s*$`)

	// "Name (PvE / God-PvE):" collapses to "Name:".
	qualifierPattern = regexp.MustCompile(`\s*\([^()]*\)\s*:`)
)

type noteGroup struct {
	core        string
	masterworks map[string]struct{}
}

// mergeNotes deduplicates notes and returns the joined summary text along
// with the union of all masterwork recommendations, sorted.
func mergeNotes(notes []string) (string, []string) {
	groups := make([]*noteGroup, 0, len(notes))
	byKey := make(map[string]*noteGroup, len(notes))
	all := make(map[string]struct{})

	for _, raw := range notes {
		core, mws := splitNote(raw)
		if core == "" && len(mws) == 0 {
			continue
		}
		key := DedupKey(core)
		g, ok := byKey[key]
		if !ok {
			g = &noteGroup{core: core, masterworks: make(map[string]struct{})}
			byKey[key] = g
			groups = append(groups, g)
		}
		for _, mw := range mws {
			g.masterworks[mw] = struct{}{}
			all[mw] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(groups))
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		text := g.core
		if len(g.masterworks) > 0 {
			tag := "[MW: " + strings.Join(sortedKeys(g.masterworks), ", ") + "]"
			if text == "" {
				text = tag
			} else {
				text += " " + tag
			}
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
	}

	var masterworks []string
	if len(all) > 0 {
		masterworks = sortedKeys(all)
	}
	return strings.Join(parts, NoteSeparator), masterworks
}

// splitNote strips control suffixes and citations from a note and separates
// the trailing masterwork clause from the core text.
func splitNote(note string) (string, []string) {
	if idx := strings.Index(strings.ToLower(note), "|tags:"); idx >= 0 {
		note = note[:idx]
	}
	note = wishlist.StripCitations(note)

	var mws []string
	if m := masterworkPattern.FindStringSubmatchIndex(note); m != nil {
		for _, mw := range strings.Split(note[m[2]:m[3]], ",") {
			if mw = strings.TrimSpace(mw); mw != "" {
				mws = append(mws, mw)
			}
		}
		note = note[:m[0]]
	}
	return strings.TrimSpace(note), mws
}

// DedupKey normalizes a note for duplicate detection: author qualifiers are
// collapsed, whitespace is squeezed and case is folded. Two contributors whose
// names differ only inside parentheses share a key.
func DedupKey(core string) string {
	key := qualifierPattern.ReplaceAllString(core, ":")
	key = strings.Join(strings.Fields(key), " ")
	return strings.ToLower(key)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
