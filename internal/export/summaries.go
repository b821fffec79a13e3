package export

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist/consolidate"
)

// SummaryRow is the flat, display-ready form of a consolidated summary.
type SummaryRow struct {
	WeaponHash  uint32   `json:"weapon_hash" csv:"weapon_hash"`
	Weapon      string   `json:"weapon" csv:"weapon"`
	ItemType    string   `json:"item_type,omitempty" csv:"item_type"`
	Perks       []string `json:"perks" csv:"perks"`
	PerkHashes  []uint32 `json:"perk_hashes" csv:"perk_hashes"`
	Tags        []string `json:"tags" csv:"tags"`
	Masterworks []string `json:"masterworks,omitempty" csv:"masterworks"`
	Notes       string   `json:"notes,omitempty" csv:"notes"`
	Rolls       int      `json:"rolls" csv:"rolls"`
	NoteCount   int      `json:"note_count" csv:"note_count"`
	Author      string   `json:"author,omitempty" csv:"author"`
	Source      string   `json:"source,omitempty" csv:"source"`
	Timestamp   string   `json:"timestamp,omitempty" csv:"timestamp"`
	MoreSources int      `json:"more_sources" csv:"more_sources"`
}

// BuildRows flattens summaries, resolving weapon and perk names through
// lookup when it is not nil. Rows are sorted by weapon name.
func BuildRows(summaries []*consolidate.Consolidated, lookup catalog.Lookup) []SummaryRow {
	rows := make([]SummaryRow, 0, len(summaries))
	for _, c := range summaries {
		row := SummaryRow{
			WeaponHash:  c.WeaponHash,
			Weapon:      strconv.FormatUint(uint64(c.WeaponHash), 10),
			PerkHashes:  c.PerkHashes,
			Perks:       make([]string, len(c.PerkHashes)),
			Tags:        c.Tags.Strings(),
			Masterworks: c.Masterworks,
			Notes:       c.Notes,
			Rolls:       c.OriginalCount,
			NoteCount:   c.OriginalNotesCount,
			MoreSources: c.AdditionalCitationCount,
		}
		if lookup != nil {
			if d, ok := lookup.Lookup(c.WeaponHash); ok && d.DisplayName != "" {
				row.Weapon = d.DisplayName
				row.ItemType = d.ItemType
			}
		}
		for i, p := range c.PerkHashes {
			row.Perks[i] = perkName(p, lookup)
		}
		if cit := c.PrimaryCitation; cit != nil {
			row.Author = cit.Author
			row.Source = TimestampedLink(cit.Link, cit.Timestamp)
			row.Timestamp = cit.Timestamp
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := strings.ToLower(rows[i].Weapon), strings.ToLower(rows[j].Weapon)
		if a != b {
			return a < b
		}
		return rows[i].WeaponHash < rows[j].WeaponHash
	})
	return rows
}

func perkName(hash uint32, lookup catalog.Lookup) string {
	if lookup != nil {
		if d, ok := lookup.Lookup(hash); ok && d.DisplayName != "" {
			return d.DisplayName
		}
	}
	return strconv.FormatUint(uint64(hash), 10)
}

// TimestampedLink appends a t=<seconds>s parameter to YouTube links when the
// timestamp parses. Other links are returned unchanged.
func TimestampedLink(link, timestamp string) string {
	if link == "" || !isYouTube(link) {
		return link
	}
	seconds, ok := wishlist.TimestampSeconds(timestamp)
	if !ok || seconds == 0 {
		return link
	}
	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%st=%ds", link, sep, seconds)
}

func isYouTube(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be"
}

// WriteMarkdown writes a human-readable report, one section per weapon.
func WriteMarkdown(w io.Writer, title string, rows []SummaryRow) error {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}

	for _, r := range rows {
		sb.WriteString("## ")
		sb.WriteString(r.Weapon)
		if r.ItemType != "" {
			fmt.Fprintf(&sb, " (%s)", r.ItemType)
		}
		sb.WriteString("\n\n")

		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		if len(r.Perks) > 0 {
			fmt.Fprintf(&sb, "| Perks | %s |\n", cell(strings.Join(r.Perks, ", ")))
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(&sb, "| Tags | %s |\n", cell(strings.Join(r.Tags, ", ")))
		}
		if len(r.Masterworks) > 0 {
			fmt.Fprintf(&sb, "| Masterwork | %s |\n", cell(strings.Join(r.Masterworks, ", ")))
		}
		fmt.Fprintf(&sb, "| Rolls | %d |\n\n", r.Rolls)

		if r.Notes != "" {
			fmt.Fprintf(&sb, "**Notes:** %s\n\n", r.Notes)
		}

		if source := sourceLine(r); source != "" {
			fmt.Fprintf(&sb, "**Source:** %s\n\n", source)
		}
		sb.WriteString("---\n\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func sourceLine(r SummaryRow) string {
	var line string
	switch {
	case r.Source != "" && r.Author != "":
		line = fmt.Sprintf("[%s](%s)", r.Author, r.Source)
	case r.Source != "":
		line = fmt.Sprintf("<%s>", r.Source)
	case r.Author != "":
		line = r.Author
	default:
		return ""
	}
	if r.Timestamp != "" {
		line += " @ " + r.Timestamp
	}
	if r.MoreSources > 0 {
		line += fmt.Sprintf(" (+%d more)", r.MoreSources)
	}
	return line
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
