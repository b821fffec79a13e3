package wishlist

import (
	"strconv"
	"strings"
)

const citationPrefix = "[YT:"

// Citation is a video reference embedded in roll notes as
// "[YT: <author> <link> @<timestamp>]".
type Citation struct {
	Author    string `json:"author,omitempty"`
	Link      string `json:"link,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// IsZero reports whether no citation field is set.
func (c Citation) IsZero() bool {
	return c.Author == "" && c.Link == "" && c.Timestamp == ""
}

// Marker renders the citation in its bracketed wire form. Empty fields are
// omitted.
func (c Citation) Marker() string {
	parts := make([]string, 0, 3)
	if c.Author != "" {
		parts = append(parts, c.Author)
	}
	if c.Link != "" {
		parts = append(parts, c.Link)
	}
	if c.Timestamp != "" {
		parts = append(parts, "@"+strings.TrimPrefix(c.Timestamp, "@"))
	}
	return citationPrefix + " " + strings.Join(parts, " ") + "]"
}

// HasCitationMarker reports whether notes already carry a citation marker.
func HasCitationMarker(notes string) bool {
	return strings.Contains(notes, citationPrefix)
}

// ExtractCitation pulls the first citation marker out of notes.
//
// Within the marker the first http(s) token is the link, an @MM:SS or
// @H:MM:SS token is the timestamp, and the tokens before the link (all tokens
// when there is no link) are the author.
func ExtractCitation(notes string) (Citation, bool) {
	content, ok := citationContent(notes)
	if !ok {
		return Citation{}, false
	}

	fields := strings.Fields(content)
	linkIdx := -1
	for i, f := range fields {
		if isLinkToken(f) {
			linkIdx = i
			break
		}
	}

	var c Citation
	if linkIdx >= 0 {
		c.Link = fields[linkIdx]
	}
	for _, f := range fields {
		if isTimestampToken(f) {
			c.Timestamp = f[1:]
			break
		}
	}

	authorTokens := fields
	if linkIdx >= 0 {
		authorTokens = fields[:linkIdx]
	} else if strings.HasPrefix(content, "@") {
		authorTokens = nil
	}
	author := make([]string, 0, len(authorTokens))
	for _, f := range authorTokens {
		if isTimestampToken(f) {
			continue
		}
		author = append(author, f)
	}
	c.Author = strings.Join(author, " ")

	return c, !c.IsZero()
}

// StripCitations removes every citation marker from notes and tidies the
// whitespace left behind.
func StripCitations(notes string) string {
	for {
		start := strings.Index(notes, citationPrefix)
		if start < 0 {
			break
		}
		end := strings.IndexByte(notes[start:], ']')
		if end < 0 {
			notes = notes[:start]
			break
		}
		notes = notes[:start] + notes[start+end+1:]
	}
	return strings.Join(strings.Fields(notes), " ")
}

// TimestampSeconds converts "MM:SS" or "H:MM:SS" to seconds.
func TimestampSeconds(ts string) (int, bool) {
	ts = strings.TrimPrefix(strings.TrimSpace(ts), "@")
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

func citationContent(notes string) (string, bool) {
	start := strings.Index(notes, citationPrefix)
	if start < 0 {
		return "", false
	}
	rest := notes[start+len(citationPrefix):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func isLinkToken(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// isTimestampToken matches @M:SS, @MM:SS and @H:MM:SS.
func isTimestampToken(s string) bool {
	if len(s) < 5 || s[0] != '@' {
		return false
	}
	parts := strings.Split(s[1:], ":")
	if len(parts) != 2 && len(parts) != 3 {
		return false
	}
	for i, p := range parts {
		if p == "" || !allDigits(p) {
			return false
		}
		// Leading component may be one or two digits, the rest exactly two.
		if i == 0 && len(p) > 2 {
			return false
		}
		if i > 0 && len(p) != 2 {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
