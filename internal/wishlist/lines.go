package wishlist

import (
	"strconv"
	"strings"
)

// LineKind classifies a single line of wishlist text.
type LineKind int

const (
	LineBlank LineKind = iota
	LineTitle
	LineDescription
	LineBlockNote
	LineComment
	LineItem
	LineUnrecognized
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineTitle:
		return "title"
	case LineDescription:
		return "description"
	case LineBlockNote:
		return "block-note"
	case LineComment:
		return "comment"
	case LineItem:
		return "item"
	default:
		return "unrecognized"
	}
}

// Line is one classified line. Payload holds the text after the directive
// keyword (title text, note text, or the raw item body).
type Line struct {
	Kind    LineKind
	Number  int
	Payload string
}

const (
	keywordTitle       = "title:"
	keywordDescription = "description:"
	keywordBlockNote   = "//notes:"
	keywordComment     = "//"
	keywordItem        = "dimwishlist:"
	keywordNotes       = "#notes:"
	keywordTags        = "|tags:"
)

// ClassifyLine trims raw and determines its directive. Keywords are matched
// case-insensitively; the first matching rule wins.
func ClassifyLine(raw string) Line {
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
		return Line{Kind: LineBlank}
	case hasPrefixFold(line, keywordTitle):
		return Line{Kind: LineTitle, Payload: strings.TrimSpace(line[len(keywordTitle):])}
	case hasPrefixFold(line, keywordDescription):
		return Line{Kind: LineDescription, Payload: strings.TrimSpace(line[len(keywordDescription):])}
	case hasPrefixFold(line, keywordBlockNote):
		return Line{Kind: LineBlockNote, Payload: strings.TrimSpace(line[len(keywordBlockNote):])}
	case strings.HasPrefix(line, keywordComment):
		return Line{Kind: LineComment, Payload: strings.TrimSpace(line[len(keywordComment):])}
	case hasPrefixFold(line, keywordItem):
		return Line{Kind: LineItem, Payload: line[len(keywordItem):]}
	default:
		return Line{Kind: LineUnrecognized, Payload: line}
	}
}

// itemDirective holds the fields of one dimwishlist: line.
type itemDirective struct {
	hash     uint32
	negative bool
	perks    []uint32
	notes    string
	hasNotes bool
	tags     Tags

	invalidPerks int
	droppedTags  int
}

// parseItemDirective parses the body of a dimwishlist: line, for example
// "item=-123&perks=1|2,3#notes:text|tags:pvp". It reports false when the
// item value is missing or is not an integer in hash range.
func parseItemDirective(body string) (itemDirective, bool) {
	var d itemDirective

	head := body
	tail := ""
	if idx := indexFold(body, keywordNotes); idx >= 0 {
		head = body[:idx]
		rest := body[idx+len(keywordNotes):]
		if bar := strings.IndexByte(rest, '|'); bar >= 0 {
			d.notes = rest[:bar]
			tail = rest[bar:]
		} else {
			d.notes = rest
		}
		d.notes = strings.TrimSpace(d.notes)
		d.hasNotes = true
	}

	tagsCSV := ""
	hasTags := false
	if idx := indexFold(head, keywordTags); idx >= 0 {
		tagsCSV = head[idx+len(keywordTags):]
		head = head[:idx]
		hasTags = true
	} else if hasPrefixFold(tail, keywordTags) {
		tagsCSV = tail[len(keywordTags):]
		hasTags = true
	}
	if hasTags {
		d.tags, d.droppedTags = ParseTags(tagsCSV)
	}

	hasItem := false
	for _, param := range strings.Split(head, "&") {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "item":
			hash, negative, ok := parseSignedHash(value)
			if !ok {
				return d, false
			}
			d.hash = hash
			d.negative = negative
			hasItem = true
		case "perks":
			d.perks, d.invalidPerks = parsePerkList(value)
		}
	}
	if !hasItem {
		return d, false
	}
	if d.perks == nil {
		d.perks = []uint32{}
	}
	return d, true
}

// parsePerkList splits on both ',' and '|' into one flat list. Tokens that
// are not hashes are dropped and counted.
func parsePerkList(s string) ([]uint32, int) {
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' })
	perks := make([]uint32, 0, len(tokens))
	invalid := 0
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			invalid++
			continue
		}
		perks = append(perks, uint32(n))
	}
	return perks, invalid
}

func parseSignedHash(s string) (uint32, bool, bool) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return 0, false, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false, false
	}
	return uint32(n), negative, true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// indexFold is an ASCII case-insensitive strings.Index.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
