package wishlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ParseStats counts what the parser saw and what it dropped. None of the
// dropped categories are errors: community files are noisy by nature.
type ParseStats struct {
	Lines        int `json:"lines"`
	Items        int `json:"items"`
	Comments     int `json:"comments"`
	BlockNotes   int `json:"block_notes"`
	Malformed    int `json:"malformed"`
	Unrecognized int `json:"unrecognized"`
	InvalidPerks int `json:"invalid_perks"`
	DroppedTags  int `json:"dropped_tags"`
}

// ParseOption configures a parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	newID func() string
}

// WithIDGenerator overrides how item IDs are assigned. The default is a
// random UUID per item.
func WithIDGenerator(gen func() string) ParseOption {
	return func(c *parseConfig) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// SequentialIDs returns a generator producing "<prefix>1", "<prefix>2", ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// Parse parses wishlist text. It never fails; see ParseWithStats for the
// counts of dropped content.
func Parse(text string, opts ...ParseOption) *Document {
	doc, _ := ParseWithStats(text, opts...)
	return doc
}

// ParseWithStats parses wishlist text and reports parse statistics.
func ParseWithStats(text string, opts ...ParseOption) (*Document, ParseStats) {
	p := newParser(opts)
	n := 0
	for len(text) > 0 {
		var line string
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			line, text = text[:idx], text[idx+1:]
		} else {
			line, text = text, ""
		}
		n++
		p.feed(n, line)
	}
	return p.doc, p.stats
}

// ParseReader parses wishlist text from r. The only error returned comes
// from reading r.
func ParseReader(r io.Reader, opts ...ParseOption) (*Document, ParseStats, error) {
	p := newParser(opts)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		p.feed(n, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return p.doc, p.stats, fmt.Errorf("read wishlist: %w", err)
	}
	return p.doc, p.stats, nil
}

// parser is a two-state machine: normal, with a sticky block-note register
// that is either empty or set.
type parser struct {
	doc       *Document
	stats     ParseStats
	cfg       parseConfig
	hasTitle  bool
	hasDesc   bool
	blockNote string
}

func newParser(opts []ParseOption) *parser {
	cfg := parseConfig{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &parser{
		doc: &Document{Items: make([]Item, 0)},
		cfg: cfg,
	}
}

func (p *parser) feed(number int, raw string) {
	p.stats.Lines++
	line := ClassifyLine(strings.TrimSuffix(raw, "\r"))
	line.Number = number

	switch line.Kind {
	case LineBlank:
		// no-op, register kept
	case LineTitle:
		if !p.hasTitle {
			p.doc.Title = line.Payload
			p.hasTitle = true
		}
	case LineDescription:
		if !p.hasDesc {
			p.doc.Description = line.Payload
			p.hasDesc = true
		}
	case LineBlockNote:
		p.stats.BlockNotes++
		p.blockNote = line.Payload
	case LineComment:
		p.stats.Comments++
	case LineItem:
		p.item(line.Payload)
	default:
		p.stats.Unrecognized++
		p.blockNote = ""
	}
}

func (p *parser) item(body string) {
	d, ok := parseItemDirective(body)
	p.stats.InvalidPerks += d.invalidPerks
	p.stats.DroppedTags += d.droppedTags
	if !ok {
		p.stats.Malformed++
		return
	}

	notes := p.blockNote
	if d.hasNotes {
		notes = d.notes
	}

	tags := d.tags
	if d.negative {
		tags = tags.With(TagTrash)
	}

	item := Item{
		ID:         p.cfg.newID(),
		WeaponHash: d.hash,
		PerkHashes: d.perks,
		Notes:      notes,
		Tags:       tags,
	}
	if c, ok := ExtractCitation(notes); ok {
		item.CitationAuthor = c.Author
		item.CitationLink = c.Link
		item.CitationTimestamp = c.Timestamp
	}

	p.doc.Items = append(p.doc.Items, item)
	p.stats.Items++
}
