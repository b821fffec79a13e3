package wishlist

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerialize_SignConvention(t *testing.T) {
	items := []Item{{WeaponHash: 123, Tags: NewTags(TagTrash, TagPvP)}}

	got := Serialize(items, SerializeOptions{})

	want := "dimwishlist:item=-123|tags:pvp\n"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_TrashOnlyHasNoTagSegment(t *testing.T) {
	items := []Item{{WeaponHash: 9, PerkHashes: []uint32{1}, Tags: NewTags(TagTrash)}}

	got := Serialize(items, SerializeOptions{})

	if got != "dimwishlist:item=-9&perks=1\n" {
		t.Errorf("Serialize() = %q", got)
	}
}

func TestSerialize_Header(t *testing.T) {
	doc := &Document{
		Title:       "My List",
		Description: "Curated",
		Items:       []Item{{WeaponHash: 1, PerkHashes: []uint32{2, 3}, Tags: NewTags(TagPvE)}},
	}

	got := SerializeDocument(doc, SerializeOptions{})

	want := "title:My List\ndescription:Curated\n\ndimwishlist:item=1&perks=2,3|tags:pve\n"
	if got != want {
		t.Errorf("SerializeDocument() = %q, want %q", got, want)
	}
}

func TestSerialize_CitationIdempotence(t *testing.T) {
	items := []Item{{
		WeaponHash:        1,
		PerkHashes:        []uint32{2},
		Notes:             "Great roll [YT: Maven https://youtu.be/x @1:00]",
		CitationAuthor:    "Maven",
		CitationLink:      "https://youtu.be/x",
		CitationTimestamp: "1:00",
	}}

	first := Serialize(items, SerializeOptions{})
	if n := strings.Count(first, "[YT:"); n != 1 {
		t.Fatalf("first pass has %d markers, want 1: %q", n, first)
	}

	second := Serialize(Parse(first).Items, SerializeOptions{})
	if n := strings.Count(second, "[YT:"); n != 1 {
		t.Errorf("second pass has %d markers, want 1: %q", n, second)
	}
	if first != second {
		t.Errorf("re-serialization changed output:\n%q\n%q", first, second)
	}
}

func TestSerialize_CitationAppendedWhenMissing(t *testing.T) {
	items := []Item{{
		WeaponHash:        1,
		Notes:             "Great roll",
		CitationAuthor:    "Maven",
		CitationLink:      "https://youtu.be/x",
		CitationTimestamp: "1:00",
	}}

	got := Serialize(items, SerializeOptions{})

	want := "dimwishlist:item=1#notes:Great roll [YT: Maven https://youtu.be/x @1:00]\n"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_NotesSanitized(t *testing.T) {
	items := []Item{{WeaponHash: 1, Notes: "line one\nline two", Tags: NewTags(TagPvE)}}

	got := Serialize(items, SerializeOptions{})

	want := "dimwishlist:item=1#notes:line one line two|tags:pve\n"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
	if Parse(got).Items[0].Tags != NewTags(TagPvE) {
		t.Error("tags lost after sanitizing notes")
	}
}

func TestSerialize_PipeNotesAsBlockNote(t *testing.T) {
	items := []Item{
		{WeaponHash: 1, PerkHashes: []uint32{2}, Notes: "a | b", Tags: NewTags(TagPvE)},
		{WeaponHash: 1, PerkHashes: []uint32{3}},
	}

	got := Serialize(items, SerializeOptions{})

	want := "//notes:a | b\n" +
		"dimwishlist:item=1&perks=2|tags:pve\n" +
		"//notes:\n" +
		"dimwishlist:item=1&perks=3\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}

	parsed := Parse(got).Items
	if len(parsed) != 2 {
		t.Fatalf("parsed %d items, want 2", len(parsed))
	}
	if parsed[0].Notes != "a | b" {
		t.Errorf("notes = %q, want %q", parsed[0].Notes, "a | b")
	}
	if parsed[0].Tags != NewTags(TagPvE) {
		t.Errorf("tags = %v, want pve", parsed[0].Tags)
	}
	if parsed[1].Notes != "" {
		t.Errorf("block note leaked into next roll: %q", parsed[1].Notes)
	}
}

func TestSerialize_PipeNotesCoverEveryVariant(t *testing.T) {
	variants := func(uint32) []uint32 { return []uint32{1, 2} }
	items := []Item{{WeaponHash: 1, Notes: "x | y"}}

	got := Serialize(items, SerializeOptions{Variants: variants})

	want := "//notes:x | y\n" +
		"dimwishlist:item=1\n" +
		"dimwishlist:item=2\n" +
		"//notes:\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerialize_DistinctCitationsKept(t *testing.T) {
	items := []Item{
		{WeaponHash: 1, PerkHashes: []uint32{2}, Notes: "solid", CitationAuthor: "Maven", CitationLink: "https://a"},
		{WeaponHash: 1, PerkHashes: []uint32{2}, Notes: "solid", CitationAuthor: "Maven", CitationLink: "https://b"},
		{WeaponHash: 1, PerkHashes: []uint32{2}, Notes: "solid", CitationAuthor: "Maven", CitationLink: "https://a"},
	}

	got := Serialize(items, SerializeOptions{})

	want := "dimwishlist:item=1&perks=2#notes:solid [YT: Maven https://a]\n" +
		"dimwishlist:item=1&perks=2#notes:solid [YT: Maven https://b]\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestRollSignature_QuotedCitationNotRepeated(t *testing.T) {
	quoted := Item{Notes: "solid [YT: Maven https://a]", CitationAuthor: "Maven", CitationLink: "https://a"}
	bare := Item{Notes: "solid", CitationAuthor: "Maven", CitationLink: "https://a"}

	if got := RollSignature(quoted); strings.Count(got, "[YT:") != 1 {
		t.Errorf("RollSignature() = %q, want one marker", got)
	}
	if RollSignature(bare) == RollSignature(Item{Notes: "solid"}) {
		t.Error("citation ignored in signature")
	}
}

func TestSerialize_DedupAndSortWithinGroup(t *testing.T) {
	items := []Item{
		{WeaponHash: 5, PerkHashes: []uint32{3}},
		{WeaponHash: 5, PerkHashes: []uint32{1}},
		{WeaponHash: 5, PerkHashes: []uint32{3}},
		{WeaponHash: 6, PerkHashes: []uint32{9}},
	}

	got := Serialize(items, SerializeOptions{})

	want := "dimwishlist:item=5&perks=1\n" +
		"dimwishlist:item=5&perks=3\n" +
		"\n" +
		"dimwishlist:item=6&perks=9\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerialize_VariantsAndNames(t *testing.T) {
	variants := func(hash uint32) []uint32 {
		switch hash {
		case 1, 2:
			return []uint32{1, 2}
		}
		return nil
	}
	names := func(hash uint32) (string, string, bool) {
		switch hash {
		case 1:
			return "Zephyr", "Sword", true
		case 3:
			return "austringer", "Hand Cannon", true
		}
		return "", "", false
	}
	items := []Item{
		{WeaponHash: 2, PerkHashes: []uint32{1, 2}},
		{WeaponHash: 1, PerkHashes: []uint32{1, 2}},
		{WeaponHash: 3, PerkHashes: []uint32{5}, CitationAuthor: "Maven"},
	}

	got := Serialize(items, SerializeOptions{Names: names, Variants: variants})

	want := "// ===== austringer (Hand Cannon) =====\n" +
		"// Maven\n" +
		"dimwishlist:item=3&perks=5#notes:[YT: Maven]\n" +
		"\n" +
		"// ===== Zephyr (Sword) =====\n" +
		"// Unknown\n" +
		"dimwishlist:item=1&perks=1,2\n" +
		"dimwishlist:item=2&perks=1,2\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerialize_UnknownNameFallsBackToHash(t *testing.T) {
	names := func(uint32) (string, string, bool) { return "", "", false }
	items := []Item{{WeaponHash: 42}}

	got := Serialize(items, SerializeOptions{Names: names})

	want := "// ===== 42 =====\n// Unknown\ndimwishlist:item=42\n"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_AuthorSubgroupsWithoutHeaders(t *testing.T) {
	items := []Item{
		{WeaponHash: 1, PerkHashes: []uint32{9}, CitationAuthor: "B"},
		{WeaponHash: 1, PerkHashes: []uint32{1}},
		{WeaponHash: 1, PerkHashes: []uint32{5}, CitationAuthor: "B"},
	}

	got := Serialize(items, SerializeOptions{})

	want := "dimwishlist:item=1&perks=5#notes:[YT: B]\n" +
		"dimwishlist:item=1&perks=9#notes:[YT: B]\n" +
		"dimwishlist:item=1&perks=1\n"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
	if strings.Contains(got, "\n\n") {
		t.Error("blank line emitted inside a weapon group")
	}
}

func TestRoundTrip(t *testing.T) {
	input := `title:Round Trip
description:Fixture
//notes:block note
dimwishlist:item=100&perks=1|2,3
dimwishlist:item=-200&perks=4#notes:inline [YT: Maven https://youtu.be/x @1:00]|tags:pvp,mkb
// comment
dimwishlist:item=100&perks=5
garbage line
dimwishlist:item=300&perks=6,6|tags:pve,controller
dimwishlist:item=400#notes:no perks here
//notes:a | b
dimwishlist:item=500&perks=7|tags:pve
dimwishlist:item=500&perks=8
garbage resets the register
dimwishlist:item=600&perks=9
`

	first := Parse(input)
	text := SerializeDocument(first, SerializeOptions{})
	second := Parse(text)

	if second.Title != first.Title || second.Description != first.Description {
		t.Errorf("header changed: %q/%q -> %q/%q", first.Title, first.Description, second.Title, second.Description)
	}
	if diff := cmp.Diff(comparable(first.Items), comparable(second.Items)); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}

	third := SerializeDocument(second, SerializeOptions{})
	if third != text {
		t.Errorf("serialization not stable:\n%s\n---\n%s", text, third)
	}
}

func TestRoundTrip_Scale(t *testing.T) {
	const n = 50000

	var sb strings.Builder
	sb.WriteString("title:Scale\n")
	for i := 1; i <= n; i++ {
		if i%1000 == 0 {
			fmt.Fprintf(&sb, "//notes:batch %d\n", i/1000)
		}
		tag := "pve"
		if i%2 == 0 {
			tag = "pvp,mkb"
		}
		fmt.Fprintf(&sb, "dimwishlist:item=%d&perks=%d|%d,%d|tags:%s\n", i, i+1, i+2, i+3, tag)
	}

	first, stats := ParseWithStats(sb.String(), WithIDGenerator(SequentialIDs("")))
	if len(first.Items) != n {
		t.Fatalf("parsed %d items, want %d", len(first.Items), n)
	}
	if stats.Malformed != 0 || stats.InvalidPerks != 0 || stats.DroppedTags != 0 {
		t.Errorf("well-formed input reported noise: %+v", stats)
	}

	second := Parse(SerializeDocument(first, SerializeOptions{}), WithIDGenerator(SequentialIDs("")))
	if len(second.Items) != n {
		t.Fatalf("round trip kept %d items, want %d", len(second.Items), n)
	}
}

func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&sb, "dimwishlist:item=%d&perks=1|2,3|4#notes:bench note|tags:pve\n", i)
	}
	text := sb.String()
	gen := func() string { return "" }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(text, WithIDGenerator(gen))
	}
}

func BenchmarkSerialize(b *testing.B) {
	items := make([]Item, 10000)
	for i := range items {
		items[i] = Item{WeaponHash: uint32(i % 500), PerkHashes: []uint32{uint32(i), 2, 3}, Notes: "bench", Tags: NewTags(TagPvE)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Serialize(items, SerializeOptions{})
	}
}

type rollView struct {
	WeaponHash uint32
	PerkHashes []uint32
	Notes      string
	Tags       []string
}

// comparable drops IDs and orders items so that round trips can be compared
// regardless of the serializer's grouping.
func comparable(items []Item) []rollView {
	out := make([]rollView, len(items))
	for i, it := range items {
		out[i] = rollView{
			WeaponHash: it.WeaponHash,
			PerkHashes: it.PerkHashes,
			Notes:      it.Notes,
			Tags:       it.Tags.Strings(),
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeaponHash != out[j].WeaponHash {
			return out[i].WeaponHash < out[j].WeaponHash
		}
		return fmt.Sprint(out[i].PerkHashes, out[i].Notes) < fmt.Sprint(out[j].PerkHashes, out[j].Notes)
	})
	return out
}
