package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/wishlist-companion/internal/perkvariant"
	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

func testCatalog() *Memory {
	return NewMemory(
		Definition{Hash: 10, Kind: KindWeapon, DisplayName: "Austringer", ItemType: "Hand Cannon", VariantGroupKey: "austringer"},
		Definition{Hash: 11, Kind: KindWeapon, DisplayName: "Austringer (Adept)", ItemType: "Hand Cannon", VariantGroupKey: "austringer"},
		Definition{Hash: 20, Kind: KindWeapon, DisplayName: "Zephyr", ItemType: "Sword"},
		Definition{Hash: 1000, Kind: KindPerk, DisplayName: "Rampage", Tier: "Common"},
		Definition{Hash: 1001, Kind: KindPerk, DisplayName: "Rampage Enhanced", Tier: "Common"},
		Definition{Hash: 1002, Kind: KindPerk, DisplayName: "Rapid Hit", Tier: "Common"},
	)
}

func TestMemory(t *testing.T) {
	m := testCatalog()

	d, ok := m.Lookup(20)
	require.True(t, ok)
	assert.Equal(t, "Zephyr", d.DisplayName)

	_, ok = m.Lookup(99)
	assert.False(t, ok)

	assert.Equal(t, 6, m.Len())
	assert.Len(t, m.ListByKind(KindWeapon), 3)
	assert.Equal(t, uint32(1000), m.ListByKind(KindPerk)[0].Hash)

	m.Add(Definition{Hash: 20, Kind: KindWeapon, DisplayName: "Zephyr II"})
	d, _ = m.Lookup(20)
	assert.Equal(t, "Zephyr II", d.DisplayName)
	assert.Len(t, m.All(), 6)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Weapon ")
	require.NoError(t, err)
	assert.Equal(t, KindWeapon, k)

	_, err = ParseKind("armor")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	yamlDoc := `
definitions:
  - hash: 10
    kind: weapon
    name: Austringer
    item_type: Hand Cannon
  - hash: 1000
    kind: PERK
    name: Rampage
    tier: Common
`
	defs, err := Decode(strings.NewReader(yamlDoc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, KindPerk, defs[1].Kind)
	assert.Equal(t, "Hand Cannon", defs[0].ItemType)

	jsonDoc := `{"definitions":[{"hash":20,"kind":"weapon","name":"Zephyr","variant_group":"z"}]}`
	defs, err = Decode(strings.NewReader(jsonDoc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "z", defs[0].VariantGroupKey)

	_, err = Decode(strings.NewReader(`{"definitions":[{"hash":1,"kind":"ship"}]}`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(""), Format("xml"))
	assert.Error(t, err)
}

func TestEncodeLoadFile(t *testing.T) {
	dir := t.TempDir()
	defs := testCatalog().All()

	for _, name := range []string{"catalog.json", "catalog.yaml"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, defs, FormatFromPath(name)))

			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

			m, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, defs, m.All())
		})
	}

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFindByName(t *testing.T) {
	m := testCatalog()

	match, ok := FindByName(m, KindWeapon, "zephyr")
	require.True(t, ok)
	assert.True(t, match.Exact)
	assert.Equal(t, uint32(20), match.Definition.Hash)

	match, ok = FindByName(m, KindWeapon, "Austringr")
	require.True(t, ok)
	assert.False(t, match.Exact)
	assert.Equal(t, uint32(10), match.Definition.Hash)

	match, ok = FindByName(m, KindPerk, "rampage")
	require.True(t, ok)
	assert.Equal(t, uint32(1000), match.Definition.Hash)

	_, ok = FindByName(m, KindWeapon, "Something Else Entirely")
	assert.False(t, ok)

	_, ok = FindByName(m, KindWeapon, "   ")
	assert.False(t, ok)
}

func TestSearchByName_Limit(t *testing.T) {
	m := testCatalog()

	all := SearchByName(m, KindPerk, "ra", 0, 0)
	assert.Len(t, all, 3)

	limited := SearchByName(m, KindPerk, "ra", 0, 1)
	assert.Len(t, limited, 1)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 3, levenshtein([]rune("kitten"), []rune("sitting")))
	assert.Equal(t, 0, levenshtein([]rune("é"), []rune("é")))
	assert.Equal(t, 4, levenshtein(nil, []rune("four")))
}

func TestResolver(t *testing.T) {
	r := NewResolver(testCatalog())

	name, itemType, ok := r.Name(11)
	require.True(t, ok)
	assert.Equal(t, "Austringer (Adept)", name)
	assert.Equal(t, "Hand Cannon", itemType)

	_, _, ok = r.Name(1234)
	assert.False(t, ok)

	assert.Equal(t, []uint32{10, 11}, r.Variants(11))
	assert.Equal(t, []uint32{20}, r.Variants(20))
	assert.True(t, r.PerkIndex().IsMember(1001, perkvariant.NewHashSet(1000)))
	assert.Equal(t, 2, r.WeaponIndex().Len())
}

func TestResolver_SerializerIntegration(t *testing.T) {
	r := NewResolver(testCatalog())
	items := []wishlist.Item{{WeaponHash: 11, PerkHashes: []uint32{1000}, Tags: wishlist.NewTags(wishlist.TagPvE)}}

	got := wishlist.Serialize(items, wishlist.SerializeOptions{Names: r.Name, Variants: r.Variants})

	want := "// ===== Austringer (Hand Cannon) =====\n" +
		"// Unknown\n" +
		"dimwishlist:item=10&perks=1000|tags:pve\n" +
		"dimwishlist:item=11&perks=1000|tags:pve\n"
	assert.Equal(t, want, got)
}
