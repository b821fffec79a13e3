package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

func TestCompute(t *testing.T) {
	doc, parseStats := wishlist.ParseWithStats(`dimwishlist:item=11&perks=1#notes:a [YT: Maven]|tags:pve
dimwishlist:item=10&perks=2|tags:pvp,pve
dimwishlist:item=-10&perks=3
dimwishlist:item=20&perks=4#notes:b|tags:bogus
garbage
`)
	variants := func(h uint32) []uint32 {
		if h == 10 || h == 11 {
			return []uint32{10, 11}
		}
		return nil
	}
	names := func(h uint32) (string, string, bool) {
		if h == 10 {
			return "Austringer", "Hand Cannon", true
		}
		return "", "", false
	}

	s := Compute(doc.Items, Options{Variants: variants, Names: names, Parse: &parseStats})

	assert.Equal(t, 4, s.Rolls)
	assert.Equal(t, 2, s.Weapons)
	assert.Equal(t, 2, s.Untagged)
	assert.Equal(t, 2, s.WithNotes)
	assert.Equal(t, 1, s.WithCitation)
	assert.Equal(t, []TagCount{{"pvp", 1}, {"pve", 2}, {"trash", 1}}, s.Tags)

	require.Len(t, s.PerWeapon, 2)
	assert.Equal(t, WeaponCount{WeaponHash: 10, Name: "Austringer", Rolls: 3, Trash: 1, Authors: 2}, s.PerWeapon[0])
	assert.Equal(t, WeaponCount{WeaponHash: 20, Rolls: 1, Authors: 1}, s.PerWeapon[1])

	assert.Equal(t, Noise{Unrecognized: 1, DroppedTags: 1}, s.Noise)
	assert.Equal(t, 2, s.Noise.Total())
	assert.InDelta(t, 2.0, s.AverageRollsPerWeapon(), 0.001)
	assert.Len(t, s.TopWeapons(1), 1)
	assert.Len(t, s.TopWeapons(0), 2)
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, Options{})

	assert.Equal(t, 0, s.Rolls)
	assert.Empty(t, s.PerWeapon)
	assert.Zero(t, s.AverageRollsPerWeapon())
}
