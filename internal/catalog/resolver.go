package catalog

import (
	"github.com/ramonehamilton/wishlist-companion/internal/perkvariant"
)

// Resolver adapts a Source to the serializer callbacks and builds variant
// indexes for weapons and perks. Build one per catalog snapshot; it does not
// observe later changes to the source.
type Resolver struct {
	lookup  Lookup
	weapons *perkvariant.Index
	perks   *perkvariant.Index
}

// NewResolver builds weapon and perk variant indexes from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{
		lookup:  src,
		weapons: perkvariant.Build(entries(src.ListByKind(KindWeapon))),
		perks:   perkvariant.Build(entries(src.ListByKind(KindPerk))),
	}
}

func entries(defs []Definition) []perkvariant.Entry {
	out := make([]perkvariant.Entry, 0, len(defs))
	for _, d := range defs {
		out = append(out, perkvariant.Entry{
			Hash:     d.Hash,
			Name:     d.DisplayName,
			Tier:     d.Tier,
			GroupKey: d.VariantGroupKey,
		})
	}
	return out
}

// Name resolves a weapon hash for serializer group headers. It matches
// wishlist.NameFunc.
func (r *Resolver) Name(hash uint32) (string, string, bool) {
	d, ok := r.lookup.Lookup(hash)
	if !ok || d.DisplayName == "" {
		return "", "", false
	}
	return d.DisplayName, d.ItemType, true
}

// Variants returns the weapon variant hashes of hash. It matches
// wishlist.VariantFunc.
func (r *Resolver) Variants(hash uint32) []uint32 {
	return r.weapons.Variants(hash)
}

// PerkIndex returns the perk variant index.
func (r *Resolver) PerkIndex() *perkvariant.Index {
	return r.perks
}

// WeaponIndex returns the weapon variant index.
func (r *Resolver) WeaponIndex() *perkvariant.Index {
	return r.weapons
}
