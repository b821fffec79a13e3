package littlelight

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/wishlist-companion/internal/catalog"
)

// NamedRoll is a roll described by display names, as transcribed from a
// video or typed by hand.
type NamedRoll struct {
	Weapon    string   `json:"weapon" yaml:"weapon"`
	Barrel    []string `json:"barrel,omitempty" yaml:"barrel,omitempty"`
	Magazine  []string `json:"magazine,omitempty" yaml:"magazine,omitempty"`
	Trait1    []string `json:"trait1,omitempty" yaml:"trait1,omitempty"`
	Trait2    []string `json:"trait2,omitempty" yaml:"trait2,omitempty"`
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Reasoning string   `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// WarningKind classifies a name resolution problem.
type WarningKind string

const (
	WarnUnknownWeapon WarningKind = "unknown_weapon"
	WarnFuzzyWeapon   WarningKind = "fuzzy_weapon"
	WarnUnknownPerk   WarningKind = "unknown_perk"
	WarnFuzzyPerk     WarningKind = "fuzzy_perk"
)

// Warning reports a name that could not be resolved exactly.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Name    string      `json:"name"`
	Matched string      `json:"matched,omitempty"`
}

func (w Warning) String() string {
	if w.Matched != "" {
		return fmt.Sprintf("%s: %q matched %q", w.Kind, w.Name, w.Matched)
	}
	return fmt.Sprintf("%s: %q", w.Kind, w.Name)
}

// FromNamedRolls resolves names against src and builds a LittleLight
// wishlist. Rolls whose weapon cannot be resolved, or that end up with no
// perks, are skipped. Every inexact or failed lookup is reported.
func FromNamedRolls(src catalog.Source, name, description string, rolls []NamedRoll) (*Wishlist, []Warning) {
	wl := &Wishlist{Name: name, Description: description, Data: make([]Roll, 0, len(rolls))}
	var warnings []Warning

	for _, nr := range rolls {
		weapon, ok := catalog.FindByName(src, catalog.KindWeapon, nr.Weapon)
		if !ok {
			warnings = append(warnings, Warning{Kind: WarnUnknownWeapon, Name: nr.Weapon})
			continue
		}
		if !weapon.Exact {
			warnings = append(warnings, Warning{Kind: WarnFuzzyWeapon, Name: nr.Weapon, Matched: weapon.Definition.DisplayName})
		}

		columns := [][]string{nr.Barrel, nr.Magazine, nr.Trait1, nr.Trait2}
		plugs := make([][]uint32, len(columns))
		hasPerk := false
		for i, col := range columns {
			plugs[i] = make([]uint32, 0, len(col))
			for _, perkName := range col {
				if perkName == "" || strings.EqualFold(perkName, "null") {
					continue
				}
				perk, ok := catalog.FindByName(src, catalog.KindPerk, perkName)
				if !ok {
					warnings = append(warnings, Warning{Kind: WarnUnknownPerk, Name: perkName})
					continue
				}
				if !perk.Exact {
					warnings = append(warnings, Warning{Kind: WarnFuzzyPerk, Name: perkName, Matched: perk.Definition.DisplayName})
				}
				plugs[i] = append(plugs[i], perk.Definition.Hash)
				hasPerk = true
			}
		}
		if !hasPerk {
			continue
		}

		wl.Data = append(wl.Data, Roll{
			Hash:        weapon.Definition.Hash,
			Plugs:       plugs,
			Tags:        modeTags(nr.Mode),
			Description: nr.Reasoning,
		})
	}
	return wl, warnings
}

// modeTags maps a PvE/PvP/Both mode to LittleLight tags. An empty mode
// means both.
func modeTags(mode string) []string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "pve":
		return []string{"PvE"}
	case "pvp":
		return []string{"PvP"}
	default:
		return []string{"PvE", "PvP"}
	}
}
