// Package wishlist reads and writes the community dimwishlist text format.
//
// The format is line oriented:
//
//	title:My Wishlist
//	description:Rolls collected from videos
//	//notes:Maven (PvE): great add clear
//	dimwishlist:item=1234&perks=10|20,30#notes:inline text|tags:pve,mkb
//
// Parsing never fails. Lines that cannot be understood are dropped and
// counted so that one bad line in a large community file does not abort the
// rest. Perk alternatives (|) and perk columns (,) are flattened into a single
// ordered list; the format cannot round-trip the column structure.
package wishlist

// Item is one recommended roll.
type Item struct {
	ID         string   `json:"id"`
	WeaponHash uint32   `json:"weapon_hash"`
	PerkHashes []uint32 `json:"perk_hashes"`
	Notes      string   `json:"notes,omitempty"`
	Tags       Tags     `json:"tags"`

	CitationAuthor    string `json:"citation_author,omitempty"`
	CitationLink      string `json:"citation_link,omitempty"`
	CitationTimestamp string `json:"citation_timestamp,omitempty"`
}

// IsTrash reports whether the roll is on the trash list.
func (i Item) IsTrash() bool {
	return i.Tags.Has(TagTrash)
}

// Citation returns the embedded citation, if any field is set.
func (i Item) Citation() (Citation, bool) {
	c := Citation{
		Author:    i.CitationAuthor,
		Link:      i.CitationLink,
		Timestamp: i.CitationTimestamp,
	}
	return c, !c.IsZero()
}

// Document is a parsed wishlist file.
type Document struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Items       []Item `json:"items"`
}
