package models

import (
	"time"

	"github.com/ramonehamilton/wishlist-companion/internal/wishlist"
)

// Wishlist is an imported wishlist file. Source identifies where the text
// came from (a file path, a URL or a name chosen by the caller) and is
// unique. Digest is the content version token of the raw text.
type Wishlist struct {
	ID          string              `json:"id"`
	Source      string              `json:"source"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Digest      string              `json:"digest"`
	ItemCount   int                 `json:"item_count"`
	Stats       wishlist.ParseStats `json:"stats"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
