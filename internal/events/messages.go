package events

// Event types.
const (
	WishlistUpdated = "wishlist:updated"
	WishlistDeleted = "wishlist:deleted"
	WishlistSkipped = "wishlist:unchanged"
)

// WishlistUpdatedEvent is the payload of wishlist:updated, sent after a
// wishlist is imported or re-imported with new content.
type WishlistUpdatedEvent struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Title     string `json:"title,omitempty"`
	Digest    string `json:"digest"`
	ItemCount int    `json:"item_count"`
	Malformed int    `json:"malformed"`
	Created   bool   `json:"created"`
}

// WishlistDeletedEvent is the payload of wishlist:deleted.
type WishlistDeletedEvent struct {
	ID string `json:"id"`
}

// WishlistSkippedEvent is the payload of wishlist:unchanged, sent when an
// import finds the stored digest already matches.
type WishlistSkippedEvent struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Digest string `json:"digest"`
}
