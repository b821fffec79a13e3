package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher(t *testing.T) {
	d := NewDispatcher(nil)

	var got []string
	all := &FuncObserver{ObserverName: "all", Fn: func(e Event) error {
		got = append(got, "all:"+e.Type)
		return nil
	}}
	deletes := &FuncObserver{ObserverName: "deletes", Types: []string{WishlistDeleted}, Fn: func(e Event) error {
		got = append(got, "deletes:"+e.Type)
		return errors.New("ignored")
	}}
	d.Register(all)
	d.Register(deletes)
	d.Register(NewLoggingObserver(nil))
	assert.Equal(t, 3, d.ObserverCount())

	d.Dispatch(Event{Type: WishlistUpdated})
	d.Dispatch(Event{Type: WishlistDeleted, Data: WishlistDeletedEvent{ID: "x"}})

	assert.Equal(t, []string{"all:wishlist:updated", "all:wishlist:deleted", "deletes:wishlist:deleted"}, got)

	d.Unregister(all)
	assert.Equal(t, 2, d.ObserverCount())
}

func TestData(t *testing.T) {
	e := Event{Type: WishlistDeleted, Data: WishlistDeletedEvent{ID: "x"}}

	payload, ok := Data[WishlistDeletedEvent](e)
	assert.True(t, ok)
	assert.Equal(t, "x", payload.ID)

	_, ok = Data[WishlistUpdatedEvent](e)
	assert.False(t, ok)
}
