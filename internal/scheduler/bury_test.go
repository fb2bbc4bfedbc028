package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuryCardsManualVsSibling(t *testing.T) {
	store := newFakeStore()
	decks := newFakeDecks()
	b := newBuryManager(store, decks)

	c1 := store.put(&Card{ID: 1, Queue: QueueNew})
	c2 := store.put(&Card{ID: 2, Queue: QueueNew})

	require.NoError(t, b.BuryCards(context.Background(), []int64{1}, true))
	require.NoError(t, b.BuryCards(context.Background(), []int64{2}, false))

	assert.Equal(t, QueueManuallyBuried, c1.Queue)
	assert.Equal(t, QueueSiblingBuried, c2.Queue)
}

func TestSuspendAndUnsuspendCards(t *testing.T) {
	store := newFakeStore()
	decks := newFakeDecks()
	b := newBuryManager(store, decks)

	c := store.put(&Card{ID: 1, Type: CardReview, Queue: QueueReview})
	require.NoError(t, b.SuspendCards(context.Background(), []int64{1}))
	assert.Equal(t, QueueSuspended, c.Queue)

	require.NoError(t, b.UnsuspendCards(context.Background(), []int64{1}))
	assert.Equal(t, QueueReview, c.Queue, "restored from its type")
}

func TestBuryNoteSkipsSuspendedAndAlreadyBuried(t *testing.T) {
	store := newFakeStore()
	decks := newFakeDecks()
	b := newBuryManager(store, decks)

	active := store.put(&Card{ID: 1, NoteID: 50, Queue: QueueNew})
	suspended := store.put(&Card{ID: 2, NoteID: 50, Queue: QueueSuspended})

	require.NoError(t, b.BuryNote(context.Background(), 50))
	assert.Equal(t, QueueSiblingBuried, active.Queue)
	assert.Equal(t, QueueSuspended, suspended.Queue, "a suspended sibling is left alone")
}

func TestUnburyCardsForDeckKind(t *testing.T) {
	store := newFakeStore()
	decks := newFakeDecks()
	b := newBuryManager(store, decks)

	manual := store.put(&Card{ID: 1, DeckID: 1, Type: CardNew, Queue: QueueManuallyBuried})
	sibling := store.put(&Card{ID: 2, DeckID: 1, Type: CardNew, Queue: QueueSiblingBuried})

	require.NoError(t, b.UnburyCardsForDeck(context.Background(), 1, UnburyManual))
	assert.Equal(t, QueueNew, manual.Queue)
	assert.Equal(t, QueueSiblingBuried, sibling.Queue, "UnburyManual leaves sibling-buried cards alone")

	require.NoError(t, b.UnburyCardsForDeck(context.Background(), 1, UnburySiblings))
	assert.Equal(t, QueueNew, sibling.Queue)
}
