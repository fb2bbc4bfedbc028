package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFilteredFixture() (*FilteredDeckEngine, *fakeStore, *fakeDecks, *Timer) {
	store := newFakeStore()
	decks := newFakeDecks()
	config := newFakeConfig()
	decks.addDeck(&Deck{ID: 1, ConfigID: 1}, defaultDeckConfig(1))
	tp := &fakeTime{sec: 1000, timing: Timing{DaysElapsed: 10, NextDayAt: time.Unix(100000, 0)}}
	timer := newTimer(store, decks, config, tp, &fakeLogger{})
	fd := newFilteredDeckEngine(store, decks, timer)
	return fd, store, decks, timer
}

func TestRebuildDynMovesMatchingCardsIn(t *testing.T) {
	fd, store, decks, timer := setupFilteredFixture()
	require.NoError(t, timer.UpdateCutoff(context.Background()))

	dyn := &Deck{
		ID: 2, Dynamic: true, Resched: true,
		Terms: []DynTerm{{Search: "deck:home", Limit: 50, Order: DynOrderDue}},
	}
	decks.addDeck(dyn, &DeckConfig{ID: 2, Dyn: true, Resched: true})

	c1 := store.put(&Card{ID: 1, DeckID: 1, Due: 5, Queue: QueueReview, Type: CardReview})
	c2 := store.put(&Card{ID: 2, DeckID: 1, Due: 6, Queue: QueueReview, Type: CardReview})
	store.searchIDs = []int64{1, 2}

	n, err := fd.RebuildDyn(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), c1.DeckID)
	assert.Equal(t, int64(1), c1.OriginalDeckID)
	assert.Equal(t, int64(5), c1.OriginalDue)
	assert.Equal(t, int64(2), c2.DeckID)
}

func TestRebuildDynNonReschedForcesReviewQueue(t *testing.T) {
	fd, store, decks, timer := setupFilteredFixture()
	require.NoError(t, timer.UpdateCutoff(context.Background()))

	dyn := &Deck{ID: 2, Dynamic: true, Resched: false, Terms: []DynTerm{{Search: "deck:home", Limit: 50}}}
	decks.addDeck(dyn, &DeckConfig{ID: 2, Dyn: true, Resched: false})

	c1 := store.put(&Card{ID: 1, DeckID: 1, Due: 5, Queue: QueueNew, Type: CardNew})
	store.searchIDs = []int64{1}

	_, err := fd.RebuildDyn(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, QueueReview, c1.Queue, "preview-only decks force Review queue on entry")
}

func TestRebuildDynRejectsNonDynamicDeck(t *testing.T) {
	fd, _, _, _ := setupFilteredFixture()
	_, err := fd.RebuildDyn(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEmptyDynRestoresOriginalHome(t *testing.T) {
	fd, store, decks, timer := setupFilteredFixture()
	require.NoError(t, timer.UpdateCutoff(context.Background()))

	decks.addDeck(&Deck{ID: 2, Dynamic: true}, &DeckConfig{ID: 2, Dyn: true})
	card := store.put(&Card{
		ID: 1, DeckID: 2, OriginalDeckID: 1, OriginalDue: 5,
		Type: CardReview, Queue: QueueReview,
	})

	require.NoError(t, fd.EmptyDyn(context.Background(), 2))
	assert.Equal(t, int64(1), card.DeckID)
	assert.Equal(t, int64(0), card.OriginalDeckID)
	assert.Equal(t, int64(5), card.Due)
	assert.Equal(t, QueueReview, card.Queue)
}

func TestComposeOrderBy(t *testing.T) {
	assert.Equal(t, "mod asc", composeOrderBy(DynOrderOldestMod, 0))
	assert.Equal(t, "due asc", composeOrderBy(DynOrderDue, 0))
	assert.Contains(t, composeOrderBy(DynOrderDuePriority, 5), "case when")
}
