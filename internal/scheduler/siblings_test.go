package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSiblingsFixture(buryNew, buryRev bool) (*SiblingCoordinator, *fakeStore, *Queues) {
	store := newFakeStore()
	decks := newFakeDecks()
	config := newFakeConfig()

	conf := defaultDeckConfig(1)
	conf.New.Bury = buryNew
	conf.Rev.Bury = buryRev
	decks.addDeck(&Deck{ID: 1, ConfigID: 1}, conf)
	decks.active = []int64{1}
	decks.selected = 1

	tp := &fakeTime{sec: 1000, timing: Timing{DaysElapsed: 10, NextDayAt: time.Unix(100000, 0)}}
	timer := newTimer(store, decks, config, tp, &fakeLogger{})
	limits := newLimitComputer(decks, SchedulerV2)
	q := newQueues(store, decks, timer, config, limits, &fakeLogger{}, newFixedRNG(0))

	cv := newConfigView(decks)
	sc := newSiblingCoordinator(store, cv, timer, q)
	return sc, store, q
}

func TestBurySiblingsRemovesDueSiblingsFromQueues(t *testing.T) {
	sc, store, q := setupSiblingsFixture(true, true)
	require.NoError(t, sc.timer.UpdateCutoff(context.Background()))

	card := store.put(&Card{ID: 1, NoteID: 100, DeckID: 1, Queue: QueueReview, Due: 5})
	sibling := store.put(&Card{ID: 2, NoteID: 100, DeckID: 1, Queue: QueueNew})
	q.newIDs = []int64{2}

	require.NoError(t, sc.BurySiblings(context.Background(), card))

	assert.True(t, q.newIsEmpty(), "sibling removed from the in-memory queue")
	assert.Equal(t, QueueSiblingBuried, sibling.Queue)
}

func TestBurySiblingsSkipsNonDueSiblings(t *testing.T) {
	sc, store, _ := setupSiblingsFixture(true, true)
	require.NoError(t, sc.timer.UpdateCutoff(context.Background()))

	card := store.put(&Card{ID: 1, NoteID: 100, DeckID: 1, Queue: QueueReview, Due: 5})
	sibling := store.put(&Card{ID: 2, NoteID: 100, DeckID: 1, Queue: QueueReview, Due: 20}) // due later, not today

	require.NoError(t, sc.BurySiblings(context.Background(), card))
	assert.Equal(t, QueueReview, sibling.Queue, "a sibling not due today is left alone")
}

func TestBurySiblingsHonorsDeckBuryFlag(t *testing.T) {
	sc, store, _ := setupSiblingsFixture(false, false)
	require.NoError(t, sc.timer.UpdateCutoff(context.Background()))

	card := store.put(&Card{ID: 1, NoteID: 100, DeckID: 1, Queue: QueueReview, Due: 5})
	sibling := store.put(&Card{ID: 2, NoteID: 100, DeckID: 1, Queue: QueueNew})

	require.NoError(t, sc.BurySiblings(context.Background(), card))
	assert.Equal(t, QueueNew, sibling.Queue, "bury disabled in deck config: sibling stays in queue")
}
