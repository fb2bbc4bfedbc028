package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueuesFixture() (*Queues, *fakeStore, *fakeDecks) {
	store := newFakeStore()
	decks := newFakeDecks()
	config := newFakeConfig()

	decks.addDeck(&Deck{ID: 1, ConfigID: 1}, defaultDeckConfig(1))
	decks.active = []int64{1}
	decks.selected = 1

	tp := &fakeTime{sec: 1000, timing: Timing{DaysElapsed: 10, NextDayAt: time.Unix(100000, 0)}}
	timer := newTimer(store, decks, config, tp, &fakeLogger{})

	limits := newLimitComputer(decks, SchedulerV2)
	q := newQueues(store, decks, timer, config, limits, &fakeLogger{}, newFixedRNG(0))
	return q, store, decks
}

func TestResetCountsComputesEachBucket(t *testing.T) {
	q, store, decks := setupQueuesFixture()
	require.NoError(t, q.timer.UpdateCutoff(context.Background()))

	store.put(&Card{ID: 1, DeckID: 1, Queue: QueueNew})
	store.put(&Card{ID: 2, DeckID: 1, Queue: QueueReview, Due: 5})
	store.put(&Card{ID: 3, DeckID: 1, Queue: QueueLearning, Due: 1001})
	_ = decks

	err := q.ResetCounts(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, q.haveCounts)
	assert.Equal(t, 1, q.newCount)
	assert.Equal(t, 1, q.revCount)
	assert.Equal(t, 1, q.lrnCount)
}

func TestResetCountsCancellationLeavesHaveCountsFalse(t *testing.T) {
	q, _, _ := setupQueuesFixture()
	require.NoError(t, q.timer.UpdateCutoff(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.ResetCounts(ctx, nil)
	require.NoError(t, err)
	assert.False(t, q.haveCounts)
}

func TestFillNewLoadsNewCardsInDueOrder(t *testing.T) {
	q, store, _ := setupQueuesFixture()
	require.NoError(t, q.timer.UpdateCutoff(context.Background()))

	store.put(&Card{ID: 1, NoteID: 1, DeckID: 1, Queue: QueueNew, Due: 1})
	store.put(&Card{ID: 2, NoteID: 2, DeckID: 1, Queue: QueueNew, Due: 2})

	ok, err := q.fillNew(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{1, 2}, q.newIDs)
}

func TestFillLrnSortsByDueAndFillsOnce(t *testing.T) {
	q, store, _ := setupQueuesFixture()
	require.NoError(t, q.timer.UpdateCutoff(context.Background()))

	store.put(&Card{ID: 1, DeckID: 1, Queue: QueueLearning, Due: 2000})
	store.put(&Card{ID: 2, DeckID: 1, Queue: QueueLearning, Due: 1500})

	ok, err := q.fillLrn(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, q.lrnQueue, 2)
	assert.Equal(t, int64(2), q.lrnQueue[0].ID, "earlier due sorts first")
	assert.True(t, q.lrnIsFilled())

	// A second call does not re-query the store once filled.
	store.put(&Card{ID: 3, DeckID: 1, Queue: QueueLearning, Due: 900})
	ok, err = q.fillLrn(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, q.lrnQueue, 2, "fillLrn is a one-shot fill per ResetQueues cycle")
}

func TestLrnInsertSortedKeepsOrder(t *testing.T) {
	q, _, _ := setupQueuesFixture()
	q.lrnQueue = []LrnQueueEntry{{Due: 10, ID: 1}, {Due: 30, ID: 3}}
	q.lrnInsertSorted(LrnQueueEntry{Due: 20, ID: 2})

	var dues []int64
	for _, e := range q.lrnQueue {
		dues = append(dues, e.Due)
	}
	assert.Equal(t, []int64{10, 20, 30}, dues)
}

func TestResetQueuesClearsBuffers(t *testing.T) {
	q, _, _ := setupQueuesFixture()
	q.newIDs = []int64{1, 2}
	q.revIDs = []int64{3}
	q.lrnDayIDs = []int64{4}
	q.lrnQueue = []LrnQueueEntry{{ID: 5}}
	q.lrnFilled = true

	q.ResetQueues()

	assert.True(t, q.newIsEmpty())
	assert.True(t, q.revIsEmpty())
	assert.True(t, q.lrnDayIsEmpty())
	assert.True(t, q.lrnIsEmpty())
	assert.False(t, q.lrnIsFilled())
	assert.True(t, q.haveQueues)
}
