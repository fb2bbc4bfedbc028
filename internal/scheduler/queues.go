package scheduler

import (
	"context"
	"sort"

	"golang.org/x/exp/slices"
)

// Queues holds the four in-memory card buffers the Selection Engine pops
// from, plus the counts used to decide which buffer to pull next.
// haveQueues/haveCounts decouple "counts are correct" from "buffers are
// filled" so a cancelled recomputation never leaves half-updated state
// visible to a caller.
type Queues struct {
	store  Store
	decks  Decks
	timer  *Timer
	config ConfigStore
	limits *LimitComputer
	log    Logger
	rng    RNG

	newIDs    []int64
	lrnQueue  []LrnQueueEntry
	lrnFilled bool
	lrnDayIDs []int64
	lrnDayDid int64
	revIDs    []int64

	newDecksPos int

	haveQueues bool
	haveCounts bool

	newCount int
	revCount int
	lrnCount int // sub-day learning + preview, due before collapse cutoff
	dayCount int // day-learn cards due today, across active decks

	currentCardID  int64
	currentCardNID int64
}

func newQueues(store Store, decks Decks, timer *Timer, config ConfigStore, limits *LimitComputer, log Logger, rng RNG) *Queues {
	if rng == nil {
		rng = defaultRNG{}
	}
	return &Queues{store: store, decks: decks, timer: timer, config: config, limits: limits, log: log, rng: rng}
}

// DeferReset invalidates both flags; the next get_card will recompute
// counts and refill buffers from scratch. current, if non-nil, is recorded
// in currentCardID/currentCardNID; the fills do not read these fields and
// exclude only the card passed to them.
func (q *Queues) DeferReset(current *Card) {
	q.haveQueues = false
	q.haveCounts = false
	if current != nil {
		q.currentCardID = current.ID
		q.currentCardNID = current.NoteID
	}
}

// DeferCounts invalidates only the counts, leaving the in-memory buffers
// in place. Used after answering a card: the answer engine already popped
// the answered card off its queue and, for relearning, re-inserted it into
// the learning queue directly, and the sibling coordinator already removed
// same-day siblings from whichever buffer held them. Forcing a full
// ResetQueues here would refill those buffers straight from the store and
// undo the sibling coordinator's in-memory-only removals for any deck
// configured with bury disabled.
func (q *Queues) DeferCounts() {
	q.haveCounts = false
}

// ---- new queue ----

func (q *Queues) newIsEmpty() bool { return len(q.newIDs) == 0 }

func (q *Queues) newPeekFirst() (int64, bool) {
	if q.newIsEmpty() {
		return 0, false
	}
	return q.newIDs[0], true
}

func (q *Queues) newPopFirst() (int64, bool) {
	id, ok := q.newPeekFirst()
	if !ok {
		return 0, false
	}
	q.newIDs = q.newIDs[1:]
	return id, true
}

func (q *Queues) newRemove(id int64) {
	q.newIDs = removeID(q.newIDs, id)
}

func (q *Queues) newClear() { q.newIDs = nil }

// ---- review queue ----

func (q *Queues) revIsEmpty() bool { return len(q.revIDs) == 0 }

func (q *Queues) revPeekFirst() (int64, bool) {
	if q.revIsEmpty() {
		return 0, false
	}
	return q.revIDs[0], true
}

func (q *Queues) revPopFirst() (int64, bool) {
	id, ok := q.revPeekFirst()
	if !ok {
		return 0, false
	}
	q.revIDs = q.revIDs[1:]
	return id, true
}

func (q *Queues) revRemove(id int64) {
	q.revIDs = removeID(q.revIDs, id)
}

func (q *Queues) revClear() { q.revIDs = nil }

// ---- day-learn queue ----

func (q *Queues) lrnDayIsEmpty() bool { return len(q.lrnDayIDs) == 0 }

func (q *Queues) lrnDayPeekFirst() (int64, bool) {
	if q.lrnDayIsEmpty() {
		return 0, false
	}
	return q.lrnDayIDs[0], true
}

func (q *Queues) lrnDayPopFirst() (int64, bool) {
	id, ok := q.lrnDayPeekFirst()
	if !ok {
		return 0, false
	}
	q.lrnDayIDs = q.lrnDayIDs[1:]
	return id, true
}

func (q *Queues) lrnDayRemove(id int64) {
	q.lrnDayIDs = removeID(q.lrnDayIDs, id)
}

func (q *Queues) lrnDayClear() { q.lrnDayIDs = nil }

// ---- sub-day learning queue ----

func (q *Queues) lrnIsEmpty() bool { return len(q.lrnQueue) == 0 }

func (q *Queues) lrnIsFilled() bool { return q.lrnFilled }

func (q *Queues) lrnPeekFirst() (LrnQueueEntry, bool) {
	if q.lrnIsEmpty() {
		return LrnQueueEntry{}, false
	}
	return q.lrnQueue[0], true
}

func (q *Queues) lrnPopFirst() (LrnQueueEntry, bool) {
	e, ok := q.lrnPeekFirst()
	if !ok {
		return LrnQueueEntry{}, false
	}
	q.lrnQueue = q.lrnQueue[1:]
	return e, true
}

func (q *Queues) lrnRemove(id int64) {
	out := q.lrnQueue[:0]
	for _, e := range q.lrnQueue {
		if e.ID != id {
			out = append(out, e)
		}
	}
	q.lrnQueue = out
}

func (q *Queues) lrnClear() {
	q.lrnQueue = nil
	q.lrnFilled = false
}

func (q *Queues) lrnSort() {
	slices.SortFunc(q.lrnQueue, func(a, b LrnQueueEntry) int {
		switch {
		case a.Due < b.Due:
			return -1
		case a.Due > b.Due:
			return 1
		}
		return 0
	})
}

func (q *Queues) lrnInsertSorted(e LrnQueueEntry) {
	i := sort.Search(len(q.lrnQueue), func(i int) bool { return q.lrnQueue[i].Due >= e.Due })
	q.lrnQueue = append(q.lrnQueue, LrnQueueEntry{})
	copy(q.lrnQueue[i+1:], q.lrnQueue[i:])
	q.lrnQueue[i] = e
}

func removeID(ids []int64, id int64) []int64 {
	return slices.DeleteFunc(ids, func(v int64) bool { return v == id })
}

// ---- counts ----

// ResetCounts recomputes newCount/revCount/lrnCount/dayCount, checking for
// cancellation between each. On cancellation it leaves haveCounts false
// and the stale counts in place; the caller must retry.
func (q *Queues) ResetCounts(ctx context.Context, current *Card) error {
	if err := q.resetLrnCount(ctx, current); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		q.haveCounts = false
		return nil
	default:
	}

	if err := q.resetRevCount(ctx, current); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		q.haveCounts = false
		return nil
	default:
	}

	if err := q.resetNewCount(ctx, current); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		q.haveCounts = false
		return nil
	default:
	}

	q.haveCounts = true
	return nil
}

func (q *Queues) resetLrnCount(ctx context.Context, current *Card) error {
	cutoff := q.timer.Now() + int64(q.config.GetInt("collapseTime", 1200))
	lrn, dayLrn, preview, err := q.store.LrnCount(ctx, q.decks.Active(), cutoff, q.timer.Today(), q.excludeID(current), q.excludeNoteID(current))
	if err != nil {
		return err
	}
	q.lrnCount = lrn + preview
	q.dayCount = dayLrn
	return nil
}

func (q *Queues) resetRevCount(ctx context.Context, current *Card) error {
	lim, err := q.limits.currentRevLimit(true, current)
	if err != nil {
		return err
	}
	if lim > ReportLimit {
		lim = ReportLimit
	}
	cnt, err := q.store.RevCount(ctx, q.decks.Active(), q.timer.Today(), q.excludeID(current), q.excludeNoteID(current), lim)
	if err != nil {
		return err
	}
	q.revCount = cnt
	return nil
}

func (q *Queues) resetNewCount(ctx context.Context, current *Card) error {
	active := q.decks.Active()
	confCache := make(map[int64]*DeckConfig)
	confFor := func(d *Deck) (*DeckConfig, error) {
		if c, ok := confCache[d.ConfigID]; ok {
			return c, nil
		}
		c, err := q.decks.ConfigFor(d.ID)
		if err != nil {
			return nil, err
		}
		confCache[d.ConfigID] = c
		return c, nil
	}

	total, err := q.limits.walkingCount(ctx, active, true,
		func(d *Deck) (int, error) {
			conf, err := confFor(d)
			if err != nil {
				return 0, err
			}
			return q.limits.deckNewLimitSingle(d, conf, true, current)
		},
		func(ctx context.Context, d *Deck, lim int) (int, error) {
			if lim > ReportLimit {
				lim = ReportLimit
			}
			return q.store.NewCount(ctx, d.ID, q.excludeID(current), q.excludeNoteID(current), lim)
		},
	)
	if err != nil {
		return err
	}
	if total == -1 {
		return nil
	}
	q.newCount = total
	return nil
}

func (q *Queues) excludeID(current *Card) int64 {
	if current == nil {
		return 0
	}
	return current.ID
}

func (q *Queues) excludeNoteID(current *Card) int64 {
	if current == nil {
		return 0
	}
	return current.NoteID
}

// ---- fills ----

// ResetQueues clears every buffer; a subsequent get_card will refill
// lazily as each buffer empties.
func (q *Queues) ResetQueues() {
	q.newClear()
	q.lrnClear()
	q.lrnDayClear()
	q.revClear()
	q.newDecksPos = 0
	q.haveQueues = true
}

func (q *Queues) fillNew(ctx context.Context, current *Card) (bool, error) {
	if !q.newIsEmpty() {
		return true, nil
	}
	active := q.decks.Active()
	for i := 0; i < len(active); i++ {
		pos := (q.newDecksPos + i) % len(active)
		did := active[pos]

		d, err := q.decks.Get(did)
		if err != nil {
			return false, err
		}
		conf, err := q.decks.ConfigFor(did)
		if err != nil {
			return false, err
		}
		lim, err := q.limits.deckNewLimitSingle(d, conf, true, current)
		if err != nil {
			return false, err
		}
		if lim <= 0 {
			continue
		}
		if lim > QueueLimit {
			lim = QueueLimit
		}

		excl := q.excludeID(current)
		if current != nil {
			excl = current.NoteID
		}
		ids, err := q.store.FillNew(ctx, did, excl, lim)
		if err != nil {
			return false, err
		}
		if len(ids) == 0 && q.newCount != 0 && current != nil {
			ids, err = q.store.FillNew(ctx, did, current.ID, lim)
			if err != nil {
				return false, err
			}
		}
		if len(ids) > 0 {
			q.newIDs = ids
			q.newDecksPos = pos
			return true, nil
		}
	}
	return false, nil
}

func (q *Queues) fillRev(ctx context.Context, current *Card) (bool, error) {
	if !q.revIsEmpty() {
		return true, nil
	}
	lim, err := q.limits.currentRevLimit(true, current)
	if err != nil {
		return false, err
	}
	if lim <= 0 {
		return false, nil
	}
	if lim > QueueLimit {
		lim = QueueLimit
	}

	active := q.decks.Active()
	excl := q.excludeID(current)
	if current != nil {
		excl = current.NoteID
	}
	ids, err := q.store.FillRev(ctx, active, q.timer.Today(), excl, lim)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 && q.revCount != 0 && current != nil {
		ids, err = q.store.FillRev(ctx, active, q.timer.Today(), current.ID, lim)
		if err != nil {
			return false, err
		}
	}
	if len(ids) == 0 {
		return false, nil
	}
	q.revIDs = ids
	return true, nil
}

func (q *Queues) fillLrn(ctx context.Context, current *Card) (bool, error) {
	if q.lrnIsEmpty() && !q.lrnFilled {
		cutoff := q.timer.Now() + int64(q.config.GetInt("collapseTime", 1200))
		entries, err := q.store.FillLrn(ctx, q.decks.Active(), cutoff, q.excludeID(current), ReportLimit)
		if err != nil {
			return false, err
		}
		q.lrnQueue = entries
		q.lrnSort()
		q.lrnFilled = true
	}
	return !q.lrnIsEmpty(), nil
}

func (q *Queues) fillLrnDay(ctx context.Context, current *Card) (bool, error) {
	if !q.lrnDayIsEmpty() {
		return true, nil
	}
	active := q.decks.Active()
	for len(active) > 0 {
		did := active[0]
		ids, err := q.store.FillLrnDay(ctx, did, q.timer.Today(), q.excludeID(current), QueueLimit)
		if err != nil {
			return false, err
		}
		if len(ids) < QueueLimit {
			active = active[1:]
		}
		if len(ids) > 0 {
			shuffleDeterministic(ids, seededRNG(int64(q.timer.Today())))
			q.lrnDayIDs = ids
			q.lrnDayDid = did
			return true, nil
		}
	}
	return false, nil
}
