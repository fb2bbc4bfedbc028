package scheduler

import "context"

// ResetTools implements the bulk maintenance operations: forgetting
// progress, manually rescheduling an interval, and reordering new cards.
type ResetTools struct {
	store Store
	rng   RNG
}

func newResetTools(store Store, rng RNG) *ResetTools {
	if rng == nil {
		rng = defaultRNG{}
	}
	return &ResetTools{store: store, rng: rng}
}

// ForgetCards resets ids to a fresh New state, pulling them out of any
// filtered deck, then renumbers them to the end of the new-card queue.
func (rt *ResetTools) ForgetCards(ctx context.Context, ids []int64) error {
	maxDue, err := rt.store.MaxNewDue(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		card, err := rt.store.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if card == nil {
			continue
		}
		if card.InFiltered() {
			card.DeckID = card.OriginalDeckID
			card.OriginalDeckID = 0
		}
		card.Type = CardNew
		card.Queue = QueueNew
		card.Ivl = 0
		card.Due = 0
		card.OriginalDue = 0
		card.Factor = StartingFactor
		if err := rt.store.SaveCard(ctx, card); err != nil {
			return err
		}
	}

	return rt.SortCards(ctx, ids, maxDue+1, 1, false, false)
}

// ReschedCards pulls ids out of any filtered deck and assigns each a
// uniformly random interval in [imin, imax] days from today.
func (rt *ResetTools) ReschedCards(ctx context.Context, ids []int64, imin, imax int, today int32) error {
	span := imax - imin + 1

	for _, id := range ids {
		card, err := rt.store.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if card == nil {
			continue
		}

		r := imin
		if span > 1 {
			r = imin + rt.rng.Intn(span)
		}
		ivl := r
		if ivl < 1 {
			ivl = 1
		}

		if card.InFiltered() {
			card.DeckID = card.OriginalDeckID
			card.OriginalDeckID = 0
		}
		card.Type = CardReview
		card.Queue = QueueReview
		card.Ivl = ivl
		card.Due = int64(r) + int64(today)
		card.OriginalDue = 0
		card.Factor = RescheduleFactor

		if err := rt.store.SaveCard(ctx, card); err != nil {
			return err
		}
	}
	return nil
}

// SortCards assigns monotonically increasing new-card due positions,
// grouped by note so siblings stay adjacent, optionally shuffling the
// note order and shifting existing New cards out of the way.
func (rt *ResetTools) SortCards(ctx context.Context, cids []int64, start int64, step int64, shuffle bool, shift bool) error {
	if len(cids) == 0 {
		return nil
	}

	cards := make([]*Card, 0, len(cids))
	var order []int64
	byNote := make(map[int64][]int64)
	seen := make(map[int64]bool)

	for _, id := range cids {
		card, err := rt.store.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if card == nil {
			continue
		}
		cards = append(cards, card)
		if !seen[card.NoteID] {
			seen[card.NoteID] = true
			order = append(order, card.NoteID)
		}
		byNote[card.NoteID] = append(byNote[card.NoteID], card.ID)
	}

	if shuffle {
		shuffleDeterministic(order, rt.rng)
	}

	dueByNote := make(map[int64]int64, len(order))
	for i, nid := range order {
		dueByNote[nid] = start + int64(i)*step
	}

	if shift && len(order) > 0 {
		low := start
		high := start + int64(len(order)-1)*step
		delta := high - low + 1
		if err := rt.store.ShiftNewDue(ctx, low, delta, cids); err != nil {
			return err
		}
	}

	for _, card := range cards {
		card.Due = dueByNote[card.NoteID]
		if err := rt.store.SaveCard(ctx, card); err != nil {
			return err
		}
	}
	return nil
}
