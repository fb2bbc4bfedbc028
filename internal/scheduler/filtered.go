package scheduler

import (
	"context"
	"fmt"
)

// FilteredDeckEngine populates a dynamic (filtered) deck by running its
// search terms against the store, and restores cards to their original
// home when the deck is emptied.
type FilteredDeckEngine struct {
	store Store
	decks Decks
	timer *Timer
}

func newFilteredDeckEngine(store Store, decks Decks, timer *Timer) *FilteredDeckEngine {
	return &FilteredDeckEngine{store: store, decks: decks, timer: timer}
}

// RebuildDyn empties did and refills it from its search terms, returning
// the number of cards moved in.
func (fd *FilteredDeckEngine) RebuildDyn(ctx context.Context, did int64) (int, error) {
	deck, err := fd.decks.Get(did)
	if err != nil {
		return 0, err
	}
	if !deck.Dynamic {
		return 0, invalidTransitionf("deck %d is not dynamic", did)
	}
	if err := fd.EmptyDyn(ctx, did); err != nil {
		return 0, err
	}
	return fd.fillDyn(ctx, deck)
}

func (fd *FilteredDeckEngine) fillDyn(ctx context.Context, deck *Deck) (int, error) {
	total := 0
	cur := int64(-100000)

	for _, term := range deck.Terms {
		search := fmt.Sprintf("(%s) -is:suspended -is:buried -deck:filtered", term.Search)
		if clause := composeOrderBy(term.Order, fd.timer.Today()); clause != "" {
			search += " order by " + clause
		}

		ids, err := fd.store.SearchCards(ctx, search, term.Limit)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		moved, next, err := fd.moveToDyn(ctx, deck, ids, cur)
		if err != nil {
			return total, err
		}
		cur = next
		total += moved
	}
	return total, nil
}

func (fd *FilteredDeckEngine) moveToDyn(ctx context.Context, deck *Deck, ids []int64, start int64) (int, int64, error) {
	cur := start
	moved := 0

	for _, id := range ids {
		card, err := fd.store.GetCard(ctx, id)
		if err != nil {
			return moved, cur, err
		}
		if card == nil {
			continue
		}

		originalDid := card.DeckID
		originalDue := card.Due
		assigned := cur
		cur++

		newDue := originalDue
		if originalDue > 0 {
			newDue = assigned
		}

		card.OriginalDeckID = originalDid
		card.OriginalDue = originalDue
		card.DeckID = deck.ID
		card.Due = newDue
		if !deck.Resched {
			card.Queue = QueueReview
		}

		if err := fd.store.SaveCard(ctx, card); err != nil {
			return moved, cur, err
		}
		moved++
	}
	return moved, cur, nil
}

// EmptyDyn restores every card currently in did to its original deck and
// due, reconstructing queue from type via RestoreQueueFromType.
func (fd *FilteredDeckEngine) EmptyDyn(ctx context.Context, did int64) error {
	cards, err := fd.store.CardsInDeck(ctx, did)
	if err != nil {
		return err
	}

	var ids []int64
	for _, c := range cards {
		c.DeckID = c.OriginalDeckID
		c.OriginalDeckID = 0
		c.Due = c.OriginalDue
		c.OriginalDue = 0
		if err := fd.store.SaveCard(ctx, c); err != nil {
			return err
		}
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	return fd.store.RestoreQueueFromType(ctx, ids)
}

// composeOrderBy translates a DynOrder into the order-by fragment appended
// to a filtered deck term's search string; the store's search engine is
// otherwise opaque to the scheduler.
func composeOrderBy(order DynOrder, today int32) string {
	switch order {
	case DynOrderOldestMod:
		return "mod asc"
	case DynOrderRandom:
		return "random()"
	case DynOrderIvlAsc:
		return "ivl asc"
	case DynOrderIvlDesc:
		return "ivl desc"
	case DynOrderLapsesDesc:
		return "lapses desc"
	case DynOrderNoteIDAsc:
		return "nid asc"
	case DynOrderNoteIDDesc:
		return "nid desc"
	case DynOrderDuePriority:
		return fmt.Sprintf("case when queue = %d and due <= %d then cast(ivl as real) / (%d - due + 0.001) else 100000 + due end", QueueReview, today, today)
	case DynOrderDue:
		return "due asc"
	default:
		return ""
	}
}
