package scheduler

import "context"

// BuryManager implements the bulk queue-state operations: bury, suspend,
// unsuspend and unbury.
type BuryManager struct {
	store Store
	decks Decks
}

func newBuryManager(store Store, decks Decks) *BuryManager {
	return &BuryManager{store: store, decks: decks}
}

// BuryCards sets ids' queue to ManuallyBuried (manual=true) or
// SiblingBuried (manual=false).
func (b *BuryManager) BuryCards(ctx context.Context, ids []int64, manual bool) error {
	q := QueueSiblingBuried
	if manual {
		q = QueueManuallyBuried
	}
	return b.store.BuryCards(ctx, ids, q)
}

// SuspendCards moves ids to the Suspended queue.
func (b *BuryManager) SuspendCards(ctx context.Context, ids []int64) error {
	return b.store.BuryCards(ctx, ids, QueueSuspended)
}

// UnsuspendCards reconstructs queue from type/due for each id.
func (b *BuryManager) UnsuspendCards(ctx context.Context, ids []int64) error {
	return b.store.RestoreQueueFromType(ctx, ids)
}

// BuryNote buries every non-suspended, non-buried card of nid.
func (b *BuryManager) BuryNote(ctx context.Context, nid int64) error {
	cards, err := b.store.CardsByNote(ctx, nid)
	if err != nil {
		return err
	}
	var ids []int64
	for _, c := range cards {
		if c.Queue >= QueueNew {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return b.store.BuryCards(ctx, ids, QueueSiblingBuried)
}

// UnburyCardsForDeck restores buried cards of did back to their
// type-derived queue, restricted to the requested kind.
func (b *BuryManager) UnburyCardsForDeck(ctx context.Context, did int64, kind UnburyKind) error {
	var ids []int64
	if kind == UnburyAll || kind == UnburyManual {
		manual, err := b.store.CardIDsInQueue(ctx, QueueManuallyBuried, []int64{did})
		if err != nil {
			return err
		}
		ids = append(ids, manual...)
	}
	if kind == UnburyAll || kind == UnburySiblings {
		sibling, err := b.store.CardIDsInQueue(ctx, QueueSiblingBuried, []int64{did})
		if err != nil {
			return err
		}
		ids = append(ids, sibling...)
	}
	if len(ids) == 0 {
		return nil
	}
	return b.store.RestoreQueueFromType(ctx, ids)
}
