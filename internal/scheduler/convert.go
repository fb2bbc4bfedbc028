package scheduler

import "context"

// Converter performs the one-shot v1<->v2 data migration. Revlog rows are
// append-only (never rewritten, per the store's invariant), so only live
// card type/queue normalization is performed; a v1 reader is expected to
// interpret old revlog ease codes on its own.
type Converter struct {
	store Store
}

func newConverter(store Store) *Converter {
	return &Converter{store: store}
}

// MoveToV1 folds v2-only state back onto the v1 model: Relearning collapses
// into Learning (v1 has a single learning-flavored type), and the two bury
// queues collapse into one.
func (c *Converter) MoveToV1(ctx context.Context) error {
	ids, err := c.store.SearchCards(ctx, "", ReportLimit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		card, err := c.store.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if card == nil {
			continue
		}
		changed := false
		if card.Type == CardRelearning {
			card.Type = CardLearning
			changed = true
		}
		if card.Queue == QueueManuallyBuried {
			card.Queue = QueueSiblingBuried
			changed = true
		}
		if changed {
			if err := c.store.SaveCard(ctx, card); err != nil {
				return err
			}
		}
	}
	return nil
}

// MoveToV2 re-derives Relearning from a v1 Learning card that has already
// lapsed at least once; a card still learning for the first time (no
// lapses yet) stays Learning.
func (c *Converter) MoveToV2(ctx context.Context) error {
	ids, err := c.store.SearchCards(ctx, "", ReportLimit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		card, err := c.store.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if card == nil {
			continue
		}
		if card.Type == CardLearning && card.Lapses > 0 &&
			(card.Queue == QueueLearning || card.Queue == QueueDayLearnRelearn) {
			card.Type = CardRelearning
			if err := c.store.SaveCard(ctx, card); err != nil {
				return err
			}
		}
	}
	return nil
}
