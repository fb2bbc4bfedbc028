package scheduler

import "context"

// SiblingCoordinator removes same-day siblings of the card about to be
// answered from the in-memory queues and, where the owning deck config
// asks for it, buries them so they don't resurface until tomorrow.
type SiblingCoordinator struct {
	store      Store
	configView *ConfigView
	timer      *Timer
	queues     *Queues
}

func newSiblingCoordinator(store Store, configView *ConfigView, timer *Timer, queues *Queues) *SiblingCoordinator {
	return &SiblingCoordinator{store: store, configView: configView, timer: timer, queues: queues}
}

// BurySiblings scans every other card sharing card's note, pulls the due
// ones out of whichever queue currently holds them, and buries those whose
// deck config asks for same-day spacing.
func (sc *SiblingCoordinator) BurySiblings(ctx context.Context, card *Card) error {
	siblings, err := sc.store.CardsByNote(ctx, card.NoteID)
	if err != nil {
		return err
	}

	today := sc.timer.Today()
	var buryIDs []int64

	for _, sib := range siblings {
		if sib.ID == card.ID {
			continue
		}
		due := sib.Queue == QueueNew || (sib.Queue == QueueReview && sib.Due <= int64(today))
		if !due {
			continue
		}

		sc.queues.newRemove(sib.ID)
		sc.queues.revRemove(sib.ID)
		sc.queues.lrnDayRemove(sib.ID)
		sc.queues.lrnRemove(sib.ID)

		var bury bool
		switch sib.Queue {
		case QueueNew:
			conf, err := sc.configView.NewConf(sib)
			if err != nil {
				return err
			}
			bury = conf.Bury
		case QueueReview:
			conf, err := sc.configView.RevConf(sib)
			if err != nil {
				return err
			}
			bury = conf.Bury
		}
		if bury {
			buryIDs = append(buryIDs, sib.ID)
		}
	}

	if len(buryIDs) == 0 {
		return nil
	}
	return sc.store.BuryCards(ctx, buryIDs, QueueSiblingBuried)
}
