package scheduler

import "context"

// checkLeech tags card's note "leech" once the lapse count crosses the
// configured threshold and every half-threshold thereafter, optionally
// suspending the card. Returns whether a leech was detected this call.
func checkLeech(ctx context.Context, notes Notes, notifier LeechNotifier, card *Card, conf *LapseConfig) (bool, error) {
	lf := conf.LeechFails
	if lf <= 0 || card.Lapses < lf {
		return false, nil
	}
	step := lf / 2
	if step < 1 {
		step = 1
	}
	if (card.Lapses-lf)%step != 0 {
		return false, nil
	}

	if notes != nil {
		if err := notes.AddTag(ctx, card.NoteID, "leech"); err != nil {
			return false, err
		}
	}
	if conf.LeechAction == LeechSuspend {
		card.Queue = QueueSuspended
	}
	if notifier != nil {
		notifier.NotifyLeech(card)
	}
	return true, nil
}
