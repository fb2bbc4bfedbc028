package scheduler

import "context"

// maxTimeTakenMs clamps the recorded thinking time for a single answer, so
// a card left open overnight doesn't inflate timeToday or the revlog.
const maxTimeTakenMs = 60000

// AnswerEngine applies a rating to a card: the state-transition machine
// that turns (card, ease) into the card's new type/queue/due/ivl/factor
// and a revlog row.
type AnswerEngine struct {
	store      Store
	decks      Decks
	timer      *Timer
	config     ConfigStore
	configView *ConfigView
	queues     *Queues
	notes      Notes
	notifier   LeechNotifier
	revlog     *RevlogWriter
	siblings   *SiblingCoordinator
	rng        RNG
	log        Logger
}

func newAnswerEngine(store Store, decks Decks, timer *Timer, config ConfigStore, configView *ConfigView, queues *Queues, notes Notes, notifier LeechNotifier, revlog *RevlogWriter, siblings *SiblingCoordinator, rng RNG, log Logger) *AnswerEngine {
	if rng == nil {
		rng = defaultRNG{}
	}
	return &AnswerEngine{store: store, decks: decks, timer: timer, config: config, configView: configView, queues: queues, notes: notes, notifier: notifier, revlog: revlog, siblings: siblings, rng: rng, log: log}
}

// AnswerCard buries same-day siblings, transitions card per ease, updates
// the owning deck's timeToday counter and flushes the card.
func (ae *AnswerEngine) AnswerCard(ctx context.Context, card *Card, ease Ease, timeTakenMs int, usn int32) error {
	if timeTakenMs > maxTimeTakenMs {
		timeTakenMs = maxTimeTakenMs
	}
	if timeTakenMs < 0 {
		timeTakenMs = 0
	}

	if err := ae.siblings.BurySiblings(ctx, card); err != nil {
		return err
	}

	if err := ae.answerCardInner(ctx, card, ease, usn, timeTakenMs); err != nil {
		return err
	}

	deck, err := ae.decks.Get(card.DeckID)
	if err != nil {
		return err
	}
	if deck.TimeToday.Day != ae.timer.Today() {
		deck.TimeToday = DayCounter{Day: ae.timer.Today()}
	}
	deck.TimeToday.Count += timeTakenMs / 1000
	if err := ae.decks.Save(deck); err != nil {
		return err
	}

	card.Mod = ae.timer.Now()
	card.USN = usn
	return ae.store.SaveCard(ctx, card)
}

func (ae *AnswerEngine) answerCardInner(ctx context.Context, card *Card, ease Ease, usn int32, timeTakenMs int) error {
	resched, err := ae.configView.Resched(card)
	if err != nil {
		return err
	}
	previewing := card.InFiltered() && !resched

	if previewing {
		switch ease {
		case EaseAgain:
			delay, err := ae.configView.PreviewDelay(card)
			if err != nil {
				return err
			}
			card.Queue = QueuePreview
			card.Due = ae.timer.Now() + int64(delay)
			ae.queues.lrnCount++
		case EaseHard:
			if err := ae.restorePreviewCard(card); err != nil {
				return err
			}
		default:
			return invalidPreviewStatef("card=%d ease=%d", card.ID, ease)
		}
		if card.OriginalDue > 0 {
			card.OriginalDue = 0
		}
		return nil
	}

	card.Reps++

	if card.Queue == QueueNew {
		newConf, err := ae.configView.NewConf(card)
		if err != nil {
			return err
		}
		card.Queue = QueueLearning
		card.Type = CardLearning
		card.Left = startingLeft(newConf.Delays, ae.timer.Now(), ae.timer.DayCutoff())

		deck, err := ae.decks.Get(card.DeckID)
		if err != nil {
			return err
		}
		if deck.NewToday.Day != ae.timer.Today() {
			deck.NewToday = DayCounter{Day: ae.timer.Today()}
		}
		deck.NewToday.Count++
		if err := ae.decks.Save(deck); err != nil {
			return err
		}
	}

	switch card.Queue {
	case QueueLearning, QueueDayLearnRelearn:
		if err := ae.answerLrnCard(ctx, card, ease, usn, timeTakenMs); err != nil {
			return err
		}
	case QueueReview:
		if err := ae.answerRevCard(ctx, card, ease, usn, timeTakenMs); err != nil {
			return err
		}
		deck, err := ae.decks.Get(card.DeckID)
		if err != nil {
			return err
		}
		if deck.RevToday.Day != ae.timer.Today() {
			deck.RevToday = DayCounter{Day: ae.timer.Today()}
		}
		deck.RevToday.Count++
		if err := ae.decks.Save(deck); err != nil {
			return err
		}
	default:
		return invalidTransitionf("card=%d cannot be answered from queue %d", card.ID, card.Queue)
	}

	if card.OriginalDue > 0 {
		card.OriginalDue = 0
	}
	return nil
}

func (ae *AnswerEngine) answerLrnCard(ctx context.Context, card *Card, ease Ease, usn int32, timeTakenMs int) error {
	lapseConf, err := ae.configView.LapseConf(card)
	if err != nil {
		return err
	}
	newConf, err := ae.configView.NewConf(card)
	if err != nil {
		return err
	}
	revConf, err := ae.configView.RevConf(card)
	if err != nil {
		return err
	}

	delays := newConf.Delays
	relearning := card.Type == CardReview || card.Type == CardRelearning
	if relearning {
		delays = lapseConf.Delays
	}

	typ := RevlogLearn
	if relearning {
		typ = RevlogRelearn
	}

	lastLeft := card.Left
	leaving := false

	switch ease {
	case EaseEasy:
		if err := ae.rescheduleAsRev(card, newConf, revConf, true); err != nil {
			return err
		}
		leaving = true
	case EaseGood:
		if (card.Left%1000)-1 <= 0 {
			if err := ae.rescheduleAsRev(card, newConf, revConf, false); err != nil {
				return err
			}
			leaving = true
		} else {
			left := card.Left - 1
			tod := leftToday(delays, left, ae.timer.Now(), ae.timer.DayCutoff())
			card.Left = tod*1000 + left
			ae.rescheduleLrnCard(card, delays, nil)
		}
	case EaseHard:
		d := delayForRepeatingGrade(delays, card.Left, ae.log)
		ae.rescheduleLrnCard(card, delays, &d)
	case EaseAgain:
		card.Left = startingLeft(delays, ae.timer.Now(), ae.timer.DayCutoff())
		if card.Type == CardRelearning {
			card.LastIvl = card.Ivl
			card.Ivl = lapseIvl(card, lapseConf)
		}
		ae.rescheduleLrnCard(card, delays, nil)
	default:
		return invalidTransitionf("card=%d unexpected ease %d for learning queue", card.ID, ease)
	}

	return ae.logLrn(ctx, card, ease, leaving, typ, lastLeft, delays, usn, timeTakenMs)
}

// rescheduleLrnCard places card back into the learning or day-learn queue.
// delay, if nil, is computed from delays/card.Left.
func (ae *AnswerEngine) rescheduleLrnCard(card *Card, delays []float64, delay *int64) {
	d := int64(0)
	if delay != nil {
		d = *delay
	} else {
		d = delayForGrade(delays, card.Left, ae.log)
	}

	now := ae.timer.Now()
	dayCutoff := ae.timer.DayCutoff()
	due := now + d

	if due < dayCutoff {
		maxExtra := int64(300)
		if quarter := int64(float64(d) * 0.25); quarter > maxExtra {
			maxExtra = quarter
		}
		fuzz := ae.rng.Intn(int(maxExtra))
		due += int64(fuzz)
		if due > dayCutoff-1 {
			due = dayCutoff - 1
		}
		card.Queue = QueueLearning

		collapseTime := int64(ae.config.GetInt("collapseTime", 1200))
		if due < now+collapseTime {
			ae.queues.lrnCount++
		}
		if e, ok := ae.queues.lrnPeekFirst(); ok && ae.queues.revIsEmpty() && ae.queues.newIsEmpty() {
			if due <= e.Due {
				due = e.Due + 1
			}
		}
		card.Due = due
		if ae.queues.lrnIsFilled() {
			ae.queues.lrnInsertSorted(LrnQueueEntry{Due: due, ID: card.ID})
		}
		return
	}

	ahead := (due-dayCutoff)/SecondsPerDay + 1
	card.Due = int64(ae.timer.Today()) + ahead
	card.Queue = QueueDayLearnRelearn
}

// rescheduleAsRev graduates card out of learning into regular review.
func (ae *AnswerEngine) rescheduleAsRev(card *Card, newConf *NewConfig, revConf *RevConfig, early bool) error {
	today := ae.timer.Today()

	if card.Type == CardReview || card.Type == CardRelearning {
		ivl := card.Ivl
		if early {
			ivl++
		}
		card.Ivl = ivl
	} else {
		card.Ivl = graduatingIvl(card, newConf, early, true, ae.rng)
		card.Factor = newConf.InitialFactor
	}
	card.Due = int64(today) + int64(card.Ivl)
	card.Type = CardReview
	card.Queue = QueueReview

	if card.InFiltered() {
		card.DeckID = card.OriginalDeckID
		card.OriginalDeckID = 0
		card.OriginalDue = 0
	}
	return nil
}

func (ae *AnswerEngine) answerRevCard(ctx context.Context, card *Card, ease Ease, usn int32, timeTakenMs int) error {
	today := ae.timer.Today()
	early := card.InFiltered() && card.OriginalDue > int64(today)
	logType := RevlogReview
	if early {
		logType = RevlogEarlyReview
	}

	lapseConf, err := ae.configView.LapseConf(card)
	if err != nil {
		return err
	}
	newConf, err := ae.configView.NewConf(card)
	if err != nil {
		return err
	}
	revConf, err := ae.configView.RevConf(card)
	if err != nil {
		return err
	}

	if ease == EaseAgain {
		if err := ae.rescheduleLapse(ctx, card, lapseConf, newConf, revConf, early); err != nil {
			return err
		}
	} else {
		if err := ae.rescheduleRev(card, revConf, ease, early); err != nil {
			return err
		}
	}

	return ae.logRev(ctx, card, ease, logType, usn, timeTakenMs)
}

func (ae *AnswerEngine) rescheduleLapse(ctx context.Context, card *Card, lapseConf *LapseConfig, newConf *NewConfig, revConf *RevConfig, early bool) error {
	card.Lapses++
	card.Factor = maxInt(1300, card.Factor-200)

	isLeech, err := checkLeech(ctx, ae.notes, ae.notifier, card, lapseConf)
	if err != nil {
		return err
	}
	suspended := isLeech && card.Queue == QueueSuspended

	if len(lapseConf.Delays) > 0 && !suspended {
		card.Type = CardRelearning
		card.LastIvl = card.Ivl
		card.Ivl = lapseIvl(card, lapseConf)
		card.Left = startingLeft(lapseConf.Delays, ae.timer.Now(), ae.timer.DayCutoff())
		d := delayForGrade(lapseConf.Delays, card.Left, ae.log)
		ae.rescheduleLrnCard(card, lapseConf.Delays, &d)
		return nil
	}

	card.Ivl = lapseIvl(card, lapseConf)
	if err := ae.rescheduleAsRev(card, newConf, revConf, false); err != nil {
		return err
	}
	if suspended {
		card.Queue = QueueSuspended
	}
	return nil
}

func (ae *AnswerEngine) rescheduleRev(card *Card, revConf *RevConfig, ease Ease, early bool) error {
	card.LastIvl = card.Ivl

	var ivl int
	if early {
		v, err := earlyReviewIvl(card, revConf, ease, ae.timer.Today())
		if err != nil {
			return err
		}
		ivl = v
	} else {
		due := card.Due
		if card.InFiltered() {
			due = card.OriginalDue
		}
		ivl2, ivl3, ivl4 := nextRevIvl(card, revConf, ae.timer.Today(), due, true, ae.rng)
		switch ease {
		case EaseHard:
			ivl = ivl2
		case EaseGood:
			ivl = ivl3
		case EaseEasy:
			ivl = ivl4
		}
	}

	card.Ivl = ivl
	card.Factor = maxInt(1300, card.Factor+FactorAdditionValues[ease-2])
	card.Due = int64(ae.timer.Today()) + int64(ivl)

	if card.InFiltered() {
		card.DeckID = card.OriginalDeckID
		card.OriginalDeckID = 0
		card.OriginalDue = 0
	}
	return nil
}

// restorePreviewCard pulls card out of a non-rescheduling filtered deck
// back to its original location and queue.
func (ae *AnswerEngine) restorePreviewCard(card *Card) error {
	if !card.InFiltered() {
		return invalidPreviewStatef("card=%d is not in a filtered deck", card.ID)
	}

	card.Due = card.OriginalDue

	switch {
	case card.Type == CardLearning || card.Type == CardRelearning:
		if card.OriginalDue > 1_000_000_000 {
			card.Queue = QueueLearning
		} else {
			card.Queue = QueueDayLearnRelearn
		}
	case card.Type == CardNew:
		card.Queue = QueueNew
	case card.Type == CardReview:
		card.Queue = QueueReview
	}

	card.DeckID = card.OriginalDeckID
	card.OriginalDeckID = 0
	card.OriginalDue = 0
	return nil
}

// logLrn and logRev record the revlog row for a learning or review answer.
// Learning-queue rows use negative seconds-until-due for ivl/lastIvl, the
// convention also used by graduated rows' preceding step.
func (ae *AnswerEngine) logLrn(ctx context.Context, card *Card, ease Ease, leaving bool, typ RevlogType, lastLeft int, delays []float64, usn int32, timeTakenMs int) error {
	var ivl int
	switch {
	case leaving:
		ivl = card.Ivl
	case card.Queue == QueueLearning:
		ivl = int(-(card.Due - ae.timer.Now()))
	default:
		ivl = int(-(card.Due - int64(ae.timer.Today())) * SecondsPerDay)
	}
	lastIvl := int(-delayForGrade(delays, lastLeft, ae.log))
	return ae.revlog.Log(ctx, card, usn, ease, ivl, lastIvl, card.Factor, timeTakenMs, typ)
}

func (ae *AnswerEngine) logRev(ctx context.Context, card *Card, ease Ease, typ RevlogType, usn int32, timeTakenMs int) error {
	return ae.revlog.Log(ctx, card, usn, ease, card.Ivl, card.LastIvl, card.Factor, timeTakenMs, typ)
}
