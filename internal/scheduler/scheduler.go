package scheduler

import "context"

// Scheduler is the top-level facade wiring every component together. It
// owns the "current card" reference used to exclude the displayed card
// from queue fills, and the session's USN stamp.
type Scheduler struct {
	Version SchedulerVersion

	store Store
	decks Decks
	tasks TaskManager

	timer      *Timer
	configView *ConfigView
	limits     *LimitComputer
	queues     *Queues
	selector   *Selector
	siblings   *SiblingCoordinator
	answer     *AnswerEngine
	bury       *BuryManager
	filtered   *FilteredDeckEngine
	resetTools *ResetTools
	revlog     *RevlogWriter
	convert    *Converter

	currentCard *Card
	usn         int32
}

// NewScheduler builds a Scheduler over its external collaborators.
func NewScheduler(version SchedulerVersion, store Store, decks Decks, notes Notes, tp TimeProvider, config ConfigStore, tasks TaskManager, notifier LeechNotifier, log Logger) *Scheduler {
	rng := defaultRNG{}

	timer := newTimer(store, decks, config, tp, log)
	configView := newConfigView(decks)
	limits := newLimitComputer(decks, version)
	queues := newQueues(store, decks, timer, config, limits, log, rng)
	selector := newSelector(queues, timer, config, tasks)
	siblings := newSiblingCoordinator(store, configView, timer, queues)
	revlog := newRevlogWriter(store, tp)
	answer := newAnswerEngine(store, decks, timer, config, configView, queues, notes, notifier, revlog, siblings, rng, log)

	return &Scheduler{
		Version:    version,
		store:      store,
		decks:      decks,
		tasks:      tasks,
		timer:      timer,
		configView: configView,
		limits:     limits,
		queues:     queues,
		selector:   selector,
		siblings:   siblings,
		answer:     answer,
		bury:       newBuryManager(store, decks),
		filtered:   newFilteredDeckEngine(store, decks, timer),
		resetTools: newResetTools(store, rng),
		revlog:     revlog,
		convert:    newConverter(store),
	}
}

// Name matches the identity every v2 scheduler implementation reports.
func (s *Scheduler) Name() string { return "std2" }

// SetUSN stamps the USN used for subsequent card flushes and revlog rows.
func (s *Scheduler) SetUSN(usn int32) { s.usn = usn }

// ButtonCount is 2 for a previewing card in a non-rescheduling filtered
// deck, 4 otherwise.
func (s *Scheduler) ButtonCount(card *Card) (int, error) {
	if !card.InFiltered() {
		return 4, nil
	}
	resched, err := s.configView.Resched(card)
	if err != nil {
		return 0, err
	}
	if !resched {
		return 2, nil
	}
	return 4, nil
}

// GetCard returns the next card to show, or nil if the queues are
// exhausted.
func (s *Scheduler) GetCard(ctx context.Context) (*Card, error) {
	id, err := s.selector.GetCard(ctx, s.currentCard)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		s.currentCard = nil
		return nil, nil
	}
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	s.currentCard = card
	return card, nil
}

// AnswerCard rates the card currently on screen.
func (s *Scheduler) AnswerCard(ctx context.Context, ease Ease, timeTakenMs int) error {
	card := s.currentCard
	if card == nil {
		return invalidTransitionf("no current card to answer")
	}
	s.currentCard = nil

	if err := s.answer.AnswerCard(ctx, card, ease, timeTakenMs, s.usn); err != nil {
		return err
	}

	// Only counts need recomputing: the answer engine already updated the
	// in-memory queues directly (popped the answered card, re-inserted it
	// into the learning queue if it's relearning, removed buried siblings).
	// A full DeferReset here would refill every buffer from the store and
	// silently restore siblings the coordinator removed in memory only.
	s.queues.DeferCounts()
	return nil
}

// BuryCards buries ids manually (survives only an explicit unbury) or as
// sibling spacing (restored automatically at the next day rollover).
func (s *Scheduler) BuryCards(ctx context.Context, ids []int64, manual bool) error {
	if err := s.bury.BuryCards(ctx, ids, manual); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) SuspendCards(ctx context.Context, ids []int64) error {
	if err := s.bury.SuspendCards(ctx, ids); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) UnsuspendCards(ctx context.Context, ids []int64) error {
	if err := s.bury.UnsuspendCards(ctx, ids); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) BuryNote(ctx context.Context, nid int64) error {
	if err := s.bury.BuryNote(ctx, nid); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) UnburyCardsForDeck(ctx context.Context, did int64, kind UnburyKind) error {
	if err := s.bury.UnburyCardsForDeck(ctx, did, kind); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

// RebuildFilteredDeck empties and refills a dynamic deck.
func (s *Scheduler) RebuildFilteredDeck(ctx context.Context, did int64) (int, error) {
	n, err := s.filtered.RebuildDyn(ctx, did)
	s.queues.DeferReset(nil)
	return n, err
}

// EmptyFilteredDeck restores every card in a dynamic deck to its original
// home without refilling it.
func (s *Scheduler) EmptyFilteredDeck(ctx context.Context, did int64) error {
	if err := s.filtered.EmptyDyn(ctx, did); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) ForgetCards(ctx context.Context, ids []int64) error {
	if err := s.resetTools.ForgetCards(ctx, ids); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) ReschedCards(ctx context.Context, ids []int64, imin, imax int) error {
	if err := s.timer.UpdateCutoff(ctx); err != nil {
		return err
	}
	if err := s.resetTools.ReschedCards(ctx, ids, imin, imax, s.timer.Today()); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) SortCards(ctx context.Context, cids []int64, start, step int64, shuffle, shift bool) error {
	if err := s.resetTools.SortCards(ctx, cids, start, step, shuffle, shift); err != nil {
		return err
	}
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) MoveToV1(ctx context.Context) error {
	if err := s.convert.MoveToV1(ctx); err != nil {
		return err
	}
	s.Version = SchedulerV1
	s.limits = newLimitComputer(s.decks, s.Version)
	s.queues.limits = s.limits
	s.queues.DeferReset(nil)
	return nil
}

func (s *Scheduler) MoveToV2(ctx context.Context) error {
	if err := s.convert.MoveToV2(ctx); err != nil {
		return err
	}
	s.Version = SchedulerV2
	s.limits = newLimitComputer(s.decks, s.Version)
	s.queues.limits = s.limits
	s.queues.DeferReset(nil)
	return nil
}
