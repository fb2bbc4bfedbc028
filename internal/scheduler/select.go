package scheduler

import "context"

// NewSpread controls how new cards are interleaved with reviews. It is a
// collection-level config key, distinct from a deck's own new.order.
type NewSpread int

const (
	SpreadDistribute NewSpread = iota
	SpreadLast
	SpreadFirst
)

// Selector is the Selection Engine: it owns the interleaving policy that
// decides, on each get_card, which of the four queues to pop from.
type Selector struct {
	q      *Queues
	timer  *Timer
	config ConfigStore
	tasks  TaskManager

	reps           int
	newCardModulus int
}

func newSelector(q *Queues, timer *Timer, config ConfigStore, tasks TaskManager) *Selector {
	return &Selector{q: q, timer: timer, config: config, tasks: tasks}
}

// checkDay refills queues/counts if stale, rolling the day first.
func (s *Selector) checkDay(ctx context.Context, current *Card) error {
	if err := s.timer.UpdateCutoff(ctx); err != nil {
		return err
	}
	if !s.q.haveCounts {
		if err := s.q.ResetCounts(ctx, current); err != nil {
			return err
		}
	}
	if !s.q.haveQueues {
		s.q.ResetQueues()
	}
	return nil
}

// GetCard returns the id of the next card to show, or 0 if the queues are
// genuinely exhausted. current is the card currently on screen, if any
// (excluded from every fill to avoid immediately re-showing it).
func (s *Selector) GetCard(ctx context.Context, current *Card) (int64, error) {
	if err := s.checkDay(ctx, current); err != nil {
		return 0, err
	}

	id, err := s.getCardOnce(ctx, current)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		s.reps++
		return id, nil
	}

	if !s.q.haveCounts {
		if s.tasks != nil {
			s.tasks.Launch(func() {
				if err := s.q.ResetCounts(context.Background(), current); err == nil {
					s.q.ResetQueues()
				}
			})
		}
		return 0, nil
	}

	// Counts were fresh but queues still came up empty and stale: force a
	// full reset and retry exactly once.
	s.q.haveQueues = false
	if err := s.checkDay(ctx, current); err != nil {
		return 0, err
	}
	id, err = s.getCardOnce(ctx, current)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		s.reps++
	}
	return id, nil
}

func (s *Selector) getCardOnce(ctx context.Context, current *Card) (int64, error) {
	now := s.timer.Now()
	collapse := int64(s.config.GetInt("collapseTime", 1200))

	if ok, err := s.q.fillLrn(ctx, current); err != nil {
		return 0, err
	} else if ok {
		if e, ok := s.q.lrnPeekFirst(); ok && e.Due < now {
			s.q.lrnPopFirst()
			return e.ID, nil
		}
	}

	dayLearnFirst := s.config.GetBool("dayLearnFirst", false)

	if s.timeForNewCard() {
		if ok, err := s.q.fillNew(ctx, current); err != nil {
			return 0, err
		} else if ok {
			if id, ok := s.q.newPopFirst(); ok {
				return id, nil
			}
		}
	}

	if dayLearnFirst {
		if ok, err := s.q.fillLrnDay(ctx, current); err != nil {
			return 0, err
		} else if ok {
			if id, ok := s.q.lrnDayPopFirst(); ok {
				return id, nil
			}
		}
	}

	if ok, err := s.q.fillRev(ctx, current); err != nil {
		return 0, err
	} else if ok {
		if id, ok := s.q.revPopFirst(); ok {
			return id, nil
		}
	}

	if !dayLearnFirst {
		if ok, err := s.q.fillLrnDay(ctx, current); err != nil {
			return 0, err
		} else if ok {
			if id, ok := s.q.lrnDayPopFirst(); ok {
				return id, nil
			}
		}
	}

	if ok, err := s.q.fillNew(ctx, current); err != nil {
		return 0, err
	} else if ok {
		if id, ok := s.q.newPopFirst(); ok {
			return id, nil
		}
	}

	if ok, err := s.q.fillLrn(ctx, current); err != nil {
		return 0, err
	} else if ok {
		if e, ok := s.q.lrnPeekFirst(); ok && e.Due < now+collapse {
			s.q.lrnPopFirst()
			return e.ID, nil
		}
	}

	return 0, nil
}

// timeForNewCard implements the newSpread policy: whether the next pull
// should be attempted from the new queue before the review/day-learn
// queues.
func (s *Selector) timeForNewCard() bool {
	if s.q.newCount == 0 {
		return false
	}
	switch NewSpread(s.config.GetInt("newSpread", int32(SpreadDistribute))) {
	case SpreadLast:
		return false
	case SpreadFirst:
		return true
	default:
		if s.q.revCount != 0 {
			s.newCardModulus = maxInt(2, (s.q.newCount+s.q.revCount)/s.q.newCount)
		} else {
			s.newCardModulus = (s.q.newCount + s.q.revCount) / s.q.newCount
		}
		if s.newCardModulus <= 0 {
			return false
		}
		return s.reps != 0 && s.reps%s.newCardModulus == 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
