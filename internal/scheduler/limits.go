package scheduler

import (
	"context"

	"golang.org/x/exp/slices"
)

// LimitComputer derives per-deck and hierarchical (parent-clamped) limits
// for new and review cards, taking today's progress and the
// currently-displayed card into account.
type LimitComputer struct {
	decks   Decks
	version SchedulerVersion
}

func newLimitComputer(decks Decks, version SchedulerVersion) *LimitComputer {
	return &LimitComputer{decks: decks, version: version}
}

// walkingCount traverses every active deck, optionally clamping each deck's
// limit against the remaining budget of every ancestor already visited, and
// returns the sum of per-deck counts. It returns -1 if ctx is cancelled
// mid-walk so long-running recomputation can be aborted cooperatively.
func (lc *LimitComputer) walkingCount(
	ctx context.Context,
	active []int64,
	clampParents bool,
	limFn func(d *Deck) (int, error),
	cntFn func(ctx context.Context, d *Deck, lim int) (int, error),
) (int, error) {
	remaining := make(map[int64]int)
	total := 0

	for _, did := range active {
		select {
		case <-ctx.Done():
			return -1, nil
		default:
		}

		d, err := lc.decks.Get(did)
		if err != nil {
			return 0, err
		}

		lim, err := limFn(d)
		if err != nil {
			return 0, err
		}

		parents, err := lc.decks.Parents(did)
		if err != nil {
			return 0, err
		}
		if clampParents {
			for _, p := range parents {
				if rem, ok := remaining[p.ID]; ok && rem < lim {
					lim = rem
				}
			}
		}
		if lim < 0 {
			lim = 0
		}

		cnt, err := cntFn(ctx, d, lim)
		if err != nil {
			return 0, err
		}

		for _, p := range parents {
			if rem, ok := remaining[p.ID]; ok {
				remaining[p.ID] = rem - cnt
			} else {
				pLim, err := limFn(p)
				if err != nil {
					return 0, err
				}
				remaining[p.ID] = pLim - cnt
			}
		}
		remaining[did] = lim - cnt
		total += cnt
	}
	return total, nil
}

// deckNewLimitSingle computes a single deck's own remaining new-card budget.
func (lc *LimitComputer) deckNewLimitSingle(d *Deck, conf *DeckConfig, considerCurrent bool, current *Card) (int, error) {
	if d.Dynamic {
		return DynReportLimit, nil
	}
	lim := conf.New.PerDay - d.NewToday.Count
	if considerCurrent {
		counts, err := lc.currentCardCountsAgainst(d, current, QueueNew)
		if err != nil {
			return 0, err
		}
		if counts {
			lim--
		}
	}
	return lim, nil
}

// deckRevLimitSingle computes a single deck's own remaining review budget.
// parentLimit is the caller-computed ancestor clamp; pass nil under v1,
// which never clamps review limits against parents.
func (lc *LimitComputer) deckRevLimitSingle(d *Deck, conf *DeckConfig, parentLimit *int, considerCurrent bool, current *Card) (int, error) {
	lim := conf.Rev.PerDay - d.RevToday.Count
	if lim < 0 {
		lim = 0
	}
	if lc.version == SchedulerV2 && parentLimit != nil && *parentLimit < lim {
		lim = *parentLimit
	}
	if considerCurrent {
		counts, err := lc.currentCardCountsAgainst(d, current, QueueReview)
		if err != nil {
			return 0, err
		}
		if counts {
			lim--
		}
	}
	return lim, nil
}

// currentRevLimit returns the review limit of the selected deck, clamped
// against its ancestors under v2.
func (lc *LimitComputer) currentRevLimit(considerCurrent bool, current *Card) (int, error) {
	did := lc.decks.Selected()
	d, err := lc.decks.Get(did)
	if err != nil {
		return 0, err
	}
	conf, err := lc.decks.ConfigFor(did)
	if err != nil {
		return 0, err
	}

	var parentLimit *int
	if lc.version == SchedulerV2 {
		parents, err := lc.decks.Parents(did)
		if err != nil {
			return 0, err
		}
		for _, p := range parents {
			pConf, err := lc.decks.ConfigFor(p.ID)
			if err != nil {
				return 0, err
			}
			pLim := pConf.Rev.PerDay - p.RevToday.Count
			if pLim < 0 {
				pLim = 0
			}
			if parentLimit == nil || pLim < *parentLimit {
				parentLimit = &pLim
			}
		}
	}

	return lc.deckRevLimitSingle(d, conf, parentLimit, considerCurrent, current)
}

// currentCardCountsAgainst reports whether current is in queue q and
// resides in d or one of d's descendants (i.e. d is an ancestor of
// current's deck, or current's deck itself).
func (lc *LimitComputer) currentCardCountsAgainst(d *Deck, current *Card, q CardQueue) (bool, error) {
	if current == nil || current.Queue != q {
		return false, nil
	}
	if current.DeckID == d.ID {
		return true, nil
	}
	parents, err := lc.decks.Parents(current.DeckID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(parents, func(p *Deck) bool { return p.ID == d.ID }), nil
}
