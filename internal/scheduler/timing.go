package scheduler

import "context"

// Timer is consulted by every other component for "today" and "now", and
// is responsible for rolling deck daily counters and unburying
// sibling-buried cards across a day boundary.
type Timer struct {
	store  Store
	decks  Decks
	config ConfigStore
	time   TimeProvider
	log    Logger

	today     int32
	dayCutoff int64
}

// Logger is the minimal logging surface the scheduler needs, satisfied by
// *logging.Logger without importing it directly here (keeps this package
// free of a hard dependency on the logging package's singleton).
type Logger interface {
	Warnf(format string, v ...any)
}

func newTimer(store Store, decks Decks, config ConfigStore, tp TimeProvider, log Logger) *Timer {
	return &Timer{store: store, decks: decks, config: config, time: tp, log: log}
}

// Now returns the current epoch seconds.
func (t *Timer) Now() int64 {
	return t.time.IntTime()
}

// Today returns the current day index. Callers must have called
// UpdateCutoff at least once (the Scheduler does this before any queue
// reset and opportunistically on each card fetch).
func (t *Timer) Today() int32 {
	return t.today
}

// DayCutoff returns the epoch seconds at which Today() will next increment.
func (t *Timer) DayCutoff() int64 {
	return t.dayCutoff
}

// UpdateCutoff recomputes today/dayCutoff from the external timing
// provider. If the day advanced, it rolls every deck's daily counters and
// unburies SiblingBuried cards once per day.
func (t *Timer) UpdateCutoff(ctx context.Context) error {
	timing := t.time.TimingToday()
	newToday := timing.DaysElapsed
	newCutoff := timing.NextDayAt.Unix()

	advanced := newToday > t.today
	t.today = newToday
	t.dayCutoff = newCutoff

	if !advanced {
		return nil
	}

	if err := t.rollDeckCounters(); err != nil {
		return err
	}

	lastUnburied := t.config.GetInt("lastUnburied", 0)
	if lastUnburied < newToday {
		if err := t.unburySiblingsGlobally(ctx); err != nil {
			return err
		}
		t.config.SetInt("lastUnburied", newToday)
	}

	return nil
}

func (t *Timer) rollDeckCounters() error {
	decks, err := t.decks.All()
	if err != nil {
		return err
	}
	for _, d := range decks {
		changed := false
		if d.NewToday.Day != t.today {
			d.NewToday = DayCounter{Day: t.today, Count: 0}
			changed = true
		}
		if d.RevToday.Day != t.today {
			d.RevToday = DayCounter{Day: t.today, Count: 0}
			changed = true
		}
		if d.LrnToday.Day != t.today {
			d.LrnToday = DayCounter{Day: t.today, Count: 0}
			changed = true
		}
		if d.TimeToday.Day != t.today {
			d.TimeToday = DayCounter{Day: t.today, Count: 0}
			changed = true
		}
		if changed {
			if err := t.decks.Save(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Timer) unburySiblingsGlobally(ctx context.Context) error {
	ids, err := t.store.CardIDsInQueue(ctx, QueueSiblingBuried, nil)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return t.store.RestoreQueueFromType(ctx, ids)
}
