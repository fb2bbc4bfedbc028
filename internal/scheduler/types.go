// Package scheduler implements the core of a v2 Anki-style spaced
// repetition scheduler: queue selection and card-state transitions. The
// persistent store, deck tree, note/tag mutation, wall-clock provider and
// sync stamping are external collaborators, reached only through the
// contracts in contracts.go.
package scheduler

import "time"

// CardType mirrors Anki's card.type column.
type CardType int

const (
	CardNew CardType = iota
	CardLearning
	CardReview
	CardRelearning
)

// CardQueue mirrors Anki's card.queue column. Queue can differ from Type,
// e.g. a Review-typed card sits in QueueLearning during relearning.
type CardQueue int

const (
	QueueSuspended       CardQueue = -1
	QueueSiblingBuried   CardQueue = -2
	QueueManuallyBuried  CardQueue = -3
	QueueNew             CardQueue = 0
	QueueLearning        CardQueue = 1
	QueueReview          CardQueue = 2
	QueueDayLearnRelearn CardQueue = 3
	QueuePreview         CardQueue = 4
)

// RevlogType mirrors the revlog.type column.
type RevlogType int

const (
	RevlogLearn RevlogType = iota
	RevlogReview
	RevlogRelearn
	RevlogEarlyReview
)

// Ease is the learner's rating button.
type Ease int

const (
	EaseAgain Ease = 1
	EaseHard  Ease = 2
	EaseGood  Ease = 3
	EaseEasy  Ease = 4
)

// NewCardOrder controls how new cards are interleaved with due reviews.
type NewCardOrder int

const (
	NewCardsDistribute NewCardOrder = iota
	NewCardsLast
	NewCardsFirst
)

// DynOrder controls the `order by` used when filling a filtered deck.
type DynOrder int

const (
	DynOrderOldestMod DynOrder = iota
	DynOrderRandom
	DynOrderIvlAsc
	DynOrderIvlDesc
	DynOrderLapsesDesc
	DynOrderNoteIDAsc
	DynOrderNoteIDDesc
	DynOrderDuePriority
	DynOrderDue
)

// LeechAction is what happens to a card detected as a leech.
type LeechAction int

const (
	LeechTagOnly LeechAction = iota
	LeechSuspend
)

// UnburyKind selects which buried cards to restore in a deck.
type UnburyKind int

const (
	UnburyAll UnburyKind = iota
	UnburyManual
	UnburySiblings
)

// SchedulerVersion tags the v1/v2 algorithm divergence points: v1 has no
// parent-clamped review limits, no Relearning card type, and a single
// bury queue.
type SchedulerVersion int

const (
	SchedulerV1 SchedulerVersion = iota + 1
	SchedulerV2
)

const (
	// StartingFactor is the default ease factor (2.5x) assigned on
	// graduation, in per-mille.
	StartingFactor = 2500
	// MinFactor is the floor ease factor can never drop below.
	MinFactor = 1300
	// SecondsPerDay converts between day indices and epoch seconds.
	SecondsPerDay = 86400
	// QueueLimit caps a single fill query.
	QueueLimit = 50
	// ReportLimit caps lrn-queue fills and most reporting counts.
	ReportLimit = 99999
	// DynReportLimit is the "unlimited" new/review limit used by dynamic decks.
	DynReportLimit = 99999
	// RescheduleFactor is the ease factor assigned by resched_cards.
	RescheduleFactor = StartingFactor
)

// FactorAdditionValues is indexed by ease-2 (so Hard=-150, Good=0, Easy=+150).
var FactorAdditionValues = [3]int{-150, 0, 150}

// Card is a single flashcard and its full scheduling state.
type Card struct {
	ID     int64
	DeckID int64
	NoteID int64

	Type  CardType
	Queue CardQueue

	// Due semantics depend on Queue: position for New, day index for
	// Review/DayLearnRelearn, epoch seconds for Learning/Preview.
	Due int64

	// Ivl is the current interval in days.
	Ivl int
	// LastIvl is the prior interval, recorded for the revlog.
	LastIvl int

	// Factor is the ease factor in per-mille. Zero until the card leaves
	// the New state.
	Factor int

	Reps   int
	Lapses int

	// Left packs learning progress: totalLeftToday*1000 + realStepsLeft.
	Left int

	// OriginalDeckID/OriginalDue are non-zero iff the card currently
	// resides in a filtered deck (DeckID is then the filtered deck).
	OriginalDeckID int64
	OriginalDue    int64

	Mod int64
	USN int32
}

// InFiltered reports whether the card currently resides in a filtered deck.
func (c *Card) InFiltered() bool {
	return c.OriginalDeckID != 0
}

// DayCounter is a [day, count] pair as stored on a Deck for newToday,
// revToday, lrnToday and timeToday.
type DayCounter struct {
	Day   int32
	Count int
}

// DynTerm is one (query, limit, order) search term of a filtered deck.
type DynTerm struct {
	Search string
	Limit  int
	Order  DynOrder
}

// Deck is a deck's identity and daily bookkeeping. Name-tree navigation,
// parent/child resolution and persistence are provided by the external
// Decks collaborator (contracts.go); this struct only carries the fields
// the scheduler itself reads or writes.
type Deck struct {
	ID   int64
	Name string

	Dynamic bool

	NewToday  DayCounter
	RevToday  DayCounter
	LrnToday  DayCounter
	TimeToday DayCounter

	ConfigID int64

	// Terms is only meaningful for a dynamic (filtered) deck.
	Terms []DynTerm
	// Resched: when false, a filtered deck card is "preview only" and
	// answering it never reschedules it into regular review.
	Resched bool
}

// NewConfig is the `new` section of a DeckConfig.
type NewConfig struct {
	PerDay        int
	Delays        []float64
	Ints          []int
	InitialFactor int
	Bury          bool
	Order         NewCardOrder
	Separate      bool
}

// LapseConfig is the `lapse` section of a DeckConfig.
type LapseConfig struct {
	Delays      []float64
	Mult        float64
	MinInt      int
	LeechFails  int
	LeechAction LeechAction
}

// RevConfig is the `rev` section of a DeckConfig.
type RevConfig struct {
	PerDay     int
	HardFactor *float64
	Ease4      float64
	IvlFct     *float64
	MaxIvl     int
	Bury       bool
}

// DeckConfig is the full per-deck configuration resolved by the Config
// View (§4.2). PreviewDelay is in seconds.
type DeckConfig struct {
	ID   int64
	Name string

	New   NewConfig
	Lapse LapseConfig
	Rev   RevConfig

	// Dyn marks a filtered-deck-only config (order/perDay/resched/separate
	// apply; the rest is always overridden from the original deck).
	Dyn bool
	// Resched: whether cards answered in this filtered deck are
	// rescheduled into regular review (vs. preview-only).
	Resched      bool
	PreviewDelay int
}

// RevlogEntry is one append-only audit row.
type RevlogEntry struct {
	TimeMs     int64
	CardID     int64
	USN        int32
	Ease       Ease
	Ivl        int
	LastIvl    int
	Factor     int
	TimeTaken  int
	Type       RevlogType
}

// Timing is the snapshot returned by the Time collaborator's TimingToday.
type Timing struct {
	DaysElapsed int32
	NextDayAt   time.Time
}
