// Package srstime provides the scheduler.TimeProvider implementation used
// outside of tests: wall-clock seconds plus the rollover-hour day boundary
// computation, built on top of pkg/clock the way every other collaborator
// in this module is built on a small injectable interface rather than a
// bare time.Now() call.
package srstime

import "time"

// Clock is satisfied by pkg/clock.Clock; declared locally so this package
// doesn't need to import pkg/clock just to accept either the real or test
// implementation.
type Clock interface {
	Now() time.Time
}

// Timing mirrors scheduler.Timing without importing the scheduler package:
// pkg/ stays a leaf dependency that internal/ packages import, never the
// other way around. cmd/ does the one-line struct conversion between the
// two at wiring time.
type Timing struct {
	DaysElapsed int32
	NextDayAt   time.Time
}

// Provider answers the three questions the scheduler's TimeProvider needs:
// current epoch seconds/millis, and today's (daysElapsed, nextRollover)
// pair, computed from a fixed creation instant and a rollover hour the way
// Anki derives "today" from (crt, rollover) rather than from local midnight.
type Provider struct {
	clock    Clock
	created  time.Time
	rollover int // hour of day, 0-23, at which a new scheduling day begins
}

// NewProvider builds a Provider. created is the collection's creation
// instant (day 0); rollover is the hour of day (0-23) the scheduling day
// rolls over at, clamped into range.
func NewProvider(clock Clock, created time.Time, rollover int) *Provider {
	if rollover < 0 {
		rollover = 0
	}
	if rollover > 23 {
		rollover = 23
	}
	return &Provider{clock: clock, created: created, rollover: rollover}
}

func (p *Provider) IntTime() int64 {
	return p.clock.Now().Unix()
}

func (p *Provider) IntTimeMs() int64 {
	return p.clock.Now().UnixMilli()
}

// TimingToday computes the current day index and the instant the next day
// begins. The creation instant is normalized to its own rollover boundary
// first so that a collection created at, say, 23:00 still counts whole
// days from a consistent anchor instead of drifting by a few hours.
func (p *Provider) TimingToday() Timing {
	now := p.clock.Now()
	anchor := rolloverBoundaryOnOrBefore(p.created, p.rollover)
	todayBoundary := rolloverBoundaryOnOrBefore(now, p.rollover)

	daysElapsed := int32(todayBoundary.Sub(anchor).Hours() / 24)
	nextDayAt := todayBoundary.Add(24 * time.Hour)

	return Timing{DaysElapsed: daysElapsed, NextDayAt: nextDayAt}
}

// rolloverBoundaryOnOrBefore returns the most recent instant, at or before
// t, at which the clock struck the rollover hour.
func rolloverBoundaryOnOrBefore(t time.Time, rollover int) time.Time {
	boundary := time.Date(t.Year(), t.Month(), t.Day(), rollover, 0, 0, 0, t.Location())
	if boundary.After(t) {
		boundary = boundary.Add(-24 * time.Hour)
	}
	return boundary
}
