package srstime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestTimingTodaySameDayBeforeRollover(t *testing.T) {
	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	p := NewProvider(fixedClock{now}, created, 4)

	timing := p.TimingToday()
	assert.EqualValues(t, 0, timing.DaysElapsed)
	assert.Equal(t, time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC), timing.NextDayAt)
}

func TestTimingTodayAdvancesAtRolloverNotMidnight(t *testing.T) {
	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC) // past midnight, before rollover
	p := NewProvider(fixedClock{now}, created, 4)

	timing := p.TimingToday()
	assert.EqualValues(t, 0, timing.DaysElapsed, "day hasn't rolled over yet at 3am")

	now2 := time.Date(2026, 1, 2, 5, 0, 0, 0, time.UTC) // past rollover
	p2 := NewProvider(fixedClock{now2}, created, 4)
	timing2 := p2.TimingToday()
	assert.EqualValues(t, 1, timing2.DaysElapsed)
}

func TestTimingTodayCreationAfterRolloverHourSameDay(t *testing.T) {
	created := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC) // created after 4am rollover
	now := time.Date(2026, 1, 2, 2, 0, 0, 0, time.UTC)      // still same scheduling day
	p := NewProvider(fixedClock{now}, created, 4)

	timing := p.TimingToday()
	assert.EqualValues(t, 0, timing.DaysElapsed)
}

func TestIntTimeAndIntTimeMs(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewProvider(fixedClock{now}, now, 4)
	assert.Equal(t, now.Unix(), p.IntTime())
	assert.Equal(t, now.UnixMilli(), p.IntTimeMs())
}

func TestRolloverClampedIntoRange(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewProvider(fixedClock{now}, now, 99)
	assert.Equal(t, 23, p.rollover)

	p2 := NewProvider(fixedClock{now}, now, -5)
	assert.Equal(t, 0, p2.rollover)
}
