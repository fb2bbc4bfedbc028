package scheduler

import "math"

// This file collects the pure interval-math used to schedule the next
// review. Every function is pure over its inputs (plus an injected RNG for
// the two functions that fuzz); callers are responsible for supplying
// "today" and "now" from the Timer.

// fuzzRange returns the inclusive [lo, hi] fuzz window for ivl. Minimum
// fuzz is always 1 day.
func fuzzRange(ivl int) (lo, hi int) {
	if ivl < 2 {
		return 1, 1
	}
	if ivl == 2 {
		return 2, 3
	}
	var fuzz float64
	switch {
	case ivl < 7:
		fuzz = float64(ivl) * 0.25
	case ivl < 30:
		fuzz = math.Max(2, float64(ivl)*0.15)
	default:
		fuzz = math.Max(4, float64(ivl)*0.05)
	}
	fz := int(math.Max(1, math.Round(fuzz)))
	lo = ivl - fz
	hi = ivl + fz
	if lo < 1 {
		lo = 1
	}
	return lo, hi
}

// fuzzed samples a uniformly distributed integer in fuzzRange(ivl), inclusive.
func fuzzed(ivl int, rng RNG) int {
	lo, hi := fuzzRange(ivl)
	span := hi - lo + 1
	if span <= 1 {
		return lo
	}
	return lo + rng.Intn(span)
}

// constrained applies conf.Rev.IvlFct, optional fuzz, the prev+1 floor and
// the conf.Rev.MaxIvl ceiling.
func constrained(rawIvl float64, conf *RevConfig, prev int, fuzz bool, rng RNG) int {
	fct := 1.0
	if conf.IvlFct != nil {
		fct = *conf.IvlFct
	}
	v := int(math.Floor(rawIvl * fct))
	if fuzz {
		v = fuzzed(v, rng)
	}
	floor := prev + 1
	if floor < 1 {
		floor = 1
	}
	if v < floor {
		v = floor
	}
	if v > conf.MaxIvl {
		v = conf.MaxIvl
	}
	return v
}

// nextRevIvl computes the three candidate next intervals (for ease
// 2=Hard, 3=Good, 4=Easy). today is the Timer's current day index;
// dueForLateCalc is card.OriginalDue if the card is filtered, else
// card.Due.
func nextRevIvl(card *Card, conf *RevConfig, today int32, dueForLateCalc int64, fuzz bool, rng RNG) (ivl2, ivl3, ivl4 int) {
	delay := int64(today) - dueForLateCalc
	if delay < 0 {
		delay = 0
	}

	fct := float64(card.Factor) / 1000

	hardFactor := 1.2
	if conf.HardFactor != nil {
		hardFactor = *conf.HardFactor
	}
	hardMin := 0
	if hardFactor > 1 {
		hardMin = card.Ivl
	}

	ivl2 = constrained(float64(card.Ivl)*hardFactor, conf, hardMin, fuzz, rng)
	ivl3 = constrained((float64(card.Ivl)+float64(delay)/2)*fct, conf, ivl2, fuzz, rng)
	ivl4 = constrained((float64(card.Ivl)+float64(delay))*fct*conf.Ease4, conf, ivl3, fuzz, rng)
	return ivl2, ivl3, ivl4
}

// lapseIvl computes the post-lapse interval.
func lapseIvl(card *Card, conf *LapseConfig) int {
	v := int(math.Floor(float64(card.Ivl) * conf.Mult))
	if v < conf.MinInt {
		v = conf.MinInt
	}
	if v < 1 {
		v = 1
	}
	return v
}

// graduatingIvl computes the interval assigned when a card leaves learning.
// early selects the Easy (conf.Ints[1]) vs Good (conf.Ints[0]) branch for a
// New-origin card, and adds 1 day for an early-graduating Review/Relearning
// card.
func graduatingIvl(card *Card, conf *NewConfig, early bool, fuzz bool, rng RNG) int {
	if card.Type == CardReview || card.Type == CardRelearning {
		ivl := card.Ivl
		if early {
			ivl++
		}
		return ivl
	}
	idx := 0
	if early {
		idx = 1
	}
	ivl := 1
	if idx < len(conf.Ints) {
		ivl = conf.Ints[idx]
	} else if len(conf.Ints) > 0 {
		ivl = conf.Ints[0]
	}
	if fuzz {
		ivl = fuzzed(ivl, rng)
	}
	return ivl
}

// earlyReviewIvl computes the interval for an early review inside a
// filtered deck. Requires the card to be filtered, of Review type, with a
// nonzero factor and ease >= 2.
func earlyReviewIvl(card *Card, conf *RevConfig, ease Ease, today int32) (int, error) {
	if !card.InFiltered() || card.Type != CardReview || card.Factor <= 0 || ease < EaseHard {
		return 0, invalidEarlyReviewf("card=%d ease=%d", card.ID, ease)
	}

	elapsed := float64(card.Ivl) - float64(card.OriginalDue-int64(today))

	var factor float64
	hardFactor := 1.2
	if conf.HardFactor != nil {
		hardFactor = *conf.HardFactor
	}
	var minNewIvl float64
	if ease == EaseHard {
		factor = hardFactor
		minNewIvl = factor / 2
	} else {
		factor = float64(card.Factor) / 1000
		minNewIvl = 1
	}

	easyBonus := 1.0
	if ease == EaseEasy {
		easyBonus = conf.Ease4 - (conf.Ease4-1)/2
	}

	raw := math.Max(elapsed*factor, 1)
	raw = math.Max(float64(card.Ivl)*minNewIvl, raw) * easyBonus

	return constrained(raw, conf, 0, false, nil), nil
}

// startingLeft packs the initial learning-step state for a freshly-started
// New card.
func startingLeft(delays []float64, now int64, dayCutoff int64) int {
	tot := len(delays)
	tod := leftToday(delays, tot, now, dayCutoff)
	return tod*1000 + tot
}

// leftToday simulates scheduling the tail of `delays` (the last
// min(left, len(delays)) entries) starting at now, and returns how many
// complete before dayCutoff, plus one (always at least 1).
func leftToday(delays []float64, left int, now int64, dayCutoff int64) int {
	offset := left
	if offset > len(delays) {
		offset = len(delays)
	}
	if offset < 0 {
		offset = 0
	}
	tail := delays[len(delays)-offset:]
	ok := 0
	t := now
	for _, d := range tail {
		t += int64(d * 60)
		if t >= dayCutoff {
			break
		}
		ok++
	}
	return ok + 1
}

// delayForGrade resolves the step delay in seconds for the current `left`
// encoding, degrading gracefully when the index is out of range.
func delayForGrade(delays []float64, left int, log Logger) int64 {
	if len(delays) == 0 {
		if log != nil {
			log.Warnf("scheduler: empty delays, falling back to 1 minute")
		}
		return 60
	}
	l := len(delays)
	idx := l - (left % 1000)
	if idx < 0 || idx >= l {
		if log != nil {
			log.Warnf("scheduler: delay index %d out of range for %d delays, falling back to delays[0]", idx, l)
		}
		idx = 0
	}
	return int64(delays[idx] * 60)
}

// delayForRepeatingGrade averages the current step's delay with the larger
// of that delay and the next step's delay (or, with only one step
// configured, twice the current delay).
func delayForRepeatingGrade(delays []float64, left int, log Logger) int64 {
	a := delayForGrade(delays, left, log)
	var alt int64
	if len(delays) > 1 {
		alt = delayForGrade(delays, left-1, log)
	} else {
		alt = 2 * a
	}
	m := a
	if alt > m {
		m = alt
	}
	return (a + m) / 2
}
