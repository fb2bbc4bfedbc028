package scheduler

import (
	"bytes"
	"context"
	"errors"
	"time"

	"gopkg.in/yaml.v3"
)

// maxRevlogRetries bounds the retry-on-clash loop; a real collision storm
// this long would indicate a clock problem, not bad luck.
const maxRevlogRetries = 50

// RevlogWriter appends one audit row per answer, retrying on a
// millisecond-timestamp collision by waiting and taking a fresh
// timestamp from the time provider.
type RevlogWriter struct {
	store Store
	time  TimeProvider
	sleep func(time.Duration)
}

func newRevlogWriter(store Store, tp TimeProvider) *RevlogWriter {
	return &RevlogWriter{store: store, time: tp, sleep: time.Sleep}
}

func (w *RevlogWriter) Log(ctx context.Context, card *Card, usn int32, ease Ease, ivl, lastIvl, factor, timeTaken int, typ RevlogType) error {
	for attempt := 0; attempt < maxRevlogRetries; attempt++ {
		entry := RevlogEntry{
			TimeMs:    w.time.IntTimeMs(),
			CardID:    card.ID,
			USN:       usn,
			Ease:      ease,
			Ivl:       ivl,
			LastIvl:   lastIvl,
			Factor:    factor,
			TimeTaken: timeTaken,
			Type:      typ,
		}
		err := w.store.AppendRevlog(ctx, entry)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRevlogKeyClash) {
			return err
		}
		w.sleep(10 * time.Millisecond)
	}
	return ErrRevlogKeyClash
}

// ToYAML renders a window of revlog entries for human inspection, in the
// same indented style `srscore stats` uses for deck snapshots.
func ToYAML(entries []RevlogEntry) string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	_ = enc.Encode(entries)
	_ = enc.Close()
	return buf.String()
}
