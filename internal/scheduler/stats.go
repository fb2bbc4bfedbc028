package scheduler

import (
	"context"

	"gopkg.in/yaml.v3"
)

// DeckStats is a point-in-time snapshot of the three counts shown to a
// learner before starting a review session.
type DeckStats struct {
	New      int
	Learning int
	Review   int
}

// ToYAML renders the snapshot the way `srscore stats` prints it.
func (ds DeckStats) ToYAML() string {
	out, _ := yaml.Marshal(ds)
	return string(out)
}

// Stats recomputes counts if stale and returns a snapshot.
func (s *Scheduler) Stats(ctx context.Context) (DeckStats, error) {
	if err := s.timer.UpdateCutoff(ctx); err != nil {
		return DeckStats{}, err
	}
	if !s.queues.haveCounts {
		if err := s.queues.ResetCounts(ctx, s.currentCard); err != nil {
			return DeckStats{}, err
		}
	}
	return DeckStats{
		New:      s.queues.newCount,
		Learning: s.queues.lrnCount + s.queues.dayCount,
		Review:   s.queues.revCount,
	}, nil
}
