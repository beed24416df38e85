package intake

import (
	"context"
	"time"
)

// Update is one message from a streaming transport: the transcript so far,
// and whether the speaker just finished a turn.
type Update struct {
	Transcript   Transcript
	TurnComplete bool
}

// WatchOptions tunes the poller.
type WatchOptions struct {
	// Interval between periodic checkpoints.
	Interval time.Duration
	// MinTurns suppresses every checkpoint, periodic or turn-complete, until
	// the transcript has at least this many turns.
	MinTurns int
	// OnOutcome, when set, observes every checkpoint result.
	OnOutcome func(Outcome, error)
}

// Watch checkpoints a continuous conversation. It keeps the latest
// transcript from updates and checkpoints it on every turn-complete signal
// and on each tick when the transcript has grown since the last checkpoint.
// Transcripts shorter than MinTurns are never checkpointed.
// Checkpoints run sequentially on the caller's goroutine. Watch returns when
// ctx ends, updates closes, or the session stops gathering.
func Watch(ctx context.Context, s *Session, updates <-chan Update, opts WatchOptions) {
	interval := opts.Interval
	if interval <= 0 {
		interval = 12 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var latest Transcript
	checked := -1
	run := func() {
		if len(latest) < opts.MinTurns {
			return
		}
		outcome, err := s.Checkpoint(ctx, latest)
		checked = len(latest)
		if opts.OnOutcome != nil {
			opts.OnOutcome(outcome, err)
		}
	}

	for {
		if s.State() != StateGathering {
			return
		}
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			latest = u.Transcript.Clone()
			if u.TurnComplete {
				run()
			}
		case <-ticker.C:
			if len(latest) != checked {
				run()
			}
		}
	}
}
