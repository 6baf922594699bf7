package export

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler runs the exporter once per day just after local midnight for
// the day that just closed. A failed export is retried after Backoff, up
// to MaxAttempts in total; the loop itself only stops with its context.
type Scheduler struct {
	Exporter    *Exporter
	Backoff     time.Duration
	MaxAttempts int

	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
}

func (s *Scheduler) Run(ctx context.Context) {
	for {
		now := s.now()
		next := NextMidnight(now, s.Exporter.location())
		log.Info().Time("next_run", next).Dur("in", next.Sub(now)).Msg("next hygiene log export scheduled")

		if !s.wait(ctx, next.Sub(now)) {
			return
		}
		s.exportWithRetry(ctx, next.AddDate(0, 0, -1))
	}
}

func (s *Scheduler) exportWithRetry(ctx context.Context, day time.Time) {
	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		_, err := s.Exporter.ExportDay(ctx, day)
		if err == nil {
			return
		}
		log.Error().Err(err).
			Str("date", day.Format(time.DateOnly)).
			Int("attempt", i).
			Int("max_attempts", attempts).
			Msg("hygiene log export failed")
		if i == attempts || !s.wait(ctx, s.Backoff) {
			return
		}
	}
}

// wait reports false if ctx ended first.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	after := s.After
	if after == nil {
		after = time.After
	}
	select {
	case <-ctx.Done():
		return false
	case <-after(d):
		return true
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NextMidnight returns the first midnight in loc strictly after t.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
}
