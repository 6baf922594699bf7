package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

type sinkJob struct {
	sink string
	id   string
	fn   func(context.Context) error
}

// SinkQueue moves sink writes off the message delivery path. A single
// worker drains the queue in submission order; each write is bounded by
// the sink timeout. When the queue is full the write is dropped and logged.
type SinkQueue struct {
	jobs    chan sinkJob
	timeout time.Duration
	done    chan struct{}
}

func NewSinkQueue(size int, timeout time.Duration) *SinkQueue {
	if size < 1 {
		size = 1
	}
	if timeout <= 0 {
		timeout = defaultSinkTimeout
	}
	return &SinkQueue{
		jobs:    make(chan sinkJob, size),
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

func (q *SinkQueue) submit(job sinkJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		log.Error().Str("sink", job.sink).Str("washroom_id", job.id).Msg("sink queue full, write dropped")
		return false
	}
}

// Run executes queued writes until ctx ends, then drains what is already
// queued and returns. Writes started during the drain are not cancelled by ctx.
func (q *SinkQueue) Run(ctx context.Context) {
	defer close(q.done)
	base := context.WithoutCancel(ctx)
	for {
		select {
		case job := <-q.jobs:
			runSink(base, q.timeout, job)
		case <-ctx.Done():
			for {
				select {
				case job := <-q.jobs:
					runSink(base, q.timeout, job)
				default:
					log.Info().Msg("sink queue drained")
					return
				}
			}
		}
	}
}

// Done is closed once Run has drained the queue and returned.
func (q *SinkQueue) Done() <-chan struct{} { return q.done }

// Pending reports the number of queued writes.
func (q *SinkQueue) Pending() int { return len(q.jobs) }

func runSink(ctx context.Context, timeout time.Duration, job sinkJob) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := job.fn(ctx); err != nil {
		ev := log.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			ev = log.Warn()
		}
		ev.Err(err).Str("sink", job.sink).Str("washroom_id", job.id).Msg("sink write failed")
	}
}
