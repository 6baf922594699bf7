package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/alerting"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/anomaly"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/scoring"
)

const defaultSinkTimeout = 5 * time.Second

var alwaysDispatch = alerting.NewDispatcher(nil)

// Pipeline turns raw readings into persisted score results and alerts.
// Sinks are optional; a nil sink is skipped. Sink failures are logged and
// never abort processing of the reading. With a Queue, sink writes run on
// the queue's worker and only scoring happens on the caller's goroutine.
type Pipeline struct {
	Profiles   *ProfileResolver
	Cleaning   CleaningReader
	Dispatcher *alerting.Dispatcher
	Scores     *ScoreCache

	Log      ScoreLog
	State    StateStore
	Notifier Notifier

	Queue       *SinkQueue
	SinkTimeout time.Duration
	Now         func() time.Time
}

// HandleMessage decodes one MQTT payload. Messages with type "heartbeat"
// only record liveness; everything else is scored.
func (p *Pipeline) HandleMessage(ctx context.Context, payload []byte) error {
	msg, err := decodeMessage(payload)
	if err != nil {
		return err
	}
	if kind, _ := msg["type"].(string); kind == "heartbeat" {
		return p.recordHeartbeat(ctx, msg)
	}
	_, err = p.ProcessReading(ctx, msg)
	return err
}

// ProcessReading runs one decoded reading through scoring, persistence and
// alerting. Readings without a device id are dropped before any sink is touched.
func (p *Pipeline) ProcessReading(ctx context.Context, msg map[string]any) (domain.ScoreResult, error) {
	now := p.now()
	reading, err := parseReading(msg, now)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	id := reading.DeviceID

	profile, err := p.Profiles.Resolve(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("washroom_id", id).Msg("profile lookup failed, using default")
	}

	scores := scoring.ComputeComponentScores(reading)
	base := scoring.ComputeWeightedScore(scores, scoring.Weights(profile.Profile))

	var lastCleaned time.Time
	if p.Cleaning != nil {
		lastCleaned, _ = p.Cleaning.GetLastCleaned(id)
	}
	final := scoring.ApplyDecay(base, lastCleaned, now)

	res := domain.ScoreResult{
		DeviceID:        id,
		Timestamp:       now,
		Reading:         reading,
		ComponentScores: scores,
		BaseScore:       base,
		FinalScore:      final,
		DecayApplied:    scoring.Round2(base - final),
		Anomalies:       anomaly.Detect(reading, scores),
		Profile:         profile.Profile,
	}

	if p.Log != nil {
		p.call(ctx, "score_log", id, func(ctx context.Context) error {
			return p.Log.AppendScoreResult(ctx, res)
		})
	}
	if p.State != nil {
		st := domain.CurrentState{
			Score:           res.FinalScore,
			Timestamp:       res.Timestamp,
			ComponentScores: res.ComponentScores,
			Anomalies:       res.Anomalies,
		}
		p.call(ctx, "current_state", id, func(ctx context.Context) error {
			return p.State.SetCurrentState(ctx, id, st)
		})
	}

	alerted := false
	if n, fire := p.dispatcher().Evaluate(res, profile.AlertThreshold); fire {
		alerted = true
		if p.Notifier != nil {
			p.call(ctx, "notification", id, func(ctx context.Context) error {
				return p.Notifier.PushNotification(ctx, id, n)
			})
		}
		log.Warn().Str("washroom_id", id).Float64("score", res.FinalScore).Msg(n.Message)
	}

	if p.Scores != nil {
		p.Scores.Set(id, res.FinalScore)
	}

	components := zerolog.Dict()
	for _, c := range domain.Components {
		components.Float64(string(c), res.ComponentScores[c])
	}
	log.Info().
		Str("washroom_id", id).
		Str("profile", string(res.Profile)).
		Float64("score", res.FinalScore).
		Float64("base", res.BaseScore).
		Float64("decay", res.DecayApplied).
		Dict("components", components).
		Int("anomalies", len(res.Anomalies)).
		Bool("alert", alerted).
		Msg("reading processed")
	return res, nil
}

// HandleHeartbeat records device liveness from a heartbeat topic payload.
// Heartbeats are never scored.
func (p *Pipeline) HandleHeartbeat(ctx context.Context, payload []byte) error {
	msg, err := decodeMessage(payload)
	if err != nil {
		return err
	}
	return p.recordHeartbeat(ctx, msg)
}

func (p *Pipeline) recordHeartbeat(ctx context.Context, msg map[string]any) error {
	hb, err := parseHeartbeat(msg, p.now())
	if err != nil {
		return err
	}
	if p.State == nil {
		return nil
	}
	log.Debug().Str("washroom_id", hb.DeviceID).Int64("uptime_ms", hb.UptimeMS).Msg("heartbeat")
	write := func(ctx context.Context) error { return p.State.SetHeartbeat(ctx, hb.DeviceID, hb) }
	if p.Queue != nil {
		p.Queue.submit(sinkJob{sink: "heartbeat", id: hb.DeviceID, fn: write})
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	if err := write(ctx); err != nil {
		return fmt.Errorf("heartbeat %s: %w", hb.DeviceID, err)
	}
	return nil
}

// call hands a sink write to the queue, or runs it inline without one.
func (p *Pipeline) call(ctx context.Context, sink, id string, fn func(context.Context) error) {
	job := sinkJob{sink: sink, id: id, fn: fn}
	if p.Queue != nil {
		p.Queue.submit(job)
		return
	}
	runSink(ctx, p.timeout(), job)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func (p *Pipeline) timeout() time.Duration {
	if p.SinkTimeout > 0 {
		return p.SinkTimeout
	}
	return defaultSinkTimeout
}

func (p *Pipeline) dispatcher() *alerting.Dispatcher {
	if p.Dispatcher == nil {
		return alwaysDispatch
	}
	return p.Dispatcher
}
