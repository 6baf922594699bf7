package service

import (
	"context"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/alerting"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/cleaning"
)

// Deps are the external stores the services are built on.
type Deps struct {
	Profiles ProfileStore
	Log      ScoreLog
	State    StateStore
	Notifier Notifier
	History  HistoryReader
	Feed     NotificationFeed

	SinkTimeout   time.Duration
	AlertCooldown time.Duration
	// SinkQueue is the capacity of the async sink queue; zero writes inline.
	SinkQueue int
}

type Services struct {
	Pipeline *Pipeline
	Profiles *ProfileResolver
	Cleaning *cleaning.Tracker
	Scores   *ScoreCache
	History  HistoryReader
	Feed     NotificationFeed
	Readings *ReadingService
	// Sinks is nil when writes run inline. Its Run must be started by the caller.
	Sinks *SinkQueue
}

func New(d Deps) *Services {
	var policy alerting.DedupPolicy
	if d.AlertCooldown > 0 {
		policy = alerting.NewCooldown(d.AlertCooldown)
	}

	profiles := NewProfileResolver(d.Profiles, d.SinkTimeout)
	tracker := cleaning.NewTracker()
	scores := NewScoreCache()
	p := &Pipeline{
		Profiles:    profiles,
		Cleaning:    tracker,
		Dispatcher:  alerting.NewDispatcher(policy),
		Scores:      scores,
		Log:         d.Log,
		State:       d.State,
		Notifier:    d.Notifier,
		SinkTimeout: d.SinkTimeout,
	}
	if d.SinkQueue > 0 {
		p.Queue = NewSinkQueue(d.SinkQueue, d.SinkTimeout)
	}
	return &Services{
		Pipeline: p,
		Profiles: profiles,
		Cleaning: tracker,
		Scores:   scores,
		History:  d.History,
		Feed:     d.Feed,
		Readings: &ReadingService{pipeline: p},
		Sinks:    p.Queue,
	}
}

// ReadingService adapts MQTT deliveries to the pipeline.
type ReadingService struct {
	pipeline *Pipeline
}

func (s *ReadingService) FromMQTT(topic string, payload []byte) error {
	ctx := context.Background()
	if strings.HasSuffix(topic, "/heartbeat") {
		return s.pipeline.HandleHeartbeat(ctx, payload)
	}
	return s.pipeline.HandleMessage(ctx, payload)
}
