package alerting

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// DedupPolicy decides whether a firing notification is emitted.
type DedupPolicy interface {
	Allow(n domain.Notification) bool
}

// AlwaysNotify emits every firing notification.
type AlwaysNotify struct{}

func (AlwaysNotify) Allow(domain.Notification) bool { return true }

// Cooldown suppresses notifications for a device until Window has passed
// since the last emitted one.
type Cooldown struct {
	Window time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{Window: window, last: make(map[string]time.Time)}
}

func (c *Cooldown) Allow(n domain.Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.last[n.DeviceID]; ok && n.Timestamp.Sub(prev) < c.Window {
		return false
	}
	c.last[n.DeviceID] = n.Timestamp
	return true
}

type Dispatcher struct {
	policy DedupPolicy
}

// NewDispatcher returns a dispatcher using policy; nil means AlwaysNotify.
func NewDispatcher(policy DedupPolicy) *Dispatcher {
	if policy == nil {
		policy = AlwaysNotify{}
	}
	return &Dispatcher{policy: policy}
}

// Evaluate returns a hygiene alert when the final score is strictly below
// threshold and the dedup policy lets it through.
func (d *Dispatcher) Evaluate(res domain.ScoreResult, threshold float64) (domain.Notification, bool) {
	if res.FinalScore >= threshold {
		return domain.Notification{}, false
	}
	anomalies := make([]domain.Anomaly, len(res.Anomalies))
	copy(anomalies, res.Anomalies)

	n := domain.Notification{
		ID:        uuid.NewString(),
		DeviceID:  res.DeviceID,
		Timestamp: res.Timestamp,
		Kind:      domain.NotificationHygieneAlert,
		Score:     res.FinalScore,
		Message:   Message(res.FinalScore),
		Anomalies: anomalies,
	}
	if !d.policy.Allow(n) {
		return domain.Notification{}, false
	}
	return n, true
}

func Message(score float64) string {
	return fmt.Sprintf("Hygiene score dropped to %s%%. Immediate cleaning required.", strconv.FormatFloat(score, 'f', -1, 64))
}
