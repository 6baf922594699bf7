// Package realtime mirrors the latest washroom state into Redis for live
// consumers such as the cleaner app.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

const (
	// HeartbeatTTL expires the liveness record of a silent device.
	HeartbeatTTL = 10 * time.Minute
	// maxNotifications bounds each washroom's notification list.
	maxNotifications = 100
)

func currentKey(id string) string       { return "washroom:" + id + ":current" }
func heartbeatKey(id string) string     { return "washroom:" + id + ":last_heartbeat" }
func notificationsKey(id string) string { return "notifications:" + id }

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store { return &Store{kv: kv} }

func (s *Store) SetCurrentState(ctx context.Context, deviceID string, st domain.CurrentState) error {
	return s.setJSON(ctx, currentKey(deviceID), st, 0)
}

func (s *Store) SetHeartbeat(ctx context.Context, deviceID string, hb domain.Heartbeat) error {
	return s.setJSON(ctx, heartbeatKey(deviceID), hb, HeartbeatTTL)
}

func (s *Store) PushNotification(ctx context.Context, deviceID string, n domain.Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.kv.Append(ctx, notificationsKey(deviceID), string(b), maxNotifications); err != nil {
		return fmt.Errorf("redis push notification %s: %w", deviceID, err)
	}
	return nil
}

// CurrentState returns domain.ErrNotFound when the device has no state yet.
func (s *Store) CurrentState(ctx context.Context, deviceID string) (domain.CurrentState, error) {
	var st domain.CurrentState
	err := s.getJSON(ctx, currentKey(deviceID), &st)
	return st, err
}

func (s *Store) LastHeartbeat(ctx context.Context, deviceID string) (domain.Heartbeat, error) {
	var hb domain.Heartbeat
	err := s.getJSON(ctx, heartbeatKey(deviceID), &hb)
	return hb, err
}

// Recent returns up to limit newest notifications, newest first.
func (s *Store) Recent(ctx context.Context, deviceID string, limit int) ([]domain.Notification, error) {
	raw, err := s.kv.Tail(ctx, notificationsKey(deviceID), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("redis notifications %s: %w", deviceID, err)
	}
	out := make([]domain.Notification, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var n domain.Notification
		if err := json.Unmarshal([]byte(raw[i]), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(b), ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
