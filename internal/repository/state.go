package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// StateRepo keeps the latest state and heartbeat per washroom.
type StateRepo struct {
	db *sqlx.DB
}

func (r *StateRepo) SetCurrentState(ctx context.Context, deviceID string, st domain.CurrentState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal current state: %w", err)
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO washroom_current(device_id, payload, updated_at) VALUES (?,?,?)
		 ON CONFLICT (device_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`),
		deviceID, string(payload), st.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("set current state %s: %w", deviceID, err)
	}
	return nil
}

func (r *StateRepo) SetHeartbeat(ctx context.Context, deviceID string, hb domain.Heartbeat) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO washroom_heartbeats(device_id, seen_at, uptime_ms, free_heap, wifi_connected) VALUES (?,?,?,?,?)
		 ON CONFLICT (device_id) DO UPDATE SET seen_at = excluded.seen_at, uptime_ms = excluded.uptime_ms,
		 free_heap = excluded.free_heap, wifi_connected = excluded.wifi_connected`),
		deviceID, hb.Timestamp.UTC(), hb.UptimeMS, hb.FreeHeap, hb.WifiConnected)
	if err != nil {
		return fmt.Errorf("set heartbeat %s: %w", deviceID, err)
	}
	return nil
}

// NotificationRepo appends hygiene alerts for the cleaner app to pick up.
type NotificationRepo struct {
	db *sqlx.DB
}

func (r *NotificationRepo) PushNotification(ctx context.Context, deviceID string, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO notifications(id, device_id, created_at, payload) VALUES (?,?,?,?)`),
		n.ID, deviceID, n.Timestamp.UTC(), string(payload))
	if err != nil {
		return fmt.Errorf("push notification %s: %w", deviceID, err)
	}
	return nil
}

// Recent returns the latest notifications for a device, newest first.
func (r *NotificationRepo) Recent(ctx context.Context, deviceID string, limit int) ([]domain.Notification, error) {
	var payloads []string
	err := r.db.SelectContext(ctx, &payloads, r.db.Rebind(
		`SELECT payload FROM notifications WHERE device_id = ? ORDER BY created_at DESC LIMIT ?`), deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications %s: %w", deviceID, err)
	}
	out := make([]domain.Notification, 0, len(payloads))
	for _, p := range payloads {
		var n domain.Notification
		if err := json.Unmarshal([]byte(p), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}
