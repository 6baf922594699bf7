package service

import (
	"context"
	"errors"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// ProfileStore is the external per-device configuration store.
type ProfileStore interface {
	// Get returns domain.ErrNotFound for unknown devices.
	Get(ctx context.Context, deviceID string) (domain.DeviceProfile, error)
	// Create returns domain.ErrAlreadyExists if another writer created the profile first.
	Create(ctx context.Context, p domain.DeviceProfile) error
	Update(ctx context.Context, p domain.DeviceProfile) error
}

// ScoreLog is the append-only history of score results.
type ScoreLog interface {
	AppendScoreResult(ctx context.Context, res domain.ScoreResult) error
}

// StateStore holds the latest state and heartbeat per device.
type StateStore interface {
	SetCurrentState(ctx context.Context, deviceID string, st domain.CurrentState) error
	SetHeartbeat(ctx context.Context, deviceID string, hb domain.Heartbeat) error
}

type Notifier interface {
	PushNotification(ctx context.Context, deviceID string, n domain.Notification) error
}

// HistoryReader reads results recorded in [from, to), oldest first.
type HistoryReader interface {
	ResultsBetween(ctx context.Context, from, to time.Time) ([]domain.ScoreResult, error)
}

// NotificationFeed reads back pushed notifications, newest first.
type NotificationFeed interface {
	Recent(ctx context.Context, deviceID string, limit int) ([]domain.Notification, error)
}

// SnapshotReader exposes the last known score per device.
type SnapshotReader interface {
	Snapshot() map[string]float64
}

// CleaningReader is the read side of the cleaning state tracker.
type CleaningReader interface {
	GetLastCleaned(deviceID string) (time.Time, bool)
}

// Notifiers pushes to every notifier and joins their errors.
type Notifiers []Notifier

func (ns Notifiers) PushNotification(ctx context.Context, deviceID string, n domain.Notification) error {
	var errs []error
	for _, nt := range ns {
		if err := nt.PushNotification(ctx, deviceID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// States writes latest state to every store and joins their errors.
type States []StateStore

func (ss States) SetCurrentState(ctx context.Context, deviceID string, st domain.CurrentState) error {
	var errs []error
	for _, s := range ss {
		if err := s.SetCurrentState(ctx, deviceID, st); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ss States) SetHeartbeat(ctx context.Context, deviceID string, hb domain.Heartbeat) error {
	var errs []error
	for _, s := range ss {
		if err := s.SetHeartbeat(ctx, deviceID, hb); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
