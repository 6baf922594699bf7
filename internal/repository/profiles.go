package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

type ProfileRepo struct {
	db *sqlx.DB
}

func (r *ProfileRepo) Get(ctx context.Context, deviceID string) (domain.DeviceProfile, error) {
	var p domain.DeviceProfile
	err := r.db.GetContext(ctx, &p, r.db.Rebind(
		`SELECT device_id, profile, threshold, name, location FROM washroom_configs WHERE device_id = ?`), deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DeviceProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DeviceProfile{}, fmt.Errorf("get profile %s: %w", deviceID, err)
	}
	return p, nil
}

// Create inserts p unless a profile for the device already exists, in which
// case domain.ErrAlreadyExists is returned.
func (r *ProfileRepo) Create(ctx context.Context, p domain.DeviceProfile) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO washroom_configs(device_id, profile, threshold, name, location) VALUES (?,?,?,?,?)
		 ON CONFLICT (device_id) DO NOTHING`),
		p.DeviceID, string(p.Profile), p.AlertThreshold, p.DisplayName, p.Location)
	if err != nil {
		return fmt.Errorf("create profile %s: %w", p.DeviceID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *ProfileRepo) Update(ctx context.Context, p domain.DeviceProfile) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE washroom_configs SET profile = ?, threshold = ?, name = ?, location = ? WHERE device_id = ?`),
		string(p.Profile), p.AlertThreshold, p.DisplayName, p.Location, p.DeviceID)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", p.DeviceID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
