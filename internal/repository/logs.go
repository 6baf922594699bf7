package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// LogRepo is the append-only history of score results.
type LogRepo struct {
	db *sqlx.DB
}

type logRow struct {
	DeviceID        string    `db:"device_id"`
	RecordedAt      time.Time `db:"recorded_at"`
	Profile         string    `db:"profile"`
	BaseScore       float64   `db:"base_score"`
	FinalScore      float64   `db:"final_score"`
	DecayApplied    float64   `db:"decay_applied"`
	SensorData      string    `db:"sensor_data"`
	ComponentScores string    `db:"component_scores"`
	Anomalies       string    `db:"anomalies"`
}

func (r *LogRepo) AppendScoreResult(ctx context.Context, res domain.ScoreResult) error {
	row, err := toLogRow(res)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO hygiene_logs(device_id, recorded_at, profile, base_score, final_score, decay_applied, sensor_data, component_scores, anomalies)
		 VALUES (:device_id, :recorded_at, :profile, :base_score, :final_score, :decay_applied, :sensor_data, :component_scores, :anomalies)`, row)
	if err != nil {
		return fmt.Errorf("append hygiene log %s: %w", res.DeviceID, err)
	}
	return nil
}

// ResultsBetween returns results recorded in [from, to) ordered by time.
func (r *LogRepo) ResultsBetween(ctx context.Context, from, to time.Time) ([]domain.ScoreResult, error) {
	var rows []logRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT device_id, recorded_at, profile, base_score, final_score, decay_applied, sensor_data, component_scores, anomalies
		 FROM hygiene_logs WHERE recorded_at >= ? AND recorded_at < ? ORDER BY recorded_at`), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query hygiene logs: %w", err)
	}
	out := make([]domain.ScoreResult, 0, len(rows))
	for _, row := range rows {
		res, err := row.toResult()
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func toLogRow(res domain.ScoreResult) (logRow, error) {
	sensor, err := json.Marshal(res.Reading)
	if err != nil {
		return logRow{}, fmt.Errorf("marshal sensor data: %w", err)
	}
	scores, err := json.Marshal(res.ComponentScores)
	if err != nil {
		return logRow{}, fmt.Errorf("marshal component scores: %w", err)
	}
	anomalies := res.Anomalies
	if anomalies == nil {
		anomalies = []domain.Anomaly{}
	}
	an, err := json.Marshal(anomalies)
	if err != nil {
		return logRow{}, fmt.Errorf("marshal anomalies: %w", err)
	}
	return logRow{
		DeviceID:        res.DeviceID,
		RecordedAt:      res.Timestamp.UTC(),
		Profile:         string(res.Profile),
		BaseScore:       res.BaseScore,
		FinalScore:      res.FinalScore,
		DecayApplied:    res.DecayApplied,
		SensorData:      string(sensor),
		ComponentScores: string(scores),
		Anomalies:       string(an),
	}, nil
}

func (row logRow) toResult() (domain.ScoreResult, error) {
	res := domain.ScoreResult{
		DeviceID:     row.DeviceID,
		Timestamp:    row.RecordedAt,
		Profile:      domain.ProfileName(row.Profile),
		BaseScore:    row.BaseScore,
		FinalScore:   row.FinalScore,
		DecayApplied: row.DecayApplied,
	}
	if err := json.Unmarshal([]byte(row.SensorData), &res.Reading); err != nil {
		return res, fmt.Errorf("decode sensor data: %w", err)
	}
	if err := json.Unmarshal([]byte(row.ComponentScores), &res.ComponentScores); err != nil {
		return res, fmt.Errorf("decode component scores: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Anomalies), &res.Anomalies); err != nil {
		return res, fmt.Errorf("decode anomalies: %w", err)
	}
	return res, nil
}
