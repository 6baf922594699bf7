// Package dashboard renders the last known hygiene score of every washroom.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/service"
)

type Status string

const (
	StatusGood Status = "GOOD"
	StatusFair Status = "FAIR"
	StatusPoor Status = "POOR"
)

func StatusOf(score float64) Status {
	switch {
	case score >= 70:
		return StatusGood
	case score >= 50:
		return StatusFair
	default:
		return StatusPoor
	}
}

type Row struct {
	DeviceID string  `json:"device_id"`
	Score    float64 `json:"score"`
	Status   Status  `json:"status"`
}

// Rows returns the snapshot sorted by device id.
func Rows(scores service.SnapshotReader) []Row {
	snap := scores.Snapshot()
	rows := make([]Row, 0, len(snap))
	for id, s := range snap {
		rows = append(rows, Row{DeviceID: id, Score: s, Status: StatusOf(s)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DeviceID < rows[j].DeviceID })
	return rows
}

var rule = strings.Repeat("=", 70)

// Render writes the console table. Nothing is written for an empty snapshot.
func Render(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nLIVE HYGIENE DASHBOARD\n%s\n", rule, rule)
	for _, r := range rows {
		fmt.Fprintf(&b, "%s: %s%% %s\n", r.DeviceID, strconv.FormatFloat(r.Score, 'f', -1, 64), r.Status)
	}
	fmt.Fprintf(&b, "%s\n", rule)
	_, err := io.WriteString(w, b.String())
	return err
}

// Refresher renders the dashboard every Interval until ctx is done.
type Refresher struct {
	Scores   service.SnapshotReader
	Interval time.Duration
	Out      io.Writer
}

func (r *Refresher) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = Render(r.Out, Rows(r.Scores))
		}
	}
}
