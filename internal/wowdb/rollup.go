package wowdb

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WowStats summarizes the wow distribution of one session.
type WowStats struct {
	SessionID string  `json:"session_id"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean_wow"`
	Max       float64 `json:"max_wow"`
	P50       float64 `json:"p50_wow"`
	P85       float64 `json:"p85_wow"`
	P98       float64 `json:"p98_wow"`
}

// SessionStats computes rollup statistics over a session's recorded frames.
func (db *DB) SessionStats(sessionID string) (*WowStats, error) {
	wows, err := db.SessionWows(sessionID)
	if err != nil {
		return nil, err
	}
	if len(wows) == 0 {
		return nil, fmt.Errorf("no frames recorded for session %s", sessionID)
	}

	sorted := append([]float64(nil), wows...)
	sort.Float64s(sorted)

	return &WowStats{
		SessionID: sessionID,
		Count:     len(wows),
		Mean:      stat.Mean(wows, nil),
		Max:       sorted[len(sorted)-1],
		P50:       stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P85:       stat.Quantile(0.85, stat.Empirical, sorted, nil),
		P98:       stat.Quantile(0.98, stat.Empirical, sorted, nil),
	}, nil
}
