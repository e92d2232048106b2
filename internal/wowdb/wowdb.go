// Package wowdb persists per-frame surprise values and session metadata in
// sqlite. The schema is managed with golang-migrate from an embedded
// migrations directory.
package wowdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens the sqlite database without touching the schema. Use New for
// the common open-and-migrate path; Open exists for the migrate CLI, which
// manages the schema explicitly.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Frame recording is a single writer; avoid SQLITE_BUSY from the API
	// readers.
	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	return &DB{db}, nil
}

// New opens the database and brings the schema to the latest version.
func New(path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Session is one recording run of the surprise pipeline.
type Session struct {
	ID               string  `json:"session_id"`
	Source           string  `json:"source"`
	Channels         string  `json:"channels"`
	UpdateFactor     float64 `json:"update_factor"`
	StartedUnixNanos int64   `json:"started_unix_nanos"`
}

// FrameRecord is the surprise result of one processed frame.
type FrameRecord struct {
	SessionID          string             `json:"session_id"`
	FrameIndex         int64              `json:"frame_index"`
	Wow                float64            `json:"wow"`
	ChannelWows        map[string]float64 `json:"channel_wows,omitempty"`
	Width              int                `json:"width"`
	Height             int                `json:"height"`
	ProcessedUnixNanos int64              `json:"processed_unix_nanos"`
}

// CreateSession inserts a session row, assigning a fresh UUID and start
// time when unset.
func (db *DB) CreateSession(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedUnixNanos == 0 {
		s.StartedUnixNanos = time.Now().UnixNano()
	}
	_, err := db.Exec(
		`INSERT INTO surprise_sessions (session_id, source, channels, update_factor, started_unix_nanos)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Source, s.Channels, s.UpdateFactor, s.StartedUnixNanos)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Sessions lists recorded sessions, most recent first.
func (db *DB) Sessions() ([]Session, error) {
	rows, err := db.Query(
		`SELECT session_id, source, channels, update_factor, started_unix_nanos
		 FROM surprise_sessions ORDER BY started_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Source, &s.Channels, &s.UpdateFactor, &s.StartedUnixNanos); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordFrame inserts one frame result.
func (db *DB) RecordFrame(r *FrameRecord) error {
	if r.ProcessedUnixNanos == 0 {
		r.ProcessedUnixNanos = time.Now().UnixNano()
	}
	var channelJSON []byte
	if len(r.ChannelWows) > 0 {
		var err error
		if channelJSON, err = json.Marshal(r.ChannelWows); err != nil {
			return fmt.Errorf("failed to marshal channel wows: %w", err)
		}
	}
	_, err := db.Exec(
		`INSERT INTO surprise_frames (session_id, frame_index, wow, channel_wows_json, width, height, processed_unix_nanos)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.FrameIndex, r.Wow, nullableString(channelJSON), r.Width, r.Height, r.ProcessedUnixNanos)
	if err != nil {
		return fmt.Errorf("failed to insert frame: %w", err)
	}
	return nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// RecentFrames returns up to limit frames for a session, newest first. An
// empty sessionID means frames from all sessions.
func (db *DB) RecentFrames(sessionID string, limit int) ([]FrameRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT session_id, frame_index, wow, channel_wows_json, width, height, processed_unix_nanos
	          FROM surprise_frames`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY processed_unix_nanos DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var out []FrameRecord
	for rows.Next() {
		var r FrameRecord
		var channelJSON sql.NullString
		if err := rows.Scan(&r.SessionID, &r.FrameIndex, &r.Wow, &channelJSON,
			&r.Width, &r.Height, &r.ProcessedUnixNanos); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		if channelJSON.Valid && channelJSON.String != "" {
			if err := json.Unmarshal([]byte(channelJSON.String), &r.ChannelWows); err != nil {
				return nil, fmt.Errorf("failed to unmarshal channel wows: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionWows returns a session's wow values in frame order.
func (db *DB) SessionWows(sessionID string) ([]float64, error) {
	rows, err := db.Query(
		`SELECT wow FROM surprise_frames WHERE session_id = ? ORDER BY frame_index ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wows: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var w float64
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan wow: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
