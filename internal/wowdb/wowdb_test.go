package wowdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "wow_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations_UpIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	// New already migrated; a second up must be a no-op.
	require.NoError(t, db.MigrateUp())

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)
}

func TestCreateSession_AssignsID(t *testing.T) {
	db := newTestDB(t)
	s := &Session{Source: "synthetic", Channels: "SCIOFMG", UpdateFactor: 0.95}
	require.NoError(t, db.CreateSession(s))
	require.NotEmpty(t, s.ID)
	require.NotZero(t, s.StartedUnixNanos)

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, s.ID, sessions[0].ID)
	require.Equal(t, "SCIOFMG", sessions[0].Channels)
}

func TestRecordAndRecentFrames(t *testing.T) {
	db := newTestDB(t)
	s := &Session{Source: "test", Channels: "IF", UpdateFactor: 0.9}
	require.NoError(t, db.CreateSession(s))

	for i := int64(0); i < 5; i++ {
		require.NoError(t, db.RecordFrame(&FrameRecord{
			SessionID:          s.ID,
			FrameIndex:         i,
			Wow:                float64(i) * 0.1,
			ChannelWows:        map[string]float64{"intensity": float64(i) * 0.05, "flicker": float64(i) * 0.05},
			Width:              40,
			Height:             30,
			ProcessedUnixNanos: 1000 + i,
		}))
	}

	recent, err := db.RecentFrames(s.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Newest first.
	require.Equal(t, int64(4), recent[0].FrameIndex)
	require.InDelta(t, 0.2, recent[0].ChannelWows["intensity"], 1e-12)

	all, err := db.RecentFrames("", 100)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestSessionStats(t *testing.T) {
	db := newTestDB(t)
	s := &Session{Source: "test", Channels: "S", UpdateFactor: 0.95}
	require.NoError(t, db.CreateSession(s))

	wows := []float64{0.5, 0.1, 0.3, 0.2, 0.4}
	for i, w := range wows {
		require.NoError(t, db.RecordFrame(&FrameRecord{
			SessionID: s.ID, FrameIndex: int64(i), Wow: w, Width: 8, Height: 8,
			ProcessedUnixNanos: int64(i) + 1,
		}))
	}

	stats, err := db.SessionStats(s.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stats.Count)
	require.InDelta(t, 0.3, stats.Mean, 1e-12)
	require.InDelta(t, 0.5, stats.Max, 1e-12)
	require.InDelta(t, 0.3, stats.P50, 1e-12)
	require.GreaterOrEqual(t, stats.P85, stats.P50)
	require.GreaterOrEqual(t, stats.P98, stats.P85)
}

func TestSessionStats_EmptySessionIsError(t *testing.T) {
	db := newTestDB(t)
	_, err := db.SessionStats("no-such-session")
	require.Error(t, err)
}
