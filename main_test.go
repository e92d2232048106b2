package main

import (
	"flag"
	"testing"
	"time"

	"github.com/kestrel-vision/surprise/internal/config"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

func TestApplyConfig_OverlaysUnsetFlags(t *testing.T) {
	origUpdateFac, origChannels := *updateFac, *channels
	origInterval, origCellSize := *interval, *cellSize
	t.Cleanup(func() {
		*updateFac, *channels = origUpdateFac, origChannels
		*interval, *cellSize = origInterval, origCellSize
	})

	cfg := &config.TuningConfig{
		UpdateFactor: ptrFloat64(0.8),
		Channels:     ptrString("SCI"),
		CellSize:     ptrInt(16),
		Interval:     ptrString("50ms"),
	}
	applyConfig(cfg)

	if *updateFac != 0.8 {
		t.Errorf("updatefac = %v, want 0.8", *updateFac)
	}
	if *channels != "SCI" {
		t.Errorf("channels = %q, want SCI", *channels)
	}
	if *cellSize != 16 {
		t.Errorf("cell-size = %d, want 16", *cellSize)
	}
	if *interval != 50*time.Millisecond {
		t.Errorf("interval = %v, want 50ms", *interval)
	}
}

func TestApplyConfig_ExplicitFlagWins(t *testing.T) {
	origUpdateFac, origChannels := *updateFac, *channels
	t.Cleanup(func() {
		*updateFac, *channels = origUpdateFac, origChannels
	})

	if err := flag.Set("updatefac", "0.5"); err != nil {
		t.Fatal(err)
	}

	cfg := &config.TuningConfig{
		UpdateFactor: ptrFloat64(0.8),
		Channels:     ptrString("SCI"),
	}
	applyConfig(cfg)

	if *updateFac != 0.5 {
		t.Errorf("updatefac = %v, want explicit 0.5 to win", *updateFac)
	}
	if *channels != "SCI" {
		t.Errorf("channels = %q, want config SCI to apply", *channels)
	}
}
