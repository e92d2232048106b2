// Package config loads file-based tuning for the surprise pipeline. The
// schema matches the /api/params endpoint so the same JSON can seed a run
// and drive runtime updates.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrel-vision/surprise/internal/surprise"
)

// TuningConfig holds startup tuning parameters. All fields are pointers so
// a partial config only overrides what it names.
type TuningConfig struct {
	// Engine params
	UpdateFactor *float64 `json:"updatefac,omitempty"`
	Channels     *string  `json:"channels,omitempty"`

	// Extraction params
	CellSize *int `json:"cell_size,omitempty"`

	// Frame loop params
	Interval  *string `json:"interval,omitempty"` // duration string like "33ms"
	MaxFrames *int    `json:"max_frames,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON keep whatever the caller already has, so partial configs
// are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every field that is present. Engine params are checked
// with the same rules the engine itself applies, so a config that loads
// here will also be accepted at startup.
func (c *TuningConfig) Validate() error {
	params := surprise.DefaultParams()
	if c.UpdateFactor != nil {
		params.UpdateFactor = *c.UpdateFactor
	}
	if c.Channels != nil {
		params.Channels = *c.Channels
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if c.CellSize != nil && *c.CellSize <= 0 {
		return fmt.Errorf("cell_size must be positive, got %d", *c.CellSize)
	}
	if c.Interval != nil {
		d, err := time.ParseDuration(*c.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", *c.Interval, err)
		}
		if d <= 0 {
			return fmt.Errorf("interval must be positive, got %s", d)
		}
	}
	if c.MaxFrames != nil && *c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must be non-negative, got %d", *c.MaxFrames)
	}
	return nil
}

// ParsedInterval returns the interval as a duration, or ok=false when the
// config leaves it unset. Validate must have passed first.
func (c *TuningConfig) ParsedInterval() (time.Duration, bool) {
	if c.Interval == nil {
		return 0, false
	}
	d, err := time.ParseDuration(*c.Interval)
	if err != nil {
		return 0, false
	}
	return d, true
}
