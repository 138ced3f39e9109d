// Package config holds the runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/mudra/internal/export"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the full runtime configuration. Fields omitted from a config
// file keep their default values.
type Config struct {
	// Storage
	DataDir  string `json:"data_dir"`
	Database string `json:"database,omitempty"` // defaults to <data_dir>/mudra.db

	// Sensor replay
	TicksPath    string `json:"ticks_path,omitempty"`
	Video        string `json:"video,omitempty"` // device index or file
	Loop         bool   `json:"loop"`
	TickInterval string `json:"tick_interval"` // duration string like "33ms"
	ColorWidth   int    `json:"color_width"`
	ColorHeight  int    `json:"color_height"`

	// Pipeline
	Alpha          float64 `json:"alpha"`
	ROIScale       float64 `json:"roi_scale"`
	ROISize        int     `json:"roi_size"`
	MinPredict     int     `json:"min_predict"`
	MinOutput      int     `json:"min_output"`
	SkeletonTarget int     `json:"skeleton_target"`
	ImageTarget    int     `json:"image_target"`

	// Session defaults
	Mode       string `json:"mode"`
	LabelID    int    `json:"label_id"`
	Operator   string `json:"operator"`
	LabelsPath string `json:"labels_path,omitempty"`

	// Consumers
	ConsumerDir     string `json:"consumer_dir"`
	ConsumerTimeout string `json:"consumer_timeout"`

	// Surfaces
	Addr string `json:"addr"`
	Tray bool   `json:"tray"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:         "data",
		TickInterval:    "33ms",
		ColorWidth:      1920,
		ColorHeight:     1080,
		Alpha:           0.3,
		ROIScale:        1.15,
		ROISize:         96,
		MinPredict:      18,
		MinOutput:       35,
		SkeletonTarget:  35,
		ImageTarget:     35,
		Mode:            "off",
		Operator:        "anonymous",
		ConsumerDir:     "consumers",
		ConsumerTimeout: "5s",
		Addr:            ":8080",
		Tray:            true,
	}
}

// Load reads a JSON config file over the defaults.
// The file must have a .json extension and be at most 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1], got %f", c.Alpha)
	}
	if c.ROIScale <= 0 {
		return fmt.Errorf("roi_scale must be positive, got %f", c.ROIScale)
	}
	if c.ROISize <= 0 {
		return fmt.Errorf("roi_size must be positive, got %d", c.ROISize)
	}
	if c.ColorWidth <= 0 || c.ColorHeight <= 0 {
		return fmt.Errorf("color size must be positive, got %dx%d", c.ColorWidth, c.ColorHeight)
	}
	if c.MinPredict < 0 || c.MinOutput < 0 {
		return fmt.Errorf("minimum frame counts must be non-negative")
	}
	if c.SkeletonTarget < 1 || c.ImageTarget < 1 {
		return fmt.Errorf("standardized lengths must be at least 1, got %d and %d", c.SkeletonTarget, c.ImageTarget)
	}
	if err := export.CheckName(c.Operator); err != nil {
		return fmt.Errorf("operator: %w", err)
	}
	switch c.Mode {
	case "off", "predict", "output":
	default:
		return fmt.Errorf("mode must be off, predict or output, got %q", c.Mode)
	}
	if _, err := time.ParseDuration(c.TickInterval); err != nil {
		return fmt.Errorf("invalid tick_interval '%s': %w", c.TickInterval, err)
	}
	if _, err := time.ParseDuration(c.ConsumerTimeout); err != nil {
		return fmt.Errorf("invalid consumer_timeout '%s': %w", c.ConsumerTimeout, err)
	}
	return nil
}

// GetTickInterval returns the replay tick interval.
func (c *Config) GetTickInterval() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		return 33 * time.Millisecond
	}
	return d
}

// GetConsumerTimeout returns the per-consumer timeout.
func (c *Config) GetConsumerTimeout() time.Duration {
	d, err := time.ParseDuration(c.ConsumerTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// DatabasePath returns the SQLite file path.
func (c *Config) DatabasePath() string {
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(c.DataDir, "mudra.db")
}
