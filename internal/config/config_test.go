package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Alpha != 0.3 {
		t.Errorf("Alpha = %f, want 0.3", cfg.Alpha)
	}
	if cfg.MinPredict != 18 || cfg.MinOutput != 35 {
		t.Errorf("minimums = %d/%d, want 18/35", cfg.MinPredict, cfg.MinOutput)
	}
	if cfg.SkeletonTarget != 35 || cfg.ImageTarget != 35 {
		t.Errorf("targets = %d/%d, want 35/35", cfg.SkeletonTarget, cfg.ImageTarget)
	}
	if cfg.GetTickInterval() != 33*time.Millisecond {
		t.Errorf("GetTickInterval() = %v, want 33ms", cfg.GetTickInterval())
	}
	if cfg.GetConsumerTimeout() != 5*time.Second {
		t.Errorf("GetConsumerTimeout() = %v, want 5s", cfg.GetConsumerTimeout())
	}
	if cfg.DatabasePath() != filepath.Join("data", "mudra.db") {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

func TestLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mudra.json")

	testJSON := `{
  "data_dir": "/srv/dataset",
  "mode": "output",
  "operator": "kyg",
  "label_id": 4,
  "tick_interval": "16ms",
  "tray": false
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DataDir != "/srv/dataset" || cfg.Mode != "output" || cfg.Operator != "kyg" || cfg.LabelID != 4 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.Tray {
		t.Error("Tray should be false")
	}
	if cfg.GetTickInterval() != 16*time.Millisecond {
		t.Errorf("GetTickInterval() = %v, want 16ms", cfg.GetTickInterval())
	}

	// Omitted fields keep defaults.
	if cfg.ROISize != 96 || cfg.Alpha != 0.3 {
		t.Errorf("defaults not kept: roi_size=%d alpha=%f", cfg.ROISize, cfg.Alpha)
	}
	if cfg.DatabasePath() != filepath.Join("/srv/dataset", "mudra.db") {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "mudra.yaml", "{}", ".json extension"},
		{"invalid json", "bad.json", "{", "failed to parse"},
		{"invalid alpha", "alpha.json", `{"alpha": 1.5}`, "alpha"},
		{"invalid mode", "mode.json", `{"mode": "train"}`, "mode"},
		{"invalid duration", "dur.json", `{"consumer_timeout": "soon"}`, "consumer_timeout"},
		{"zero target", "target.json", `{"skeleton_target": 0}`, "standardized lengths"},
		{"path operator", "op.json", `{"operator": "../kyg"}`, "operator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	data := make([]byte, maxFileSize+1)
	for i := range data {
		data[i] = ' '
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}
