package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such.yaml"))
	if err != nil {
		t.Fatalf("Load() of missing file failed: %v", err)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.PollInterval() != 100*time.Millisecond {
		t.Errorf("PollInterval() = %v, want 100ms", cfg.PollInterval())
	}
	if cfg.DataDir == "" {
		t.Error("default DataDir is empty")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "data_dir: /tmp/stash-test\nlisten: \"127.0.0.1:9999\"\npoll_interval_ms: 250\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.DataDir != "/tmp/stash-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Errorf("PollInterval() = %v", cfg.PollInterval())
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("writing config failed: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("Load(malformed) = %v, want ErrConfigInvalid", err)
	}
}

func TestLoad_EmptyDataDirRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: \"\"\n"), 0o644); err != nil {
		t.Fatalf("writing config failed: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("Load(empty data_dir) = %v, want ErrConfigInvalid", err)
	}
}
