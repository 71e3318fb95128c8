// internal/config_test.go
package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.BackendOrder) == 0 {
		t.Fatal("no default backend order")
	}
	for _, name := range cfg.BackendOrder {
		if _, ok := backendRegistry[name]; !ok {
			t.Errorf("default backend order names unknown backend %q", name)
		}
	}
	if cfg.Output.DescWrap != 80 || cfg.Output.DescIndent != 10 {
		t.Errorf("output defaults = %+v", cfg.Output)
	}
	if cfg.AUR.SourceTimeoutSeconds <= 0 {
		t.Error("recipe sourcing must have a timeout")
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aurora.yaml")
	content := "backend_order: [alpm, aur]\npacman:\n  sync_precheck: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.BackendOrder) != 2 || cfg.BackendOrder[0] != "alpm" {
		t.Errorf("backend_order = %v", cfg.BackendOrder)
	}
	if cfg.Pacman.SyncPrecheck {
		t.Error("sync_precheck override lost")
	}
	// Untouched values keep their defaults.
	if cfg.Pacman.Binary != "/usr/bin/pacman" {
		t.Errorf("binary = %q", cfg.Pacman.Binary)
	}
	if cfg.Output.DescWrap != 80 {
		t.Errorf("desc_wrap = %d", cfg.Output.DescWrap)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrNoConfig) {
		t.Fatalf("want ErrNoConfig, got %v", err)
	}
}

func TestConfigDumpRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackendOrder = []string{"aur"}

	var buf bytes.Buffer
	if err := cfg.Dump(&buf); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "aurora.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.BackendOrder) != 1 || loaded.BackendOrder[0] != "aur" {
		t.Errorf("backend_order = %v", loaded.BackendOrder)
	}
	if loaded.AUR.RPCURL != cfg.AUR.RPCURL {
		t.Errorf("rpc_url = %q", loaded.AUR.RPCURL)
	}
}
