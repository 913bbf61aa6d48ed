package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "large-v3-turbo" || cfg.Quantization != "q5_0" {
		t.Fatalf("unexpected default model: %s %s", cfg.Model, cfg.Quantization)
	}
	if cfg.Shortcut.Binding != "CmdOrCtrl+Shift+Space" {
		t.Fatalf("unexpected default binding: %s", cfg.Shortcut.Binding)
	}
	if !cfg.Delivery.AutoCopy {
		t.Fatal("auto_copy should default on")
	}
	if cfg.Recordings.Keep {
		t.Fatal("keep recordings should default off")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MURMUR_LANGUAGE", "fr")
	t.Setenv("MURMUR_MODEL", "small")
	t.Setenv("MURMUR_SHORTCUT", "Ctrl+Alt+D")
	t.Setenv("MURMUR_AUTO_PASTE", "false")
	t.Setenv("MURMUR_FORCE_CPU", "true")
	t.Setenv("MURMUR_LONG_PRESS_MS", "350")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Language != "fr" || cfg.Model != "small" {
		t.Fatalf("expected language/model override, got %s %s", cfg.Language, cfg.Model)
	}
	if cfg.Shortcut.Binding != "Ctrl+Alt+D" {
		t.Fatalf("expected shortcut override, got %s", cfg.Shortcut.Binding)
	}
	if cfg.Delivery.AutoPaste {
		t.Fatal("expected auto_paste override false")
	}
	if !cfg.Engine.ForceCPU {
		t.Fatal("expected force_cpu override true")
	}
	if cfg.Shortcut.LongPressMS != 350 {
		t.Fatalf("expected long press override, got %d", cfg.Shortcut.LongPressMS)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Language = "de"
	cfg.Model = "small"
	cfg.Delivery.AutoPaste = false
	cfg.Recordings.Keep = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Language != "de" || got.Model != "small" || got.Delivery.AutoPaste || !got.Recordings.Keep {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "model") {
		t.Fatalf("expected model validation error, got %v", err)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Shortcut.LongPressMS = 0
	if err := Save(filepath.Join(t.TempDir(), "c.yaml"), cfg); err == nil {
		t.Fatal("expected validation error")
	}
}
