// Package config holds the user-facing settings file. YAML on disk,
// MURMUR_* environment variables on top, validation last.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ShortcutConfig struct {
	Binding     string   `yaml:"binding"`
	Fallbacks   []string `yaml:"fallbacks"`
	LongPressMS int      `yaml:"long_press_ms"`
}

type DeliveryConfig struct {
	AutoCopy       bool `yaml:"auto_copy"`
	AutoPaste      bool `yaml:"auto_paste"`
	RestoreDelayMS int  `yaml:"restore_delay_ms"`
}

type EngineConfig struct {
	ForceCPU bool `yaml:"force_cpu"`
}

type HistoryConfig struct {
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

type RecordingsConfig struct {
	Keep bool   `yaml:"keep"`
	Dir  string `yaml:"dir"`
}

type Config struct {
	Language     string           `yaml:"language"` // empty means auto-detect
	Model        string           `yaml:"model"`
	Quantization string           `yaml:"quantization"`
	ModelsDir    string           `yaml:"models_dir"`
	Device       string           `yaml:"device"` // empty means system default
	Shortcut     ShortcutConfig   `yaml:"shortcut"`
	Delivery     DeliveryConfig   `yaml:"delivery"`
	Engine       EngineConfig     `yaml:"engine"`
	History      HistoryConfig    `yaml:"history"`
	Recordings   RecordingsConfig `yaml:"recordings"`
}

// DataDir is where models, history, and recordings live by default.
func DataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "murmur")
}

// DefaultPath is the conventional settings file location.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

func Default() Config {
	data := DataDir()
	return Config{
		Language:     "",
		Model:        "large-v3-turbo",
		Quantization: "q5_0",
		ModelsDir:    filepath.Join(data, "models"),
		Shortcut: ShortcutConfig{
			Binding: "CmdOrCtrl+Shift+Space",
			Fallbacks: []string{
				"CmdOrCtrl+Alt+Space",
				"CmdOrCtrl+Shift+S",
			},
			LongPressMS: 500,
		},
		Delivery: DeliveryConfig{
			AutoCopy:       true,
			AutoPaste:      true,
			RestoreDelayMS: 600,
		},
		History: HistoryConfig{
			Path:       filepath.Join(data, "history.db"),
			MaxEntries: 1000,
		},
		Recordings: RecordingsConfig{
			Keep: false,
			Dir:  filepath.Join(data, "recordings"),
		},
	}
}

// Load reads path (when non-empty), applies MURMUR_* overrides, and
// validates. Load("") gives defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Language, "MURMUR_LANGUAGE")
	overrideString(&cfg.Model, "MURMUR_MODEL")
	overrideString(&cfg.Quantization, "MURMUR_QUANT")
	overrideString(&cfg.ModelsDir, "MURMUR_MODELS_DIR")
	overrideString(&cfg.Device, "MURMUR_DEVICE")
	overrideString(&cfg.Shortcut.Binding, "MURMUR_SHORTCUT")
	overrideInt(&cfg.Shortcut.LongPressMS, "MURMUR_LONG_PRESS_MS")
	overrideBool(&cfg.Delivery.AutoCopy, "MURMUR_AUTO_COPY")
	overrideBool(&cfg.Delivery.AutoPaste, "MURMUR_AUTO_PASTE")
	overrideInt(&cfg.Delivery.RestoreDelayMS, "MURMUR_RESTORE_DELAY_MS")
	overrideBool(&cfg.Engine.ForceCPU, "MURMUR_FORCE_CPU")
	overrideString(&cfg.History.Path, "MURMUR_HISTORY_PATH")
	overrideInt(&cfg.History.MaxEntries, "MURMUR_HISTORY_MAX_ENTRIES")
	overrideBool(&cfg.Recordings.Keep, "MURMUR_KEEP_RECORDINGS")
	overrideString(&cfg.Recordings.Dir, "MURMUR_RECORDINGS_DIR")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.Model == "" {
		return errors.New("model must not be empty")
	}
	if cfg.Quantization == "" {
		return errors.New("quantization must not be empty")
	}
	if cfg.ModelsDir == "" {
		return errors.New("models_dir must not be empty")
	}
	if cfg.Shortcut.Binding == "" {
		return errors.New("shortcut.binding must not be empty")
	}
	if cfg.Shortcut.LongPressMS <= 0 {
		return errors.New("shortcut.long_press_ms must be positive")
	}
	if cfg.Delivery.RestoreDelayMS < 0 {
		return errors.New("delivery.restore_delay_ms must be >= 0")
	}
	if cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	if cfg.History.MaxEntries < 0 {
		return errors.New("history.max_entries must be >= 0")
	}
	if cfg.Recordings.Keep && cfg.Recordings.Dir == "" {
		return errors.New("recordings.dir must not be empty when recordings are kept")
	}
	return nil
}
