// Package config loads panelviz.toml and watches it for edits.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/panelviz/internal/capture"
	"github.com/olivier-w/panelviz/internal/effect"
)

// Sidechain binds a capture device to a panel slot.
type Sidechain struct {
	Slot   string `toml:"slot"`
	Device string `toml:"device"`
}

// Config is the file form of every setting. Flags override it.
type Config struct {
	FPS        int         `toml:"fps"`
	LightMode  bool        `toml:"light_mode"`
	ShowValues bool        `toml:"show_values"`
	Accent     string      `toml:"accent"`
	Background string      `toml:"background"`
	StateFile  string      `toml:"state_file"`
	LogFile    string      `toml:"log_file"`
	LogLevel   string      `toml:"log_level"`
	StatusAddr string      `toml:"status_addr"`
	NoAudio    bool        `toml:"no_audio"`
	Sidechains []Sidechain `toml:"sidechain"`
}

// Dir is the per-user panelviz directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "panelviz")
}

// DefaultPath is where the config file lives unless --config says otherwise.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		FPS:        60,
		ShowValues: true,
		Accent:     "#ffffff",
		Background: "#000000",
		StateFile:  filepath.Join(Dir(), "state.json"),
		LogLevel:   "info",
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Default(), fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c Config) Validate() error {
	if c.FPS < 1 || c.FPS > 240 {
		return fmt.Errorf("fps must be between 1 and 240, got %d", c.FPS)
	}
	if _, err := effect.ParseColor(c.Accent); err != nil {
		return fmt.Errorf("accent: %w", err)
	}
	if _, err := effect.ParseColor(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := c.Bindings(); err != nil {
		return err
	}
	return nil
}

// Bindings converts the sidechain tables.
func (c Config) Bindings() ([]capture.Binding, error) {
	out := make([]capture.Binding, 0, len(c.Sidechains))
	for _, s := range c.Sidechains {
		b, err := capture.ParseBinding(s.Slot + "=" + s.Device)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := capture.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Appearance is the part of the config the editor applies live.
type Appearance struct {
	LightMode  bool
	ShowValues bool
	Accent     string
	Background string
}

func (c Config) Appearance() Appearance {
	return Appearance{
		LightMode:  c.LightMode,
		ShowValues: c.ShowValues,
		Accent:     c.Accent,
		Background: c.Background,
	}
}
