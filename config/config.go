// Package config loads and saves persistent tool settings in TOML.
//
// The file carries the defaults applied at startup; everything in it can
// still be changed at runtime without touching the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
)

// Config is the on-disk configuration. Zero values mean "use the built-in
// default" for every field.
type Config struct {
	// Backend names the rendering backend selected at startup. Empty
	// selects the preferred usable backend.
	Backend string `toml:"backend"`

	// SampleText is the startup sample string.
	SampleText string `toml:"sample_text"`

	// FontSize is the startup font size in points.
	FontSize float64 `toml:"font_size"`

	// Foreground and Background are hex colors ("#rrggbb" or "#rrggbbaa").
	// An empty Background means transparent.
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`

	// Padding is the border around rendered text, in pixels.
	Padding int `toml:"padding"`
}

// Default returns the built-in configuration.
func Default() Config {
	s := fontproof.DefaultSettings()
	return Config{
		SampleText: s.SampleText,
		FontSize:   s.FontSize,
		Foreground: s.Foreground.Hex(),
		Padding:    s.Padding,
	}
}

// DefaultPath returns the conventional location of the config file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolving config directory: %v", fontproof.ErrIO, err)
	}
	return filepath.Join(dir, "fontproof", "config.toml"), nil
}

// Load reads the configuration at path. A missing file yields the defaults
// without error; a present but malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%w: reading %s: %v", fontproof.ErrIO, path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("fontproof: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", fontproof.ErrIO, filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", fontproof.ErrIO, path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("fontproof: encoding config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", fontproof.ErrIO, path, err)
	}
	return nil
}

// Validate checks the configuration fields that have constrained values.
func (c Config) Validate() error {
	if c.Backend != "" && !isKnownBackend(c.Backend) {
		return fmt.Errorf("fontproof: unknown backend %q in config", c.Backend)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("fontproof: font size must be > 0, got %v", c.FontSize)
	}
	if c.Padding < 0 {
		return fmt.Errorf("fontproof: padding must be >= 0, got %d", c.Padding)
	}
	if c.Foreground != "" {
		if _, err := fontproof.ParseHex(c.Foreground); err != nil {
			return err
		}
	}
	if c.Background != "" {
		if _, err := fontproof.ParseHex(c.Background); err != nil {
			return err
		}
	}
	return nil
}

// Settings converts the configuration into startup render settings.
func (c Config) Settings() (fontproof.RenderSettings, error) {
	s := fontproof.DefaultSettings()
	if c.SampleText != "" {
		s.SampleText = c.SampleText
	}
	if c.FontSize > 0 {
		s.FontSize = c.FontSize
	}
	if c.Padding >= 0 {
		s.Padding = c.Padding
	}
	s.Backend = c.Backend

	if c.Foreground != "" {
		fg, err := fontproof.ParseHex(c.Foreground)
		if err != nil {
			return s, err
		}
		s.Foreground = fg
	}
	if c.Background != "" {
		bg, err := fontproof.ParseHex(c.Background)
		if err != nil {
			return s, err
		}
		s.Background = &bg
	}
	return s, nil
}

func isKnownBackend(name string) bool {
	for _, id := range backend.Known() {
		if string(id) == name {
			return true
		}
	}
	return false
}
