// Package config handles loading, validating and watching the histshell
// configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultPopupTimeout     = 5 * time.Second
	DefaultMaxVisiblePopups = 3
	DefaultPopupSpacing     = 8
	DefaultHistoryLength    = 50
	DefaultMarginTop        = 10
	DefaultMarginRight      = 15
	DefaultPopupWidth       = 360
	DefaultFetchTimeout     = 5 * time.Second
	DefaultTheme            = "default"
	DefaultVolume           = 80
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// strings like "5s" or "1m30s", or from integer milliseconds.
// Zero or a negative value disables whatever the duration controls.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Milliseconds returns the duration in milliseconds.
func (d Duration) Milliseconds() int {
	return int(time.Duration(d).Milliseconds())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the histshell configuration.
// Loaded from $XDG_CONFIG_HOME/histshell/histshell.toml.
type Config struct {
	Notifications NotificationsConfig `toml:"notifications"`
	Display       DisplayConfig       `toml:"display"`
	Menu          MenuConfig          `toml:"menu"`
	Theme         ThemeConfig         `toml:"theme"`
	Audio         AudioConfig         `toml:"audio"`
}

// NotificationsConfig controls popup lifecycle and history.
type NotificationsConfig struct {
	PopupTimeout     Duration `toml:"popup_timeout"`      // <= 0 never auto-dismisses
	MaxVisiblePopups int      `toml:"max_visible_popups"` // oldest popup is evicted beyond this
	PopupSpacing     int      `toml:"popup_spacing"`      // pixels between stacked popups
	ShowActions      bool     `toml:"show_actions"`
	HistoryLength    int      `toml:"history_length"`
}

// DisplayConfig places popups on screen.
type DisplayConfig struct {
	MarginTop   int `toml:"margin_top"`
	MarginRight int `toml:"margin_right"`
	Width       int `toml:"width"`
	Monitor     int `toml:"monitor"` // 0 = compositor default, 1+ = specific monitor
}

// MenuConfig controls the tray menu window and the layout fetch.
type MenuConfig struct {
	MarginTop    int      `toml:"margin_top"`
	MarginRight  int      `toml:"margin_right"`
	MaxDepth     int      `toml:"max_depth"` // 0 = unlimited
	MaxNodes     int      `toml:"max_nodes"` // 0 = unlimited
	FetchTimeout Duration `toml:"fetch_timeout"`
}

// ThemeConfig selects the stylesheet.
type ThemeConfig struct {
	Name        string `toml:"name"`         // embedded theme name or a .css path
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// AudioConfig controls the notification sound.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Sound   string `toml:"sound"`  // WAV, OGG or MP3 file; empty plays nothing
	Volume  int    `toml:"volume"` // 0-100
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Notifications: NotificationsConfig{
			PopupTimeout:     Duration(DefaultPopupTimeout),
			MaxVisiblePopups: DefaultMaxVisiblePopups,
			PopupSpacing:     DefaultPopupSpacing,
			ShowActions:      true,
			HistoryLength:    DefaultHistoryLength,
		},
		Display: DisplayConfig{
			MarginTop:   DefaultMarginTop,
			MarginRight: DefaultMarginRight,
			Width:       DefaultPopupWidth,
		},
		Menu: MenuConfig{
			MarginTop:    DefaultMarginTop,
			MarginRight:  DefaultMarginRight,
			FetchTimeout: Duration(DefaultFetchTimeout),
		},
		Theme: ThemeConfig{
			Name:        DefaultTheme,
			ColorScheme: string(ColorSchemeSystem),
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  DefaultVolume,
		},
	}
}

// Path returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "histshell", "histshell.toml")
}

// Load reads the configuration from path, or from Path() when path is empty.
// A missing file yields the defaults. File values overlay the defaults and
// the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path atomically, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	n := c.Notifications
	if n.MaxVisiblePopups < 1 || n.MaxVisiblePopups > 20 {
		return fmt.Errorf("max_visible_popups must be between 1 and 20, got %d", n.MaxVisiblePopups)
	}
	if n.PopupSpacing < 0 {
		return fmt.Errorf("popup_spacing must not be negative, got %d", n.PopupSpacing)
	}
	if n.HistoryLength < 1 {
		return fmt.Errorf("history_length must be at least 1, got %d", n.HistoryLength)
	}

	if c.Display.Width < 100 || c.Display.Width > 1000 {
		return fmt.Errorf("width must be between 100 and 1000, got %d", c.Display.Width)
	}
	if c.Display.Monitor < 0 {
		return fmt.Errorf("monitor must not be negative, got %d", c.Display.Monitor)
	}

	if c.Menu.MaxDepth < 0 || c.Menu.MaxNodes < 0 {
		return fmt.Errorf("menu limits must not be negative, got max_depth=%d max_nodes=%d", c.Menu.MaxDepth, c.Menu.MaxNodes)
	}

	validScheme := false
	for _, s := range ValidColorSchemes() {
		if c.Theme.ColorScheme == string(s) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		return fmt.Errorf("invalid color_scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// SoundPath returns the configured sound file with ~ expanded, or "" when
// sound is disabled.
func (c *Config) SoundPath() string {
	if !c.Audio.Enabled {
		return ""
	}
	return expandPath(c.Audio.Sound)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
