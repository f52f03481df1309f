package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/gizmo"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/playback"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/session"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OXYKEY_"

// Config holds the viewer's runtime settings. A TOML file provides the base values and OXYKEY_*
// environment variables override individual fields.
type Config struct {
	Session  SessionConfig  `toml:"session" json:"session" yaml:"session"`
	Playback PlaybackConfig `toml:"playback" json:"playback" yaml:"playback"`
	Store    StoreConfig    `toml:"store" json:"store" yaml:"store"`
	Window   WindowConfig   `toml:"window" json:"window" yaml:"window"`
	Gizmo    GizmoConfig    `toml:"gizmo" json:"gizmo" yaml:"gizmo"`
	Log      LogConfig      `toml:"log" json:"log" yaml:"log"`
}

// SessionConfig selects what an edit targets.
type SessionConfig struct {
	FrameIndex int `toml:"frame_index" json:"frame_index" yaml:"frame_index"`
	ClipIndex  int `toml:"clip_index" json:"clip_index" yaml:"clip_index"`
}

// PlaybackConfig drives the playback timer.
type PlaybackConfig struct {
	Step       float32 `toml:"step" json:"step" yaml:"step"`                      // seconds advanced per tick
	IntervalMS int     `toml:"interval_ms" json:"interval_ms" yaml:"interval_ms"` // wall-clock time between ticks
	Autoplay   bool    `toml:"autoplay" json:"autoplay" yaml:"autoplay"`
}

// StoreConfig locates the clip snapshot database. An empty path disables snapshots.
type StoreConfig struct {
	Path string `toml:"path" json:"path" yaml:"path"`
}

// WindowConfig sizes the viewer window.
type WindowConfig struct {
	Width      int    `toml:"width" json:"width" yaml:"width"`
	Height     int    `toml:"height" json:"height" yaml:"height"`
	Title      string `toml:"title" json:"title" yaml:"title"`
	Background uint32 `toml:"background" json:"background" yaml:"background"` // 0xRRGGBB
}

// GizmoConfig seeds the gizmo state.
type GizmoConfig struct {
	Size            float32 `toml:"size" json:"size" yaml:"size"`
	TranslationSnap float32 `toml:"translation_snap" json:"translation_snap" yaml:"translation_snap"`
	RotationSnap    float32 `toml:"rotation_snap" json:"rotation_snap" yaml:"rotation_snap"` // degrees
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `toml:"level" json:"level" yaml:"level"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Session: SessionConfig{
			FrameIndex: session.DefaultFrameIndex,
			ClipIndex:  0,
		},
		Playback: PlaybackConfig{
			Step:       playback.DefaultStep,
			IntervalMS: int(playback.DefaultInterval / time.Millisecond),
		},
		Store: StoreConfig{},
		Window: WindowConfig{
			Width:      800,
			Height:     800,
			Title:      "oxykey",
			Background: 0xbbbbbb,
		},
		Gizmo: GizmoConfig{
			Size:            gizmo.DefaultSize,
			TranslationSnap: gizmo.DefaultTranslationSnap,
			RotationSnap:    gizmo.DefaultRotationSnap,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds a Config from the defaults, the TOML file at path (skipped when path is empty) and the
// environment, then validates it.
//
// Parameters:
//   - path: the TOML file, or "" for defaults plus environment only
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read or decoded, or validation fails
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads TOML from r over the values already in cfg. Unknown keys are rejected.
//
// Parameters:
//   - r: the TOML source
//   - cfg: the config to fill
//
// Returns:
//   - error: error if the TOML is malformed or names an unknown key
func Decode(r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Encode writes cfg as TOML.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: error if writing fails
func (c Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

// ApplyEnv overrides fields from OXYKEY_* environment variables. Unparsable values are ignored.
func (c *Config) ApplyEnv() {
	c.Session.FrameIndex = envInt("FRAME_INDEX", c.Session.FrameIndex)
	c.Session.ClipIndex = envInt("CLIP_INDEX", c.Session.ClipIndex)

	c.Playback.Step = envFloat("PLAYBACK_STEP", c.Playback.Step)
	c.Playback.IntervalMS = envInt("PLAYBACK_INTERVAL_MS", c.Playback.IntervalMS)
	c.Playback.Autoplay = envBool("PLAYBACK_AUTOPLAY", c.Playback.Autoplay)

	c.Store.Path = envStr("STORE_PATH", c.Store.Path)

	c.Window.Width = envInt("WINDOW_WIDTH", c.Window.Width)
	c.Window.Height = envInt("WINDOW_HEIGHT", c.Window.Height)
	c.Window.Title = envStr("WINDOW_TITLE", c.Window.Title)
	c.Window.Background = envHex("BACKGROUND", c.Window.Background)

	c.Gizmo.Size = envFloat("GIZMO_SIZE", c.Gizmo.Size)
	c.Gizmo.TranslationSnap = envFloat("GIZMO_TRANSLATION_SNAP", c.Gizmo.TranslationSnap)
	c.Gizmo.RotationSnap = envFloat("GIZMO_ROTATION_SNAP", c.Gizmo.RotationSnap)

	c.Log.Level = envStr("LOG_LEVEL", c.Log.Level)
}

// Validate checks every field and reports all problems at once.
//
// Returns:
//   - error: every violation joined, each wrapping ErrInvalidConfig; nil if the config is usable
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Session.FrameIndex >= 0, "session.frame_index %d is negative", c.Session.FrameIndex)
	check(c.Session.ClipIndex >= 0, "session.clip_index %d is negative", c.Session.ClipIndex)
	check(c.Playback.Step > 0, "playback.step %g must be positive", c.Playback.Step)
	check(c.Playback.IntervalMS > 0, "playback.interval_ms %d must be positive", c.Playback.IntervalMS)
	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	check(c.Window.Background <= 0xffffff, "window.background %#x is not an RGB color", c.Window.Background)
	check(c.Gizmo.Size >= gizmo.MinSize && c.Gizmo.Size <= gizmo.MaxSize, "gizmo.size %g outside [%g, %g]", c.Gizmo.Size, gizmo.MinSize, gizmo.MaxSize)
	check(c.Gizmo.TranslationSnap > 0, "gizmo.translation_snap %g must be positive", c.Gizmo.TranslationSnap)
	check(c.Gizmo.RotationSnap > 0, "gizmo.rotation_snap %g must be positive", c.Gizmo.RotationSnap)
	_, err := c.Log.SlogLevel()
	check(err == nil, "log.level %q is not debug, info, warn or error", c.Log.Level)

	return errors.Join(errs...)
}

// Interval returns the playback tick interval as a duration.
func (p PlaybackConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMS) * time.Millisecond
}

// SlogLevel parses Level.
//
// Returns:
//   - slog.Level: the parsed level
//   - error: error if Level is not a slog level name
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(l.Level))
	return level, err
}

// Logger builds a text logger writing to w at the configured level.
//
// Parameters:
//   - w: the log destination
//
// Returns:
//   - *slog.Logger: the logger
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func envStr(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float32) float32 {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envHex accepts 0xRRGGBB, #RRGGBB or plain decimal.
func envHex(key string, fallback uint32) uint32 {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback
	}
	base := 10
	switch {
	case strings.HasPrefix(v, "#"):
		v, base = v[1:], 16
	case strings.HasPrefix(strings.ToLower(v), "0x"):
		v, base = v[2:], 16
	}
	n, err := strconv.ParseUint(v, base, 32)
	if err != nil {
		return fallback
	}
	return uint32(n)
}
