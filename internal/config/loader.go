package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "FOCUSFRAME"

// Load reads the configuration file at path, or ~/.focusframe/config.yaml when
// path is empty. Missing default files fall back to NewConfig values.
// Environment variables such as FOCUSFRAME_RECORDING_TARGET_FPS override both.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range flatten(NewConfig()) {
		v.SetDefault(key, value)
	}
	return v
}

// flatten lists every config key with its default so viper can resolve env
// overrides for keys that never appear in a file.
func flatten(c *Config) map[string]any {
	return map[string]any{
		"recording.target_fps":        c.Recording.TargetFPS,
		"recording.output_dir":        c.Recording.OutputDir,
		"recording.display":           c.Recording.Display,
		"recording.poll_interval":     c.Recording.PollInterval,
		"recording.sink_buffers":      c.Recording.SinkBuffers,
		"recording.encoder":           c.Recording.Encoder,
		"recording.preset":            c.Recording.Preset,
		"gesture.window":              c.Gesture.Window,
		"gesture.pair_gap":            c.Gesture.PairGap,
		"gesture.radius":              c.Gesture.Radius,
		"gesture.cooldown":            c.Gesture.Cooldown,
		"gesture.sample_interval":     c.Gesture.SampleInterval,
		"zoom.default_scale":          c.Zoom.DefaultScale,
		"zoom.default_easing":         c.Zoom.DefaultEasing,
		"zoom.anticipation_ratio":     c.Zoom.AnticipationRatio,
		"pan.rate_hz":                 c.Pan.RateHz,
		"pan.output_every":            c.Pan.OutputEvery,
		"pan.max_keyframes":           c.Pan.MaxKeyframes,
		"pan.inner_margin":            c.Pan.InnerMargin,
		"pan.gain":                    c.Pan.Gain,
		"export.quality":              c.Export.Quality,
		"export.format":               c.Export.Format,
		"export.padding":              c.Export.Padding,
		"export.background":           c.Export.Background,
		"export.hardware":             c.Export.Hardware,
		"export.cursor_visible":       c.Export.CursorVisible,
		"export.cursor_style":         c.Export.CursorStyle,
		"export.cursor_size":          c.Export.CursorSize,
		"export.cursor_color":         c.Export.CursorColor,
		"export.max_cursor_keyframes": c.Export.MaxCursorKeyframes,
		"log.level":                   c.Log.Level,
	}
}

// WriteDefault writes the default configuration as yaml to path
func WriteDefault(path string) error {
	tree := map[string]map[string]any{}
	for key, value := range flatten(NewConfig()) {
		section, name, _ := strings.Cut(key, ".")
		if tree[section] == nil {
			tree[section] = map[string]any{}
		}
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		tree[section][name] = value
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	header := []byte("# FocusFrame configuration\n")
	return os.WriteFile(path, append(header, data...), 0644)
}

// DefaultDir returns ~/.focusframe, or the working directory when no home exists
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".focusframe")
}

// DefaultPath returns the global config file location
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}
