package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/intelliplan/planboard/internal/schedule"
)

const (
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
	SourceBundle = "bundle"
	SourceICS    = "ics"
)

var ErrUnknownSource = errors.New("unknown source")

type Config struct {
	// Source settings
	Source         string  `yaml:"source" toml:"source"`
	BaseURL        string  `yaml:"base_url" toml:"base_url"`
	Token          string  `yaml:"token,omitempty" toml:"token,omitempty"`
	RequestsPerSec float64 `yaml:"requests_per_sec" toml:"requests_per_sec"`
	DBPath         string  `yaml:"db_path" toml:"db_path"`
	BundlePath     string  `yaml:"bundle_path" toml:"bundle_path"`
	// ICSPath supplies events when Source is ics. Tasks, classes and exams
	// then come from BundlePath, if set.
	ICSPath string `yaml:"ics_path" toml:"ics_path"`

	// Display settings
	FirstHour   int    `yaml:"first_hour" toml:"first_hour"`
	LastHour    int    `yaml:"last_hour" toml:"last_hour"`
	TimeFormat  string `yaml:"time_format" toml:"time_format"`
	StartupView string `yaml:"startup_view" toml:"startup_view"`
	Placeholder string `yaml:"placeholder" toml:"placeholder"`

	// Refresh settings
	PollInterval  time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	MidnightFloor time.Duration `yaml:"midnight_floor" toml:"midnight_floor"`
	WatchFiles    bool          `yaml:"watch_files" toml:"watch_files"`

	// Server settings
	Listen string `yaml:"listen" toml:"listen"`

	// Logging
	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogFile  string `yaml:"log_file" toml:"log_file"`

	// KeyBindings maps a UI action to a comma-separated list of keys.
	KeyBindings map[string]string `yaml:"key_bindings" toml:"key_bindings"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	data := filepath.Join(home, ".local", "share", "planboard")

	return &Config{
		Source:         SourceHTTP,
		RequestsPerSec: 10,
		DBPath:         filepath.Join(data, "planboard.db"),

		FirstHour:   1,
		LastHour:    23,
		TimeFormat:  string(schedule.Clock12),
		StartupView: "day",
		Placeholder: schedule.DefaultPlaceholder,

		PollInterval:  60 * time.Second,
		MidnightFloor: time.Second,
		WatchFiles:    true,

		Listen: "127.0.0.1:8080",

		LogLevel: "info",
		LogFile:  filepath.Join(data, "planboard.log"),

		KeyBindings: DefaultKeyBindings(),
	}
}

// DefaultKeyBindings lists every UI action with its default keys.
func DefaultKeyBindings() map[string]string {
	return map[string]string{
		"quit":       "q,ctrl+c",
		"help":       "?",
		"today":      "t",
		"refresh":    "r",
		"next":       "l,right",
		"prev":       "h,left",
		"next_week":  "J",
		"prev_week":  "K",
		"view_day":   "d",
		"view_week":  "w",
		"view_month": "m",
		"up":         "k,up",
		"down":       "j,down",
	}
}

// Normalize fills zero values with defaults and repairs values that would
// produce an unusable view.
func (c *Config) Normalize() {
	d := DefaultConfig()

	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	if c.Source == "" {
		c.Source = d.Source
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = d.RequestsPerSec
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	c.DBPath = expandHome(c.DBPath)
	c.BundlePath = expandHome(c.BundlePath)
	c.ICSPath = expandHome(c.ICSPath)

	if c.FirstHour < 0 || c.LastHour > 23 || c.FirstHour > c.LastHour || (c.FirstHour == 0 && c.LastHour == 0) {
		c.FirstHour, c.LastHour = d.FirstHour, d.LastHour
	}
	switch strings.ToLower(c.TimeFormat) {
	case "24h", "24", "15:04":
		c.TimeFormat = string(schedule.Clock24)
	default:
		c.TimeFormat = string(schedule.Clock12)
	}
	switch c.StartupView {
	case "day", "week", "month":
	default:
		c.StartupView = d.StartupView
	}
	if c.Placeholder == "" {
		c.Placeholder = d.Placeholder
	}

	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.MidnightFloor <= 0 {
		c.MidnightFloor = d.MidnightFloor
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	c.LogFile = expandHome(c.LogFile)

	if c.KeyBindings == nil {
		c.KeyBindings = map[string]string{}
	}
	for action, keys := range d.KeyBindings {
		if strings.TrimSpace(c.KeyBindings[action]) == "" {
			c.KeyBindings[action] = keys
		}
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceHTTP, SourceSQLite, SourceBundle:
	case SourceICS:
		if c.ICSPath == "" {
			return errors.New("source ics needs ics_path")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}
	return nil
}

// ScheduleOptions converts the display settings for the aggregator.
func (c *Config) ScheduleOptions() schedule.Options {
	return schedule.Options{
		FirstHour:   c.FirstHour,
		LastHour:    c.LastHour,
		TimeFormat:  schedule.TimeFormat(c.TimeFormat),
		Placeholder: c.Placeholder,
	}
}

// Keys splits the binding for action.
func (c *Config) Keys(action string) []string {
	var out []string
	for _, k := range strings.Split(c.KeyBindings[action], ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a config file. Files ending in .toml are TOML, anything else
// is YAML. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing config %s: %w", path, err)
	}

	cfg.Path = path
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".planboard-config-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SearchPaths lists the config locations LoadConfig tries, in order.
func SearchPaths() []string {
	home := os.Getenv("HOME")
	var paths []string
	if p := os.Getenv("PLANBOARD_CONFIG"); p != "" {
		paths = append(paths, p)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths,
			filepath.Join(xdg, "planboard", "config.yaml"),
			filepath.Join(xdg, "planboard", "config.toml"))
	}
	if home != "" {
		paths = append(paths,
			filepath.Join(home, ".config", "planboard", "config.yaml"),
			filepath.Join(home, ".config", "planboard", "config.toml"),
			filepath.Join(home, ".planboard.yaml"))
	}
	return paths
}

// LoadConfig loads the first config file found on the search path, or the
// defaults when there is none.
func LoadConfig() (*Config, error) {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := DefaultConfig()
	cfg.Normalize()
	return cfg, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
