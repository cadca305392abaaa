// Package config loads the service configuration from defaults, an optional
// .env file, an optional YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/co2trend/analysis"
	"github.com/sartorproj/co2trend/stats"
)

// Config is the service configuration.
type Config struct {
	ListenAddr   string        `yaml:"listen_addr"`
	DBPath       string        `yaml:"db_path"`
	DemoFile     string        `yaml:"demo_file"`
	Window       int           `yaml:"window_size"`
	MaxPoints    int           `yaml:"max_points"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timezone     string        `yaml:"timezone"`

	// FirstDelta is "zero" (default) or "origin".
	FirstDelta string                 `yaml:"first_delta"`
	Zones      stats.Zones            `yaml:"zones"`
	Status     stats.StatusThresholds `yaml:"status"`

	MQTT MQTTConfig `yaml:"mqtt"`
	Log  LogConfig  `yaml:"log"`

	location *time.Location
}

// MQTTConfig configures the live feed subscriber. An empty Broker disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:   ":5000",
		DBPath:       "co2.db",
		DemoFile:     "DATA.CSV",
		Window:       15,
		MaxPoints:    2000,
		PollInterval: 5 * time.Second,
		Timezone:     "Local",
		FirstDelta:   "zero",
		Zones:        stats.DefaultZones(),
		Status:       stats.DefaultStatusThresholds(),
		MQTT: MQTTConfig{
			Topic:    "sensors/co2",
			ClientID: "co2monitor",
			QoS:      1,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. A missing .env file is not an error;
// yamlPath may be empty.
func Load(envPath, yamlPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	cfg := Default()
	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("LISTEN_ADDR", &c.ListenAddr)
	setString("DB_PATH", &c.DBPath)
	setString("FILE_DEMO", &c.DemoFile)
	setString("TIMEZONE", &c.Timezone)
	setString("MQTT_BROKER", &c.MQTT.Broker)
	setString("MQTT_TOPIC", &c.MQTT.Topic)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	if err := setInt("WINDOW_SIZE", &c.Window); err != nil {
		return err
	}
	if err := setInt("MAX_POINTS", &c.MaxPoints); err != nil {
		return err
	}
	if v := getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.PollInterval = d
	}
	return nil
}

// Validate checks the configuration and resolves the timezone.
func (c *Config) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("window_size must be positive, got %d", c.Window)
	}
	if c.MaxPoints < 1 {
		return fmt.Errorf("max_points must be positive, got %d", c.MaxPoints)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.Zones.Warning >= c.Zones.Critical {
		return fmt.Errorf("zones: warning (%g) must be below critical (%g)", c.Zones.Warning, c.Zones.Critical)
	}
	if c.Status.Excellent > c.Status.Acceptable {
		return fmt.Errorf("status: excellent (%g) must not exceed acceptable (%g)", c.Status.Excellent, c.Status.Acceptable)
	}
	if _, err := c.firstDelta(); err != nil {
		return err
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	c.location = loc
	return nil
}

// Location returns the display timezone. It is UTC before Validate succeeds.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// AnalysisOptions returns the pipeline options for this configuration.
func (c *Config) AnalysisOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	opts.Window = c.Window
	opts.Zones = c.Zones
	opts.Location = c.Location()
	opts.FirstDelta, _ = c.firstDelta()
	return opts
}

func (c *Config) firstDelta() (stats.FirstDelta, error) {
	switch strings.ToLower(c.FirstDelta) {
	case "", "zero":
		return stats.FirstDeltaZero, nil
	case "origin":
		return stats.FirstDeltaOrigin, nil
	default:
		return 0, fmt.Errorf("first_delta must be zero or origin, got %q", c.FirstDelta)
	}
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(l.Level)
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
