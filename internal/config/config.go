package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/vango-dev/gesture/internal/errors"
	"github.com/vango-dev/gesture/pkg/gesture"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "gestured.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GESTURED_"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"
)

// Duration is a time.Duration written as a string ("30s") in JSON and in
// the environment.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the complete gestured.json configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Gesture GestureConfig `json:"gesture"`
	Record  RecordConfig  `json:"record" envPrefix:"RECORD_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains listener and session settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" env:"ADDR"`

	ReadTimeout       Duration `json:"readTimeout,omitempty" env:"READ_TIMEOUT"`
	WriteTimeout      Duration `json:"writeTimeout,omitempty" env:"WRITE_TIMEOUT"`
	HeartbeatInterval Duration `json:"heartbeatInterval,omitempty" env:"HEARTBEAT_INTERVAL"`
	ShutdownTimeout   Duration `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`

	// MaxSessions limits concurrent sessions. 0 means no limit.
	MaxSessions int `json:"maxSessions,omitempty" env:"MAX_SESSIONS"`

	// AllowedOrigins restricts WebSocket upgrades. Empty allows any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// GestureConfig contains recognizer thresholds.
type GestureConfig struct {
	MinSwipeDistance float64 `json:"minSwipeDistance,omitempty" env:"MIN_SWIPE_DISTANCE"`

	// MaxSwipeTimeMs of -1 disables the time gate.
	MaxSwipeTimeMs int64 `json:"maxSwipeTimeMs,omitempty" env:"MAX_SWIPE_TIME_MS"`

	MinSwipeSpeed         float64 `json:"minSwipeSpeed,omitempty" env:"MIN_SWIPE_SPEED"`
	PreventDefaultOnSwipe bool    `json:"preventDefaultOnSwipe,omitempty" env:"PREVENT_DEFAULT_ON_SWIPE"`

	// ScrollDepth bounds the ancestor walk for scroll conflicts.
	ScrollDepth int `json:"scrollDepth,omitempty" env:"SCROLL_DEPTH"`
}

// RecordConfig controls gesture trace recording.
type RecordConfig struct {
	Enabled bool `json:"enabled,omitempty" env:"ENABLED"`

	// Dir receives one YAML file per gesture.
	Dir string `json:"dir,omitempty" env:"DIR"`

	// S3 upload, used instead of Dir when S3Bucket is set.
	S3Bucket   string `json:"s3Bucket,omitempty" env:"S3_BUCKET"`
	S3Prefix   string `json:"s3Prefix,omitempty" env:"S3_PREFIX"`
	S3Region   string `json:"s3Region,omitempty" env:"S3_REGION"`
	S3Endpoint string `json:"s3Endpoint,omitempty" env:"S3_ENDPOINT"`

	// QueueSize is the number of traces buffered before new ones are dropped.
	QueueSize int `json:"queueSize,omitempty" env:"QUEUE_SIZE"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              DefaultAddr,
			ReadTimeout:       Duration(60 * time.Second),
			WriteTimeout:      Duration(10 * time.Second),
			HeartbeatInterval: Duration(30 * time.Second),
			ShutdownTimeout:   Duration(30 * time.Second),
		},
		Gesture: GestureConfig{
			MinSwipeDistance: gesture.DefaultMinSwipeDistance,
			MaxSwipeTimeMs:   gesture.DefaultMaxSwipeTime.Milliseconds(),
			MinSwipeSpeed:    gesture.DefaultMinSwipeSpeed,
			ScrollDepth:      gesture.DefaultScrollDepth,
		},
		Record: RecordConfig{
			Dir:       "traces",
			S3Region:  "us-east-1",
			QueueSize: 64,
		},
	}
}

// Load loads gestured.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("G100").WithFile(path).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("G101").
			WithFile(path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// LoadOrDefault loads path when it is non-empty, otherwise gestured.json in
// the working directory if present, otherwise the defaults. Environment
// overrides are applied and the result validated.
func LoadOrDefault(path string) (*Config, error) {
	var cfg *Config
	var err error

	switch {
	case path != "":
		cfg, err = LoadFile(path)
	case Exists("."):
		cfg, err = Load(".")
	default:
		cfg = New()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GESTURED_* variables. A nil environ reads
// the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.New("G105").Wrap(fmt.Errorf("parse env: %w", err))
	}
	c.applyDefaults()
	return nil
}

// Path returns the path the config was loaded from, if any.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in zero values that have no meaning of their own.
func (c *Config) applyDefaults() {
	defaults := New()
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.HeartbeatInterval == 0 {
		c.Server.HeartbeatInterval = defaults.Server.HeartbeatInterval
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Record.QueueSize == 0 {
		c.Record.QueueSize = defaults.Record.QueueSize
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	g := c.Gesture
	switch {
	case g.MinSwipeDistance < 0:
		return c.invalid("G102", "gesture.minSwipeDistance is %v", g.MinSwipeDistance)
	case g.MinSwipeSpeed < 0:
		return c.invalid("G102", "gesture.minSwipeSpeed is %v", g.MinSwipeSpeed)
	case g.MaxSwipeTimeMs < -1:
		return c.invalid("G102", "gesture.maxSwipeTimeMs is %d", g.MaxSwipeTimeMs)
	case g.ScrollDepth < 0:
		return c.invalid("G102", "gesture.scrollDepth is %d", g.ScrollDepth)
	}

	s := c.Server
	switch {
	case s.ReadTimeout < 0, s.WriteTimeout < 0, s.HeartbeatInterval < 0, s.ShutdownTimeout < 0:
		return c.invalid("G103", "server timeouts must be positive")
	case s.MaxSessions < 0:
		return c.invalid("G103", "server.maxSessions is %d", s.MaxSessions)
	}

	r := c.Record
	if r.Enabled && r.Dir == "" && r.S3Bucket == "" {
		return c.invalid("G104", "record.enabled is true but no destination is set")
	}
	if r.QueueSize < 0 {
		return c.invalid("G104", "record.queueSize is %d", r.QueueSize)
	}
	return nil
}

func (c *Config) invalid(code, format string, args ...any) error {
	err := errors.New(code).WithDetailf(format, args...)
	if c.configPath != "" {
		err.WithFile(c.configPath)
	}
	return err
}

// GestureConfig converts the thresholds to a recognizer config. Callbacks
// are left for the caller to set.
func (c *Config) GestureConfig() gesture.Config {
	maxTime := time.Duration(c.Gesture.MaxSwipeTimeMs) * time.Millisecond
	if c.Gesture.MaxSwipeTimeMs < 0 {
		maxTime = -1
	}
	return gesture.Config{
		MinSwipeDistance:      c.Gesture.MinSwipeDistance,
		MaxSwipeTime:          maxTime,
		MinSwipeSpeed:         c.Gesture.MinSwipeSpeed,
		PreventDefaultOnSwipe: c.Gesture.PreventDefaultOnSwipe,
		ScrollConflict:        gesture.AncestorWalk{MaxDepth: c.Gesture.ScrollDepth},
	}
}

// UsesS3 reports whether traces go to S3 rather than a directory.
func (c *Config) UsesS3() bool {
	return c.Record.S3Bucket != ""
}

// Exists checks if gestured.json exists in dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
