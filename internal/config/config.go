package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Transport TransportConfig `yaml:"transport"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Geocode   GeocodeConfig   `yaml:"geocode"`
	Store     StoreConfig     `yaml:"store"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr is host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// AuthConfig enables bearer-token auth on the HTTP API when Token is set.
type AuthConfig struct {
	Token string `yaml:"token"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "http" or "stdio"
}

type ScheduleConfig struct {
	Window time.Duration `yaml:"window"`
	Tick   time.Duration `yaml:"tick"`
}

type RecorderConfig struct {
	Refresh    time.Duration `yaml:"refresh"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type GeocodeConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	Language        string        `yaml:"language"`
	Timeout         time.Duration `yaml:"timeout"`
	PositionTimeout time.Duration `yaml:"position_timeout"`
	UserAgent       string        `yaml:"user_agent"`
}

type StoreConfig struct {
	Key string `yaml:"key"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "crossing.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Schedule: ScheduleConfig{
			Window: 30 * time.Minute,
			Tick:   time.Second,
		},
		Recorder: RecorderConfig{
			Refresh:    100 * time.Millisecond,
			SessionTTL: 15 * time.Minute,
		},
		Geocode: GeocodeConfig{
			Endpoint:        "https://nominatim.openstreetmap.org/reverse",
			Language:        "zh-TW",
			Timeout:         5 * time.Second,
			PositionTimeout: 10 * time.Second,
			UserAgent:       "crossing/1.0",
		},
		Store: StoreConfig{
			Key: "trafficLightsData",
		},
	}
}

// Load reads configuration from an optional YAML file, an optional dotenv
// file and environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("CROSSING_CONFIG_PATH"))
}

// LoadFrom is Load with an explicit YAML path; an empty path skips the file.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := loadDotenv(os.Getenv("CROSSING_ENV_FILE")); err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	for name, d := range map[string]time.Duration{
		"schedule.window":          c.Schedule.Window,
		"schedule.tick":            c.Schedule.Tick,
		"recorder.refresh":         c.Recorder.Refresh,
		"geocode.timeout":          c.Geocode.Timeout,
		"geocode.position_timeout": c.Geocode.PositionTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Store.Key == "" {
		return errors.New("store.key must not be empty")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotenv loads path, or ./.env when path is empty and the file exists.
// Variables already set in the environment win.
func loadDotenv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"CROSSING_SERVER_HOST":        &cfg.Server.Host,
		"CROSSING_DB_PATH":            &cfg.DB.Path,
		"CROSSING_LOG_LEVEL":          &cfg.Log.Level,
		"CROSSING_LOG_PATH":           &cfg.Log.Path,
		"CROSSING_AUTH_TOKEN":         &cfg.Auth.Token,
		"CROSSING_TRANSPORT_MODE":     &cfg.Transport.Mode,
		"CROSSING_GEOCODE_ENDPOINT":   &cfg.Geocode.Endpoint,
		"CROSSING_GEOCODE_LANGUAGE":   &cfg.Geocode.Language,
		"CROSSING_GEOCODE_USER_AGENT": &cfg.Geocode.UserAgent,
		"CROSSING_STORE_KEY":          &cfg.Store.Key,
	}
	for env, dst := range strs {
		if v := os.Getenv(env); v != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if portStr := os.Getenv("CROSSING_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CROSSING_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	durations := map[string]*time.Duration{
		"CROSSING_SCHEDULE_WINDOW":          &cfg.Schedule.Window,
		"CROSSING_SCHEDULE_TICK":            &cfg.Schedule.Tick,
		"CROSSING_RECORDER_REFRESH":         &cfg.Recorder.Refresh,
		"CROSSING_RECORDER_SESSION_TTL":     &cfg.Recorder.SessionTTL,
		"CROSSING_GEOCODE_TIMEOUT":          &cfg.Geocode.Timeout,
		"CROSSING_GEOCODE_POSITION_TIMEOUT": &cfg.Geocode.PositionTimeout,
	}
	for env, dst := range durations {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = d
	}
	return nil
}
