package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Avflux/Av-sub001/internal/calendar"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Timer     TimerConfig     `yaml:"timer"`
	Idle      IdleConfig      `yaml:"idle"`
	User      UserConfig      `yaml:"user"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // stdio or http
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// CalendarConfig holds the company hours as "HH:MM" clock times.
type CalendarConfig struct {
	Open       string `yaml:"open"`
	BreakStart string `yaml:"break_start"`
	BreakEnd   string `yaml:"break_end"`
	Close      string `yaml:"close"`
}

type TimerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	SaveInterval time.Duration `yaml:"save_interval"`
}

type IdleConfig struct {
	Enabled           bool          `yaml:"enabled"`
	MouseThreshold    time.Duration `yaml:"mouse_threshold"`
	KeyboardThreshold time.Duration `yaml:"keyboard_threshold"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	EvalInterval      time.Duration `yaml:"eval_interval"`
}

type UserConfig struct {
	DefaultID string `yaml:"default_id"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: "worktime.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Calendar: CalendarConfig{
			Open:       "08:00",
			BreakStart: "12:15",
			BreakEnd:   "13:15",
			Close:      "18:30",
		},
		Timer: TimerConfig{
			TickInterval: time.Second,
			SaveInterval: time.Minute,
		},
		Idle: IdleConfig{
			Enabled:           true,
			MouseThreshold:    10 * time.Second,
			KeyboardThreshold: 10 * time.Second,
			PollInterval:      100 * time.Millisecond,
			EvalInterval:      time.Second,
		},
		User: UserConfig{
			DefaultID: "local",
		},
	}
}

// Load reads configuration from defaults, an optional .env file, an
// optional YAML file and environment variables, in that order.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("WORKTIME_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q: want stdio or http", c.Transport.Mode)
	}
	if c.User.DefaultID == "" {
		return errors.New("user.default_id must not be empty")
	}
	if _, err := c.Calendar.Hours(); err != nil {
		return err
	}
	return nil
}

// Hours parses the calendar section into validated business hours.
func (c CalendarConfig) Hours() (calendar.Hours, error) {
	var hours calendar.Hours
	fields := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"calendar.open", c.Open, &hours.Open},
		{"calendar.break_start", c.BreakStart, &hours.BreakStart},
		{"calendar.break_end", c.BreakEnd, &hours.BreakEnd},
		{"calendar.close", c.Close, &hours.Close},
	}
	for _, f := range fields {
		offset, err := calendar.ParseClock(f.value)
		if err != nil {
			return calendar.Hours{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dest = offset
	}
	if err := hours.Validate(); err != nil {
		return calendar.Hours{}, err
	}
	return hours, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("WORKTIME_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("WORKTIME_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid WORKTIME_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("WORKTIME_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("WORKTIME_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid WORKTIME_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if dbPath := os.Getenv("WORKTIME_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("WORKTIME_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("WORKTIME_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if userID := os.Getenv("WORKTIME_USER_ID"); userID != "" {
		cfg.User.DefaultID = userID
	}
	if enabled := os.Getenv("WORKTIME_IDLE_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid WORKTIME_IDLE_ENABLED: %w", err)
		}
		cfg.Idle.Enabled = v
	}

	durations := []struct {
		env  string
		dest *time.Duration
	}{
		{"WORKTIME_TICK_INTERVAL", &cfg.Timer.TickInterval},
		{"WORKTIME_SAVE_INTERVAL", &cfg.Timer.SaveInterval},
		{"WORKTIME_IDLE_MOUSE_THRESHOLD", &cfg.Idle.MouseThreshold},
		{"WORKTIME_IDLE_KEYBOARD_THRESHOLD", &cfg.Idle.KeyboardThreshold},
	}
	for _, d := range durations {
		value := os.Getenv(d.env)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dest = parsed
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
