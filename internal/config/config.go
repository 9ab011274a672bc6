package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Port                int      `yaml:"port"`
		APIKeys             []string `yaml:"api_keys"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		CreateRatePerMinute int      `yaml:"create_rate_per_minute"`
	} `yaml:"http"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address                string `yaml:"address"`
		Password               string `yaml:"password"`
		DB                     int    `yaml:"db"`
		KitchenCacheTTLSeconds int    `yaml:"kitchen_cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		Timezone                  string `yaml:"timezone"`
		MinAdvanceMinutes         int    `yaml:"min_advance_minutes"`
		MaxAdvanceDays            int    `yaml:"max_advance_days"`
		MaxActivePerRenter        int    `yaml:"max_active_per_renter"`
		StoreTimeoutMillis        int    `yaml:"store_timeout_ms"`
		ReadRetries               int    `yaml:"read_retries"`
		CompletionIntervalSeconds int    `yaml:"completion_interval_seconds"`
	} `yaml:"booking"`

	Reminders struct {
		Enabled              bool    `yaml:"enabled"`
		HoursBefore          int     `yaml:"hours_before"`
		CheckIntervalMinutes int     `yaml:"check_interval_minutes"`
		SendRatePerSecond    float64 `yaml:"send_rate_per_second"`
	} `yaml:"reminders"`

	Telegram struct {
		BotToken     string          `yaml:"bot_token"`
		Debug        bool            `yaml:"debug"`
		OwnerChatIDs map[int64]int64 `yaml:"owner_chat_ids"`
	} `yaml:"telegram"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	KitchensConfigPath string `yaml:"kitchens_config_path"`
}

// Load reads the YAML config at path. Variables from an optional .env file
// next to the working directory are exported before ${VAR} expansion.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/kitchenhub.db"
	}
	if cfg.KitchensConfigPath == "" {
		cfg.KitchensConfigPath = "configs/kitchens.yaml"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location is the default timezone for slot grids and operating hours.
func (c *Config) Location() (*time.Location, error) {
	if c.Booking.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return nil, fmt.Errorf("booking.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) BookingMinAdvance() time.Duration {
	if c.Booking.MinAdvanceMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Booking.MinAdvanceMinutes) * time.Minute
}

func (c *Config) BookingMaxAdvance() time.Duration {
	if c.Booking.MaxAdvanceDays <= 0 {
		return 90 * 24 * time.Hour
	}
	return time.Duration(c.Booking.MaxAdvanceDays) * 24 * time.Hour
}

func (c *Config) StoreTimeout() time.Duration {
	if c.Booking.StoreTimeoutMillis <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Booking.StoreTimeoutMillis) * time.Millisecond
}

func (c *Config) ReadRetries() int {
	if c.Booking.ReadRetries <= 0 {
		return 3
	}
	return c.Booking.ReadRetries
}

func (c *Config) CompletionInterval() time.Duration {
	if c.Booking.CompletionIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Booking.CompletionIntervalSeconds) * time.Second
}

func (c *Config) KitchenCacheTTL() time.Duration {
	if c.Redis.KitchenCacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Redis.KitchenCacheTTLSeconds) * time.Second
}

func (c *Config) ReminderLead() time.Duration {
	if c.Reminders.HoursBefore <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Reminders.HoursBefore) * time.Hour
}

func (c *Config) ReminderInterval() time.Duration {
	if c.Reminders.CheckIntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Reminders.CheckIntervalMinutes) * time.Minute
}
