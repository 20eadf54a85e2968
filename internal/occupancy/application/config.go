package application

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config tunes the analytics service.
type Config struct {
	Timezone      string `yaml:"timezone"`
	GrowthStart   string `yaml:"growth_start"`
	SelectorWeeks int    `yaml:"selector_weeks"`
	ExportTitle   string `yaml:"export_title"`

	location    *time.Location
	growthStart time.Time
}

// ErrInvalidConfig is returned when a config value cannot be parsed.
var ErrInvalidConfig = errors.New("analytics config: invalid value")

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	cfg := Config{
		Timezone:      "UTC",
		GrowthStart:   "2025-02-10",
		SelectorWeeks: 5,
		ExportTitle:   "Weekly Occupancy",
	}
	_ = cfg.resolve()
	return cfg
}

// LoadConfig loads config from env, then the yaml file named by ANALYTICS_CONFIG.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	cfg.Timezone = getenvDefault("ANALYTICS_TIMEZONE", cfg.Timezone)
	cfg.GrowthStart = getenvDefault("ANALYTICS_GROWTH_START", cfg.GrowthStart)
	cfg.SelectorWeeks = getenvIntDefault("ANALYTICS_SELECTOR_WEEKS", cfg.SelectorWeeks)
	cfg.ExportTitle = getenvDefault("ANALYTICS_EXPORT_TITLE", cfg.ExportTitle)

	if path := os.Getenv("ANALYTICS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.resolve(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location returns the timezone used for week boundaries.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// GrowthStartDate returns the default start of the membership growth series.
func (c Config) GrowthStartDate() time.Time {
	return c.growthStart
}

func (c *Config) resolve() error {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	c.location = loc

	if c.GrowthStart == "" {
		return fmt.Errorf("%w: growth_start required", ErrInvalidConfig)
	}
	start, err := time.ParseInLocation(dateLayout, c.GrowthStart, loc)
	if err != nil {
		return fmt.Errorf("%w: growth_start %q: %v", ErrInvalidConfig, c.GrowthStart, err)
	}
	c.growthStart = start

	if c.SelectorWeeks <= 0 {
		c.SelectorWeeks = 5
	}
	if c.ExportTitle == "" {
		c.ExportTitle = "Weekly Occupancy"
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
