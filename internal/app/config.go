package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/zalogbot/core/config"
	coredatabase "github.com/m3rciful/zalogbot/core/database"
	"github.com/m3rciful/zalogbot/internal/publisher"
	"github.com/m3rciful/zalogbot/internal/search"
)

const (
	// DriverPostgres keeps listings in postgres.
	DriverPostgres = "postgres"
	// DriverMemory keeps listings in process memory.
	DriverMemory = "memory"
)

// StoreConfig selects and tunes the record store.
type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"STORE_DRIVER"`
	// CacheTTL is how long a FetchAll snapshot is reused; 0 disables the cache.
	CacheTTL time.Duration `yaml:"cache_ttl" envconfig:"STORE_CACHE_TTL"`
	SeedDemo bool          `yaml:"seed_demo" envconfig:"STORE_SEED_DEMO"`
}

// IntakeConfig tunes the intake wizard and its sessions.
type IntakeConfig struct {
	MinYear     int           `yaml:"min_year"`
	MaxYear     int           `yaml:"max_year"`
	PhonePrefix string        `yaml:"phone_prefix" envconfig:"INTAKE_PHONE_PREFIX"`
	SessionTTL  time.Duration `yaml:"session_ttl" envconfig:"INTAKE_SESSION_TTL"`
	Sessions    int           `yaml:"sessions"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Store    StoreConfig         `yaml:"store"`
	Channel  publisher.Options   `yaml:"channel"`
	Search   search.Options      `yaml:"search"`
	Intake   IntakeConfig        `yaml:"intake"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays .env and the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core and app sections and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	driver := strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if driver == "" {
		driver = DriverMemory
		if strings.TrimSpace(c.Database.Host) != "" {
			driver = DriverPostgres
		}
	}
	switch driver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when store.driver is %q", DriverPostgres)
		}
		if c.Database.Port == "" {
			c.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid store.driver %q; allowed: %s, %s", c.Store.Driver, DriverPostgres, DriverMemory)
	}
	c.Store.Driver = driver
	if c.Store.CacheTTL < 0 {
		return fmt.Errorf("store.cache_ttl must be >= 0")
	}

	c.Channel.Channel = strings.TrimPrefix(strings.TrimSpace(c.Channel.Channel), "@")
	if c.Channel.Interval < 0 {
		return fmt.Errorf("channel.interval must be >= 0")
	}

	if c.Intake.MaxYear != 0 && c.Intake.MaxYear < c.Intake.MinYear {
		return fmt.Errorf("intake.max_year must be >= intake.min_year")
	}
	if c.Intake.SessionTTL < 0 {
		return fmt.Errorf("intake.session_ttl must be >= 0")
	}
	for _, b := range c.Search.PriceBuckets {
		if b <= 0 {
			return fmt.Errorf("search.price_buckets must be positive, got %d", b)
		}
	}
	return nil
}

// DatabaseConfig returns the postgres settings, or nil for the memory driver.
func (c *Config) DatabaseConfig() *coredatabase.Config {
	if c.Store.Driver != DriverPostgres {
		return nil
	}
	db := c.Database
	return &db
}
