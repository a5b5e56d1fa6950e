package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/thesavant42/adarchive/internal/api"
	"gopkg.in/yaml.v2"
)

const DefaultDBPath = "adarchive.db"

// SearchConfig mirrors api.TraversalConfig for the config file
type SearchConfig struct {
	Fields          []string `yaml:"fields"`
	SearchTerm      string   `yaml:"search_term"`
	Country         string   `yaml:"country"`
	SearchPageIDs   string   `yaml:"search_page_ids"`
	AdActiveStatus  string   `yaml:"ad_active_status"`
	DeliveryDateMin string   `yaml:"ad_delivery_date_min"`
	DeliveryDateMax string   `yaml:"ad_delivery_date_max"`
	PageLimit       int      `yaml:"page_limit"`
}

// APIConfig holds connection settings for the Graph API
type APIConfig struct {
	AccessToken      string `yaml:"access_token"`
	Version          string `yaml:"version"`
	Host             string `yaml:"host"`
	RetryLimit       int    `yaml:"retry_limit"`
	TransportRetries int    `yaml:"transport_retries"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// Config is the full application configuration
type Config struct {
	API      APIConfig    `yaml:"api"`
	Search   SearchConfig `yaml:"search"`
	DBPath   string       `yaml:"db_path"`
	LogLevel string       `yaml:"log_level"`
}

// Load reads the YAML config at path (skipped when path is empty), then applies
// ADARCHIVE_* environment overrides. Call godotenv.Load first to pick up a .env file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.API.AccessToken, "ADARCHIVE_ACCESS_TOKEN")
	setString(&c.API.Version, "ADARCHIVE_API_VERSION")
	setString(&c.API.Host, "ADARCHIVE_API_HOST")
	setString(&c.Search.SearchTerm, "ADARCHIVE_SEARCH_TERM")
	setString(&c.Search.Country, "ADARCHIVE_COUNTRY")
	setString(&c.Search.DeliveryDateMin, "ADARCHIVE_DATE_MIN")
	setString(&c.Search.DeliveryDateMax, "ADARCHIVE_DATE_MAX")
	setString(&c.DBPath, "ADARCHIVE_DB")
	setString(&c.LogLevel, "ADARCHIVE_LOG_LEVEL")

	if v := os.Getenv("ADARCHIVE_FIELDS"); v != "" {
		c.Search.Fields = api.ParseFields(v)
	}
	if err := setInt(&c.API.RetryLimit, "ADARCHIVE_RETRY_LIMIT"); err != nil {
		return err
	}
	if err := setInt(&c.API.TransportRetries, "ADARCHIVE_TRANSPORT_RETRIES"); err != nil {
		return err
	}
	return setInt(&c.Search.PageLimit, "ADARCHIVE_PAGE_LIMIT")
}

// Traversal converts the loaded settings into a traversal config with defaults applied
func (c *Config) Traversal() api.TraversalConfig {
	return api.TraversalConfig{
		AccessToken:     c.API.AccessToken,
		Fields:          c.Search.Fields,
		SearchTerm:      c.Search.SearchTerm,
		Country:         c.Search.Country,
		SearchPageIDs:   c.Search.SearchPageIDs,
		AdActiveStatus:  c.Search.AdActiveStatus,
		DeliveryDateMin: c.Search.DeliveryDateMin,
		DeliveryDateMax: c.Search.DeliveryDateMax,
		PageLimit:       c.Search.PageLimit,
		APIVersion:      c.API.Version,
		RetryLimit:      c.API.RetryLimit,
		Host:            c.API.Host,
	}.WithDefaults()
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
