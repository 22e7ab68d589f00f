package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"xivmarket/internal/models"
)

type Config struct {
	XIVAPIURL      string `envconfig:"XIVAPI_URL" default:"https://xivapi.com"`
	XIVAPIKey      string `envconfig:"XIVAPI_KEY"`
	UniversalisURL string `envconfig:"UNIVERSALIS_URL" default:"https://universalis.app/api/v2"`

	// Catalog source: "json" reads CatalogDir, "mysql" reads DatabaseURL
	CatalogBackend string `envconfig:"CATALOG_BACKEND" default:"json"`
	CatalogDir     string `envconfig:"CATALOG_DIR" default:"OfflineData"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	// Lookup cache: "memory" or "redis"
	CacheBackend    string `envconfig:"CACHE_BACKEND" default:"memory"`
	RedisURL        string `envconfig:"REDIS_URL"`
	CacheTTLMinutes int    `envconfig:"CACHE_TTL_MINUTES" default:"720"`

	RateLimitPerSecond float64 `envconfig:"RATE_LIMIT_PER_SECOND" default:"20"`
	HTTPTimeoutSeconds int     `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`

	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	TuningFile  string `envconfig:"TUNING_FILE"`

	Tuning Tuning `ignored:"true"`
}

// Tuning holds the ranking knobs. Values come from DefaultTuning, optionally
// overridden by the YAML file named in TUNING_FILE.
type Tuning struct {
	TaxRate             float64         `yaml:"tax_rate"`
	VentureMinVelocity  int             `yaml:"venture_min_velocity"`
	ChatVentureVelocity int             `yaml:"chat_venture_min_velocity"`
	ScripMinVelocity    int             `yaml:"scrip_min_velocity"`
	ChatResults         int             `yaml:"chat_results"`
	ResellMinIlvl       int             `yaml:"resell_min_ilvl"`
	Regions             []models.Region `yaml:"regions"`
}

func DefaultTuning() Tuning {
	return Tuning{
		TaxRate:             0.03,
		VentureMinVelocity:  25,
		ChatVentureVelocity: 40,
		ScripMinVelocity:    10,
		ChatResults:         10,
		ResellMinIlvl:       560,
		Regions: []models.Region{
			{Name: "North-America", DCs: []string{"Aether", "Crystal", "Primal"}},
			{Name: "Europe", DCs: []string{"Chaos", "Light"}},
			{Name: "Japan", DCs: []string{"Elemental", "Gaia", "Mana"}},
			{Name: "Oceania", DCs: []string{"Materia"}},
		},
	}
}

// Load reads the configuration from the environment. Callers load .env first.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	cfg.Tuning = DefaultTuning()
	if cfg.TuningFile != "" {
		if err := cfg.Tuning.LoadFile(cfg.TuningFile); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadFile overlays the YAML file onto t. Keys absent from the file keep
// their current value.
func (t *Tuning) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
