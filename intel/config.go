package intel

import (
	"fmt"
	"os"
	"time"

	"github.com/ethiqa/go-intel-cache/cache"
	"gopkg.in/yaml.v3"
)

const (
	defaultNamespace     = "intel"
	defaultTTL           = 5 * time.Minute
	defaultRefreshWindow = 30 * time.Second
)

// Config controls how reports are cached.
type Config struct {
	Namespace     string            `yaml:"namespace"`
	TTL           time.Duration     `yaml:"ttl"`
	SingleFlight  bool              `yaml:"single_flight"`
	RefreshWindow time.Duration     `yaml:"refresh_window"`
	Store         cache.StoreConfig `yaml:"store"`

	Metrics *cache.Metrics `yaml:"-"`
}

// withDefaults returns a copy of c with zero fields filled in.
func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Namespace == "" {
		out.Namespace = defaultNamespace
	}
	if out.TTL <= 0 {
		out.TTL = defaultTTL
	}
	if out.RefreshWindow <= 0 {
		out.RefreshWindow = defaultRefreshWindow
	}
	return out
}

// LoadConfig reads a YAML config file. Durations are written as "5m".
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
