// Package config loads cache wiring from a YAML file with environment
// overrides, so TTLs and eager flags can change deployment to deployment
// without touching registration code.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// CacheConfig is per-cache wiring: a human-friendly TTL string ("90s",
// "10m", "1h30m") and whether the cache loads at process start.
type CacheConfig struct {
	TTL   string `yaml:"ttl,omitempty"`
	Eager bool   `yaml:"eager,omitempty"`
}

// TTLDuration parses the TTL string. An empty TTL returns zero, meaning
// "use the default".
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := str2duration.ParseDuration(c.TTL)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid ttl %q", c.TTL)
	}
	return d, nil
}

// Config is the top-level cache configuration.
type Config struct {
	// Namespace prefixes every store key, isolating this process's caches
	// on a shared backend.
	Namespace string `yaml:"namespace,omitempty"`
	// DefaultTTL applies to caches without their own TTL.
	DefaultTTL string `yaml:"default_ttl,omitempty"`
	// QueryTimeout bounds each store operation.
	QueryTimeout string `yaml:"query_timeout,omitempty"`
	// Caches maps cache name to its wiring.
	Caches map[string]CacheConfig `yaml:"caches,omitempty"`
}

// Cache returns the wiring for name, or a zero value when the file does
// not mention it.
func (c *Config) Cache(name string) CacheConfig {
	return c.Caches[name]
}

// DefaultTTLDuration parses DefaultTTL; zero when unset.
func (c *Config) DefaultTTLDuration() (time.Duration, error) {
	return CacheConfig{TTL: c.DefaultTTL}.TTLDuration()
}

// QueryTimeoutDuration parses QueryTimeout; zero when unset.
func (c *Config) QueryTimeoutDuration() (time.Duration, error) {
	return CacheConfig{TTL: c.QueryTimeout}.TTLDuration()
}

// Load reads a YAML config file and applies environment overrides. A
// missing file is not an error — the overrides still apply to an empty
// config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err == nil {
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}
	cfg.applyEnv()
	if _, err := cfg.DefaultTTLDuration(); err != nil {
		return nil, err
	}
	if _, err := cfg.QueryTimeoutDuration(); err != nil {
		return nil, err
	}
	for name, cc := range cfg.Caches {
		if _, err := cc.TTLDuration(); err != nil {
			return nil, errors.Wrapf(err, "cache %s", name)
		}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DBCACHE_NAMESPACE"); v != "" {
		c.Namespace = v
	}
	if v := os.Getenv("DBCACHE_DEFAULT_TTL"); v != "" {
		c.DefaultTTL = v
	}
	if v := os.Getenv("DBCACHE_QUERY_TIMEOUT"); v != "" {
		c.QueryTimeout = v
	}
}
