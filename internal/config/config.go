// Package config loads the service configuration from a YAML file,
// layered over built-in defaults.
package config

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/remedyhq/remedy/internal/runtime"
)

// Config is the full service configuration.
type Config struct {
	Engine  Engine  `yaml:"engine"`
	Store   Store   `yaml:"store"`
	HTTP    HTTP    `yaml:"http"`
	Log     Log     `yaml:"log"`
	Privacy Privacy `yaml:"privacy"`
}

// Engine holds the orchestration tunables.
type Engine struct {
	ConfidenceThreshold   float64       `yaml:"confidence_threshold"`
	MaxCycles             int           `yaml:"max_cycles"`
	MaxStepAttempts       int           `yaml:"max_step_attempts"`
	MaxCollectionAttempts int           `yaml:"max_collection_attempts"`
	AdapterTimeout        time.Duration `yaml:"adapter_timeout"`
	MaxAdapterCalls       int           `yaml:"max_adapter_calls"`
}

// Store selects and configures the checkpoint backend.
type Store struct {
	// Kind is one of memory, redis, sqlite.
	Kind   string `yaml:"kind"`
	Redis  Redis  `yaml:"redis"`
	SQLite SQLite `yaml:"sqlite"`
}

// Redis configures the Redis checkpoint store and distributed lock.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock enables distributed session locking on the same Redis.
	Lock bool `yaml:"lock"`
}

// SQLite configures the embedded SQLite checkpoint store.
type SQLite struct {
	Path string `yaml:"path"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Log configures structured logging.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is one of text, json, pretty.
	Format string `yaml:"format"`
}

// Privacy configures the persistence middleware chain.
type Privacy struct {
	// MaskPII redacts sensitive values before checkpoints are written.
	MaskPII bool `yaml:"mask_pii"`
	// PIIPatterns are regular expressions matched against map keys in the
	// session context and alert metrics.
	PIIPatterns []string `yaml:"pii_patterns"`
	// EncryptionKeys are base64-encoded 32-byte AES keys, newest first.
	// Checkpoints are written with the first key; older keys stay listed
	// until every stored session has been rewritten.
	EncryptionKeys []string `yaml:"encryption_keys"`
}

// Default returns the built-in configuration.
func Default() Config {
	rc := runtime.DefaultConfig()
	return Config{
		Engine: Engine{
			ConfidenceThreshold:   rc.ConfidenceThreshold,
			MaxCycles:             rc.MaxCycles,
			MaxStepAttempts:       rc.MaxStepAttempts,
			MaxCollectionAttempts: rc.MaxCollectionAttempts,
			AdapterTimeout:        rc.AdapterTimeout,
			MaxAdapterCalls:       rc.MaxAdapterCalls,
		},
		Store: Store{
			Kind:   "memory",
			Redis:  Redis{Addr: "localhost:6379", Prefix: "remedy:session:"},
			SQLite: SQLite{Path: "remedy.db"},
		},
		HTTP: HTTP{Addr: ":8080"},
		Log:  Log{Level: "info", Format: "text"},
		Privacy: Privacy{
			PIIPatterns: []string{`(?i)(password|secret|token|api[-_]?key|credential)`},
		},
	}
}

// Load reads the configuration file at path over the defaults. An empty
// path returns the defaults unchanged. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Kind {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if _, err := c.Privacy.Keys(); err != nil {
		return err
	}
	for _, p := range c.Privacy.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
	}
	return nil
}

// Runtime converts the engine section to the engine's config type.
func (e Engine) Runtime() runtime.Config {
	return runtime.Config{
		ConfidenceThreshold:   e.ConfidenceThreshold,
		MaxCycles:             e.MaxCycles,
		MaxStepAttempts:       e.MaxStepAttempts,
		MaxCollectionAttempts: e.MaxCollectionAttempts,
		AdapterTimeout:        e.AdapterTimeout,
		MaxAdapterCalls:       e.MaxAdapterCalls,
	}
}

// Keys decodes the configured encryption keys, newest first.
func (p Privacy) Keys() ([][]byte, error) {
	keys := make([][]byte, 0, len(p.EncryptionKeys))
	for i, enc := range p.EncryptionKeys {
		key, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("encryption key %d is not valid base64: %w", i, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key %d must be 32 bytes, got %d", i, len(key))
		}
		keys = append(keys, key)
	}
	return keys, nil
}
