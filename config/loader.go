package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from defaults, an optional YAML file and the environment.
type Loader struct {
	configPath string
	envPrefix  string
	lookupEnv  func(string) (string, bool)
	validators []func(*Config) error
}

// NewLoader creates a loader with the PARLEY environment prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "PARLEY",
		lookupEnv: os.LookupEnv,
	}
}

// WithConfigPath sets the YAML file to read. Empty skips the file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the prefix of environment overrides.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithLookupEnv replaces os.LookupEnv, mainly for tests.
func (l *Loader) WithLookupEnv(fn func(string) (string, bool)) *Loader {
	l.lookupEnv = fn
	return l
}

// WithValidator adds a validation step run after Validate.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load assembles and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, err
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, err
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	return Parse(data, cfg)
}

// Parse decodes YAML over cfg. Lists such as roster.agents replace the
// current value as a whole. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	if v, ok := l.env("PROVIDER"); ok {
		cfg.Backend.Provider = v
	}
	if v, ok := l.env("BASE_URL"); ok {
		cfg.Backend.BaseURL = v
	}
	if v, ok := l.env("API_KEY"); ok {
		cfg.Backend.APIKey = v
	}
	if v, ok := l.env("MODEL"); ok {
		for i := range cfg.Roster.Agents {
			cfg.Roster.Agents[i].Model = v
		}
	}
	if v, ok := l.env("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := l.env("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := l.env("MAX_ROUNDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_MAX_ROUNDS: %w", l.envPrefix, err)
		}
		cfg.Engine.MaxRounds = n
	}

	return nil
}

func (l *Loader) env(key string) (string, bool) {
	v, ok := l.lookupEnv(l.envPrefix + "_" + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}

	return strings.TrimSpace(v), true
}

// Load reads path (may be empty) with the default environment prefix.
func Load(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}
