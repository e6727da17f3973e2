// Package config loads the run configuration of parley: backend, engine
// timings, logging and the agent roster.
//
// Priority: defaults → YAML file → environment variables.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("parley.yaml").
//	    WithEnvPrefix("PARLEY").
//	    Load()
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/internal/util"
	"github.com/hupe1980/parley/logging"
)

// Supported inference providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the complete configuration of a run.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
	Roster  RosterConfig  `yaml:"roster"`
}

// BackendConfig selects and addresses the inference backend.
type BackendConfig struct {
	// Provider is one of ollama, openai, anthropic.
	Provider string `yaml:"provider"`
	// BaseURL of the backend. Empty means the provider default.
	BaseURL string `yaml:"base_url"`
	// APIKey for hosted providers.
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	// MaxTokens caps reply length where the provider supports it. 0 keeps the provider default.
	MaxTokens int64 `yaml:"max_tokens"`
}

// EngineConfig holds the conversation loop timings.
type EngineConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	TurnDelay      time.Duration `yaml:"turn_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	IdlePrompt     time.Duration `yaml:"idle_prompt"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	HistoryLimit   int           `yaml:"history_limit"`
	MaxRounds      int           `yaml:"max_rounds"`
	Placeholder    string        `yaml:"placeholder"`
}

// LogConfig configures diagnostics logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	// File receives log output. Empty means stderr.
	File string `yaml:"file"`
}

// RosterConfig is the static set of agents and their shared house rules.
type RosterConfig struct {
	// HouseRules is a text/template; .Names holds every display name in order.
	HouseRules string        `yaml:"house_rules"`
	Agents     []AgentConfig `yaml:"agents"`
}

// AgentConfig describes one agent.
type AgentConfig struct {
	// ID is the stable key; defaults to the lower-cased name.
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	Persona string `yaml:"persona"`
}

// Names returns the display names in configured order.
func (r RosterConfig) Names() []string {
	names := make([]string, 0, len(r.Agents))
	for _, a := range r.Agents {
		names = append(names, a.Name)
	}

	return names
}

// Specs converts the roster to agent identities in configured order.
func (r RosterConfig) Specs() []core.AgentSpec {
	specs := make([]core.AgentSpec, 0, len(r.Agents))
	for _, a := range r.Agents {
		specs = append(specs, core.AgentSpec{
			ID:          a.ID,
			DisplayName: a.Name,
			Target:      a.Model,
			Persona:     a.Persona,
		})
	}

	return specs
}

// RenderHouseRules renders the house-rules template with the roster names.
func (r RosterConfig) RenderHouseRules() (string, error) {
	return util.RenderTemplate(r.HouseRules, map[string]any{"Names": r.Names()})
}

// normalize fills derived defaults.
func (c *Config) normalize() {
	c.Backend.Provider = strings.ToLower(strings.TrimSpace(c.Backend.Provider))

	for i := range c.Roster.Agents {
		a := &c.Roster.Agents[i]
		if a.ID == "" {
			a.ID = strings.ToLower(strings.TrimSpace(a.Name))
		}
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("backend.provider: unknown provider %q", c.Backend.Provider))
	}

	if c.Engine.PollInterval <= 0 {
		errs = append(errs, errors.New("engine.poll_interval must be positive"))
	}
	if c.Engine.RequestTimeout <= 0 {
		errs = append(errs, errors.New("engine.request_timeout must be positive"))
	}
	if c.Engine.TurnDelay < 0 {
		errs = append(errs, errors.New("engine.turn_delay must not be negative"))
	}
	if c.Engine.IdlePrompt < 0 || c.Engine.IdleTimeout < 0 {
		errs = append(errs, errors.New("engine idle durations must not be negative"))
	}
	if c.Engine.HistoryLimit < 0 {
		errs = append(errs, errors.New("engine.history_limit must not be negative"))
	}
	if c.Engine.MaxRounds < 0 {
		errs = append(errs, errors.New("engine.max_rounds must not be negative"))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	if len(c.Roster.Agents) == 0 {
		errs = append(errs, errors.New("roster.agents: at least one agent is required"))
	}

	seen := make(map[string]bool, len(c.Roster.Agents))
	for i, a := range c.Roster.Agents {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("roster.agents[%d]: id is required", i))
		} else if seen[a.ID] {
			errs = append(errs, fmt.Errorf("roster.agents[%d]: duplicate id %q", i, a.ID))
		}
		seen[a.ID] = true

		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Errorf("roster.agents[%d]: name is required", i))
		}
		if strings.TrimSpace(a.Model) == "" {
			errs = append(errs, fmt.Errorf("roster.agents[%d]: model is required", i))
		}
	}

	if _, err := c.Roster.RenderHouseRules(); err != nil {
		errs = append(errs, fmt.Errorf("roster.house_rules: %w", err))
	}

	return errors.Join(errs...)
}
