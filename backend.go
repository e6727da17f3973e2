package parley

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/parley/config"
	"github.com/hupe1980/parley/engine"
	"github.com/hupe1980/parley/model"
	"github.com/hupe1980/parley/model/anthropic"
	"github.com/hupe1980/parley/model/ollama"
	"github.com/hupe1980/parley/model/openai"
)

// NewModel builds the inference transport selected by cfg. The default
// base URL (a local Ollama server) is translated for the other providers:
// openai talks to Ollama's OpenAI-compatible /v1 endpoint, anthropic falls
// back to the SDK default.
func NewModel(cfg config.BackendConfig, requestTimeout time.Duration) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return ollama.NewModel(func(o *ollama.Options) {
			if cfg.BaseURL != "" {
				o.BaseURL = cfg.BaseURL
			}
			if requestTimeout > 0 {
				o.Timeout = requestTimeout
			}
			o.Temperature = cfg.Temperature
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.BaseURL = cfg.BaseURL
			if cfg.BaseURL == config.DefaultBaseURL {
				o.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/"
			}
			o.APIKey = cfg.APIKey
			if o.APIKey == "" && o.BaseURL != "" {
				// Local OpenAI-compatible servers ignore the key but the client requires one.
				o.APIKey = "parley"
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.BaseURL != config.DefaultBaseURL {
				o.BaseURL = cfg.BaseURL
			}
			o.APIKey = cfg.APIKey
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// EngineConfig converts the loaded configuration into engine settings,
// rendering the house rules.
func EngineConfig(cfg *config.Config) (engine.Config, error) {
	rules, err := cfg.Roster.RenderHouseRules()
	if err != nil {
		return engine.Config{}, fmt.Errorf("render house rules: %w", err)
	}

	return engine.Config{
		PollInterval:   cfg.Engine.PollInterval,
		TurnDelay:      cfg.Engine.TurnDelay,
		RequestTimeout: cfg.Engine.RequestTimeout,
		IdlePrompt:     cfg.Engine.IdlePrompt,
		IdleTimeout:    cfg.Engine.IdleTimeout,
		HistoryLimit:   cfg.Engine.HistoryLimit,
		HouseRules:     rules,
		Placeholder:    cfg.Engine.Placeholder,
		MaxRounds:      cfg.Engine.MaxRounds,
	}, nil
}

// NewFromConfig builds the model and the conversation described by cfg.
// Further options are applied after the configuration.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*Parley, error) {
	m, err := NewModel(cfg.Backend, cfg.Engine.RequestTimeout)
	if err != nil {
		return nil, err
	}

	engineCfg, err := EngineConfig(cfg)
	if err != nil {
		return nil, err
	}

	return New(m, cfg.Roster.Specs(), append([]func(o *Options){func(o *Options) {
		o.EngineConfig = engineCfg
	}}, optFns...)...)
}
