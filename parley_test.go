package parley_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/parley"
	"github.com/hupe1980/parley/config"
	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/engine"
	"github.com/hupe1980/parley/input"
	"github.com/hupe1980/parley/internal/testutil"
	"github.com/hupe1980/parley/model"
	"github.com/hupe1980/parley/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAgents() []core.AgentSpec {
	return []core.AgentSpec{
		{ID: "a", DisplayName: "Alice", Target: "a", Persona: "You are Alice."},
		{ID: "b", DisplayName: "Bob", Target: "b", Persona: "You are Bob."},
	}
}

func fastConfig(maxRounds int) func(o *parley.Options) {
	return func(o *parley.Options) {
		cfg := engine.DefaultConfig
		cfg.TurnDelay = 0
		cfg.PollInterval = 5 * time.Millisecond
		cfg.HouseRules = "Be nice."
		cfg.MaxRounds = maxRounds
		o.EngineConfig = cfg
	}
}

func TestNew_RejectsInvalidRoster(t *testing.T) {
	mdl := model.NewMockModel("mock")

	_, err := parley.New(mdl, nil)
	require.Error(t, err)

	_, err = parley.New(mdl, []core.AgentSpec{{ID: "a"}, {ID: "a"}})
	require.Error(t, err)

	_, err = parley.New(mdl, []core.AgentSpec{{ID: ""}})
	require.Error(t, err)
}

func TestParley_SayThenRun(t *testing.T) {
	mdl := model.NewMockModel("mock")
	presenter := &testutil.RecordingPresenter{}

	p, err := parley.New(mdl, testAgents(), fastConfig(1), func(o *parley.Options) {
		o.Presenter = presenter
	})
	require.NoError(t, err)

	assert.Equal(t, 2, p.Say("Hello"))
	assert.Equal(t, 0, p.Say("   "))

	require.NoError(t, p.Run(context.Background(), nil))

	assert.Equal(t, 2, mdl.Calls())
	assert.Equal(t, []string{"a", "b"}, presenter.AgentOrder())
	assert.Equal(t, engine.StateStopped, p.Engine().State())
	assert.Equal(t, 1, presenter.NoticeCount(engine.NoticeStopped))
}

func TestParley_RunWithScriptedSource(t *testing.T) {
	mdl := model.NewMockModel("mock")
	presenter := &testutil.RecordingPresenter{}

	p, err := parley.New(mdl, testAgents(), fastConfig(0), func(o *parley.Options) {
		o.Presenter = presenter
	})
	require.NoError(t, err)

	presenter.OnTurn = func(ev engine.TurnEvent) {
		if ev.AgentID == "b" {
			p.Stop()
		}
	}

	source := input.NewScripted([]core.Intent{core.SubmitText("What is your name?")})

	require.NoError(t, p.Run(context.Background(), source))

	reqs := mdl.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].Messages, core.UserMessage("What is your name?"))
	assert.True(t, p.Control().StopRequested())
}

func TestParley_StopIntentFromSource(t *testing.T) {
	mdl := model.NewMockModel("mock")

	p, err := parley.New(mdl, testAgents(), fastConfig(0))
	require.NoError(t, err)

	source := input.NewScripted([]core.Intent{core.Stop()})

	require.NoError(t, p.Run(context.Background(), source))
	assert.Equal(t, 0, mdl.Calls())
}

func TestParley_BackendUnreachable(t *testing.T) {
	mdl := model.NewMockModel("mock")
	mdl.SetPingError(errors.New("connection refused"))

	p, err := parley.New(mdl, testAgents(), fastConfig(1))
	require.NoError(t, err)

	p.Say("Hello")

	err = p.Run(context.Background(), input.NewChannel(1))
	require.ErrorIs(t, err, core.ErrBackendUnreachable)
	assert.Equal(t, 0, mdl.Calls())
}

func TestParley_TogglePause(t *testing.T) {
	p, err := parley.New(model.NewMockModel("mock"), testAgents())
	require.NoError(t, err)

	assert.True(t, p.TogglePause())
	assert.True(t, p.Control().Paused())
	assert.False(t, p.TogglePause())
}

func TestNewModel_Providers(t *testing.T) {
	tests := []struct {
		name     string
		backend  config.BackendConfig
		provider string
		wantErr  bool
	}{
		{name: "Ollama", backend: config.BackendConfig{Provider: config.ProviderOllama, BaseURL: config.DefaultBaseURL}, provider: "ollama"},
		{name: "EmptyProvider", backend: config.BackendConfig{}, provider: "ollama"},
		{name: "OpenAI", backend: config.BackendConfig{Provider: config.ProviderOpenAI, BaseURL: config.DefaultBaseURL}, provider: "openai"},
		{name: "Anthropic", backend: config.BackendConfig{Provider: config.ProviderAnthropic, APIKey: "key", MaxTokens: 256}, provider: "anthropic"},
		{name: "Unknown", backend: config.BackendConfig{Provider: "bard"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := parley.NewModel(tt.backend, time.Second)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.provider, m.Info().Provider)
		})
	}
}

func TestEngineConfig_RendersHouseRules(t *testing.T) {
	cfg := config.Default()
	cfg.Roster.HouseRules = "Players: {{ join \", \" .Names }}"
	cfg.Engine.MaxRounds = 3

	engineCfg, err := parley.EngineConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Players: Sapphira, Jasper, Garnet, Ruby", engineCfg.HouseRules)
	assert.Equal(t, 3, engineCfg.MaxRounds)
	assert.Equal(t, cfg.Engine.IdleTimeout, engineCfg.IdleTimeout)
	assert.Equal(t, engine.DefaultConfig.HistoryLimit, engineCfg.HistoryLimit)
	assert.Equal(t, 50, engineCfg.HistoryLimit)
}

func TestEngineConfig_TemplateError(t *testing.T) {
	cfg := config.Default()
	cfg.Roster.HouseRules = "{{ .Missing }}"

	_, err := parley.EngineConfig(cfg)
	require.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()

	p, err := parley.NewFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, len(cfg.Roster.Agents), p.Broadcaster().Len())

	ch, ok := p.Broadcaster().Channel("sapphira")
	require.True(t, ok)
	assert.Equal(t, config.DefaultModel, ch.Target())
}

func TestParley_Transcript(t *testing.T) {
	mdl := model.NewMockModel("mock")
	mdl.AddReply("a", "Hi from A")
	mdl.AddReply("b", "Hi from B")
	store := session.NewInMemoryStore()

	p, err := parley.New(mdl, testAgents(), fastConfig(1), func(o *parley.Options) {
		o.Transcript = store
	})
	require.NoError(t, err)

	p.Say("Hello")
	require.NoError(t, p.Run(context.Background(), nil))

	tr, ok := store.Get(p.RunID())
	require.True(t, ok)
	require.Len(t, tr.Entries, 3)

	assert.Equal(t, "You", tr.Entries[0].Speaker)
	assert.Equal(t, "Hello", tr.Entries[0].Content)
	assert.Equal(t, "Alice", tr.Entries[1].Speaker)
	assert.Equal(t, "Hi from A", tr.Entries[1].Content)
	assert.Equal(t, "Bob", tr.Entries[2].Speaker)
}
