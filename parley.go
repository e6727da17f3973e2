// Package parley provides a high-level façade over the conversation engine,
// the input dispatcher and the shared control state, enabling a round-robin
// conversation between several model-backed agents and a human participant.
// Most applications interact with this package by:
//  1. Creating a Parley via New() or NewFromConfig() with a model and a roster
//  2. Running it with an input source (terminal UI, lines, a script)
//
// The façade wires the two long-lived goroutines of a run (engine loop and
// input dispatcher) and supervises them with an errgroup. They share only
// the ControlState and the agent mailboxes.
package parley

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/dispatch"
	"github.com/hupe1980/parley/engine"
	"github.com/hupe1980/parley/input"
	"github.com/hupe1980/parley/logging"
	"github.com/hupe1980/parley/model"
	"github.com/hupe1980/parley/session"
	"golang.org/x/sync/errgroup"
)

// Options configures the Parley instance.
type Options struct {
	// EngineConfig holds timings, house rules and limits.
	EngineConfig engine.Config

	// Presenter receives turns and notices (defaults to engine.NopPresenter).
	Presenter engine.Presenter

	// Callbacks are handed to the engine (defaults to an empty manager).
	Callbacks *engine.CallbackManager

	// Now is the clock of the control state (defaults to time.Now).
	Now func() time.Time

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Transcript, if set, records user messages and agent turns.
	Transcript *session.InMemoryStore
}

// Parley is the high-level façade aggregating engine, dispatcher and control state.
type Parley struct {
	opts        Options
	control     *core.ControlState
	broadcaster *core.Broadcaster
	engine      *engine.Engine
	direct      *dispatch.Dispatcher
}

// New creates a conversation between the given agents, in order.
func New(m model.Model, agents []core.AgentSpec, optFns ...func(o *Options)) (*Parley, error) {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Presenter:    engine.NopPresenter{},
		Now:          time.Now,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Callbacks == nil {
		opts.Callbacks = engine.NewCallbackManager()
	}

	if len(agents) == 0 {
		return nil, fmt.Errorf("at least one agent is required")
	}

	control := core.NewControlState(func(o *core.ControlOptions) { o.Now = opts.Now })

	seen := make(map[string]bool, len(agents))
	channels := make([]*core.AgentChannel, 0, len(agents))

	for _, spec := range agents {
		if spec.ID == "" || seen[spec.ID] {
			return nil, fmt.Errorf("invalid or duplicate agent id %q", spec.ID)
		}
		seen[spec.ID] = true

		channels = append(channels, core.NewAgentChannel(spec, func(o *core.ChannelOptions) {
			o.Activity = control
			o.HistoryLimit = opts.EngineConfig.HistoryLimit
		}))
	}

	broadcaster := core.NewBroadcaster(channels...)

	if opts.Transcript != nil {
		opts.Transcript.Register(opts.Callbacks)
	}

	eng := engine.New(broadcaster, m, control, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Logger = opts.Logger
		o.Presenter = opts.Presenter
		o.Callbacks = opts.Callbacks
	})

	p := &Parley{
		opts:        opts,
		control:     control,
		broadcaster: broadcaster,
		engine:      eng,
	}
	p.direct = dispatch.New(nil, broadcaster, control, p.dispatchOptions)

	return p, nil
}

func (p *Parley) dispatchOptions(o *dispatch.Options) {
	o.Logger = p.opts.Logger

	if t := p.opts.Transcript; t != nil {
		o.OnSubmit = func(msg core.Message, _ int) {
			t.RecordUser(p.engine.RunID(), p.engine.Round(), msg)
		}
	}
}

// Run starts the engine and, if source is non-nil, a dispatcher reading it.
// It returns when the engine stopped and the dispatcher returned. A nil error
// means a clean end (stop, idle timeout, round limit, cancelled ctx).
func (p *Parley) Run(ctx context.Context, source input.Source) error {
	g, gctx := errgroup.WithContext(ctx)

	p.opts.Logger.Info("Starting conversation", "run_id", p.engine.RunID(), "agents", p.broadcaster.Len())

	g.Go(func() error {
		return p.engine.Run(gctx)
	})

	if source != nil {
		d := dispatch.New(source, p.broadcaster, p.control, p.dispatchOptions)

		g.Go(func() error {
			return d.Run(gctx)
		})
	}

	return g.Wait()
}

// Say injects user text into every agent's mailbox. Blank text is ignored.
func (p *Parley) Say(text string) int {
	return p.direct.Dispatch(core.SubmitText(text))
}

// TogglePause pauses or resumes the conversation and returns the new paused state.
func (p *Parley) TogglePause() bool { return p.control.TogglePause() }

// Stop requests the conversation to end at the next boundary.
func (p *Parley) Stop() { p.control.RequestStop() }

// Control exposes the shared control state.
func (p *Parley) Control() *core.ControlState { return p.control }

// Broadcaster exposes the agent channels.
func (p *Parley) Broadcaster() *core.Broadcaster { return p.broadcaster }

// Engine exposes the underlying engine.
func (p *Parley) Engine() *engine.Engine { return p.engine }

// RunID identifies this conversation, e.g. in the transcript store.
func (p *Parley) RunID() string { return p.engine.RunID() }
