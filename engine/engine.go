package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/logging"
	"github.com/hupe1980/parley/model"
	"golang.org/x/time/rate"
)

// Config defines the timing and behavioral parameters of the conversation loop.
//
// Example:
//
//	cfg := engine.DefaultConfig
//	cfg.TurnDelay = 0
//	cfg.MaxRounds = 3
type Config struct {
	// PollInterval is the upper bound between two checks of the control
	// state while idle or paused. Waits also end early on any state change.
	PollInterval time.Duration

	// TurnDelay is the minimum spacing between two inference calls.
	// Zero disables pacing.
	TurnDelay time.Duration

	// RequestTimeout bounds a single inference call.
	RequestTimeout time.Duration

	// IdlePrompt is the idle duration after which a soft prompt is shown,
	// once per idle period.
	IdlePrompt time.Duration

	// IdleTimeout is the idle duration after which the conversation ends.
	IdleTimeout time.Duration

	// HistoryLimit bounds the committed history per agent. 0 means unbounded,
	// in which case every request grows by about one message per agent and
	// round until the model's context window is exhausted.
	// It is applied by whoever builds the channels; see parley.New.
	HistoryLimit int

	// HouseRules is the rendered text shared by every agent's seed message.
	HouseRules string

	// Placeholder is presented in place of a reply when inference fails.
	Placeholder string

	// MaxRounds ends the conversation after that many rounds. 0 means unlimited.
	MaxRounds int
}

// DefaultConfig holds the stock timings of an interactive session.
var DefaultConfig = Config{
	PollInterval:   time.Second,
	TurnDelay:      time.Second,
	RequestTimeout: 15 * time.Second,
	IdlePrompt:     30 * time.Second,
	IdleTimeout:    120 * time.Second,
	HistoryLimit:   50,
	Placeholder:    "No response from LLM.",
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// Presenter receives turns and notices. Defaults to NopPresenter.
	Presenter Presenter

	// Callbacks are executed at lifecycle points. Defaults to an empty manager.
	Callbacks *CallbackManager

	// Limiter paces inference calls. Defaults to one call per Config.TurnDelay.
	Limiter *rate.Limiter

	// RunID identifies this conversation in logs and callbacks. Defaults to a new UUID.
	RunID string
}

// Engine runs the round-robin conversation between a fixed set of agents.
//
// Each round the engine visits every agent in configured order, drains its
// mailbox, asks the model for a reply and broadcasts that reply to every
// other agent. Between agents it honors pause and stop requests from the
// shared ControlState; between rounds it waits for new messages and ends the
// conversation after a configurable idle period.
//
// Inference calls are never cancelled by a stop request: a call in flight
// completes (or times out) and the stop is observed at the next boundary.
type Engine struct {
	broadcaster *core.Broadcaster
	model       model.Model
	control     *core.ControlState

	config    Config
	logger    logging.Logger
	presenter Presenter
	callbacks *CallbackManager
	limiter   *rate.Limiter
	runID     string

	mu      sync.RWMutex
	state   State
	round   int
	started bool
}

// New creates an engine over the broadcaster's channels.
//
// The broadcaster defines both the agent order of every round and the
// fan-out targets of replies.
func New(
	broadcaster *core.Broadcaster,
	m model.Model,
	control *core.ControlState,
	optFns ...func(o *Options),
) *Engine {
	opts := Options{
		Config:    DefaultConfig,
		Logger:    logging.NoOpLogger{},
		Presenter: NopPresenter{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	if opts.Limiter == nil {
		limit := rate.Inf
		if opts.Config.TurnDelay > 0 {
			limit = rate.Every(opts.Config.TurnDelay)
		}

		opts.Limiter = rate.NewLimiter(limit, 1)
	}

	if opts.RunID == "" {
		opts.RunID = core.NewID()
	}

	if opts.Config.Placeholder == "" {
		opts.Config.Placeholder = DefaultConfig.Placeholder
	}

	if opts.Config.PollInterval <= 0 {
		opts.Config.PollInterval = DefaultConfig.PollInterval
	}

	if opts.Config.RequestTimeout <= 0 {
		opts.Config.RequestTimeout = DefaultConfig.RequestTimeout
	}

	return &Engine{
		broadcaster: broadcaster,
		model:       m,
		control:     control,
		config:      opts.Config,
		logger:      opts.Logger,
		presenter:   opts.Presenter,
		callbacks:   opts.Callbacks,
		limiter:     opts.Limiter,
		runID:       opts.RunID,
		state:       StateInit,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state
}

// Round returns the number of the current (or last) round, starting at 1.
func (e *Engine) Round() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.round
}

// RunID returns the identifier of this conversation.
func (e *Engine) RunID() string { return e.runID }

// Run probes the backend, seeds every agent and then executes rounds until
// a stop is requested, ctx is cancelled, the idle timeout elapses or
// Config.MaxRounds is reached. All of these end the run cleanly with a nil
// error. Only a failed backend probe is reported, wrapping
// core.ErrBackendUnreachable. Run may only be called once.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("engine already started")
	}
	e.started = true
	e.mu.Unlock()

	// A stop request cancels every wait of this run, but never an inference
	// call in flight, see turn.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-e.control.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	defer e.finish()

	if err := e.init(ctx); err != nil {
		return err
	}

	for {
		if e.stopped(ctx) {
			return nil
		}

		if err := e.waitWhilePaused(ctx); err != nil {
			return nil
		}

		if !e.control.Pending() {
			if timedOut := e.waitForActivity(ctx); timedOut || e.stopped(ctx) {
				return nil
			}

			// Activity may have been a pause toggle; re-check before the round.
			continue
		}

		if err := e.runRound(ctx); err != nil {
			return nil
		}

		if e.config.MaxRounds > 0 && e.Round() >= e.config.MaxRounds {
			e.logger.Info("Round limit reached", "run_id", e.runID, "rounds", e.config.MaxRounds)
			return nil
		}
	}
}

// init performs the INIT state: backend probe and seeding.
func (e *Engine) init(ctx context.Context) error {
	if pinger, ok := e.model.(model.Pinger); ok {
		probeCtx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout)
		err := pinger.Ping(probeCtx)

		cancel()

		if err != nil {
			e.logger.Error("Backend probe failed", "run_id", e.runID, "error", err)

			if !errors.Is(err, core.ErrBackendUnreachable) {
				err = fmt.Errorf("%w: %v", core.ErrBackendUnreachable, err)
			}

			return err
		}
	}

	e.logger.Info("Backend reachable", "run_id", e.runID, "provider", e.model.Info().Provider)
	e.notice(ctx, NewNotice(NoticeConnected))

	for _, ch := range e.broadcaster.Channels() {
		if err := ch.Seed(core.SeedMessage(ch.Spec(), e.config.HouseRules)); err != nil {
			return fmt.Errorf("seed %s: %w", ch.ID(), err)
		}

		e.logger.Debug("Agent seeded", "run_id", e.runID, "agent", ch.ID())
	}

	e.setState(ctx, StateRunning)

	return nil
}

// finish moves the engine to STOPPED and makes the stop visible to the dispatcher.
func (e *Engine) finish() {
	e.control.RequestStop()

	if e.State() == StateStopped {
		return
	}

	ctx := context.Background()
	e.setState(ctx, StateStopped)
	e.notice(ctx, NewNotice(NoticeStopped))
	e.logger.Info("Conversation stopped", "run_id", e.runID, "rounds", e.Round())
}

func (e *Engine) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || e.control.StopRequested()
}

// runRound executes one full round. It returns core.ErrStopped when a stop
// was observed at an agent boundary.
func (e *Engine) runRound(ctx context.Context) error {
	e.control.ClearPending()

	e.mu.Lock()
	e.round++
	round := e.round
	e.mu.Unlock()

	start := time.Now()
	turns := 0

	for _, ch := range e.broadcaster.Channels() {
		if err := e.limiter.Wait(ctx); err != nil {
			return core.ErrStopped
		}

		// Agent boundary: a pause parks the round here and resumes with this agent.
		if err := e.waitWhilePaused(ctx); err != nil {
			return err
		}

		if e.stopped(ctx) {
			return core.ErrStopped
		}

		e.turn(ctx, round, ch)
		turns++
	}

	if rl, ok := e.logger.(roundLogger); ok {
		rl.LogRound(round, turns, time.Since(start))
	} else {
		e.logger.Debug("Round completed", "run_id", e.runID, "round", round, "turns", turns, "duration", time.Since(start))
	}
	e.runCallbacks(ctx, CallbackAfterRound, &CallbackContext{RunID: e.runID, Round: round})

	return nil
}

// turn drains one agent's mailbox, asks the model and fans out the reply.
func (e *Engine) turn(ctx context.Context, round int, ch *core.AgentChannel) {
	drained := ch.DrainAll()

	e.runCallbacks(ctx, CallbackBeforeTurn, &CallbackContext{
		RunID:    e.runID,
		AgentID:  ch.ID(),
		Round:    round,
		Metadata: map[string]any{"drained": len(drained)},
	})

	// The call outlives a stop request; only RequestTimeout bounds it.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.RequestTimeout)
	start := time.Now()
	resp, err := model.Complete(callCtx, e.model, model.Request{
		Model:    ch.Target(),
		Messages: ch.Context(drained),
	})
	dur := time.Since(start)

	cancel()

	event := TurnEvent{
		Round:       round,
		AgentID:     ch.ID(),
		DisplayName: ch.DisplayName(),
		Duration:    dur,
	}

	if err != nil {
		ch.Requeue(drained)

		event.Err = fmt.Errorf("%w: agent %s: %v", core.ErrInference, ch.ID(), err)
		event.Reply = e.config.Placeholder
	} else {
		ch.Commit(drained, resp.Content)

		event.Reply = resp.Content
		event.Deliveries = e.broadcaster.BroadcastExcept(core.NewMessage(ch.DisplayName(), resp.Content), ch.ID())
	}

	e.logInference(ch, dur, err)
	e.presenter.PresentTurn(event)
	e.runCallbacks(ctx, CallbackAfterTurn, &CallbackContext{
		RunID:   e.runID,
		AgentID: ch.ID(),
		Round:   round,
		Turn:    &event,
	})
}

// inferenceLogger and roundLogger are implemented by logging.ConversationLogger.
type inferenceLogger interface {
	LogInferenceCall(agentID, model string, dur time.Duration, success bool, err error)
}

type roundLogger interface {
	LogRound(round, turns int, dur time.Duration)
}

func (e *Engine) logInference(ch *core.AgentChannel, dur time.Duration, err error) {
	if il, ok := e.logger.(inferenceLogger); ok {
		il.LogInferenceCall(ch.ID(), ch.Target(), dur, err == nil, err)
		return
	}

	if err != nil {
		e.logger.Warn("Inference call failed", "run_id", e.runID, "agent", ch.ID(), "model", ch.Target(), "duration", dur, "error", err)
		return
	}

	e.logger.Debug("Inference call completed", "run_id", e.runID, "agent", ch.ID(), "model", ch.Target(), "duration", dur)
}

// waitWhilePaused blocks while the conversation is paused. It returns
// core.ErrStopped if a stop is observed while waiting.
func (e *Engine) waitWhilePaused(ctx context.Context) error {
	if !e.control.Paused() {
		return nil
	}

	previous := e.State()
	e.setState(ctx, StatePaused)
	e.notice(ctx, NewNotice(NoticePaused))

	for {
		if e.stopped(ctx) {
			return core.ErrStopped
		}

		changed := e.control.Changed()
		if !e.control.Paused() {
			break
		}

		e.wait(ctx, changed)
	}

	if e.stopped(ctx) {
		return core.ErrStopped
	}

	e.notice(ctx, NewNotice(NoticeResumed))
	e.setState(ctx, previous)

	return nil
}

// waitForActivity is the IDLE_WAIT state. It returns true when the idle
// timeout elapsed, false as soon as a message is pending, the user toggled
// pause, or a stop was requested. Only enqueued messages reset the idle
// clock: a pause longer than IdleTimeout ends the run on resume unless a
// message arrived meanwhile.
func (e *Engine) waitForActivity(ctx context.Context) bool {
	e.setState(ctx, StateIdleWait)

	prompted := false

	for {
		if e.stopped(ctx) {
			return false
		}

		changed := e.control.Changed()

		snap := e.control.Snapshot()
		if snap.Pending || snap.Paused {
			e.setState(ctx, StateRunning)
			return false
		}

		idle := e.control.IdleFor()
		if e.config.IdleTimeout > 0 && idle >= e.config.IdleTimeout {
			e.logger.Info("Idle timeout reached", "run_id", e.runID, "idle", idle)
			e.notice(ctx, NewNotice(NoticeIdleTimeout))

			return true
		}

		if !prompted && e.config.IdlePrompt > 0 && idle >= e.config.IdlePrompt {
			prompted = true
			e.notice(ctx, NewNotice(NoticeIdlePrompt))
		}

		e.wait(ctx, changed)
	}
}

// wait blocks until changed fires, ctx ends or PollInterval elapsed.
func (e *Engine) wait(ctx context.Context, changed <-chan struct{}) {
	timer := time.NewTimer(e.config.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-changed:
	case <-timer.C:
	}
}

func (e *Engine) setState(ctx context.Context, next State) {
	e.mu.Lock()
	previous := e.state
	e.state = next
	round := e.round
	e.mu.Unlock()

	if previous == next {
		return
	}

	e.logger.Debug("Engine state changed", "run_id", e.runID, "from", previous.String(), "to", next.String())
	e.runCallbacks(ctx, CallbackOnStateChange, &CallbackContext{
		RunID:         e.runID,
		Round:         round,
		PreviousState: previous,
		State:         next,
	})
}

func (e *Engine) notice(ctx context.Context, n Notice) {
	e.presenter.PresentNotice(n)
	e.runCallbacks(ctx, CallbackOnNotice, &CallbackContext{RunID: e.runID, Round: e.Round(), Notice: &n})
}

func (e *Engine) runCallbacks(ctx context.Context, t CallbackType, cbCtx *CallbackContext) {
	// Callbacks observe the run even while it is shutting down.
	if err := e.callbacks.ExecuteCallbacks(context.WithoutCancel(ctx), t, cbCtx); err != nil {
		e.logger.Warn("Callback failed", "run_id", e.runID, "callback", string(t), "error", err)
	}
}
