package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/parley/logging"
)

// CallbackType defines the specific lifecycle points where callbacks can be executed.
//
// Callbacks provide a flexible mechanism for hooking into the conversation
// loop without modifying engine logic. Metrics collection and audit logging
// are both built on them.
//
// Available callback types:
//   - BeforeTurn/AfterTurn: Around a single agent's inference turn
//   - AfterRound: After every agent had its turn
//   - OnStateChange: When the engine moves between lifecycle states
//   - OnNotice: When a user facing notice is emitted
//
// Callbacks are executed synchronously on the engine goroutine.
type CallbackType string

const (
	// CallbackBeforeTurn is triggered after the mailbox was drained and before
	// the inference call is made.
	CallbackBeforeTurn CallbackType = "before_turn"

	// CallbackAfterTurn is triggered after a turn finished, successful or not.
	// CallbackContext.Turn carries the outcome.
	CallbackAfterTurn CallbackType = "after_turn"

	// CallbackAfterRound is triggered once every agent of a round had its turn.
	CallbackAfterRound CallbackType = "after_round"

	// CallbackOnStateChange is triggered on every lifecycle transition.
	CallbackOnStateChange CallbackType = "on_state_change"

	// CallbackOnNotice is triggered whenever a notice is presented.
	CallbackOnNotice CallbackType = "on_notice"
)

// CallbackContext provides context information for callback execution.
//
// Only the fields relevant to the callback type are populated: Turn for turn
// callbacks, PreviousState/State for state changes, Notice for notices.
type CallbackContext struct {
	// RunID identifies the conversation run.
	RunID string

	// AgentID identifies the agent associated with this callback, if any.
	AgentID string

	// Round is the 1-based round number (0 before the first round).
	Round int

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// PreviousState and State describe a lifecycle transition.
	PreviousState State
	State         State

	// Turn is the finished turn for CallbackAfterTurn.
	Turn *TurnEvent

	// Notice is the emitted notice for CallbackOnNotice.
	Notice *Notice

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for conversation lifecycle hooks.
//
// Implementations should be fast: they run synchronously on the engine
// goroutine and delay the next turn. Errors are logged by the engine and
// never abort the conversation.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(
//	    CallbackAfterTurn,
//	    func(ctx context.Context, callbackCtx *CallbackContext) error {
//	        log.Printf("%s replied", callbackCtx.AgentID)
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager is the registry of callbacks consulted by the engine.
//
// Callbacks run in registration order. Execution stops at the first error,
// which is returned to the caller. Registration and execution are safe for
// concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback to the manager for its type.
//
// Example:
//
//	manager := NewCallbackManager()
//	manager.RegisterCallback(loggingCallback)
//	manager.RegisterCallback(metricsCallback)
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// Len returns the number of callbacks registered for callbackType.
func (cm *CallbackManager) Len(callbackType CallbackType) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return len(cm.callbacks[callbackType])
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback writes a debug line for every lifecycle event it is registered for.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the event with whatever context is populated.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	args := []any{"callback", string(c.callbackType), "run_id", callbackCtx.RunID, "round", callbackCtx.Round}
	if callbackCtx.AgentID != "" {
		args = append(args, "agent", callbackCtx.AgentID)
	}
	if callbackCtx.Turn != nil {
		args = append(args, "failed", callbackCtx.Turn.Failed(), "duration", callbackCtx.Turn.Duration)
	}
	if callbackCtx.CallbackType == CallbackOnStateChange {
		args = append(args, "from", callbackCtx.PreviousState.String(), "to", callbackCtx.State.String())
	}
	if callbackCtx.Notice != nil {
		args = append(args, "notice", callbackCtx.Notice.Kind.String())
	}

	c.logger.Debug("Engine lifecycle event", args...)

	return nil
}
