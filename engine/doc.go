// Package engine implements the conversation loop of parley.
//
// The Engine owns the round-robin schedule over a fixed set of agent
// channels. It is one of two long-lived goroutines of a run; the other is the
// input dispatcher. Both share only the core.ControlState and the mailboxes.
//
// # Lifecycle
//
//	INIT ──probe ok, seed──▶ RUNNING ◀──toggle──▶ PAUSED
//	  │                        │  ▲
//	  │ probe failed           │  │ message pending
//	  ▼                        ▼  │
//	STOPPED ◀──idle timeout── IDLE_WAIT
//
// Any state moves to STOPPED when a stop is requested or the context ends.
//
// # Rounds
//
// A round clears the pending flag and then visits every channel in
// configured order. For each agent the engine waits for the pacing limiter,
// honors pause and stop at the agent boundary, drains the mailbox, calls the
// model with history plus drained messages, and on success broadcasts the
// reply to every other agent. A failed call puts the drained messages back,
// presents the placeholder reply and broadcasts nothing; the round goes on.
//
// # Extension points
//
//   - Presenter receives every TurnEvent and Notice
//   - CallbackManager runs before_turn, after_turn, after_round,
//     on_state_change and on_notice hooks (metrics, audit logging)
//   - Options.Limiter replaces the default pacing limiter
//
// Example:
//
//	control := core.NewControlState()
//	b := core.NewBroadcaster(channels...)
//	eng := engine.New(b, ollama.NewModel(), control, func(o *engine.Options) {
//	    o.Presenter = terminal.NewConsole(os.Stdout)
//	})
//	err := eng.Run(ctx)
package engine
