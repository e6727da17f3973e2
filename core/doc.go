// Package core provides the foundational domain types shared by the parley
// engine and its input side:
//
//   - Message (immutable role + content value)
//   - AgentChannel (agent identity, mutex-guarded mailbox, committed history)
//   - Broadcaster (fan-out into every mailbox, optionally excluding one agent)
//   - ControlState (stop/pause/pending flags and last activity timestamp)
//   - Intent (abstract user interaction decoded by input sources)
//   - Sentinel errors for the run's error taxonomy
//
// The package keeps orchestration out of scope; the engine package drives
// rounds and the dispatch package turns intents into calls on these types.
package core
