// Package logging provides a minimal logging interface and adapters for parley.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine, dispatcher and transports use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ConversationLogger with run/agent context and inference helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	eng := engine.New(broadcaster, mdl, control, func(o *engine.Options) { o.Logger = logger })
//
// Conversation output is not logging: replies go to an engine.Presenter, logs
// go to stderr or a file so they do not interleave with the terminal UI.
package logging
