package core

import "errors"

var (
	// ErrBackendUnreachable is returned when the startup liveness probe fails.
	// It is the only error that aborts a run before the first round.
	ErrBackendUnreachable = errors.New("inference backend unreachable")

	// ErrInference marks a failed inference call for a single agent turn.
	// The turn is skipped; the round continues.
	ErrInference = errors.New("inference failed")

	// ErrEmptyResponse is returned by transports when the backend answered
	// without any text content.
	ErrEmptyResponse = errors.New("empty response from backend")

	// ErrAlreadySeeded is returned when Seed is called twice on a channel.
	ErrAlreadySeeded = errors.New("agent channel already seeded")

	// ErrStopped signals that a stop was observed at a turn boundary.
	ErrStopped = errors.New("conversation stopped")
)
