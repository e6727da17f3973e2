package session

import "fmt"

var (
	// ErrNotFound is returned when no transcript exists for a run id.
	ErrNotFound = fmt.Errorf("transcript not found")
)
