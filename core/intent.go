package core

import "fmt"

// IntentKind enumerates the abstract user intents understood by the dispatcher.
type IntentKind int

const (
	// IntentNone carries no action (e.g. an unmapped key).
	IntentNone IntentKind = iota
	// IntentStop requests the conversation to end.
	IntentStop
	// IntentTogglePause flips the paused flag.
	IntentTogglePause
	// IntentSubmitText injects user text into every agent mailbox.
	IntentSubmitText
)

// String returns the string representation of the intent kind.
func (k IntentKind) String() string {
	switch k {
	case IntentNone:
		return "none"
	case IntentStop:
		return "stop"
	case IntentTogglePause:
		return "toggle-pause"
	case IntentSubmitText:
		return "submit-text"
	default:
		return fmt.Sprintf("intent(%d)", int(k))
	}
}

// Intent is a decoded user interaction produced by an input source.
type Intent struct {
	Kind IntentKind
	Text string // only set for IntentSubmitText
}

// Stop returns a stop intent.
func Stop() Intent { return Intent{Kind: IntentStop} }

// TogglePause returns a pause/resume toggle intent.
func TogglePause() Intent { return Intent{Kind: IntentTogglePause} }

// SubmitText returns a text submission intent.
func SubmitText(text string) Intent { return Intent{Kind: IntentSubmitText, Text: text} }

// None returns an empty intent.
func None() Intent { return Intent{Kind: IntentNone} }
