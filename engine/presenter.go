package engine

import "time"

// TurnEvent describes one finished agent turn.
type TurnEvent struct {
	Round       int
	AgentID     string
	DisplayName string
	// Reply is the agent's answer, or the configured placeholder when Err is set.
	Reply string
	// Err wraps core.ErrInference when the backend call failed.
	Err error
	// Deliveries is the number of mailboxes that received the reply.
	Deliveries int
	Duration   time.Duration
}

// Failed reports whether the turn produced no reply.
func (t TurnEvent) Failed() bool { return t.Err != nil }

// NoticeKind classifies engine notices shown to the user.
type NoticeKind int

const (
	// NoticeConnected is emitted once the backend probe succeeded.
	NoticeConnected NoticeKind = iota
	// NoticePaused is emitted when the engine parks at an agent boundary.
	NoticePaused
	// NoticeResumed is emitted when a pause ends.
	NoticeResumed
	// NoticeIdlePrompt is the soft prompt emitted once per idle period.
	NoticeIdlePrompt
	// NoticeIdleTimeout is emitted right before an idle shutdown.
	NoticeIdleTimeout
	// NoticeStopped is emitted when the engine reaches StateStopped.
	NoticeStopped
)

// String returns the string representation of the notice kind.
func (k NoticeKind) String() string {
	switch k {
	case NoticeConnected:
		return "connected"
	case NoticePaused:
		return "paused"
	case NoticeResumed:
		return "resumed"
	case NoticeIdlePrompt:
		return "idle_prompt"
	case NoticeIdleTimeout:
		return "idle_timeout"
	case NoticeStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Notice is a user facing status line.
type Notice struct {
	Kind NoticeKind
	Text string
}

var noticeTexts = map[NoticeKind]string{
	NoticeConnected:   "Connected to the inference backend.",
	NoticePaused:      "Conversation paused. Press ESC to resume or type a message.",
	NoticeResumed:     "Conversation resumed.",
	NoticeIdlePrompt:  "Do you want to continue talking? Type a message to continue, or Ctrl+C to stop.",
	NoticeIdleTimeout: "No messages received for a long time. Ending conversation.",
	NoticeStopped:     "Conversation ended.",
}

// NewNotice returns a notice of kind k with its default text.
func NewNotice(k NoticeKind) Notice {
	return Notice{Kind: k, Text: noticeTexts[k]}
}

// Presenter receives conversation output. Implementations must be safe for
// use from the engine goroutine while input is handled elsewhere.
type Presenter interface {
	PresentTurn(TurnEvent)
	PresentNotice(Notice)
}

// NopPresenter discards everything.
type NopPresenter struct{}

// PresentTurn implements Presenter.
func (NopPresenter) PresentTurn(TurnEvent) {}

// PresentNotice implements Presenter.
func (NopPresenter) PresentNotice(Notice) {}
