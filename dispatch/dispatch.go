// Package dispatch routes user intents into the running conversation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/input"
	"github.com/hupe1980/parley/logging"
)

// Options configures a Dispatcher.
type Options struct {
	// Logger defaults to NoOp.
	Logger logging.Logger
	// OnSubmit, if set, observes every user message after it was broadcast.
	OnSubmit func(msg core.Message, deliveries int)
}

// Dispatcher pulls intents from a source and applies them to the shared
// control state and the agent mailboxes. It never waits on the engine.
type Dispatcher struct {
	source      input.Source
	broadcaster *core.Broadcaster
	control     *core.ControlState
	logger      logging.Logger
	onSubmit    func(core.Message, int)
}

// New creates a dispatcher.
func New(source input.Source, broadcaster *core.Broadcaster, control *core.ControlState, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{
		source:      source,
		broadcaster: broadcaster,
		control:     control,
		logger:      opts.Logger,
		onSubmit:    opts.OnSubmit,
	}
}

// Run dispatches intents until a stop is requested, ctx is cancelled or
// the source is exhausted. Cancellation of ctx counts as a stop request.
// An exhausted source ends input only; the conversation goes on.
func (d *Dispatcher) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-d.control.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		intent, err := d.source.Next(runCtx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				d.logger.Info("Input closed")
				return nil
			case ctx.Err() != nil:
				d.logger.Info("Interrupted, requesting stop")
				d.control.RequestStop()

				return nil
			case d.control.StopRequested():
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		d.Dispatch(intent)

		if d.control.StopRequested() {
			return nil
		}
	}
}

// Dispatch applies a single intent. It returns the number of mailboxes that
// received a message, which is zero for everything but non-blank text.
func (d *Dispatcher) Dispatch(intent core.Intent) int {
	switch intent.Kind {
	case core.IntentStop:
		d.logger.Info("Stop requested by user")
		d.control.RequestStop()
	case core.IntentTogglePause:
		paused := d.control.TogglePause()
		d.logger.Info("Pause toggled", "paused", paused)
	case core.IntentSubmitText:
		text := strings.TrimSpace(intent.Text)
		if text == "" {
			return 0
		}

		msg := core.UserMessage(text)
		delivered := d.broadcaster.BroadcastToAll(msg)
		d.logger.Debug("User message broadcast", "deliveries", delivered)

		if d.onSubmit != nil {
			d.onSubmit(msg, delivered)
		}

		return delivered
	case core.IntentNone:
	default:
		d.logger.Warn("Ignoring unknown intent", "kind", intent.Kind.String())
	}

	return 0
}
