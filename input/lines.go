package input

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/hupe1980/parley/core"
)

// ParseLine maps one line of plain input onto an intent. Slash commands
// control the conversation; any other non-blank line is user text.
func ParseLine(line string) core.Intent {
	text := strings.TrimSpace(line)

	switch strings.ToLower(text) {
	case "":
		return core.None()
	case "/stop", "/quit", "/exit":
		return core.Stop()
	case "/pause", "/resume":
		return core.TogglePause()
	default:
		return core.SubmitText(text)
	}
}

type lineResult struct {
	line string
	err  error
}

// Lines reads intents line by line from a reader, for terminals without raw
// key support and for piped input.
type Lines struct {
	results chan lineResult
}

// NewLines starts reading r in the background. The reader goroutine ends at
// EOF or on the first read error.
func NewLines(r io.Reader) *Lines {
	l := &Lines{results: make(chan lineResult)}

	go func() {
		defer close(l.results)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			l.results <- lineResult{line: scanner.Text()}
		}

		if err := scanner.Err(); err != nil {
			l.results <- lineResult{err: err}
		}
	}()

	return l
}

// Next implements Source. Blank lines yield IntentNone.
func (l *Lines) Next(ctx context.Context) (core.Intent, error) {
	select {
	case <-ctx.Done():
		return core.None(), ctx.Err()
	case res, ok := <-l.results:
		if !ok {
			return core.None(), io.EOF
		}

		if res.err != nil {
			return core.None(), res.err
		}

		return ParseLine(res.line), nil
	}
}
