// Command parley runs a round-robin conversation between several
// model-backed agents and a human in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hupe1980/parley"
	"github.com/hupe1980/parley/config"
	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/engine"
	"github.com/hupe1980/parley/input"
	"github.com/hupe1980/parley/internal/metrics"
	"github.com/hupe1980/parley/logging"
	"github.com/hupe1980/parley/session"
	"github.com/hupe1980/parley/terminal"
	"golang.org/x/sync/errgroup"
)

type cliFlags struct {
	configPath  string
	provider    string
	baseURL     string
	plain       bool
	testMode    bool
	logLevel    string
	logFile     string
	metricsFile string
	transcript  string
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags

	fs := flag.NewFlagSet("parley", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.provider, "provider", "", "inference provider: ollama, openai or anthropic")
	fs.StringVar(&f.baseURL, "base-url", "", "base URL of the inference backend")
	fs.BoolVar(&f.plain, "plain", false, "line based input and plain output instead of the terminal UI")
	fs.BoolVar(&f.testMode, "test-mode", false, "inject a scripted opening message instead of reading input")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "write logs to this file")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	fs.StringVar(&f.transcript, "transcript", "", "write the conversation transcript as YAML to this file on exit")

	if err := fs.Parse(args); err != nil {
		return f, err
	}

	return f, nil
}

func loadConfig(f cliFlags) (*config.Config, error) {
	cfg, err := config.NewLoader().WithConfigPath(f.configPath).Load()
	if err != nil {
		return nil, err
	}

	if f.provider != "" {
		cfg.Backend.Provider = strings.ToLower(f.provider)
	}
	if f.baseURL != "" {
		cfg.Backend.BaseURL = f.baseURL
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg config.LogConfig, interactive bool) (*logging.ConversationLogger, func(), error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)

	switch {
	case cfg.File != "":
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}

		out = file
		closeFn = func() { _ = file.Close() }
	case interactive:
		// stderr shares the terminal with the UI
		out = io.Discard
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    out,
		Component: "cli",
	})

	return logger, closeFn, nil
}

func writeTranscript(store *session.InMemoryStore, runID, path string, logger logging.Logger) {
	file, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create transcript file", "error", err)
		return
	}
	defer file.Close()

	if err := store.WriteYAML(file, runID); err != nil {
		logger.Error("Failed to write transcript", "error", err)
	}
}

func run(ctx context.Context, args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	interactive := !f.plain && !f.testMode

	logger, closeLog, err := newLogger(cfg.Log, interactive)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer closeLog()

	collector := metrics.NewCollector("parley", logger)
	callbacks := engine.NewCallbackManager()
	collector.Register(callbacks)
	callbacks.RegisterCallback(engine.NewLoggingCallback(engine.CallbackOnStateChange, logger))

	defer func() {
		if f.metricsFile == "" {
			return
		}
		if err := collector.WriteTextfile(f.metricsFile); err != nil {
			logger.Error("Failed to write metrics", "error", err)
		}
	}()

	names := cfg.Roster.Names()

	var (
		presenter engine.Presenter
		source    input.Source
		ui        *terminal.UI
	)

	switch {
	case f.testMode:
		presenter = terminal.NewConsole(os.Stdout, names...)
		source = input.NewScripted([]core.Intent{core.SubmitText("What is your name?")}, func(o *input.ScriptedOptions) {
			o.InitialDelay = 2 * time.Second
		})
	case f.plain:
		presenter = terminal.NewConsole(os.Stdout, names...)
		source = input.NewLines(os.Stdin)
	default:
		ui = terminal.NewUI(func(o *terminal.UIOptions) {
			o.Agents = names
		})
		presenter = ui
		source = ui
	}

	store := session.NewInMemoryStore()

	p, err := parley.NewFromConfig(cfg, func(o *parley.Options) {
		o.Presenter = presenter
		o.Callbacks = callbacks
		o.Logger = logger.WithComponent("parley")
		o.Transcript = store
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if f.transcript != "" {
		defer writeTranscript(store, p.RunID(), f.transcript, logger)
	}

	defer logger.StartTimer("conversation")()

	if ui == nil {
		return p.Run(ctx, source)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer ui.Quit()
		return p.Run(gctx, source)
	})

	g.Go(func() error {
		defer p.Stop()
		return ui.Run(gctx)
	})

	return g.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}

		fmt.Fprintf(os.Stderr, "parley: %v\n", err)

		stop()
		os.Exit(1)
	}
}
