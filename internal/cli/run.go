package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thruflo/keysweep/internal/cdp"
	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/field"
	"github.com/thruflo/keysweep/internal/logging"
	"github.com/thruflo/keysweep/internal/loop"
	"github.com/thruflo/keysweep/internal/supervisor"
	"github.com/thruflo/keysweep/internal/tui"
)

// ErrHostClosed is returned when the browser connection drops mid-run.
var ErrHostClosed = errors.New("devtools connection closed")

var (
	runDevTools   string
	runPageMatch  string
	runAutoSubmit bool
	runStart      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sweep the keyspace through a page in a running browser",
	Long: `Attaches to a page in a browser started with remote debugging enabled
(for example chrome --remote-debugging-port=9222), then opens the control
panel. The run starts paused unless --start is given.

Panel keys:
  e          enable auto-submit (cannot be turned off)
  p, space   pause or resume
  s          stop
  r          reset to paused, keeping progress
  t          toggle the attempt tail
  q, esc     quit

Example:
  keysweep run --page example.com/lobby
  keysweep run --config keysweep.yaml --devtools http://127.0.0.1:9333 --start`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDevTools, "devtools", "", "DevTools HTTP endpoint (default: config host.devtools_url)")
	runCmd.Flags().StringVar(&runPageMatch, "page", "", "substring of the page URL or title to attach to (default: config host.page_match)")
	runCmd.Flags().BoolVar(&runAutoSubmit, "auto-submit", false, "enable auto-submit before the first attempt")
	runCmd.Flags().BoolVar(&runStart, "start", false, "start running instead of paused")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	if runDevTools != "" {
		cfg.Host.DevToolsURL = runDevTools
	}
	if runPageMatch != "" {
		cfg.Host.PageMatch = runPageMatch
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, err := cdp.DiscoverPage(ctx, cfg.Host.DevToolsURL, cfg.Host.PageMatch)
	if err != nil {
		return fmt.Errorf("failed to find page: %w", err)
	}
	client, err := cdp.Dial(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		return fmt.Errorf("failed to connect to page: %w", err)
	}
	defer client.Close()

	logging.Info("attached to page", "url", target.URL, "title", target.Title)

	panel := tui.NewPanel(os.Stdout, os.Stderr)
	panel.SetTarget(target.URL)

	machine := control.NewMachine(panel)
	if runAutoSubmit {
		machine.EnableAutoSubmit()
	}
	if runStart {
		machine.Resume()
	}

	sup := supervisor.New(supervisor.Options{
		Control: machine,
		Interactor: field.NewInteractor(field.Options{
			Host:        cdp.NewDocument(client),
			Selector:    cfg.Field.Selector,
			Matcher:     cfg.Field.Matcher(),
			SettleDelay: cfg.Timing.SettleDelay.Std(),
		}),
		Min:         cfg.Keyspace.Min,
		Max:         cfg.Keyspace.Max,
		MaxAttempts: cfg.Limits.MaxAttempts,
		Interval:    cfg.Timing.Interval.Std(),
		PausePoll:   cfg.Timing.PausePoll.Std(),
		Sink:        panel,
	})
	defer sup.Close()

	if err := panel.Attach(ctx); err != nil {
		return fmt.Errorf("keysweep run needs an interactive terminal, use simulate for headless runs: %w", err)
	}
	defer panel.Detach()

	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	return route(ctx, sup, panel.Actions(), panel.Done(), client.Done(), sup.Results())
}

// commandApplier applies operator commands.
type commandApplier interface {
	Apply(cmd control.Command) error
}

// route forwards panel actions to the supervisor until the operator
// detaches, the panel closes, the host goes away or ctx ends. Loop results
// are logged and do not end the session, since a reset can start a new run.
func route(
	ctx context.Context,
	sup commandApplier,
	actions <-chan tui.ActionEvent,
	panelDone <-chan struct{},
	hostDone <-chan struct{},
	results <-chan loop.Result,
) error {
	log := logging.With("component", "cli")
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-panelDone:
			return nil

		case <-hostDone:
			return ErrHostClosed

		case res, ok := <-results:
			if !ok {
				return nil
			}
			log.Info("run ended", "run", res.RunID, "reason", res.Reason.String(), "attempts", res.Attempts)

		case ev := <-actions:
			if ev.Action == tui.ActionDetach {
				return nil
			}
			cmd, ok := ev.Action.Command()
			if !ok {
				continue
			}
			if err := sup.Apply(cmd); err != nil {
				log.Warn("command failed", "command", string(cmd), "error", err)
			}
		}
	}
}
