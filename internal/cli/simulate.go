package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/keysweep/internal/config"
	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/field"
	"github.com/thruflo/keysweep/internal/logging"
	"github.com/thruflo/keysweep/internal/loop"
	"github.com/thruflo/keysweep/internal/page"
	"github.com/thruflo/keysweep/internal/supervisor"
	"github.com/thruflo/keysweep/internal/tui"
)

var (
	simMin          int
	simMax          int
	simMaxAttempts  int
	simInterval     time.Duration
	simAutoSubmit   bool
	simAccept       int
	simMissingAfter int
	simJSON         bool
	simPanel        bool
)

// SimulateResult is the JSON output format for simulate --json.
type SimulateResult struct {
	Reason      string `json:"reason"`             // Exit reason (e.g., "completed", "max attempts")
	Attempts    int    `json:"attempts"`           // Attempts made by the run
	Cursor      int    `json:"cursor"`             // Values consumed from the keyspace
	Total       int    `json:"total"`              // Keyspace size
	Submissions int    `json:"submissions"`        // Clicks and form submits the page saw
	Accepted    string `json:"accepted,omitempty"` // Value the page accepted, if any
	Error       string `json:"error,omitempty"`    // Error message if any
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a headless sweep against an in-memory page",
	Long: `Runs the driver loop against an in-memory page with one input field
and a "Join" button, starting in the running state, and prints one status
line per attempt.

Use --accept to make the page accept one value; the run stops when it is
submitted. Use --missing-after to make the field disappear after a number
of writes. Use --panel to drive the run from the control panel instead.

Example:
  keysweep simulate --min 1000 --max 1099 --auto-submit --accept 1042
  keysweep simulate --max 200 --missing-after 10
  keysweep simulate --max 150 --max-attempts 20 --json
  keysweep simulate --min 1000 --max 1999 --interval 200ms --panel`,
	Args: cobra.NoArgs,
	RunE: runSimulateCmd,
}

func init() {
	simulateCmd.Flags().IntVar(&simMin, "min", config.DefaultMin, "smallest value (default: config keyspace.min)")
	simulateCmd.Flags().IntVar(&simMax, "max", config.DefaultMax, "largest value (default: config keyspace.max)")
	simulateCmd.Flags().IntVar(&simMaxAttempts, "max-attempts", config.DefaultMaxAttempts, "attempt limit (default: config limits.max_attempts)")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 0, "delay between attempts; negative disables it (default: config timing.interval)")
	simulateCmd.Flags().BoolVar(&simAutoSubmit, "auto-submit", false, "submit each value")
	simulateCmd.Flags().IntVar(&simAccept, "accept", -1, "value the page accepts")
	simulateCmd.Flags().IntVar(&simMissingAfter, "missing-after", 0, "remove the field after this many writes")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print a JSON result instead of status lines")
	simulateCmd.Flags().BoolVar(&simPanel, "panel", false, "drive the simulation from the terminal panel")

	rootCmd.AddCommand(simulateCmd)
}

// simulateOptions configures a simulated sweep.
type simulateOptions struct {
	Min          int
	Max          int
	MaxAttempts  int
	Interval     time.Duration
	SettleDelay  time.Duration
	PausePoll    time.Duration
	Selector     string
	Matcher      field.Matcher
	AutoSubmit   bool
	Accept       int // Negative means nothing is accepted
	MissingAfter int
	Quiet        bool // Suppress per-attempt lines
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	opts := simulateOptions{
		Min:          cfg.Keyspace.Min,
		Max:          cfg.Keyspace.Max,
		MaxAttempts:  cfg.Limits.MaxAttempts,
		Interval:     cfg.Timing.Interval.Std(),
		SettleDelay:  cfg.Timing.SettleDelay.Std(),
		PausePoll:    cfg.Timing.PausePoll.Std(),
		Selector:     cfg.Field.Selector,
		Matcher:      cfg.Field.Matcher(),
		AutoSubmit:   simAutoSubmit,
		Accept:       simAccept,
		MissingAfter: simMissingAfter,
		Quiet:        simJSON,
	}
	flags := cmd.Flags()
	if flags.Changed("min") {
		opts.Min = simMin
	}
	if flags.Changed("max") {
		opts.Max = simMax
	}
	if flags.Changed("max-attempts") {
		opts.MaxAttempts = simMaxAttempts
	}
	if flags.Changed("interval") {
		opts.Interval = simInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var result SimulateResult
	if simPanel {
		result, err = simulatePanel(ctx, tui.NewPanel(os.Stdout, os.Stderr), opts)
	} else {
		result, err = simulate(ctx, out, opts)
	}
	if err != nil {
		return err
	}

	if simJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printSimulateSummary(out, result)
	}

	if result.Reason == loop.ExitReasonFieldMissing.String() {
		return fmt.Errorf("run ended: %s", result.Reason)
	}
	return nil
}

// simulation is a supervised run over an in-memory page.
type simulation struct {
	page    *page.Page
	machine *control.Machine
	sup     *supervisor.Supervisor
}

// newSimulation wires a page, a control machine and a supervisor. The
// machine starts running. sink sees every status; when the page accepts a
// submitted value the machine is stopped.
func newSimulation(opts simulateOptions, notifier control.Notifier, sink loop.StatusSink) *simulation {
	pageOpts := []page.Option{page.WithForm(true), page.WithButton("Join")}
	if opts.MissingAfter > 0 {
		pageOpts = append(pageOpts, page.WithFieldMissingAfter(opts.MissingAfter))
	}
	if opts.Accept >= 0 {
		want := strconv.Itoa(opts.Accept)
		pageOpts = append(pageOpts, page.WithAcceptor(func(v string) bool { return v == want }))
	}
	selector := opts.Selector
	if selector == "" {
		selector = config.DefaultSelector
	}
	pg := page.New(selector, pageOpts...)

	machine := control.NewMachine(notifier)
	if opts.AutoSubmit {
		machine.EnableAutoSubmit()
	}
	machine.Resume()

	stopOnAccept := loop.StatusFunc(func(st loop.Status) {
		if st.Final || st.Attempt == 0 {
			return
		}
		if _, ok := pg.Accepted(); ok {
			machine.Stop()
		}
	})

	sup := supervisor.New(supervisor.Options{
		Control: machine,
		Interactor: field.NewInteractor(field.Options{
			Host:        pg,
			Selector:    selector,
			Matcher:     opts.Matcher,
			SettleDelay: opts.SettleDelay,
		}),
		Min:         opts.Min,
		Max:         opts.Max,
		MaxAttempts: opts.MaxAttempts,
		Interval:    opts.Interval,
		PausePoll:   opts.PausePoll,
		Sink:        loop.MultiSink{sink, stopOnAccept},
		Logger:      logging.With("component", "simulate"),
	})

	return &simulation{page: pg, machine: machine, sup: sup}
}

// result summarizes the simulation from the supervisor's last status.
func (s *simulation) result() SimulateResult {
	st := s.sup.Status()
	r := SimulateResult{
		Reason:      st.Reason.String(),
		Attempts:    st.Attempt,
		Cursor:      st.Cursor,
		Total:       st.Total,
		Submissions: len(s.page.Submissions()),
	}
	if v, ok := s.page.Accepted(); ok {
		r.Accepted = v
	}
	return r
}

// simulate runs one supervised loop over an in-memory page until it exits,
// writing a status line per attempt to out unless opts.Quiet is set.
func simulate(ctx context.Context, out io.Writer, opts simulateOptions) (SimulateResult, error) {
	notifier := control.NotifierFunc(func(message string) {
		if !opts.Quiet {
			fmt.Fprintf(out, "notice: %s\n", message)
		}
	})
	lines := loop.StatusFunc(func(st loop.Status) {
		if !opts.Quiet && !st.Final && st.Attempt > 0 {
			fmt.Fprintln(out, st.Line())
		}
	})

	sim := newSimulation(opts, notifier, lines)
	defer sim.sup.Close()

	if err := sim.sup.Start(ctx); err != nil {
		return SimulateResult{}, fmt.Errorf("failed to start simulation: %w", err)
	}

	res := <-sim.sup.Results()

	result := sim.result()
	result.Reason = res.Reason.String()
	result.Attempts = res.Attempts
	result.Cursor = res.Cursor
	if res.Error != nil {
		result.Error = res.Error.Error()
	}
	return result, nil
}

// simulatePanel runs the simulation under the terminal panel. The session
// lasts until the operator quits, so runs can be stopped and reset.
func simulatePanel(ctx context.Context, panel *tui.Panel, opts simulateOptions) (SimulateResult, error) {
	panel.SetTarget("simulated page")
	sim := newSimulation(opts, panel, panel)
	defer sim.sup.Close()

	if err := panel.Attach(ctx); err != nil {
		return SimulateResult{}, fmt.Errorf("failed to attach panel: %w", err)
	}
	defer panel.Detach()

	if err := sim.sup.Start(ctx); err != nil {
		return SimulateResult{}, fmt.Errorf("failed to start simulation: %w", err)
	}

	if err := route(ctx, sim.sup, panel.Actions(), panel.Done(), nil, sim.sup.Results()); err != nil {
		return SimulateResult{}, err
	}
	panel.Detach()
	sim.sup.Close()
	return sim.result(), nil
}

func printSimulateSummary(out io.Writer, r SimulateResult) {
	fmt.Fprintf(out, "finished: %s after %d attempts (%d/%d)\n", r.Reason, r.Attempts, r.Cursor, r.Total)
	if r.Accepted != "" {
		fmt.Fprintf(out, "accepted: %s\n", r.Accepted)
	}
}
