package field

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thruflo/keysweep/internal/logging"
)

// ErrFieldNotFound is returned when the target field cannot be located.
var ErrFieldNotFound = errors.New("target field not found")

// DefaultSettleDelay is the pause after a write that lets the page's
// asynchronous state updates run.
const DefaultSettleDelay = 20 * time.Millisecond

// Outcome is the submission result of one attempt.
type Outcome int

const (
	// OutcomeDisabled means auto-submit was off; nothing was tried.
	OutcomeDisabled Outcome = iota
	// OutcomeSubmitted means a click or form submit was dispatched.
	OutcomeSubmitted
	// OutcomeNotSubmitted means every submission option failed.
	OutcomeNotSubmitted
)

// String returns the status readout form: disabled, yes or no.
func (o Outcome) String() string {
	switch o {
	case OutcomeSubmitted:
		return "yes"
	case OutcomeNotSubmitted:
		return "no"
	default:
		return "disabled"
	}
}

// Attempted reports whether submission was tried at all.
func (o Outcome) Attempted() bool {
	return o != OutcomeDisabled
}

// Dispatched reports whether a submission action was actually dispatched.
// It says nothing about whether the page accepted the value.
func (o Outcome) Dispatched() bool {
	return o == OutcomeSubmitted
}

// Options configures an Interactor.
type Options struct {
	Host        Host
	Selector    string
	Matcher     Matcher       // Defaults to DefaultMatcher()
	SettleDelay time.Duration // Zero means no settle delay
	Logger      *logging.Logger
}

// Interactor writes values into the target field and submits them.
// It holds no per-attempt state.
type Interactor struct {
	host     Host
	selector string
	matcher  Matcher
	settle   time.Duration
	log      *logging.Logger
}

// NewInteractor creates an Interactor.
func NewInteractor(opts Options) *Interactor {
	matcher := opts.Matcher
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	log := opts.Logger
	if log == nil {
		log = logging.With("component", "field")
	}
	return &Interactor{
		host:     opts.Host,
		selector: opts.Selector,
		matcher:  matcher,
		settle:   opts.SettleDelay,
		log:      log,
	}
}

// LocateField finds the target field. Host query failures are reported as
// ErrFieldNotFound since the loop cannot proceed either way.
func (i *Interactor) LocateField(ctx context.Context) (Field, error) {
	f, err := i.host.FindField(ctx, i.selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFieldNotFound, i.selector, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, i.selector)
	}
	return f, nil
}

// LocateSubmitControl returns the first control whose label matches, or nil.
func (i *Interactor) LocateSubmitControl(ctx context.Context) Control {
	controls, err := i.host.Controls(ctx)
	if err != nil {
		i.log.Warn("failed to list controls", "error", err)
		return nil
	}

	for _, c := range controls {
		label, err := c.Label(ctx)
		if err != nil {
			i.log.Debug("failed to read control label", "error", err)
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if i.matcher.Match(label) {
			return c
		}
	}
	return nil
}

// WriteValue focuses the field, sets value through the native setter, fires
// input then change, blurs, and waits for the settle delay. A failing step
// does not stop later steps; all failures are returned joined.
func (i *Interactor) WriteValue(ctx context.Context, f Field, value string) error {
	var errs []error

	if err := f.Focus(ctx); err != nil {
		errs = append(errs, fmt.Errorf("focus: %w", err))
	}
	if err := f.SetNativeValue(ctx, value); err != nil {
		errs = append(errs, fmt.Errorf("set value: %w", err))
	}
	for _, ev := range []Event{{Type: EventInput}, {Type: EventChange}} {
		if err := f.Dispatch(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("dispatch %s: %w", ev.Type, err))
		}
	}
	if err := f.Blur(ctx); err != nil {
		errs = append(errs, fmt.Errorf("blur: %w", err))
	}

	if err := sleep(ctx, i.settle); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TrySubmit submits the field's current value if autoSubmit is set.
// It clicks ctl when present; otherwise, or if the click fails, it sends an
// Enter key pair to the field and submits the field's form.
func (i *Interactor) TrySubmit(ctx context.Context, f Field, ctl Control, autoSubmit bool) Outcome {
	if !autoSubmit {
		return OutcomeDisabled
	}

	if ctl != nil {
		err := ctl.Click(ctx)
		if err == nil {
			return OutcomeSubmitted
		}
		i.log.Warn("submit control click failed", "error", err)
	}

	for _, ev := range []Event{
		{Type: EventKeyDown, Key: "Enter"},
		{Type: EventKeyUp, Key: "Enter"},
	} {
		if err := f.Dispatch(ctx, ev); err != nil {
			i.log.Warn("enter key dispatch failed", "event", string(ev.Type), "error", err)
			return OutcomeNotSubmitted
		}
	}

	ok, err := f.SubmitForm(ctx)
	if err != nil {
		i.log.Warn("form submit failed", "error", err)
		return OutcomeNotSubmitted
	}
	if ok {
		return OutcomeSubmitted
	}
	return OutcomeNotSubmitted
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
