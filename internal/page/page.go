// Package page provides an in-memory host page implementing field.Host.
// It records every interaction so tests and simulations can inspect what
// the interactor did, and supports fault injection for the failure paths.
package page

import (
	"context"
	"errors"
	"sync"

	"github.com/thruflo/keysweep/internal/field"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected failure")

// Page is an in-memory document with one input field and some controls.
type Page struct {
	mu sync.Mutex

	selector string
	present  bool
	value    string
	focused  bool
	hasForm  bool
	formOK   bool

	values      []string
	events      []field.Event
	submissions []string
	focusCount  int
	blurCount   int

	buttons      []*Button
	missingAfter int // Remove the field after this many writes; 0 disables
	failEvents   map[field.EventType]bool
	acceptor     func(value string) bool
	accepted     string
	hasAccepted  bool
}

// Option configures a Page.
type Option func(*Page)

// WithForm places the field inside a form. A non-submittable form makes
// SubmitForm report false.
func WithForm(submittable bool) Option {
	return func(p *Page) {
		p.hasForm = true
		p.formOK = submittable
	}
}

// WithButton adds a control with the given label.
func WithButton(label string) Option {
	return func(p *Page) {
		p.buttons = append(p.buttons, &Button{page: p, label: label})
	}
}

// WithFailingButton adds a control whose Click always fails.
func WithFailingButton(label string) Option {
	return func(p *Page) {
		p.buttons = append(p.buttons, &Button{page: p, label: label, fail: true})
	}
}

// WithFieldMissingAfter removes the field once n values have been written.
func WithFieldMissingAfter(n int) Option {
	return func(p *Page) { p.missingAfter = n }
}

// WithFailingEvents makes Dispatch fail for the given event types.
func WithFailingEvents(types ...field.EventType) Option {
	return func(p *Page) {
		for _, t := range types {
			p.failEvents[t] = true
		}
	}
}

// WithAcceptor marks the first submitted value for which accept returns true.
func WithAcceptor(accept func(value string) bool) Option {
	return func(p *Page) { p.acceptor = accept }
}

// New creates a page whose field answers to selector.
func New(selector string, opts ...Option) *Page {
	p := &Page{
		selector:   selector,
		present:    true,
		failEvents: make(map[field.EventType]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindField implements field.Host.
func (p *Page) FindField(ctx context.Context, selector string) (field.Field, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present || selector != p.selector {
		return nil, nil
	}
	return &Input{page: p}, nil
}

// Controls implements field.Host.
func (p *Page) Controls(ctx context.Context) ([]field.Control, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]field.Control, len(p.buttons))
	for i, b := range p.buttons {
		out[i] = b
	}
	return out, nil
}

// RemoveField makes the field disappear.
func (p *Page) RemoveField() {
	p.mu.Lock()
	p.present = false
	p.mu.Unlock()
}

// RestoreField brings the field back.
func (p *Page) RestoreField() {
	p.mu.Lock()
	p.present = true
	p.mu.Unlock()
}

// Value returns the field's current value.
func (p *Page) Value() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Values returns every value written through the native setter, in order.
func (p *Page) Values() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.values...)
}

// Events returns every event dispatched on the field, in order.
func (p *Page) Events() []field.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]field.Event(nil), p.events...)
}

// Submissions returns the field value at each click or form submit.
func (p *Page) Submissions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.submissions...)
}

// Focused reports whether the field currently has focus.
func (p *Page) Focused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// FocusCounts returns how many times the field was focused and blurred.
func (p *Page) FocusCounts() (focus, blur int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focusCount, p.blurCount
}

// Accepted returns the first value the acceptor approved.
func (p *Page) Accepted() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accepted, p.hasAccepted
}

// Button returns the control with the given label, or nil.
func (p *Page) Button(label string) *Button {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.buttons {
		if b.label == label {
			return b
		}
	}
	return nil
}

// submitLocked records a submission. Callers hold p.mu.
func (p *Page) submitLocked() {
	p.submissions = append(p.submissions, p.value)
	if !p.hasAccepted && p.acceptor != nil && p.acceptor(p.value) {
		p.accepted = p.value
		p.hasAccepted = true
	}
}

// Input is the page's field handle.
type Input struct {
	page *Page
}

// Focus implements field.Field.
func (in *Input) Focus(ctx context.Context) error {
	p := in.page
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focused = true
	p.focusCount++
	return nil
}

// SetNativeValue implements field.Field.
func (in *Input) SetNativeValue(ctx context.Context, value string) error {
	p := in.page
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = value
	p.values = append(p.values, value)
	if p.missingAfter > 0 && len(p.values) >= p.missingAfter {
		p.present = false
	}
	return nil
}

// Dispatch implements field.Field.
func (in *Input) Dispatch(ctx context.Context, ev field.Event) error {
	p := in.page
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failEvents[ev.Type] {
		return ErrInjected
	}
	p.events = append(p.events, ev)
	return nil
}

// Blur implements field.Field.
func (in *Input) Blur(ctx context.Context) error {
	p := in.page
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focused = false
	p.blurCount++
	return nil
}

// SubmitForm implements field.Field.
func (in *Input) SubmitForm(ctx context.Context) (bool, error) {
	p := in.page
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasForm || !p.formOK {
		return false, nil
	}
	p.submitLocked()
	return true, nil
}

// Button is a labelled control on the page.
type Button struct {
	page   *Page
	label  string
	fail   bool
	clicks int
}

// Label implements field.Control.
func (b *Button) Label(ctx context.Context) (string, error) {
	return b.label, nil
}

// Click implements field.Control.
func (b *Button) Click(ctx context.Context) error {
	p := b.page
	p.mu.Lock()
	defer p.mu.Unlock()
	if b.fail {
		return ErrInjected
	}
	b.clicks++
	p.submitLocked()
	return nil
}

// Clicks returns how many successful clicks the control received.
func (b *Button) Clicks() int {
	b.page.mu.Lock()
	defer b.page.mu.Unlock()
	return b.clicks
}
