// Package field drives a single input field on a host page: it writes
// values so that the page's reactive bindings observe them, and optionally
// submits them through a labelled control or the field's form.
package field

import "context"

// EventType names a synthetic DOM event.
type EventType string

const (
	EventInput   EventType = "input"
	EventChange  EventType = "change"
	EventKeyDown EventType = "keydown"
	EventKeyUp   EventType = "keyup"
)

// Event is a synthetic event dispatched on a field.
type Event struct {
	Type EventType
	Key  string // Only set for key events
}

// Host is the page the interactor works against.
type Host interface {
	// FindField returns the field matching selector, or nil if absent.
	FindField(ctx context.Context, selector string) (Field, error)
	// Controls returns the interactive elements that may submit the field,
	// in document order.
	Controls(ctx context.Context) ([]Control, error)
}

// Field is a handle to the target input.
type Field interface {
	Focus(ctx context.Context) error
	// SetNativeValue sets the value through the element's own setter,
	// bypassing any value interception installed by the page.
	SetNativeValue(ctx context.Context, value string) error
	Dispatch(ctx context.Context, ev Event) error
	Blur(ctx context.Context) error
	// SubmitForm submits the owning form. It returns false without error
	// when the field has no submittable form.
	SubmitForm(ctx context.Context) (bool, error)
}

// Control is a button-like element.
type Control interface {
	// Label returns the visible or accessible text of the control.
	Label(ctx context.Context) (string, error)
	Click(ctx context.Context) error
}
