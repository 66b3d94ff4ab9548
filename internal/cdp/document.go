package cdp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thruflo/keysweep/internal/field"
)

// ControlSelector matches the elements scanned for a submit control.
const ControlSelector = `button, [role="button"], input[type="button"], input[type="submit"]`

// registry is the page global holding control references between calls.
const registry = "window.__keysweep"

// Caller sends one DevTools method call. *Client implements it.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// EvalError is a script exception raised inside the page.
type EvalError struct {
	Text        string
	Description string
}

func (e *EvalError) Error() string {
	if e.Description != "" {
		return "page script failed: " + e.Description
	}
	return "page script failed: " + e.Text
}

type evaluateParams struct {
	Expression    string `json:"expression"`
	ReturnByValue bool   `json:"returnByValue"`
	AwaitPromise  bool   `json:"awaitPromise"`
}

type evaluateResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text      string `json:"text"`
		Exception *struct {
			Description string `json:"description"`
		} `json:"exception"`
	} `json:"exceptionDetails"`
}

// Document is a browser page seen through Runtime.evaluate. It implements
// field.Host. Field handles re-query their selector on every operation, so
// a field replaced by the page is picked up transparently.
type Document struct {
	caller Caller
}

// NewDocument creates a Document over c.
func NewDocument(c Caller) *Document {
	return &Document{caller: c}
}

// Evaluate runs expression in the page and decodes its value into out,
// which may be nil.
func (d *Document) Evaluate(ctx context.Context, expression string, out any) error {
	var res evaluateResult
	err := d.caller.Call(ctx, "Runtime.evaluate", evaluateParams{
		Expression:    expression,
		ReturnByValue: true,
	}, &res)
	if err != nil {
		return err
	}
	if ex := res.ExceptionDetails; ex != nil {
		e := &EvalError{Text: ex.Text}
		if ex.Exception != nil {
			e.Description = ex.Exception.Description
		}
		return e
	}
	if out == nil || len(res.Result.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Result.Value, out); err != nil {
		return fmt.Errorf("failed to decode script value: %w", err)
	}
	return nil
}

// FindField implements field.Host.
func (d *Document) FindField(ctx context.Context, selector string) (field.Field, error) {
	var found bool
	expr := fmt.Sprintf("document.querySelector(%s) !== null", jsString(selector))
	if err := d.Evaluate(ctx, expr, &found); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &Element{doc: d, selector: selector}, nil
}

// Controls implements field.Host. It snapshots the candidate elements into
// a page global so that later clicks address the same nodes.
func (d *Document) Controls(ctx context.Context) ([]field.Control, error) {
	expr := fmt.Sprintf(`(() => {
  %[1]s = %[1]s || {};
  const els = Array.from(document.querySelectorAll(%[2]s));
  %[1]s.controls = els;
  return els.map(b => b.innerText || b.value || b.getAttribute('aria-label') || '');
})()`, registry, jsString(ControlSelector))

	var labels []string
	if err := d.Evaluate(ctx, expr, &labels); err != nil {
		return nil, err
	}
	out := make([]field.Control, len(labels))
	for i, label := range labels {
		out[i] = &Button{doc: d, index: i, label: label}
	}
	return out, nil
}

// Element is the target input addressed by selector.
type Element struct {
	doc      *Document
	selector string
}

// with runs body with el bound to the element, throwing if it is gone.
func (e *Element) with(ctx context.Context, body string, out any) error {
	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) throw new Error('target field not found');
  %s
})()`, jsString(e.selector), body)
	return e.doc.Evaluate(ctx, expr, out)
}

// Focus implements field.Field.
func (e *Element) Focus(ctx context.Context) error {
	return e.with(ctx, "el.focus();", nil)
}

// SetNativeValue implements field.Field. It uses the prototype setter so
// that framework-installed value interceptors are bypassed.
func (e *Element) SetNativeValue(ctx context.Context, value string) error {
	return e.with(ctx, fmt.Sprintf(`const v = %s;
  const desc = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value');
  if (desc && desc.set) desc.set.call(el, v); else el.value = v;`, jsString(value)), nil)
}

// Dispatch implements field.Field.
func (e *Element) Dispatch(ctx context.Context, ev field.Event) error {
	var ctor string
	switch ev.Type {
	case field.EventInput:
		ctor = "new InputEvent('input', { bubbles: true, composed: true })"
	case field.EventChange:
		ctor = "new Event('change', { bubbles: true })"
	case field.EventKeyDown, field.EventKeyUp:
		ctor = fmt.Sprintf("new KeyboardEvent(%s, { key: %s, bubbles: true })",
			jsString(string(ev.Type)), jsString(ev.Key))
	default:
		return fmt.Errorf("unsupported event type: %s", ev.Type)
	}
	return e.with(ctx, "el.dispatchEvent("+ctor+");", nil)
}

// Blur implements field.Field.
func (e *Element) Blur(ctx context.Context) error {
	return e.with(ctx, "el.blur();", nil)
}

// SubmitForm implements field.Field.
func (e *Element) SubmitForm(ctx context.Context) (bool, error) {
	var ok bool
	err := e.with(ctx, `if (el.form && typeof el.form.submit === 'function') {
    el.form.submit();
    return true;
  }
  return false;`, &ok)
	return ok, err
}

// Button is a control captured by Document.Controls.
type Button struct {
	doc   *Document
	index int
	label string
}

// Label implements field.Control.
func (b *Button) Label(ctx context.Context) (string, error) {
	return b.label, nil
}

// Click implements field.Control.
func (b *Button) Click(ctx context.Context) error {
	expr := fmt.Sprintf(`(() => {
  const el = ((%s || {}).controls || [])[%d];
  if (!el || !el.isConnected) throw new Error('control no longer attached');
  el.click();
})()`, registry, b.index)
	return b.doc.Evaluate(ctx, expr, nil)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
