// Package autofill declares the surface the fill pipeline drives. The page
// integration (browser, in-memory form, ...) implements these; the core only
// observes fields and mutates values through them.
package autofill

import (
	"context"
	"iter"
	"time"
)

// Registry enumerates the target fields currently present on the form.
// Each call takes a fresh snapshot in rendering order.
type Registry interface {
	Fields(ctx context.Context) iter.Seq[Field]
}

// Field is one nutrient row of the target form. Every method reads or acts on
// live state; callers must not cache results across a suspension point.
type Field interface {
	Label() string
	Unit() string
	// Editable reports whether the field is currently in edit mode.
	Editable() bool
	// Activate asks the field to enter edit mode. Best effort: success is
	// observed through Control, not through the returned error.
	Activate() error
	// Control returns the editable control while one is exposed.
	Control() (Control, bool)
	// Displayed reports whether the read-only value representation is present.
	Displayed() bool
	// Highlight flashes the field container for acknowledgement.
	Highlight(color string, d time.Duration)
}

// Control is the editable input a field exposes in edit mode.
type Control interface {
	Focus() error
	SelectAll() error
	Clear() error
	// AppendText appends s and emits the control's change notification.
	AppendText(s string) error
	// Confirm emits the commit signal (Enter).
	Confirm() error
}

// Notifier delivers user feedback. Fire and forget.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }
