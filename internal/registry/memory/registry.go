// Package memory is an in-process form: a set of nutrient fields with the same
// edit-mode behavior as the real page, scriptable per field. It backs dry runs
// (nutrifill match --form) and the pipeline tests.
package memory

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/joseph-ayodele/nutrifill/internal/autofill"
)

// Behavior scripts how a field reacts to the commit protocol.
type Behavior string

const (
	// Normal fields enter edit mode on Activate and commit on Confirm.
	Normal Behavior = "normal"
	// AlwaysEditable fields start out in edit mode.
	AlwaysEditable Behavior = "editable"
	// NeverActivates fields ignore Activate.
	NeverActivates Behavior = "inert"
	// NeverSettles fields stay in edit mode after Confirm.
	NeverSettles Behavior = "stuck"
	// Vanishes fields drop both control and display after Confirm.
	Vanishes Behavior = "vanish"
	// RejectsInput fields fail every AppendText.
	RejectsInput Behavior = "reject"
)

var errDetached = errors.New("control detached")
var errRejected = errors.New("input rejected")

// FieldSpec describes one field of a form.
type FieldSpec struct {
	Label         string        `yaml:"label"`
	Unit          string        `yaml:"unit"`
	Value         string        `yaml:"value"`
	Behavior      Behavior      `yaml:"behavior"`
	ActivateDelay time.Duration `yaml:"activate_delay"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
}

// Field is a live in-memory field. Safe for concurrent use: delayed state
// changes land from timer goroutines.
type Field struct {
	spec FieldSpec

	mu          sync.Mutex
	value       string
	buffer      string
	editing     bool
	displayed   bool
	focused     bool
	selected    bool
	activations int
	keystrokes  []string
	highlights  []string
}

func newField(spec FieldSpec) *Field {
	if spec.Behavior == "" {
		spec.Behavior = Normal
	}
	f := &Field{spec: spec, value: spec.Value, displayed: true}
	if spec.Behavior == AlwaysEditable {
		f.editing = true
		f.displayed = false
		f.buffer = spec.Value
	}
	return f
}

func (f *Field) Label() string { return f.spec.Label }
func (f *Field) Unit() string  { return f.spec.Unit }

func (f *Field) Editable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editing
}

func (f *Field) Displayed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.displayed
}

func (f *Field) Activate() error {
	f.mu.Lock()
	f.activations++
	f.mu.Unlock()

	if f.spec.Behavior == NeverActivates {
		return nil
	}
	f.after(f.spec.ActivateDelay, func() {
		if f.editing {
			return
		}
		f.editing = true
		f.displayed = false
		f.buffer = f.value
	})
	return nil
}

func (f *Field) Control() (autofill.Control, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editing {
		return nil, false
	}
	return &control{f: f}, true
}

func (f *Field) Highlight(color string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.highlights = append(f.highlights, color)
}

// Value returns the committed value.
func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Activations counts Activate calls.
func (f *Field) Activations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activations
}

// Keystrokes returns every AppendText argument in order.
func (f *Field) Keystrokes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keystrokes...)
}

// Highlights returns the colors the field was flashed with.
func (f *Field) Highlights() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.highlights...)
}

// after runs fn under the field lock, now or once d has elapsed.
func (f *Field) after(d time.Duration, fn func()) {
	run := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		fn()
	}
	if d <= 0 {
		run()
		return
	}
	time.AfterFunc(d, run)
}

type control struct {
	f *Field
}

func (c *control) live() error {
	if !c.f.editing {
		return errDetached
	}
	return nil
}

func (c *control) Focus() error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if err := c.live(); err != nil {
		return err
	}
	c.f.focused = true
	return nil
}

func (c *control) SelectAll() error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if err := c.live(); err != nil {
		return err
	}
	c.f.selected = true
	return nil
}

func (c *control) Clear() error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if err := c.live(); err != nil {
		return err
	}
	c.f.buffer = ""
	c.f.selected = false
	return nil
}

func (c *control) AppendText(s string) error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if err := c.live(); err != nil {
		return err
	}
	if c.f.spec.Behavior == RejectsInput {
		return errRejected
	}
	if c.f.selected {
		c.f.buffer = ""
		c.f.selected = false
	}
	c.f.buffer += s
	c.f.keystrokes = append(c.f.keystrokes, s)
	return nil
}

func (c *control) Confirm() error {
	c.f.mu.Lock()
	if err := c.live(); err != nil {
		c.f.mu.Unlock()
		return err
	}
	behavior, delay := c.f.spec.Behavior, c.f.spec.SettleDelay
	c.f.mu.Unlock()

	switch behavior {
	case NeverSettles:
		return nil
	case Vanishes:
		c.f.after(delay, func() {
			c.f.editing = false
			c.f.displayed = false
		})
	default:
		c.f.after(delay, func() {
			c.f.value = c.f.buffer
			c.f.editing = false
			c.f.displayed = true
			c.f.focused = false
		})
	}
	return nil
}

// Registry is an ordered set of in-memory fields.
type Registry struct {
	mu     sync.RWMutex
	fields []*Field
}

// New builds a registry with fields in the given order.
func New(specs ...FieldSpec) *Registry {
	r := &Registry{}
	for _, s := range specs {
		r.fields = append(r.fields, newField(s))
	}
	return r
}

// Fields yields a snapshot of the fields in form order.
func (r *Registry) Fields(ctx context.Context) iter.Seq[autofill.Field] {
	r.mu.RLock()
	snapshot := append([]*Field(nil), r.fields...)
	r.mu.RUnlock()

	return func(yield func(autofill.Field) bool) {
		for _, f := range snapshot {
			if ctx.Err() != nil {
				return
			}
			if !yield(f) {
				return
			}
		}
	}
}

// Add appends a field and returns it.
func (r *Registry) Add(spec FieldSpec) *Field {
	f := newField(spec)
	r.mu.Lock()
	r.fields = append(r.fields, f)
	r.mu.Unlock()
	return f
}

// Field returns the first field with exactly this label.
func (r *Registry) Field(label string) *Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.fields {
		if f.spec.Label == label {
			return f
		}
	}
	return nil
}

// All returns the fields in form order.
func (r *Registry) All() []*Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Field(nil), r.fields...)
}
