package browser

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"github.com/joseph-ayodele/nutrifill/internal/autofill"
)

// rowSelector matches the nutrient rows of the custom-foods table.
const rowSelector = "table.crono-table tr:not(.table-header)"

var errControlGone = errors.New("value input no longer present")

// rowInfoJS reads label and unit of a candidate row. Rows without three cells,
// a right-aligned value cell or a label are not fields.
const rowInfoJS = `() => {
	const cells = this.cells;
	if (!cells || cells.length < 3) return {ok: false};
	if (cells[1].getAttribute('align') !== 'right') return {ok: false};
	const label = cells[0].querySelector('div.gwt-HTML');
	if (!label) return {ok: false};
	const unit = cells[2].querySelector('div.gwt-Label');
	return {
		ok: true,
		label: label.textContent.trim(),
		unit: unit ? unit.textContent.trim() : '',
	};
}`

const editableJS = `() => !!(this.cells[1] && this.cells[1].querySelector('input'))`

const displayedJS = `() => !!(this.cells[1] && this.cells[1].querySelector('div.gwt-Label'))`

const activateJS = `() => {
	const cell = this.cells[1];
	if (!cell) return false;
	const target = cell.querySelector('div.gwt-Label') || cell;
	for (const type of ['mousedown', 'mouseup', 'click']) {
		target.dispatchEvent(new MouseEvent(type, {bubbles: true, cancelable: true, view: window}));
	}
	return true;
}`

// controlJS applies one edit operation to the row's input. It returns false
// once the input is gone.
const controlJS = `(op, arg) => {
	const input = this.cells[1] && this.cells[1].querySelector('input');
	if (!input) return false;
	const fire = (type) => input.dispatchEvent(new Event(type, {bubbles: true}));
	switch (op) {
	case 'focus':
		input.focus();
		break;
	case 'select':
		input.select();
		break;
	case 'clear':
		input.value = '';
		fire('input');
		break;
	case 'append':
		input.value = input.value + arg;
		fire('input');
		break;
	case 'confirm':
		for (const type of ['keydown', 'keypress', 'keyup']) {
			input.dispatchEvent(new KeyboardEvent(type, {
				key: 'Enter', code: 'Enter', keyCode: 13, which: 13, bubbles: true, cancelable: true,
			}));
		}
		fire('change');
		break;
	}
	return true;
}`

const highlightJS = `(color, ms) => {
	const cell = this.cells[1];
	if (!cell) return;
	const target = cell.querySelector('input') || cell;
	target.style.backgroundColor = color;
	setTimeout(() => { target.style.backgroundColor = ''; }, ms);
}`

type rowInfo struct {
	OK    bool   `json:"ok"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
}

// Registry enumerates the nutrient rows of one page.
type Registry struct {
	page   *rod.Page
	logger *slog.Logger
}

// NewRegistry wraps an already located form page.
func NewRegistry(page *rod.Page, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{page: page, logger: logger}
}

// Fields snapshots the table rows in document order. Rows are bound to ctx,
// so every later read on a yielded field stops with it.
func (r *Registry) Fields(ctx context.Context) iter.Seq[autofill.Field] {
	return func(yield func(autofill.Field) bool) {
		rows, err := r.page.Context(ctx).Elements(rowSelector)
		if err != nil {
			r.logger.Warn("browser.rows.failed", "error", err)
			return
		}
		for _, row := range rows {
			if ctx.Err() != nil {
				return
			}
			res, err := row.Eval(rowInfoJS)
			if err != nil {
				r.logger.Debug("browser.row.skip", "error", err)
				continue
			}
			var info rowInfo
			if err := res.Value.Unmarshal(&info); err != nil || !info.OK {
				continue
			}
			f := &field{row: row, label: info.Label, unit: info.Unit, logger: r.logger}
			if !yield(f) {
				return
			}
		}
	}
}

type field struct {
	row    *rod.Element
	label  string
	unit   string
	logger *slog.Logger
}

func (f *field) Label() string { return f.label }
func (f *field) Unit() string  { return f.unit }

func (f *field) Editable() bool  { return f.check(editableJS) }
func (f *field) Displayed() bool { return f.check(displayedJS) }

func (f *field) check(js string) bool {
	res, err := f.row.Eval(js)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func (f *field) Activate() error {
	_, err := f.row.Eval(activateJS)
	return err
}

func (f *field) Control() (autofill.Control, bool) {
	if !f.Editable() {
		return nil, false
	}
	return &control{row: f.row}, true
}

func (f *field) Highlight(color string, d time.Duration) {
	if _, err := f.row.Eval(highlightJS, color, d.Milliseconds()); err != nil {
		f.logger.Debug("browser.highlight.failed", "label", f.label, "error", err)
	}
}

type control struct {
	row *rod.Element
}

func (c *control) do(op, arg string) error {
	res, err := c.row.Eval(controlJS, op, arg)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return errControlGone
	}
	return nil
}

func (c *control) Focus() error              { return c.do("focus", "") }
func (c *control) SelectAll() error          { return c.do("select", "") }
func (c *control) Clear() error              { return c.do("clear", "") }
func (c *control) AppendText(s string) error { return c.do("append", s) }
func (c *control) Confirm() error            { return c.do("confirm", "") }
