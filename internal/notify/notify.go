// Package notify holds the Notifier implementations that do not need a page:
// log output, a styled terminal line, and fan-out.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/joseph-ayodele/nutrifill/internal/autofill"
)

// Log writes each notification as an info record.
type Log struct {
	Logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{Logger: logger}
}

func (l *Log) Notify(message string) {
	l.Logger.Info("notify", "message", message)
}

// Terminal prints notifications as a badge styled like the page toast.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	style lipgloss.Style
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out: out,
		style: lipgloss.NewStyle().
			Background(lipgloss.Color("#44d07b")).
			Foreground(lipgloss.Color("#262a3b")).
			Padding(0, 2).
			Bold(true),
	}
}

func (t *Terminal) Notify(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.style.Render(message))
}

// Multi fans a notification out to every non-nil notifier, in order.
type Multi []autofill.Notifier

func (m Multi) Notify(message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(message)
		}
	}
}
