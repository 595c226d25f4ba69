package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/entry"
)

// Failure is one entry the pass could not fill.
type Failure struct {
	Entry  entry.Entry             `json:"entry"`
	Reason constants.FailureReason `json:"reason"`
}

// Report summarizes a fill pass.
type Report struct {
	ID        uuid.UUID            `json:"id"`
	Source    constants.PassSource `json:"source"`
	Entries   int                  `json:"entries"`
	Filled    int                  `json:"filled"`
	Failures  []Failure            `json:"failures"`
	StartedAt time.Time            `json:"started_at"`
	Duration  time.Duration        `json:"duration"`
}

// Summary is the user-facing line for the pass.
func (r Report) Summary() string {
	return fmt.Sprintf("✓ Auto-filled %d fields", r.Filled)
}

// FailureCount tallies failures by reason.
func (r Report) FailureCount() map[constants.FailureReason]int {
	out := make(map[constants.FailureReason]int)
	for _, f := range r.Failures {
		out[f.Reason]++
	}
	return out
}
