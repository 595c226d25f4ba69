package commit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/common"
)

func TestNext(t *testing.T) {
	timing := DefaultTiming()
	boom := errors.New("boom")

	tests := []struct {
		name    string
		state   State
		obs     Observation
		want    State
		outcome Outcome
	}{
		{"idle with control", StateIdle, Observation{HasControl: true}, StateEditing, OutcomePending},
		{"idle without control", StateIdle, Observation{Displayed: true}, StateActivating, OutcomePending},
		{"activation succeeds", StateActivating, Observation{HasControl: true, Waited: 10 * time.Millisecond}, StateEditing, OutcomePending},
		{"activation pending", StateActivating, Observation{Waited: 999 * time.Millisecond}, StateActivating, OutcomePending},
		{"activation times out", StateActivating, Observation{Waited: time.Second}, StateFailed, OutcomeNotActivated},
		{"control lost before input", StateEditing, Observation{}, StateFailed, OutcomeNotActivated},
		{"input error", StateEditing, Observation{HasControl: true, InputErr: boom}, StateFailed, OutcomeVerificationFailed},
		{"typed", StateEditing, Observation{HasControl: true}, StateConfirming, OutcomePending},
		{"confirmed", StateConfirming, Observation{HasControl: true}, StateVerifying, OutcomePending},
		{"confirm error", StateConfirming, Observation{InputErr: boom}, StateFailed, OutcomeVerificationFailed},
		{"settled", StateVerifying, Observation{Displayed: true}, StateCommitted, OutcomeCommitted},
		{"still editing", StateVerifying, Observation{HasControl: true, Waited: 500 * time.Millisecond}, StateVerifying, OutcomePending},
		{"gone without display", StateVerifying, Observation{Waited: 20 * time.Millisecond}, StateVerifying, OutcomePending},
		{"never settles", StateVerifying, Observation{HasControl: true, Waited: time.Second}, StateFailed, OutcomeVerificationFailed},
		{"vanished", StateVerifying, Observation{Waited: 2 * time.Second}, StateFailed, OutcomeVerificationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := Next(tt.state, tt.obs, timing)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestOutcomeReason(t *testing.T) {
	assert.Equal(t, constants.ReasonNotActivated, OutcomeNotActivated.Reason())
	assert.Equal(t, constants.ReasonVerificationFailed, OutcomeVerificationFailed.Reason())
	assert.Empty(t, OutcomeCommitted.Reason())
	assert.Equal(t, "not_activated", OutcomeNotActivated.String())
}

func TestTimingFromConfig(t *testing.T) {
	timing := TimingFromConfig(common.TimingConfig{KeyDelay: 5 * time.Millisecond})
	assert.Equal(t, 5*time.Millisecond, timing.KeyDelay)
	assert.Equal(t, time.Second, timing.ActivationTimeout)
	assert.Equal(t, HighlightColor, timing.HighlightColor)
}

func TestTimingBound(t *testing.T) {
	timing := DefaultTiming()
	assert.Equal(t, 2*time.Second+3*30*time.Millisecond+100*time.Millisecond, timing.Bound(3))
	assert.Equal(t, timing.Bound(2)+timing.EntryDelay+timing.Bound(4), timing.PassBound(2, 4))
	assert.Zero(t, timing.PassBound())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "verifying", StateVerifying.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateEditing.Terminal())
}
