package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/commit"
	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/entry"
	"github.com/joseph-ayodele/nutrifill/internal/registry/memory"
)

func testTiming() commit.Timing {
	return commit.Timing{
		ActivationTimeout: 30 * time.Millisecond,
		ConfirmTimeout:    30 * time.Millisecond,
		PollInterval:      2 * time.Millisecond,
		KeyDelay:          time.Millisecond,
		EntryDelay:        time.Millisecond,
		HighlightDuration: time.Millisecond,
	}
}

type notes struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notes) Notify(m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, m)
}

type recorder struct {
	reports []Report
	err     error
}

func (r *recorder) Record(_ context.Context, rep Report) error {
	r.reports = append(r.reports, rep)
	return r.err
}

func newPass(n autofill.Notifier, h Recorder) *Pass {
	return NewPass(nil, commit.NewDriver(testTiming(), nil), n, h, nil)
}

func TestRun_EnergyAndProtein(t *testing.T) {
	reg := memory.New(
		memory.FieldSpec{Label: "Energy", Unit: "kcal"},
		memory.FieldSpec{Label: "Protein", Unit: "g"},
	)
	n := &notes{}
	p := newPass(n, nil)

	filled := p.RunFillPass(context.Background(), "Energy: 380 kcal\nProtein 25.5 g\n", reg)

	assert.Equal(t, 2, filled)
	assert.Equal(t, "380", reg.Field("Energy").Value())
	assert.Equal(t, "25.5", reg.Field("Protein").Value())
	assert.Equal(t, []string{"✓ Auto-filled 2 fields"}, n.msgs)
}

func TestRun_PunctuationInLabel(t *testing.T) {
	reg := memory.New(memory.FieldSpec{Label: "B1 (Thiamine)", Unit: "mg"})
	rep, err := newPass(nil, nil).Run(context.Background(), "B1 (Thiamine) 0.08 mg\n", reg)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Filled)
	assert.Equal(t, "0.08", reg.Field("B1 (Thiamine)").Value())
}

func TestRun_LabelSynonym(t *testing.T) {
	reg := memory.New(memory.FieldSpec{Label: "Fibre", Unit: "g"})
	rep, err := newPass(nil, nil).Run(context.Background(), "Fiber 4 g\n", reg)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Filled)
	assert.Equal(t, "4", reg.Field("Fibre").Value())
}

func TestRun_EmptyRegistry(t *testing.T) {
	n := &notes{}
	rep, err := newPass(n, nil).Run(context.Background(), "Sodium 100 mg\n", memory.New())

	require.NoError(t, err)
	assert.Zero(t, rep.Filled)
	assert.Equal(t, 1, rep.Entries)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, constants.ReasonNoMatch, rep.Failures[0].Reason)
	assert.Empty(t, n.msgs, "no summary for zero fills")
}

func TestRun_NeverActivatingFieldDoesNotHang(t *testing.T) {
	reg := memory.New(
		memory.FieldSpec{Label: "Fat", Unit: "g", Behavior: memory.NeverActivates},
		memory.FieldSpec{Label: "Protein", Unit: "g"},
	)
	timing := testTiming()
	text := "Fat 3 g\nProtein 9 g\n"

	rep, err := newPass(nil, nil).Run(context.Background(), text, reg)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Filled)
	assert.Equal(t, "9", reg.Field("Protein").Value())
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, constants.ReasonNotActivated, rep.Failures[0].Reason)
	assert.Equal(t, entry.Entry{Label: "Fat", Value: "3", Unit: "g"}, rep.Failures[0].Entry)
	assert.Less(t, rep.Duration, timing.PassBound(1, 1)+200*time.Millisecond)
}

func TestRun_SecondEntryForSameField(t *testing.T) {
	reg := memory.New(memory.FieldSpec{Label: "Total Carbs", Unit: "g"})
	rep, err := newPass(nil, nil).Run(context.Background(), "Carbohydrates 40 g\nCarbs 41 g\n", reg)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Filled)
	assert.Equal(t, "40", reg.Field("Total Carbs").Value())
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, constants.ReasonAlreadyFilled, rep.Failures[0].Reason)
	assert.Len(t, reg.Field("Total Carbs").Keystrokes(), 2)
}

func TestRun_MixedFailures(t *testing.T) {
	reg := memory.New(
		memory.FieldSpec{Label: "Energy", Unit: "kcal"},
		memory.FieldSpec{Label: "Sugars", Unit: "g", Behavior: memory.NeverSettles},
		memory.FieldSpec{Label: "Salt", Unit: "g", Behavior: memory.RejectsInput},
	)
	text := "Nutrition facts:\nEnergy 380 g\nSugars 5 g\nSalt 0.1 g\n- Energy 380 kcal\n"

	rep, err := newPass(nil, nil).Run(context.Background(), text, reg)

	require.NoError(t, err)
	assert.Equal(t, 4, rep.Entries)
	assert.Equal(t, 1, rep.Filled)
	assert.Equal(t, map[constants.FailureReason]int{
		constants.ReasonNoMatch:            1,
		constants.ReasonVerificationFailed: 2,
	}, rep.FailureCount())
}

func TestRun_RecordsHistoryWithContextMetadata(t *testing.T) {
	rec := &recorder{}
	id := uuid.New()
	ctx := common.WithSource(common.WithPassID(context.Background(), id), constants.SourceInbox)

	reg := memory.New(memory.FieldSpec{Label: "Protein", Unit: "g"})
	rep, err := newPass(nil, rec).Run(ctx, "Protein 1 g", reg)

	require.NoError(t, err)
	require.Len(t, rec.reports, 1)
	assert.Equal(t, id, rep.ID)
	assert.Equal(t, constants.SourceInbox, rec.reports[0].Source)
	assert.Equal(t, 1, rec.reports[0].Filled)
}

func TestRun_CancelledContext(t *testing.T) {
	reg := memory.New(memory.FieldSpec{Label: "Protein", Unit: "g"})
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := newPass(nil, rec).Run(ctx, "Protein 1 g\nFat 2 g\n", reg)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.Entries)
	assert.Equal(t, "", reg.Field("Protein").Value())
	assert.Len(t, rec.reports, 1)
}

func TestRun_GeneratesIDs(t *testing.T) {
	p := newPass(nil, nil)
	a, _ := p.Run(context.Background(), "", memory.New())
	b, _ := p.Run(context.Background(), "", memory.New())
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, constants.SourceCLI, a.Source)
}

func TestPassBound(t *testing.T) {
	p := newPass(nil, nil)
	timing := p.Driver.Timing
	assert.Equal(t, timing.PassBound(3, 4), p.Bound("Energy 380 kcal\nnoise\nProtein 25.5 g"))
	assert.Zero(t, p.Bound(""))
}
