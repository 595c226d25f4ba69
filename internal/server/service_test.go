package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/async"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
	"github.com/joseph-ayodele/nutrifill/internal/registry/memory"
	"github.com/joseph-ayodele/nutrifill/internal/repository"
)

type harness struct {
	client *FillServiceClient
	health healthpb.HealthClient
	reg    *memory.Registry
	repo   repository.HistoryRepository
}

func newHarness(t *testing.T, withHistory bool) *harness {
	t.Helper()
	ctx := context.Background()

	var repo repository.HistoryRepository
	var recorder pipeline.Recorder
	if withHistory {
		db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { repository.Close(db, nil) })
		repo = repository.NewHistoryRepository(db, nil)
		recorder = repo
	}

	reg := memory.New(
		memory.FieldSpec{Label: "Energy", Unit: "kcal"},
		memory.FieldSpec{Label: "Protein", Unit: "g"},
	)
	pass := pipeline.NewPass(nil, nil, nil, recorder, nil)
	queue := async.NewPassQueue(pass, async.Static(reg), nil)
	t.Cleanup(func() { queue.Shutdown(context.Background()) })

	gs, _ := NewGRPCServer(NewFillServer(queue, repo, nil))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{
		client: NewFillServiceClient(conn),
		health: healthpb.NewHealthClient(conn),
		reg:    reg,
		repo:   repo,
	}
}

func req(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestRunFillPass(t *testing.T) {
	h := newHarness(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := h.client.RunFillPass(ctx, req(t, map[string]any{"text": "Energy: 380 kcal\nProtein 25.5 g\nZinc 1 mg\n"}))
	require.NoError(t, err)

	m := out.AsMap()
	assert.Equal(t, float64(2), m["filled"])
	assert.Equal(t, float64(3), m["entries"])
	assert.Equal(t, "grpc", m["source"])
	assert.Equal(t, "✓ Auto-filled 2 fields", m["summary"])
	failures := m["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "no_match", failures[0].(map[string]any)["reason"])

	assert.Equal(t, "380", h.reg.Field("Energy").Value())
	assert.Equal(t, "25.5", h.reg.Field("Protein").Value())

	id, err := uuid.Parse(m["id"].(string))
	require.NoError(t, err)
	stored, err := h.repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.SourceGRPC, stored.Source)
}

func TestRunFillPass_EmptyText(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.client.RunFillPass(context.Background(), req(t, map[string]any{"text": "  "}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestParseText(t *testing.T) {
	h := newHarness(t, false)
	out, err := h.client.ParseText(context.Background(), req(t, map[string]any{"text": "• Fiber: 4 g\nheader\nSodium 100 mg"}))
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"label": "Fiber", "value": "4", "unit": "g"},
		map[string]any{"label": "Sodium", "value": "100", "unit": "mg"},
	}, out.AsMap()["entries"])
	assert.Empty(t, h.reg.Field("Energy").Keystrokes(), "parse never touches the form")
}

func TestListPasses(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	for _, text := range []string{"Protein 1 g", "Protein 2 g", "Protein 3 g"} {
		_, err := h.client.RunFillPass(ctx, req(t, map[string]any{"text": text}))
		require.NoError(t, err)
	}

	out, err := h.client.ListPasses(ctx, req(t, map[string]any{"limit": 2}))
	require.NoError(t, err)
	assert.Len(t, out.AsMap()["passes"], 2)

	_, err = h.client.ListPasses(ctx, req(t, map[string]any{"limit": 1.5}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListPasses_NoHistory(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.client.ListPasses(context.Background(), req(t, nil))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestGetPass(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	out, err := h.client.RunFillPass(ctx, req(t, map[string]any{"text": "Protein 7 g\nZinc 1 mg"}))
	require.NoError(t, err)
	id := out.AsMap()["id"].(string)

	got, err := h.client.GetPass(ctx, req(t, map[string]any{"id": id}))
	require.NoError(t, err)
	m := got.AsMap()
	assert.Equal(t, id, m["id"])
	assert.Equal(t, "grpc", m["source"])
	assert.Equal(t, float64(1), m["filled"])
	assert.Len(t, m["failures"], 1)

	_, err = h.client.GetPass(ctx, req(t, map[string]any{"id": uuid.NewString()}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.GetPass(ctx, req(t, map[string]any{"id": "nope"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), `"nope"`)
}

func TestGetPass_NoHistory(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.client.GetPass(context.Background(), req(t, map[string]any{"id": uuid.NewString()}))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: FillServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
