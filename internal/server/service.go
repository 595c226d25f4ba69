package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/async"
	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/entry"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
	"github.com/joseph-ayodele/nutrifill/internal/repository"
)

const defaultListLimit = 20

// Doer runs a pass through the serial queue.
type Doer interface {
	Do(ctx context.Context, job async.Job) (pipeline.Report, error)
}

type FillServer struct {
	queue   Doer
	history repository.HistoryRepository
	logger  *slog.Logger
}

// NewFillServer builds the service. history may be nil, in which case
// ListPasses and GetPass report Unavailable.
func NewFillServer(queue Doer, history repository.HistoryRepository, logger *slog.Logger) *FillServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FillServer{queue: queue, history: history, logger: logger}
}

func (s *FillServer) RunFillPass(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := req.GetFields()["text"].GetStringValue()
	if strings.TrimSpace(text) == "" {
		return nil, common.InvalidArgumentError("text is required")
	}

	rep, err := s.queue.Do(ctx, async.Job{Text: text, Source: constants.SourceGRPC})
	if err != nil {
		s.logger.Warn("grpc.fill.failed", "error", err)
		switch {
		case errors.Is(err, async.ErrQueueClosed), errors.Is(err, common.ErrNoFormPage):
			return nil, common.UnavailableError(err.Error())
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, common.InternalErrorf("fill pass interrupted: %v", err)
		}
		return nil, common.InternalError("fill pass failed")
	}
	return structpb.NewStruct(ReportMap(rep))
}

func (s *FillServer) ParseText(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := req.GetFields()["text"].GetStringValue()
	if strings.TrimSpace(text) == "" {
		return nil, common.InvalidArgumentError("text is required")
	}
	entries := []any{}
	for e := range entry.Parse(text) {
		entries = append(entries, EntryMap(e))
	}
	return structpb.NewStruct(map[string]any{"entries": entries})
}

func (s *FillServer) ListPasses(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.history == nil {
		return nil, common.UnavailableError("history is not configured")
	}
	limit := defaultListLimit
	if v, ok := req.GetFields()["limit"]; ok {
		n := v.GetNumberValue()
		if n < 0 || n != float64(int(n)) {
			return nil, common.InvalidArgumentErrorf("limit must be a non-negative integer, got %v", n)
		}
		if n > 0 {
			limit = int(n)
		}
	}

	reps, err := s.history.List(ctx, limit)
	if err != nil {
		s.logger.Warn("grpc.list_passes.failed", "error", err)
		return nil, common.InternalError("list passes failed")
	}
	out := make([]any, 0, len(reps))
	for _, r := range reps {
		out = append(out, ReportMap(r))
	}
	return structpb.NewStruct(map[string]any{"passes": out})
}

func (s *FillServer) GetPass(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.history == nil {
		return nil, common.UnavailableError("history is not configured")
	}
	raw := req.GetFields()["id"].GetStringValue()
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("invalid pass id %q", raw)
	}

	rep, err := s.history.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundError(err.Error())
		}
		s.logger.Warn("grpc.get_pass.failed", "pass_id", id, "error", err)
		return nil, common.InternalError("get pass failed")
	}
	return structpb.NewStruct(ReportMap(rep))
}

// EntryMap is the wire shape of an entry.
func EntryMap(e entry.Entry) map[string]any {
	return map[string]any{"label": e.Label, "value": e.Value, "unit": e.Unit}
}

// ReportMap is the wire shape of a pass report.
func ReportMap(r pipeline.Report) map[string]any {
	failures := make([]any, 0, len(r.Failures))
	for _, f := range r.Failures {
		m := EntryMap(f.Entry)
		m["reason"] = string(f.Reason)
		failures = append(failures, m)
	}
	return map[string]any{
		"id":          r.ID.String(),
		"source":      string(r.Source),
		"entries":     r.Entries,
		"filled":      r.Filled,
		"failures":    failures,
		"started_at":  r.StartedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms": r.Duration.Milliseconds(),
		"summary":     r.Summary(),
	}
}
