package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
)

type HistoryRepository interface {
	Record(ctx context.Context, r pipeline.Report) error
	List(ctx context.Context, limit int) ([]pipeline.Report, error)
	Get(ctx context.Context, id uuid.UUID) (pipeline.Report, error)
}

type historyRepo struct {
	db  *DB
	log *slog.Logger
}

func NewHistoryRepository(db *DB, log *slog.Logger) HistoryRepository {
	if log == nil {
		log = slog.Default()
	}
	return &historyRepo{db: db, log: log}
}

var passColumns = []string{"id", "source", "entries", "filled", "failures_json", "started_at", "duration_ms"}

func (r *historyRepo) Record(ctx context.Context, rep pipeline.Report) error {
	failures := rep.Failures
	if failures == nil {
		failures = []pipeline.Failure{}
	}
	fj, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}

	q, args := entsql.Dialect(r.db.Dialect()).
		Insert(passesTable).
		Columns(passColumns...).
		Values(
			rep.ID.String(),
			string(rep.Source),
			rep.Entries,
			rep.Filled,
			string(fj),
			rep.StartedAt.UnixMilli(),
			rep.Duration.Milliseconds(),
		).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("fill_pass record failed", "pass_id", rep.ID, "err", err)
		return common.NewAppError(common.CodeDatabase, "record fill pass", err)
	}
	r.log.Debug("fill_pass recorded", "pass_id", rep.ID, "filled", rep.Filled)
	return nil
}

// List returns the most recent passes first. limit <= 0 means all.
func (r *historyRepo) List(ctx context.Context, limit int) ([]pipeline.Report, error) {
	sel := entsql.Dialect(r.db.Dialect()).
		Select(passColumns...).
		From(entsql.Table(passesTable)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	return r.query(ctx, sel)
}

func (r *historyRepo) Get(ctx context.Context, id uuid.UUID) (pipeline.Report, error) {
	sel := entsql.Dialect(r.db.Dialect()).
		Select(passColumns...).
		From(entsql.Table(passesTable)).
		Where(entsql.EQ("id", id.String()))
	reps, err := r.query(ctx, sel)
	if err != nil {
		return pipeline.Report{}, err
	}
	if len(reps) == 0 {
		return pipeline.Report{}, fmt.Errorf("fill pass %s: %w", id, common.ErrNotFound)
	}
	return reps[0], nil
}

func (r *historyRepo) query(ctx context.Context, sel *entsql.Selector) ([]pipeline.Report, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "query fill passes", err)
	}
	defer rows.Close()

	var out []pipeline.Report
	for rows.Next() {
		rep, err := scanPass(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "iterate fill passes", err)
	}
	return out, nil
}

func scanPass(rows *entsql.Rows) (pipeline.Report, error) {
	var (
		id, source, fj            string
		entries, filled           int64
		startedMillis, durationMs int64
	)
	if err := rows.Scan(&id, &source, &entries, &filled, &fj, &startedMillis, &durationMs); err != nil {
		return pipeline.Report{}, fmt.Errorf("scan fill pass: %w", err)
	}
	pid, err := uuid.Parse(id)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("fill pass id %q: %w", id, err)
	}
	var failures []pipeline.Failure
	if err := json.Unmarshal([]byte(fj), &failures); err != nil {
		return pipeline.Report{}, errors.Join(fmt.Errorf("fill pass %s failures", id), err)
	}
	return pipeline.Report{
		ID:        pid,
		Source:    constants.PassSource(source),
		Entries:   int(entries),
		Filled:    int(filled),
		Failures:  failures,
		StartedAt: time.UnixMilli(startedMillis),
		Duration:  time.Duration(durationMs) * time.Millisecond,
	}, nil
}
