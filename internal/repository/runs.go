package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
)

// Run is one stored analysis run. Result is set once the run succeeded.
type Run struct {
	ID        string
	Status    constants.RunStatus
	Mode      entity.Mode
	Documents int
	TotalCost float64
	Error     string
	Result    *pipeline.Result
	CreatedAt time.Time
	UpdatedAt time.Time
}

var runColumns = []string{"id", "status", "mode", "documents", "total_cost", "error", "created_at", "updated_at"}

// CreateRun records a queued run.
func (s *Store) CreateRun(ctx context.Context, id string, mode entity.Mode, documents int) (Run, error) {
	now := time.Now().UTC()
	run := Run{ID: id, Status: constants.RunStatusQueued, Mode: mode, Documents: documents, CreatedAt: now, UpdatedAt: now}
	q, args := entsql.Dialect(s.Dialect()).Insert(runsTable).
		Columns("id", "status", "mode", "documents", "created_at", "updated_at").
		Values(id, string(run.Status), string(mode), documents, now.UnixMicro(), now.UnixMicro()).
		Query()
	if err := s.exec(ctx, q, args, nil); err != nil {
		s.logger.Error("run create failed", "run_id", id, "error", err)
		return Run{}, fmt.Errorf("%w: create run %s: %v", common.ErrStore, id, err)
	}
	s.logger.Info("run created", "run_id", id, "mode", mode, "documents", documents)
	return run, nil
}

// MarkRunning moves a queued run to running.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	return s.update(ctx, id, entsql.Dialect(s.Dialect()).Update(runsTable).
		Set("status", string(constants.RunStatusRunning)).
		Set("updated_at", time.Now().UTC().UnixMicro()))
}

// upsertResult builds the statement that stores a finished result. An
// existing row keeps its created_at and loses any earlier error.
func upsertResult(d, id string, res pipeline.Result, body []byte, now int64) (string, []any) {
	return entsql.Dialect(d).Insert(runsTable).
		Columns("id", "status", "mode", "documents", "total_cost", "error", "result", "created_at", "updated_at").
		Values(id, string(constants.RunStatusSucceeded), string(res.Recommendation.Mode), len(res.Documents),
			res.Recommendation.TotalCost, "", string(body), now, now).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range []string{"status", "mode", "documents", "total_cost", "error", "result", "updated_at"} {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
}

// SaveRun stores a finished result under id, creating the row when the run
// was not submitted through CreateRun.
func (s *Store) SaveRun(ctx context.Context, id string, res pipeline.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("%w: encode result: %v", common.ErrStore, err)
	}
	q, args := upsertResult(s.Dialect(), id, res, body, time.Now().UTC().UnixMicro())
	if err := s.exec(ctx, q, args, nil); err != nil {
		s.logger.Error("run save failed", "run_id", id, "error", err)
		return fmt.Errorf("%w: save run %s: %v", common.ErrStore, id, err)
	}
	s.logger.Info("run saved", "run_id", id, "total_cost", res.Recommendation.TotalCost)
	return nil
}

// FailRun marks a run failed with msg.
func (s *Store) FailRun(ctx context.Context, id, msg string) error {
	err := s.update(ctx, id, entsql.Dialect(s.Dialect()).Update(runsTable).
		Set("status", string(constants.RunStatusFailed)).
		Set("error", msg).
		Set("updated_at", time.Now().UTC().UnixMicro()))
	if err == nil {
		s.logger.Warn("run failed", "run_id", id, "error", msg)
	}
	return err
}

func (s *Store) update(ctx context.Context, id string, u *entsql.UpdateBuilder) error {
	q, args := u.Where(entsql.EQ("id", id)).Query()
	var res entsql.Result
	if err := s.exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: update run %s: %v", common.ErrStore, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// GetRun loads a run with its result.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	b := entsql.Dialect(s.Dialect())
	q, args := b.Select(append(runColumns, "result")...).
		From(b.Table(runsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	rows, err := s.query(ctx, q, args)
	if err != nil {
		return Run{}, fmt.Errorf("%w: get run %s: %v", common.ErrStore, id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Run{}, fmt.Errorf("%w: get run %s: %v", common.ErrStore, id, err)
		}
		return Run{}, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	var body entsql.NullString
	run, err := scanRun(rows, &body)
	if err != nil {
		return Run{}, fmt.Errorf("%w: get run %s: %v", common.ErrStore, id, err)
	}
	if body.Valid && body.String != "" {
		var res pipeline.Result
		if err := json.Unmarshal([]byte(body.String), &res); err != nil {
			return Run{}, fmt.Errorf("%w: decode run %s: %v", common.ErrStore, id, err)
		}
		run.Result = &res
	}
	return run, nil
}

// ListRuns returns the newest runs first, without results.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	b := entsql.Dialect(s.Dialect())
	q, args := b.Select(runColumns...).
		From(b.Table(runsTable)).
		OrderBy(entsql.Desc("created_at"), "id").
		Limit(limit).
		Query()
	rows, err := s.query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("%w: list runs: %v", common.ErrStore, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list runs: %v", common.ErrStore, err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list runs: %v", common.ErrStore, err)
	}
	return out, nil
}

// scanRun reads the runColumns of the current row followed by extra.
func scanRun(rows *entsql.Rows, extra ...any) (Run, error) {
	var (
		run              Run
		created, updated int64
		status, modeText string
	)
	dest := append([]any{&run.ID, &status, &modeText, &run.Documents, &run.TotalCost, &run.Error, &created, &updated}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return Run{}, err
	}
	run.Status, run.Mode = constants.RunStatus(status), entity.Mode(modeText)
	run.CreatedAt, run.UpdatedAt = time.UnixMicro(created).UTC(), time.UnixMicro(updated).UTC()
	return run, nil
}
