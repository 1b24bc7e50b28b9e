package repository

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/entity"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), common.StoreConfig{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestDialectFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		dsn     string
		dialect string
		conn    string
		wantErr bool
	}{
		{"postgres://u:p@localhost/quotes", dialect.Postgres, "postgres://u:p@localhost/quotes", false},
		{"postgresql://localhost/quotes", dialect.Postgres, "postgresql://localhost/quotes", false},
		{"sqlite:/var/lib/quotes.db", dialect.SQLite, "/var/lib/quotes.db", false},
		{"file:quotes.db?cache=shared", dialect.SQLite, "file:quotes.db?cache=shared", false},
		{":memory:", dialect.SQLite, ":memory:", false},
		{"mysql://localhost", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			t.Parallel()
			d, conn, err := dialectFor(tt.dsn)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, d)
			assert.Equal(t, tt.conn, conn)
		})
	}
}

func TestUpsertResult_Postgres(t *testing.T) {
	t.Parallel()
	res := pipeline.Result{Recommendation: entity.Recommendation{Mode: entity.ModeSplit, TotalCost: 70}}
	q, args := upsertResult(dialect.Postgres, "run-9", res, []byte(`{}`), 42)

	assert.Contains(t, q, `INSERT INTO "quote_runs"`)
	assert.Contains(t, q, "$9")
	assert.NotContains(t, q, "?")
	assert.Contains(t, q, `ON CONFLICT ("id") DO UPDATE SET`)
	assert.Contains(t, q, `"result" = "excluded"."result"`)
	assert.NotContains(t, q, `"created_at" = "excluded"`)
	require.Len(t, args, 9)
	assert.Equal(t, "run-9", args[0])
	assert.Equal(t, string(constants.RunStatusSucceeded), args[1])
}

func TestSchema(t *testing.T) {
	t.Parallel()
	pg := schema(dialect.Postgres)
	require.Len(t, pg, 2)
	assert.Contains(t, pg[0], `CREATE TABLE IF NOT EXISTS "quote_runs"`)
	assert.Contains(t, pg[0], "JSONB")
	assert.Contains(t, pg[1], `CREATE INDEX IF NOT EXISTS "quote_runs_created_at"`)

	lite := schema(dialect.SQLite)
	assert.NotContains(t, lite[0], "JSONB")
}

func TestStore_RunLifecycle(t *testing.T) {
	t.Parallel()
	s := openMemory(t)
	ctx := context.Background()
	require.NoError(t, s.HealthCheck(ctx, time.Second))

	run, err := s.CreateRun(ctx, "run-1", entity.ModeAuto, 3)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusQueued, run.Status)

	require.NoError(t, s.MarkRunning(ctx, "run-1"))
	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, got.Status)
	assert.Nil(t, got.Result)

	res := pipeline.Result{
		RunID: "run-1",
		Recommendation: entity.Recommendation{
			Mode:      entity.ModeSplit,
			TotalCost: 170,
			Rationale: []string{"Split purchasing saves $25 over best single-source option (Copperfield Tools)."},
		},
		Documents: make([]pipeline.DocumentReport, 3),
		Warnings:  []entity.Warning{{DocumentID: "d1", Kind: entity.WarnGap, Message: "gap"}},
	}
	require.NoError(t, s.SaveRun(ctx, "run-1", res))

	got, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusSucceeded, got.Status)
	assert.Equal(t, entity.ModeSplit, got.Mode)
	assert.Equal(t, 170.0, got.TotalCost)
	assert.Equal(t, 3, got.Documents)
	require.NotNil(t, got.Result)
	assert.Equal(t, res.Recommendation.Rationale, got.Result.Recommendation.Rationale)
	assert.Equal(t, res.Warnings, got.Result.Warnings)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestStore_SaveWithoutCreate(t *testing.T) {
	t.Parallel()
	s := openMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRun(ctx, "direct", pipeline.Result{RunID: "direct"}))
	got, err := s.GetRun(ctx, "direct")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusSucceeded, got.Status)
}

func TestStore_FailAndNotFound(t *testing.T) {
	t.Parallel()
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.MarkRunning(ctx, "nope"), common.ErrNotFound)

	_, err = s.CreateRun(ctx, "run-2", entity.ModeSplit, 1)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, "run-2", "unsupported rule kind"))
	got, err := s.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, got.Status)
	assert.Equal(t, "unsupported rule kind", got.Error)

	_, err = s.CreateRun(ctx, "run-2", entity.ModeSplit, 1)
	assert.ErrorIs(t, err, common.ErrStore)
}

func TestStore_SaveAfterFailure(t *testing.T) {
	t.Parallel()
	s := openMemory(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, "retry", entity.ModeAuto, 2)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, "retry", "timeout"))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.SaveRun(ctx, "retry", pipeline.Result{
		Recommendation: entity.Recommendation{Mode: entity.ModeSingleVendor, TotalCost: 12.5},
		Documents:      make([]pipeline.DocumentReport, 2),
	}))

	got, err := s.GetRun(ctx, "retry")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusSucceeded, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, entity.ModeSingleVendor, got.Mode)
	assert.Equal(t, created.CreatedAt.UnixMicro(), got.CreatedAt.UnixMicro())
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	assert.Equal(t, dialect.SQLite, s.Dialect())
}

func TestStore_ListRuns(t *testing.T) {
	t.Parallel()
	s := openMemory(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.CreateRun(ctx, id, entity.ModeAuto, 1)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}
