// Package repository stores analysis runs. Postgres is reached through a pgx
// pool; sqlite (modernc, no cgo) serves local runs and tests. Both are driven
// through ent's SQL driver and dialect-aware statement builders.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/quote-optimizer/internal/common"
)

const runsTable = "quote_runs"

// Store persists runs in a single table.
type Store struct {
	drv    *entsql.Driver
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// dialectFor picks the ent dialect from the DSN. postgres:// and
// postgresql:// URLs use pgx; sqlite:, file: and :memory: use sqlite.
func dialectFor(dsn string) (string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return dialect.Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return dialect.SQLite, strings.TrimPrefix(dsn, "sqlite:"), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return dialect.SQLite, dsn, nil
	}
	return "", "", fmt.Errorf("%w: unrecognized store DSN scheme", common.ErrInvalidInput)
}

// Open connects to the store named by cfg.DSN and creates the schema.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d, dsn, err := dialectFor(cfg.DSN)
	if err != nil {
		return nil, err
	}
	logger.Info("connecting to result store", "dialect", d)

	s := &Store{logger: logger}
	switch d {
	case dialect.Postgres:
		pc, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			logger.Error("failed to parse store DSN", "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		pc.MinConns = cfg.MinConns
		pc.MaxConnLifetime = cfg.MaxConnLifetime
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		pc.ConnConfig.RuntimeParams["application_name"] = "quote-optimizer"
		if cfg.StatementTimeout > 0 {
			pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
		}
		dctx := ctx
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		pool, err := pgxpool.NewWithConfig(dctx, pc)
		if err != nil {
			logger.Error("failed to connect to result store", "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
		}
		s.pool = pool
		// Wrap pool as *sql.DB for ent
		s.drv = entsql.OpenDB(dialect.Postgres, stdlib.OpenDBFromPool(pool))
	case dialect.SQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
		}
		// one connection keeps :memory: databases shared and serializes writers
		db.SetMaxOpenConns(1)
		s.drv = entsql.OpenDB(dialect.SQLite, db)
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("connected to result store", "dialect", d)
	return s, nil
}

// Dialect returns the ent dialect name of the backend.
func (s *Store) Dialect() string { return s.drv.Dialect() }

// Close closes the database connections gracefully.
func (s *Store) Close() {
	s.logger.Info("closing result store")
	if s.drv != nil {
		if err := s.drv.Close(); err != nil {
			s.logger.Error("failed to close result store", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// HealthCheck pings the store.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.drv.DB().PingContext(ctx); err != nil {
		s.logger.Warn("result store ping failed", "error", err)
		return fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	s.logger.Debug("result store ping successful")
	return nil
}

// schema returns the DDL for the runs table and its index in dialect d.
func schema(d string) []string {
	resultType := "TEXT"
	if d == dialect.Postgres {
		resultType = "JSONB"
	}
	b := entsql.Dialect(d)
	table, _ := b.CreateTable(runsTable).IfNotExists().
		Columns(
			entsql.Column("id").Type("TEXT"),
			entsql.Column("status").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("mode").Type("TEXT").Attr("NOT NULL"),
			entsql.Column("documents").Type("INTEGER").Attr("NOT NULL"),
			entsql.Column("total_cost").Type("DOUBLE PRECISION").Attr("NOT NULL DEFAULT 0"),
			entsql.Column("error").Type("TEXT").Attr("NOT NULL DEFAULT ''"),
			entsql.Column("result").Type(resultType),
			entsql.Column("created_at").Type("BIGINT").Attr("NOT NULL"),
			entsql.Column("updated_at").Type("BIGINT").Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()
	index, _ := b.CreateIndex(runsTable + "_created_at").IfNotExists().
		Table(runsTable).
		Column("created_at").
		Query()
	return []string{table, index}
}

func (s *Store) migrate(ctx context.Context) error {
	for _, ddl := range schema(s.Dialect()) {
		if err := s.exec(ctx, ddl, nil, nil); err != nil {
			s.logger.Error("failed to create schema", "error", err)
			return fmt.Errorf("%w: create schema: %v", common.ErrStore, err)
		}
	}
	return nil
}

// exec runs a built statement. args is always passed as a []any so ent's
// driver accepts statements built without arguments.
func (s *Store) exec(ctx context.Context, query string, args []any, res *entsql.Result) error {
	if args == nil {
		args = []any{}
	}
	if res == nil {
		return s.drv.Exec(ctx, query, args, nil)
	}
	return s.drv.Exec(ctx, query, args, res)
}

func (s *Store) query(ctx context.Context, query string, args []any) (*entsql.Rows, error) {
	if args == nil {
		args = []any{}
	}
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}
