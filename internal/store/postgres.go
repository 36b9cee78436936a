package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/careerscout/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS job_discoveries (
	id                SERIAL PRIMARY KEY,
	run_id            TEXT NOT NULL,
	linkedin_job_url  TEXT NOT NULL,
	company_name      TEXT,
	company_website   TEXT,
	career_page_url   TEXT,
	open_position_url TEXT,
	title             TEXT,
	location          TEXT,
	status            TEXT NOT NULL,
	discovered_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	source            TEXT NOT NULL,
	metadata          JSONB
)`

// PostgresSink stores results in PostgreSQL.
type PostgresSink struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewPostgresSink connects to dsn and ensures the job_discoveries table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = time.Hour
	// Poolers in transaction mode do not support prepared statements.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating job_discoveries table: %w", err)
	}

	return &PostgresSink{pool: pool, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}, nil
}

// Save inserts all results of a run inside one transaction.
func (s *PostgresSink) Save(ctx context.Context, runID string, results []model.PipelineResult) error {
	if len(results) == 0 {
		return nil
	}
	ins, err := insertFor(s.sb, runID, results, jsonb)
	if err != nil {
		return err
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving %d results for run %s: %w", len(results), runID, err)
	}
	return nil
}

func jsonb(s string) any { return sq.Expr("?::jsonb", s) }

// CountRun returns how many rows were saved for runID.
func (s *PostgresSink) CountRun(ctx context.Context, runID string) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From(table).Where(sq.Eq{"run_id": runID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count: %w", err)
	}
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting results for run %s: %w", runID, err)
	}
	return n, nil
}

// Close releases the pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
