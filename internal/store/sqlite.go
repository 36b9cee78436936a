package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/amishk599/careerscout/internal/model"
)

// SQLiteSink stores results in a local SQLite database.
type SQLiteSink struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewSQLiteSink opens (or creates) a SQLite database at dbPath and ensures the
// job_discoveries table exists.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS job_discoveries (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id            TEXT NOT NULL,
		linkedin_job_url  TEXT NOT NULL,
		company_name      TEXT,
		company_website   TEXT,
		career_page_url   TEXT,
		open_position_url TEXT,
		title             TEXT,
		location          TEXT,
		status            TEXT NOT NULL,
		discovered_at     DATETIME NOT NULL,
		source            TEXT NOT NULL,
		metadata          TEXT
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating job_discoveries table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS job_discoveries_run_id ON job_discoveries (run_id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run_id index: %w", err)
	}

	return &SQLiteSink{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}, nil
}

// Save inserts all results of a run in one statement.
func (s *SQLiteSink) Save(ctx context.Context, runID string, results []model.PipelineResult) error {
	if len(results) == 0 {
		return nil
	}
	ins, err := insertFor(s.sb, runID, results, plainJSON)
	if err != nil {
		return err
	}
	if _, err := ins.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("saving %d results for run %s: %w", len(results), runID, err)
	}
	return nil
}

// StoredResult is a row read back from job_discoveries.
type StoredResult struct {
	RunID           string
	JobURL          string
	CompanyName     string
	CompanyWebsite  string
	CareerPageURL   string
	OpenPositionURL string
	Status          model.Status
	Source          string
	DiscoveredAt    time.Time
	Metadata        string
}

// Results returns the rows saved for runID, in insertion order.
func (s *SQLiteSink) Results(ctx context.Context, runID string) ([]StoredResult, error) {
	rows, err := s.sb.
		Select("run_id", "linkedin_job_url", "company_name", "company_website", "career_page_url",
			"open_position_url", "status", "source", "discovered_at", "metadata").
		From(table).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("id").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying results for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		var name, website, career, position, meta sql.NullString
		var status string
		if err := rows.Scan(&r.RunID, &r.JobURL, &name, &website, &career, &position, &status, &r.Source, &r.DiscoveredAt, &meta); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		r.CompanyName = name.String
		r.CompanyWebsite = website.String
		r.CareerPageURL = career.String
		r.OpenPositionURL = position.String
		r.Status = model.Status(status)
		r.Metadata = meta.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// Cleanup deletes rows discovered before now minus olderThan.
func (s *SQLiteSink) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := s.sb.Delete(table).Where(sq.Lt{"discovered_at": cutoff}).RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleaning up results older than %v: %w", olderThan, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
