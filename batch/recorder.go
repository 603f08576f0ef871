package batch

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/hansard/errors"
)

// Recorder keeps a history of runs.
type Recorder interface {
	BeginRun(ctx context.Context, runID, rosterVersion string, startedAt time.Time) error
	RecordResult(ctx context.Context, runID string, r Result) error
	FinishRun(ctx context.Context, s *Summary) error
}

// Run is a recorded batch run.
type Run struct {
	ID            string
	RosterVersion string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Transcripts   int
	Failed        int
}

// RunResult is a recorded transcript outcome.
type RunResult struct {
	RunID       string
	SessionID   string
	SourcePath  string
	Mentions    int
	Resolved    int
	Unresolved  int
	Error       string
	ProcessedAt time.Time
}

// SQLRecorder stores runs in the extraction_runs and extraction_results tables.
type SQLRecorder struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLRecorder creates a recorder over a migrated database.
func NewSQLRecorder(db *sql.DB) *SQLRecorder {
	return &SQLRecorder{db: db, now: time.Now}
}

// BeginRun inserts the run row
func (s *SQLRecorder) BeginRun(ctx context.Context, runID, rosterVersion string, startedAt time.Time) error {
	if runID == "" {
		return errors.New("run id is required")
	}
	var version *string
	if rosterVersion != "" {
		version = &rosterVersion
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extraction_runs (id, roster_version, started_at)
		VALUES (?, ?, ?)`,
		runID, version, startedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create run %s", runID)
	}
	return nil
}

// RecordResult upserts one transcript outcome
func (s *SQLRecorder) RecordResult(ctx context.Context, runID string, r Result) error {
	var errText *string
	if r.Err != nil {
		msg := r.Err.Error()
		errText = &msg
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO extraction_results
			(run_id, session_id, source_path, mentions, resolved, unresolved, error, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.SessionID, r.Path, r.Mentions, r.Resolved, r.Unresolved, errText,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record result for %s", r.Path)
	}
	return nil
}

// FinishRun stamps totals and the finish time
func (s *SQLRecorder) FinishRun(ctx context.Context, sum *Summary) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE extraction_runs SET finished_at = ?, transcripts = ?, failed = ?
		WHERE id = ?`,
		s.now().UTC().Format(time.RFC3339Nano), sum.Transcripts, sum.Failed, sum.RunID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to finish run")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("run %s", sum.RunID)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *SQLRecorder) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, roster_version, started_at, finished_at, transcripts, failed
		FROM extraction_runs
		ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			version    sql.NullString
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &version, &startedAt, &finishedAt, &run.Transcripts, &run.Failed); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		run.RosterVersion = version.String
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, errors.Wrapf(err, "run %s: bad started_at", run.ID)
		}
		if finishedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, finishedAt.String)
			if err != nil {
				return nil, errors.Wrapf(err, "run %s: bad finished_at", run.ID)
			}
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the transcript outcomes of a run, ordered by source path.
func (s *SQLRecorder) Results(ctx context.Context, runID string) ([]RunResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, session_id, source_path, mentions, resolved, unresolved, error, processed_at
		FROM extraction_results
		WHERE run_id = ?
		ORDER BY source_path`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query results for run %s", runID)
	}
	defer rows.Close()

	var results []RunResult
	for rows.Next() {
		var (
			r           RunResult
			errText     sql.NullString
			processedAt string
		)
		if err := rows.Scan(&r.RunID, &r.SessionID, &r.SourcePath, &r.Mentions, &r.Resolved, &r.Unresolved, &errText, &processedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan result")
		}
		r.Error = errText.String
		if r.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt); err != nil {
			return nil, errors.Wrapf(err, "result %s: bad processed_at", r.SourcePath)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
