package curation

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/hansard/errors"
	"github.com/teranos/hansard/logger"
)

// Store persists submissions in the alias_submissions table.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log *zap.SugaredLogger
}

// NewStore creates a store over a migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now, log: logger.ComponentLogger("curation")}
}

const submissionColumns = `id, kind, alias, target_node_id, previous_node_id, evidence, submitter,
			status, reviewer, review_notes, submitted_at, reviewed_at`

// Submit validates s, assigns its id and submission time, and queues it as pending.
func (st *Store) Submit(ctx context.Context, s *Submission) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.ID = uuid.NewString()
	s.Status = StatusPending
	s.SubmittedAt = st.now().UTC()
	s.Reviewer, s.ReviewNotes, s.ReviewedAt = "", "", nil

	_, err := st.db.ExecContext(ctx, `
		INSERT INTO alias_submissions (
			id, kind, alias, target_node_id, previous_node_id, evidence, submitter, status, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Kind), s.Alias, s.TargetNodeID, nullString(s.PreviousNodeID), s.Evidence, s.Submitter,
		string(s.Status), s.SubmittedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create submission")
	}

	st.log.Infow("Alias submitted",
		logger.FieldSubmissionID, s.ID,
		logger.FieldMention, s.Alias,
		logger.FieldNodeID, s.TargetNodeID,
		"kind", s.Kind)
	return nil
}

// Get returns one submission
func (st *Store) Get(ctx context.Context, id string) (*Submission, error) {
	row := st.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM alias_submissions WHERE id = ?`, id)
	s, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("submission %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query submission %s", id)
	}
	return s, nil
}

// List returns submissions oldest first, filtered by status unless status is empty.
func (st *Store) List(ctx context.Context, status Status) ([]*Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM alias_submissions`
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY submitted_at ASC, id ASC"

	rows, err := st.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list submissions")
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan submission")
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Approve marks a pending submission approved.
func (st *Store) Approve(ctx context.Context, id, reviewer, notes string) error {
	return st.review(ctx, id, StatusApproved, reviewer, notes)
}

// Reject marks a pending submission rejected. Notes are required.
func (st *Store) Reject(ctx context.Context, id, reviewer, notes string) error {
	if strings.TrimSpace(notes) == "" {
		return errors.WithHint(
			errors.Wrap(errors.ErrInvalidRequest, "rejection notes are required"),
			"say why, so the submitter can correct it")
	}
	return st.review(ctx, id, StatusRejected, reviewer, notes)
}

func (st *Store) review(ctx context.Context, id string, status Status, reviewer, notes string) error {
	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		return errors.Wrap(errors.ErrInvalidRequest, "reviewer is required")
	}

	result, err := st.db.ExecContext(ctx, `
		UPDATE alias_submissions SET status = ?, reviewer = ?, review_notes = ?, reviewed_at = ?
		WHERE id = ? AND status = ?`,
		string(status), reviewer, nullString(strings.TrimSpace(notes)), st.now().UTC().Format(time.RFC3339Nano),
		id, string(StatusPending),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to review submission %s", id)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		existing, err := st.Get(ctx, id)
		if err != nil {
			return err
		}
		return errors.NewConflictError("submission %s already %s", id, existing.Status)
	}

	st.log.Infow("Submission reviewed",
		logger.FieldSubmissionID, id,
		logger.FieldStatus, status,
		"reviewer", reviewer)
	return nil
}

// Counts returns the number of submissions per status. Every status is present.
func (st *Store) Counts(ctx context.Context) (map[Status]int, error) {
	counts := map[Status]int{StatusPending: 0, StatusApproved: 0, StatusRejected: 0}

	rows, err := st.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM alias_submissions GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count submissions")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan count")
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(sc scanner) (*Submission, error) {
	var (
		s                         Submission
		kind, status              string
		previous, reviewer, notes sql.NullString
		submittedAt               string
		reviewedAt                sql.NullString
	)
	err := sc.Scan(&s.ID, &kind, &s.Alias, &s.TargetNodeID, &previous, &s.Evidence, &s.Submitter,
		&status, &reviewer, &notes, &submittedAt, &reviewedAt)
	if err != nil {
		return nil, err
	}
	s.Kind = Kind(kind)
	s.Status = Status(status)
	s.PreviousNodeID = previous.String
	s.Reviewer = reviewer.String
	s.ReviewNotes = notes.String

	if s.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return nil, errors.Wrapf(err, "submission %s: bad submitted_at", s.ID)
	}
	if reviewedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, reviewedAt.String)
		if err != nil {
			return nil, errors.Wrapf(err, "submission %s: bad reviewed_at", s.ID)
		}
		s.ReviewedAt = &t
	}
	return &s, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
