package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// RunRepository implements models.Repository[*models.UploadRun] for upload history.
//
// Runs are soft deleted; their outcomes are stored alongside and read with [RunRepository.Outcomes].
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.UploadRun] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `
	id, sequence, kind, total, succeeded, failed, concurrency,
	started_at, completed_at, created_at, updated_at, deleted_at
`

// Create inserts a new upload run with generated ID and sequence
func (r *RunRepository) Create(run *models.UploadRun) error {
	sequence, err := NextSequence(r.db, "upload_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := insertRun(r.db, run); err != nil {
		return err
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertRun(db execer, run *models.UploadRun) error {
	query := `
		INSERT INTO upload_runs (
			id, sequence, kind, total, succeeded, failed, concurrency,
			started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		run.ID(),
		run.Sequence(),
		run.Kind(),
		run.Total(),
		run.Succeeded(),
		run.Failed(),
		run.Concurrency(),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload run: %w", err)
	}
	return nil
}

// RecordRun stores a finished run and the outcome of every item in one transaction.
//
// Outcome ids and run ids are assigned here.
func (r *RunRepository) RecordRun(run *models.UploadRun, outcomes []*models.UploadOutcome) error {
	sequence, err := NextSequence(r.db, "upload_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(tx, run); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO upload_outcomes (id, run_id, identifier, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		o.SetID(shared.GenerateID())
		o.SetRunID(run.ID())
		if err := o.Validate(); err != nil {
			return fmt.Errorf("validation failed for %s: %w", o.Identifier(), err)
		}

		var errorMessage any = o.ErrorMessage()
		if errorMessage == "" {
			errorMessage = nil
		}

		if _, err := stmt.Exec(o.ID(), o.RunID(), o.Identifier(), o.Status(), errorMessage, o.CreatedAt()); err != nil {
			return fmt.Errorf("failed to insert outcome %s: %w", o.Identifier(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Get retrieves an upload run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.UploadRun, error) {
	query := `SELECT ` + runColumns + ` FROM upload_runs WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySequence retrieves an upload run by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.UploadRun, error) {
	query := `SELECT ` + runColumns + ` FROM upload_runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, sequence))
}

// Update writes the counts and completion time of an existing run
func (r *RunRepository) Update(run *models.UploadRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE upload_runs
		SET total = ?, succeeded = ?, failed = ?, concurrency = ?,
			started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Total(),
		run.Succeeded(),
		run.Failed(),
		run.Concurrency(),
		run.StartedAt(),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update upload run: %w", err)
	}

	return requireRow(result, run.ID())
}

// Complete marks a run finished with the given counts
func (r *RunRepository) Complete(run *models.UploadRun, succeeded, failed int) error {
	run.Complete(succeeded, failed)
	return r.Update(run)
}

// Delete soft-deletes an upload run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE upload_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete upload run: %w", err)
	}

	return requireRow(result, id)
}

// List retrieves upload runs, newest first, excluding soft-deleted runs.
//
// Recognised criteria: "kind" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.UploadRun, error) {
	query := `SELECT ` + runColumns + ` FROM upload_runs WHERE deleted_at IS NULL`
	args := []any{}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.UploadRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Outcomes returns the item outcomes of a run, failures first, then by identifier.
func (r *RunRepository) Outcomes(runID string) ([]*models.UploadOutcome, error) {
	query := `
		SELECT id, run_id, identifier, status, error_message, created_at
		FROM upload_outcomes
		WHERE run_id = ?
		ORDER BY CASE status WHEN 'failed' THEN 0 ELSE 1 END, identifier
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*models.UploadOutcome
	for rows.Next() {
		var (
			id, runID, identifier, status string
			errorMessage                  sql.NullString
			createdAt                     time.Time
		)
		if err := rows.Scan(&id, &runID, &identifier, &status, &errorMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}

		o := models.NewUploadOutcome(runID, identifier, errorMessage.String)
		o.SetID(id)
		o.SetCreatedAt(createdAt)
		outcomes = append(outcomes, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return outcomes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one upload_runs row from either [sql.Row] or [sql.Rows]
func (r *RunRepository) scan(row scanner) (*models.UploadRun, error) {
	var (
		id          string
		sequence    int
		kind        string
		total       int
		succeeded   int
		failed      int
		concurrency int
		startedAt   time.Time
		completedAt sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &kind, &total, &succeeded, &failed, &concurrency,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: upload run", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan upload run: %w", err)
	}

	run := models.NewUploadRun(sequence, kind, total, concurrency)
	run.SetID(id)
	run.SetCounts(succeeded, failed)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: upload run %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}
