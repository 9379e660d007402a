package models

import (
	"fmt"
	"time"
)

// Upload run kinds
const (
	RunKindAssets = "assets"
	RunKindPosts  = "posts"
)

// Outcome statuses
const (
	OutcomeDone   = "done"
	OutcomeFailed = "failed"
)

// UploadRun records one invocation of an upload stage and its final counts.
type UploadRun struct {
	id          string
	sequence    int
	kind        string
	total       int
	succeeded   int
	failed      int
	concurrency int
	startedAt   time.Time
	completedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewUploadRun creates an [UploadRun] of the given kind started now.
func NewUploadRun(sequence int, kind string, total, concurrency int) *UploadRun {
	now := time.Now()
	return &UploadRun{
		sequence:    sequence,
		kind:        kind,
		total:       total,
		concurrency: concurrency,
		startedAt:   now,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (r *UploadRun) ID() string { return r.id }
func (r *UploadRun) Sequence() int { return r.sequence }
func (r *UploadRun) Kind() string { return r.kind }
func (r *UploadRun) Total() int { return r.total }
func (r *UploadRun) Succeeded() int { return r.succeeded }
func (r *UploadRun) Failed() int { return r.failed }
func (r *UploadRun) Concurrency() int { return r.concurrency }
func (r *UploadRun) StartedAt() time.Time { return r.startedAt }
func (r *UploadRun) CompletedAt() *time.Time { return r.completedAt }
func (r *UploadRun) CreatedAt() time.Time { return r.createdAt }
func (r *UploadRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *UploadRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *UploadRun) SetID(id string) { r.id = id }
func (r *UploadRun) SetSequence(seq int) { r.sequence = seq }
func (r *UploadRun) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *UploadRun) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *UploadRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *UploadRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *UploadRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *UploadRun) SetCounts(succeeded, failed int) { r.succeeded, r.failed = succeeded, failed }

// Complete stamps the run as finished with the given counts.
func (r *UploadRun) Complete(succeeded, failed int) {
	now := time.Now()
	r.succeeded = succeeded
	r.failed = failed
	r.completedAt = &now
	r.updatedAt = now
}

// Completed reports whether the run has reached its terminal state.
func (r *UploadRun) Completed() bool { return r.completedAt != nil }

// Duration is the wall time of a completed run, or zero while it is still running.
func (r *UploadRun) Duration() time.Duration {
	if r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

// Validate checks that the run has an id, a known kind and consistent counts.
func (r *UploadRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("upload run ID is required")
	}
	if r.kind != RunKindAssets && r.kind != RunKindPosts {
		return fmt.Errorf("unknown upload run kind: %q", r.kind)
	}
	if r.total < 0 || r.succeeded < 0 || r.failed < 0 {
		return fmt.Errorf("upload run counts must not be negative")
	}
	if r.succeeded+r.failed > r.total {
		return fmt.Errorf("upload run has %d outcomes for %d items", r.succeeded+r.failed, r.total)
	}
	return nil
}

// UploadOutcome is the terminal state of one work item in a run.
type UploadOutcome struct {
	id           string
	runID        string
	identifier   string
	status       string
	errorMessage string
	createdAt    time.Time
}

// NewUploadOutcome creates an [UploadOutcome]. An empty errMsg means the item succeeded.
func NewUploadOutcome(runID, identifier, errMsg string) *UploadOutcome {
	status := OutcomeDone
	if errMsg != "" {
		status = OutcomeFailed
	}
	return &UploadOutcome{
		runID:        runID,
		identifier:   identifier,
		status:       status,
		errorMessage: errMsg,
		createdAt:    time.Now(),
	}
}

func (o *UploadOutcome) ID() string { return o.id }
func (o *UploadOutcome) RunID() string { return o.runID }
func (o *UploadOutcome) Identifier() string { return o.identifier }
func (o *UploadOutcome) Status() string { return o.status }
func (o *UploadOutcome) ErrorMessage() string { return o.errorMessage }
func (o *UploadOutcome) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt equals CreatedAt; outcomes are never modified.
func (o *UploadOutcome) UpdatedAt() time.Time { return o.createdAt }

func (o *UploadOutcome) SetID(id string) { o.id = id }
func (o *UploadOutcome) SetRunID(id string) { o.runID = id }
func (o *UploadOutcome) SetCreatedAt(t time.Time) { o.createdAt = t }

// Validate checks the outcome references a run and carries a known status.
func (o *UploadOutcome) Validate() error {
	if o.id == "" {
		return fmt.Errorf("upload outcome ID is required")
	}
	if o.runID == "" {
		return fmt.Errorf("upload outcome run ID is required")
	}
	if o.identifier == "" {
		return fmt.Errorf("upload outcome identifier is required")
	}
	if o.status != OutcomeDone && o.status != OutcomeFailed {
		return fmt.Errorf("unknown upload outcome status: %q", o.status)
	}
	return nil
}
