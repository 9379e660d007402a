// Package repositories implements SQLite persistence for upload history.
//
// [RunRepository] stores one row per upload run (assets or posts) and one row per item outcome.
// Runs support soft deletes via deleted_at timestamps and are excluded from queries once deleted.
// It also satisfies tasks.RunRecorder, so the migration engine can record runs as they finish.
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #3) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
