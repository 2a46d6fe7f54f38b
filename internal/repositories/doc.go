// Package repositories implements SQLite persistence for the local history kept by podx.
//
// Key Implementations:
//   - [UploadRunRepository] : one row per upload queue submission with its final bucket counts
//   - [UploadRecordRepository] : the outcome of every file in a run, in queue order
//   - [BulkActionRepository] : every add/remove batch sent to the device
//   - [HistoryRecorder] : adapts the repositories to the recorders used by the tasks package
//
// Upload runs are soft deleted via deleted_at and excluded from queries by default.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
