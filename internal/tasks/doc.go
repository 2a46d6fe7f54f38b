// Package tasks runs the multi-step operations of podx against the media manager back end,
// reporting progress through non-blocking channels.
//
// # Batches
//
// [BulkSubmitter] sends a whole selection as one request. Empty selections are rejected
// before any request is made, and a second submission while one is in flight is refused.
// The back end's result is reported as three disjoint counts: added, duplicates skipped, errors.
//
// # Uploads
//
// [UploadQueue] filters files by extension and drops repeated (name, size) pairs.
// [UploadPipeline] uploads the queue strictly one file at a time, so file i+1 is not opened
// until file i has settled, and sorts every file into exactly one bucket. Overall progress is
// (completed + current fraction) / total and reaches 1 once every file has settled.
//
// # Stale responses
//
// [Sequencer] tags each request kind with increasing tokens. A completion whose token is no
// longer the latest for its kind is dropped by the caller.
//
// # Content sync and exports
//
// [PlanSync] and [RunSync] copy the whole library (music, podcasts or both) to the device in one
// batch. [ImportM3U] matches an M3U file against the library and optionally adds the matches.
// [PlaylistExporter] writes device playlists to disk with a worker pool and a fetch rate limit.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, overall percentage, a message and
// optional data. Updates use select with default so a slow consumer never stalls an operation.
//
// Recorders ([UploadRecorder], [BulkRecorder]) persist history; their failures are logged and
// never interrupt the operation they observe.
package tasks
