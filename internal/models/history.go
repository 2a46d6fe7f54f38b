package models

import (
	"errors"
	"fmt"
	"time"
)

// UploadRun is a persisted upload queue submission.
type UploadRun struct {
	id         string
	sequence   int
	baseURL    string
	total      int
	added      int
	duplicates int
	errors     int
	startedAt  time.Time
	finishedAt *time.Time
}

// NewUploadRun creates a run for total files sent to baseURL.
func NewUploadRun(baseURL string, total int) *UploadRun {
	return &UploadRun{baseURL: baseURL, total: total, startedAt: time.Now()}
}

// RestoreUploadRun rebuilds a run from stored columns.
func RestoreUploadRun(id string, sequence int, baseURL string, total, added, duplicates, errs int, startedAt time.Time, finishedAt *time.Time) *UploadRun {
	return &UploadRun{
		id: id, sequence: sequence, baseURL: baseURL,
		total: total, added: added, duplicates: duplicates, errors: errs,
		startedAt: startedAt, finishedAt: finishedAt,
	}
}

func (r *UploadRun) ID() string { return r.id }
func (r *UploadRun) SetID(id string) { r.id = id }
func (r *UploadRun) Sequence() int { return r.sequence }
func (r *UploadRun) SetSequence(seq int) { r.sequence = seq }
func (r *UploadRun) BaseURL() string { return r.baseURL }
func (r *UploadRun) Total() int { return r.total }
func (r *UploadRun) Added() int { return r.added }
func (r *UploadRun) Duplicates() int { return r.duplicates }
func (r *UploadRun) Errors() int { return r.errors }
func (r *UploadRun) CreatedAt() time.Time { return r.startedAt }
func (r *UploadRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *UploadRun) Finished() bool { return r.finishedAt != nil }

// Finish stamps the run with the final bucket counts of result.
func (r *UploadRun) Finish(result UploadResult, at time.Time) {
	r.added = len(result.Added)
	r.duplicates = len(result.Duplicates)
	r.errors = len(result.Errors)
	r.finishedAt = &at
}

// Validate implements [Model].
func (r *UploadRun) Validate() error {
	if r.baseURL == "" {
		return errors.New("base url is required")
	}
	if r.total < 0 {
		return fmt.Errorf("total must not be negative: %d", r.total)
	}
	if r.finishedAt != nil && r.added+r.duplicates+r.errors != r.total {
		return fmt.Errorf("bucket counts %d+%d+%d do not add up to %d", r.added, r.duplicates, r.errors, r.total)
	}
	return nil
}

// UploadRecord is the persisted outcome of one file in a run.
type UploadRecord struct {
	id        string
	runID     string
	position  int
	file      UploadFile
	outcome   Outcome
	entry     UploadEntry
	createdAt time.Time
}

// NewUploadRecord captures the outcome of the file at position within run.
func NewUploadRecord(runID string, position int, file UploadFile, outcome Outcome, entry UploadEntry) *UploadRecord {
	return &UploadRecord{
		runID: runID, position: position, file: file,
		outcome: outcome, entry: entry, createdAt: time.Now(),
	}
}

// RestoreUploadRecord rebuilds a record from stored columns.
func RestoreUploadRecord(id, runID string, position int, file UploadFile, outcome Outcome, entry UploadEntry, createdAt time.Time) *UploadRecord {
	return &UploadRecord{id: id, runID: runID, position: position, file: file, outcome: outcome, entry: entry, createdAt: createdAt}
}

func (r *UploadRecord) ID() string { return r.id }
func (r *UploadRecord) SetID(id string) { r.id = id }
func (r *UploadRecord) RunID() string { return r.runID }
func (r *UploadRecord) Position() int { return r.position }
func (r *UploadRecord) File() UploadFile { return r.file }
func (r *UploadRecord) Outcome() Outcome { return r.outcome }
func (r *UploadRecord) Entry() UploadEntry { return r.entry }
func (r *UploadRecord) CreatedAt() time.Time { return r.createdAt }

// Validate implements [Model].
func (r *UploadRecord) Validate() error {
	if r.runID == "" {
		return errors.New("run id is required")
	}
	if r.file.Name == "" {
		return errors.New("filename is required")
	}
	switch r.outcome {
	case OutcomeAdded, OutcomeDuplicate, OutcomeError:
	default:
		return fmt.Errorf("unknown outcome %q", r.outcome)
	}
	return nil
}

// BulkKind names the device batch endpoint used.
type BulkKind string

const (
	BulkAdd    BulkKind = "add"
	BulkRemove BulkKind = "remove"
)

// BulkAction is a persisted add/remove batch.
type BulkAction struct {
	id         string
	kind       BulkKind
	playlistID string
	requested  int
	result     BulkResult
	failure    string
	createdAt  time.Time
}

// NewBulkAction logs a batch of requested ids; failure is empty when the request succeeded.
func NewBulkAction(kind BulkKind, req BulkRequest, result BulkResult, failure string) *BulkAction {
	playlist := ""
	if req.PlaylistID != nil {
		playlist = fmt.Sprint(*req.PlaylistID)
	}
	return &BulkAction{
		kind: kind, playlistID: playlist, requested: len(req.TrackIDs),
		result: result, failure: failure, createdAt: time.Now(),
	}
}

// RestoreBulkAction rebuilds a batch from stored columns.
func RestoreBulkAction(id string, kind BulkKind, playlistID string, requested int, result BulkResult, failure string, createdAt time.Time) *BulkAction {
	return &BulkAction{id: id, kind: kind, playlistID: playlistID, requested: requested, result: result, failure: failure, createdAt: createdAt}
}

func (a *BulkAction) ID() string { return a.id }
func (a *BulkAction) SetID(id string) { a.id = id }
func (a *BulkAction) Kind() BulkKind { return a.kind }
func (a *BulkAction) PlaylistID() string { return a.playlistID }
func (a *BulkAction) Requested() int { return a.requested }
func (a *BulkAction) Result() BulkResult { return a.result }
func (a *BulkAction) Failure() string { return a.failure }
func (a *BulkAction) Failed() bool { return a.failure != "" }
func (a *BulkAction) CreatedAt() time.Time { return a.createdAt }

// Validate implements [Model].
func (a *BulkAction) Validate() error {
	if a.kind != BulkAdd && a.kind != BulkRemove {
		return fmt.Errorf("unknown bulk action %q", a.kind)
	}
	if a.requested <= 0 {
		return errors.New("a bulk action needs at least one track id")
	}
	return nil
}
