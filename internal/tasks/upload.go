package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
)

// Uploader sends one file to the library.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, onProgress services.ProgressFunc) (*models.UploadResponse, error)
}

// UploadRecorder persists upload runs. Failures to record never disturb the run.
type UploadRecorder interface {
	BeginRun(total int) (string, error)
	RecordFile(runID string, position int, file models.UploadFile, outcome models.Outcome, entry models.UploadEntry) error
	FinishRun(runID string, result models.UploadResult) error
}

// Upload failure reasons shown next to the file name.
const (
	ReasonTooLarge        = "File too large"
	ReasonNetwork         = "Network error"
	ReasonInvalidResponse = "Invalid server response"
	ReasonEmptyResponse   = "Empty server response"
	ReasonCanceled        = "Canceled"
)

// UploadPipeline uploads files strictly one at a time and sorts each into exactly one bucket.
type UploadPipeline struct {
	uploader Uploader
	recorder UploadRecorder
	logger   *log.Logger
	open     func(path string) (io.ReadCloser, error)
}

// NewUploadPipeline creates a pipeline. recorder and logger may be nil.
func NewUploadPipeline(uploader Uploader, recorder UploadRecorder, logger *log.Logger) *UploadPipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &UploadPipeline{
		uploader: uploader,
		recorder: recorder,
		logger:   logger,
		open:     func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Run uploads files in order. File i+1 is not opened until file i has settled.
//
// Per-file failures are recorded in the error bucket and the queue continues; once ctx is
// done the remaining files settle as canceled. The result always accounts for every file.
func (p *UploadPipeline) Run(ctx context.Context, files []models.UploadFile, progress chan<- ProgressUpdate) (*models.UploadResult, error) {
	if len(files) == 0 {
		return nil, shared.ErrEmptyQueue
	}

	total := len(files)
	result := &models.UploadResult{}
	runID := p.beginRun(total)

	for i, file := range files {
		step := i + 1
		sendProgress(progress, uploadStartUpdate(step, total, file))

		outcome, entry := p.uploadOne(ctx, file, func(sent, size int64) {
			if size <= 0 {
				size = file.Size
			}
			if size <= 0 {
				return
			}
			sendProgress(progress, uploadTransferUpdate(step, total, file, float64(sent)/float64(size)))
		})

		result.Record(outcome, entry)
		p.recordFile(runID, i, file, outcome, entry)
		sendProgress(progress, uploadSettledUpdate(step, total, FileOutcome{File: file, Outcome: outcome, Entry: entry}))
		p.logger.Debug("upload settled", "file", file.Name, "outcome", outcome, "reason", entry.Reason)
	}

	p.finishRun(runID, *result)
	sendProgress(progress, uploadDoneUpdate(result))
	return result, nil
}

func (p *UploadPipeline) uploadOne(ctx context.Context, file models.UploadFile, onProgress services.ProgressFunc) (models.Outcome, models.UploadEntry) {
	failed := func(reason string) (models.Outcome, models.UploadEntry) {
		return models.OutcomeError, models.UploadEntry{Filename: file.Name, Reason: reason}
	}

	if ctx.Err() != nil {
		return failed(ReasonCanceled)
	}

	f, err := p.open(file.Path)
	if err != nil {
		return failed(fmt.Sprintf("Cannot open file: %v", err))
	}
	defer f.Close()

	resp, err := p.uploader.Upload(ctx, file.Name, f, file.Size, onProgress)
	if err != nil {
		return failed(FailureReason(ctx, err))
	}
	return Classify(file, resp)
}

// Classify picks the single bucket for file from the server's response.
//
// A response naming the file in several buckets is resolved as added, then duplicate, then error.
func Classify(file models.UploadFile, resp *models.UploadResponse) (models.Outcome, models.UploadEntry) {
	withName := func(e models.UploadEntry) models.UploadEntry {
		if e.Filename == "" {
			e.Filename = file.Name
		}
		return e
	}

	switch {
	case resp == nil || resp.Empty():
		return models.OutcomeError, models.UploadEntry{Filename: file.Name, Reason: ReasonEmptyResponse}
	case len(resp.Added) > 0:
		return models.OutcomeAdded, withName(resp.Added[0])
	case len(resp.Duplicates) > 0:
		return models.OutcomeDuplicate, withName(resp.Duplicates[0])
	default:
		entry := withName(resp.Errors[0])
		if entry.Reason == "" {
			entry.Reason = "Rejected by server"
		}
		return models.OutcomeError, entry
	}
}

// FailureReason maps an upload error to the text shown for the file.
func FailureReason(ctx context.Context, err error) string {
	switch status := services.StatusOf(err); {
	case status == http.StatusRequestEntityTooLarge:
		return ReasonTooLarge
	case status != 0:
		return fmt.Sprintf("Upload failed (status %d)", status)
	case errors.Is(err, shared.ErrInvalidResponse):
		return ReasonInvalidResponse
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return ReasonCanceled
	default:
		return ReasonNetwork
	}
}

func (p *UploadPipeline) beginRun(total int) string {
	if p.recorder == nil {
		return ""
	}
	id, err := p.recorder.BeginRun(total)
	if err != nil {
		p.logger.Warn("failed to record upload run", "err", err)
		return ""
	}
	return id
}

func (p *UploadPipeline) recordFile(runID string, position int, file models.UploadFile, outcome models.Outcome, entry models.UploadEntry) {
	if p.recorder == nil || runID == "" {
		return
	}
	if err := p.recorder.RecordFile(runID, position, file, outcome, entry); err != nil {
		p.logger.Warn("failed to record upload outcome", "file", file.Name, "err", err)
	}
}

func (p *UploadPipeline) finishRun(runID string, result models.UploadResult) {
	if p.recorder == nil || runID == "" {
		return
	}
	if err := p.recorder.FinishRun(runID, result); err != nil {
		p.logger.Warn("failed to finish upload run", "err", err)
	}
}
