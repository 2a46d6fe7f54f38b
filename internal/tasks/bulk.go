package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// BulkAPI is the part of the back end a [BulkSubmitter] needs.
type BulkAPI interface {
	AddTracks(ctx context.Context, req models.BulkRequest) (*models.BulkResult, error)
	RemoveTracks(ctx context.Context, ids []models.TrackID) (*models.BulkResult, error)
}

// BulkRecorder persists submitted batches. Failures to record never fail the batch.
type BulkRecorder interface {
	RecordBulk(action *models.BulkAction) error
}

// BulkSubmitter sends one selection as one batch request.
//
// Empty selections are rejected before any request, and a second submission while one
// is in flight is refused with [shared.ErrBusy].
type BulkSubmitter struct {
	api      BulkAPI
	recorder BulkRecorder
	logger   *log.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewBulkSubmitter creates a submitter. recorder and logger may be nil.
func NewBulkSubmitter(api BulkAPI, recorder BulkRecorder, logger *log.Logger) *BulkSubmitter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &BulkSubmitter{api: api, recorder: recorder, logger: logger}
}

// InFlight reports whether a batch is being submitted; callers disable their trigger while it is.
func (b *BulkSubmitter) InFlight() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight
}

func (b *BulkSubmitter) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight {
		return false
	}
	b.inFlight = true
	return true
}

func (b *BulkSubmitter) release() {
	b.mu.Lock()
	b.inFlight = false
	b.mu.Unlock()
}

// Submit adds the request's tracks to the device (or to its playlist).
//
// On success the caller reports the three counts, clears its selection and re-fetches
// the destination. On error the caller keeps its selection so the user can retry.
func (b *BulkSubmitter) Submit(ctx context.Context, req models.BulkRequest) (*models.BulkResult, error) {
	if len(req.TrackIDs) == 0 {
		return nil, shared.ErrEmptySelection
	}
	if !b.acquire() {
		return nil, shared.ErrBusy
	}
	defer b.release()

	req = models.NewBulkRequest(req.TrackIDs, req.PlaylistID)
	b.logger.Info("submitting batch", "tracks", len(req.TrackIDs), "playlist", req.PlaylistID != nil)

	result, err := b.api.AddTracks(ctx, req)
	b.record(models.BulkAdd, req, result, err)
	if err != nil {
		return nil, fmt.Errorf("failed to add tracks: %w", err)
	}
	return result, nil
}

// Remove deletes the given tracks from the device with the same guards as [BulkSubmitter.Submit].
func (b *BulkSubmitter) Remove(ctx context.Context, ids []models.TrackID) (*models.BulkResult, error) {
	if len(ids) == 0 {
		return nil, shared.ErrEmptySelection
	}
	if !b.acquire() {
		return nil, shared.ErrBusy
	}
	defer b.release()

	req := models.NewBulkRequest(ids, nil)
	b.logger.Info("removing tracks", "tracks", len(req.TrackIDs))

	result, err := b.api.RemoveTracks(ctx, req.TrackIDs)
	b.record(models.BulkRemove, req, result, err)
	if err != nil {
		return nil, fmt.Errorf("failed to remove tracks: %w", err)
	}
	return result, nil
}

func (b *BulkSubmitter) record(kind models.BulkKind, req models.BulkRequest, result *models.BulkResult, err error) {
	if b.recorder == nil {
		return
	}
	var res models.BulkResult
	if result != nil {
		res = *result
	}
	failure := ""
	if err != nil {
		failure = err.Error()
	}
	if recErr := b.recorder.RecordBulk(models.NewBulkAction(kind, req, res, failure)); recErr != nil {
		b.logger.Warn("failed to record batch", "err", recErr)
	}
}
