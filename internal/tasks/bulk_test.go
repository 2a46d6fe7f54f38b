package tasks

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
	th "github.com/desertthunder/podx/internal/testing"
)

func TestBulkSubmitter_Submit(t *testing.T) {
	t.Run("empty selection makes no request", func(t *testing.T) {
		api := &mockBulkAPI{}
		recorder := &mockBulkRecorder{}
		b := NewBulkSubmitter(api, recorder, nil)

		_, err := b.Submit(context.Background(), models.NewBulkRequest(nil, nil))
		if !errors.Is(err, shared.ErrEmptySelection) {
			t.Fatalf("Submit() error = %v, want ErrEmptySelection", err)
		}
		if api.calls != 0 {
			t.Errorf("api called %d times, want 0", api.calls)
		}
		if len(recorder.actions) != 0 {
			t.Error("empty selection should not be recorded")
		}
	})

	t.Run("submits all ids with playlist", func(t *testing.T) {
		api := &mockBulkAPI{result: &models.BulkResult{Added: 1, Duplicates: 2}}
		recorder := &mockBulkRecorder{}
		b := NewBulkSubmitter(api, recorder, nil)

		playlist := models.PlaylistID(7)
		ids := []models.TrackID{3, 5, 8}
		result, err := b.Submit(context.Background(), models.NewBulkRequest(ids, &playlist))
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if result.Added != 1 || result.Duplicates != 2 || result.Errors != 0 {
			t.Errorf("result = %+v", result)
		}
		if len(api.requests) != 1 {
			t.Fatalf("expected exactly one request, got %d", len(api.requests))
		}
		req := api.requests[0]
		if len(req.TrackIDs) != 3 || req.PlaylistID == nil || *req.PlaylistID != 7 {
			t.Errorf("request = %+v", req)
		}

		ids[0] = 99
		if api.requests[0].TrackIDs[0] != 3 {
			t.Error("request should not alias the caller's slice")
		}
		if len(recorder.actions) != 1 || recorder.actions[0].Kind() != models.BulkAdd {
			t.Errorf("recorded actions = %v", recorder.actions)
		}
	})

	t.Run("failure keeps server message", func(t *testing.T) {
		api := &mockBulkAPI{err: apiStatusError(http.StatusConflict, "Device busy")}
		recorder := &mockBulkRecorder{}
		b := NewBulkSubmitter(api, recorder, nil)

		_, err := b.Submit(context.Background(), models.NewBulkRequest([]models.TrackID{1}, nil))
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("Submit() error = %v, want ErrAPIRequest", err)
		}
		if msg := services.MessageOf(err, "fallback"); msg != "Device busy" {
			t.Errorf("MessageOf() = %q", msg)
		}
		if len(recorder.actions) != 1 || !recorder.actions[0].Failed() {
			t.Error("failed batch should be recorded as failed")
		}
		if b.InFlight() {
			t.Error("submitter should be released after failure")
		}
	})

	t.Run("second submission while in flight is refused", func(t *testing.T) {
		api := &mockBulkAPI{
			result:  &models.BulkResult{},
			block:   make(chan struct{}),
			started: make(chan struct{}),
		}
		b := NewBulkSubmitter(api, nil, nil)

		done := make(chan error)
		go func() {
			_, err := b.Submit(context.Background(), models.NewBulkRequest([]models.TrackID{1}, nil))
			done <- err
		}()
		<-api.started

		if !b.InFlight() {
			t.Error("InFlight() = false during submission")
		}
		if _, err := b.Submit(context.Background(), models.NewBulkRequest([]models.TrackID{2}, nil)); !errors.Is(err, shared.ErrBusy) {
			t.Errorf("second Submit() error = %v, want ErrBusy", err)
		}
		if _, err := b.Remove(context.Background(), []models.TrackID{2}); !errors.Is(err, shared.ErrBusy) {
			t.Errorf("Remove() error = %v, want ErrBusy", err)
		}

		close(api.block)
		if err := <-done; err != nil {
			t.Fatalf("first Submit() error = %v", err)
		}
		if api.calls != 1 {
			t.Errorf("api called %d times, want 1", api.calls)
		}
	})

	t.Run("recorder failure does not fail batch", func(t *testing.T) {
		api := &mockBulkAPI{result: &models.BulkResult{}}
		b := NewBulkSubmitter(api, &mockBulkRecorder{err: errors.New("disk full")}, nil)

		if _, err := b.Submit(context.Background(), models.NewBulkRequest([]models.TrackID{1}, nil)); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	})
}

func TestBulkSubmitter_Remove(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		api := &mockBulkAPI{}
		b := NewBulkSubmitter(api, nil, nil)
		if _, err := b.Remove(context.Background(), nil); !errors.Is(err, shared.ErrEmptySelection) {
			t.Errorf("Remove() error = %v", err)
		}
		if api.calls != 0 {
			t.Error("no request expected")
		}
	})

	t.Run("removes ids", func(t *testing.T) {
		api := &mockBulkAPI{result: &models.BulkResult{Removed: 2}}
		recorder := &mockBulkRecorder{}
		b := NewBulkSubmitter(api, recorder, nil)

		result, err := b.Remove(context.Background(), []models.TrackID{4, 6})
		if err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if result.Removed != 2 {
			t.Errorf("Removed = %d, want 2", result.Removed)
		}
		if len(api.removed) != 1 || len(api.removed[0]) != 2 {
			t.Errorf("removed = %v", api.removed)
		}
		if recorder.actions[0].Kind() != models.BulkRemove {
			t.Errorf("kind = %v", recorder.actions[0].Kind())
		}
	})
}

func TestBulkSubmitter_WithClient(t *testing.T) {
	backend := th.NewBackend(t)
	backend.JSON(http.MethodPost, "/api/ipod/add-tracks", http.StatusOK, map[string]any{
		"added":              []int{1},
		"skipped_duplicates": []int{2, 3},
		"errors":             []any{},
	})
	client := services.NewClient(services.ClientOptions{BaseURL: backend.URL()})
	b := NewBulkSubmitter(client, nil, nil)

	if _, err := b.Submit(context.Background(), models.NewBulkRequest(nil, nil)); !errors.Is(err, shared.ErrEmptySelection) {
		t.Fatalf("Submit(empty) error = %v", err)
	}
	if n := backend.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 0 {
		t.Fatalf("empty selection sent %d requests", n)
	}

	result, err := b.Submit(context.Background(), models.NewBulkRequest([]models.TrackID{1, 2, 3}, nil))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Added != 1 || result.Duplicates != 2 || result.Errors != 0 {
		t.Errorf("result = %+v", result)
	}
	if got := result.Summary("iPod"); got != "Added 1 track to iPod (2 duplicates skipped, 0 errors)" {
		t.Errorf("Summary() = %q", got)
	}
	if n := backend.Count(http.MethodPost, "/api/ipod/add-tracks"); n != 1 {
		t.Errorf("sent %d requests, want 1", n)
	}
}
