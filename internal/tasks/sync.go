package tasks

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// ContentAPI lists library track ids for whole-library syncs and M3U imports.
type ContentAPI interface {
	AllTrackIDs(ctx context.Context, content models.ContentType, formats ...string) (*models.TrackIDs, error)
	ImportM3U(ctx context.Context, path string) (*models.M3UImport, error)
}

// SyncOptions chooses what "add all content" copies to the device.
type SyncOptions struct {
	Music    bool
	Podcasts bool
	Formats  []string // restricts music; empty means every format
}

// SyncPlan is the set of ids a sync would add.
type SyncPlan struct {
	MusicCount   int
	PodcastCount int
	TrackIDs     []models.TrackID
}

// Summary is the "Will add: 12 music tracks, 1 podcast episode" preview.
func (p SyncPlan) Summary() string {
	var parts []string
	if p.MusicCount > 0 {
		parts = append(parts, fmt.Sprintf("%d music %s", p.MusicCount, pluralize(p.MusicCount, "track", "tracks")))
	}
	if p.PodcastCount > 0 {
		parts = append(parts, fmt.Sprintf("%d podcast %s", p.PodcastCount, pluralize(p.PodcastCount, "episode", "episodes")))
	}
	if len(parts) == 0 {
		return "No content found"
	}
	return "Will add: " + lo.Reduce(parts[1:], func(acc, s string, _ int) string { return acc + ", " + s }, parts[0])
}

// PlanSync collects the ids selected by opts, de-duplicated and in library order.
func PlanSync(ctx context.Context, api ContentAPI, opts SyncOptions, progress chan<- ProgressUpdate) (*SyncPlan, error) {
	if !opts.Music && !opts.Podcasts {
		return nil, fmt.Errorf("%w: select music, podcasts or both", shared.ErrInvalidInput)
	}

	steps := lo.Ternary(opts.Music && opts.Podcasts, 2, 1)
	step := 0
	plan := &SyncPlan{}

	if opts.Music {
		step++
		sendProgress(progress, syncCollectUpdate(step, steps, models.ContentMusic))
		ids, err := api.AllTrackIDs(ctx, models.ContentMusic, opts.Formats...)
		if err != nil {
			return nil, fmt.Errorf("failed to list music tracks: %w", err)
		}
		plan.MusicCount = ids.Count
		plan.TrackIDs = append(plan.TrackIDs, ids.TrackIDs...)
	}

	if opts.Podcasts {
		step++
		sendProgress(progress, syncCollectUpdate(step, steps, models.ContentPodcast))
		ids, err := api.AllTrackIDs(ctx, models.ContentPodcast)
		if err != nil {
			return nil, fmt.Errorf("failed to list podcast episodes: %w", err)
		}
		plan.PodcastCount = ids.Count
		plan.TrackIDs = append(plan.TrackIDs, ids.TrackIDs...)
	}

	plan.TrackIDs = lo.Uniq(plan.TrackIDs)
	return plan, nil
}

// RunSync plans and submits a whole-library sync as one batch.
func RunSync(ctx context.Context, api ContentAPI, submitter *BulkSubmitter, opts SyncOptions, progress chan<- ProgressUpdate) (*SyncPlan, *models.BulkResult, error) {
	plan, err := PlanSync(ctx, api, opts, progress)
	if err != nil {
		return nil, nil, err
	}

	sendProgress(progress, syncSubmitUpdate(len(plan.TrackIDs)))
	result, err := submitter.Submit(ctx, models.NewBulkRequest(plan.TrackIDs, nil))
	if err != nil {
		return plan, nil, err
	}
	return plan, result, nil
}

// M3UPreviewLimit caps how many matched tracks an import preview lists.
const M3UPreviewLimit = 20

// M3UPreview renders matched tracks as "Artist - Title" lines, with a trailing "... and N more".
func M3UPreview(report *models.M3UImport) []string {
	if report == nil {
		return nil
	}
	shown := report.MatchedTracks
	if len(shown) > M3UPreviewLimit {
		shown = shown[:M3UPreviewLimit]
	}
	lines := lo.Map(shown, func(t models.Track, _ int) string {
		return t.DisplayArtist() + " - " + t.DisplayTitle()
	})
	if extra := len(report.MatchedTracks) - len(shown); extra > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", extra))
	}
	return lines
}

// ImportM3U matches an M3U file and, when add is set, submits the matched tracks to playlist (nil for the device only).
func ImportM3U(ctx context.Context, api ContentAPI, submitter *BulkSubmitter, path string, add bool, playlist *models.PlaylistID) (*models.M3UImport, *models.BulkResult, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("%w: M3U path is required", shared.ErrMissingArgument)
	}

	report, err := api.ImportM3U(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load playlist: %w", err)
	}
	if !add {
		return report, nil, nil
	}

	result, err := submitter.Submit(ctx, models.NewBulkRequest(models.TrackIDList(report.MatchedTracks), playlist))
	if err != nil {
		return report, nil, err
	}
	return report, result, nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
