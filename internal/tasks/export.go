package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/podx/internal/formatter"
	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// PlaylistSource reads device playlists.
type PlaylistSource interface {
	Playlists(ctx context.Context) ([]models.Playlist, error)
	PlaylistTracks(ctx context.Context, id models.PlaylistID) ([]models.Track, error)
}

// ExportOpts contains configuration for playlist exports.
type ExportOpts struct {
	Format     string                                                              // json, csv, markdown or txt
	OutputDir  string                                                              // default: podx_export_{epoch}
	NumWorkers int                                                                 // concurrent writers (default 4, max 10)
	RateLimit  float64                                                             // playlist fetches per second (default 5)
	Cover      func(ctx context.Context, e *models.PlaylistExport) ([]byte, error) // optional Markdown cover
}

type exportJob struct {
	export *models.PlaylistExport
}

// PlaylistExporter writes device playlists to disk with a small worker pool.
//
// Fetches are paced by a limiter and run in order; file writing fans out to the workers.
type PlaylistExporter struct {
	source PlaylistSource
	logger *log.Logger
}

// NewPlaylistExporter creates an exporter. logger may be nil.
func NewPlaylistExporter(source PlaylistSource, logger *log.Logger) *PlaylistExporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistExporter{source: source, logger: logger}
}

// Export writes the playlists named by ids (every playlist when ids is empty) and a manifest.
//
// One playlist failing does not stop the others; failures are listed in the manifest.
func (e *PlaylistExporter) Export(ctx context.Context, prog chan<- ProgressUpdate, ids []models.PlaylistID, opts ExportOpts) (*models.ExportManifest, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("podx_export_%d", time.Now().Unix())
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), 10)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = 4
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	playlists, err := e.resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manifest := &models.ExportManifest{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		TotalPlaylists:  len(playlists),
		Results:         make([]models.PlaylistExportResult, 0, len(playlists)),
		CreatedAt:       time.Now(),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(playlists))
	results := make(chan models.PlaylistExportResult, len(playlists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.worker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, p := range playlists {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, exportFetchUpdate(i+1, len(playlists), p.Name))

			tracks, err := e.source.PlaylistTracks(ctx, p.ID)
			if err != nil {
				results <- models.PlaylistExportResult{
					PlaylistID:   p.ID,
					PlaylistName: p.Name,
					Error:        fmt.Sprintf("failed to fetch playlist: %v", err),
				}
				continue
			}
			jobs <- exportJob{export: &models.PlaylistExport{Playlist: p, Tracks: tracks, ExportedAt: time.Now()}}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		manifest.Results = append(manifest.Results, res)
		if res.Success {
			manifest.Successful++
			sendProgress(prog, exportCompletedUpdate(completed, len(playlists), res.PlaylistName, len(res.Files)))
		} else {
			manifest.Failed++
			sendProgress(prog, exportFailedUpdate(completed, len(playlists), res.PlaylistName, errors.New(res.Error)))
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistName, "err", res.Error)
		}
	}

	if err := ctx.Err(); err != nil {
		return manifest, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return manifest, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	return manifest, nil
}

func (e *PlaylistExporter) resolve(ctx context.Context, ids []models.PlaylistID) ([]models.Playlist, error) {
	all, err := e.source.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	if len(ids) == 0 {
		return all, nil
	}

	byID := make(map[models.PlaylistID]models.Playlist, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	out := make([]models.Playlist, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, id)
		}
		out = append(out, p)
	}
	return out, nil
}

func (e *PlaylistExporter) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- models.PlaylistExportResult, opts ExportOpts) {
	defer wg.Done()
	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportOne(ctx, job.export, opts)
	}
}

func (e *PlaylistExporter) exportOne(ctx context.Context, export *models.PlaylistExport, opts ExportOpts) models.PlaylistExportResult {
	result := models.PlaylistExportResult{
		PlaylistID:   export.Playlist.ID,
		PlaylistName: export.Playlist.Name,
	}
	base := filepath.Join(opts.OutputDir, formatter.BaseName(export.Playlist))

	switch opts.Format {
	case formatter.FormatCSV:
		res, err := formatter.WriteCSVExport(export, base)
		if err != nil {
			result.Error = fmt.Sprintf("CSV export failed: %v", err)
			return result
		}
		result.Files = []string{res.TracksFile, res.MetadataFile}
	case formatter.FormatMarkdown:
		var cover []byte
		if opts.Cover != nil {
			data, err := opts.Cover(ctx, export)
			if err != nil {
				e.logger.Debug("no cover image", "playlist", export.Playlist.Name, "err", err)
			}
			cover = data
		}
		res, err := formatter.WriteMarkdownExport(export, base, cover)
		if err != nil {
			result.Error = fmt.Sprintf("markdown export failed: %v", err)
			return result
		}
		result.Files = res.Files
	case formatter.FormatText:
		path, err := formatter.WriteTextExport(export, base+"_tracks.txt")
		if err != nil {
			result.Error = fmt.Sprintf("text export failed: %v", err)
			return result
		}
		result.Files = []string{path}
	default:
		path, err := formatter.WriteJSONExport(export, base+".json")
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Files = []string{path}
	}
	result.Success = true
	return result
}
