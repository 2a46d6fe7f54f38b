package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/formatter"
	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
	"github.com/desertthunder/podx/internal/tasks"
)

// LibraryAlbums lists library albums, optionally filtered.
func (r *Runner) LibraryAlbums(ctx context.Context, cmd *cli.Command) error {
	albums, err := r.api.LibraryAlbums(ctx, cmd.String("search"))
	if err != nil {
		return fmt.Errorf("failed to load albums: %w", err)
	}
	return r.writeResult(cmd, albums, func() error {
		r.writeAlbums(albums)
		return nil
	})
}

// LibraryTracks lists one page of library tracks.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	sort := services.SortField(strings.ToLower(cmd.String("sort")))
	if sort != "" && !lo.Contains(services.SortFields, sort) {
		return fmt.Errorf("%w: --sort must be one of %v", shared.ErrInvalidFlag, services.SortFields)
	}

	perPage := cmd.Int("per-page")
	if perPage <= 0 {
		perPage = r.config.Library.PageSize
	}

	tracks, err := r.api.LibraryTracks(ctx, services.TrackQuery{
		Page:    cmd.Int("page"),
		PerPage: perPage,
		Sort:    sort,
		Album:   cmd.String("album"),
		Search:  cmd.String("search"),
	})
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}
	return r.writeResult(cmd, tracks, func() error {
		r.writeTracks(tracks)
		return nil
	})
}

// LibraryScan starts a rescan of the library folder on the back end.
func (r *Runner) LibraryScan(ctx context.Context, cmd *cli.Command) error {
	if err := r.api.Scan(ctx); err != nil {
		return fmt.Errorf("scan failed: %s: %w", services.MessageOf(err, "unknown error"), err)
	}
	r.writePlain("%s Scan started\n", okColor.Sprint("✓"))
	return nil
}

// m3uReport is the JSON form of an import.
type m3uReport struct {
	Report *models.M3UImport  `json:"report"`
	Result *models.BulkResult `json:"result,omitempty"`
}

// LibraryImportM3U matches an M3U file and optionally adds the matches to the device.
func (r *Runner) LibraryImportM3U(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))

	var playlist *models.PlaylistID
	if cmd.IsSet("playlist") {
		id := cmd.Int64("playlist")
		playlist = &id
	}

	report, result, err := tasks.ImportM3U(ctx, r.api, r.submitter, path, cmd.Bool("add"), playlist)
	if err != nil {
		return r.bulkError("import playlist", err)
	}

	return r.writeResult(cmd, m3uReport{Report: report, Result: result}, func() error {
		r.writePlainHeader("M3U import")
		r.writePlain("Matched:   %s\n", okColor.Sprint(report.MatchedCount))
		r.writePlain("Unmatched: %s\n", warnColor.Sprint(report.UnmatchedCount))
		if lines := tasks.M3UPreview(report); len(lines) > 0 {
			r.writePlain("\n")
			for _, line := range lines {
				r.writePlain("  %s\n", line)
			}
		}
		if result != nil {
			target := "device"
			if playlist != nil {
				target = fmt.Sprintf("playlist %d", *playlist)
			}
			r.writePlain("\n")
			r.writeBulkResult(result.Summary(target), result)
		}
		return nil
	})
}

// LibraryArtwork downloads album artwork by hash.
func (r *Runner) LibraryArtwork(ctx context.Context, cmd *cli.Command) error {
	hash := strings.TrimSpace(cmd.StringArg("hash"))
	if hash == "" {
		return fmt.Errorf("%w: artwork hash", shared.ErrMissingArgument)
	}

	data, contentType, err := r.api.Artwork(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to download artwork: %w", err)
	}

	path := cmd.String("output")
	if path == "" {
		path = hash + artworkExt(contentType)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artwork: %w", err)
	}
	r.writePlain("%s Saved %s (%s)\n", okColor.Sprint("✓"), path, shared.FormatSize(int64(len(data))))
	return nil
}

func artworkExt(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

// LibraryUpload queues files and directories and uploads them one at a time.
func (r *Runner) LibraryUpload(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file or directory", shared.ErrMissingArgument)
	}

	queue := tasks.NewUploadQueue(r.config.Upload.Extensions)
	if _, err := queue.AddPaths(paths...); err != nil {
		return fmt.Errorf("failed to queue files: %w", err)
	}
	if queue.Len() == 0 {
		return fmt.Errorf("%w: no files with %s", shared.ErrEmptyQueue, strings.Join(r.config.Upload.Extensions, ", "))
	}

	files := queue.Files()
	r.logger.Info("uploading", "files", len(files), "size", shared.FormatSize(queue.TotalSize()))

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if cmd.Bool("quiet") || cmd.Bool("json") {
			for range progress {
			}
			return
		}
		r.showUploadProgress(progress)
	}()

	result, err := r.pipeline.Run(ctx, files, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	return r.writeResult(cmd, result, func() error {
		r.writePlainln("%s", titleColor.Sprintf("Upload complete: %d %s", result.Total(), lo.Ternary(result.Total() == 1, "file", "files")))
		for _, section := range formatter.UploadReport(result) {
			c := okColor
			switch {
			case strings.HasPrefix(section.Title, "Duplicates"):
				c = warnColor
			case strings.HasPrefix(section.Title, "Errors"):
				c = errColor
			}
			r.writePlain("%s\n", c.Sprint(section.Title))
			for _, line := range section.Lines {
				r.writePlain("  %s\n", line)
			}
		}
		return nil
	})
}

// showUploadProgress drives a single bar over the whole queue from pipeline updates.
func (r *Runner) showUploadProgress(progress <-chan tasks.ProgressUpdate) {
	const scale = 1000
	bar := progressbar.NewOptions(scale,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)

	for update := range progress {
		switch update.Phase {
		case tasks.UploadStart:
			bar.Describe(fmt.Sprintf("[%d/%d] %s", update.Step, update.Total, update.Message))
		case tasks.UploadSettled:
			r.logger.Debug("file settled", "step", update.Step, "message", update.Message)
		case tasks.UploadDone:
			bar.Describe(update.Message)
		}
		bar.Set(int(update.Percent * scale))
	}
	bar.Finish()
}
