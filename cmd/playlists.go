package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/formatter"
	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
	"github.com/desertthunder/podx/internal/tasks"
)

// PlaylistsList lists device playlists. The master playlist is marked.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.api.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}

	return r.writeResult(cmd, playlists, func() error {
		r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
		for _, p := range playlists {
			name := p.Name
			if p.IsMaster {
				name += mutedColor.Sprint(" (library)")
			}
			r.writePlain("%s  %s %s\n", numberColor.Sprintf("%6d", p.ID), name, mutedColor.Sprintf("%d tracks", p.TrackCount))
		}
		return nil
	})
}

// PlaylistsCreate creates an empty playlist.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	playlist, err := r.api.CreatePlaylist(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %s: %w", services.MessageOf(err, "unknown error"), err)
	}
	r.writePlain("%s Playlist %q created (id %d)\n", okColor.Sprint("✓"), playlist.Name, playlist.ID)
	return nil
}

// PlaylistsDelete deletes a user playlist. The master playlist is refused before any request.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parsePlaylistID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	playlists, err := r.api.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}
	playlist, found := lo.Find(playlists, func(p models.Playlist) bool { return p.ID == id })
	if !found {
		return fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, id)
	}
	if playlist.IsMaster {
		return fmt.Errorf("%w: the master playlist cannot be deleted", shared.ErrInvalidArgument)
	}

	if !cmd.Bool("yes") {
		ok, err := r.confirm(fmt.Sprintf("Delete playlist %q?", playlist.Name))
		if err != nil || !ok {
			return err
		}
	}

	if err := r.api.DeletePlaylist(ctx, id); err != nil {
		return fmt.Errorf("failed to delete playlist: %s: %w", services.MessageOf(err, "unknown error"), err)
	}
	r.writePlain("%s Playlist deleted\n", okColor.Sprint("✓"))
	return nil
}

// PlaylistsExport writes playlists to files with a worker pool and prints the manifest summary.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	var ids []models.PlaylistID
	for _, arg := range cmd.Args().Slice() {
		id, err := parsePlaylistID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	format := strings.ToLower(cmd.String("format"))
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: --format must be one of %s", shared.ErrInvalidFlag, strings.Join(formatter.Formats, ", "))
	}

	opts := tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}
	if format == formatter.FormatMarkdown && cmd.Bool("artwork") {
		opts.Cover = r.playlistCover()
	}

	progress := make(chan tasks.ProgressUpdate, 20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.ExportFailed:
				r.writePlain("%s %s\n", errColor.Sprint("✗"), update.Message)
			case tasks.ExportCompleted:
				r.writePlain("%s %s\n", okColor.Sprint("✓"), update.Message)
			default:
				r.writePlain("%s %s\n", mutedColor.Sprint("•"), update.Message)
			}
		}
	}()

	manifest, err := tasks.NewPlaylistExporter(r.api, r.logger).Export(ctx, progress, ids, opts)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("%s", titleColor.Sprint("Export complete"))
	r.writePlain("Directory: %s\n", manifest.OutputDirectory)
	r.writePlain("Exported:  %d/%d playlists\n", manifest.Successful, manifest.TotalPlaylists)
	if manifest.Failed > 0 {
		r.writePlain("%s\n", warnColor.Sprintf("Failed:    %d", manifest.Failed))
		for _, res := range manifest.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.PlaylistName, res.Error)
			}
		}
	}
	return nil
}

// playlistCover fetches the artwork of the first track's album, matched against the device albums.
func (r *Runner) playlistCover() func(ctx context.Context, e *models.PlaylistExport) ([]byte, error) {
	var (
		once      sync.Once
		albums    []models.Album
		albumsErr error
	)

	return func(ctx context.Context, e *models.PlaylistExport) ([]byte, error) {
		if len(e.Tracks) == 0 {
			return nil, nil
		}
		once.Do(func() { albums, albumsErr = r.api.DeviceAlbums(ctx) })
		if albumsErr != nil {
			return nil, albumsErr
		}

		first := e.Tracks[0]
		album, ok := lo.Find(albums, func(a models.Album) bool {
			return a.ArtworkHash != "" && a.Title() == first.Album
		})
		if !ok {
			return nil, nil
		}
		data, _, err := r.api.Artwork(ctx, album.ArtworkHash)
		return data, err
	}
}

func parsePlaylistID(arg string) (models.PlaylistID, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: playlist id %q", shared.ErrInvalidArgument, arg)
	}
	return id, nil
}
