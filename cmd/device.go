package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
	"github.com/desertthunder/podx/internal/tasks"
)

// DeviceDetect lists attached players.
func (r *Runner) DeviceDetect(ctx context.Context, cmd *cli.Command) error {
	devices, err := r.api.Detect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, services.MessageOf(err, err.Error()))
	}

	return r.writeResult(cmd, devices, func() error {
		if len(devices) == 0 {
			r.writePlain("%s\n", warnColor.Sprint("No devices detected"))
			return nil
		}
		r.writePlainHeader(fmt.Sprintf("Devices (%d)", len(devices)))
		for _, d := range devices {
			r.writePlain("%s  %s\n", titleColor.Sprint(d.Label()), mutedColor.Sprint(d.Mountpoint))
		}
		return nil
	})
}

// DeviceConnect connects to MOUNTPOINT, or to the only detected device when none is given.
func (r *Runner) DeviceConnect(ctx context.Context, cmd *cli.Command) error {
	mountpoint := strings.TrimSpace(cmd.StringArg("mountpoint"))

	if mountpoint == "" {
		devices, err := r.api.Detect(ctx)
		if err != nil {
			return fmt.Errorf("device detection failed: %w", err)
		}
		switch len(devices) {
		case 0:
			return shared.ErrNoDevice
		case 1:
			mountpoint = devices[0].Mountpoint
		default:
			mounts := lo.Map(devices, func(d models.Device, _ int) string { return d.Mountpoint })
			return fmt.Errorf("%w: several devices found, pass one of %s", shared.ErrMissingArgument, strings.Join(mounts, ", "))
		}
	}

	r.logger.Info("connecting", "mountpoint", mountpoint)
	conn, err := r.api.Connect(ctx, mountpoint)
	if err != nil {
		return fmt.Errorf("failed to connect: %s: %w", services.MessageOf(err, "unknown error"), err)
	}

	name := conn.Name
	if name == "" {
		name = mountpoint
	}
	r.writePlain("%s Connected to %s\n", okColor.Sprint("✓"), titleColor.Sprint(name))
	return nil
}

// DeviceDisconnect disconnects the current device.
func (r *Runner) DeviceDisconnect(ctx context.Context, cmd *cli.Command) error {
	if err := r.api.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect: %s: %w", services.MessageOf(err, "unknown error"), err)
	}
	r.writePlain("%s Device disconnected\n", okColor.Sprint("✓"))
	return nil
}

// deviceStatus is the combined status view; storage and info are best-effort.
type deviceStatus struct {
	Connection *models.Connection `json:"connection"`
	Storage    *models.Storage    `json:"storage,omitempty"`
	Info       *models.DeviceInfo `json:"info,omitempty"`
	Generation string             `json:"generation,omitempty"`
}

// DeviceStatus reports the connection together with storage and the device model.
func (r *Runner) DeviceStatus(ctx context.Context, cmd *cli.Command) error {
	conn, err := r.api.Status(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, services.MessageOf(err, err.Error()))
	}

	status := deviceStatus{Connection: conn}
	if conn.Connected {
		if storage, err := r.api.Storage(ctx); err != nil {
			r.logger.Warn("storage unavailable", "error", err)
		} else {
			status.Storage = storage
		}
		if info, err := r.api.DeviceInfo(ctx); err != nil {
			r.logger.Warn("device info unavailable", "error", err)
		} else {
			status.Info = info
			status.Generation = info.GenerationTag()
		}
	}

	return r.writeResult(cmd, status, func() error {
		if !conn.Connected {
			r.writePlain("%s\n", warnColor.Sprint("Not connected"))
			return nil
		}
		r.writePlainHeader(lo.CoalesceOrEmpty(conn.Name, conn.Mountpoint, "Device"))
		r.writePlain("Mountpoint: %s\n", conn.Mountpoint)
		if status.Generation != "" {
			r.writePlain("Model:      %s\n", status.Generation)
		}
		if status.Storage != nil {
			r.writePlain("Storage:    %s\n", status.Storage)
		}
		return nil
	})
}

// DeviceTracks lists device tracks, optionally narrowed to a playlist, album, artist or genre.
func (r *Runner) DeviceTracks(ctx context.Context, cmd *cli.Command) error {
	album, artist, genre := cmd.String("album"), cmd.String("artist"), cmd.String("genre")

	var tracks []models.Track
	var err error
	switch {
	case cmd.IsSet("playlist"):
		tracks, err = r.api.PlaylistTracks(ctx, cmd.Int64("playlist"))
	case album != "":
		tracks, err = r.api.DeviceAlbumTracks(ctx, album, artist)
	default:
		tracks, err = r.api.DeviceTracks(ctx)
		tracks = lo.Filter(tracks, func(t models.Track, _ int) bool {
			return (artist == "" || strings.EqualFold(t.Artist, artist)) &&
				(genre == "" || strings.EqualFold(t.Genre, genre))
		})
	}
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}

	return r.writeResult(cmd, tracks, func() error {
		r.writeTracks(tracks)
		return nil
	})
}

// DeviceAlbums lists albums on the device.
func (r *Runner) DeviceAlbums(ctx context.Context, cmd *cli.Command) error {
	albums, err := r.api.DeviceAlbums(ctx)
	if err != nil {
		return fmt.Errorf("failed to load albums: %w", err)
	}
	return r.writeResult(cmd, albums, func() error {
		r.writeAlbums(albums)
		return nil
	})
}

// DeviceArtists lists artists on the device.
func (r *Runner) DeviceArtists(ctx context.Context, cmd *cli.Command) error {
	artists, err := r.api.DeviceArtists(ctx)
	if err != nil {
		return fmt.Errorf("failed to load artists: %w", err)
	}
	return r.writeResult(cmd, artists, func() error {
		r.writePlainHeader(fmt.Sprintf("Artists (%d)", len(artists)))
		for _, a := range artists {
			r.writePlain("%-40s %s\n", shared.Truncate(a.Name, 40), mutedColor.Sprintf("%d albums, %d tracks", a.AlbumCount, a.TrackCount))
		}
		return nil
	})
}

// DeviceGenres lists genres on the device.
func (r *Runner) DeviceGenres(ctx context.Context, cmd *cli.Command) error {
	genres, err := r.api.DeviceGenres(ctx)
	if err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}
	return r.writeResult(cmd, genres, func() error {
		r.writePlainHeader(fmt.Sprintf("Genres (%d)", len(genres)))
		for _, g := range genres {
			r.writePlain("%-40s %s\n", shared.Truncate(g.Name, 40), mutedColor.Sprintf("%d tracks", g.TrackCount))
		}
		return nil
	})
}

// DeviceAdd sends library track ids to the device (and optionally a playlist) as one batch.
func (r *Runner) DeviceAdd(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	var playlist *models.PlaylistID
	target := "device"
	if cmd.IsSet("playlist") {
		id := cmd.Int64("playlist")
		playlist = &id
		target = fmt.Sprintf("playlist %d", id)
	}

	result, err := r.submitter.Submit(ctx, models.NewBulkRequest(ids, playlist))
	if err != nil {
		return r.bulkError("add tracks", err)
	}
	r.writeBulkResult(result.Summary(target), result)
	return nil
}

// DeviceRemove removes tracks from the device after confirmation.
func (r *Runner) DeviceRemove(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		ok, err := r.confirm(fmt.Sprintf("Remove %d %s from the device?", len(ids), lo.Ternary(len(ids) == 1, "track", "tracks")))
		if err != nil || !ok {
			return err
		}
	}

	result, err := r.submitter.Remove(ctx, ids)
	if err != nil {
		return r.bulkError("remove tracks", err)
	}
	r.writePlain("%s Removed %d %s\n", okColor.Sprint("✓"), result.Removed, lo.Ternary(result.Removed == 1, "track", "tracks"))
	return nil
}

// DeviceSync adds every library track of the chosen content types in one request.
func (r *Runner) DeviceSync(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.SyncOptions{
		Music:    cmd.Bool("music"),
		Podcasts: cmd.Bool("podcasts"),
		Formats:  cmd.StringSlice("format"),
	}

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s %s\n", mutedColor.Sprint("•"), update.Message)
		}
	}()

	var plan *tasks.SyncPlan
	var result *models.BulkResult
	var err error
	if cmd.Bool("dry-run") {
		plan, err = tasks.PlanSync(ctx, r.api, opts, progress)
	} else {
		plan, result, err = tasks.RunSync(ctx, r.api, r.submitter, opts, progress)
	}
	close(progress)
	<-done

	if err != nil {
		if plan != nil {
			r.writePlain("%s\n", plan.Summary())
		}
		return r.bulkError("sync", err)
	}

	r.writePlain("%s\n", titleColor.Sprint(plan.Summary()))
	if result != nil {
		r.writeBulkResult(result.Summary("device"), result)
	}
	return nil
}

// DeviceExport asks the back end to export the device database.
func (r *Runner) DeviceExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.api.Export(ctx); err != nil {
		return fmt.Errorf("export failed: %s: %w", services.MessageOf(err, "unknown error"), err)
	}
	r.writePlain("%s Export started\n", okColor.Sprint("✓"))
	return nil
}

// parseIDs turns positional arguments into track ids. At least one is required.
func parseIDs(args []string) ([]models.TrackID, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %w", shared.ErrMissingArgument, shared.ErrEmptySelection)
	}
	ids := make([]models.TrackID, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: track id %q", shared.ErrInvalidArgument, part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %w", shared.ErrMissingArgument, shared.ErrEmptySelection)
	}
	return lo.Uniq(ids), nil
}

// bulkError keeps the server's message in front of the wrapped error.
func (r *Runner) bulkError(action string, err error) error {
	if errors.Is(err, shared.ErrEmptySelection) || errors.Is(err, shared.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("failed to %s: %s: %w", action, services.MessageOf(err, "unknown error"), err)
}

func (r *Runner) writeBulkResult(summary string, result *models.BulkResult) {
	mark := okColor.Sprint("✓")
	if result.Errors > 0 {
		mark = warnColor.Sprint("!")
	}
	r.writePlain("%s %s\n", mark, summary)
}

func (r *Runner) writeTracks(tracks []models.Track) {
	r.writePlainHeader(fmt.Sprintf("Tracks (%d)", len(tracks)))
	for _, t := range tracks {
		r.writePlain("%s  %-36s %-24s %-24s %s\n",
			numberColor.Sprintf("%7d", t.ID),
			shared.Truncate(t.DisplayTitle(), 36),
			shared.Truncate(t.DisplayArtist(), 24),
			shared.Truncate(t.Album, 24),
			mutedColor.Sprint(shared.FormatDuration(t.Length())),
		)
	}
}

func (r *Runner) writeAlbums(albums []models.Album) {
	r.writePlainHeader(fmt.Sprintf("Albums (%d)", len(albums)))
	for _, a := range albums {
		year := ""
		if a.Year > 0 {
			year = fmt.Sprintf(" (%d)", a.Year)
		}
		r.writePlain("%-40s %-28s %s\n",
			shared.Truncate(a.Title()+year, 40),
			shared.Truncate(a.Artist, 28),
			mutedColor.Sprintf("%d tracks", a.TrackCount),
		)
	}
}
