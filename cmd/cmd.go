// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/formatter"
)

// outputFlags are the --json/--pretty switches shared by read commands.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func withOutput(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlags()...)
}

// setupCommand handles setup operations for the config file and history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml with default values",
				Action: r.SetupConfig,
			},
			{
				Name:    "database",
				Aliases: []string{"db"},
				Usage:   "Initialize the upload history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// deviceCommand handles operations on the connected player
func deviceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "device",
		Aliases: []string{"ipod"},
		Usage:   "Detect, connect and manage the media player",
		Commands: []*cli.Command{
			{
				Name:   "detect",
				Usage:  "List attached devices",
				Flags:  outputFlags(),
				Action: r.DeviceDetect,
			},
			{
				Name:      "connect",
				Usage:     "Connect to the device mounted at MOUNTPOINT (or the only detected device)",
				ArgsUsage: "[MOUNTPOINT]",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "mountpoint"},
				},
				Action: r.DeviceConnect,
			},
			{
				Name:   "disconnect",
				Usage:  "Disconnect the current device",
				Action: r.DeviceDisconnect,
			},
			{
				Name:   "status",
				Usage:  "Show connection status, storage and model",
				Flags:  outputFlags(),
				Action: r.DeviceStatus,
			},
			{
				Name:  "tracks",
				Usage: "List tracks on the device",
				Flags: withOutput(
					&cli.StringFlag{Name: "album", Usage: "Only tracks of this album"},
					&cli.StringFlag{Name: "artist", Usage: "Album artist (with --album) or artist filter"},
					&cli.StringFlag{Name: "genre", Usage: "Only tracks of this genre"},
					&cli.Int64Flag{Name: "playlist", Usage: "Only tracks of this playlist ID"},
				),
				Action: r.DeviceTracks,
			},
			{
				Name:   "albums",
				Usage:  "List albums on the device",
				Flags:  outputFlags(),
				Action: r.DeviceAlbums,
			},
			{
				Name:   "artists",
				Usage:  "List artists on the device",
				Flags:  outputFlags(),
				Action: r.DeviceArtists,
			},
			{
				Name:   "genres",
				Usage:  "List genres on the device",
				Flags:  outputFlags(),
				Action: r.DeviceGenres,
			},
			{
				Name:      "add",
				Usage:     "Add library tracks to the device in one request",
				ArgsUsage: "TRACK_ID...",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "playlist", Aliases: []string{"p"}, Usage: "Also add the tracks to this playlist ID"},
				},
				Action: r.DeviceAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove tracks from the device",
				ArgsUsage: "TRACK_ID...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: r.DeviceRemove,
			},
			{
				Name:  "sync",
				Usage: "Add all library music and/or podcasts to the device",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "music", Usage: "Include music", Value: true},
					&cli.BoolFlag{Name: "podcasts", Usage: "Include podcasts"},
					&cli.StringSliceFlag{Name: "format", Usage: "Restrict music to these formats (mp3, m4a, ...)"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Only show what would be added"},
				},
				Action: r.DeviceSync,
			},
			{
				Name:   "export",
				Usage:  "Ask the back end to export the device database",
				Action: r.DeviceExport,
			},
			playlistsCommand(r),
		},
	}
}

// playlistsCommand handles device playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage device playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists",
				Flags:  outputFlags(),
				Action: r.PlaylistsList,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				ArgsUsage: "NAME",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistsCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				ArgsUsage: "PLAYLIST_ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: r.PlaylistsDelete,
			},
			{
				Name:      "export",
				Usage:     "Export playlists to files",
				ArgsUsage: "[PLAYLIST_ID...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, txt)",
						Value:   formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: podx_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent file writers",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Playlist fetches per second",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "artwork",
						Usage: "Download a cover for Markdown exports",
						Value: true,
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// libraryCommand handles operations on the server-side music library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse, scan and upload to the music library",
		Commands: []*cli.Command{
			{
				Name:  "albums",
				Usage: "List library albums",
				Flags: withOutput(
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by text"},
				),
				Action: r.LibraryAlbums,
			},
			{
				Name:  "tracks",
				Usage: "List library tracks",
				Flags: withOutput(
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Filter by text"},
					&cli.StringFlag{Name: "album", Usage: "Only tracks of this album"},
					&cli.StringFlag{Name: "sort", Usage: "Sort by title, artist, album, genre or duration"},
					&cli.IntFlag{Name: "page", Usage: "Page number (1-based)", Value: 1},
					&cli.IntFlag{Name: "per-page", Usage: "Page size (default from config)"},
				),
				Action: r.LibraryTracks,
			},
			{
				Name:   "scan",
				Usage:  "Start a library rescan",
				Action: r.LibraryScan,
			},
			{
				Name:      "import-m3u",
				Usage:     "Match an M3U playlist against the library",
				ArgsUsage: "PATH",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: withOutput(
					&cli.BoolFlag{Name: "add", Usage: "Add the matched tracks to the device"},
					&cli.Int64Flag{Name: "playlist", Aliases: []string{"p"}, Usage: "Also add them to this playlist ID"},
				),
				Action: r.LibraryImportM3U,
			},
			{
				Name:      "artwork",
				Usage:     "Download album artwork by hash",
				ArgsUsage: "HASH",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "hash"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (default: HASH.jpg)"},
				},
				Action: r.LibraryArtwork,
			},
			{
				Name:      "upload",
				Aliases:   []string{"up"},
				Usage:     "Upload audio files or directories one at a time",
				ArgsUsage: "PATH...",
				Flags: withOutput(
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide the progress bar"},
				),
				Action: r.LibraryUpload,
			},
		},
	}
}

// historyCommand handles the local upload history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past uploads and bulk actions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show recent upload runs and bulk actions",
				Flags: withOutput(
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum entries per kind", Value: 10},
				),
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show the per-file outcomes of an upload run",
				ArgsUsage: "RUN_ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  outputFlags(),
				Action: r.HistoryShow,
			},
			{
				Name:   "migrations",
				Usage:  "Show applied and pending schema migrations",
				Action: r.HistoryMigrations,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive device management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}

// openCommand opens the back end's web interface.
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "open",
		Usage:  "Open the media manager web UI in a browser",
		Action: r.Open,
	}
}
