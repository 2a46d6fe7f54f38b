// package services defines the HTTP client for the media manager back end
package services

import (
	"context"
	"io"

	"github.com/desertthunder/podx/internal/models"
)

// DeviceService covers the /api/ipod endpoints.
type DeviceService interface {
	Detect(ctx context.Context) ([]models.Device, error)
	Connect(ctx context.Context, mountpoint string) (*models.Connection, error)
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) (*models.Connection, error)
	Storage(ctx context.Context) (*models.Storage, error)
	DeviceInfo(ctx context.Context) (*models.DeviceInfo, error)

	Playlists(ctx context.Context) ([]models.Playlist, error)
	CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, id models.PlaylistID) error
	PlaylistTracks(ctx context.Context, id models.PlaylistID) ([]models.Track, error)

	DeviceTracks(ctx context.Context) ([]models.Track, error)
	DeviceAlbums(ctx context.Context) ([]models.Album, error)
	DeviceAlbumTracks(ctx context.Context, album, artist string) ([]models.Track, error)
	DeviceArtists(ctx context.Context) ([]models.Artist, error)
	DeviceGenres(ctx context.Context) ([]models.Genre, error)

	AddTracks(ctx context.Context, req models.BulkRequest) (*models.BulkResult, error)
	RemoveTracks(ctx context.Context, ids []models.TrackID) (*models.BulkResult, error)
	Export(ctx context.Context) error
}

// LibraryService covers the /api/library and /api/artwork endpoints.
type LibraryService interface {
	LibraryAlbums(ctx context.Context, search string) ([]models.Album, error)
	LibraryTracks(ctx context.Context, q TrackQuery) ([]models.Track, error)
	Scan(ctx context.Context) error
	ImportM3U(ctx context.Context, path string) (*models.M3UImport, error)
	AllTrackIDs(ctx context.Context, content models.ContentType, formats ...string) (*models.TrackIDs, error)
	Artwork(ctx context.Context, hash string) ([]byte, string, error)
	Upload(ctx context.Context, name string, r io.Reader, size int64, onProgress ProgressFunc) (*models.UploadResponse, error)
}

// API is the whole back end surface.
type API interface {
	DeviceService
	LibraryService
	BaseURL() string
}

var _ API = (*Client)(nil)
