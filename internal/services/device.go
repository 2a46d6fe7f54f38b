package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/podx/internal/models"
)

// list GETs path and normalizes the response through an [Envelope] keyed by key.
func list[T any](ctx context.Context, c *Client, path string, query url.Values, key string) ([]T, error) {
	env := NewEnvelope[T](key)
	if err := c.do(ctx, http.MethodGet, path, query, nil, env); err != nil {
		return nil, err
	}
	return env.List(), nil
}

// Detect lists mounted media players.
//
// Calls GET /api/ipod/detect.
func (c *Client) Detect(ctx context.Context) ([]models.Device, error) {
	return list[models.Device](ctx, c, "/api/ipod/detect", nil, "devices")
}

// Connect opens the device database at mountpoint.
//
// Calls POST /api/ipod/connect.
func (c *Client) Connect(ctx context.Context, mountpoint string) (*models.Connection, error) {
	var conn models.Connection
	body := map[string]string{"mountpoint": mountpoint}
	if err := c.do(ctx, http.MethodPost, "/api/ipod/connect", nil, body, &conn); err != nil {
		return nil, err
	}
	if conn.Name == "" {
		conn.Name = mountpoint
	}
	conn.Mountpoint = mountpoint
	conn.Connected = true
	return &conn, nil
}

// Disconnect closes the current device.
//
// Calls POST /api/ipod/disconnect.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/ipod/disconnect", nil, nil, nil)
}

// Status reports the connected device, if any.
//
// Calls GET /api/ipod/status.
func (c *Client) Status(ctx context.Context) (*models.Connection, error) {
	var conn models.Connection
	if err := c.do(ctx, http.MethodGet, "/api/ipod/status", nil, nil, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// Storage reports device capacity.
//
// Calls GET /api/ipod/storage.
func (c *Client) Storage(ctx context.Context) (*models.Storage, error) {
	var s models.Storage
	if err := c.do(ctx, http.MethodGet, "/api/ipod/storage", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeviceInfo reports the device generation.
//
// Calls GET /api/ipod/device-info.
func (c *Client) DeviceInfo(ctx context.Context) (*models.DeviceInfo, error) {
	var info models.DeviceInfo
	if err := c.do(ctx, http.MethodGet, "/api/ipod/device-info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Playlists lists device playlists, master playlist included.
//
// Calls GET /api/ipod/playlists.
func (c *Client) Playlists(ctx context.Context) ([]models.Playlist, error) {
	return list[models.Playlist](ctx, c, "/api/ipod/playlists", nil, "playlists")
}

// CreatePlaylist creates an empty device playlist.
//
// Calls POST /api/ipod/playlists.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	pl := models.Playlist{Name: name}
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/api/ipod/playlists", nil, body, &pl); err != nil {
		return nil, err
	}
	return &pl, nil
}

// DeletePlaylist removes a device playlist (its tracks stay on the device).
//
// Calls DELETE /api/ipod/playlists/{id}.
func (c *Client) DeletePlaylist(ctx context.Context, id models.PlaylistID) error {
	return c.do(ctx, http.MethodDelete, "/api/ipod/playlists/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// PlaylistTracks lists the tracks of one playlist.
//
// Calls GET /api/ipod/playlists/{id}/tracks.
func (c *Client) PlaylistTracks(ctx context.Context, id models.PlaylistID) ([]models.Track, error) {
	path := "/api/ipod/playlists/" + strconv.FormatInt(id, 10) + "/tracks"
	return list[models.Track](ctx, c, path, nil, "tracks")
}

// DeviceTracks lists every track on the device.
//
// Calls GET /api/ipod/tracks.
func (c *Client) DeviceTracks(ctx context.Context) ([]models.Track, error) {
	return list[models.Track](ctx, c, "/api/ipod/tracks", nil, "tracks")
}

// DeviceAlbums lists device albums.
//
// Calls GET /api/ipod/albums.
func (c *Client) DeviceAlbums(ctx context.Context) ([]models.Album, error) {
	return list[models.Album](ctx, c, "/api/ipod/albums", nil, "albums")
}

// DeviceAlbumTracks lists the tracks of one device album, optionally narrowed to an artist.
//
// Calls GET /api/ipod/albums/{name}/tracks.
func (c *Client) DeviceAlbumTracks(ctx context.Context, album, artist string) ([]models.Track, error) {
	query := url.Values{}
	if artist != "" {
		query.Set("artist", artist)
	}
	path := "/api/ipod/albums/" + url.PathEscape(album) + "/tracks"
	return list[models.Track](ctx, c, path, query, "tracks")
}

// DeviceArtists lists device artists.
//
// Calls GET /api/ipod/artists.
func (c *Client) DeviceArtists(ctx context.Context) ([]models.Artist, error) {
	return list[models.Artist](ctx, c, "/api/ipod/artists", nil, "artists")
}

// DeviceGenres lists device genres.
//
// Calls GET /api/ipod/genres.
func (c *Client) DeviceGenres(ctx context.Context) ([]models.Genre, error) {
	return list[models.Genre](ctx, c, "/api/ipod/genres", nil, "genres")
}

// AddTracks copies library tracks to the device, optionally into a playlist.
//
// Calls POST /api/ipod/add-tracks.
func (c *Client) AddTracks(ctx context.Context, req models.BulkRequest) (*models.BulkResult, error) {
	var result models.BulkResult
	if err := c.do(ctx, http.MethodPost, "/api/ipod/add-tracks", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveTracks deletes tracks from the device.
//
// Calls POST /api/ipod/remove-tracks.
func (c *Client) RemoveTracks(ctx context.Context, ids []models.TrackID) (*models.BulkResult, error) {
	var result models.BulkResult
	body := models.NewBulkRequest(ids, nil)
	if err := c.do(ctx, http.MethodPost, "/api/ipod/remove-tracks", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Export asks the back end to write the device database out.
//
// Calls POST /api/ipod/export.
func (c *Client) Export(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/ipod/export", nil, nil, nil)
}
