package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// UploadField is the multipart field the upload endpoint reads files from.
const UploadField = "files"

// SortField is a library track ordering understood by the back end.
type SortField string

const (
	SortTitle    SortField = "title"
	SortArtist   SortField = "artist"
	SortAlbum    SortField = "album"
	SortGenre    SortField = "genre"
	SortDuration SortField = "duration"
)

// SortFields lists orderings in the order the UI cycles through them.
var SortFields = []SortField{SortTitle, SortArtist, SortAlbum, SortGenre, SortDuration}

// TrackQuery filters GET /api/library/tracks. Album takes precedence over Search.
type TrackQuery struct {
	Page    int
	PerPage int
	Sort    SortField
	Album   string
	Search  string
}

func (q TrackQuery) values() url.Values {
	v := url.Values{}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	if q.Album != "" {
		v.Set("album", q.Album)
	} else if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// LibraryAlbums lists library albums, optionally filtered by a search term.
//
// Calls GET /api/library/albums.
func (c *Client) LibraryAlbums(ctx context.Context, search string) ([]models.Album, error) {
	query := url.Values{}
	if search = strings.TrimSpace(search); search != "" {
		query.Set("search", search)
	}
	return list[models.Album](ctx, c, "/api/library/albums", query, "albums")
}

// LibraryTracks lists one page of library tracks.
//
// Calls GET /api/library/tracks.
func (c *Client) LibraryTracks(ctx context.Context, q TrackQuery) ([]models.Track, error) {
	return list[models.Track](ctx, c, "/api/library/tracks", q.values(), "tracks")
}

// Scan starts a library rescan on the back end.
//
// Calls POST /api/library/scan.
func (c *Client) Scan(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/library/scan", nil, nil, nil)
}

// ImportM3U matches the entries of an M3U file (a path on the back end host) against the library.
//
// Calls POST /api/library/import-m3u.
func (c *Client) ImportM3U(ctx context.Context, path string) (*models.M3UImport, error) {
	var report models.M3UImport
	body := map[string]string{"path": path}
	if err := c.do(ctx, http.MethodPost, "/api/library/import-m3u", nil, body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// AllTrackIDs lists every library track id of a content type, optionally restricted to file formats.
//
// Calls GET /api/library/all-track-ids.
func (c *Client) AllTrackIDs(ctx context.Context, content models.ContentType, formats ...string) (*models.TrackIDs, error) {
	query := url.Values{}
	query.Set("type", string(content))
	if len(formats) > 0 {
		query.Set("formats", strings.Join(formats, ","))
	}

	var ids models.TrackIDs
	if err := c.do(ctx, http.MethodGet, "/api/library/all-track-ids", query, nil, &ids); err != nil {
		return nil, err
	}
	if ids.Count == 0 {
		ids.Count = len(ids.TrackIDs)
	}
	return &ids, nil
}

// Artwork downloads album art by content hash.
//
// Calls GET /api/artwork/{hash}.
func (c *Client) Artwork(ctx context.Context, hash string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/artwork/"+url.PathEscape(hash), nil), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.send(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to read artwork: %v", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: %w", shared.ErrAPIRequest, newAPIError(resp.StatusCode, data))
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// ProgressFunc receives bytes sent so far out of total (total <= 0 when unknown).
type ProgressFunc func(sent, total int64)

// Upload streams one file to the library as multipart form data.
//
// The body is produced while it is sent, so onProgress tracks actual transfer.
// There is no overall deadline: the upload fails only when no bytes move for
// the client timeout, or when the reply takes longer than the upload wait.
// Calls POST /api/library/upload.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, size int64, onProgress ProgressFunc) (*models.UploadResponse, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	watch := newStallWatch(c.stallAfter, func() { cancel(errUploadStalled) })
	defer watch.stop()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile(UploadField, name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := &progressReader{r: r, total: size, report: onProgress, onRead: watch.kick}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		err = form.Close()
		watch.reset(c.uploadWait)
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/library/upload", nil), pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.sendWith(c.uploadClient, req)
	if err != nil {
		pr.CloseWithError(err)
		if errors.Is(context.Cause(ctx), errUploadStalled) {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, name, errUploadStalled)
		}
		return nil, err
	}
	defer resp.Body.Close()
	// Unblock the writer if the server answered before reading the whole body.
	defer pr.Close()

	var result models.UploadResponse
	if err := decodeResponse(resp, &result); err != nil {
		if errors.Is(context.Cause(ctx), errUploadStalled) {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, name, errUploadStalled)
		}
		return nil, err
	}
	return &result, nil
}

var errUploadStalled = fmt.Errorf("%w: upload stalled", shared.ErrTimeout)

// stallWatch fires once when it is not kicked within its window. It is armed by
// the first kick. A nil stallWatch never fires.
type stallWatch struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
	done   bool
}

func newStallWatch(window time.Duration, fire func()) *stallWatch {
	if window <= 0 {
		return nil
	}
	timer := time.AfterFunc(window, fire)
	timer.Stop()
	return &stallWatch{window: window, timer: timer}
}

// kick restarts the current window.
func (w *stallWatch) kick() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.done {
		w.timer.Reset(w.window)
	}
}

// reset switches to a new window; zero or less stops the watch.
func (w *stallWatch) reset(window time.Duration) {
	if w == nil {
		return
	}
	if window <= 0 {
		w.stop()
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.done {
		w.window = window
		w.timer.Reset(window)
	}
}

func (w *stallWatch) stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	w.timer.Stop()
}

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report ProgressFunc
	onRead func()
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if p.onRead != nil {
		p.onRead()
	}
	if n > 0 {
		p.sent += int64(n)
		if p.report != nil {
			p.report(p.sent, p.total)
		}
	}
	return n, err
}
