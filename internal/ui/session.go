package ui

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
	"github.com/desertthunder/podx/internal/tasks"
)

// keyMutation marks completions of requests that change state; they are never superseded.
const keyMutation = "mutation"

// Options carries the dependencies of the TUI.
type Options struct {
	API        services.API
	Submitter  *tasks.BulkSubmitter
	Pipeline   *tasks.UploadPipeline
	Queue      *tasks.UploadQueue
	Sequencer  *tasks.Sequencer
	Logger     *log.Logger
	PageSize   int
	Debounce   time.Duration
	Extensions []string
}

// session is the state shared by every panel. It is only touched from Update.
type session struct {
	ctx       context.Context
	api       services.API
	seq       *tasks.Sequencer
	submitter *tasks.BulkSubmitter
	pipeline  *tasks.UploadPipeline
	logger    *log.Logger
	pageSize  int
	debounce  time.Duration

	connection *models.Connection
	playlists  []models.Playlist

	loading map[string]uint64
	busy    int
}

func newSession(ctx context.Context, opts Options) *session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	seq := opts.Sequencer
	if seq == nil {
		seq = tasks.NewSequencer()
	}
	submitter := opts.Submitter
	if submitter == nil {
		submitter = tasks.NewBulkSubmitter(opts.API, nil, logger)
	}
	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = tasks.NewUploadPipeline(opts.API, nil, logger)
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = searchDebounceTime
	}

	return &session{
		ctx:       ctx,
		api:       opts.API,
		seq:       seq,
		submitter: submitter,
		pipeline:  pipeline,
		logger:    logger,
		pageSize:  pageSize,
		debounce:  debounce,
		loading:   map[string]uint64{},
	}
}

func (s *session) connected() bool {
	return s.connection != nil
}

// deviceName is the connected player's name for headers and toasts.
func (s *session) deviceName() string {
	if s.connection == nil {
		return ""
	}
	if s.connection.Name != "" {
		return s.connection.Name
	}
	return s.connection.Mountpoint
}

// load issues a token for key and runs fn on a goroutine. Earlier loads under key become stale.
func (s *session) load(kind MsgKind, key string, fn func(ctx context.Context) (any, error)) tea.Cmd {
	token := s.seq.Next(key)
	s.loading[key] = token
	ctx := s.ctx
	return func() tea.Msg {
		data, err := fn(ctx)
		return loadedMsg(kind, key, token, data, err)
	}
}

// mutate runs fn on a goroutine; its completion always applies.
func (s *session) mutate(kind MsgKind, fn func(ctx context.Context) (any, error)) tea.Cmd {
	s.busy++
	ctx := s.ctx
	return func() tea.Msg {
		data, err := fn(ctx)
		msg := resultMsg(kind, data, err)
		msg.key = keyMutation
		return msg
	}
}

// settle updates the spinner bookkeeping for msg and reports whether msg is still current.
func (s *session) settle(msg Msg) bool {
	if msg.key == keyMutation {
		s.busy = max(s.busy-1, 0)
		return true
	}
	if !msg.sequenced() {
		return true
	}
	if s.loading[msg.key] == msg.token {
		delete(s.loading, msg.key)
	}
	current := s.seq.Latest(msg.key, msg.token)
	if !current {
		s.logger.Debug("dropping stale completion", "key", msg.key, "token", msg.token)
	}
	return current
}

// inFlight reports whether anything is loading, for the spinner.
func (s *session) inFlight() bool {
	return s.busy > 0 || len(s.loading) > 0
}

// debounced fires a search message for query after the debounce delay unless a newer one supersedes it.
func (s *session) debounced(key, query string) tea.Cmd {
	token := s.seq.Next(key)
	return tea.Tick(s.debounce, func(time.Time) tea.Msg {
		return searchMsg(key, token, query)
	})
}

// invalidate drops whatever is in flight for key.
func (s *session) invalidate(key string) {
	s.seq.Invalidate(key)
	delete(s.loading, key)
}

// refreshPlaylists reloads device playlists for every panel that lists them.
func (s *session) refreshPlaylists() tea.Cmd {
	return s.load(MsgPlaylistsLoaded, keyPlaylists, func(ctx context.Context) (any, error) {
		return s.api.Playlists(ctx)
	})
}

// failure renders err for a toast: the server message when there is one, else fallback.
func failure(err error, fallback string) string {
	switch {
	case errors.Is(err, shared.ErrEmptySelection):
		return "No tracks selected"
	case errors.Is(err, shared.ErrBusy):
		return "Please wait for the current request to finish"
	}
	return services.MessageOf(err, fallback)
}
