package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/repositories"
	"github.com/desertthunder/podx/internal/services"
	"github.com/desertthunder/podx/internal/shared"
	"github.com/desertthunder/podx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        services.API
	ownsAPI    bool
	db         *sql.DB
	history    *repositories.HistoryRecorder
	submitter  *tasks.BulkSubmitter
	pipeline   *tasks.UploadPipeline
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil API is built from Config when a command runs; a nil DB disables upload history.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        services.API
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
	}
	if opts.DB != nil {
		r.attachHistory(opts.DB)
	}
	if r.api != nil {
		r.wire()
	}
	return r
}

// SetLogger swaps the logger, e.g. for the TUI's file logger. A client built by [Runner.Before] is rebuilt to use it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if r.ownsAPI && r.config != nil {
		r.api = r.newClient()
	}
	if r.api != nil {
		r.wire()
	}
}

func (r *Runner) attachHistory(db *sql.DB) {
	r.db = db
	baseURL := ""
	if r.api != nil {
		baseURL = r.api.BaseURL()
	} else if r.config != nil {
		baseURL = r.config.Server.BaseURL
	}
	r.history = repositories.NewHistoryRecorder(db, baseURL)
}

// wire builds the submitter and pipeline around the API and, when available, the history recorder.
func (r *Runner) wire() {
	var bulkRecorder tasks.BulkRecorder
	var uploadRecorder tasks.UploadRecorder
	if r.history != nil {
		bulkRecorder, uploadRecorder = r.history, r.history
	}
	r.submitter = tasks.NewBulkSubmitter(r.api, bulkRecorder, r.logger)
	r.pipeline = tasks.NewUploadPipeline(r.api, uploadRecorder, r.logger)
}

// Before resolves configuration and dependencies that were not injected. It runs ahead of every command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.config == nil {
		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return ctx, fmt.Errorf("failed to load config: %w", err)
		}
		r.config = config
	}

	level := r.config.Log.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if cmd.Bool("no-color") {
		color.NoColor = true
	}

	if r.api == nil {
		r.api = r.newClient()
		r.ownsAPI = true
	}

	if r.db == nil && r.config.Database.Path != "" {
		db, err := shared.OpenHistory(r.config.Database.Path, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		if err != nil {
			r.logger.Warn("upload history disabled", "path", r.config.Database.Path, "error", err)
		} else {
			r.attachHistory(db)
		}
	}

	r.wire()
	return ctx, nil
}

// newClient builds the API client from the configuration. HTTPClient, when injected, overrides the timeout.
func (r *Runner) newClient() *services.Client {
	return services.NewClient(services.ClientOptions{
		BaseURL:           r.config.Server.BaseURL,
		HTTPClient:        r.httpClient,
		Timeout:           r.config.Server.Timeout.Duration,
		UploadWait:        r.config.Upload.ResponseTimeout.Duration,
		RequestsPerSecond: r.config.Server.RequestsPerSecond,
		Logger:            r.logger,
	})
}

// After releases the history database.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close database", "error", err)
	}
	r.db, r.history = nil, nil
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, deviceCommand, libraryCommand, historyCommand, tuiCommand, openCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireHistory reports the recorder or a descriptive error when history is disabled.
func (r *Runner) requireHistory() (*repositories.HistoryRecorder, error) {
	if r.history == nil {
		return nil, fmt.Errorf("%w: upload history is disabled (set database.path)", shared.ErrServiceUnavailable)
	}
	return r.history, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", headerColor.Sprint("═══════════════════════════════════════"))
	r.writePlain("%s\n", titleColor.Sprint(title))
	r.writePlain("%s\n", headerColor.Sprint("═══════════════════════════════════════"))
}

// confirm asks a y/N question on the runner's input.
func (r *Runner) confirm(prompt string) (bool, error) {
	if err := r.writePlain("%s %s ", warnColor.Sprint(prompt), mutedColor.Sprint("[y/N]")); err != nil {
		return false, err
	}
	answer, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	r.writePlain("Canceled\n")
	return false, nil
}

// writeResult prints data as JSON when --json is set, otherwise calls plain.
func (r *Runner) writeResult(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}

var (
	headerColor = color.New(color.FgHiCyan)
	titleColor  = color.New(color.FgHiCyan, color.Bold)
	okColor     = color.New(color.FgHiGreen, color.Bold)
	warnColor   = color.New(color.FgHiYellow)
	errColor    = color.New(color.FgHiRed)
	mutedColor  = color.New(color.Faint)
	numberColor = color.New(color.FgHiMagenta, color.Bold)
)
