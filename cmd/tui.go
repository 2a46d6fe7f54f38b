package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/podx/internal/shared"
	"github.com/desertthunder/podx/internal/tasks"
	"github.com/desertthunder/podx/internal/ui"
)

const defaultTUILog = "./tmp/podx-tui.log"

// TUI launches the interactive terminal UI for browsing the library and managing the device.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.api == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	path := r.config.Log.File
	if path == "" {
		path = defaultTUILog
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	fileLogger, closer, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.Options{
		API:        r.api,
		Submitter:  r.submitter,
		Pipeline:   r.pipeline,
		Queue:      tasks.NewUploadQueue(r.config.Upload.Extensions),
		Logger:     fileLogger,
		PageSize:   r.config.Library.PageSize,
		Debounce:   r.config.Library.SearchDebounce(),
		Extensions: r.config.Upload.Extensions,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
