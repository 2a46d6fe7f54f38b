package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/podx/internal/formatter"
	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
	"github.com/desertthunder/podx/internal/tasks"
)

// uploadRun is the outcome of one pipeline run.
type uploadRun struct {
	result *models.UploadResult
	err    error
}

// uploadPanel queues local files and uploads them one at a time.
type uploadPanel struct {
	s *session

	queue  *tasks.UploadQueue
	cursor int
	input  textinput.Model

	running      bool
	progressChan chan tasks.ProgressUpdate
	doneChan     chan uploadRun
	progress     tasks.ProgressUpdate
	bar          progress.Model
	result       *models.UploadResult

	width, height int
}

func newUploadPanel(s *session, queue *tasks.UploadQueue) *uploadPanel {
	in := textinput.New()
	in.Prompt = "path: "
	in.Placeholder = "file or directory"
	in.CharLimit = 1024

	return &uploadPanel{
		s:     s,
		queue: queue,
		input: in,
		bar:   progress.New(progress.WithDefaultGradient()),
	}
}

func (p *uploadPanel) Init() tea.Cmd {
	return nil
}

// addPath enqueues a file or every allowed file under a directory.
func (p *uploadPanel) addPath(path string) tea.Cmd {
	path = strings.TrimSpace(path)
	if path == "" {
		return notify(levelError, "Please enter a path")
	}
	before := p.queue.Len()
	added, err := p.queue.AddPaths(path)
	if err != nil {
		p.s.logger.Warn("failed to queue path", "path", path, "err", err)
		return notify(levelError, err.Error())
	}
	if added == 0 {
		return notify(levelWarning, "No new audio files found")
	}
	if before == 0 {
		p.result = nil
	}
	return notify(levelInfo, fmt.Sprintf("Queued %d %s", added, pluralize(added, "file", "files")))
}

func (p *uploadPanel) start() tea.Cmd {
	if p.running {
		return nil
	}
	files := p.queue.Files()
	if len(files) == 0 {
		return notify(levelWarning, "No files queued")
	}

	p.running = true
	p.result = nil
	p.progress = tasks.ProgressUpdate{Total: len(files)}
	p.progressChan = make(chan tasks.ProgressUpdate, 64)
	p.doneChan = make(chan uploadRun, 1)

	pipeline, ctx := p.s.pipeline, p.s.ctx
	progressChan, doneChan := p.progressChan, p.doneChan
	go func() {
		result, err := pipeline.Run(ctx, files, progressChan)
		close(progressChan)
		doneChan <- uploadRun{result: result, err: err}
	}()

	return p.waitForProgress()
}

func (p *uploadPanel) waitForProgress() tea.Cmd {
	progressChan, doneChan := p.progressChan, p.doneChan
	return func() tea.Msg {
		if update, ok := <-progressChan; ok {
			return progressUpdateMsg(update)
		}
		run := <-doneChan
		return resultMsg(MsgUploadDone, run.result, run.err)
	}
}

func (p *uploadPanel) Capturing() bool {
	return p.input.Focused()
}

func (p *uploadPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Msg:
		return p.handleMsg(msg)
	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return nil
}

func (p *uploadPanel) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgUploadProgress:
		if update, ok := msg.data.(tasks.ProgressUpdate); ok {
			p.progress = update
		}
		return p.waitForProgress()
	case MsgUploadDone:
		p.running = false
		p.progressChan, p.doneChan = nil, nil
		if msg.err != nil {
			return notify(levelError, "Upload failed: "+failure(msg.err, msg.err.Error()))
		}
		res, _ := msg.data.(*models.UploadResult)
		if res == nil {
			return nil
		}
		p.result = res
		p.progress.Percent = 1
		p.queue.Reset()
		p.cursor = 0

		l := levelSuccess
		switch {
		case len(res.Added) == 0 && len(res.Errors) > 0:
			l = levelError
		case len(res.Errors) > 0 || len(res.Added) == 0:
			l = levelWarning
		}
		return notify(l, formatter.UploadToast(res))
	}
	return nil
}

func (p *uploadPanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.input.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			p.input.Blur()
			return nil
		case tea.KeyEnter:
			value := p.input.Value()
			p.input.SetValue("")
			p.input.Blur()
			return p.addPath(value)
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return cmd
	}

	if p.running {
		return nil
	}

	switch {
	case key.Matches(msg, keys.addPath):
		return p.input.Focus()
	case key.Matches(msg, keys.start), key.Matches(msg, keys.enter):
		return p.start()
	case key.Matches(msg, keys.remove):
		if p.queue.Remove(p.cursor) {
			p.cursor = min(p.cursor, max(p.queue.Len()-1, 0))
		}
	case key.Matches(msg, keys.clear):
		p.queue.Reset()
		p.cursor = 0
	case key.Matches(msg, keys.up):
		p.cursor = max(p.cursor-1, 0)
	case key.Matches(msg, keys.down):
		p.cursor = min(p.cursor+1, max(p.queue.Len()-1, 0))
	}
	return nil
}

func (p *uploadPanel) SetSize(width, height int) {
	p.width, p.height = width, height
	p.bar.Width = min(max(width-10, 20), 80)
}

func (p *uploadPanel) View() string {
	sections := []string{p.input.View()}

	files := p.queue.Files()
	if len(files) > 0 {
		header := fmt.Sprintf("%d %s queued • %s", len(files), pluralize(len(files), "file", "files"), shared.FormatSize(p.queue.TotalSize()))
		lines := []string{styles.header.Render(header)}
		for i, f := range files {
			line := fmt.Sprintf("%s  %s", cell(f.Name, max(p.width-16, 20)), shared.FormatSize(f.Size))
			if i == p.cursor && !p.running {
				line = styles.cursor.Render("› " + line)
			} else {
				line = "  " + line
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	} else if p.result == nil {
		sections = append(sections, styles.muted.Render("Queue is empty. Press i to add a file or directory."))
	}

	if p.running {
		sections = append(sections, p.bar.ViewAs(p.progress.Percent), p.progress.Message)
	}

	if p.result != nil {
		sections = append(sections, p.resultView())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (p *uploadPanel) resultView() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Upload complete: %d %s", p.result.Total(), pluralize(p.result.Total(), "file", "files"))))
	for _, section := range formatter.UploadReport(p.result) {
		style := styles.ok
		switch {
		case strings.HasPrefix(section.Title, "Duplicates"):
			style = styles.warn.Bold(true)
		case strings.HasPrefix(section.Title, "Errors"):
			style = styles.err
		}
		b.WriteString("\n" + style.Render(section.Title))
		for _, line := range section.Lines {
			b.WriteString("\n  " + line)
		}
	}
	return b.String()
}

func (p *uploadPanel) Help() []key.Binding {
	return []key.Binding{keys.addPath, keys.start, keys.remove, keys.clear, keys.up, keys.down}
}
