package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wpx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunningView ViewState = iota
	ResultView
)

const logSize = 6

// Failure is one failed item shown in the result view.
type Failure struct {
	Identifier string
	Error      string
}

// Result summarizes a finished [Job].
type Result struct {
	Title  string
	Done   int
	Failed []Failure
	Notes  []string // extra lines shown under the counts, e.g. output file paths
}

// UploadSummary converts an uploader result into a [Result].
func UploadSummary[T any](title string, res *tasks.UploadResult[T], identify func(T) string) *Result {
	r := &Result{Title: title}
	if res == nil {
		return r
	}

	r.Done = len(res.Done)
	r.Failed = make([]Failure, 0, len(res.Failed))
	for _, f := range res.Failed {
		r.Failed = append(r.Failed, Failure{Identifier: identify(f.Item), Error: f.Error})
	}
	return r
}

// Job is a migration stage run under the TUI. It must not send on progress after returning.
type Job func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*Result, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	title        string
	job          Job
	view         ViewState
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan <-chan tasks.ProgressUpdate
	doneChan     <-chan jobOutcome
	update       tasks.ProgressUpdate
	log          []string
	result       *Result
	err          error
	failures     list.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model that runs job when the program starts.
func NewModel(ctx context.Context, title string, job Job) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		title:   title,
		job:     job,
		view:    RunningView,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(NewStyle(purple))),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Run runs job in a full-screen program and returns its result once the user quits.
func Run(ctx context.Context, title string, job Job) (*Result, error) {
	m := NewModel(ctx, title, job)
	defer m.cancel()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	return m.Result(), m.Err()
}

// Result returns the job result, or nil while it is running.
func (m *Model) Result() *Result { return m.result }

// Err returns the job error.
func (m *Model) Err() error { return m.err }

// Init starts the job and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width-8, 10), 80)
		if m.view == ResultView {
			m.failures.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			if m.view == RunningView {
				m.cancel()
				m.err = context.Canceled
			}
			return m, tea.Quit
		}
		if m.view == ResultView {
			var cmd tea.Cmd
			m.failures, cmd = m.failures.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != RunningView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			return m, tea.Batch(m.handleProgress(msg.data.(tasks.ProgressUpdate)), m.waitForProgress())
		case MsgJobComplete:
			out := msg.data.(jobOutcome)
			m.complete(out.result, out.err)
			return m, m.bar.SetPercent(1)
		}
	}

	return m, nil
}

func (m *Model) handleProgress(update tasks.ProgressUpdate) tea.Cmd {
	m.update = update
	if update.Message != "" {
		m.log = append(m.log, update.Message)
		if len(m.log) > logSize {
			m.log = m.log[len(m.log)-logSize:]
		}
	}

	if pct, ok := percent(update); ok {
		return m.bar.SetPercent(pct)
	}
	return nil
}

// percent is the completed share of the current phase, if the update carries one.
func percent(update tasks.ProgressUpdate) (float64, bool) {
	if counts, ok := update.Data.(tasks.UploadCounts); ok && counts.Total > 0 {
		return float64(counts.Finished()) / float64(counts.Total), true
	}
	if update.Total > 0 {
		return float64(update.Step) / float64(update.Total), true
	}
	return 0, false
}

func (m *Model) complete(result *Result, err error) {
	m.result = result
	if m.err == nil {
		m.err = err
	}
	m.view = ResultView

	var failed []Failure
	if result != nil {
		failed = result.Failed
	}
	m.failures = list.New(failureItems(failed), list.NewDefaultDelegate(), max(m.width-4, 20), max(m.height-10, 10))
	m.failures.Title = fmt.Sprintf("Failed (%d)", len(failed))
	m.failures.SetShowHelp(false)
}

// start runs the job in its own goroutine; the progress channel is closed once it returns.
func (m *Model) start() tea.Cmd {
	progressChan := make(chan tasks.ProgressUpdate, 64)
	doneChan := make(chan jobOutcome, 1)
	m.progressChan = progressChan
	m.doneChan = doneChan

	ctx, job := m.ctx, m.job
	go func() {
		result, err := job(ctx, progressChan)
		close(progressChan)
		doneChan <- jobOutcome{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		update, ok := <-progressChan
		if ok {
			return progressUpdateMsg(update)
		}
		out := <-doneChan
		return jobCompleteMsg(out.result, out.err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderRunning() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	phase := m.update.Phase.String()
	if phase == "" {
		phase = "starting"
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), phase)
	b.WriteString(m.bar.View())
	b.WriteString("\n\n")

	for _, line := range m.log {
		b.WriteString(styles.help.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("%s failed: %v", m.title, m.err)))
		b.WriteString("\n\n")
	}

	if m.result != nil {
		title := m.result.Title
		if title == "" {
			title = m.title
		}
		if m.err == nil {
			b.WriteString(styles.ok.Render("✓ " + title + " complete"))
			b.WriteString("\n\n")
		}

		fmt.Fprintf(&b, "%s  %s\n",
			styles.ok.Render(fmt.Sprintf("%d done", m.result.Done)),
			styles.warn.Render(fmt.Sprintf("%d failed", len(m.result.Failed))),
		)
		for _, note := range m.result.Notes {
			b.WriteString(styles.help.Render(note))
			b.WriteString("\n")
		}

		if len(m.result.Failed) > 0 {
			b.WriteString("\n")
			b.WriteString(m.failures.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit}))
	return b.String()
}
