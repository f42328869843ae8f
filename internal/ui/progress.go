// Package ui renders batch progress and results on the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

const maxBarWidth = 60

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ProgressText is the status line shown while fetching.
func ProgressText(completed, total int) string {
	return fmt.Sprintf("Processing %d/%d videos", completed, total)
}

type progressMsg struct {
	completed, total int
}

type progressModel struct {
	bar       progress.Model
	completed int
	total     int
}

func newProgressModel() progressModel {
	return progressModel{bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-len(ProgressText(m.total, m.total))-6, 10), maxBarWidth)
	case progressMsg:
		m.completed, m.total = msg.completed, msg.total
	}
	return m, nil
}

func (m progressModel) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.completed) / float64(m.total)
}

func (m progressModel) View() string {
	return "\n  " + m.bar.ViewAs(m.percent()) + "  " + ProgressText(m.completed, m.total) + "\n"
}

// Progress displays fetch progress. On a terminal it runs a bubbletea
// program with a progress bar; otherwise it writes one line per update.
// Update is safe to call from any goroutine.
type Progress struct {
	w           io.Writer
	interactive bool

	mu   sync.Mutex
	prog *tea.Program
	done chan struct{}
}

// NewProgress creates a progress display writing to w.
func NewProgress(w io.Writer, interactive bool) *Progress {
	return &Progress{w: w, interactive: interactive}
}

// Update records that completed of total fetches are done.
func (p *Progress) Update(completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.interactive {
		fmt.Fprintln(p.w, ProgressText(completed, total))
		return
	}
	if p.prog == nil {
		p.prog = tea.NewProgram(newProgressModel(),
			tea.WithOutput(p.w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		)
		p.done = make(chan struct{})
		go func(prog *tea.Program, done chan struct{}) {
			defer close(done)
			prog.Run() //nolint:errcheck
		}(p.prog, p.done)
	}
	p.prog.Send(progressMsg{completed: completed, total: total})
}

// Stop tears down the progress bar, if one was started.
func (p *Progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.prog == nil {
		return
	}
	p.prog.Quit()
	<-p.done
	p.prog = nil
}
