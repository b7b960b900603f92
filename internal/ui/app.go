// Package ui is the terminal dashboard behind `hsm watch`. It polls the
// server over the control socket and maps keys to protocol requests.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/ipc"
	"github.com/jscyril/hsm/internal/ui/views"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// ViewType represents the current active view
type ViewType int

const (
	ViewQueue ViewType = iota
	ViewBrowse
)

const (
	pollInterval = 500 * time.Millisecond
	seekStep     = 5 * time.Second
	volumeStep   = 0.05
)

// Sender sends one request and waits for the reply; *ipc.Client
// implements it
type Sender interface {
	Send(ctx context.Context, req ipc.Request) (ipc.Response, error)
}

// serialSender lets concurrent tea commands share one connection
type serialSender struct {
	mu      sync.Mutex
	sender  Sender
	timeout time.Duration
}

func (s *serialSender) send(req ipc.Request) (ipc.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.sender.Send(ctx, req)
}

// TickMsg triggers a status poll
type TickMsg time.Time

// ResponseMsg carries the outcome of one request
type ResponseMsg struct {
	Command string
	Resp    ipc.Response
	Err     error
}

// Model is the main bubbletea model
type Model struct {
	width  int
	height int

	activeView ViewType
	playerView views.PlayerView
	queueView  views.QueueView
	browseView views.BrowseView

	sender *serialSender
	state  *api.Snapshot
	err    error // last command error, shown until the next success
	fatal  error // connection lost; the program exits

	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style
	errorStyle     lipgloss.Style
}

// NewModel creates the dashboard. startDir seeds the file browser.
func NewModel(sender Sender, startDir string) Model {
	m := Model{
		width:  80,
		height: 24,
		sender: &serialSender{sender: sender, timeout: 5 * time.Second},
		tabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("240")),
		activeTabStyle: lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Background(lipgloss.Color("236")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}

	m.playerView = views.NewPlayerView(m.width, 10)
	m.queueView = views.NewQueueView(m.width, m.height-12)
	m.browseView = views.NewBrowseView(startDir, m.width, m.height-12)
	return m
}

// Init requests the first status and starts polling
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.request(ipc.Request{Command: "status"}), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// request sends req off the UI goroutine
func (m Model) request(req ipc.Request) tea.Cmd {
	sender := m.sender
	return func() tea.Msg {
		resp, err := sender.send(req)
		return ResponseMsg{Command: req.Command, Resp: resp, Err: err}
	}
}

// Err reports why the dashboard exited, if the connection failed
func (m Model) Err() error {
	return m.fatal
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case TickMsg:
		return m, tea.Batch(m.request(ipc.Request{Command: "status"}), tickCmd())

	case ResponseMsg:
		return m.handleResponse(msg)

	case views.EnqueueMsg:
		path, err := filepath.Abs(msg.Path)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, m.request(ipc.Request{Command: "enqueue", URIs: []string{path}})

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleResponse(msg ResponseMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		var remote *ipc.RemoteError
		if !errors.As(msg.Err, &remote) {
			m.fatal = msg.Err
			return m, tea.Quit
		}
		if remote.Kind == playerrors.KindShutdown {
			m.fatal = fmt.Errorf("server is shutting down")
			return m, tea.Quit
		}
		m.err = fmt.Errorf("%s: %s", msg.Command, remote.Message)
		return m, nil
	}

	if msg.Command != "status" {
		m.err = nil
	}
	// Replies can arrive out of order; never step back to an older state
	if snap := msg.Resp.State; snap != nil && (m.state == nil || snap.Seq >= m.state.Seq) {
		m.state = snap
		m.playerView.SetState(snap)
		m.queueView.SetState(snap)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.activeView = (m.activeView + 1) % 2
		return m, nil

	case " ":
		return m, m.request(ipc.Request{Command: "play-pause"})
	case "s":
		return m, m.request(ipc.Request{Command: "stop"})
	case "n":
		return m, m.request(ipc.Request{Command: "next"})
	case "p":
		return m, m.request(ipc.Request{Command: "previous", Soft: true})
	case "left":
		return m, m.request(ipc.Request{Command: "seek", Offset: ipc.Seconds(-seekStep)})
	case "right":
		return m, m.request(ipc.Request{Command: "seek", Offset: ipc.Seconds(seekStep)})
	case "+", "=":
		return m, m.setVolume(volumeStep)
	case "-":
		return m, m.setVolume(-volumeStep)
	case "l":
		return m, m.request(ipc.Request{Command: "set-loop", Loop: m.nextLoop().String()})
	case "c":
		if m.activeView == ViewQueue {
			return m, m.request(ipc.Request{Command: "clear"})
		}
	}

	var cmd tea.Cmd
	switch m.activeView {
	case ViewQueue:
		m.queueView, cmd = m.queueView.Update(msg)
	case ViewBrowse:
		m.browseView, cmd = m.browseView.Update(msg)
	}
	return m, cmd
}

func (m Model) setVolume(delta float64) tea.Cmd {
	if m.state == nil {
		return nil
	}
	v := m.state.Volume + delta
	return m.request(ipc.Request{Command: "set-volume", Volume: &v})
}

func (m Model) nextLoop() api.LoopMode {
	if m.state == nil {
		return api.LoopNone
	}
	return (m.state.Loop + 1) % 3
}

func (m *Model) updateViewSizes() {
	m.playerView.Width = m.width
	m.playerView.ProgressBar.Width = m.width - 8
	m.queueView.SetSize(m.width, m.height-12)
	m.browseView.SetSize(m.width, m.height-12)
}

// View renders the UI
func (m Model) View() string {
	var sb string

	sb += m.renderTabs()
	sb += "\n"
	sb += m.playerView.View()
	sb += "\n"

	switch m.activeView {
	case ViewQueue:
		sb += m.queueView.View()
	case ViewBrowse:
		sb += m.browseView.View()
	}

	switch {
	case m.fatal != nil:
		sb += "\n" + m.errorStyle.Render(fmt.Sprintf("Error: %v", m.fatal))
	case m.err != nil:
		sb += "\n" + m.errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.state != nil && m.state.Err != nil:
		sb += "\n" + m.errorStyle.Render(fmt.Sprintf("Skipped: %s", m.state.Err.Message))
	}

	return sb
}

func (m Model) renderTabs() string {
	tabs := []string{"[Tab] Queue", "[Tab] Browse"}

	var rendered []string
	for i, tab := range tabs {
		if ViewType(i) == m.activeView {
			rendered = append(rendered, m.activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, m.tabStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Run starts the dashboard and blocks until the user quits or the server
// goes away
func Run(sender Sender, startDir string) error {
	p := tea.NewProgram(NewModel(sender, startDir), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
