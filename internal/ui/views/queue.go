package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/ui/components"
)

// QueueView lists the play queue
type QueueView struct {
	Width       int
	Height      int
	List        components.QueueList
	BorderStyle lipgloss.Style
}

// NewQueueView creates a new queue view
func NewQueueView(width, height int) QueueView {
	return QueueView{
		Width:  width,
		Height: height,
		List:   components.NewQueueList(height-4, width-6),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1),
	}
}

// SetSize resizes the view
func (v *QueueView) SetSize(width, height int) {
	v.Width, v.Height = width, height
	v.List.Width = width - 6
	v.List.Height = height - 4
}

// SetState shows the queue from snap
func (v *QueueView) SetState(snap *api.Snapshot) {
	if snap == nil {
		return
	}
	v.List.SetQueue(snap.Queue, snap.Index)
	v.List.Title = fmt.Sprintf("Queue (%d)", len(snap.Queue))
}

// Update handles messages
func (v QueueView) Update(msg tea.Msg) (QueueView, tea.Cmd) {
	var cmd tea.Cmd
	v.List, cmd = v.List.Update(msg)
	return v, cmd
}

// View renders the queue view
func (v QueueView) View() string {
	return v.BorderStyle.Width(v.Width - 4).Render(v.List.View())
}
