package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/ui/components"
	"github.com/jscyril/hsm/internal/ui/views"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// RenderStatus is the one-shot CLI rendering of a snapshot
func RenderStatus(snap api.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(views.StatusIcon(snap.Status))
	sb.WriteString(" ")
	if snap.Current != nil {
		sb.WriteString(titleStyle.Render(snap.Current.Title))
		if snap.Current.Artist != "" {
			sb.WriteString(dimStyle.Render(" by " + snap.Current.Artist))
		}
		bar := components.NewProgressBar(40)
		bar.SetProgress(snap.Position, snap.Current.Duration)
		sb.WriteString("\n")
		sb.WriteString(bar.View())
	} else {
		sb.WriteString(snap.Status.String())
	}

	sb.WriteString("\n")
	status := fmt.Sprintf("volume %d%%  loop %s  queue %d", int(snap.Volume*100+0.5), snap.Loop, len(snap.Queue))
	sb.WriteString(dimStyle.Render(status))

	if snap.Err != nil {
		sb.WriteString("\n")
		sb.WriteString(errStyle.Render(fmt.Sprintf("%s: %s", snap.Err.Kind, snap.Err.Message)))
	}
	return sb.String()
}

// RenderQueue lists every queue entry, marking the current one
func RenderQueue(snap api.Snapshot) string {
	if len(snap.Queue) == 0 {
		return dimStyle.Render("Queue is empty")
	}
	lines := make([]string, len(snap.Queue))
	for i, t := range snap.Queue {
		lines[i] = components.QueueLine(i, t, i == snap.Index)
	}
	return strings.Join(lines, "\n")
}

// RenderError formats a failure the way the CLI reports it
func RenderError(kind, message string) string {
	return errStyle.Render(fmt.Sprintf("error (%s): %s", kind, message))
}
