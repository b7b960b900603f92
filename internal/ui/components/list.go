package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/hsm/api"
)

// QueueList is a scrollable view of the play queue with the playing entry
// marked
type QueueList struct {
	cursor

	Items   []api.Track
	Playing int // index of the current track, -1 if none
	Height  int
	Width   int
	Title   string

	SelectedStyle lipgloss.Style
	PlayingStyle  lipgloss.Style
	NormalStyle   lipgloss.Style
	TitleStyle    lipgloss.Style
}

// NewQueueList creates a new queue list
func NewQueueList(height, width int) QueueList {
	return QueueList{
		Playing: -1,
		Height:  height,
		Width:   width,
		SelectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		PlayingStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true).
			Padding(0, 1),
		NormalStyle: lipgloss.NewStyle().
			Padding(0, 1),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
	}
}

// SetQueue replaces the entries, keeping the selection in range
func (l *QueueList) SetQueue(items []api.Track, playing int) {
	l.Items = items
	l.Playing = playing
	l.clamp(len(items), l.rows())
}

// Update handles navigation keys
func (l QueueList) Update(msg tea.Msg) (QueueList, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		l.keyMove(key.String(), len(l.Items), l.rows())
	}
	return l, nil
}

// rows is the number of entries that fit below the title
func (l *QueueList) rows() int {
	return max(l.Height-2, 1)
}

// View renders the queue list
func (l QueueList) View() string {
	var sb strings.Builder

	if l.Title != "" {
		sb.WriteString(l.TitleStyle.Render(l.Title))
		sb.WriteString("\n")
	}

	if len(l.Items) == 0 {
		sb.WriteString(l.NormalStyle.Render("Queue is empty"))
		return sb.String()
	}

	start, end := l.window(len(l.Items), l.rows())
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := QueueLine(i, l.Items[i], i == l.Playing)
		if l.Width > 5 {
			line = truncate(line, l.Width-2)
		}

		style := l.NormalStyle
		switch {
		case i == l.Selected:
			style = l.SelectedStyle
		case i == l.Playing:
			style = l.PlayingStyle
		}
		lines = append(lines, style.Render(line))
	}
	sb.WriteString(strings.Join(lines, "\n"))

	if len(l.Items) > l.rows() {
		sb.WriteString("\n")
		sb.WriteString(l.NormalStyle.Render(fmt.Sprintf("  [%d/%d]", l.Selected+1, len(l.Items))))
	}

	return sb.String()
}

// QueueLine formats one queue entry; shared with the plain-text CLI output
func QueueLine(i int, t api.Track, playing bool) string {
	marker := " "
	if playing {
		marker = "▶"
	}
	name := truncate(t.Title, 40)
	if t.Artist != "" {
		name = truncate(t.Artist, 20) + " - " + name
	}
	length := "--:--"
	if t.Duration > 0 {
		length = FormatDuration(t.Duration)
	}
	return fmt.Sprintf("%s %3d. %s  %s", marker, i+1, name, length)
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
