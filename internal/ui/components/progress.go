package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders playback position within a track
type ProgressBar struct {
	Width       int
	Current     time.Duration
	Total       time.Duration
	BarChar     string
	EmptyChar   string
	ShowTime    bool
	Style       lipgloss.Style
	FilledStyle lipgloss.Style
	EmptyStyle  lipgloss.Style
}

// NewProgressBar creates a new progress bar
func NewProgressBar(width int) ProgressBar {
	return ProgressBar{
		Width:       width,
		BarChar:     "█",
		EmptyChar:   "░",
		ShowTime:    true,
		Style:       lipgloss.NewStyle(),
		FilledStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		EmptyStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetProgress sets the current position. A zero total means the length is
// unknown.
func (p *ProgressBar) SetProgress(current, total time.Duration) {
	p.Current = current
	p.Total = total
}

// Fraction is how much of the track has played, in [0, 1]
func (p ProgressBar) Fraction() float64 {
	if p.Total <= 0 || p.Current <= 0 {
		return 0
	}
	f := float64(p.Current) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// View renders the progress bar
func (p ProgressBar) View() string {
	var sb strings.Builder

	barWidth := p.Width - 14 // Leave room for time display
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(float64(barWidth) * p.Fraction())

	sb.WriteString(p.FilledStyle.Render(strings.Repeat(p.BarChar, filled)))
	sb.WriteString(p.EmptyStyle.Render(strings.Repeat(p.EmptyChar, barWidth-filled)))

	if p.ShowTime {
		total := "--:--"
		if p.Total > 0 {
			total = FormatDuration(p.Total)
		}
		sb.WriteString(" ")
		sb.WriteString(FormatDuration(p.Current))
		sb.WriteString("/")
		sb.WriteString(total)
	}

	return p.Style.Render(sb.String())
}

// FormatDuration formats a duration as MM:SS, or H:MM:SS past an hour
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
