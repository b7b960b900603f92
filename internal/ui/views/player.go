package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/ui/components"
)

// PlayerView shows the current track, progress, volume and loop mode
type PlayerView struct {
	Width       int
	Height      int
	State       *api.Snapshot
	ProgressBar components.ProgressBar

	TitleStyle    lipgloss.Style
	ArtistStyle   lipgloss.Style
	AlbumStyle    lipgloss.Style
	StatusStyle   lipgloss.Style
	ControlsStyle lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width, height int) PlayerView {
	return PlayerView{
		Width:       width,
		Height:      height,
		ProgressBar: components.NewProgressBar(width - 4),
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		ArtistStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		AlbumStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetState shows snap
func (v *PlayerView) SetState(snap *api.Snapshot) {
	v.State = snap
	if snap != nil && snap.Current != nil {
		v.ProgressBar.SetProgress(snap.Position, snap.Current.Duration)
	} else {
		v.ProgressBar.SetProgress(0, 0)
	}
}

// StatusIcon is the glyph for a playback status
func StatusIcon(s api.PlaybackStatus) string {
	switch s {
	case api.StatusPlaying:
		return "▶"
	case api.StatusPaused:
		return "⏸"
	default:
		return "⏹"
	}
}

// LoopLabel describes a loop mode for display; empty for none
func LoopLabel(m api.LoopMode) string {
	switch m {
	case api.LoopTrack:
		return "🔂 Loop track"
	case api.LoopQueue:
		return "🔁 Loop queue"
	}
	return ""
}

// View renders the player view
func (v PlayerView) View() string {
	var sb strings.Builder

	switch {
	case v.State == nil:
		sb.WriteString(v.TitleStyle.Render("Connecting…"))
	case v.State.Current == nil:
		sb.WriteString(v.StatusStyle.Render(StatusIcon(v.State.Status) + " "))
		sb.WriteString(v.TitleStyle.Render("Nothing playing"))
		sb.WriteString(fmt.Sprintf("\n%d tracks queued", len(v.State.Queue)))
	default:
		track := v.State.Current
		sb.WriteString(v.StatusStyle.Render(StatusIcon(v.State.Status) + " "))
		sb.WriteString(v.TitleStyle.Render(track.Title))
		if track.Artist != "" {
			sb.WriteString("\n")
			sb.WriteString(v.ArtistStyle.Render(track.Artist))
		}
		if track.Album != "" {
			sb.WriteString("\n")
			sb.WriteString(v.AlbumStyle.Render(track.Album))
		}
		sb.WriteString("\n\n")
		sb.WriteString(v.ProgressBar.View())
	}

	if v.State != nil {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("Volume: %s %d%%", renderVolumeBar(v.State.Volume), int(v.State.Volume*100+0.5)))
		if label := LoopLabel(v.State.Loop); label != "" {
			sb.WriteString("  ")
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(label))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(v.ControlsStyle.Render(
		"[Space] Play/Pause  [s] Stop  [n] Next  [p] Prev  [←/→] Seek  [+/-] Volume  [l] Loop  [q] Quit",
	))

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}

// renderVolumeBar renders a volume bar
func renderVolumeBar(volume float64) string {
	filled := int(volume*10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("●", filled)) + emptyStyle.Render(strings.Repeat("○", 10-filled))
}
