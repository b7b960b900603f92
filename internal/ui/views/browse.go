package views

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jscyril/hsm/internal/ui/components"
)

// EnqueueMsg asks the app to append a file or directory to the queue
type EnqueueMsg struct {
	Path string
}

// BrowseView picks files and folders to enqueue
type BrowseView struct {
	Browser components.FileBrowser
}

// NewBrowseView creates a browser rooted at start, or the home directory
func NewBrowseView(start string, width, height int) BrowseView {
	return BrowseView{Browser: components.NewFileBrowser(start, width, height)}
}

// SetSize resizes the view
func (v *BrowseView) SetSize(width, height int) {
	v.Browser.Width = width
	v.Browser.Height = height
}

// Update handles messages. Enter on a file or "a" on any entry produces an
// EnqueueMsg.
func (v BrowseView) Update(msg tea.Msg) (BrowseView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	switch key.String() {
	case "enter":
		if path := v.Browser.EnterSelected(); path != "" {
			return v, enqueue(path)
		}
		return v, nil
	case "a":
		if path := v.Browser.SelectedPath(); path != "" {
			return v, enqueue(path)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.Browser, cmd = v.Browser.Update(msg)
	return v, cmd
}

func enqueue(path string) tea.Cmd {
	return func() tea.Msg { return EnqueueMsg{Path: path} }
}

// View renders the browser
func (v BrowseView) View() string {
	return v.Browser.View()
}
