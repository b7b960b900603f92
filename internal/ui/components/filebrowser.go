package components

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jscyril/hsm/internal/audio"
)

// FileEntry is one row of the browser
type FileEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// FileBrowser walks the filesystem showing directories and playable files
type FileBrowser struct {
	cursor

	Width   int
	Height  int
	Dir     string
	Entries []FileEntry
	Err     error

	DirStyle      lipgloss.Style
	FileStyle     lipgloss.Style
	SelectedStyle lipgloss.Style
	PathStyle     lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewFileBrowser opens dir, falling back to the home directory when dir is
// empty
func NewFileBrowser(dir string, width, height int) FileBrowser {
	fb := FileBrowser{
		Width:         width,
		Height:        height,
		DirStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
		FileStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		SelectedStyle: lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("255")).Bold(true),
		PathStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
	if dir == "" {
		dir = homeDir()
	}
	fb.Open(dir)
	return fb
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "/"
}

// Open lists dir and resets the selection
func (fb *FileBrowser) Open(dir string) {
	fb.Dir = filepath.Clean(dir)
	fb.cursor = cursor{}
	fb.Entries, fb.Err = ListDir(fb.Dir)
}

// ListDir returns the visible subdirectories of dir followed by its playable
// files, each group sorted case-insensitively. A ".." entry leads every
// listing except the root's.
func ListDir(dir string) ([]FileEntry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs, files []FileEntry
	for _, de := range des {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		entry := FileEntry{Name: name, Path: filepath.Join(dir, name), IsDir: de.IsDir()}
		switch {
		case entry.IsDir:
			dirs = append(dirs, entry)
		case audio.IsSupported(name):
			files = append(files, entry)
		}
	}

	byName := func(a, b FileEntry) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	slices.SortFunc(dirs, byName)
	slices.SortFunc(files, byName)

	var out []FileEntry
	if parent := filepath.Dir(dir); parent != dir {
		out = append(out, FileEntry{Name: "..", Path: parent, IsDir: true})
	}
	out = append(out, dirs...)
	return append(out, files...), nil
}

// Update handles navigation keys
func (fb FileBrowser) Update(msg tea.Msg) (FileBrowser, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return fb, nil
	}
	if fb.keyMove(key.String(), len(fb.Entries), fb.rows()) {
		return fb, nil
	}

	switch key.String() {
	case "backspace", "h":
		if parent := filepath.Dir(fb.Dir); parent != fb.Dir {
			fb.Open(parent)
		}
	case "~":
		fb.Open(homeDir())
	}
	return fb, nil
}

// SelectedEntry returns the highlighted entry, or nil for an empty listing
func (fb *FileBrowser) SelectedEntry() *FileEntry {
	if fb.Selected < 0 || fb.Selected >= len(fb.Entries) {
		return nil
	}
	return &fb.Entries[fb.Selected]
}

// EnterSelected descends into the selected directory and returns "", or
// returns the selected file's path
func (fb *FileBrowser) EnterSelected() string {
	entry := fb.SelectedEntry()
	switch {
	case entry == nil:
		return ""
	case entry.IsDir:
		fb.Open(entry.Path)
		return ""
	}
	return entry.Path
}

// SelectedPath returns the selected file or directory, never the parent
// entry
func (fb *FileBrowser) SelectedPath() string {
	entry := fb.SelectedEntry()
	if entry == nil || entry.Name == ".." {
		return ""
	}
	return entry.Path
}

// rows is the listing height left after the border, path and footer
func (fb *FileBrowser) rows() int {
	return max(fb.Height-8, 1)
}

// View renders the browser
func (fb FileBrowser) View() string {
	var sb strings.Builder

	sb.WriteString(fb.PathStyle.Render(fb.Dir))
	sb.WriteString("\n\n")

	if fb.Err != nil {
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("Error: " + fb.Err.Error()))
		sb.WriteString("\n")
	}

	rows := fb.rows()
	start, end := fb.window(len(fb.Entries), rows)
	playable := 0
	for _, e := range fb.Entries {
		if !e.IsDir {
			playable++
		}
	}

	for i := start; i < end; i++ {
		entry := fb.Entries[i]
		line := "  " + entry.Name
		style := fb.FileStyle
		if entry.IsDir {
			line = "▸ " + entry.Name + "/"
			style = fb.DirStyle
		}
		if i == fb.Selected {
			style = fb.SelectedStyle
		}
		sb.WriteString(style.Render(truncate(line, max(fb.Width-10, 4))))
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("\n", rows-(end-start)))

	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sb.WriteString(footer.Render(fmt.Sprintf("%d playable files", playable)))
	sb.WriteString("\n")
	sb.WriteString(footer.Render("[Enter] Open/Add  [a] Add folder  [Backspace] Up  [~] Home  [Tab] Queue"))

	return fb.BorderStyle.Width(max(fb.Width-4, 10)).Render(sb.String())
}
