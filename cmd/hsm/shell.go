package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/jscyril/hsm/internal/ipc"
	"github.com/jscyril/hsm/internal/ui"
)

var shellCommands = []string{
	"status", "queue", "play", "pause", "toggle", "stop", "next", "previous",
	"seek", "seek-to", "volume", "loop", "enqueue", "clear", "shutdown", "version",
	"help", "exit",
}

// shell runs an interactive prompt over one connection
func shell(opts options) int {
	client, err := connect(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("connect", err.Error()))
		return 1
	}
	defer client.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hsm> ",
		HistoryFile:     historyFile(),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("shell", err.Error()))
		return 1
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, ui.RenderError("shell", err.Error()))
			return 1
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "exit", "quit":
			return 0
		case "help":
			fmt.Print(usage)
			continue
		}

		reqs, err := ipc.ParseArgs(words)
		if err != nil {
			fmt.Fprintln(os.Stderr, ui.RenderError("usage", err.Error()))
			continue
		}
		if err := execute(client, opts, reqs, words[0] == "queue"); err != nil {
			var remote *ipc.RemoteError
			if !errors.As(err, &remote) {
				// The connection is gone
				return 1
			}
		}
	}
}

func completer() *readline.PrefixCompleter {
	paths := readline.PcItemDynamic(listPaths)
	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for _, name := range shellCommands {
		switch name {
		case "play", "enqueue":
			items = append(items, readline.PcItem(name, paths))
		case "loop":
			items = append(items, readline.PcItem(name,
				readline.PcItem("none"), readline.PcItem("track"), readline.PcItem("queue")))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// listPaths completes the last word of line against the filesystem
func listPaths(line string) []string {
	fields := strings.Fields(line)
	prefix := ""
	if len(fields) > 1 && !strings.HasSuffix(line, " ") {
		prefix = fields[len(fields)-1]
	}

	dir := filepath.Dir(prefix)
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		dir = prefix
	}
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		name := filepath.Join(dir, e.Name())
		if dir == "." && !strings.HasPrefix(prefix, "./") {
			name = e.Name()
		}
		if e.IsDir() {
			name += "/"
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(filepath.Join(dir, "hsm"), 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, "hsm", "shell_history")
}
