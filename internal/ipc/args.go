package ipc

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseArgs turns command-line words into the requests to send, in order.
// It is shared by the one-shot CLI and the interactive shell.
func ParseArgs(args []string) ([]Request, error) {
	if len(args) == 0 {
		return []Request{{Command: "status"}}, nil
	}

	name, rest := args[0], args[1:]
	switch name {
	case "status", "queue":
		return single("status", rest, 0)
	case "pause", "stop", "next", "clear", "shutdown", "version":
		return single(name, rest, 0)
	case "play-pause", "toggle":
		return single("play-pause", rest, 0)

	case "play":
		if len(rest) == 0 {
			return []Request{{Command: "play"}}, nil
		}
		uris, err := absURIs(rest)
		if err != nil {
			return nil, err
		}
		return []Request{
			{Command: "enqueue", URIs: uris, Insert: "replace"},
			{Command: "play"},
		}, nil

	case "previous", "prev":
		soft := true
		for _, a := range rest {
			switch a {
			case "--hard", "hard":
				soft = false
			default:
				return nil, fmt.Errorf("previous: unexpected argument %q", a)
			}
		}
		return []Request{{Command: "previous", Soft: soft}}, nil

	case "seek":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: seek <[+|-]offset>")
		}
		d, err := ParseOffset(rest[0])
		if err != nil {
			return nil, err
		}
		return []Request{{Command: "seek", Offset: Seconds(d)}}, nil

	case "seek-to", "position":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: seek-to <position>")
		}
		d, err := ParseOffset(rest[0])
		if err != nil {
			return nil, err
		}
		return []Request{{Command: "seek-to", Position: Seconds(d)}}, nil

	case "volume", "set-volume":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: volume <0.0-1.0|N%%>")
		}
		v, err := ParseVolume(rest[0])
		if err != nil {
			return nil, err
		}
		return []Request{{Command: "set-volume", Volume: &v}}, nil

	case "loop", "set-loop":
		if len(rest) != 1 {
			return nil, fmt.Errorf("usage: loop <none|track|queue>")
		}
		return []Request{{Command: "set-loop", Loop: rest[0]}}, nil

	case "enqueue", "add":
		insert := "end"
		var paths []string
		for _, a := range rest {
			switch a {
			case "--next", "--start", "--replace", "--end":
				insert = strings.TrimPrefix(a, "--")
			default:
				paths = append(paths, a)
			}
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("usage: enqueue [--next|--start|--replace] <file|dir>...")
		}
		uris, err := absURIs(paths)
		if err != nil {
			return nil, err
		}
		return []Request{{Command: "enqueue", URIs: uris, Insert: insert}}, nil
	}

	return nil, fmt.Errorf("unknown command %q", name)
}

func single(name string, rest []string, max int) ([]Request, error) {
	if len(rest) > max {
		return nil, fmt.Errorf("%s: unexpected arguments %v", name, rest)
	}
	return []Request{{Command: name}}, nil
}

// absURIs makes local paths absolute; the server does not share our cwd
func absURIs(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.Contains(a, "://") {
			out = append(out, a)
			continue
		}
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", a, err)
		}
		out = append(out, abs)
	}
	return out, nil
}

// ParseOffset accepts seconds ("90", "-5", "+2.5"), clock notation
// ("1:30", "-0:05") or a Go duration ("1m30s").
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}

	sign := time.Duration(1)
	body := s
	switch body[0] {
	case '-':
		sign, body = -1, body[1:]
	case '+':
		body = body[1:]
	}

	if secs, err := strconv.ParseFloat(body, 64); err == nil {
		return sign * time.Duration(secs*float64(time.Second)), nil
	}
	if strings.Contains(body, ":") {
		var total time.Duration
		for _, part := range strings.Split(body, ":") {
			n, err := strconv.ParseFloat(part, 64)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("invalid time %q", s)
			}
			total = total*60 + time.Duration(n*float64(time.Second))
		}
		return sign * total, nil
	}
	if d, err := time.ParseDuration(body); err == nil {
		return sign * d, nil
	}
	return 0, fmt.Errorf("invalid time %q", s)
}

// ParseVolume accepts a fraction ("0.4") or a percentage ("40%")
func ParseVolume(s string) (float64, error) {
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid volume %q", s)
		}
		return v / 100, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q", s)
	}
	return v, nil
}
