package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/jscyril/hsm/internal/config"
	"github.com/jscyril/hsm/internal/ipc"
	"github.com/jscyril/hsm/internal/ui"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

const usage = `Usage: hsm [flags] <command> [args]

Commands:
  status                      show the player state (default)
  queue                       list the queue
  play [file|dir...]          start playback, or replace the queue and play
  pause | toggle | stop
  next | previous [--hard]
  seek <[+|-]time>            relative seek: 10, -5, +1:30, 2m
  seek-to <time>              absolute seek
  volume <0-1|N%>
  loop <none|track|queue>
  enqueue [--next|--start|--replace] <file|dir...>
  clear
  shutdown                    stop the server
  version                     show client and server versions
  watch                       live dashboard
  shell                       interactive prompt

Flags:
`

var version = "dev"

type options struct {
	socket  string
	json    bool
	timeout time.Duration
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	flags := pflag.NewFlagSet("hsm", pflag.ContinueOnError)
	flags.StringVarP(&opts.socket, "socket", "s", config.DefaultSocketPath(), "server control socket")
	flags.BoolVar(&opts.json, "json", false, "print raw JSON responses")
	flags.DurationVarP(&opts.timeout, "timeout", "t", 5*time.Second, "per-request timeout")
	flags.SetInterspersed(false)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if env := os.Getenv("HSM_SOCKET"); env != "" && !flags.Changed("socket") {
		opts.socket = env
	}

	rest := flags.Args()
	if len(rest) > 0 {
		switch rest[0] {
		case "help":
			flags.Usage()
			return 0
		case "watch":
			return watch(opts)
		case "shell":
			return shell(opts)
		}
	}

	reqs, err := ipc.ParseArgs(rest)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("usage", err.Error()))
		return 2
	}

	client, err := connect(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("connect", err.Error()))
		return 1
	}
	defer client.Close()

	showQueue := len(rest) > 0 && rest[0] == "queue"
	if err := execute(client, opts, reqs, showQueue); err != nil {
		return 1
	}
	return 0
}

func connect(opts options) (*ipc.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	return ipc.Dial(ctx, opts.socket)
}

// execute sends reqs in order, stopping at the first failure, and prints
// the last response
func execute(client *ipc.Client, opts options, reqs []ipc.Request, showQueue bool) error {
	var resp ipc.Response
	for _, req := range reqs {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		r, err := client.Send(ctx, req)
		cancel()
		if err != nil {
			printError(err)
			return err
		}
		resp = r
	}
	printResponse(resp, opts.json, showQueue)
	return nil
}

func printResponse(resp ipc.Response, asJSON, showQueue bool) {
	switch {
	case asJSON:
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
	case resp.Version != "":
		fmt.Printf("hsm %s\nhsm-server %s\n", version, resp.Version)
	case resp.State != nil && showQueue:
		fmt.Println(ui.RenderQueue(*resp.State))
	case resp.State != nil:
		fmt.Println(ui.RenderStatus(*resp.State))
	}
}

func printError(err error) {
	var remote *ipc.RemoteError
	if errors.As(err, &remote) {
		fmt.Fprintln(os.Stderr, ui.RenderError(string(remote.Kind), remote.Message))
		return
	}
	fmt.Fprintln(os.Stderr, ui.RenderError(string(playerrors.KindProtocol), err.Error()))
}

func watch(opts options) int {
	client, err := connect(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("connect", err.Error()))
		return 1
	}
	defer client.Close()

	cwd, _ := os.Getwd()
	if err := ui.Run(client, cwd); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("watch", err.Error()))
		return 1
	}
	return 0
}
