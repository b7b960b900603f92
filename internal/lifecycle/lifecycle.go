// Package lifecycle maps process signals and run errors to exit behaviour
package lifecycle

import (
	"os"
	"os/signal"
	"syscall"

	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// ShutdownSignals end the server gracefully
var ShutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// Notify returns a channel receiving the shutdown signals and a function
// that stops delivery
func Notify() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, ShutdownSignals...)
	return ch, func() { signal.Stop(ch) }
}

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitFatal covers start-up failures such as a busy socket or missing
	// audio output
	ExitFatal = 2
)

// ExitCode maps the error returned by the server's run function to a
// process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch playerrors.KindOf(err) {
	case playerrors.KindFatal:
		return ExitFatal
	case playerrors.KindShutdown:
		return ExitOK
	}
	return ExitFailure
}
