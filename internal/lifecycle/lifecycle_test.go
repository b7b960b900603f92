package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	playerrors "github.com/jscyril/hsm/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"clean", nil, ExitOK},
		{"fatal", playerrors.Fatal("listen", playerrors.ErrSocketInUse), ExitFatal},
		{"wrapped fatal", fmt.Errorf("start: %w", playerrors.Fatal("audio", playerrors.ErrAudioOutput)), ExitFatal},
		{"cancelled", context.Canceled, ExitOK},
		{"other", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNotifyDeliversSignal(t *testing.T) {
	ch, stop := Notify()
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGQUIT); err != nil {
		t.Fatal(err)
	}
	select {
	case sig := <-ch:
		if sig != syscall.SIGQUIT {
			t.Errorf("received %v, want SIGQUIT", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal not delivered")
	}
}
