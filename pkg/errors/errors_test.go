package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"protocol wrapper", Protocol("decode", ErrMalformedRequest), KindProtocol},
		{"command wrapper", Command("seek", ErrNoTrack), KindCommand},
		{"engine wrapper", Engine("load", "abc", ErrInvalidFormat), KindEngine},
		{"fatal wrapper", Fatal("listen", ErrSocketInUse), KindFatal},
		{"shutdown wrapper", Shutdown("submit"), KindShutdown},
		{"wrapped twice", fmt.Errorf("handle: %w", Command("play", ErrEmptyQueue)), KindCommand},
		{"bare shutdown sentinel", ErrShuttingDown, KindShutdown},
		{"bare unknown command", ErrUnknownCommand, KindProtocol},
		{"context canceled", context.Canceled, KindShutdown},
		{"anything else", errors.New("boom"), KindCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlayerErrorUnwrap(t *testing.T) {
	err := Engine("decode", "t1", ErrInvalidFormat)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Error("expected errors.Is to find the sentinel")
	}
	if got := err.Error(); got != "decode failed for track t1: unsupported audio format" {
		t.Errorf("Error() = %q", got)
	}
	if got := Message(err); got != "unsupported audio format" {
		t.Errorf("Message() = %q", got)
	}
}

func TestScanError(t *testing.T) {
	err := &ScanError{Path: "/music/x.mp3", Err: ErrInvalidFormat}
	if !errors.Is(err, ErrInvalidFormat) {
		t.Error("ScanError should unwrap")
	}
}
