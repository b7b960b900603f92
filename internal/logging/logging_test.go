package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "test").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output %q is not a single JSON line: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["level"] != "warn" || entry["component"] != "test" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no timestamp")
	}
}

func TestNewEmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug written at default level: %q", buf.String())
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("New() accepted level \"loud\"")
	}
}
