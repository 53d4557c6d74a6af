package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/callisto/pkg/config"
)

func TestNew_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("check recorded", "identifier", "alpha", "allowed", true)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "check recorded" {
		t.Errorf("Expected msg field, got %v", entry["msg"])
	}
	if entry["identifier"] != "alpha" {
		t.Errorf("Expected identifier attribute, got %v", entry["identifier"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(config.LoggingConfig{Level: "info", Format: "text"}, buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("check recorded", "identifier", "alpha")
	if !strings.Contains(buf.String(), "identifier=alpha") {
		t.Errorf("Expected text output, got %q", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "text"}, buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("below threshold")
	if buf.Len() != 0 {
		t.Errorf("Expected info suppressed at warn level, got %q", buf.String())
	}
	logger.Warn("at threshold")
	if buf.Len() == 0 {
		t.Error("Expected warn to be emitted at warn level")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Error("Expected unknown level to fail")
	}
	if _, err := New(config.LoggingConfig{Format: "xml"}, nil); err == nil {
		t.Error("Expected unknown format to fail")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
