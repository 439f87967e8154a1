package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/sheetran/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, "json", slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	slog.New(h).Warn("translation failed", "key", "hello", "error", errors.New("rate limited"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["key"] != "hello" || record["error"] != "rate limited" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNewHandler_TextFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, "text", slog.LevelWarn)
	if err != nil {
		t.Fatal(err)
	}
	l := slog.New(h)
	l.Info("hidden")
	l.Warn("shown", "key", "hello")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "hello") {
		t.Errorf("warn record missing: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no color codes for non-terminal writer: %q", out)
	}
}

func TestNewHandler_UnknownFormat(t *testing.T) {
	if _, err := NewHandler(&bytes.Buffer{}, "xml", slog.LevelInfo); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestInit_FileOutput(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		Logger = nil
	})

	path := filepath.Join(t.TempDir(), "sheetran.log")
	l, err := Init(&config.LoggerConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level enabled")
	}
	SetLevel(slog.LevelError)
	if l.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected warn disabled after SetLevel")
	}
}

func TestInit_BadLevel(t *testing.T) {
	if _, err := Init(&config.LoggerConfig{Level: "loud"}); err == nil {
		t.Error("expected error for bad level")
	}
}
