package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fakeshades/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"off":     zerolog.Disabled,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "test", zerolog.WarnLevel)
	log.Info().Msg("hidden")
	log.Warn().Str("device", "/dev/ttyUSB0").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "/dev/ttyUSB0") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestInitFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.log")
	closer, err := InitFile(config.LogConfig{File: path, Level: "info"}, "test")
	if err != nil {
		t.Fatalf("init file: %v", err)
	}
	log.Info().Msg("connected")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "connected") {
		t.Fatalf("log file missing entry: %q", data)
	}
	Init(os.Stderr, "test", zerolog.Disabled)
}
