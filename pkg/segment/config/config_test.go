package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/segment/pkg/segment"
	"github.com/cognicore/segment/pkg/segment/internalerr"
	"github.com/cognicore/segment/pkg/segment/srx"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "segment.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
engine: merged
language: pl
buffer_size: 4096
margin: 1
lookbehind_bound: 50
encoding: windows-1250
cascade: false
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Language != "pl" {
		t.Errorf("Language = %q, want pl", cfg.Language)
	}
	if cfg.BufferSize != 4096 {
		t.Errorf("BufferSize = %d, want 4096", cfg.BufferSize)
	}
	if cfg.Margin == nil || *cfg.Margin != 1 {
		t.Errorf("Margin = %v, want 1", cfg.Margin)
	}
	if cfg.Cascade == nil || *cfg.Cascade {
		t.Errorf("Cascade = %v, want explicit false", cfg.Cascade)
	}

	opts, err := cfg.Options(nil)
	if err != nil {
		t.Fatalf("Options failed: %v", err)
	}
	doc := srx.DefaultDocument(cfg.DocumentOptions()...)
	if doc.Cascade() {
		t.Error("Document should not cascade")
	}
	seg, err := segment.New(doc, cfg.Language, opts...)
	if err != nil {
		t.Fatalf("segment.New failed: %v", err)
	}
	if seg.Engine() != segment.Merged {
		t.Errorf("Engine = %v, want merged", seg.Engine())
	}
	// Without cascading only the Polish exceptions apply, so nothing breaks.
	got, err := seg.SplitAll("Ala ma kota. Prof. Kot.")
	if err != nil {
		t.Fatalf("SplitAll failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d segments, want 1: %q", len(got), got)
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("/nonexistent/segment.yaml")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "engine: [merged\n")
	if _, err := Load(path); err == nil {
		t.Error("Should error on malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	margin := -1
	zero := 0
	one := 1

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"empty is valid", Config{}, ""},
		{"accurate alone", Config{Engine: "accurate"}, ""},
		{"unknown engine", Config{Engine: "turbo"}, "engine"},
		{"negative buffer", Config{BufferSize: -1}, "buffer_size"},
		{"negative margin", Config{Margin: &margin}, "margin"},
		{"zero margin", Config{Margin: &zero}, "margin"},
		{"negative bound", Config{LookbehindBound: -5}, "lookbehind_bound"},
		{"accurate with margin", Config{Engine: "accurate", Margin: &one}, "engine"},
		{"accurate with buffer", Config{Engine: "accurate", BufferSize: 10}, "engine"},
		{"bad log level", Config{LogLevel: "loud"}, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var cerr *internalerr.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "engine: accurate\nmargin: 10\n")
	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected invalid config, got %v", err)
	}
}

func TestReader(t *testing.T) {
	cfg := Config{Encoding: "iso-8859-2"}
	r, err := cfg.Reader(strings.NewReader("Ma\xb3y kot."))
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(b) != "Mały kot." {
		t.Errorf("decoded %q", b)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	(&Config{}).Logger(&buf).Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("default logger should discard, wrote %q", buf.String())
	}

	(&Config{LogLevel: "warn"}).Logger(&buf).Info("hidden")
	(&Config{LogLevel: "warn"}).Logger(&buf).Warn("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected log output %q", out)
	}
}
