package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "invalid-level", Format: FormatJSON, Output: "stdout"}
	if l := New(cfg, "test"); l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	if l := NewFromEnv("env-svc"); l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "svc").WithComponent("registry")

	l.Info("channel created", Fields(FieldChannel, "doc:1"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json output %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != "registry" {
		t.Errorf("component = %v, want registry", entry[FieldComponent])
	}
	if entry[FieldChannel] != "doc:1" {
		t.Errorf("channel = %v, want doc:1", entry[FieldChannel])
	}
	if entry["message"] != "channel created" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "svc").WithError(errors.New("boom"))
	l.Error("failed")

	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected error in output, got %q", buf.String())
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing", Fields("k", "v"))
	l.WithComponent("x").Error("still nothing")
}

func TestGlobalLogger(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(nil) })

	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}

	custom := NewDefault("custom")
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Error("expected custom global logger")
	}
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { SetGlobalLogger(nil) })

	Init(Config{ServiceName: "streamd", Level: "info", Format: FormatJSON})
	if got := GetGlobalLogger().service; got != "streamd" {
		t.Errorf("service = %q, want streamd", got)
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(f) != 2 {
		t.Fatalf("expected 2 fields, got %d: %v", len(f), f)
	}
	if f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestErrorFields(t *testing.T) {
	f := ErrorFields("publish", errors.New("closed"))
	if f[FieldOperation] != "publish" || f[FieldError] != "closed" {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", func() Config { c := Config{}; c.ApplyDefaults(); return c }(), false},
		{"json", Config{Level: "debug", Format: FormatJSON, Output: "stdout"}, false},
		{"bad level", Config{Level: "loud", Format: FormatJSON}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"file output", Config{Level: "info", Format: FormatJSON, Output: "/var/log/streamd.log"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestOutputWriter(t *testing.T) {
	if outputWriter("stderr") != os.Stderr {
		t.Error("expected stderr")
	}
	if outputWriter("anything") != os.Stdout {
		t.Error("expected stdout fallback")
	}
}
