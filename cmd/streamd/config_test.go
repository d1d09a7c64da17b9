package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/streamkit/broadcast"
	"github.com/kbukum/streamkit/sse"
)

func TestStreamdConfig_Defaults(t *testing.T) {
	var cfg streamdConfig
	cfg.Environment = "production"
	cfg.ApplyDefaults()

	if cfg.Name != "streamd" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Registry.Type != sse.TypeMemory {
		t.Errorf("Registry.Type = %q", cfg.Registry.Type)
	}
	if cfg.Broadcast.KeepAlive != broadcast.DefaultKeepAlive {
		t.Errorf("Broadcast.KeepAlive = %v", cfg.Broadcast.KeepAlive)
	}
	if cfg.Server.Port != 8080 || cfg.Observability.ServiceName != "streamd" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestStreamdConfig_Invalid(t *testing.T) {
	var cfg streamdConfig
	cfg.Environment = "production"
	cfg.ApplyDefaults()
	cfg.Registry.Type = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown registry type should fail")
	}

	cfg.Registry.Type = sse.TypeMemory
	cfg.Broadcast.KeepAlive = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Error("negative keep-alive should fail")
	}
}

func TestApplyFlags_OnlyChanged(t *testing.T) {
	var cfg streamdConfig
	cfg.Environment = "production"
	cfg.ApplyDefaults()
	cfg.Registry.Prefix = "from-file"

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	port := fs.Int("port", 0, "")
	prefix := fs.String("prefix", "", "")
	host := fs.String("host", "", "")
	level := fs.String("log-level", "", "")
	if err := fs.Parse([]string{"--port", "9999"}); err != nil {
		t.Fatal(err)
	}

	applyFlags(fs, &cfg, *host, *port, *prefix, *level)
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Registry.Prefix != "from-file" {
		t.Errorf("unset flag overwrote prefix: %q", cfg.Registry.Prefix)
	}
}
