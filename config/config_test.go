package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/kbukum/streamkit/errors"
)

type streamSection struct {
	Prefix    string        `mapstructure:"prefix"`
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Stream        streamSection `mapstructure:"stream"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Stream.KeepAlive == 0 {
		c.Stream.KeepAlive = 30 * time.Second
	}
}

func (c *testConfig) Validate() error { return c.ServiceConfig.Validate() }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: streamd
environment: staging
stream:
  prefix: doc
  keep_alive: 10s
max_retries: 3
`)
	t.Setenv("STREAMD_STREAM_PREFIX", "board")
	t.Setenv("STREAMD_MAX_RETRIES", "7")
	t.Setenv("OTHER_STREAM_PREFIX", "ignored")

	var cfg testConfig
	if err := Load("streamd", &cfg, WithConfigFile(path), WithEnvPrefix("streamd")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "streamd" || cfg.Environment != "staging" {
		t.Errorf("service fields = %+v", cfg.ServiceConfig)
	}
	if cfg.Stream.Prefix != "board" {
		t.Errorf("prefix = %q, env should override the file", cfg.Stream.Prefix)
	}
	if cfg.Stream.KeepAlive != 10*time.Second {
		t.Errorf("keep_alive = %v", cfg.Stream.KeepAlive)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("max_retries = %d, want 7", cfg.MaxRetries)
	}
	if cfg.Debug {
		t.Error("staging must not enable debug")
	}
	if cfg.Logging.ServiceName != "streamd" {
		t.Errorf("logging service name = %q", cfg.Logging.ServiceName)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "STREAMKITTEST_NAME=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("STREAMKITTEST_NAME") })

	var cfg testConfig
	err := Load("streamd", &cfg,
		WithFileSystem(&fakeFS{files: map[string]bool{envPath: true}}),
		WithEnvFile(envPath),
		WithEnvPrefix("STREAMKITTEST"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-dotenv" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("defaults not applied: %+v", cfg.ServiceConfig)
	}
	if cfg.Stream.KeepAlive != 30*time.Second {
		t.Errorf("keep_alive default = %v", cfg.Stream.KeepAlive)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "environment: moon\nname: x\n")

	var cfg testConfig
	err := Load("streamd", &cfg, WithConfigFile(path), WithEnvPrefix("STREAMKITNONE"))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := Load("streamd", &cfg, WithConfigFile("/nonexistent/config.yml"))
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

type fakeFS struct {
	files map[string]bool
}

func (f *fakeFS) Exists(path string) bool { return f.files[path] }
func (f *fakeFS) LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	return OSFileSystem{}.LoadEnv(path)
}

func TestResolve_SearchOrder(t *testing.T) {
	fs := &fakeFS{files: map[string]bool{
		"./cmd/streamd/config.yml": true,
		"./config/config.yml":      true,
		"./.env":                   true,
	}}
	files := Resolve("streamd", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != "./cmd/streamd/config.yml" {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("env file = %q", files.EnvFile)
	}
}

func TestResolve_NothingFound(t *testing.T) {
	files := Resolve("streamd", LoaderConfig{FileSystem: &fakeFS{}})
	if files.ConfigFile != "" || files.EnvFile != "" {
		t.Errorf("expected no files, got %+v", files)
	}
}

func TestKeyVariants(t *testing.T) {
	got := keyVariants("SERVER_MAX_BODY_SIZE")
	for _, want := range []string{"server_max_body_size", "server.max_body_size", "server.max.body_size", "server.max.body.size"} {
		if !slices.Contains(got, want) {
			t.Errorf("variants %v missing %q", got, want)
		}
	}
	if got := keyVariants("NAME"); len(got) != 1 || got[0] != "name" {
		t.Errorf("single segment variants = %v", got)
	}
}

func TestServiceConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
	}{
		{"defaults", ServiceConfig{Name: "streamd"}, false},
		{"production", ServiceConfig{Name: "streamd", Environment: "production"}, false},
		{"missing name", ServiceConfig{}, true},
		{"bad environment", ServiceConfig{Name: "streamd", Environment: "qa"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
