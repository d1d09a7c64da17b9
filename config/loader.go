package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
)

// FileSystem abstracts the file lookups the loader does.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem is the FileSystem backed by the real disk.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Defaulter is implemented by configs that fill unset fields.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by configs that check themselves.
type Validator interface {
	Validate() error
}

// LoaderConfig holds loader dependencies and overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix only binds environment variables starting with prefix_.
// The prefix is stripped before mapping to config keys.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(prefix) }
}

// Load fills cfg for serviceName, then applies defaults and validates it.
func Load(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	files := Resolve(serviceName, lc)

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig("config_file", err.Error()).WithCause(err)
		}
	}
	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("failed to load .env file", logger.Fields(
				"file", files.EnvFile,
				logger.FieldError, err.Error(),
			))
		}
	}
	bindEnv(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if val, ok := cfg.(Validator); ok {
		if err := val.Validate(); err != nil {
			return err
		}
	}

	logger.Debug("config loaded", logger.Fields(
		"service", serviceName,
		"config_file", files.ConfigFile,
		"env_file", files.EnvFile,
	))
	return nil
}

// ResolvedFiles are the files Load reads.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolve returns explicit paths from lc, or searches the standard
// locations: ./cmd/<service>/, ./config/, then the working directory. A
// missing explicit config file is returned as is so Load reports it.
func Resolve(serviceName string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	dirs := []string{"./cmd/" + serviceName, "./config", "."}

	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(lc.FileSystem, dirs, "config.yml", "config.yaml")
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(lc.FileSystem, dirs, ".env.local", ".env")
	} else if !lc.FileSystem.Exists(files.EnvFile) {
		files.EnvFile = ""
	}
	return files
}

func firstExisting(fs FileSystem, dirs []string, names ...string) string {
	for _, dir := range dirs {
		for _, name := range names {
			if p := dir + "/" + name; fs.Exists(p) {
				return p
			}
		}
	}
	return ""
}

// bindEnv sets every key variant of each matching environment variable so
// SERVER_MAX_BODY_SIZE reaches server.max_body_size whichever underscores
// are word separators.
func bindEnv(v *viper.Viper, prefix string, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			var found bool
			if key, found = strings.CutPrefix(key, prefix+"_"); !found {
				continue
			}
		}
		for _, variant := range keyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// keyVariants lists the nested key spellings of an environment key:
// SERVER_CORS_ALLOW_CREDENTIALS yields server_cors_allow_credentials,
// server.cors_allow_credentials, server.cors.allow_credentials and
// server.cors.allow.credentials.
func keyVariants(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	variants := make([]string, 0, len(parts))
	for i := 1; i <= len(parts); i++ {
		nested := strings.Join(parts[:i-1], ".")
		rest := strings.Join(parts[i-1:], "_")
		if nested == "" {
			variants = append(variants, rest)
			continue
		}
		variants = append(variants, nested+"."+rest)
	}
	return variants
}
