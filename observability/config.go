package observability

import (
	"time"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/validation"
)

// Config configures the OTLP metrics exporter.
type Config struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	ServiceName    string        `yaml:"-" mapstructure:"-"`
	ServiceVersion string        `yaml:"-" mapstructure:"-"`
	Environment    string        `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills the exporter endpoint and interval.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate checks the exporter settings.
func (c *Config) Validate() error {
	if c.Enabled && c.Endpoint == "" {
		return errors.InvalidConfig("observability.endpoint", "required when metrics are enabled")
	}
	return validation.Validate(c)
}
