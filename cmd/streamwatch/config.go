package main

import (
	"time"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/httpclient"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/reconnect"
	"github.com/kbukum/streamkit/validation"
)

type watchConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Client httpclient.Config `yaml:"client" mapstructure:"client"`
	// EventsPath is the route prefix streams and publishes go to.
	EventsPath string `yaml:"events_path" mapstructure:"events_path" validate:"required,startswith=/"`
	Resource   string `yaml:"resource" mapstructure:"resource"`
	// CacheTTL bounds how long a fetched query result stays cached.
	CacheTTL      time.Duration        `yaml:"cache_ttl" mapstructure:"cache_ttl" validate:"gte=0"`
	Reconnect     reconnect.Options    `yaml:"reconnect" mapstructure:"reconnect"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// newWatchConfig returns a config whose reconnect section already holds the
// library defaults, so keys absent from file and env keep them.
func newWatchConfig() *watchConfig {
	return &watchConfig{Reconnect: reconnect.DefaultOptions()}
}

func (c *watchConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "streamwatch"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = "http://localhost:8080"
	}
	c.Client.ApplyDefaults()
	if c.EventsPath == "" {
		c.EventsPath = "/events"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	c.Observability.ApplyDefaults()
	c.Observability.ServiceName = c.Name
	c.Observability.ServiceVersion = c.Version
	c.Observability.Environment = c.Environment
}

func (c *watchConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Reconnect.MaxDelay > 0 && c.Reconnect.BaseDelay > c.Reconnect.MaxDelay {
		return errors.InvalidConfig("reconnect.base_delay", "must not exceed reconnect.max_delay")
	}
	return c.Observability.Validate()
}
