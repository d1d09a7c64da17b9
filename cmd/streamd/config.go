package main

import (
	"time"

	"github.com/kbukum/streamkit/broadcast"
	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/server"
	"github.com/kbukum/streamkit/sse"
	"github.com/kbukum/streamkit/validation"
)

type streamConfig struct {
	// KeepAlive is the interval between SSE keep-alive comments.
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive" validate:"gte=0"`
}

type broadcastConfig struct {
	KeepAlive  time.Duration `yaml:"keep_alive" mapstructure:"keep_alive" validate:"gte=0"`
	MaxPending int           `yaml:"max_pending" mapstructure:"max_pending" validate:"gte=0"`
}

type streamdConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Registry      sse.RegistryConfig   `yaml:"registry" mapstructure:"registry"`
	Stream        streamConfig         `yaml:"stream" mapstructure:"stream"`
	Broadcast     broadcastConfig      `yaml:"broadcast" mapstructure:"broadcast"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *streamdConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "streamd"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Registry.Type == "" {
		c.Registry.Type = sse.TypeMemory
	}
	if c.Stream.KeepAlive == 0 {
		c.Stream.KeepAlive = sse.KeepAliveInterval
	}
	if c.Broadcast.KeepAlive == 0 {
		c.Broadcast.KeepAlive = broadcast.DefaultKeepAlive
	}
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Observability.ServiceName = c.Name
	c.Observability.ServiceVersion = c.Version
	c.Observability.Environment = c.Environment
}

func (c *streamdConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c.Registry); err != nil {
		return err
	}
	if err := validation.Validate(c.Stream); err != nil {
		return err
	}
	if err := validation.Validate(c.Broadcast); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Observability.Validate()
}
