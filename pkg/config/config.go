// Package config holds the configuration surface of the arena engine: the
// HTTP server, logging, LLM provider backends for opponents, and the default
// game parameters. Values support ${VAR} and ${VAR:-default} expansion.
package config

import (
	"fmt"
)

// Config is the root configuration document.
type Config struct {
	Server ServerConfig                  `yaml:"server,omitempty" json:"server,omitempty"`
	Logger LoggerConfig                  `yaml:"logger,omitempty" json:"logger,omitempty"`
	LLMs   map[string]*LLMProviderConfig `yaml:"llms,omitempty" json:"llms,omitempty"`
	Engine EngineConfig                  `yaml:"engine,omitempty" json:"engine,omitempty"`
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logger.SetDefaults()
	if c.LLMs == nil {
		c.LLMs = map[string]*LLMProviderConfig{}
	}
	for _, llm := range c.LLMs {
		llm.SetDefaults()
	}
	c.Engine.SetDefaults()
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm %q: %w", name, err)
		}
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Engine.OpponentLLM != "" {
		if _, ok := c.LLMs[c.Engine.OpponentLLM]; !ok {
			return fmt.Errorf("engine: opponent_llm %q not defined under llms", c.Engine.OpponentLLM)
		}
	}
	return nil
}

// ServerConfig configures the trainer-facing HTTP server.
type ServerConfig struct {
	Host string `yaml:"host,omitempty" json:"host,omitempty"`
	Port int    `yaml:"port,omitempty" json:"port,omitempty"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// LoggerConfig configures the process logger.
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}
