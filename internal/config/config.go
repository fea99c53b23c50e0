package config

import (
	"encoding/json"
	"fmt"

	"github.com/askuser/askuser/internal/interact"
	"github.com/askuser/askuser/internal/registry"
)

// Config represents the main askuser configuration
type Config struct {
	// Channels holds the channel registry state
	Channels registry.Snapshot `json:"channels" mapstructure:"channels"`

	// Reply controls the continue shortcut
	Reply ReplyConfig `json:"reply" mapstructure:"reply"`

	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Metrics configuration
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ReplyConfig holds the continue-without-input settings
type ReplyConfig struct {
	EnableContinue bool   `json:"enable_continue" mapstructure:"enable_continue"`
	ContinuePrompt string `json:"continue_prompt" mapstructure:"continue_prompt"`
}

// ServerConfig holds MCP server configuration
type ServerConfig struct {
	Mode string `json:"mode" mapstructure:"mode"` // stdio, http
	Addr string `json:"addr" mapstructure:"addr"` // listen address for http mode
}

// MetricsConfig holds the metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Channels: registry.Snapshot{
			Bindings: map[string]string{},
		},
		Reply: ReplyConfig{
			EnableContinue: true,
			ContinuePrompt: interact.DefaultContinuePrompt,
		},
		Server: ServerConfig{
			Mode: "stdio",
			Addr: "127.0.0.1:8633",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9633",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config with tokens masked
func (c *Config) String() string {
	masked := *c
	masked.Channels = maskTokens(c.Channels)
	data, _ := json.MarshalIndent(&masked, "", "  ")
	return string(data)
}

func maskTokens(snap registry.Snapshot) registry.Snapshot {
	out := snap
	out.Endpoints = make([]registry.Endpoint, 0, len(snap.Endpoints))
	for _, ep := range snap.Endpoints {
		if ep.Token != "" {
			ep.Token = "[REDACTED]"
		}
		out.Endpoints = append(out.Endpoints, ep)
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()

	names := make(map[string]bool, len(c.Channels.Endpoints))
	for _, ep := range c.Channels.Endpoints {
		if err := v.ValidateChannelName(ep.Name); err != nil {
			return err
		}
		if names[ep.Name] {
			return fmt.Errorf("duplicate channel name %s", ep.Name)
		}
		names[ep.Name] = true
		if err := v.ValidateTelegramToken(ep.Token); err != nil {
			return fmt.Errorf("channel %s: %w", ep.Name, err)
		}
		if ep.ChatID == 0 {
			return fmt.Errorf("channel %s: chat_id is required", ep.Name)
		}
	}

	if c.Channels.Default != "" && !names[c.Channels.Default] {
		return fmt.Errorf("default channel %s is not configured", c.Channels.Default)
	}

	for sessionID, channel := range c.Channels.Bindings {
		if sessionID == "" {
			return fmt.Errorf("session binding with empty session id")
		}
		if !names[channel] {
			return fmt.Errorf("session %s is bound to unknown channel %s", sessionID, channel)
		}
	}

	if err := v.ValidateServerMode(c.Server.Mode); err != nil {
		return err
	}
	if c.Server.Mode == "http" && c.Server.Addr == "" {
		return fmt.Errorf("server addr is required in http mode")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics addr is required when metrics are enabled")
	}

	if err := v.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}
