// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the daemon configuration.
//
// Configuration comes from a single file passed via the --config flag.
// There is no discovery and no fallback chain: one file, loaded once,
// immutable for the process lifetime. The file may be JSONC (JSON with
// // comments and trailing commas) or YAML, chosen by extension.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/qudah-works/qudah/lib/numeral"
)

// Config is the daemon configuration. Field names match the original
// config.json layout so existing deployments carry over unchanged.
type Config struct {
	// Token is the bot authentication token.
	Token string `json:"token" yaml:"token"`

	// Radix is the numeral base of the counting channel: 2, 10, or 16.
	Radix int `json:"radix" yaml:"radix"`

	// Channel is the snowflake ID of the counting channel.
	Channel string `json:"channel" yaml:"channel"`

	// Guild is the snowflake ID of the guild the bot serves.
	Guild string `json:"guild" yaml:"guild"`

	// ResumeOnError keeps the sequence going after a wrong submission
	// instead of resetting it to the beginning. Defaults to false.
	ResumeOnError bool `json:"resume_on_error" yaml:"resume_on_error"`

	// Timezone is an IANA timezone name used when rendering
	// timestamps in logs and status output.
	Timezone string `json:"timezone" yaml:"timezone"`

	// StorePath is where the persisted snapshot lives. Defaults to
	// "store.json" next to the working directory.
	StorePath string `json:"store_path,omitempty" yaml:"store_path,omitempty"`

	// ControlSocket is the unix socket path for qudah-ctl. Defaults
	// to "qudah.sock".
	ControlSocket string `json:"control_socket,omitempty" yaml:"control_socket,omitempty"`

	// location is the parsed Timezone, resolved during Validate.
	location *time.Location
}

// Defaults applied by Validate when the corresponding field is empty.
const (
	DefaultStorePath     = "store.json"
	DefaultControlSocket = "qudah.sock"
)

// Load reads, parses, and validates the configuration file at path.
// The format is chosen by extension: .yaml/.yml is YAML, anything
// else is treated as JSONC.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse unmarshals configuration bytes in the format implied by ext
// and validates the result.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields, resolves the timezone, and fills
// in defaults. Called by Load; exposed for tests and for configs
// built in code.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if !numeral.ValidRadix(c.Radix) {
		return fmt.Errorf("invalid radix %d; one of 2, 10, 16 expected", c.Radix)
	}
	if err := validateSnowflake("channel", c.Channel); err != nil {
		return err
	}
	if err := validateSnowflake("guild", c.Guild); err != nil {
		return err
	}
	if c.Timezone == "" {
		return fmt.Errorf("timezone is required")
	}
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = location

	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
	if c.ControlSocket == "" {
		c.ControlSocket = DefaultControlSocket
	}
	return nil
}

// Location returns the parsed timezone. Valid only after Validate.
func (c *Config) Location() *time.Location { return c.location }

// validateSnowflake checks that value looks like a Discord snowflake:
// a non-empty string of decimal digits.
func validateSnowflake(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return fmt.Errorf("invalid %s %q; snowflake ID in string form expected", field, value)
		}
	}
	return nil
}
