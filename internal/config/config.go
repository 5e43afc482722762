// Package config loads and persists the bot configuration file.
//
// The configuration lives as a JSON file in the working directory. Defaults
// are always applied first; values found on disk win over defaults via a
// shallow merge. Load never returns nil: a missing file is created with
// defaults, a corrupt or invalid file falls back to defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DefaultFile is the well-known configuration file name.
const DefaultFile = "config.json"

// Config holds all recognized configuration keys.
type Config struct {
	Username    string    `json:"username"`
	Password    string    `json:"password"`
	SessionFile string    `json:"session_file" validate:"required"`
	Proxy       string    `json:"proxy,omitempty" validate:"omitempty,url"`
	DelayRange  []float64 `json:"delay_range" validate:"len=2,dive,min=0"`
	MaxRetries  int       `json:"max_retries" validate:"min=1"`
	Accounts    []string  `json:"accounts"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SessionFile: "session.json",
		DelayRange:  []float64{2, 5},
		MaxRetries:  3,
		Accounts:    []string{},
	}
}

var validate = validator.New()

// Load reads the configuration at path, merged over defaults.
//
// A missing file is created with defaults so the operator has something to
// edit. Any parse or validation problem is logged and defaults are used; the
// caller always gets a usable configuration.
func Load(path string, log zerolog.Logger) *Config {
	defaults := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if werr := Save(path, defaults); werr != nil {
				log.Error().Err(werr).Str("path", path).Msg("failed to create default configuration")
			} else {
				log.Info().Str("path", path).Msg("created default configuration")
				log.Warn().Msg("please edit the configuration file with your Instagram credentials")
			}
		} else {
			log.Error().Err(err).Str("path", path).Msg("failed to read configuration")
		}
		return defaults
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Error().Err(err).Str("path", path).Msg("invalid configuration file, using defaults")
		return defaults
	}

	// File values win; defaults fill whatever the file left out.
	if err := mergo.Merge(cfg, defaults); err != nil {
		log.Error().Err(err).Msg("failed to merge configuration, using defaults")
		return defaults
	}

	if err := validate.Struct(cfg); err != nil {
		log.Error().Err(err).Str("path", path).Msg("configuration failed validation, using defaults")
		return defaults
	}

	log.Info().Str("path", path).Msg("loaded configuration")
	return cfg
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	return nil
}

// WriteTemplate writes a sample configuration for the operator to fill in.
func WriteTemplate(path string) error {
	cfg := Default()
	cfg.Username = "your_username"
	cfg.Password = "your_password"
	return Save(path, cfg)
}
