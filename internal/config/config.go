// Package config provides configuration management for buildr using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files and environment variable
// overrides with the BUILDR_ prefix. It manages sync-server settings, site
// generation options, collaboration timing, and the local project store.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Generate GenerateConfig `yaml:"generate"`
	Collab   CollabConfig   `yaml:"collab"`
	Store    StoreConfig    `yaml:"store"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig configures the collaboration sync server.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GenerateConfig configures site generation output.
type GenerateConfig struct {
	OutputDir          string `yaml:"output_dir"`
	IncludeReadme      bool   `yaml:"include_readme"`
	IncludePackageJSON bool   `yaml:"include_package_json"`
	MinifyCSS          bool   `yaml:"minify_css"`
	MinifyJS           bool   `yaml:"minify_js"`
}

// CollabConfig configures the collaborative session timing. The debounce
// windows coalesce bursts of changes into single frames; they never drop
// updates.
type CollabConfig struct {
	DocDebounce       time.Duration `yaml:"doc_debounce"`
	AwarenessDebounce time.Duration `yaml:"awareness_debounce"`
	SaveDebounce      time.Duration `yaml:"save_debounce"`
}

// StoreConfig configures the local project snapshot store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig configures the regenerate-on-edit watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load builds a Config from whatever viper has read, applying defaults for
// anything the config file and environment left unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Unmarshal matches map keys against field names, so single-word keys
	// (port, host, path, debounce) arrive on their own. Underscore keys have
	// no matching field name and are read explicitly.
	if viper.IsSet("server.allowed_origins") {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if viper.IsSet("generate.output_dir") {
		config.Generate.OutputDir = viper.GetString("generate.output_dir")
	}
	if viper.IsSet("generate.minify_css") {
		config.Generate.MinifyCSS = viper.GetBool("generate.minify_css")
	}
	if viper.IsSet("generate.minify_js") {
		config.Generate.MinifyJS = viper.GetBool("generate.minify_js")
	}
	if viper.IsSet("collab.doc_debounce") {
		config.Collab.DocDebounce = viper.GetDuration("collab.doc_debounce")
	}
	if viper.IsSet("collab.awareness_debounce") {
		config.Collab.AwarenessDebounce = viper.GetDuration("collab.awareness_debounce")
	}
	if viper.IsSet("collab.save_debounce") {
		config.Collab.SaveDebounce = viper.GetDuration("collab.save_debounce")
	}

	config.Generate.IncludeReadme = true
	if viper.IsSet("generate.include_readme") {
		config.Generate.IncludeReadme = viper.GetBool("generate.include_readme")
	}
	config.Generate.IncludePackageJSON = true
	if viper.IsSet("generate.include_package_json") {
		config.Generate.IncludePackageJSON = viper.GetBool("generate.include_package_json")
	}

	if config.Server.Port == 0 {
		config.Server.Port = 8395
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Generate.OutputDir == "" {
		config.Generate.OutputDir = "dist"
	}
	if config.Collab.DocDebounce == 0 {
		config.Collab.DocDebounce = 300 * time.Millisecond
	}
	if config.Collab.AwarenessDebounce == 0 {
		config.Collab.AwarenessDebounce = 60 * time.Millisecond
	}
	if config.Collab.SaveDebounce == 0 {
		config.Collab.SaveDebounce = 2 * time.Second
	}
	if config.Store.Path == "" {
		config.Store.Path = ".buildr/projects.db"
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d: must be between 1 and 65535", c.Server.Port)
	}
	if c.Collab.DocDebounce < 0 || c.Collab.AwarenessDebounce < 0 || c.Collab.SaveDebounce < 0 {
		return fmt.Errorf("collab debounce intervals must not be negative")
	}
	if c.Generate.OutputDir == "" {
		return fmt.Errorf("generate output_dir must not be empty")
	}
	return nil
}
