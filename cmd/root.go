// Package cmd provides the command-line interface for buildr.
//
// Configuration sources, highest priority first:
//
//  1. Command-line flags (--config, --port, ...)
//  2. BUILDR_CONFIG_FILE environment variable (custom config file path)
//  3. Individual environment variables (BUILDR_SERVER_PORT, ...)
//  4. Configuration file (.buildr.yml in the working directory)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/buildr-dev/buildr/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "buildr",
	Short: "Static-site engine for the buildr website builder",
	Long: `buildr is the engine behind the buildr drag-and-drop website builder.
It turns a project's component tree into a runnable static site and hosts
the real-time collaboration channel editors sync through.

Key Features:
  • Registry-driven HTML/CSS/JS generation per component type
  • Whole-site export as a directory tree or zip archive
  • Real-time collaborative editing over a room-scoped sync server
  • Debounced autosave of project snapshots to a local store
  • Regenerate-on-edit watching of project files

Quick Start:
  buildr generate site.json       Generate the site into ./dist
  buildr export site.json         Generate and zip the site
  buildr serve                    Start the collaboration sync server
  buildr watch site.json          Regenerate whenever the file changes

Command Aliases (for faster typing):
  generate (g), export (e), serve (s), watch (w)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .buildr.yml, can also use BUILDR_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// newLogger builds the logger subcommands share, honoring --log-level.
func newLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(viper.GetString("log-level")),
		Format: "text",
		Output: os.Stderr,
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("BUILDR_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".buildr")
	}

	viper.SetEnvPrefix("BUILDR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files degrade to defaults without failing.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
