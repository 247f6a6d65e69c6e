package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/buildr-dev/buildr/internal/config"
	"github.com/buildr-dev/buildr/internal/export"
	"github.com/buildr-dev/buildr/internal/watcher"
)

var watchOutputDir string

// watchCmd regenerates the site whenever the project file changes
var watchCmd = &cobra.Command{
	Use:     "watch <project-file>",
	Aliases: []string{"w"},
	Short:   "Regenerate the site whenever the project file changes",
	Long: `Watch generates the site once, then keeps watching the project file
and regenerates the full output on every debounced change. Each pass fully
replaces the previous output, so repeated regeneration never drifts.

Examples:
  buildr watch site.json
  buildr watch site.yaml --output public`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOutputDir, "output", "o", "", "output directory (default from config, ./dist)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger().WithComponent("watch")

	outputDir := watchOutputDir
	if outputDir == "" {
		outputDir = cfg.Generate.OutputDir
	}
	projectPath := args[0]

	regenerate := func() {
		files, name, err := buildSiteFiles(projectPath, cfg)
		if err != nil {
			logger.Warn(cmd.Context(), err, "regeneration failed, keeping previous output")
			return
		}
		if err := export.WriteTree(files, outputDir); err != nil {
			logger.Warn(cmd.Context(), err, "writing site failed")
			return
		}
		logger.Info(cmd.Context(), "site regenerated", "project", name, "files", len(files))
	}

	regenerate()

	w, err := watcher.New(projectPath, cfg.Watch.Debounce, regenerate, newLogger())
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
	fmt.Printf("Watching %s, output in %s (Ctrl-C to stop)\n", projectPath, outputDir)
	<-ctx.Done()
	return nil
}
