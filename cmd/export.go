package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildr-dev/buildr/internal/config"
	"github.com/buildr-dev/buildr/internal/export"
)

var exportOutputDir string

// exportCmd generates the site and archives it as a zip
var exportCmd = &cobra.Command{
	Use:     "export <project-file>",
	Aliases: []string{"e"},
	Short:   "Generate the site and package it as a zip archive",
	Long: `Export runs the full code-generation pipeline and writes the result
as a single zip archive named after the project. The archive preserves the
site's folder hierarchy, so unzipping it yields a directly servable site.

Examples:
  buildr export site.json
  buildr export site.yaml --output builds`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutputDir, "output", "o", ".", "directory to write the archive into")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger().WithComponent("export")

	files, name, err := buildSiteFiles(args[0], cfg)
	if err != nil {
		return err
	}

	path, err := export.ZipToFile(files, name, exportOutputDir)
	if err != nil {
		logger.Error(cmd.Context(), err, "export failed", "project", name)
		return err
	}

	logger.Info(cmd.Context(), "site exported", "project", name, "archive", path)
	fmt.Printf("Exported %d files to %s\n", len(files), path)
	return nil
}
