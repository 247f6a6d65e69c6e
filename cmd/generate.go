package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildr-dev/buildr/internal/config"
	"github.com/buildr-dev/buildr/internal/export"
	"github.com/buildr-dev/buildr/internal/generator"
	"github.com/buildr-dev/buildr/internal/project"
)

var (
	generateOutputDir string
	generateNoReadme  bool
	generateNoPackage bool
)

// generateCmd writes the generated site as a directory tree
var generateCmd = &cobra.Command{
	Use:     "generate <project-file>",
	Aliases: []string{"g"},
	Short:   "Generate the static site from a project file",
	Long: `Generate reads a project document (JSON or YAML), runs every page
through the code-generation pipeline, and writes the resulting site tree to
the output directory.

Examples:
  buildr generate site.json
  buildr generate site.yaml --output public
  buildr generate site.json --no-readme --no-package-json`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutputDir, "output", "o", "", "output directory (default from config, ./dist)")
	generateCmd.Flags().BoolVar(&generateNoReadme, "no-readme", false, "skip README.md")
	generateCmd.Flags().BoolVar(&generateNoPackage, "no-package-json", false, "skip package.json")
}

// buildSiteFiles loads a project document and produces its file map. Shared
// by generate, export, and watch.
func buildSiteFiles(path string, cfg *config.Config) (map[string]string, string, error) {
	doc, err := project.Load(path)
	if err != nil {
		return nil, "", err
	}

	opts := siteOptions(doc.Name, cfg)
	files := generator.NewSiteGenerator(nil).GenerateSiteFiles(doc.Pages, opts)
	return files, doc.Name, nil
}

func siteOptions(projectName string, cfg *config.Config) *generator.SiteOptions {
	includeReadme := cfg.Generate.IncludeReadme && !generateNoReadme
	includePackage := cfg.Generate.IncludePackageJSON && !generateNoPackage
	return &generator.SiteOptions{
		ProjectName:        projectName,
		IncludeReadme:      &includeReadme,
		IncludePackageJSON: &includePackage,
		MinifyCSS:          cfg.Generate.MinifyCSS,
		MinifyJS:           cfg.Generate.MinifyJS,
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger().WithComponent("generate")

	outputDir := generateOutputDir
	if outputDir == "" {
		outputDir = cfg.Generate.OutputDir
	}

	files, name, err := buildSiteFiles(args[0], cfg)
	if err != nil {
		return err
	}
	if err := export.WriteTree(files, outputDir); err != nil {
		return err
	}

	logger.Info(cmd.Context(), "site generated",
		"project", name, "files", len(files), "output", outputDir)
	fmt.Printf("Generated %d files in %s\n", len(files), outputDir)
	return nil
}
