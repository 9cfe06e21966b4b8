package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/config"
	"github.com/Apie2c/quiz-app/internal/domain"
	"github.com/Apie2c/quiz-app/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewImportCmd replaces the stored category tree with the contents of a YAML or JSON file.
func NewImportCmd(configPath *string) *cobra.Command {
	var (
		file     string
		defaults bool
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a category file and write it to the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" && !defaults {
				return fmt.Errorf("either --file or --defaults is required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

			tree := domain.DefaultCategories()
			if file != "" {
				if tree, err = readCategoryFile(file); err != nil {
					return err
				}
			}
			if err := domain.ValidateTree(tree); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d categories\n", describeSource(file), len(tree))
				return nil
			}

			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()
			return importTree(cmd.Context(), app.NewCatalogService(store), tree, log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML or JSON file holding the category tree")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "import the built-in default categories")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only")
	return cmd
}

func importTree(ctx context.Context, catalog *app.CatalogService, tree domain.CategoryTree, log zerolog.Logger) error {
	doc, err := catalog.SaveCategories(ctx, tree)
	if err != nil {
		return err
	}
	questions := 0
	for _, subs := range doc.Categories {
		for _, qs := range subs {
			questions += len(qs)
		}
	}
	log.Info().
		Int("categories", len(doc.Categories)).
		Int("questions", questions).
		Time("updated_at", doc.UpdatedAt).
		Msg("Categories imported")
	return nil
}

// readCategoryFile accepts either a bare tree or a document with a top-level "categories" key.
// JSON parses as YAML, so one decoder serves both.
func readCategoryFile(path string) (domain.CategoryTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Categories domain.CategoryTree `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err == nil && wrapped.Categories != nil {
		return wrapped.Categories, nil
	}

	var tree domain.CategoryTree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no categories found", path)
	}
	return tree, nil
}

func describeSource(file string) string {
	if file == "" {
		return "default categories"
	}
	return file
}
