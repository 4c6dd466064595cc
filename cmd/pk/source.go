package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/pikpoint/internal/debug"
	"github.com/steveyegge/pikpoint/internal/source/factory"
	"github.com/steveyegge/pikpoint/internal/source/yamlfile"
	"github.com/steveyegge/pikpoint/internal/types"
	"github.com/steveyegge/pikpoint/internal/ui"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage the source-of-truth store",
}

var sourceInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty store for the configured driver",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Source.Driver == factory.DriverYAML {
			if err := yamlfile.Init(cfg.Source.Path); err != nil {
				return err
			}
		} else {
			store, err := factory.OpenSQL(rootCtx, cfg.SourceOptions())
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return err
			}
		}
		debug.PrintNormal(cmd.OutOrStdout(), "%s Initialized %s source %s\n",
			ui.RenderPass(ui.IconPass), cfg.Source.Driver, describeSource())
		return nil
	},
}

var sourceImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the store's projects with those of a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := yamlfile.Load(args[0])
		if err != nil {
			return err
		}
		if cfg.Source.Driver == factory.DriverYAML {
			err = yamlfile.Save(cfg.Source.Path, projects)
		} else {
			err = importSQL(projects)
		}
		if err != nil {
			return err
		}
		debug.PrintNormal(cmd.OutOrStdout(), "%s Imported %d projects into %s\n",
			ui.RenderPass(ui.IconPass), len(projects), describeSource())
		return nil
	},
}

var sourceExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write every project of the store to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			projects []types.SourceProject
			err      error
		)
		if cfg.Source.Driver == factory.DriverYAML {
			projects, err = yamlfile.Load(cfg.Source.Path)
		} else {
			projects, err = exportSQL()
		}
		if err != nil {
			return err
		}
		if err := yamlfile.Save(args[0], projects); err != nil {
			return err
		}
		debug.PrintNormal(cmd.OutOrStdout(), "%s Exported %d projects to %s\n",
			ui.RenderPass(ui.IconPass), len(projects), args[0])
		return nil
	},
}

func importSQL(projects []types.SourceProject) error {
	store, err := factory.OpenSQL(rootCtx, cfg.SourceOptions())
	if err != nil {
		return err
	}
	defer store.Close()
	return store.ImportProjects(rootCtx, projects)
}

func exportSQL() ([]types.SourceProject, error) {
	store, err := factory.OpenSQL(rootCtx, cfg.SourceOptions())
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.ExportProjects(rootCtx)
}

func describeSource() string {
	if cfg.Source.Driver == factory.DriverMySQL {
		return "(mysql server)"
	}
	return fmt.Sprintf("%q", cfg.Source.Path)
}

func init() {
	sourceCmd.AddCommand(sourceInitCmd, sourceImportCmd, sourceExportCmd)
	rootCmd.AddCommand(sourceCmd)
}
