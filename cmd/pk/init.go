package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/pikpoint/internal/config"
	"github.com/steveyegge/pikpoint/internal/debug"
	"github.com/steveyegge/pikpoint/internal/source/factory"
	"github.com/steveyegge/pikpoint/internal/types"
	"github.com/steveyegge/pikpoint/internal/ui"
)

var (
	initNonInteractive bool
	initForce          bool
	initProject        string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file",
	Long: `Write a config file to --config (default ./.pikpoint.yaml). Asks a few
questions unless --non-interactive is given, in which case the defaults plus
--project are written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.FileName
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		out := *cfg
		if initProject != "" {
			out.Board.Project = initProject
		}
		if !initNonInteractive {
			if err := askConfig(&out); err != nil {
				return err
			}
		}
		if err := out.Validate(); err != nil {
			return err
		}
		if err := config.Write(path, &out); err != nil {
			return err
		}
		debug.PrintNormal(cmd.OutOrStdout(), "%s Wrote %s\n", ui.RenderPass(ui.IconPass), path)
		return nil
	},
}

func askConfig(c *config.Config) error {
	colorOpts := make([]huh.Option[string], 0, len(types.Palette()))
	for _, col := range types.Palette() {
		colorOpts = append(colorOpts, huh.NewOption(string(col), string(col)))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Board project").
				Description("ID or exact name of the board project to sync into").
				Value(&c.Board.Project).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Board API URL").
				Value(&c.Board.URL),
			huh.NewInput().
				Title("API key file").
				Description("First line holds the key; PIKPOINT_BOARD_API_KEY wins over it").
				Value(&c.Board.APIKeyFile),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source store").
				Options(huh.NewOptions(factory.Drivers...)...).
				Value(&c.Source.Driver),
			huh.NewInput().
				Title("Source path").
				Description("YAML file or SQLite database; ignored for mysql").
				Value(&c.Source.Path),
			huh.NewInput().
				Title("MySQL / Dolt DSN").
				Description("Only for the mysql driver").
				Value(&c.Source.DSN),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Story owner").
				Description("Board user name; empty leaves owners alone").
				Value(&c.Sync.Owner),
			huh.NewSelect[string]().
				Title("Default story color").
				Options(colorOpts...).
				Value(&c.Colors.Default),
		),
	)
	return form.Run()
}

func init() {
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "write defaults without asking")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().StringVarP(&initProject, "project", "p", "", "board project id or name")
	rootCmd.AddCommand(initCmd)
}
