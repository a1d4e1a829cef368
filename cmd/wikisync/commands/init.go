package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/wikisync/internal/printer"
	"github.com/dyluth/wikisync/internal/scaffold"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration",
	Long: `Create a starter configuration in the current directory.

Creates:
  • wikisync.yml   - wiki, marker and journal configuration
  • data/game.yml  - a small sample of the game data format

Use --force to overwrite existing files.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing wikisync.yml and data/game.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting("."); err != nil {
			return printer.Error("already initialized", err.Error(), nil)
		}
	}

	if err := scaffold.Initialize(".", forceInit, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(cmd.OutOrStdout())
	return nil
}
