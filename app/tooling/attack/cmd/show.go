package cmd

import (
	"errors"

	"github.com/ardanlabs/doublespend/business/core/attack"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived scenario after validating its chain snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if archiveDir == "" {
			return errors.New("the archive folder is required")
		}

		archive, err := attack.NewArchive(archiveDir)
		if err != nil {
			return err
		}

		scenario, err := archive.Load(args[0])
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), scenario)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
