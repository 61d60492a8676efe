package cmd

import (
	"github.com/spf13/cobra"
)

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Print the genesis every node of a run starts from",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadGenesis()
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), g)
	},
}

func init() {
	rootCmd.AddCommand(genesisCmd)
}
