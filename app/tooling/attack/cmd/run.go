package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/doublespend/business/core/attack"
	"github.com/spf13/cobra"
)

var raceCmd = &cobra.Command{
	Use:   "race",
	Short: "Run a race attack against unconfirmed or shallow confirmed payments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAttack(cmd, attack.KindRace)
	},
}

var majorityCmd = &cobra.Command{
	Use:   "majority",
	Short: "Run a majority attack rewriting confirmed history with a private chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAttack(cmd, attack.KindMajority)
	},
}

func init() {
	addRunFlags(raceCmd)
	addRunFlags(majorityCmd)

	rootCmd.AddCommand(raceCmd)
	rootCmd.AddCommand(majorityCmd)
}

// runAttack simulates the attack and prints the scenario. An interrupt
// stops the simulation between rounds and prints the partial scenario.
func runAttack(cmd *cobra.Command, kind attack.Kind) error {
	run, err := runConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ev, sync := evHandler()
	defer sync()

	sim := attack.NewSimulator(ev, 1)
	if archiveDir != "" {
		archive, err := attack.NewArchive(archiveDir)
		if err != nil {
			return err
		}
		sim.UseArchive(archive)
	}

	scenario, err := sim.Run(ctx, kind, run)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), scenario)
}
