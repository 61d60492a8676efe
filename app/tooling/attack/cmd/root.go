// Package cmd contains the attack runner app.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ardanlabs/doublespend/business/core/attack"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/ardanlabs/doublespend/foundation/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	genesisFile string
	archiveDir  string
	verbose     bool
	amount      string
	reward      string
	cfg         = attack.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "attack",
	Short: "Simulate double spend attacks against in-process nodes",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&genesisFile, "genesis", "g", "", "Genesis file merged onto the defaults.")
	rootCmd.PersistentFlags().StringVar(&archiveDir, "archive", "", "Folder archiving the completed scenarios.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log node and attack events.")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addRunFlags binds every run configuration field to flags of the command.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&cfg.Difficulty, "difficulty", cfg.Difficulty, "Leading zero hex digits of a solved block hash.")
	cmd.Flags().StringVar(&reward, "reward", "", "Mining reward of a block, defaults to the genesis reward.")
	cmd.Flags().StringVar(&cfg.Currency, "currency", "", "Currency of the spend, defaults to the genesis currency.")
	cmd.Flags().Float64VarP(&cfg.AttackerHashShare, "share", "s", cfg.AttackerHashShare, "Hash share of the attacker in [0,1].")
	cmd.Flags().IntVarP(&cfg.ConfirmationDepth, "depth", "d", cfg.ConfirmationDepth, "Confirmations the merchant waits for.")
	cmd.Flags().IntVarP(&cfg.MaxRounds, "rounds", "r", cfg.MaxRounds, "Maximum number of mining rounds.")
	cmd.Flags().IntVar(&cfg.HonestNodes, "honest", cfg.HonestNodes, "Number of honest nodes.")
	cmd.Flags().StringVar(&amount, "amount", cfg.Amount.String(), "Amount of the double spent funds.")
	cmd.Flags().StringVar(&cfg.Sender, "sender", cfg.Sender, "Account holding the spent funds.")
	cmd.Flags().StringVar(&cfg.Victim, "victim", cfg.Victim, "Merchant receiving the victim transaction.")
	cmd.Flags().StringVar(&cfg.Attacker, "attacker", cfg.Attacker, "Account receiving the conflicting transaction.")
	cmd.Flags().StringVar(&cfg.Scheduler, "scheduler", cfg.Scheduler, "Block finder scheduler: deterministic or seeded.")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed of the seeded scheduler.")
	cmd.Flags().Uint64Var(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Maximum nonces tried per block, must be at least 1.")
	cmd.Flags().BoolVar(&cfg.EnforceBalances, "enforce-balances", cfg.EnforceBalances, "Reject spends exceeding the sender balance.")
}

// loadGenesis returns the default genesis or the one in the genesis file.
func loadGenesis() (genesis.Genesis, error) {
	if genesisFile == "" {
		return genesis.Default(), nil
	}

	return genesis.Load(genesisFile)
}

// runConfig merges the flags onto the configuration of the genesis.
func runConfig(cmd *cobra.Command) (attack.Config, error) {
	g, err := loadGenesis()
	if err != nil {
		return attack.Config{}, err
	}

	run := cfg
	run.Base = g
	if !cmd.Flags().Changed("difficulty") {
		run.Difficulty = g.Difficulty
	}
	if run.Currency == "" {
		run.Currency = g.Currency
	}
	if !cmd.Flags().Changed("enforce-balances") {
		run.EnforceBalances = g.EnforceBalances
	}

	run.Reward = g.MiningReward
	if reward != "" {
		if run.Reward, err = decimal.NewFromString(reward); err != nil {
			return attack.Config{}, fmt.Errorf("parsing reward: %w", err)
		}
	}

	if run.Amount, err = decimal.NewFromString(amount); err != nil {
		return attack.Config{}, fmt.Errorf("parsing amount: %w", err)
	}

	return run, nil
}

// evHandler returns the event handler of a run, events are logged when
// verbose is set.
func evHandler() (func(v string, args ...any), func()) {
	if !verbose {
		return nil, func() {}
	}

	log, err := logger.New("ATTACK")
	if err != nil {
		return nil, func() {}
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	return ev, func() { log.Sync() }
}

// printJSON writes the value as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
