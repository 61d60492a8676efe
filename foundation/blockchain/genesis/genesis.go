// Package genesis maintains access to the genesis configuration every chain
// in a simulation starts from.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDifficulty is the largest number of leading zero hex digits a block
// hash can be asked to have.
const MaxDifficulty = 32

// ErrInvalidGenesis is returned when the genesis configuration is internally
// inconsistent. No node can be created from such a genesis.
var ErrInvalidGenesis = errors.New("invalid genesis")

// Genesis represents the genesis configuration.
type Genesis struct {
	Date            time.Time                  `json:"date"`
	ChainID         uint16                     `json:"chain_id"`         // The chain id represents an unique id for this running instance.
	TransPerBlock   uint16                     `json:"trans_per_block"`  // The maximum number of transactions that can be in a block, 0 is unlimited.
	Difficulty      int                        `json:"difficulty"`       // How difficult it needs to be to solve the work problem.
	MiningReward    decimal.Decimal            `json:"mining_reward"`    // Reward for mining a block.
	Currency        string                     `json:"currency"`         // Currency used for mining rewards and allocations.
	Currencies      []string                   `json:"currencies"`       // Currencies a transaction is allowed to use.
	EnforceBalances bool                       `json:"enforce_balances"` // Reject chains where a sender spends more than it holds.
	Balances        map[string]decimal.Decimal `json:"balances"`         // Starting allocations in the reward currency.
}

// Default returns the genesis used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       1,
		TransPerBlock: 10,
		Difficulty:    3,
		MiningReward:  decimal.NewFromInt(10),
		Currency:      "USDT",
		Currencies:    []string{"USDT", "BTC", "ETH"},
		Balances:      map[string]decimal.Decimal{},
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file keep
// the default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis for internal consistency.
func (g Genesis) Validate() error {
	if g.Difficulty < 0 || g.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: difficulty %d out of range [0,%d]", ErrInvalidGenesis, g.Difficulty, MaxDifficulty)
	}

	if g.MiningReward.IsNegative() {
		return fmt.Errorf("%w: negative mining reward %s", ErrInvalidGenesis, g.MiningReward)
	}

	if g.Currency == "" {
		return fmt.Errorf("%w: missing reward currency", ErrInvalidGenesis)
	}

	if !g.AcceptsCurrency(g.Currency) {
		return fmt.Errorf("%w: reward currency %q is not a configured currency", ErrInvalidGenesis, g.Currency)
	}

	for account, balance := range g.Balances {
		if balance.IsNegative() {
			return fmt.Errorf("%w: negative balance for %s", ErrInvalidGenesis, account)
		}
	}

	return nil
}

// AcceptsCurrency reports whether transactions in the currency are allowed.
func (g Genesis) AcceptsCurrency(currency string) bool {
	return slices.Contains(g.Currencies, currency)
}
