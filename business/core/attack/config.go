package attack

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/ardanlabs/doublespend/business/sys/validate"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/shopspring/decimal"
)

// ErrConfigRejected is returned when a run configuration can't produce a
// consistent genesis or network. No node is created for such a run.
var ErrConfigRejected = errors.New("run configuration rejected")

// DefaultMaxAttempts bounds the nonces a node tries for a single block. It
// covers difficulty 5 about four times over.
const DefaultMaxAttempts = 1 << 22

// Config represents the configuration of a single attack run.
type Config struct {
	Difficulty        int             `json:"difficulty" validate:"gte=0,lte=32"`
	Reward            decimal.Decimal `json:"reward"`
	Currency          string          `json:"currency" validate:"required"`
	AttackerHashShare float64         `json:"attacker_hash_share" validate:"gte=0,lte=1"`
	ConfirmationDepth int             `json:"confirmation_depth" validate:"gte=0"`
	MaxRounds         int             `json:"max_rounds" validate:"gte=1"`
	HonestNodes       int             `json:"honest_nodes" validate:"gte=1,lte=64"`
	Amount            decimal.Decimal `json:"amount"`
	Sender            string          `json:"sender" validate:"required"`
	Victim            string          `json:"victim" validate:"required,nefield=Sender"`
	Attacker          string          `json:"attacker" validate:"required,nefield=Victim,nefield=Sender"`
	Scheduler         string          `json:"scheduler" validate:"oneof=deterministic seeded"`
	Seed              int64           `json:"seed"`
	MaxAttempts       uint64          `json:"max_attempts" validate:"gte=1"`
	EnforceBalances   bool            `json:"enforce_balances"`
	Base              genesis.Genesis `json:"genesis"`
}

// DefaultConfig returns the configuration used for values not provided.
func DefaultConfig() Config {
	return NewConfig(genesis.Default())
}

// NewConfig returns the default configuration built on the specified
// genesis. The difficulty, reward and currency can be changed per run, every
// other genesis setting is kept.
func NewConfig(g genesis.Genesis) Config {
	return Config{
		Difficulty:        g.Difficulty,
		Reward:            g.MiningReward,
		Currency:          g.Currency,
		AttackerHashShare: 0.3,
		ConfirmationDepth: 1,
		MaxRounds:         50,
		HonestNodes:       3,
		Amount:            decimal.NewFromInt(10),
		Sender:            "Alice",
		Victim:            "Merchant",
		Attacker:          "Mallory",
		Scheduler:         SchedulerDeterministic,
		Seed:              1,
		MaxAttempts:       DefaultMaxAttempts,
		EnforceBalances:   g.EnforceBalances,
		Base:              g,
	}
}

// Validate checks the configuration. Every error wraps ErrConfigRejected
// and carries the field errors when the problem is tied to fields.
func (cfg Config) Validate() error {
	if err := validate.Check(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigRejected, err)
	}

	if !cfg.Amount.IsPositive() {
		return fmt.Errorf("%w: %w", ErrConfigRejected, validate.NewFieldError("amount", errors.New("amount must be greater than zero")))
	}

	if cfg.Reward.IsNegative() {
		return fmt.Errorf("%w: %w", ErrConfigRejected, validate.NewFieldError("reward", errors.New("reward can't be negative")))
	}

	if err := cfg.Genesis().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigRejected, err)
	}

	return nil
}

// Genesis returns the genesis every node of the run starts from. It is the
// base genesis with the run settings applied, the sender is allocated the
// amount so the spend is funded. The base genesis is never modified.
func (cfg Config) Genesis() genesis.Genesis {
	g := cfg.Base
	if g.Date.IsZero() {
		g = genesis.Default()
	}

	g.Difficulty = cfg.Difficulty
	g.MiningReward = cfg.Reward
	g.Currency = cfg.Currency
	g.EnforceBalances = cfg.EnforceBalances
	g.Currencies = slices.Clone(g.Currencies)

	balances := maps.Clone(g.Balances)
	if balances == nil {
		balances = make(map[string]decimal.Decimal)
	}
	balances[cfg.Sender] = cfg.Amount
	g.Balances = balances

	if !g.AcceptsCurrency(cfg.Currency) {
		g.Currencies = append(g.Currencies, cfg.Currency)
	}

	return g
}

// shares returns the hash share of every honest node followed by the share
// of the attacker node.
func (cfg Config) shares() []float64 {
	honest := (1 - cfg.AttackerHashShare) / float64(cfg.HonestNodes)

	shares := make([]float64, 0, cfg.HonestNodes+1)
	for range cfg.HonestNodes {
		shares = append(shares, honest)
	}

	return append(shares, cfg.AttackerHashShare)
}
