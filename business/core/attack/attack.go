// Package attack provides the core business API for simulating double spend
// attacks against a network of in-process nodes.
package attack

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ardanlabs/doublespend/business/sys/validate"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a scenario id is unknown.
var ErrNotFound = errors.New("scenario not found")

// Kind represents the type of attack being simulated.
type Kind string

// Set of attacks that can be simulated.
const (
	KindRace     Kind = "race"
	KindMajority Kind = "majority"
)

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindRace, KindMajority:
		return k, nil
	}

	return "", fmt.Errorf("%w: unknown attack kind %q", ErrConfigRejected, s)
}

// Outcome represents the result of a scenario.
type Outcome string

// Set of outcomes of a scenario.
const (
	OutcomePending     Outcome = "pending"
	OutcomeHonestWon   Outcome = "honest_won"
	OutcomeAttackerWon Outcome = "attacker_won"
)

// State represents where a scenario is in its life cycle.
type State string

// Set of states of a scenario. A scenario moves from pending to racing or
// mining and finally to resolved.
const (
	StatePending  State = "pending"
	StateRacing   State = "racing"
	StateMining   State = "mining"
	StateResolved State = "resolved"
)

// Set of reasons a scenario was resolved.
const (
	ReasonVictimConfirmed   = "victim confirmed"
	ReasonConflictConfirmed = "conflicting transaction confirmed"
	ReasonChainReplaced     = "honest chain replaced"
	ReasonRoundLimit        = "round limit"
	ReasonMiningTimeout     = "mining timeout"
	ReasonVictimUnconfirmed = "victim never confirmed"
	ReasonCancelled         = "cancelled"
)

// Scenario represents the record of a simulated attack.
type Scenario struct {
	ID                    string               `json:"id"`
	Kind                  Kind                 `json:"kind"`
	State                 State                `json:"state"`
	Outcome               Outcome              `json:"outcome"`
	Reason                string               `json:"reason"`
	Rounds                int                  `json:"rounds"`
	Finders               []string             `json:"finders"`
	TimedOut              bool                 `json:"timed_out"`
	Cancelled             bool                 `json:"cancelled"`
	HonestNode            string               `json:"honest_node"`
	AttackerNode          string               `json:"attacker_node"`
	VictimTx              database.Tx          `json:"victim_tx"`
	ConflictTx            database.Tx          `json:"conflict_tx"`
	VictimConfirmations   int                  `json:"victim_confirmations"`
	ConflictConfirmations int                  `json:"conflict_confirmations"`
	CreditedVictim        decimal.Decimal      `json:"credited_victim"`
	CreditedAttacker      decimal.Decimal      `json:"credited_attacker"`
	HonestChain           []database.BlockData `json:"honest_chain"`
	AttackerChain         []database.BlockData `json:"attacker_chain"`
	Config                Config               `json:"config"`
	DateStarted           time.Time            `json:"date_started"`
	DateFinished          time.Time            `json:"date_finished"`
}

// Resolved reports whether the scenario reached an outcome.
func (s Scenario) Resolved() bool {
	return s.Outcome != OutcomePending
}

// =============================================================================

// Simulator runs attack scenarios and keeps the most recent ones.
type Simulator struct {
	evHandler func(v string, args ...any)
	keep      int
	archive   *Archive

	mu        sync.RWMutex
	scenarios map[string]Scenario
}

// NewSimulator constructs a simulator that keeps up to keep scenarios.
func NewSimulator(evHandler func(v string, args ...any), keep int) *Simulator {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	if keep <= 0 {
		keep = 100
	}

	return &Simulator{
		evHandler: evHandler,
		keep:      keep,
		scenarios: make(map[string]Scenario),
	}
}

// UseArchive makes the simulator save every completed scenario to the
// archive and fall back to it for scenarios no longer kept in memory.
func (sim *Simulator) UseArchive(a *Archive) {
	sim.archive = a
}

// Run simulates a single attack of the specified kind. An error is only
// returned when the configuration is rejected, a completed simulation
// always returns a scenario with an outcome. When the context is cancelled
// between rounds the partial scenario is returned with Cancelled set.
func Run(ctx context.Context, kind Kind, cfg Config) (Scenario, error) {
	return NewSimulator(nil, 1).Run(ctx, kind, cfg)
}

// Run simulates a single attack and records the scenario.
func (sim *Simulator) Run(ctx context.Context, kind Kind, cfg Config) (Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return Scenario{}, err
	}

	if _, err := ParseKind(string(kind)); err != nil {
		return Scenario{}, err
	}

	sched, err := NewScheduler(cfg.Scheduler, cfg.Seed)
	if err != nil {
		return Scenario{}, fmt.Errorf("%w: %w", ErrConfigRejected, err)
	}

	r, err := newRun(ctx, kind, cfg, sched, sim.evHandler)
	if err != nil {
		return Scenario{}, fmt.Errorf("%w: %w", ErrConfigRejected, err)
	}

	sim.evHandler("attack: Run: started: id[%s]: kind[%s]: share[%.2f]: depth[%d]", r.scenario.ID, kind, cfg.AttackerHashShare, cfg.ConfirmationDepth)

	switch kind {
	case KindRace:
		r.race()
	case KindMajority:
		r.majority()
	}

	scenario := r.finish()

	sim.evHandler("attack: Run: completed: id[%s]: outcome[%s]: reason[%s]: rounds[%d]", scenario.ID, scenario.Outcome, scenario.Reason, scenario.Rounds)
	sim.evHandler(`viewer: attack: {"id":%q,"kind":%q,"outcome":%q,"reason":%q,"rounds":%d}`, scenario.ID, scenario.Kind, scenario.Outcome, scenario.Reason, scenario.Rounds)

	sim.store(scenario)

	if sim.archive != nil {
		if err := sim.archive.Save(scenario); err != nil {
			sim.evHandler("attack: Run: id[%s]: WARNING: archive: %s", scenario.ID, err)
		}
	}

	return scenario, nil
}

// QueryByID returns the recorded scenario with the id.
func (sim *Simulator) QueryByID(id string) (Scenario, error) {
	if err := validate.CheckID(id); err != nil {
		return Scenario{}, err
	}

	sim.mu.RLock()
	scenario, exists := sim.scenarios[id]
	sim.mu.RUnlock()

	if exists {
		return scenario, nil
	}

	if sim.archive != nil {
		return sim.archive.Load(id)
	}

	return Scenario{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Query returns the recorded scenarios, most recent first.
func (sim *Simulator) Query() []Scenario {
	sim.mu.RLock()
	defer sim.mu.RUnlock()

	scenarios := make([]Scenario, 0, len(sim.scenarios))
	for _, scenario := range sim.scenarios {
		scenarios = append(scenarios, scenario)
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].DateStarted.After(scenarios[j].DateStarted)
	})

	return scenarios
}

// store records the scenario, dropping the oldest one when full.
func (sim *Simulator) store(scenario Scenario) {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	if len(sim.scenarios) >= sim.keep {
		var oldest string
		for id, s := range sim.scenarios {
			if oldest == "" || s.DateStarted.Before(sim.scenarios[oldest].DateStarted) {
				oldest = id
			}
		}
		delete(sim.scenarios, oldest)
	}

	sim.scenarios[scenario.ID] = scenario
}
