package attack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/doublespend/business/sys/validate"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/node"
)

// Names of the nodes taking part in a run.
const (
	honestPrefix = "honest"
	attackerName = "attacker"
)

// run holds the network and bookkeeping of a single simulation.
type run struct {
	ctx       context.Context
	cfg       Config
	sched     Scheduler
	evHandler func(v string, args ...any)

	network  *node.Network
	nodes    []*node.Node // Honest nodes first, the attacker last.
	shares   []float64
	honest   *node.Node // The merchant facing honest node.
	attacker *node.Node

	scenario Scenario
}

// newRun builds the network of honest nodes plus the attacker node, all
// connected to each other, and the two transactions spending the same funds.
func newRun(ctx context.Context, kind Kind, cfg Config, sched Scheduler, evHandler func(v string, args ...any)) (*run, error) {
	g := cfg.Genesis()
	network := node.NewNetwork(evHandler)
	shares := cfg.shares()

	nodes := make([]*node.Node, 0, len(shares))
	for i, share := range shares {
		name := fmt.Sprintf("%s-%d", honestPrefix, i)
		if i == len(shares)-1 {
			name = attackerName
		}

		n, err := node.New(node.Config{
			Name:        name,
			Genesis:     g,
			HashShare:   share,
			Network:     network,
			MaxAttempts: cfg.MaxAttempts,
			Beneficiary: name + "-miner",
			EvHandler:   evHandler,
		})
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	network.Connect()

	victim, err := database.NewTx(cfg.Sender, cfg.Victim, cfg.Amount, cfg.Currency, 0)
	if err != nil {
		return nil, err
	}

	// The conflicting transaction spends the same slot of the sender with
	// the same amount, only the receiver differs.
	conflict := victim
	conflict.Receiver = cfg.Attacker

	r := run{
		ctx:       ctx,
		cfg:       cfg,
		sched:     sched,
		evHandler: evHandler,
		network:   network,
		nodes:     nodes,
		shares:    shares,
		honest:    nodes[0],
		attacker:  nodes[len(nodes)-1],
		scenario: Scenario{
			ID:                    validate.GenerateID(),
			Kind:                  kind,
			State:                 StatePending,
			Outcome:               OutcomePending,
			HonestNode:            nodes[0].Name(),
			AttackerNode:          nodes[len(nodes)-1].Name(),
			VictimTx:              victim,
			ConflictTx:            conflict,
			VictimConfirmations:   -1,
			ConflictConfirmations: -1,
			Config:                cfg,
			DateStarted:           time.Now().UTC(),
		},
	}

	return &r, nil
}

// =============================================================================

// mineRound picks the finder of the round and lets it mine on its own pool.
// The block is broadcast unless the finder is withholding. It returns false
// when the run can't continue.
func (r *run) mineRound(round int) bool {
	if r.ctx.Err() != nil {
		r.cancel()
		return false
	}

	idx := r.sched.Next(r.shares)
	if idx < 0 {
		r.resolve(OutcomeHonestWon, "no hash power")
		return false
	}
	finder := r.nodes[idx]

	r.scenario.Rounds = round
	r.scenario.Finders = append(r.scenario.Finders, finder.Name())

	block, err := finder.MineNewBlock(r.ctx)
	switch {
	case err == nil:

	case errors.Is(err, database.ErrMiningTimeout):
		r.scenario.TimedOut = true
		r.resolve(OutcomeHonestWon, ReasonMiningTimeout)
		return false

	case r.ctx.Err() != nil:
		r.cancel()
		return false

	default:
		r.evHandler("attack: round[%d]: finder[%s]: WARNING: %s", round, finder.Name(), err)
		return true
	}

	finder.Broadcast(block)

	r.evHandler("attack: round[%d]: finder[%s]: blk[%d]: withholding[%v]", round, finder.Name(), block.Header.Number, finder.Withholding())
	r.evHandler(`viewer: round: {"id":%q,"round":%d,"finder":%q,"number":%d,"hash":%q}`, r.scenario.ID, round, finder.Name(), block.Header.Number, block.Hash())

	return true
}

// resolve marks the scenario with its final outcome.
func (r *run) resolve(outcome Outcome, reason string) {
	r.scenario.Outcome = outcome
	r.scenario.Reason = reason
	r.scenario.State = StateResolved
}

// cancel marks the scenario as cancelled keeping the last outcome.
func (r *run) cancel() {
	r.scenario.Cancelled = true
	if r.scenario.Reason == "" {
		r.scenario.Reason = ReasonCancelled
	}
}

// finish records the confirmations, credited totals and chain snapshots.
func (r *run) finish() Scenario {
	chain := r.honest.Chain()
	ledger := chain.Ledger()

	r.scenario.VictimConfirmations = chain.Confirmations(r.scenario.VictimTx.ID())
	r.scenario.ConflictConfirmations = chain.Confirmations(r.scenario.ConflictTx.ID())
	r.scenario.CreditedVictim = ledger.Balance(r.cfg.Victim, r.cfg.Currency)
	r.scenario.CreditedAttacker = ledger.Balance(r.cfg.Attacker, r.cfg.Currency)
	r.scenario.HonestChain = chain.Data()
	r.scenario.AttackerChain = r.attacker.Chain().Data()
	r.scenario.DateFinished = time.Now().UTC()

	return r.scenario
}
