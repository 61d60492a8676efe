package attack

import (
	"errors"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// majority runs a majority attack. The merchant facing node confirms the
// victim transaction in public. The attacker forks from the block before,
// mines the conflicting transaction in private and reveals its chain once it
// carries more work than the public chain and the merchant considers the
// victim confirmed.
func (r *run) majority() {
	r.evHandler("attack: majority: id[%s]: started", r.scenario.ID)
	defer r.evHandler("attack: majority: id[%s]: completed", r.scenario.ID)

	victim := r.scenario.VictimTx
	conflict := r.scenario.ConflictTx

	if err := r.honest.SubmitTransaction(victim); err != nil {
		r.evHandler("attack: majority: honest rejected victim: %s", err)
	}
	r.honest.ShareTx(victim)

	// Round 0 confirms the victim in public.
	r.scenario.Finders = append(r.scenario.Finders, r.honest.Name())
	block, err := r.honest.MineNewBlock(r.ctx)
	switch {
	case err == nil:

	case errors.Is(err, database.ErrMiningTimeout):
		r.scenario.TimedOut = true
		r.resolve(OutcomeHonestWon, ReasonMiningTimeout)
		return

	case r.ctx.Err() != nil:
		r.cancel()
		return

	default:
		r.evHandler("attack: majority: round[0]: WARNING: %s", err)
		r.resolve(OutcomeHonestWon, ReasonVictimUnconfirmed)
		return
	}
	r.honest.Broadcast(block)

	r.attacker.Withhold(true)
	if err := r.attacker.Fork(block.Header.Number - 1); err != nil {
		r.evHandler("attack: majority: fork: WARNING: %s", err)
	}
	r.attacker.DiscardTx(victim)

	if err := r.attacker.SubmitTransaction(conflict); err != nil {
		r.evHandler("attack: majority: attacker rejected conflict: %s", err)
	}

	r.scenario.State = StateMining

	for round := 1; round <= r.cfg.MaxRounds; round++ {
		if !r.mineRound(round) {
			return
		}

		if r.attacker.Withholding() && r.readyToReveal() {
			r.evHandler("attack: majority: round[%d]: attacker reveals private chain", round)
			r.attacker.Withhold(false)
			r.attacker.BroadcastChain()
		}

		if r.majorityResolved() {
			return
		}
	}

	r.resolve(OutcomeHonestWon, ReasonRoundLimit)
}

// readyToReveal reports whether the private chain carries strictly more work
// than the public chain while the victim is confirmed to the merchant.
func (r *run) readyToReveal() bool {
	public := r.honest.Chain()
	private := r.attacker.Chain()

	if !private.TotalWork().Gt(public.TotalWork()) {
		return false
	}

	return public.Confirmations(r.scenario.VictimTx.ID()) >= r.cfg.ConfirmationDepth
}

// majorityResolved checks whether the merchant facing node replaced its
// chain with the attacker chain.
func (r *run) majorityResolved() bool {
	chain := r.honest.Chain()

	if chain.Confirmations(r.scenario.VictimTx.ID()) < 0 && chain.Confirmations(r.scenario.ConflictTx.ID()) >= 0 {
		r.resolve(OutcomeAttackerWon, ReasonChainReplaced)
		return true
	}

	return false
}
