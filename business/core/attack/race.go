package attack

// race runs a race attack. The attacker places the conflicting transaction
// in its own pool before the victim transaction reaches the network, so each
// side of the network holds the spend it saw first. Blocks are mined in the
// open and the first spend confirmed by the merchant facing node wins.
func (r *run) race() {
	r.evHandler("attack: race: id[%s]: started", r.scenario.ID)
	defer r.evHandler("attack: race: id[%s]: completed", r.scenario.ID)

	victim := r.scenario.VictimTx
	conflict := r.scenario.ConflictTx

	if err := r.attacker.SubmitTransaction(conflict); err != nil {
		r.evHandler("attack: race: attacker rejected conflict: %s", err)
	}

	if err := r.honest.SubmitTransaction(victim); err != nil {
		r.evHandler("attack: race: honest rejected victim: %s", err)
	}
	r.honest.ShareTx(victim)
	r.attacker.ShareTx(conflict)

	r.scenario.State = StateRacing

	for round := 1; round <= r.cfg.MaxRounds; round++ {
		if !r.mineRound(round) {
			return
		}

		if r.raceResolved() {
			return
		}
	}

	r.resolve(OutcomeHonestWon, ReasonRoundLimit)
}

// raceResolved checks the chain of the merchant facing node after a round.
func (r *run) raceResolved() bool {
	chain := r.honest.Chain()

	if chain.Confirmations(r.scenario.ConflictTx.ID()) >= 0 {
		r.resolve(OutcomeAttackerWon, ReasonConflictConfirmed)
		return true
	}

	if chain.Confirmations(r.scenario.VictimTx.ID()) >= r.cfg.ConfirmationDepth {
		r.resolve(OutcomeHonestWon, ReasonVictimConfirmed)
		return true
	}

	return false
}
