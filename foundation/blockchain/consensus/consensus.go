// Package consensus implements the longest valid chain fork choice rule.
package consensus

import (
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// Result represents the outcome of resolving a set of candidate chains.
type Result struct {
	Chain    *database.Chain // The winning chain, the local chain when not replaced.
	Replaced bool            // A candidate carried strictly more work than local.
	Index    int             // Index of the winning candidate, -1 for local.
	Rejected []error         // Reasons invalid candidates were filtered out.
}

// Resolve picks the chain with the most total work between the local chain
// and the candidates. Candidates that are invalid or start from a different
// genesis are filtered out. The local chain wins every tie, among candidates
// of equal work the first one wins. The local chain is never modified.
func Resolve(local *database.Chain, candidates ...[]database.Block) Result {
	result := Result{
		Chain: local,
		Index: -1,
	}

	for i, blocks := range candidates {
		candidate, err := database.FromBlocks(local.Genesis(), blocks, nil)
		if err != nil {
			result.Rejected = append(result.Rejected, err)
			continue
		}

		if candidate.TotalWork().Gt(result.Chain.TotalWork()) {
			result.Chain = candidate
			result.Replaced = true
			result.Index = i
		}
	}

	return result
}
