package node

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/doublespend/foundation/blockchain/consensus"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// ProcessProposedChain takes the full chain of a peer and runs the fork
// choice against the local chain. When the peer chain wins, transactions of
// the abandoned blocks go back to the pool unless they conflict with the new
// chain. It reports whether the local chain was replaced.
func (n *Node) ProcessProposedChain(from string, blocks []database.Block) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.withholding {
		n.evHandler("node: %s: ProcessProposedChain: ignored: withholding", n.name)
		return false, nil
	}

	res := consensus.Resolve(n.chain, blocks)
	if len(res.Rejected) > 0 {
		err := errors.Join(res.Rejected...)
		n.evHandler("node: %s: ProcessProposedChain: rejected-peer-update: from[%s]: %s", n.name, from, err)
		return false, err
	}

	if !res.Replaced {
		n.evHandler("node: %s: ProcessProposedChain: kept local chain: from[%s]: work[%s]", n.name, from, n.chain.TotalWork().Dec())
		return false, nil
	}

	if err := n.reorganize(res.Chain); err != nil {
		return false, err
	}

	n.evHandler(`viewer: reorg: {"node":%q,"from":%q,"height":%d,"tip":%q}`, n.name, from, n.chain.LatestBlock().Header.Number, n.chain.LatestBlock().Hash())

	return true, nil
}

// Fork truncates the chain of the node so the block with the specified number
// becomes the tip. Transactions of the removed blocks go back to the pool.
func (n *Node) Fork(number uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	forked, err := n.chain.Fork(number)
	if err != nil {
		return err
	}

	abandoned := n.abandoned(forked)
	n.chain = forked
	n.returnToPool(abandoned)
	n.evictSettled()

	n.evHandler("node: %s: Fork: tip[%d]: returned[%d]", n.name, number, len(abandoned))

	return nil
}

// =============================================================================

// reorganize replaces the local chain with the winner of the fork choice.
// The caller must hold the lock.
func (n *Node) reorganize(winner *database.Chain) error {
	abandoned := n.abandoned(winner)

	if !n.chain.ReplaceWith(winner) {
		return fmt.Errorf("%w: replacement chain refused", database.ErrInvalidBlock)
	}

	n.evictSettled()
	n.returnToPool(abandoned)

	n.evHandler("node: %s: reorganize: height[%d]: returned[%d]", n.name, n.chain.LatestBlock().Header.Number, len(abandoned))

	return nil
}

// abandoned returns the user transactions held by local blocks the other
// chain doesn't share. The caller must hold the lock.
func (n *Node) abandoned(other *database.Chain) []database.Tx {
	local := n.chain.Blocks()
	theirs := other.Blocks()

	fork := 0
	for fork < len(local) && fork < len(theirs) && local[fork].Hash() == theirs[fork].Hash() {
		fork++
	}

	var txs []database.Tx
	for _, block := range local[fork:] {
		for _, tx := range block.Trans.Values() {
			if !tx.IsCoinbase() {
				txs = append(txs, tx)
			}
		}
	}

	return txs
}
