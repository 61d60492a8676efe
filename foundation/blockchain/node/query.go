package node

import (
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/peer"
)

// Chain returns a snapshot of the chain of the node.
func (n *Node) Chain() *database.Chain {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.chain.Clone()
}

// Blocks returns a copy of the blocks of the chain.
func (n *Node) Blocks() []database.Block {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.chain.Blocks()
}

// LatestBlock returns the tip of the chain.
func (n *Node) LatestBlock() database.Block {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.chain.LatestBlock()
}

// IsChainValid walks the whole chain and reports whether it's valid.
func (n *Node) IsChainValid() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.chain.IsValid()
}

// Mempool returns a copy of the pending transactions.
func (n *Node) Mempool() []database.Tx {
	return n.mempool.Copy()
}

// Status returns the current status of the node.
func (n *Node) Status() peer.PeerStatus {
	n.mu.Lock()
	defer n.mu.Unlock()

	tip := n.chain.LatestBlock()

	return peer.PeerStatus{
		Name:              n.name,
		LatestBlockHash:   tip.Hash(),
		LatestBlockNumber: tip.Header.Number,
		TotalWork:         n.chain.TotalWork().Dec(),
		PendingTxs:        n.mempool.Count(),
		Withholding:       n.withholding,
		KnownPeers:        n.knownPeers.Copy(n.name),
	}
}
