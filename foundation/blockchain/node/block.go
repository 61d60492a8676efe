package node

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// MineNewBlock takes a batch of transactions out of the pool and performs the
// proof of work on top of the current tip. On failure, or when the tip moved
// while mining, the batch is returned to the pool. Mining an empty pool
// produces a block holding only the coinbase.
func (n *Node) MineNewBlock(ctx context.Context) (database.Block, error) {
	n.mu.Lock()
	tip := n.chain.LatestBlock()
	batch := n.mempool.PickBatch(n.transPerBlock)
	n.mu.Unlock()

	n.evHandler("node: %s: MineNewBlock: MINING: perform POW: prevBlk[%d]: numTrans[%d]", n.name, tip.Header.Number, len(batch))

	block, err := database.POW(ctx, database.POWArgs{
		Beneficiary:  n.beneficiary,
		Difficulty:   n.genesis.Difficulty,
		MiningReward: n.genesis.MiningReward,
		Currency:     n.genesis.Currency,
		PrevBlock:    tip,
		Trans:        batch,
		MaxAttempts:  n.maxAttempts,
		Clock:        n.clock,
		EvHandler:    n.evHandler,
	})

	n.mu.Lock()
	defer n.mu.Unlock()

	if err != nil {
		n.returnToPool(batch)
		return database.Block{}, err
	}

	if n.chain.LatestBlock().Hash() != tip.Hash() {
		n.returnToPool(batch)
		return database.Block{}, fmt.Errorf("%w: blk[%d] discarded", ErrTipChanged, block.Header.Number)
	}

	n.evHandler("node: %s: MineNewBlock: MINING: validate and update chain", n.name)

	if err := n.chain.Append(block); err != nil {
		n.returnToPool(batch)
		return database.Block{}, err
	}

	n.evictSettled()
	n.blockEvent(block)

	return block, nil
}

// Broadcast delivers the block to every known peer. Nothing is sent while the
// node is withholding. This must be called without holding the node lock.
func (n *Node) Broadcast(block database.Block) {
	if n.network == nil || n.Withholding() {
		n.evHandler("node: %s: Broadcast: suppressed: blk[%d]", n.name, block.Header.Number)
		return
	}

	n.network.SendBlock(n.name, block)
}

// BroadcastChain delivers the full chain to every known peer. Nothing is
// sent while the node is withholding.
func (n *Node) BroadcastChain() {
	if n.network == nil || n.Withholding() {
		n.evHandler("node: %s: BroadcastChain: suppressed", n.name)
		return
	}

	n.network.SendChain(n.name, n.Blocks())
}

// ProcessProposedBlock takes a block received from a peer. A block extending
// the tip is validated and appended, any other block makes the node request
// the full chain of the sender and run the fork choice.
func (n *Node) ProcessProposedBlock(from string, block database.Block) error {
	n.evHandler("node: %s: ProcessProposedBlock: started: from[%s]: blk[%d]: hash[%s]", n.name, from, block.Header.Number, block.Hash())
	defer n.evHandler("node: %s: ProcessProposedBlock: completed: blk[%d]", n.name, block.Header.Number)

	n.mu.Lock()

	if n.withholding {
		n.mu.Unlock()
		n.evHandler("node: %s: ProcessProposedBlock: ignored: withholding", n.name)
		return nil
	}

	tip := n.chain.LatestBlock()

	switch {
	case block.Header.PrevBlockHash == tip.Hash():
		defer n.mu.Unlock()

		if err := n.chain.Append(block); err != nil {
			n.evHandler("node: %s: ProcessProposedBlock: rejected-peer-update: from[%s]: %s", n.name, from, err)
			return err
		}

		n.evictSettled()
		n.blockEvent(block)

		return nil

	case block.Hash() == tip.Hash():
		n.mu.Unlock()
		return nil
	}

	n.mu.Unlock()

	if n.network == nil {
		return fmt.Errorf("%w: blk[%d] does not extend the tip", database.ErrInvalidBlock, block.Header.Number)
	}

	blocks, err := n.network.RequestChain(from)
	if err != nil {
		n.evHandler("node: %s: ProcessProposedBlock: rejected-peer-update: from[%s]: %s", n.name, from, err)
		return err
	}

	_, err = n.ProcessProposedChain(from, blocks)
	return err
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (n *Node) blockEvent(block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	blockTransJSON, err := json.Marshal(block.Trans.Values())
	if err != nil {
		blockTransJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	n.evHandler(`viewer: block: {"node":%q,"hash":%q,"header":%s,"trans":%s}`, n.name, block.Hash(), string(blockHeaderJSON), string(blockTransJSON))
}
