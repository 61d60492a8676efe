package node

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction into the pending pool. The first
// transaction seen for a spend key wins, a different transaction spending
// the same funds is rejected with ErrTxConflict.
func (n *Node) SubmitTransaction(tx database.Tx) error {
	if err := tx.Validate(n.currencies); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, _, exists := n.chain.FindTx(tx.ID()); exists {
		return fmt.Errorf("%w: tx[%s] is in the chain", database.ErrTxKnown, tx)
	}

	if held, exists := n.chain.ConflictFor(tx); exists {
		return fmt.Errorf("%w: tx[%s] spends the same funds as confirmed tx[%s]", database.ErrTxConflict, tx, held)
	}

	if _, err := n.mempool.Upsert(tx); err != nil {
		return err
	}

	n.evHandler("node: %s: SubmitTransaction: accepted tx[%s]: id[%s]", n.name, tx, tx.ID())
	n.evHandler(`viewer: tx: {"node":%q,"id":%q,"tx":%q}`, n.name, tx.ID(), tx)

	return nil
}

// ShareTx sends the transaction to every known peer. Nothing is shared while
// the node is withholding.
func (n *Node) ShareTx(tx database.Tx) {
	if n.network == nil || n.Withholding() {
		return
	}

	n.network.SendTx(n.name, tx)
}

// ReceiveTx handles a transaction shared by a peer.
func (n *Node) ReceiveTx(from string, tx database.Tx) error {
	err := n.SubmitTransaction(tx)
	switch {
	case err == nil:
		return nil

	case errors.Is(err, database.ErrTxKnown):
		return nil

	default:
		n.evHandler("node: %s: ReceiveTx: rejected-peer-tx: from[%s]: %s", n.name, from, err)
		return err
	}
}

// returnToPool places transactions back into the pending pool unless the
// chain already holds them or a conflicting spend. The caller must hold
// the lock.
func (n *Node) returnToPool(txs []database.Tx) {
	for _, tx := range txs {
		if tx.IsCoinbase() {
			continue
		}

		if _, _, exists := n.chain.FindTx(tx.ID()); exists {
			continue
		}

		if _, exists := n.chain.ConflictFor(tx); exists {
			n.evHandler("node: %s: returnToPool: dropped tx[%s]: conflicts with the chain", n.name, tx)
			continue
		}

		if _, err := n.mempool.Upsert(tx); err != nil && !errors.Is(err, database.ErrTxKnown) {
			n.evHandler("node: %s: returnToPool: dropped tx[%s]: %s", n.name, tx, err)
		}
	}
}

// evictSettled removes pool entries the chain already holds or that
// conflict with a spend in the chain. The caller must hold the lock.
func (n *Node) evictSettled() {
	evicted := n.mempool.Evict(func(tx database.Tx) bool {
		if _, _, exists := n.chain.FindTx(tx.ID()); exists {
			return true
		}
		_, conflict := n.chain.ConflictFor(tx)
		return conflict
	})

	for _, tx := range evicted {
		n.evHandler("node: %s: evictSettled: removed tx[%s]", n.name, tx)
	}
}

// DiscardTx removes the transaction from the pending pool.
func (n *Node) DiscardTx(tx database.Tx) {
	n.mempool.Delete(tx)
	n.evHandler("node: %s: DiscardTx: tx[%s]", n.name, tx)
}
