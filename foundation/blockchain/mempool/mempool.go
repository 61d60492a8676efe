// Package mempool maintains the pending transaction pool for a node.
package mempool

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/mempool/selector"
)

// Mempool represents a cache of transactions organized by sender:nonce.
// The first transaction seen for a spend key holds it, a different
// transaction for the same key is rejected as a conflict.
type Mempool struct {
	pool     map[string]database.Tx
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default select strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyTime)
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]database.Tx),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool. It returns ErrTxKnown when the
// transaction is already held and ErrTxConflict when a different
// transaction holds the spend key.
func (mp *Mempool) Upsert(tx database.Tx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := tx.SpendKey()

	if held, exists := mp.pool[key]; exists {
		if held.ID() == tx.ID() {
			return len(mp.pool), fmt.Errorf("%w: tx[%s]", database.ErrTxKnown, tx)
		}
		return len(mp.pool), fmt.Errorf("%w: tx[%s] spends the same funds as pending tx[%s]", database.ErrTxConflict, tx, held)
	}

	mp.pool[key] = tx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if held, exists := mp.pool[tx.SpendKey()]; exists && held.ID() == tx.ID() {
		delete(mp.pool, tx.SpendKey())
	}
}

// Holder returns the transaction holding the spend key of the specified
// transaction.
func (mp *Mempool) Holder(tx database.Tx) (database.Tx, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	held, exists := mp.pool[tx.SpendKey()]
	return held, exists
}

// Evict removes every transaction the function reports true for and returns
// the removed transactions.
func (mp *Mempool) Evict(fn func(tx database.Tx) bool) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var evicted []database.Tx
	for key, tx := range mp.pool {
		if fn(tx) {
			evicted = append(evicted, tx)
			delete(mp.pool, key)
		}
	}

	return evicted
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.Tx)
}

// Copy returns every transaction in the pool in the select strategy order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.selectFn(mp.group(), -1)
}

// PickBatch uses the configured select strategy to return the next set of
// transactions for the next block and removes them from the pool in the
// same operation. Pass -1 for all the transactions.
func (mp *Mempool) PickBatch(howMany int) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	batch := mp.selectFn(mp.group(), howMany)
	for _, tx := range batch {
		delete(mp.pool, tx.SpendKey())
	}

	return batch
}

// group returns the transactions grouped by sender. The caller must hold
// the lock.
func (mp *Mempool) group() map[string][]database.Tx {
	m := make(map[string][]database.Tx)
	for _, tx := range mp.pool {
		m[tx.Sender] = append(m[tx.Sender], tx)
	}

	return m
}
