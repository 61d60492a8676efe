// Package database handles the lower level support for maintaining a chain
// of blocks in memory: transactions, blocks, proof of work, validation and
// the ledger produced by replaying a chain.
package database

import (
	"fmt"

	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/holiman/uint256"
)

// txLocation records where a transaction lives in the chain.
type txLocation struct {
	number uint64
	tx     Tx
}

// Chain represents an ordered set of blocks starting with genesis where every
// block is linked to and validated against its parent. A Chain is not safe
// for concurrent use, the owner provides the locking.
type Chain struct {
	genesis   genesis.Genesis
	evHandler func(v string, args ...any)
	blocks    []Block
	txs       map[string]txLocation // tx id -> location
	spends    map[string]string     // spend key -> tx id
	ledger    Ledger
	work      *uint256.Int
}

// NewChain constructs a chain holding only the genesis block.
func NewChain(g genesis.Genesis, evHandler func(v string, args ...any)) (*Chain, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	gb, err := newGenesisBlock(g)
	if err != nil {
		return nil, err
	}

	c := Chain{
		genesis:   g,
		evHandler: evHandler,
		blocks:    []Block{gb},
		txs:       make(map[string]txLocation),
		spends:    make(map[string]string),
		ledger:    make(Ledger),
		work:      gb.Work(),
	}

	for _, tx := range gb.Trans.Values() {
		c.txs[tx.ID()] = txLocation{number: 0, tx: tx}
		c.ledger.apply(tx)
	}

	return &c, nil
}

// FromBlocks constructs a chain from the specified blocks, validating every
// block along the way. The first block must be the genesis block of the
// configuration.
func FromBlocks(g genesis.Genesis, blocks []Block, evHandler func(v string, args ...any)) (*Chain, error) {
	c, err := NewChain(g, evHandler)
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: chain has no blocks", ErrInvalidBlock)
	}

	if blocks[0].Hash() != c.blocks[0].Hash() {
		return nil, fmt.Errorf("%w: genesis mismatch, got %s, exp %s", ErrInvalidBlock, blocks[0].Hash(), c.blocks[0].Hash())
	}

	for _, block := range blocks[1:] {
		if err := c.Append(block); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// FromData constructs a chain from its serialized form.
func FromData(g genesis.Genesis, data []BlockData, evHandler func(v string, args ...any)) (*Chain, error) {
	blocks := make([]Block, len(data))
	for i, bd := range data {
		block, err := ToBlock(bd)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}

	return FromBlocks(g, blocks, evHandler)
}

// =============================================================================

// Append validates the block against the tip of the chain and on success
// makes it the new tip. A rejected block leaves the chain unchanged.
func (c *Chain) Append(block Block) error {
	tip := c.LatestBlock()

	if err := block.ValidateBlock(tip, c.evHandler); err != nil {
		return err
	}

	c.evHandler("database: Append: validate: blk[%d]: check: transactions", block.Header.Number)

	values := block.Trans.Values()
	coinbase := values[len(values)-1]

	if coinbase.Currency != c.genesis.Currency || !coinbase.Amount.Equal(c.genesis.MiningReward) {
		return fmt.Errorf("%w: coinbase pays %s %s, exp %s %s", ErrInvalidBlock, coinbase.Amount, coinbase.Currency, c.genesis.MiningReward, c.genesis.Currency)
	}

	// Track the spends of this block so a block can't confirm a double
	// spend on its own either.
	spends := make(map[string]string)
	ledger := c.ledger
	if c.genesis.EnforceBalances {
		ledger = c.ledger.Copy()
	}

	for _, tx := range values {
		id := tx.ID()

		if _, exists := c.txs[id]; exists {
			return fmt.Errorf("%w: tx[%s] is already in block %d", ErrInvalidBlock, tx, c.txs[id].number)
		}

		if !tx.IsCoinbase() {
			if err := tx.Validate(c.genesis.Currencies); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidBlock, err)
			}

			key := tx.SpendKey()
			if other, exists := c.spends[key]; exists {
				return fmt.Errorf("%w: tx[%s] conflicts with tx[%s] in block %d", ErrInvalidBlock, tx, c.txs[other].tx, c.txs[other].number)
			}
			if other, exists := spends[key]; exists && other != id {
				return fmt.Errorf("%w: tx[%s] conflicts with another tx in the same block", ErrInvalidBlock, tx)
			}
			if _, exists := spends[key]; exists {
				return fmt.Errorf("%w: tx[%s] appears twice in the block", ErrInvalidBlock, tx)
			}
			spends[key] = id
		}

		if c.genesis.EnforceBalances {
			ledger.apply(tx)
			if err := ledger.checkSender(tx); err != nil {
				return err
			}
		}
	}

	// All checks passed, the block becomes the tip.
	if !c.genesis.EnforceBalances {
		for _, tx := range values {
			ledger.apply(tx)
		}
	}
	c.ledger = ledger

	for _, tx := range values {
		c.txs[tx.ID()] = txLocation{number: block.Header.Number, tx: tx}
	}
	for key, id := range spends {
		c.spends[key] = id
	}
	c.blocks = append(c.blocks, block)
	c.work = new(uint256.Int).Add(c.work, block.Work())

	c.evHandler("database: Append: blk[%d]: hash[%s]: work[%s]", block.Header.Number, block.Hash(), c.work.Dec())

	return nil
}

// Validate walks the whole chain from genesis and returns the first
// violation found.
func (c *Chain) Validate() error {
	_, err := FromBlocks(c.genesis, c.blocks, nil)
	return err
}

// IsValid reports whether the whole chain is valid.
func (c *Chain) IsValid() bool {
	return c.Validate() == nil
}

// ReplaceWith replaces the blocks of this chain with the candidate when the
// candidate is valid, starts from the same genesis and carries strictly more
// work. Ties keep the current chain.
func (c *Chain) ReplaceWith(candidate *Chain) bool {
	if candidate == nil || candidate.GenesisHash() != c.GenesisHash() {
		return false
	}

	if !candidate.TotalWork().Gt(c.TotalWork()) {
		return false
	}

	valid, err := FromBlocks(c.genesis, candidate.blocks, c.evHandler)
	if err != nil {
		c.evHandler("database: ReplaceWith: rejected: %s", err)
		return false
	}

	c.blocks = valid.blocks
	c.txs = valid.txs
	c.spends = valid.spends
	c.ledger = valid.ledger
	c.work = valid.work

	return true
}

// Clone returns an independent copy of the chain. Blocks are immutable once
// sealed so they are shared.
func (c *Chain) Clone() *Chain {
	cpy := Chain{
		genesis:   c.genesis,
		evHandler: c.evHandler,
		blocks:    append([]Block(nil), c.blocks...),
		txs:       make(map[string]txLocation, len(c.txs)),
		spends:    make(map[string]string, len(c.spends)),
		ledger:    c.ledger.Copy(),
		work:      new(uint256.Int).Set(c.work),
	}

	for id, loc := range c.txs {
		cpy.txs[id] = loc
	}
	for key, id := range c.spends {
		cpy.spends[key] = id
	}

	return &cpy
}

// Fork returns a private copy of the chain truncated so the block with the
// specified number is the tip.
func (c *Chain) Fork(number uint64) (*Chain, error) {
	if number >= uint64(len(c.blocks)) {
		return nil, fmt.Errorf("fork point %d is beyond the tip %d", number, c.LatestBlock().Header.Number)
	}

	return FromBlocks(c.genesis, c.blocks[:number+1], c.evHandler)
}

// =============================================================================

// Genesis returns the genesis configuration of the chain.
func (c *Chain) Genesis() genesis.Genesis {
	return c.genesis
}

// GenesisHash returns the hash of the genesis block.
func (c *Chain) GenesisHash() string {
	return c.blocks[0].Hash()
}

// Blocks returns a copy of the blocks in the chain.
func (c *Chain) Blocks() []Block {
	return append([]Block(nil), c.blocks...)
}

// LatestBlock returns the tip of the chain.
func (c *Chain) LatestBlock() Block {
	return c.blocks[len(c.blocks)-1]
}

// Length returns the number of blocks including genesis.
func (c *Chain) Length() int {
	return len(c.blocks)
}

// TotalWork returns the sum of the work of every block.
func (c *Chain) TotalWork() *uint256.Int {
	return new(uint256.Int).Set(c.work)
}

// FindTx returns the transaction with the id and the number of the block
// holding it.
func (c *Chain) FindTx(id string) (Tx, uint64, bool) {
	loc, exists := c.txs[id]
	return loc.tx, loc.number, exists
}

// Confirmations returns the number of blocks mined on top of the block
// holding the transaction, -1 when the transaction isn't in the chain.
func (c *Chain) Confirmations(id string) int {
	loc, exists := c.txs[id]
	if !exists {
		return -1
	}

	return int(c.LatestBlock().Header.Number - loc.number)
}

// ConflictFor returns the transaction in the chain spending the same funds
// as the specified transaction.
func (c *Chain) ConflictFor(tx Tx) (Tx, bool) {
	if tx.IsCoinbase() {
		return Tx{}, false
	}

	id, exists := c.spends[tx.SpendKey()]
	if !exists || id == tx.ID() {
		return Tx{}, false
	}

	return c.txs[id].tx, true
}

// Ledger returns a copy of the balances produced by the chain.
func (c *Chain) Ledger() Ledger {
	return c.ledger.Copy()
}

// Data returns the serialized form of the chain.
func (c *Chain) Data() []BlockData {
	data := make([]BlockData, len(c.blocks))
	for i, block := range c.blocks {
		data[i] = NewBlockData(block)
	}

	return data
}
