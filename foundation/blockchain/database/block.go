package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ardanlabs/doublespend/foundation/blockchain/digest"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/ardanlabs/doublespend/foundation/blockchain/merkle"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// GenesisBeneficiary receives the zero amount coinbase of a genesis block
// that has no allocations.
const GenesisBeneficiary = "genesis"

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64          `json:"number"`          // Block number in the chain, genesis is 0.
	PrevBlockHash string          `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     uint64          `json:"timestamp"`       // Unix milliseconds the block was mined.
	Nonce         uint64          `json:"nonce"`           // Value identified to solve the hash solution.
	Difficulty    int             `json:"difficulty"`      // Number of leading 0's needed to solve the hash solution.
	Beneficiary   string          `json:"beneficiary"`     // The account who is receiving the mining reward.
	MiningReward  decimal.Decimal `json:"mining_reward"`   // The reward paid by the coinbase transaction.
	TransRoot     string          `json:"trans_root"`      // Merkle tree root hash for the transactions in this block.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[Tx]
}

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Beneficiary  string
	Difficulty   int
	MiningReward decimal.Decimal
	Currency     string
	PrevBlock    Block
	Trans        []Tx
	MaxAttempts  uint64           // Zero means no limit.
	Clock        func() time.Time // Defaults to time.Now.
	EvHandler    func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The coinbase reward transaction is
// appended as the last transaction of the block.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	if args.Difficulty < 0 || args.Difficulty > genesis.MaxDifficulty {
		return Block{}, fmt.Errorf("%w: difficulty %d out of range", ErrInvalidBlock, args.Difficulty)
	}

	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	clock := args.Clock
	if clock == nil {
		clock = time.Now
	}

	// A block can't be older than its parent.
	timeStamp := uint64(clock().UTC().UnixMilli())
	if timeStamp < args.PrevBlock.Header.TimeStamp {
		timeStamp = args.PrevBlock.Header.TimeStamp
	}

	number := args.PrevBlock.Header.Number + 1

	trans := make([]Tx, 0, len(args.Trans)+1)
	trans = append(trans, args.Trans...)
	trans = append(trans, NewCoinbaseTx(args.Beneficiary, args.MiningReward, args.Currency, number, timeStamp))

	// Construct a merkle tree from the transaction for this block. The root
	// of this tree will be part of the block to be mined.
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			Number:        number,
			PrevBlockHash: args.PrevBlock.Hash(),
			TimeStamp:     timeStamp,
			Nonce:         0, // Will be identified by the POW algorithm.
			Difficulty:    args.Difficulty,
			Beneficiary:   args.Beneficiary,
			MiningReward:  args.MiningReward,
			TransRoot:     tree.RootHex(),
		},
		Trans: tree,
	}

	if err := nb.performPOW(ctx, args.MaxAttempts, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
// The nonce starts at zero so the same template always finds the same
// solution.
func (b *Block) performPOW(ctx context.Context, maxAttempts uint64, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]: difficulty[%d]", b.Header.Number, b.Header.Difficulty)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Header.Number)

	for _, tx := range b.Trans.Values() {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	var attempts uint64
	for {
		if maxAttempts > 0 && attempts >= maxAttempts {
			ev("database: PerformPOW: MINING: TIMEOUT: attempts[%d]", attempts)
			return fmt.Errorf("%w: blk[%d]: attempts[%d]", ErrMiningTimeout, b.Header.Number, attempts)
		}

		attempts++
		if attempts%100_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.Hash()
		if !digest.IsSolved(hash, b.Header.Difficulty) {
			b.Header.Nonce++
			continue
		}

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.Header.PrevBlockHash, hash, attempts)

		return nil
	}
}

// Hash returns the unique hash for the Block. The header commits to the
// transactions through the merkle root.
func (b Block) Hash() string {
	return digest.Hash(b.Header)
}

// Work returns the amount of work the block represents, 16^difficulty.
func (b Block) Work() *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), uint(4*b.Header.Difficulty))
}

// Coinbase returns the reward transaction of a mined block.
func (b Block) Coinbase() (Tx, bool) {
	values := b.Trans.Values()
	if len(values) == 0 {
		return Tx{}, false
	}

	last := values[len(values)-1]
	return last, last.IsCoinbase()
}

// ValidateBlock takes a block and validates it to be included after the
// previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrInvalidBlock, b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrInvalidBlock, b.Header.PrevBlockHash, previousBlock.Hash())
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block difficulty is the same or greater than parent block difficulty", b.Header.Number)

	if b.Header.Difficulty < previousBlock.Header.Difficulty {
		return fmt.Errorf("%w: block difficulty is less than previous block difficulty, parent %d, block %d", ErrInvalidBlock, previousBlock.Header.Difficulty, b.Header.Difficulty)
	}

	if b.Header.Difficulty > genesis.MaxDifficulty {
		return fmt.Errorf("%w: block difficulty %d is above %d", ErrInvalidBlock, b.Header.Difficulty, genesis.MaxDifficulty)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Number)

	hash := b.Hash()
	if !digest.IsSolved(hash, b.Header.Difficulty) {
		return fmt.Errorf("%w: %s invalid block hash", ErrInvalidBlock, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.Header.Number)

	if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
		return fmt.Errorf("%w: block timestamp is before parent block, parent %d, block %d", ErrInvalidBlock, previousBlock.Header.TimeStamp, b.Header.TimeStamp)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	if b.Trans == nil || b.Header.TransRoot != b.Trans.RootHex() {
		return fmt.Errorf("%w: merkle root does not match transactions", ErrInvalidBlock)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: coinbase is the last transaction", b.Header.Number)

	values := b.Trans.Values()
	for i, tx := range values {
		last := i == len(values)-1
		switch {
		case last && !tx.IsCoinbase():
			return fmt.Errorf("%w: last transaction is not a coinbase", ErrInvalidBlock)
		case !last && tx.IsCoinbase():
			return fmt.Errorf("%w: coinbase at position %d is not the last transaction", ErrInvalidBlock, i)
		}
	}

	coinbase := values[len(values)-1]
	if coinbase.Receiver != b.Header.Beneficiary || !coinbase.Amount.Equal(b.Header.MiningReward) {
		return fmt.Errorf("%w: coinbase does not pay %s %s to %s", ErrInvalidBlock, b.Header.MiningReward, coinbase.Currency, b.Header.Beneficiary)
	}

	return nil
}

// =============================================================================

// newGenesisBlock constructs the genesis block for the configuration. The
// block carries the allocations as network transactions and is never mined.
func newGenesisBlock(g genesis.Genesis) (Block, error) {
	timeStamp := uint64(g.Date.UTC().UnixMilli())

	accounts := make([]string, 0, len(g.Balances))
	for account := range g.Balances {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	trans := make([]Tx, 0, len(accounts)+1)
	for i, account := range accounts {
		trans = append(trans, NewCoinbaseTx(account, g.Balances[account], g.Currency, uint64(i), timeStamp))
	}

	if len(trans) == 0 {
		trans = append(trans, NewCoinbaseTx(GenesisBeneficiary, decimal.Zero, g.Currency, 0, timeStamp))
	}

	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, err
	}

	b := Block{
		Header: BlockHeader{
			Number:        0,
			PrevBlockHash: digest.ZeroHash,
			TimeStamp:     timeStamp,
			Difficulty:    g.Difficulty,
			Beneficiary:   GenesisBeneficiary,
			MiningReward:  decimal.Zero,
			TransRoot:     tree.RootHex(),
		},
		Trans: tree,
	}

	return b, nil
}

// =============================================================================

// BlockData represents the flat form of a block used for serialization.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []Tx        `json:"trans"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans.Values(),
	}
}

// ToBlock converts a BlockData into a Block. The recorded hash must match
// the hash of the rebuilt block.
func ToBlock(blockData BlockData) (Block, error) {
	tree, err := merkle.NewTree(blockData.Trans)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}

	nb := Block{
		Header: blockData.Header,
		Trans:  tree,
	}

	if hash := nb.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("%w: hash mismatch, got %s, exp %s", ErrInvalidBlock, hash, blockData.Hash)
	}

	return nb, nil
}
