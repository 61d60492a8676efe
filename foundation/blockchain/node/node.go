// Package node is the core API for a blockchain node in the simulated
// network and implements the business rules for accepting transactions,
// mining blocks and reconciling with peers.
package node

import (
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
	"github.com/ardanlabs/doublespend/foundation/blockchain/mempool"
	"github.com/ardanlabs/doublespend/foundation/blockchain/peer"
)

// ErrTipChanged is returned when the tip of the chain moved while a block
// was being mined. The block is discarded.
var ErrTipChanged = errors.New("chain tip changed while mining")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start a node.
type Config struct {
	Name           string
	Genesis        genesis.Genesis
	Chain          *database.Chain // Optional starting chain, the node works on a copy.
	HashShare      float64
	Network        *Network // Optional, the node is registered when provided.
	SelectStrategy string
	TransPerBlock  int    // Zero takes the genesis value, negative is unlimited.
	MaxAttempts    uint64 // Zero means mining is unbounded.
	Beneficiary    string // Defaults to the node name.
	Currencies     []string
	EvHandler      EventHandler
	Clock          func() time.Time
}

// Node manages a chain, a pending pool and the set of peers it talks to.
type Node struct {
	name          string
	beneficiary   string
	hashShare     float64
	genesis       genesis.Genesis
	currencies    []string
	transPerBlock int
	maxAttempts   uint64
	clock         func() time.Time
	evHandler     EventHandler
	network       *Network
	knownPeers    *peer.PeerSet

	mu          sync.Mutex
	chain       *database.Chain
	mempool     *mempool.Mempool
	withholding bool
}

// New constructs a new node.
func New(cfg Config) (*Node, error) {
	if cfg.Name == "" {
		return nil, errors.New("node name is required")
	}

	if cfg.HashShare < 0 || cfg.HashShare > 1 {
		return nil, errors.New("hash share must be between 0 and 1")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	var chain *database.Chain
	switch cfg.Chain {
	case nil:
		var err error
		chain, err = database.NewChain(cfg.Genesis, ev)
		if err != nil {
			return nil, err
		}

	default:
		var err error
		chain, err = database.FromBlocks(cfg.Chain.Genesis(), cfg.Chain.Blocks(), ev)
		if err != nil {
			return nil, err
		}
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = "time"
	}

	mp, err := mempool.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	transPerBlock := cfg.TransPerBlock
	if transPerBlock == 0 {
		transPerBlock = int(chain.Genesis().TransPerBlock)
		if transPerBlock == 0 {
			transPerBlock = -1
		}
	}

	beneficiary := cfg.Beneficiary
	if beneficiary == "" {
		beneficiary = cfg.Name
	}

	currencies := cfg.Currencies
	if len(currencies) == 0 {
		currencies = chain.Genesis().Currencies
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	n := Node{
		name:          cfg.Name,
		beneficiary:   beneficiary,
		hashShare:     cfg.HashShare,
		genesis:       chain.Genesis(),
		currencies:    currencies,
		transPerBlock: transPerBlock,
		maxAttempts:   cfg.MaxAttempts,
		clock:         clock,
		evHandler:     ev,
		network:       cfg.Network,
		knownPeers:    peer.NewPeerSet(),
		chain:         chain,
		mempool:       mp,
	}

	if cfg.Network != nil {
		if err := cfg.Network.Register(&n); err != nil {
			return nil, err
		}
	}

	return &n, nil
}

// Name returns the name of the node.
func (n *Node) Name() string {
	return n.name
}

// Beneficiary returns the account receiving the mining rewards.
func (n *Node) Beneficiary() string {
	return n.beneficiary
}

// HashShare returns the fraction of the network hash power of the node.
func (n *Node) HashShare() float64 {
	return n.hashShare
}

// Genesis returns the genesis the chain of the node starts from.
func (n *Node) Genesis() genesis.Genesis {
	return n.genesis
}

// AddKnownPeer provides the ability to add a new peer to the known peer list.
func (n *Node) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(n.name) {
		return false
	}

	return n.knownPeers.Add(pr)
}

// KnownPeers retrieves a copy of the known peer list.
func (n *Node) KnownPeers() []peer.Peer {
	return n.knownPeers.Copy(n.name)
}

// Withhold turns private mining on or off. A withholding node neither
// broadcasts nor accepts peer updates.
func (n *Node) Withhold(on bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.withholding = on
	n.evHandler("node: %s: Withhold: withholding[%v]", n.name, on)
}

// Withholding reports whether the node is mining privately.
func (n *Node) Withholding() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.withholding
}
