package node

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/peer"
)

// Network is the in-process registry resolving peer names to nodes. Nodes
// only know each other by name, delivery is synchronous and in order.
type Network struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	evHandler EventHandler
}

// NewNetwork constructs an empty network.
func NewNetwork(evHandler EventHandler) *Network {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	return &Network{
		nodes:     make(map[string]*Node),
		evHandler: evHandler,
	}
}

// Register adds the node to the registry.
func (nw *Network) Register(n *Node) error {
	nw.mu.Lock()
	defer nw.mu.Unlock()

	if _, exists := nw.nodes[n.name]; exists {
		return fmt.Errorf("node %q is already registered", n.name)
	}

	nw.nodes[n.name] = n

	return nil
}

// Node returns the node registered with the name.
func (nw *Network) Node(name string) (*Node, bool) {
	nw.mu.RLock()
	defer nw.mu.RUnlock()

	n, exists := nw.nodes[name]
	return n, exists
}

// Names returns the names of the registered nodes in sorted order.
func (nw *Network) Names() []string {
	nw.mu.RLock()
	defer nw.mu.RUnlock()

	names := make([]string, 0, len(nw.nodes))
	for name := range nw.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Connect makes every registered node a known peer of every other node.
func (nw *Network) Connect() {
	names := nw.Names()

	for _, name := range names {
		n, _ := nw.Node(name)
		for _, other := range names {
			n.AddKnownPeer(peer.New(other))
		}
	}
}

// Peers returns the known peers of the named node.
func (nw *Network) Peers(name string) []peer.Peer {
	n, exists := nw.Node(name)
	if !exists {
		return nil
	}

	return n.KnownPeers()
}

// SendBlock delivers a block from the named node to all its peers.
func (nw *Network) SendBlock(from string, block database.Block) {
	nw.evHandler("network: SendBlock: started: from[%s]: blk[%d]", from, block.Header.Number)
	defer nw.evHandler("network: SendBlock: completed: from[%s]", from)

	for _, n := range nw.resolve(from) {
		if err := n.ProcessProposedBlock(from, block); err != nil {
			nw.evHandler("network: SendBlock: peer[%s]: WARNING: %s", n.name, err)
		}
	}
}

// SendChain delivers a full chain from the named node to all its peers.
func (nw *Network) SendChain(from string, blocks []database.Block) {
	nw.evHandler("network: SendChain: started: from[%s]: blocks[%d]", from, len(blocks))
	defer nw.evHandler("network: SendChain: completed: from[%s]", from)

	for _, n := range nw.resolve(from) {
		if _, err := n.ProcessProposedChain(from, blocks); err != nil {
			nw.evHandler("network: SendChain: peer[%s]: WARNING: %s", n.name, err)
		}
	}
}

// SendTx delivers a transaction from the named node to all its peers.
func (nw *Network) SendTx(from string, tx database.Tx) {
	nw.evHandler("network: SendTx: started: from[%s]: tx[%s]", from, tx)
	defer nw.evHandler("network: SendTx: completed: from[%s]", from)

	for _, n := range nw.resolve(from) {
		if err := n.ReceiveTx(from, tx); err != nil {
			nw.evHandler("network: SendTx: peer[%s]: WARNING: %s", n.name, err)
		}
	}
}

// RequestChain asks the named node for its full chain.
func (nw *Network) RequestChain(name string) ([]database.Block, error) {
	n, exists := nw.Node(name)
	if !exists {
		return nil, fmt.Errorf("node %q is not registered", name)
	}

	return n.Blocks(), nil
}

// resolve returns the registered nodes for the peers of the named node.
// Peers unknown to the registry are skipped.
func (nw *Network) resolve(from string) []*Node {
	var nodes []*Node
	for _, pr := range nw.Peers(from) {
		n, exists := nw.Node(pr.Name)
		if !exists {
			nw.evHandler("network: peer[%s]: WARNING: unknown to the registry", pr.Name)
			continue
		}
		nodes = append(nodes, n)
	}

	return nodes
}
