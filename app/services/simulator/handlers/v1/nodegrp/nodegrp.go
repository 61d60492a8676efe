// Package nodegrp maintains the group of handlers for driving the nodes of
// the service network by hand: submit, mine, inspect and connect.
package nodegrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/doublespend/business/sys/validate"
	"github.com/ardanlabs/doublespend/business/web/errs"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/node"
	"github.com/ardanlabs/doublespend/foundation/blockchain/peer"
	"github.com/ardanlabs/doublespend/foundation/web"
	"go.uber.org/zap"
)

// ErrNodeNotFound is returned when a node name isn't registered.
var ErrNodeNotFound = errors.New("node not found")

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Network *node.Network
}

// Query returns the status of every node of the network.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	names := h.Network.Names()

	statuses := make([]peer.PeerStatus, 0, len(names))
	for _, name := range names {
		if n, exists := h.Network.Node(name); exists {
			statuses = append(statuses, n.Status())
		}
	}

	return web.Respond(ctx, w, statuses, http.StatusOK)
}

// SubmitTransaction adds a new transaction to the pool of the node and
// shares it with the peers of the node.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.node(r)
	if err != nil {
		return err
	}

	var nt newTx
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	currency := nt.Currency
	if currency == "" {
		currency = n.Genesis().Currency
	}

	tx, err := database.NewTx(nt.Sender, nt.Receiver, nt.Amount, currency, nt.Nonce)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tx", "traceid", web.GetTraceID(ctx), "node", n.Name(), "tx", tx)

	if err := n.SubmitTransaction(tx); err != nil {
		switch {
		case errors.Is(err, database.ErrTxConflict), errors.Is(err, database.ErrTxKnown):
			return errs.NewTrusted(err, http.StatusConflict)
		case errors.Is(err, database.ErrInvalidTransaction):
			return errs.NewTrusted(err, http.StatusBadRequest)
		default:
			return fmt.Errorf("submit: %w", err)
		}
	}

	n.ShareTx(tx)

	return web.Respond(ctx, w, txAdded{ID: tx.ID(), Tx: tx}, http.StatusCreated)
}

// Mine mines the pool of the node into a new block and broadcasts it.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.node(r)
	if err != nil {
		return err
	}

	block, err := n.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrMiningTimeout):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		case errors.Is(err, node.ErrTipChanged):
			return errs.NewTrusted(err, http.StatusConflict)
		default:
			return fmt.Errorf("mine: %w", err)
		}
	}

	n.Broadcast(block)

	h.Log.Infow("mined block", "traceid", web.GetTraceID(ctx), "node", n.Name(), "number", block.Header.Number, "hash", block.Hash())

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// Chain returns the full chain of the node.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.node(r)
	if err != nil {
		return err
	}

	c := n.Chain()

	resp := chain{
		Node:      n.Name(),
		Length:    c.Length(),
		Valid:     c.IsValid(),
		TotalWork: c.TotalWork().Dec(),
		Blocks:    c.Data(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddPeer makes the posted node a known peer of the node. Blocks and
// transactions of the node are then delivered to it.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	n, err := h.node(r)
	if err != nil {
		return err
	}

	var np newPeer
	if err := web.Decode(r, &np); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(np); err != nil {
		return err
	}

	if _, exists := h.Network.Node(np.Name); !exists {
		return errs.NewTrusted(fmt.Errorf("%w: %s", ErrNodeNotFound, np.Name), http.StatusNotFound)
	}

	if np.Name == n.Name() {
		return errs.NewTrusted(errors.New("a node can't be its own peer"), http.StatusBadRequest)
	}

	n.AddKnownPeer(peer.New(np.Name))

	return web.Respond(ctx, w, n.KnownPeers(), http.StatusCreated)
}

// node returns the node named in the route.
func (h Handlers) node(r *http.Request) (*node.Node, error) {
	name := web.Param(r, "name")

	n, exists := h.Network.Node(name)
	if !exists {
		return nil, errs.NewTrusted(fmt.Errorf("%w: %s", ErrNodeNotFound, name), http.StatusNotFound)
	}

	return n, nil
}
