package nodegrp

import (
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// newTx is what a client posts to submit a transaction.
type newTx struct {
	Sender   string          `json:"sender" validate:"required"`
	Receiver string          `json:"receiver" validate:"required,nefield=Sender"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Nonce    uint64          `json:"nonce"`
}

// newPeer is what a client posts to make a node known to another.
type newPeer struct {
	Name string `json:"name" validate:"required"`
}

type txAdded struct {
	ID string      `json:"id"`
	Tx database.Tx `json:"tx"`
}

type chain struct {
	Node      string               `json:"node"`
	Length    int                  `json:"length"`
	Valid     bool                 `json:"valid"`
	TotalWork string               `json:"total_work"`
	Blocks    []database.BlockData `json:"blocks"`
}
