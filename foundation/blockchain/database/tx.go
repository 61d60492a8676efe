package database

import (
	"fmt"
	"time"

	"github.com/ardanlabs/doublespend/foundation/blockchain/digest"
	"github.com/shopspring/decimal"
)

// NetworkSender is the sender of every coinbase and genesis allocation
// transaction. It can't be claimed by a submitted transaction.
const NetworkSender = "Network"

// =============================================================================

// Tx is the transactional information between two parties. There are no
// signatures, any party may claim any sender.
type Tx struct {
	Sender    string          `json:"sender"`    // Account spending the funds.
	Receiver  string          `json:"receiver"`  // Account receiving the benefit of the transaction.
	Amount    decimal.Decimal `json:"amount"`    // Monetary value received from this transaction.
	Currency  string          `json:"currency"`  // Currency code of the amount.
	Nonce     uint64          `json:"nonce"`     // Spend slot of the sender being consumed.
	TimeStamp uint64          `json:"timestamp"` // Unix milliseconds when the transaction was created.
}

// NewTx constructs a new transaction. The amount must be positive.
func NewTx(sender string, receiver string, amount decimal.Decimal, currency string, nonce uint64) (Tx, error) {
	tx := Tx{
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Currency:  currency,
		Nonce:     nonce,
		TimeStamp: uint64(time.Now().UTC().UnixMilli()),
	}

	if err := tx.validateFields(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// NewCoinbaseTx constructs the reward transaction for the specified block
// number. The block number is used as the nonce so every coinbase is unique.
func NewCoinbaseTx(beneficiary string, reward decimal.Decimal, currency string, number uint64, timeStamp uint64) Tx {
	return Tx{
		Sender:    NetworkSender,
		Receiver:  beneficiary,
		Amount:    reward,
		Currency:  currency,
		Nonce:     number,
		TimeStamp: timeStamp,
	}
}

// ID returns the content hash of the transaction.
func (tx Tx) ID() string {
	return digest.Hash(tx)
}

// SpendKey identifies the funds the transaction spends. Two transactions
// with the same spend key and different ids conflict.
func (tx Tx) SpendKey() string {
	return fmt.Sprintf("%s:%d", tx.Sender, tx.Nonce)
}

// IsCoinbase reports whether the transaction is issued by the network.
func (tx Tx) IsCoinbase() bool {
	return tx.Sender == NetworkSender
}

// Conflicts reports whether the two transactions spend the same funds.
func (tx Tx) Conflicts(other Tx) bool {
	if tx.IsCoinbase() || other.IsCoinbase() {
		return false
	}

	return tx.SpendKey() == other.SpendKey() && tx.ID() != other.ID()
}

// Validate checks the transaction can be accepted by a node using the
// specified set of currencies.
func (tx Tx) Validate(currencies []string) error {
	if err := tx.validateFields(); err != nil {
		return err
	}

	if tx.IsCoinbase() {
		return fmt.Errorf("%w: sender %q is reserved", ErrInvalidTransaction, NetworkSender)
	}

	for _, currency := range currencies {
		if currency == tx.Currency {
			return nil
		}
	}

	return fmt.Errorf("%w: currency %q is not accepted", ErrInvalidTransaction, tx.Currency)
}

// Hash implements the merkle Hashable interface for providing a hash
// of a transaction.
func (tx Tx) Hash() ([]byte, error) {
	return digest.Bytes(tx.ID())
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID() == otherTx.ID()
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%s %s", tx.SpendKey(), tx.Receiver, tx.Amount, tx.Currency)
}

// validateFields checks the values every user transaction needs.
func (tx Tx) validateFields() error {
	switch {
	case tx.Sender == "":
		return fmt.Errorf("%w: missing sender", ErrInvalidTransaction)
	case tx.Receiver == "":
		return fmt.Errorf("%w: missing receiver", ErrInvalidTransaction)
	case tx.Currency == "":
		return fmt.Errorf("%w: missing currency", ErrInvalidTransaction)
	case !tx.Amount.IsPositive():
		return fmt.Errorf("%w: amount %s must be greater than zero", ErrInvalidTransaction, tx.Amount)
	}

	return nil
}
