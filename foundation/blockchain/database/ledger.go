package database

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Ledger holds the balance of every account per currency produced by
// replaying the transactions of a chain from genesis.
type Ledger map[string]map[string]decimal.Decimal

// Balance returns the balance of the account for the currency.
func (l Ledger) Balance(account string, currency string) decimal.Decimal {
	return l[account][currency]
}

// Accounts returns the accounts known to the ledger in sorted order.
func (l Ledger) Accounts() []string {
	accounts := make([]string, 0, len(l))
	for account := range l {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	return accounts
}

// Copy returns a deep copy of the ledger.
func (l Ledger) Copy() Ledger {
	cpy := make(Ledger, len(l))
	for account, balances := range l {
		cpy[account] = make(map[string]decimal.Decimal, len(balances))
		for currency, balance := range balances {
			cpy[account][currency] = balance
		}
	}

	return cpy
}

// apply moves the amount of the transaction from the sender to the receiver.
// The network sender mints funds and is never debited.
func (l Ledger) apply(tx Tx) {
	if !tx.IsCoinbase() {
		l.add(tx.Sender, tx.Currency, tx.Amount.Neg())
	}

	l.add(tx.Receiver, tx.Currency, tx.Amount)
}

// checkSender returns an error when the sender of the transaction holds a
// negative balance.
func (l Ledger) checkSender(tx Tx) error {
	if tx.IsCoinbase() {
		return nil
	}

	if balance := l.Balance(tx.Sender, tx.Currency); balance.IsNegative() {
		return fmt.Errorf("%w: tx[%s] overspends, balance %s %s", ErrInvalidBlock, tx, balance, tx.Currency)
	}

	return nil
}

func (l Ledger) add(account string, currency string, amount decimal.Decimal) {
	balances, exists := l[account]
	if !exists {
		balances = make(map[string]decimal.Decimal)
		l[account] = balances
	}

	balances[currency] = balances[currency].Add(amount)
}
