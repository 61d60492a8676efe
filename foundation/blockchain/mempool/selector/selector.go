// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyTime   = "time"
	StrategyAmount = "amount"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyTime:   timeSelect,
	StrategyAmount: amountSelect,
}

// Func defines a function that takes a mempool of transactions grouped by
// sender and selects howMany of them in an order based on the functions
// strategy. All selector functions MUST respect nonce ordering. Receiving -1
// for howMany must return all the transactions in the strategies ordering.
type Func func(transactions map[string][]database.Tx, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byNonce provides sorting support by the transaction nonce value.
type byNonce []database.Tx

// Len returns the number of transactions in the list.
func (bn byNonce) Len() int {
	return len(bn)
}

// Less helps to sort the list by nonce in ascending order to keep the
// transactions in the right order of processing.
func (bn byNonce) Less(i, j int) bool {
	return bn[i].Nonce < bn[j].Nonce
}

// Swap moves transactions in the order of the nonce value.
func (bn byNonce) Swap(i, j int) {
	bn[i], bn[j] = bn[j], bn[i]
}

// =============================================================================

// rows sorts the transactions of every sender by nonce and then picks the
// first transaction of each sender into a row, repeating until every
// transaction is selected. Senders are visited in sorted order.
func rows(m map[string][]database.Tx) [][]database.Tx {
	senders := make([]string, 0, len(m))
	for sender := range m {
		senders = append(senders, sender)
		if len(m[sender]) > 1 {
			sort.Sort(byNonce(m[sender]))
		}
	}
	sort.Strings(senders)

	var rows [][]database.Tx
	for {
		var row []database.Tx
		for _, sender := range senders {
			if len(m[sender]) > 0 {
				row = append(row, m[sender][0])
				m[sender] = m[sender][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	return rows
}

// pick sorts each row with the less function and pulls transactions from
// each row until the requested amount is fulfilled or there are no more
// transactions.
func pick(rows [][]database.Tx, howMany int, less func(a, b database.Tx) bool) []database.Tx {
	final := []database.Tx{}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return less(row[i], row[j]) })

		need := howMany - len(final)
		if howMany >= 0 && len(row) >= need {
			final = append(final, row[:need]...)
			break
		}
		final = append(final, row...)
	}

	return final
}
