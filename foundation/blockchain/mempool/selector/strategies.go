package selector

import (
	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
)

// timeSelect returns the oldest transactions first while respecting the
// nonce for each sender.
var timeSelect = func(m map[string][]database.Tx, howMany int) []database.Tx {
	return pick(rows(m), howMany, func(a, b database.Tx) bool {
		if a.TimeStamp != b.TimeStamp {
			return a.TimeStamp < b.TimeStamp
		}
		return a.ID() < b.ID()
	})
}

// amountSelect returns the transactions moving the largest amounts first
// while respecting the nonce for each sender.
var amountSelect = func(m map[string][]database.Tx, howMany int) []database.Tx {
	return pick(rows(m), howMany, func(a, b database.Tx) bool {
		if !a.Amount.Equal(b.Amount) {
			return a.Amount.GreaterThan(b.Amount)
		}
		return a.TimeStamp < b.TimeStamp
	})
}
