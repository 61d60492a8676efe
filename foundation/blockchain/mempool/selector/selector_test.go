package selector_test

import (
	"testing"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/mempool/selector"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Select(t *testing.T) {
	tran := func(sender string, nonce uint64, amount int64, ts uint64) database.Tx {
		return database.Tx{
			Sender:    sender,
			Receiver:  "merchant",
			Amount:    decimal.NewFromInt(amount),
			Currency:  "USDT",
			Nonce:     nonce,
			TimeStamp: ts,
		}
	}

	type test struct {
		name     string
		strategy string
		txs      []database.Tx
		howMany  int
		best     []database.Tx
	}

	tt := []test{
		{
			name:     "time partial row",
			strategy: selector.StrategyTime,
			txs: []database.Tx{
				tran("bill", 1, 10, 40),
				tran("bill", 0, 10, 30),
				tran("pavel", 0, 10, 20),
				tran("ed", 0, 10, 10),
			},
			howMany: 2,
			best: []database.Tx{
				tran("ed", 0, 10, 10),
				tran("pavel", 0, 10, 20),
			},
		},
		{
			name:     "time all",
			strategy: selector.StrategyTime,
			txs: []database.Tx{
				tran("bill", 1, 10, 5),
				tran("bill", 0, 10, 30),
				tran("ed", 0, 10, 10),
			},
			howMany: -1,
			best: []database.Tx{
				tran("ed", 0, 10, 10),
				tran("bill", 0, 10, 30),
				tran("bill", 1, 10, 5),
			},
		},
		{
			name:     "amount",
			strategy: selector.StrategyAmount,
			txs: []database.Tx{
				tran("bill", 0, 5, 1),
				tran("bill", 1, 500, 2),
				tran("pavel", 0, 50, 3),
				tran("ed", 0, 25, 4),
			},
			howMany: 3,
			best: []database.Tx{
				tran("pavel", 0, 50, 3),
				tran("ed", 0, 25, 4),
				tran("bill", 0, 5, 1),
			},
		},
	}

	t.Log("Given the need to select transactions for the next block.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen selecting with the %s strategy.", testID, tst.name)
			{
				f := func(t *testing.T) {
					fn, err := selector.Retrieve(tst.strategy)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the strategy: %v", failed, testID, err)
					}

					m := make(map[string][]database.Tx)
					for _, tx := range tst.txs {
						m[tx.Sender] = append(m[tx.Sender], tx)
					}

					best := fn(m, tst.howMany)
					if len(best) != len(tst.best) {
						t.Fatalf("\t%s\tTest %d:\tShould get %d transactions: got %d", failed, testID, len(tst.best), len(best))
					}

					for i := range best {
						if best[i].ID() != tst.best[i].ID() {
							t.Fatalf("\t%s\tTest %d:\tShould get the expected order at %d: got %s, exp %s", failed, testID, i, best[i], tst.best[i])
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected transactions.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Retrieve(t *testing.T) {
	t.Log("Given the need to retrieve select strategies.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen asking for an unknown strategy.", testID)
		{
			if _, err := selector.Retrieve("tip"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould get an error.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get an error.", success, testID)
		}
	}
}
