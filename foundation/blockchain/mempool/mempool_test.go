package mempool_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/mempool"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_FirstSeen(t *testing.T) {
	tran := func(receiver string, nonce uint64) database.Tx {
		return database.Tx{Sender: "A", Receiver: receiver, Amount: decimal.NewFromInt(10), Currency: "USDT", Nonce: nonce}
	}

	t.Log("Given the need to hold the first transaction seen for a spend.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen adding conflicting transactions.", testID)
		{
			mp, err := mempool.New()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the mempool: %v", failed, testID, err)
			}

			victim := tran("B", 0)
			if _, err := mp.Upsert(victim); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the first transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add the first transaction.", success, testID)

			if _, err := mp.Upsert(tran("C", 0)); !errors.Is(err, database.ErrTxConflict) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the conflicting transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the conflicting transaction.", success, testID)

			if _, err := mp.Upsert(victim); !errors.Is(err, database.ErrTxKnown) {
				t.Fatalf("\t%s\tTest %d:\tShould report the known transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the known transaction.", success, testID)

			held, ok := mp.Holder(tran("C", 0))
			if !ok || held.ID() != victim.ID() {
				t.Fatalf("\t%s\tTest %d:\tShould keep the first transaction as the holder.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the first transaction as the holder.", success, testID)

			mp.Delete(tran("C", 0))
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not delete through a conflicting transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not delete through a conflicting transaction.", success, testID)
		}
	}
}

func Test_PickBatch(t *testing.T) {
	t.Log("Given the need to remove a batch of transactions for mining.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen picking less than the pool holds.", testID)
		{
			mp, err := mempool.NewWithStrategy("amount")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the mempool: %v", failed, testID, err)
			}

			for i, sender := range []string{"A", "B", "C"} {
				tx := database.Tx{Sender: sender, Receiver: "M", Amount: decimal.NewFromInt(int64(i + 1)), Currency: "USDT"}
				if _, err := mp.Upsert(tx); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to add the transaction: %v", failed, testID, err)
				}
			}

			batch := mp.PickBatch(2)
			if len(batch) != 2 || batch[0].Sender != "C" || batch[1].Sender != "B" {
				t.Fatalf("\t%s\tTest %d:\tShould pick the two largest amounts: %v", failed, testID, batch)
			}
			t.Logf("\t%s\tTest %d:\tShould pick the two largest amounts.", success, testID)

			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould remove the batch from the pool: %d", failed, testID, mp.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould remove the batch from the pool.", success, testID)

			evicted := mp.Evict(func(tx database.Tx) bool { return tx.Sender == "A" })
			if len(evicted) != 1 || mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould evict the remaining transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould evict the remaining transaction.", success, testID)
		}
	}
}
