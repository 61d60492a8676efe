package database_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

func Test_TxValidate(t *testing.T) {
	type table struct {
		name     string
		tx       database.Tx
		currency []string
		err      error
	}

	newTx := func(sender string, amount int64, currency string) database.Tx {
		return database.Tx{Sender: sender, Receiver: "B", Amount: decimal.NewFromInt(amount), Currency: currency}
	}

	tt := []table{
		{name: "valid", tx: newTx("A", 10, "USDT"), currency: []string{"USDT"}},
		{name: "zero", tx: newTx("A", 0, "USDT"), currency: []string{"USDT"}, err: database.ErrInvalidTransaction},
		{name: "negative", tx: newTx("A", -5, "USDT"), currency: []string{"USDT"}, err: database.ErrInvalidTransaction},
		{name: "currency", tx: newTx("A", 10, "DOGE"), currency: []string{"USDT", "BTC"}, err: database.ErrInvalidTransaction},
		{name: "network", tx: newTx(database.NetworkSender, 10, "USDT"), currency: []string{"USDT"}, err: database.ErrInvalidTransaction},
	}

	t.Log("Given the need to validate submitted transactions.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen validating a %s transaction.", testID, tst.name)
			{
				f := func(t *testing.T) {
					err := tst.tx.Validate(tst.currency)
					if !errors.Is(err, tst.err) || (tst.err == nil && err != nil) {
						t.Fatalf("\t%s\tTest %d:\tShould get the expected error: got %v, exp %v", failed, testID, err, tst.err)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected error.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_TxConflicts(t *testing.T) {
	t.Log("Given the need to detect transactions spending the same funds.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen comparing spends of the same slot.", testID)
		{
			victim := database.Tx{Sender: "A", Receiver: "B", Amount: decimal.NewFromInt(10), Currency: "USDT", Nonce: 7}
			conflict := victim
			conflict.Receiver = "C"

			if victim.SpendKey() != "A:7" {
				t.Fatalf("\t%s\tTest %d:\tShould get the spend key: %s", failed, testID, victim.SpendKey())
			}
			t.Logf("\t%s\tTest %d:\tShould get the spend key.", success, testID)

			if !victim.Conflicts(conflict) || victim.Conflicts(victim) {
				t.Fatalf("\t%s\tTest %d:\tShould only conflict with a different transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould only conflict with a different transaction.", success, testID)

			coinbase := database.NewCoinbaseTx("miner", decimal.NewFromInt(10), "USDT", 7, 0)
			other := database.NewCoinbaseTx("other", decimal.NewFromInt(10), "USDT", 7, 0)
			if coinbase.Conflicts(other) {
				t.Fatalf("\t%s\tTest %d:\tShould never conflict coinbase transactions.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould never conflict coinbase transactions.", success, testID)
		}
	}
}
