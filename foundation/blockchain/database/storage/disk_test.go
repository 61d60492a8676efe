package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/ardanlabs/doublespend/foundation/blockchain/database"
	"github.com/ardanlabs/doublespend/foundation/blockchain/database/storage"
	"github.com/ardanlabs/doublespend/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Disk(t *testing.T) {
	g := genesis.Default()
	g.Difficulty = 1

	chain, err := database.NewChain(g, nil)
	if err != nil {
		t.Fatalf("Should be able to construct the chain: %v", err)
	}

	for range 2 {
		block, err := database.POW(context.Background(), database.POWArgs{
			Beneficiary:  "miner",
			Difficulty:   g.Difficulty,
			MiningReward: g.MiningReward,
			Currency:     g.Currency,
			PrevBlock:    chain.LatestBlock(),
			Clock:        func() time.Time { return g.Date.Add(time.Hour) },
		})
		if err != nil {
			t.Fatalf("Should be able to mine a block: %v", err)
		}
		if err := chain.Append(block); err != nil {
			t.Fatalf("Should be able to append the block: %v", err)
		}
	}

	t.Log("Given the need to store chain snapshots on disk.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen writing and reading back a chain of %d blocks.", testID, chain.Length())
		{
			disk, err := storage.NewDisk(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the folder: %v", failed, testID, err)
			}

			if err := disk.WriteChain(chain.Data()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to write the chain.", success, testID)

			data, err := disk.ReadChain()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the chain: %v", failed, testID, err)
			}

			restored, err := database.FromData(g, data, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould restore a valid chain: %v", failed, testID, err)
			}

			if restored.LatestBlock().Hash() != chain.LatestBlock().Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould restore the same tip.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the same valid chain.", success, testID)

			if err := disk.WriteChain(data[:1]); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to rewrite the chain: %v", failed, testID, err)
			}

			data, err = disk.ReadChain()
			if err != nil || len(data) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould replace the stored blocks: %d %v", failed, testID, len(data), err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the stored blocks.", success, testID)
		}
	}
}
