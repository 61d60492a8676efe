// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.

package merkle_test

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/ardanlabs/doublespend/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the values using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(d.x))
	return h[:], nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func toData(values ...string) []Data {
	data := make([]Data, len(values))
	for i, v := range values {
		data[i] = Data{x: v}
	}
	return data
}

// =============================================================================

func Test_Proof(t *testing.T) {
	type table struct {
		name string
		data []Data
	}

	tt := []table{
		{name: "one", data: toData("Hello")},
		{name: "two", data: toData("Hello", "Hi")},
		{name: "odd", data: toData("Hello", "Hi", "Hey")},
		{name: "five", data: toData("Hello", "Hi", "Hey", "Hola", "Bonjour")},
	}

	t.Log("Given the need to prove a value is part of a merkle tree.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %d values.", testID, len(tst.data))
				{
					tree, err := merkle.NewTree(tst.data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to create a tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to create a tree.", success, testID)

					if got := len(tree.Values()); got != len(tst.data) {
						t.Fatalf("\t%s\tTest %d:\tShould get back the original values: got %d, exp %d", failed, testID, got, len(tst.data))
					}
					t.Logf("\t%s\tTest %d:\tShould get back the original values.", success, testID)

					for _, d := range tst.data {
						proof, order, err := tree.Proof(d)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to produce a proof for %q: %v", failed, testID, d.x, err)
						}

						hash, _ := d.Hash()
						if !merkle.VerifyProof(hash, proof, order, tree.MerkleRoot) {
							t.Fatalf("\t%s\tTest %d:\tShould be able to verify the proof for %q.", failed, testID, d.x)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to verify a proof for every value.", success, testID)

					if _, _, err := tree.Proof(Data{x: "missing"}); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould not produce a proof for a missing value.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not produce a proof for a missing value.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_EmptyTree(t *testing.T) {
	t.Log("Given the need to reject a tree with no content.")
	{
		if _, err := merkle.NewTree([]Data{}); err == nil {
			t.Fatalf("\t%s\tShould not be able to create an empty tree.", failed)
		}
		t.Logf("\t%s\tShould not be able to create an empty tree.", success)
	}
}

func Test_HashStrategy(t *testing.T) {
	t.Log("Given the need to use a different hash strategy.")
	{
		data := toData("Hello", "Hi", "Hey")

		a, err := merkle.NewTree(data)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the default tree: %v", failed, err)
		}

		b, err := merkle.NewTree(data, merkle.WithHashStrategy[Data](md5.New))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create the md5 tree: %v", failed, err)
		}

		if a.RootHex() == b.RootHex() {
			t.Fatalf("\t%s\tShould get a different root with a different strategy.", failed)
		}
		t.Logf("\t%s\tShould get a different root with a different strategy.", success)

		if len(a.RootHex()) != 66 {
			t.Fatalf("\t%s\tShould get a 0x prefixed sha256 root: %s", failed, a.RootHex())
		}
		t.Logf("\t%s\tShould get a 0x prefixed sha256 root.", success)
	}
}

func Test_MarshalValues(t *testing.T) {
	t.Log("Given the need to marshal a tree as its values.")
	{
		type wire struct {
			X string `json:"x"`
		}

		tree, err := merkle.NewTree(toData("a", "b", "c"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a tree: %v", failed, err)
		}

		data, err := json.Marshal(tree)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the tree: %v", failed, err)
		}

		var values []wire
		if err := json.Unmarshal(data, &values); err != nil {
			t.Fatalf("\t%s\tShould be able to unmarshal the values: %v", failed, err)
		}

		if len(values) != 3 {
			t.Fatalf("\t%s\tShould marshal only the original values: got %d", failed, len(values))
		}
		t.Logf("\t%s\tShould marshal only the original values.", success)
	}
}
