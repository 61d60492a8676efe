// Package digest provides the hashing support used to identify transactions
// and blocks and to check proof of work solutions.
package digest

import (
	"crypto/sha256"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros. It is the previous block hash
// of the genesis block.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// hashLength is the number of hex digits in a hash without the 0x prefix.
const hashLength = 64

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled to JSON
// so struct field order defines the canonical encoding.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Bytes decodes a hash produced by Hash back into its raw form.
func Bytes(hash string) ([]byte, error) {
	return hexutil.Decode(hash)
}

// Encode converts raw hash bytes into the 0x prefixed hex form.
func Encode(b []byte) string {
	return hexutil.Encode(b)
}

// LeadingZeros returns the number of leading zero hex digits in the hash.
func LeadingZeros(hash string) int {
	hash = strings.TrimPrefix(hash, "0x")

	var n int
	for n < len(hash) && hash[n] == '0' {
		n++
	}

	return n
}

// IsSolved checks the hash to make sure it complies with the POW rules. We
// need to match a difficulty number of leading 0's. The zero hash is never a
// solution since Hash returns it when a value can't be encoded.
func IsSolved(hash string, difficulty int) bool {
	if hash == ZeroHash {
		return false
	}

	if len(strings.TrimPrefix(hash, "0x")) != hashLength {
		return false
	}

	if difficulty < 0 || difficulty > hashLength {
		return false
	}

	return LeadingZeros(hash) >= difficulty
}
