package crypto

import (
	"strconv"

	"golang.org/x/crypto/sha3"
)

// eip191Prefix precedes personal messages before hashing (EIP-191,
// version 0x45).
const eip191Prefix = "\x19Ethereum Signed Message:\n"

// Keccak256 returns the legacy (pre-NIST) keccak-256 hash of the
// concatenation of data.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}

	var out [32]byte
	h.Sum(out[:0])
	return out
}

// EIP191Hash returns the hash browser wallets sign for a personal
// message: keccak256("\x19Ethereum Signed Message:\n" || len(msg) || msg),
// with the length written in decimal.
func EIP191Hash(msg []byte) [32]byte {
	return Keccak256([]byte(eip191Prefix), []byte(strconv.Itoa(len(msg))), msg)
}
