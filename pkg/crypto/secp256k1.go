// Package crypto implements secp256k1 ECDSA signing for Quible inputs.
//
// Quible uses Ethereum-style accounts: an address is the last 20 bytes of
// the keccak-256 hash of the uncompressed public key, and signatures are
// 65 bytes, r || s || v, where v = 27 + recovery id. Anyone holding the
// signature and the signed hash can recover the signer's address, which
// is how a node checks a [Push(signature), Push(address)] script.
//
// Key formats:
//   - Private keys: raw 32 bytes, hex, or WIF (Wallet Import Format)
//   - Addresses: 20 bytes
//   - Signatures: 65 bytes, r || s || v
package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/suffix-labs/quible-tx/pkg/encoding"
)

const (
	// AddressLength is the length of an account address.
	AddressLength = 20

	// SignatureLength is the length of a recoverable signature.
	SignatureLength = 65

	// recoveryOffset is added to the recovery id to form v.
	recoveryOffset = 27
)

// Address is an account address.
type Address [AddressLength]byte

// Bytes returns the address as a slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// Hex returns the address as a lowercase 0x-prefixed string.
func (a Address) Hex() string {
	return encoding.EncodeHex(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// ParseAddress decodes a 0x-prefixed or bare 40-digit hex address.
func ParseAddress(s string) (Address, error) {
	var a Address

	b, err := encoding.DecodeHexFixed(s, AddressLength)
	if err != nil {
		return a, err
	}

	copy(a[:], b)
	return a, nil
}

// PrivateKey wraps secp256k1 private key
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps secp256k1 public key
type PublicKey struct {
	key *secp256k1.PublicKey
}

// PrivateKeyFromBytes creates a private key from raw bytes
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(keyBytes); overflow || scalar.IsZero() {
		return nil, errors.New("private key is outside the curve order")
	}

	return &PrivateKey{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// PrivateKeyFromHex creates a private key from a 0x-prefixed or bare hex string
func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	keyBytes, err := encoding.DecodeHexFixed(s, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	return PrivateKeyFromBytes(keyBytes)
}

// ParsePrivateKeyWIF parses a WIF-encoded private key
func ParsePrivateKeyWIF(wif string) (*PrivateKey, error) {
	decoded, err := decodeWIF(wif)
	if err != nil {
		return nil, err
	}

	return PrivateKeyFromBytes(decoded)
}

// Bytes returns the raw 32-byte private key
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// PublicKey derives the public key
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Address derives the account address of the key.
func (pk *PrivateKey) Address() Address {
	return pk.PublicKey().Address()
}

// SignRecoverable signs a 32-byte hash and returns r || s || v.
//
// Signing is deterministic (RFC 6979) and s is always in the lower half
// of the curve order, so the same key and hash give the same signature.
func (pk *PrivateKey) SignRecoverable(hash [32]byte) [SignatureLength]byte {
	// SignCompact returns v || r || s with v = 27 + recovery id.
	compact := ecdsa.SignCompact(pk.key, hash[:], false)

	var sig [SignatureLength]byte
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return sig
}

// Address derives the account address of the public key.
func (pub *PublicKey) Address() Address {
	uncompressed := pub.key.SerializeUncompressed()
	hash := Keccak256(uncompressed[1:])

	var a Address
	copy(a[:], hash[32-AddressLength:])
	return a
}

// SerializeCompressed returns the 33-byte compressed public key
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// RecoverPublicKey recovers the public key that produced sig over hash.
func RecoverPublicKey(sig []byte, hash [32]byte) (*PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength, len(sig))
	}

	v := sig[64]
	if v < recoveryOffset || v > recoveryOffset+3 {
		return nil, fmt.Errorf("invalid recovery byte: 0x%02x", v)
	}

	compact := make([]byte, 0, SignatureLength)
	compact = append(compact, v)
	compact = append(compact, sig[:64]...)

	pubKey, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to recover public key: %w", err)
	}

	return &PublicKey{key: pubKey}, nil
}

// RecoverAddress recovers the address of the account that produced sig
// over hash.
func RecoverAddress(sig []byte, hash [32]byte) (Address, error) {
	pub, err := RecoverPublicKey(sig, hash)
	if err != nil {
		return Address{}, err
	}
	return pub.Address(), nil
}

// decodeWIF decodes a WIF-encoded private key
// WIF format: version_byte || private_key (32 bytes) || [compression_flag] || checksum (4 bytes)
func decodeWIF(wif string) ([]byte, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != 37 && len(decoded) != 38 {
		return nil, errors.New("invalid WIF length")
	}

	// Check version byte (0x80 for mainnet, 0xef for testnet)
	version := decoded[0]
	if version != 0x80 && version != 0xef {
		return nil, fmt.Errorf("invalid WIF version byte: 0x%02x", version)
	}

	checksumOffset := len(decoded) - 4
	providedChecksum := decoded[checksumOffset:]
	payload := decoded[:checksumOffset]

	hash1 := sha256.Sum256(payload)
	hash2 := sha256.Sum256(hash1[:])
	computedChecksum := hash2[:4]

	for i := 0; i < 4; i++ {
		if providedChecksum[i] != computedChecksum[i] {
			return nil, errors.New("WIF checksum mismatch")
		}
	}

	return payload[1:33], nil
}

// EncodeWIF encodes a private key to WIF format
func EncodeWIF(privateKey []byte, compressed bool, testnet bool) (string, error) {
	if len(privateKey) != 32 {
		return "", errors.New("private key must be 32 bytes")
	}

	version := byte(0x80)
	if testnet {
		version = 0xef
	}

	var payload []byte
	payload = append(payload, version)
	payload = append(payload, privateKey...)
	if compressed {
		payload = append(payload, 0x01)
	}

	hash1 := sha256.Sum256(payload)
	hash2 := sha256.Sum256(hash1[:])
	payload = append(payload, hash2[:4]...)

	return base58.Encode(payload), nil
}
