package crypto

import (
	"context"
	"fmt"
)

// HashMode selects how KeySigner hashes a message before signing it.
type HashMode int

const (
	// HashKeccak signs keccak256(message). Nodes verify input signatures
	// this way.
	HashKeccak HashMode = iota

	// HashEIP191 signs the EIP-191 personal-message hash, matching what
	// browser wallets produce for personal_sign.
	HashEIP191
)

// String returns the configuration name of the mode.
func (m HashMode) String() string {
	switch m {
	case HashKeccak:
		return "keccak"
	case HashEIP191:
		return "eip191"
	default:
		return fmt.Sprintf("HashMode(%d)", int(m))
	}
}

// ParseHashMode parses "keccak" or "eip191".
func ParseHashMode(s string) (HashMode, error) {
	switch s {
	case "keccak", "":
		return HashKeccak, nil
	case "eip191":
		return HashEIP191, nil
	default:
		return 0, fmt.Errorf("unknown hash mode %q", s)
	}
}

// Digest hashes msg according to the mode.
func (m HashMode) Digest(msg []byte) [32]byte {
	if m == HashEIP191 {
		return EIP191Hash(msg)
	}
	return Keccak256(msg)
}

// KeySigner signs messages with an in-process private key.
type KeySigner struct {
	key  *PrivateKey
	mode HashMode
}

// NewKeySigner creates a signer for key using the given hash mode.
func NewKeySigner(key *PrivateKey, mode HashMode) *KeySigner {
	return &KeySigner{key: key, mode: mode}
}

// Address returns the address signatures from this signer recover to.
func (s *KeySigner) Address() Address {
	return s.key.Address()
}

// Mode returns the signer's hash mode.
func (s *KeySigner) Mode() HashMode {
	return s.mode
}

// SignMessage hashes msg and returns a 65-byte recoverable signature.
// It fails only if ctx is already done.
func (s *KeySigner) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sig := s.key.SignRecoverable(s.mode.Digest(msg))
	return sig[:], nil
}
