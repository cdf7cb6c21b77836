// Package roles implements the steps that turn transaction contents into a
// submittable, signed transaction.
//
// Roles separate transaction handling into distinct responsibilities:
//   - Constructor: Builds unsigned transaction contents
//   - Signer: Obtains a signature over the unsigned encoding
//   - Spend Finalizer: Writes signature scripts into every input
//   - Combiner: Merges transactions signed by different parties
//
// Each role can be executed by different parties or at different times.
// Signing is the only step that waits on something outside the process
// (a wallet, a hardware device, a remote key service), so it is the only
// step that takes a context.
package roles

import (
	"bytes"
	"context"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/quible-tx/pkg/encoding"
	"github.com/suffix-labs/quible-tx/pkg/tx"
)

// MessageSigner is a signing capability: it signs an arbitrary message and
// returns the raw signature.
//
// The signature is opaque to this package. Quible nodes expect 65 bytes,
// r || s || v, over keccak256(message); see crypto.KeySigner.
//
// A MessageSigner must return promptly once ctx is done. Cancelling ctx is
// the same as the signer rejecting the request.
type MessageSigner interface {
	SignMessage(ctx context.Context, msg []byte) ([]byte, error)
}

// MessageSignerFunc adapts a function to MessageSigner.
type MessageSignerFunc func(ctx context.Context, msg []byte) ([]byte, error)

// SignMessage calls f(ctx, msg).
func (f MessageSignerFunc) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	return f(ctx, msg)
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithLogger sets the logger used for signing progress.
func WithLogger(logger zerolog.Logger) SignerOption {
	return func(s *Signer) {
		s.logger = logger
	}
}

// Signer signs every input of a transaction with one account.
//
// The Signer role:
//   - Encodes the contents exactly as given; that encoding is the digest
//   - Asks the MessageSigner to sign the digest
//   - Hands the signature to the Spend Finalizer, which sets every input's
//     script to [Push(signature), Push(address)]
//
// A Signer holds no per-call state and is safe for concurrent use.
type Signer struct {
	address []byte
	signer  MessageSigner
	logger  zerolog.Logger
}

// NewSigner creates a Signer for address backed by ms.
//
// address is pushed into signature scripts verbatim. Nodes recover the
// signer's address from the signature and compare it with this value, so
// it must be the 20-byte address of the key behind ms.
func NewSigner(address []byte, ms MessageSigner, opts ...SignerOption) *Signer {
	s := &Signer{
		address: bytes.Clone(address),
		signer:  ms,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Address returns a copy of the signer's address.
func (s *Signer) Address() []byte {
	return bytes.Clone(s.address)
}

// SignTransaction signs c and returns the signed transaction.
//
// The digest is the encoding of c as passed in. Callers normally leave
// signature scripts empty; whatever they contain is signed over and then
// replaced.
//
// c is not modified. An error from the MessageSigner, including the
// context's error on cancellation, is returned unchanged.
func (s *Signer) SignTransaction(ctx context.Context, c tx.Contents) (*SignedTransaction, error) {
	digest := tx.Encode(c)

	s.logger.Debug().
		Str("address", encoding.EncodeHex(s.address)).
		Int("inputs", len(c.Inputs)).
		Int("digest_len", len(digest.Raw)).
		Msg("Requesting signature")

	sig, err := s.signer.SignMessage(ctx, digest.Raw)
	if err != nil {
		return nil, err
	}

	signed := &SignedTransaction{
		Contents:  NewSpendFinalizer(c).Finalize(sig, s.address),
		Signature: bytes.Clone(sig),
	}

	txid := signed.TxID()
	s.logger.Debug().
		Str("txid", encoding.EncodeHex(txid[:])).
		Int("signature_len", len(sig)).
		Msg("Transaction signed")

	return signed, nil
}

// SignedTransaction is a transaction whose inputs carry signature scripts.
type SignedTransaction struct {
	Contents tx.Contents

	// Signature is the signer's signature over the unsigned encoding. It is
	// nil for transactions produced by the Combiner.
	Signature []byte
}

// Encode returns the submittable encoding of the transaction.
func (s *SignedTransaction) Encode() tx.Encoded {
	return tx.Encode(s.Contents)
}

// Bytes returns the encoded transaction.
func (s *SignedTransaction) Bytes() []byte {
	return s.Encode().Raw
}

// Hex returns the encoded transaction as a 0x-prefixed hex string.
func (s *SignedTransaction) Hex() string {
	return s.Encode().Hex()
}

// TxID returns the hash nodes use to identify the transaction.
func (s *SignedTransaction) TxID() [32]byte {
	return tx.TxID(s.Contents)
}
