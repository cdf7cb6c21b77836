// Package identity builds transactions that create and update identity
// objects.
//
// An identity is a ledger object holding a set of claims. It is created
// by an object output in Fresh mode whose id is derived from the outpoint
// that funds the creation, and it is updated by spending its current
// outpoint into an object output in Existing mode. Both kinds of output
// lock the object to its owner with a pay-to-address script.
package identity

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/suffix-labs/quible-tx/pkg/crypto"
	"github.com/suffix-labs/quible-tx/pkg/encoding"
	"github.com/suffix-labs/quible-tx/pkg/roles"
	"github.com/suffix-labs/quible-tx/pkg/tx"
)

// ID is an identity object id.
type ID [32]byte

// Hex returns the id as a 0x-prefixed hex string.
func (id ID) Hex() string {
	return encoding.EncodeHex(id[:])
}

func (id ID) String() string {
	return id.Hex()
}

// ParseID decodes a 32-byte hex id.
func ParseID(s string) (ID, error) {
	raw, err := encoding.DecodeHex32(s)
	if err != nil {
		return ID{}, errors.Wrap(err, "invalid identity id")
	}
	return ID(raw), nil
}

// ObjectIDFromOutpoint derives the id of an object created by spending
// op: keccak256(txid || u64le(index) || u64le(0)).
func ObjectIDFromOutpoint(op tx.Outpoint) ID {
	index := encoding.EncodeU64LE(op.Index)
	zero := encoding.EncodeU64LE(0)
	return ID(crypto.Keccak256(op.TxID[:], index[:], zero[:]))
}

// ParseClaim converts a claim given as text into its bytes. A 0x-prefixed
// claim is hex; anything else is taken as UTF-8.
func ParseClaim(s string) ([]byte, error) {
	if !strings.HasPrefix(s, encoding.HexPrefix) {
		return []byte(s), nil
	}

	b, err := encoding.DecodeHex(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex claim %q", s)
	}
	return b, nil
}

// ParseClaims applies ParseClaim to each element of claims.
func ParseClaims(claims []string) ([][]byte, error) {
	out := make([][]byte, 0, len(claims))
	for _, c := range claims {
		b, err := ParseClaim(c)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Options tune identity transactions.
type Options struct {
	// CertificateLifespan, in seconds, is written with SetCertTTL ahead of
	// the claim changes. Zero leaves the object's lifespan unchanged.
	CertificateLifespan uint64

	// PermitIndex is the permit index of updates.
	PermitIndex uint64

	Locktime uint64
}

// CreateTransaction builds the transaction that creates an identity holding
// claims, owned by owner and funded by spending funding.
//
// The identity's id is derived from funding and returned alongside the
// transaction. The single input must be signed by funding's owner.
func CreateTransaction(funding tx.Outpoint, owner []byte, claims [][]byte, opts Options) (tx.Contents, ID) {
	id := ObjectIDFromOutpoint(funding)

	c := roles.NewConstructor().
		AddInput(funding).
		AddObjectOutput(
			tx.ObjectIdentifier{Raw: [32]byte(id), Mode: tx.Fresh{}},
			dataScript(opts, claims, nil),
			roles.PayToAddressScript(owner),
		).
		WithLocktime(opts.Locktime).
		Build()

	return c, id
}

// Update describes a change to an existing identity.
type Update struct {
	Funding tx.Outpoint // Outpoint paying for the update
	Current tx.Outpoint // Identity's current unspent object outpoint
	ID      ID
	Owner   []byte // Address the identity stays locked to
	Insert  [][]byte
	Delete  [][]byte
}

// UpdateTransaction builds the transaction applying u.
//
// Input 0 spends the funding outpoint and input 1 the identity's current
// outpoint; see SignUpdate.
func UpdateTransaction(u Update, opts Options) tx.Contents {
	return roles.NewConstructor().
		AddInput(u.Funding).
		AddInput(u.Current).
		AddObjectOutput(
			tx.ObjectIdentifier{Raw: [32]byte(u.ID), Mode: tx.Existing{PermitIndex: opts.PermitIndex}},
			dataScript(opts, u.Insert, u.Delete),
			roles.PayToAddressScript(u.Owner),
		).
		WithLocktime(opts.Locktime).
		Build()
}

// SignUpdate signs an update built by UpdateTransaction: funder signs the
// funding input and owner signs the identity input.
//
// Both signers sign the same unsigned contents. A signer's error is
// wrapped; errors.Cause returns it unchanged.
func SignUpdate(ctx context.Context, funder, owner *roles.Signer, c tx.Contents) (*roles.SignedTransaction, error) {
	if len(c.Inputs) != 2 {
		return nil, errors.Errorf("update must have 2 inputs, got %d", len(c.Inputs))
	}

	funded, err := funder.SignTransaction(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "funding input")
	}

	owned, err := owner.SignTransaction(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "identity input")
	}

	return roles.NewCombiner(
		roles.CombinePart{Signed: funded, Inputs: []int{0}},
		roles.CombinePart{Signed: owned, Inputs: []int{1}},
	).Combine()
}

func dataScript(opts Options, insert, remove [][]byte) tx.Script {
	var s tx.Script
	if opts.CertificateLifespan > 0 {
		s = append(s, tx.SetCertTTL{TTL: opts.CertificateLifespan})
	}
	for _, claim := range insert {
		s = append(s, tx.Insert{Data: claim})
	}
	for _, claim := range remove {
		s = append(s, tx.Delete{Data: claim})
	}
	return s
}
