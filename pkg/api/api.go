// Package api provides the high-level public API for Quible transactions.
//
// This is the main entry point for applications and for the quible-tx
// command. It works on strings and JSON transaction descriptions (see
// tx.ParseJSON) and composes the lower-level packages:
//
//  1. EncodeJSON - Encodes a transaction description
//  2. DecodeHex - Decodes transaction bytes into a description
//  3. TxIDJSON - Computes a transaction's id
//  4. SignJSON - Signs every input of a transaction
//  5. CreateIdentity / UpdateIdentity - Builds and signs identity transactions
//  6. ParseSigningKey / NewKeySigner / AddressFromKey - Key handling
//
// Nothing here talks to a node; callers submit the resulting hex
// themselves.
package api

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/suffix-labs/quible-tx/pkg/crypto"
	"github.com/suffix-labs/quible-tx/pkg/encoding"
	"github.com/suffix-labs/quible-tx/pkg/identity"
	"github.com/suffix-labs/quible-tx/pkg/roles"
	"github.com/suffix-labs/quible-tx/pkg/tx"
)

// Key formats accepted by ParseSigningKey.
const (
	KeyFormatHex = "hex"
	KeyFormatWIF = "wif"
)

// ============================================================================
// API Function 1: EncodeJSON
// ============================================================================

// EncodeJSON encodes a transaction description and returns the bytes as
// 0x-prefixed hex.
//
// Returns an error if the description is malformed.
func EncodeJSON(description []byte) (string, error) {
	c, err := tx.ParseJSON(description)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse transaction description")
	}
	return tx.Encode(c).Hex(), nil
}

// ============================================================================
// API Function 2: DecodeHex
// ============================================================================

// DecodeHex decodes an encoded transaction and returns its description.
//
// Returns an error if:
//   - The hex string is malformed
//   - The bytes are not a version 0 transaction
//   - Bytes remain after the locktime
func DecodeHex(encoded string) ([]byte, error) {
	c, err := tx.DecodeHex(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction")
	}
	return c.MarshalJSON()
}

// ============================================================================
// API Function 3: TxIDJSON
// ============================================================================

// TxIDJSON returns the id of the transaction a description encodes to.
func TxIDJSON(description []byte) (string, error) {
	c, err := tx.ParseJSON(description)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse transaction description")
	}
	id := tx.TxID(c)
	return encoding.EncodeHex(id[:]), nil
}

// ============================================================================
// API Function 4: SignJSON
// ============================================================================

// SignResult is a signed transaction in the forms callers hand on.
type SignResult struct {
	Hex         string          `json:"hex"`  // Submittable encoding
	TxID        string          `json:"txid"` // Hash of Hex
	Signature   string          `json:"signature,omitempty"`
	Transaction json.RawMessage `json:"transaction"` // Signed description
}

// SignJSON signs every input of the described transaction with signer.
//
// Errors from the signer's capability are returned unchanged, so callers
// can compare them against their own sentinel values.
func SignJSON(ctx context.Context, description []byte, signer *roles.Signer) (*SignResult, error) {
	c, err := tx.ParseJSON(description)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse transaction description")
	}

	signed, err := signer.SignTransaction(ctx, c)
	if err != nil {
		return nil, err
	}

	return newSignResult(signed)
}

func newSignResult(signed *roles.SignedTransaction) (*SignResult, error) {
	doc, err := signed.Contents.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to render signed transaction")
	}

	encoded, err := roles.NewTxExtractor(signed).Extract()
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract signed transaction")
	}

	txid := signed.TxID()
	result := &SignResult{
		Hex:         encoded.Hex(),
		TxID:        encoding.EncodeHex(txid[:]),
		Transaction: doc,
	}
	if signed.Signature != nil {
		result.Signature = encoding.EncodeHex(signed.Signature)
	}
	return result, nil
}

// ============================================================================
// API Function 5: Identity transactions
// ============================================================================

// Outpoint is an outpoint given as strings.
type Outpoint struct {
	TxID  string `json:"txid"`
	Index uint64 `json:"index"`
}

func (o Outpoint) parse() (tx.Outpoint, error) {
	txid, err := encoding.DecodeHex32(o.TxID)
	if err != nil {
		return tx.Outpoint{}, errors.Wrap(err, "invalid outpoint txid")
	}
	return tx.Outpoint{TxID: txid, Index: o.Index}, nil
}

// CreateIdentityRequest describes a new identity.
type CreateIdentityRequest struct {
	Funding             Outpoint // Outpoint paying for the creation
	Owner               string   // Owner address, hex
	Claims              []string // Text claims, or 0x-prefixed hex claims
	CertificateLifespan uint64   // Seconds; zero leaves it unset
}

// IdentityResult is a signed identity transaction and the identity's id.
type IdentityResult struct {
	ID string `json:"id"`
	SignResult
}

// CreateIdentity builds the transaction creating an identity and signs it
// with funder, the owner of the funding outpoint.
func CreateIdentity(ctx context.Context, req CreateIdentityRequest, funder *roles.Signer) (*IdentityResult, error) {
	funding, err := req.Funding.parse()
	if err != nil {
		return nil, err
	}

	owner, err := crypto.ParseAddress(req.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid owner address")
	}

	claims, err := identity.ParseClaims(req.Claims)
	if err != nil {
		return nil, err
	}

	c, id := identity.CreateTransaction(funding, owner.Bytes(), claims, identity.Options{
		CertificateLifespan: req.CertificateLifespan,
	})

	signed, err := funder.SignTransaction(ctx, c)
	if err != nil {
		return nil, err
	}

	result, err := newSignResult(signed)
	if err != nil {
		return nil, err
	}
	return &IdentityResult{ID: id.Hex(), SignResult: *result}, nil
}

// UpdateIdentityRequest describes a change to an identity.
type UpdateIdentityRequest struct {
	ID                  string
	Funding             Outpoint // Outpoint paying for the update
	Current             Outpoint // Identity's current object outpoint
	Insert              []string
	Delete              []string
	PermitIndex         uint64
	CertificateLifespan uint64
}

// UpdateIdentity builds an identity update and signs it: funder signs the
// funding input and owner the identity input. The identity stays locked
// to owner's address.
func UpdateIdentity(ctx context.Context, req UpdateIdentityRequest, funder, owner *roles.Signer) (*IdentityResult, error) {
	id, err := identity.ParseID(req.ID)
	if err != nil {
		return nil, err
	}

	funding, err := req.Funding.parse()
	if err != nil {
		return nil, err
	}

	current, err := req.Current.parse()
	if err != nil {
		return nil, err
	}

	insert, err := identity.ParseClaims(req.Insert)
	if err != nil {
		return nil, err
	}

	remove, err := identity.ParseClaims(req.Delete)
	if err != nil {
		return nil, err
	}

	c := identity.UpdateTransaction(identity.Update{
		Funding: funding,
		Current: current,
		ID:      id,
		Owner:   owner.Address(),
		Insert:  insert,
		Delete:  remove,
	}, identity.Options{
		PermitIndex:         req.PermitIndex,
		CertificateLifespan: req.CertificateLifespan,
	})

	signed, err := identity.SignUpdate(ctx, funder, owner, c)
	if err != nil {
		return nil, err
	}

	result, err := newSignResult(signed)
	if err != nil {
		return nil, err
	}
	return &IdentityResult{ID: id.Hex(), SignResult: *result}, nil
}

// ============================================================================
// API Function 6: Keys
// ============================================================================

// ParseSigningKey parses a private key in the given format ("hex" or
// "wif"). An empty format means hex.
func ParseSigningKey(key, format string) (*crypto.PrivateKey, error) {
	switch format {
	case KeyFormatHex, "":
		k, err := crypto.PrivateKeyFromHex(key)
		return k, errors.Wrap(err, "invalid hex signing key")
	case KeyFormatWIF:
		k, err := crypto.ParsePrivateKeyWIF(key)
		return k, errors.Wrap(err, "invalid WIF signing key")
	default:
		return nil, errors.Errorf("unknown key format %q", format)
	}
}

// KeyConfig selects a local signing key.
type KeyConfig struct {
	Key      string
	Format   string // KeyFormatHex or KeyFormatWIF
	HashMode string // "keccak" or "eip191"
}

// NewKeySigner builds a Signer backed by a local private key.
func NewKeySigner(cfg KeyConfig, logger zerolog.Logger) (*roles.Signer, error) {
	key, err := ParseSigningKey(cfg.Key, cfg.Format)
	if err != nil {
		return nil, err
	}

	mode, err := crypto.ParseHashMode(cfg.HashMode)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	ks := crypto.NewKeySigner(key, mode)
	return roles.NewSigner(ks.Address().Bytes(), ks, roles.WithLogger(logger)), nil
}

// AddressFromKey returns the address of a private key as hex.
func AddressFromKey(key, format string) (string, error) {
	k, err := ParseSigningKey(key, format)
	if err != nil {
		return "", err
	}
	return k.Address().Hex(), nil
}
