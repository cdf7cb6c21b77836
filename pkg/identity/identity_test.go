package identity

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/quible-tx/pkg/crypto"
	"github.com/suffix-labs/quible-tx/pkg/encoding"
	"github.com/suffix-labs/quible-tx/pkg/roles"
	"github.com/suffix-labs/quible-tx/pkg/tx"
)

func outpoint(b byte, index uint64) tx.Outpoint {
	var txid [32]byte
	for i := range txid {
		txid[i] = b
	}
	return tx.Outpoint{TxID: txid, Index: index}
}

func keySigner(t *testing.T, last byte) *roles.Signer {
	t.Helper()

	raw := make([]byte, 32)
	raw[31] = last
	key, err := crypto.PrivateKeyFromBytes(raw)
	require.NoError(t, err)

	ks := crypto.NewKeySigner(key, crypto.HashKeccak)
	return roles.NewSigner(ks.Address().Bytes(), ks)
}

func TestObjectIDFromOutpoint(t *testing.T) {
	op := outpoint(0xab, 3)

	want := append(bytes.Repeat([]byte{0xab}, 32), 3, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, make([]byte, 8)...)
	assert.Equal(t, ID(crypto.Keccak256(want)), ObjectIDFromOutpoint(op))

	assert.NotEqual(t, ObjectIDFromOutpoint(op), ObjectIDFromOutpoint(outpoint(0xab, 4)))
	assert.NotEqual(t, ObjectIDFromOutpoint(op), ObjectIDFromOutpoint(outpoint(0xac, 3)))
}

func TestParseID(t *testing.T) {
	id := ObjectIDFromOutpoint(outpoint(1, 0))

	parsed, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Equal(t, id.Hex(), id.String())

	_, err = ParseID("0x1234")
	require.Error(t, err)
	assert.True(t, encoding.IsDecodeError(err, encoding.ErrLengthMismatch))
}

func TestParseClaim(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"alice@example.com", []byte("alice@example.com"), false},
		{"0xdeadbeef", []byte{0xde, 0xad, 0xbe, 0xef}, false},
		{"deadbeef", []byte("deadbeef"), false},
		{"0x", []byte{}, false},
		{"0xabc", nil, true},
		{"0xzz", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClaim(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	claims, err := ParseClaims([]string{"a", "0x01"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), {1}}, claims)

	_, err = ParseClaims([]string{"a", "0x1"})
	assert.Error(t, err)
}

func TestCreateTransaction(t *testing.T) {
	funding := outpoint(0x11, 0)
	owner := bytes.Repeat([]byte{0x22}, 20)

	c, id := CreateTransaction(funding, owner, [][]byte{[]byte("a"), []byte("b")}, Options{})
	assert.Equal(t, ObjectIDFromOutpoint(funding), id)

	require.Len(t, c.Inputs, 1)
	assert.Equal(t, funding, c.Inputs[0].Outpoint)
	assert.Empty(t, c.Inputs[0].SignatureScript)

	require.Len(t, c.Outputs, 1)
	out, ok := c.Outputs[0].(tx.ObjectOutput)
	require.True(t, ok)
	assert.Equal(t, tx.ObjectIdentifier{Raw: [32]byte(id), Mode: tx.Fresh{}}, out.ObjectID)
	assert.Equal(t, tx.Script{tx.Insert{Data: []byte("a")}, tx.Insert{Data: []byte("b")}}, out.Data)
	assert.Equal(t, roles.PayToAddressScript(owner), out.Pubkey)
	assert.Equal(t, uint64(0), c.Locktime)

	withTTL, _ := CreateTransaction(funding, owner, [][]byte{[]byte("a")}, Options{CertificateLifespan: 3600, Locktime: 5})
	data := withTTL.Outputs[0].(tx.ObjectOutput).Data
	assert.Equal(t, tx.Script{tx.SetCertTTL{TTL: 3600}, tx.Insert{Data: []byte("a")}}, data)
	assert.Equal(t, uint64(5), withTTL.Locktime)
}

func TestCreateTransactionEncoding(t *testing.T) {
	funding := outpoint(0x11, 0)
	owner := bytes.Repeat([]byte{0x22}, 20)

	c, id := CreateTransaction(funding, owner, [][]byte{[]byte("alice")}, Options{})

	want := "0x" +
		"00" + // version
		"01" + strings.Repeat("11", 32) + "0000000000000000" + "00" +
		"01" + // one output
		"01" + id.Hex()[2:] + "00" +
		"07" + "0405616c696365" + // data script: byte length, Insert("alice")
		"04" + "02" + "0014" + strings.Repeat("22", 20) + "03" + "01" +
		"0000000000000000"

	assert.Equal(t, want, tx.Encode(c).Hex())

	decoded, err := tx.DecodeHex(want)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestUpdateTransaction(t *testing.T) {
	u := Update{
		Funding: outpoint(0x01, 0),
		Current: outpoint(0x02, 1),
		ID:      ObjectIDFromOutpoint(outpoint(0x03, 0)),
		Owner:   bytes.Repeat([]byte{0x44}, 20),
		Insert:  [][]byte{[]byte("new")},
		Delete:  [][]byte{[]byte("old")},
	}

	c := UpdateTransaction(u, Options{PermitIndex: 2, CertificateLifespan: 60})

	require.Len(t, c.Inputs, 2)
	assert.Equal(t, u.Funding, c.Inputs[0].Outpoint)
	assert.Equal(t, u.Current, c.Inputs[1].Outpoint)

	out := c.Outputs[0].(tx.ObjectOutput)
	assert.Equal(t, tx.Existing{PermitIndex: 2}, out.ObjectID.Mode)
	assert.Equal(t, tx.Script{
		tx.SetCertTTL{TTL: 60},
		tx.Insert{Data: []byte("new")},
		tx.Delete{Data: []byte("old")},
	}, out.Data)

	// Updates round-trip through the codec.
	decoded, err := tx.Decode(tx.Encode(c).Raw)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestSignUpdate(t *testing.T) {
	funder := keySigner(t, 1)
	owner := keySigner(t, 2)

	c := UpdateTransaction(Update{
		Funding: outpoint(0x01, 0),
		Current: outpoint(0x02, 0),
		ID:      ObjectIDFromOutpoint(outpoint(0x01, 7)),
		Owner:   owner.Address(),
		Insert:  [][]byte{[]byte("claim")},
	}, Options{})

	signed, err := SignUpdate(context.Background(), funder, owner, c)
	require.NoError(t, err)

	digest := crypto.Keccak256(tx.Encode(c).Raw)
	for i, want := range [][]byte{funder.Address(), owner.Address()} {
		script := signed.Contents.Inputs[i].SignatureScript
		require.Len(t, script, 2)

		sig := script[0].(tx.Push).Data
		addr := script[1].(tx.Push).Data
		assert.Equal(t, want, addr, "input %d", i)

		recovered, err := crypto.RecoverAddress(sig, digest)
		require.NoError(t, err)
		assert.Equal(t, want, recovered.Bytes(), "input %d", i)
	}
}

func TestSignUpdateErrors(t *testing.T) {
	funder := keySigner(t, 1)

	_, err := SignUpdate(context.Background(), funder, funder, tx.Contents{Inputs: make([]tx.Input, 1)})
	assert.Error(t, err)

	rejected := errors.New("rejected")
	refusing := roles.NewSigner([]byte{1}, roles.MessageSignerFunc(func(ctx context.Context, msg []byte) ([]byte, error) {
		return nil, rejected
	}))

	c := UpdateTransaction(Update{Funding: outpoint(1, 0), Current: outpoint(2, 0)}, Options{})
	_, err = SignUpdate(context.Background(), funder, refusing, c)
	require.Error(t, err)
	assert.Same(t, rejected, pkgerrors.Cause(err))
	assert.ErrorIs(t, err, rejected)
}
