package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/suffix-labs/quible-tx/pkg/crypto"
	"github.com/suffix-labs/quible-tx/pkg/identity"
	"github.com/suffix-labs/quible-tx/pkg/roles"
	"github.com/suffix-labs/quible-tx/pkg/tx"
)

const (
	faucetKeyHex  = "0x6cb79db826dbbb5fb2210ff383d2fb5ce050f2ff59039970387d59d46c5e1f96"
	faucetAddress = "0xfe2df36bc6ca517ebdf208d6e772ce4f4a7c4ce4"

	coinbaseSpend = `{
  "inputs": [{
    "outpoint": {"txid": "0x1fcc126e748fb9c9b1344cbfbc8a506da9ea39d6ad4bae99028ea9b6dcbcda4d", "index": 0},
    "signatureScript": []
  }],
  "outputs": [{"type": "Value", "data": {"value": "5", "pubkeyScript": []}}],
  "locktime": 0
}`

	unsignedCoinbaseSpend = "0x00011fcc126e748fb9c9b1344cbfbc8a506da9ea39d6ad4bae99028ea9b6dcbcda4d00000000000000000001000500000000000000000000000000000000"
	signedCoinbaseSpend   = "0x00011fcc126e748fb9c9b1344cbfbc8a506da9ea39d6ad4bae99028ea9b6dcbcda4d0000000000000000020041194f5f30986b282faf2d95d7778037c08aab7561e22d98693f48194d3fde56fb6660b808953fad3eff44a47bb704cc90e1802a893f4315f1eabcc76d7f264b5a1b0014fe2df36bc6ca517ebdf208d6e772ce4f4a7c4ce401000500000000000000000000000000000000"
)

func faucet(t *testing.T) *roles.Signer {
	t.Helper()

	signer, err := NewKeySigner(KeyConfig{Key: faucetKeyHex}, zerolog.Nop())
	require.NoError(t, err)
	return signer
}

func TestEncodeJSON(t *testing.T) {
	hex, err := EncodeJSON([]byte(coinbaseSpend))
	require.NoError(t, err)
	assert.Equal(t, unsignedCoinbaseSpend, hex)

	_, err = EncodeJSON([]byte(`{"inputs": 1}`))
	require.Error(t, err)
	assert.True(t, tx.IsParseError(err, tx.ErrInvalidField))
}

func TestDecodeHex(t *testing.T) {
	doc, err := DecodeHex(signedCoinbaseSpend)
	require.NoError(t, err)

	parsed := gjson.ParseBytes(doc)
	assert.Equal(t, "Value", parsed.Get("outputs.0.type").String())
	assert.Equal(t, uint64(5), parsed.Get("outputs.0.data.value").Uint())
	assert.Equal(t, "PUSH", parsed.Get("inputs.0.signatureScript.1.code").String())
	assert.Equal(t, faucetAddress, parsed.Get("inputs.0.signatureScript.1.data").String())

	// The description encodes back to the same bytes.
	hex, err := EncodeJSON(doc)
	require.NoError(t, err)
	assert.Equal(t, signedCoinbaseSpend, hex)

	_, err = DecodeHex("0x01")
	require.Error(t, err)
	assert.True(t, tx.IsParseError(err, tx.ErrUnsupportedVersion))
}

func TestTxIDJSON(t *testing.T) {
	id, err := TxIDJSON([]byte(coinbaseSpend))
	require.NoError(t, err)

	c, err := tx.DecodeHex(unsignedCoinbaseSpend)
	require.NoError(t, err)
	want := crypto.Keccak256(tx.Encode(c).Raw)
	assert.Equal(t, want, mustHex32(t, id))

	_, err = TxIDJSON([]byte(`nope`))
	assert.Error(t, err)
}

func TestSignJSON(t *testing.T) {
	result, err := SignJSON(context.Background(), []byte(coinbaseSpend), faucet(t))
	require.NoError(t, err)

	assert.Equal(t, signedCoinbaseSpend, result.Hex)
	assert.Len(t, result.Signature, 2+2*crypto.SignatureLength)

	signed, err := tx.DecodeHex(result.Hex)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256(tx.Encode(signed).Raw), mustHex32(t, result.TxID))

	hex, err := EncodeJSON(result.Transaction)
	require.NoError(t, err)
	assert.Equal(t, result.Hex, hex)

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Equal(t, result.Hex, gjson.GetBytes(out, "hex").String())
}

func TestSignJSONPropagatesSignerError(t *testing.T) {
	rejected := errors.New("rejected by user")
	signer := roles.NewSigner([]byte{1}, roles.MessageSignerFunc(func(ctx context.Context, msg []byte) ([]byte, error) {
		return nil, rejected
	}))

	_, err := SignJSON(context.Background(), []byte(coinbaseSpend), signer)
	assert.Same(t, rejected, err)
}

func TestParseSigningKey(t *testing.T) {
	key, err := ParseSigningKey(faucetKeyHex, KeyFormatHex)
	require.NoError(t, err)

	wif, err := crypto.EncodeWIF(key.Bytes(), true, false)
	require.NoError(t, err)

	fromWIF, err := ParseSigningKey(wif, KeyFormatWIF)
	require.NoError(t, err)
	assert.Equal(t, key.Bytes(), fromWIF.Bytes())

	_, err = ParseSigningKey(faucetKeyHex, "pem")
	assert.Error(t, err)

	_, err = ParseSigningKey("0x12", "")
	assert.Error(t, err)

	_, err = ParseSigningKey(wif, KeyFormatHex)
	assert.Error(t, err)
}

func TestAddressFromKey(t *testing.T) {
	addr, err := AddressFromKey(faucetKeyHex, "")
	require.NoError(t, err)
	assert.Equal(t, faucetAddress, addr)

	_, err = AddressFromKey("", KeyFormatWIF)
	assert.Error(t, err)
}

func TestNewKeySignerHashMode(t *testing.T) {
	_, err := NewKeySigner(KeyConfig{Key: faucetKeyHex, HashMode: "md5"}, zerolog.Nop())
	assert.Error(t, err)

	signer, err := NewKeySigner(KeyConfig{Key: faucetKeyHex, HashMode: "eip191"}, zerolog.Nop())
	require.NoError(t, err)

	result, err := SignJSON(context.Background(), []byte(coinbaseSpend), signer)
	require.NoError(t, err)
	assert.NotEqual(t, signedCoinbaseSpend, result.Hex)

	sig := mustHex(t, result.Signature)
	digest := crypto.EIP191Hash(mustHex(t, unsignedCoinbaseSpend))
	recovered, err := crypto.RecoverAddress(sig, digest)
	require.NoError(t, err)
	assert.Equal(t, faucetAddress, recovered.Hex())
}

func TestCreateIdentity(t *testing.T) {
	req := CreateIdentityRequest{
		Funding:             Outpoint{TxID: "0x1fcc126e748fb9c9b1344cbfbc8a506da9ea39d6ad4bae99028ea9b6dcbcda4d", Index: 2},
		Owner:               "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf",
		Claims:              []string{"alice", "0x0102"},
		CertificateLifespan: 86400,
	}

	result, err := CreateIdentity(context.Background(), req, faucet(t))
	require.NoError(t, err)

	funding, err := req.Funding.parse()
	require.NoError(t, err)
	assert.Equal(t, identity.ObjectIDFromOutpoint(funding).Hex(), result.ID)

	c, err := tx.DecodeHex(result.Hex)
	require.NoError(t, err)
	out := c.Outputs[0].(tx.ObjectOutput)
	assert.Equal(t, tx.Fresh{}, out.ObjectID.Mode)
	assert.Equal(t, tx.Script{
		tx.SetCertTTL{TTL: 86400},
		tx.Insert{Data: []byte("alice")},
		tx.Insert{Data: []byte{1, 2}},
	}, out.Data)

	bad := req
	bad.Owner = "0x1234"
	_, err = CreateIdentity(context.Background(), bad, faucet(t))
	assert.Error(t, err)

	bad = req
	bad.Funding.TxID = "0x00"
	_, err = CreateIdentity(context.Background(), bad, faucet(t))
	assert.Error(t, err)

	bad = req
	bad.Claims = []string{"0xf"}
	_, err = CreateIdentity(context.Background(), bad, faucet(t))
	assert.Error(t, err)
}

func TestUpdateIdentity(t *testing.T) {
	owner, err := NewKeySigner(KeyConfig{Key: "0x0000000000000000000000000000000000000000000000000000000000000001"}, zerolog.Nop())
	require.NoError(t, err)

	id := identity.ObjectIDFromOutpoint(tx.Outpoint{Index: 9})
	req := UpdateIdentityRequest{
		ID:          id.Hex(),
		Funding:     Outpoint{TxID: "0x1fcc126e748fb9c9b1344cbfbc8a506da9ea39d6ad4bae99028ea9b6dcbcda4d", Index: 0},
		Current:     Outpoint{TxID: "0x" + zeros64, Index: 1},
		Insert:      []string{"bob"},
		Delete:      []string{"alice"},
		PermitIndex: 1,
	}

	result, err := UpdateIdentity(context.Background(), req, faucet(t), owner)
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), result.ID)
	assert.Empty(t, result.Signature)

	c, err := tx.DecodeHex(result.Hex)
	require.NoError(t, err)
	require.Len(t, c.Inputs, 2)
	assert.Equal(t, faucetAddress, hexOf(c.Inputs[0].SignatureScript[1].(tx.Push).Data))
	assert.Equal(t, owner.Address(), c.Inputs[1].SignatureScript[1].(tx.Push).Data)

	out := c.Outputs[0].(tx.ObjectOutput)
	assert.Equal(t, tx.Existing{PermitIndex: 1}, out.ObjectID.Mode)
	assert.Equal(t, roles.PayToAddressScript(owner.Address()), out.Pubkey)

	bad := req
	bad.ID = "0x01"
	_, err = UpdateIdentity(context.Background(), bad, faucet(t), owner)
	assert.Error(t, err)
}
