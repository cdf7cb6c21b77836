package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDescription = `{
  "inputs": [
    {
      "outpoint": {
        "txid": "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
        "index": 0
      },
      "signatureScript": []
    }
  ],
  "outputs": [
    {
      "type": "Value",
      "data": {
        "value": "5",
        "pubkeyScript": [
          {"code": "DUP"},
          {"code": "PUSH", "data": "0x7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f7f"},
          {"code": "EQUALVERIFY"},
          {"code": "CHECKSIGVERIFY"}
        ]
      }
    }
  ],
  "locktime": 0
}`

func TestParseJSONSampleTransaction(t *testing.T) {
	c, err := ParseJSON([]byte(sampleDescription))
	require.NoError(t, err)

	assert.Equal(t, sampleTransaction(), c)
	assert.Equal(t, sampleEncodingHex, Encode(c).Hex())
}

func TestJSONRoundTrip(t *testing.T) {
	c := objectTransaction()
	c.Outputs = append(c.Outputs, ValueOutput{Value: 18446744073709551615})
	c.Locktime = 12

	data, err := c.MarshalJSON()
	require.NoError(t, err)

	parsed, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, Encode(c).Raw, Encode(parsed).Raw)
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"inputs": [`},
		{"not an object", `[1, 2]`},
		{"short txid", `{"inputs": [{"outpoint": {"txid": "0xffff", "index": 0}}]}`},
		{"negative index", `{"inputs": [{"outpoint": {"txid": "0x` + zeros64 + `", "index": -1}}]}`},
		{"unknown output", `{"outputs": [{"type": "Coin", "data": {}}]}`},
		{"unknown opcode", `{"outputs": [{"type": "Value", "data": {"value": 1, "pubkeyScript": [{"code": "NOP"}]}}]}`},
		{"odd push data", `{"outputs": [{"type": "Value", "data": {"value": 1, "pubkeyScript": [{"code": "PUSH", "data": "0xabc"}]}}]}`},
		{"unknown mode", `{"outputs": [{"type": "Object", "data": {"objectId": {"raw": "0x` + zeros64 + `", "mode": {"type": "Stale"}}}}]}`},
		{"script not array", `{"outputs": [{"type": "Value", "data": {"value": 1, "pubkeyScript": "DUP"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, IsParseError(err, ErrInvalidField), "got %v", err)
		})
	}
}

const zeros64 = "0000000000000000000000000000000000000000000000000000000000000000"
