package encoding

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVarintBoundaries(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{math.MaxUint64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}

	for _, tt := range tests {
		got := EncodeVarint(tt.value)
		assert.Equal(t, tt.want, got, "EncodeVarint(%d)", tt.value)
		assert.Equal(t, len(tt.want), VarintLen(tt.value), "VarintLen(%d)", tt.value)

		value, n, err := DecodeVarint(got)
		require.NoError(t, err)
		assert.Equal(t, tt.value, value)
		assert.Equal(t, len(got), n)
	}
}

func TestDecodeVarintStopsAtTerminator(t *testing.T) {
	value, n, err := DecodeVarint([]byte{0xAC, 0x02, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, uint64(300), value)
	assert.Equal(t, 2, n)
}

func TestDecodeVarintErrors(t *testing.T) {
	_, _, err := DecodeVarint([]byte{0x80, 0x80})
	assert.True(t, IsDecodeError(err, ErrTruncated), "got %v", err)

	_, _, err = DecodeVarint(nil)
	assert.True(t, IsDecodeError(err, ErrTruncated), "got %v", err)

	overflow := bytes.Repeat([]byte{0xFF}, 9)
	overflow = append(overflow, 0x02)
	_, _, err = DecodeVarint(overflow)
	assert.True(t, IsDecodeError(err, ErrOverflow), "got %v", err)
}

func TestDecodeVarintRejectsNonMinimal(t *testing.T) {
	for _, raw := range [][]byte{
		{0x80, 0x00},
		{0x81, 0x00},
		{0xAC, 0x82, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00},
	} {
		_, _, err := DecodeVarint(raw)
		assert.True(t, IsDecodeError(err, ErrNonCanonical), "%x: got %v", raw, err)
	}

	value, n, err := DecodeVarint([]byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), value)
	assert.Equal(t, 1, n)
}

func TestU64LE(t *testing.T) {
	got := EncodeU64LE(0x0102030405060708)
	assert.Equal(t, [8]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, got)

	five := EncodeU64LE(5)
	assert.Equal(t, [8]byte{0x05}, five)

	value, err := DecodeU64LE(got[:])
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), value)

	_, err = DecodeU64LE([]byte{1, 2, 3})
	assert.True(t, IsDecodeError(err, ErrTruncated))
}

func TestHexRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		{0xde, 0xad, 0xbe, 0xef},
		bytes.Repeat([]byte{0x7f}, 20),
	}

	for _, b := range inputs {
		s := EncodeHex(b)
		assert.True(t, len(s) >= 2 && s[:2] == "0x")

		decoded, err := DecodeHex(s)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(b, decoded), "round trip of %x", b)
	}
}

func TestDecodeHex(t *testing.T) {
	b, err := DecodeHex("DEADbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	_, err = DecodeHex("0xabc")
	assert.True(t, IsDecodeError(err, ErrOddLength), "got %v", err)

	_, err = DecodeHex("0xzz")
	assert.True(t, IsDecodeError(err, ErrInvalidHex), "got %v", err)
}

func TestDecodeHexFixed(t *testing.T) {
	_, err := DecodeHexFixed("0x0102", 3)
	assert.True(t, IsDecodeError(err, ErrLengthMismatch), "got %v", err)

	b, err := DecodeHexFixed("0x010203", 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	id, err := DecodeHex32("0x1fcc126e748fb9c9b1344cbfbc8a506da9ea39d6ad4bae99028ea9b6dcbcda4d")
	require.NoError(t, err)
	assert.Equal(t, byte(0x1f), id[0])
	assert.Equal(t, byte(0x4d), id[31])

	_, err = DecodeHex32("0xffff")
	assert.Error(t, err)
}
