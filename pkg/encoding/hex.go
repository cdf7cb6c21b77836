package encoding

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexPrefix is the prefix EncodeHex emits and DecodeHex accepts.
const HexPrefix = "0x"

// EncodeHex returns b as a lowercase 0x-prefixed hex string.
func EncodeHex(b []byte) string {
	return HexPrefix + hex.EncodeToString(b)
}

// DecodeHex decodes a 0x-prefixed or bare hex string.
//
// Odd-length strings and non-hex characters are rejected with a
// DecodeError. The empty string (or a lone "0x") decodes to an empty slice.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, HexPrefix)

	if len(s)%2 != 0 {
		return nil, &DecodeError{
			Code:    ErrOddLength,
			Message: fmt.Sprintf("hex string must have an even length, got %d digits", len(s)),
		}
	}

	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Code: ErrInvalidHex, Message: "malformed hex string", Cause: err}
	}

	return out, nil
}

// DecodeHexFixed decodes s like DecodeHex and additionally requires the
// decoded value to be exactly n bytes long.
func DecodeHexFixed(s string, n int) ([]byte, error) {
	out, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}

	if len(out) != n {
		return nil, &DecodeError{
			Code:    ErrLengthMismatch,
			Message: fmt.Sprintf("expected %d bytes, got %d", n, len(out)),
		}
	}

	return out, nil
}

// DecodeHex32 decodes a 32-byte value such as a txid or an object id.
func DecodeHex32(s string) ([32]byte, error) {
	var out [32]byte

	b, err := DecodeHexFixed(s, len(out))
	if err != nil {
		return out, err
	}

	copy(out[:], b)
	return out, nil
}
