// Package encoding implements the primitive codec shared by every Quible
// wire structure.
//
// The ledger serializes its structures with the Postcard wire format
// (https://postcard.jamesmunns.com/wire-format). Two integer encodings are
// used throughout:
//
//	varint   LEB128, 7 bits per byte, least-significant group first
//	u64le    fixed 8 bytes, little-endian
//
// Lengths and counts are varints; amounts, indices, locktimes and permit
// indices are u64le. Hex helpers convert between byte slices and the
// 0x-prefixed lowercase strings handed to transports.
package encoding

import (
	"encoding/binary"
	"fmt"
)

// MaxVarintLen64 is the maximum number of bytes a 64-bit varint occupies.
const MaxVarintLen64 = 10

// EncodeVarint returns the LEB128 encoding of value.
//
// Zero encodes to a single 0x00 byte. Every byte except the last has its
// high bit set.
func EncodeVarint(value uint64) []byte {
	return AppendVarint(make([]byte, 0, VarintLen(value)), value)
}

// AppendVarint appends the LEB128 encoding of value to dst.
func AppendVarint(dst []byte, value uint64) []byte {
	for {
		b := uint8(value & 0x7F)
		value >>= 7
		if value != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if value == 0 {
			return dst
		}
	}
}

// VarintLen returns the number of bytes EncodeVarint(value) produces.
func VarintLen(value uint64) int {
	n := 1
	for value >= 0x80 {
		value >>= 7
		n++
	}
	return n
}

// DecodeVarint reads a LEB128 varint from the start of buf.
//
// It returns the value and the number of bytes consumed. Only the
// shortest encoding of a value is accepted, so EncodeVarint reproduces
// the bytes read. Truncated input, encodings that overflow 64 bits and
// encodings ending in a redundant zero group are reported as a
// DecodeError.
func DecodeVarint(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint

	for i, b := range buf {
		if i == MaxVarintLen64-1 && b > 1 {
			return 0, 0, &DecodeError{Code: ErrOverflow, Message: "varint exceeds 64 bits"}
		}

		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			if b == 0 && i > 0 {
				return 0, 0, &DecodeError{Code: ErrNonCanonical, Message: "varint is not minimally encoded"}
			}
			return result, i + 1, nil
		}
		shift += 7
	}

	return 0, 0, &DecodeError{Code: ErrTruncated, Message: "varint is truncated"}
}

// EncodeU64LE returns value as 8 little-endian bytes.
func EncodeU64LE(value uint64) [8]byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], value)
	return out
}

// AppendU64LE appends value as 8 little-endian bytes to dst.
func AppendU64LE(dst []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, value)
}

// DecodeU64LE reads 8 little-endian bytes from the start of buf.
func DecodeU64LE(buf []byte) (uint64, error) {
	if len(buf) < 8 {
		return 0, &DecodeError{
			Code:    ErrTruncated,
			Message: fmt.Sprintf("u64 needs 8 bytes, got %d", len(buf)),
		}
	}
	return binary.LittleEndian.Uint64(buf), nil
}
