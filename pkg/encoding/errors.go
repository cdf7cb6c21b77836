package encoding

import (
	"errors"
	"fmt"
)

// DecodeError is returned when a byte or hex representation cannot be
// decoded into the requested value.
//
// Decoding never truncates or pads: any mismatch between what the input
// holds and what the caller asked for is reported as a DecodeError.
type DecodeError struct {
	Code    string // Error code (e.g., ErrOddLength, ErrLengthMismatch)
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error [%s]: %s", e.Code, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Error codes carried by DecodeError.
const (
	ErrOddLength      = "ODD_LENGTH"      // Hex string has an odd number of digits
	ErrInvalidHex     = "INVALID_HEX"     // Hex string contains a non-hex character
	ErrLengthMismatch = "LENGTH_MISMATCH" // Decoded length differs from the required length
	ErrTruncated      = "TRUNCATED"       // Input ended in the middle of a value
	ErrOverflow       = "OVERFLOW"        // Varint does not fit in 64 bits
	ErrNonCanonical   = "NON_CANONICAL"   // Varint carries redundant trailing zero groups
)

// IsDecodeError reports whether err is a DecodeError with the given code.
// An empty code matches any DecodeError.
func IsDecodeError(err error, code string) bool {
	var de *DecodeError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}
