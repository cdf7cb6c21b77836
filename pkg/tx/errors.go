// Package tx error types.
//
// Encoding a well-formed Contents never fails. Errors only arise when
// decoding bytes or descriptions supplied from outside, and when a caller
// hands over a value the wire format cannot express.
package tx

import (
	"errors"
	"fmt"
)

// ParseError is returned when transaction bytes or a transaction
// description cannot be decoded.
type ParseError struct {
	Code    string // Error code (e.g., ErrUnknownTag, ErrTrailingBytes)
	Offset  int    // Byte offset (binary input) or -1 when not applicable
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *ParseError) Error() string {
	where := ""
	if e.Offset >= 0 {
		where = fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Cause != nil {
		return fmt.Sprintf("parse error [%s]%s: %s: %v", e.Code, where, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error [%s]%s: %s", e.Code, where, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Error codes carried by ParseError.
const (
	ErrTruncated          = "TRUNCATED"           // Input ended inside a field
	ErrUnsupportedVersion = "UNSUPPORTED_VERSION" // Version byte is not 0
	ErrUnknownTag         = "UNKNOWN_TAG"         // Opcode, output or mode tag is not defined
	ErrTrailingBytes      = "TRAILING_BYTES"      // Bytes remain after the locktime
	ErrLengthOverflow     = "LENGTH_OVERFLOW"     // A count or length exceeds the remaining input
	ErrInvalidField       = "INVALID_FIELD"       // A description field is missing or malformed
	ErrNonCanonical       = "NON_CANONICAL"       // A varint is not in its shortest form
)

// IsParseError reports whether err is a ParseError with the given code.
// An empty code matches any ParseError.
func IsParseError(err error, code string) bool {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return false
	}
	return code == "" || pe.Code == code
}
