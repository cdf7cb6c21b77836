package roles

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/suffix-labs/quible-tx/pkg/tx"
)

// Combiner error codes.
const (
	ErrNoParts         = "NO_PARTS"           // Nothing to combine
	ErrMissingPart     = "MISSING_PART"       // A part carries no signed transaction
	ErrIncompatible    = "INCOMPATIBLE"       // Parts sign different transactions
	ErrInputConflict   = "INPUT_CONFLICT"     // Two parts claim the same input
	ErrInputUnclaimed  = "INPUT_UNCLAIMED"    // No part claims an input
	ErrInputOutOfRange = "INPUT_OUT_OF_RANGE" // A part claims an input that does not exist
)

// CombineError is returned when signed parts cannot be merged.
type CombineError struct {
	Code    string // Error code (e.g., ErrInputConflict)
	Input   int    // Input index the error refers to, or -1
	Message string // Human-readable error message
}

func (e *CombineError) Error() string {
	if e.Input >= 0 {
		return fmt.Sprintf("combine error [%s] at input %d: %s", e.Code, e.Input, e.Message)
	}
	return fmt.Sprintf("combine error [%s]: %s", e.Code, e.Message)
}

// IsCombineError reports whether err is a CombineError with the given code.
func IsCombineError(err error, code string) bool {
	var ce *CombineError
	return errors.As(err, &ce) && ce.Code == code
}

// CombinePart is one party's signed copy of a transaction together with
// the inputs that party owns.
type CombinePart struct {
	Signed *SignedTransaction
	Inputs []int
}

// Combiner merges copies of one transaction signed by different parties.
//
// Quible transactions that move an object usually spend two outpoints with
// different owners: a funding outpoint and the object's current outpoint.
// Each owner signs the same unsigned contents with their own Signer; the
// Combiner then takes each input's signature script from the party that
// owns it.
type Combiner struct {
	parts []CombinePart
}

// NewCombiner creates a Combiner over parts.
func NewCombiner(parts ...CombinePart) *Combiner {
	return &Combiner{parts: parts}
}

// Combine merges all parts into a single signed transaction.
//
// Returns an error if:
//   - There are no parts, or a part has no signed transaction
//   - Parts differ in anything but their signature scripts
//   - An input is claimed by more than one part, or by none
//   - A part claims an input index that does not exist
func (c *Combiner) Combine() (*SignedTransaction, error) {
	if len(c.parts) == 0 {
		return nil, &CombineError{Code: ErrNoParts, Input: -1, Message: "no signed transactions to combine"}
	}

	for i, part := range c.parts {
		if part.Signed == nil {
			return nil, &CombineError{Code: ErrMissingPart, Input: -1, Message: fmt.Sprintf("part %d has no signed transaction", i)}
		}
	}

	base := c.parts[0].Signed.Contents
	baseDigest := unsignedEncoding(base)

	for i := 1; i < len(c.parts); i++ {
		if !bytes.Equal(baseDigest, unsignedEncoding(c.parts[i].Signed.Contents)) {
			return nil, &CombineError{
				Code:    ErrIncompatible,
				Input:   -1,
				Message: fmt.Sprintf("part %d signs a different transaction than part 0", i),
			}
		}
	}

	owner, err := c.assignInputs(len(base.Inputs))
	if err != nil {
		return nil, err
	}

	result := base.Clone()
	for i := range result.Inputs {
		src := c.parts[owner[i]].Signed.Contents.Inputs[i]
		result.Inputs[i].SignatureScript = src.SignatureScript.Clone()
	}

	return &SignedTransaction{Contents: result}, nil
}

// assignInputs maps every input index to the part that owns it.
func (c *Combiner) assignInputs(numInputs int) ([]int, error) {
	owner := make([]int, numInputs)
	for i := range owner {
		owner[i] = -1
	}

	for p, part := range c.parts {
		for _, in := range part.Inputs {
			if in < 0 || in >= numInputs {
				return nil, &CombineError{
					Code:    ErrInputOutOfRange,
					Input:   in,
					Message: fmt.Sprintf("part %d claims a missing input (have %d inputs)", p, numInputs),
				}
			}
			if owner[in] >= 0 && owner[in] != p {
				return nil, &CombineError{
					Code:    ErrInputConflict,
					Input:   in,
					Message: fmt.Sprintf("claimed by parts %d and %d", owner[in], p),
				}
			}
			owner[in] = p
		}
	}

	var unclaimed []int
	for i, p := range owner {
		if p < 0 {
			unclaimed = append(unclaimed, i)
		}
	}
	if len(unclaimed) > 0 {
		return nil, &CombineError{
			Code:    ErrInputUnclaimed,
			Input:   unclaimed[0],
			Message: fmt.Sprintf("%d input(s) not claimed by any part", len(unclaimed)),
		}
	}

	return owner, nil
}

// unsignedEncoding encodes c with every signature script emptied.
func unsignedEncoding(c tx.Contents) []byte {
	u := c.Clone()
	for i := range u.Inputs {
		u.Inputs[i].SignatureScript = nil
	}
	return tx.Encode(u).Raw
}
