package roles

import (
	"bytes"
	"fmt"

	"github.com/suffix-labs/quible-tx/pkg/tx"
)

// SpendFinalizer writes signature scripts into transaction inputs.
//
// The Spend Finalizer role:
//   - Takes the signature produced by the Signer role
//   - Replaces each input's script with [Push(signature), Push(address)]
//
// The order is fixed: a verifier pops the address, recovers the signer of
// the unsigned encoding from the signature, and compares the two.
//
// The finalizer works on a deep copy; the contents it was created from are
// never modified.
type SpendFinalizer struct {
	contents tx.Contents
}

// NewSpendFinalizer creates a Spend Finalizer over a copy of c.
func NewSpendFinalizer(c tx.Contents) *SpendFinalizer {
	return &SpendFinalizer{contents: c.Clone()}
}

// Finalize sets every input's signature script and returns the result.
func (f *SpendFinalizer) Finalize(signature, address []byte) tx.Contents {
	for i := range f.contents.Inputs {
		f.contents.Inputs[i].SignatureScript = SignatureScript(signature, address)
	}
	return f.contents
}

// FinalizeInput sets the signature script of a single input.
//
// Returns an error if index is out of bounds.
func (f *SpendFinalizer) FinalizeInput(index int, signature, address []byte) error {
	if index < 0 || index >= len(f.contents.Inputs) {
		return fmt.Errorf("input index %d out of bounds (have %d inputs)",
			index, len(f.contents.Inputs))
	}

	f.contents.Inputs[index].SignatureScript = SignatureScript(signature, address)
	return nil
}

// Finish returns the finalized contents.
func (f *SpendFinalizer) Finish() tx.Contents {
	return f.contents
}

// SignatureScript builds the script that unlocks an input:
// [Push(signature), Push(address)].
func SignatureScript(signature, address []byte) tx.Script {
	return tx.Script{
		tx.Push{Data: bytes.Clone(signature)},
		tx.Push{Data: bytes.Clone(address)},
	}
}
