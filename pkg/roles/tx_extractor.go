package roles

import (
	"fmt"

	"github.com/suffix-labs/quible-tx/pkg/tx"
)

// TxExtractor extracts the submittable bytes of a signed transaction.
//
// The Transaction Extractor role:
//   - Checks that every input carries a signature script
//   - Encodes the transaction
//
// This is the final role. After extraction, the bytes can be handed to
// quible_sendRawTransaction.
type TxExtractor struct {
	signed *SignedTransaction
}

// NewTxExtractor creates a new Transaction Extractor.
func NewTxExtractor(signed *SignedTransaction) *TxExtractor {
	return &TxExtractor{signed: signed}
}

// Extract returns the encoded transaction.
//
// Returns an error if:
//   - The transaction has no inputs
//   - Any input has an empty signature script
func (e *TxExtractor) Extract() (tx.Encoded, error) {
	if err := e.validate(); err != nil {
		return tx.Encoded{}, err
	}
	return e.signed.Encode(), nil
}

// validate checks the transaction is ready for submission.
//
// Validation rules:
//   - At least one input, since nodes reject transactions spending nothing
//   - Every input has a signature script
func (e *TxExtractor) validate() error {
	inputs := e.signed.Contents.Inputs
	if len(inputs) == 0 {
		return fmt.Errorf("transaction has no inputs")
	}

	for i, in := range inputs {
		if len(in.SignatureScript) == 0 {
			return fmt.Errorf("input %d is not signed", i)
		}
	}

	return nil
}
