// Package tx implements the Quible transaction format.
//
// A transaction spends outpoints (references to outputs of earlier
// transactions) and creates new outputs. There are two kinds of output:
//
//   - Value outputs carry an amount locked by a pubkey script.
//   - Object outputs create or update a ledger object identified by a
//     32-byte id. Their data script mutates the object's claim set; their
//     pubkey script locks the object to an owner.
//
// Scripts are ordered sequences of opcodes. Opcodes and outputs are closed
// sum types: the concrete types in this package are the only possible
// values, and every encoder switches over all of them.
//
// The byte layout is the node's Postcard encoding of Transaction::Version1
// and must be reproduced bit-for-bit: the signing digest of a transaction
// is its encoding with empty signature scripts, and verifiers rebuild that
// same digest to check a signature.
package tx

import (
	"bytes"

	"github.com/suffix-labs/quible-tx/pkg/encoding"
)

// Version is the only transaction version the node accepts.
const Version uint8 = 0

// Opcode tags on the wire.
const (
	TagPush           uint8 = 0
	TagCheckSigVerify uint8 = 1
	TagDup            uint8 = 2
	TagEqualVerify    uint8 = 3
	TagInsert         uint8 = 4
	TagDelete         uint8 = 5
	TagDeleteAll      uint8 = 6
	TagSetCertTTL     uint8 = 7
)

// Output kind tags on the wire.
const (
	OutputTagValue  uint8 = 0
	OutputTagObject uint8 = 1
)

// Object mode tags on the wire.
const (
	ModeTagFresh    uint8 = 0
	ModeTagExisting uint8 = 1
)

// Opcode is a single script operation.
//
// The set of implementations is closed: Push, CheckSigVerify, Dup,
// EqualVerify, Insert, Delete, DeleteAll and SetCertTTL. Pointers to these
// are accepted and encode like the value; a nil opcode makes Encode panic.
type Opcode interface {
	// Tag returns the opcode's one-byte wire tag.
	Tag() uint8

	isOpcode()
}

// Push places Data on the stack.
type Push struct{ Data []byte }

// CheckSigVerify verifies a signature against the transaction digest.
type CheckSigVerify struct{}

// Dup duplicates the top stack item.
type Dup struct{}

// EqualVerify fails unless the two top stack items are equal.
type EqualVerify struct{}

// Insert adds Data to an object's claim set.
type Insert struct{ Data []byte }

// Delete removes Data from an object's claim set.
type Delete struct{ Data []byte }

// DeleteAll clears an object's claim set.
type DeleteAll struct{}

// SetCertTTL sets the lifespan, in seconds, of certificates issued for
// the object's claims.
type SetCertTTL struct{ TTL uint64 }

func (Push) Tag() uint8           { return TagPush }
func (CheckSigVerify) Tag() uint8 { return TagCheckSigVerify }
func (Dup) Tag() uint8            { return TagDup }
func (EqualVerify) Tag() uint8    { return TagEqualVerify }
func (Insert) Tag() uint8         { return TagInsert }
func (Delete) Tag() uint8         { return TagDelete }
func (DeleteAll) Tag() uint8      { return TagDeleteAll }
func (SetCertTTL) Tag() uint8     { return TagSetCertTTL }

func (Push) isOpcode()           {}
func (CheckSigVerify) isOpcode() {}
func (Dup) isOpcode()            {}
func (EqualVerify) isOpcode()    {}
func (Insert) isOpcode()         {}
func (Delete) isOpcode()         {}
func (DeleteAll) isOpcode()      {}
func (SetCertTTL) isOpcode()     {}

// opcodeValue returns the value form of a pointer opcode.
func opcodeValue(op Opcode) Opcode {
	switch p := op.(type) {
	case *Push:
		if p != nil {
			return *p
		}
	case *CheckSigVerify:
		if p != nil {
			return *p
		}
	case *Dup:
		if p != nil {
			return *p
		}
	case *EqualVerify:
		if p != nil {
			return *p
		}
	case *Insert:
		if p != nil {
			return *p
		}
	case *Delete:
		if p != nil {
			return *p
		}
	case *DeleteAll:
		if p != nil {
			return *p
		}
	case *SetCertTTL:
		if p != nil {
			return *p
		}
	default:
		return op
	}
	return nil
}

// Script is an ordered sequence of opcodes.
type Script []Opcode

// Outpoint identifies an output of an earlier transaction.
type Outpoint struct {
	TxID  [32]byte // Hash of the transaction that created the output
	Index uint64   // Position of the output in that transaction
}

// Input spends an outpoint.
//
// Inputs are built with an empty SignatureScript; the Signer replaces it
// with [Push(signature), Push(address)].
type Input struct {
	Outpoint        Outpoint
	SignatureScript Script
}

// ObjectMode tells whether an object output creates or updates an object.
// Implementations are Fresh and Existing.
type ObjectMode interface {
	Tag() uint8

	isObjectMode()
}

// modeValue returns the value form of a pointer mode. A nil *Fresh or
// *Existing becomes nil, which encodes as Fresh.
func modeValue(m ObjectMode) ObjectMode {
	switch p := m.(type) {
	case *Fresh:
		if p != nil {
			return *p
		}
	case *Existing:
		if p != nil {
			return *p
		}
	default:
		return m
	}
	return nil
}

// Fresh marks the first creation of an object.
type Fresh struct{}

// Existing marks an update of an object and carries its permit index.
type Existing struct{ PermitIndex uint64 }

func (Fresh) Tag() uint8    { return ModeTagFresh }
func (Existing) Tag() uint8 { return ModeTagExisting }

func (Fresh) isObjectMode()    {}
func (Existing) isObjectMode() {}

// ObjectIdentifier names a ledger object together with how the output
// refers to it.
type ObjectIdentifier struct {
	Raw  [32]byte
	Mode ObjectMode
}

// Output is a transaction output: either ValueOutput or ObjectOutput, or
// a pointer to one. A nil output makes Encode panic.
type Output interface {
	Tag() uint8

	// PubkeyScript returns the script that locks the output.
	PubkeyScript() Script

	isOutput()
}

// ValueOutput carries Value units locked by Pubkey.
type ValueOutput struct {
	Value  uint64
	Pubkey Script
}

// ObjectOutput creates or updates the object ObjectID. Data mutates the
// object's state; Pubkey locks it to its owner.
type ObjectOutput struct {
	ObjectID ObjectIdentifier
	Data     Script
	Pubkey   Script
}

func (ValueOutput) Tag() uint8  { return OutputTagValue }
func (ObjectOutput) Tag() uint8 { return OutputTagObject }

func (o ValueOutput) PubkeyScript() Script  { return o.Pubkey }
func (o ObjectOutput) PubkeyScript() Script { return o.Pubkey }

func (ValueOutput) isOutput()  {}
func (ObjectOutput) isOutput() {}

// outputValue returns the value form of a pointer output.
func outputValue(o Output) Output {
	switch p := o.(type) {
	case *ValueOutput:
		if p != nil {
			return *p
		}
	case *ObjectOutput:
		if p != nil {
			return *p
		}
	default:
		return o
	}
	return nil
}

// Contents is the structured description of a transaction.
type Contents struct {
	Inputs   []Input
	Outputs  []Output
	Locktime uint64
}

// Clone returns a deep copy of c. Byte payloads of opcodes are copied so
// the clone shares no memory with c.
func (c Contents) Clone() Contents {
	out := Contents{Locktime: c.Locktime}

	if c.Inputs != nil {
		out.Inputs = make([]Input, len(c.Inputs))
		for i, in := range c.Inputs {
			out.Inputs[i] = Input{Outpoint: in.Outpoint, SignatureScript: in.SignatureScript.Clone()}
		}
	}

	if c.Outputs != nil {
		out.Outputs = make([]Output, len(c.Outputs))
		for i, o := range c.Outputs {
			switch o := outputValue(o).(type) {
			case ValueOutput:
				out.Outputs[i] = ValueOutput{Value: o.Value, Pubkey: o.Pubkey.Clone()}
			case ObjectOutput:
				out.Outputs[i] = ObjectOutput{ObjectID: o.ObjectID, Data: o.Data.Clone(), Pubkey: o.Pubkey.Clone()}
			}
		}
	}

	return out
}

// Clone returns a deep copy of s.
func (s Script) Clone() Script {
	if s == nil {
		return nil
	}

	out := make(Script, len(s))
	for i, op := range s {
		switch op := opcodeValue(op).(type) {
		case Push:
			out[i] = Push{Data: bytes.Clone(op.Data)}
		case Insert:
			out[i] = Insert{Data: bytes.Clone(op.Data)}
		case Delete:
			out[i] = Delete{Data: bytes.Clone(op.Data)}
		default:
			out[i] = op
		}
	}
	return out
}

// Encoded is the canonical byte form of a transaction.
type Encoded struct {
	Raw []byte
}

// Bytes returns the encoded transaction.
func (e Encoded) Bytes() []byte {
	return e.Raw
}

// Hex returns the encoded transaction as a lowercase 0x-prefixed string.
func (e Encoded) Hex() string {
	return encoding.EncodeHex(e.Raw)
}

func (e Encoded) String() string {
	return e.Hex()
}
