// Package tx serialization implements the canonical transaction encoding.
//
// Layout (all fields concatenated, Postcard wire format):
//
//	version       u8 (always 0)
//	input count   varint
//	inputs        txid (32) || index (u64le) || script
//	output count  varint
//	outputs       0x00 || value (u64le) || pubkey script
//	              0x01 || object id || data script || pubkey script
//	locktime      u64le
//
// where signature and pubkey scripts are varint(number of opcodes) ||
// opcode encodings, the data script is varint(number of bytes) || opcode
// encodings, and an object id is raw (32) || 0x00 for Fresh or raw (32) || 0x01 ||
// permit index (u64le) for Existing.
package tx

import (
	"fmt"

	"github.com/suffix-labs/quible-tx/pkg/crypto"
	"github.com/suffix-labs/quible-tx/pkg/encoding"
)

// Encode returns the canonical encoding of c.
//
// Encode is pure: equal Contents always produce equal bytes. The digest a
// Signer signs is Encode applied to Contents whose signature scripts are
// empty, so no field may be skipped or reordered here.
func Encode(c Contents) Encoded {
	buf := make([]byte, 0, EncodedLen(c))
	return Encoded{Raw: AppendTransaction(buf, c)}
}

// AppendTransaction appends the canonical encoding of c to dst.
func AppendTransaction(dst []byte, c Contents) []byte {
	dst = append(dst, Version)

	dst = encoding.AppendVarint(dst, uint64(len(c.Inputs)))
	for i := range c.Inputs {
		dst = appendInput(dst, &c.Inputs[i])
	}

	dst = encoding.AppendVarint(dst, uint64(len(c.Outputs)))
	for _, o := range c.Outputs {
		dst = appendOutput(dst, o)
	}

	return encoding.AppendU64LE(dst, c.Locktime)
}

// appendInput encodes a single Input
func appendInput(dst []byte, in *Input) []byte {
	dst = append(dst, in.Outpoint.TxID[:]...)
	dst = encoding.AppendU64LE(dst, in.Outpoint.Index)
	return appendScript(dst, in.SignatureScript)
}

// appendOutput encodes a single Output
func appendOutput(dst []byte, o Output) []byte {
	switch o := outputValue(o).(type) {
	case ValueOutput:
		dst = append(dst, OutputTagValue)
		dst = encoding.AppendU64LE(dst, o.Value)
		return appendScript(dst, o.Pubkey)
	case ObjectOutput:
		dst = append(dst, OutputTagObject)
		dst = AppendObjectIdentifier(dst, o.ObjectID)
		dst = appendDataScript(dst, o.Data)
		return appendScript(dst, o.Pubkey)
	default:
		panic(fmt.Sprintf("tx: unknown output type %T", o))
	}
}

// appendScript writes a script preceded by its opcode count.
func appendScript(dst []byte, s Script) []byte {
	dst = encoding.AppendVarint(dst, uint64(len(s)))
	return AppendScript(dst, s)
}

// appendDataScript writes a script preceded by its encoded byte length.
func appendDataScript(dst []byte, s Script) []byte {
	dst = encoding.AppendVarint(dst, uint64(scriptLen(s)))
	return AppendScript(dst, s)
}

// EncodeScript concatenates the encodings of the opcodes in s.
//
// The result carries no count or length; structures that embed a script
// prefix it themselves.
func EncodeScript(s Script) []byte {
	return AppendScript(make([]byte, 0, scriptLen(s)), s)
}

// AppendScript appends the concatenated opcode encodings of s to dst.
func AppendScript(dst []byte, s Script) []byte {
	for _, op := range s {
		dst = AppendOpcode(dst, op)
	}
	return dst
}

// EncodeOpcode returns the wire form of a single opcode: its tag followed
// by varint(len) || data for Push, Insert and Delete, or by the TTL as
// u64le for SetCertTTL.
func EncodeOpcode(op Opcode) []byte {
	return AppendOpcode(make([]byte, 0, opcodeLen(op)), op)
}

// AppendOpcode appends the wire form of op to dst.
func AppendOpcode(dst []byte, op Opcode) []byte {
	switch op := opcodeValue(op).(type) {
	case Push:
		return appendData(append(dst, TagPush), op.Data)
	case CheckSigVerify:
		return append(dst, TagCheckSigVerify)
	case Dup:
		return append(dst, TagDup)
	case EqualVerify:
		return append(dst, TagEqualVerify)
	case Insert:
		return appendData(append(dst, TagInsert), op.Data)
	case Delete:
		return appendData(append(dst, TagDelete), op.Data)
	case DeleteAll:
		return append(dst, TagDeleteAll)
	case SetCertTTL:
		return encoding.AppendU64LE(append(dst, TagSetCertTTL), op.TTL)
	default:
		panic(fmt.Sprintf("tx: unknown opcode type %T", op))
	}
}

func appendData(dst []byte, data []byte) []byte {
	dst = encoding.AppendVarint(dst, uint64(len(data)))
	return append(dst, data...)
}

// EncodeObjectIdentifier returns raw || 0x00 for a Fresh object and
// raw || 0x01 || permit index (u64le) for an Existing one.
func EncodeObjectIdentifier(id ObjectIdentifier) []byte {
	return AppendObjectIdentifier(make([]byte, 0, objectIdentifierLen(id)), id)
}

// AppendObjectIdentifier appends the encoding of id to dst.
//
// A nil Mode is encoded as Fresh.
func AppendObjectIdentifier(dst []byte, id ObjectIdentifier) []byte {
	dst = append(dst, id.Raw[:]...)

	switch mode := modeValue(id.Mode).(type) {
	case nil, Fresh:
		return append(dst, ModeTagFresh)
	case Existing:
		dst = append(dst, ModeTagExisting)
		return encoding.AppendU64LE(dst, mode.PermitIndex)
	default:
		panic(fmt.Sprintf("tx: unknown object mode %T", mode))
	}
}

// EncodedLen returns len(Encode(c).Raw) without encoding c.
//
//	1 + len(varint(n_in)) + Σ(40 + script_i) + len(varint(n_out)) + Σ(output_j) + 8
func EncodedLen(c Contents) int {
	n := 1 + encoding.VarintLen(uint64(len(c.Inputs)))
	for _, in := range c.Inputs {
		n += 32 + 8 + prefixedScriptLen(in.SignatureScript)
	}

	n += encoding.VarintLen(uint64(len(c.Outputs)))
	for _, o := range c.Outputs {
		switch o := outputValue(o).(type) {
		case ValueOutput:
			n += 1 + 8 + prefixedScriptLen(o.Pubkey)
		case ObjectOutput:
			n += 1 + objectIdentifierLen(o.ObjectID) + dataScriptLen(o.Data) + prefixedScriptLen(o.Pubkey)
		}
	}

	return n + 8
}

func prefixedScriptLen(s Script) int {
	return encoding.VarintLen(uint64(len(s))) + scriptLen(s)
}

func dataScriptLen(s Script) int {
	n := scriptLen(s)
	return encoding.VarintLen(uint64(n)) + n
}

func scriptLen(s Script) int {
	n := 0
	for _, op := range s {
		n += opcodeLen(op)
	}
	return n
}

func opcodeLen(op Opcode) int {
	switch op := opcodeValue(op).(type) {
	case Push:
		return 1 + encoding.VarintLen(uint64(len(op.Data))) + len(op.Data)
	case Insert:
		return 1 + encoding.VarintLen(uint64(len(op.Data))) + len(op.Data)
	case Delete:
		return 1 + encoding.VarintLen(uint64(len(op.Data))) + len(op.Data)
	case SetCertTTL:
		return 1 + 8
	default:
		return 1
	}
}

func objectIdentifierLen(id ObjectIdentifier) int {
	if _, ok := modeValue(id.Mode).(Existing); ok {
		return 32 + 1 + 8
	}
	return 32 + 1
}

// TxID returns the transaction hash the node indexes c under: the
// keccak-256 of its canonical encoding.
func TxID(c Contents) [32]byte {
	return crypto.Keccak256(Encode(c).Raw)
}
