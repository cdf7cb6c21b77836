package tx

import (
	"fmt"

	"github.com/suffix-labs/quible-tx/pkg/encoding"
)

// Decode parses canonical transaction bytes back into Contents.
//
// Decode is the inverse of Encode: Encode(Decode(b)) == b for every b
// Decode accepts. Unknown tags, truncated fields and trailing bytes are
// reported as a ParseError carrying the offending offset.
func Decode(raw []byte) (Contents, error) {
	r := &reader{buf: raw}

	version, err := r.readByte()
	if err != nil {
		return Contents{}, err
	}
	if version != Version {
		return Contents{}, r.fail(ErrUnsupportedVersion, fmt.Sprintf("unsupported version: %d", version))
	}

	var c Contents

	inputCount, err := r.count(41)
	if err != nil {
		return Contents{}, err
	}
	if inputCount > 0 {
		c.Inputs = make([]Input, inputCount)
	}
	for i := range c.Inputs {
		if err := r.input(&c.Inputs[i]); err != nil {
			return Contents{}, err
		}
	}

	outputCount, err := r.count(10)
	if err != nil {
		return Contents{}, err
	}
	if outputCount > 0 {
		c.Outputs = make([]Output, outputCount)
	}
	for i := range c.Outputs {
		if c.Outputs[i], err = r.output(); err != nil {
			return Contents{}, err
		}
	}

	if c.Locktime, err = r.u64(); err != nil {
		return Contents{}, err
	}

	if r.off != len(r.buf) {
		return Contents{}, r.fail(ErrTrailingBytes, fmt.Sprintf("%d bytes after locktime", len(r.buf)-r.off))
	}

	return c, nil
}

// DecodeHex parses a 0x-prefixed or bare hex transaction.
func DecodeHex(s string) (Contents, error) {
	raw, err := encoding.DecodeHex(s)
	if err != nil {
		return Contents{}, &ParseError{Code: ErrInvalidField, Offset: -1, Message: "transaction hex", Cause: err}
	}
	return Decode(raw)
}

// DecodeScript parses a script given as concatenated opcode encodings
// (the form EncodeScript produces).
func DecodeScript(raw []byte) (Script, error) {
	r := &reader{buf: raw}

	var s Script
	for r.off < len(r.buf) {
		op, err := r.opcode()
		if err != nil {
			return nil, err
		}
		s = append(s, op)
	}

	return s, nil
}

// reader walks a byte slice, tracking the offset for error reports.
type reader struct {
	buf []byte
	off int
}

func (r *reader) fail(code, msg string) error {
	return &ParseError{Code: code, Offset: r.off, Message: msg}
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.off < n {
		return nil, r.fail(ErrTruncated, fmt.Sprintf("need %d bytes, have %d", n, len(r.buf)-r.off))
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return encoding.DecodeU64LE(b)
}

func (r *reader) varint() (uint64, error) {
	v, n, err := encoding.DecodeVarint(r.buf[r.off:])
	if err != nil {
		code := ErrTruncated
		switch {
		case encoding.IsDecodeError(err, encoding.ErrOverflow):
			code = ErrLengthOverflow
		case encoding.IsDecodeError(err, encoding.ErrNonCanonical):
			code = ErrNonCanonical
		}
		return 0, &ParseError{Code: code, Offset: r.off, Message: "varint", Cause: err}
	}
	r.off += n
	return v, nil
}

// count reads an element count and rejects counts that cannot fit in
// the remaining input given each element's minimum encoded size.
func (r *reader) count(minSize int) (int, error) {
	start := r.off
	n, err := r.varint()
	if err != nil {
		return 0, err
	}
	if n > uint64((len(r.buf)-r.off)/minSize) {
		return 0, &ParseError{
			Code:    ErrLengthOverflow,
			Offset:  start,
			Message: fmt.Sprintf("count %d exceeds remaining input", n),
		}
	}
	return int(n), nil
}

func (r *reader) data() ([]byte, error) {
	n, err := r.count(1)
	if err != nil {
		return nil, err
	}
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (r *reader) input(in *Input) error {
	txid, err := r.take(32)
	if err != nil {
		return err
	}
	copy(in.Outpoint.TxID[:], txid)

	if in.Outpoint.Index, err = r.u64(); err != nil {
		return err
	}

	in.SignatureScript, err = r.script()
	return err
}

func (r *reader) output() (Output, error) {
	start := r.off
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case OutputTagValue:
		var o ValueOutput
		if o.Value, err = r.u64(); err != nil {
			return nil, err
		}
		if o.Pubkey, err = r.script(); err != nil {
			return nil, err
		}
		return o, nil

	case OutputTagObject:
		var o ObjectOutput
		if o.ObjectID, err = r.objectIdentifier(); err != nil {
			return nil, err
		}
		if o.Data, err = r.dataScript(); err != nil {
			return nil, err
		}
		if o.Pubkey, err = r.script(); err != nil {
			return nil, err
		}
		return o, nil

	default:
		return nil, &ParseError{Code: ErrUnknownTag, Offset: start, Message: fmt.Sprintf("unknown output tag %d", tag)}
	}
}

func (r *reader) objectIdentifier() (ObjectIdentifier, error) {
	var id ObjectIdentifier

	raw, err := r.take(32)
	if err != nil {
		return id, err
	}
	copy(id.Raw[:], raw)

	start := r.off
	mode, err := r.readByte()
	if err != nil {
		return id, err
	}

	switch mode {
	case ModeTagFresh:
		id.Mode = Fresh{}
	case ModeTagExisting:
		permit, err := r.u64()
		if err != nil {
			return id, err
		}
		id.Mode = Existing{PermitIndex: permit}
	default:
		return id, &ParseError{Code: ErrUnknownTag, Offset: start, Message: fmt.Sprintf("unknown object mode %d", mode)}
	}

	return id, nil
}

// script reads varint(opcode count) followed by that many opcodes.
func (r *reader) script() (Script, error) {
	n, err := r.count(1)
	if err != nil || n == 0 {
		return nil, err
	}

	s := make(Script, n)
	for i := range s {
		if s[i], err = r.opcode(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// dataScript reads varint(byte length) followed by opcodes filling
// exactly that many bytes.
func (r *reader) dataScript() (Script, error) {
	n, err := r.count(1)
	if err != nil || n == 0 {
		return nil, err
	}

	sub := &reader{buf: r.buf[:r.off+n], off: r.off}
	var s Script
	for sub.off < len(sub.buf) {
		op, err := sub.opcode()
		if err != nil {
			return nil, err
		}
		s = append(s, op)
	}

	r.off = sub.off
	return s, nil
}

func (r *reader) opcode() (Opcode, error) {
	start := r.off
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagPush:
		d, err := r.data()
		return Push{Data: d}, err
	case TagCheckSigVerify:
		return CheckSigVerify{}, nil
	case TagDup:
		return Dup{}, nil
	case TagEqualVerify:
		return EqualVerify{}, nil
	case TagInsert:
		d, err := r.data()
		return Insert{Data: d}, err
	case TagDelete:
		d, err := r.data()
		return Delete{Data: d}, err
	case TagDeleteAll:
		return DeleteAll{}, nil
	case TagSetCertTTL:
		ttl, err := r.u64()
		return SetCertTTL{TTL: ttl}, err
	default:
		return nil, &ParseError{Code: ErrUnknownTag, Offset: start, Message: fmt.Sprintf("unknown opcode tag %d", tag)}
	}
}
