package tx

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/suffix-labs/quible-tx/pkg/encoding"
)

// Transaction descriptions are JSON documents shaped like the SDK's
// TransactionContents type:
//
//	{
//	  "inputs": [
//	    {"outpoint": {"txid": "0x..", "index": 0}, "signatureScript": []}
//	  ],
//	  "outputs": [
//	    {"type": "Value", "data": {"value": 5, "pubkeyScript": [{"code": "DUP"}]}},
//	    {"type": "Object", "data": {
//	      "objectId": {"raw": "0x..", "mode": {"type": "Existing", "permitIndex": 0}},
//	      "dataScript": [{"code": "INSERT", "data": "0x.."}],
//	      "pubkeyScript": []
//	    }}
//	  ],
//	  "locktime": 0
//	}
//
// Byte fields are hex strings. Integer fields accept a JSON number or a
// decimal string, so 64-bit values survive JavaScript producers.

// Opcode names used in transaction descriptions.
const (
	CodePush           = "PUSH"
	CodeCheckSigVerify = "CHECKSIGVERIFY"
	CodeDup            = "DUP"
	CodeEqualVerify    = "EQUALVERIFY"
	CodeInsert         = "INSERT"
	CodeDelete         = "DELETE"
	CodeDeleteAll      = "DELETEALL"
	CodeSetCertTTL     = "SETCERTTTL"
)

// ParseJSON reads a transaction description.
func ParseJSON(data []byte) (Contents, error) {
	if !gjson.ValidBytes(data) {
		return Contents{}, fieldError("", "invalid JSON")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Contents{}, fieldError("", "transaction description must be an object")
	}

	var c Contents
	var err error

	inputs := doc.Get("inputs")
	if inputs.Exists() && !inputs.IsArray() {
		return Contents{}, fieldError("inputs", "must be an array")
	}
	for i, in := range inputs.Array() {
		input, err := parseInputJSON(in, fmt.Sprintf("inputs.%d", i))
		if err != nil {
			return Contents{}, err
		}
		c.Inputs = append(c.Inputs, input)
	}

	outputs := doc.Get("outputs")
	if outputs.Exists() && !outputs.IsArray() {
		return Contents{}, fieldError("outputs", "must be an array")
	}
	for i, o := range outputs.Array() {
		output, err := parseOutputJSON(o, fmt.Sprintf("outputs.%d", i))
		if err != nil {
			return Contents{}, err
		}
		c.Outputs = append(c.Outputs, output)
	}

	if locktime := doc.Get("locktime"); locktime.Exists() {
		if c.Locktime, err = parseUint64JSON(locktime, "locktime"); err != nil {
			return Contents{}, err
		}
	}

	return c, nil
}

func parseInputJSON(in gjson.Result, path string) (Input, error) {
	var input Input
	var err error

	if input.Outpoint.TxID, err = parseHex32JSON(in.Get("outpoint.txid"), path+".outpoint.txid"); err != nil {
		return input, err
	}
	if input.Outpoint.Index, err = parseUint64JSON(in.Get("outpoint.index"), path+".outpoint.index"); err != nil {
		return input, err
	}
	input.SignatureScript, err = parseScriptJSON(in.Get("signatureScript"), path+".signatureScript")
	return input, err
}

func parseOutputJSON(o gjson.Result, path string) (Output, error) {
	data := o.Get("data")

	switch kind := o.Get("type").String(); kind {
	case "Value":
		value, err := parseUint64JSON(data.Get("value"), path+".data.value")
		if err != nil {
			return nil, err
		}
		pubkey, err := parseScriptJSON(data.Get("pubkeyScript"), path+".data.pubkeyScript")
		if err != nil {
			return nil, err
		}
		return ValueOutput{Value: value, Pubkey: pubkey}, nil

	case "Object":
		id, err := parseObjectIDJSON(data.Get("objectId"), path+".data.objectId")
		if err != nil {
			return nil, err
		}
		dataScript, err := parseScriptJSON(data.Get("dataScript"), path+".data.dataScript")
		if err != nil {
			return nil, err
		}
		pubkey, err := parseScriptJSON(data.Get("pubkeyScript"), path+".data.pubkeyScript")
		if err != nil {
			return nil, err
		}
		return ObjectOutput{ObjectID: id, Data: dataScript, Pubkey: pubkey}, nil

	default:
		return nil, fieldError(path+".type", fmt.Sprintf("unknown output type %q", kind))
	}
}

func parseObjectIDJSON(v gjson.Result, path string) (ObjectIdentifier, error) {
	var id ObjectIdentifier
	var err error

	if id.Raw, err = parseHex32JSON(v.Get("raw"), path+".raw"); err != nil {
		return id, err
	}

	switch mode := v.Get("mode.type").String(); mode {
	case "Fresh":
		id.Mode = Fresh{}
	case "Existing":
		permit, err := parseUint64JSON(v.Get("mode.permitIndex"), path+".mode.permitIndex")
		if err != nil {
			return id, err
		}
		id.Mode = Existing{PermitIndex: permit}
	default:
		return id, fieldError(path+".mode.type", fmt.Sprintf("unknown object mode %q", mode))
	}

	return id, nil
}

func parseScriptJSON(v gjson.Result, path string) (Script, error) {
	if !v.Exists() {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fieldError(path, "must be an array")
	}

	var s Script
	for i, op := range v.Array() {
		opcode, err := parseOpcodeJSON(op, fmt.Sprintf("%s.%d", path, i))
		if err != nil {
			return nil, err
		}
		s = append(s, opcode)
	}
	return s, nil
}

func parseOpcodeJSON(op gjson.Result, path string) (Opcode, error) {
	data := op.Get("data")

	switch code := op.Get("code").String(); code {
	case CodePush:
		b, err := parseBytesJSON(data, path+".data")
		return Push{Data: b}, err
	case CodeCheckSigVerify:
		return CheckSigVerify{}, nil
	case CodeDup:
		return Dup{}, nil
	case CodeEqualVerify:
		return EqualVerify{}, nil
	case CodeInsert:
		b, err := parseBytesJSON(data, path+".data")
		return Insert{Data: b}, err
	case CodeDelete:
		b, err := parseBytesJSON(data, path+".data")
		return Delete{Data: b}, err
	case CodeDeleteAll:
		return DeleteAll{}, nil
	case CodeSetCertTTL:
		ttl, err := parseUint64JSON(data, path+".data")
		return SetCertTTL{TTL: ttl}, err
	default:
		return nil, fieldError(path+".code", fmt.Sprintf("unknown opcode %q", code))
	}
}

func parseUint64JSON(v gjson.Result, path string) (uint64, error) {
	var text string

	switch v.Type {
	case gjson.Number:
		text = v.Raw
	case gjson.String:
		text = v.Str
	default:
		return 0, fieldError(path, "must be an unsigned integer")
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, &ParseError{Code: ErrInvalidField, Offset: -1, Message: path, Cause: err}
	}
	return n, nil
}

func parseBytesJSON(v gjson.Result, path string) ([]byte, error) {
	if v.Type != gjson.String {
		return nil, fieldError(path, "must be a hex string")
	}

	b, err := encoding.DecodeHex(v.Str)
	if err != nil {
		return nil, &ParseError{Code: ErrInvalidField, Offset: -1, Message: path, Cause: err}
	}
	return b, nil
}

func parseHex32JSON(v gjson.Result, path string) ([32]byte, error) {
	if v.Type != gjson.String {
		return [32]byte{}, fieldError(path, "must be a hex string")
	}

	b, err := encoding.DecodeHex32(v.Str)
	if err != nil {
		return b, &ParseError{Code: ErrInvalidField, Offset: -1, Message: path, Cause: err}
	}
	return b, nil
}

func fieldError(path, msg string) error {
	if path != "" {
		msg = path + ": " + msg
	}
	return &ParseError{Code: ErrInvalidField, Offset: -1, Message: msg}
}

// JSON views used by MarshalJSON.

type outpointJSON struct {
	TxID  string `json:"txid"`
	Index uint64 `json:"index"`
}

type inputJSON struct {
	Outpoint        outpointJSON `json:"outpoint"`
	SignatureScript []opcodeJSON `json:"signatureScript"`
}

type opcodeJSON struct {
	Code string `json:"code"`
	Data any    `json:"data,omitempty"`
}

type modeJSON struct {
	Type        string  `json:"type"`
	PermitIndex *uint64 `json:"permitIndex,omitempty"`
}

type objectIDJSON struct {
	Raw  string   `json:"raw"`
	Mode modeJSON `json:"mode"`
}

type outputDataJSON struct {
	Value        *uint64       `json:"value,omitempty"`
	ObjectID     *objectIDJSON `json:"objectId,omitempty"`
	DataScript   []opcodeJSON  `json:"dataScript,omitempty"`
	PubkeyScript []opcodeJSON  `json:"pubkeyScript"`
}

type outputJSON struct {
	Type string         `json:"type"`
	Data outputDataJSON `json:"data"`
}

type contentsJSON struct {
	Inputs   []inputJSON  `json:"inputs"`
	Outputs  []outputJSON `json:"outputs"`
	Locktime uint64       `json:"locktime"`
}

// MarshalJSON renders c as a transaction description ParseJSON accepts.
func (c Contents) MarshalJSON() ([]byte, error) {
	doc := contentsJSON{
		Inputs:   make([]inputJSON, 0, len(c.Inputs)),
		Outputs:  make([]outputJSON, 0, len(c.Outputs)),
		Locktime: c.Locktime,
	}

	for _, in := range c.Inputs {
		doc.Inputs = append(doc.Inputs, inputJSON{
			Outpoint:        outpointJSON{TxID: encoding.EncodeHex(in.Outpoint.TxID[:]), Index: in.Outpoint.Index},
			SignatureScript: scriptToJSON(in.SignatureScript),
		})
	}

	for _, o := range c.Outputs {
		switch o := outputValue(o).(type) {
		case ValueOutput:
			value := o.Value
			doc.Outputs = append(doc.Outputs, outputJSON{
				Type: "Value",
				Data: outputDataJSON{Value: &value, PubkeyScript: scriptToJSON(o.Pubkey)},
			})
		case ObjectOutput:
			id := objectIDJSON{Raw: encoding.EncodeHex(o.ObjectID.Raw[:]), Mode: modeJSON{Type: "Fresh"}}
			if existing, ok := modeValue(o.ObjectID.Mode).(Existing); ok {
				permit := existing.PermitIndex
				id.Mode = modeJSON{Type: "Existing", PermitIndex: &permit}
			}
			dataScript := scriptToJSON(o.Data)
			doc.Outputs = append(doc.Outputs, outputJSON{
				Type: "Object",
				Data: outputDataJSON{ObjectID: &id, DataScript: dataScript, PubkeyScript: scriptToJSON(o.Pubkey)},
			})
		}
	}

	return json.Marshal(doc)
}

func scriptToJSON(s Script) []opcodeJSON {
	out := make([]opcodeJSON, 0, len(s))
	for _, op := range s {
		switch op := opcodeValue(op).(type) {
		case Push:
			out = append(out, opcodeJSON{Code: CodePush, Data: encoding.EncodeHex(op.Data)})
		case CheckSigVerify:
			out = append(out, opcodeJSON{Code: CodeCheckSigVerify})
		case Dup:
			out = append(out, opcodeJSON{Code: CodeDup})
		case EqualVerify:
			out = append(out, opcodeJSON{Code: CodeEqualVerify})
		case Insert:
			out = append(out, opcodeJSON{Code: CodeInsert, Data: encoding.EncodeHex(op.Data)})
		case Delete:
			out = append(out, opcodeJSON{Code: CodeDelete, Data: encoding.EncodeHex(op.Data)})
		case DeleteAll:
			out = append(out, opcodeJSON{Code: CodeDeleteAll})
		case SetCertTTL:
			out = append(out, opcodeJSON{Code: CodeSetCertTTL, Data: op.TTL})
		}
	}
	return out
}
