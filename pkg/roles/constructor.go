package roles

import (
	"bytes"

	"github.com/suffix-labs/quible-tx/pkg/tx"
)

// Constructor builds unsigned transaction contents.
//
// Inputs are added with empty signature scripts; the Signer fills them in.
// Methods return the Constructor so calls can be chained:
//
//	c := NewConstructor().
//		AddInput(funding).
//		AddValueOutput(5, PayToAddressScript(addr)).
//		Build()
type Constructor struct {
	contents tx.Contents
}

// NewConstructor creates a Constructor with no inputs, no outputs and a
// zero locktime.
func NewConstructor() *Constructor {
	return &Constructor{}
}

// AddInput adds an unsigned input spending outpoint.
func (c *Constructor) AddInput(outpoint tx.Outpoint) *Constructor {
	c.contents.Inputs = append(c.contents.Inputs, tx.Input{Outpoint: outpoint})
	return c
}

// AddValueOutput adds an output carrying value, locked by pubkey.
func (c *Constructor) AddValueOutput(value uint64, pubkey tx.Script) *Constructor {
	c.contents.Outputs = append(c.contents.Outputs, tx.ValueOutput{
		Value:  value,
		Pubkey: pubkey.Clone(),
	})
	return c
}

// AddObjectOutput adds an output that creates or updates the object id.
//
// data mutates the object's claims; pubkey locks the object to its owner.
func (c *Constructor) AddObjectOutput(id tx.ObjectIdentifier, data, pubkey tx.Script) *Constructor {
	c.contents.Outputs = append(c.contents.Outputs, tx.ObjectOutput{
		ObjectID: id,
		Data:     data.Clone(),
		Pubkey:   pubkey.Clone(),
	})
	return c
}

// WithLocktime sets the transaction locktime.
func (c *Constructor) WithLocktime(locktime uint64) *Constructor {
	c.contents.Locktime = locktime
	return c
}

// Build returns a copy of the constructed contents. The Constructor can
// keep being used afterwards.
func (c *Constructor) Build() tx.Contents {
	return c.contents.Clone()
}

// PayToAddressScript returns the standard pubkey script locking an output
// to address: [Dup, Push(address), EqualVerify, CheckSigVerify].
func PayToAddressScript(address []byte) tx.Script {
	return tx.Script{
		tx.Dup{},
		tx.Push{Data: bytes.Clone(address)},
		tx.EqualVerify{},
		tx.CheckSigVerify{},
	}
}
