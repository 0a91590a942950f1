/*
Package htcltx assembles and checks the three transactions around an HTCL:

  - funding: spends plain UTXOs, pays amount to the committed (P2SH)
    address and keeps the change.
  - claim: spends the contract output with scriptSig <sig> <secret> <program>.
  - refund: spends the contract output with scriptSig <sig> <program>,
    lock time set to the contract timelock.

A Record is created unsigned by the Builder. The only change it accepts
afterwards is its witness: a signature for a claim or refund, signature
scripts for the funding inputs.
*/
package htcltx

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/script"
)

var ErrWitnessAttached = errors.New("witness already attached")

type Record struct {
	path        common.SpendPath
	tx          *wire.MsgTx
	prevOutputs []*UTXO

	// claim and refund only
	program   script.Program
	secret    []byte
	signature []byte
	signed    bool
}

func (r *Record) Path() common.SpendPath { return r.path }

// Tx returns a copy of the transaction.
func (r *Record) Tx() *wire.MsgTx { return r.tx.Copy() }

func (r *Record) Inputs() []*wire.TxIn { return r.tx.Copy().TxIn }

func (r *Record) Outputs() []*wire.TxOut { return r.tx.Copy().TxOut }

// LockTime is the lock field of the transaction: zero for funding and
// claim, the contract timelock for a refund.
func (r *Record) LockTime() uint32 { return r.tx.LockTime }

// PrevOutputs are the outputs spent by the inputs, in input order.
func (r *Record) PrevOutputs() []*UTXO {
	out := make([]*UTXO, len(r.prevOutputs))
	for i, u := range r.prevOutputs {
		c := *u
		out[i] = &c
	}
	return out
}

func (r *Record) Secret() []byte { return bytes.Clone(r.secret) }

func (r *Record) Signed() bool { return r.signed }

func (r *Record) TxID() string { return r.tx.TxHash().String() }

// Serialize is the wire encoding of the transaction.
func (r *Record) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(r.tx.SerializeSize())
	if err := r.tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hex is the raw transaction as sent over rpc.
func (r *Record) Hex() (string, error) {
	b, err := r.Serialize()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// AttachWitness completes the scriptSig of a claim or refund with sig.
func (r *Record) AttachWitness(sig []byte) error {
	if r.path == common.PathFunding {
		return fmt.Errorf("%w: funding inputs are signed per input", common.ErrMalformedRecord)
	}
	if r.signed {
		return ErrWitnessAttached
	}
	if len(sig) == 0 {
		return common.ErrInvalidSpend(r.path, common.ErrBadSignature, "empty signature")
	}
	sigScript, err := spendScript(r.path, sig, r.secret, r.program)
	if err != nil {
		return err
	}
	r.tx.TxIn[0].SignatureScript = sigScript
	r.signature = bytes.Clone(sig)
	r.signed = true
	return nil
}

// attachFundingWitness sets the signature script of every funding input.
func (r *Record) attachFundingWitness(sigScripts [][]byte) error {
	if r.path != common.PathFunding {
		return fmt.Errorf("%w: %s is signed with AttachWitness", common.ErrMalformedRecord, r.path)
	}
	if r.signed {
		return ErrWitnessAttached
	}
	if len(sigScripts) != len(r.tx.TxIn) {
		return fmt.Errorf("%w: %d signature scripts for %d inputs", common.ErrMalformedRecord, len(sigScripts), len(r.tx.TxIn))
	}
	for i, s := range sigScripts {
		r.tx.TxIn[i].SignatureScript = s
	}
	r.signed = true
	return nil
}

// spendScript lays out the scriptSig of a contract spend. A nil sig gives
// the unsigned form.
func spendScript(path common.SpendPath, sig, secret []byte, program script.Program) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	if sig != nil {
		b.AddData(sig)
	}
	if path == common.PathClaim {
		b.AddData(secret)
	}
	return b.AddData(program).Script()
}

// PushedData returns the data pushed by a push-only script. Small integer
// opcodes are turned back into the single byte they stand for.
func PushedData(sigScript []byte) ([][]byte, error) {
	var out [][]byte
	tokenizer := txscript.MakeScriptTokenizer(0, sigScript)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		switch {
		case op == txscript.OP_0:
			out = append(out, []byte{})
		case op == txscript.OP_1NEGATE:
			out = append(out, []byte{0x81})
		case op >= txscript.OP_1 && op <= txscript.OP_16:
			out = append(out, []byte{op - txscript.OP_1 + 1})
		case op <= txscript.OP_PUSHDATA4:
			out = append(out, tokenizer.Data())
		default:
			return nil, fmt.Errorf("%w: opcode %#02x in signature script", common.ErrMalformedRecord, op)
		}
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}
	return out, nil
}
