package htcltx

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/script"
	"github.com/TEENet-io/htcl-go/spend"
)

// Validator re-checks a built and signed record against its descriptor
// before it is handed to the ledger. Nothing stored on the record besides
// the transaction itself and its previous outputs is trusted.
type Validator struct {
	spend *spend.Validator
}

func NewValidator(v *spend.Validator) *Validator {
	if v == nil {
		v = spend.Default()
	}
	return &Validator{spend: v}
}

func malformed(path common.SpendPath, format string, args ...interface{}) error {
	return common.ErrInvalidSpend(path, common.ErrMalformedRecord, format, args...)
}

// ValidateFunding checks that r pays exactly one output to the committed
// address of d and that its inputs cover every output.
func (v *Validator) ValidateFunding(d *contract.Descriptor, r *Record) error {
	path := common.PathFunding
	if r.path != path {
		return malformed(path, "record is a %s", r.path)
	}
	if len(r.tx.TxIn) == 0 || len(r.tx.TxIn) != len(r.prevOutputs) {
		return malformed(path, "%d inputs, %d previous outputs", len(r.tx.TxIn), len(r.prevOutputs))
	}
	for i, txIn := range r.tx.TxIn {
		if txIn.PreviousOutPoint != *r.prevOutputs[i].OutPoint() {
			return malformed(path, "input %d spends %s, want %s", i, txIn.PreviousOutPoint, r.prevOutputs[i].OutPoint())
		}
	}

	pkScript, err := d.PkScript()
	if err != nil {
		return err
	}
	var (
		contractOuts int
		outTotal     int64
	)
	for i, txOut := range r.tx.TxOut {
		if txOut.Value <= 0 {
			return malformed(path, "output %d has value %d", i, txOut.Value)
		}
		if bytes.Equal(txOut.PkScript, pkScript) {
			contractOuts++
		}
		outTotal += txOut.Value
	}
	if contractOuts != 1 {
		return malformed(path, "%d outputs pay %s, want 1", contractOuts, d.Address())
	}
	if in := sumAmounts(r.prevOutputs); in < outTotal {
		return &common.InsufficientFundsError{Have: in, Need: outTotal}
	}
	return nil
}

// spendParts splits the single input of a claim or refund into its
// signature, secret (claim only) and program.
func spendParts(r *Record, path common.SpendPath) (sig, secret, program []byte, err error) {
	if r.path != path {
		return nil, nil, nil, malformed(path, "record is a %s", r.path)
	}
	if len(r.tx.TxIn) != 1 || len(r.prevOutputs) != 1 || len(r.tx.TxOut) != 1 {
		return nil, nil, nil, malformed(path, "%d inputs and %d outputs, want one of each", len(r.tx.TxIn), len(r.tx.TxOut))
	}
	txIn := r.tx.TxIn[0]
	if txIn.PreviousOutPoint != *r.prevOutputs[0].OutPoint() {
		return nil, nil, nil, malformed(path, "input spends %s, want %s", txIn.PreviousOutPoint, r.prevOutputs[0].OutPoint())
	}

	data, err := PushedData(txIn.SignatureScript)
	if err != nil {
		return nil, nil, nil, common.ErrInvalidSpend(path, common.ErrMalformedRecord, "%v", err)
	}
	want := 2
	if path == common.PathClaim {
		want = 3
	}
	switch len(data) {
	case want:
		sig = data[0]
	case want - 1:
		// unsigned, the shape check below rejects it
	default:
		return nil, nil, nil, malformed(path, "signature script has %d pushes, want %d", len(data), want)
	}
	program = data[len(data)-1]
	if path == common.PathClaim {
		secret = data[len(data)-2]
	}
	return sig, secret, program, nil
}

// checkProgram compares the program revealed in the input with the one
// of d. A program for other keys is reported as a key mismatch.
func checkProgram(d *contract.Descriptor, path common.SpendPath, program []byte) (*script.Params, error) {
	parsed, err := script.ParseProgram(program)
	if err != nil {
		return nil, malformed(path, "%v", err)
	}
	key, want := parsed.ClaimantKey, d.ClaimantKey()
	if path == common.PathRefund {
		key, want = parsed.RefundeeKey, d.RefundeeKey()
	}
	if !bytes.Equal(key, want) {
		return nil, common.ErrInvalidSpend(path, common.ErrKeyMismatch, "program key=%x", key)
	}
	if !d.Program().Equal(program) {
		return nil, malformed(path, "program does not match the contract")
	}
	return parsed, nil
}

func checkSpendOutput(r *Record, path common.SpendPath) error {
	out := r.tx.TxOut[0]
	if out.Value <= 0 {
		return malformed(path, "output has value %d", out.Value)
	}
	if in := r.prevOutputs[0].Amount; in < out.Value {
		return &common.InsufficientFundsError{Have: in, Need: out.Value}
	}
	return nil
}

// ValidateClaim checks the secret, key and signature shape carried by the
// input of r, as spend.ValidateClaim would.
func (v *Validator) ValidateClaim(d *contract.Descriptor, r *Record) error {
	path := common.PathClaim
	sig, secret, program, err := spendParts(r, path)
	if err != nil {
		return err
	}
	parsed, err := checkProgram(d, path, program)
	if err != nil {
		return err
	}
	if err := v.spend.ValidateClaim(d, secret, sig, parsed.ClaimantKey); err != nil {
		return err
	}
	return checkSpendOutput(r, path)
}

// ValidateRefund checks lock field, sequence, key and signature shape of
// r against d at the chain reading now.
func (v *Validator) ValidateRefund(d *contract.Descriptor, r *Record, now contract.Timelock) error {
	path := common.PathRefund
	sig, _, program, err := spendParts(r, path)
	if err != nil {
		return err
	}
	parsed, err := checkProgram(d, path, program)
	if err != nil {
		return err
	}
	if int64(r.tx.LockTime) != d.Timelock().Value {
		return malformed(path, "lock time %d, contract timelock %d", r.tx.LockTime, d.Timelock().Value)
	}
	if r.tx.TxIn[0].Sequence == wire.MaxTxInSequenceNum {
		return malformed(path, "final input sequence disables the lock time")
	}
	if err := v.spend.ValidateRefund(d, sig, parsed.RefundeeKey, now); err != nil {
		return err
	}
	return checkSpendOutput(r, path)
}
