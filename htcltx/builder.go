package htcltx

import (
	"bytes"
	"math"

	"github.com/btcsuite/btcd/wire"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/address"
	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/spend"
)

// Builder assembles unsigned funding, claim and refund transactions. The
// claim and refund pre-checks are those of its spend validator.
type Builder struct {
	spend *spend.Validator
}

func NewBuilder(v *spend.Validator) *Builder {
	if v == nil {
		v = spend.Default()
	}
	return &Builder{spend: v}
}

func checkAmounts(amount, fee int64) error {
	if amount <= 0 {
		return common.ErrInvalidParameter("amount", "must be positive, got %d", amount)
	}
	if fee < 0 {
		return common.ErrInvalidParameter("fee", "must not be negative, got %d", fee)
	}
	if amount > math.MaxInt64-fee {
		return common.ErrInvalidParameter("amount", "amount + fee overflows")
	}
	return nil
}

// BuildFunding pays amount to the committed address of d out of inputs.
// The change, sum(inputs) - amount - fee, goes to changeAddr when it is
// positive.
func (b *Builder) BuildFunding(
	d *contract.Descriptor,
	amount int64, // to the contract, in satoshi
	fee int64, // mining fee, in satoshi
	inputs []*UTXO,
	changeAddr string,
) (*Record, error) {
	if err := checkAmounts(amount, fee); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, common.ErrInvalidParameter("input_utxos", "no inputs")
	}
	for i, u := range inputs {
		if u == nil || u.TxHash == nil || u.Amount < 0 {
			return nil, common.ErrInvalidParameter("input_utxos", "input %d is malformed", i)
		}
	}

	sum := sumAmounts(inputs)
	change := sum - amount - fee
	if change < 0 {
		return nil, &common.InsufficientFundsError{Have: sum, Need: amount + fee}
	}

	pkScript, err := d.PkScript()
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	// 1st output: the contract
	tx.AddTxOut(wire.NewTxOut(amount, pkScript))
	// 2nd output: the change, only if there is any
	if change > 0 {
		changeScript, err := address.PayToAddress(changeAddr, d.Network())
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(change, changeScript))
	}
	for _, u := range inputs {
		tx.AddTxIn(wire.NewTxIn(u.OutPoint(), nil, nil))
	}

	prev := make([]*UTXO, len(inputs))
	for i, u := range inputs {
		c := *u
		prev[i] = &c
	}
	r := &Record{path: common.PathFunding, tx: tx, prevOutputs: prev}

	logger.WithFields(logger.Fields{
		"txid":    r.TxID(),
		"address": d.Address(),
		"amount":  amount,
		"change":  change,
	}).Debug("built funding tx")
	return r, nil
}

// contractOutput is the UTXO a claim or refund spends.
func contractOutput(d *contract.Descriptor, out wire.OutPoint, amount int64) (*UTXO, error) {
	pkScript, err := d.PkScript()
	if err != nil {
		return nil, err
	}
	hash := out.Hash
	return &UTXO{TxHash: &hash, Vout: out.Index, Amount: amount, PkScript: pkScript}, nil
}

func (b *Builder) buildSpend(
	d *contract.Descriptor,
	path common.SpendPath,
	out wire.OutPoint,
	amount, fee int64,
	dstAddr string,
	secret []byte,
) (*Record, error) {
	if err := checkAmounts(amount, fee); err != nil {
		return nil, err
	}
	if amount <= fee {
		return nil, &common.InsufficientFundsError{Have: amount, Need: fee + 1}
	}

	prev, err := contractOutput(d, out, amount)
	if err != nil {
		return nil, err
	}
	dstScript, err := address.PayToAddress(dstAddr, d.Network())
	if err != nil {
		return nil, err
	}

	program := d.Program()
	sigScript, err := spendScript(path, nil, secret, program)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxOut(wire.NewTxOut(amount-fee, dstScript))
	txIn := wire.NewTxIn(prev.OutPoint(), sigScript, nil)
	if path == common.PathRefund {
		// CHECKLOCKTIMEVERIFY needs a non-final input and the lock time
		// of the contract in the lock field.
		txIn.Sequence = wire.MaxTxInSequenceNum - 1
		tx.LockTime = uint32(d.Timelock().Value)
	}
	tx.AddTxIn(txIn)

	r := &Record{
		path:        path,
		tx:          tx,
		prevOutputs: []*UTXO{prev},
		program:     program,
		secret:      bytes.Clone(secret),
	}
	logger.WithFields(logger.Fields{
		"txid":     r.TxID(),
		"address":  d.Address(),
		"path":     path,
		"amount":   amount - fee,
		"lockTime": tx.LockTime,
	}).Debug("built spend tx")
	return r, nil
}

// BuildClaim spends the contract output out (holding amount) to
// claimantAddr with the secret. It fails with an InvalidSpendError when
// the secret does not open the hashlock.
func (b *Builder) BuildClaim(
	d *contract.Descriptor,
	out wire.OutPoint,
	secret []byte,
	amount int64,
	fee int64,
	claimantAddr string,
) (*Record, error) {
	if err := b.spend.PrecheckClaim(d, secret); err != nil {
		return nil, err
	}
	return b.buildSpend(d, common.PathClaim, out, amount, fee, claimantAddr, secret)
}

// BuildRefund spends the contract output out back to refundeeAddr. now
// is the caller's reading of the chain in the timelock's unit; the
// refund is refused while it is below the timelock.
func (b *Builder) BuildRefund(
	d *contract.Descriptor,
	out wire.OutPoint,
	amount int64,
	fee int64,
	refundeeAddr string,
	now contract.Timelock,
) (*Record, error) {
	if err := b.spend.PrecheckRefund(d, now); err != nil {
		return nil, err
	}
	return b.buildSpend(d, common.PathRefund, out, amount, fee, refundeeAddr, nil)
}
