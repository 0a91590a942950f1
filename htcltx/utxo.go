package htcltx

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/htcl-go/common"
)

// UTXO is an unspent output a transaction spends from: a funding input,
// or the contract output itself for a claim or refund.
type UTXO struct {
	TxHash   *chainhash.Hash // funding tx of the output
	Vout     uint32          // index in the outputs of TxHash
	Amount   int64           // in satoshi
	PkScript []byte          // locking script of the output
}

// NewUTXO parses the tx id the way block explorers print it.
func NewUTXO(txid string, vout uint32, amount int64, pkScript []byte) (*UTXO, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, &common.EncodingError{Input: txid, Err: err}
	}
	return &UTXO{TxHash: hash, Vout: vout, Amount: amount, PkScript: pkScript}, nil
}

func (u *UTXO) OutPoint() *wire.OutPoint {
	return wire.NewOutPoint(u.TxHash, u.Vout)
}

// Return a human-readable amount in coins
// eg. 1e8 (satoshi) = 1.0
func (u *UTXO) AmountHuman() float64 {
	return float64(u.Amount) / 1e8
}

func sumAmounts(utxos []*UTXO) int64 {
	var sum int64
	for _, u := range utxos {
		sum += u.Amount
	}
	return sum
}

// EstimateFee is a rough size based fee: 10 bytes of overhead, 150 per
// input and 34 per output, times rate in satoshi per byte.
func EstimateFee(inputs, outputs int, rate int64) int64 {
	size := int64(10 + 150*inputs + 34*outputs)
	return size * rate
}
