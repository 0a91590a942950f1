// Package chainrpc talks to a bitcoin (or dogecoin) node over json-rpc:
// it lists spendable outputs, broadcasts records and reads the chain
// clock and blocks a cross-chain session watches.
package chainrpc

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/htcltx"
)

const (
	CONFIRM_SAFE = 6 // minimum confirm threshold to consider Tx is finalized.
	MAX_CONFIRM  = 9999999
)

var ErrSpendNotFound = errors.New("outpoint not spent in scanned blocks")

type RpcClientConfig struct {
	ServerAddr string // ip address of server
	Port       string // port of server
	Username   string
	Pwd        string
}

// Wrapper of btc rpc client.
type RpcClient struct {
	ServerAddr string // ip address of server
	Port       string // port of server
	Username   string
	client     *rpcclient.Client
}

// NewRpcClient connects over plain HTTP POST, the only mode bitcoin core
// speaks.
func NewRpcClient(rcc *RpcClientConfig) (*RpcClient, error) {
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         rcc.ServerAddr + ":" + rcc.Port,
		User:         rcc.Username,
		Pass:         rcc.Pwd,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, err
	}

	return &RpcClient{rcc.ServerAddr, rcc.Port, rcc.Username, client}, nil
}

// Close the rpc client
func (r *RpcClient) Close() {
	r.client.Shutdown()
}

// Now reads the tip height, or the median time past for time locks. The
// median time past is what the node compares a time lock against.
func (r *RpcClient) Now(ctx context.Context, unit contract.Unit) (contract.Timelock, error) {
	if err := ctx.Err(); err != nil {
		return contract.Timelock{}, err
	}
	if unit == contract.UnitTime {
		info, err := r.client.GetBlockChainInfo()
		if err != nil {
			return contract.Timelock{}, err
		}
		return contract.Timelock{Value: info.MedianTime, Unit: contract.UnitTime}, nil
	}
	height, err := r.client.GetBlockCount()
	if err != nil {
		return contract.Timelock{}, err
	}
	return contract.AtHeight(height), nil
}

// Fetch a raw tx with a given TxID.
// Enable -txindex on your bitcoin node before using this function.
func (r *RpcClient) GetTx(txID string) (*btcutil.Tx, error) {
	txHash, err := chainhash.NewHashFromStr(txID)
	if err != nil {
		return nil, err
	}
	return r.client.GetRawTransaction(txHash)
}

// Get the latest block height.
func (r *RpcClient) GetLatestBlockHeight() (int64, error) {
	return r.client.GetBlockCount()
}

// GetUtxoList lists the outputs of an address with at least minConf
// confirmations. The node only tracks imported keys and addresses.
func (r *RpcClient) GetUtxoList(addr btcutil.Address, minConf int) ([]*htcltx.UTXO, error) {
	unspentOutputs, err := r.client.ListUnspentMinMaxAddresses(minConf, MAX_CONFIRM, []btcutil.Address{addr})
	if err != nil {
		return nil, err
	}

	u := make([]*htcltx.UTXO, 0, len(unspentOutputs))
	for _, item := range unspentOutputs {
		pkScript, err := hex.DecodeString(item.ScriptPubKey)
		if err != nil {
			return nil, err
		}
		amount, err := btcutil.NewAmount(item.Amount)
		if err != nil {
			return nil, err
		}
		utxo, err := htcltx.NewUTXO(item.TxID, item.Vout, int64(amount), pkScript)
		if err != nil {
			return nil, err
		}
		u = append(u, utxo)
	}
	return u, nil
}

// Sums up the value of all UTXOs of the address. Zero may also mean the
// node does not track the address.
func (r *RpcClient) GetBalance(addr btcutil.Address, minConf int) (int64, error) {
	utxos, err := r.GetUtxoList(addr, minConf)
	if err != nil {
		return 0, err
	}

	var totalBalance int64
	for _, utxo := range utxos {
		totalBalance += utxo.Amount
	}
	return totalBalance, nil
}

// WatchContract imports the committed address of d so that its outputs
// show up in GetUtxoList.
func (r *RpcClient) WatchContract(d *contract.Descriptor, rescan bool) error {
	addr, err := btcutil.DecodeAddress(d.Address(), d.Network().Chain)
	if err != nil {
		return err
	}
	return r.client.ImportAddressRescan(addr.EncodeAddress(), "htcl", rescan)
}

// ContractOutputs lists the funded outputs of d.
func (r *RpcClient) ContractOutputs(d *contract.Descriptor, minConf int) ([]*htcltx.UTXO, error) {
	addr, err := btcutil.DecodeAddress(d.Address(), d.Network().Chain)
	if err != nil {
		return nil, err
	}
	return r.GetUtxoList(addr, minConf)
}

// SendRecord broadcasts a signed record. High fees are allowed, the fee
// was chosen by the caller.
func (r *RpcClient) SendRecord(rec *htcltx.Record) (*chainhash.Hash, error) {
	if !rec.Signed() {
		return nil, fmt.Errorf("%s record %s is not signed", rec.Path(), rec.TxID())
	}
	txHash, err := r.client.SendRawTransaction(rec.Tx(), true)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{
		"txid": txHash.String(),
		"path": rec.Path(),
	}).Info("record broadcast")
	return txHash, nil
}

// FindSpend scans blocks from height from up to the tip for the
// transaction spending out. Feed the result to crosschain.ExtractSecret.
func (r *RpcClient) FindSpend(ctx context.Context, out wire.OutPoint, from int64) (*wire.MsgTx, int64, error) {
	latest, err := r.client.GetBlockCount()
	if err != nil {
		return nil, 0, err
	}
	for height := from; height <= latest; height++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		hash, err := r.client.GetBlockHash(height)
		if err != nil {
			return nil, 0, err
		}
		block, err := r.client.GetBlock(hash)
		if err != nil {
			return nil, 0, err
		}
		if tx := spenderIn(block, out); tx != nil {
			return tx, height, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: outpoint=%s, blocks=[%d, %d]", ErrSpendNotFound, out, from, latest)
}

func spenderIn(block *wire.MsgBlock, out wire.OutPoint) *wire.MsgTx {
	for _, tx := range block.Transactions {
		for _, txIn := range tx.TxIn {
			if txIn.PreviousOutPoint == out {
				return tx
			}
		}
	}
	return nil
}

// Import a private key to the node's wallet. Only imported keys are
// tracked. An existing key is not an error.
func (r *RpcClient) ImportPrivateKey(wif *btcutil.WIF, label string) error {
	return r.client.ImportPrivKeyRescan(wif, label, true)
}

// Generate a given number of blocks (regtest).
func (r *RpcClient) GenerateBlocks(numBlocks int64, coinbase btcutil.Address) ([]*chainhash.Hash, error) {
	return r.client.GenerateToAddress(numBlocks, coinbase, nil)
}
