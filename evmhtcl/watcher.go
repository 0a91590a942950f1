package evmhtcl

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
)

var ErrPreimageNotFound = errors.New("no withdraw disclosed the preimage")

type ethereumClient interface {
	ethereum.LogFilterer
	ethereum.TransactionReader

	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Watcher reads one deployed HashedTimelock through a node. It also reads
// the clock of the chain for timelock ordering checks.
type Watcher struct {
	ethClient ethereumClient
	address   ethcommon.Address
}

func NewWatcher(url string, address ethcommon.Address) (*Watcher, error) {
	ethClient, err := ethclient.Dial(url)
	if err != nil {
		return nil, err
	}
	return NewWatcherWithClient(ethClient, address), nil
}

func NewWatcherWithClient(client ethereumClient, address ethcommon.Address) *Watcher {
	return &Watcher{ethClient: client, address: address}
}

// Now returns the latest block time or height.
func (w *Watcher) Now(ctx context.Context, unit contract.Unit) (contract.Timelock, error) {
	header, err := w.ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return contract.Timelock{}, err
	}
	if unit == contract.UnitTime {
		return contract.Timelock{Value: int64(header.Time), Unit: contract.UnitTime}, nil
	}
	return contract.AtHeight(header.Number.Int64()), nil
}

// NewContracts returns the contracts created in blocks [from, to].
func (w *Watcher) NewContracts(ctx context.Context, from, to *big.Int) ([]*NewEvent, error) {
	logs, err := w.ethClient.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []ethcommon.Address{w.address},
		Topics:    [][]ethcommon.Hash{{NewSignatureHash}},
	})
	if err != nil {
		return nil, err
	}

	events := make([]*NewEvent, 0, len(logs))
	for _, vlog := range logs {
		ev, err := ParseNewEvent(vlog)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// FindPreimage looks for the withdraw of contract id from block from on
// and returns the preimage it carried, checked against h.
func (w *Watcher) FindPreimage(ctx context.Context, id ethcommon.Hash, h hashlock.Hashlock, from *big.Int) (hashlock.Secret, error) {
	logs, err := w.ethClient.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: from,
		Addresses: []ethcommon.Address{w.address},
		Topics:    [][]ethcommon.Hash{{WithdrawSignatureHash}, {id}},
	})
	if err != nil {
		return hashlock.Secret{}, err
	}

	for _, vlog := range logs {
		tx, _, err := w.ethClient.TransactionByHash(ctx, vlog.TxHash)
		if err != nil {
			return hashlock.Secret{}, err
		}
		gotID, preimage, err := UnpackWithdraw(tx.Data())
		if err != nil {
			// withdraw reached through another contract, calldata is not ours
			logger.WithField("tx", vlog.TxHash.Hex()).Debugf("skip withdraw log: %v", err)
			continue
		}
		if gotID != id || !h.Verify(preimage.Bytes()) {
			continue
		}
		logger.WithFields(logger.Fields{
			"contract": id.Hex(),
			"tx":       vlog.TxHash.Hex(),
			"block":    vlog.BlockNumber,
		}).Debug("preimage disclosed by withdraw")
		return preimage, nil
	}
	return hashlock.Secret{}, fmt.Errorf("%w: contract=%s", ErrPreimageNotFound, id.Hex())
}
