package evmhtcl

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
)

type logHTLCNew struct {
	Amount   *big.Int
	Hashlock [32]byte
	Timelock *big.Int
}

type NewEvent struct {
	ID     ethcommon.Hash
	TxHash ethcommon.Hash
	*Contract
}

// ParseNewEvent decodes a LogHTLCNew log into the contract it created.
func ParseNewEvent(vlog types.Log) (*NewEvent, error) {
	if len(vlog.Topics) != 4 || vlog.Topics[0] != NewSignatureHash {
		return nil, fmt.Errorf("not a LogHTLCNew log: %d topics", len(vlog.Topics))
	}
	ev := new(logHTLCNew)
	if err := parsedABI.UnpackIntoInterface(ev, "LogHTLCNew", vlog.Data); err != nil {
		return nil, err
	}
	hl, err := hashlock.New(ev.Hashlock[:], hashlock.FamilyEVM)
	if err != nil {
		return nil, err
	}
	if !ev.Timelock.IsInt64() {
		return nil, fmt.Errorf("timelock %s out of range", ev.Timelock)
	}
	return &NewEvent{
		ID:     vlog.Topics[1],
		TxHash: vlog.TxHash,
		Contract: &Contract{
			Sender:   ethcommon.BytesToAddress(vlog.Topics[2].Bytes()),
			Receiver: ethcommon.BytesToAddress(vlog.Topics[3].Bytes()),
			Amount:   ev.Amount,
			Hashlock: hl,
			Timelock: contract.Timelock{Value: ev.Timelock.Int64(), Unit: contract.UnitTime},
		},
	}, nil
}
