package evmhtcl

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/crosschain"
	"github.com/TEENet-io/htcl-go/hashlock"
)

// Contract is one HashedTimelock entry. Amount is in wei.
type Contract struct {
	Sender   ethcommon.Address
	Receiver ethcommon.Address
	Amount   *big.Int
	Hashlock hashlock.Hashlock
	Timelock contract.Timelock
}

func NewContract(sender, receiver ethcommon.Address, amount *big.Int, hl hashlock.Hashlock, tl contract.Timelock) (*Contract, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, common.ErrInvalidParameter("amount", "must be positive, got %v", amount)
	}
	if hl.Family() != hashlock.FamilyEVM {
		return nil, &common.DigestLengthError{Family: hl.Family().String(), Want: hashlock.FamilyEVM.DigestSize(), Got: hl.Size()}
	}
	if tl.Unit != contract.UnitTime {
		return nil, fmt.Errorf("%w: evm contracts lock on time, got %s", common.ErrTimelockUnit, tl)
	}
	if _, err := contract.NewTimelock(tl.Value, tl.Unit); err != nil {
		return nil, err
	}
	if receiver == (ethcommon.Address{}) {
		return nil, common.ErrInvalidParameter("receiver", "zero address")
	}
	return &Contract{
		Sender:   sender,
		Receiver: receiver,
		Amount:   new(big.Int).Set(amount),
		Hashlock: hl,
		Timelock: tl,
	}, nil
}

func (c *Contract) hashlock32() [32]byte {
	var h [32]byte
	copy(h[:], c.Hashlock.Bytes())
	return h
}

// ID is the contract id the HashedTimelock assigns on creation:
// sha256 over the packed sender, receiver, amount, hashlock and timelock.
func (c *Contract) ID() ethcommon.Hash {
	packed, err := EncodePacked(
		c.Sender,
		c.Receiver,
		c.Amount,
		c.hashlock32(),
		big.NewInt(c.Timelock.Value),
	)
	if err != nil {
		// NewContract only admits packable fields
		panic(err)
	}
	return sha256.Sum256(packed)
}

// Leg describes the contract as one side of a session.
func (c *Contract) Leg(ledger string) crosschain.Leg {
	return crosschain.Leg{
		Ledger:   ledger,
		Hashlock: c.Hashlock,
		Timelock: c.Timelock,
	}
}

func (c *Contract) String() string {
	return fmt.Sprintf("HashedTimelock{id=%s, sender=%s, receiver=%s, amount=%s, hashlock=%s, timelock=%s}",
		c.ID().Hex(), c.Sender.Hex(), c.Receiver.Hex(), c.Amount, c.Hashlock, c.Timelock)
}
