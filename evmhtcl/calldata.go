package evmhtcl

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/htcl-go/hashlock"
)

var ErrNotWithdraw = errors.New("calldata is not a withdraw call")

// PackNewContract is the calldata that creates c. The transaction must
// carry c.Amount as value and be sent from c.Sender.
func PackNewContract(c *Contract) ([]byte, error) {
	return parsedABI.Pack("newContract", c.Receiver, c.hashlock32(), big.NewInt(c.Timelock.Value))
}

// PackWithdraw is the calldata the receiver sends to claim with the
// preimage. Publishing it discloses the secret.
func PackWithdraw(id ethcommon.Hash, preimage hashlock.Secret) ([]byte, error) {
	return parsedABI.Pack("withdraw", [32]byte(id), [32]byte(preimage))
}

// PackRefund is the calldata the sender uses once the timelock is
// reached.
func PackRefund(id ethcommon.Hash) ([]byte, error) {
	return parsedABI.Pack("refund", [32]byte(id))
}

// UnpackWithdraw reads the contract id and preimage back from withdraw
// calldata.
func UnpackWithdraw(data []byte) (ethcommon.Hash, hashlock.Secret, error) {
	method := parsedABI.Methods["withdraw"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return ethcommon.Hash{}, hashlock.Secret{}, ErrNotWithdraw
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return ethcommon.Hash{}, hashlock.Secret{}, fmt.Errorf("%w: %v", ErrNotWithdraw, err)
	}
	id, ok := args[0].([32]byte)
	if !ok {
		return ethcommon.Hash{}, hashlock.Secret{}, fmt.Errorf("%w: contract id is %T", ErrNotWithdraw, args[0])
	}
	preimage, ok := args[1].([32]byte)
	if !ok {
		return ethcommon.Hash{}, hashlock.Secret{}, fmt.Errorf("%w: preimage is %T", ErrNotWithdraw, args[1])
	}
	return id, hashlock.Secret(preimage), nil
}
