/*
Package evmhtcl is the EVM leg of a cross-chain session: a HashedTimelock
contract keyed by a SHA-256 hashlock and a unix time timelock.

It packs and unpacks calldata for the contract and watches a node for
withdrawals, from which the preimage is read back.
*/
package evmhtcl

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

const HashedTimelockABI = `[
{"type":"function","name":"newContract","stateMutability":"payable",
 "inputs":[{"name":"_receiver","type":"address"},{"name":"_hashlock","type":"bytes32"},{"name":"_timelock","type":"uint256"}],
 "outputs":[{"name":"contractId","type":"bytes32"}]},
{"type":"function","name":"withdraw","stateMutability":"nonpayable",
 "inputs":[{"name":"_contractId","type":"bytes32"},{"name":"_preimage","type":"bytes32"}],
 "outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"refund","stateMutability":"nonpayable",
 "inputs":[{"name":"_contractId","type":"bytes32"}],
 "outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"LogHTLCNew","anonymous":false,
 "inputs":[{"name":"contractId","type":"bytes32","indexed":true},{"name":"sender","type":"address","indexed":true},{"name":"receiver","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"hashlock","type":"bytes32","indexed":false},{"name":"timelock","type":"uint256","indexed":false}]},
{"type":"event","name":"LogHTLCWithdraw","anonymous":false,
 "inputs":[{"name":"contractId","type":"bytes32","indexed":true}]},
{"type":"event","name":"LogHTLCRefund","anonymous":false,
 "inputs":[{"name":"contractId","type":"bytes32","indexed":true}]}
]`

var (
	// Events
	NewSignatureHash      = crypto.Keccak256Hash([]byte("LogHTLCNew(bytes32,address,address,uint256,bytes32,uint256)"))
	WithdrawSignatureHash = crypto.Keccak256Hash([]byte("LogHTLCWithdraw(bytes32)"))
	RefundSignatureHash   = crypto.Keccak256Hash([]byte("LogHTLCRefund(bytes32)"))
)

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(HashedTimelockABI))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ABI returns the parsed HashedTimelock interface.
func ABI() abi.ABI {
	return parsedABI
}
