package evmhtcl

import (
	"bytes"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// EncodePacked concatenates values the way solidity abi.encodePacked
// does for the types the contract hashes. *big.Int is packed as uint256.
// Any other type is an error.
func EncodePacked(values ...interface{}) ([]byte, error) {
	var res [][]byte
	for i, value := range values {
		switch v := value.(type) {
		case ethcommon.Address:
			res = append(res, v.Bytes())
		case ethcommon.Hash:
			res = append(res, v.Bytes())
		case [32]byte:
			res = append(res, v[:])
		case []byte:
			res = append(res, v)
		case *big.Int:
			if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
				return nil, fmt.Errorf("value %d: %v does not fit uint256", i, v)
			}
			res = append(res, math.U256Bytes(new(big.Int).Set(v)))
		default:
			return nil, fmt.Errorf("value %d: cannot pack %T", i, value)
		}
	}
	return bytes.Join(res, nil), nil
}
