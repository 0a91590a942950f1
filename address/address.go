/*
Package address maps a compiled HTCL program to its committed address.

	commitment = RIPEMD160(SHA256(program))
	address    = base58(version || commitment || checksum)

where checksum is the first four bytes of a double SHA-256 over
version || commitment. This is the pay-to-script-hash address of the
program, so a funding output to it is the usual P2SH pkScript.
*/
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/txscript"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/network"
)

// CommitmentSize is the size of a decoded address payload.
const CommitmentSize = 20

var ErrAddressMismatch = errors.New("address does not commit to program")

// Commitment is the 20-byte digest an address commits to.
func Commitment(program []byte) []byte {
	return btcutil.Hash160(program)
}

// Derive is a pure function of (program, version). Deriving twice gives
// the same string.
func Derive(program []byte, version byte) string {
	return base58.CheckEncode(Commitment(program), version)
}

// DeriveForNetwork derives with the script-hash version byte of params.
func DeriveForNetwork(program []byte, params *network.Params) string {
	return Derive(program, params.ScriptHashVersion())
}

// Decode checks the checksum of addr and splits it into its version byte
// and commitment.
func Decode(addr string) (byte, []byte, error) {
	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return 0, nil, &common.EncodingError{Input: addr, Err: err}
	}
	if len(payload) != CommitmentSize {
		return 0, nil, &common.EncodingError{
			Input: addr,
			Err:   fmt.Errorf("payload is %d bytes, want %d", len(payload), CommitmentSize),
		}
	}
	return version, payload, nil
}

// Verify checks that addr was derived from program under version.
func Verify(addr string, program []byte, version byte) error {
	v, commitment, err := Decode(addr)
	if err != nil {
		return err
	}
	if v != version {
		return fmt.Errorf("%w: version=%#02x, want=%#02x", ErrAddressMismatch, v, version)
	}
	if !bytes.Equal(commitment, Commitment(program)) {
		return fmt.Errorf("%w: commitment=%x", ErrAddressMismatch, commitment)
	}
	return nil
}

// ScriptHash returns the btcutil form of the committed address.
func ScriptHash(program []byte, params *network.Params) (*btcutil.AddressScriptHash, error) {
	return btcutil.NewAddressScriptHashFromHash(Commitment(program), params.Chain)
}

// PayToScriptHash builds the pkScript paying to a committed address.
func PayToScriptHash(addr string, params *network.Params) ([]byte, error) {
	version, commitment, err := Decode(addr)
	if err != nil {
		return nil, err
	}
	if version != params.ScriptHashVersion() {
		return nil, common.ErrInvalidParameter("committed_address",
			"version %#02x is not the script-hash version of %s", version, params.Name)
	}
	sh, err := btcutil.NewAddressScriptHashFromHash(commitment, params.Chain)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(sh)
}

// PayToAddress builds the pkScript of a plain (P2PKH or P2SH) address on
// params, e.g. a change or claim destination.
func PayToAddress(addr string, params *network.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, params.Chain)
	if err != nil {
		return nil, &common.EncodingError{Input: addr, Err: err}
	}
	if !decoded.IsForNet(params.Chain) {
		return nil, common.ErrInvalidParameter("address", "%s is not a %s address", addr, params.Name)
	}
	return txscript.PayToAddrScript(decoded)
}
