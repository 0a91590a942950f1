package crosschain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/htcltx"
)

var ErrSecretNotFound = errors.New("no pushed data opens the hashlock")

// ExtractSecret scans the inputs of an observed claim for the pushed
// value that opens h. Scripts are read like the claim validator reads
// them, so a one byte secret pushed as a small integer opcode is found. This is how the second claimant learns the secret
// once the first claim is public.
func ExtractSecret(h hashlock.Hashlock, tx *wire.MsgTx) ([]byte, error) {
	for idx, txIn := range tx.TxIn {
		pushes, err := htcltx.PushedData(txIn.SignatureScript)
		if err != nil {
			// not push only, cannot be a claim of ours
			continue
		}
		for _, data := range pushes {
			if len(data) > 0 && h.Verify(data) {
				logger.WithFields(logger.Fields{
					"txid":     tx.TxHash().String(),
					"input":    idx,
					"hashlock": h.String(),
				}).Debug("secret found in claim")
				return bytes.Clone(data), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: txid=%s, hashlock=%s", ErrSecretNotFound, tx.TxHash(), h)
}

// SecretForLeg converts a disclosed secret into the form the other leg
// expects. EVM contracts take a 32 byte preimage.
func SecretForLeg(secret []byte, l Leg) ([]byte, error) {
	if !l.Hashlock.Verify(secret) {
		return nil, fmt.Errorf("%w: %s on %s", common.ErrSecretMismatch, common.Shorten(common.ByteSliceToPureHexStr(secret), 4), l.Ledger)
	}
	if l.Hashlock.Family() == hashlock.FamilyEVM && len(secret) != hashlock.SecretSize {
		return nil, common.ErrInvalidParameter("secret", "%s needs a %d byte preimage, got %d",
			l.Ledger, hashlock.SecretSize, len(secret))
	}
	return bytes.Clone(secret), nil
}
