package spend

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/TEENet-io/htcl-go/common"
)

const (
	// DefaultMinSignatureLen is a compact 64-byte signature.
	DefaultMinSignatureLen = 64
	// DefaultMaxSignatureLen is a 72-byte DER signature plus a sighash byte.
	DefaultMaxSignatureLen = 73
)

// SignaturePolicy decides whether a signature is present and well shaped.
// Cryptographic verification is left to the ledger or an external verifier.
type SignaturePolicy struct {
	MinLen int
	MaxLen int
	// RequireDER additionally parses the signature (minus its trailing
	// sighash byte) as a strict DER encoding.
	RequireDER bool
}

func DefaultSignaturePolicy() SignaturePolicy {
	return SignaturePolicy{MinLen: DefaultMinSignatureLen, MaxLen: DefaultMaxSignatureLen}
}

// Check returns an error wrapping common.ErrBadSignature when sig is
// missing or out of shape.
func (p SignaturePolicy) Check(sig []byte) error {
	if len(sig) == 0 {
		return fmt.Errorf("%w: no signature", common.ErrBadSignature)
	}
	if len(sig) < p.MinLen {
		return fmt.Errorf("%w: %d bytes, want at least %d", common.ErrBadSignature, len(sig), p.MinLen)
	}
	if p.MaxLen > 0 && len(sig) > p.MaxLen {
		return fmt.Errorf("%w: %d bytes, want at most %d", common.ErrBadSignature, len(sig), p.MaxLen)
	}
	if p.RequireDER {
		if _, err := ecdsa.ParseDERSignature(sig[:len(sig)-1]); err != nil {
			return fmt.Errorf("%w: %v", common.ErrBadSignature, err)
		}
	}
	return nil
}

// CheckSignatureShape applies the default policy.
func CheckSignatureShape(sig []byte) error {
	return DefaultSignaturePolicy().Check(sig)
}
