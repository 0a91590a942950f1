/*
Package spend decides whether a claim or a refund of an HTCL is valid.

Both checks are read-only predicates over an immutable descriptor and a
caller supplied clock reading, so they are safe for concurrent use. A nil
error accepts the spend; any rejection is a *common.InvalidSpendError
whose reason matches one of the common.Err* sentinels.
*/
package spend

import (
	"bytes"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
)

type Validator struct {
	policy SignaturePolicy
}

func NewValidator(policy SignaturePolicy) *Validator {
	return &Validator{policy: policy}
}

var defaultValidator = NewValidator(DefaultSignaturePolicy())

// ValidateClaim uses the default signature policy.
func ValidateClaim(d *contract.Descriptor, secret, sig, key []byte) error {
	return defaultValidator.ValidateClaim(d, secret, sig, key)
}

// ValidateRefund uses the default signature policy.
func ValidateRefund(d *contract.Descriptor, sig, key []byte, now contract.Timelock) error {
	return defaultValidator.ValidateRefund(d, sig, key, now)
}

// Default is the validator behind the package level functions.
func Default() *Validator {
	return defaultValidator
}

func (v *Validator) Policy() SignaturePolicy {
	return v.policy
}

// ValidateClaim accepts a spend of the secret path: secret must hash to
// the hashlock, key must be the claimant key and sig must be well shaped.
func (v *Validator) ValidateClaim(d *contract.Descriptor, secret, sig, key []byte) error {
	if err := v.PrecheckClaim(d, secret); err != nil {
		return err
	}
	if !bytes.Equal(key, d.ClaimantKey()) {
		return reject(d, common.PathClaim, common.ErrKeyMismatch, "key=%x", key)
	}
	if err := v.policy.Check(sig); err != nil {
		return reject(d, common.PathClaim, common.ErrBadSignature, "%v", err)
	}
	return nil
}

// PrecheckClaim is the part of ValidateClaim that does not need a
// signature. Builders run it before a claim is signed.
func (v *Validator) PrecheckClaim(d *contract.Descriptor, secret []byte) error {
	if !d.Hashlock().Verify(secret) {
		return reject(d, common.PathClaim, common.ErrSecretMismatch, "hashlock=%s", d.Hashlock())
	}
	return nil
}

// ValidateRefund accepts a spend of the timeout path once now has reached
// the timelock (inclusive) in the timelock's own unit.
func (v *Validator) ValidateRefund(d *contract.Descriptor, sig, key []byte, now contract.Timelock) error {
	if err := v.PrecheckRefund(d, now); err != nil {
		return err
	}
	if !bytes.Equal(key, d.RefundeeKey()) {
		return reject(d, common.PathRefund, common.ErrKeyMismatch, "key=%x", key)
	}
	if err := v.policy.Check(sig); err != nil {
		return reject(d, common.PathRefund, common.ErrBadSignature, "%v", err)
	}
	return nil
}

// PrecheckRefund is the timelock part of ValidateRefund.
func (v *Validator) PrecheckRefund(d *contract.Descriptor, now contract.Timelock) error {
	reached, err := d.Timelock().ReachedBy(now)
	if err != nil {
		return reject(d, common.PathRefund, common.ErrTimelockUnit, "%v", err)
	}
	if !reached {
		return reject(d, common.PathRefund, common.ErrTimelockNotReached,
			"now=%d, timelock=%d", now.Value, d.Timelock().Value)
	}
	return nil
}

func reject(d *contract.Descriptor, path common.SpendPath, reason error, format string, args ...interface{}) error {
	detail := fmt.Sprintf(format, args...)
	logger.WithFields(logger.Fields{
		"address": d.Address(),
		"path":    path,
		"reason":  reason,
	}).Debug(detail)
	return &common.InvalidSpendError{Path: path, Reason: reason, Detail: detail}
}
