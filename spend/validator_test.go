package spend

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/network"
)

var (
	bobKey   = append([]byte{0x02}, bytes.Repeat([]byte{0xbb}, 32)...)
	aliceKey = append([]byte{0x02}, bytes.Repeat([]byte{0xaa}, 32)...)
	sig      = bytes.Repeat([]byte{0x30}, 71)
)

func newDescriptor(t *testing.T, family hashlock.Family, lock contract.Timelock) *contract.Descriptor {
	hl, err := hashlock.FromSecret([]byte("s"), family)
	require.NoError(t, err)
	d, err := contract.New(contract.Params{
		ClaimantKey: bobKey,
		RefundeeKey: aliceKey,
		Timelock:    lock,
		Hashlock:    hl,
		Network:     network.MainNetParams(),
	})
	require.NoError(t, err)
	return d
}

func requireSpendErr(t *testing.T, err error, path common.SpendPath, reason error) {
	t.Helper()
	var spendErr *common.InvalidSpendError
	require.True(t, errors.As(err, &spendErr), "got %v", err)
	assert.Equal(t, path, spendErr.Path)
	assert.True(t, errors.Is(err, reason), "got %v", err)
}

func TestValidateClaim(t *testing.T) {
	for _, family := range []hashlock.Family{hashlock.FamilyUTXO, hashlock.FamilyEVM} {
		t.Run(family.String(), func(t *testing.T) {
			d := newDescriptor(t, family, contract.AtHeight(1_000_000))

			assert.NoError(t, ValidateClaim(d, []byte("s"), sig, bobKey))

			requireSpendErr(t, ValidateClaim(d, []byte("wrong"), sig, bobKey), common.PathClaim, common.ErrSecretMismatch)
			requireSpendErr(t, ValidateClaim(d, nil, sig, bobKey), common.PathClaim, common.ErrSecretMismatch)
			requireSpendErr(t, ValidateClaim(d, []byte("s"), sig, aliceKey), common.PathClaim, common.ErrKeyMismatch)
			requireSpendErr(t, ValidateClaim(d, []byte("s"), nil, bobKey), common.PathClaim, common.ErrBadSignature)
			requireSpendErr(t, ValidateClaim(d, []byte("s"), sig[:63], bobKey), common.PathClaim, common.ErrBadSignature)
		})
	}
}

func TestValidateClaimIgnoresClock(t *testing.T) {
	// a claim after expiry is still valid as long as nobody refunded
	d := newDescriptor(t, hashlock.FamilyUTXO, contract.AtHeight(10))
	assert.NoError(t, ValidateClaim(d, []byte("s"), sig, bobKey))
}

func TestValidateRefund(t *testing.T) {
	d := newDescriptor(t, hashlock.FamilyUTXO, contract.AtHeight(1_000_000))

	requireSpendErr(t, ValidateRefund(d, sig, aliceKey, contract.AtHeight(999_999)), common.PathRefund, common.ErrTimelockNotReached)
	assert.NoError(t, ValidateRefund(d, sig, aliceKey, contract.AtHeight(1_000_000)))
	assert.NoError(t, ValidateRefund(d, sig, aliceKey, contract.AtHeight(1_000_001)))

	requireSpendErr(t, ValidateRefund(d, sig, bobKey, contract.AtHeight(1_000_000)), common.PathRefund, common.ErrKeyMismatch)
	requireSpendErr(t, ValidateRefund(d, nil, aliceKey, contract.AtHeight(1_000_000)), common.PathRefund, common.ErrBadSignature)
	requireSpendErr(t, ValidateRefund(d, sig, aliceKey, contract.AtTime(time.Unix(1_700_000_000, 0))), common.PathRefund, common.ErrTimelockUnit)

	// the timelock is checked first
	requireSpendErr(t, ValidateRefund(d, nil, bobKey, contract.AtHeight(1)), common.PathRefund, common.ErrTimelockNotReached)
}

func TestValidateRefundTimeLock(t *testing.T) {
	lock, err := contract.NewTimelock(1_700_000_000, contract.UnitTime)
	require.NoError(t, err)
	d := newDescriptor(t, hashlock.FamilyEVM, lock)

	requireSpendErr(t, ValidateRefund(d, sig, aliceKey, contract.AtTime(time.Unix(1_699_999_999, 0))), common.PathRefund, common.ErrTimelockNotReached)
	assert.NoError(t, ValidateRefund(d, sig, aliceKey, contract.AtTime(time.Unix(1_700_000_000, 0))))
	requireSpendErr(t, ValidateRefund(d, sig, aliceKey, contract.AtHeight(2_000_000)), common.PathRefund, common.ErrTimelockUnit)
}

func TestSignaturePolicy(t *testing.T) {
	assert.NoError(t, CheckSignatureShape(bytes.Repeat([]byte{1}, 64)))
	assert.NoError(t, CheckSignatureShape(bytes.Repeat([]byte{1}, 73)))
	assert.True(t, errors.Is(CheckSignatureShape(bytes.Repeat([]byte{1}, 74)), common.ErrBadSignature))
	assert.True(t, errors.Is(CheckSignatureShape([]byte{}), common.ErrBadSignature))

	unbounded := SignaturePolicy{MinLen: 1}
	assert.NoError(t, unbounded.Check(bytes.Repeat([]byte{1}, 200)))

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	hash := sha256.Sum256([]byte("tx"))
	der := append(ecdsa.Sign(priv, hash[:]).Serialize(), byte(txscript.SigHashAll))

	strict := DefaultSignaturePolicy()
	strict.MinLen = 9
	strict.RequireDER = true
	assert.NoError(t, strict.Check(der))
	assert.True(t, errors.Is(strict.Check(sig), common.ErrBadSignature))
}

func TestValidatorWithPolicy(t *testing.T) {
	d := newDescriptor(t, hashlock.FamilyUTXO, contract.AtHeight(100))
	v := NewValidator(SignaturePolicy{MinLen: 8, MaxLen: 16})
	assert.Equal(t, 8, v.Policy().MinLen)

	assert.NoError(t, v.ValidateClaim(d, []byte("s"), make([]byte, 8), bobKey))
	requireSpendErr(t, v.ValidateClaim(d, []byte("s"), sig, bobKey), common.PathClaim, common.ErrBadSignature)
	assert.NoError(t, v.ValidateRefund(d, make([]byte, 16), aliceKey, contract.AtHeight(100)))
}

func TestValidatorConcurrentUse(t *testing.T) {
	d := newDescriptor(t, hashlock.FamilyUTXO, contract.AtHeight(1_000))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				errs <- ValidateClaim(d, []byte("s"), sig, bobKey)
			} else {
				errs <- ValidateRefund(d, sig, aliceKey, contract.AtHeight(int64(1_000+i)))
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestStateTransitions(t *testing.T) {
	s, err := StateCreated.Next(common.PathFunding)
	require.NoError(t, err)
	assert.Equal(t, StateFunded, s)

	claimed, err := s.Next(common.PathClaim)
	require.NoError(t, err)
	assert.Equal(t, StateClaimedBySecret, claimed)
	assert.True(t, claimed.Terminal())

	refunded, err := s.Next(common.PathRefund)
	require.NoError(t, err)
	assert.Equal(t, StateRefundedAfterExpiry, refunded)
	assert.Equal(t, "refunded_after_expiry", refunded.String())

	_, err = claimed.Next(common.PathRefund)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = StateCreated.Next(common.PathClaim)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, StateFunded.Terminal())
}

func TestParseState(t *testing.T) {
	for _, s := range []State{StateCreated, StateFunded, StateClaimedBySecret, StateRefundedAfterExpiry} {
		got, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseState("burned")
	assert.Error(t, err)
}
