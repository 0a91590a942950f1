package hashlock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/htcl-go/common"
)

const (
	// first account of the "test test ... junk" development mnemonic
	devMnemonic = "test test test test test test test test test test test junk"
	devKeyHex   = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	devTimestamp   = 1700000000
	devBucket      = 1699999200
	devHMACSecret  = "9b32b896229f98723f3e53e378224ae55e02280167dab11fd578ba4dd9daa1e5"
	devHKDFSecret  = "6c7d229f0350478ab174309d5aefb40ad29bbf0814a8cdd8b3cadaeea2b42c33"
	devHMACLockEVM = "f707a5698d14ce9d854e40deb5b4cf5a28cebd304959bec4a2cacdfcc399e9b5"
)

func TestGenerateRandomSecret(t *testing.T) {
	a, err := GenerateRandomSecret()
	require.NoError(t, err)
	b, err := GenerateRandomSecret()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a.Bytes(), SecretSize)
	assert.Len(t, a.Hex(), 64)
	assert.Equal(t, "0x"+a.Hex(), a.Prefixed())
}

func TestParseSecret(t *testing.T) {
	s, err := ParseSecret("0x" + devHMACSecret)
	require.NoError(t, err)
	assert.Equal(t, devHMACSecret, s.Hex())

	_, err = ParseSecret("0xabcd")
	var paramErr *common.InvalidParameterError
	assert.True(t, errors.As(err, &paramErr))

	_, err = ParseSecret("0xq")
	var encErr *common.EncodingError
	assert.True(t, errors.As(err, &encErr))
}

func TestSecretStringIsShortened(t *testing.T) {
	s, err := ParseSecret(devHMACSecret)
	require.NoError(t, err)
	assert.NotContains(t, s.String(), devHMACSecret)
}

func TestKeyFromMnemonic(t *testing.T) {
	key, err := KeyFromMnemonic(devMnemonic, "")
	require.NoError(t, err)

	fromHex, err := KeyFromHex("0x" + devKeyHex)
	require.NoError(t, err)
	assert.Equal(t, fromHex.D, key.D)

	_, err = KeyFromMnemonic("not a mnemonic", "")
	assert.Error(t, err)

	_, err = KeyFromHex("zz")
	assert.Error(t, err)
}

func TestTimeBucket(t *testing.T) {
	at := time.Unix(devTimestamp, 0)
	assert.Equal(t, int64(devBucket), TimeBucket(at, time.Hour))
	assert.Equal(t, int64(devBucket), TimeBucket(time.Unix(devBucket, 0), time.Hour))
	assert.Equal(t, int64(devBucket+3600), TimeBucket(time.Unix(devBucket+3600, 0), time.Hour))
	assert.Equal(t, int64(-3600), TimeBucket(time.Unix(-1, 0), time.Hour))
}

func TestDeriveDeterministicSecret(t *testing.T) {
	key, err := KeyFromHex(devKeyHex)
	require.NoError(t, err)

	secret, info, err := DeriveDeterministicSecret(key, time.Unix(devTimestamp, 0))
	require.NoError(t, err)
	assert.Equal(t, devHMACSecret, secret.Hex())
	assert.Equal(t, devAddress, info.WalletAddress.Hex())
	assert.Equal(t, "HTCL_CROSS_CHAIN_SECRET_1699999200", info.Message)
	assert.Equal(t, int64(devBucket), info.TimeBucket)
	assert.Equal(t, MethodHMAC, info.Method)

	h, err := secret.Hashlock(FamilyEVM)
	require.NoError(t, err)
	assert.Equal(t, devHMACLockEVM, h.Raw())

	// same bucket, same secret
	again, _, err := DeriveDeterministicSecret(key, time.Unix(devBucket+3599, 0))
	require.NoError(t, err)
	assert.Equal(t, secret, again)

	// next bucket, new secret
	next, _, err := DeriveDeterministicSecret(key, time.Unix(devBucket+3600, 0))
	require.NoError(t, err)
	assert.NotEqual(t, secret, next)
}

func TestDeriveHKDF(t *testing.T) {
	key, err := KeyFromHex(devKeyHex)
	require.NoError(t, err)

	d, err := NewDeriver(time.Hour, MethodHKDF)
	require.NoError(t, err)
	secret, info, err := d.Derive(key, time.Unix(devTimestamp, 0))
	require.NoError(t, err)
	assert.Equal(t, devHKDFSecret, secret.Hex())
	assert.Equal(t, MethodHKDF, info.Method)
	assert.NotEqual(t, devHMACSecret, secret.Hex())
}

func TestNewDeriverErrors(t *testing.T) {
	_, err := NewDeriver(time.Millisecond, MethodHMAC)
	assert.Error(t, err)
	_, err = NewDeriver(time.Hour, Method("scrypt"))
	assert.Error(t, err)

	d, err := NewDeriver(time.Hour, "")
	require.NoError(t, err)
	assert.Equal(t, MethodHMAC, d.Method)

	_, _, err = d.Derive(nil, time.Now())
	assert.Error(t, err)
}
