package hashlock

import (
	"github.com/TEENet-io/htcl-go/common"
)

const SecretSize = 32

// Secret is the preimage of a hashlock. Revealing it is the claim itself,
// so it is never logged in full.
type Secret [SecretSize]byte

// GenerateRandomSecret draws a secret from the system CSPRNG.
func GenerateRandomSecret() (Secret, error) {
	b, err := common.RandBytes32()
	if err != nil {
		return Secret{}, err
	}
	return Secret(b), nil
}

// ParseSecret reads a secret from hex, with or without the 0x prefix.
func ParseSecret(text string) (Secret, error) {
	b, err := common.DecodeHex(text)
	if err != nil {
		return Secret{}, err
	}
	if len(b) != SecretSize {
		return Secret{}, common.ErrInvalidParameter("secret", "want %d bytes, got %d", SecretSize, len(b))
	}
	return Secret(b), nil
}

func (s Secret) Bytes() []byte {
	b := make([]byte, SecretSize)
	copy(b, s[:])
	return b
}

func (s Secret) Hex() string {
	return common.ByteSliceToPureHexStr(s[:])
}

func (s Secret) Prefixed() string {
	return common.Prepend0xPrefix(s.Hex())
}

// Hashlock derives the hashlock of s under family.
func (s Secret) Hashlock(family Family) (Hashlock, error) {
	return FromSecret(s[:], family)
}

// String hides the secret.
func (s Secret) String() string {
	return common.Shorten(s.Hex(), 4)
}
