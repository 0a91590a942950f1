package hashlock

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/ripemd160"

	"github.com/TEENet-io/htcl-go/common"
)

// Hashlock is a digest committing to a secret under a declared family.
// The zero value is not a valid hashlock.
type Hashlock struct {
	family Family
	digest []byte
}

// New wraps an existing digest, checking its size against the family.
func New(digest []byte, family Family) (Hashlock, error) {
	if !family.Valid() {
		return Hashlock{}, common.ErrInvalidParameter("family", "unknown hashlock family %q", family)
	}
	if len(digest) != family.DigestSize() {
		return Hashlock{}, &common.DigestLengthError{Family: family.String(), Want: family.DigestSize(), Got: len(digest)}
	}
	return Hashlock{family: family, digest: bytes.Clone(digest)}, nil
}

// FromSecret computes the hashlock of secret with the family's pipeline.
func FromSecret(secret []byte, family Family) (Hashlock, error) {
	if !family.Valid() {
		return Hashlock{}, common.ErrInvalidParameter("family", "unknown hashlock family %q", family)
	}
	return Hashlock{family: family, digest: Digest(secret, family)}, nil
}

// Digest runs the digest pipeline of family over secret. It returns nil
// for an unknown family.
func Digest(secret []byte, family Family) []byte {
	sum := sha256.Sum256(secret)
	switch family {
	case FamilyEVM:
		return sum[:]
	case FamilyUTXO:
		return ripemd160Sum(sum[:])
	}
	return nil
}

func ripemd160Sum(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

// Parse reads a hashlock from either text encoding.
func Parse(text string, family Family) (Hashlock, error) {
	digest, err := common.DecodeHex(text)
	if err != nil {
		return Hashlock{}, err
	}
	return New(digest, family)
}

// Verify recomputes the digest of secret and compares it with h.
func (h Hashlock) Verify(secret []byte) bool {
	if !h.family.Valid() {
		return false
	}
	return subtle.ConstantTimeCompare(Digest(secret, h.family), h.digest) == 1
}

func (h Hashlock) Family() Family { return h.family }

func (h Hashlock) Bytes() []byte { return bytes.Clone(h.digest) }

func (h Hashlock) Size() int { return len(h.digest) }

func (h Hashlock) IsZero() bool { return len(h.digest) == 0 }

func (h Hashlock) Equal(o Hashlock) bool {
	return h.family == o.family && bytes.Equal(h.digest, o.digest)
}

// Raw is the digest hex without prefix.
func (h Hashlock) Raw() string {
	return common.ByteSliceToPureHexStr(h.digest)
}

// Prefixed is the digest hex with the 0x marker.
func (h Hashlock) Prefixed() string {
	return common.Prepend0xPrefix(h.Raw())
}

// Encode renders the hashlock in the requested text encoding.
func (h Hashlock) Encode(enc Encoding) string {
	if enc == EncodingPrefixed {
		return h.Prefixed()
	}
	return h.Raw()
}

// String uses the conventional encoding of the family: EVM ledgers
// expect the prefixed form, UTXO ledgers the raw form.
func (h Hashlock) String() string {
	return h.Encode(ConventionalEncoding(h.family))
}

// UTXOCommitment maps an EVM (SHA-256) lock onto the equivalent UTXO
// (HASH160) lock of the same secret. A UTXO lock is returned unchanged.
func (h Hashlock) UTXOCommitment() Hashlock {
	if h.family == FamilyEVM {
		return Hashlock{family: FamilyUTXO, digest: ripemd160Sum(h.digest)}
	}
	return h
}

// SameCommitment reports whether h and o commit to the same secret,
// across families where that can be decided from the digests alone.
func (h Hashlock) SameCommitment(o Hashlock) bool {
	if h.IsZero() || o.IsZero() {
		return false
	}
	if h.family == o.family {
		return h.Equal(o)
	}
	return h.UTXOCommitment().Equal(o.UTXOCommitment())
}
