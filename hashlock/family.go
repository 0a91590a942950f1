package hashlock

import (
	"fmt"
	"strings"
)

// Family selects the digest pipeline of a hashlock. It is always declared
// by the caller and never inferred from the digest.
type Family string

const (
	// FamilyUTXO locks with RIPEMD-160(SHA-256(secret)), 20 bytes.
	FamilyUTXO Family = "utxo"
	// FamilyEVM locks with SHA-256(secret), 32 bytes.
	FamilyEVM Family = "evm"
)

const (
	Hash160Size = 20
	SHA256Size  = 32
)

func (f Family) DigestSize() int {
	switch f {
	case FamilyUTXO:
		return Hash160Size
	case FamilyEVM:
		return SHA256Size
	default:
		return 0
	}
}

func (f Family) Valid() bool {
	return f.DigestSize() != 0
}

func (f Family) String() string {
	return string(f)
}

// ParseFamily accepts the family names used in configuration files.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utxo", "hash160", "bitcoin", "dogecoin":
		return FamilyUTXO, nil
	case "evm", "sha256", "ethereum", "cosmos":
		return FamilyEVM, nil
	}
	return "", fmt.Errorf("unknown hashlock family: %q", s)
}
