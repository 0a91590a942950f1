package hashlock

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"

	"github.com/TEENet-io/htcl-go/common"
)

const (
	// SecretMessagePrefix is followed by the decimal time bucket.
	SecretMessagePrefix = "HTCL_CROSS_CHAIN_SECRET_"

	DefaultBucketInterval = time.Hour

	hkdfSalt = "HTCL_SECRET_HKDF_V1"
)

// Method names a deterministic derivation scheme.
type Method string

const (
	// MethodHMAC keys HMAC-SHA256 directly with the private key bytes.
	MethodHMAC Method = "deterministic_hmac"
	// MethodHKDF expands the private key through HKDF-SHA256 with a
	// fixed salt, giving the secret its own domain.
	MethodHKDF Method = "hkdf_sha256"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodHMAC, MethodHKDF:
		return Method(s), nil
	case "":
		return MethodHMAC, nil
	}
	return "", fmt.Errorf("unknown secret derivation method: %q", s)
}

// DerivationInfo is the audit trail of a deterministic derivation.
type DerivationInfo struct {
	WalletAddress ethcommon.Address
	Message       string
	TimeBucket    int64 // unix seconds, rounded down to the interval
	Method        Method
}

// Deriver reproduces the same secret for the same key material within
// one time bucket, on every ledger and in every process.
type Deriver struct {
	Interval time.Duration
	Method   Method
}

func NewDeriver(interval time.Duration, method Method) (*Deriver, error) {
	if interval < time.Second {
		return nil, common.ErrInvalidParameter("interval", "must be at least 1s, got %v", interval)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, common.ErrInvalidParameter("method", "%v", err)
	}
	if method == "" {
		method = MethodHMAC
	}
	return &Deriver{Interval: interval, Method: method}, nil
}

// TimeBucket rounds t down to a multiple of interval, in unix seconds.
func TimeBucket(t time.Time, interval time.Duration) int64 {
	secs := int64(interval / time.Second)
	if secs <= 0 {
		secs = 1
	}
	unix := t.Unix()
	bucket := unix - unix%secs
	if unix < 0 && unix%secs != 0 {
		bucket -= secs
	}
	return bucket
}

func BucketMessage(bucket int64) string {
	return SecretMessagePrefix + strconv.FormatInt(bucket, 10)
}

// DeriveDeterministicSecret derives with the default hourly HMAC scheme.
func DeriveDeterministicSecret(key *ecdsa.PrivateKey, at time.Time) (Secret, *DerivationInfo, error) {
	d := Deriver{Interval: DefaultBucketInterval, Method: MethodHMAC}
	return d.Derive(key, at)
}

// Derive computes the secret of key for the bucket containing at.
func (d *Deriver) Derive(key *ecdsa.PrivateKey, at time.Time) (Secret, *DerivationInfo, error) {
	if key == nil {
		return Secret{}, nil, common.ErrInvalidParameter("key_material", "missing private key")
	}

	bucket := TimeBucket(at, d.Interval)
	msg := BucketMessage(bucket)
	keyBytes := ethcrypto.FromECDSA(key)

	var secret Secret
	switch d.Method {
	case MethodHMAC, "":
		mac := hmac.New(sha256.New, keyBytes)
		mac.Write([]byte(msg))
		copy(secret[:], mac.Sum(nil))
	case MethodHKDF:
		r := hkdf.New(sha256.New, keyBytes, []byte(hkdfSalt), []byte(msg))
		if _, err := io.ReadFull(r, secret[:]); err != nil {
			return Secret{}, nil, err
		}
	default:
		return Secret{}, nil, common.ErrInvalidParameter("method", "unknown derivation method %q", d.Method)
	}

	method := d.Method
	if method == "" {
		method = MethodHMAC
	}
	return secret, &DerivationInfo{
		WalletAddress: ethcrypto.PubkeyToAddress(key.PublicKey),
		Message:       msg,
		TimeBucket:    bucket,
		Method:        method,
	}, nil
}
