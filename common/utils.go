package common

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// The returned string has No 0x prefix
func ByteSliceToPureHexStr(b []byte) string {
	return ethcommon.Bytes2Hex(b)
}

// DecodeHex decodes a hex string with or without the 0x prefix.
// Unlike ethcommon.Hex2Bytes it never silently drops malformed input.
func DecodeHex(hexStr string) ([]byte, error) {
	s := Trim0xPrefix(hexStr)
	if len(s)%2 != 0 {
		return nil, &EncodingError{Input: hexStr, Err: errors.New("odd length hex string")}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &EncodingError{Input: hexStr, Err: err}
	}
	return b, nil
}

// Trim a single lower case 0x prefix off the string. 0X is not a
// prefix, so such text fails as hex.
func Trim0xPrefix(str string) string {
	return strings.TrimPrefix(str, "0x")
}

func Has0xPrefix(str string) bool {
	return strings.HasPrefix(str, "0x")
}

func Prepend0xPrefix(str string) string {
	if Has0xPrefix(str) {
		return str
	}
	return "0x" + str
}

// RandBytes32 generates [32]byte from the system CSPRNG.
func RandBytes32() ([32]byte, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return [32]byte{}, err
	}
	return b, nil
}

// Shorten shortens a hex string so that both sides have n characters and
// the rest is replaced with "..."
func Shorten(hexStr string, n int) string {
	str := Trim0xPrefix(hexStr)

	if len(str) <= n*2 {
		return str
	}
	return str[:n] + "..." + str[len(str)-n:]
}

func IsHexString(s string) bool {
	s = Trim0xPrefix(s)
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for _, c := range s {
		if !isHexChar(c) {
			return false
		}
	}
	return true
}

func isHexChar(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
