package hashlock

import (
	"errors"

	"github.com/TEENet-io/htcl-go/common"
)

// Encoding is a textual representation of a hashlock.
type Encoding int

const (
	// EncodingRaw is plain hex, as stored by UTXO-side tooling.
	EncodingRaw Encoding = iota
	// EncodingPrefixed is 0x + hex, as expected by EVM tooling.
	EncodingPrefixed
)

func (e Encoding) String() string {
	if e == EncodingPrefixed {
		return "prefixed"
	}
	return "raw"
}

func ConventionalEncoding(f Family) Encoding {
	if f == FamilyEVM {
		return EncodingPrefixed
	}
	return EncodingRaw
}

// DetectEncoding reports the encoding text is written in.
func DetectEncoding(text string) Encoding {
	if common.Has0xPrefix(text) {
		return EncodingPrefixed
	}
	return EncodingRaw
}

// ConvertRepresentation adds or strips the 0x marker of a hashlock text.
// The hex digits are carried over untouched so that converting A->B->A
// returns the original text. The marker is exactly one lower case 0x;
// 0X or a doubled marker is an EncodingError. Only 20 and 32 byte
// digests are accepted.
func ConvertRepresentation(text string, target Encoding) (string, error) {
	raw := common.Trim0xPrefix(text)
	if common.Has0xPrefix(raw) || !common.IsHexString(raw) {
		return "", &common.EncodingError{Input: text, Err: errors.New("not a hex string")}
	}
	if n := len(raw) / 2; n != Hash160Size && n != SHA256Size {
		return "", &common.DigestLengthError{Family: "any", Want: SHA256Size, Got: n}
	}
	if target == EncodingPrefixed {
		if common.Has0xPrefix(text) {
			return text, nil
		}
		return "0x" + raw, nil
	}
	return raw, nil
}

// ToRaw is ConvertRepresentation(text, EncodingRaw).
func ToRaw(text string) (string, error) {
	return ConvertRepresentation(text, EncodingRaw)
}

// ToPrefixed is ConvertRepresentation(text, EncodingPrefixed).
func ToPrefixed(text string) (string, error) {
	return ConvertRepresentation(text, EncodingPrefixed)
}
