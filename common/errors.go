package common

import (
	"errors"
	"fmt"
)

// InvalidParameterError reports bad constructor input, e.g. an empty key,
// a non-positive timelock or a hashlock of the wrong length.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

func ErrInvalidParameter(field, format string, args ...interface{}) error {
	return &InvalidParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// EncodingError reports malformed hex (or base58) text.
type EncodingError struct {
	Input string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("malformed encoding: input=%q: %v", Shorten(e.Input, 16), e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DigestLengthError reports a digest whose size does not match the
// size required by the requested hashlock family.
type DigestLengthError struct {
	Family string
	Want   int
	Got    int
}

func (e *DigestLengthError) Error() string {
	return fmt.Sprintf("digest length mismatch: family=%s, want=%d, got=%d", e.Family, e.Want, e.Got)
}

// ProgramTooLargeError reports an operand (or a whole program) that
// cannot be encoded within the single length byte of a push.
type ProgramTooLargeError struct {
	Field string
	Size  int
	Limit int
}

func (e *ProgramTooLargeError) Error() string {
	return fmt.Sprintf("program too large: field=%s, size=%d, limit=%d", e.Field, e.Size, e.Limit)
}

// InsufficientFundsError reports funding inputs that do not cover
// amount + fee.
type InsufficientFundsError struct {
	Have int64
	Need int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have=%d, need=%d", e.Have, e.Need)
}

// Reasons carried by InvalidSpendError. Match them with errors.Is.
var (
	ErrSecretMismatch     = errors.New("secret does not match hashlock")
	ErrKeyMismatch        = errors.New("signing key does not match contract key")
	ErrTimelockNotReached = errors.New("timelock not reached")
	ErrTimelockUnit       = errors.New("timelock unit mismatch")
	ErrBadSignature       = errors.New("signature missing or malformed")
	ErrMalformedRecord    = errors.New("malformed transaction record")
)

// SpendPath names the branch of the contract being spent.
type SpendPath string

const (
	PathFunding SpendPath = "funding"
	PathClaim   SpendPath = "claim"
	PathRefund  SpendPath = "refund"
)

// InvalidSpendError reports a failed claim or refund precondition.
type InvalidSpendError struct {
	Path   SpendPath
	Reason error
	Detail string
}

func (e *InvalidSpendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid %s spend: %v", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid %s spend: %v: %s", e.Path, e.Reason, e.Detail)
}

func (e *InvalidSpendError) Unwrap() error { return e.Reason }

func ErrInvalidSpend(path SpendPath, reason error, format string, args ...interface{}) error {
	return &InvalidSpendError{Path: path, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
