package spend

import (
	"errors"
	"fmt"

	"github.com/TEENet-io/htcl-go/common"
)

// State of a contract on its ledger.
type State int

const (
	StateCreated State = iota
	StateFunded
	StateClaimedBySecret
	StateRefundedAfterExpiry
)

var ErrInvalidTransition = errors.New("invalid contract state transition")

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateFunded:
		return "funded"
	case StateClaimedBySecret:
		return "claimed_by_secret"
	case StateRefundedAfterExpiry:
		return "refunded_after_expiry"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState is the inverse of String.
func ParseState(text string) (State, error) {
	for s := StateCreated; s <= StateRefundedAfterExpiry; s++ {
		if s.String() == text {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown contract state: %q", text)
}

func (s State) Terminal() bool {
	return s == StateClaimedBySecret || s == StateRefundedAfterExpiry
}

// Next is the state after an accepted spend on path. Bookkeeping is the
// caller's; the ledger is what makes a transition final.
func (s State) Next(path common.SpendPath) (State, error) {
	switch {
	case s == StateCreated && path == common.PathFunding:
		return StateFunded, nil
	case s == StateFunded && path == common.PathClaim:
		return StateClaimedBySecret, nil
	case s == StateFunded && path == common.PathRefund:
		return StateRefundedAfterExpiry, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, path, s)
}
