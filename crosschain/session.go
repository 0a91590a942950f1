/*
Package crosschain holds the primitives an orchestrator needs to keep two
HTCLs on independent ledgers settling atomically.

Flow of a session:
  - the secret holder funds the initiator leg first, with the longer
    timelock;
  - the counterparty funds the participant leg under the same hashlock,
    with a timelock that expires strictly earlier;
  - the secret holder claims the participant leg, which publishes the
    secret;
  - the counterparty extracts the secret from that claim and claims the
    initiator leg before it expires.

Nothing here is atomic by itself. Each ledger only knows its own timelock,
so the ordering is checked here across legs, before funding.
*/
package crosschain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
)

var (
	ErrHashlockMismatch = errors.New("legs do not share one hashlock")
	ErrTimelockOrder    = errors.New("participant leg must expire before initiator leg")
	ErrNoBlockInterval  = errors.New("height timelock needs a block interval")
	ErrLegExpired       = errors.New("leg timelock already reached")
)

// Oracle reads the clock of one ledger: its tip height or its time. It
// is implemented outside the core, e.g. by a node rpc client.
type Oracle interface {
	Now(ctx context.Context, unit contract.Unit) (contract.Timelock, error)
}

// StaticOracle answers with fixed readings.
type StaticOracle struct {
	Height int64
	Time   time.Time
}

func (o StaticOracle) Now(_ context.Context, unit contract.Unit) (contract.Timelock, error) {
	if unit == contract.UnitTime {
		return contract.AtTime(o.Time), nil
	}
	return contract.AtHeight(o.Height), nil
}

// Leg is one contract of a session as seen by the orchestrator. It may
// be a compiled UTXO descriptor or an EVM contract.
type Leg struct {
	Ledger   string
	Hashlock hashlock.Hashlock
	Timelock contract.Timelock
	// BlockInterval turns a height timelock into a duration. Unused for
	// time locks.
	BlockInterval time.Duration
}

// LegOf describes a compiled descriptor.
func LegOf(ledger string, d *contract.Descriptor, blockInterval time.Duration) Leg {
	return Leg{
		Ledger:        ledger,
		Hashlock:      d.Hashlock(),
		Timelock:      d.Timelock(),
		BlockInterval: blockInterval,
	}
}

// ExpiresAt estimates the wall clock time at which the leg's timelock is
// reached, given the ledger reading now taken at wall clock time at.
func (l Leg) ExpiresAt(now contract.Timelock, at time.Time) (time.Time, error) {
	if now.Unit != l.Timelock.Unit {
		return time.Time{}, fmt.Errorf("%s: lock is a %s, reading is a %s", l.Ledger, l.Timelock.Unit, now.Unit)
	}
	if l.Timelock.Unit == contract.UnitTime {
		return time.Unix(l.Timelock.Value, 0), nil
	}
	if l.BlockInterval <= 0 {
		return time.Time{}, fmt.Errorf("%w: ledger %s", ErrNoBlockInterval, l.Ledger)
	}
	blocks := l.Timelock.Value - now.Value
	return at.Add(time.Duration(blocks) * l.BlockInterval), nil
}

// Expired reports whether the refund path of the leg is open at now.
func (l Leg) Expired(now contract.Timelock) (bool, error) {
	return l.Timelock.ReachedBy(now)
}

type Session struct {
	// Initiator is funded first by the secret holder and refunded last.
	Initiator Leg
	// Participant is funded second and claimed first, which discloses
	// the secret.
	Participant Leg
}

// NewSession pairs two legs that commit to the same secret.
func NewSession(initiator, participant Leg) (*Session, error) {
	s := &Session{Initiator: initiator, Participant: participant}
	if err := s.CheckHashlocks(); err != nil {
		return nil, err
	}
	return s, nil
}

// CheckHashlocks requires both legs to lock the same digest. A SHA-256
// lock on one ledger and a HASH160 lock on the other match when the
// latter is RIPEMD-160 of the former.
func (s *Session) CheckHashlocks() error {
	a, b := s.Initiator.Hashlock, s.Participant.Hashlock
	if a.IsZero() || b.IsZero() {
		return fmt.Errorf("%w: missing hashlock", ErrHashlockMismatch)
	}
	if !a.SameCommitment(b) {
		return fmt.Errorf("%w: %s=%s, %s=%s", ErrHashlockMismatch,
			s.Initiator.Ledger, a, s.Participant.Ledger, b)
	}
	return nil
}

// CheckTimelocks reads both ledgers and requires the participant leg to
// expire at least margin before the initiator leg, and neither to have
// expired yet. at is the wall clock time of the readings.
func (s *Session) CheckTimelocks(ctx context.Context, initiator, participant Oracle, margin time.Duration, at time.Time) error {
	initExpiry, err := expiry(ctx, s.Initiator, initiator, at)
	if err != nil {
		return err
	}
	partExpiry, err := expiry(ctx, s.Participant, participant, at)
	if err != nil {
		return err
	}
	// strictly earlier even with a zero margin
	if partExpiry.Add(margin).After(initExpiry) || !partExpiry.Before(initExpiry) {
		return fmt.Errorf("%w: %s expires %s, %s expires %s, margin %s", ErrTimelockOrder,
			s.Participant.Ledger, partExpiry.UTC().Format(time.RFC3339),
			s.Initiator.Ledger, initExpiry.UTC().Format(time.RFC3339), margin)
	}
	return nil
}

func expiry(ctx context.Context, l Leg, o Oracle, at time.Time) (time.Time, error) {
	now, err := o.Now(ctx, l.Timelock.Unit)
	if err != nil {
		return time.Time{}, err
	}
	expired, err := l.Expired(now)
	if err != nil {
		return time.Time{}, err
	}
	if expired {
		return time.Time{}, fmt.Errorf("%w: %s at %s", ErrLegExpired, l.Ledger, l.Timelock)
	}
	return l.ExpiresAt(now, at)
}
