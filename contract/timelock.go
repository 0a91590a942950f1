package contract

import (
	"fmt"
	"math"
	"time"

	"github.com/btcsuite/btcd/txscript"

	"github.com/TEENet-io/htcl-go/common"
)

// Unit is the clock a timelock is measured against.
type Unit int

const (
	UnitHeight Unit = iota
	UnitTime
)

func (u Unit) String() string {
	switch u {
	case UnitHeight:
		return "height"
	case UnitTime:
		return "time"
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

func ParseUnit(s string) (Unit, error) {
	switch s {
	case "height", "block", "blocks":
		return UnitHeight, nil
	case "time", "timestamp", "unix":
		return UnitTime, nil
	}
	return 0, fmt.Errorf("unknown timelock unit: %q", s)
}

// UnitOf classifies a raw lock value the way CHECKLOCKTIMEVERIFY does.
func UnitOf(v int64) Unit {
	if v < txscript.LockTimeThreshold {
		return UnitHeight
	}
	return UnitTime
}

// Timelock is a block height or a unix time. The unit is fixed when the
// lock is created and a reading in the other unit is never compared
// against it.
type Timelock struct {
	Value int64
	Unit  Unit
}

func NewTimelock(v int64, unit Unit) (Timelock, error) {
	if v <= 0 {
		return Timelock{}, common.ErrInvalidParameter("timelock", "must be positive, got %d", v)
	}
	if v > math.MaxUint32 {
		return Timelock{}, common.ErrInvalidParameter("timelock", "exceeds lock time range, got %d", v)
	}
	switch unit {
	case UnitHeight:
		if v >= txscript.LockTimeThreshold {
			return Timelock{}, common.ErrInvalidParameter("timelock",
				"height %d is not below %d", v, int64(txscript.LockTimeThreshold))
		}
	case UnitTime:
		if v < txscript.LockTimeThreshold {
			return Timelock{}, common.ErrInvalidParameter("timelock",
				"unix time %d is below %d", v, int64(txscript.LockTimeThreshold))
		}
	default:
		return Timelock{}, common.ErrInvalidParameter("timelock", "unknown unit %s", unit)
	}
	return Timelock{Value: v, Unit: unit}, nil
}

// AtHeight is a height reading, typically the current chain tip.
func AtHeight(h int64) Timelock {
	return Timelock{Value: h, Unit: UnitHeight}
}

// AtTime is a time reading truncated to seconds.
func AtTime(t time.Time) Timelock {
	return Timelock{Value: t.Unix(), Unit: UnitTime}
}

// ReachedBy reports whether the lock has expired at reading now. The
// boundary is inclusive: now == lock is expired.
func (t Timelock) ReachedBy(now Timelock) (bool, error) {
	if now.Unit != t.Unit {
		return false, fmt.Errorf("%w: lock is a %s, reading is a %s", common.ErrTimelockUnit, t.Unit, now.Unit)
	}
	return now.Value >= t.Value, nil
}

func (t Timelock) String() string {
	if t.Unit == UnitTime {
		return fmt.Sprintf("time %s", time.Unix(t.Value, 0).UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("height %d", t.Value)
}
