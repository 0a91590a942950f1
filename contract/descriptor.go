/*
Package contract holds the descriptor of one compiled HTCL and its
persisted record form.

A Descriptor is created once by New (or recovered from a program by
FromProgram) and never changes afterwards. Every accessor returns a copy.
*/
package contract

import (
	"bytes"
	"fmt"

	"github.com/TEENet-io/htcl-go/address"
	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/script"
)

type Params struct {
	ClaimantKey []byte
	RefundeeKey []byte
	Timelock    Timelock
	Hashlock    hashlock.Hashlock
	Network     *network.Params
}

type Descriptor struct {
	claimantKey []byte
	refundeeKey []byte
	timelock    Timelock
	hashlock    hashlock.Hashlock
	program     script.Program
	address     string
	network     *network.Params
}

// New compiles the program of p and derives its committed address.
func New(p Params) (*Descriptor, error) {
	if p.Hashlock.IsZero() {
		return nil, common.ErrInvalidParameter("hashlock", "missing hashlock")
	}
	if p.Network == nil {
		return nil, common.ErrInvalidParameter("network", "missing network parameters")
	}
	if _, err := NewTimelock(p.Timelock.Value, p.Timelock.Unit); err != nil {
		return nil, err
	}

	prog, err := script.Compile(script.Params{
		ClaimantKey: p.ClaimantKey,
		RefundeeKey: p.RefundeeKey,
		Timelock:    p.Timelock.Value,
		Hashlock:    p.Hashlock.Bytes(),
		Family:      p.Hashlock.Family(),
	})
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		claimantKey: bytes.Clone(p.ClaimantKey),
		refundeeKey: bytes.Clone(p.RefundeeKey),
		timelock:    p.Timelock,
		hashlock:    p.Hashlock,
		program:     prog,
		address:     address.DeriveForNetwork(prog, p.Network),
		network:     p.Network,
	}, nil
}

// FromProgram recovers the descriptor a program was compiled from. The
// timelock unit follows from the lock value.
func FromProgram(prog []byte, params *network.Params) (*Descriptor, error) {
	parsed, err := script.ParseProgram(prog)
	if err != nil {
		return nil, err
	}
	hl, err := hashlock.New(parsed.Hashlock, parsed.Family)
	if err != nil {
		return nil, err
	}
	d, err := New(Params{
		ClaimantKey: parsed.ClaimantKey,
		RefundeeKey: parsed.RefundeeKey,
		Timelock:    Timelock{Value: parsed.Timelock, Unit: UnitOf(parsed.Timelock)},
		Hashlock:    hl,
		Network:     params,
	})
	if err != nil {
		return nil, err
	}
	if !d.program.Equal(prog) {
		return nil, fmt.Errorf("%w: program does not recompile byte for byte", script.ErrNotHTCLProgram)
	}
	return d, nil
}

func (d *Descriptor) ClaimantKey() []byte         { return bytes.Clone(d.claimantKey) }
func (d *Descriptor) RefundeeKey() []byte         { return bytes.Clone(d.refundeeKey) }
func (d *Descriptor) Timelock() Timelock          { return d.timelock }
func (d *Descriptor) Hashlock() hashlock.Hashlock { return d.hashlock }
func (d *Descriptor) Family() hashlock.Family     { return d.hashlock.Family() }
func (d *Descriptor) Program() script.Program     { return bytes.Clone(d.program) }
func (d *Descriptor) Address() string             { return d.address }
func (d *Descriptor) Network() *network.Params    { return d.network }

// PkScript is the P2SH output script a funding transaction pays.
func (d *Descriptor) PkScript() ([]byte, error) {
	return address.PayToScriptHash(d.address, d.network)
}

// Equal compares every field, the network by name.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return bytes.Equal(d.claimantKey, o.claimantKey) &&
		bytes.Equal(d.refundeeKey, o.refundeeKey) &&
		d.timelock == o.timelock &&
		d.hashlock.Equal(o.hashlock) &&
		d.program.Equal(o.program) &&
		d.address == o.address &&
		d.network.Name == o.network.Name
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("htcl{address=%s, hashlock=%s, %s}", d.address, d.hashlock, d.timelock)
}
