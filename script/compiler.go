/*
Package script compiles the fixed two-path HTCL program:

	OP_DUP <digest-op> <hashlock> OP_EQUALVERIFY OP_DROP
	<claimant_key> OP_CHECKSIG
	OP_IF
	OP_ELSE
	    <timelock> OP_CHECKLOCKTIMEVERIFY OP_DROP
	    <refundee_key> OP_CHECKSIG
	OP_ENDIF

The digest opcode is OP_HASH160 for a UTXO-family hashlock and OP_SHA256
for an EVM-family one. Every push is a single length byte followed by the
raw bytes, so an operand is at most 255 bytes. Operands over 75 bytes make
a program that bitcoin nodes read differently; 33 and 65 byte keys never
reach that range.
*/
package script

import (
	"bytes"
	"encoding/hex"
	"math"
	"strings"

	"github.com/btcsuite/btcd/txscript"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/hashlock"
)

const (
	// MinProgramSize and MaxProgramSize bound a sane program. The upper
	// bound is the largest redeem script a P2SH spend can push.
	MinProgramSize = 50
	MaxProgramSize = txscript.MaxScriptElementSize
)

// Params are the inputs of a compilation.
type Params struct {
	ClaimantKey []byte // Bob, spends with the secret
	RefundeeKey []byte // Alice, spends after the timelock
	Timelock    int64  // block height or unix time, as used by CHECKLOCKTIMEVERIFY
	Hashlock    []byte
	Family      hashlock.Family
}

// Program is a compiled HTCL program.
type Program []byte

func (p Program) Hex() string {
	return hex.EncodeToString(p)
}

func (p Program) Equal(o Program) bool {
	return bytes.Equal(p, o)
}

// Disassemble renders the program in the usual one-line bitcoin script form.
// Template programs are rendered slot by slot so long operands print as
// data; anything else goes through the bitcoin disassembler.
func (p Program) Disassemble() (string, error) {
	ins, err := Decode(p)
	if err != nil || len(ins) != templateLen {
		return txscript.DisasmString(p)
	}
	parts := make([]string, len(ins))
	for i, in := range ins {
		if in.Push {
			parts[i] = hex.EncodeToString(in.Data)
		} else {
			parts[i] = in.Op.String()
		}
	}
	return strings.Join(parts, " "), nil
}

func (p Params) validate() error {
	if len(p.ClaimantKey) == 0 {
		return common.ErrInvalidParameter("claimant_key", "empty key")
	}
	if len(p.RefundeeKey) == 0 {
		return common.ErrInvalidParameter("refundee_key", "empty key")
	}
	if p.Timelock <= 0 {
		return common.ErrInvalidParameter("timelock", "must be positive, got %d", p.Timelock)
	}
	if p.Timelock > math.MaxUint32 {
		return common.ErrInvalidParameter("timelock", "exceeds lock time range, got %d", p.Timelock)
	}
	if !p.Family.Valid() {
		return common.ErrInvalidParameter("family", "unknown hashlock family %q", p.Family)
	}
	if len(p.Hashlock) != p.Family.DigestSize() {
		return common.ErrInvalidParameter("hashlock", "family %s needs %d bytes, got %d",
			p.Family, p.Family.DigestSize(), len(p.Hashlock))
	}
	return nil
}

// digestOp is the opcode matching the hashlock pipeline of family.
func digestOp(family hashlock.Family) Opcode {
	if family == hashlock.FamilyEVM {
		return OpSHA256
	}
	return OpHash160
}

// Instructions lays out the program of p without encoding it.
func Instructions(p Params) []Instruction {
	return []Instruction{
		// claim path
		Op(OpDup),
		Op(digestOp(p.Family)),
		Push(p.Hashlock),
		Op(OpEqualVerify),
		Op(OpDrop),
		Push(p.ClaimantKey),
		Op(OpCheckSig),
		Op(OpIf),
		// refund path
		Op(OpElse),
		Push(EncodeScriptNum(p.Timelock)),
		Op(OpCheckLockTimeVerify),
		Op(OpDrop),
		Push(p.RefundeeKey),
		Op(OpCheckSig),
		Op(OpEndIf),
	}
}

var pushFields = []string{"hashlock", "claimant_key", "timelock", "refundee_key"}

// Compile encodes p. Equal parameters always give byte-identical programs.
func Compile(p Params) (Program, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var (
		prog  []byte
		field int
		err   error
	)
	for _, in := range Instructions(p) {
		if !in.Push {
			prog = append(prog, byte(in.Op))
			continue
		}
		if prog, err = appendPush(prog, pushFields[field], in.Data); err != nil {
			return nil, err
		}
		field++
	}

	if len(prog) > MaxProgramSize {
		return nil, &common.ProgramTooLargeError{Field: "program", Size: len(prog), Limit: MaxProgramSize}
	}
	return prog, nil
}

func appendPush(prog []byte, field string, data []byte) ([]byte, error) {
	n := len(data)
	if n > MaxPushSize {
		return nil, &common.ProgramTooLargeError{Field: field, Size: n, Limit: MaxPushSize}
	}
	prog = append(prog, byte(n))
	return append(prog, data...), nil
}

// EncodeScriptNum is the minimal little-endian sign-magnitude encoding
// CHECKLOCKTIMEVERIFY reads its operand in.
func EncodeScriptNum(n int64) []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	abs := uint64(n)
	if neg {
		abs = uint64(-n)
	}

	var out []byte
	for abs > 0 {
		out = append(out, byte(abs&0xff))
		abs >>= 8
	}
	if out[len(out)-1]&0x80 != 0 {
		if neg {
			out = append(out, 0x80)
		} else {
			out = append(out, 0x00)
		}
	} else if neg {
		out[len(out)-1] |= 0x80
	}
	return out
}

// DecodeScriptNum is the inverse of EncodeScriptNum. Lock times fit in
// five bytes, longer operands are rejected.
func DecodeScriptNum(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, true
	}
	if len(b) > 5 {
		return 0, false
	}
	var n int64
	for i, c := range b {
		n |= int64(c) << (8 * i)
	}
	if b[len(b)-1]&0x80 != 0 {
		n &= ^(int64(0x80) << (8 * (len(b) - 1)))
		n = -n
	}
	return n, true
}
