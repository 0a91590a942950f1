package script

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/hashlock"
)

var ErrNotHTCLProgram = errors.New("program does not follow the HTCL template")

// pushSlots are the template positions that hold data. A push is a bare
// length byte, which for operands over 75 bytes shares its value with an
// opcode, so Decode reads the program against the template layout rather
// than byte by byte.
var pushSlots = map[int]bool{2: true, 5: true, 9: true, 12: true}

const templateLen = 15

// Decode splits a program into instructions along the HTCL template. A
// program shorter than the template yields the instructions it holds.
func Decode(prog []byte) ([]Instruction, error) {
	var out []Instruction
	i := 0
	for slot := 0; i < len(prog); slot++ {
		if slot == templateLen {
			return nil, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrNotHTCLProgram, len(prog)-i, i)
		}
		if pushSlots[slot] {
			n := int(prog[i])
			if i+1+n > len(prog) {
				return nil, fmt.Errorf("%w: push of %d bytes at offset %d overruns program", ErrNotHTCLProgram, n, i)
			}
			out = append(out, Push(prog[i+1:i+1+n]))
			i += 1 + n
			continue
		}
		op := Opcode(prog[i])
		if !knownOpcode(op) {
			return nil, fmt.Errorf("%w: unexpected opcode %s at offset %d", ErrNotHTCLProgram, op, i)
		}
		out = append(out, Op(op))
		i++
	}
	return out, nil
}

func knownOpcode(op Opcode) bool {
	switch op {
	case OpDup, OpHash160, OpSHA256, OpEqualVerify, OpDrop, OpCheckSig,
		OpIf, OpElse, OpEndIf, OpCheckLockTimeVerify:
		return true
	}
	return false
}

// ParseProgram recovers the compilation parameters of an HTCL program.
// Compile(ParseProgram(p)) == p for every program Compile produced.
func ParseProgram(prog []byte) (*Params, error) {
	ins, err := Decode(prog)
	if err != nil {
		return nil, err
	}
	if len(ins) != templateLen {
		return nil, fmt.Errorf("%w: want %d instructions, got %d", ErrNotHTCLProgram, templateLen, len(ins))
	}

	var family hashlock.Family
	switch {
	case !ins[1].Push && ins[1].Op == OpHash160:
		family = hashlock.FamilyUTXO
	case !ins[1].Push && ins[1].Op == OpSHA256:
		family = hashlock.FamilyEVM
	default:
		return nil, fmt.Errorf("%w: instruction 1 is %s, want a digest opcode", ErrNotHTCLProgram, ins[1])
	}

	p := &Params{
		Hashlock:    bytes.Clone(ins[2].Data),
		ClaimantKey: bytes.Clone(ins[5].Data),
		RefundeeKey: bytes.Clone(ins[12].Data),
		Family:      family,
	}
	lock, ok := DecodeScriptNum(ins[9].Data)
	if !ok || !bytes.Equal(EncodeScriptNum(lock), ins[9].Data) {
		return nil, fmt.Errorf("%w: timelock operand of %d bytes", ErrNotHTCLProgram, len(ins[9].Data))
	}
	p.Timelock = lock

	want := Instructions(*p)
	for i := range want {
		if want[i].Push != ins[i].Push || (!want[i].Push && want[i].Op != ins[i].Op) {
			return nil, fmt.Errorf("%w: instruction %d is %s, want %s", ErrNotHTCLProgram, i, ins[i], want[i])
		}
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotHTCLProgram, err)
	}
	return p, nil
}

// ValidateProgram is a sanity gate, not an interpreter: the size must lie
// within [MinProgramSize, MaxProgramSize] and every embedded field must
// decode as the template expects.
func ValidateProgram(prog []byte) bool {
	if len(prog) < MinProgramSize || len(prog) > MaxProgramSize {
		return false
	}
	_, err := ParseProgram(prog)
	return err == nil
}

// ValidateProgramHex is ValidateProgram over the hex text of a program.
func ValidateProgramHex(text string) bool {
	prog, err := common.DecodeHex(text)
	if err != nil {
		return false
	}
	return ValidateProgram(prog)
}
