package script

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// Opcode is the closed set of instructions an HTCL program is made of.
type Opcode byte

const (
	OpDup                 Opcode = txscript.OP_DUP
	OpHash160             Opcode = txscript.OP_HASH160
	OpSHA256              Opcode = txscript.OP_SHA256
	OpEqualVerify         Opcode = txscript.OP_EQUALVERIFY
	OpDrop                Opcode = txscript.OP_DROP
	OpCheckSig            Opcode = txscript.OP_CHECKSIG
	OpIf                  Opcode = txscript.OP_IF
	OpElse                Opcode = txscript.OP_ELSE
	OpEndIf               Opcode = txscript.OP_ENDIF
	OpCheckLockTimeVerify Opcode = txscript.OP_CHECKLOCKTIMEVERIFY
)

const (
	// MaxDirectPush is the largest push whose length byte is also its opcode.
	MaxDirectPush = txscript.OP_DATA_75
	// MaxPushSize is the largest operand a single length byte can describe.
	MaxPushSize = 255
)

func (op Opcode) String() string {
	switch op {
	case OpDup:
		return "OP_DUP"
	case OpHash160:
		return "OP_HASH160"
	case OpSHA256:
		return "OP_SHA256"
	case OpEqualVerify:
		return "OP_EQUALVERIFY"
	case OpDrop:
		return "OP_DROP"
	case OpCheckSig:
		return "OP_CHECKSIG"
	case OpIf:
		return "OP_IF"
	case OpElse:
		return "OP_ELSE"
	case OpEndIf:
		return "OP_ENDIF"
	case OpCheckLockTimeVerify:
		return "OP_CHECKLOCKTIMEVERIFY"
	}
	if op >= 1 && op <= MaxDirectPush {
		return fmt.Sprintf("OP_DATA_%d", op)
	}
	return fmt.Sprintf("OP_UNKNOWN_%#02x", byte(op))
}

// Instruction is either a plain opcode or a data push (Push == true).
type Instruction struct {
	Op   Opcode
	Push bool
	Data []byte
}

func Op(op Opcode) Instruction {
	return Instruction{Op: op}
}

func Push(data []byte) Instruction {
	return Instruction{Push: true, Data: data}
}

func (in Instruction) String() string {
	if in.Push {
		return fmt.Sprintf("PUSH(%x)", in.Data)
	}
	return in.Op.String()
}
