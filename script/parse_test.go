package script

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/htcl-go/hashlock"
)

func TestParseProgramGolden(t *testing.T) {
	prog, err := hex.DecodeString(goldenUTXOProgram)
	require.NoError(t, err)

	p, err := ParseProgram(prog)
	require.NoError(t, err)
	assert.Equal(t, hashlock.FamilyUTXO, p.Family)
	assert.Equal(t, int64(1_000_000), p.Timelock)
	assert.Equal(t, key(0xbb), p.ClaimantKey)
	assert.Equal(t, key(0xaa), p.RefundeeKey)
	assert.Equal(t, hashlock.Digest([]byte("s"), hashlock.FamilyUTXO), p.Hashlock)

	prog, err = hex.DecodeString(goldenEVMProgram)
	require.NoError(t, err)
	p, err = ParseProgram(prog)
	require.NoError(t, err)
	assert.Equal(t, hashlock.FamilyEVM, p.Family)
}

func TestParseProgramRejects(t *testing.T) {
	good, err := hex.DecodeString(goldenUTXOProgram)
	require.NoError(t, err)

	tests := map[string][]byte{
		"empty":      {},
		"truncated":  good[:len(good)-10],
		"extra op":   append(append([]byte{}, good...), byte(OpDrop)),
		"foreign op": append([]byte{0x51}, good[1:]...),
		"swap ops":   append([]byte{byte(OpHash160), byte(OpDup)}, good[2:]...),
	}
	// non-minimal timelock push: 04 40420f00 instead of 03 40420f
	nonMinimal := append([]byte{}, good[:62]...)
	nonMinimal = append(nonMinimal, 0x04, 0x40, 0x42, 0x0f, 0x00)
	nonMinimal = append(nonMinimal, good[66:]...)
	tests["non-minimal timelock"] = nonMinimal

	for name, prog := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProgram(prog)
			assert.True(t, errors.Is(err, ErrNotHTCLProgram), "got %v", err)
			assert.False(t, ValidateProgram(prog))
		})
	}
}

func TestValidateProgram(t *testing.T) {
	assert.True(t, ValidateProgramHex(goldenUTXOProgram))
	assert.True(t, ValidateProgramHex("0x"+goldenEVMProgram))
	assert.False(t, ValidateProgramHex("zz"))
	assert.False(t, ValidateProgramHex(goldenUTXOProgram[:len(goldenUTXOProgram)-1]))

	// a compilable program below the sane size bound
	p := testParams(hashlock.FamilyUTXO)
	p.ClaimantKey = []byte{0x01}
	p.RefundeeKey = []byte{0x02}
	prog, err := Compile(p)
	require.NoError(t, err)
	assert.Less(t, len(prog), MinProgramSize)
	assert.False(t, ValidateProgram(prog))
}

func TestDecode(t *testing.T) {
	prog, err := hex.DecodeString(goldenUTXOProgram)
	require.NoError(t, err)
	ins, err := Decode(prog)
	require.NoError(t, err)
	require.Len(t, ins, 15)
	assert.Equal(t, "OP_DUP", ins[0].String())
	assert.True(t, ins[2].Push)
	assert.Equal(t, OpCheckLockTimeVerify, ins[10].Op)
	assert.Equal(t, "OP_CHECKLOCKTIMEVERIFY", ins[10].Op.String())
}
