package cpu

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeUnassigned(t *testing.T) {
	assert := assert.New(t)

	unassigned := []uint8{0x35, 0x45, 0x46}
	for word := uint8(0x48); word <= 0x4f; word++ {
		unassigned = append(unassigned, word)
	}
	for word := uint8(0xf8); word != 0; word++ {
		unassigned = append(unassigned, word)
	}

	for n := range 256 {
		word := uint8(n)
		op, ok := Decode(word)
		if slices.Contains(unassigned, word) {
			assert.False(ok, "0x%02x", word)
			assert.Equal(OP_INVALID, op, "0x%02x", word)
		} else {
			assert.True(ok, "0x%02x", word)
		}
	}
}

func TestDecodeFamilies(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word   uint8
		op     CodeOp
		family CodeFamily
	}){
		{0x00, OP_ROT_R, FAMILY_FIXED},
		{0x18, OP_INC_REG, FAMILY_REGISTER},
		{0x19, OP_DEC_REG, FAMILY_REGISTER},
		{0x1a, OP_AND_BA, FAMILY_FIXED},
		{0x28, OP_TO_REG, FAMILY_REGISTER},
		{0x29, OP_FROM_REG, FAMILY_REGISTER},
		{0x2a, OP_CLR_CF, FAMILY_FIXED},
		{0x37, OP_SHUTDOWN, FAMILY_FIXED},
		{0x47, OP_TIMER, FAMILY_IMMEDIATE},
		{0x5f, OP_RARB, FAMILY_NIBBLE},
		{0x60, OP_RCRD, FAMILY_NIBBLE},
		{0x7a, OP_ACC, FAMILY_INLINE},
		{0x9f, OP_B_BIT, FAMILY_BRANCH},
		{0xa7, OP_BNZ_A, FAMILY_BRANCH},
		{0xd8, OP_BNZ_D, FAMILY_BRANCH},
		{0xe0, OP_B, FAMILY_BRANCH},
		{0xef, OP_B, FAMILY_BRANCH},
		{0xf7, OP_CALL, FAMILY_BRANCH},
	}

	for _, entry := range table {
		op, ok := Decode(entry.word)
		assert.True(ok)
		assert.Equal(entry.op, op, "0x%02x", entry.word)
		assert.Equal(entry.family, op.Info().Family, "0x%02x", entry.word)
	}
}

func TestFixedRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for n := range opTable {
		op := CodeOp(n)
		info := op.Info()
		if op == OP_INVALID || info.Family != FAMILY_FIXED {
			continue
		}

		code := MakeCode(op)
		bytes := code.Bytes()
		assert.Equal(info.Length(), len(bytes), op.String())

		decoded, ok := Decode(bytes[0])
		assert.True(ok, op.String())
		assert.Equal(op.String(), decoded.String())
	}

	assert.Equal([]byte{0x37, 0x3e}, MakeCode(OP_SHUTDOWN).Bytes())
}

func TestMakeCode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code  Code
		bytes []byte
		text  string
	}){
		{MakeCode(OP_ACC, 5), []byte{0x75}, "acc 0x5"},
		{MakeCode(OP_ADD, 3), []byte{0x40, 0x03}, "add 0x3"},
		{MakeCode(OP_TIMER, 0x1f), []byte{0x47, 0x0f}, "timer 0xf"},
		{MakeCode(OP_TO_REG, 4), []byte{0x28}, "to-reg r4"},
		{MakeCode(OP_DEC_REG, 2), []byte{0x15}, "dec*-reg r2"},
		{MakeCode(OP_RARB, 0x12), []byte{0x51, 0x02}, "rarb 0x12"},
		{MakeCode(OP_RCRD, 0xc0), []byte{0x6c, 0x00}, "rcrd 0xc0"},
		{MakeCode(OP_B_BIT, 2, 0x345), []byte{0x93, 0x45}, "b-bit 2 0x345"},
		{MakeCode(OP_BEQZ, 0x10), []byte{0xb0, 0x10}, "beqz 0x10"},
		{MakeCode(OP_CALL, 0x7ff), []byte{0xf7, 0xff}, "call 0x7ff"},
		{MakeCode(OP_B, 0x1ab), []byte{0xe0, 0xab}, "b 0xab"},
		{MakeCode(OP_SHUTDOWN), []byte{0x37, 0x3e}, "shutdown"},
	}

	for _, entry := range table {
		assert.Equal(entry.bytes, entry.code.Bytes(), entry.text)
		assert.Equal(len(entry.bytes), entry.code.Len(), entry.text)
		assert.Equal(entry.text, entry.code.String())
	}
}

func TestCodeFields(t *testing.T) {
	assert := assert.New(t)

	code := MakeCode(OP_B_BIT, 3, 0x2cd)
	assert.Equal(3, code.Bit())
	assert.Equal(uint16(0x2cd), code.Target())

	code = MakeCode(OP_RCRD, 0xa5)
	x, y := code.Nibbles()
	assert.Equal(uint8(0xa), x)
	assert.Equal(uint8(0x5), y)

	code = MakeCode(OP_FROM_REG, 3)
	assert.Equal(3, code.Register())

	code = Code{Op: OP_B, Word: 0xe7, Operand: 0x42}
	assert.Equal(uint16(0x42), code.Target())
}

func TestCodeStringAssembles(t *testing.T) {
	assert := assert.New(t)

	for n := range 256 {
		word := uint8(n)
		op, ok := Decode(word)
		if !ok {
			continue
		}
		info := op.Info()
		if info.Short && word != info.Base {
			// Only the canonical prefix is emitted by the assembler.
			continue
		}

		code := Code{Op: op, Word: word}
		switch {
		case op == OP_SHUTDOWN:
			code.Operand = 0x3e
		case info.Family == FAMILY_BRANCH:
			code.Operand = 0x35
		case info.Length() > 1:
			code.Operand = 0x0a
		}

		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(code.String()))
		if !assert.NoError(err, code.String()) {
			continue
		}
		assert.Equal(code.Bytes(), prog.Binary(), code.String())
	}
}

func TestLookup(t *testing.T) {
	assert := assert.New(t)

	op, ok := Lookup("BEQZ-CF")
	assert.True(ok)
	assert.Equal(OP_BEQZ_CF, op)

	op, ok = Lookup("inc*-reg")
	assert.True(ok)
	assert.Equal(OP_INC_REG, op)

	_, ok = Lookup("halt")
	assert.False(ok)

	assert.Equal("register", FAMILY_REGISTER.String())
	assert.Equal("CodeOp(1000)", CodeOp(1000).String())
}
