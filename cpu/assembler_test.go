package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parse(lines ...string) (prog *Program, err error) {
	asm := &Assembler{}
	prog, err = asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Equal(0, len(prog.Binary()))

	assert.Equal("0", asm.Equate["LINENO"])
}

func TestAssemblerLoop(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("top:\n acc 0\n beqz top"))
	if !assert.NoError(err) {
		return
	}

	assert.Equal(map[string]int{"top": 0}, asm.Label)
	assert.Equal([]byte{0x70, 0xb0, 0x00}, prog.Binary())

	expected := []Opcode{
		{2, 0, []string{"acc", "0"}, []Code{{Addr: 0, Op: OP_ACC, Word: 0x70}}},
		{3, 1, []string{"beqz", "0"}, []Code{{Addr: 1, Op: OP_BEQZ, Word: 0xb0}}},
	}
	assert.Equal(expected, prog.Opcodes)
}

func TestAssemblerForwardLabel(t *testing.T) {
	assert := assert.New(t)

	source := []string{
		"; forward references",
		"start:",
		"    b done        ; skip",
		"    add rb",
		"    call sub",
		"    b-bit 3 start",
		"sub:",
		"    ret",
		"done:",
		"    shutdown",
	}

	prog1, err := parse(source...)
	if !assert.NoError(err) {
		return
	}
	prog2, err := parse(source...)
	if !assert.NoError(err) {
		return
	}

	expected := []byte{
		0xe0, 0x0a, // b done
		0x23, 0x40, 0x00, // add rb
		0xf0, 0x09, // call sub
		0x98, 0x00, // b-bit 3 start
		0x2e,       // sub: ret
		0x37, 0x3e, // done: shutdown
	}
	assert.Equal(expected, prog1.Binary())
	assert.Equal(prog1.Binary(), prog2.Binary())
}

func TestAssemblerLabelSameLine(t *testing.T) {
	assert := assert.New(t)

	prog, err := parse(
		"loop: dec",
		"  bnez loop",
	)
	if !assert.NoError(err) {
		return
	}
	assert.Equal([]byte{0x3f, 0xb8, 0x00}, prog.Binary())
}

func TestAssemblerNumbers(t *testing.T) {
	assert := assert.New(t)

	prog, err := parse(
		"ACC 0b1010",
		"add 010",
		"Sub -1",
		"rarb 0XC3",
		"b 255",
	)
	if !assert.NoError(err) {
		return
	}
	assert.Equal([]byte{0x7a, 0x40, 0x0a, 0x41, 0x0f, 0x5c, 0x03, 0xe0, 0xff}, prog.Binary())
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source []string
		lineno int
		err    error
	}){
		{[]string{"nop", "halt"}, 2, ErrInstructionInvalid},
		{[]string{"add"}, 1, ErrOpcodeValueMissing},
		{[]string{"nop 1"}, 1, ErrOpcodeExtraArgs},
		{[]string{"acc 1 2"}, 1, ErrOpcodeExtraArgs},
		{[]string{"to-reg r5"}, 1, ErrRegisterInvalid},
		{[]string{"inc*-reg 3"}, 1, ErrRegisterInvalid},
		{[]string{"add 0xzz"}, 1, ErrParseNumber("0xzz")},
		{[]string{"add foo"}, 1, ErrParseValue("foo")},
		{[]string{"", "beqz nowhere"}, 2, ErrLabelMissing("nowhere")},
		{[]string{"b 12x"}, 1, ErrParseNumber("12x")},
		{[]string{"a:", "a:"}, 2, ErrLabelDuplicate},
		{[]string{"9lives:"}, 1, ErrLabelInvalid},
		{[]string{"add R", "loop:", "b loop", ".equ R rb"}, 2, ErrLabelMoved("loop")},
		{[]string{"add R", "loop: b loop", ".equ R rb"}, 2, ErrLabelMoved("loop")},
		{[]string{".equ X"}, 1, ErrEquateSyntax},
		{[]string{".equ X 1", ".equ X 2"}, 2, ErrEquateDuplicate},
	}

	for _, entry := range table {
		prog, err := parse(entry.source...)
		assert.Nil(prog, entry.source)

		var syn *ErrSyntax
		if assert.True(errors.As(err, &syn), entry.source) {
			assert.Equal(entry.lineno, syn.LineNo, entry.source)
			assert.Equal(entry.source[entry.lineno-1], syn.Line, entry.source)
		}
		assert.True(errors.Is(err, entry.err), "%v: %v", entry.source, err)
	}
}

func TestAssemblerLateEquate(t *testing.T) {
	assert := assert.New(t)

	// The equate is defined after use, but does not change the size.
	prog, err := parse(
		"  add N",
		"loop:",
		"  b loop",
		".equ N 3",
	)
	if !assert.NoError(err) {
		return
	}
	assert.Equal([]byte{0x40, 0x03, 0xe0, 0x02}, prog.Binary())
}

func TestAssemblerEquate(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("GRID", "0xc0")

	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		".equ PTR rc",
		".equ STEP 3",
		"rcrd GRID",
		"acc STEP",
		"to-reg PTR",
		"acc $(STEP * 4 + 1)",
		"b $(end - 1)",
		"end:",
		"acc $(LINENO)",
	}, "\n")))
	if !assert.NoError(err) {
		return
	}

	assert.Equal([]byte{
		0x6c, 0x00,
		0x73,
		0x24,
		0x7d,
		0xe0, 0x06,
		0x79,
	}, prog.Binary())
	assert.Equal("0xc0", asm.Equate["GRID"])
}

func TestAssemblerExpressionError(t *testing.T) {
	assert := assert.New(t)

	_, err := parse("acc $(1 +)")
	assert.Error(err)

	_, err = parse(`acc $("text")`)
	assert.True(errors.Is(err, ErrParseExpression(`"text"`)))
}
