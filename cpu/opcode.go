package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// CodeFamily is an operand encoding family.
type CodeFamily int

//go:generate go tool stringer -linecomment -type=CodeFamily
const (
	FAMILY_FIXED     = CodeFamily(0) // fixed
	FAMILY_REGISTER  = CodeFamily(1) // register
	FAMILY_IMMEDIATE = CodeFamily(2) // immediate
	FAMILY_INLINE    = CodeFamily(3) // inline
	FAMILY_BRANCH    = CodeFamily(4) // branch
	FAMILY_NIBBLE    = CodeFamily(5) // nibble
)

// CodeOp is a single operation of the instruction set.
type CodeOp int

const (
	OP_INVALID = CodeOp(iota)

	OP_ROT_R
	OP_ROT_L
	OP_ROT_RC
	OP_ROT_LC
	OP_FROM_MBA
	OP_TO_MBA
	OP_FROM_MDC
	OP_TO_MDC
	OP_ADDC_MBA
	OP_ADD_MBA
	OP_SUBC_MBA
	OP_SUB_MBA
	OP_INC_MBA
	OP_DEC_MBA
	OP_INC_MDC
	OP_DEC_MDC
	OP_INC_REG
	OP_DEC_REG
	OP_AND_BA
	OP_XOR_BA
	OP_OR_BA
	OP_AND_MBA
	OP_XOR_MBA
	OP_OR_MBA
	OP_TO_REG
	OP_FROM_REG
	OP_CLR_CF
	OP_SET_CF
	OP_SET_EI
	OP_CLR_EI
	OP_RET
	OP_RETC
	OP_FROM_PA
	OP_INC
	OP_TO_IOA
	OP_TO_IOB
	OP_TO_IOC
	OP_BCD
	OP_SHUTDOWN
	OP_TIMER_START
	OP_TIMER_END
	OP_FROM_TIMERL
	OP_FROM_TIMERH
	OP_TO_TIMERL
	OP_TO_TIMERH
	OP_NOP
	OP_DEC
	OP_ADD
	OP_SUB
	OP_AND
	OP_XOR
	OP_OR
	OP_TIMER
	OP_RARB
	OP_RCRD
	OP_ACC
	OP_B_BIT
	OP_BNZ_A
	OP_BNZ_B
	OP_BEQZ
	OP_BNEZ
	OP_BEQZ_CF
	OP_BNEZ_CF
	OP_B_TIMER
	OP_BNZ_D
	OP_B
	OP_CALL
)

// Op describes the encoding of a single mnemonic.
type Op struct {
	Mnemonic string     // Assembly mnemonic.
	Family   CodeFamily // Operand encoding family.
	Base     uint8      // Opcode byte with every operand bit clear.
	Span     uint8      // Opcode bits that carry an operand, or are ignored.
	Tail     []uint8    // Fixed trailing bytes.
	Args     int        // Number of assembly operands.
	Short    bool       // Branch target is carried only by the trailing byte.
}

func fixed(mnemonic string, base uint8, tail ...uint8) Op {
	return Op{Mnemonic: mnemonic, Family: FAMILY_FIXED, Base: base, Tail: tail}
}

func register(mnemonic string, base uint8) Op {
	return Op{Mnemonic: mnemonic, Family: FAMILY_REGISTER, Base: base, Span: 0x0e, Args: 1}
}

func immediate(mnemonic string, base uint8) Op {
	return Op{Mnemonic: mnemonic, Family: FAMILY_IMMEDIATE, Base: base, Args: 1}
}

func branch(mnemonic string, base uint8) Op {
	return Op{Mnemonic: mnemonic, Family: FAMILY_BRANCH, Base: base, Span: 0x07, Args: 1}
}

// opTable is the frozen instruction set, indexed by CodeOp.
var opTable = [...]Op{
	OP_INVALID: {Mnemonic: "(invalid)"},

	OP_ROT_R:    fixed("rot-r", 0x00),
	OP_ROT_L:    fixed("rot-l", 0x01),
	OP_ROT_RC:   fixed("rot-rc", 0x02),
	OP_ROT_LC:   fixed("rot-lc", 0x03),
	OP_FROM_MBA: fixed("from-mba", 0x04),
	OP_TO_MBA:   fixed("to-mba", 0x05),
	OP_FROM_MDC: fixed("from-mdc", 0x06),
	OP_TO_MDC:   fixed("to-mdc", 0x07),
	OP_ADDC_MBA: fixed("addc-mba", 0x08),
	OP_ADD_MBA:  fixed("add-mba", 0x09),
	OP_SUBC_MBA: fixed("subc-mba", 0x0a),
	OP_SUB_MBA:  fixed("sub-mba", 0x0b),
	OP_INC_MBA:  fixed("inc*-mba", 0x0c),
	OP_DEC_MBA:  fixed("dec*-mba", 0x0d),
	OP_INC_MDC:  fixed("inc*-mdc", 0x0e),
	OP_DEC_MDC:  fixed("dec*-mdc", 0x0f),

	OP_INC_REG: register("inc*-reg", 0x10),
	OP_DEC_REG: register("dec*-reg", 0x11),

	OP_AND_BA:  fixed("and-ba", 0x1a),
	OP_XOR_BA:  fixed("xor-ba", 0x1b),
	OP_OR_BA:   fixed("or-ba", 0x1c),
	OP_AND_MBA: fixed("and*-mba", 0x1d),
	OP_XOR_MBA: fixed("xor*-mba", 0x1e),
	OP_OR_MBA:  fixed("or*-mba", 0x1f),

	OP_TO_REG:   register("to-reg", 0x20),
	OP_FROM_REG: register("from-reg", 0x21),

	OP_CLR_CF: fixed("clr-cf", 0x2a),
	OP_SET_CF: fixed("set-cf", 0x2b),
	OP_SET_EI: fixed("set-ei", 0x2c),
	OP_CLR_EI: fixed("clr-ei", 0x2d),
	OP_RET:    fixed("ret", 0x2e),
	OP_RETC:   fixed("retc", 0x2f),

	OP_FROM_PA:     fixed("from-pa", 0x30),
	OP_INC:         fixed("inc", 0x31),
	OP_TO_IOA:      fixed("to-ioa", 0x32),
	OP_TO_IOB:      fixed("to-iob", 0x33),
	OP_TO_IOC:      fixed("to-ioc", 0x34),
	OP_BCD:         fixed("bcd", 0x36),
	OP_SHUTDOWN:    fixed("shutdown", 0x37, 0x3e),
	OP_TIMER_START: fixed("timer-start", 0x38),
	OP_TIMER_END:   fixed("timer-end", 0x39),
	OP_FROM_TIMERL: fixed("from-timerl", 0x3a),
	OP_FROM_TIMERH: fixed("from-timerh", 0x3b),
	OP_TO_TIMERL:   fixed("to-timerl", 0x3c),
	OP_TO_TIMERH:   fixed("to-timerh", 0x3d),
	OP_NOP:         fixed("nop", 0x3e),
	OP_DEC:         fixed("dec", 0x3f),

	OP_ADD:   immediate("add", 0x40),
	OP_SUB:   immediate("sub", 0x41),
	OP_AND:   immediate("and", 0x42),
	OP_XOR:   immediate("xor", 0x43),
	OP_OR:    immediate("or", 0x44),
	OP_TIMER: immediate("timer", 0x47),

	OP_RARB: {Mnemonic: "rarb", Family: FAMILY_NIBBLE, Base: 0x50, Span: 0x0f, Args: 1},
	OP_RCRD: {Mnemonic: "rcrd", Family: FAMILY_NIBBLE, Base: 0x60, Span: 0x0f, Args: 1},
	OP_ACC:  {Mnemonic: "acc", Family: FAMILY_INLINE, Base: 0x70, Span: 0x0f, Args: 1},

	OP_B_BIT:   {Mnemonic: "b-bit", Family: FAMILY_BRANCH, Base: 0x80, Span: 0x1f, Args: 2},
	OP_BNZ_A:   branch("bnz-a", 0xa0),
	OP_BNZ_B:   branch("bnz-b", 0xa8),
	OP_BEQZ:    branch("beqz", 0xb0),
	OP_BNEZ:    branch("bnez", 0xb8),
	OP_BEQZ_CF: branch("beqz-cf", 0xc0),
	OP_BNEZ_CF: branch("bnez-cf", 0xc8),
	OP_B_TIMER: branch("b-timer", 0xd0),
	OP_BNZ_D:   branch("bnz-d", 0xd8),
	OP_B:       {Mnemonic: "b", Family: FAMILY_BRANCH, Base: 0xe0, Span: 0x0f, Args: 1, Short: true},
	OP_CALL:    branch("call", 0xf0),
}

var (
	decodeTable [256]CodeOp       // Opcode byte to operation.
	opMnemonic  map[string]CodeOp // Mnemonic to operation.
)

func init() {
	opMnemonic = make(map[string]CodeOp, len(opTable))

	for n := range opTable {
		op := CodeOp(n)
		if op == OP_INVALID {
			continue
		}
		opMnemonic[op.Info().Mnemonic] = op
		for word := range op.Info().Words() {
			prior := decodeTable[word]
			if prior != OP_INVALID {
				panic(fmt.Sprintf("opcode 0x%02x decodes as both %v and %v", word, prior, op))
			}
			decodeTable[word] = op
		}
	}
}

// Words returns every opcode byte that decodes as this operation.
func (op *Op) Words() iter.Seq[uint8] {
	return func(yield func(word uint8) bool) {
		for n := range 256 {
			word := uint8(n)
			if word&^op.Span != op.Base {
				continue
			}
			if op.Family == FAMILY_REGISTER && int(word>>1)&0x7 >= REGISTER_COUNT {
				continue
			}
			if !yield(word) {
				return
			}
		}
	}
}

// Length returns the encoded size in bytes.
func (op *Op) Length() int {
	switch op.Family {
	case FAMILY_FIXED:
		return 1 + len(op.Tail)
	case FAMILY_IMMEDIATE, FAMILY_BRANCH, FAMILY_NIBBLE:
		return 2
	default:
		return 1
	}
}

// Info returns the encoding description of the operation.
func (op CodeOp) Info() *Op {
	if op < 0 || int(op) >= len(opTable) {
		return &opTable[OP_INVALID]
	}
	return &opTable[op]
}

// String returns the mnemonic of the operation.
func (op CodeOp) String() string {
	if op <= OP_INVALID || int(op) >= len(opTable) {
		return fmt.Sprintf("CodeOp(%d)", int(op))
	}
	return opTable[op].Mnemonic
}

// Lookup finds the operation for a mnemonic, ignoring case.
func Lookup(mnemonic string) (op CodeOp, ok bool) {
	op, ok = opMnemonic[strings.ToLower(mnemonic)]
	return
}

// Decode returns the operation an opcode byte decodes to.
func Decode(word uint8) (op CodeOp, ok bool) {
	op = decodeTable[word]
	ok = op != OP_INVALID
	return
}

// Code is a single decoded instruction.
type Code struct {
	Addr    uint8  // Address of the opcode byte.
	Op      CodeOp // Decoded operation.
	Word    uint8  // Opcode byte.
	Operand uint8  // Trailing byte, if any.
}

// MakeCode packs the numeric operands of an operation into an instruction.
// Registers are passed by index, branch targets as 11-bit addresses.
func MakeCode(op CodeOp, args ...uint16) (code Code) {
	info := op.Info()

	arg := func(n int) uint16 {
		if n < len(args) {
			return args[n]
		}
		return 0
	}

	code = Code{Op: op, Word: info.Base}

	switch info.Family {
	case FAMILY_FIXED:
		if len(info.Tail) > 0 {
			code.Operand = info.Tail[0]
		}
	case FAMILY_REGISTER:
		code.Word |= uint8(arg(0)&0x7) << 1
	case FAMILY_IMMEDIATE:
		code.Operand = uint8(arg(0) & 0xf)
	case FAMILY_INLINE:
		code.Word |= uint8(arg(0) & 0xf)
	case FAMILY_NIBBLE:
		value := arg(0)
		code.Word |= uint8(value>>4) & 0xf
		code.Operand = uint8(value & 0xf)
	case FAMILY_BRANCH:
		target := arg(info.Args-1) & 0x7ff
		code.Operand = uint8(target & 0xff)
		if !info.Short {
			code.Word |= uint8(target>>8) & 0x7
		}
		if op == OP_B_BIT {
			code.Word |= uint8(arg(0)&0x3) << 3
		}
	}

	return
}

// Register returns the register index of a register family instruction.
func (code Code) Register() int {
	return int(code.Word>>1) & 0x7
}

// Immediate returns the 4-bit immediate operand.
func (code Code) Immediate() uint8 {
	if code.Op.Info().Family == FAMILY_INLINE {
		return code.Word & 0xf
	}
	return code.Operand & 0xf
}

// Bit returns the accumulator bit tested by b-bit.
func (code Code) Bit() int {
	return int(code.Word>>3) & 0x3
}

// Target returns the branch target encoded in the instruction.
func (code Code) Target() uint16 {
	if code.Op.Info().Short {
		return uint16(code.Operand)
	}
	return uint16(code.Word&0x7)<<8 | uint16(code.Operand)
}

// Nibbles returns the X:Y fields of a packed-nibble instruction.
func (code Code) Nibbles() (x, y uint8) {
	x = code.Word & 0xf
	y = code.Operand & 0xf
	return
}

// Len returns the encoded size of the instruction.
func (code Code) Len() int {
	return code.Op.Info().Length()
}

// Bytes returns the encoded instruction.
func (code Code) Bytes() (bytes []byte) {
	info := code.Op.Info()

	bytes = append(bytes, code.Word)
	switch info.Family {
	case FAMILY_FIXED:
		bytes = append(bytes, info.Tail...)
	case FAMILY_IMMEDIATE, FAMILY_BRANCH, FAMILY_NIBBLE:
		bytes = append(bytes, code.Operand)
	}

	return
}

// String returns the assembly language representation of the instruction.
func (code Code) String() string {
	info := code.Op.Info()

	if code.Op == OP_INVALID {
		return fmt.Sprintf(".byte 0x%02x", code.Word)
	}

	switch info.Family {
	case FAMILY_REGISTER:
		return fmt.Sprintf("%v r%d", code.Op, code.Register())
	case FAMILY_IMMEDIATE, FAMILY_INLINE:
		return fmt.Sprintf("%v 0x%x", code.Op, code.Immediate())
	case FAMILY_NIBBLE:
		x, y := code.Nibbles()
		return fmt.Sprintf("%v 0x%x%x", code.Op, x, y)
	case FAMILY_BRANCH:
		if code.Op == OP_B_BIT {
			return fmt.Sprintf("%v %d 0x%02x", code.Op, code.Bit(), code.Target())
		}
		return fmt.Sprintf("%v 0x%02x", code.Op, code.Target())
	}

	return code.Op.String()
}
