package cpu

import (
	"fmt"
	"iter"
	"log"

	"github.com/ezrec/arch242/internal"
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":    fmt.Sprintf("%d", MEMORY_SIZE),
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
}

// Cpu is the simulation context for the Arch-242 processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	State // Architectural state.

	Ticks int // CPU ticks counter.
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return internal.Defines(_cpu_defines)
}

// Reset the CPU state, and load a program image.
// Returns true if the image was larger than memory.
func (cpu *Cpu) Reset(image []byte) (wrapped bool) {
	if cpu.Verbose {
		log.Printf("cpu: reset, %d byte image", len(image))
	}

	wrapped = cpu.Load(image)
	cpu.Ticks = 0

	return
}

// fetch reads the byte at PC, and advances PC.
func (cpu *Cpu) fetch() (word uint8) {
	pc := int(cpu.Get(REG_PC))
	word = cpu.Read(pc)
	cpu.Set(REG_PC, pc+1)
	return
}

// FetchCode fetches and decodes the instruction at PC, advancing PC past it.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	addr := uint8(cpu.Get(REG_PC))
	word := cpu.fetch()

	op, ok := Decode(word)
	if !ok {
		err = ErrOpcode{Addr: addr, Word: word}
		return
	}

	code = Code{Addr: addr, Op: op, Word: word}
	if op.Info().Length() > 1 {
		code.Operand = cpu.fetch()
	}

	if op == OP_SHUTDOWN && code.Operand != op.Info().Tail[0] {
		err = ErrOpcode{Addr: addr, Word: word}
		return
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	if err != nil {
		return
	}

	cpu.Ticks += 1

	return
}

// Execute executes a single decoded instruction.
// PC must already point past the instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	if cpu.Verbose {
		log.Printf("%02x: %v", code.Addr, code)
	}

	acc := int(cpu.Get(REG_ACC))
	cf := int(cpu.Get(REG_CF))
	mba := cpu.Pair(PAIR_BA)
	mdc := cpu.Pair(PAIR_DC)

	// add sets the carry on a 4-bit overflow.
	add := func(a, b, carry int) {
		sum := a + b + carry
		cpu.Set(REG_ACC, sum)
		cpu.Set(REG_CF, bool2int(sum > 0xf))
	}

	// sub sets the carry on a borrow.
	sub := func(a, b, carry int) {
		diff := a - b + carry
		borrow := diff < 0
		if borrow {
			diff += 16
		}
		cpu.Set(REG_ACC, diff)
		cpu.Set(REG_CF, bool2int(borrow))
	}

	branch := func(cond bool) {
		if cond {
			cpu.Set(REG_PC, int(code.Target()))
		}
	}

	ret := func() {
		temp := int(cpu.Get(REG_TEMP))
		pc := int(cpu.Get(REG_PC))
		cpu.Set(REG_PC, (pc&0xf000)|(temp&0x0fff))
		cpu.Set(REG_TEMP, 0)
	}

	nibble := func(addr int) int {
		return int(cpu.Read(addr) & 0xf)
	}

	switch code.Op {
	case OP_ROT_R:
		cpu.Set(REG_ACC, acc>>1|acc<<3)
	case OP_ROT_L:
		cpu.Set(REG_ACC, acc<<1|acc>>3)
	case OP_ROT_RC:
		value := cf<<4 | acc
		value = value>>1 | (value&1)<<4
		cpu.Set(REG_ACC, value)
		cpu.Set(REG_CF, value>>4)
	case OP_ROT_LC:
		value := cf<<4 | acc
		value = value<<1 | value>>4
		cpu.Set(REG_ACC, value)
		cpu.Set(REG_CF, value>>4)
	case OP_FROM_MBA:
		cpu.Set(REG_ACC, nibble(mba))
	case OP_TO_MBA:
		cpu.Write(mba, uint8(acc))
	case OP_FROM_MDC:
		cpu.Set(REG_ACC, nibble(mdc))
	case OP_TO_MDC:
		cpu.Write(mdc, uint8(acc))
	case OP_ADDC_MBA:
		add(acc, nibble(mba), cf)
	case OP_ADD_MBA:
		add(acc, nibble(mba), 0)
	case OP_SUBC_MBA:
		sub(acc, nibble(mba), cf)
	case OP_SUB_MBA:
		sub(acc, nibble(mba), 0)
	case OP_INC_MBA:
		cpu.Write(mba, uint8(nibble(mba)+1)&0xf)
	case OP_DEC_MBA:
		cpu.Write(mba, uint8(nibble(mba)-1)&0xf)
	case OP_INC_MDC:
		cpu.Write(mdc, uint8(nibble(mdc)+1)&0xf)
	case OP_DEC_MDC:
		cpu.Write(mdc, uint8(nibble(mdc)-1)&0xf)
	case OP_INC_REG:
		reg := Register(code.Register())
		cpu.Set(reg, int(cpu.Get(reg))+1)
	case OP_DEC_REG:
		reg := Register(code.Register())
		cpu.Set(reg, int(cpu.Get(reg))-1)
	case OP_AND_BA:
		cpu.Set(REG_ACC, acc&nibble(mba))
	case OP_XOR_BA:
		cpu.Set(REG_ACC, acc^nibble(mba))
	case OP_OR_BA:
		cpu.Set(REG_ACC, acc|nibble(mba))
	case OP_AND_MBA:
		cpu.Write(mba, uint8(acc&nibble(mba)))
	case OP_XOR_MBA:
		cpu.Write(mba, uint8(acc^nibble(mba)))
	case OP_OR_MBA:
		cpu.Write(mba, uint8(acc|nibble(mba)))
	case OP_TO_REG:
		cpu.Set(Register(code.Register()), acc)
	case OP_FROM_REG:
		cpu.Set(REG_ACC, int(cpu.Get(Register(code.Register()))))
	case OP_CLR_CF:
		cpu.Set(REG_CF, 0)
	case OP_SET_CF:
		cpu.Set(REG_CF, 1)
	case OP_SET_EI:
		cpu.Set(REG_EI, 1)
	case OP_CLR_EI:
		cpu.Set(REG_EI, 0)
	case OP_RET:
		ret()
	case OP_RETC:
		cpu.Set(REG_CF, int(cpu.Get(REG_TEMP)>>12))
		ret()
	case OP_FROM_PA:
		cpu.Set(REG_ACC, int(cpu.Get(REG_PA)))
	case OP_INC:
		cpu.Set(REG_ACC, acc+1)
	case OP_TO_IOA:
		cpu.Set(REG_IOA, acc)
	case OP_TO_IOB:
		cpu.Set(REG_IOB, acc)
	case OP_TO_IOC:
		cpu.Set(REG_IOC, acc)
	case OP_BCD:
		if acc >= 10 || cf != 0 {
			cpu.Set(REG_ACC, acc+6)
			cpu.Set(REG_CF, 1)
		}
	case OP_SHUTDOWN:
		cpu.Set(REG_PC, int(code.Addr))
	case OP_TIMER_START:
		cpu.TimerRunning = true
	case OP_TIMER_END:
		cpu.TimerRunning = false
	case OP_FROM_TIMERL:
		cpu.Set(REG_ACC, int(cpu.Get(REG_TIMER)))
	case OP_FROM_TIMERH:
		cpu.Set(REG_ACC, int(cpu.Get(REG_TIMER)>>4))
	case OP_TO_TIMERL:
		cpu.Set(REG_TIMER, int(cpu.Get(REG_TIMER)&0xf0)|acc)
	case OP_TO_TIMERH:
		cpu.Set(REG_TIMER, acc<<4|int(cpu.Get(REG_TIMER)&0x0f))
	case OP_NOP:
		// pass
	case OP_DEC:
		cpu.Set(REG_ACC, acc-1)
	case OP_ADD:
		add(acc, int(code.Immediate()), 0)
	case OP_SUB:
		sub(acc, int(code.Immediate()), 0)
	case OP_AND:
		cpu.Set(REG_ACC, acc&int(code.Immediate()))
	case OP_XOR:
		cpu.Set(REG_ACC, acc^int(code.Immediate()))
	case OP_OR:
		cpu.Set(REG_ACC, acc|int(code.Immediate()))
	case OP_TIMER:
		cpu.Set(REG_TIMER, int(code.Immediate()))
	case OP_RARB:
		x, y := code.Nibbles()
		cpu.Set(REG_RB, int(x))
		cpu.Set(REG_RA, int(y))
	case OP_RCRD:
		x, y := code.Nibbles()
		cpu.Set(REG_RD, int(x))
		cpu.Set(REG_RC, int(y))
	case OP_ACC:
		cpu.Set(REG_ACC, int(code.Immediate()))
	case OP_B_BIT:
		branch(acc&(1<<code.Bit()) != 0)
	case OP_BNZ_A:
		branch(cpu.Get(REG_RA) != 0)
	case OP_BNZ_B:
		branch(cpu.Get(REG_RB) != 0)
	case OP_BEQZ:
		branch(acc == 0)
	case OP_BNEZ:
		branch(acc != 0)
	case OP_BEQZ_CF:
		branch(cf == 0)
	case OP_BNEZ_CF:
		branch(cf != 0)
	case OP_B_TIMER:
		branch(cpu.TimerRunning)
	case OP_BNZ_D:
		branch(cpu.Get(REG_RD) != 0)
	case OP_B:
		branch(true)
	case OP_CALL:
		cpu.Set(REG_TEMP, int(code.Addr)+2)
		branch(true)
	default:
		err = ErrOpcode{Addr: code.Addr, Word: code.Word}
		return
	}

	return
}

func bool2int(b bool) int {
	if b {
		return 1
	}
	return 0
}
