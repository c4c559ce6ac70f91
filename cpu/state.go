package cpu

import (
	"fmt"
	"strings"
)

// Register is an architectural register of the machine.
type Register int

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_RA    = Register(0)  // ra
	REG_RB    = Register(1)  // rb
	REG_RC    = Register(2)  // rc
	REG_RD    = Register(3)  // rd
	REG_RE    = Register(4)  // re
	REG_ACC   = Register(5)  // acc
	REG_CF    = Register(6)  // cf
	REG_PC    = Register(7)  // pc
	REG_TEMP  = Register(8)  // temp
	REG_PA    = Register(9)  // pa
	REG_IOA   = Register(10) // ioa
	REG_IOB   = Register(11) // iob
	REG_IOC   = Register(12) // ioc
	REG_TIMER = Register(13) // timer
	REG_EI    = Register(14) // ei

	REGISTER_MAX = 15
)

const (
	REGISTER_COUNT = 5   // General registers addressable by the register family.
	MEMORY_SIZE    = 256 // Memory cells, addressed by an 8-bit PC.
)

// registerMask is the value mask of each register.
var registerMask = [REGISTER_MAX]uint16{
	REG_RA:    0xf,
	REG_RB:    0xf,
	REG_RC:    0xf,
	REG_RD:    0xf,
	REG_RE:    0xf,
	REG_ACC:   0xf,
	REG_CF:    0x1,
	REG_PC:    0xff,
	REG_TEMP:  0xffff,
	REG_PA:    0xf,
	REG_IOA:   0xf,
	REG_IOB:   0xf,
	REG_IOC:   0xf,
	REG_TIMER: 0xff,
	REG_EI:    0x1,
}

// Mask returns the mask of valid bits of the register.
func (reg Register) Mask() uint16 {
	if reg < 0 || reg >= REGISTER_MAX {
		return 0
	}
	return registerMask[reg]
}

// RegisterByName finds a register by name, ignoring case.
func RegisterByName(name string) (reg Register, ok bool) {
	name = strings.ToLower(name)
	for n := range Register(REGISTER_MAX) {
		if n.String() == name {
			reg = n
			ok = true
			return
		}
	}
	return
}

// RegisterPair is a pair of general registers used as a memory address.
type RegisterPair int

const (
	PAIR_BA = RegisterPair(0) // RB:RA
	PAIR_DC = RegisterPair(1) // RD:RC
)

// State is the complete architectural state of the machine.
type State struct {
	Register     [REGISTER_MAX]uint16 // Register file, each masked to its width.
	TimerRunning bool                 // Set while the timer is running.

	memory [MEMORY_SIZE]uint8
}

// Get returns the value of a register.
func (st *State) Get(reg Register) uint16 {
	return st.Register[reg]
}

// Set sets a register, masked to its width.
func (st *State) Set(reg Register, value int) {
	st.Register[reg] = uint16(value) & reg.Mask()
}

// Read reads a memory cell. Addresses wrap at the memory size.
func (st *State) Read(addr int) uint8 {
	return st.memory[addr&(MEMORY_SIZE-1)]
}

// Write writes a memory cell. Addresses wrap at the memory size.
func (st *State) Write(addr int, value uint8) {
	st.memory[addr&(MEMORY_SIZE-1)] = value
}

// Pair returns the memory address formed by a register pair.
func (st *State) Pair(pair RegisterPair) int {
	switch pair {
	case PAIR_BA:
		return int(st.Get(REG_RB))<<4 | int(st.Get(REG_RA))
	case PAIR_DC:
		return int(st.Get(REG_RD))<<4 | int(st.Get(REG_RC))
	}
	panic(fmt.Sprintf("unknown register pair %d", pair))
}

// Reset zeros the registers, timer and memory.
func (st *State) Reset() {
	*st = State{}
}

// Load resets the state, then copies an image into memory starting at
// address zero. Images larger than memory wrap around.
func (st *State) Load(image []byte) (wrapped bool) {
	st.Reset()

	for n, data := range image {
		st.Write(n, data)
	}

	wrapped = len(image) > MEMORY_SIZE
	return
}

// Idle returns true if the state differs from the prior state only in PC.
func (st *State) Idle(prior *State) bool {
	now := *st
	was := *prior
	now.Register[REG_PC] = 0
	was.Register[REG_PC] = 0
	return now == was
}

// String returns the register file as text.
func (st *State) String() (text string) {
	for n := range Register(REGISTER_MAX) {
		text += fmt.Sprintf("% 5s: 0x%x\n", n, st.Get(n))
	}
	timer := "stopped"
	if st.TimerRunning {
		timer = "running"
	}
	text += fmt.Sprintf("% 5s: %v\n", "tmr", timer)

	return
}
