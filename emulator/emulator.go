// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"log"

	"github.com/ezrec/arch242/cpu"
	"github.com/ezrec/arch242/internal"
	"github.com/ezrec/arch242/io"
)

const (
	STUCK_LIMIT   = 300 // Ticks without forward progress before a halt.
	FRAME_TICKS   = 10  // Ticks per frame.
	TIMER_DIVIDER = 4   // Frames per timer increment.
)

var _emulator_defines = map[string]string{
	"STUCK_LIMIT":   fmt.Sprintf("%v", STUCK_LIMIT),
	"FRAME_TICKS":   fmt.Sprintf("%v", FRAME_TICKS),
	"TIMER_DIVIDER": fmt.Sprintf("%v", TIMER_DIVIDER),
}

// State of the emulator.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
)

// Emulator state. CPU + program image + host devices.
type Emulator struct {
	Verbose    bool // If set, enables verbose logging.
	Permissive bool // If set, a stuck program is logged instead of halted.
	StuckLimit int  // Stuck tick limit; STUCK_LIMIT if zero.
	FrameTicks int  // Ticks per frame; FRAME_TICKS if zero.

	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Rom     io.Rom     // Program image.
	Input   io.Input   // Source of the PA register, if any.
	Display io.Display // Display refreshed after each frame, if any.

	state  State
	stuck  int
	frames int
	err    error
}

var _ io.Memory = (*Emulator)(nil)

// NewEmulator creates a new, halted, emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     &cpu.Cpu{},
		Program: &cpu.Program{},
		state:   STATE_HALTED,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(internal.Defines(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Rom.Defines(),
		(&io.Keypad{}).Defines(),
		(&io.Grid{}).Defines(),
	)
}

// Load a raw program image, and reset.
func (emu *Emulator) Load(image []byte) {
	emu.Rom.Data = image
	emu.Program = &cpu.Program{}

	emu.Reset()
}

// LoadProgram loads an assembled program, and resets.
// Runtime errors are reported with their source line.
func (emu *Emulator) LoadProgram(prog *cpu.Program) {
	emu.Rom.Data = prog.Binary()
	emu.Program = prog

	emu.Reset()
}

// Reset reloads the program image, and clears all machine state.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose

	wrapped := emu.Cpu.Reset(emu.Rom.Data)
	if wrapped && emu.Verbose {
		log.Printf("emulator: %d byte image wrapped at 0x%x", len(emu.Rom.Data), cpu.MEMORY_SIZE)
	}

	emu.state = STATE_RUNNING
	emu.stuck = 0
	emu.frames = 0
	emu.err = nil
}

// Stop halts the emulator, without an error.
func (emu *Emulator) Stop() {
	if emu.Verbose && emu.state != STATE_HALTED {
		log.Printf("emulator: stopped at 0x%02x", emu.Get(cpu.REG_PC))
	}

	emu.state = STATE_HALTED
}

// Status returns the run state of the emulator.
func (emu *Emulator) Status() State {
	return emu.state
}

// Err returns the error that halted the emulator, if any.
func (emu *Emulator) Err() error {
	return emu.err
}

// Frames returns the number of frames run since the last reset.
func (emu *Emulator) Frames() int {
	return emu.frames
}

// ReadMemory reads a memory cell.
func (emu *Emulator) ReadMemory(addr int) uint8 {
	return emu.Read(addr)
}

// WriteRegister writes a host writable register. Only PA is host writable.
func (emu *Emulator) WriteRegister(name string, value int) (err error) {
	reg, ok := cpu.RegisterByName(name)
	if !ok {
		err = ErrRegisterUnknown(name)
		return
	}

	if reg != cpu.REG_PA {
		err = ErrRegisterReadOnly
		return
	}

	emu.Set(reg, value)

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(int(emu.Get(cpu.REG_PC)))
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// halt the emulator with an error.
func (emu *Emulator) halt(err error) {
	if emu.Verbose {
		log.Printf("emulator: halted: %v", err)
	}

	emu.state = STATE_HALTED
	emu.err = err
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (halted bool, err error) {
	if emu.state == STATE_HALTED {
		halted = true
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	addr := int(emu.Get(cpu.REG_PC))
	prior := emu.Cpu.State

	// Reading the host input is progress; the host may change it.
	op, _ := cpu.Decode(emu.Read(addr))
	polled := emu.Input != nil && op == cpu.OP_FROM_PA

	defer func() {
		if err != nil {
			dbg := emu.Program.Debug(addr)
			if dbg.Opcode != nil {
				err = &ErrRuntime{Addr: addr, LineNo: dbg.LineNo, Err: err}
			}
			emu.halt(err)
			halted = true
		}
	}()

	err = emu.Cpu.Tick()
	if err != nil {
		return
	}

	if polled {
		emu.stuck = 0
	} else if int(emu.Get(cpu.REG_PC)) == addr || emu.Cpu.State.Idle(&prior) {
		emu.stuck++
	} else {
		emu.stuck = 0
	}

	limit := emu.StuckLimit
	if limit == 0 {
		limit = STUCK_LIMIT
	}

	if emu.stuck > limit {
		if !emu.Permissive {
			err = ErrLoop{Addr: addr}
			return
		}
		log.Printf("emulator: no forward progress at 0x%02x for %d ticks", addr, emu.stuck)
		emu.stuck = 0
	}

	return
}

// Frame latches the input into PA, runs a batch of ticks, advances
// the timer, then refreshes the display.
func (emu *Emulator) Frame() (halted bool, err error) {
	if emu.Input != nil && emu.state == STATE_RUNNING {
		emu.Set(cpu.REG_PA, int(emu.Input.Direction()))
	}

	ticks := emu.FrameTicks
	if ticks == 0 {
		ticks = FRAME_TICKS
	}

	for range ticks {
		halted, err = emu.Tick()
		if halted {
			break
		}
	}

	if !halted {
		emu.frames++
		if emu.TimerRunning && emu.frames%TIMER_DIVIDER == 0 {
			emu.Set(cpu.REG_TIMER, int(emu.Get(cpu.REG_TIMER))+1)
		}
	}

	if emu.Display != nil {
		derr := emu.Display.Refresh(emu)
		if err == nil {
			err = derr
		}
	}

	return
}
