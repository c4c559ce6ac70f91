package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/arch242/cpu"
	"github.com/ezrec/arch242/io"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.Equal(STATE_HALTED, emu.Status())

	halted, err := emu.Tick()
	assert.True(halted)
	assert.NoError(err)
}

func loadSource(t *testing.T, emu *Emulator, program ...string) {
	t.Helper()

	asm := &cpu.Assembler{}
	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	emu.LoadProgram(prog)
}

func TestEmulatorLoopHalts(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	loadSource(t, emu,
		"top:",
		" acc 0",
		" beqz top",
	)
	assert.Equal(STATE_RUNNING, emu.Status())

	var halted bool
	var err error
	ticks := 0
	for !halted {
		halted, err = emu.Tick()
		ticks++
		if ticks > 1000 {
			t.Fatal("no halt")
		}
	}

	assert.Equal(STUCK_LIMIT+1, ticks)
	assert.Equal(STATE_HALTED, emu.Status())

	var loop ErrLoop
	if assert.True(errors.As(err, &loop), err) {
		assert.Equal(0, loop.Addr)
	}

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(2, runtime.LineNo)
	}
	assert.Equal(err, emu.Err())
	assert.Equal(3, emu.LineNo()) // The halt is after 'acc 0' executed.

	// Stays halted until reset.
	halted, err = emu.Tick()
	assert.True(halted)
	assert.NoError(err)

	emu.Reset()
	assert.Equal(STATE_RUNNING, emu.Status())
	assert.NoError(emu.Err())
	assert.Equal(uint16(0), emu.Get(cpu.REG_PC))
}

func TestEmulatorPermissive(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Permissive = true
	emu.StuckLimit = 20
	emu.Load([]byte{0xe0, 0x00})

	for range 100 {
		halted, err := emu.Tick()
		assert.False(halted)
		assert.NoError(err)
	}
	assert.Equal(STATE_RUNNING, emu.Status())
	assert.Equal(100, emu.Ticks)
}

func TestEmulatorInputPoll(t *testing.T) {
	assert := assert.New(t)

	source := []string{
		"wait:",
		"  from-pa",
		"  beqz wait",
	}

	// With an input attached, the poll loop waits for the host.
	emu := NewEmulator()
	emu.StuckLimit = 10
	emu.Input = &io.Keypad{}
	loadSource(t, emu, source...)

	for range 100 {
		halted, err := emu.Tick()
		assert.False(halted)
		assert.NoError(err)
	}
	assert.Equal(STATE_RUNNING, emu.Status())

	// With no input, nothing can change PA.
	emu = NewEmulator()
	emu.StuckLimit = 10
	loadSource(t, emu, source...)

	var halted bool
	var err error
	for range 100 {
		halted, err = emu.Tick()
		if halted {
			break
		}
	}
	assert.True(halted)
	assert.ErrorIs(err, ErrLoop{Addr: 0})
}

func TestEmulatorLineNo(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	loadSource(t, emu,
		"  nop",
		"",
		"  acc 3",
	)
	assert.Equal(1, emu.LineNo())

	_, err := emu.Tick()
	assert.NoError(err)
	assert.Equal(3, emu.LineNo())

	emu.Load([]byte{0x31})
	assert.Equal(0, emu.LineNo())
}

func TestEmulatorProgress(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.StuckLimit = 10
	loadSource(t, emu,
		"  rarb 0xc0",
		"loop:",
		"  inc*-mba",
		"  b loop",
	)

	// The memory counter keeps changing, so every other tick makes progress.
	for range 100 {
		halted, err := emu.Tick()
		assert.False(halted)
		assert.NoError(err)
	}
}

func TestEmulatorUnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Load([]byte{0x3e, 0x3e, 0x46})

	for range 2 {
		halted, err := emu.Tick()
		assert.False(halted)
		assert.NoError(err)
	}

	halted, err := emu.Tick()
	assert.True(halted)

	var eo cpu.ErrOpcode
	if assert.True(errors.As(err, &eo)) {
		assert.Equal(uint8(2), eo.Addr)
		assert.Equal(uint8(0x46), eo.Word)
	}

	// No listing attached, so the error is not wrapped.
	var runtime *ErrRuntime
	assert.False(errors.As(err, &runtime))
}

func TestEmulatorStop(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Load([]byte{0x31, 0x31, 0x31})

	halted, err := emu.Tick()
	assert.False(halted)
	assert.NoError(err)

	emu.Stop()
	assert.Equal(STATE_HALTED, emu.Status())
	assert.NoError(emu.Err())

	halted, err = emu.Tick()
	assert.True(halted)
	assert.NoError(err)
	assert.Equal(uint16(1), emu.Get(cpu.REG_ACC))

	emu.Reset()
	assert.Equal(uint16(0), emu.Get(cpu.REG_ACC))
	assert.Equal(uint8(0x31), emu.ReadMemory(2))
}

func TestEmulatorWriteRegister(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Load([]byte{0x30})

	err := emu.WriteRegister("pa", 0x13)
	assert.NoError(err)
	assert.Equal(uint16(0x3), emu.Get(cpu.REG_PA))

	err = emu.WriteRegister("acc", 1)
	assert.ErrorIs(err, ErrRegisterReadOnly)
	assert.Equal(uint16(0), emu.Get(cpu.REG_ACC))

	err = emu.WriteRegister("rf", 1)
	assert.ErrorIs(err, ErrRegisterUnknown("rf"))

	_, err = emu.Tick()
	assert.NoError(err)
	assert.Equal(uint16(0x3), emu.Get(cpu.REG_ACC))
}

func TestEmulatorFrame(t *testing.T) {
	assert := assert.New(t)

	keypad := &io.Keypad{}
	out := &bytes.Buffer{}
	grid := &io.Grid{Output: out}

	emu := NewEmulator()
	emu.Input = keypad
	emu.Display = grid
	loadSource(t, emu,
		"  timer-start",
		"  rcrd GRID_BASE",
		"loop:",
		"  from-pa",
		"  to-mdc",
		"  inc*-reg rc",
		"  b loop",
	)

	keypad.Feed('w')
	halted, err := emu.Frame()
	assert.False(halted)
	assert.NoError(err)
	assert.Equal(10, emu.Ticks)
	assert.Equal(1, grid.Frames)
	assert.Equal(uint16(io.DIRECTION_UP), emu.Get(cpu.REG_PA))
	assert.Equal(uint8(io.DIRECTION_UP), emu.ReadMemory(io.GRID_BASE))
	assert.True(strings.HasPrefix(out.String(), "##..##....\r\n"))

	for range 3 {
		_, err = emu.Frame()
		assert.NoError(err)
	}
	assert.Equal(4, emu.Frames())
	assert.Equal(uint16(1), emu.Get(cpu.REG_TIMER))
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	defines := map[string]string{}
	for name, value := range emu.Defines() {
		defines[name] = value
	}

	assert.Equal("300", defines["STUCK_LIMIT"])
	assert.Equal("256", defines["MEMORY_SIZE"])
	assert.Equal("0xc0", defines["GRID_BASE"])
	assert.Equal("3", defines["DIRECTION_UP"])
}
