// Package io provides the host side devices of the Arch-242 emulator.
//
// The machine talks to its host only through memory, which devices read
// after each frame, and the PA input register, which is latched from an
// Input before each frame.
package io

// Memory is the addressable memory of the machine, as seen by a device.
type Memory interface {
	// ReadMemory reads a single memory cell.
	ReadMemory(addr int) uint8
}

// Input supplies the value latched into the PA register.
type Input interface {
	// Direction returns the current 4-bit input value.
	Direction() uint8
}

// Display renders machine memory at the end of each frame.
type Display interface {
	// Refresh redraws the display from memory.
	Refresh(mem Memory) error
}
