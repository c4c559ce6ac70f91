// Package cpu implements the Arch-242 processor and its assembler.
//
// The Arch-242 is a 4-bit accumulator machine with five general registers
// (ra-re), a carry flag, an 8-bit program counter over 256 memory cells, a
// 16-bit link register (temp) for calls, and a small timer. Instructions are
// one opcode byte, optionally followed by one operand byte.
//
// The opcode table is frozen: every opcode byte decodes to at most one
// operation, and the decode table is checked for overlap at start up.
//
// The assembler is a two-pass line assembler supporting labels, equates
// and compile-time expression evaluation.
package cpu
