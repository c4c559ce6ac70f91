package cpu

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// Opcode is a single assembled line of source.
type Opcode struct {
	LineNo int      // Source line number.
	Addr   int      // Address of the first instruction.
	Words  []string // Words of the line, after substitution.
	Codes  []Code   // Instructions generated by the line.
}

// Len returns the encoded size of the line.
func (op *Opcode) Len() (size int) {
	for _, code := range op.Codes {
		size += code.Len()
	}
	return
}

// Bytes returns the encoded line.
func (op *Opcode) Bytes() (bytes []byte) {
	for _, code := range op.Codes {
		bytes = append(bytes, code.Bytes()...)
	}
	return
}

// Program is an assembled program.
type Program struct {
	Opcodes []Opcode
}

// Debug maps an address back to the source line that generated it.
type Debug struct {
	*Opcode
	Index int // Byte offset of the address in the line.
}

// Debug returns the source line that generated an address.
func (prog *Program) Debug(addr int) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && addr < op.Addr+op.Len() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  addr - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the flat program image, loaded at address zero.
func (prog *Program) Binary() (bins []byte) {
	for _, op := range prog.Opcodes {
		bins = append(bins, op.Bytes()...)
	}

	return
}

// Codes iterates over every instruction of the program, by address.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(addr int, code Code) bool) {
		for _, op := range prog.Opcodes {
			addr := op.Addr
			for _, code := range op.Codes {
				if !yield(addr, code) {
					return
				}
				addr += code.Len()
			}
		}
	}
}

// Listing writes the assembled program, with its source words, to w.
func (prog *Program) Listing(w io.Writer) (err error) {
	for _, op := range prog.Opcodes {
		_, err = fmt.Fprintf(w, "%03x: %-12s %4d: %v\n",
			op.Addr, fmt.Sprintf("% 02x", op.Bytes()), op.LineNo, strings.Join(op.Words, " "))
		if err != nil {
			return
		}
	}

	return
}

// Disassemble decodes a program image from address zero.
// Bytes that do not decode are yielded as OP_INVALID instructions.
func Disassemble(image []byte) iter.Seq2[int, Code] {
	return func(yield func(addr int, code Code) bool) {
		for addr := 0; addr < len(image); {
			word := image[addr]
			op, _ := Decode(word)
			code := Code{Addr: uint8(addr), Op: op, Word: word}
			if code.Len() > 1 && addr+1 < len(image) {
				code.Operand = image[addr+1]
			}
			if !yield(addr, code) {
				return
			}
			addr += code.Len()
		}
	}
}
