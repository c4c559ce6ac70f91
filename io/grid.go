package io

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/ezrec/arch242/internal"
)

// LED matrix layout. Each memory cell from GRID_BASE holds four LEDs,
// one per bit, in row major order.
const (
	GRID_BASE = 0xc0
	GRID_ROWS = 20
	GRID_COLS = 10
)

// Grid renders the LED matrix as text.
type Grid struct {
	Output io.Writer // Destination of the rendered text.
	Ansi   bool      // If set, homes the cursor before each refresh.
	On     string    // Text of a lit LED; "#" if empty.
	Off    string    // Text of an unlit LED; "." if empty.

	Frames int // Number of refreshes.
}

var _ Display = (*Grid)(nil)

// Defines returns an iter of defines for the grid.
func (grid *Grid) Defines() iter.Seq2[string, string] {
	return internal.Defines(map[string]string{
		"GRID_BASE": fmt.Sprintf("0x%02x", GRID_BASE),
		"GRID_ROWS": fmt.Sprintf("%d", GRID_ROWS),
		"GRID_COLS": fmt.Sprintf("%d", GRID_COLS),
	})
}

// Locate returns the memory address and bit of an LED.
func (grid *Grid) Locate(row, col int) (addr int, bit int) {
	linear := row*GRID_COLS + col
	addr = GRID_BASE + linear/4
	bit = linear % 4
	return
}

// Lit returns true if the LED at row, col is on.
func (grid *Grid) Lit(mem Memory, row, col int) bool {
	addr, bit := grid.Locate(row, col)
	return (mem.ReadMemory(addr)>>bit)&1 != 0
}

// Rows iterates over the rows of the matrix as text.
func (grid *Grid) Rows(mem Memory) iter.Seq2[int, string] {
	on := grid.On
	if on == "" {
		on = "#"
	}
	off := grid.Off
	if off == "" {
		off = "."
	}

	return func(yield func(row int, text string) bool) {
		for row := range GRID_ROWS {
			var text strings.Builder
			for col := range GRID_COLS {
				if grid.Lit(mem, row, col) {
					text.WriteString(on)
				} else {
					text.WriteString(off)
				}
			}
			if !yield(row, text.String()) {
				return
			}
		}
	}
}

// Refresh redraws the whole matrix to the output.
func (grid *Grid) Refresh(mem Memory) (err error) {
	grid.Frames++

	if grid.Output == nil {
		return
	}

	var text strings.Builder
	if grid.Ansi {
		text.WriteString("\x1b[H")
	}
	for _, line := range grid.Rows(mem) {
		text.WriteString(line)
		text.WriteString("\r\n")
	}

	_, err = io.WriteString(grid.Output, text.String())

	return
}
