package io

import (
	"fmt"
	"iter"
	"sync"

	"github.com/ezrec/arch242/internal"
)

// Direction values reported by the keypad.
const (
	DIRECTION_RIGHT = uint8(0)
	DIRECTION_DOWN  = uint8(1)
	DIRECTION_LEFT  = uint8(2)
	DIRECTION_UP    = uint8(3)
)

const (
	KEY_ETX = 0x03 // Ctrl-C
	KEY_ESC = 0x1b
)

// Keypad decodes terminal key presses into a direction.
// It is safe to Feed from one goroutine while another reads the direction.
type Keypad struct {
	mutex     sync.Mutex
	direction uint8
	escape    int  // Position in an ESC [ x sequence.
	restart   bool // Set by 'r', cleared by Restart.
}

var _ Input = (*Keypad)(nil)

// Defines returns an iter of defines for the keypad.
func (kp *Keypad) Defines() iter.Seq2[string, string] {
	return internal.Defines(map[string]string{
		"DIRECTION_RIGHT": fmt.Sprintf("%d", DIRECTION_RIGHT),
		"DIRECTION_DOWN":  fmt.Sprintf("%d", DIRECTION_DOWN),
		"DIRECTION_LEFT":  fmt.Sprintf("%d", DIRECTION_LEFT),
		"DIRECTION_UP":    fmt.Sprintf("%d", DIRECTION_UP),
	})
}

// Direction returns the last direction pressed.
func (kp *Keypad) Direction() uint8 {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	return kp.direction
}

// Restart returns true once for each restart key press since the last call.
func (kp *Keypad) Restart() (restart bool) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	restart = kp.restart
	kp.restart = false

	return
}

// Feed decodes raw terminal input. Arrow key escape sequences and WASD
// select a direction, 'r' requests a restart, other keys are ignored.
// Returns true if Ctrl-C or 'q' was pressed.
func (kp *Keypad) Feed(data ...byte) (quit bool) {
	kp.mutex.Lock()
	defer kp.mutex.Unlock()

	for _, key := range data {
		switch kp.escape {
		case 1:
			kp.escape = 0
			if key == '[' {
				kp.escape = 2
				continue
			}
		case 2:
			kp.escape = 0
			switch key {
			case 'A':
				kp.direction = DIRECTION_UP
			case 'B':
				kp.direction = DIRECTION_DOWN
			case 'C':
				kp.direction = DIRECTION_RIGHT
			case 'D':
				kp.direction = DIRECTION_LEFT
			}
			continue
		}

		switch key {
		case KEY_ESC:
			kp.escape = 1
		case KEY_ETX, 'q', 'Q':
			quit = true
		case 'r', 'R':
			kp.restart = true
		case 'w', 'W':
			kp.direction = DIRECTION_UP
		case 's', 'S':
			kp.direction = DIRECTION_DOWN
		case 'a', 'A':
			kp.direction = DIRECTION_LEFT
		case 'd', 'D':
			kp.direction = DIRECTION_RIGHT
		}
	}

	return
}
