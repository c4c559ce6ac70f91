package main

import (
	"context"
	"errors"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/ezrec/arch242/io"
	"github.com/ezrec/arch242/translate"
)

var ErrNotTerminal = errors.New(translate.From("standard input is not a terminal"))

// terminal feeds raw key presses from standard input into a keypad.
type terminal struct {
	Keypad  *io.Keypad
	Verbose bool

	fd    int
	state *term.State
}

// Start puts the terminal into raw mode and starts the key reader.
// The cancel function is called when the user asks to quit.
func (tm *terminal) Start(cancel context.CancelFunc) (err error) {
	tm.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(tm.fd) {
		err = ErrNotTerminal
		return
	}

	tm.state, err = term.MakeRaw(tm.fd)
	if err != nil {
		return
	}

	go func() {
		buf := make([]byte, 16)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 && tm.Keypad.Feed(buf[:n]...) {
				cancel()
				return
			}
			if err != nil {
				return
			}
		}
	}()

	return
}

// Stop restores the terminal mode.
func (tm *terminal) Stop() {
	if tm.state == nil {
		return
	}

	err := term.Restore(tm.fd, tm.state)
	if err != nil && tm.Verbose {
		log.Printf("terminal: restore: %v", err)
	}
	tm.state = nil
}
