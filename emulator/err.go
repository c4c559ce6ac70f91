package emulator

import (
	"errors"

	"github.com/ezrec/arch242/translate"
)

var f = translate.From

var (
	ErrRegisterReadOnly = errors.New(f("register is not host writable"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Addr   int
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("0x%02x: line %d %v", err.Addr, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrLoop is a program that stopped making forward progress.
type ErrLoop struct {
	Addr int // Address of the last instruction executed.
}

func (err ErrLoop) Error() string {
	return f("infinite loop detected at address 0x%02x", err.Addr)
}

type ErrRegisterUnknown string

func (err ErrRegisterUnknown) Error() string {
	return f("register %v unknown", string(err))
}
