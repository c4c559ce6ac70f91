package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezrec/arch242/cpu"
	"github.com/ezrec/arch242/emulator"
	"github.com/ezrec/arch242/io"
)

var (
	runFrames     int
	runTty        bool
	runFps        int
	runPermissive bool
	runDump       bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run program",
	Short: "Run an Arch-242 program",
	Long: `Run loads a binary image, or assembles a .asm source file, and runs
it in the emulator.

Headless runs stop after the requested number of frames, or when the
program halts. With --tty the LED matrix is drawn on the terminal, the
arrow keys (or WASD) drive the keypad, 'r' restarts the program, and 'q'
quits.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		emu := emulator.NewEmulator()
		emu.Verbose = verbose
		emu.Permissive = runPermissive

		err = load(emu, args[0])
		if err != nil {
			return
		}

		if runTty {
			err = runTerminal(cmd.Context(), emu)
		} else {
			err = runHeadless(cmd.Context(), emu)
		}
		if err != nil {
			return
		}

		if runDump {
			fmt.Printf("%v\n", emu.Cpu.State.String())
			grid := &io.Grid{Output: os.Stdout}
			err = grid.Refresh(emu)
			if err != nil {
				return
			}
		}

		err = emu.Err()
		return
	},
}

func init() {
	runCmd.Flags().IntVarP(&runFrames, "frames", "n", 1000, "Frames to run headless; 0 runs until halted")
	runCmd.Flags().BoolVarP(&runTty, "tty", "t", false, "Draw the LED matrix on the terminal")
	runCmd.Flags().IntVar(&runFps, "fps", 30, "Frames per second on the terminal")
	runCmd.Flags().BoolVarP(&runPermissive, "permissive", "p", false, "Log stuck programs instead of halting")
	runCmd.Flags().BoolVar(&runDump, "dump", false, "Print registers and the LED matrix on exit")
	rootCmd.AddCommand(runCmd)
}

// load a .asm source file, or a binary image, into the emulator.
func load(emu *emulator.Emulator, path string) (err error) {
	var prog *cpu.Program
	if strings.HasSuffix(strings.ToLower(path), ".asm") {
		prog, err = assemble(path)
		if err != nil {
			return
		}
		emu.LoadProgram(prog)
		return
	}

	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	rom := &io.Rom{}
	err = rom.Unmarshal(inf)
	if err != nil {
		return
	}

	if rom.Wrapped() {
		log.Printf("%v: %d bytes, image wraps at 0x%x", path, len(rom.Data), io.ROM_SIZE)
	}
	emu.Load(rom.Data)

	return
}

// runHeadless runs frames with no input, and no display.
func runHeadless(ctx context.Context, emu *emulator.Emulator) (err error) {
	for frame := 0; runFrames == 0 || frame < runFrames; frame++ {
		if ctx.Err() != nil {
			emu.Stop()
			return
		}

		// A halting error is reported by emu.Err().
		halted, _ := emu.Frame()
		if halted {
			break
		}
	}

	if verbose {
		log.Printf("run: %d frames, %d ticks, %v at line %d", emu.Frames(), emu.Ticks, emu.Status(), emu.LineNo())
	}

	return
}

// runTerminal runs frames at a steady rate, drawing on the terminal.
func runTerminal(ctx context.Context, emu *emulator.Emulator) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keypad := &io.Keypad{}
	host := &terminal{Keypad: keypad, Verbose: verbose}
	err = host.Start(cancel)
	if err != nil {
		return
	}
	defer host.Stop()

	emu.Input = keypad
	emu.Display = &io.Grid{Output: os.Stdout, Ansi: true, On: "[]", Off: " ."}

	fmt.Print("\x1b[2J")

	fps := max(runFps, 1)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			emu.Stop()
			return
		case <-ticker.C:
			if keypad.Restart() {
				emu.Reset()
			}
			_, err = emu.Frame()
			if err != nil && emu.Err() == nil {
				// Display failure.
				return
			}
			// A halted program stays on screen until restarted, or quit.
			err = nil
		}
	}
}
