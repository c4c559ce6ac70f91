package main

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/arch242/cpu"
	"github.com/ezrec/arch242/emulator"
	"github.com/ezrec/arch242/io"
)

var (
	asmListing bool
	asmDefines []string
)

// asmCmd represents the asm command
var asmCmd = &cobra.Command{
	Use:   "asm source.asm output.bin",
	Short: "Assemble Arch-242 source into a binary image",
	Long: `Asm assembles a single Arch-242 source file into a raw binary image,
loaded at address zero.

The output file is only written if the whole source assembles.`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		prog, err := assemble(args[0])
		if err != nil {
			return
		}

		if asmListing {
			err = prog.Listing(os.Stdout)
			if err != nil {
				return
			}
		}

		rom := &io.Rom{Data: prog.Binary()}
		if rom.Wrapped() {
			log.Printf("%v: %d bytes, image wraps at 0x%x", args[1], len(rom.Data), io.ROM_SIZE)
		}

		ouf, err := os.Create(args[1])
		if err != nil {
			return
		}
		defer ouf.Close()

		err = rom.Marshal(ouf)
		return
	},
}

func init() {
	asmCmd.Flags().BoolVarP(&asmListing, "listing", "l", false, "Print a listing")
	asmCmd.Flags().StringArrayVarP(&asmDefines, "define", "D", nil, "Predefine an equate, as NAME=VALUE")
	rootCmd.AddCommand(asmCmd)
}

// assemble parses a source file, with the emulator defines predefined.
func assemble(path string) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	for name, value := range emulator.NewEmulator().Defines() {
		asm.Predefine(name, value)
	}
	for _, define := range asmDefines {
		name, value, ok := strings.Cut(define, "=")
		if !ok {
			value = "1"
		}
		asm.Predefine(name, value)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		log.Printf("%v: assembly failed", path)
	}

	return
}
