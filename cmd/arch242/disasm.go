package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ezrec/arch242/cpu"
	"github.com/ezrec/arch242/io"
)

// disasmCmd represents the disasm command
var disasmCmd = &cobra.Command{
	Use:   "disasm program.bin",
	Short: "Disassemble an Arch-242 binary image",

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		inf, err := os.Open(args[0])
		if err != nil {
			return
		}
		defer inf.Close()

		rom := &io.Rom{}
		err = rom.Unmarshal(inf)
		if err != nil {
			return
		}

		for addr, code := range cpu.Disassemble(rom.Data) {
			_, err = fmt.Fprintf(os.Stdout, "%03x: %-6s %v\n", addr, fmt.Sprintf("% 02x", code.Bytes()), code)
			if err != nil {
				return
			}
		}

		return
	},
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}
