// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command arch242 assembles, runs and disassembles Arch-242 programs.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arch242",
	Short: "Arch-242 assembler and emulator",
	Long: `Arch242 is the tool set for the Arch-242 4-bit microcontroller.

It assembles source into a raw binary image, runs images (or source)
in the emulator, either headless or on a terminal, and disassembles
binary images.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatalf("%v: %v", rootCmd.Name(), err)
	}
}
