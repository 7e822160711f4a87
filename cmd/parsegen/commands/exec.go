package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/parsegen/internal/executor"
	"github.com/jmylchreest/parsegen/internal/logger"
)

// execCmd is the sandbox child started by executor.Process.
var execCmd = &cobra.Command{
	Use:    executor.ExecCommand,
	Short:  "Run one candidate parser (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// stdout carries the single response line; everything else goes to stderr.
		logger.Init(logger.Options{Quiet: true, Output: os.Stderr})
		in := &executor.Interpreter{Stdout: os.Stderr, Stderr: os.Stderr}
		return executor.ServeChild(cmd.Context(), os.Stdin, os.Stdout, in)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
