package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"minipas/pkg/compiler"
	"minipas/pkg/interp"
)

var runCmd = &cobra.Command{
	Use:   "run <source.pas>",
	Short: "Interpret a program",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Bool("debug", false, "trace each executed statement to stderr")
	runCmd.Flags().Int("max-loop", interp.DefaultConfig().MaxLoopIterations, "iteration ceiling per loop")
	runCmd.Flags().Int("max-depth", interp.DefaultConfig().MaxCallDepth, "maximum subroutine call depth")
}

func runRun(cmd *cobra.Command, args []string) error {
	src, err := readSource(args[0])
	if err != nil {
		return err
	}
	cfg := interp.DefaultConfig()
	cfg.Debug, _ = cmd.Flags().GetBool("debug")
	cfg.MaxLoopIterations, _ = cmd.Flags().GetInt("max-loop")
	cfg.MaxCallDepth, _ = cmd.Flags().GetInt("max-depth")
	if cfg.Debug {
		cfg.Log = log.New(os.Stderr, "", 0)
	}
	return errors.Wrap(compiler.Interpret(src, cfg), filepath.Base(args[0]))
}
