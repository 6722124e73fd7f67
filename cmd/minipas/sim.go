package main

import (
	"log"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"minipas/pkg/compiler"
	"minipas/pkg/cpu"
)

var simCmd = &cobra.Command{
	Use:   "sim <source.pas>",
	Short: "Compile a program and run it on the MIPS simulator",
	Args:  cobra.ExactArgs(1),
	RunE:  simRun,
}

func init() {
	simCmd.Flags().Int("max-steps", cpu.DefaultConfig().MaxSteps, "instruction budget before the run is aborted")
	simCmd.Flags().String("snapshot", "", "write the machine state to this file if the run fails")
	simCmd.Flags().String("resume", "", "restore machine state from a snapshot before running")
}

func simRun(cmd *cobra.Command, args []string) error {
	name := filepath.Base(args[0])
	src, err := readSource(args[0])
	if err != nil {
		return err
	}
	prog, _, err := compiler.Build(src)
	if err != nil {
		return errors.Wrap(err, name)
	}

	cfg := cpu.DefaultConfig()
	cfg.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
	vm := cpu.New(prog, cfg)

	if resume, _ := cmd.Flags().GetString("resume"); resume != "" {
		if err := vm.RestoreFromFile(resume); err != nil {
			return err
		}
	}

	runErr := vm.Run()
	if runErr == nil {
		return nil
	}
	if snapshot, _ := cmd.Flags().GetString("snapshot"); snapshot != "" {
		if err := vm.HibernateToFile(snapshot); err != nil {
			log.Printf("snapshot failed: %v", err)
		} else {
			log.Printf("machine state written to %s", snapshot)
		}
	}
	return errors.Wrap(runErr, name)
}
