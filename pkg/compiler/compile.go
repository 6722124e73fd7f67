package compiler

import (
	"github.com/pkg/errors"

	"minipas/pkg/asm"
	"minipas/pkg/check"
	"minipas/pkg/codegen"
	"minipas/pkg/cpu"
	"minipas/pkg/interp"
	"minipas/pkg/syntax"
)

// Check parses and checks src. The Result is returned even when checking
// fails so callers can inspect the symbol table.
func Check(src string) (*check.Result, error) {
	prog, err := syntax.ParseSource(src)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	res := check.Check(prog)
	if err := res.Err(); err != nil {
		return res, errors.Wrap(err, "check")
	}
	return res, nil
}

// Compile lowers src to assembly text.
func Compile(src string) (string, error) {
	res, err := Check(src)
	if err != nil {
		return "", err
	}
	assembly, err := codegen.Generate(res.Program, res.Symbols, res.Strings)
	if err != nil {
		return "", errors.Wrap(err, "internal error")
	}
	return assembly, nil
}

// Build compiles and assembles src. The assembly text is returned alongside
// the program so failures can be reported against it.
func Build(src string) (*cpu.Program, string, error) {
	assembly, err := Compile(src)
	if err != nil {
		return nil, "", err
	}
	prog, err := asm.Assemble(assembly)
	if err != nil {
		return nil, assembly, errors.Wrap(err, "assemble")
	}
	return prog, assembly, nil
}

// Interpret checks src and executes it directly.
func Interpret(src string, cfg interp.Config) error {
	res, err := Check(src)
	if err != nil {
		return err
	}
	return errors.Wrap(interp.Run(res.Program, res.Strings, cfg), "run")
}

// Simulate compiles src and runs it on the simulator.
func Simulate(src string, cfg cpu.Config) error {
	prog, _, err := Build(src)
	if err != nil {
		return err
	}
	return errors.Wrap(cpu.New(prog, cfg).Run(), "simulate")
}
