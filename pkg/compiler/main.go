// Package compiler wires the front end, checker and backends together.
//
// Pipeline: source → syntax.ParseSource → check.Check → codegen.Generate
// (assembly text) → asm.Assemble → cpu.Run, or check.Check → interp.Run.
//
// Every stage's error is wrapped with the stage name, so callers print
// "parse: line 3: ..." and can recover the original with errors.Cause.
package compiler
