// Package check turns a syntax tree into the typed AST.
//
// The checker makes a single depth-first pass. It declares every name in the
// symbol table, resolves every use, unifies operand types, inserts IntToReal
// nodes where an INTEGER meets a REAL, and records a Diagnostic for each
// rule violation. Checking continues past errors; an expression that failed
// to type is given types.NoType and does not produce further diagnostics.
package check

import (
	"fmt"

	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/syntax"
	"minipas/pkg/types"
)

// Result is everything the backends need.
type Result struct {
	Program     *ast.Node
	Symbols     *symtab.Table
	Strings     *symtab.StringTable
	Diagnostics Diagnostics
}

// Err returns the diagnostics as an error, or nil when there are none.
func (r *Result) Err() error {
	if len(r.Diagnostics) == 0 {
		return nil
	}
	return r.Diagnostics
}

// Builtins are the procedures predeclared in the global scope. They take
// any number of arguments.
var Builtins = []string{"read", "readln", "write", "writeln"}

type checker struct {
	syms  *symtab.Table
	strs  *symtab.StringTable
	diags Diagnostics
	fn    *symtab.Function // subroutine whose body is being checked
}

// Check builds the AST for prog. The result is always returned; consult
// Result.Err before handing it to a backend.
func Check(prog *syntax.Program) *Result {
	c := &checker{
		syms: symtab.New(),
		strs: symtab.NewStringTable(),
	}
	c.predeclare()
	root := ast.New(ast.Program, types.NoType, prog.Line, c.block(prog.Block))
	root.Text = prog.Name
	return &Result{
		Program:     root,
		Symbols:     c.syms,
		Strings:     c.strs,
		Diagnostics: c.diags,
	}
}

func (c *checker) predeclare() {
	for _, name := range Builtins {
		c.syms.AddEntry(name, &symtab.Function{
			Info:    symtab.Info{Name: name, Type: types.NoType},
			Return:  types.NoType,
			Builtin: true,
		})
	}
	c.syms.AddEntry("true", &symtab.Constant{Info: symtab.Info{Name: "true", Type: types.Boolean}, Int: 1})
	c.syms.AddEntry("false", &symtab.Constant{Info: symtab.Info{Name: "false", Type: types.Boolean}})
}

func (c *checker) errorf(line int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
}

// declare adds e to the current scope, reporting a redeclaration against
// the line of the existing entry.
func (c *checker) declare(e symtab.Entry) bool {
	info := e.Common()
	if prev, exists := c.syms.LookupCurrentScope(info.Name); exists {
		if line := prev.Common().Line; line > 0 {
			c.errorf(info.Line, "%s redeclared; previously declared on line %d", info.Name, line)
		} else {
			c.errorf(info.Line, "%s redeclared; it is predeclared", info.Name)
		}
		return false
	}
	return c.syms.AddEntry(info.Name, e)
}
