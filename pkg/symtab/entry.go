// Package symtab holds the scoped symbol table the checker fills and the
// backends consult, plus the pool of string literals.
package symtab

import (
	"fmt"
	"strconv"

	"minipas/pkg/types"
)

// Info is carried by every entry.
type Info struct {
	Name string
	Line int // declaration line
	Type types.Type
}

// Common gives access to the shared fields.
func (i *Info) Common() *Info { return i }

// Entry is one of *Variable, *Array, *Constant, *Function or *Parameter.
type Entry interface {
	Common() *Info
	entry()
}

type Variable struct {
	Info
}

// Array is a variable of array shape. Its Type is always types.Array.
type Array struct {
	Info
	Shape types.Shape
}

// NewArray builds an array entry for name covering [start, end].
func NewArray(name string, line int, elem types.Type, start, end int) *Array {
	return &Array{
		Info:  Info{Name: name, Line: line, Type: types.Array},
		Shape: resolveShape(elem, start, end),
	}
}

// Constant binds a name to a literal. Only the payload matching Type is set.
type Constant struct {
	Info
	Int  int64
	Real float64
	Text string
}

// Literal renders the constant's value in source form.
func (c *Constant) Literal() string {
	switch c.Type {
	case types.Integer:
		return strconv.FormatInt(c.Int, 10)
	case types.Real:
		return types.FormatReal(c.Real)
	case types.Boolean:
		if c.Int != 0 {
			return "true"
		}
		return "false"
	case types.Char, types.String:
		return strconv.Quote(c.Text)
	}
	return fmt.Sprintf("<%s>", c.Type)
}

// Function describes a function or procedure. Procedures have a Return of
// types.NoType. Builtins accept any arguments.
type Function struct {
	Info
	Return  types.Type
	Params  []*Parameter
	Builtin bool
}

func (f *Function) IsProcedure() bool {
	return f.Return == types.NoType
}

type Parameter struct {
	Info
	ByRef bool
}

func (*Variable) entry()  {}
func (*Array) entry()     {}
func (*Constant) entry()  {}
func (*Function) entry()  {}
func (*Parameter) entry() {}
