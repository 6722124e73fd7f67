package check

import (
	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/syntax"
	"minipas/pkg/types"
)

// invalid stands in for an expression that could not be typed.
func (c *checker) invalid(line int) *ast.Node {
	return ast.New(ast.Invalid, types.NoType, line)
}

var binaryKinds = map[syntax.TokenType]ast.Kind{
	syntax.PLUS:       ast.Add,
	syntax.MINUS:      ast.Sub,
	syntax.STAR:       ast.Mul,
	syntax.SLASH:      ast.RealDiv,
	syntax.DIV:        ast.IntDiv,
	syntax.MOD:        ast.Mod,
	syntax.AND:        ast.And,
	syntax.OR:         ast.Or,
	syntax.EQUALS:     ast.Eq,
	syntax.NOT_EQ:     ast.Ne,
	syntax.LESS:       ast.Lt,
	syntax.LESS_EQ:    ast.Le,
	syntax.GREATER:    ast.Gt,
	syntax.GREATER_EQ: ast.Ge,
}

func (c *checker) expr(e syntax.Expr) *ast.Node {
	switch e := e.(type) {
	case *syntax.IntLit:
		v, ok := c.parseInt(e.Line, e.Digits)
		if !ok {
			return c.invalid(e.Line)
		}
		n := ast.New(ast.IntLit, types.Integer, e.Line)
		n.Int = v
		return n
	case *syntax.RealLit:
		v, ok := c.parseReal(e.Line, e.Text)
		if !ok {
			return c.invalid(e.Line)
		}
		n := ast.New(ast.RealLit, types.Real, e.Line)
		n.Real = v
		return n
	case *syntax.StrLit:
		return c.quoted(e)
	case *syntax.Binary:
		return c.binary(e)
	case *syntax.Unary:
		return c.unary(e)
	case *syntax.Name:
		return c.name(e)
	case *syntax.Index:
		return c.index(e)
	case *syntax.CallExpr:
		return c.call(e.Name, e.Args, e.Line)
	}
	c.errorf(e.Pos(), "unsupported expression %s", e)
	return c.invalid(e.Pos())
}

// isChar reports whether a quoted literal is a CHAR. A CHAR occupies one byte
// on the machine, so a multi-byte UTF-8 character stays a STRING.
func isChar(s string) bool {
	return len(s) == 1
}

// quoted types a literal: exactly one byte is a CHAR, anything else a
// pooled STRING.
func (c *checker) quoted(e *syntax.StrLit) *ast.Node {
	if isChar(e.Value) {
		n := ast.New(ast.CharLit, types.Char, e.Line)
		n.Int = int64(e.Value[0])
		n.Text = e.Value
		return n
	}
	n := ast.New(ast.StrLit, types.String, e.Line)
	n.Text = e.Value
	n.Int = int64(c.strs.Add(e.Value))
	return n
}

func (c *checker) binary(e *syntax.Binary) *ast.Node {
	kind := binaryKinds[e.Op]
	left := c.expr(e.Left)
	right := c.expr(e.Right)
	lt, rt := left.Type, right.Type

	var result types.Type
	switch kind {
	case ast.Add, ast.Sub, ast.Mul:
		result = types.Arithmetic(lt, rt)
	case ast.RealDiv:
		result = types.RealDivision(lt, rt)
	case ast.IntDiv, ast.Mod:
		result = types.IntegerDivision(lt, rt)
	case ast.And, ast.Or:
		result = types.Logical(lt, rt)
	default:
		result = types.Comparison(lt, rt)
	}
	if result == types.NoType {
		if lt != types.NoType && rt != types.NoType {
			c.errorf(e.Line, "operator %s cannot be applied to %s and %s", syntax.Symbol(e.Op), lt, rt)
		}
		return ast.New(kind, types.NoType, e.Line, left, right)
	}

	operand := result
	if kind.IsRelational() {
		operand = types.Operand(lt, rt)
	}
	return ast.New(kind, result, e.Line, ast.Widen(left, operand), ast.Widen(right, operand))
}

func (c *checker) unary(e *syntax.Unary) *ast.Node {
	operand := c.expr(e.Operand)
	t := operand.Type
	if e.Op == syntax.NOT {
		if t != types.Boolean && t != types.NoType {
			c.errorf(e.Line, "operator not cannot be applied to %s", t)
			t = types.NoType
		}
		return ast.New(ast.Not, t, e.Line, operand)
	}
	if !t.IsNumeric() {
		if t != types.NoType {
			c.errorf(e.Line, "sign cannot be applied to %s", t)
		}
		return ast.New(ast.Neg, types.NoType, e.Line, operand)
	}
	if e.Op == syntax.PLUS {
		return operand
	}
	return ast.New(ast.Neg, t, e.Line, operand)
}

// name resolves a bare identifier in value position.
func (c *checker) name(e *syntax.Name) *ast.Node {
	entry, ok := c.syms.Lookup(e.Name)
	if !ok {
		c.errorf(e.Line, "undeclared identifier %s", e.Name)
		return c.invalid(e.Line)
	}
	switch entry := entry.(type) {
	case *symtab.Constant:
		if entry.Line == 0 && entry.Type == types.Boolean {
			n := ast.New(ast.BoolLit, types.Boolean, e.Line)
			n.Int = entry.Int
			return n
		}
		n := ast.New(ast.ConstRef, entry.Type, e.Line)
		n.Text = e.Name
		c.setPayload(n, entry)
		return n
	case *symtab.Function:
		return c.call(e.Name, nil, e.Line)
	}
	n := ast.New(ast.VarRef, entry.Common().Type, e.Line)
	n.Text = e.Name
	return n
}

// index resolves name[i]. The index must be exactly INTEGER.
func (c *checker) index(e *syntax.Index) *ast.Node {
	entry, ok := c.syms.Lookup(e.Name)
	if !ok {
		c.errorf(e.Line, "undeclared identifier %s", e.Name)
		return c.invalid(e.Line)
	}
	arr, ok := entry.(*symtab.Array)
	if !ok {
		c.errorf(e.Line, "%s is not an array", e.Name)
		return c.invalid(e.Line)
	}
	if len(e.Indices) != 1 {
		c.errorf(e.Line, "multidimensional arrays are not supported")
		return c.invalid(e.Line)
	}
	idx := c.expr(e.Indices[0])
	if idx.Type != types.Integer && idx.Type != types.NoType {
		c.errorf(e.Line, "array index must be INTEGER, got %s", idx.Type)
	}
	n := ast.New(ast.ArrayRef, arr.Shape.Elem, e.Line, idx)
	n.Text = e.Name
	return n
}

// call checks a function call in value position.
func (c *checker) call(name string, args []syntax.Expr, line int) *ast.Node {
	entry, ok := c.syms.Lookup(name)
	if !ok {
		c.errorf(line, "undeclared function %s", name)
		return c.invalid(line)
	}
	fn, ok := entry.(*symtab.Function)
	if !ok {
		c.errorf(line, "%s is not a function", name)
		return c.invalid(line)
	}
	if fn.IsProcedure() {
		c.errorf(line, "procedure %s used as a value", name)
		return c.invalid(line)
	}
	n := ast.New(ast.FuncCall, fn.Return, line, c.args(fn, args, line))
	n.Text = name
	return n
}
