package check

import (
	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/syntax"
	"minipas/pkg/types"
)

func (c *checker) compound(s *syntax.Compound) *ast.Node {
	n := ast.New(ast.Compound, types.NoType, s.Line)
	for _, st := range s.Stmts {
		n.Append(c.stmt(st))
	}
	return n
}

func (c *checker) stmt(s syntax.Stmt) *ast.Node {
	switch s := s.(type) {
	case *syntax.Compound:
		return c.compound(s)
	case *syntax.Assign:
		return c.assign(s)
	case *syntax.Call:
		return c.callStmt(s)
	case *syntax.If:
		n := ast.New(ast.If, types.NoType, s.Line, c.condition(s.Cond, "if", s.Line), c.stmt(s.Then))
		if s.Else != nil {
			n.Append(c.stmt(s.Else))
		}
		return n
	case *syntax.While:
		return ast.New(ast.While, types.NoType, s.Line, c.condition(s.Cond, "while", s.Line), c.stmt(s.Body))
	case *syntax.Repeat:
		body := ast.New(ast.Compound, types.NoType, s.Line)
		for _, st := range s.Body {
			body.Append(c.stmt(st))
		}
		return ast.New(ast.Repeat, types.NoType, s.Line, body, c.condition(s.Cond, "until", s.Line))
	case *syntax.For:
		return c.forStmt(s)
	case *syntax.Empty:
		return ast.New(ast.Empty, types.NoType, s.Line)
	}
	c.errorf(s.Pos(), "unsupported statement %T", s)
	return ast.New(ast.Empty, types.NoType, s.Pos())
}

// condition checks that a controlling expression is BOOLEAN. The diagnostic
// names the keyword and cites its line.
func (c *checker) condition(e syntax.Expr, keyword string, line int) *ast.Node {
	n := c.expr(e)
	if n.Type != types.Boolean && n.Type != types.NoType {
		c.errorf(line, "%s condition must be BOOLEAN, got %s", keyword, n.Type)
	}
	return n
}

func (c *checker) assign(s *syntax.Assign) *ast.Node {
	target := c.target(s.Target)
	value := c.expr(s.Value)
	if target.Type != types.NoType && value.Type != types.NoType {
		if types.Assignment(target.Type, value.Type) == types.NoType {
			c.errorf(s.Line, "cannot assign %s to %s", value.Type, target.Type)
		}
	}
	return ast.New(ast.Assign, types.NoType, s.Line, target, ast.Widen(value, target.Type))
}

// target resolves the left-hand side of an assignment or the destination
// of a read.
func (c *checker) target(e syntax.Expr) *ast.Node {
	switch e := e.(type) {
	case *syntax.Index:
		return c.index(e)
	case *syntax.Name:
		entry, ok := c.syms.Lookup(e.Name)
		if !ok {
			c.errorf(e.Line, "undeclared identifier %s", e.Name)
			return c.invalid(e.Line)
		}
		switch entry := entry.(type) {
		case *symtab.Variable, *symtab.Parameter, *symtab.Array:
			n := ast.New(ast.VarRef, entry.Common().Type, e.Line)
			n.Text = e.Name
			return n
		case *symtab.Function:
			if entry == c.fn && !entry.IsProcedure() {
				n := ast.New(ast.ResultRef, entry.Return, e.Line)
				n.Text = e.Name
				return n
			}
			c.errorf(e.Line, "cannot assign to subroutine %s", e.Name)
		case *symtab.Constant:
			c.errorf(e.Line, "cannot assign to constant %s", e.Name)
		}
		return c.invalid(e.Line)
	}
	c.errorf(e.Pos(), "%s is not assignable", e)
	return c.invalid(e.Pos())
}

func (c *checker) forStmt(s *syntax.For) *ast.Node {
	ctrl := c.target(&syntax.Name{Line: s.Var.Line, Name: s.Var.Name})
	if ctrl.Kind == ast.ResultRef {
		c.errorf(s.Line, "for control variable %s must be a variable", s.Var.Name)
		ctrl = c.invalid(s.Line)
	} else if ctrl.Type != types.Integer && ctrl.Type != types.NoType {
		c.errorf(s.Line, "for control variable %s must be INTEGER, got %s", s.Var.Name, ctrl.Type)
	}
	start := c.expr(s.Start)
	limit := c.expr(s.Limit)
	for _, b := range []*ast.Node{start, limit} {
		if b.Type != types.Integer && b.Type != types.NoType {
			c.errorf(s.Line, "for bound must be INTEGER, got %s", b.Type)
		}
	}
	n := ast.New(ast.For, types.NoType, s.Line, ctrl, start, limit, c.stmt(s.Body))
	n.Text = s.Var.Name
	if s.Down {
		n.Int = 1
	}
	return n
}

func (c *checker) callStmt(s *syntax.Call) *ast.Node {
	entry, ok := c.syms.Lookup(s.Name)
	if !ok {
		c.errorf(s.Line, "undeclared procedure %s", s.Name)
		return c.invalid(s.Line)
	}
	fn, ok := entry.(*symtab.Function)
	if !ok {
		c.errorf(s.Line, "%s is not a procedure", s.Name)
		return c.invalid(s.Line)
	}
	n := ast.New(ast.ProcCall, types.NoType, s.Line)
	n.Text = s.Name
	if fn.Builtin {
		n.Append(c.builtinArgs(fn.Name, s.Args, s.Line))
	} else {
		n.Append(c.args(fn, s.Args, s.Line))
	}
	return n
}

// builtinArgs checks the arguments of read/readln/write/writeln. Any count
// is accepted; each argument must be something the backends can transfer.
func (c *checker) builtinArgs(name string, args []syntax.Expr, line int) *ast.Node {
	list := ast.New(ast.ArgList, types.NoType, line)
	reading := name == "read" || name == "readln"
	for _, a := range args {
		var n *ast.Node
		if reading {
			n = c.target(a)
			if n.Kind == ast.ResultRef {
				c.errorf(a.Pos(), "cannot read into function result %s", n.Text)
			} else if n.Type == types.String || n.Type == types.Array {
				c.errorf(a.Pos(), "%s cannot read a %s value", name, n.Type)
			}
		} else {
			n = c.expr(a)
			if n.Type == types.Array {
				c.errorf(a.Pos(), "%s cannot print a whole array", name)
			}
		}
		list.Append(n)
	}
	return list
}

// args checks actual arguments against fn's formal parameters.
func (c *checker) args(fn *symtab.Function, args []syntax.Expr, line int) *ast.Node {
	list := ast.New(ast.ArgList, types.NoType, line)
	if len(args) != len(fn.Params) {
		c.errorf(line, "%s expects %d argument(s), got %d", fn.Name, len(fn.Params), len(args))
	}
	for i, a := range args {
		if i >= len(fn.Params) {
			list.Append(c.expr(a))
			continue
		}
		p := fn.Params[i]
		if p.ByRef {
			list.Append(c.refArg(fn, p, a))
			continue
		}
		n := c.expr(a)
		if n.Type != types.NoType && p.Type != types.NoType && types.Assignment(p.Type, n.Type) == types.NoType {
			c.errorf(a.Pos(), "argument %d of %s: cannot pass %s as %s", i+1, fn.Name, n.Type, p.Type)
		}
		list.Append(ast.Widen(n, p.Type))
	}
	return list
}

// refArg checks an argument bound to a var parameter: it must be a
// variable or array element of exactly the parameter's type.
func (c *checker) refArg(fn *symtab.Function, p *symtab.Parameter, a syntax.Expr) *ast.Node {
	switch a.(type) {
	case *syntax.Name, *syntax.Index:
	default:
		c.errorf(a.Pos(), "argument for var parameter %s of %s must be a variable", p.Name, fn.Name)
		return c.expr(a)
	}
	n := c.target(a)
	if n.Kind == ast.ResultRef {
		c.errorf(a.Pos(), "cannot pass function result %s by reference", n.Text)
		return c.invalid(a.Pos())
	}
	if n.Type != types.NoType && p.Type != types.NoType && n.Type != p.Type {
		c.errorf(a.Pos(), "var parameter %s of %s needs %s, got %s", p.Name, fn.Name, p.Type, n.Type)
	}
	return n
}
