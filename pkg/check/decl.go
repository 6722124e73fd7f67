package check

import (
	"strconv"

	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/syntax"
	"minipas/pkg/types"
)

// block checks declarations in order and then the statement part.
func (c *checker) block(b *syntax.Block) *ast.Node {
	line := 0
	if b.Body != nil {
		line = b.Body.Line
	}
	consts := ast.New(ast.ConstSection, types.NoType, line)
	for _, d := range b.Consts {
		if n := c.constDecl(d); n != nil {
			consts.Append(n)
		}
	}

	vars := ast.New(ast.VarSection, types.NoType, line)
	for _, d := range b.Vars {
		vars.Append(c.varDecl(d)...)
	}

	subs := ast.New(ast.SubroutineSection, types.NoType, line)
	for _, d := range b.Subs {
		if c.fn != nil {
			c.errorf(d.Line, "nested subroutine %s is not supported; declare it at program level", d.Name)
			continue
		}
		subs.Append(c.subDecl(d))
	}

	return ast.New(ast.Block, types.NoType, line, consts, vars, subs, c.compound(b.Body))
}

// constValue folds a constant initializer to a typed payload.
type constValue struct {
	typ  types.Type
	i    int64
	r    float64
	text string
}

func (c *checker) foldConst(e syntax.Expr) (constValue, bool) {
	switch e := e.(type) {
	case *syntax.IntLit:
		v, ok := c.parseInt(e.Line, e.Digits)
		return constValue{typ: types.Integer, i: v}, ok
	case *syntax.RealLit:
		v, ok := c.parseReal(e.Line, e.Text)
		return constValue{typ: types.Real, r: v}, ok
	case *syntax.StrLit:
		if isChar(e.Value) {
			return constValue{typ: types.Char, i: int64(e.Value[0]), text: e.Value}, true
		}
		return constValue{typ: types.String, text: e.Value}, true
	case *syntax.Name:
		entry, ok := c.syms.Lookup(e.Name)
		if !ok {
			c.errorf(e.Line, "undeclared identifier %s", e.Name)
			return constValue{}, false
		}
		k, isConst := entry.(*symtab.Constant)
		if !isConst {
			c.errorf(e.Line, "%s is not a constant", e.Name)
			return constValue{}, false
		}
		return constValue{typ: k.Type, i: k.Int, r: k.Real, text: k.Text}, true
	case *syntax.Unary:
		if lit, isLit := e.Operand.(*syntax.IntLit); isLit && e.Op == syntax.MINUS {
			v, ok := c.parseInt(lit.Line, "-"+lit.Digits)
			return constValue{typ: types.Integer, i: v}, ok
		}
		v, ok := c.foldConst(e.Operand)
		if !ok {
			return v, false
		}
		if !v.typ.IsNumeric() {
			c.errorf(e.Line, "sign applied to %s constant", v.typ)
			return v, false
		}
		if e.Op == syntax.MINUS {
			v.i, v.r = -v.i, -v.r
		}
		return v, true
	}
	c.errorf(e.Pos(), "constant initializer must be a literal")
	return constValue{}, false
}

func (c *checker) constDecl(d *syntax.ConstDecl) *ast.Node {
	v, ok := c.foldConst(d.Value)
	if !ok {
		return nil
	}
	entry := &symtab.Constant{
		Info: symtab.Info{Name: d.Name, Line: d.Line, Type: v.typ},
		Int:  v.i,
		Real: v.r,
		Text: v.text,
	}
	if !c.declare(entry) {
		return nil
	}
	n := ast.New(ast.ConstDecl, v.typ, d.Line)
	n.Text = d.Name
	c.setPayload(n, entry)
	return n
}

// setPayload copies a constant's value into n. Strings are pooled and
// referenced by index; chars carry their code.
func (c *checker) setPayload(n *ast.Node, k *symtab.Constant) {
	switch k.Type {
	case types.Integer, types.Boolean, types.Char:
		n.Int = k.Int
	case types.Real:
		n.Real = k.Real
	case types.String:
		n.Int = int64(c.strs.Add(k.Text))
	}
}

// resolveType maps a type spec to a scalar type or an array shape.
func (c *checker) resolveType(spec *syntax.TypeSpec) (types.Type, *types.Shape, bool) {
	if !spec.IsArray() {
		t, ok := types.Lookup(spec.Name)
		if !ok {
			c.errorf(spec.Line, "unknown type %s", spec.Name)
			return types.NoType, nil, false
		}
		return t, nil, true
	}
	if len(spec.Ranges) != 1 || spec.Elem.IsArray() {
		c.errorf(spec.Line, "multidimensional arrays are not supported")
		return types.NoType, nil, false
	}
	elem, _, ok := c.resolveType(spec.Elem)
	if !ok {
		return types.NoType, nil, false
	}
	r := spec.Ranges[0]
	start, ok1 := c.bound(r.Lo)
	end, ok2 := c.bound(r.Hi)
	if !ok1 || !ok2 {
		return types.NoType, nil, false
	}
	if start > end {
		c.errorf(spec.Line, "invalid array range %d..%d: start exceeds end", start, end)
		return types.NoType, nil, false
	}
	return types.Array, &types.Shape{Elem: elem, Start: start, End: end}, true
}

// bound parses an array bound with its sign attached, so -2147483648 fits.
func (c *checker) bound(b syntax.Bound) (int, bool) {
	digits := b.Digits
	if b.Neg {
		digits = "-" + digits
	}
	v, ok := c.parseInt(b.Line, digits)
	return int(v), ok
}

func (c *checker) varDecl(d *syntax.VarDecl) []*ast.Node {
	t, shape, ok := c.resolveType(d.Type)
	if !ok {
		return nil
	}
	var out []*ast.Node
	for _, id := range d.Names {
		var entry symtab.Entry
		if shape != nil {
			entry = symtab.NewArray(id.Name, id.Line, shape.Elem, shape.Start, shape.End)
		} else {
			entry = &symtab.Variable{Info: symtab.Info{Name: id.Name, Line: id.Line, Type: t}}
		}
		if !c.declare(entry) {
			continue
		}
		n := ast.New(ast.VarDecl, t, id.Line)
		n.Text = id.Name
		if shape != nil {
			n.Append(rangeNode(*shape, id.Line))
		}
		out = append(out, n)
	}
	return out
}

func rangeNode(s types.Shape, line int) *ast.Node {
	lo := ast.New(ast.IntLit, types.Integer, line)
	lo.Int = int64(s.Start)
	hi := ast.New(ast.IntLit, types.Integer, line)
	hi.Int = int64(s.End)
	return ast.New(ast.Range, s.Elem, line, lo, hi)
}

// subDecl resolves the parameters, declares the subroutine in the enclosing
// scope, then checks the body in a fresh scope holding the parameters.
func (c *checker) subDecl(d *syntax.SubDecl) *ast.Node {
	var params []*symtab.Parameter
	plist := ast.New(ast.ParamList, types.NoType, d.Line)
	for _, g := range d.Params {
		t, shape, ok := c.resolveType(g.Type)
		if ok && shape != nil {
			c.errorf(g.Type.Line, "array parameters are not supported")
			ok = false
		}
		for _, id := range g.Names {
			if !ok {
				t = types.NoType
			}
			params = append(params, &symtab.Parameter{
				Info:  symtab.Info{Name: id.Name, Line: id.Line, Type: t},
				ByRef: g.ByRef,
			})
			p := ast.New(ast.Param, t, id.Line)
			p.Text = id.Name
			if g.ByRef {
				p.Int = 1
			}
			plist.Append(p)
		}
	}

	ret := types.NoType
	kind := ast.ProcDecl
	if d.IsFunction {
		kind = ast.FuncDecl
		if t, shape, ok := c.resolveType(d.Result); ok {
			if shape != nil {
				c.errorf(d.Result.Line, "function %s cannot return an array", d.Name)
			} else {
				ret = t
			}
		}
	}

	fn := &symtab.Function{
		Info:   symtab.Info{Name: d.Name, Line: d.Line, Type: ret},
		Return: ret,
		Params: params,
	}
	c.declare(fn)

	c.syms.OpenScope(d.Name)
	for _, p := range params {
		c.declare(p)
	}
	c.fn = fn
	body := c.block(d.Block)
	c.fn = nil
	c.syms.CloseScope()

	n := ast.New(kind, ret, d.Line, plist, body)
	n.Text = d.Name
	return n
}

func (c *checker) parseInt(line int, digits string) (int64, bool) {
	v, err := strconv.ParseInt(digits, 10, 32)
	if err != nil {
		c.errorf(line, "integer literal %s out of range", digits)
		return 0, false
	}
	return v, true
}

func (c *checker) parseReal(line int, text string) (float64, bool) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		c.errorf(line, "malformed real literal %s", text)
		return 0, false
	}
	return v, true
}
