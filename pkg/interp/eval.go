package interp

import (
	"fmt"

	"minipas/pkg/ast"
	"minipas/pkg/types"
)

func (ip *Interpreter) eval(n *ast.Node) (value, error) {
	switch n.Kind {
	case ast.IntLit:
		return intValue(types.Integer, int32(n.Int)), nil
	case ast.RealLit:
		return realValue(float32(n.Real)), nil
	case ast.BoolLit:
		return boolValue(n.Flag()), nil
	case ast.CharLit:
		return intValue(types.Char, int32(n.Int)), nil
	case ast.StrLit:
		return value{typ: types.String, s: n.Text}, nil
	case ast.ConstRef:
		return ip.constant(n)

	case ast.VarRef:
		c, err := ip.ref(n)
		if err != nil {
			return value{}, err
		}
		if !c.set {
			return value{}, runtimeErrorf(n.Line, Uninitialized, "variable %s read before assignment", n.Text)
		}
		return c.v, nil

	case ast.ArrayRef:
		c, err := ip.element(n)
		if err != nil {
			return value{}, err
		}
		if !c.set {
			return value{}, runtimeErrorf(n.Line, Uninitialized, "element of %s read before assignment", n.Text)
		}
		return c.v, nil

	case ast.FuncCall:
		var args []*ast.Node
		if list := n.Child(0); list != nil {
			args = list.Children
		}
		return ip.call(n, args)

	case ast.IntToReal:
		v, err := ip.eval(n.Child(0))
		if err != nil {
			return value{}, err
		}
		return realValue(float32(v.i)), nil

	case ast.Neg:
		v, err := ip.eval(n.Child(0))
		if err != nil {
			return value{}, err
		}
		if v.typ == types.Real {
			return realValue(-v.f), nil
		}
		return intValue(types.Integer, -v.i), nil

	case ast.Not:
		v, err := ip.eval(n.Child(0))
		if err != nil {
			return value{}, err
		}
		return boolValue(!v.truth()), nil
	}

	if n.Kind.IsBinary() {
		return ip.binary(n)
	}
	return value{}, fmt.Errorf("interp: unexpected %s expression at line %d", n.Kind, n.Line)
}

func (ip *Interpreter) constant(n *ast.Node) (value, error) {
	switch n.Type {
	case types.Real:
		return realValue(float32(n.Real)), nil
	case types.String:
		if n.Int < 0 || int(n.Int) >= len(ip.strs) {
			return value{}, fmt.Errorf("interp: constant %s has no pooled string", n.Text)
		}
		return value{typ: types.String, s: ip.strs[n.Int]}, nil
	}
	return intValue(n.Type, int32(n.Int)), nil
}

// binary evaluates both operands, left first. and/or do not short-circuit.
func (ip *Interpreter) binary(n *ast.Node) (value, error) {
	l, err := ip.eval(n.Child(0))
	if err != nil {
		return value{}, err
	}
	r, err := ip.eval(n.Child(1))
	if err != nil {
		return value{}, err
	}

	if n.Kind.IsRelational() {
		return boolValue(compare(n.Kind, l, r)), nil
	}

	switch n.Kind {
	case ast.And:
		return boolValue(l.truth() && r.truth()), nil
	case ast.Or:
		return boolValue(l.truth() || r.truth()), nil
	case ast.RealDiv:
		return realValue(l.f / r.f), nil
	case ast.IntDiv, ast.Mod:
		if r.i == 0 {
			op := "div"
			if n.Kind == ast.Mod {
				op = "mod"
			}
			return value{}, runtimeErrorf(n.Line, DivideByZero, "%s by zero", op)
		}
		if l.i == -1<<31 && r.i == -1 {
			if n.Kind == ast.Mod {
				return intValue(types.Integer, 0), nil
			}
			return intValue(types.Integer, l.i), nil
		}
		if n.Kind == ast.Mod {
			return intValue(types.Integer, l.i%r.i), nil
		}
		return intValue(types.Integer, l.i/r.i), nil
	}

	if n.Type == types.Real {
		switch n.Kind {
		case ast.Add:
			return realValue(l.f + r.f), nil
		case ast.Sub:
			return realValue(l.f - r.f), nil
		case ast.Mul:
			return realValue(l.f * r.f), nil
		}
	}
	switch n.Kind {
	case ast.Add:
		return intValue(types.Integer, l.i+r.i), nil
	case ast.Sub:
		return intValue(types.Integer, l.i-r.i), nil
	case ast.Mul:
		return intValue(types.Integer, l.i*r.i), nil
	}
	return value{}, fmt.Errorf("interp: unexpected operator %s at line %d", n.Kind, n.Line)
}

// compare applies a relational operator to two operands of the same type.
// Strings compare by text.
func compare(k ast.Kind, l, r value) bool {
	var c int
	switch l.typ {
	case types.Real:
		switch {
		case l.f < r.f:
			c = -1
		case l.f > r.f:
			c = 1
		case l.f != r.f: // NaN
			return k == ast.Ne
		}
	case types.String:
		switch {
		case l.s < r.s:
			c = -1
		case l.s > r.s:
			c = 1
		}
	default:
		switch {
		case l.i < r.i:
			c = -1
		case l.i > r.i:
			c = 1
		}
	}
	switch k {
	case ast.Eq:
		return c == 0
	case ast.Ne:
		return c != 0
	case ast.Lt:
		return c < 0
	case ast.Le:
		return c <= 0
	case ast.Gt:
		return c > 0
	}
	return c >= 0
}
