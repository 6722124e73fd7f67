package interp

import (
	"fmt"

	"minipas/pkg/ast"
	"minipas/pkg/types"
)

func (ip *Interpreter) exec(n *ast.Node) error {
	ip.trace(n)
	switch n.Kind {
	case ast.Compound:
		for _, s := range n.Children {
			if err := ip.exec(s); err != nil {
				return err
			}
		}
		return nil

	case ast.Empty:
		return nil

	case ast.Assign:
		v, err := ip.eval(n.Child(1))
		if err != nil {
			return err
		}
		c, err := ip.ref(n.Child(0))
		if err != nil {
			return err
		}
		c.v, c.set = v, true
		return nil

	case ast.If:
		cond, err := ip.eval(n.Child(0))
		if err != nil {
			return err
		}
		if cond.truth() {
			return ip.exec(n.Child(1))
		}
		if els := n.Child(2); els != nil {
			return ip.exec(els)
		}
		return nil

	case ast.While:
		for count := 0; ; count++ {
			cond, err := ip.eval(n.Child(0))
			if err != nil {
				return err
			}
			if !cond.truth() {
				return nil
			}
			if err := ip.checkLoop(n, count); err != nil {
				return err
			}
			if err := ip.exec(n.Child(1)); err != nil {
				return err
			}
		}

	case ast.Repeat:
		for count := 0; ; count++ {
			if err := ip.checkLoop(n, count); err != nil {
				return err
			}
			if err := ip.exec(n.Child(0)); err != nil {
				return err
			}
			cond, err := ip.eval(n.Child(1))
			if err != nil {
				return err
			}
			if cond.truth() {
				return nil
			}
		}

	case ast.For:
		return ip.execFor(n)

	case ast.ProcCall:
		var args []*ast.Node
		if list := n.Child(0); list != nil {
			args = list.Children
		}
		switch n.Text {
		case "write", "writeln":
			return ip.write(args, n.Text == "writeln")
		case "read", "readln":
			return ip.read(n, args, n.Text == "readln")
		}
		_, err := ip.call(n, args)
		return err
	}
	return fmt.Errorf("interp: unexpected %s statement at line %d", n.Kind, n.Line)
}

func (ip *Interpreter) checkLoop(n *ast.Node, count int) error {
	if max := ip.cfg.MaxLoopIterations; max > 0 && count >= max {
		return runtimeErrorf(n.Line, LoopLimit, "%s loop exceeded %d iterations", loopName(n.Kind), max)
	}
	return nil
}

func loopName(k ast.Kind) string {
	switch k {
	case ast.While:
		return "while"
	case ast.Repeat:
		return "repeat"
	}
	return "for"
}

// execFor evaluates the limit once. The control variable is stepped after
// each pass and is left one past the limit on exit.
func (ip *Interpreter) execFor(n *ast.Node) error {
	start, err := ip.eval(n.Child(1))
	if err != nil {
		return err
	}
	ctrl, err := ip.ref(n.Child(0))
	if err != nil {
		return err
	}
	ctrl.v, ctrl.set = start, true
	limit, err := ip.eval(n.Child(2))
	if err != nil {
		return err
	}
	step := int32(1)
	if n.Flag() {
		step = -1
	}

	for count := 0; ; count++ {
		if (step > 0 && ctrl.v.i > limit.i) || (step < 0 && ctrl.v.i < limit.i) {
			return nil
		}
		if err := ip.checkLoop(n, count); err != nil {
			return err
		}
		if err := ip.exec(n.Child(3)); err != nil {
			return err
		}
		ctrl.v = intValue(types.Integer, ctrl.v.i+step)
	}
}

// ref resolves an assignable node to its storage cell.
func (ip *Interpreter) ref(n *ast.Node) (*cell, error) {
	switch n.Kind {
	case ast.VarRef:
		c, ok := ip.variable(n.Text)
		if !ok {
			return nil, fmt.Errorf("interp: no storage for %s at line %d", n.Text, n.Line)
		}
		return c, nil
	case ast.ResultRef:
		if ip.cur.result == nil || ip.cur.name != n.Text {
			return nil, fmt.Errorf("interp: result of %s assigned outside its body at line %d", n.Text, n.Line)
		}
		return ip.cur.result, nil
	case ast.ArrayRef:
		return ip.element(n)
	}
	return nil, fmt.Errorf("interp: %s is not assignable at line %d", n.Kind, n.Line)
}

// element evaluates the index of an ArrayRef and checks it against the
// declared range.
func (ip *Interpreter) element(n *ast.Node) (*cell, error) {
	arr, ok := ip.array(n.Text)
	if !ok {
		return nil, fmt.Errorf("interp: no array %s at line %d", n.Text, n.Line)
	}
	idx, err := ip.eval(n.Child(0))
	if err != nil {
		return nil, err
	}
	i := int(idx.i)
	if !arr.shape.Contains(i) {
		return nil, runtimeErrorf(n.Line, Bounds, "index %d out of bounds for %s[%d..%d]", i, n.Text, arr.shape.Start, arr.shape.End)
	}
	return &arr.cells[i-arr.shape.Start], nil
}

// call runs a user subroutine. Arguments are evaluated right to left, the
// order the generated code pushes them.
func (ip *Interpreter) call(n *ast.Node, args []*ast.Node) (value, error) {
	sub, ok := ip.subs[n.Text]
	if !ok {
		return value{}, fmt.Errorf("interp: unknown subroutine %s at line %d", n.Text, n.Line)
	}
	params := sub.Child(0).Children
	if len(args) != len(params) {
		return value{}, fmt.Errorf("interp: %s called with %d of %d arguments", n.Text, len(args), len(params))
	}
	if max := ip.cfg.MaxCallDepth; max > 0 && ip.depth >= max {
		return value{}, runtimeErrorf(n.Line, CallDepth, "call depth exceeded %d calling %s", max, n.Text)
	}

	fr := newFrame(sub.Text, sub)
	for i := len(args) - 1; i >= 0; i-- {
		p := params[i]
		if p.Flag() {
			c, err := ip.ref(args[i])
			if err != nil {
				return value{}, err
			}
			fr.vars[p.Text] = c
			continue
		}
		v, err := ip.eval(args[i])
		if err != nil {
			return value{}, err
		}
		fr.vars[p.Text] = &cell{v: v, set: true}
	}
	if sub.Kind == ast.FuncDecl {
		fr.result = &cell{}
	}

	caller := ip.cur
	ip.cur = fr
	ip.depth++
	defer func() {
		ip.cur = caller
		ip.depth--
	}()

	body := sub.Child(1)
	if err := ip.declare(body); err != nil {
		return value{}, err
	}
	if err := ip.exec(body.Child(3)); err != nil {
		return value{}, err
	}
	if fr.result == nil {
		return value{}, nil
	}
	if !fr.result.set {
		return value{}, runtimeErrorf(n.Line, Uninitialized, "function %s returned without assigning its result", n.Text)
	}
	return fr.result.v, nil
}
