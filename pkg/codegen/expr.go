package codegen

import (
	"fmt"

	"minipas/pkg/ast"
	"minipas/pkg/types"
)

// genExpr emits code that pushes the value of n.
func (r *routine) genExpr(n *ast.Node) error {
	depth := len(r.stack)
	if err := r.genValue(n); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	if len(r.stack) != depth+1 || r.stack[depth] != slotOf(n.Type) {
		return fmt.Errorf("codegen: %s at line %d left the operand stack unbalanced", n.Kind, n.Line)
	}
	return nil
}

func (r *routine) genValue(n *ast.Node) error {
	out := r.out
	switch n.Kind {
	case ast.IntLit, ast.BoolLit, ast.CharLit:
		out.instr("li $t0, %d", n.Int)
		r.push("$t0", intSlot)

	case ast.RealLit:
		out.instr("l.s $f0, %s", r.cg.floatLabel(n.Real))
		r.push("$f0", floatSlot)

	case ast.StrLit:
		out.instr("la $t0, %s", stringLabel(n.Int))
		r.push("$t0", intSlot)

	case ast.ConstRef, ast.VarRef:
		return r.genLoad(n)

	case ast.ArrayRef:
		if err := r.genElementAddress(n); err != nil {
			return err
		}
		if n.Type == types.Real {
			out.instr("l.s $f0, 0($t1)")
			r.push("$f0", floatSlot)
		} else {
			out.instr("lw $t0, 0($t1)")
			r.push("$t0", intSlot)
		}

	case ast.FuncCall:
		if err := r.genCall(n); err != nil {
			return err
		}
		if n.Type == types.Real {
			r.push("$f0", floatSlot)
		} else {
			r.push("$v0", intSlot)
		}

	case ast.IntToReal:
		if err := r.genExpr(n.Child(0)); err != nil {
			return err
		}
		r.pop("$t0", intSlot)
		out.instr("mtc1 $t0, $f0")
		out.instr("cvt.s.w $f0, $f0")
		r.push("$f0", floatSlot)

	case ast.Neg:
		if err := r.genExpr(n.Child(0)); err != nil {
			return err
		}
		if n.Type == types.Real {
			r.pop("$f0", floatSlot)
			out.instr("neg.s $f0, $f0")
			r.push("$f0", floatSlot)
		} else {
			r.pop("$t0", intSlot)
			out.instr("sub $t0, $zero, $t0")
			r.push("$t0", intSlot)
		}

	case ast.Not:
		if err := r.genExpr(n.Child(0)); err != nil {
			return err
		}
		r.pop("$t0", intSlot)
		out.instr("seq $t0, $t0, $zero")
		r.push("$t0", intSlot)

	default:
		if n.Kind.IsBinary() {
			return r.genBinary(n)
		}
		return fmt.Errorf("codegen: unexpected %s node at line %d", n.Kind, n.Line)
	}
	return nil
}

var intOps = map[ast.Kind]string{
	ast.Add: "add",
	ast.Sub: "sub",
	ast.Mul: "mul",
	ast.And: "and",
	ast.Or:  "or",
	ast.Eq:  "seq",
	ast.Ne:  "sne",
	ast.Lt:  "slt",
	ast.Le:  "sle",
	ast.Gt:  "sgt",
	ast.Ge:  "sge",
}

var floatOps = map[ast.Kind]string{
	ast.Add:     "add.s",
	ast.Sub:     "sub.s",
	ast.Mul:     "mul.s",
	ast.RealDiv: "div.s",
}

// floatCompare maps a relational kind to the compare instruction, whether
// the operands are swapped, and whether the flag is inverted.
var floatCompare = map[ast.Kind]struct {
	op      string
	swap    bool
	negated bool
}{
	ast.Eq: {"c.eq.s", false, false},
	ast.Ne: {"c.eq.s", false, true},
	ast.Lt: {"c.lt.s", false, false},
	ast.Le: {"c.le.s", false, false},
	ast.Gt: {"c.lt.s", true, false},
	ast.Ge: {"c.le.s", true, false},
}

// genBinary evaluates left then right; the right operand is popped first.
func (r *routine) genBinary(n *ast.Node) error {
	left, right := n.Child(0), n.Child(1)
	if left == nil || right == nil {
		return fmt.Errorf("codegen: %s at line %d needs two operands", n.Kind, n.Line)
	}
	if err := r.genExpr(left); err != nil {
		return err
	}
	if err := r.genExpr(right); err != nil {
		return err
	}
	out := r.out

	if left.Type == types.Real {
		r.pop("$f2", floatSlot)
		r.pop("$f0", floatSlot)
		if op, ok := floatOps[n.Kind]; ok {
			out.instr("%s $f0, $f0, $f2", op)
			r.push("$f0", floatSlot)
			return nil
		}
		cmp, ok := floatCompare[n.Kind]
		if !ok {
			return fmt.Errorf("codegen: %s not defined on REAL at line %d", n.Kind, n.Line)
		}
		if cmp.swap {
			out.instr("%s $f2, $f0", cmp.op)
		} else {
			out.instr("%s $f0, $f2", cmp.op)
		}
		set, clear := 1, 0
		if cmp.negated {
			set, clear = 0, 1
		}
		done := r.cg.newLabel()
		out.instr("li $t0, %d", set)
		out.instr("bc1t %s", done)
		out.instr("li $t0, %d", clear)
		out.label(done)
		r.push("$t0", intSlot)
		return nil
	}

	r.pop("$t1", intSlot)
	r.pop("$t0", intSlot)
	if left.Type == types.String && n.Kind.IsRelational() {
		r.genStringCompare()
	}
	switch n.Kind {
	case ast.IntDiv:
		out.instr("div $t0, $t1")
		out.instr("mflo $t0")
	case ast.Mod:
		out.instr("div $t0, $t1")
		out.instr("mfhi $t0")
	default:
		op, ok := intOps[n.Kind]
		if !ok {
			return fmt.Errorf("codegen: %s not defined on %s at line %d", n.Kind, left.Type, n.Line)
		}
		out.instr("%s $t0, $t0, $t1", op)
	}
	r.push("$t0", intSlot)
	return nil
}

// genStringCompare walks the strings addressed by $t0 and $t1 byte by byte
// and leaves the difference at the first mismatch (or the terminator) in $t0,
// so the relational set instruction can test it against $zero.
func (r *routine) genStringCompare() {
	out := r.out
	top, done := r.cg.newLabel(), r.cg.newLabel()
	out.label(top)
	out.instr("lbu $t2, 0($t0)")
	out.instr("lbu $t3, 0($t1)")
	out.instr("sub $t4, $t2, $t3")
	out.instr("bnez $t4, %s", done)
	out.instr("beqz $t2, %s", done)
	out.instr("addi $t0, $t0, 1")
	out.instr("addi $t1, $t1, 1")
	out.instr("j %s", top)
	out.label(done)
	out.instr("move $t0, $t4")
	out.instr("li $t1, 0")
}

// genLoad pushes the value of a constant or scalar variable.
func (r *routine) genLoad(n *ast.Node) error {
	loc, err := r.lookup(n.Text)
	if err != nil {
		return err
	}
	op, reg, s := "lw", "$t0", intSlot
	if n.Type == types.Real {
		op, reg, s = "l.s", "$f0", floatSlot
	}
	switch {
	case loc.global():
		r.out.instr("%s %s, %s", op, reg, loc.label)
	case loc.byRef:
		r.out.instr("lw $t1, %d($fp)", loc.offset)
		r.out.instr("%s %s, 0($t1)", op, reg)
	default:
		r.out.instr("%s %s, %d($fp)", op, reg, loc.offset)
	}
	r.push(reg, s)
	return nil
}

// genAddress leaves the address of a variable or array element in $t1.
func (r *routine) genAddress(n *ast.Node) error {
	if n.Kind == ast.ArrayRef {
		return r.genElementAddress(n)
	}
	if n.Kind == ast.ResultRef {
		r.out.instr("addi $t1, $fp, -4")
		return nil
	}
	loc, err := r.lookup(n.Text)
	if err != nil {
		return err
	}
	switch {
	case loc.global():
		r.out.instr("la $t1, %s", loc.label)
	case loc.byRef:
		r.out.instr("lw $t1, %d($fp)", loc.offset)
	default:
		r.out.instr("addi $t1, $fp, %d", loc.offset)
	}
	return nil
}

// genElementAddress computes base + (index - start) * 4 into $t1. No bounds
// check is made.
func (r *routine) genElementAddress(n *ast.Node) error {
	loc, err := r.lookup(n.Text)
	if err != nil {
		return err
	}
	if loc.shape == nil {
		return fmt.Errorf("codegen: %s is not an array", n.Text)
	}
	if err := r.genExpr(n.Child(0)); err != nil {
		return err
	}
	out := r.out
	r.pop("$t0", intSlot)
	if start := loc.shape.Start; start != 0 {
		out.instr("addi $t0, $t0, %d", -start)
	}
	out.instr("sll $t0, $t0, 2")
	if loc.global() {
		out.instr("la $t1, %s", loc.label)
	} else {
		out.instr("addi $t1, $fp, %d", loc.offset)
	}
	out.instr("add $t1, $t1, $t0")
	return nil
}
