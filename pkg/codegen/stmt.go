package codegen

import (
	"fmt"

	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/types"
)

func (r *routine) genStmt(n *ast.Node) error {
	out := r.out
	switch n.Kind {
	case ast.Compound:
		for _, s := range n.Children {
			if err := r.genStmt(s); err != nil {
				return err
			}
		}

	case ast.Empty:

	case ast.Assign:
		target := n.Child(0)
		out.comment("line %d: %s :=", n.Line, target.Text)
		if err := r.genExpr(n.Child(1)); err != nil {
			return err
		}
		return r.genStore(target)

	case ast.If:
		elseLabel, endLabel := r.cg.newLabel(), r.cg.newLabel()
		if err := r.genCondition(n.Child(0), elseLabel); err != nil {
			return err
		}
		if err := r.genStmt(n.Child(1)); err != nil {
			return err
		}
		if n.Child(2) == nil {
			out.label(elseLabel)
			return nil
		}
		out.instr("j %s", endLabel)
		out.label(elseLabel)
		if err := r.genStmt(n.Child(2)); err != nil {
			return err
		}
		out.label(endLabel)

	case ast.While:
		top, end := r.cg.newLabel(), r.cg.newLabel()
		out.label(top)
		if err := r.genCondition(n.Child(0), end); err != nil {
			return err
		}
		if err := r.genStmt(n.Child(1)); err != nil {
			return err
		}
		out.instr("j %s", top)
		out.label(end)

	case ast.Repeat:
		top := r.cg.newLabel()
		out.label(top)
		if err := r.genStmt(n.Child(0)); err != nil {
			return err
		}
		return r.genCondition(n.Child(1), top)

	case ast.For:
		return r.genFor(n)

	case ast.ProcCall:
		switch n.Text {
		case "write", "writeln":
			return r.genWrite(n.Child(0).Children, n.Text == "writeln")
		case "read", "readln":
			return r.genRead(n.Child(0).Children)
		}
		out.comment("line %d: call %s", n.Line, n.Text)
		return r.genCall(n)

	default:
		return fmt.Errorf("codegen: unexpected %s statement at line %d", n.Kind, n.Line)
	}
	return nil
}

// genCondition evaluates a BOOLEAN and branches to target when it is false.
func (r *routine) genCondition(cond *ast.Node, target string) error {
	if err := r.genExpr(cond); err != nil {
		return err
	}
	r.pop("$t0", intSlot)
	r.out.instr("beqz $t0, %s", target)
	return nil
}

// genStore pops the value on top of the stack into target.
func (r *routine) genStore(target *ast.Node) error {
	s := slotOf(target.Type)
	op, reg := "sw", "$t0"
	if s == floatSlot {
		op, reg = "s.s", "$f0"
	}
	out := r.out

	switch target.Kind {
	case ast.ArrayRef:
		if err := r.genElementAddress(target); err != nil {
			return err
		}
		r.pop(reg, s)
		out.instr("%s %s, 0($t1)", op, reg)
	case ast.ResultRef:
		r.pop(reg, s)
		out.instr("%s %s, -4($fp)", op, reg)
	case ast.VarRef:
		loc, err := r.lookup(target.Text)
		if err != nil {
			return err
		}
		switch {
		case loc.global():
			r.pop(reg, s)
			out.instr("%s %s, %s", op, reg, loc.label)
		case loc.byRef:
			out.instr("lw $t1, %d($fp)", loc.offset)
			r.pop(reg, s)
			out.instr("%s %s, 0($t1)", op, reg)
		default:
			r.pop(reg, s)
			out.instr("%s %s, %d($fp)", op, reg, loc.offset)
		}
	default:
		return fmt.Errorf("codegen: cannot store into %s at line %d", target.Kind, target.Line)
	}
	return nil
}

// genFor keeps the limit on the stack for the whole loop and drops it on
// exit.
func (r *routine) genFor(n *ast.Node) error {
	ctrl, start, limit, body := n.Child(0), n.Child(1), n.Child(2), n.Child(3)
	if ctrl == nil || body == nil {
		return fmt.Errorf("codegen: malformed for loop at line %d", n.Line)
	}
	out := r.out
	test, step := "sgt", 1
	if n.Flag() {
		test, step = "slt", -1
	}
	top, end := r.cg.newLabel(), r.cg.newLabel()

	out.comment("line %d: for %s", n.Line, n.Text)
	if err := r.genExpr(start); err != nil {
		return err
	}
	if err := r.genStore(ctrl); err != nil {
		return err
	}
	if err := r.genExpr(limit); err != nil {
		return err
	}

	out.label(top)
	if err := r.genExpr(ctrl); err != nil {
		return err
	}
	r.pop("$t0", intSlot)
	out.instr("lw $t1, 0($sp)")
	out.instr("%s $t2, $t0, $t1", test)
	out.instr("bnez $t2, %s", end)

	if err := r.genStmt(body); err != nil {
		return err
	}

	if err := r.genExpr(ctrl); err != nil {
		return err
	}
	r.pop("$t0", intSlot)
	out.instr("addi $t0, $t0, %d", step)
	r.push("$t0", intSlot)
	if err := r.genStore(ctrl); err != nil {
		return err
	}
	out.instr("j %s", top)
	out.label(end)
	out.instr("addi $sp, $sp, 4")
	r.drop(intSlot)
	return nil
}

// genCall pushes the arguments right to left, calls, and releases the
// argument block. Function results are left in $v0 or $f0.
func (r *routine) genCall(n *ast.Node) error {
	entry, _ := r.cg.syms.Global().Lookup(n.Text)
	fn, ok := entry.(*symtab.Function)
	if !ok || fn.Builtin {
		return fmt.Errorf("codegen: %s is not a user subroutine", n.Text)
	}
	var args []*ast.Node
	if list := n.Child(0); list != nil {
		args = list.Children
	}
	if len(args) != len(fn.Params) {
		return fmt.Errorf("codegen: %s called with %d of %d arguments", n.Text, len(args), len(fn.Params))
	}

	for i := len(args) - 1; i >= 0; i-- {
		if fn.Params[i].ByRef {
			if err := r.genAddress(args[i]); err != nil {
				return err
			}
			r.push("$t1", intSlot)
			continue
		}
		if err := r.genExpr(args[i]); err != nil {
			return err
		}
	}
	r.out.instr("jal %s", subLabel(n.Text))
	if len(args) > 0 {
		r.out.instr("addi $sp, $sp, %d", 4*len(args))
		for i, a := range args {
			if fn.Params[i].ByRef {
				r.drop(intSlot)
			} else {
				r.drop(slotOf(a.Type))
			}
		}
	}
	return r.err
}

func (r *routine) syscall(code int) {
	r.out.instr("li $v0, %d", code)
	r.out.instr("syscall")
}

func (r *routine) genWrite(args []*ast.Node, newline bool) error {
	out := r.out
	for _, a := range args {
		if err := r.genExpr(a); err != nil {
			return err
		}
		switch a.Type {
		case types.Real:
			r.pop("$f12", floatSlot)
			r.syscall(2)
		case types.String:
			r.pop("$a0", intSlot)
			r.syscall(4)
		case types.Char:
			// The char word doubles as a one-character string.
			out.instr("move $a0, $sp")
			r.syscall(4)
			out.instr("addi $sp, $sp, 4")
			r.drop(intSlot)
		case types.Boolean:
			done := r.cg.newLabel()
			r.pop("$t0", intSlot)
			out.instr("la $a0, %s", falseLabel)
			out.instr("beqz $t0, %s", done)
			out.instr("la $a0, %s", trueLabel)
			out.label(done)
			r.syscall(4)
		default:
			r.pop("$a0", intSlot)
			r.syscall(1)
		}
	}
	if newline {
		out.instr("la $a0, %s", newlineLabel)
		r.syscall(4)
	}
	return r.err
}

// genRead computes each target address first, so the syscall result is not
// clobbered by index evaluation.
func (r *routine) genRead(args []*ast.Node) error {
	out := r.out
	for _, a := range args {
		if err := r.genAddress(a); err != nil {
			return err
		}
		r.push("$t1", intSlot)
		switch a.Type {
		case types.Real:
			r.syscall(6)
			r.pop("$t1", intSlot)
			out.instr("s.s $f0, 0($t1)")
			continue
		case types.Char:
			r.syscall(12)
		case types.Boolean:
			r.syscall(5)
			out.instr("sne $v0, $v0, $zero")
		default:
			r.syscall(5)
		}
		r.pop("$t1", intSlot)
		out.instr("sw $v0, 0($t1)")
	}
	return r.err
}
