package codegen

import (
	"fmt"
	"strings"

	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/types"
)

// location says where a name's storage lives.
type location struct {
	label  string // data label; empty for frame slots
	offset int    // $fp-relative offset of the slot or of element 0
	typ    types.Type
	byRef  bool         // the slot holds an address
	shape  *types.Shape // arrays only
}

func (l *location) global() bool { return l.label != "" }

// slot classifies an operand-stack entry.
type slot int

const (
	intSlot slot = iota
	floatSlot
)

func slotOf(t types.Type) slot {
	if t == types.Real {
		return floatSlot
	}
	return intSlot
}

func (s slot) String() string {
	if s == floatSlot {
		return "float"
	}
	return "int"
}

// routine generates the body of the main program or of one subroutine. It
// mirrors the runtime operand stack so imbalances are caught while
// generating rather than while running.
type routine struct {
	cg     *CodeGen
	out    *section
	name   string // empty for the main program
	fn     *symtab.Function
	locals map[string]*location
	next   int // offset of the next free local slot
	stack  []slot
	err    error
}

func newRoutine(cg *CodeGen, out *section, name string, fn *symtab.Function) *routine {
	return &routine{
		cg:     cg,
		out:    out,
		name:   name,
		fn:     fn,
		locals: make(map[string]*location),
		next:   -4,
	}
}

// frameSize is the number of bytes reserved below $fp for locals.
func (r *routine) frameSize() int {
	return -4 - r.next
}

func (r *routine) lookup(name string) (*location, error) {
	if loc, ok := r.locals[name]; ok {
		return loc, nil
	}
	if loc, ok := r.cg.globals[name]; ok {
		return loc, nil
	}
	return nil, fmt.Errorf("codegen: no storage for %s", name)
}

// declare lays out constants and variables. At program level they become
// data labels; inside a subroutine variables take frame slots and
// constants get their own data labels.
func (r *routine) declare(consts, vars *ast.Node) error {
	data := r.cg.data
	for _, c := range consts.Children {
		if c.Kind != ast.ConstDecl {
			return fmt.Errorf("codegen: unexpected %s in constant section", c.Kind)
		}
		label := globalLabel(c.Text)
		if r.name != "" {
			label = localConstLabel(r.name, c.Text)
		}
		switch c.Type {
		case types.Real:
			data.line("%s: .float %s", label, floatText(float32(c.Real)))
		case types.String:
			data.line("%s: .word %s", label, stringLabel(c.Int))
		default:
			data.line("%s: .word %d", label, c.Int)
		}
		r.bind(c.Text, &location{label: label, typ: c.Type})
	}

	for _, v := range vars.Children {
		if v.Kind != ast.VarDecl {
			return fmt.Errorf("codegen: unexpected %s in variable section", v.Kind)
		}
		loc := &location{typ: v.Type}
		count := 1
		elem := v.Type
		if v.Type == types.Array {
			rng := v.Child(0)
			if rng == nil || rng.Kind != ast.Range {
				return fmt.Errorf("codegen: array %s has no range", v.Text)
			}
			shape := types.Shape{Elem: rng.Type, Start: int(rng.Child(0).Int), End: int(rng.Child(1).Int)}
			loc.shape = &shape
			count = shape.Size()
			elem = shape.Elem
		}

		if r.name == "" {
			loc.label = globalLabel(v.Text)
			zero := "0"
			directive := ".word"
			if elem == types.Real {
				zero, directive = "0.0", ".float"
			}
			data.line("%s: %s %s", loc.label, directive, strings.TrimSuffix(strings.Repeat(zero+", ", count), ", "))
		} else {
			loc.offset = r.next - 4*(count-1)
			r.next = loc.offset - 4
		}
		r.bind(v.Text, loc)
	}
	return nil
}

func (r *routine) bind(name string, loc *location) {
	if r.name == "" {
		r.cg.globals[name] = loc
		return
	}
	r.locals[name] = loc
}

// push stores a register onto the runtime stack.
func (r *routine) push(reg string, s slot) {
	r.out.instr("addi $sp, $sp, -4")
	if s == floatSlot {
		r.out.instr("s.s %s, 0($sp)", reg)
	} else {
		r.out.instr("sw %s, 0($sp)", reg)
	}
	r.stack = append(r.stack, s)
}

// pop loads the top of the runtime stack into reg.
func (r *routine) pop(reg string, s slot) {
	if s == floatSlot {
		r.out.instr("l.s %s, 0($sp)", reg)
	} else {
		r.out.instr("lw %s, 0($sp)", reg)
	}
	r.out.instr("addi $sp, $sp, 4")
	r.drop(s)
}

// drop records that the top slot has been released.
func (r *routine) drop(s slot) {
	if len(r.stack) == 0 {
		r.fail("codegen: pop from empty operand stack")
		return
	}
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	if top != s {
		r.fail(fmt.Sprintf("codegen: popped %s slot, top was %s", s, top))
	}
}

func (r *routine) fail(msg string) {
	if r.err == nil {
		r.err = fmt.Errorf("%s", msg)
	}
}

// balanced reports an error unless the operand stack is empty.
func (r *routine) balanced() error {
	if r.err != nil {
		return r.err
	}
	if len(r.stack) != 0 {
		return fmt.Errorf("codegen: %d operand slot(s) left on the stack", len(r.stack))
	}
	return nil
}
