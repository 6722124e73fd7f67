// Package codegen lowers a checked AST to assembly text for a 32-bit
// load/store machine with MIPS register names and syscalls.
//
// Every expression leaves exactly one 4-byte slot on the runtime stack.
// Integer-class values (INTEGER, BOOLEAN, CHAR codes, STRING addresses) go
// through $t0/$t1; REAL values go through $f0/$f2. Subroutines use a frame
// pointer: saved $fp at 0($fp), saved $ra at 4($fp), parameters from 8($fp)
// upward and locals from -4($fp) downward.
package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/types"
)

// Label conventions.
const (
	mainLabel    = "main"
	exitLabel    = "main_exit"
	newlineLabel = "newline"
	trueLabel    = "bool_true"
	falseLabel   = "bool_false"
)

func globalLabel(name string) string { return "g_" + name }

// Subroutine names have every '_' doubled, so the single '_' before "end"
// can never come from an identifier: foo_end's entry is sub_foo__end, while
// foo's end label is sub_foo_end.
func subLabel(name string) string    { return "sub_" + mangle(name) }
func subEndLabel(name string) string { return "sub_" + mangle(name) + "_end" }

// Identifiers cannot contain '.', so it separates the subroutine and constant.
func localConstLabel(sub, name string) string { return "c_" + sub + "." + name }

func mangle(name string) string { return strings.ReplaceAll(name, "_", "__") }
func stringLabel(i int64) string { return fmt.Sprintf("str_%d", i) }

// section is a named run of output lines. Sections are filled independently
// and spliced in a fixed order at the end.
type section struct {
	name string
	out  strings.Builder
}

func (s *section) line(format string, args ...any) {
	fmt.Fprintf(&s.out, format+"\n", args...)
}

func (s *section) instr(format string, args ...any) {
	s.out.WriteString("    ")
	s.line(format, args...)
}

func (s *section) label(l string) {
	s.line("%s:", l)
}

func (s *section) comment(format string, args ...any) {
	s.instr("# "+format, args...)
}

// CodeGen holds the state shared by every routine of one program.
type CodeGen struct {
	syms      *symtab.Table
	strs      *symtab.StringTable
	data      *section // storage, appended to as constants are discovered
	main      *section
	subs      *section
	globals   map[string]*location
	floats    map[uint32]string
	nextLabel int
}

func newCodeGen(syms *symtab.Table, strs *symtab.StringTable) *CodeGen {
	return &CodeGen{
		syms:    syms,
		strs:    strs,
		data:    &section{name: "data"},
		main:    &section{name: "main"},
		subs:    &section{name: "subroutines"},
		globals: make(map[string]*location),
		floats:  make(map[uint32]string),
	}
}

func (cg *CodeGen) newLabel() string {
	l := fmt.Sprintf("L%d", cg.nextLabel)
	cg.nextLabel++
	return l
}

// floatLabel pools a real constant in the data section.
func (cg *CodeGen) floatLabel(v float64) string {
	f := float32(v)
	key := math.Float32bits(f)
	if l, ok := cg.floats[key]; ok {
		return l
	}
	l := fmt.Sprintf("flt_%d", len(cg.floats))
	cg.floats[key] = l
	cg.data.line("%s: .float %s", l, floatText(f))
	return l
}

func floatText(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// escape renders s as the body of an .asciiz literal.
func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}

// Generate lowers prog to assembly text. prog must come from a check pass
// that reported no diagnostics; syms supplies the subroutine signatures and
// strs the pooled literals.
func Generate(prog *ast.Node, syms *symtab.Table, strs *symtab.StringTable) (string, error) {
	if prog == nil || prog.Kind != ast.Program {
		return "", fmt.Errorf("codegen: expected a Program node")
	}
	block := prog.Child(0)
	if block == nil || block.Kind != ast.Block || len(block.Children) != 4 {
		return "", fmt.Errorf("codegen: malformed program block")
	}
	cg := newCodeGen(syms, strs)

	cg.data.line("%s: .asciiz \"\\n\"", newlineLabel)
	cg.data.line("%s: .asciiz \"TRUE\"", trueLabel)
	cg.data.line("%s: .asciiz \"FALSE\"", falseLabel)
	for i, s := range strs.Values() {
		cg.data.line("%s: .asciiz \"%s\"", stringLabel(int64(i)), escape(s))
	}

	// 1. Global storage, so every routine can address it by label.
	top := newRoutine(cg, cg.main, "", nil)
	if err := top.declare(block.Child(0), block.Child(1)); err != nil {
		return "", err
	}

	// 2. Subroutine bodies, out of line.
	for _, sub := range block.Child(2).Children {
		if err := cg.genSubroutine(sub); err != nil {
			return "", err
		}
	}

	// 3. Main body.
	cg.main.label(mainLabel)
	cg.main.instr("move $fp, $sp")
	if err := top.genStmt(block.Child(3)); err != nil {
		return "", err
	}
	if err := top.balanced(); err != nil {
		return "", err
	}
	cg.main.instr("j %s", exitLabel)

	var out strings.Builder
	out.WriteString(".data\n")
	out.WriteString(cg.data.out.String())
	out.WriteString("\n.text\n.globl main\n")
	out.WriteString(cg.main.out.String())
	out.WriteString(cg.subs.out.String())
	fmt.Fprintf(&out, "%s:\n    li $v0, 10\n    syscall\n", exitLabel)
	return out.String(), nil
}

// genSubroutine emits one procedure or function into the subroutine section.
func (cg *CodeGen) genSubroutine(n *ast.Node) error {
	if n.Kind != ast.ProcDecl && n.Kind != ast.FuncDecl {
		return fmt.Errorf("codegen: unexpected %s in subroutine section", n.Kind)
	}
	entry, ok := cg.syms.Global().Lookup(n.Text)
	fn, isFn := entry.(*symtab.Function)
	if !ok || !isFn {
		return fmt.Errorf("codegen: no signature for subroutine %s", n.Text)
	}
	body := n.Child(1)
	if body == nil || body.Kind != ast.Block || len(body.Children) != 4 {
		return fmt.Errorf("codegen: malformed body for %s", n.Text)
	}

	r := newRoutine(cg, cg.subs, n.Text, fn)
	for i, p := range n.Child(0).Children {
		r.locals[p.Text] = &location{offset: 8 + 4*i, typ: p.Type, byRef: p.Flag()}
	}
	if !fn.IsProcedure() {
		r.next -= 4 // result cell at -4($fp)
	}
	if err := r.declare(body.Child(0), body.Child(1)); err != nil {
		return err
	}

	out := cg.subs
	out.line("")
	out.label(subLabel(n.Text))
	out.instr("addi $sp, $sp, -8")
	out.instr("sw $ra, 4($sp)")
	out.instr("sw $fp, 0($sp)")
	out.instr("move $fp, $sp")
	if size := r.frameSize(); size > 0 {
		out.instr("addi $sp, $sp, -%d", size)
	}

	if err := r.genStmt(body.Child(3)); err != nil {
		return err
	}
	if err := r.balanced(); err != nil {
		return err
	}

	out.label(subEndLabel(n.Text))
	switch {
	case fn.Return == types.Real:
		out.instr("l.s $f0, -4($fp)")
	case !fn.IsProcedure():
		out.instr("lw $v0, -4($fp)")
	}
	out.instr("move $sp, $fp")
	out.instr("lw $fp, 0($sp)")
	out.instr("lw $ra, 4($sp)")
	out.instr("addi $sp, $sp, 8")
	out.instr("jr $ra")
	return nil
}
