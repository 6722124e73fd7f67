package codegen

import (
	"strings"
	"testing"

	"minipas/pkg/ast"
	"minipas/pkg/check"
	"minipas/pkg/symtab"
	"minipas/pkg/syntax"
	"minipas/pkg/types"
)

// assertContains checks if the generated code contains the expected substring.
func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

func assertNotContains(t *testing.T, code, unexpected string) {
	t.Helper()
	if strings.Contains(code, unexpected) {
		t.Errorf("Expected code NOT to contain %q, but it did.\nCode:\n%s", unexpected, code)
	}
}

func generate(t *testing.T, src string) string {
	t.Helper()
	prog, err := syntax.ParseSource(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	res := check.Check(prog)
	if err := res.Err(); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	code, err := Generate(res.Program, res.Symbols, res.Strings)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return code
}

func TestGenerate_Layout(t *testing.T) {
	code := generate(t, "program p;\nbegin writeln('hi there') end.")

	if !strings.HasPrefix(code, ".data\nnewline: .asciiz \"\\n\"\n") {
		t.Errorf("unexpected preamble:\n%s", code)
	}
	assertContains(t, code, `str_0: .asciiz "hi there"`)
	assertContains(t, code, ".text\n.globl main\nmain:\n    move $fp, $sp\n")
	assertContains(t, code, "    j main_exit\n")
	if !strings.HasSuffix(code, "main_exit:\n    li $v0, 10\n    syscall\n") {
		t.Errorf("program does not end with the exit syscall:\n%s", code)
	}
}

func TestGenerate_GlobalScalar(t *testing.T) {
	code := generate(t, `program p;
var x: integer;
begin
  x := 5;
  writeln(x)
end.`)

	assertContains(t, code, "g_x: .word 0")
	assertContains(t, code, "li $t0, 5")
	assertContains(t, code, "sw $t0, g_x")
	assertContains(t, code, "lw $t0, g_x")
	assertContains(t, code, "lw $a0, 0($sp)")
	assertContains(t, code, "li $v0, 1\n    syscall")
	assertContains(t, code, "la $a0, newline")
}

func TestGenerate_GlobalStorage(t *testing.T) {
	code := generate(t, `program p;
const n = 7; e = 2.5; s = 'abc'; c = 'z';
var r: real; a: array[1..3] of integer; f: array[0..1] of real; b: boolean;
begin end.`)

	assertContains(t, code, "g_n: .word 7")
	assertContains(t, code, "g_e: .float 2.5")
	assertContains(t, code, "g_s: .word str_0")
	assertContains(t, code, "g_c: .word 122")
	assertContains(t, code, "g_r: .float 0.0")
	assertContains(t, code, "g_a: .word 0, 0, 0")
	assertContains(t, code, "g_f: .float 0.0, 0.0")
	assertContains(t, code, "g_b: .word 0")
}

func TestGenerate_ArrayAddressing(t *testing.T) {
	code := generate(t, `program p;
var a: array[1..5] of integer;
begin a[10] := 1 end.`)

	// Index, rebase by the start index, scale, add the base. No bounds check.
	assertContains(t, code, "li $t0, 10")
	assertContains(t, code, "addi $t0, $t0, -1\n    sll $t0, $t0, 2\n    la $t1, g_a\n    add $t1, $t1, $t0")
	assertContains(t, code, "sw $t0, 0($t1)")
	assertNotContains(t, code, "slt")
	assertNotContains(t, code, "sgt")

	code = generate(t, "var z: array[0..3] of real;\nbegin z[2] := z[1] end.")
	assertNotContains(t, code, "addi $t0, $t0, 0")
	assertContains(t, code, "l.s $f0, 0($t1)")
	assertContains(t, code, "s.s $f0, 0($t1)")
}

func TestGenerate_Arithmetic(t *testing.T) {
	code := generate(t, `var i, j: integer; r: real; b: boolean;
begin
  i := i div j;
  j := i mod 3;
  r := i * r;
  b := r >= i;
  b := not b;
  i := -i
end.`)

	assertContains(t, code, "div $t0, $t1\n    mflo $t0")
	assertContains(t, code, "div $t0, $t1\n    mfhi $t0")
	assertContains(t, code, "mtc1 $t0, $f0\n    cvt.s.w $f0, $f0")
	assertContains(t, code, "mul.s $f0, $f0, $f2")
	// r >= i swaps the operands of c.le.s.
	assertContains(t, code, "c.le.s $f2, $f0\n    li $t0, 1\n    bc1t")
	assertContains(t, code, "seq $t0, $t0, $zero")
	assertContains(t, code, "sub $t0, $zero, $t0")
	// The right operand is popped first.
	assertContains(t, code, "lw $t1, 0($sp)\n    addi $sp, $sp, 4\n    lw $t0, 0($sp)")
}

func TestGenerate_Subroutines(t *testing.T) {
	code := generate(t, `program p;
var g: integer;
function add(var acc: integer; step: integer): integer;
var tmp: integer; buf: array[1..3] of integer;
begin
  tmp := acc + step;
  buf[2] := tmp;
  acc := tmp;
  add := tmp
end;
procedure hello;
begin writeln('hello') end;
begin
  g := add(g, 2);
  hello
end.`)

	t.Run("prologue", func(t *testing.T) {
		assertContains(t, code, "sub_add:\n    addi $sp, $sp, -8\n    sw $ra, 4($sp)\n    sw $fp, 0($sp)\n    move $fp, $sp\n    addi $sp, $sp, -20\n")
		assertContains(t, code, "sub_hello:\n    addi $sp, $sp, -8\n    sw $ra, 4($sp)\n    sw $fp, 0($sp)\n    move $fp, $sp\n    la")
	})
	t.Run("frame offsets", func(t *testing.T) {
		// result -4, tmp -8, buf -20..-12
		assertContains(t, code, "sw $t0, -8($fp)")
		assertContains(t, code, "addi $t1, $fp, -20")
		// acc is by reference at 8($fp); step by value at 12($fp).
		assertContains(t, code, "lw $t1, 8($fp)\n    lw $t0, 0($t1)")
		assertContains(t, code, "lw $t0, 12($fp)")
		assertContains(t, code, "sw $t0, -4($fp)")
	})
	t.Run("epilogue", func(t *testing.T) {
		assertContains(t, code, "sub_add_end:\n    lw $v0, -4($fp)\n    move $sp, $fp\n    lw $fp, 0($sp)\n    lw $ra, 4($sp)\n    addi $sp, $sp, 8\n    jr $ra")
		assertContains(t, code, "sub_hello_end:\n    move $sp, $fp")
	})
	t.Run("call site", func(t *testing.T) {
		// step pushed first, then the address of g.
		assertContains(t, code, "li $t0, 2\n    addi $sp, $sp, -4\n    sw $t0, 0($sp)\n    la $t1, g_g\n    addi $sp, $sp, -4\n    sw $t1, 0($sp)\n    jal sub_add\n    addi $sp, $sp, 8\n    addi $sp, $sp, -4\n    sw $v0, 0($sp)")
		assertContains(t, code, "jal sub_hello\n")
	})
	t.Run("subroutines follow main", func(t *testing.T) {
		mainAt := strings.Index(code, "main:")
		jumpAt := strings.Index(code, "j main_exit")
		subAt := strings.Index(code, "sub_add:")
		exitAt := strings.Index(code, "main_exit:")
		if !(mainAt < jumpAt && jumpAt < subAt && subAt < exitAt) {
			t.Errorf("unexpected section order: main %d, jump %d, sub %d, exit %d", mainAt, jumpAt, subAt, exitAt)
		}
	})
}

func TestGenerate_RealFunction(t *testing.T) {
	code := generate(t, `function half(x: real): real;
const k = 2;
begin half := x / k end;
var r: real;
begin r := half(3) end.`)
	assertContains(t, code, "c_half.k: .word 2")
	assertContains(t, code, "lw $t0, c_half.k")
	assertContains(t, code, "s.s $f0, -4($fp)")
	assertContains(t, code, "sub_half_end:\n    l.s $f0, -4($fp)")
	assertContains(t, code, "jal sub_half\n    addi $sp, $sp, 4\n    addi $sp, $sp, -4\n    s.s $f0, 0($sp)")
}

func TestGenerate_StringComparison(t *testing.T) {
	code := generate(t, `var s: string; b: boolean;
begin s := 'zz'; b := s < 'aa' end.`)
	assertContains(t, code, "lbu $t2, 0($t0)\n    lbu $t3, 0($t1)\n    sub $t4, $t2, $t3\n")
	assertContains(t, code, "move $t0, $t4\n    li $t1, 0\n    slt $t0, $t0, $t1\n")

	// Characters are plain codes and need no loop.
	code = generate(t, `var c: char; b: boolean;
begin c := 'z'; b := c < 'a' end.`)
	assertNotContains(t, code, "lbu")
}

func TestGenerate_SubroutineLabelsDoNotCollide(t *testing.T) {
	code := generate(t, `program labels;
procedure foo;
const b_c = 1;
begin writeln(b_c) end;
procedure foo_end;
begin writeln('x') end;
procedure a_b;
const c = 2;
begin writeln(c) end;
procedure a;
const b_c = 3;
begin writeln(b_c) end;
begin foo; foo_end; a_b; a end.`)

	assertContains(t, code, "sub_foo:\n")
	assertContains(t, code, "sub_foo_end:\n")
	assertContains(t, code, "sub_foo__end:\n")
	assertContains(t, code, "sub_foo__end_end:\n")
	assertContains(t, code, "jal sub_foo__end\n")
	assertContains(t, code, "c_a_b.c: .word 2")
	assertContains(t, code, "c_a.b_c: .word 3")

	seen := map[string]bool{}
	for _, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(line, " ") || !strings.Contains(line, ":") {
			continue
		}
		label := line[:strings.Index(line, ":")]
		if seen[label] {
			t.Errorf("label %s defined twice", label)
		}
		seen[label] = true
	}
}

func TestGenerate_ControlFlow(t *testing.T) {
	code := generate(t, `var i, s: integer;
begin
  for i := 1 to 3 do s := s + i;
  for i := 3 downto 1 do s := s - i;
  while s > 0 do s := s - 1;
  repeat s := s + 1 until s = 2;
  if s = 2 then writeln('two') else writeln('other')
end.`)
	assertContains(t, code, "sgt $t2, $t0, $t1")
	assertContains(t, code, "slt $t2, $t0, $t1")
	assertContains(t, code, "addi $t0, $t0, 1")
	assertContains(t, code, "addi $t0, $t0, -1")
	assertContains(t, code, "beqz $t0, L")
	assertContains(t, code, "bnez $t2, L")
}

func TestGenerate_WriteAndRead(t *testing.T) {
	code := generate(t, `var c: char; r: real; b: boolean; i: integer;
begin
  read(i, r, c, b);
  write(c, r, b, 'str')
end.`)
	assertContains(t, code, "li $v0, 5")
	assertContains(t, code, "li $v0, 6\n    syscall")
	assertContains(t, code, "li $v0, 12")
	assertContains(t, code, "sne $v0, $v0, $zero")
	assertContains(t, code, "move $a0, $sp\n    li $v0, 4\n    syscall\n    addi $sp, $sp, 4")
	assertContains(t, code, "l.s $f12, 0($sp)")
	assertContains(t, code, "la $a0, bool_false")
	assertContains(t, code, "la $a0, bool_true")
	assertNotContains(t, code, "la $a0, newline")
}

func TestGenerate_FloatPool(t *testing.T) {
	code := generate(t, "var r: real;\nbegin r := 1.5 + 1.5 * 0.25 end.")
	assertContains(t, code, "flt_0: .float 1.5")
	assertContains(t, code, "flt_1: .float 0.25")
	assertNotContains(t, code, "flt_2")
	assertContains(t, code, "l.s $f0, flt_0")
}

func TestGenerate_StringEscapes(t *testing.T) {
	code := generate(t, `begin writeln('say "it''s"') end.`)
	assertContains(t, code, `str_0: .asciiz "say \"it's\""`)
}

// Every value-producing node must leave exactly one slot of its class.
func TestGenerate_StackBalance(t *testing.T) {
	lit := func(v int64) *ast.Node {
		n := ast.New(ast.IntLit, types.Integer, 1)
		n.Int = v
		return n
	}
	half := ast.New(ast.RealLit, types.Real, 1)
	half.Real = 2.5

	exprs := []*ast.Node{
		lit(1),
		ast.New(ast.Add, types.Integer, 1, lit(1), lit(2)),
		ast.New(ast.IntDiv, types.Integer, 1, lit(7), ast.New(ast.Neg, types.Integer, 1, lit(2))),
		ast.New(ast.Mul, types.Real, 1, ast.Widen(lit(3), types.Real), half),
		ast.New(ast.Ge, types.Boolean, 1, half, ast.Widen(lit(3), types.Real)),
		ast.New(ast.Ne, types.Boolean, 1, half, half),
		ast.New(ast.Not, types.Boolean, 1, ast.New(ast.Lt, types.Boolean, 1, lit(1), lit(2))),
		ast.New(ast.Neg, types.Real, 1, half),
	}
	for _, e := range exprs {
		t.Run(e.Kind.String(), func(t *testing.T) {
			cg := newCodeGen(symtab.New(), symtab.NewStringTable())
			r := newRoutine(cg, cg.main, "", nil)
			if err := r.genExpr(e); err != nil {
				t.Fatalf("genExpr failed: %v", err)
			}
			if len(r.stack) != 1 || r.stack[0] != slotOf(e.Type) {
				t.Errorf("operand stack after %s = %v, want one %s slot", e.Kind, r.stack, slotOf(e.Type))
			}
		})
	}
}

func TestGenerate_MalformedTree(t *testing.T) {
	cg := newCodeGen(symtab.New(), symtab.NewStringTable())
	r := newRoutine(cg, cg.main, "", nil)
	bad := ast.New(ast.Add, types.Integer, 3, ast.New(ast.IntLit, types.Integer, 3))
	if err := r.genExpr(bad); err == nil {
		t.Error("expected an error for an operator with one operand")
	}

	if _, err := Generate(ast.New(ast.Block, types.NoType, 1), symtab.New(), symtab.NewStringTable()); err == nil {
		t.Error("expected an error for a non-program root")
	}
}
