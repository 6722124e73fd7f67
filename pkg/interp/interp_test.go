package interp

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/pkg/errors"

	"minipas/pkg/check"
	"minipas/pkg/syntax"
)

// interpret parses, checks and runs src with the given input and returns
// everything written to the output.
func interpret(t *testing.T, src, input string) (string, error) {
	t.Helper()
	return interpretWith(t, src, Config{In: strings.NewReader(input), MaxLoopIterations: 10_000, MaxCallDepth: 500})
}

func interpretWith(t *testing.T, src string, cfg Config) (string, error) {
	t.Helper()
	prog, err := syntax.ParseSource(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res := check.Check(prog)
	if err := res.Err(); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	out := new(bytes.Buffer)
	cfg.Out = out
	err = Run(res.Program, res.Strings, cfg)
	return out.String(), err
}

func expectRuntimeError(t *testing.T, err error, kind ErrorKind, line int) *RuntimeError {
	t.Helper()
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected a RuntimeError, got %v", err)
	}
	be.Equal(t, re.Kind, kind)
	be.Equal(t, re.Line, line)
	return re
}

func TestInterp_WriteValues(t *testing.T) {
	out, err := interpret(t, `program p;
const greeting = 'hello'; half = 0.5;
var i: integer; r: real; c: char; b: boolean;
begin
  i := 7; r := i / 2; c := 'z'; b := i > 3;
  writeln(greeting, ' ', i, ' ', r, ' ', c, ' ', b, ' ', not b);
  write(half * 3, ' ', -i, ' ', 1e3);
  writeln
end.`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "hello 7 3.5 z TRUE FALSE\n1.5 -7 1000.0\n")
}

func TestInterp_Arithmetic(t *testing.T) {
	out, err := interpret(t, `begin
  writeln(17 div 5, ' ', 17 mod 5, ' ', -17 div 5, ' ', -17 mod 5);
  writeln(2147483647 + 1);
  writeln(1 + 2 * 3, ' ', (1 + 2) * 3, ' ', 10 - 4 - 3);
  writeln(1 < 2, ' ', 2.5 >= 2, ' ', 'a' < 'b', ' ', 'abc' = 'abc')
end.`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "3 2 -3 -2\n-2147483648\n7 9 3\nTRUE TRUE TRUE TRUE\n")
}

func TestInterp_ControlFlow(t *testing.T) {
	out, err := interpret(t, `var i, n: integer;
begin
  n := 0;
  for i := 1 to 5 do n := n + i;
  writeln(n, ' ', i);
  for i := 3 downto 1 do write(i);
  writeln;
  while n > 10 do n := n - 4;
  writeln(n);
  repeat n := n + 1 until n >= 12;
  writeln(n);
  if n = 12 then writeln('twelve') else writeln('other');
  for i := 5 to 1 do writeln('never')
end.`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "15 6\n321\n7\n12\ntwelve\n")
}

func TestInterp_Subroutines(t *testing.T) {
	out, err := interpret(t, `program subs;
var total: integer; x: real;

procedure swap(var a, b: integer);
var tmp: integer;
begin
  tmp := a; a := b; b := tmp
end;

function fact(n: integer): integer;
begin
  if n <= 1 then fact := 1 else fact := n * fact(n - 1)
end;

function scale(v: real; k: integer): real;
begin
  scale := v * k
end;

procedure bump(var t: integer; by: integer);
begin
  t := t + by; total := total + 1
end;

var p, q: integer; arr: array[0..2] of integer;
begin
  total := 0;
  p := 1; q := 2;
  swap(p, q);
  writeln(p, ' ', q);
  writeln(fact(6));
  x := scale(1.5, 4);
  writeln(x, ' ', scale(2, 2));
  arr[1] := 10;
  bump(arr[1], 5);
  bump(p, -2);
  writeln(arr[1], ' ', p, ' ', total)
end.`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "2 1\n720\n6.0 4.0\n15 0 2\n")
}

func TestInterp_LocalsShadowGlobals(t *testing.T) {
	out, err := interpret(t, `var x: integer;
procedure show;
var x: integer;
begin
  x := 99; writeln(x)
end;
begin
  x := 1; show; writeln(x)
end.`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "99\n1\n")
}

func TestInterp_BoundsError(t *testing.T) {
	out, err := interpret(t, `program bounds;
var a: array[1..5] of integer;
begin
  a[5] := 1;
  writeln('before');
  a[10] := 1;
  writeln('after')
end.`, "")
	re := expectRuntimeError(t, err, Bounds, 6)
	be.True(t, strings.Contains(re.Error(), "index 10 out of bounds for a[1..5]"))
	be.Equal(t, out, "before\n")
}

func TestInterp_DivideByZero(t *testing.T) {
	_, err := interpret(t, `var z: integer;
begin
  z := 0;
  writeln(10 div z)
end.`, "")
	expectRuntimeError(t, err, DivideByZero, 4)

	_, err = interpret(t, `var z: integer;
begin
  z := 0;
  z := 7 mod z
end.`, "")
	re := expectRuntimeError(t, err, DivideByZero, 4)
	be.True(t, strings.Contains(re.Message, "mod by zero"))
}

func TestInterp_Uninitialized(t *testing.T) {
	_, err := interpret(t, `var x, y: integer;
begin
  y := x + 1
end.`, "")
	re := expectRuntimeError(t, err, Uninitialized, 3)
	be.True(t, strings.Contains(re.Message, "variable x read before assignment"))

	_, err = interpret(t, `var a: array[1..3] of real;
begin
  writeln(a[2])
end.`, "")
	expectRuntimeError(t, err, Uninitialized, 3)

	_, err = interpret(t, `function f: integer;
begin
end;
begin
  writeln(f)
end.`, "")
	expectRuntimeError(t, err, Uninitialized, 5)
}

func TestInterp_LoopLimit(t *testing.T) {
	_, err := interpret(t, `begin
  while true do
end.`, "")
	re := expectRuntimeError(t, err, LoopLimit, 2)
	be.True(t, strings.Contains(re.Message, "while loop exceeded 10000 iterations"))

	_, err = interpret(t, `begin
  repeat until false
end.`, "")
	expectRuntimeError(t, err, LoopLimit, 2)
}

func TestInterp_CallDepth(t *testing.T) {
	_, err := interpret(t, `procedure down;
begin
  down
end;
begin
  down
end.`, "")
	expectRuntimeError(t, err, CallDepth, 3)
}

func TestInterp_Read(t *testing.T) {
	src := `var i: integer; r: real; c: char; b: boolean;
begin
  read(i, r);
  readln(b);
  read(c);
  writeln(i * 2, ' ', r, ' ', b, ' ', c)
end.`
	out, err := interpret(t, src, "21 0.25 1 ignored\nxyz")
	be.Err(t, err, nil)
	be.Equal(t, out, "42 0.25 TRUE x\n")

	_, err = interpret(t, src, "twelve")
	re := expectRuntimeError(t, err, Input, 3)
	be.True(t, strings.Contains(re.Message, `invalid INTEGER input "twelve"`))

	_, err = interpret(t, src, "")
	re = expectRuntimeError(t, err, Input, 3)
	be.True(t, strings.Contains(re.Message, "unexpected end of input"))
}

func TestInterp_DebugTrace(t *testing.T) {
	var trace bytes.Buffer
	_, err := interpretWith(t, `var x: integer;
begin
  x := 1;
  writeln(x)
end.`, Config{Debug: true, Log: log.New(&trace, "", 0)})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(trace.String(), "[line 3] Assign"))
	be.True(t, strings.Contains(trace.String(), "[line 4] ProcCall"))
}
