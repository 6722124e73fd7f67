package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"minipas/pkg/cpu"
	"minipas/pkg/interp"
)

// runCode executes src on the simulator and on the interpreter with the same
// input, checks both succeed with identical output and returns that output.
func runCode(t *testing.T, src, input string) string {
	t.Helper()

	var simOut bytes.Buffer
	err := Simulate(src, cpu.Config{In: strings.NewReader(input), Out: &simOut, MaxSteps: 2_000_000})
	if err != nil {
		assembly, _ := Compile(src)
		t.Fatalf("simulate failed: %v\nAssembly:\n%s", err, assembly)
	}

	var intOut bytes.Buffer
	err = Interpret(src, interp.Config{
		In:                strings.NewReader(input),
		Out:               &intOut,
		MaxLoopIterations: 100_000,
		MaxCallDepth:      1_000,
	})
	if err != nil {
		t.Fatalf("interpret failed: %v", err)
	}

	if simOut.String() != intOut.String() {
		t.Fatalf("backends disagree\nsimulator:   %q\ninterpreter: %q", simOut.String(), intOut.String())
	}
	return simOut.String()
}

func TestE2E_HelloWorld(t *testing.T) {
	out := runCode(t, `program hello;
begin
  writeln('Hello, world!')
end.`, "")
	be.Equal(t, out, "Hello, world!\n")
}

func TestE2E_IntegerArithmetic(t *testing.T) {
	out := runCode(t, `program arith;
const base = 10;
var a, b: integer;
begin
  a := 17; b := -5;
  writeln(a + b, ' ', a - b, ' ', a * b);
  writeln(a div 5, ' ', a mod 5, ' ', -a div 5, ' ', -a mod 5);
  writeln(base * (a + 3) - 1);
  writeln(2147483647 + 1)
end.`, "")
	be.Equal(t, out, "12 22 -85\n3 2 -3 -2\n199\n-2147483648\n")
}

func TestE2E_RealArithmetic(t *testing.T) {
	out := runCode(t, `program reals;
const pi = 3.25;
var r: real; i: integer;
begin
  i := 3;
  r := i / 2;
  writeln(r, ' ', r * 2 + 0.25, ' ', pi - 1);
  r := 2;
  writeln(r, ' ', r < pi, ' ', -r, ' ', 1e3)
end.`, "")
	be.Equal(t, out, "1.5 3.25 2.25\n2.0 TRUE -2.0 1000.0\n")
}

func TestE2E_BooleansAndChars(t *testing.T) {
	out := runCode(t, `program logic;
var p, q: boolean; c: char;
begin
  p := true; q := 3 > 4;
  writeln(p and q, ' ', p or q, ' ', not q, ' ', p <> q);
  c := 'x';
  writeln(c, c = 'x', ' ', c < 'a');
  if (c >= 'a') and (c <= 'z') then writeln('lower')
end.`, "")
	be.Equal(t, out, "FALSE TRUE TRUE TRUE\nxTRUE FALSE\nlower\n")
}

func TestE2E_ControlFlow(t *testing.T) {
	out := runCode(t, `program loops;
var i, n, sum: integer;
begin
  sum := 0;
  for i := 1 to 10 do sum := sum + i;
  writeln(sum, ' ', i);
  for i := 3 downto 1 do write(i, ' ');
  writeln;
  n := 27;
  sum := 0;
  while n <> 1 do
  begin
    if n mod 2 = 0 then n := n div 2 else n := 3 * n + 1;
    sum := sum + 1
  end;
  writeln(sum);
  repeat
    n := n * 2
  until n > 100;
  writeln(n);
  for i := 5 to 1 do writeln('never')
end.`, "")
	be.Equal(t, out, "55 11\n3 2 1 \n111\n128\n")
}

func TestE2E_Subroutines(t *testing.T) {
	out := runCode(t, `program subs;
var calls: integer;

procedure swap(var a, b: integer);
var tmp: integer;
begin
  tmp := a; a := b; b := tmp
end;

function fib(n: integer): integer;
begin
  calls := calls + 1;
  if n < 2 then fib := n
  else fib := fib(n - 1) + fib(n - 2)
end;

function average(x, y: real): real;
begin
  average := (x + y) / 2
end;

procedure report(label: char; v: integer);
begin
  writeln(label, '=', v)
end;

var p, q: integer;
begin
  calls := 0;
  p := 1; q := 2;
  swap(p, q);
  writeln(p, ' ', q);
  report('f', fib(10));
  writeln(calls);
  writeln(average(1, 2.5))
end.`, "")
	be.Equal(t, out, "2 1\nf=55\n177\n1.75\n")
}

func TestE2E_ArgumentOrder(t *testing.T) {
	out := runCode(t, `program order;
var n: integer;

function next: integer;
begin
  n := n + 1;
  next := n
end;

procedure show(a, b, c: integer);
begin
  writeln(a, b, c)
end;

begin
  n := 0;
  show(next, next, next)
end.`, "")
	be.Equal(t, out, "321\n")
}

func TestE2E_Arrays(t *testing.T) {
	out := runCode(t, `program sort;
var a: array[1..6] of integer; i, j, t: integer;
    r: array[-1..1] of real;

procedure inc(var x: integer);
begin
  x := x + 100
end;

begin
  a[1] := 5; a[2] := 3; a[3] := 9; a[4] := 1; a[5] := 7; a[6] := 2;
  for i := 1 to 5 do
    for j := 1 to 6 - i do
      if a[j] > a[j + 1] then
      begin
        t := a[j]; a[j] := a[j + 1]; a[j + 1] := t
      end;
  for i := 1 to 6 do write(a[i], ' ');
  writeln;
  inc(a[3]);
  writeln(a[3]);
  for i := -1 to 1 do r[i] := i * 0.5;
  writeln(r[-1], ' ', r[0] + r[1])
end.`, "")
	be.Equal(t, out, "1 2 3 5 7 9 \n103\n-0.5 0.5\n")
}

func TestE2E_LocalsAndGlobals(t *testing.T) {
	out := runCode(t, `program scopes;
var x: integer;

procedure shadow;
var x: integer;
begin
  x := 99;
  writeln(x)
end;

procedure touch;
begin
  x := x + 1
end;

begin
  x := 1;
  shadow;
  touch;
  writeln(x)
end.`, "")
	be.Equal(t, out, "99\n2\n")
}

func TestE2E_StringConstants(t *testing.T) {
	out := runCode(t, `program strs;
const greeting = 'hi';
var s: string;
begin
  s := 'there';
  writeln(greeting, ' ', s, '!');
  s := greeting;
  writeln(s)
end.`, "")
	be.Equal(t, out, "hi there!\nhi\n")
}

func TestE2E_ReadInput(t *testing.T) {
	out := runCode(t, `program echo;
var n, i, total: integer; r: real; c: char;
begin
  read(n);
  total := 0;
  for i := 1 to n do
  begin
    read(r);
    total := total + 1
  end;
  read(c);
  read(c);
  writeln(total, ' ', r, ' ', c)
end.`, "3\n1.5 2.5\n4.25 z")
	be.Equal(t, out, "3 4.25 z\n")
}

func TestE2E_StringOrdering(t *testing.T) {
	out := runCode(t, `program order;
var s, u: string;
begin
  s := 'zz'; u := 'aa';
  if s < u then writeln('lt') else writeln('ge');
  writeln(s > u, ' ', s <= u, ' ', u >= s);
  writeln('abc' < 'abd', ' ', 'ab' < 'abc', ' ', 'abc' > 'ab', ' ', 'Z' < 'a');
  u := 'zz';
  writeln(s = u, ' ', s <> 'zzz', ' ', s >= u, ' ', s <= u)
end.`, "")
	be.Equal(t, out, "ge\nTRUE FALSE FALSE\nTRUE TRUE TRUE TRUE\nTRUE TRUE TRUE TRUE\n")
}

func TestE2E_SubroutineNamesWithUnderscores(t *testing.T) {
	out := runCode(t, `program names;
procedure foo;
const b_c = 1;
begin writeln('foo ', b_c) end;

procedure foo_end;
begin writeln('foo_end') end;

procedure a_b;
const c = 2;
begin writeln('a_b ', c) end;

procedure a;
const b_c = 3;
begin writeln('a ', b_c) end;

begin
  foo; foo_end; a_b; a
end.`, "")
	be.Equal(t, out, "foo 1\nfoo_end\na_b 2\na 3\n")
}

func TestE2E_NonASCIIText(t *testing.T) {
	out := runCode(t, `program accents;
const e = '`+"é"+`';
var c, d: char;
begin
  writeln(e, 't`+"é"+`');
  read(c);
  read(d);
  writeln(c, d)
end.`, "é")
	be.Equal(t, out, "été\né\n")
}
