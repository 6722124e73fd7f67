package compiler

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"minipas/pkg/check"
	"minipas/pkg/syntax"
)

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected %q to contain %q", s, substr)
	}
}

func TestCompile_StageErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		prefix string
		detail string
	}{
		{"lexical", "begin x := 1 @ end.", "parse: ", "unexpected character '@'"},
		{"syntax", "begin x := ; end.", "parse: ", "line 1"},
		{"semantic", "begin x := 1 end.", "check: ", "undeclared identifier x"},
		{"redeclaration", "var x: integer;\nvar x: real;\nbegin end.", "check: ", "previously declared on line 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.src)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.HasPrefix(err.Error(), tc.prefix) {
				t.Errorf("error %q should start with %q", err, tc.prefix)
			}
			assertContains(t, err.Error(), tc.detail)
		})
	}
}

func TestCompile_ErrorCauses(t *testing.T) {
	_, err := Compile("begin x := ")
	var se *syntax.Error
	if !errors.As(err, &se) {
		t.Fatalf("expected a syntax error, got %T", errors.Cause(err))
	}
	if !syntax.IsIncomplete(err) {
		t.Errorf("input ending mid-statement should be incomplete")
	}

	_, err = Compile("begin if 1 then x := 2 end.")
	diags, ok := errors.Cause(err).(check.Diagnostics)
	if !ok {
		t.Fatalf("expected check.Diagnostics, got %T", errors.Cause(err))
	}
	if len(diags) != 2 {
		t.Errorf("expected 2 diagnostics, got %v", diags)
	}
}

func TestCheck_ReturnsResultOnFailure(t *testing.T) {
	res, err := Check("var a: integer; begin a := 'no' end.")
	if err == nil {
		t.Fatalf("expected a check error")
	}
	if res == nil || res.Symbols == nil {
		t.Fatalf("result should be returned alongside the error")
	}
	if _, ok := res.Symbols.Global().Lookup("a"); !ok {
		t.Errorf("declared names should be in the returned symbol table")
	}
}

func TestBuild(t *testing.T) {
	prog, assembly, err := Build(`program b;
var x: integer;
begin
  x := 5;
  writeln(x)
end.`)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	assertContains(t, assembly, "g_x: .word 0")
	if _, ok := prog.Labels["g_x"]; !ok {
		t.Errorf("g_x should be an assembled label")
	}
	if prog.Labels["main"] != uint32(prog.Entry) {
		t.Errorf("entry %d should be the main label", prog.Entry)
	}
}

const benchSource = `program bench;
var i, total: integer; v: array[0..99] of integer;

function sq(n: integer): integer;
begin
  sq := n * n
end;

begin
  total := 0;
  for i := 0 to 99 do v[i] := sq(i);
  for i := 0 to 99 do
    if v[i] mod 2 = 0 then total := total + v[i];
  writeln(total)
end.`

func BenchmarkCompile(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Compile(benchSource); err != nil {
			b.Fatal(err)
		}
	}
}
