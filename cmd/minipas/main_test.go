package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const sample = `program sample;
var x: integer;
begin
  x := 41;
  writeln(x + 1)
end.`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sample.pas", sample)

	out, err := compileFile(src, "")
	be.Err(t, err, nil)
	be.Equal(t, out, filepath.Join(dir, "sample.s"))

	data, err := os.ReadFile(out)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(data), "g_x: .word 0"))
}

func TestCompileFile_OutDir(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sample.pas", sample)
	target := filepath.Join(dir, "build", "asm")

	out, err := compileFile(src, target)
	be.Err(t, err, nil)
	be.Equal(t, out, filepath.Join(target, "sample.s"))
}

func TestCompileFile_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeSource(t, dir, "bad.pas", "begin y := 1 end.")

	_, err := compileFile(bad, "")
	be.True(t, err != nil)
	be.True(t, strings.HasPrefix(err.Error(), "bad.pas: check: "))
	_, statErr := os.Stat(filepath.Join(dir, "bad.s"))
	be.True(t, os.IsNotExist(statErr))

	_, err = compileFile(filepath.Join(dir, "missing.pas"), "")
	be.True(t, err != nil)
}

func TestBuildCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.pas", sample)
	b := writeSource(t, dir, "b.pas", "begin writeln('b') end.")

	rootCmd.SetArgs([]string{"build", a, b})
	be.Err(t, rootCmd.Execute(), nil)
	for _, name := range []string{"a.s", "b.s"} {
		_, err := os.Stat(filepath.Join(dir, name))
		be.Err(t, err, nil)
	}

	bad := writeSource(t, dir, "c.pas", "begin c := end.")
	rootCmd.SetArgs([]string{"build", a, bad})
	be.True(t, rootCmd.Execute() != nil)
}
