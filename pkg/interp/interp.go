// Package interp executes a checked AST directly.
//
// Values follow the target machine: INTEGER arithmetic wraps at 32 bits and
// REAL arithmetic is single precision, so a program prints the same thing
// here as it does on the simulator. Unlike the generated code, array
// indexes are bounds-checked, variables must be assigned before they are
// read and loops stop after a configurable number of iterations.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"minipas/pkg/ast"
	"minipas/pkg/symtab"
	"minipas/pkg/types"
)

// Config is the execution environment threaded through a run.
type Config struct {
	In    io.Reader
	Out   io.Writer
	Debug bool        // trace each statement to Log
	Log   *log.Logger // defaults to a stderr logger

	MaxLoopIterations int // per loop execution; 0 means unlimited
	MaxCallDepth      int // 0 means unlimited
}

// DefaultConfig uses the process's standard streams.
func DefaultConfig() Config {
	return Config{
		In:                os.Stdin,
		Out:               os.Stdout,
		Log:               log.New(os.Stderr, "", 0),
		MaxLoopIterations: 1_000_000,
		MaxCallDepth:      10_000,
	}
}

// ErrorKind classifies a RuntimeError.
type ErrorKind int

const (
	Bounds ErrorKind = iota
	DivideByZero
	Uninitialized
	LoopLimit
	Input
	CallDepth
)

var kindNames = [...]string{
	Bounds:        "bounds",
	DivideByZero:  "division by zero",
	Uninitialized: "uninitialized",
	LoopLimit:     "loop limit",
	Input:         "input",
	CallDepth:     "call depth",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// RuntimeError is a recoverable failure raised while executing a program.
type RuntimeError struct {
	Line    int
	Kind    ErrorKind
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("line %d: runtime error: %s", e.Line, e.Message)
}

func runtimeErrorf(line int, kind ErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Interpreter holds the state of one run.
type Interpreter struct {
	cfg     Config
	strs    []string
	in      *bufio.Reader
	out     *bufio.Writer
	subs    map[string]*ast.Node
	globals *frame
	cur     *frame
	depth   int
}

// New prepares an interpreter. strs is the string table the checker
// produced for the program.
func New(strs *symtab.StringTable, cfg Config) *Interpreter {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "", 0)
	}
	var pool []string
	if strs != nil {
		pool = strs.Values()
	}
	return &Interpreter{
		cfg:  cfg,
		strs: pool,
		in:   bufio.NewReader(cfg.In),
		out:  bufio.NewWriter(cfg.Out),
		subs: make(map[string]*ast.Node),
	}
}

// Run interprets prog with cfg.
func Run(prog *ast.Node, strs *symtab.StringTable, cfg Config) error {
	return New(strs, cfg).Exec(prog)
}

// Exec runs a Program node. Output written before a runtime error is
// still flushed.
func (ip *Interpreter) Exec(prog *ast.Node) (err error) {
	defer func() {
		if ferr := ip.out.Flush(); err == nil {
			err = ferr
		}
	}()
	if prog == nil || prog.Kind != ast.Program {
		return fmt.Errorf("interp: expected a Program node")
	}
	block := prog.Child(0)
	if block == nil || block.Kind != ast.Block || len(block.Children) != 4 {
		return fmt.Errorf("interp: malformed program block")
	}
	for _, sub := range block.Child(2).Children {
		ip.subs[sub.Text] = sub
	}
	ip.globals = newFrame(prog.Text, nil)
	ip.cur = ip.globals
	if err := ip.declare(block); err != nil {
		return err
	}
	return ip.exec(block.Child(3))
}

func (ip *Interpreter) trace(n *ast.Node) {
	if ip.cfg.Debug {
		ip.cfg.Log.Printf("[line %d] %s", n.Line, n.Kind)
	}
}

// value is one runtime scalar. BOOLEAN and CHAR live in i; STRING in s.
type value struct {
	typ types.Type
	i   int32
	f   float32
	s   string
}

func intValue(t types.Type, i int32) value { return value{typ: t, i: i} }
func realValue(f float32) value            { return value{typ: types.Real, f: f} }

func boolValue(b bool) value {
	if b {
		return intValue(types.Boolean, 1)
	}
	return intValue(types.Boolean, 0)
}

func (v value) truth() bool { return v.i != 0 }

type cell struct {
	v   value
	set bool
}

type array struct {
	shape types.Shape
	cells []cell
}

// frame is the storage of one activation. Program-level storage is the
// root frame; subroutines are declared at program level, so a name not
// found in the current frame is looked up in the root.
type frame struct {
	name   string
	fn     *ast.Node
	vars   map[string]*cell
	arrays map[string]*array
	result *cell
}

func newFrame(name string, fn *ast.Node) *frame {
	return &frame{
		name:   name,
		fn:     fn,
		vars:   make(map[string]*cell),
		arrays: make(map[string]*array),
	}
}

// declare allocates storage for a block's variables in the current frame.
func (ip *Interpreter) declare(block *ast.Node) error {
	for _, d := range block.Child(1).Children {
		if d.Type != types.Array {
			ip.cur.vars[d.Text] = &cell{}
			continue
		}
		r := d.Child(0)
		if r == nil || r.Kind != ast.Range {
			return fmt.Errorf("interp: array %s has no range", d.Text)
		}
		shape := types.Shape{Elem: r.Type, Start: int(r.Child(0).Int), End: int(r.Child(1).Int)}
		ip.cur.arrays[d.Text] = &array{shape: shape, cells: make([]cell, shape.Size())}
	}
	return nil
}

func (ip *Interpreter) variable(name string) (*cell, bool) {
	if c, ok := ip.cur.vars[name]; ok {
		return c, true
	}
	c, ok := ip.globals.vars[name]
	return c, ok
}

func (ip *Interpreter) array(name string) (*array, bool) {
	if a, ok := ip.cur.arrays[name]; ok {
		return a, true
	}
	a, ok := ip.globals.arrays[name]
	return a, ok
}
