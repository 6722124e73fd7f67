// Package cpu simulates the 32-bit load/store machine the code generator
// targets: 32 integer registers with MIPS names, 32 single-precision float
// registers, HI/LO, one floating condition flag and a small syscall
// interface for console I/O.
package cpu

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Config controls a simulation run.
type Config struct {
	In       io.Reader
	Out      io.Writer
	MaxSteps int // 0 means unlimited
}

// DefaultConfig uses the process's standard streams and a ten million
// instruction ceiling.
func DefaultConfig() Config {
	return Config{In: os.Stdin, Out: os.Stdout, MaxSteps: 10_000_000}
}

type CPU struct {
	Regs  [32]int32
	FRegs [32]float32
	HI    int32
	LO    int32
	FCC   bool // set by c.*.s, tested by bc1t/bc1f

	PC     int
	Steps  int
	Halted bool

	prog  *Program
	data  []byte
	stack []byte
	cfg   Config
	in    *bufio.Reader
}

// New loads prog into a fresh machine.
func New(prog *Program, cfg Config) *CPU {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	c := &CPU{
		prog:  prog,
		data:  make([]byte, uint32(len(prog.Data))+HeapSlack),
		stack: make([]byte, StackSize),
		cfg:   cfg,
		in:    bufio.NewReader(cfg.In),
		PC:    prog.Entry,
	}
	copy(c.data, prog.Data)
	c.Regs[RegSP] = int32(StackTop)
	c.Regs[RegFP] = int32(StackTop)
	return c
}

// Error is a fault raised while executing an instruction.
type Error struct {
	PC   int
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("pc %d (asm line %d): %s", e.PC, e.Line, e.Msg)
	}
	return fmt.Sprintf("pc %d: %s", e.PC, e.Msg)
}

func (c *CPU) fault(in Instr, format string, args ...any) error {
	return &Error{PC: c.PC - 1, Line: in.Line, Msg: fmt.Sprintf(format, args...)}
}

// mem returns the n bytes at addr.
func (c *CPU) mem(addr uint32, n uint32) ([]byte, bool) {
	if addr >= DataBase && addr+n <= DataBase+uint32(len(c.data)) {
		off := addr - DataBase
		return c.data[off : off+n], true
	}
	stackBase := StackTop + 4 - StackSize
	if addr >= stackBase && addr+n <= StackTop+4 {
		off := addr - stackBase
		return c.stack[off : off+n], true
	}
	return nil, false
}

// ReadWord reads a little-endian word.
func (c *CPU) ReadWord(addr uint32) (uint32, bool) {
	b, ok := c.mem(addr, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// WriteWord writes a little-endian word.
func (c *CPU) WriteWord(addr uint32, v uint32) bool {
	b, ok := c.mem(addr, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(b, v)
	return true
}

// ReadString reads a NUL-terminated string starting at addr.
func (c *CPU) ReadString(addr uint32) (string, bool) {
	var out []byte
	for {
		b, ok := c.mem(addr, 1)
		if !ok {
			return "", false
		}
		if b[0] == 0 {
			return string(out), true
		}
		out = append(out, b[0])
		addr++
	}
}

func (c *CPU) effective(in Instr) uint32 {
	return uint32(c.Regs[in.Rs] + in.Imm)
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Step executes one instruction.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if c.PC < 0 || c.PC >= len(c.prog.Text) {
		return &Error{PC: c.PC, Msg: "program counter out of range"}
	}
	in := c.prog.Text[c.PC]
	c.PC++
	c.Steps++
	r, f := &c.Regs, &c.FRegs

	switch in.Op {
	case OpNOP:
	case OpLI, OpLA:
		r[in.Rd] = in.Imm
	case OpMOVE:
		r[in.Rd] = r[in.Rs]
	case OpLW, OpLS:
		addr := c.effective(in)
		w, ok := c.ReadWord(addr)
		if !ok {
			return c.fault(in, "load from unmapped address 0x%08x", addr)
		}
		if in.Op == OpLW {
			r[in.Rd] = int32(w)
		} else {
			f[in.Rd] = math.Float32frombits(w)
		}
	case OpLBU:
		addr := c.effective(in)
		b, ok := c.mem(addr, 1)
		if !ok {
			return c.fault(in, "load from unmapped address 0x%08x", addr)
		}
		r[in.Rd] = int32(b[0])
	case OpSW, OpSS:
		addr := c.effective(in)
		w := uint32(r[in.Rd])
		if in.Op == OpSS {
			w = math.Float32bits(f[in.Rd])
		}
		if !c.WriteWord(addr, w) {
			return c.fault(in, "store to unmapped address 0x%08x", addr)
		}
	case OpADD:
		r[in.Rd] = r[in.Rs] + r[in.Rt]
	case OpADDI:
		r[in.Rd] = r[in.Rs] + in.Imm
	case OpSUB:
		r[in.Rd] = r[in.Rs] - r[in.Rt]
	case OpMUL:
		r[in.Rd] = r[in.Rs] * r[in.Rt]
	case OpDIV:
		if r[in.Rt] == 0 {
			return c.fault(in, "integer division by zero")
		}
		if r[in.Rs] == math.MinInt32 && r[in.Rt] == -1 {
			c.LO, c.HI = math.MinInt32, 0
		} else {
			c.LO, c.HI = r[in.Rs]/r[in.Rt], r[in.Rs]%r[in.Rt]
		}
	case OpMFLO:
		r[in.Rd] = c.LO
	case OpMFHI:
		r[in.Rd] = c.HI
	case OpAND:
		r[in.Rd] = r[in.Rs] & r[in.Rt]
	case OpOR:
		r[in.Rd] = r[in.Rs] | r[in.Rt]
	case OpSLL:
		r[in.Rd] = r[in.Rs] << uint(in.Imm&31)
	case OpSLT:
		r[in.Rd] = boolWord(r[in.Rs] < r[in.Rt])
	case OpSLE:
		r[in.Rd] = boolWord(r[in.Rs] <= r[in.Rt])
	case OpSGT:
		r[in.Rd] = boolWord(r[in.Rs] > r[in.Rt])
	case OpSGE:
		r[in.Rd] = boolWord(r[in.Rs] >= r[in.Rt])
	case OpSEQ:
		r[in.Rd] = boolWord(r[in.Rs] == r[in.Rt])
	case OpSNE:
		r[in.Rd] = boolWord(r[in.Rs] != r[in.Rt])
	case OpJ:
		c.PC = int(in.Imm)
	case OpJAL:
		r[RegRA] = int32(c.PC)
		c.PC = int(in.Imm)
	case OpJR:
		c.PC = int(r[in.Rs])
	case OpBEQZ:
		if r[in.Rs] == 0 {
			c.PC = int(in.Imm)
		}
	case OpBNEZ:
		if r[in.Rs] != 0 {
			c.PC = int(in.Imm)
		}
	case OpBC1T:
		if c.FCC {
			c.PC = int(in.Imm)
		}
	case OpBC1F:
		if !c.FCC {
			c.PC = int(in.Imm)
		}
	case OpCEQS:
		c.FCC = f[in.Rs] == f[in.Rt]
	case OpCLTS:
		c.FCC = f[in.Rs] < f[in.Rt]
	case OpCLES:
		c.FCC = f[in.Rs] <= f[in.Rt]
	case OpADDS:
		f[in.Rd] = f[in.Rs] + f[in.Rt]
	case OpSUBS:
		f[in.Rd] = f[in.Rs] - f[in.Rt]
	case OpMULS:
		f[in.Rd] = f[in.Rs] * f[in.Rt]
	case OpDIVS:
		f[in.Rd] = f[in.Rs] / f[in.Rt]
	case OpNEGS:
		f[in.Rd] = -f[in.Rs]
	case OpMOVS:
		f[in.Rd] = f[in.Rs]
	case OpMTC1:
		f[in.Rd] = math.Float32frombits(uint32(r[in.Rs]))
	case OpCVTSW:
		f[in.Rd] = float32(int32(math.Float32bits(f[in.Rs])))
	case OpSYSCALL:
		if err := c.syscall(in); err != nil {
			return err
		}
	default:
		return c.fault(in, "unknown opcode %s", in.Op)
	}
	r[RegZero] = 0
	return nil
}

// Run executes until the exit syscall, a fault, or the step ceiling.
func (c *CPU) Run() error {
	for !c.Halted {
		if c.cfg.MaxSteps > 0 && c.Steps >= c.cfg.MaxSteps {
			return &Error{PC: c.PC, Msg: fmt.Sprintf("step limit of %d exceeded", c.cfg.MaxSteps)}
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
