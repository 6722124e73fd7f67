package cpu

import "fmt"

// Opcode identifies a machine instruction.
type Opcode uint8

const (
	OpNOP Opcode = iota
	OpLI
	OpLA
	OpMOVE
	OpLW
	OpSW
	OpLS // l.s
	OpSS // s.s
	OpLBU
	OpADD
	OpADDI
	OpSUB
	OpMUL
	OpDIV
	OpMFLO
	OpMFHI
	OpAND
	OpOR
	OpSLL
	OpSLT
	OpSLE
	OpSGT
	OpSGE
	OpSEQ
	OpSNE
	OpJ
	OpJAL
	OpJR
	OpBEQZ
	OpBNEZ
	OpBC1T
	OpBC1F
	OpCEQS // c.eq.s
	OpCLTS // c.lt.s
	OpCLES // c.le.s
	OpADDS // add.s
	OpSUBS // sub.s
	OpMULS // mul.s
	OpDIVS // div.s
	OpNEGS // neg.s
	OpMOVS // mov.s
	OpMTC1
	OpCVTSW // cvt.s.w
	OpSYSCALL
)

var opNames = [...]string{
	OpNOP: "nop", OpLI: "li", OpLA: "la", OpMOVE: "move", OpLW: "lw", OpSW: "sw",
	OpLS: "l.s", OpSS: "s.s", OpLBU: "lbu", OpADD: "add", OpADDI: "addi", OpSUB: "sub", OpMUL: "mul",
	OpDIV: "div", OpMFLO: "mflo", OpMFHI: "mfhi", OpAND: "and", OpOR: "or", OpSLL: "sll",
	OpSLT: "slt", OpSLE: "sle", OpSGT: "sgt", OpSGE: "sge", OpSEQ: "seq", OpSNE: "sne",
	OpJ: "j", OpJAL: "jal", OpJR: "jr", OpBEQZ: "beqz", OpBNEZ: "bnez", OpBC1T: "bc1t",
	OpBC1F: "bc1f", OpCEQS: "c.eq.s", OpCLTS: "c.lt.s", OpCLES: "c.le.s", OpADDS: "add.s",
	OpSUBS: "sub.s", OpMULS: "mul.s", OpDIVS: "div.s", OpNEGS: "neg.s", OpMOVS: "mov.s",
	OpMTC1: "mtc1", OpCVTSW: "cvt.s.w", OpSYSCALL: "syscall",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Register numbers used by the generated code.
const (
	RegZero = 0
	RegV0   = 2
	RegA0   = 4
	RegT0   = 8
	RegSP   = 29
	RegFP   = 30
	RegRA   = 31
)

// Memory layout.
const (
	DataBase  uint32 = 0x10010000
	StackTop  uint32 = 0x7fffeffc // initial $sp
	StackSize uint32 = 1 << 20
	HeapSlack uint32 = 1 << 16 // addressable bytes past the end of static data
)

// Instr is one decoded instruction. Register operands are indices into
// the integer or float register file depending on the opcode; Imm holds an
// immediate, a memory offset, a data address or a branch target (an
// instruction index).
type Instr struct {
	Op   Opcode
	Rd   int
	Rs   int
	Rt   int
	Imm  int32
	Line int // source line in the assembly text
}

// Program is an assembled program ready to load.
type Program struct {
	Text   []Instr
	Data   []byte // loaded at DataBase
	Entry  int    // index of the first instruction to run
	Labels map[string]uint32
}
