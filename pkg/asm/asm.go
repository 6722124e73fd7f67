// Package asm translates the assembly text produced by the code generator
// into a cpu.Program. It understands the MIPS subset the generator emits
// plus the .data/.text segment directives.
package asm

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"minipas/pkg/cpu"
)

// operandForm describes the operand list an instruction accepts.
type operandForm int

const (
	formNone   operandForm = iota
	formRI                 // li   $rd, imm
	formRA                 // la   $rd, label
	formRR                 // move $rd, $rs
	formRM                 // lw   $rd, off($rs) | label
	formFM                 // l.s  $fd, off($rs) | label
	formRRR                // add  $rd, $rs, $rt
	formRRI                // addi $rd, $rs, imm
	formPair               // div  $rs, $rt
	formR                  // mflo $rd
	formTarget             // j    label
	formJR                 // jr   $rs
	formBranch             // beqz $rs, label
	formFCmp               // c.lt.s $fs, $ft
	formFFF                // add.s $fd, $fs, $ft
	formFF                 // neg.s $fd, $fs
	formRF                 // mtc1 $rs, $fd
)

type opSpec struct {
	op   cpu.Opcode
	form operandForm
}

var instructions = map[string]opSpec{
	"nop":     {cpu.OpNOP, formNone},
	"syscall": {cpu.OpSYSCALL, formNone},
	"li":      {cpu.OpLI, formRI},
	"la":      {cpu.OpLA, formRA},
	"move":    {cpu.OpMOVE, formRR},
	"lw":      {cpu.OpLW, formRM},
	"sw":      {cpu.OpSW, formRM},
	"lbu":     {cpu.OpLBU, formRM},
	"l.s":     {cpu.OpLS, formFM},
	"s.s":     {cpu.OpSS, formFM},
	"add":     {cpu.OpADD, formRRR},
	"sub":     {cpu.OpSUB, formRRR},
	"mul":     {cpu.OpMUL, formRRR},
	"and":     {cpu.OpAND, formRRR},
	"or":      {cpu.OpOR, formRRR},
	"slt":     {cpu.OpSLT, formRRR},
	"sle":     {cpu.OpSLE, formRRR},
	"sgt":     {cpu.OpSGT, formRRR},
	"sge":     {cpu.OpSGE, formRRR},
	"seq":     {cpu.OpSEQ, formRRR},
	"sne":     {cpu.OpSNE, formRRR},
	"addi":    {cpu.OpADDI, formRRI},
	"sll":     {cpu.OpSLL, formRRI},
	"div":     {cpu.OpDIV, formPair},
	"mflo":    {cpu.OpMFLO, formR},
	"mfhi":    {cpu.OpMFHI, formR},
	"j":       {cpu.OpJ, formTarget},
	"jal":     {cpu.OpJAL, formTarget},
	"bc1t":    {cpu.OpBC1T, formTarget},
	"bc1f":    {cpu.OpBC1F, formTarget},
	"jr":      {cpu.OpJR, formJR},
	"beqz":    {cpu.OpBEQZ, formBranch},
	"bnez":    {cpu.OpBNEZ, formBranch},
	"c.eq.s":  {cpu.OpCEQS, formFCmp},
	"c.lt.s":  {cpu.OpCLTS, formFCmp},
	"c.le.s":  {cpu.OpCLES, formFCmp},
	"add.s":   {cpu.OpADDS, formFFF},
	"sub.s":   {cpu.OpSUBS, formFFF},
	"mul.s":   {cpu.OpMULS, formFFF},
	"div.s":   {cpu.OpDIVS, formFFF},
	"neg.s":   {cpu.OpNEGS, formFF},
	"mov.s":   {cpu.OpMOVS, formFF},
	"cvt.s.w": {cpu.OpCVTSW, formFF},
	"mtc1":    {cpu.OpMTC1, formRF},
}

var operandCounts = map[operandForm]int{
	formNone: 0, formRI: 2, formRA: 2, formRR: 2, formRM: 2, formFM: 2,
	formRRR: 3, formRRI: 3, formPair: 2, formR: 1, formTarget: 1, formJR: 1,
	formBranch: 2, formFCmp: 2, formFFF: 3, formFF: 2, formRF: 2,
}

var registerNames = map[string]int{
	"zero": 0, "at": 1, "v0": 2, "v1": 3, "a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11, "t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25, "k0": 26, "k1": 27, "gp": 28, "sp": 29, "fp": 30, "ra": 31,
}

type segment int

const (
	textSegment segment = iota
	dataSegment
)

type Assembler struct {
	textLabels map[string]int    // label -> instruction index
	dataLabels map[string]uint32 // label -> absolute address
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		textLabels: make(map[string]int),
		dataLabels: make(map[string]uint32),
	}
}

func Assemble(code string) (*cpu.Program, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) (*cpu.Program, error) {
	lines := make([]parsedLine, 0, strings.Count(code, "\n")+1)
	for i, raw := range strings.Split(code, "\n") {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		lines = append(lines, p)
	}

	if err := a.pass1(lines); err != nil {
		return nil, err
	}
	prog, err := a.pass2(lines)
	if err != nil {
		return nil, err
	}

	entry, ok := a.textLabels["main"]
	if !ok {
		return nil, errors.New("no main label in text segment")
	}
	prog.Entry = entry
	prog.Labels = make(map[string]uint32, len(a.textLabels)+len(a.dataLabels))
	for l, idx := range a.textLabels {
		prog.Labels[l] = uint32(idx)
	}
	for l, addr := range a.dataLabels {
		prog.Labels[l] = addr
	}
	return prog, nil
}

// pass1 assigns every label its instruction index or data address.
func (a *Assembler) pass1(lines []parsedLine) error {
	seg := textSegment
	var pc int
	var dataSize uint32

	for _, p := range lines {
		if next, ok := segmentSwitch(p.mnemonic); ok {
			if err := a.defineLabels(p, seg, pc, dataSize); err != nil {
				return err
			}
			seg = next
			continue
		}
		if seg == dataSegment && alignsWord(p.mnemonic) {
			dataSize = align4(dataSize)
		}
		if err := a.defineLabels(p, seg, pc, dataSize); err != nil {
			return err
		}
		if p.mnemonic == "" || p.mnemonic == ".globl" {
			continue
		}

		if seg == textSegment {
			if _, ok := instructions[p.mnemonic]; !ok {
				return errors.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
			}
			pc++
			continue
		}
		n, err := directiveSize(p)
		if err != nil {
			return err
		}
		dataSize += n
	}
	return nil
}

func (a *Assembler) defineLabels(p parsedLine, seg segment, pc int, dataSize uint32) error {
	for _, lbl := range p.labels {
		_, inText := a.textLabels[lbl]
		_, inData := a.dataLabels[lbl]
		if inText || inData {
			return errors.Errorf("duplicate label '%s' on line %d", lbl, p.lineNo)
		}
		if seg == textSegment {
			a.textLabels[lbl] = pc
		} else {
			a.dataLabels[lbl] = cpu.DataBase + dataSize
		}
	}
	return nil
}

func (a *Assembler) pass2(lines []parsedLine) (*cpu.Program, error) {
	prog := &cpu.Program{}
	seg := textSegment

	for _, p := range lines {
		if next, ok := segmentSwitch(p.mnemonic); ok {
			seg = next
			continue
		}
		if p.mnemonic == "" || p.mnemonic == ".globl" {
			continue
		}
		if seg == dataSegment {
			data, err := a.emitData(prog.Data, p)
			if err != nil {
				return nil, err
			}
			prog.Data = data
			continue
		}
		in, err := a.encode(p)
		if err != nil {
			return nil, err
		}
		prog.Text = append(prog.Text, in)
	}
	return prog, nil
}

func (a *Assembler) encode(p parsedLine) (cpu.Instr, error) {
	spec := instructions[p.mnemonic]
	in := cpu.Instr{Op: spec.op, Line: p.lineNo}
	ops := p.operands
	if want := operandCounts[spec.form]; len(ops) != want {
		return in, errors.Errorf("%s expects %d operand(s) on line %d", p.mnemonic, want, p.lineNo)
	}

	var err error
	reg := func(i int) int {
		if err != nil {
			return 0
		}
		var r int
		r, err = parseRegister(ops[i], p.lineNo)
		return r
	}
	freg := func(i int) int {
		if err != nil {
			return 0
		}
		var r int
		r, err = parseFloatRegister(ops[i], p.lineNo)
		return r
	}
	imm := func(i int) int32 {
		if err != nil {
			return 0
		}
		var v int32
		v, err = parseImmediate(ops[i], p.lineNo)
		return v
	}
	target := func(i int) int32 {
		if err != nil {
			return 0
		}
		idx, ok := a.textLabels[ops[i]]
		if !ok {
			err = errors.Errorf("undefined label '%s' on line %d", ops[i], p.lineNo)
		}
		return int32(idx)
	}

	switch spec.form {
	case formNone:
	case formRI:
		in.Rd, in.Imm = reg(0), imm(1)
	case formRA:
		in.Rd = reg(0)
		addr, ok := a.dataLabels[ops[1]]
		if !ok && err == nil {
			err = errors.Errorf("undefined data label '%s' on line %d", ops[1], p.lineNo)
		}
		in.Imm = int32(addr)
	case formRR:
		in.Rd, in.Rs = reg(0), reg(1)
	case formRM:
		in.Rd = reg(0)
		if err == nil {
			in.Rs, in.Imm, err = a.parseMemory(ops[1], p.lineNo)
		}
	case formFM:
		in.Rd = freg(0)
		if err == nil {
			in.Rs, in.Imm, err = a.parseMemory(ops[1], p.lineNo)
		}
	case formRRR:
		in.Rd, in.Rs, in.Rt = reg(0), reg(1), reg(2)
	case formRRI:
		in.Rd, in.Rs, in.Imm = reg(0), reg(1), imm(2)
	case formPair:
		in.Rs, in.Rt = reg(0), reg(1)
	case formR:
		in.Rd = reg(0)
	case formTarget:
		in.Imm = target(0)
	case formJR:
		in.Rs = reg(0)
	case formBranch:
		in.Rs, in.Imm = reg(0), target(1)
	case formFCmp:
		in.Rs, in.Rt = freg(0), freg(1)
	case formFFF:
		in.Rd, in.Rs, in.Rt = freg(0), freg(1), freg(2)
	case formFF:
		in.Rd, in.Rs = freg(0), freg(1)
	case formRF:
		in.Rs, in.Rd = reg(0), freg(1)
	}
	return in, err
}

// parseMemory accepts off($reg), ($reg) or a bare data label.
func (a *Assembler) parseMemory(token string, lineNo int) (int, int32, error) {
	open := strings.IndexByte(token, '(')
	if open < 0 {
		addr, ok := a.dataLabels[token]
		if !ok {
			return 0, 0, errors.Errorf("undefined data label '%s' on line %d", token, lineNo)
		}
		return cpu.RegZero, int32(addr), nil
	}
	if !strings.HasSuffix(token, ")") {
		return 0, 0, errors.Errorf("invalid memory operand '%s' on line %d", token, lineNo)
	}
	base, err := parseRegister(token[open+1:len(token)-1], lineNo)
	if err != nil {
		return 0, 0, err
	}
	var off int32
	if s := strings.TrimSpace(token[:open]); s != "" {
		if off, err = parseImmediate(s, lineNo); err != nil {
			return 0, 0, err
		}
	}
	return base, off, nil
}

func (a *Assembler) emitData(data []byte, p parsedLine) ([]byte, error) {
	switch p.mnemonic {
	case ".asciiz":
		s, err := parseString(p)
		if err != nil {
			return nil, err
		}
		data = append(data, s...)
		return append(data, 0), nil
	case ".space":
		n, err := directiveSize(p)
		if err != nil {
			return nil, err
		}
		return append(data, make([]byte, n)...), nil
	case ".word", ".float":
		for len(data)%4 != 0 {
			data = append(data, 0)
		}
		for _, op := range p.operands {
			w, err := a.dataWord(p.mnemonic, op, p.lineNo)
			if err != nil {
				return nil, err
			}
			data = append(data, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
		}
		return data, nil
	}
	return nil, errors.Errorf("unknown directive on line %d: %s", p.lineNo, p.mnemonic)
}

// dataWord encodes one .word or .float operand. A .word operand may name a
// data label, which stores that label's address.
func (a *Assembler) dataWord(directive, op string, lineNo int) (uint32, error) {
	if directive == ".float" {
		f, err := strconv.ParseFloat(op, 32)
		if err != nil {
			return 0, errors.Errorf("invalid float '%s' on line %d", op, lineNo)
		}
		return math.Float32bits(float32(f)), nil
	}
	if addr, ok := a.dataLabels[op]; ok {
		return addr, nil
	}
	v, err := parseImmediate(op, lineNo)
	return uint32(v), err
}

func segmentSwitch(mnemonic string) (segment, bool) {
	switch mnemonic {
	case ".text":
		return textSegment, true
	case ".data":
		return dataSegment, true
	}
	return 0, false
}

func alignsWord(mnemonic string) bool {
	return mnemonic == ".word" || mnemonic == ".float"
}

func align4(n uint32) uint32 {
	return (n + 3) &^ 3
}

// directiveSize returns the bytes a data directive occupies, excluding
// alignment padding.
func directiveSize(p parsedLine) (uint32, error) {
	switch p.mnemonic {
	case ".asciiz":
		s, err := parseString(p)
		if err != nil {
			return 0, err
		}
		return uint32(len(s) + 1), nil
	case ".word", ".float":
		if len(p.operands) == 0 {
			return 0, errors.Errorf("%s expects at least one operand on line %d", p.mnemonic, p.lineNo)
		}
		return uint32(4 * len(p.operands)), nil
	case ".space":
		if len(p.operands) != 1 {
			return 0, errors.Errorf(".space expects exactly one operand on line %d", p.lineNo)
		}
		n, err := strconv.ParseUint(p.operands[0], 0, 32)
		if err != nil {
			return 0, errors.Errorf("invalid .space size on line %d: %s", p.lineNo, p.operands[0])
		}
		return uint32(n), nil
	}
	return 0, errors.Errorf("unknown directive on line %d: %s", p.lineNo, p.mnemonic)
}

func parseString(p parsedLine) (string, error) {
	if len(p.operands) != 1 {
		return "", errors.Errorf(".asciiz expects exactly one string operand on line %d", p.lineNo)
	}
	s, err := strconv.Unquote(p.operands[0])
	if err != nil {
		return "", errors.Errorf("invalid string literal on line %d", p.lineNo)
	}
	return s, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	for line != "" {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}
		before := line[:colon]
		if strings.ContainsAny(before, " \t\"") {
			break
		}
		if !isIdentifier(before) {
			return p, errors.Errorf("invalid label '%s' on line %d", before, lineNo)
		}
		p.labels = append(p.labels, before)
		line = strings.TrimSpace(line[colon+1:])
	}
	if line == "" {
		return p, nil
	}

	mnemonic, rest := line, ""
	if sp := strings.IndexAny(line, " \t"); sp >= 0 {
		mnemonic, rest = line[:sp], line[sp+1:]
	}
	p.mnemonic = strings.ToLower(mnemonic)
	ops, err := splitOperands(rest)
	if err != nil {
		return p, errors.Wrapf(err, "line %d", lineNo)
	}
	p.operands = ops
	return p, nil
}

// splitOperands splits on commas outside double quotes.
func splitOperands(s string) ([]string, error) {
	var ops []string
	var cur strings.Builder
	inQuote, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case r == ',' && !inQuote:
			ops = append(ops, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if inQuote {
		return nil, errors.New("unterminated string literal")
	}
	if last := strings.TrimSpace(cur.String()); last != "" || len(ops) > 0 {
		ops = append(ops, last)
	}
	return ops, nil
}

// stripComments removes a # comment, ignoring # inside string literals.
func stripComments(line string) string {
	inQuote, escaped := false, false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case r == '#' && !inQuote:
			return line[:i]
		}
	}
	return line
}

func parseRegister(token string, lineNo int) (int, error) {
	name, ok := strings.CutPrefix(strings.TrimSpace(token), "$")
	if !ok {
		return 0, errors.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	if n, ok := registerNames[name]; ok {
		return n, nil
	}
	if n, err := strconv.Atoi(name); err == nil && n >= 0 && n < 32 {
		return n, nil
	}
	return 0, errors.Errorf("invalid register '%s' on line %d", token, lineNo)
}

func parseFloatRegister(token string, lineNo int) (int, error) {
	name, ok := strings.CutPrefix(strings.TrimSpace(token), "$f")
	if ok {
		if n, err := strconv.Atoi(name); err == nil && n >= 0 && n < 32 {
			return n, nil
		}
	}
	return 0, errors.Errorf("invalid float register '%s' on line %d", token, lineNo)
}

func parseImmediate(token string, lineNo int) (int32, error) {
	v, err := strconv.ParseInt(token, 0, 64)
	if err != nil {
		if isIdentifier(token) {
			return 0, errors.Errorf("unexpected label '%s' on line %d", token, lineNo)
		}
		return 0, errors.Errorf("invalid immediate '%s' on line %d", token, lineNo)
	}
	if v < math.MinInt32 || v > math.MaxUint32 {
		return 0, errors.Errorf("immediate out of range on line %d: %s", lineNo, token)
	}
	return int32(v), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
