package interp

import (
	"io"
	"strconv"
	"unicode"

	"minipas/pkg/ast"
	"minipas/pkg/types"
)

func (ip *Interpreter) write(args []*ast.Node, newline bool) error {
	for _, a := range args {
		v, err := ip.eval(a)
		if err != nil {
			return err
		}
		ip.out.WriteString(format(v))
	}
	if newline {
		ip.out.WriteByte('\n')
	}
	return nil
}

// format renders a value the way the simulator's print syscalls do.
func format(v value) string {
	switch v.typ {
	case types.Real:
		return types.FormatReal(float64(v.f))
	case types.String:
		return v.s
	case types.Char:
		return string([]byte{byte(v.i)})
	case types.Boolean:
		if v.truth() {
			return "TRUE"
		}
		return "FALSE"
	}
	return strconv.FormatInt(int64(v.i), 10)
}

// read stores one input item per target. INTEGER, REAL and BOOLEAN read a
// whitespace-delimited token; CHAR reads the next raw byte. readln
// then discards the rest of the input line.
func (ip *Interpreter) read(n *ast.Node, targets []*ast.Node, line bool) error {
	// Pending output is flushed so prompts appear before input is read.
	if err := ip.out.Flush(); err != nil {
		return err
	}
	for _, t := range targets {
		c, err := ip.ref(t)
		if err != nil {
			return err
		}
		var v value
		switch t.Type {
		case types.Char:
			b, err := ip.in.ReadByte()
			if err != nil {
				return ip.inputError(n, t, err)
			}
			v = intValue(types.Char, int32(b))
		case types.Real:
			tok, err := ip.token()
			if err != nil {
				return ip.inputError(n, t, err)
			}
			f, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return runtimeErrorf(n.Line, Input, "invalid REAL input %q for %s", tok, t.Text)
			}
			v = realValue(float32(f))
		default:
			tok, err := ip.token()
			if err != nil {
				return ip.inputError(n, t, err)
			}
			i, err := strconv.ParseInt(tok, 10, 32)
			if err != nil {
				return runtimeErrorf(n.Line, Input, "invalid %s input %q for %s", t.Type, tok, t.Text)
			}
			v = intValue(t.Type, int32(i))
			if t.Type == types.Boolean {
				v = boolValue(i != 0)
			}
		}
		c.v, c.set = v, true
	}
	if line {
		return ip.skipLine()
	}
	return nil
}

func (ip *Interpreter) inputError(n, target *ast.Node, err error) error {
	if err == io.EOF {
		return runtimeErrorf(n.Line, Input, "unexpected end of input reading %s", target.Text)
	}
	return runtimeErrorf(n.Line, Input, "reading %s: %v", target.Text, err)
}

func (ip *Interpreter) token() (string, error) {
	var buf []byte
	for {
		b, err := ip.in.ReadByte()
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return string(buf), nil
			}
			return "", err
		}
		if unicode.IsSpace(rune(b)) {
			if len(buf) > 0 {
				return string(buf), ip.in.UnreadByte()
			}
			continue
		}
		buf = append(buf, b)
	}
}

func (ip *Interpreter) skipLine() error {
	for {
		r, _, err := ip.in.ReadRune()
		if err == io.EOF || r == '\n' {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

