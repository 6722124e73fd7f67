package cpu

import (
	"fmt"
	"io"
	"strconv"
	"unicode"

	"minipas/pkg/types"
)

// Syscall service numbers, selected by $v0.
const (
	SysPrintInt    = 1
	SysPrintFloat  = 2
	SysPrintString = 4
	SysReadInt     = 5
	SysReadFloat   = 6
	SysExit        = 10
	SysReadChar    = 12
)

func (c *CPU) syscall(in Instr) error {
	switch code := c.Regs[RegV0]; code {
	case SysPrintInt:
		_, err := fmt.Fprint(c.cfg.Out, c.Regs[RegA0])
		return err
	case SysPrintFloat:
		_, err := io.WriteString(c.cfg.Out, types.FormatReal(float64(c.FRegs[12])))
		return err
	case SysPrintString:
		s, ok := c.ReadString(uint32(c.Regs[RegA0]))
		if !ok {
			return c.fault(in, "print string from unmapped address 0x%08x", uint32(c.Regs[RegA0]))
		}
		_, err := io.WriteString(c.cfg.Out, s)
		return err
	case SysReadInt:
		tok, err := c.token()
		if err != nil {
			return c.fault(in, "read integer: %v", err)
		}
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return c.fault(in, "read integer: invalid input %q", tok)
		}
		c.Regs[RegV0] = int32(n)
	case SysReadFloat:
		tok, err := c.token()
		if err != nil {
			return c.fault(in, "read real: %v", err)
		}
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return c.fault(in, "read real: invalid input %q", tok)
		}
		c.FRegs[0] = float32(f)
	case SysReadChar:
		b, err := c.in.ReadByte()
		if err != nil {
			return c.fault(in, "read char: %v", err)
		}
		c.Regs[RegV0] = int32(b)
	case SysExit:
		c.Halted = true
	default:
		return c.fault(in, "unknown syscall %d", code)
	}
	return nil
}

// token skips leading whitespace and returns the next run of
// non-space bytes from the input.
func (c *CPU) token() (string, error) {
	var buf []byte
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return string(buf), nil
			}
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if unicode.IsSpace(rune(b)) {
			if len(buf) > 0 {
				_ = c.in.UnreadByte()
				return string(buf), nil
			}
			continue
		}
		buf = append(buf, b)
	}
}

