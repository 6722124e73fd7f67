// Package types defines the value types of the language and the unification
// rules the checker applies when two of them meet.
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type identifies the category of a value.
type Type int

const (
	NoType Type = iota // not a value: procedures, erroneous expressions, failed unification

	Integer
	Real
	Char
	String
	Boolean
	Array
)

var typeNames = [...]string{
	NoType:  "NO_TYPE",
	Integer: "INTEGER",
	Real:    "REAL",
	Char:    "CHAR",
	String:  "STRING",
	Boolean: "BOOLEAN",
	Array:   "ARRAY",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// IsNumeric reports whether t takes part in arithmetic.
func (t Type) IsNumeric() bool {
	return t == Integer || t == Real
}

// IsScalar reports whether t is a value type that fits in one 4-byte slot.
func (t Type) IsScalar() bool {
	switch t {
	case Integer, Real, Char, String, Boolean:
		return true
	}
	return false
}

// scalarNames maps the predeclared type identifiers to their Type.
var scalarNames = map[string]Type{
	"integer": Integer,
	"real":    Real,
	"char":    Char,
	"string":  String,
	"boolean": Boolean,
}

// Lookup resolves a scalar type identifier. The second result is false for
// unknown names.
func Lookup(name string) (Type, bool) {
	t, ok := scalarNames[strings.ToLower(name)]
	return t, ok
}

// Shape describes an array type: element type and inclusive index range.
type Shape struct {
	Elem  Type
	Start int
	End   int
}

// Size is the number of elements in the array.
func (s Shape) Size() int {
	return s.End - s.Start + 1
}

// Contains reports whether idx lies within [Start, End].
func (s Shape) Contains(idx int) bool {
	return idx >= s.Start && idx <= s.End
}

func (s Shape) String() string {
	return fmt.Sprintf("array[%d..%d] of %s", s.Start, s.End, s.Elem)
}

// Arithmetic unifies the operands of +, - and *.
func Arithmetic(a, b Type) Type {
	switch {
	case a == Integer && b == Integer:
		return Integer
	case a.IsNumeric() && b.IsNumeric():
		return Real
	}
	return NoType
}

// RealDivision unifies the operands of /. The result is REAL for any pair of
// numeric operands.
func RealDivision(a, b Type) Type {
	if a.IsNumeric() && b.IsNumeric() {
		return Real
	}
	return NoType
}

// IntegerDivision unifies the operands of div and mod.
func IntegerDivision(a, b Type) Type {
	if a == Integer && b == Integer {
		return Integer
	}
	return NoType
}

// Logical unifies the operands of and/or.
func Logical(a, b Type) Type {
	if a == Boolean && b == Boolean {
		return Boolean
	}
	return NoType
}

// Comparison unifies the operands of the relational operators.
func Comparison(a, b Type) Type {
	if a.IsNumeric() && b.IsNumeric() {
		return Boolean
	}
	if a == b {
		switch a {
		case Char, String, Boolean:
			return Boolean
		}
	}
	return NoType
}

// Operand returns the type both operands of a comparison are evaluated in:
// REAL when an INTEGER meets a REAL, otherwise the shared operand type.
func Operand(a, b Type) Type {
	if a.IsNumeric() && b.IsNumeric() && a != b {
		return Real
	}
	return a
}

// Assignment unifies a destination with the value stored into it.
func Assignment(dst, src Type) Type {
	switch {
	case dst == Real && src == Integer:
		return Real
	case dst == src && dst.IsScalar():
		return dst
	}
	return NoType
}

// NeedsWidening reports whether a value of type operand must be converted to
// REAL before it can be used where result is expected.
func NeedsWidening(operand, result Type) bool {
	return operand == Integer && result == Real
}

// FormatReal renders a real the way both execution backends print it: the
// shortest single-precision decimal, always with a fractional part.
func FormatReal(v float64) string {
	f := float32(v)
	switch {
	case math.IsInf(float64(f), 1):
		return "Infinity"
	case math.IsInf(float64(f), -1):
		return "-Infinity"
	case math.IsNaN(float64(f)):
		return "NaN"
	}
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
