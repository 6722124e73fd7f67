// Package ast defines the typed tree the checker produces and both backends
// consume.
//
// Every node has the same shape: a kind tag, three payload slots (integer,
// real, text), a resolved type, the source line and an ordered list of
// children. Child order is fixed per kind and documented below.
package ast

import (
	"fmt"
	"strings"

	"minipas/pkg/types"
)

// Kind tags a node.
type Kind int

const (
	Invalid Kind = iota

	// Structure
	Program           // Text=name; [Block]
	Block             // [ConstSection, VarSection, SubroutineSection, Compound]
	ConstSection      // [ConstDecl...]
	VarSection        // [VarDecl...]
	SubroutineSection // [ProcDecl | FuncDecl ...]
	ConstDecl         // Text=name, Type, payload=value
	VarDecl           // Text=name, Type; arrays: Type=Array, [Range]
	Range             // Type=element type; [IntLit start, IntLit end]
	ProcDecl          // Text=name; [ParamList, Block]
	FuncDecl          // Text=name, Type=return; [ParamList, Block]
	ParamList         // [Param...]
	Param             // Text=name, Type, Int=1 when by reference

	// Statements
	Compound  // [stmt...]
	Assign    // [target, value]
	If        // [cond, then] or [cond, then, else]
	While     // [cond, body]
	Repeat    // [Compound body, cond]
	For       // Text=control var, Int=1 for downto; [VarRef control, start, limit, body]
	ProcCall  // Text=name; [ArgList]
	Empty

	// Operators; Type is the result type
	Add
	Sub
	Mul
	RealDiv
	IntDiv
	Mod
	And
	Or
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Neg // [operand]
	Not // [operand]

	// Leaves and uses
	IntLit    // Int
	RealLit   // Real
	StrLit    // Text, Int=string table index
	CharLit   // Int=code, Text=the character
	BoolLit   // Int=0|1
	ConstRef  // Text=name, Type, payload copied from the constant
	VarRef    // Text=name, Type
	ArrayRef  // Text=array name, Type=element type; [index]
	ResultRef // Text=function name, Type=return type (assignment target only)
	FuncCall  // Text=name, Type=return; [ArgList]
	ArgList   // [expr...]

	// IntToReal widens its INTEGER child to REAL.
	IntToReal
)

var kindNames = [...]string{
	Invalid:           "Invalid",
	Program:           "Program",
	Block:             "Block",
	ConstSection:      "ConstSection",
	VarSection:        "VarSection",
	SubroutineSection: "SubroutineSection",
	ConstDecl:         "ConstDecl",
	VarDecl:           "VarDecl",
	Range:             "Range",
	ProcDecl:          "ProcDecl",
	FuncDecl:          "FuncDecl",
	ParamList:         "ParamList",
	Param:             "Param",
	Compound:          "Compound",
	Assign:            "Assign",
	If:                "If",
	While:             "While",
	Repeat:            "Repeat",
	For:               "For",
	ProcCall:          "ProcCall",
	Empty:             "Empty",
	Add:               "Add",
	Sub:               "Sub",
	Mul:               "Mul",
	RealDiv:           "RealDiv",
	IntDiv:            "IntDiv",
	Mod:               "Mod",
	And:               "And",
	Or:                "Or",
	Eq:                "Eq",
	Ne:                "Ne",
	Lt:                "Lt",
	Le:                "Le",
	Gt:                "Gt",
	Ge:                "Ge",
	Neg:               "Neg",
	Not:               "Not",
	IntLit:            "IntLit",
	RealLit:           "RealLit",
	StrLit:            "StrLit",
	CharLit:           "CharLit",
	BoolLit:           "BoolLit",
	ConstRef:          "ConstRef",
	VarRef:            "VarRef",
	ArrayRef:          "ArrayRef",
	ResultRef:         "ResultRef",
	FuncCall:          "FuncCall",
	ArgList:           "ArgList",
	IntToReal:         "IntToReal",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsBinary reports whether k is a two-operand operator.
func (k Kind) IsBinary() bool {
	return k >= Add && k <= Ge
}

// IsRelational reports whether k compares its operands.
func (k Kind) IsRelational() bool {
	return k >= Eq && k <= Ge
}

// Node is a single AST node.
type Node struct {
	Kind     Kind
	Int      int64
	Real     float64
	Text     string
	Type     types.Type
	Line     int
	Children []*Node
}

// New builds a node of kind k with the given children.
func New(k Kind, t types.Type, line int, children ...*Node) *Node {
	return &Node{Kind: k, Type: t, Line: line, Children: children}
}

// Append attaches children in order.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Child returns the i-th child, or nil when there is none.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Flag reports the boolean carried in the integer payload.
func (n *Node) Flag() bool {
	return n.Int != 0
}

// IsExpr reports whether the node leaves a value when evaluated.
func (n *Node) IsExpr() bool {
	switch n.Kind {
	case IntLit, RealLit, StrLit, CharLit, BoolLit, ConstRef, VarRef, ArrayRef, FuncCall, IntToReal:
		return true
	}
	return n.Kind.IsBinary() || n.Kind == Neg || n.Kind == Not
}

// Widen wraps n in an IntToReal node when an INTEGER value meets a REAL
// result. Any other node is returned unchanged.
func Widen(n *Node, result types.Type) *Node {
	if n == nil || !types.NeedsWidening(n.Type, result) {
		return n
	}
	return New(IntToReal, types.Real, n.Line, n)
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// String renders the subtree as an indented outline.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind.String())
	switch n.Kind {
	case IntLit, BoolLit:
		fmt.Fprintf(sb, " %d", n.Int)
	case RealLit:
		fmt.Fprintf(sb, " %s", types.FormatReal(n.Real))
	case StrLit, CharLit:
		fmt.Fprintf(sb, " %q", n.Text)
	default:
		if n.Text != "" {
			fmt.Fprintf(sb, " %s", n.Text)
		}
	}
	if n.Type != types.NoType {
		fmt.Fprintf(sb, " : %s", n.Type)
	}
	sb.WriteByte('\n')
	for _, c := range n.Children {
		c.write(sb, depth+1)
	}
}
