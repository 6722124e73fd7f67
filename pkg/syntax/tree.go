package syntax

import (
	"fmt"
	"strings"
)

// Program is the root of a parsed source file.
//
//	program demo; ... begin ... end.
type Program struct {
	Name  string
	Line  int
	Block *Block
}

// Block is the declaration part plus the statement part of a program or
// subroutine.
type Block struct {
	Consts []*ConstDecl
	Vars   []*VarDecl
	Subs   []*SubDecl
	Body   *Compound
}

// Ident is a name together with the line it appeared on.
type Ident struct {
	Name string
	Line int
}

// ConstDecl binds a name to a literal, optionally signed.
//
//	const max = -10;
type ConstDecl struct {
	Name  string
	Line  int
	Value Expr
}

// Bound is one end of an array index range.
type Bound struct {
	Neg    bool
	Digits string
	Line   int
}

// IndexRange is lo..hi inside an array type.
type IndexRange struct {
	Lo, Hi Bound
}

// TypeSpec is either a named scalar type or an array type.
//
//	integer
//	array[1..5] of real
type TypeSpec struct {
	Name   string // scalar type name; empty for arrays
	Line   int
	Ranges []IndexRange
	Elem   *TypeSpec
}

func (t *TypeSpec) IsArray() bool { return t.Elem != nil }

func (t *TypeSpec) String() string {
	if !t.IsArray() {
		return t.Name
	}
	parts := make([]string, len(t.Ranges))
	for i, r := range t.Ranges {
		parts[i] = fmt.Sprintf("%s..%s", r.Lo, r.Hi)
	}
	return fmt.Sprintf("array[%s] of %s", strings.Join(parts, ", "), t.Elem)
}

func (b Bound) String() string {
	if b.Neg {
		return "-" + b.Digits
	}
	return b.Digits
}

// VarDecl declares one or more names of the same type.
//
//	var a, b: integer;
type VarDecl struct {
	Names []Ident
	Type  *TypeSpec
}

// ParamGroup is a run of formal parameters sharing a type and mode.
//
//	var x, y: real
type ParamGroup struct {
	Names []Ident
	ByRef bool
	Type  *TypeSpec
}

// SubDecl declares a procedure or function.
type SubDecl struct {
	Name       string
	Line       int
	IsFunction bool
	Params     []*ParamGroup
	Result     *TypeSpec // functions only
	Block      *Block
}

//  Statements

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	Pos() int
}

// Compound is begin ... end.
type Compound struct {
	Line  int
	Stmts []Stmt
}

// Assign is target := value.
type Assign struct {
	Line   int
	Target Expr
	Value  Expr
}

// Call is a procedure call statement, with or without arguments.
type Call struct {
	Line int
	Name string
	Args []Expr
}

type If struct {
	Line int
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
}

type While struct {
	Line int
	Cond Expr
	Body Stmt
}

// Repeat is repeat ... until cond.
type Repeat struct {
	Line int
	Body []Stmt
	Cond Expr
}

// For is for v := start to|downto limit do body.
type For struct {
	Line  int
	Var   Ident
	Start Expr
	Limit Expr
	Down  bool
	Body  Stmt
}

// Empty is the statement between two adjacent semicolons.
type Empty struct {
	Line int
}

func (*Compound) stmtNode() {}
func (*Assign) stmtNode()   {}
func (*Call) stmtNode()     {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*Repeat) stmtNode()   {}
func (*For) stmtNode()      {}
func (*Empty) stmtNode()    {}

func (s *Compound) Pos() int { return s.Line }
func (s *Assign) Pos() int   { return s.Line }
func (s *Call) Pos() int     { return s.Line }
func (s *If) Pos() int       { return s.Line }
func (s *While) Pos() int    { return s.Line }
func (s *Repeat) Pos() int   { return s.Line }
func (s *For) Pos() int      { return s.Line }
func (s *Empty) Pos() int    { return s.Line }

//  Expressions

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	Pos() int
	String() string
}

// Binary is Left Op Right.
type Binary struct {
	Line  int
	Op    TokenType
	Left  Expr
	Right Expr
}

// Unary is Op Operand, where Op is MINUS, PLUS or NOT.
type Unary struct {
	Line    int
	Op      TokenType
	Operand Expr
}

type IntLit struct {
	Line   int
	Digits string
}

type RealLit struct {
	Line int
	Text string
}

// StrLit is a quoted literal; one-character literals are chars.
type StrLit struct {
	Line  int
	Value string
}

// Name is a bare identifier in expression position: a variable, constant,
// or parameterless function.
type Name struct {
	Line int
	Name string
}

// Index is name[index, ...].
type Index struct {
	Line    int
	Name    string
	Indices []Expr
}

// CallExpr is name(args) in expression position.
type CallExpr struct {
	Line int
	Name string
	Args []Expr
}

func (*Binary) exprNode()   {}
func (*Unary) exprNode()    {}
func (*IntLit) exprNode()   {}
func (*RealLit) exprNode()  {}
func (*StrLit) exprNode()   {}
func (*Name) exprNode()     {}
func (*Index) exprNode()    {}
func (*CallExpr) exprNode() {}

func (e *Binary) Pos() int   { return e.Line }
func (e *Unary) Pos() int    { return e.Line }
func (e *IntLit) Pos() int   { return e.Line }
func (e *RealLit) Pos() int  { return e.Line }
func (e *StrLit) Pos() int   { return e.Line }
func (e *Name) Pos() int     { return e.Line }
func (e *Index) Pos() int    { return e.Line }
func (e *CallExpr) Pos() int { return e.Line }

var opText = map[TokenType]string{
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", DIV: "div", MOD: "mod",
	AND: "and", OR: "or", NOT: "not", EQUALS: "=", NOT_EQ: "<>",
	LESS: "<", LESS_EQ: "<=", GREATER: ">", GREATER_EQ: ">=",
}

func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, opText[e.Op], e.Right)
}

func (e *Unary) String() string {
	if e.Op == NOT {
		return fmt.Sprintf("(not %s)", e.Operand)
	}
	return fmt.Sprintf("(%s%s)", opText[e.Op], e.Operand)
}

func (e *IntLit) String() string  { return e.Digits }
func (e *RealLit) String() string { return e.Text }
func (e *StrLit) String() string  { return "'" + strings.ReplaceAll(e.Value, "'", "''") + "'" }
func (e *Name) String() string    { return e.Name }

func (e *Index) String() string {
	return fmt.Sprintf("%s[%s]", e.Name, joinExprs(e.Indices))
}

func (e *CallExpr) String() string {
	return fmt.Sprintf("%s(%s)", e.Name, joinExprs(e.Args))
}

func joinExprs(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Symbol returns the source spelling of an operator token.
func Symbol(op TokenType) string {
	if s, ok := opText[op]; ok {
		return s
	}
	return op.String()
}
