package symtab

import (
	"fmt"
	"strings"

	"minipas/pkg/types"
)

// Scope maps names to entries for one lexical level. Entries keep their
// insertion order for listings.
type Scope struct {
	Name    string
	entries map[string]Entry
	order   []string
}

func newScope(name string) *Scope {
	return &Scope{Name: name, entries: make(map[string]Entry)}
}

// Lookup returns the entry declared in this scope under name.
func (s *Scope) Lookup(name string) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Entries returns the scope's entries in declaration order.
func (s *Scope) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entries[name])
	}
	return out
}

// Len is the number of entries in the scope.
func (s *Scope) Len() int {
	return len(s.order)
}

// Table is a stack of scopes. Index 0 is the global scope, which is created
// with the table and never closed. Closed scopes move into a history list
// that is kept for listings only.
type Table struct {
	live    []*Scope
	history []*Scope
}

// New returns a table holding only the global scope.
func New() *Table {
	return &Table{live: []*Scope{newScope("global")}}
}

// OpenScope pushes a new empty scope.
func (t *Table) OpenScope(name string) {
	t.live = append(t.live, newScope(name))
}

// CloseScope pops the innermost scope into the history. The global scope
// cannot be closed; the call is then a no-op.
func (t *Table) CloseScope() {
	if len(t.live) <= 1 {
		return
	}
	top := t.live[len(t.live)-1]
	t.live[len(t.live)-1] = nil
	t.live = t.live[:len(t.live)-1]
	t.history = append(t.history, top)
}

// AddEntry declares name in the innermost scope. It returns false, leaving
// the table untouched, when name already exists in that scope.
func (t *Table) AddEntry(name string, e Entry) bool {
	cur := t.Current()
	if _, exists := cur.entries[name]; exists {
		return false
	}
	cur.entries[name] = e
	cur.order = append(cur.order, name)
	return true
}

// Lookup searches the open scopes from innermost to outermost.
func (t *Table) Lookup(name string) (Entry, bool) {
	for i := len(t.live) - 1; i >= 0; i-- {
		if e, ok := t.live[i].entries[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// LookupCurrentScope searches only the innermost scope.
func (t *Table) LookupCurrentScope(name string) (Entry, bool) {
	return t.Current().Lookup(name)
}

// Current returns the innermost open scope.
func (t *Table) Current() *Scope {
	return t.live[len(t.live)-1]
}

// Global returns the global scope.
func (t *Table) Global() *Scope {
	return t.live[0]
}

// Depth is the number of open scopes, including the global one.
func (t *Table) Depth() int {
	return len(t.live)
}

// History returns the closed scopes in the order they were closed.
func (t *Table) History() []*Scope {
	return t.history
}

// String returns a listing of the open scopes followed by the closed ones.
func (t *Table) String() string {
	var sb strings.Builder
	sb.WriteString("Open scopes:\n")
	for i, s := range t.live {
		writeScope(&sb, i, s)
	}
	if len(t.history) > 0 {
		sb.WriteString("Closed scopes:\n")
		for i, s := range t.history {
			writeScope(&sb, i, s)
		}
	}
	return sb.String()
}

func writeScope(sb *strings.Builder, idx int, s *Scope) {
	fmt.Fprintf(sb, "  Scope %d (%s):\n", idx, s.Name)
	if s.Len() == 0 {
		sb.WriteString("    (empty)\n")
		return
	}
	for _, e := range s.Entries() {
		fmt.Fprintf(sb, "    %-16s  %s\n", e.Common().Name, Describe(e))
	}
}

// Describe renders an entry's kind and type for listings and diagnostics.
func Describe(e Entry) string {
	info := e.Common()
	switch v := e.(type) {
	case *Variable:
		return fmt.Sprintf("var %s (line %d)", info.Type, info.Line)
	case *Array:
		return fmt.Sprintf("var %s (line %d)", v.Shape, info.Line)
	case *Constant:
		return fmt.Sprintf("const %s = %s (line %d)", info.Type, v.Literal(), info.Line)
	case *Parameter:
		mode := "value"
		if v.ByRef {
			mode = "var"
		}
		return fmt.Sprintf("param %s %s (line %d)", mode, info.Type, info.Line)
	case *Function:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			params[i] = p.Type.String()
			if p.ByRef {
				params[i] = "var " + params[i]
			}
		}
		if v.Builtin {
			return "builtin procedure"
		}
		if v.IsProcedure() {
			return fmt.Sprintf("procedure(%s) (line %d)", strings.Join(params, ", "), info.Line)
		}
		return fmt.Sprintf("function(%s): %s (line %d)", strings.Join(params, ", "), v.Return, info.Line)
	}
	return fmt.Sprintf("%T", e)
}

// StringTable pools distinct string literals in first-occurrence order.
type StringTable struct {
	index  map[string]int
	values []string
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Add returns the index of s, appending it on first sight.
func (st *StringTable) Add(s string) int {
	if i, ok := st.index[s]; ok {
		return i
	}
	st.index[s] = len(st.values)
	st.values = append(st.values, s)
	return len(st.values) - 1
}

// Index returns the position of s if it has been pooled.
func (st *StringTable) Index(s string) (int, bool) {
	i, ok := st.index[s]
	return i, ok
}

// Values returns the pooled strings in order.
func (st *StringTable) Values() []string {
	return st.values
}

func (st *StringTable) Len() int {
	return len(st.values)
}

// resolveShape is a convenience for array entries built from a declaration.
func resolveShape(elem types.Type, start, end int) types.Shape {
	return types.Shape{Elem: elem, Start: start, End: end}
}
