package symtab

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"minipas/pkg/types"
)

func variable(name string, line int, t types.Type) *Variable {
	return &Variable{Info{Name: name, Line: line, Type: t}}
}

func TestSymbolTable(t *testing.T) {
	t.Run("GlobalScopeAlwaysExists", func(t *testing.T) {
		s := New()
		be.Equal(t, s.Depth(), 1)
		s.CloseScope()
		be.Equal(t, s.Depth(), 1)
		be.Equal(t, len(s.History()), 0)
	})

	t.Run("DuplicateInSameScope", func(t *testing.T) {
		s := New()
		be.True(t, s.AddEntry("x", variable("x", 1, types.Integer)))
		be.True(t, !s.AddEntry("x", variable("x", 2, types.Real)))

		e, ok := s.Lookup("x")
		be.True(t, ok)
		be.Equal(t, e.Common().Line, 1)
		be.Equal(t, e.Common().Type, types.Integer)
		be.Equal(t, s.Current().Len(), 1)
	})

	t.Run("Shadowing", func(t *testing.T) {
		s := New()
		outer := variable("x", 1, types.Integer)
		inner := variable("x", 5, types.Real)
		s.AddEntry("x", outer)

		s.OpenScope("p")
		be.True(t, s.AddEntry("x", inner))
		e, _ := s.Lookup("x")
		be.True(t, e == Entry(inner))

		s.CloseScope()
		e, _ = s.Lookup("x")
		be.True(t, e == Entry(outer))
	})

	t.Run("LookupCurrentScope", func(t *testing.T) {
		s := New()
		s.AddEntry("g", variable("g", 1, types.Integer))
		s.OpenScope("p")
		_, ok := s.LookupCurrentScope("g")
		be.True(t, !ok)
		_, ok = s.Lookup("g")
		be.True(t, ok)
	})

	t.Run("ClosedScopesLeaveLookup", func(t *testing.T) {
		s := New()
		s.OpenScope("p")
		s.AddEntry("local", variable("local", 3, types.Char))
		s.CloseScope()

		_, ok := s.Lookup("local")
		be.True(t, !ok)
		be.Equal(t, len(s.History()), 1)
		be.Equal(t, s.History()[0].Name, "p")
		_, ok = s.History()[0].Lookup("local")
		be.True(t, ok)
	})
}

func TestScopeOrder(t *testing.T) {
	s := New()
	for _, name := range []string{"c", "a", "b"} {
		s.AddEntry(name, variable(name, 1, types.Integer))
	}
	var names []string
	for _, e := range s.Global().Entries() {
		names = append(names, e.Common().Name)
	}
	be.Equal(t, strings.Join(names, ","), "c,a,b")
}

func TestTableString(t *testing.T) {
	s := New()
	s.AddEntry("a", NewArray("a", 2, types.Integer, 1, 5))
	s.AddEntry("f", &Function{
		Info:   Info{Name: "f", Line: 3, Type: types.Real},
		Return: types.Real,
		Params: []*Parameter{{Info: Info{Name: "n", Line: 3, Type: types.Integer}, ByRef: true}},
	})
	s.OpenScope("f")
	s.CloseScope()

	out := s.String()
	for _, want := range []string{
		"Scope 0 (global)",
		"var array[1..5] of INTEGER (line 2)",
		"function(var INTEGER): REAL (line 3)",
		"Closed scopes:",
		"Scope 0 (f)",
		"(empty)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestStringTable(t *testing.T) {
	st := NewStringTable()
	be.Equal(t, st.Add("hello"), 0)
	be.Equal(t, st.Add("world"), 1)
	be.Equal(t, st.Add("hello"), 0)
	be.Equal(t, st.Len(), 2)

	idx, ok := st.Index("world")
	be.True(t, ok)
	be.Equal(t, idx, 1)
	be.Equal(t, strings.Join(st.Values(), " "), "hello world")
}

func TestConstantLiteral(t *testing.T) {
	c := &Constant{Info: Info{Name: "pi", Type: types.Real}, Real: 3.5}
	be.Equal(t, c.Literal(), "3.5")
	b := &Constant{Info: Info{Name: "yes", Type: types.Boolean}, Int: 1}
	be.Equal(t, b.Literal(), "true")
}
