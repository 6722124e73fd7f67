package ast

import (
	"testing"

	"github.com/nalgeon/be"

	"minipas/pkg/types"
)

func intLit(v int64) *Node {
	n := New(IntLit, types.Integer, 3)
	n.Int = v
	return n
}

func TestWiden(t *testing.T) {
	i := intLit(2)

	w := Widen(i, types.Real)
	be.Equal(t, w.Kind, IntToReal)
	be.Equal(t, w.Type, types.Real)
	be.Equal(t, w.Line, 3)
	be.True(t, w.Child(0) == i)

	// Already REAL, so a second widening is a no-op.
	be.True(t, Widen(w, types.Real) == w)
	be.True(t, Widen(i, types.Integer) == i)
	be.True(t, Widen(nil, types.Real) == nil)
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind       Kind
		binary     bool
		relational bool
	}{
		{Add, true, false},
		{Mod, true, false},
		{Or, true, false},
		{Eq, true, true},
		{Ge, true, true},
		{Neg, false, false},
		{VarRef, false, false},
	}
	for _, tc := range tests {
		if got := tc.kind.IsBinary(); got != tc.binary {
			t.Errorf("%s.IsBinary() = %v", tc.kind, got)
		}
		if got := tc.kind.IsRelational(); got != tc.relational {
			t.Errorf("%s.IsRelational() = %v", tc.kind, got)
		}
	}
	be.Equal(t, Kind(200).String(), "Kind(200)")
}

func TestChildAndFlag(t *testing.T) {
	n := New(For, types.NoType, 1, intLit(1))
	be.True(t, n.Child(0) != nil)
	be.True(t, n.Child(1) == nil)
	be.True(t, n.Child(-1) == nil)
	be.True(t, (*Node)(nil).Child(0) == nil)
	be.True(t, !n.Flag())
	n.Int = 1
	be.True(t, n.Flag())
}

func TestWalk(t *testing.T) {
	sum := New(Add, types.Integer, 1, intLit(1), New(Neg, types.Integer, 1, intLit(2)))
	var kinds []Kind
	Walk(sum, func(n *Node) bool {
		kinds = append(kinds, n.Kind)
		return n.Kind != Neg
	})
	be.Equal(t, kinds, []Kind{Add, IntLit, Neg})
}

func TestString(t *testing.T) {
	r := New(RealLit, types.Real, 1)
	r.Real = 1.5
	v := New(VarRef, types.Real, 1)
	v.Text = "x"
	assign := New(Assign, types.NoType, 1, v, New(Add, types.Real, 1, r, Widen(intLit(2), types.Real)))

	want := "Assign\n" +
		"  VarRef x : REAL\n" +
		"  Add : REAL\n" +
		"    RealLit 1.5 : REAL\n" +
		"    IntToReal : REAL\n" +
		"      IntLit 2 : INTEGER\n"
	be.Equal(t, assign.String(), want)
}
