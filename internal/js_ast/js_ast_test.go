package js_ast

import (
	"fmt"
	"strings"
	"testing"

	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/logger"
)

func assertEqual(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if a != b {
		t.Fatalf("%s != %s", a, b)
	}
}

func expectPanic(t *testing.T, contains string, run func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("Expected a panic containing %q", contains)
		}
		if text := fmt.Sprint(r); !strings.Contains(text, contains) {
			t.Fatalf("Expected a panic containing %q but got %q", contains, text)
		}
	}()
	run()
}

// Makes a map with one symbol per name, spread over two sources
func newTestSymbols(names ...string) (SymbolMap, []Ref) {
	symbols := NewSymbolMap(2)
	refs := make([]Ref, len(names))
	for i, name := range names {
		refs[i] = symbols.NewSymbol(uint32(i%2), Symbol{Kind: SymbolOther, OriginalName: name, UseCountEstimate: uint32(i + 1)})
	}
	return symbols, refs
}

func TestRefRoundTrip(t *testing.T) {
	symbols := NewSymbolMap(2)
	a := symbols.NewSymbol(0, Symbol{Kind: SymbolHoisted, OriginalName: "a", UseCountEstimate: 3})
	b := symbols.NewSymbol(1, Symbol{Kind: SymbolOther, OriginalName: "b"})

	// Inner index 0 is reserved for the placeholder in every source
	assertEqual(t, a, Ref{OuterIndex: 0, InnerIndex: 1})
	assertEqual(t, b, Ref{OuterIndex: 1, InnerIndex: 1})
	assertEqual(t, a == InvalidRef, false)

	// Same inner index in different sources must not compare equal
	assertEqual(t, a == b, false)
	assertEqual(t, a.Less(b), true)
	assertEqual(t, b.Less(a), false)

	assertEqual(t, *symbols.Get(a), Symbol{Kind: SymbolHoisted, OriginalName: "a", UseCountEstimate: 3})
	assertEqual(t, *symbols.Get(b), Symbol{Kind: SymbolOther, OriginalName: "b"})
	assertEqual(t, *symbols.Get(InvalidRef), PlaceholderSymbol())
	assertEqual(t, symbols.SymbolCount(), 4)
}

func TestGetOutOfBounds(t *testing.T) {
	symbols, _ := newTestSymbols("a")
	expectPanic(t, "Internal error: Symbol reference 0:9 is out of bounds", func() {
		symbols.Get(Ref{OuterIndex: 0, InnerIndex: 9})
	})
	expectPanic(t, "Internal error: Symbol reference 5:0 is out of bounds", func() {
		symbols.Get(Ref{OuterIndex: 5, InnerIndex: 0})
	})
}

func TestMergeSymbolsBasic(t *testing.T) {
	symbols, refs := newTestSymbols("a", "b")
	a, b := refs[0], refs[1]

	assertEqual(t, MergeSymbols(symbols, a, a), a)
	assertEqual(t, symbols.Get(a).Link, InvalidRef)

	assertEqual(t, MergeSymbols(symbols, a, b), b)
	assertEqual(t, symbols.Get(a).Link, b)
	assertEqual(t, symbols.Get(b).Link, InvalidRef)
	assertEqual(t, symbols.Get(b).UseCountEstimate, uint32(3))
	assertEqual(t, FollowSymbols(symbols, a), b)
	assertEqual(t, FollowSymbols(symbols, b), b)
}

func TestFollowSymbolsCompressesPath(t *testing.T) {
	symbols, refs := newTestSymbols("a", "b", "c", "d")
	MergeSymbols(symbols, refs[0], refs[1])
	MergeSymbols(symbols, refs[1], refs[2])
	MergeSymbols(symbols, refs[2], refs[3])

	// "a" still points at "b" until something follows it
	assertEqual(t, symbols.Get(refs[0]).Link, refs[1])
	assertEqual(t, FollowSymbolsReadOnly(symbols, refs[0]), refs[3])
	assertEqual(t, symbols.Get(refs[0]).Link, refs[1])

	assertEqual(t, FollowSymbols(symbols, refs[0]), refs[3])
	for _, ref := range refs[:3] {
		assertEqual(t, symbols.Get(ref).Link, refs[3])
	}
}

func TestFollowSymbolsDetectsCycle(t *testing.T) {
	symbols, refs := newTestSymbols("a", "b")

	// This can't happen through MergeSymbols. It's a binder bug.
	symbols.Get(refs[0]).Link = refs[1]
	symbols.Get(refs[1]).Link = refs[0]

	expectPanic(t, "Internal error: Cycle in symbol links", func() {
		FollowSymbols(symbols, refs[0])
	})
}

type mergeStep struct{ old, new int }

// All of these merge the same six symbols into "b" (index 1), just in
// different orders and directions
var mergeOrders = [][]mergeStep{
	{{0, 1}, {2, 1}, {3, 1}, {4, 1}, {5, 1}},
	{{2, 1}, {0, 1}, {5, 1}, {4, 1}, {3, 1}},
	{{0, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 1}},
	{{5, 4}, {4, 3}, {0, 3}, {3, 2}, {2, 1}},
	{{0, 1}, {0, 1}, {2, 0}, {3, 2}, {5, 4}, {4, 3}},
}

func TestMergeSymbolsProperties(t *testing.T) {
	for i, order := range mergeOrders {
		t.Run(fmt.Sprintf("order %d", i), func(t *testing.T) {
			symbols, refs := newTestSymbols("a", "b", "c", "d", "e", "f")
			symbols.Get(refs[4]).MustNotBeRenamed = true
			var final Ref
			for _, step := range order {
				final = MergeSymbols(symbols, refs[step.old], refs[step.new])
			}

			// Every symbol follows to the same canonical symbol, and the walk
			// is never longer than the number of symbols
			canonical := FollowSymbols(symbols, refs[0])
			assertEqual(t, FollowSymbols(symbols, final), canonical)
			for _, ref := range refs {
				steps := 0
				for r := ref; symbols.Get(r).Link != InvalidRef; r = symbols.Get(r).Link {
					steps++
				}
				if steps > len(refs) {
					t.Fatalf("Chain for %s is too long", ref)
				}
				assertEqual(t, FollowSymbols(symbols, ref), canonical)
			}

			// Counts are conserved: 1+2+3+4+5+6
			assertEqual(t, symbols.Get(canonical).UseCountEstimate, uint32(21))

			// The flag from "e" reached the canonical symbol
			assertEqual(t, symbols.Get(canonical).MustNotBeRenamed, true)
		})
	}
}

func TestMergeSymbolsCommutativeOutcome(t *testing.T) {
	// Merge A into B then C into the result, and compare with C into B then
	// A into the result
	symbols1, refs1 := newTestSymbols("A", "B", "C")
	result1 := MergeSymbols(symbols1, refs1[0], refs1[1])
	result1 = MergeSymbols(symbols1, refs1[2], result1)

	symbols2, refs2 := newTestSymbols("A", "B", "C")
	result2 := MergeSymbols(symbols2, refs2[2], refs2[1])
	result2 = MergeSymbols(symbols2, refs2[0], result2)

	assertEqual(t, result1, result2)
	for i := range refs1 {
		assertEqual(t, FollowSymbols(symbols1, refs1[i]), FollowSymbols(symbols2, refs2[i]))
	}
	assertEqual(t, symbols1.Get(result1).OriginalName, "B")
}

func TestFollowAllSymbols(t *testing.T) {
	symbols, refs := newTestSymbols("a", "b", "c", "d", "e")
	MergeSymbols(symbols, refs[0], refs[1])
	MergeSymbols(symbols, refs[1], refs[2])
	MergeSymbols(symbols, refs[3], refs[0])

	FollowAllSymbols(symbols)

	// After the barrier, every chain has at most one link
	for _, inner := range symbols.Outer {
		for _, symbol := range inner {
			if symbol.Link != InvalidRef {
				assertEqual(t, symbols.Get(symbol.Link).Link, InvalidRef)
			}
		}
	}
	assertEqual(t, symbols.Get(refs[3]).Link, refs[2])
	assertEqual(t, symbols.Get(refs[4]).Link, InvalidRef)
}

func TestMergeSymbolMaps(t *testing.T) {
	first := NewSymbolMap(1)
	a := first.NewSymbol(0, Symbol{Kind: SymbolOther, OriginalName: "a"})

	second := NewSymbolMap(2)
	b := second.NewSymbol(0, Symbol{Kind: SymbolOther, OriginalName: "b"})
	ns := second.NewSymbol(1, Symbol{Kind: SymbolOther, OriginalName: "ns"})
	c := second.NewSymbol(1, Symbol{Kind: SymbolImport, OriginalName: "c"})
	second.Get(b).Link = c
	second.Get(c).NamespaceAlias = &NamespaceAlias{NamespaceRef: ns, Alias: "c"}

	merged, renumbering := MergeSymbolMaps([]SymbolMap{first, second})
	assertEqual(t, len(merged.Outer), 3)
	assertEqual(t, len(renumbering), 2)
	assertEqual(t, renumbering[0][0], uint32(0))
	assertEqual(t, renumbering[1][0], uint32(1))
	assertEqual(t, renumbering[1][1], uint32(2))

	assertEqual(t, merged.Get(RenumberRef(a, renumbering[0])).OriginalName, "a")
	newB := RenumberRef(b, renumbering[1])
	newC := RenumberRef(c, renumbering[1])
	assertEqual(t, merged.Get(newB).OriginalName, "b")
	assertEqual(t, merged.Get(newB).Link, newC)
	assertEqual(t, merged.Get(newC).NamespaceAlias.NamespaceRef, RenumberRef(ns, renumbering[1]))
	assertEqual(t, RenumberRef(InvalidRef, renumbering[1]), InvalidRef)

	// The inputs were not changed
	assertEqual(t, second.Get(b).Link, c)
	assertEqual(t, second.Get(c).NamespaceAlias.NamespaceRef, ns)
}

func TestScopeKindStopsHoisting(t *testing.T) {
	for _, kind := range []ScopeKind{ScopeBlock, ScopeWith, ScopeLabel, ScopeClassName, ScopeClassBody} {
		assertEqual(t, kind.StopsHoisting(), false)
	}
	for _, kind := range []ScopeKind{ScopeEntry, ScopeFunctionArgs, ScopeFunctionBody} {
		assertEqual(t, kind.StopsHoisting(), true)
	}
}

func TestOpTable(t *testing.T) {
	assertEqual(t, len(OpTable), int(BinOpLogicalAndAssign)+1)
	assertEqual(t, OpTable[BinOpPow].Text, "**")
	assertEqual(t, OpTable[UnOpTypeof].IsKeyword, true)
	assertEqual(t, OpTable[BinOpNullishCoalescingAssign].Level, LAssign)
	assertEqual(t, BinOpPow.IsRightAssociative(), true)
	assertEqual(t, BinOpPow.IsLeftAssociative(), false)
	assertEqual(t, BinOpSub.IsLeftAssociative(), true)
	assertEqual(t, BinOpComma.IsLeftAssociative(), false)
	assertEqual(t, BinOpComma.IsRightAssociative(), false)
	assertEqual(t, UnOpPreInc.IsPrefix(), true)
	assertEqual(t, UnOpPostInc.IsPrefix(), false)
	assertEqual(t, UnOpPostInc.UnaryAssignTarget(), AssignTargetUpdate)
	assertEqual(t, UnOpNot.UnaryAssignTarget(), AssignTargetNone)
	assertEqual(t, BinOpAssign.BinaryAssignTarget(), AssignTargetReplace)
	assertEqual(t, BinOpAddAssign.BinaryAssignTarget(), AssignTargetUpdate)
	assertEqual(t, BinOpAdd.BinaryAssignTarget(), AssignTargetNone)
}

func TestCanUseShorthandProperty(t *testing.T) {
	symbols := NewSymbolMap(2)
	local := symbols.NewSymbol(0, Symbol{Kind: SymbolOther, OriginalName: "x"})
	bound := symbols.NewSymbol(0, Symbol{Kind: SymbolImport, OriginalName: "x"})
	aliased := symbols.NewSymbol(0, Symbol{Kind: SymbolImport, OriginalName: "x"})
	exported := symbols.NewSymbol(1, Symbol{Kind: SymbolOther, OriginalName: "x"})
	ns := symbols.NewSymbol(0, Symbol{Kind: SymbolOther, OriginalName: "m"})
	MergeSymbols(symbols, bound, exported)
	symbols.Get(aliased).NamespaceAlias = &NamespaceAlias{NamespaceRef: ns, Alias: "x"}

	originalName := func(ref Ref) string {
		return symbols.Get(FollowSymbolsReadOnly(symbols, ref)).OriginalName
	}
	key := helpers.StringToUTF16("x")

	assertEqual(t, CanUseShorthandProperty(symbols, key, Expr{Data: &EIdentifier{Ref: local}}, originalName), true)
	assertEqual(t, CanUseShorthandProperty(symbols, helpers.StringToUTF16("y"), Expr{Data: &EIdentifier{Ref: local}}, originalName), false)
	assertEqual(t, CanUseShorthandProperty(symbols, key, Expr{Data: &EImportIdentifier{Ref: bound}}, originalName), true)
	assertEqual(t, CanUseShorthandProperty(symbols, key, Expr{Data: &EImportIdentifier{Ref: aliased}}, originalName), false)
	assertEqual(t, CanUseShorthandProperty(symbols, key, Expr{Data: &ENumber{Value: 1}}, originalName), false)

	// A renamed binding can't use the shorthand either
	renamed := func(ref Ref) string { return "x2" }
	assertEqual(t, CanUseShorthandProperty(symbols, key, Expr{Data: &EIdentifier{Ref: local}}, renamed), false)
}

func TestJoinAllWithComma(t *testing.T) {
	a := Expr{Data: &ENumber{Value: 1}}
	b := Expr{Data: &ENumber{Value: 2}}
	c := Expr{Data: &ENumber{Value: 3}}

	assertEqual(t, JoinAllWithComma(nil).Data, nil)
	assertEqual(t, JoinAllWithComma([]Expr{a}).Data, a.Data)

	joined, ok := JoinAllWithComma([]Expr{a, b, c}).Data.(*EBinary)
	assertEqual(t, ok, true)
	assertEqual(t, joined.Op, BinOpComma)
	assertEqual(t, joined.Right.Data, c.Data)
	left := joined.Left.Data.(*EBinary)
	assertEqual(t, left.Left.Data, a.Data)
	assertEqual(t, left.Right.Data, b.Data)
}

func TestConvertBindingToExpr(t *testing.T) {
	symbols, refs := newTestSymbols("a", "b")
	binding := Binding{Data: &BArray{
		Items: []ArrayBinding{
			{Binding: Binding{Data: &BIdentifier{Ref: refs[0]}}},
			{Binding: Binding{Data: &BIdentifier{Ref: refs[1]}}},
		},
		HasSpread: true,
	}}

	names := []string{}
	ForEachIdentifierBinding(binding, func(_ logger.Loc, b *BIdentifier) {
		names = append(names, symbols.Get(b.Ref).OriginalName)
	})
	assertEqual(t, strings.Join(names, ","), "a,b")

	array := ConvertBindingToExpr(binding, nil).Data.(*EArray)
	assertEqual(t, len(array.Items), 2)
	assertEqual(t, array.Items[0].Data.(*EIdentifier).Ref, refs[0])
	assertEqual(t, array.Items[1].Data.(*ESpread).Value.Data.(*EIdentifier).Ref, refs[1])
}

func TestIsIdentifier(t *testing.T) {
	assertEqual(t, IsIdentifier("foo"), true)
	assertEqual(t, IsIdentifier("$_1"), true)
	assertEqual(t, IsIdentifier("1a"), false)
	assertEqual(t, IsIdentifier(""), false)
	assertEqual(t, IsIdentifier("a-b"), false)
	assertEqual(t, IsIdentifier("\xc3\xa9t\xc3\xa9"), true)
	assertEqual(t, IsWhitespace(' '), true)
	assertEqual(t, IsWhitespace(0x3000), true)
	assertEqual(t, IsWhitespace('a'), false)
}
