package js_ast

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/logger"
)

type SymbolKind uint8

const (
	// An unbound symbol is one that isn't declared in the file it's referenced
	// in. For example, using "window" without declaring it will be unbound.
	SymbolUnbound SymbolKind = iota

	// These may be declared more than once in the same scope, and they are
	// hoisted out of the scope they appear in up to the closest function or
	// module scope. Function arguments, function statements, and variables
	// declared with "var" are all hoisted.
	SymbolHoisted
	SymbolHoistedFunction

	// A catch variable declared using a plain identifier (not a binding
	// pattern) blocks a same-named hoisted variable instead of being an error:
	//
	//   var e = 0;
	//   try { throw 1 } catch (e) {
	//     print(e) // 1
	//     var e = 2
	//     print(e) // 2
	//   }
	//   print(e) // 0 (hoisting stops at the catch block boundary)
	//
	// Other forms are still a syntax error:
	//
	//   try {} catch (e) { let e }
	//   try {} catch ({e}) { var e }
	//
	SymbolCatchIdentifier

	// Generator and async functions are not hoisted but they can still
	// overwrite an earlier function with the same name
	SymbolGeneratorOrAsyncFunction

	// The implicit "arguments" variable inside functions
	SymbolArguments

	// Classes can merge with TypeScript namespaces
	SymbolClass

	// Labels live in their own namespace
	SymbolLabel

	// TypeScript enums can merge with TypeScript namespaces and other enums
	SymbolTSEnum

	// TypeScript namespaces can merge with classes, functions, enums and other
	// namespaces
	SymbolTSNamespace

	// An item in an import clause. In TypeScript these may silently collide
	// with other symbols in the module, since the import may be type-only.
	SymbolImport

	// Everything else, with no special behavior
	SymbolOther
)

func (kind SymbolKind) IsHoisted() bool {
	return kind == SymbolHoisted || kind == SymbolHoistedFunction
}

func (kind SymbolKind) IsHoistedOrFunction() bool {
	return kind.IsHoisted() || kind == SymbolGeneratorOrAsyncFunction
}

func (kind SymbolKind) String() string {
	switch kind {
	case SymbolUnbound:
		return "unbound"
	case SymbolHoisted:
		return "hoisted"
	case SymbolHoistedFunction:
		return "hoisted-function"
	case SymbolCatchIdentifier:
		return "catch-identifier"
	case SymbolGeneratorOrAsyncFunction:
		return "generator-or-async-function"
	case SymbolArguments:
		return "arguments"
	case SymbolClass:
		return "class"
	case SymbolLabel:
		return "label"
	case SymbolTSEnum:
		return "ts-enum"
	case SymbolTSNamespace:
		return "ts-namespace"
	case SymbolImport:
		return "import"
	case SymbolOther:
		return "other"
	default:
		return fmt.Sprintf("SymbolKind(%d)", uint8(kind))
	}
}

// Files are parsed in parallel for speed, and each parser must be able to
// create symbols without coordinating with the others. Symbol tables from
// all files must also be cheap to combine into one.
//
// Both goals are met by giving each symbol ID two parts: an outer index that
// belongs to a single parser goroutine (one per file), and an inner index
// that the parser increments as it creates symbols. A symbol map is then an
// array of arrays indexed first by outer index and then by inner index, and
// maps from all files are combined by building one outer array holding every
// file's inner array.
type Ref struct {
	OuterIndex uint32
	InnerIndex uint32
}

// The zero ref means "no symbol". Inner index 0 of every file is taken by a
// placeholder symbol that the parser creates before anything else, so no real
// symbol is ever addressed by this ref even in the first file.
var InvalidRef Ref = Ref{}

func (ref Ref) Less(other Ref) bool {
	return ref.OuterIndex < other.OuterIndex || (ref.OuterIndex == other.OuterIndex && ref.InnerIndex < other.InnerIndex)
}

func (ref Ref) String() string {
	return fmt.Sprintf("%d:%d", ref.OuterIndex, ref.InnerIndex)
}

// This is the symbol in the reserved slot at inner index 0 of every file
func PlaceholderSymbol() Symbol {
	return Symbol{Kind: SymbolOther, MustNotBeRenamed: true}
}

type NamespaceAlias struct {
	NamespaceRef Ref
	Alias        string
}

// Note: the order of values in this struct matters to reduce struct size.
type Symbol struct {
	// This is the name that came from the parser. The renamer may pick a
	// different name to avoid collisions, so consumers that print names must
	// ask the renamer instead of reading this.
	OriginalName string

	// Import items that could not be bound statically get this. The symbol
	// must then be printed as a property access off the namespace instead of
	// as a bare identifier.
	//
	// This lives on the symbol, not next to the Ref that uses it, because the
	// linker merges re-exported symbols with MergeSymbols. A symbol from some
	// other file that ends up following its links to this one must be able to
	// see the alias.
	NamespaceAlias *NamespaceAlias

	// Symbols that have been merged form a linked list where the last link is
	// the symbol to use. This is InvalidRef for the last link. Call
	// FollowSymbols to get the canonical ref.
	Link Ref

	// An estimate of the number of uses of this symbol. This should always be
	// non-zero when the symbol is used, but it is not decremented if a later
	// pass removes a use.
	UseCountEstimate uint32

	Kind SymbolKind

	// Certain symbols must not be renamed, such as the implicit "arguments"
	// variable or anything visible to a direct "eval" or inside a "with"
	// statement. Once set this is never cleared, and merging ORs it into the
	// merge target.
	MustNotBeRenamed bool
}

type ScopeKind uint8

const (
	ScopeBlock ScopeKind = iota
	ScopeWith
	ScopeLabel
	ScopeClassName
	ScopeClassBody

	// The scopes below stop hoisted variables from extending into parent scopes
	ScopeEntry // This is a module, TypeScript enum, or TypeScript namespace
	ScopeFunctionArgs
	ScopeFunctionBody
)

func (kind ScopeKind) StopsHoisting() bool {
	return kind >= ScopeEntry
}

func (kind ScopeKind) String() string {
	switch kind {
	case ScopeBlock:
		return "block"
	case ScopeWith:
		return "with"
	case ScopeLabel:
		return "label"
	case ScopeClassName:
		return "class-name"
	case ScopeClassBody:
		return "class-body"
	case ScopeEntry:
		return "entry"
	case ScopeFunctionArgs:
		return "function-args"
	case ScopeFunctionBody:
		return "function-body"
	default:
		return fmt.Sprintf("ScopeKind(%d)", uint8(kind))
	}
}

type ScopeMember struct {
	Ref Ref
	Loc logger.Loc
}

type Scope struct {
	Kind ScopeKind

	// This is a back-pointer. The scope is owned by its parent's Children.
	Parent    *Scope
	Children  []*Scope
	Members   map[string]ScopeMember
	Generated []Ref

	// This is used to store the ref of the label symbol for ScopeLabel scopes.
	LabelRef        Ref
	LabelStmtIsLoop bool

	// If a scope contains a direct eval() expression, then none of the symbols
	// inside that scope can be renamed. We conservatively assume that the
	// evaluated code might reference anything that it has access to.
	ContainsDirectEval bool
}

type SymbolMap struct {
	// This could be represented as a "map[Ref]Symbol" but a two-level array
	// avoids hashing, and it makes joining the maps from several files as
	// cheap as building one outer array holding every file's inner array.
	Outer [][]Symbol
}

func NewSymbolMap(sourceCount int) SymbolMap {
	return SymbolMap{make([][]Symbol, sourceCount)}
}

// A malformed ref means the binder has a bug, so this fails loudly instead
// of returning an error
func (sm SymbolMap) Get(ref Ref) *Symbol {
	if int(ref.OuterIndex) >= len(sm.Outer) || int(ref.InnerIndex) >= len(sm.Outer[ref.OuterIndex]) {
		panic(fmt.Sprintf("Internal error: Symbol reference %s is out of bounds", ref))
	}
	return &sm.Outer[ref.OuterIndex][ref.InnerIndex]
}

// Appends a symbol to the inner array for "outer" and returns its ref. The
// placeholder is added first if the inner array is empty.
func (sm *SymbolMap) NewSymbol(outer uint32, symbol Symbol) Ref {
	for int(outer) >= len(sm.Outer) {
		sm.Outer = append(sm.Outer, nil)
	}
	inner := sm.Outer[outer]
	if len(inner) == 0 {
		inner = append(inner, PlaceholderSymbol())
	}
	inner = append(inner, symbol)
	sm.Outer[outer] = inner
	index, err := safecast.Conv[uint32](len(inner) - 1)
	if err != nil {
		panic(fmt.Sprintf("Internal error: Too many symbols in source %d", outer))
	}
	return Ref{OuterIndex: outer, InnerIndex: index}
}

// Installs the symbols of one parsed file at its outer index. The bundler
// assigns every file a distinct outer index before parsing, so the joined
// map needs no renumbering.
func (sm *SymbolMap) SetSourceSymbols(outer uint32, symbols []Symbol) {
	for int(outer) >= len(sm.Outer) {
		sm.Outer = append(sm.Outer, nil)
	}
	sm.Outer[outer] = symbols
}

func (sm SymbolMap) SymbolCount() (count int) {
	for _, inner := range sm.Outer {
		count += len(inner)
	}
	return
}

// Concatenates the outer arrays of the maps in input order. The result also
// has a table for each input map from that map's outer indices to the new
// outer indices, which is what RenumberRef expects.
//
// Inner arrays are shared with the inputs when their outer index does not
// change. Otherwise they are copied before the links inside them are
// rewritten, so the input maps are never mutated.
func MergeSymbolMaps(maps []SymbolMap) (SymbolMap, [][]uint32) {
	total := 0
	for _, sm := range maps {
		total += len(sm.Outer)
	}

	result := SymbolMap{Outer: make([][]Symbol, 0, total)}
	renumbering := make([][]uint32, len(maps))

	for i, sm := range maps {
		table := make([]uint32, len(sm.Outer))
		isIdentity := true
		for outer := range sm.Outer {
			newOuter, err := safecast.Conv[uint32](len(result.Outer) + outer)
			if err != nil {
				panic("Internal error: Too many sources")
			}
			table[outer] = newOuter
			if int(newOuter) != outer {
				isIdentity = false
			}
		}
		renumbering[i] = table

		for _, inner := range sm.Outer {
			if !isIdentity {
				clone := make([]Symbol, len(inner))
				for j, symbol := range inner {
					symbol.Link = RenumberRef(symbol.Link, table)
					if symbol.NamespaceAlias != nil {
						symbol.NamespaceAlias = &NamespaceAlias{
							NamespaceRef: RenumberRef(symbol.NamespaceAlias.NamespaceRef, table),
							Alias:        symbol.NamespaceAlias.Alias,
						}
					}
					clone[j] = symbol
				}
				inner = clone
			}
			result.Outer = append(result.Outer, inner)
		}
	}

	return result, renumbering
}

// Rewrites a ref created against one input of MergeSymbolMaps so it points
// into the merged map. InvalidRef stays invalid.
func RenumberRef(ref Ref, table []uint32) Ref {
	if ref == InvalidRef {
		return ref
	}
	return Ref{OuterIndex: table[ref.OuterIndex], InnerIndex: ref.InnerIndex}
}

// Returns the canonical ref that represents the ref for the provided symbol.
// This may not be the provided ref if the symbol has been merged with another
// symbol.
//
// Every link on the way is rewritten to point directly at the result. This is
// only safe when no other goroutine is reading the same map. Concurrent
// readers must use FollowSymbolsReadOnly after a FollowAllSymbols barrier.
func FollowSymbols(symbols SymbolMap, ref Ref) Ref {
	canonical := findCanonical(symbols, ref)

	// Path compression. Only write if needed to keep already-compressed
	// chains untouched.
	for ref != canonical {
		symbol := symbols.Get(ref)
		next := symbol.Link
		if next != canonical {
			symbol.Link = canonical
		}
		ref = next
	}

	return canonical
}

// Like FollowSymbols but never writes to the map
func FollowSymbolsReadOnly(symbols SymbolMap, ref Ref) Ref {
	return findCanonical(symbols, ref)
}

func findCanonical(symbols SymbolMap, ref Ref) Ref {
	stepLimit := -1
	for steps := 0; ; steps++ {
		link := symbols.Get(ref).Link
		if link == InvalidRef {
			return ref
		}
		ref = link

		// A chain can never be longer than the number of symbols. Counting the
		// symbols is only worth it for chains that are already suspicious.
		if steps == 64 {
			stepLimit = symbols.SymbolCount()
		}
		if stepLimit != -1 && steps > stepLimit {
			panic(fmt.Sprintf("Internal error: Cycle in symbol links at %s", ref))
		}
	}
}

// Use this before calling "FollowSymbolsReadOnly" from separate goroutines.
// Every chain is compressed here, up front, so the concurrent readers never
// need to write.
func FollowAllSymbols(symbols SymbolMap) {
	for sourceIndex, inner := range symbols.Outer {
		for symbolIndex := range inner {
			FollowSymbols(symbols, Ref{uint32(sourceIndex), uint32(symbolIndex)})
		}
	}
}

// Makes "old" point to "new" by joining the linked lists for the two symbols
// together. That way "FollowSymbols" on both "old" and "new" will result in
// the same ref.
func MergeSymbols(symbols SymbolMap, old Ref, new Ref) Ref {
	if old == new {
		return new
	}

	oldSymbol := symbols.Get(old)
	if oldSymbol.Link != InvalidRef {
		oldSymbol.Link = MergeSymbols(symbols, oldSymbol.Link, new)
		return oldSymbol.Link
	}

	newSymbol := symbols.Get(new)
	if newSymbol.Link != InvalidRef {
		newSymbol.Link = MergeSymbols(symbols, old, newSymbol.Link)
		return newSymbol.Link
	}

	oldSymbol.Link = new
	newSymbol.UseCountEstimate += oldSymbol.UseCountEstimate
	if oldSymbol.MustNotBeRenamed {
		newSymbol.MustNotBeRenamed = true
	}
	return new
}

type AST struct {
	// These are CommonJS features. A file that uses any of them is not a
	// candidate for flat bundling and must be wrapped in its own closure.
	HasTopLevelReturn bool
	UsesExportsRef    bool
	UsesModuleRef     bool

	// These are ES6 features
	HasES6Imports bool
	HasES6Exports bool

	// True if any scope in the file contains a direct "eval"
	UsesDirectEval bool

	Directive   string
	Stmts       []Stmt
	Symbols     []Symbol
	ModuleScope *Scope
	ExportsRef  Ref
	ModuleRef   Ref

	// These are stored at the AST level instead of on individual AST nodes so
	// they can be manipulated efficiently without a full AST traversal
	ImportRecords []ast.ImportRecord

	// These are filled in by the parser so the linker doesn't have to walk the
	// tree. Imports are keyed by the symbol of the import item.
	NamedImports            map[Ref]NamedImport
	NamedExports            map[string]NamedExport
	ExportStarImportRecords []uint32
}

func (ast *AST) HasCommonJSFeatures() bool {
	return ast.HasTopLevelReturn || ast.UsesExportsRef || ast.UsesModuleRef
}

func (ast *AST) HasES6Syntax() bool {
	return ast.HasES6Imports || ast.HasES6Exports
}

type NamedImport struct {
	Alias             string
	AliasLoc          logger.Loc
	NamespaceRef      Ref
	ImportRecordIndex uint32

	// Star imports ("import * as ns") have no alias and bind the namespace
	AliasIsStar bool

	// Imports that are re-exported by this file ("export {x} from")
	IsExported bool
}

type NamedExport struct {
	Ref      Ref
	AliasLoc logger.Loc
}
