package renamer

import (
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/evanw/esbind/internal/graph"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_lexer"
)

func ComputeReservedNames(moduleScopes []*js_ast.Scope, symbols js_ast.SymbolMap) map[string]uint32 {
	names := make(map[string]uint32)

	// All keywords and strict mode reserved words are reserved names
	for k := range js_lexer.Keywords {
		names[k] = 1
	}
	for k := range js_lexer.StrictModeReservedWords {
		names[k] = 1
	}

	// All unbound symbols must be reserved names
	for _, scope := range moduleScopes {
		for _, member := range scope.Members {
			symbol := symbols.Get(member.Ref)
			if symbol.Kind == js_ast.SymbolUnbound || symbol.MustNotBeRenamed {
				names[symbol.OriginalName] = 1
			}
		}
		for _, ref := range scope.Generated {
			symbol := symbols.Get(ref)
			if symbol.Kind == js_ast.SymbolUnbound || symbol.MustNotBeRenamed {
				names[symbol.OriginalName] = 1
			}
		}
	}

	return names
}

type Renamer interface {
	NameForSymbol(ref js_ast.Ref) string
}

////////////////////////////////////////////////////////////////////////////////
// noOpRenamer

type noOpRenamer struct {
	symbols js_ast.SymbolMap
}

func NewNoOpRenamer(symbols js_ast.SymbolMap) Renamer {
	return &noOpRenamer{
		symbols: symbols,
	}
}

func (r *noOpRenamer) NameForSymbol(ref js_ast.Ref) string {
	ref = js_ast.FollowSymbolsReadOnly(r.symbols, ref)
	return r.symbols.Get(ref).OriginalName
}

////////////////////////////////////////////////////////////////////////////////
// NumberRenamer

// Every chain in the symbol map must already be compressed. This renamer is
// read from many goroutines at once and only ever calls FollowSymbolsReadOnly.
type NumberRenamer struct {
	symbols js_ast.SymbolMap
	names   [][]string
	root    numberScope
}

func NewNumberRenamer(symbols js_ast.SymbolMap, reservedNames map[string]uint32) *NumberRenamer {
	// Allocate every file's names up front so the goroutines that name nested
	// scopes never write to the outer array
	names := make([][]string, len(symbols.Outer))
	for i, inner := range symbols.Outer {
		names[i] = make([]string, len(inner))
	}

	return &NumberRenamer{
		symbols: symbols,
		names:   names,
		root:    numberScope{nameCounts: reservedNames},
	}
}

func (r *NumberRenamer) NameForSymbol(ref js_ast.Ref) string {
	ref = js_ast.FollowSymbolsReadOnly(r.symbols, ref)
	if name := r.names[ref.OuterIndex][ref.InnerIndex]; name != "" {
		return name
	}
	return r.symbols.Get(ref).OriginalName
}

func (r *NumberRenamer) AddTopLevelSymbol(ref js_ast.Ref) {
	r.assignName(&r.root, ref)
}

func isPinned(symbol *js_ast.Symbol) bool {
	switch symbol.Kind {
	case js_ast.SymbolUnbound, js_ast.SymbolArguments, js_ast.SymbolLabel:
		return true
	}
	return symbol.MustNotBeRenamed
}

func (r *NumberRenamer) assignName(scope *numberScope, ref js_ast.Ref) {
	ref = js_ast.FollowSymbolsReadOnly(r.symbols, ref)

	// Don't rename the same symbol more than once
	inner := r.names[ref.OuterIndex]
	if inner[ref.InnerIndex] != "" {
		return
	}

	// Don't rename unbound symbols, symbols marked as reserved names, labels,
	// or the implicit "arguments" variable
	symbol := r.symbols.Get(ref)
	if isPinned(symbol) {
		return
	}

	inner[ref.InnerIndex] = scope.findUnusedName(symbol.OriginalName)
}

func (r *NumberRenamer) assignNamesRecursive(scope *js_ast.Scope, sourceIndex uint32, parent *numberScope, sorted *[]int) {
	s := &numberScope{parent: parent, nameCounts: make(map[string]uint32)}

	// Sort member map keys for determinism, reusing a shared memory buffer
	*sorted = (*sorted)[:0]
	for _, member := range scope.Members {
		*sorted = append(*sorted, int(member.Ref.InnerIndex))
	}
	sort.Ints(*sorted)

	// Rename all symbols in this scope
	for _, innerIndex := range *sorted {
		r.assignName(s, js_ast.Ref{OuterIndex: sourceIndex, InnerIndex: uint32(innerIndex)})
	}
	for _, ref := range scope.Generated {
		r.assignName(s, ref)
	}

	// Symbols in child scopes may also have to be renamed to avoid conflicts
	for _, child := range scope.Children {
		r.assignNamesRecursive(child, sourceIndex, s, sorted)
	}
}

// The scopes of each file are named on their own goroutine. Nested symbols
// never link across files, so each goroutine only writes to its own file's
// names and only reads the names chosen for top-level symbols.
func (r *NumberRenamer) AssignNamesByScope(nestedScopes map[uint32][]*js_ast.Scope, maxWorkers int) {
	g := errgroup.Group{}
	if maxWorkers > 0 {
		g.SetLimit(maxWorkers)
	}

	for sourceIndex, scopes := range nestedScopes {
		g.Go(func() error {
			var sorted []int
			for _, scope := range scopes {
				r.assignNamesRecursive(scope, sourceIndex, &r.root, &sorted)
			}
			return nil
		})
	}

	// Nothing above returns an error
	_ = g.Wait()
}

// Picks a name for every symbol in the linked files. Top-level symbols of all
// files share one namespace and are named first in source index order, which
// makes the result independent of how the nested scopes are scheduled.
func RenameFiles(symbols js_ast.SymbolMap, files []graph.LinkerFile, maxWorkers int) *NumberRenamer {
	moduleScopes := make([]*js_ast.Scope, 0, len(files))
	sourceIndices := make([]uint32, 0, len(files))
	for _, file := range files {
		if repr, ok := file.InputFile.Repr.(*graph.JSRepr); ok && repr.AST.ModuleScope != nil {
			moduleScopes = append(moduleScopes, repr.AST.ModuleScope)
			sourceIndices = append(sourceIndices, file.InputFile.Source.Index)
		}
	}

	r := NewNumberRenamer(symbols, ComputeReservedNames(moduleScopes, symbols))
	nestedScopes := make(map[uint32][]*js_ast.Scope, len(moduleScopes))
	var sorted []int

	for i, scope := range moduleScopes {
		sourceIndex := sourceIndices[i]

		sorted = sorted[:0]
		for _, member := range scope.Members {
			sorted = append(sorted, int(member.Ref.InnerIndex))
		}
		sort.Ints(sorted)

		for _, innerIndex := range sorted {
			r.AddTopLevelSymbol(js_ast.Ref{OuterIndex: sourceIndex, InnerIndex: uint32(innerIndex)})
		}
		for _, ref := range scope.Generated {
			r.AddTopLevelSymbol(ref)
		}

		if len(scope.Children) > 0 {
			nestedScopes[sourceIndex] = scope.Children
		}
	}

	r.AssignNamesByScope(nestedScopes, maxWorkers)
	return r
}

type numberScope struct {
	parent *numberScope

	// This is used as a set of used names in this scope. This also maps the name
	// to the number of times the name has experienced a collision. When a name
	// collides with an already-used name, we need to rename it. This is done by
	// incrementing a number at the end until the name is unused. We save the
	// count here so that subsequent collisions can start counting from where the
	// previous collision ended instead of having to start counting from 1.
	nameCounts map[string]uint32
}

type nameUse uint8

const (
	nameUnused nameUse = iota
	nameUsed
	nameUsedInSameScope
)

func (s *numberScope) findNameUse(name string) nameUse {
	original := s
	for {
		if _, ok := s.nameCounts[name]; ok {
			if s == original {
				return nameUsedInSameScope
			}
			return nameUsed
		}
		s = s.parent
		if s == nil {
			return nameUnused
		}
	}
}

func (s *numberScope) findUnusedName(name string) string {
	if use := s.findNameUse(name); use != nameUnused {
		// If the name is already in use, generate a new name by appending a number
		tries := uint32(1)
		if use == nameUsedInSameScope {
			// Start from the number used by the last collision in this scope.
			// Sibling scopes can reuse the same names, so this only applies to
			// collisions within one scope.
			tries = s.nameCounts[name]
		}
		prefix := name

		// Keep incrementing the number until the name is unused
		for {
			tries++
			name = prefix + strconv.Itoa(int(tries))

			if s.findNameUse(name) == nameUnused {
				if use == nameUsedInSameScope {
					s.nameCounts[prefix] = tries
				}
				break
			}
		}
	}

	// Each name starts off with a count of 1 so that the first collision with
	// "name" is called "name2"
	s.nameCounts[name] = 1
	return name
}
