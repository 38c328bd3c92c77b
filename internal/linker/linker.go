package linker

// The linker joins the symbol tables of every file in a scan into one symbol
// map and binds each import item to the export it names. An import that can
// be bound statically is merged with the exported symbol so both get the same
// name. An import from a file whose exports are only known at run time, such
// as a CommonJS file, is given a namespace alias so it can be printed as a
// property access instead.

import (
	"fmt"
	"sort"

	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/graph"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_lexer"
	"github.com/evanw/esbind/internal/logger"
)

type Result struct {
	// Every chain in this map has been compressed, so it's safe for any number
	// of goroutines to call "FollowSymbolsReadOnly" on it
	Symbols js_ast.SymbolMap

	// These are clones of the input files in source index order
	Files []graph.LinkerFile
}

type linkerContext struct {
	log   logger.Log
	graph graph.LinkerGraph
}

func Link(log logger.Log, inputFiles []graph.InputFile, entryPoints []uint32) Result {
	c := linkerContext{
		log:   log,
		graph: graph.MakeLinkerGraph(inputFiles, entryPoints),
	}

	c.scanImportsAndExports()
	c.matchImportsWithExportsForAllFiles()
	c.bindImportsToExports()

	// This is the barrier before any concurrent reader of the symbol map
	js_ast.FollowAllSymbols(c.graph.Symbols)

	return Result{
		Symbols: c.graph.Symbols,
		Files:   c.graph.Files,
	}
}

func (c *linkerContext) jsRepr(sourceIndex uint32) (*graph.JSRepr, bool) {
	repr, ok := c.graph.Files[sourceIndex].InputFile.Repr.(*graph.JSRepr)
	return repr, ok
}

func (c *linkerContext) scanImportsAndExports() {
	// Step 1: Figure out which files must be CommonJS
	for sourceIndex := range c.graph.Files {
		repr, ok := c.jsRepr(uint32(sourceIndex))
		if !ok {
			continue
		}

		for _, record := range repr.AST.ImportRecords {
			if !record.SourceIndex.IsValid() {
				continue
			}
			otherSourceIndex := record.SourceIndex.GetIndex()
			otherFile := &c.graph.Files[otherSourceIndex]

			switch record.Kind {
			case ast.ImportRequire:
				// Files that are imported with require() must be CommonJS modules
				if otherRepr, ok := c.jsRepr(otherSourceIndex); ok {
					otherRepr.Meta.Wrap = graph.WrapCJS
				}

			case ast.ImportDynamic:
				// Files that are imported with import() must be entry points
				if otherFile.EntryPointKind == graph.EntryPointNone {
					otherFile.EntryPointKind = graph.EntryPointDynamicImport
				}
			}
		}
	}

	// Step 2: Resolve "export * from" statements. This must be done after we
	// know which files are CommonJS since export stars of CommonJS files can
	// only be resolved at run time.
	for sourceIndex := range c.graph.Files {
		repr, ok := c.jsRepr(uint32(sourceIndex))
		if !ok || len(repr.AST.ExportStarImportRecords) == 0 {
			continue
		}
		c.addExportsForExportStar(repr.Meta.ResolvedExports, uint32(sourceIndex), nil)
	}
}

func (c *linkerContext) addExportsForExportStar(
	resolvedExports map[string]graph.ExportData,
	sourceIndex uint32,
	sourceIndexStack []uint32,
) {
	// Avoid infinite loops due to cycles in the export star graph
	for _, prevSourceIndex := range sourceIndexStack {
		if prevSourceIndex == sourceIndex {
			return
		}
	}
	sourceIndexStack = append(sourceIndexStack, sourceIndex)
	repr, _ := c.jsRepr(sourceIndex)

	for _, importRecordIndex := range repr.AST.ExportStarImportRecords {
		record := &repr.AST.ImportRecords[importRecordIndex]
		if !record.SourceIndex.IsValid() {
			// This will be resolved at run time instead
			continue
		}
		otherSourceIndex := record.SourceIndex.GetIndex()

		// Export stars from a CommonJS module don't work because they can't be
		// statically discovered
		otherRepr, ok := c.jsRepr(otherSourceIndex)
		if !ok || otherRepr.Meta.Wrap == graph.WrapCJS {
			continue
		}

		for alias, name := range otherRepr.AST.NamedExports {
			// ES6 export star statements ignore exports named "default"
			if alias == "default" {
				continue
			}

			// This export star is shadowed if any file in the stack has a
			// matching real named export
			if c.isShadowedByNamedExport(alias, sourceIndexStack) {
				continue
			}

			if existing, ok := resolvedExports[alias]; !ok {
				// Initialize the re-export
				resolvedExports[alias] = graph.ExportData{
					Ref:         name.Ref,
					SourceIndex: otherSourceIndex,
					NameLoc:     name.AliasLoc,
				}
			} else if existing.SourceIndex != otherSourceIndex {
				// Two different re-exports colliding makes it potentially ambiguous
				existing.PotentiallyAmbiguousExportStarRefs = append(existing.PotentiallyAmbiguousExportStarRefs, graph.ImportData{
					SourceIndex: otherSourceIndex,
					Ref:         name.Ref,
					NameLoc:     name.AliasLoc,
				})
				resolvedExports[alias] = existing
			}
		}

		// Search further through this file's export stars
		c.addExportsForExportStar(resolvedExports, otherSourceIndex, sourceIndexStack)
	}
}

func (c *linkerContext) isShadowedByNamedExport(alias string, sourceIndexStack []uint32) bool {
	for _, sourceIndex := range sourceIndexStack {
		repr, _ := c.jsRepr(sourceIndex)
		if _, ok := repr.AST.NamedExports[alias]; ok {
			return true
		}
	}
	return false
}

func (c *linkerContext) matchImportsWithExportsForAllFiles() {
	for sourceIndex := range c.graph.Files {
		repr, ok := c.jsRepr(uint32(sourceIndex))
		if !ok || len(repr.AST.NamedImports) == 0 {
			continue
		}

		// Sort imports for determinism. Otherwise our unit tests will randomly
		// fail sometimes when error messages are reordered.
		sortedImportRefs := make([]js_ast.Ref, 0, len(repr.AST.NamedImports))
		for ref, namedImport := range repr.AST.NamedImports {
			// Star imports bind the namespace object itself, which is local
			if !namedImport.AliasIsStar {
				sortedImportRefs = append(sortedImportRefs, ref)
			}
		}
		sort.Slice(sortedImportRefs, func(i, j int) bool {
			return sortedImportRefs[i].Less(sortedImportRefs[j])
		})

		for _, importRef := range sortedImportRefs {
			tracker := importTracker{sourceIndex: uint32(sourceIndex), importRef: importRef}
			result := c.matchImportWithExport(tracker, true /* reportErrors */)

			switch result.kind {
			case matchImportNormal:
				repr.Meta.ImportsToBind[importRef] = graph.ImportData{
					SourceIndex: result.sourceIndex,
					Ref:         result.ref,
				}

			case matchImportNamespace:
				c.graph.Symbols.Get(importRef).NamespaceAlias = &js_ast.NamespaceAlias{
					NamespaceRef: result.namespaceRef,
					Alias:        result.alias,
				}
			}
		}
	}
}

type importTracker struct {
	sourceIndex uint32
	importRef   js_ast.Ref
}

type importStatus uint8

const (
	// The imported file has no matching export
	importNoMatch importStatus = iota

	// The imported file has a matching export
	importFound

	// The imported file is CommonJS and has unknown exports
	importCommonJS

	// The import path is not part of the scan
	importExternal

	// The imported file failed to parse. That was already reported.
	importBroken
)

func (c *linkerContext) advanceImportTracker(tracker importTracker) (importTracker, importStatus, []graph.ImportData) {
	repr, _ := c.jsRepr(tracker.sourceIndex)
	namedImport := repr.AST.NamedImports[tracker.importRef]
	record := &repr.AST.ImportRecords[namedImport.ImportRecordIndex]

	// Is this an external file?
	if !record.SourceIndex.IsValid() {
		return importTracker{}, importExternal, nil
	}

	// Use a CommonJS import if this is either a CommonJS file or a JSON file
	otherSourceIndex := record.SourceIndex.GetIndex()
	otherRepr, ok := c.jsRepr(otherSourceIndex)
	if !ok || otherRepr.Meta.Wrap == graph.WrapCJS {
		return importTracker{}, importCommonJS, nil
	}
	if otherRepr.IsStub {
		return importTracker{}, importBroken, nil
	}

	// Match this import up with an export from the imported file
	matchingExport, ok := otherRepr.Meta.ResolvedExports[namedImport.Alias]
	if !ok {
		return importTracker{}, importNoMatch, nil
	}

	// Check to see if this is a re-export of another import
	return importTracker{sourceIndex: matchingExport.SourceIndex, importRef: matchingExport.Ref},
		importFound, matchingExport.PotentiallyAmbiguousExportStarRefs
}

type matchImportKind uint8

const (
	// The import is either external or undefined
	matchImportIgnore matchImportKind = iota

	// "sourceIndex" and "ref" are in use
	matchImportNormal

	// "namespaceRef" and "alias" are in use
	matchImportNamespace

	// The import could not be evaluated due to a cycle
	matchImportCycle

	// The import resolved to multiple symbols via "export * from"
	matchImportAmbiguous
)

type matchImportResult struct {
	alias        string
	kind         matchImportKind
	namespaceRef js_ast.Ref
	sourceIndex  uint32
	ref          js_ast.Ref
}

// Follows a chain of re-exports until it ends at a symbol that is not an
// import, or at a file whose exports aren't known statically
func (c *linkerContext) matchImportWithExport(tracker importTracker, reportErrors bool) (result matchImportResult) {
	origin := tracker
	cycleDetector := tracker
	checkCycle := false

	for {
		// Make sure we avoid infinite loops trying to resolve cycles:
		//
		//   // foo.js
		//   export {a as b} from './foo.js'
		//   export {b as c} from './foo.js'
		//   export {c as a} from './foo.js'
		//
		// The detector advances at half speed, so it meets the tracker if and
		// only if the chain loops.
		if !checkCycle {
			checkCycle = true
		} else {
			checkCycle = false
			if cycleDetector == tracker {
				if reportErrors {
					c.reportImportError(origin, "Detected cycle while resolving import %q")
				}
				return matchImportResult{kind: matchImportCycle}
			}
			cycleDetector, _, _ = c.advanceImportTracker(cycleDetector)
		}

		// Resolve the import by one step
		nextTracker, status, potentiallyAmbiguousExportStarRefs := c.advanceImportTracker(tracker)
		switch status {
		case importCommonJS, importExternal:
			// If it's a CommonJS or external file, rewrite the import to a
			// property access off the namespace of the file that contains the
			// import statement
			repr, _ := c.jsRepr(tracker.sourceIndex)
			namedImport := repr.AST.NamedImports[tracker.importRef]
			return matchImportResult{
				kind:         matchImportNamespace,
				namespaceRef: namedImport.NamespaceRef,
				alias:        namedImport.Alias,
			}

		case importBroken:
			return matchImportResult{kind: matchImportIgnore}

		case importNoMatch:
			// TypeScript files may import types that were never exported as
			// values. They can't be told apart without a type checker.
			if reportErrors && c.graph.Files[tracker.sourceIndex].InputFile.Loader != config.LoaderTS {
				c.reportImportError(tracker, "No matching export for import %q")
			}
			return matchImportResult{kind: matchImportIgnore}

		case importFound:
			// If this is a re-export of another import, continue for another
			// iteration of the loop to resolve that import as well
			if otherRepr, _ := c.jsRepr(nextTracker.sourceIndex); isNonStarImport(otherRepr, nextTracker.importRef) {
				tracker = nextTracker
				continue
			}

			result = matchImportResult{
				kind:        matchImportNormal,
				sourceIndex: nextTracker.sourceIndex,
				ref:         nextTracker.importRef,
			}

			// Names from two different "export * from" statements are only
			// ambiguous if they end up naming different symbols
			for _, ambiguousTracker := range potentiallyAmbiguousExportStarRefs {
				candidate := matchImportResult{
					kind:        matchImportNormal,
					sourceIndex: ambiguousTracker.SourceIndex,
					ref:         ambiguousTracker.Ref,
				}
				if otherRepr, _ := c.jsRepr(ambiguousTracker.SourceIndex); isNonStarImport(otherRepr, ambiguousTracker.Ref) {
					candidate = c.matchImportWithExport(importTracker{
						sourceIndex: ambiguousTracker.SourceIndex,
						importRef:   ambiguousTracker.Ref,
					}, false /* reportErrors */)
				}
				if candidate != result {
					if reportErrors {
						c.reportImportError(tracker, "Ambiguous import %q has multiple matching exports")
					}
					return matchImportResult{kind: matchImportAmbiguous}
				}
			}
			return result
		}
	}
}

func isNonStarImport(repr *graph.JSRepr, ref js_ast.Ref) bool {
	namedImport, ok := repr.AST.NamedImports[ref]
	return ok && !namedImport.AliasIsStar
}

func (c *linkerContext) reportImportError(tracker importTracker, format string) {
	repr, _ := c.jsRepr(tracker.sourceIndex)
	namedImport := repr.AST.NamedImports[tracker.importRef]
	source := c.graph.Files[tracker.sourceIndex].InputFile.Source
	r := js_lexer.RangeOfIdentifier(source, namedImport.AliasLoc)
	c.log.AddRangeError(source, r, fmt.Sprintf(format, namedImport.Alias))
}

func (c *linkerContext) bindImportsToExports() {
	for sourceIndex := range c.graph.Files {
		repr, ok := c.jsRepr(uint32(sourceIndex))
		if !ok || len(repr.Meta.ImportsToBind) == 0 {
			continue
		}

		// Sort for determinism, since the merge order decides which ref ends up
		// canonical when two imports name the same export
		sortedImportRefs := make([]js_ast.Ref, 0, len(repr.Meta.ImportsToBind))
		for ref := range repr.Meta.ImportsToBind {
			sortedImportRefs = append(sortedImportRefs, ref)
		}
		sort.Slice(sortedImportRefs, func(i, j int) bool {
			return sortedImportRefs[i].Less(sortedImportRefs[j])
		})

		// Merge these symbols so they will share the same name
		for _, importRef := range sortedImportRefs {
			importData := repr.Meta.ImportsToBind[importRef]
			js_ast.MergeSymbols(c.graph.Symbols, importRef, importData.Ref)
		}
	}
}
