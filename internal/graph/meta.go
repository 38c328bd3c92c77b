package graph

import (
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/logger"
)

type WrapKind uint8

const (
	WrapNone WrapKind = iota

	// The module uses CommonJS features, was loaded with "require()", or is a
	// JSON file. Its exports are only known at run time, so an import of it
	// becomes a property access off the namespace object instead of a binding:
	//
	//   // foo.js
	//   exports.foo = 123
	//
	//   // bar.js
	//   import {foo} from './foo.js'
	//   console.log(foo) // This is really "foo_ns.foo"
	//
	WrapCJS
)

// This contains linker-specific metadata corresponding to a file from the
// initial scan phase of the bundler. It's separated out because it's
// conceptually only used for a single linking operation.
type JSReprMeta struct {
	// Imports are matched with exports in a separate pass from when the matched
	// exports are actually bound to the imports. This holds the matches until
	// they are bound.
	ImportsToBind map[js_ast.Ref]ImportData

	// This includes both named exports and re-exports.
	//
	// Named exports come from explicit export statements in the original file,
	// and are copied from the "NamedExports" field in the AST.
	//
	// Re-exports come from other files and are the result of resolving export
	// star statements (i.e. "export * from 'foo'").
	ResolvedExports map[string]ExportData

	Wrap WrapKind
}

type ImportData struct {
	SourceIndex uint32
	NameLoc     logger.Loc // Optional, goes with sourceIndex, ignore if zero
	Ref         js_ast.Ref
}

type ExportData struct {
	Ref js_ast.Ref

	// Two different "export * from" statements can both provide the same
	// name. That name is then ambiguous and is not exported at all, but it
	// can only be told apart from a harmless diamond after the import chains
	// have been followed. These are the other candidates.
	PotentiallyAmbiguousExportStarRefs []ImportData

	// This is the file that the named export above came from. This will be
	// different from the file that contains this object if this is a re-export.
	SourceIndex uint32
	NameLoc     logger.Loc // Optional, goes with sourceIndex, ignore if zero
}
