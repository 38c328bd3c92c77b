package linker

import (
	"strings"
	"testing"

	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/graph"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_parser"
	"github.com/evanw/esbind/internal/logger"
	"github.com/evanw/esbind/internal/test"
)

type testFile struct {
	path     string
	contents string
}

// Parses the files as one scan would and resolves "./name" import paths to
// the file with that name. The first file is the entry point.
func parseFiles(t *testing.T, options config.Options, files ...testFile) []graph.InputFile {
	t.Helper()
	log, join := logger.NewDeferLog()
	inputFiles := make([]graph.InputFile, len(files))
	indexForPath := make(map[string]uint32)

	for i, file := range files {
		source := logger.Source{
			Index:      uint32(i),
			KeyPath:    "/" + file.path,
			PrettyPath: file.path,
			Contents:   file.contents,
		}
		loader := options.LoaderForPath(file.path)
		indexForPath["./"+file.path] = uint32(i)

		switch loader {
		case config.LoaderJSON:
			value, ok := js_parser.ParseJSON(log, source)
			inputFiles[i] = graph.InputFile{Source: source, Loader: loader, Repr: &graph.JSONRepr{Value: value, OK: ok}}

		default:
			fileOptions := options
			fileOptions.TS.Parse = loader == config.LoaderTS
			tree, ok := js_parser.Parse(log, source, fileOptions)
			repr := &graph.JSRepr{AST: tree}
			if !ok {
				repr = &graph.JSRepr{AST: graph.StubAST(), IsStub: true}
			}
			inputFiles[i] = graph.InputFile{Source: source, Loader: loader, Repr: repr}
		}
	}

	for _, msg := range join() {
		if msg.Kind == logger.Error && !strings.HasPrefix(msg.Source.PrettyPath, "broken") {
			t.Fatalf("Unexpected parse error: %s", msg.Text)
		}
	}

	for _, file := range inputFiles {
		if repr, ok := file.Repr.(*graph.JSRepr); ok {
			for i := range repr.AST.ImportRecords {
				record := &repr.AST.ImportRecords[i]
				if sourceIndex, ok := indexForPath[record.Path]; ok {
					record.SourceIndex = ast.MakeIndex32(sourceIndex)
				}
			}
		}
	}
	return inputFiles
}

func link(t *testing.T, options config.Options, files ...testFile) (Result, []graph.InputFile, string) {
	t.Helper()
	inputFiles := parseFiles(t, options, files...)
	var result Result
	text := test.CaptureLog(func(log logger.Log) {
		result = Link(log, inputFiles, []uint32{0})
	})
	return result, inputFiles, text
}

func moduleRef(t *testing.T, result Result, sourceIndex uint32, name string) js_ast.Ref {
	t.Helper()
	repr := result.Files[sourceIndex].InputFile.Repr.(*graph.JSRepr)
	member, ok := repr.AST.ModuleScope.Members[name]
	if !ok {
		t.Fatalf("Missing %q in the module scope of source %d", name, sourceIndex)
	}
	return member.Ref
}

func exportRef(t *testing.T, result Result, sourceIndex uint32, alias string) js_ast.Ref {
	t.Helper()
	repr := result.Files[sourceIndex].InputFile.Repr.(*graph.JSRepr)
	export, ok := repr.AST.NamedExports[alias]
	if !ok {
		t.Fatalf("Missing export %q in source %d", alias, sourceIndex)
	}
	return export.Ref
}

func TestBindImportToExport(t *testing.T) {
	result, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {x, x as y} from './b.js'; x(); y()"},
		testFile{"b.js", "export let x = 1; x++"},
	)
	test.AssertEqual(t, text, "")

	target := moduleRef(t, result, 1, "x")
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 0, "x")), target)
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 0, "y")), target)

	// One use from "x++" and one from each import
	test.AssertEqual(t, result.Symbols.Get(target).UseCountEstimate, uint32(3))
}

func TestReExportChain(t *testing.T) {
	result, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {y} from './b.js'; y()"},
		testFile{"b.js", "export {x as y} from './c.js'"},
		testFile{"c.js", "import {z as x} from './d.js'; export {x}"},
		testFile{"d.js", "export function z() {}"},
	)
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 0, "y")), moduleRef(t, result, 3, "z"))
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 2, "x")), moduleRef(t, result, 3, "z"))
}

func TestCommonJSNamespaceAlias(t *testing.T) {
	result, _, text := link(t, config.Options{IsBundling: true},
		testFile{"entry.js", "import def, {x} from './b.js'; import {y} from './c.js'; require('./c.js'); def(x, y)"},
		testFile{"b.js", "exports.x = 1"},
		testFile{"c.js", "export let y = 2"},
	)
	test.AssertEqual(t, text, "")

	repr := result.Files[0].InputFile.Repr.(*graph.JSRepr)
	for _, name := range []string{"def", "x", "y"} {
		ref := moduleRef(t, result, 0, name)
		symbol := result.Symbols.Get(ref)
		if symbol.NamespaceAlias == nil {
			t.Fatalf("Expected %q to have a namespace alias", name)
		}

		// The import stays its own symbol
		test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, ref), ref)
		test.AssertEqual(t, symbol.NamespaceAlias.NamespaceRef, repr.AST.NamedImports[ref].NamespaceRef)
	}

	test.AssertEqual(t, result.Symbols.Get(moduleRef(t, result, 0, "def")).NamespaceAlias.Alias, "default")
	test.AssertEqual(t, result.Symbols.Get(moduleRef(t, result, 0, "x")).NamespaceAlias.Alias, "x")

	// "c.js" has ES6 exports but it's loaded with "require()" too
	test.AssertEqual(t, result.Files[2].InputFile.Repr.(*graph.JSRepr).Meta.Wrap, graph.WrapCJS)
}

func TestNamespaceAliasThroughReExport(t *testing.T) {
	result, _, text := link(t, config.Options{IsBundling: true},
		testFile{"entry.js", "import {x} from './b.js'; x"},
		testFile{"b.js", "export {x} from './c.js'"},
		testFile{"c.js", "module.exports = {x: 1}"},
	)
	test.AssertEqual(t, text, "")

	// The alias is off the namespace of the file with the import statement
	// that reached the CommonJS file
	bRepr := result.Files[1].InputFile.Repr.(*graph.JSRepr)
	alias := result.Symbols.Get(moduleRef(t, result, 0, "x")).NamespaceAlias
	if alias == nil {
		t.Fatal("Expected a namespace alias")
	}
	test.AssertEqual(t, alias.NamespaceRef.OuterIndex, uint32(1))
	test.AssertEqual(t, alias.NamespaceRef, bRepr.AST.NamedImports[exportRef(t, result, 1, "x")].NamespaceRef)
}

func TestExternalAndJSONImports(t *testing.T) {
	result, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {readFile} from 'fs'; import data from './data.json'; readFile(data)"},
		testFile{"data.json", "{\"a\": 1}"},
	)
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, result.Symbols.Get(moduleRef(t, result, 0, "readFile")).NamespaceAlias.Alias, "readFile")
	test.AssertEqual(t, result.Symbols.Get(moduleRef(t, result, 0, "data")).NamespaceAlias.Alias, "default")
}

func TestMissingExport(t *testing.T) {
	_, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {x, y} from './b.js'; import z from './b.js'"},
		testFile{"b.js", "export let x"},
	)
	test.AssertEqual(t, text, "entry.js: error: No matching export for import \"y\"\n"+
		"entry.js: error: No matching export for import \"default\"\n")

	// TypeScript files may be importing a type
	_, _, text = link(t, config.Options{},
		testFile{"entry.ts", "import {x, y} from './b.ts'"},
		testFile{"b.ts", "export let x"},
	)
	test.AssertEqual(t, text, "")

	// Imports from a file that failed to parse were already reported
	_, _, text = link(t, config.Options{},
		testFile{"entry.js", "import {x} from './broken.js'"},
		testFile{"broken.js", "export let x = ;"},
	)
	test.AssertEqual(t, text, "")
}

func TestImportCycle(t *testing.T) {
	_, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {a} from './a.js'"},
		testFile{"a.js", "export {a as b} from './a.js'; export {b as c} from './a.js'; export {c as a} from './a.js'"},
	)
	test.AssertEqual(t, text, "entry.js: error: Detected cycle while resolving import \"a\"\n"+
		"a.js: error: Detected cycle while resolving import \"a\"\n"+
		"a.js: error: Detected cycle while resolving import \"b\"\n"+
		"a.js: error: Detected cycle while resolving import \"c\"\n")
}

func TestExportStar(t *testing.T) {
	result, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {x, y, w} from './b.js'; x(y, w)"},
		testFile{"b.js", "export * from './c.js'; export * from './d.js'; export let w"},
		testFile{"c.js", "export let x, y, w; export default 1"},
		testFile{"d.js", "export {y} from './c.js'"},
	)
	test.AssertEqual(t, text, "")

	// A name reached through two export stars isn't ambiguous if both paths
	// end at the same symbol
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 0, "y")), moduleRef(t, result, 2, "y"))
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 0, "x")), moduleRef(t, result, 2, "x"))

	// Real exports shadow export stars
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 0, "w")), moduleRef(t, result, 1, "w"))

	_, _, text = link(t, config.Options{},
		testFile{"entry.js", "import def, {y} from './b.js'"},
		testFile{"b.js", "export * from './c.js'; export * from './d.js'"},
		testFile{"c.js", "export let y; export default 1"},
		testFile{"d.js", "export let y"},
	)
	test.AssertEqual(t, text, "entry.js: error: No matching export for import \"default\"\n"+
		"entry.js: error: Ambiguous import \"y\" has multiple matching exports\n")
}

func TestExportStarCycle(t *testing.T) {
	result, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {a, b} from './a.js'; a(b)"},
		testFile{"a.js", "export * from './b.js'; export let a"},
		testFile{"b.js", "export * from './a.js'; export let b"},
	)
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, js_ast.FollowSymbolsReadOnly(result.Symbols, moduleRef(t, result, 0, "b")), moduleRef(t, result, 2, "b"))
}

func TestDynamicImportEntryPoint(t *testing.T) {
	result, _, text := link(t, config.Options{},
		testFile{"entry.js", "import('./b.js')"},
		testFile{"b.js", "export let x"},
		testFile{"c.js", "export let y"},
	)
	test.AssertEqual(t, text, "")
	test.AssertEqual(t, result.Files[0].EntryPointKind, graph.EntryPointUserSpecified)
	test.AssertEqual(t, result.Files[1].EntryPointKind, graph.EntryPointDynamicImport)
	test.AssertEqual(t, result.Files[2].IsEntryPoint(), false)
}

func TestLinkDoesNotMutateInputs(t *testing.T) {
	result, inputFiles, text := link(t, config.Options{},
		testFile{"entry.js", "import {x} from './b.js'; x"},
		testFile{"b.js", "export let x"},
	)
	test.AssertEqual(t, text, "")

	importRef := moduleRef(t, result, 0, "x")
	test.AssertEqual(t, result.Symbols.Get(importRef).Link, moduleRef(t, result, 1, "x"))

	// The parsed files may be shared with the cache
	input := inputFiles[0].Repr.(*graph.JSRepr)
	test.AssertEqual(t, input.AST.Symbols[importRef.InnerIndex].Link, js_ast.InvalidRef)
	test.AssertEqual(t, input.AST.Symbols[importRef.InnerIndex].UseCountEstimate, uint32(1))

	// Linking the same files again gives the same answer
	text = test.CaptureLog(func(log logger.Log) {
		again := Link(log, inputFiles, []uint32{0})
		test.AssertEqual(t, again.Symbols.Get(importRef).Link, moduleRef(t, result, 1, "x"))
	})
	test.AssertEqual(t, text, "")
}

func TestLinkCompressesAllChains(t *testing.T) {
	result, _, text := link(t, config.Options{},
		testFile{"entry.js", "import {a} from './b.js'; import {a as a2} from './c.js'; a(a2)"},
		testFile{"b.js", "export {a} from './c.js'"},
		testFile{"c.js", "import {a} from './d.js'; export {a}"},
		testFile{"d.js", "export let a"},
	)
	test.AssertEqual(t, text, "")

	for outer, inner := range result.Symbols.Outer {
		for i, symbol := range inner {
			if symbol.Link != js_ast.InvalidRef && result.Symbols.Get(symbol.Link).Link != js_ast.InvalidRef {
				t.Fatalf("Symbol %d:%d was not compressed", outer, i)
			}
		}
	}
}
