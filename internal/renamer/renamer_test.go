package renamer

import (
	"fmt"
	"testing"

	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/graph"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_parser"
	"github.com/evanw/esbind/internal/linker"
	"github.com/evanw/esbind/internal/logger"
	"github.com/evanw/esbind/internal/test"
)

// Each file is named by its index, and "./N.js" imports file N
func linkForTest(t *testing.T, contents ...string) linker.Result {
	t.Helper()
	inputFiles := make([]graph.InputFile, len(contents))

	text := test.CaptureLog(func(log logger.Log) {
		for i, code := range contents {
			source := logger.Source{
				Index:      uint32(i),
				KeyPath:    fmt.Sprintf("/%d.js", i),
				PrettyPath: fmt.Sprintf("%d.js", i),
				Contents:   code,
			}
			tree, ok := js_parser.Parse(log, source, config.Options{})
			if !ok {
				t.Fatalf("Failed to parse %s", source.PrettyPath)
			}
			for j := range tree.ImportRecords {
				record := &tree.ImportRecords[j]
				var other uint32
				if _, err := fmt.Sscanf(record.Path, "./%d.js", &other); err == nil {
					record.SourceIndex = ast.MakeIndex32(other)
				}
			}
			inputFiles[i] = graph.InputFile{Source: source, Loader: config.LoaderJS, Repr: &graph.JSRepr{AST: tree}}
		}
	})
	test.AssertEqual(t, text, "")

	var result linker.Result
	text = test.CaptureLog(func(log logger.Log) {
		result = linker.Link(log, inputFiles, []uint32{0})
	})
	test.AssertEqual(t, text, "")
	return result
}

func moduleScope(result linker.Result, sourceIndex uint32) *js_ast.Scope {
	return result.Files[sourceIndex].InputFile.Repr.(*graph.JSRepr).AST.ModuleScope
}

func memberRef(t *testing.T, scope *js_ast.Scope, name string) js_ast.Ref {
	t.Helper()
	member, ok := scope.Members[name]
	if !ok {
		t.Fatalf("Missing %q in %s scope", name, scope.Kind)
	}
	return member.Ref
}

// Returns the scope of the body of the "n"th top-level function
func functionBody(scope *js_ast.Scope, n int) *js_ast.Scope {
	for _, child := range scope.Children {
		if child.Kind == js_ast.ScopeFunctionArgs {
			if n == 0 {
				for _, body := range child.Children {
					if body.Kind == js_ast.ScopeFunctionBody {
						return body
					}
				}
			}
			n--
		}
	}
	return nil
}

func TestTopLevelNamesAreShared(t *testing.T) {
	result := linkForTest(t,
		"import {x as y} from './1.js'; let x; y(x)",
		"export let x; let z",
	)
	r := RenameFiles(result.Symbols, result.Files, 0)

	// The import is named after the export it was bound to, which claims "x"
	// before the local "x" of the first file is reached
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, moduleScope(result, 0), "y")), "x")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, moduleScope(result, 1), "x")), "x")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, moduleScope(result, 0), "x")), "x2")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, moduleScope(result, 1), "z")), "z")
}

func TestReservedNames(t *testing.T) {
	result := linkForTest(t,
		"let foo; function f() { let foo }",
		"foo()",
	)
	r := RenameFiles(result.Symbols, result.Files, 0)

	// "foo" is a global in the second file, so nothing may shadow it
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, moduleScope(result, 1), "foo")), "foo")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, moduleScope(result, 0), "foo")), "foo2")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, functionBody(moduleScope(result, 0), 0), "foo")), "foo3")

	reserved := ComputeReservedNames([]*js_ast.Scope{moduleScope(result, 1)}, result.Symbols)
	test.AssertEqual(t, reserved["foo"], uint32(1))
	test.AssertEqual(t, reserved["function"], uint32(1))
	test.AssertEqual(t, reserved["implements"], uint32(1))
	test.AssertEqual(t, reserved["f"], uint32(0))
}

func TestSiblingScopesReuseNames(t *testing.T) {
	result := linkForTest(t, "let x; function f() { let x; let x2 } function g() { let x }")
	r := RenameFiles(result.Symbols, result.Files, 0)
	scope := moduleScope(result, 0)

	test.AssertEqual(t, r.NameForSymbol(memberRef(t, scope, "x")), "x")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, functionBody(scope, 0), "x")), "x2")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, functionBody(scope, 0), "x2")), "x22")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, functionBody(scope, 1), "x")), "x2")
}

func TestDirectEvalPinsNames(t *testing.T) {
	result := linkForTest(t, "let x; function f() { let x; eval(''); x }")
	r := RenameFiles(result.Symbols, result.Files, 0)
	scope := moduleScope(result, 0)

	// The evaluated code may refer to "x" by name
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, functionBody(scope, 0), "x")), "x")
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, scope, "eval")), "eval")
}

func TestNoOpRenamer(t *testing.T) {
	result := linkForTest(t,
		"import {x as y} from './1.js'; y",
		"export let x",
	)
	r := NewNoOpRenamer(result.Symbols)
	test.AssertEqual(t, r.NameForSymbol(memberRef(t, moduleScope(result, 0), "y")), "x")
}

func allNames(r Renamer, symbols js_ast.SymbolMap) []string {
	names := []string{}
	for outer, inner := range symbols.Outer {
		for i := range inner {
			names = append(names, r.NameForSymbol(js_ast.Ref{OuterIndex: uint32(outer), InnerIndex: uint32(i)}))
		}
	}
	return names
}

func TestRenameIsDeterministic(t *testing.T) {
	files := []string{}
	for i := 0; i < 16; i++ {
		files = append(files, fmt.Sprintf(
			"import {a as b} from './%d.js'; export let a; function f(a, b) { let c; { let a } } function g() { var a; return b }",
			(i+1)%16))
	}
	result := linkForTest(t, files...)
	expected := allNames(RenameFiles(result.Symbols, result.Files, 1), result.Symbols)

	for _, workers := range []int{2, 8, 0} {
		for attempt := 0; attempt < 4; attempt++ {
			actual := allNames(RenameFiles(result.Symbols, result.Files, workers), result.Symbols)
			test.AssertEqual(t, len(actual), len(expected))
			for i := range actual {
				test.AssertEqual(t, actual[i], expected[i])
			}
		}
	}
}
