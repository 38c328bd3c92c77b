package js_parser

import (
	"testing"

	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/logger"
	"github.com/evanw/esbind/internal/test"
)

func expectParseErrorCommon(t *testing.T, contents string, expected string, options config.Options) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		text := test.CaptureLog(func(log logger.Log) {
			Parse(log, test.SourceForTest(contents), options)
		})
		test.AssertEqual(t, text, expected)
	})
}

func expectParseError(t *testing.T, contents string, expected string) {
	t.Helper()
	expectParseErrorCommon(t, contents, expected, config.Options{})
}

func expectParseErrorTS(t *testing.T, contents string, expected string) {
	t.Helper()
	expectParseErrorCommon(t, contents, expected, config.Options{TS: config.TSOptions{Parse: true}})
}

func expectParseErrorBundling(t *testing.T, contents string, expected string) {
	t.Helper()
	expectParseErrorCommon(t, contents, expected, config.Options{IsBundling: true})
}

// Parses code that must not produce any messages
func parseForTest(t *testing.T, contents string, options config.Options) js_ast.AST {
	t.Helper()
	var tree js_ast.AST
	var ok bool
	text := test.CaptureLog(func(log logger.Log) {
		tree, ok = Parse(log, test.SourceForTest(contents), options)
	})
	test.AssertEqual(t, text, "")
	if !ok {
		t.Fatalf("Failed to parse %q", contents)
	}
	return tree
}

func memberSymbol(t *testing.T, tree js_ast.AST, scope *js_ast.Scope, name string) (js_ast.Ref, *js_ast.Symbol) {
	t.Helper()
	member, ok := scope.Members[name]
	if !ok {
		t.Fatalf("Expected %q in %s scope", name, scope.Kind)
	}
	return member.Ref, &tree.Symbols[member.Ref.InnerIndex]
}

func TestHoisting(t *testing.T) {
	tree := parseForTest(t, "function f() { { var x; let y } } var z", config.Options{})
	module := tree.ModuleScope

	if _, ok := module.Members["x"]; ok {
		t.Fatalf("Hoisting must stop at the function")
	}
	memberSymbol(t, tree, module, "f")
	memberSymbol(t, tree, module, "z")

	fnArgs := module.Children[0]
	test.AssertEqual(t, fnArgs.Kind, js_ast.ScopeFunctionArgs)
	fnBody := fnArgs.Children[0]
	test.AssertEqual(t, fnBody.Kind, js_ast.ScopeFunctionBody)
	block := fnBody.Children[0]
	test.AssertEqual(t, block.Kind, js_ast.ScopeBlock)

	xRef, x := memberSymbol(t, tree, fnBody, "x")
	test.AssertEqual(t, x.Kind, js_ast.SymbolHoisted)
	test.AssertEqual(t, block.Members["x"].Ref, xRef)

	if _, ok := fnBody.Members["y"]; ok {
		t.Fatalf("Lexical declarations must not be hoisted")
	}
	_, y := memberSymbol(t, tree, block, "y")
	test.AssertEqual(t, y.Kind, js_ast.SymbolOther)
}

func TestBlockFunctionMeetsLexical(t *testing.T) {
	tree := parseForTest(t, "let x; { function x() {} function g() {} }", config.Options{})
	module := tree.ModuleScope
	block := module.Children[0]
	test.AssertEqual(t, block.Kind, js_ast.ScopeBlock)

	outerRef, outer := memberSymbol(t, tree, module, "x")
	test.AssertEqual(t, outer.Kind, js_ast.SymbolOther)
	innerRef, inner := memberSymbol(t, tree, block, "x")
	test.AssertEqual(t, inner.Kind, js_ast.SymbolHoistedFunction)
	if innerRef == outerRef {
		t.Fatalf("The block function must not be hoisted into the let")
	}

	// Functions without a collision still hoist
	gRef, _ := memberSymbol(t, tree, module, "g")
	test.AssertEqual(t, block.Members["g"].Ref, gRef)

	expectParseError(t, "const x = 1; if (y) { function x() {} }", "")
	expectParseError(t, "class x {} { { function x() {} } }", "")
	expectParseError(t, "function f() { let x; { function x() {} } }", "")
	expectParseError(t, "{ let x; function x() {} }", "<stdin>: error: \"x\" has already been declared\n")
	expectParseError(t, "{ let x; { var x } }", "<stdin>: error: \"x\" has already been declared\n")
}

func TestVarInCatch(t *testing.T) {
	tree := parseForTest(t, "var e = 0; try { throw 1 } catch (e) { e = 1; var e = 2 }", config.Options{})
	outerRef, outer := memberSymbol(t, tree, tree.ModuleScope, "e")
	test.AssertEqual(t, outer.Kind, js_ast.SymbolHoisted)

	catchScope := tree.ModuleScope.Children[1]
	catchRef, catch := memberSymbol(t, tree, catchScope, "e")
	test.AssertEqual(t, catch.Kind, js_ast.SymbolCatchIdentifier)
	if catchRef == outerRef {
		t.Fatalf("The catch binding must not be merged with the outer variable")
	}

	// Inside the catch body both the assignment and the declaration refer to
	// the catch binding
	try := tree.Stmts[1].Data.(*js_ast.STry)
	assign := try.Catch.Body[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EBinary)
	test.AssertEqual(t, assign.Left.Data.(*js_ast.EIdentifier).Ref, catchRef)
	decl := try.Catch.Body[1].Data.(*js_ast.SLocal).Decls[0]
	test.AssertEqual(t, decl.Binding.Data.(*js_ast.BIdentifier).Ref, catchRef)
}

func TestVarInCatchWithoutOuter(t *testing.T) {
	tree := parseForTest(t, "try {} catch (e) { var e }", config.Options{})
	outerRef, outer := memberSymbol(t, tree, tree.ModuleScope, "e")
	test.AssertEqual(t, outer.Kind, js_ast.SymbolHoisted)

	catchRef, _ := memberSymbol(t, tree, tree.ModuleScope.Children[1], "e")
	if catchRef == outerRef {
		t.Fatalf("The catch binding must not be merged with the hoisted variable")
	}
}

func TestRedeclaration(t *testing.T) {
	expectParseError(t, "var a; var a", "")
	expectParseError(t, "var a; function a() {}", "")
	expectParseError(t, "function a() {} var a", "")
	expectParseError(t, "function *a() {} function *a() {}", "")
	expectParseError(t, "{ let a } var a", "")
	expectParseError(t, "function f() { let arguments }", "")
	expectParseError(t, "function f() { var arguments }", "")
	expectParseError(t, "function f(a) { var a }", "")

	expectParseError(t, "let a; let a", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "let a; var a", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "var a; let a", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "{ let a; var a }", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "class a {} class a {}", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "function f(a) { let a }", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "{ function *a() {} function *a() {} }", "<stdin>: error: \"a\" has already been declared\n")
	expectParseError(t, "const a", "<stdin>: error: This constant must be initialized\n")
	expectParseError(t, "for (const a in b) ;", "")
}

func TestDirectEval(t *testing.T) {
	tree := parseForTest(t, "var y; (function() { var x })(); function g() { var z; eval('') }", config.Options{})
	test.AssertEqual(t, tree.UsesDirectEval, true)

	_, y := memberSymbol(t, tree, tree.ModuleScope, "y")
	test.AssertEqual(t, y.MustNotBeRenamed, true)

	// The first function is not an ancestor of the call
	first := tree.ModuleScope.Children[0].Children[0]
	_, x := memberSymbol(t, tree, first, "x")
	test.AssertEqual(t, x.MustNotBeRenamed, false)

	second := tree.ModuleScope.Children[1].Children[0]
	_, z := memberSymbol(t, tree, second, "z")
	test.AssertEqual(t, z.MustNotBeRenamed, true)

	call := second.Parent
	test.AssertEqual(t, call.ContainsDirectEval, true)
}

func TestIndirectEval(t *testing.T) {
	for _, contents := range []string{
		"(0, eval)('x')",
		"eval?.('x')",
		"let eval; eval('x')",
	} {
		tree := parseForTest(t, contents, config.Options{})
		test.AssertEqual(t, tree.UsesDirectEval, false)
	}
}

func TestWith(t *testing.T) {
	tree := parseForTest(t, "var a, b; with (a) { b }", config.Options{})
	_, a := memberSymbol(t, tree, tree.ModuleScope, "a")
	_, b := memberSymbol(t, tree, tree.ModuleScope, "b")
	test.AssertEqual(t, a.MustNotBeRenamed, false)
	test.AssertEqual(t, b.MustNotBeRenamed, true)
}

func TestUnbound(t *testing.T) {
	tree := parseForTest(t, "foo(); foo()", config.Options{})
	ref, foo := memberSymbol(t, tree, tree.ModuleScope, "foo")
	test.AssertEqual(t, foo.Kind, js_ast.SymbolUnbound)
	test.AssertEqual(t, foo.UseCountEstimate, uint32(2))

	call := tree.Stmts[1].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ECall)
	test.AssertEqual(t, call.Target.Data.(*js_ast.EIdentifier).Ref, ref)
}

func TestTypeScriptMerging(t *testing.T) {
	expectParseErrorTS(t, "class Foo {} namespace Foo { export let x }", "")
	expectParseErrorTS(t, "function Foo() {} namespace Foo {}", "")
	expectParseErrorTS(t, "enum Foo { A } namespace Foo { export let B }", "")
	expectParseErrorTS(t, "namespace Foo {} namespace Foo {}", "")
	expectParseErrorTS(t, "enum Foo { A } enum Foo { B }", "")
	expectParseErrorTS(t, "namespace Foo {} enum Foo { A }", "")
	expectParseErrorTS(t, "let Foo; namespace Foo {}", "<stdin>: error: \"Foo\" has already been declared\n")
	expectParseErrorTS(t, "let Foo; enum Foo {}", "<stdin>: error: \"Foo\" has already been declared\n")
	expectParseErrorTS(t, "import {Foo} from 'foo'; class Foo {}", "")
	expectParseError(t, "import {Foo} from 'foo'; class Foo {}", "<stdin>: error: \"Foo\" has already been declared\n")

	tree := parseForTest(t, "class Foo {} namespace Foo {}", config.Options{TS: config.TSOptions{Parse: true}})
	_, foo := memberSymbol(t, tree, tree.ModuleScope, "Foo")
	test.AssertEqual(t, foo.Kind, js_ast.SymbolClass)

	tree = parseForTest(t, "namespace Foo {} enum Foo { A }", config.Options{TS: config.TSOptions{Parse: true}})
	ref, foo := memberSymbol(t, tree, tree.ModuleScope, "Foo")
	test.AssertEqual(t, foo.Kind, js_ast.SymbolTSEnum)
	namespace := tree.Stmts[0].Data.(*js_ast.SNamespace)
	test.AssertEqual(t, tree.Symbols[namespace.Name.Ref.InnerIndex].Link, ref)
}

func TestTypeScriptEnum(t *testing.T) {
	tree := parseForTest(t, "enum E { A, B = 10, C, D = 'x', F }", config.Options{TS: config.TSOptions{Parse: true}})
	enum := tree.Stmts[0].Data.(*js_ast.SEnum)
	test.AssertEqual(t, len(enum.Values), 5)
	test.AssertEqual(t, enum.Values[0].Value.Data.(*js_ast.ENumber).Value, 0.0)
	test.AssertEqual(t, enum.Values[1].Value.Data.(*js_ast.ENumber).Value, 10.0)
	test.AssertEqual(t, enum.Values[2].Value.Data.(*js_ast.ENumber).Value, 11.0)
	if _, ok := enum.Values[4].Value.Data.(*js_ast.EUndefined); !ok {
		t.Fatalf("Expected undefined after a string value")
	}

	// Later values can refer to earlier ones by name
	tree = parseForTest(t, "enum E { A = 1, B = A }", config.Options{TS: config.TSOptions{Parse: true}})
	enum = tree.Stmts[0].Data.(*js_ast.SEnum)
	test.AssertEqual(t, enum.Values[1].Value.Data.(*js_ast.EIdentifier).Ref, enum.Values[0].Ref)

	expectParseError(t, "enum E {}", "<stdin>: error: Unexpected \"enum\"\n")
}

func TestTypeScriptNamespaceExports(t *testing.T) {
	options := config.Options{TS: config.TSOptions{Parse: true}}
	tree := parseForTest(t, "export namespace N { export let x = 1 } export namespace A.B {}", options)
	test.AssertEqual(t, len(tree.NamedExports), 2)
	if _, ok := tree.NamedExports["N"]; !ok {
		t.Fatalf("Missing export for the namespace")
	}
	if _, ok := tree.NamedExports["x"]; ok {
		t.Fatalf("Exports inside a namespace are not module exports")
	}

	// "A.B" nests a second namespace whose scope starts at the dot
	outer := tree.Stmts[1].Data.(*js_ast.SNamespace)
	inner := outer.Stmts[0].Data.(*js_ast.SNamespace)
	test.AssertEqual(t, inner.IsExport, true)
	_, b := memberSymbol(t, tree, tree.ModuleScope.Children[1], "B")
	test.AssertEqual(t, b.Kind, js_ast.SymbolTSNamespace)
}

func TestImportIdentifier(t *testing.T) {
	tree := parseForTest(t, "import {x} from 'foo'; ({x: x})", config.Options{})
	ref, x := memberSymbol(t, tree, tree.ModuleScope, "x")
	test.AssertEqual(t, x.Kind, js_ast.SymbolImport)
	test.AssertEqual(t, tree.HasES6Imports, true)

	object := tree.Stmts[1].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EObject)
	property := object.Properties[0]
	value, ok := property.Value.Data.(*js_ast.EImportIdentifier)
	if !ok {
		t.Fatalf("Expected an import identifier")
	}
	test.AssertEqual(t, value.Ref, ref)

	namedImport := tree.NamedImports[ref]
	test.AssertEqual(t, namedImport.Alias, "x")
	test.AssertEqual(t, namedImport.ImportRecordIndex, uint32(0))
	test.AssertEqual(t, tree.ImportRecords[0].Path, "foo")

	symbols := js_ast.NewSymbolMap(1)
	symbols.SetSourceSymbols(0, tree.Symbols)
	nameForSymbol := func(ref js_ast.Ref) string { return symbols.Get(ref).OriginalName }
	key := property.Key.Data.(*js_ast.EString).Value
	test.AssertEqual(t, js_ast.CanUseShorthandProperty(symbols, key, *property.Value, nameForSymbol), true)

	// Once the linker turns the import into a property access the shorthand
	// would change the meaning
	symbols.Get(ref).NamespaceAlias = &js_ast.NamespaceAlias{NamespaceRef: namedImport.NamespaceRef, Alias: "x"}
	test.AssertEqual(t, js_ast.CanUseShorthandProperty(symbols, key, *property.Value, nameForSymbol), false)
}

func TestImportForms(t *testing.T) {
	tree := parseForTest(t, "import 'a'; import * as ns from 'b'; import d, {e as f} from 'c'", config.Options{})
	test.AssertEqual(t, len(tree.ImportRecords), 3)
	test.AssertEqual(t, tree.ImportRecords[0].WasOriginallyBareImport, true)
	test.AssertEqual(t, tree.ImportRecords[1].ContainsImportStar, true)
	test.AssertEqual(t, tree.ImportRecords[2].WasOriginallyBareImport, false)

	nsRef, _ := memberSymbol(t, tree, tree.ModuleScope, "ns")
	test.AssertEqual(t, tree.NamedImports[nsRef].AliasIsStar, true)
	test.AssertEqual(t, tree.NamedImports[nsRef].NamespaceRef, js_ast.InvalidRef)

	dRef, _ := memberSymbol(t, tree, tree.ModuleScope, "d")
	test.AssertEqual(t, tree.NamedImports[dRef].Alias, "default")

	fRef, _ := memberSymbol(t, tree, tree.ModuleScope, "f")
	test.AssertEqual(t, tree.NamedImports[fRef].Alias, "e")
	if _, ok := tree.ModuleScope.Members["e"]; ok {
		t.Fatalf("Only the local name is declared")
	}

	expectParseError(t, "import {x} from 'foo'; x = 1", "<stdin>: error: Cannot assign to import \"x\"\n")
	expectParseError(t, "import {x} from 'foo'; x++", "<stdin>: error: Cannot assign to import \"x\"\n")
	expectParseError(t, "import {x} from 'foo'; [x] = []", "<stdin>: error: Cannot assign to import \"x\"\n")
	expectParseError(t, "import * as ns from 'foo'; ns = 1", "<stdin>: error: Cannot assign to import \"ns\"\n")
	expectParseError(t, "import {x} from 'foo'; x.y = 1", "")
	expectParseError(t, "import {if} from 'foo'", "<stdin>: error: Expected \"as\" but found \"}\"\n")
	expectParseError(t, "function f() { import 'foo' }", "<stdin>: error: Unexpected \"'foo'\"\n")
}

func TestExports(t *testing.T) {
	tree := parseForTest(t, "export default 1", config.Options{})
	test.AssertEqual(t, tree.HasES6Exports, true)
	def := tree.NamedExports["default"]
	test.AssertEqual(t, tree.Symbols[def.Ref.InnerIndex].OriginalName, "stdin_default")

	tree = parseForTest(t, "export default function foo() {}", config.Options{})
	fooRef, _ := memberSymbol(t, tree, tree.ModuleScope, "foo")
	test.AssertEqual(t, tree.NamedExports["default"].Ref, fooRef)
	if _, ok := tree.NamedExports["foo"]; ok {
		t.Fatalf("A default export is only exported as \"default\"")
	}

	tree = parseForTest(t, "export * from 'a'; export * as ns from 'b'; export {x as y} from 'c'", config.Options{})
	test.AssertEqual(t, len(tree.ExportStarImportRecords), 1)
	test.AssertEqual(t, tree.ExportStarImportRecords[0], uint32(0))
	ns := tree.NamedExports["ns"]
	test.AssertEqual(t, tree.NamedImports[ns.Ref].AliasIsStar, true)
	test.AssertEqual(t, tree.NamedImports[ns.Ref].IsExported, true)
	y := tree.NamedExports["y"]
	test.AssertEqual(t, tree.NamedImports[y.Ref].Alias, "x")
	test.AssertEqual(t, tree.NamedImports[y.Ref].IsExported, true)

	tree = parseForTest(t, "import {x} from 'a'; export {x}", config.Options{})
	xRef, _ := memberSymbol(t, tree, tree.ModuleScope, "x")
	test.AssertEqual(t, tree.NamedImports[xRef].IsExported, true)
	test.AssertEqual(t, tree.NamedExports["x"].Ref, xRef)

	expectParseError(t, "export let a; export {a}", "<stdin>: error: Multiple exports with the same name \"a\"\n")
	expectParseError(t, "export {b}", "<stdin>: error: \"b\" is not declared in this file\n")
	expectParseErrorTS(t, "export {b}", "")
	expectParseError(t, "export {default}", "<stdin>: error: Expected identifier but found \"default\"\n")
	expectParseError(t, "export {default} from 'x'", "")
	expectParseError(t, "export {if as x} from 'x'", "")
	expectParseError(t, "function f() { export let a }", "<stdin>: error: Unexpected \"export\"\n")
}

func TestCommonJS(t *testing.T) {
	bundling := config.Options{IsBundling: true}

	tree := parseForTest(t, "exports.x = 1", bundling)
	test.AssertEqual(t, tree.UsesExportsRef, true)
	test.AssertEqual(t, tree.HasCommonJSFeatures(), true)

	tree = parseForTest(t, "module.exports = 1", bundling)
	test.AssertEqual(t, tree.UsesModuleRef, true)

	tree = parseForTest(t, "return", config.Options{})
	test.AssertEqual(t, tree.HasTopLevelReturn, true)
	test.AssertEqual(t, tree.HasES6Syntax(), false)

	// A module with import or export syntax can't return
	returnInModule := "<stdin>: error: Top-level return cannot be used inside an ECMAScript module\n"
	expectParseError(t, "export let x; return", returnInModule)
	expectParseError(t, "import 'x'; if (y) return; return", returnInModule+returnInModule)
	expectParseError(t, "export function f() { return }", "")

	// CommonJS code can declare its own "exports" without shadowing it
	tree = parseForTest(t, "var exports; exports.x = 1", bundling)
	test.AssertEqual(t, tree.UsesExportsRef, true)

	tree = parseForTest(t, "exports.x = 1", config.Options{})
	test.AssertEqual(t, tree.UsesExportsRef, false)
}

func TestRequire(t *testing.T) {
	tree := parseForTest(t, "require('x')", config.Options{IsBundling: true})
	require := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ERequire)
	record := tree.ImportRecords[require.ImportRecordIndex]
	test.AssertEqual(t, record.Kind, ast.ImportRequire)
	test.AssertEqual(t, record.Path, "x")

	tree = parseForTest(t, "require('x')", config.Options{Platform: config.PlatformNode})
	if _, ok := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ERequire); !ok {
		t.Fatalf("Expected a require expression")
	}

	tree = parseForTest(t, "require('x')", config.Options{})
	if _, ok := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ECall); !ok {
		t.Fatalf("Expected a plain call")
	}

	tree = parseForTest(t, "let require; require('x')", config.Options{IsBundling: true})
	test.AssertEqual(t, len(tree.ImportRecords), 0)

	tree = parseForTest(t, "import('x')", config.Options{})
	dynamic := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EImport)
	test.AssertEqual(t, tree.ImportRecords[*dynamic.ImportRecordIndex].Kind, ast.ImportDynamic)

	expectParseErrorBundling(t, "require(x)",
		"<stdin>: warning: This call to \"require\" will not be bundled because the argument is not a string literal\n")
	expectParseErrorBundling(t, "require('a', 'b')",
		"<stdin>: warning: This call to \"require\" will not be bundled because it has 2 arguments\n")
	expectParseErrorBundling(t, "import(x)",
		"<stdin>: warning: This dynamic import will not be bundled because the argument is not a string literal\n")
	expectParseError(t, "require(x)", "")
}

func TestLabels(t *testing.T) {
	expectParseError(t, "a: { break a }", "")
	expectParseError(t, "a: while (1) { continue a }", "")
	expectParseError(t, "a: b: while (1) { continue a }", "")
	expectParseError(t, "while (1) { break }", "")
	expectParseError(t, "switch (x) { case 1: break }", "")
	expectParseError(t, "a: { b: { break a } }", "")

	expectParseError(t, "break", "<stdin>: error: Cannot use \"break\" here\n")
	expectParseError(t, "continue", "<stdin>: error: Cannot use \"continue\" here\n")
	expectParseError(t, "switch (x) { case 1: continue }", "<stdin>: error: Cannot use \"continue\" here\n")
	expectParseError(t, "while (1) { function f() { break } }", "<stdin>: error: Cannot use \"break\" here\n")
	expectParseError(t, "while (1) { () => { continue } }", "<stdin>: error: Cannot use \"continue\" here\n")
	expectParseError(t, "a: { continue a }", "<stdin>: error: Cannot continue to label \"a\"\n")
	expectParseError(t, "a: a: ;", "<stdin>: error: Duplicate label \"a\"\n")
	expectParseError(t, "break b", "<stdin>: error: There is no containing label named \"b\"\n")
	expectParseError(t, "a: while (1) { function f() { break a } }", "<stdin>: error: There is no containing label named \"a\"\n")

	tree := parseForTest(t, "a: for (;;) break a", config.Options{})
	label := tree.Stmts[0].Data.(*js_ast.SLabel)
	test.AssertEqual(t, tree.Symbols[label.Name.Ref.InnerIndex].Kind, js_ast.SymbolLabel)
	scope := tree.ModuleScope.Children[0]
	test.AssertEqual(t, scope.Kind, js_ast.ScopeLabel)
	test.AssertEqual(t, scope.LabelRef, label.Name.Ref)
	test.AssertEqual(t, scope.LabelStmtIsLoop, true)
}

func TestArrowScopes(t *testing.T) {
	// A parenthesized expression that isn't an arrow function must not leave
	// an arguments scope behind
	tree := parseForTest(t, "(function() {}, 1); (a = function() {}) => a; x => x", config.Options{})
	kinds := []js_ast.ScopeKind{}
	for _, child := range tree.ModuleScope.Children {
		kinds = append(kinds, child.Kind)
	}
	test.AssertEqual(t, len(kinds), 3)
	for _, kind := range kinds {
		test.AssertEqual(t, kind, js_ast.ScopeFunctionArgs)
	}

	// The function in the default value belongs to the arrow function
	arrowArgs := tree.ModuleScope.Children[1]
	test.AssertEqual(t, len(arrowArgs.Children), 2)
	test.AssertEqual(t, arrowArgs.Children[0].Kind, js_ast.ScopeFunctionArgs)
	test.AssertEqual(t, arrowArgs.Children[1].Kind, js_ast.ScopeFunctionBody)

	tree = parseForTest(t, "async (a, b) => a; async x => x; async(a, b)", config.Options{})
	call := tree.Stmts[2].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ECall)
	test.AssertEqual(t, len(call.Args), 2)
	arrow := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EArrow)
	test.AssertEqual(t, arrow.IsAsync, true)
	test.AssertEqual(t, arrow.PreferExpr, true)
}

func TestClassScopes(t *testing.T) {
	tree := parseForTest(t, "let C = class D { m() { return D } }; class E {}", config.Options{})
	className := tree.ModuleScope.Children[0]
	test.AssertEqual(t, className.Kind, js_ast.ScopeClassName)
	dRef, _ := memberSymbol(t, tree, className, "D")
	test.AssertEqual(t, tree.ModuleScope.Children[1].Kind, js_ast.ScopeClassBody)

	class := tree.Stmts[0].Data.(*js_ast.SLocal).Decls[0].Value.Data.(*js_ast.EClass)
	method := class.Class.Properties[0].Value.Data.(*js_ast.EFunction)
	ret := method.Fn.Body.Stmts[0].Data.(*js_ast.SReturn)
	test.AssertEqual(t, ret.Value.Data.(*js_ast.EIdentifier).Ref, dRef)

	if _, ok := tree.ModuleScope.Members["D"]; ok {
		t.Fatalf("A class expression name is only visible inside the class")
	}
	_, e := memberSymbol(t, tree, tree.ModuleScope, "E")
	test.AssertEqual(t, e.Kind, js_ast.SymbolClass)
}

func TestFunctionExpressionName(t *testing.T) {
	// The name of a function expression can be shadowed by its body
	expectParseError(t, "(function f() { let f })", "")
	expectParseError(t, "(function arguments() {})", "")

	tree := parseForTest(t, "(function f() { return f })", config.Options{})
	args := tree.ModuleScope.Children[0]
	fRef, f := memberSymbol(t, tree, args, "f")
	test.AssertEqual(t, f.Kind, js_ast.SymbolHoistedFunction)
	_, arguments := memberSymbol(t, tree, args, "arguments")
	test.AssertEqual(t, arguments.Kind, js_ast.SymbolArguments)
	test.AssertEqual(t, arguments.MustNotBeRenamed, true)

	fn := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EFunction)
	ret := fn.Fn.Body.Stmts[0].Data.(*js_ast.SReturn)
	test.AssertEqual(t, ret.Value.Data.(*js_ast.EIdentifier).Ref, fRef)
}

func TestSyntaxErrors(t *testing.T) {
	expectParseError(t, "(a, ...b)", "<stdin>: error: Unexpected \"...\"\n")
	expectParseError(t, "()", "<stdin>: error: Expected \"=>\" but found end of file\n")
	expectParseError(t, "x\n=> 1", "<stdin>: error: Unexpected newline before \"=>\"\n")
	expectParseError(t, "throw\n1", "<stdin>: error: Unexpected newline after \"throw\"\n")
	expectParseError(t, "-a ** b", "<stdin>: error: Unexpected \"**\"\n")
	expectParseError(t, "(1) => 1", "<stdin>: error: Invalid binding pattern\n")
	expectParseError(t, "((a)) => 1", "<stdin>: error: Invalid binding pattern\n")
	expectParseError(t, "(b, ([c])) => 1", "<stdin>: error: Invalid binding pattern\n")
	expectParseError(t, "([a, (b)]) => 1", "<stdin>: error: Invalid binding pattern\n")
	expectParseError(t, "(a, [b], {c}) => 1", "")
	expectParseError(t, "(a) = 1", "")
	expectParseError(t, "([a]) = 1", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "new.target", "<stdin>: error: Cannot use \"new.target\" here\n")
	expectParseError(t, "() => new.target", "<stdin>: error: Cannot use \"new.target\" here\n")
	expectParseError(t, "function f() { () => new.target }", "")
	expectParseError(t, "class A { x = new.target; y() { new.target } }", "")
	expectParseError(t, "({a = 1})", "<stdin>: error: Unexpected \"=\"\n")
	expectParseError(t, "({a = 1}) => 1", "")
	expectParseError(t, "({a = 1} = {})", "")
	expectParseError(t, "[...a, b] = c", "<stdin>: error: Unexpected \",\" after rest pattern\n")
	expectParseError(t, "let [...a, b] = c", "<stdin>: error: Unexpected \",\" after rest pattern\n")
	expectParseError(t, "({if})", "<stdin>: error: Unexpected \"if\"\n")
	expectParseError(t, "a?.b`c`", "<stdin>: error: Template literals cannot have an optional chain as a tag\n")
	expectParseError(t, "switch (x) { default: default: }", "<stdin>: error: Multiple default clauses are not allowed\n")
	expectParseError(t, "if (1) class A {}", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectParseError(t, "if (1) let x = 1", "<stdin>: error: Cannot use a declaration in a single-statement context\n")
	expectParseError(t, "let = 1", "")
	expectParseError(t, "new.foo", "<stdin>: error: Unexpected \"foo\"\n")
	expectParseError(t, "import.foo", "<stdin>: error: Expected \"meta\" but found \"foo\"\n")
	expectParseError(t, "#!/usr/bin/env node\nlet x = 1", "")
}

func TestForLoops(t *testing.T) {
	expectParseError(t, "for (let a of b) ;", "")
	expectParseError(t, "for (var a = 1 in b) ;", "")
	expectParseError(t, "for (a in b) ;", "")
	expectParseError(t, "for (let a = 1, b; ;) ;", "")
	expectParseError(t, "for (let a, b of c) ;", "<stdin>: error: for-of loops must have a single declaration\n")
	expectParseError(t, "for (let a = 1 of c) ;", "<stdin>: error: for-of loop variables cannot have an initializer\n")
	expectParseError(t, "for (let a = 1 in c) ;", "<stdin>: error: for-in loop variables cannot have an initializer\n")
	expectParseError(t, "for (const a; ;) ;", "<stdin>: error: This constant must be initialized\n")
	expectParseError(t, "for await (x of y) ;", "<stdin>: error: Cannot use \"await\" outside an async function\n")
	expectParseError(t, "async function f() { for await (x of y) ; }", "")

	// The loop variable is scoped to the loop
	tree := parseForTest(t, "for (let i = 0; i < 10; i++) ;", config.Options{})
	if _, ok := tree.ModuleScope.Members["i"]; ok {
		t.Fatalf("The loop variable must not leak out of the loop")
	}
	memberSymbol(t, tree, tree.ModuleScope.Children[0], "i")
}

func TestAssignmentTargets(t *testing.T) {
	expectParseError(t, "a = 1; a.b = 1; a[b] += 1; a.b++", "")
	expectParseError(t, "[a, , b = 1, ...c] = d", "")
	expectParseError(t, "({a, b: c.d = 1, ...e} = f)", "")
	expectParseError(t, "for (a.b of c) ;", "")

	expectParseError(t, "a?.b = 1", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "a?.[b]++", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "f() = 1", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "this += 1", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "[a, f()] = b", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "({a: 1} = b)", "<stdin>: error: Invalid assignment target\n")
	expectParseError(t, "for (f() in b) ;", "<stdin>: error: Invalid assignment target\n")
}

func TestClassErrors(t *testing.T) {
	expectParseError(t, "class A { get constructor() {} }", "<stdin>: error: Class constructor cannot be a getter\n")
	expectParseError(t, "class A { set constructor(x) {} }", "<stdin>: error: Class constructor cannot be a setter\n")
	expectParseError(t, "class A { async constructor() {} }", "<stdin>: error: Class constructor cannot be an async function\n")
	expectParseError(t, "class A { *constructor() {} }", "<stdin>: error: Class constructor cannot be a generator\n")
	expectParseError(t, "class A { static constructor() {} }", "")
	expectParseError(t, "class A { static prototype() {} }", "<stdin>: error: Invalid static method name \"prototype\"\n")
	expectParseError(t, "class A { x = 1; static y; z }", "")
	expectParseError(t, "({get a(b) {}})", "<stdin>: error: Getter \"a\" must have zero arguments\n")
	expectParseError(t, "({set a() {}})", "<stdin>: error: Setter \"a\" must have exactly one argument\n")
	expectParseError(t, "({set a(b, c) {}})", "<stdin>: error: Setter \"a\" must have exactly one argument\n")

	expectParseError(t, "super()", "<stdin>: error: Unexpected \"super\"\n")
	expectParseError(t, "class A { constructor() { super() } }", "<stdin>: error: Unexpected \"super\"\n")
	expectParseError(t, "class A extends B { constructor() { super() } }", "")
	expectParseError(t, "class A extends B { constructor() { () => super() } }", "")
	expectParseError(t, "class A extends B { foo() { super.foo() } }", "")
}

func TestWarnings(t *testing.T) {
	expectParseError(t, "!a in b", "<stdin>: warning: Suspicious use of the \"!\" operator inside the \"in\" operator\n")
	expectParseError(t, "!a instanceof b", "<stdin>: warning: Suspicious use of the \"!\" operator inside the \"instanceof\" operator\n")
	expectParseError(t, "!(a in b)", "")
	expectParseError(t, "function f() { return\nx }",
		"<stdin>: warning: The following expression is not returned because of an automatically-inserted semicolon\n")
	expectParseError(t, "function f() { return;\nx }", "")
}

func TestGeneratorsAndAsync(t *testing.T) {
	expectParseError(t, "function* f() { yield 1; yield* g; yield }", "")
	expectParseError(t, "function* f() { 1 + yield }", "<stdin>: error: Cannot use a \"yield\" expression here without parentheses\n")
	expectParseError(t, "async function f() { await x }", "")
	expectParseError(t, "async function f(await) {}", "<stdin>: error: Cannot use \"await\" as an identifier here\n")
	expectParseError(t, "function f() { var await, yield }", "")

	tree := parseForTest(t, "async function f() {} function* g() {}", config.Options{})
	_, f := memberSymbol(t, tree, tree.ModuleScope, "f")
	test.AssertEqual(t, f.Kind, js_ast.SymbolGeneratorOrAsyncFunction)
	_, g := memberSymbol(t, tree, tree.ModuleScope, "g")
	test.AssertEqual(t, g.Kind, js_ast.SymbolGeneratorOrAsyncFunction)
}

func TestDirective(t *testing.T) {
	tree := parseForTest(t, "'use strict'; x", config.Options{})
	test.AssertEqual(t, tree.Directive, "use strict")
	test.AssertEqual(t, len(tree.Stmts), 1)

	tree = parseForTest(t, "'use asm'; x", config.Options{})
	test.AssertEqual(t, tree.Directive, "")
	str := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EString)
	test.AssertEqual(t, helpers.UTF16ToString(str.Value), "use asm")
}

func TestDestructuringBindings(t *testing.T) {
	tree := parseForTest(t, "let {a, b: [c, ...d], ...e} = x; ({f, g: h} = y)", config.Options{})
	for _, name := range []string{"a", "c", "d", "e"} {
		_, symbol := memberSymbol(t, tree, tree.ModuleScope, name)
		test.AssertEqual(t, symbol.Kind, js_ast.SymbolOther)
	}
	for _, name := range []string{"f", "h"} {
		_, symbol := memberSymbol(t, tree, tree.ModuleScope, name)
		test.AssertEqual(t, symbol.Kind, js_ast.SymbolUnbound)
	}
	if _, ok := tree.ModuleScope.Members["b"]; ok {
		t.Fatalf("Property keys are not bindings")
	}
}

func TestSymbolsUseSourceIndex(t *testing.T) {
	source := test.SourceForTest("let a = b")
	source.Index = 3
	var tree js_ast.AST
	test.CaptureLog(func(log logger.Log) {
		tree, _ = Parse(log, source, config.Options{})
	})
	ref, _ := memberSymbol(t, tree, tree.ModuleScope, "a")
	test.AssertEqual(t, ref.OuterIndex, uint32(3))
	test.AssertEqual(t, tree.Symbols[0].MustNotBeRenamed, true)
}
