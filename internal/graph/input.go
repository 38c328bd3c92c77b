package graph

// The code in this file mainly represents data that passes from the scan phase
// to the link phase of the bundler. The "meta" member of the JavaScript file
// representation is the one exception. It is only filled in by the linker and
// lives next to the AST to avoid an extra level of indirection.

import (
	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/logger"
)

type InputFile struct {
	Source logger.Source
	Repr   InputFileRepr
	Loader config.Loader
}

type InputFileRepr interface {
	ImportRecords() *[]ast.ImportRecord
}

type JSRepr struct {
	AST  js_ast.AST
	Meta JSReprMeta

	// The file had a syntax error. The AST is an empty module that stands in
	// for it so that source indices stay dense.
	IsStub bool
}

func (repr *JSRepr) ImportRecords() *[]ast.ImportRecord {
	return &repr.AST.ImportRecords
}

// JSON files have no symbols. Importing one goes through its exports object
// the same way importing a CommonJS file does.
type JSONRepr struct {
	Value js_ast.Expr
	OK    bool
}

func (repr *JSONRepr) ImportRecords() *[]ast.ImportRecord {
	return nil
}

// This is the AST used for files that failed to parse
func StubAST() js_ast.AST {
	return js_ast.AST{
		Symbols: []js_ast.Symbol{js_ast.PlaceholderSymbol()},
		ModuleScope: &js_ast.Scope{
			Kind:    js_ast.ScopeEntry,
			Members: make(map[string]js_ast.ScopeMember),
		},
		NamedImports: make(map[js_ast.Ref]js_ast.NamedImport),
		NamedExports: make(map[string]js_ast.NamedExport),
	}
}
