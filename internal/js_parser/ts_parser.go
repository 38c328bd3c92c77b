// This file contains code for parsing the TypeScript declarations that create
// runtime values. Type annotations are not supported.

package js_parser

import (
	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_lexer"
	"github.com/evanw/esbind/internal/logger"
)

// The current token is "enum"
func (p *parser) parseTypeScriptEnumStmt(loc logger.Loc, opts parseStmtOpts) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TEnum)
	nameLoc := p.lexer.Loc()
	nameText := p.lexer.Identifier
	p.lexer.Expect(js_lexer.TIdentifier)
	name := js_ast.LocRef{Loc: nameLoc, Ref: js_ast.InvalidRef}

	// Enums merge with an earlier enum or namespace of the same name
	_, alreadyExists := p.currentScope.Members[nameText]
	name.Ref = p.declareSymbol(js_ast.SymbolTSEnum, nameLoc, nameText)
	p.lexer.Expect(js_lexer.TOpenBrace)

	p.pushScopeForParsePass(js_ast.ScopeEntry, loc)

	// The enum body is compiled to a function with this argument
	argRef := p.declareSymbol(js_ast.SymbolHoisted, nameLoc, nameText)

	values := []js_ast.EnumValue{}
	for p.lexer.Token != js_lexer.TCloseBrace {
		value := js_ast.EnumValue{
			Loc: p.lexer.Loc(),
			Ref: js_ast.InvalidRef,
		}

		// Parse the name
		if p.lexer.Token == js_lexer.TStringLiteral {
			value.Name = p.lexer.StringLiteral
		} else if p.lexer.IsIdentifierOrKeyword() {
			value.Name = helpers.StringToUTF16(p.lexer.Identifier)
		} else {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()

		// Values that are valid identifiers are visible to later values
		if text := helpers.UTF16ToString(value.Name); js_ast.IsIdentifier(text) {
			value.Ref = p.declareSymbol(js_ast.SymbolOther, value.Loc, text)
		}

		// Parse the initializer
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			initializer := p.parseExpr(js_ast.LComma)
			value.Value = &initializer
		}

		values = append(values, value)

		if p.lexer.Token != js_lexer.TComma && p.lexer.Token != js_lexer.TSemicolon {
			break
		}
		p.lexer.Next()
	}

	p.popScope()
	p.lexer.Expect(js_lexer.TCloseBrace)

	if opts.isExport && !alreadyExists {
		p.recordExport(nameLoc, nameText, name.Ref)
	}

	return js_ast.Stmt{Loc: loc, Data: &js_ast.SEnum{
		Name:     name,
		Arg:      argRef,
		Values:   values,
		IsExport: opts.isExport,
	}}
}

// The current token is the namespace name, or the name after a dot
func (p *parser) parseTypeScriptNamespaceStmt(loc logger.Loc, opts parseStmtOpts) js_ast.Stmt {
	nameLoc := p.lexer.Loc()
	nameText := p.lexer.Identifier
	p.lexer.Next()

	name := js_ast.LocRef{Loc: nameLoc, Ref: js_ast.InvalidRef}
	p.pushScopeForParsePass(js_ast.ScopeEntry, loc)

	oldEnclosingNamespaceRef := p.enclosingNamespaceRef
	p.enclosingNamespaceRef = &name.Ref

	// The namespace body is compiled to a function with this argument
	argRef := p.declareSymbol(js_ast.SymbolHoisted, nameLoc, nameText)

	var stmts []js_ast.Stmt
	if p.lexer.Token == js_lexer.TDot {
		// "namespace a.b.c {}" is a namespace nested in each dotted name
		dotLoc := p.lexer.Loc()
		p.lexer.Next()
		stmts = []js_ast.Stmt{p.parseTypeScriptNamespaceStmt(dotLoc, parseStmtOpts{
			isExport:         true,
			isNamespaceScope: true,
		})}
	} else {
		p.lexer.Expect(js_lexer.TOpenBrace)
		stmts = p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{isNamespaceScope: true})
		p.lexer.Next()
	}

	p.enclosingNamespaceRef = oldEnclosingNamespaceRef
	p.popScope()

	// The name is declared after the body so that the body can't see it
	// through the parent scope. Inside the body the argument is used instead.
	_, alreadyExists := p.currentScope.Members[nameText]
	name.Ref = p.declareSymbol(js_ast.SymbolTSNamespace, nameLoc, nameText)
	if opts.isExport && !alreadyExists {
		p.recordExport(nameLoc, nameText, name.Ref)
	}

	return js_ast.Stmt{Loc: loc, Data: &js_ast.SNamespace{
		Name:     name,
		Arg:      argRef,
		Stmts:    stmts,
		IsExport: opts.isExport,
	}}
}
