package js_parser

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_lexer"
	"github.com/evanw/esbind/internal/logger"
)

// This parser does two passes:
//
// 1. Parse the source into an AST, create the scope tree, and declare symbols.
//
// 2. Visit each node in the AST, bind identifiers to declared symbols, and
//    record imports and exports.
//
// Binding is deferred to the second pass because arrow functions can't be
// told apart from parenthesized expressions until the "=>" is reached, and
// by then the arguments have already been parsed. Identifiers parsed in the
// first pass hold their name in the ref itself (see storeNameInRef) until
// the second pass looks them up in the scope tree.
type parser struct {
	options                  config.Options
	log                      logger.Log
	source                   logger.Source
	lexer                    js_lexer.Lexer
	allowIn                  bool
	currentFnOpts            fnOpts
	latestReturnHadSemicolon bool
	hasTopLevelReturn        bool
	topLevelReturns          []logger.Loc
	allocatedNames           []string
	currentScope             *js_ast.Scope
	moduleScope              *js_ast.Scope
	symbols                  []js_ast.Symbol
	exportsRef               js_ast.Ref
	requireRef               js_ast.Ref
	moduleRef                js_ast.Ref

	// This is non-nil while parsing or visiting the body of a TypeScript
	// namespace. Exports inside a namespace are not ES6 exports.
	enclosingNamespaceRef *js_ast.Ref

	importRecords           []ast.ImportRecord
	exportStarImportRecords []uint32
	hasES6ImportSyntax      bool
	hasES6ExportSyntax      bool
	isImportItem            map[js_ast.Ref]bool
	namedImports            map[js_ast.Ref]js_ast.NamedImport
	namedExports            map[string]js_ast.NamedExport

	// The parse pass records every scope it pushes here, and the visit pass
	// replays them in the same order
	scopesInOrder []scopeOrder

	// Parentheses around an identifier leave no trace in the tree, but they make
	// it an invalid binding
	parenthesizedIdentifiers map[*js_ast.EIdentifier]bool

	// Only used in the visit pass
	jumps jumpTargets

	// "new.target" is only allowed inside a function or a class field. Arrow
	// functions inherit this from their parent.
	isNewTargetAllowed bool
}

type scopeOrder struct {
	loc   logger.Loc
	scope *js_ast.Scope
}

type jumpTargets struct {
	isInsideLoop   bool
	isInsideSwitch bool
}

type fnOpts struct {
	asyncRange     logger.Range
	isOutsideFn    bool
	allowAwait     bool
	allowYield     bool
	allowSuperCall bool
}

type parseStmtOpts struct {
	allowLexicalDecl bool
	isModuleScope    bool
	isNamespaceScope bool
	isExport         bool
	isNameOptional   bool // For "export default" pseudo-statements
}

type propertyOpts struct {
	asyncRange      logger.Range
	isAsync         bool
	isGenerator     bool
	isStatic        bool
	isClass         bool
	classHasExtends bool
}

// The module scope is pushed before any token, so it gets a location that
// comes before every real location.
const locModuleScope = -1

// Refs with this outer index hold a name that hasn't been bound yet
const stashedNameOuterIndex = ^uint32(0)

func (p *parser) storeNameInRef(name string) js_ast.Ref {
	index, err := safecast.Conv[uint32](len(p.allocatedNames))
	if err != nil {
		panic("Internal error: Too many names")
	}
	p.allocatedNames = append(p.allocatedNames, name)
	return js_ast.Ref{OuterIndex: stashedNameOuterIndex, InnerIndex: index}
}

func (p *parser) loadNameFromRef(ref js_ast.Ref) string {
	if ref.OuterIndex != stashedNameOuterIndex {
		panic(fmt.Sprintf("Internal error: Ref %s does not hold a name", ref))
	}
	return p.allocatedNames[ref.InnerIndex]
}

func (p *parser) pushScopeForParsePass(kind js_ast.ScopeKind, loc logger.Loc) int {
	parent := p.currentScope
	scope := &js_ast.Scope{
		Kind:     kind,
		Parent:   parent,
		Members:  make(map[string]js_ast.ScopeMember),
		LabelRef: js_ast.InvalidRef,
	}
	if parent != nil {
		parent.Children = append(parent.Children, scope)
	}
	p.currentScope = scope

	// The visit pass finds scopes by location, so locations must be unique
	if len(p.scopesInOrder) > 0 {
		prevStart := p.scopesInOrder[len(p.scopesInOrder)-1].loc.Start
		if prevStart >= loc.Start {
			panic(fmt.Sprintf("Internal error: Scope location %d must be greater than %d", loc.Start, prevStart))
		}
	}

	// Copy down function arguments into the function body scope. That way we
	// get errors if a statement in the function body tries to re-declare any
	// of the arguments.
	if kind == js_ast.ScopeFunctionBody {
		if parent.Kind != js_ast.ScopeFunctionArgs {
			panic("Internal error")
		}
		for name, member := range parent.Members {
			// The name of a function expression may be re-declared in its body
			if p.symbols[member.Ref.InnerIndex].Kind != js_ast.SymbolHoistedFunction {
				scope.Members[name] = member
			}
		}
	}

	// Remember the index in case we call popAndFlattenScope() later
	scopeIndex := len(p.scopesInOrder)
	p.scopesInOrder = append(p.scopesInOrder, scopeOrder{loc, scope})
	return scopeIndex
}

func (p *parser) popScope() {
	// Nothing a direct "eval" can see may be renamed
	if p.currentScope.ContainsDirectEval {
		for _, member := range p.currentScope.Members {
			p.symbols[member.Ref.InnerIndex].MustNotBeRenamed = true
		}
	}

	p.currentScope = p.currentScope.Parent
}

// Undoes a scope that turned out not to exist, such as the scope pushed for a
// parenthesized expression that wasn't an arrow function. Its children are
// moved into its parent as if it had never been pushed.
func (p *parser) popAndFlattenScope(scopeIndex int) {
	toFlatten := p.currentScope
	parent := toFlatten.Parent
	p.currentScope = parent

	// Every scope after this one was pushed and popped while this one was
	// current, so nothing holds an index past this point
	copy(p.scopesInOrder[scopeIndex:], p.scopesInOrder[scopeIndex+1:])
	p.scopesInOrder = p.scopesInOrder[:len(p.scopesInOrder)-1]

	last := len(parent.Children) - 1
	if parent.Children[last] != toFlatten {
		panic("Internal error")
	}
	parent.Children = parent.Children[:last]

	for _, scope := range toFlatten.Children {
		scope.Parent = parent
		parent.Children = append(parent.Children, scope)
	}
}

func (p *parser) newSymbol(kind js_ast.SymbolKind, name string) js_ast.Ref {
	inner, err := safecast.Conv[uint32](len(p.symbols))
	if err != nil {
		panic("Internal error: Too many symbols")
	}
	p.symbols = append(p.symbols, js_ast.Symbol{
		Kind:         kind,
		OriginalName: name,
		Link:         js_ast.InvalidRef,
	})
	return js_ast.Ref{OuterIndex: p.source.Index, InnerIndex: inner}
}

type mergeResult int

const (
	mergeForbidden mergeResult = iota
	mergeReplaceWithNew
	mergeOverwriteWithNew
	mergeKeepExisting
)

func (p *parser) canMergeSymbols(scope *js_ast.Scope, existing js_ast.SymbolKind, new js_ast.SymbolKind) mergeResult {
	if existing == js_ast.SymbolUnbound {
		return mergeReplaceWithNew
	}

	// In TypeScript, imports are allowed to silently collide with symbols
	// within the module since the import may be type-only:
	//
	//   import {Foo} from 'bar'
	//   class Foo {}
	//
	if p.options.TS.Parse && existing == js_ast.SymbolImport {
		return mergeReplaceWithNew
	}

	// "enum Foo {} enum Foo {}"
	// "namespace Foo { ... } enum Foo {}"
	if new == js_ast.SymbolTSEnum && (existing == js_ast.SymbolTSEnum || existing == js_ast.SymbolTSNamespace) {
		return mergeReplaceWithNew
	}

	// "namespace Foo { ... } namespace Foo { ... }"
	// "function Foo() {} namespace Foo { ... }"
	// "enum Foo {} namespace Foo { ... }"
	// "class Foo {} namespace Foo { ... }"
	if new == js_ast.SymbolTSNamespace {
		switch existing {
		case js_ast.SymbolTSNamespace, js_ast.SymbolHoistedFunction, js_ast.SymbolGeneratorOrAsyncFunction,
			js_ast.SymbolTSEnum, js_ast.SymbolClass:
			return mergeKeepExisting
		}
	}

	// "var foo; var foo;"
	// "var foo; function foo() {}"
	// "function foo() {} var foo;"
	// "function *foo() {} function *foo() {}" but not "{ function *foo() {} function *foo() {} }"
	if new.IsHoistedOrFunction() && existing.IsHoistedOrFunction() &&
		(scope.Kind == js_ast.ScopeEntry ||
			scope.Kind == js_ast.ScopeFunctionBody ||
			scope.Kind == js_ast.ScopeFunctionArgs ||
			(new == existing && new.IsHoisted())) {
		return mergeKeepExisting
	}

	// "function foo() { var arguments }"
	if existing == js_ast.SymbolArguments && new == js_ast.SymbolHoisted {
		return mergeKeepExisting
	}

	// "function foo() { let arguments }"
	if existing == js_ast.SymbolArguments {
		return mergeOverwriteWithNew
	}

	return mergeForbidden
}

func (p *parser) reportRedeclaration(loc logger.Loc, name string) {
	r := js_lexer.RangeOfIdentifier(p.source, loc)
	p.log.AddRangeError(p.source, r, fmt.Sprintf("%q has already been declared", name))
}

// A function declared in a block stays in that block if hoisting it would
// collide with a lexical declaration further out:
//
//   let x
//   { function x() {} } // Declares a second "x" local to the block
//
func (p *parser) blockFunctionStaysInBlock(kind js_ast.SymbolKind, name string) bool {
	if kind != js_ast.SymbolHoistedFunction || p.currentScope.Kind.StopsHoisting() {
		return false
	}

	// Collisions inside the block itself are still redeclarations
	if _, ok := p.currentScope.Members[name]; ok {
		return false
	}

	for scope := p.currentScope.Parent; ; scope = scope.Parent {
		if member, ok := scope.Members[name]; ok {
			existing := p.symbols[member.Ref.InnerIndex].Kind
			if scope.Kind.StopsHoisting() {
				return p.canMergeSymbols(scope, existing, kind) == mergeForbidden
			}
			if existing != js_ast.SymbolUnbound && !existing.IsHoisted() {
				return true
			}
		}
		if scope.Kind.StopsHoisting() {
			return false
		}
	}
}

func (p *parser) declareSymbol(kind js_ast.SymbolKind, loc logger.Loc, name string) js_ast.Ref {
	scope := p.currentScope

	// Hoisted declarations move up to the nearest scope that stops hoisting,
	// but they still collide with lexical declarations on the way up
	if kind.IsHoisted() && !p.blockFunctionStaysInBlock(kind, name) {
		for !scope.Kind.StopsHoisting() {
			if member, ok := scope.Members[name]; ok {
				existing := p.symbols[member.Ref.InnerIndex].Kind
				switch {
				case existing == js_ast.SymbolCatchIdentifier && kind == js_ast.SymbolHoisted:
					return p.declareVarInCatch(scope, member.Ref, loc, name)

				case existing == js_ast.SymbolUnbound || existing.IsHoisted():
					// "{ var x } var x" is fine

				default:
					p.reportRedeclaration(loc, name)
					return member.Ref
				}
			}
			scope = scope.Parent
		}
	}

	var ref js_ast.Ref
	if member, ok := scope.Members[name]; ok {
		switch p.canMergeSymbols(scope, p.symbols[member.Ref.InnerIndex].Kind, kind) {
		case mergeForbidden:
			p.reportRedeclaration(loc, name)
			return member.Ref

		case mergeKeepExisting:
			ref = member.Ref

		case mergeReplaceWithNew:
			ref = p.newSymbol(kind, name)
			old := &p.symbols[member.Ref.InnerIndex]
			old.Link = ref
			if old.MustNotBeRenamed {
				p.symbols[ref.InnerIndex].MustNotBeRenamed = true
			}

		case mergeOverwriteWithNew:
			ref = p.newSymbol(kind, name)
		}
	} else {
		ref = p.newSymbol(kind, name)
	}

	// A hoisted symbol is also visible in every scope it was hoisted through
	if kind.IsHoisted() {
		for s := p.currentScope; s != scope; s = s.Parent {
			if s.Kind == js_ast.ScopeWith {
				p.symbols[ref.InnerIndex].MustNotBeRenamed = true
			}
			s.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}
		}
	}

	scope.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}
	return ref
}

// A "var" with the same name as a catch binding declares a new variable in
// the enclosing function, but inside the catch clause the name still refers
// to the catch binding:
//
//   var e = 0
//   try { throw 1 } catch (e) { var e = 2 } // This assigns to the catch binding
//
// The returned ref is the catch binding, which is what the declaration
// itself binds to.
func (p *parser) declareVarInCatch(catchScope *js_ast.Scope, catchRef js_ast.Ref, loc logger.Loc, name string) js_ast.Ref {
	for s := p.currentScope; s != catchScope; s = s.Parent {
		s.Members[name] = js_ast.ScopeMember{Ref: catchRef, Loc: loc}
	}

	var hoistedThrough []*js_ast.Scope
	scope := catchScope.Parent
	for !scope.Kind.StopsHoisting() {
		if member, ok := scope.Members[name]; ok {
			existing := p.symbols[member.Ref.InnerIndex].Kind
			if existing == js_ast.SymbolCatchIdentifier {
				// An outer catch binding with the same name hides the new variable
				// from everything inside it
				hoistedThrough = hoistedThrough[:0]
				scope = scope.Parent
				continue
			}
			if existing != js_ast.SymbolUnbound && !existing.IsHoisted() {
				p.reportRedeclaration(loc, name)
				return catchRef
			}
		}
		hoistedThrough = append(hoistedThrough, scope)
		scope = scope.Parent
	}

	var ref js_ast.Ref
	if member, ok := scope.Members[name]; ok {
		existing := p.symbols[member.Ref.InnerIndex].Kind
		switch {
		case existing.IsHoistedOrFunction() || existing == js_ast.SymbolArguments:
			ref = member.Ref

		case existing == js_ast.SymbolUnbound:
			ref = p.newSymbol(js_ast.SymbolHoisted, name)
			p.symbols[member.Ref.InnerIndex].Link = ref

		default:
			p.reportRedeclaration(loc, name)
			return catchRef
		}
	} else {
		ref = p.newSymbol(js_ast.SymbolHoisted, name)
	}

	scope.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}
	for _, s := range hoistedThrough {
		s.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: loc}
	}
	return catchRef
}

func (p *parser) declareBinding(kind js_ast.SymbolKind, binding js_ast.Binding, opts parseStmtOpts) {
	js_ast.ForEachIdentifierBinding(binding, func(loc logger.Loc, b *js_ast.BIdentifier) {
		name := p.loadNameFromRef(b.Ref)
		b.Ref = p.declareSymbol(kind, loc, name)
		if opts.isExport {
			p.recordExport(loc, name, b.Ref)
		}
	})
}

func (p *parser) recordExport(loc logger.Loc, alias string, ref js_ast.Ref) {
	// Exports inside a TypeScript namespace are properties of the namespace
	if p.enclosingNamespaceRef != nil {
		return
	}

	if _, ok := p.namedExports[alias]; ok {
		r := js_lexer.RangeOfIdentifier(p.source, loc)
		p.log.AddRangeError(p.source, r, fmt.Sprintf("Multiple exports with the same name %q", alias))
		return
	}
	p.namedExports[alias] = js_ast.NamedExport{Ref: ref, AliasLoc: loc}
}

func (p *parser) addImportRecord(kind ast.ImportKind, pathRange logger.Range, pathText string) uint32 {
	index, err := safecast.Conv[uint32](len(p.importRecords))
	if err != nil {
		panic("Internal error: Too many import records")
	}
	p.importRecords = append(p.importRecords, ast.ImportRecord{
		Kind:  kind,
		Range: pathRange,
		Path:  pathText,
	})
	return index
}

type deferredErrors struct {
	invalidExprDefaultValue   logger.Range
	invalidBindingAfterSpread logger.Range
}

func (from *deferredErrors) mergeInto(to *deferredErrors) {
	if from.invalidExprDefaultValue.Len > 0 {
		to.invalidExprDefaultValue = from.invalidExprDefaultValue
	}
	if from.invalidBindingAfterSpread.Len > 0 {
		to.invalidBindingAfterSpread = from.invalidBindingAfterSpread
	}
}

func (p *parser) logExprErrors(errors *deferredErrors) {
	if errors.invalidExprDefaultValue.Len > 0 {
		p.log.AddRangeError(p.source, errors.invalidExprDefaultValue, "Unexpected \"=\"")
	}
}

func (p *parser) logBindingErrors(errors *deferredErrors) {
	if errors.invalidBindingAfterSpread.Len > 0 {
		p.log.AddRangeError(p.source, errors.invalidBindingAfterSpread, "Unexpected \",\" after rest pattern")
	}
}

// Array and object literals double as destructuring patterns. The token after
// the literal decides which one it was.
func (p *parser) willNeedBindingPattern() bool {
	switch p.lexer.Token {
	case js_lexer.TEquals:
		// "[a] = b;"
		return true

	case js_lexer.TIdentifier:
		// "for ([a] of b) {}"
		return !p.allowIn && p.lexer.IsContextualKeyword("of")

	case js_lexer.TIn:
		// "for ([a] in b) {}"
		return !p.allowIn

	default:
		return false
	}
}

func (p *parser) parseExpr(level js_ast.L) js_ast.Expr {
	return p.parseExprOrBindings(level, nil)
}

func (p *parser) parseExprOrBindings(level js_ast.L, errors *deferredErrors) js_ast.Expr {
	return p.parseSuffix(p.parsePrefix(level, errors), level, errors)
}

func (p *parser) parseStringLiteral() js_ast.Expr {
	value := js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
	p.lexer.Expect(js_lexer.TStringLiteral)
	return value
}

func (p *parser) parseTemplateParts() []js_ast.TemplatePart {
	parts := []js_ast.TemplatePart{}

	// Allow "in" inside template literals
	oldAllowIn := p.allowIn
	p.allowIn = true

	for {
		value := p.parseExpr(js_ast.LLowest)
		tailLoc := p.lexer.Loc()
		p.lexer.RescanCloseBraceAsTemplateToken()
		tail := p.lexer.StringLiteral
		parts = append(parts, js_ast.TemplatePart{Value: value, TailLoc: tailLoc, Tail: tail})
		if p.lexer.Token == js_lexer.TTemplateTail {
			p.lexer.Next()
			break
		}
		p.lexer.Next()
	}

	p.allowIn = oldAllowIn
	return parts
}

func (p *parser) parseCallArgs() []js_ast.Expr {
	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	args := []js_ast.Expr{}
	p.lexer.Expect(js_lexer.TOpenParen)

	for p.lexer.Token != js_lexer.TCloseParen {
		loc := p.lexer.Loc()
		isSpread := p.lexer.Token == js_lexer.TDotDotDot
		if isSpread {
			p.lexer.Next()
		}
		arg := p.parseExpr(js_ast.LComma)
		if isSpread {
			arg = js_ast.Expr{Loc: loc, Data: &js_ast.ESpread{Value: arg}}
		}
		args = append(args, arg)
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn
	return args
}

func (p *parser) parseYieldExpr(loc logger.Loc) js_ast.Expr {
	// Parse a yield-from expression, which yields from an iterator
	isStar := p.lexer.Token == js_lexer.TAsterisk
	if isStar {
		if p.lexer.HasNewlineBefore {
			p.lexer.Unexpected()
		}
		p.lexer.Next()
	}

	var value *js_ast.Expr

	// The yield expression only has a value in certain cases
	switch p.lexer.Token {
	case js_lexer.TCloseBrace, js_lexer.TCloseBracket, js_lexer.TCloseParen,
		js_lexer.TColon, js_lexer.TComma, js_lexer.TSemicolon, js_lexer.TEndOfFile:

	default:
		if isStar || !p.lexer.HasNewlineBefore {
			expr := p.parseExpr(js_ast.LYield)
			value = &expr
		}
	}

	return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{Value: value, IsStar: isStar}}
}

func (p *parser) parseImportExpr(loc logger.Loc) js_ast.Expr {
	// "import.meta"
	if p.lexer.Token == js_lexer.TDot {
		p.lexer.Next()
		if p.lexer.IsContextualKeyword("meta") {
			p.lexer.Next()
			return js_ast.Expr{Loc: loc, Data: &js_ast.EImportMeta{}}
		}
		p.lexer.ExpectedString("\"meta\"")
	}

	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	p.lexer.Expect(js_lexer.TOpenParen)
	value := p.parseExpr(js_ast.LComma)
	p.lexer.Expect(js_lexer.TCloseParen)

	p.allowIn = oldAllowIn
	return js_ast.Expr{Loc: loc, Data: &js_ast.EImport{Expr: value}}
}

func (p *parser) markExprAsParenthesized(value js_ast.Expr) {
	switch e := value.Data.(type) {
	case *js_ast.EArrow:
		e.IsParenthesized = true
	case *js_ast.EArray:
		e.IsParenthesized = true
	case *js_ast.EObject:
		e.IsParenthesized = true
	case *js_ast.EIdentifier:
		p.parenthesizedIdentifiers[e] = true
	}
}

var unaryPrefixOps = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TVoid:        js_ast.UnOpVoid,
	js_lexer.TTypeof:      js_ast.UnOpTypeof,
	js_lexer.TDelete:      js_ast.UnOpDelete,
	js_lexer.TMinus:       js_ast.UnOpNeg,
	js_lexer.TPlus:        js_ast.UnOpPos,
	js_lexer.TTilde:       js_ast.UnOpCpl,
	js_lexer.TExclamation: js_ast.UnOpNot,
}

func (p *parser) parsePrefix(level js_ast.L, errors *deferredErrors) js_ast.Expr {
	loc := p.lexer.Loc()

	if op, ok := unaryPrefixOps[p.lexer.Token]; ok {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LPrefix)

		// "-a ** b" is ambiguous and is a syntax error
		if p.lexer.Token == js_lexer.TAsteriskAsterisk {
			p.lexer.Unexpected()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: op, Value: value}}
	}

	switch p.lexer.Token {
	case js_lexer.TSuper:
		superRange := p.lexer.Range()
		p.lexer.Next()

		switch p.lexer.Token {
		case js_lexer.TOpenParen:
			if level < js_ast.LCall && p.currentFnOpts.allowSuperCall {
				return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}
			}

		case js_lexer.TDot, js_lexer.TOpenBracket:
			return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}
		}

		p.log.AddRangeError(p.source, superRange, "Unexpected \"super\"")
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}

	case js_lexer.TOpenParen:
		p.lexer.Next()

		// Arrow functions aren't allowed in the middle of expressions
		if level > js_ast.LAssign {
			// Allow "in" inside parentheses
			oldAllowIn := p.allowIn
			p.allowIn = true

			value := p.parseExpr(js_ast.LLowest)
			p.markExprAsParenthesized(value)
			p.lexer.Expect(js_lexer.TCloseParen)

			p.allowIn = oldAllowIn
			return value
		}

		return p.parseParenExpr(loc, false, logger.Range{})

	case js_lexer.TFalse:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: false}}

	case js_lexer.TTrue:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}}

	case js_lexer.TNull:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}

	case js_lexer.TThis:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}

	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		nameRange := p.lexer.Range()
		raw := p.lexer.Raw()
		p.lexer.Next()

		// Handle async and await expressions
		switch name {
		case "async":
			if raw == "async" {
				return p.parseAsyncPrefixExpr(nameRange, level)
			}

		case "await":
			if p.currentFnOpts.allowAwait {
				if raw != "await" {
					p.log.AddRangeError(p.source, nameRange, "The keyword \"await\" cannot be escaped")
				}
				value := p.parseExpr(js_ast.LPrefix)
				if p.lexer.Token == js_lexer.TAsteriskAsterisk {
					p.lexer.Unexpected()
				}
				return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: value}}
			}

		case "yield":
			if p.currentFnOpts.allowYield {
				if raw != "yield" {
					p.log.AddRangeError(p.source, nameRange, "The keyword \"yield\" cannot be escaped")
				}
				if level > js_ast.LAssign {
					p.log.AddRangeError(p.source, nameRange, "Cannot use a \"yield\" expression here without parentheses")
				}
				return p.parseYieldExpr(loc)
			}
		}

		// Handle the start of an arrow function
		if p.lexer.Token == js_lexer.TEqualsGreaterThan && level <= js_ast.LAssign {
			arg := js_ast.Arg{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: p.storeNameInRef(name)}}}

			p.pushScopeForParsePass(js_ast.ScopeFunctionArgs, loc)
			defer p.popScope()

			return js_ast.Expr{Loc: loc, Data: p.parseArrowBody([]js_ast.Arg{arg}, fnOpts{})}
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: p.storeNameInRef(name)}}

	case js_lexer.TStringLiteral:
		return p.parseStringLiteral()

	case js_lexer.TNoSubstitutionTemplateLiteral:
		head := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{Head: head}}

	case js_lexer.TTemplateHead:
		head := p.lexer.StringLiteral
		p.lexer.Next()
		parts := p.parseTemplateParts()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{Head: head, Parts: parts}}

	case js_lexer.TNumericLiteral:
		value := js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()
		return value

	case js_lexer.TBigIntegerLiteral:
		value := p.lexer.Identifier
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: value}}

	case js_lexer.TSlash, js_lexer.TSlashEquals:
		p.lexer.ScanRegExp()
		value := p.lexer.Raw()
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Value: value}}

	case js_lexer.TMinusMinus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreDec, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TPlusPlus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreInc, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TFunction:
		return p.parseFnExpr(loc, false /* isAsync */, logger.Range{})

	case js_lexer.TClass:
		p.lexer.Next()
		var name *js_ast.LocRef

		// Only a named class expression gets a scope for its name
		if p.lexer.Token == js_lexer.TIdentifier {
			p.pushScopeForParsePass(js_ast.ScopeClassName, loc)
			nameLoc := p.lexer.Loc()
			name = &js_ast.LocRef{Loc: nameLoc, Ref: p.declareSymbol(js_ast.SymbolOther, nameLoc, p.lexer.Identifier)}
			p.lexer.Next()
		}

		class := p.parseClass(name)
		if name != nil {
			p.popScope()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: class}}

	case js_lexer.TNew:
		p.lexer.Next()

		// Special-case the weird "new.target" expression here
		if p.lexer.Token == js_lexer.TDot {
			p.lexer.Next()
			if p.lexer.Token != js_lexer.TIdentifier || p.lexer.Raw() != "target" {
				p.lexer.Unexpected()
			}
			p.lexer.Next()
			return js_ast.Expr{Loc: loc, Data: &js_ast.ENewTarget{}}
		}

		target := p.parseExpr(js_ast.LMember)
		args := []js_ast.Expr{}

		if p.lexer.Token == js_lexer.TOpenParen {
			args = p.parseCallArgs()
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: target, Args: args}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.Expr{}
		selfErrors := deferredErrors{}

		// Allow "in" inside arrays
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBracket {
			switch p.lexer.Token {
			case js_lexer.TComma:
				items = append(items, js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EMissing{}})

			case js_lexer.TDotDotDot:
				dotsLoc := p.lexer.Loc()
				p.lexer.Next()
				item := p.parseExprOrBindings(js_ast.LComma, &selfErrors)
				items = append(items, js_ast.Expr{Loc: dotsLoc, Data: &js_ast.ESpread{Value: item}})

				// Commas are not allowed here when destructuring
				if p.lexer.Token == js_lexer.TComma {
					selfErrors.invalidBindingAfterSpread = p.lexer.Range()
				}

			default:
				item := p.parseExprOrBindings(js_ast.LComma, &selfErrors)
				items = append(items, item)
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBracket)
		p.allowIn = oldAllowIn

		if p.willNeedBindingPattern() {
			p.logBindingErrors(&selfErrors)
		} else if errors == nil {
			p.logExprErrors(&selfErrors)
		} else {
			// This can't be told apart yet
			selfErrors.mergeInto(errors)
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.Property{}
		selfErrors := deferredErrors{}

		// Allow "in" inside object literals
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBrace {
			if p.lexer.Token == js_lexer.TDotDotDot {
				p.lexer.Next()
				value := p.parseExprOrBindings(js_ast.LComma, &selfErrors)
				properties = append(properties, js_ast.Property{Kind: js_ast.PropertySpread, Value: &value})

				// Commas are not allowed here when destructuring
				if p.lexer.Token == js_lexer.TComma {
					selfErrors.invalidBindingAfterSpread = p.lexer.Range()
				}
			} else {
				properties = append(properties, p.parseProperty(js_ast.PropertyNormal, propertyOpts{}, &selfErrors))
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		p.allowIn = oldAllowIn

		if p.willNeedBindingPattern() {
			p.logBindingErrors(&selfErrors)
		} else if errors == nil {
			p.logExprErrors(&selfErrors)
		} else {
			selfErrors.mergeInto(errors)
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: properties}}

	case js_lexer.TImport:
		p.lexer.Next()
		return p.parseImportExpr(loc)

	default:
		p.lexer.Unexpected()
		return js_ast.Expr{}
	}
}

func (p *parser) parseAsyncPrefixExpr(asyncRange logger.Range, level js_ast.L) js_ast.Expr {
	// "async function() {}"
	if !p.lexer.HasNewlineBefore && p.lexer.Token == js_lexer.TFunction {
		return p.parseFnExpr(asyncRange.Loc, true /* isAsync */, asyncRange)
	}

	// Check the precedence level to avoid parsing an arrow function in
	// "new async () => {}"
	if !p.lexer.HasNewlineBefore && level < js_ast.LMember {
		switch p.lexer.Token {
		// "async => {}"
		case js_lexer.TEqualsGreaterThan:
			if level <= js_ast.LAssign {
				arg := js_ast.Arg{Binding: js_ast.Binding{Loc: asyncRange.Loc, Data: &js_ast.BIdentifier{Ref: p.storeNameInRef("async")}}}

				p.pushScopeForParsePass(js_ast.ScopeFunctionArgs, asyncRange.Loc)
				defer p.popScope()

				return js_ast.Expr{Loc: asyncRange.Loc, Data: p.parseArrowBody([]js_ast.Arg{arg}, fnOpts{})}
			}

		// "async x => {}"
		case js_lexer.TIdentifier:
			// Arrow functions are not allowed inside certain expressions
			if level > js_ast.LAssign {
				p.lexer.Unexpected()
			}

			arg := js_ast.Arg{Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BIdentifier{Ref: p.storeNameInRef(p.lexer.Identifier)}}}
			p.lexer.Next()

			p.pushScopeForParsePass(js_ast.ScopeFunctionArgs, asyncRange.Loc)
			defer p.popScope()

			arrow := p.parseArrowBody([]js_ast.Arg{arg}, fnOpts{asyncRange: asyncRange, allowAwait: true})
			arrow.IsAsync = true
			return js_ast.Expr{Loc: asyncRange.Loc, Data: arrow}

		// "async()"
		// "async () => {}"
		case js_lexer.TOpenParen:
			p.lexer.Next()
			return p.parseParenExpr(asyncRange.Loc, true /* isAsync */, asyncRange)
		}
	}

	// "async"
	// "async + 1"
	return js_ast.Expr{Loc: asyncRange.Loc, Data: &js_ast.EIdentifier{Ref: p.storeNameInRef("async")}}
}

// This assumes the "(" has already been consumed. The contents may turn out to
// be arrow function arguments, a parenthesized expression, or the arguments
// of a call to a function named "async".
func (p *parser) parseParenExpr(loc logger.Loc, isAsync bool, asyncRange logger.Range) js_ast.Expr {
	items := []js_ast.Expr{}
	errors := deferredErrors{}
	spreadRange := logger.Range{}
	commaAfterSpread := logger.Range{}

	// Push a scope assuming this is an arrow function. Default values in the
	// arguments can contain scopes of their own, and those have to end up as
	// children of the arrow function. The scope is flattened away below if
	// this turns out not to be an arrow function.
	scopeIndex := p.pushScopeForParsePass(js_ast.ScopeFunctionArgs, loc)

	// Allow "in" inside parentheses
	oldAllowIn := p.allowIn
	p.allowIn = true

	for p.lexer.Token != js_lexer.TCloseParen {
		itemLoc := p.lexer.Loc()
		isSpread := p.lexer.Token == js_lexer.TDotDotDot

		if isSpread {
			spreadRange = p.lexer.Range()
			p.lexer.Next()
		}

		// Parse a superset of expressions and bindings. Errors that only apply
		// to one of them are deferred until we know which one this is.
		item := p.parseExprOrBindings(js_ast.LComma, &errors)

		if isSpread {
			item = js_ast.Expr{Loc: itemLoc, Data: &js_ast.ESpread{Value: item}}
		}

		items = append(items, item)

		if p.lexer.Token != js_lexer.TComma {
			break
		}

		// Spread arguments must come last
		if isSpread {
			commaAfterSpread = p.lexer.Range()
		}

		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn

	// Are these arguments to an arrow function?
	if p.lexer.Token == js_lexer.TEqualsGreaterThan {
		var invalidLog []logger.Loc
		args := []js_ast.Arg{}

		for _, item := range items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				item = spread.Value
			}
			binding, initializer, log := p.convertExprToBindingAndInitializer(item, invalidLog)
			invalidLog = log
			args = append(args, js_ast.Arg{Binding: binding, Default: initializer})
		}

		if commaAfterSpread.Len > 0 {
			p.log.AddRangeError(p.source, commaAfterSpread, "Unexpected \",\" after rest pattern")
		}
		p.logBindingErrors(&errors)

		if len(invalidLog) > 0 {
			for _, loc := range invalidLog {
				p.log.AddError(p.source, loc, "Invalid binding pattern")
			}
			panic(js_lexer.LexerPanic{})
		}

		arrow := p.parseArrowBody(args, fnOpts{asyncRange: asyncRange, allowAwait: isAsync})
		arrow.IsAsync = isAsync
		arrow.HasRestArg = spreadRange.Len > 0
		p.popScope()
		return js_ast.Expr{Loc: loc, Data: arrow}
	}

	// Not an arrow function, so undo the scope pushed above
	p.popAndFlattenScope(scopeIndex)

	// "async(a, b)"
	if isAsync {
		p.logExprErrors(&errors)
		async := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: p.storeNameInRef("async")}}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: async, Args: items}}
	}

	// "(a, b)"
	if len(items) > 0 {
		p.logExprErrors(&errors)
		if spreadRange.Len > 0 {
			p.log.AddRangeError(p.source, spreadRange, "Unexpected \"...\"")
			panic(js_lexer.LexerPanic{})
		}
		value := js_ast.JoinAllWithComma(items)
		p.markExprAsParenthesized(value)
		return value
	}

	// "()" must be followed by "=>"
	p.lexer.Expected(js_lexer.TEqualsGreaterThan)
	return js_ast.Expr{}
}

func (p *parser) convertExprToBindingAndInitializer(expr js_ast.Expr, invalidLog []logger.Loc) (js_ast.Binding, *js_ast.Expr, []logger.Loc) {
	var initializer *js_ast.Expr
	if assign, ok := expr.Data.(*js_ast.EBinary); ok && assign.Op == js_ast.BinOpAssign {
		initializer = &assign.Right
		expr = assign.Left
	}
	binding, invalidLog := p.convertExprToBinding(expr, invalidLog)
	return binding, initializer, invalidLog
}

func (p *parser) convertExprToBinding(expr js_ast.Expr, invalidLog []logger.Loc) (js_ast.Binding, []logger.Loc) {
	switch e := expr.Data.(type) {
	case *js_ast.EMissing:
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BMissing{}}, invalidLog

	case *js_ast.EIdentifier:
		if p.parenthesizedIdentifiers[e] {
			invalidLog = append(invalidLog, expr.Loc)
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BIdentifier{Ref: e.Ref}}, invalidLog

	case *js_ast.EArray:
		if e.IsParenthesized {
			invalidLog = append(invalidLog, expr.Loc)
		}
		items := []js_ast.ArrayBinding{}
		hasSpread := false
		for _, item := range e.Items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				hasSpread = true
				item = spread.Value
			}
			binding, initializer, log := p.convertExprToBindingAndInitializer(item, invalidLog)
			invalidLog = log
			items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValue: initializer})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread}}, invalidLog

	case *js_ast.EObject:
		if e.IsParenthesized {
			invalidLog = append(invalidLog, expr.Loc)
		}
		properties := []js_ast.PropertyBinding{}
		for _, property := range e.Properties {
			if property.IsMethod || property.Kind == js_ast.PropertyGet || property.Kind == js_ast.PropertySet {
				invalidLog = append(invalidLog, property.Key.Loc)
				continue
			}
			binding, initializer, log := p.convertExprToBindingAndInitializer(*property.Value, invalidLog)
			invalidLog = log
			if initializer == nil {
				initializer = property.Initializer
			}
			properties = append(properties, js_ast.PropertyBinding{
				IsSpread:     property.Kind == js_ast.PropertySpread,
				IsComputed:   property.IsComputed,
				Key:          property.Key,
				Value:        binding,
				DefaultValue: initializer,
			})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BObject{Properties: properties}}, invalidLog

	default:
		invalidLog = append(invalidLog, expr.Loc)
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BMissing{}}, invalidLog
	}
}

// Arrow function arguments are declared here, once we know they were
// arguments. The caller has already pushed the arguments scope.
func (p *parser) parseArrowBody(args []js_ast.Arg, opts fnOpts) *js_ast.EArrow {
	arrowRange := p.lexer.Range()
	if p.lexer.HasNewlineBefore {
		p.log.AddRangeError(p.source, arrowRange, "Unexpected newline before \"=>\"")
		panic(js_lexer.LexerPanic{})
	}
	p.lexer.Expect(js_lexer.TEqualsGreaterThan)

	for _, arg := range args {
		p.declareBinding(js_ast.SymbolHoisted, arg.Binding, parseStmtOpts{})
	}

	// The ability to call "super()" is inherited by arrow functions
	opts.allowSuperCall = p.currentFnOpts.allowSuperCall

	if p.lexer.Token == js_lexer.TOpenBrace {
		body := p.parseFnBody(opts)
		return &js_ast.EArrow{Args: args, Body: body}
	}

	p.pushScopeForParsePass(js_ast.ScopeFunctionBody, arrowRange.Loc)
	defer p.popScope()

	oldFnOpts := p.currentFnOpts
	p.currentFnOpts = opts
	expr := p.parseExpr(js_ast.LComma)
	p.currentFnOpts = oldFnOpts

	return &js_ast.EArrow{
		Args:       args,
		Body:       js_ast.FnBody{Loc: arrowRange.Loc, Stmts: []js_ast.Stmt{{Loc: expr.Loc, Data: &js_ast.SReturn{Value: &expr}}}},
		PreferExpr: true,
	}
}

// The current token is "function"
func (p *parser) parseFnExpr(loc logger.Loc, isAsync bool, asyncRange logger.Range) js_ast.Expr {
	p.lexer.Next()
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if isGenerator {
		p.lexer.Next()
	}
	var name *js_ast.LocRef

	p.pushScopeForParsePass(js_ast.ScopeFunctionArgs, loc)
	defer p.popScope()

	// The name is optional
	if p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocRef{Loc: p.lexer.Loc()}

		// Don't declare the name "arguments" since it's shadowed and inaccessible
		if text := p.lexer.Identifier; text != "arguments" {
			name.Ref = p.declareSymbol(js_ast.SymbolHoistedFunction, name.Loc, text)
		} else {
			name.Ref = p.newSymbol(js_ast.SymbolHoistedFunction, text)
		}
		p.lexer.Next()
	}

	fn := p.parseFn(name, fnOpts{
		asyncRange: asyncRange,
		allowAwait: isAsync,
		allowYield: isGenerator,
	})
	return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
}

// The caller must push the arguments scope first
func (p *parser) parseFn(name *js_ast.LocRef, opts fnOpts) js_ast.Fn {
	args := []js_ast.Arg{}
	hasRestArg := false
	argumentsLoc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenParen)

	// Every function has an "arguments" variable that shadows any
	// "arguments" in a parent scope
	argumentsRef := p.declareSymbol(js_ast.SymbolArguments, argumentsLoc, "arguments")
	p.symbols[argumentsRef.InnerIndex].MustNotBeRenamed = true

	// "yield" and "await" are not identifiers in the arguments either
	oldFnOpts := p.currentFnOpts
	p.currentFnOpts.allowAwait = opts.allowAwait
	p.currentFnOpts.allowYield = opts.allowYield

	for p.lexer.Token != js_lexer.TCloseParen {
		if !hasRestArg && p.lexer.Token == js_lexer.TDotDotDot {
			p.lexer.Next()
			hasRestArg = true
		}

		arg := p.parseBinding()
		p.declareBinding(js_ast.SymbolHoisted, arg, parseStmtOpts{})

		var defaultValue *js_ast.Expr
		if !hasRestArg && p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			value := p.parseExpr(js_ast.LComma)
			defaultValue = &value
		}

		args = append(args, js_ast.Arg{Binding: arg, Default: defaultValue})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		if hasRestArg {
			// The rest argument must be last
			p.lexer.Expect(js_lexer.TCloseParen)
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.currentFnOpts = oldFnOpts

	fn := js_ast.Fn{
		Name:         name,
		Args:         args,
		ArgumentsRef: argumentsRef,
		IsAsync:      opts.allowAwait,
		IsGenerator:  opts.allowYield,
		HasRestArg:   hasRestArg,
	}
	fn.Body = p.parseFnBody(opts)
	return fn
}

func (p *parser) parseFnBody(opts fnOpts) js_ast.FnBody {
	oldFnOpts := p.currentFnOpts
	oldAllowIn := p.allowIn
	p.currentFnOpts = opts
	p.allowIn = true

	loc := p.lexer.Loc()
	p.pushScopeForParsePass(js_ast.ScopeFunctionBody, loc)
	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
	p.lexer.Next()
	p.popScope()

	p.allowIn = oldAllowIn
	p.currentFnOpts = oldFnOpts
	return js_ast.FnBody{Loc: loc, Stmts: stmts}
}

func (p *parser) parseClass(name *js_ast.LocRef) js_ast.Class {
	var extends *js_ast.Expr

	if p.lexer.Token == js_lexer.TExtends {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LNew)
		extends = &value
	}

	bodyLoc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	properties := []js_ast.Property{}

	// Allow "in" inside class bodies
	oldAllowIn := p.allowIn
	p.allowIn = true

	p.pushScopeForParsePass(js_ast.ScopeClassBody, bodyLoc)

	opts := propertyOpts{isClass: true, classHasExtends: extends != nil}
	for p.lexer.Token != js_lexer.TCloseBrace {
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
			continue
		}
		properties = append(properties, p.parseProperty(js_ast.PropertyNormal, opts, nil))
	}

	p.popScope()
	p.allowIn = oldAllowIn
	p.lexer.Expect(js_lexer.TCloseBrace)
	return js_ast.Class{Name: name, Extends: extends, BodyLoc: bodyLoc, Properties: properties}
}

func keyNameForError(key js_ast.Expr) string {
	if str, ok := key.Data.(*js_ast.EString); ok {
		return fmt.Sprintf("%q", helpers.UTF16ToString(str.Value))
	}
	return "property"
}

func (p *parser) parseProperty(kind js_ast.PropertyKind, opts propertyOpts, errors *deferredErrors) js_ast.Property {
	var key js_ast.Expr
	keyRange := p.lexer.Range()
	isComputed := false

	switch p.lexer.Token {
	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()

	case js_lexer.TStringLiteral:
		key = p.parseStringLiteral()

	case js_lexer.TBigIntegerLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EBigInt{Value: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		isComputed = true
		p.lexer.Next()
		key = p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)

	case js_lexer.TAsterisk:
		if kind != js_ast.PropertyNormal || opts.isGenerator {
			p.lexer.Unexpected()
		}
		p.lexer.Next()
		opts.isGenerator = true
		return p.parseProperty(js_ast.PropertyNormal, opts, errors)

	default:
		name := p.lexer.Identifier
		raw := p.lexer.Raw()
		nameRange := p.lexer.Range()
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()

		// Support contextual keywords
		if kind == js_ast.PropertyNormal && !opts.isGenerator {
			// Does the following token look like a key?
			couldBeModifierKeyword := p.lexer.IsIdentifierOrKeyword()
			if !couldBeModifierKeyword {
				switch p.lexer.Token {
				case js_lexer.TOpenBracket, js_lexer.TNumericLiteral, js_lexer.TStringLiteral,
					js_lexer.TAsterisk, js_lexer.TBigIntegerLiteral:
					couldBeModifierKeyword = true
				}
			}

			// If so, check for a modifier keyword
			if couldBeModifierKeyword && raw == name {
				switch name {
				case "get":
					if !opts.isAsync {
						return p.parseProperty(js_ast.PropertyGet, opts, nil)
					}

				case "set":
					if !opts.isAsync {
						return p.parseProperty(js_ast.PropertySet, opts, nil)
					}

				case "async":
					if !opts.isAsync && !p.lexer.HasNewlineBefore {
						opts.isAsync = true
						opts.asyncRange = nameRange
						return p.parseProperty(kind, opts, nil)
					}

				case "static":
					if !opts.isStatic && !opts.isAsync && opts.isClass {
						opts.isStatic = true
						return p.parseProperty(kind, opts, nil)
					}
				}
			}
		}

		key = js_ast.Expr{Loc: nameRange.Loc, Data: &js_ast.EString{Value: helpers.StringToUTF16(name)}}

		// Parse a shorthand property
		if !opts.isClass && kind == js_ast.PropertyNormal && p.lexer.Token != js_lexer.TColon &&
			p.lexer.Token != js_lexer.TOpenParen && !opts.isGenerator && !opts.isAsync {
			if _, isKeyword := js_lexer.Keywords[name]; isKeyword {
				r := js_lexer.RangeOfIdentifier(p.source, key.Loc)
				p.log.AddRangeError(p.source, r, fmt.Sprintf("Unexpected %q", name))
				panic(js_lexer.LexerPanic{})
			}

			value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EIdentifier{Ref: p.storeNameInRef(name)}}

			// Destructuring patterns have an optional default value
			var initializer *js_ast.Expr
			if errors != nil && p.lexer.Token == js_lexer.TEquals {
				errors.invalidExprDefaultValue = p.lexer.Range()
				p.lexer.Next()
				value := p.parseExpr(js_ast.LComma)
				initializer = &value
			}

			return js_ast.Property{
				Kind:         kind,
				Key:          key,
				Value:        &value,
				Initializer:  initializer,
				WasShorthand: true,
			}
		}
	}

	// Parse a class field with an optional initial value
	if opts.isClass && kind == js_ast.PropertyNormal && !opts.isAsync &&
		!opts.isGenerator && p.lexer.Token != js_lexer.TOpenParen {
		var initializer *js_ast.Expr

		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()

			// Class fields are evaluated like methods, so "await" and "yield"
			// from the outside don't carry over
			oldFnOpts := p.currentFnOpts
			p.currentFnOpts = fnOpts{}
			value := p.parseExpr(js_ast.LComma)
			p.currentFnOpts = oldFnOpts
			initializer = &value
		}

		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Property{
			Kind:        kind,
			IsComputed:  isComputed,
			IsStatic:    opts.isStatic,
			Key:         key,
			Initializer: initializer,
		}
	}

	// Parse a method expression
	if p.lexer.Token == js_lexer.TOpenParen || kind != js_ast.PropertyNormal ||
		opts.isClass || opts.isAsync || opts.isGenerator {
		loc := p.lexer.Loc()
		p.pushScopeForParsePass(js_ast.ScopeFunctionArgs, loc)
		isConstructor := false

		// Forbid the names "constructor" and "prototype" in some cases
		if opts.isClass && !isComputed {
			if str, ok := key.Data.(*js_ast.EString); ok {
				if !opts.isStatic && helpers.UTF16EqualsString(str.Value, "constructor") {
					switch {
					case kind == js_ast.PropertyGet:
						p.log.AddRangeError(p.source, keyRange, "Class constructor cannot be a getter")
					case kind == js_ast.PropertySet:
						p.log.AddRangeError(p.source, keyRange, "Class constructor cannot be a setter")
					case opts.isAsync:
						p.log.AddRangeError(p.source, keyRange, "Class constructor cannot be an async function")
					case opts.isGenerator:
						p.log.AddRangeError(p.source, keyRange, "Class constructor cannot be a generator")
					default:
						isConstructor = true
					}
				} else if opts.isStatic && helpers.UTF16EqualsString(str.Value, "prototype") {
					p.log.AddRangeError(p.source, keyRange, "Invalid static method name \"prototype\"")
				}
			}
		}

		fn := p.parseFn(nil, fnOpts{
			asyncRange:     opts.asyncRange,
			allowAwait:     opts.isAsync,
			allowYield:     opts.isGenerator,
			allowSuperCall: opts.classHasExtends && isConstructor,
		})

		p.popScope()
		value := js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}

		// Enforce argument rules for accessors
		switch kind {
		case js_ast.PropertyGet:
			if len(fn.Args) > 0 {
				r := js_lexer.RangeOfIdentifier(p.source, fn.Args[0].Binding.Loc)
				p.log.AddRangeError(p.source, r, fmt.Sprintf("Getter %s must have zero arguments", keyNameForError(key)))
			}

		case js_ast.PropertySet:
			if len(fn.Args) != 1 {
				r := js_lexer.RangeOfIdentifier(p.source, key.Loc)
				if len(fn.Args) > 1 {
					r = js_lexer.RangeOfIdentifier(p.source, fn.Args[1].Binding.Loc)
				}
				p.log.AddRangeError(p.source, r, fmt.Sprintf("Setter %s must have exactly one argument", keyNameForError(key)))
			}
		}

		return js_ast.Property{
			Kind:       kind,
			IsComputed: isComputed,
			IsMethod:   true,
			IsStatic:   opts.isStatic,
			Key:        key,
			Value:      &value,
		}
	}

	// Parse an object key/value pair
	p.lexer.Expect(js_lexer.TColon)
	value := p.parseExprOrBindings(js_ast.LComma, errors)
	return js_ast.Property{
		Kind:       kind,
		IsComputed: isComputed,
		Key:        key,
		Value:      &value,
	}
}

func (p *parser) parseSuffix(left js_ast.Expr, level js_ast.L, errors *deferredErrors) js_ast.Expr {
	optionalChain := js_ast.OptionalChainNone

	for {
		// An arrow function without parentheses can only be followed by a comma
		if arrow, ok := left.Data.(*js_ast.EArrow); ok && !arrow.IsParenthesized && p.lexer.Token != js_lexer.TComma {
			return left
		}

		oldOptionalChain := optionalChain
		optionalChain = js_ast.OptionalChainNone

		switch p.lexer.Token {
		case js_lexer.TDot:
			p.lexer.Next()
			name := p.lexer.Identifier
			nameLoc := p.lexer.Loc()
			if !p.lexer.IsIdentifierOrKeyword() {
				p.lexer.Expect(js_lexer.TIdentifier)
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: oldOptionalChain}}
			optionalChain = oldOptionalChain

		case js_lexer.TQuestionDot:
			p.lexer.Next()

			switch p.lexer.Token {
			case js_lexer.TOpenBracket:
				// "a?.[b]"
				p.lexer.Next()

				// Allow "in" inside the brackets
				oldAllowIn := p.allowIn
				p.allowIn = true
				index := p.parseExpr(js_ast.LLowest)
				p.allowIn = oldAllowIn

				p.lexer.Expect(js_lexer.TCloseBracket)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: js_ast.OptionalChainStart}}

			case js_lexer.TOpenParen:
				// "a?.()"
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: p.parseCallArgs(), OptionalChain: js_ast.OptionalChainStart}}

			default:
				// "a?.b"
				name := p.lexer.Identifier
				nameLoc := p.lexer.Loc()
				if !p.lexer.IsIdentifierOrKeyword() {
					p.lexer.Expect(js_lexer.TIdentifier)
				}
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: js_ast.OptionalChainStart}}
			}

			optionalChain = js_ast.OptionalChainContinue

		case js_lexer.TNoSubstitutionTemplateLiteral:
			if level >= js_ast.LPrefix {
				return left
			}
			if oldOptionalChain != js_ast.OptionalChainNone {
				p.log.AddRangeError(p.source, p.lexer.Range(), "Template literals cannot have an optional chain as a tag")
			}
			head := p.lexer.StringLiteral
			p.lexer.Next()
			tag := left
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ETemplate{Tag: &tag, Head: head}}

		case js_lexer.TTemplateHead:
			if level >= js_ast.LPrefix {
				return left
			}
			if oldOptionalChain != js_ast.OptionalChainNone {
				p.log.AddRangeError(p.source, p.lexer.Range(), "Template literals cannot have an optional chain as a tag")
			}
			head := p.lexer.StringLiteral
			p.lexer.Next()
			parts := p.parseTemplateParts()
			tag := left
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ETemplate{Tag: &tag, Head: head, Parts: parts}}

		case js_lexer.TOpenBracket:
			p.lexer.Next()

			// Allow "in" inside the brackets
			oldAllowIn := p.allowIn
			p.allowIn = true
			index := p.parseExpr(js_ast.LLowest)
			p.allowIn = oldAllowIn

			p.lexer.Expect(js_lexer.TCloseBracket)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: oldOptionalChain}}
			optionalChain = oldOptionalChain

		case js_lexer.TOpenParen:
			if level >= js_ast.LCall {
				return left
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: p.parseCallArgs(), OptionalChain: oldOptionalChain}}
			optionalChain = oldOptionalChain

		case js_lexer.TQuestion:
			if level >= js_ast.LConditional {
				return left
			}
			p.lexer.Next()

			// Allow "in" in between "?" and ":"
			oldAllowIn := p.allowIn
			p.allowIn = true
			yes := p.parseExpr(js_ast.LComma)
			p.allowIn = oldAllowIn

			p.lexer.Expect(js_lexer.TColon)
			no := p.parseExpr(js_ast.LComma)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIf{Test: left, Yes: yes, No: no}}

		case js_lexer.TMinusMinus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostDec, Value: left}}

		case js_lexer.TPlusPlus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: left}}

		case js_lexer.TIn:
			if level >= js_ast.LCompare || !p.allowIn {
				return left
			}

			// Warn about "!a in b" instead of "!(a in b)"
			if e, ok := left.Data.(*js_ast.EUnary); ok && e.Op == js_ast.UnOpNot {
				p.log.AddWarning(p.source, left.Loc, "Suspicious use of the \"!\" operator inside the \"in\" operator")
			}

			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpIn, Left: left, Right: p.parseExpr(js_ast.LCompare)}}

		case js_lexer.TInstanceof:
			if level >= js_ast.LCompare {
				return left
			}

			// Warn about "!a instanceof b" instead of "!(a instanceof b)"
			if e, ok := left.Data.(*js_ast.EUnary); ok && e.Op == js_ast.UnOpNot {
				p.log.AddWarning(p.source, left.Loc, "Suspicious use of the \"!\" operator inside the \"instanceof\" operator")
			}

			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpInstanceof, Left: left, Right: p.parseExpr(js_ast.LCompare)}}

		default:
			op, ok := binaryOps[p.lexer.Token]
			if !ok {
				return left
			}
			entry := js_ast.OpTable[op]
			if level >= entry.Level {
				return left
			}
			p.lexer.Next()

			rightLevel := entry.Level
			if op.IsRightAssociative() {
				rightLevel--
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: p.parseExpr(rightLevel)}}
		}
	}
}

// "in" and "instanceof" are handled separately in parseSuffix
var binaryOps = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TComma: js_ast.BinOpComma,

	js_lexer.TPlus:              js_ast.BinOpAdd,
	js_lexer.TMinus:             js_ast.BinOpSub,
	js_lexer.TAsterisk:          js_ast.BinOpMul,
	js_lexer.TSlash:             js_ast.BinOpDiv,
	js_lexer.TPercent:           js_ast.BinOpRem,
	js_lexer.TAsteriskAsterisk:  js_ast.BinOpPow,
	js_lexer.TLessThan:          js_ast.BinOpLt,
	js_lexer.TLessThanEquals:    js_ast.BinOpLe,
	js_lexer.TGreaterThan:       js_ast.BinOpGt,
	js_lexer.TGreaterThanEquals: js_ast.BinOpGe,

	js_lexer.TLessThanLessThan:                  js_ast.BinOpShl,
	js_lexer.TGreaterThanGreaterThan:            js_ast.BinOpShr,
	js_lexer.TGreaterThanGreaterThanGreaterThan: js_ast.BinOpUShr,

	js_lexer.TEqualsEquals:            js_ast.BinOpLooseEq,
	js_lexer.TExclamationEquals:       js_ast.BinOpLooseNe,
	js_lexer.TEqualsEqualsEquals:      js_ast.BinOpStrictEq,
	js_lexer.TExclamationEqualsEquals: js_ast.BinOpStrictNe,

	js_lexer.TQuestionQuestion:   js_ast.BinOpNullishCoalescing,
	js_lexer.TBarBar:             js_ast.BinOpLogicalOr,
	js_lexer.TAmpersandAmpersand: js_ast.BinOpLogicalAnd,
	js_lexer.TBar:                js_ast.BinOpBitwiseOr,
	js_lexer.TAmpersand:          js_ast.BinOpBitwiseAnd,
	js_lexer.TCaret:              js_ast.BinOpBitwiseXor,

	js_lexer.TEquals:                                 js_ast.BinOpAssign,
	js_lexer.TPlusEquals:                             js_ast.BinOpAddAssign,
	js_lexer.TMinusEquals:                            js_ast.BinOpSubAssign,
	js_lexer.TAsteriskEquals:                         js_ast.BinOpMulAssign,
	js_lexer.TSlashEquals:                            js_ast.BinOpDivAssign,
	js_lexer.TPercentEquals:                          js_ast.BinOpRemAssign,
	js_lexer.TAsteriskAsteriskEquals:                 js_ast.BinOpPowAssign,
	js_lexer.TLessThanLessThanEquals:                 js_ast.BinOpShlAssign,
	js_lexer.TGreaterThanGreaterThanEquals:           js_ast.BinOpShrAssign,
	js_lexer.TGreaterThanGreaterThanGreaterThanEquals: js_ast.BinOpUShrAssign,
	js_lexer.TBarEquals:                              js_ast.BinOpBitwiseOrAssign,
	js_lexer.TAmpersandEquals:                        js_ast.BinOpBitwiseAndAssign,
	js_lexer.TCaretEquals:                            js_ast.BinOpBitwiseXorAssign,
	js_lexer.TQuestionQuestionEquals:                 js_ast.BinOpNullishCoalescingAssign,
	js_lexer.TBarBarEquals:                           js_ast.BinOpLogicalOrAssign,
	js_lexer.TAmpersandAmpersandEquals:               js_ast.BinOpLogicalAndAssign,
}

func (p *parser) parseBinding() js_ast.Binding {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		if (p.currentFnOpts.allowAwait && name == "await") || (p.currentFnOpts.allowYield && name == "yield") {
			p.log.AddRangeError(p.source, p.lexer.Range(), fmt.Sprintf("Cannot use %q as an identifier here", name))
		}
		ref := p.storeNameInRef(name)
		p.lexer.Next()
		return js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: ref}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.ArrayBinding{}
		hasSpread := false

		// "in" expressions are allowed
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBracket {
			if p.lexer.Token == js_lexer.TComma {
				binding := js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BMissing{}}
				items = append(items, js_ast.ArrayBinding{Binding: binding})
			} else {
				if p.lexer.Token == js_lexer.TDotDotDot {
					p.lexer.Next()
					hasSpread = true
				}

				binding := p.parseBinding()

				var defaultValue *js_ast.Expr
				if !hasSpread && p.lexer.Token == js_lexer.TEquals {
					p.lexer.Next()
					value := p.parseExpr(js_ast.LComma)
					defaultValue = &value
				}

				items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValue: defaultValue})

				// Commas after spread elements are not allowed
				if hasSpread && p.lexer.Token == js_lexer.TComma {
					p.log.AddRangeError(p.source, p.lexer.Range(), "Unexpected \",\" after rest pattern")
					panic(js_lexer.LexerPanic{})
				}
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.allowIn = oldAllowIn
		p.lexer.Expect(js_lexer.TCloseBracket)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.PropertyBinding{}

		// "in" expressions are allowed
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBrace {
			property := p.parsePropertyBinding()
			properties = append(properties, property)

			// Commas after spread elements are not allowed
			if property.IsSpread && p.lexer.Token == js_lexer.TComma {
				p.log.AddRangeError(p.source, p.lexer.Range(), "Unexpected \",\" after rest pattern")
				panic(js_lexer.LexerPanic{})
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.allowIn = oldAllowIn
		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BObject{Properties: properties}}
	}

	p.lexer.Expect(js_lexer.TIdentifier)
	return js_ast.Binding{}
}

func (p *parser) parsePropertyBinding() js_ast.PropertyBinding {
	var key js_ast.Expr
	isComputed := false

	switch p.lexer.Token {
	case js_lexer.TDotDotDot:
		p.lexer.Next()
		value := js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BIdentifier{Ref: p.storeNameInRef(p.lexer.Identifier)}}
		p.lexer.Expect(js_lexer.TIdentifier)
		return js_ast.PropertyBinding{IsSpread: true, Value: value}

	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()

	case js_lexer.TStringLiteral:
		key = p.parseStringLiteral()

	case js_lexer.TBigIntegerLiteral:
		key = js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EBigInt{Value: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		isComputed = true
		p.lexer.Next()
		key = p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseBracket)

	default:
		name := p.lexer.Identifier
		loc := p.lexer.Loc()
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: helpers.StringToUTF16(name)}}

		// "{a}" and "{a = 1}" bind the key itself
		if p.lexer.Token != js_lexer.TColon {
			if !isIdentifier {
				p.lexer.Expect(js_lexer.TColon)
			}
			value := js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: p.storeNameInRef(name)}}

			var defaultValue *js_ast.Expr
			if p.lexer.Token == js_lexer.TEquals {
				p.lexer.Next()
				value := p.parseExpr(js_ast.LComma)
				defaultValue = &value
			}

			return js_ast.PropertyBinding{Key: key, Value: value, DefaultValue: defaultValue}
		}
	}

	p.lexer.Expect(js_lexer.TColon)
	value := p.parseBinding()

	var defaultValue *js_ast.Expr
	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LComma)
		defaultValue = &value
	}

	return js_ast.PropertyBinding{
		IsComputed:   isComputed,
		Key:          key,
		Value:        value,
		DefaultValue: defaultValue,
	}
}

func (p *parser) parseAndDeclareDecls(kind js_ast.SymbolKind, opts parseStmtOpts) []js_ast.Decl {
	decls := []js_ast.Decl{}

	for {
		local := p.parseBinding()
		p.declareBinding(kind, local, opts)

		var value *js_ast.Expr
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			expr := p.parseExpr(js_ast.LComma)
			value = &expr
		}

		decls = append(decls, js_ast.Decl{Binding: local, Value: value})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	return decls
}

func (p *parser) requireInitializers(decls []js_ast.Decl) {
	for _, d := range decls {
		if d.Value == nil {
			if _, ok := d.Binding.Data.(*js_ast.BIdentifier); ok {
				r := js_lexer.RangeOfIdentifier(p.source, d.Binding.Loc)
				p.log.AddRangeError(p.source, r, "This constant must be initialized")
			}
		}
	}
}

func (p *parser) forbidInitializers(decls []js_ast.Decl, loopType string, isVar bool) {
	if len(decls) > 1 {
		p.log.AddError(p.source, decls[0].Binding.Loc, fmt.Sprintf("for-%s loops must have a single declaration", loopType))
	} else if len(decls) == 1 && decls[0].Value != nil {
		if isVar {
			if _, ok := decls[0].Binding.Data.(*js_ast.BIdentifier); ok {
				// "for (var x = 0 in y)" is allowed for identifier bindings
				return
			}
		}
		p.log.AddError(p.source, decls[0].Value.Loc, fmt.Sprintf("for-%s loop variables cannot have an initializer", loopType))
	}
}

func (p *parser) forbidLexicalDecl(loc logger.Loc) {
	r := js_lexer.RangeOfIdentifier(p.source, loc)
	p.log.AddRangeError(p.source, r, "Cannot use a declaration in a single-statement context")
}

// "let" is only a keyword when a binding follows it. This scans one token
// ahead with logging disabled and then restores the lexer.
func (p *parser) isLetDecl() (result bool) {
	oldLexer := p.lexer
	p.lexer.IsLogDisabled = true

	defer func() {
		r := recover()
		if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
			result = false
		} else if r != nil {
			panic(r)
		}
		p.lexer = oldLexer
	}()

	p.lexer.Next()
	switch p.lexer.Token {
	case js_lexer.TIdentifier, js_lexer.TOpenBracket, js_lexer.TOpenBrace:
		return true
	}
	return false
}

func (p *parser) parseLabelName() *js_ast.LocRef {
	if p.lexer.Token != js_lexer.TIdentifier || p.lexer.HasNewlineBefore {
		return nil
	}

	name := js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
	p.lexer.Next()
	return &name
}

func (p *parser) parsePath() (logger.Range, string) {
	pathRange := p.lexer.Range()
	pathText := helpers.UTF16ToString(p.lexer.StringLiteral)
	if p.lexer.Token == js_lexer.TNoSubstitutionTemplateLiteral {
		p.lexer.Next()
	} else {
		p.lexer.Expect(js_lexer.TStringLiteral)
	}
	return pathRange, pathText
}

func (p *parser) parseImportClause() []js_ast.ClauseItem {
	items := []js_ast.ClauseItem{}
	p.lexer.Expect(js_lexer.TOpenBrace)

	for p.lexer.Token != js_lexer.TCloseBrace {
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		alias := p.lexer.Identifier
		aliasLoc := p.lexer.Loc()
		name := js_ast.LocRef{Loc: aliasLoc, Ref: p.storeNameInRef(alias)}
		originalName := alias

		// The alias may be a keyword
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Expect(js_lexer.TIdentifier)
		}
		p.lexer.Next()

		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			originalName = p.lexer.Identifier
			name = js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(originalName)}
			p.lexer.Expect(js_lexer.TIdentifier)
		} else if !isIdentifier {
			// An import where the name is a keyword must have an alias
			p.lexer.ExpectedString("\"as\"")
		}

		items = append(items, js_ast.ClauseItem{
			Alias:        alias,
			AliasLoc:     aliasLoc,
			Name:         name,
			OriginalName: originalName,
		})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return items
}

func (p *parser) parseExportClause() []js_ast.ClauseItem {
	items := []js_ast.ClauseItem{}
	firstKeywordItemLoc := logger.Loc{}
	p.lexer.Expect(js_lexer.TOpenBrace)

	for p.lexer.Token != js_lexer.TCloseBrace {
		alias := p.lexer.Identifier
		aliasLoc := p.lexer.Loc()
		name := js_ast.LocRef{Loc: aliasLoc, Ref: p.storeNameInRef(alias)}
		originalName := alias

		// A keyword is only valid here in an "export from" statement, which we
		// don't know yet:
		//
		//   export { default } from 'path' // This is fine
		//   export { default }             // This is a syntax error
		//
		if p.lexer.Token != js_lexer.TIdentifier {
			if !p.lexer.IsIdentifierOrKeyword() {
				p.lexer.Expect(js_lexer.TIdentifier)
			}
			if firstKeywordItemLoc.Start == 0 {
				firstKeywordItemLoc = p.lexer.Loc()
			}
		}
		p.lexer.Next()

		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			alias = p.lexer.Identifier
			aliasLoc = p.lexer.Loc()

			// The alias may be a keyword
			if !p.lexer.IsIdentifierOrKeyword() {
				p.lexer.Expect(js_lexer.TIdentifier)
			}
			p.lexer.Next()
		}

		items = append(items, js_ast.ClauseItem{
			Alias:        alias,
			AliasLoc:     aliasLoc,
			Name:         name,
			OriginalName: originalName,
		})

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)

	if firstKeywordItemLoc.Start != 0 && !p.lexer.IsContextualKeyword("from") {
		r := js_lexer.RangeOfIdentifier(p.source, firstKeywordItemLoc)
		p.log.AddRangeError(p.source, r, fmt.Sprintf("Expected identifier but found %q", p.source.TextForRange(r)))
		panic(js_lexer.LexerPanic{})
	}

	return items
}

// The "function" keyword has already been consumed
func (p *parser) parseFnStmt(loc logger.Loc, opts parseStmtOpts, isAsync bool, asyncRange logger.Range) js_ast.Stmt {
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if !opts.allowLexicalDecl && (isGenerator || isAsync) {
		p.forbidLexicalDecl(loc)
	}
	if isGenerator {
		p.lexer.Next()
	}

	var name *js_ast.LocRef
	var nameText string

	// The name is optional for "export default function() {}" pseudo-statements
	if !opts.isNameOptional || p.lexer.Token == js_lexer.TIdentifier {
		nameLoc := p.lexer.Loc()
		nameText = p.lexer.Identifier
		p.lexer.Expect(js_lexer.TIdentifier)
		name = &js_ast.LocRef{Loc: nameLoc, Ref: js_ast.InvalidRef}
	}

	p.pushScopeForParsePass(js_ast.ScopeFunctionArgs, loc)
	fn := p.parseFn(name, fnOpts{
		asyncRange: asyncRange,
		allowAwait: isAsync,
		allowYield: isGenerator,
	})
	p.popScope()

	// The name belongs to the enclosing scope, so it is declared after the
	// function's own scopes are popped
	if name != nil {
		kind := js_ast.SymbolHoistedFunction
		if isGenerator || isAsync {
			kind = js_ast.SymbolGeneratorOrAsyncFunction
		}
		name.Ref = p.declareSymbol(kind, name.Loc, nameText)
		if opts.isExport {
			p.recordExport(name.Loc, nameText, name.Ref)
		}
	}

	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn, IsExport: opts.isExport}}
}

// The current token is "class"
func (p *parser) parseClassStmt(loc logger.Loc, opts parseStmtOpts) js_ast.Stmt {
	var name *js_ast.LocRef
	p.lexer.Expect(js_lexer.TClass)

	if p.lexer.Token == js_lexer.TIdentifier {
		nameLoc := p.lexer.Loc()
		nameText := p.lexer.Identifier
		p.lexer.Next()
		name = &js_ast.LocRef{Loc: nameLoc, Ref: p.declareSymbol(js_ast.SymbolClass, nameLoc, nameText)}
		if opts.isExport {
			p.recordExport(nameLoc, nameText, name.Ref)
		}
	} else if !opts.isNameOptional {
		p.lexer.Expect(js_lexer.TIdentifier)
	}

	class := p.parseClass(name)
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class, IsExport: opts.isExport}}
}

func (p *parser) parseStmt(opts parseStmtOpts) js_ast.Stmt {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSemicolon:
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case js_lexer.TExport:
		if opts.isModuleScope {
			p.hasES6ExportSyntax = true
		} else if !opts.isNamespaceScope {
			p.lexer.Unexpected()
		}
		p.lexer.Next()

		switch p.lexer.Token {
		case js_lexer.TClass, js_lexer.TConst, js_lexer.TFunction, js_lexer.TVar, js_lexer.TEnum:
			opts.isExport = true
			return p.parseStmt(opts)

		case js_lexer.TIdentifier:
			if p.lexer.IsContextualKeyword("let") {
				opts.isExport = true
				return p.parseStmt(opts)
			}

			if p.options.TS.Parse && (p.lexer.IsContextualKeyword("namespace") || p.lexer.IsContextualKeyword("module")) {
				opts.isExport = true
				return p.parseStmt(opts)
			}

			if p.lexer.IsContextualKeyword("async") {
				// "export async function foo() {}"
				asyncRange := p.lexer.Range()
				p.lexer.Next()
				if p.lexer.HasNewlineBefore {
					p.log.AddError(p.source, logger.Loc{Start: asyncRange.End()}, "Unexpected newline after \"async\"")
					panic(js_lexer.LexerPanic{})
				}
				p.lexer.Expect(js_lexer.TFunction)
				opts.isExport = true
				return p.parseFnStmt(asyncRange.Loc, opts, true /* isAsync */, asyncRange)
			}

			p.lexer.Unexpected()
			return js_ast.Stmt{}

		case js_lexer.TDefault:
			if !opts.isModuleScope {
				p.lexer.Unexpected()
			}

			defaultLoc := p.lexer.Loc()
			p.lexer.Next()

			// The default name is only generated if the value has no name of its own
			createDefaultName := func() js_ast.LocRef {
				name := ast.GenerateNonUniqueNameFromPath(p.source.KeyPath) + "_default"
				defaultName := js_ast.LocRef{Loc: defaultLoc, Ref: p.newSymbol(js_ast.SymbolOther, name)}
				p.currentScope.Generated = append(p.currentScope.Generated, defaultName.Ref)
				return defaultName
			}

			// "export default async function() {}"
			// "export default async function foo() {}"
			if p.lexer.IsContextualKeyword("async") {
				asyncRange := p.lexer.Range()
				p.lexer.Next()

				if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
					p.lexer.Next()
					stmt := p.parseFnStmt(asyncRange.Loc, parseStmtOpts{
						isNameOptional:   true,
						allowLexicalDecl: true,
					}, true /* isAsync */, asyncRange)
					fn := stmt.Data.(*js_ast.SFunction)
					var defaultName js_ast.LocRef
					if fn.Fn.Name != nil {
						defaultName = *fn.Fn.Name
					} else {
						defaultName = createDefaultName()
					}
					p.recordExport(defaultLoc, "default", defaultName.Ref)
					return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{DefaultName: defaultName, Value: js_ast.ExprOrStmt{Stmt: &stmt}}}
				}

				defaultName := createDefaultName()
				p.recordExport(defaultLoc, "default", defaultName.Ref)
				expr := p.parseSuffix(p.parseAsyncPrefixExpr(asyncRange, js_ast.LComma), js_ast.LComma, nil)
				p.lexer.ExpectOrInsertSemicolon()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{DefaultName: defaultName, Value: js_ast.ExprOrStmt{Expr: &expr}}}
			}

			// "export default function() {}"
			// "export default class {}"
			if p.lexer.Token == js_lexer.TFunction || p.lexer.Token == js_lexer.TClass {
				stmt := p.parseStmt(parseStmtOpts{
					isNameOptional:   true,
					allowLexicalDecl: true,
				})

				var defaultName js_ast.LocRef
				switch s := stmt.Data.(type) {
				case *js_ast.SFunction:
					if s.Fn.Name != nil {
						defaultName = *s.Fn.Name
					} else {
						defaultName = createDefaultName()
					}

				case *js_ast.SClass:
					if s.Class.Name != nil {
						defaultName = *s.Class.Name
					} else {
						defaultName = createDefaultName()
					}

				default:
					panic("Internal error")
				}

				p.recordExport(defaultLoc, "default", defaultName.Ref)
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{DefaultName: defaultName, Value: js_ast.ExprOrStmt{Stmt: &stmt}}}
			}

			// "export default 123"
			defaultName := createDefaultName()
			p.recordExport(defaultLoc, "default", defaultName.Ref)
			expr := p.parseExpr(js_ast.LComma)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{DefaultName: defaultName, Value: js_ast.ExprOrStmt{Expr: &expr}}}

		case js_lexer.TAsterisk:
			if !opts.isModuleScope {
				p.lexer.Unexpected()
			}
			p.lexer.Next()

			var namespaceRef js_ast.Ref
			var alias *js_ast.ExportStarAlias
			var pathRange logger.Range
			var pathText string

			if p.lexer.IsContextualKeyword("as") {
				// "export * as ns from 'path'"
				p.lexer.Next()
				name := p.lexer.Identifier
				namespaceRef = p.storeNameInRef(name)
				alias = &js_ast.ExportStarAlias{Loc: p.lexer.Loc(), Name: name}
				if !p.lexer.IsIdentifierOrKeyword() {
					p.lexer.Expect(js_lexer.TIdentifier)
				}
				p.lexer.Next()
				p.lexer.ExpectContextualKeyword("from")
				pathRange, pathText = p.parsePath()
			} else {
				// "export * from 'path'"
				p.lexer.ExpectContextualKeyword("from")
				pathRange, pathText = p.parsePath()
				namespaceRef = p.storeNameInRef(ast.GenerateNonUniqueNameFromPath(pathText) + "_star")
			}

			importRecordIndex := p.addImportRecord(ast.ImportStmt, pathRange, pathText)
			if alias != nil {
				p.importRecords[importRecordIndex].ContainsImportStar = true
			}
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportStar{
				NamespaceRef:      namespaceRef,
				Alias:             alias,
				ImportRecordIndex: importRecordIndex,
			}}

		case js_lexer.TOpenBrace:
			if !opts.isModuleScope {
				p.lexer.Unexpected()
			}

			items := p.parseExportClause()
			if p.lexer.IsContextualKeyword("from") {
				// "export {a, b} from 'path'"
				p.lexer.Next()
				pathRange, pathText := p.parsePath()
				importRecordIndex := p.addImportRecord(ast.ImportStmt, pathRange, pathText)
				namespaceRef := p.storeNameInRef(ast.GenerateNonUniqueNameFromPath(pathText))
				p.lexer.ExpectOrInsertSemicolon()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportFrom{
					Items:             items,
					NamespaceRef:      namespaceRef,
					ImportRecordIndex: importRecordIndex,
				}}
			}

			// "export {a, b}"
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportClause{Items: items}}

		default:
			p.lexer.Unexpected()
			return js_ast.Stmt{}
		}

	case js_lexer.TFunction:
		p.lexer.Next()
		return p.parseFnStmt(loc, opts, false /* isAsync */, logger.Range{})

	case js_lexer.TEnum:
		if !p.options.TS.Parse {
			p.lexer.Unexpected()
		}
		return p.parseTypeScriptEnumStmt(loc, opts)

	case js_lexer.TClass:
		if !opts.allowLexicalDecl {
			p.forbidLexicalDecl(loc)
		}
		return p.parseClassStmt(loc, opts)

	case js_lexer.TVar:
		p.lexer.Next()
		decls := p.parseAndDeclareDecls(js_ast.SymbolHoisted, opts)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TConst:
		if !opts.allowLexicalDecl {
			p.forbidLexicalDecl(loc)
		}
		p.lexer.Next()

		// "const enum Foo {}"
		if p.options.TS.Parse && p.lexer.Token == js_lexer.TEnum {
			return p.parseTypeScriptEnumStmt(loc, opts)
		}

		decls := p.parseAndDeclareDecls(js_ast.SymbolOther, opts)
		p.lexer.ExpectOrInsertSemicolon()
		p.requireInitializers(decls)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TIf:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		yes := p.parseStmt(parseStmtOpts{})
		var no *js_ast.Stmt
		if p.lexer.Token == js_lexer.TElse {
			p.lexer.Next()
			stmt := p.parseStmt(parseStmtOpts{})
			no = &stmt
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{Test: test, Yes: yes, No: no}}

	case js_lexer.TDo:
		p.lexer.Next()
		body := p.parseStmt(parseStmtOpts{})
		p.lexer.Expect(js_lexer.TWhile)
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)

		// Automatic semicolon insertion applies here even without a newline
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDoWhile{Body: body, Test: test}}

	case js_lexer.TWhile:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: test, Body: body}}

	case js_lexer.TWith:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		bodyLoc := p.lexer.Loc()
		p.lexer.Expect(js_lexer.TCloseParen)

		// Identifiers inside the body may really be properties of the object,
		// so the scope marks everything looked up through it
		p.pushScopeForParsePass(js_ast.ScopeWith, bodyLoc)
		body := p.parseStmt(parseStmtOpts{})
		p.popScope()

		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWith{Value: test, BodyLoc: bodyLoc, Body: body}}

	case js_lexer.TSwitch:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)

		bodyLoc := p.lexer.Loc()
		p.pushScopeForParsePass(js_ast.ScopeBlock, bodyLoc)
		defer p.popScope()

		p.lexer.Expect(js_lexer.TOpenBrace)
		cases := []js_ast.Case{}
		foundDefault := false

		for p.lexer.Token != js_lexer.TCloseBrace {
			var value *js_ast.Expr
			body := []js_ast.Stmt{}

			if p.lexer.Token == js_lexer.TDefault {
				if foundDefault {
					p.log.AddRangeError(p.source, p.lexer.Range(), "Multiple default clauses are not allowed")
					panic(js_lexer.LexerPanic{})
				}
				foundDefault = true
				p.lexer.Next()
				p.lexer.Expect(js_lexer.TColon)
			} else {
				p.lexer.Expect(js_lexer.TCase)
				expr := p.parseExpr(js_ast.LLowest)
				value = &expr
				p.lexer.Expect(js_lexer.TColon)
			}

		caseBody:
			for {
				switch p.lexer.Token {
				case js_lexer.TCloseBrace, js_lexer.TCase, js_lexer.TDefault:
					break caseBody

				default:
					body = append(body, p.parseStmt(parseStmtOpts{allowLexicalDecl: true}))
				}
			}

			cases = append(cases, js_ast.Case{Value: value, Body: body})
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SSwitch{Test: test, BodyLoc: bodyLoc, Cases: cases}}

	case js_lexer.TTry:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenBrace)
		p.pushScopeForParsePass(js_ast.ScopeBlock, loc)
		body := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
		p.popScope()
		p.lexer.Next()

		var catch *js_ast.Catch
		var finally *js_ast.Finally

		if p.lexer.Token == js_lexer.TCatch {
			catchLoc := p.lexer.Loc()
			p.pushScopeForParsePass(js_ast.ScopeBlock, catchLoc)
			p.lexer.Next()
			var binding *js_ast.Binding

			// The catch binding is optional
			if p.lexer.Token != js_lexer.TOpenBrace {
				p.lexer.Expect(js_lexer.TOpenParen)
				value := p.parseBinding()
				p.lexer.Expect(js_lexer.TCloseParen)

				// A bare identifier gets special treatment when a "var" with the
				// same name appears in the body
				kind := js_ast.SymbolOther
				if _, ok := value.Data.(*js_ast.BIdentifier); ok {
					kind = js_ast.SymbolCatchIdentifier
				}
				p.declareBinding(kind, value, parseStmtOpts{})
				binding = &value
			}

			p.lexer.Expect(js_lexer.TOpenBrace)
			stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
			p.lexer.Next()
			catch = &js_ast.Catch{Loc: catchLoc, Binding: binding, Body: stmts}
			p.popScope()
		}

		if p.lexer.Token == js_lexer.TFinally || catch == nil {
			finallyLoc := p.lexer.Loc()
			p.pushScopeForParsePass(js_ast.ScopeBlock, finallyLoc)
			p.lexer.Expect(js_lexer.TFinally)
			p.lexer.Expect(js_lexer.TOpenBrace)
			stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
			p.lexer.Next()
			finally = &js_ast.Finally{Loc: finallyLoc, Stmts: stmts}
			p.popScope()
		}

		return js_ast.Stmt{Loc: loc, Data: &js_ast.STry{Body: body, Catch: catch, Finally: finally}}

	case js_lexer.TFor:
		p.pushScopeForParsePass(js_ast.ScopeBlock, loc)
		defer p.popScope()

		p.lexer.Next()

		// "for await (let x of y) {}"
		isForAwait := p.lexer.IsContextualKeyword("await")
		if isForAwait {
			if !p.currentFnOpts.allowAwait {
				p.log.AddRangeError(p.source, p.lexer.Range(), "Cannot use \"await\" outside an async function")
				isForAwait = false
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TOpenParen)

		var init *js_ast.Stmt
		var test *js_ast.Expr
		var update *js_ast.Expr

		// "in" expressions aren't allowed here
		p.allowIn = false

		var decls []js_ast.Decl
		initLoc := p.lexer.Loc()
		isVar := false
		switch p.lexer.Token {
		case js_lexer.TVar:
			isVar = true
			p.lexer.Next()
			decls = p.parseAndDeclareDecls(js_ast.SymbolHoisted, parseStmtOpts{})
			init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls}}

		case js_lexer.TConst:
			p.lexer.Next()
			decls = p.parseAndDeclareDecls(js_ast.SymbolOther, parseStmtOpts{})
			init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls}}

		case js_lexer.TSemicolon:

		default:
			if p.lexer.IsContextualKeyword("let") && p.isLetDecl() {
				p.lexer.Next()
				decls = p.parseAndDeclareDecls(js_ast.SymbolOther, parseStmtOpts{})
				init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls}}
			} else {
				init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SExpr{Value: p.parseExpr(js_ast.LLowest)}}
			}
		}

		// "in" expressions are allowed again
		p.allowIn = true

		// Detect for-of loops
		if p.lexer.IsContextualKeyword("of") || isForAwait {
			if init == nil || !p.lexer.IsContextualKeyword("of") {
				p.lexer.ExpectedString("\"of\"")
			}
			p.forbidInitializers(decls, "of", false)
			p.lexer.Next()
			value := p.parseExpr(js_ast.LComma)
			p.lexer.Expect(js_lexer.TCloseParen)
			body := p.parseStmt(parseStmtOpts{})
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{IsAwait: isForAwait, Init: *init, Value: value, Body: body}}
		}

		// Detect for-in loops
		if p.lexer.Token == js_lexer.TIn {
			if init == nil {
				p.lexer.Unexpected()
			}
			p.forbidInitializers(decls, "in", isVar)
			p.lexer.Next()
			value := p.parseExpr(js_ast.LLowest)
			p.lexer.Expect(js_lexer.TCloseParen)
			body := p.parseStmt(parseStmtOpts{})
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{Init: *init, Value: value, Body: body}}
		}

		// Only require "const" initializers once we know this is a normal for loop
		if init != nil {
			if local, ok := init.Data.(*js_ast.SLocal); ok && local.Kind == js_ast.LocalConst {
				p.requireInitializers(decls)
			}
		}

		p.lexer.Expect(js_lexer.TSemicolon)

		if p.lexer.Token != js_lexer.TSemicolon {
			expr := p.parseExpr(js_ast.LLowest)
			test = &expr
		}

		p.lexer.Expect(js_lexer.TSemicolon)

		if p.lexer.Token != js_lexer.TCloseParen {
			expr := p.parseExpr(js_ast.LLowest)
			update = &expr
		}

		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{Init: init, Test: test, Update: update, Body: body}}

	case js_lexer.TImport:
		p.lexer.Next()

		// "import('path')"
		// "import.meta"
		if p.lexer.Token == js_lexer.TOpenParen || p.lexer.Token == js_lexer.TDot {
			expr := p.parseSuffix(p.parseImportExpr(loc), js_ast.LLowest, nil)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
		}

		if !opts.isModuleScope {
			p.lexer.Unexpected()
		}
		p.hasES6ImportSyntax = true

		stmt := js_ast.SImport{}
		parseStar := func() {
			// "* as ns"
			p.lexer.Next()
			p.lexer.ExpectContextualKeyword("as")
			stmt.NamespaceRef = p.storeNameInRef(p.lexer.Identifier)
			starLoc := p.lexer.Loc()
			stmt.StarNameLoc = &starLoc
			p.lexer.Expect(js_lexer.TIdentifier)
		}

		switch p.lexer.Token {
		case js_lexer.TStringLiteral:
			// "import 'path'"

		case js_lexer.TAsterisk:
			// "import * as ns from 'path'"
			parseStar()
			p.lexer.ExpectContextualKeyword("from")

		case js_lexer.TOpenBrace:
			// "import {item1, item2} from 'path'"
			items := p.parseImportClause()
			stmt.Items = &items
			p.lexer.ExpectContextualKeyword("from")

		case js_lexer.TIdentifier:
			// "import defaultItem from 'path'"
			// "import defaultItem, * as ns from 'path'"
			// "import defaultItem, {item1, item2} from 'path'"
			stmt.DefaultName = &js_ast.LocRef{Loc: p.lexer.Loc(), Ref: p.storeNameInRef(p.lexer.Identifier)}
			p.lexer.Next()

			if p.lexer.Token == js_lexer.TComma {
				p.lexer.Next()
				switch p.lexer.Token {
				case js_lexer.TAsterisk:
					parseStar()

				case js_lexer.TOpenBrace:
					items := p.parseImportClause()
					stmt.Items = &items

				default:
					p.lexer.Unexpected()
				}
			}

			p.lexer.ExpectContextualKeyword("from")

		default:
			p.lexer.Unexpected()
		}

		pathRange, pathText := p.parsePath()
		stmt.ImportRecordIndex = p.addImportRecord(ast.ImportStmt, pathRange, pathText)
		record := &p.importRecords[stmt.ImportRecordIndex]
		record.ContainsImportStar = stmt.StarNameLoc != nil
		record.WasOriginallyBareImport = stmt.DefaultName == nil && stmt.StarNameLoc == nil && stmt.Items == nil
		p.lexer.ExpectOrInsertSemicolon()

		if stmt.StarNameLoc != nil {
			name := p.loadNameFromRef(stmt.NamespaceRef)
			stmt.NamespaceRef = p.declareSymbol(js_ast.SymbolImport, *stmt.StarNameLoc, name)
		} else {
			// Every import statement gets a namespace symbol for the linker
			stmt.NamespaceRef = p.newSymbol(js_ast.SymbolOther, ast.GenerateNonUniqueNameFromPath(pathText))
			p.currentScope.Generated = append(p.currentScope.Generated, stmt.NamespaceRef)
		}

		if stmt.DefaultName != nil {
			name := p.loadNameFromRef(stmt.DefaultName.Ref)
			ref := p.declareSymbol(js_ast.SymbolImport, stmt.DefaultName.Loc, name)
			p.isImportItem[ref] = true
			stmt.DefaultName.Ref = ref
		}

		if stmt.Items != nil {
			for i, item := range *stmt.Items {
				name := p.loadNameFromRef(item.Name.Ref)
				ref := p.declareSymbol(js_ast.SymbolImport, item.Name.Loc, name)
				p.isImportItem[ref] = true
				(*stmt.Items)[i].Name.Ref = ref
			}
		}

		return js_ast.Stmt{Loc: loc, Data: &stmt}

	case js_lexer.TBreak:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBreak{Label: name}}

	case js_lexer.TContinue:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SContinue{Label: name}}

	case js_lexer.TReturn:
		p.lexer.Next()
		var value *js_ast.Expr
		if p.lexer.Token != js_lexer.TSemicolon &&
			!p.lexer.HasNewlineBefore &&
			p.lexer.Token != js_lexer.TCloseBrace &&
			p.lexer.Token != js_lexer.TEndOfFile {
			expr := p.parseExpr(js_ast.LLowest)
			value = &expr
		}
		p.latestReturnHadSemicolon = p.lexer.Token == js_lexer.TSemicolon
		p.lexer.ExpectOrInsertSemicolon()
		if p.currentFnOpts.isOutsideFn {
			p.hasTopLevelReturn = true
			p.topLevelReturns = append(p.topLevelReturns, loc)
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{Value: value}}

	case js_lexer.TThrow:
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			p.log.AddError(p.source, logger.Loc{Start: loc.Start + 5}, "Unexpected newline after \"throw\"")
			panic(js_lexer.LexerPanic{})
		}
		expr := p.parseExpr(js_ast.LLowest)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: expr}}

	case js_lexer.TDebugger:
		p.lexer.Next()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDebugger{}}

	case js_lexer.TOpenBrace:
		p.pushScopeForParsePass(js_ast.ScopeBlock, loc)
		defer p.popScope()

		p.lexer.Next()
		stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts}}

	default:
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		name := p.lexer.Identifier

		// "let x = 1"
		if p.lexer.IsContextualKeyword("let") && p.isLetDecl() {
			if !opts.allowLexicalDecl {
				p.forbidLexicalDecl(loc)
			}
			p.lexer.Next()
			decls := p.parseAndDeclareDecls(js_ast.SymbolOther, opts)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls, IsExport: opts.isExport}}
		}

		// Parse either an async function, an async expression, or a normal expression
		var expr js_ast.Expr
		if p.lexer.IsContextualKeyword("async") {
			asyncRange := p.lexer.Range()
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
				p.lexer.Next()
				return p.parseFnStmt(asyncRange.Loc, opts, true /* isAsync */, asyncRange)
			}
			expr = p.parseSuffix(p.parseAsyncPrefixExpr(asyncRange, js_ast.LLowest), js_ast.LLowest, nil)
		} else {
			expr = p.parseExpr(js_ast.LLowest)
		}

		if isIdentifier {
			if ident, ok := expr.Data.(*js_ast.EIdentifier); ok {
				if p.lexer.Token == js_lexer.TColon {
					p.pushScopeForParsePass(js_ast.ScopeLabel, loc)
					defer p.popScope()

					// Parse a labeled statement
					p.lexer.Next()
					label := js_ast.LocRef{Loc: expr.Loc, Ref: ident.Ref}
					stmt := p.parseStmt(parseStmtOpts{})
					return js_ast.Stmt{Loc: loc, Data: &js_ast.SLabel{Name: label, Stmt: stmt}}
				}

				// "namespace Foo {}"
				// "module Foo {}"
				if p.options.TS.Parse && (name == "namespace" || name == "module") &&
					(opts.isModuleScope || opts.isNamespaceScope) &&
					p.lexer.Token == js_lexer.TIdentifier && !p.lexer.HasNewlineBefore {
					return p.parseTypeScriptNamespaceStmt(loc, opts)
				}
			}
		}

		p.lexer.ExpectOrInsertSemicolon()

		// Only a plain string statement can be a directive
		if str, ok := expr.Data.(*js_ast.EString); ok && helpers.UTF16EqualsString(str.Value, "use strict") {
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SDirective{Value: str.Value}}
		}

		return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
	}
}

func (p *parser) parseStmtsUpTo(end js_lexer.T, opts parseStmtOpts) []js_ast.Stmt {
	stmts := []js_ast.Stmt{}
	returnWithoutSemicolonStart := int32(-1)
	opts.allowLexicalDecl = true

	for p.lexer.Token != end {
		stmt := p.parseStmt(opts)
		stmts = append(stmts, stmt)

		// Warn about "return" followed by a newline and an expression
		if s, ok := stmt.Data.(*js_ast.SReturn); ok && s.Value == nil && !p.latestReturnHadSemicolon {
			returnWithoutSemicolonStart = stmt.Loc.Start
		} else {
			if returnWithoutSemicolonStart != -1 {
				if _, ok := stmt.Data.(*js_ast.SExpr); ok {
					p.log.AddWarning(p.source, logger.Loc{Start: returnWithoutSemicolonStart + 6},
						"The following expression is not returned because of an automatically-inserted semicolon")
				}
			}
			returnWithoutSemicolonStart = -1
		}
	}

	return stmts
}

func newParser(log logger.Log, source logger.Source, lexer js_lexer.Lexer, options *config.Options) *parser {
	p := &parser{
		log:                      log,
		source:                   source,
		lexer:                    lexer,
		allowIn:                  true,
		options:                  *options,
		currentFnOpts:            fnOpts{isOutsideFn: true},
		symbols:                  []js_ast.Symbol{js_ast.PlaceholderSymbol()},
		isImportItem:             make(map[js_ast.Ref]bool),
		namedImports:             make(map[js_ast.Ref]js_ast.NamedImport),
		namedExports:             make(map[string]js_ast.NamedExport),
		parenthesizedIdentifiers: make(map[*js_ast.EIdentifier]bool),
	}

	p.pushScopeForParsePass(js_ast.ScopeEntry, logger.Loc{Start: locModuleScope})
	return p
}

// Parses and binds one file. Syntax errors stop parsing and return false.
// Binding errors are logged but still produce an AST. The symbols of the
// returned AST all use "source.Index" as their outer index.
func Parse(log logger.Log, source logger.Source, options config.Options) (result js_ast.AST, ok bool) {
	ok = true
	defer func() {
		r := recover()
		if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	p := newParser(log, source, js_lexer.NewLexer(log, source), &options)

	// Consume a leading hashbang comment
	if p.lexer.Token == js_lexer.THashbang {
		p.lexer.Next()
	}

	// Parse the file in the first pass, but do not bind symbols
	stmts := p.parseStmtsUpTo(js_lexer.TEndOfFile, parseStmtOpts{isModuleScope: true})
	p.prepareForVisitPass()

	// A leading "use strict" is kept on the AST instead of in the statements
	directive := ""
	if len(stmts) > 0 {
		if s, ok := stmts[0].Data.(*js_ast.SDirective); ok {
			directive = helpers.UTF16ToString(s.Value)
			stmts = stmts[1:]
		}
	}

	// Bind symbols in a second pass over the AST
	stmts = p.visitStmts(stmts)
	p.popScope()
	if len(p.scopesInOrder) != 0 {
		panic(fmt.Sprintf("Internal error: %d scopes were not visited in %s", len(p.scopesInOrder), source.PrettyPath))
	}

	p.scanForImportsAndExports(stmts)
	result = p.toAST(stmts, directive)

	// Import and export syntax makes the file an ECMAScript module, which
	// stays one even if it also returns at the top level
	if result.HasES6Syntax() && result.HasTopLevelReturn {
		for _, loc := range p.topLevelReturns {
			p.log.AddRangeError(p.source, js_lexer.RangeOfIdentifier(p.source, loc),
				"Top-level return cannot be used inside an ECMAScript module")
		}
		result.HasTopLevelReturn = false
	}
	return
}

func (p *parser) prepareForVisitPass() {
	p.pushScopeForVisitPass(js_ast.ScopeEntry, logger.Loc{Start: locModuleScope})
	p.moduleScope = p.currentScope

	// The linker looks at "exports" and "module" to find CommonJS files, so
	// they are only made visible to the code when bundling
	if p.options.IsBundling {
		p.exportsRef = p.declareCommonJSSymbol(js_ast.SymbolHoisted, "exports")
		p.requireRef = p.declareCommonJSSymbol(js_ast.SymbolUnbound, "require")
		p.moduleRef = p.declareCommonJSSymbol(js_ast.SymbolHoisted, "module")
	} else {
		p.exportsRef = p.newSymbol(js_ast.SymbolHoisted, "exports")
		p.requireRef = p.newSymbol(js_ast.SymbolUnbound, "require")
		p.moduleRef = p.newSymbol(js_ast.SymbolHoisted, "module")
	}
}

func (p *parser) declareCommonJSSymbol(kind js_ast.SymbolKind, name string) js_ast.Ref {
	member, ok := p.moduleScope.Members[name]

	// CommonJS code runs inside a function that takes "exports" and "module" as
	// arguments, so "var exports" in a CommonJS file is the same variable
	if ok && p.symbols[member.Ref.InnerIndex].Kind == js_ast.SymbolHoisted &&
		kind == js_ast.SymbolHoisted && !p.hasES6ImportSyntax && !p.hasES6ExportSyntax {
		return member.Ref
	}

	ref := p.newSymbol(kind, name)

	// Names the code doesn't declare bind to this symbol in the visit pass
	if !ok {
		p.moduleScope.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: logger.Loc{Start: -1}}
		return ref
	}

	// The code's own declaration shadows this symbol. It still goes in the
	// scope so the renamer sees it.
	p.moduleScope.Generated = append(p.moduleScope.Generated, ref)
	return ref
}

func (p *parser) toAST(stmts []js_ast.Stmt, directive string) js_ast.AST {
	return js_ast.AST{
		HasTopLevelReturn:       p.hasTopLevelReturn,
		UsesExportsRef:          p.symbols[p.exportsRef.InnerIndex].UseCountEstimate > 0,
		UsesModuleRef:           p.symbols[p.moduleRef.InnerIndex].UseCountEstimate > 0,
		HasES6Imports:           p.hasES6ImportSyntax,
		HasES6Exports:           p.hasES6ExportSyntax,
		UsesDirectEval:          p.moduleScope.ContainsDirectEval,
		Directive:               directive,
		Stmts:                   stmts,
		Symbols:                 p.symbols,
		ModuleScope:             p.moduleScope,
		ExportsRef:              p.exportsRef,
		ModuleRef:               p.moduleRef,
		ImportRecords:           p.importRecords,
		NamedImports:            p.namedImports,
		NamedExports:            p.namedExports,
		ExportStarImportRecords: p.exportStarImportRecords,
	}
}
