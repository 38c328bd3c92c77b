package js_parser

import (
	"fmt"

	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_lexer"
	"github.com/evanw/esbind/internal/logger"
)

func (p *parser) pushScopeForVisitPass(kind js_ast.ScopeKind, loc logger.Loc) {
	order := p.scopesInOrder[0]

	// Sanity-check that the scopes generated by the first and second passes match
	if order.loc != loc || order.scope.Kind != kind {
		panic(fmt.Sprintf("Internal error: Expected scope (%d, %d) in %s, found scope (%d, %d)",
			kind, loc.Start, p.source.PrettyPath, order.scope.Kind, order.loc.Start))
	}

	p.scopesInOrder = p.scopesInOrder[1:]
	p.currentScope = order.scope
}

func (p *parser) recordUsage(ref js_ast.Ref) {
	p.symbols[ref.InnerIndex].UseCountEstimate++
}

func (p *parser) ignoreUsage(ref js_ast.Ref) {
	if symbol := &p.symbols[ref.InnerIndex]; symbol.UseCountEstimate > 0 {
		symbol.UseCountEstimate--
	}
}

// Names that nothing declares become unbound symbols in the module scope, so
// every later use of the same global name shares one symbol
func (p *parser) findSymbol(name string) js_ast.Ref {
	var ref js_ast.Ref
	isInsideWithScope := false
	s := p.currentScope

	for {
		// A "with" statement can resolve any name to a property at run time
		if s.Kind == js_ast.ScopeWith {
			isInsideWithScope = true
		}

		if member, ok := s.Members[name]; ok {
			ref = member.Ref
			break
		}

		s = s.Parent
		if s == nil {
			ref = p.newSymbol(js_ast.SymbolUnbound, name)
			p.moduleScope.Members[name] = js_ast.ScopeMember{Ref: ref, Loc: logger.Loc{Start: -1}}
			break
		}
	}

	if isInsideWithScope || p.currentScope.ContainsDirectEval {
		p.symbols[ref.InnerIndex].MustNotBeRenamed = true
	}

	p.recordUsage(ref)
	return ref
}

func (p *parser) findLabelSymbol(loc logger.Loc, name string) (ref js_ast.Ref, isLoop bool, ok bool) {
	for s := p.currentScope; s != nil && !s.Kind.StopsHoisting(); s = s.Parent {
		if s.Kind == js_ast.ScopeLabel && name == p.symbols[s.LabelRef.InnerIndex].OriginalName {
			// Track how many times we've referenced this symbol
			p.recordUsage(s.LabelRef)
			ref = s.LabelRef
			isLoop = s.LabelStmtIsLoop
			ok = true
			return
		}
	}

	r := js_lexer.RangeOfIdentifier(p.source, loc)
	p.log.AddRangeError(p.source, r, fmt.Sprintf("There is no containing label named %q", name))

	// Allocate an "unbound" symbol
	ref = p.newSymbol(js_ast.SymbolUnbound, name)

	// Track how many times we've referenced this symbol
	p.recordUsage(ref)
	return
}

func isLoopStmt(stmt js_ast.Stmt) bool {
	switch s := stmt.Data.(type) {
	case *js_ast.SFor, *js_ast.SForIn, *js_ast.SForOf, *js_ast.SWhile, *js_ast.SDoWhile:
		return true

	case *js_ast.SLabel:
		return isLoopStmt(s.Stmt)
	}
	return false
}

func (p *parser) visitStmts(stmts []js_ast.Stmt) []js_ast.Stmt {
	for i := range stmts {
		p.visitStmt(&stmts[i])
	}
	return stmts
}

func (p *parser) visitLoopBody(stmt js_ast.Stmt) js_ast.Stmt {
	oldJumps := p.jumps
	p.jumps.isInsideLoop = true
	p.visitStmt(&stmt)
	p.jumps = oldJumps
	return stmt
}

func (p *parser) visitSingleStmt(stmt js_ast.Stmt) js_ast.Stmt {
	p.visitStmt(&stmt)
	return stmt
}

func (p *parser) visitForLoopInit(stmt js_ast.Stmt, isInOrOf bool) js_ast.Stmt {
	switch s := stmt.Data.(type) {
	case *js_ast.SExpr:
		assignTarget := js_ast.AssignTargetNone
		if isInOrOf {
			assignTarget = js_ast.AssignTargetReplace
		}
		s.Value = p.visitExprInOut(s.Value, exprIn{assignTarget: assignTarget})

	case *js_ast.SLocal:
		for i := range s.Decls {
			d := &s.Decls[i]
			p.visitBinding(d.Binding)
			if d.Value != nil {
				*d.Value = p.visitExpr(*d.Value)
			}
		}

	default:
		panic("Internal error")
	}

	return stmt
}

func (p *parser) visitStmt(stmt *js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SDebugger, *js_ast.SEmpty, *js_ast.SDirective:

	case *js_ast.SImport:
		// Imports were bound in the first pass

	case *js_ast.SExportClause:
		// "export {foo}"
		for i, item := range s.Items {
			name := p.loadNameFromRef(item.Name.Ref)
			ref := p.findSymbol(name)
			s.Items[i].Name.Ref = ref

			// Exporting a name that nothing declares is an error in JavaScript.
			// In TypeScript it may be a type, which this parser can't see.
			if !p.options.TS.Parse && p.symbols[ref.InnerIndex].Kind == js_ast.SymbolUnbound {
				r := js_lexer.RangeOfIdentifier(p.source, item.Name.Loc)
				p.log.AddRangeError(p.source, r, fmt.Sprintf("%q is not declared in this file", name))
				continue
			}

			p.recordExport(item.AliasLoc, item.Alias, ref)
		}

	case *js_ast.SExportFrom:
		// "export {foo} from 'path'"
		name := p.loadNameFromRef(s.NamespaceRef)
		s.NamespaceRef = p.newSymbol(js_ast.SymbolOther, name)
		p.currentScope.Generated = append(p.currentScope.Generated, s.NamespaceRef)

		// This is a re-export and the symbols created here are used to reference
		// names in another file. This means the symbols are really aliases.
		for i, item := range s.Items {
			name := p.loadNameFromRef(item.Name.Ref)
			ref := p.newSymbol(js_ast.SymbolOther, name)
			p.currentScope.Generated = append(p.currentScope.Generated, ref)
			p.recordExport(item.AliasLoc, item.Alias, ref)
			s.Items[i].Name.Ref = ref
		}

	case *js_ast.SExportStar:
		// "export * from 'path'"
		// "export * as ns from 'path'"
		name := p.loadNameFromRef(s.NamespaceRef)
		s.NamespaceRef = p.newSymbol(js_ast.SymbolOther, name)
		p.currentScope.Generated = append(p.currentScope.Generated, s.NamespaceRef)

		// "export * as ns" exports the namespace object under a single name
		if s.Alias != nil {
			p.recordExport(s.Alias.Loc, s.Alias.Name, s.NamespaceRef)
		}

	case *js_ast.SExportDefault:
		p.recordDeclaredSymbol(s.DefaultName.Ref)

		if s.Value.Expr != nil {
			*s.Value.Expr = p.visitExpr(*s.Value.Expr)
		} else {
			switch s2 := s.Value.Stmt.Data.(type) {
			case *js_ast.SFunction:
				p.visitFn(&s2.Fn, s.Value.Stmt.Loc)

			case *js_ast.SClass:
				p.visitClass(s.Value.Stmt.Loc, &s2.Class, false /* isExpr */)

			default:
				panic("Internal error")
			}
		}

	case *js_ast.SBreak:
		if s.Label != nil {
			name := p.loadNameFromRef(s.Label.Ref)
			s.Label.Ref, _, _ = p.findLabelSymbol(s.Label.Loc, name)
		} else if !p.jumps.isInsideLoop && !p.jumps.isInsideSwitch {
			r := js_lexer.RangeOfIdentifier(p.source, stmt.Loc)
			p.log.AddRangeError(p.source, r, "Cannot use \"break\" here")
		}

	case *js_ast.SContinue:
		if s.Label != nil {
			name := p.loadNameFromRef(s.Label.Ref)
			var isLoop, ok bool
			s.Label.Ref, isLoop, ok = p.findLabelSymbol(s.Label.Loc, name)
			if ok && !isLoop {
				r := js_lexer.RangeOfIdentifier(p.source, s.Label.Loc)
				p.log.AddRangeError(p.source, r, fmt.Sprintf("Cannot continue to label %q", name))
			}
		} else if !p.jumps.isInsideLoop {
			r := js_lexer.RangeOfIdentifier(p.source, stmt.Loc)
			p.log.AddRangeError(p.source, r, "Cannot use \"continue\" here")
		}

	case *js_ast.SLabel:
		p.pushScopeForVisitPass(js_ast.ScopeLabel, stmt.Loc)
		name := p.loadNameFromRef(s.Name.Ref)

		// Labels are visible to nested statements but not to nested functions
		for scope := p.currentScope.Parent; scope != nil && !scope.Kind.StopsHoisting(); scope = scope.Parent {
			if scope.Kind == js_ast.ScopeLabel && name == p.symbols[scope.LabelRef.InnerIndex].OriginalName {
				r := js_lexer.RangeOfIdentifier(p.source, s.Name.Loc)
				p.log.AddRangeError(p.source, r, fmt.Sprintf("Duplicate label %q", name))
				break
			}
		}

		ref := p.newSymbol(js_ast.SymbolLabel, name)
		s.Name.Ref = ref
		p.currentScope.LabelRef = ref
		p.currentScope.LabelStmtIsLoop = isLoopStmt(s.Stmt)

		s.Stmt = p.visitSingleStmt(s.Stmt)
		p.popScope()

	case *js_ast.SLocal:
		for i := range s.Decls {
			d := &s.Decls[i]
			p.visitBinding(d.Binding)
			if d.Value != nil {
				*d.Value = p.visitExpr(*d.Value)
			}
		}

	case *js_ast.SExpr:
		s.Value = p.visitExpr(s.Value)

	case *js_ast.SThrow:
		s.Value = p.visitExpr(s.Value)

	case *js_ast.SReturn:
		if s.Value != nil {
			*s.Value = p.visitExpr(*s.Value)
		}

	case *js_ast.SBlock:
		p.pushScopeForVisitPass(js_ast.ScopeBlock, stmt.Loc)
		s.Stmts = p.visitStmts(s.Stmts)
		p.popScope()

	case *js_ast.SWith:
		s.Value = p.visitExpr(s.Value)
		p.pushScopeForVisitPass(js_ast.ScopeWith, s.BodyLoc)
		s.Body = p.visitSingleStmt(s.Body)
		p.popScope()

	case *js_ast.SWhile:
		s.Test = p.visitExpr(s.Test)
		s.Body = p.visitLoopBody(s.Body)

	case *js_ast.SDoWhile:
		s.Body = p.visitLoopBody(s.Body)
		s.Test = p.visitExpr(s.Test)

	case *js_ast.SIf:
		s.Test = p.visitExpr(s.Test)
		s.Yes = p.visitSingleStmt(s.Yes)
		if s.No != nil {
			*s.No = p.visitSingleStmt(*s.No)
		}

	case *js_ast.SFor:
		p.pushScopeForVisitPass(js_ast.ScopeBlock, stmt.Loc)
		if s.Init != nil {
			*s.Init = p.visitForLoopInit(*s.Init, false)
		}
		if s.Test != nil {
			*s.Test = p.visitExpr(*s.Test)
		}
		if s.Update != nil {
			*s.Update = p.visitExpr(*s.Update)
		}
		s.Body = p.visitLoopBody(s.Body)
		p.popScope()

	case *js_ast.SForIn:
		p.pushScopeForVisitPass(js_ast.ScopeBlock, stmt.Loc)
		s.Init = p.visitForLoopInit(s.Init, true)
		s.Value = p.visitExpr(s.Value)
		s.Body = p.visitLoopBody(s.Body)
		p.popScope()

	case *js_ast.SForOf:
		p.pushScopeForVisitPass(js_ast.ScopeBlock, stmt.Loc)
		s.Init = p.visitForLoopInit(s.Init, true)
		s.Value = p.visitExpr(s.Value)
		s.Body = p.visitLoopBody(s.Body)
		p.popScope()

	case *js_ast.STry:
		p.pushScopeForVisitPass(js_ast.ScopeBlock, stmt.Loc)
		s.Body = p.visitStmts(s.Body)
		p.popScope()

		if s.Catch != nil {
			p.pushScopeForVisitPass(js_ast.ScopeBlock, s.Catch.Loc)
			if s.Catch.Binding != nil {
				p.visitBinding(*s.Catch.Binding)
			}
			s.Catch.Body = p.visitStmts(s.Catch.Body)
			p.popScope()
		}

		if s.Finally != nil {
			p.pushScopeForVisitPass(js_ast.ScopeBlock, s.Finally.Loc)
			s.Finally.Stmts = p.visitStmts(s.Finally.Stmts)
			p.popScope()
		}

	case *js_ast.SSwitch:
		s.Test = p.visitExpr(s.Test)
		p.pushScopeForVisitPass(js_ast.ScopeBlock, s.BodyLoc)
		oldIsInsideSwitch := p.jumps.isInsideSwitch
		p.jumps.isInsideSwitch = true
		for i, c := range s.Cases {
			if c.Value != nil {
				*c.Value = p.visitExpr(*c.Value)
			}
			s.Cases[i].Body = p.visitStmts(c.Body)
		}
		p.jumps.isInsideSwitch = oldIsInsideSwitch
		p.popScope()

	case *js_ast.SFunction:
		p.visitFn(&s.Fn, stmt.Loc)

	case *js_ast.SClass:
		p.visitClass(stmt.Loc, &s.Class, false /* isExpr */)

	case *js_ast.SEnum:
		p.recordDeclaredSymbol(s.Name.Ref)
		p.pushScopeForVisitPass(js_ast.ScopeEntry, stmt.Loc)
		p.recordDeclaredSymbol(s.Arg)

		// Values without an initializer continue counting from the previous
		// numeric value. After a non-numeric value there is nothing to count
		// from, so the value is undefined.
		nextNumericValue := float64(0)
		hasNumericValue := true
		for i := range s.Values {
			value := &s.Values[i]
			if value.Ref != js_ast.InvalidRef {
				p.recordDeclaredSymbol(value.Ref)
			}

			if value.Value != nil {
				*value.Value = p.visitExpr(*value.Value)
				if number, ok := value.Value.Data.(*js_ast.ENumber); ok {
					nextNumericValue = number.Value + 1
					hasNumericValue = true
				} else {
					hasNumericValue = false
				}
			} else if hasNumericValue {
				value.Value = &js_ast.Expr{Loc: value.Loc, Data: &js_ast.ENumber{Value: nextNumericValue}}
				nextNumericValue++
			} else {
				value.Value = &js_ast.Expr{Loc: value.Loc, Data: &js_ast.EUndefined{}}
			}
		}

		p.popScope()

	case *js_ast.SNamespace:
		p.recordDeclaredSymbol(s.Name.Ref)
		p.pushScopeForVisitPass(js_ast.ScopeEntry, stmt.Loc)
		p.recordDeclaredSymbol(s.Arg)

		oldEnclosingNamespaceRef := p.enclosingNamespaceRef
		p.enclosingNamespaceRef = &s.Arg
		s.Stmts = p.visitStmts(s.Stmts)
		p.enclosingNamespaceRef = oldEnclosingNamespaceRef

		p.popScope()

	default:
		panic(fmt.Sprintf("Internal error: Unexpected statement of type %T", stmt.Data))
	}
}

// Declarations already know their symbol. This only exists to catch refs that
// were never declared, which would mean the first pass left a name behind.
func (p *parser) recordDeclaredSymbol(ref js_ast.Ref) {
	if ref.OuterIndex == stashedNameOuterIndex {
		panic(fmt.Sprintf("Internal error: Undeclared name %q in %s", p.loadNameFromRef(ref), p.source.PrettyPath))
	}
}

func (p *parser) visitBinding(binding js_ast.Binding) {
	switch b := binding.Data.(type) {
	case *js_ast.BMissing:

	case *js_ast.BIdentifier:
		p.recordDeclaredSymbol(b.Ref)

	case *js_ast.BArray:
		for _, item := range b.Items {
			p.visitBinding(item.Binding)
			if item.DefaultValue != nil {
				*item.DefaultValue = p.visitExpr(*item.DefaultValue)
			}
		}

	case *js_ast.BObject:
		for i, property := range b.Properties {
			if !property.IsSpread {
				b.Properties[i].Key = p.visitExpr(property.Key)
			}
			p.visitBinding(property.Value)
			if property.DefaultValue != nil {
				*property.DefaultValue = p.visitExpr(*property.DefaultValue)
			}
		}

	default:
		panic("Internal error")
	}
}

func (p *parser) visitArgs(args []js_ast.Arg) {
	for _, arg := range args {
		p.visitBinding(arg.Binding)
		if arg.Default != nil {
			*arg.Default = p.visitExpr(*arg.Default)
		}
	}
}

func (p *parser) visitFn(fn *js_ast.Fn, scopeLoc logger.Loc) {
	oldJumps := p.jumps
	oldIsNewTargetAllowed := p.isNewTargetAllowed
	p.jumps = jumpTargets{}
	p.isNewTargetAllowed = true

	p.pushScopeForVisitPass(js_ast.ScopeFunctionArgs, scopeLoc)
	p.visitArgs(fn.Args)
	p.pushScopeForVisitPass(js_ast.ScopeFunctionBody, fn.Body.Loc)
	fn.Body.Stmts = p.visitStmts(fn.Body.Stmts)
	p.popScope()
	p.popScope()

	p.jumps = oldJumps
	p.isNewTargetAllowed = oldIsNewTargetAllowed
}

func (p *parser) visitClass(loc logger.Loc, class *js_ast.Class, isExpr bool) {
	if isExpr && class.Name != nil {
		p.pushScopeForVisitPass(js_ast.ScopeClassName, loc)
	}

	if class.Extends != nil {
		*class.Extends = p.visitExpr(*class.Extends)
	}

	p.pushScopeForVisitPass(js_ast.ScopeClassBody, class.BodyLoc)

	for i := range class.Properties {
		property := &class.Properties[i]
		property.Key = p.visitExpr(property.Key)
		if property.Value != nil {
			*property.Value = p.visitExpr(*property.Value)
		}
		if property.Initializer != nil {
			oldIsNewTargetAllowed := p.isNewTargetAllowed
			p.isNewTargetAllowed = true
			*property.Initializer = p.visitExpr(*property.Initializer)
			p.isNewTargetAllowed = oldIsNewTargetAllowed
		}
	}

	p.popScope()

	if isExpr && class.Name != nil {
		p.popScope()
	}
}

type exprIn struct {
	// This is true if the expression is the target of an assignment, in which
	// case an import can't be stored there
	assignTarget js_ast.AssignTarget
}

func (p *parser) visitExpr(expr js_ast.Expr) js_ast.Expr {
	return p.visitExprInOut(expr, exprIn{})
}

func (p *parser) handleIdentifier(loc logger.Loc, e *js_ast.EIdentifier, in exprIn) js_ast.Expr {
	ref := e.Ref

	if in.assignTarget != js_ast.AssignTargetNone && p.symbols[ref.InnerIndex].Kind == js_ast.SymbolImport {
		r := js_lexer.RangeOfIdentifier(p.source, loc)
		p.log.AddRangeError(p.source, r, fmt.Sprintf("Cannot assign to import %q", p.symbols[ref.InnerIndex].OriginalName))
	}

	// Import items become a separate node type so that nothing later treats
	// them as a plain identifier by accident
	if p.isImportItem[ref] {
		return js_ast.Expr{Loc: loc, Data: &js_ast.EImportIdentifier{Ref: ref}}
	}

	return js_ast.Expr{Loc: loc, Data: e}
}

func isValidAssignmentTarget(expr js_ast.Expr) bool {
	switch e := expr.Data.(type) {
	case *js_ast.EIdentifier:
		return true
	case *js_ast.EArray:
		return !e.IsParenthesized
	case *js_ast.EObject:
		return !e.IsParenthesized
	}
	return js_ast.IsPropertyAccess(expr) && !js_ast.IsOptionalChain(expr)
}

// Items of an array or object pattern may be holes, defaults, or spreads. Only
// the target inside each one has to be assignable.
func (p *parser) visitPatternItem(item js_ast.Expr, in exprIn) js_ast.Expr {
	if in.assignTarget != js_ast.AssignTargetNone {
		switch e := item.Data.(type) {
		case *js_ast.EMissing:
			return item

		case *js_ast.ESpread:
			e.Value = p.visitExprInOut(e.Value, in)
			return item

		case *js_ast.EBinary:
			if e.Op == js_ast.BinOpAssign {
				return p.visitExpr(item)
			}
		}
	}
	return p.visitExprInOut(item, in)
}

func (p *parser) visitExprInOut(expr js_ast.Expr, in exprIn) js_ast.Expr {
	if in.assignTarget != js_ast.AssignTargetNone && !isValidAssignmentTarget(expr) {
		p.log.AddError(p.source, expr.Loc, "Invalid assignment target")
	}

	switch e := expr.Data.(type) {
	case *js_ast.ENull, *js_ast.ESuper, *js_ast.EBoolean, *js_ast.EBigInt,
		*js_ast.ERegExp, *js_ast.EUndefined, *js_ast.EThis,
		*js_ast.EImportMeta, *js_ast.ENumber, *js_ast.EString, *js_ast.EMissing:

	case *js_ast.ENewTarget:
		if !p.isNewTargetAllowed {
			p.log.AddError(p.source, expr.Loc, "Cannot use \"new.target\" here")
		}

	case *js_ast.ETemplate:
		if e.Tag != nil {
			*e.Tag = p.visitExpr(*e.Tag)
		}
		for i, part := range e.Parts {
			e.Parts[i].Value = p.visitExpr(part.Value)
		}

	case *js_ast.EIdentifier:
		name := p.loadNameFromRef(e.Ref)
		e.Ref = p.findSymbol(name)
		return p.handleIdentifier(expr.Loc, e, in)

	case *js_ast.EBinary:
		e.Left = p.visitExprInOut(e.Left, exprIn{assignTarget: e.Op.BinaryAssignTarget()})
		e.Right = p.visitExpr(e.Right)

	case *js_ast.EIndex:
		e.Target = p.visitExpr(e.Target)
		e.Index = p.visitExpr(e.Index)

	case *js_ast.EUnary:
		e.Value = p.visitExprInOut(e.Value, exprIn{assignTarget: e.Op.UnaryAssignTarget()})

	case *js_ast.EDot:
		e.Target = p.visitExpr(e.Target)

	case *js_ast.EIf:
		e.Test = p.visitExpr(e.Test)
		e.Yes = p.visitExpr(e.Yes)
		e.No = p.visitExpr(e.No)

	case *js_ast.EAwait:
		e.Value = p.visitExpr(e.Value)

	case *js_ast.EYield:
		if e.Value != nil {
			*e.Value = p.visitExpr(*e.Value)
		}

	case *js_ast.EArray:
		for i, item := range e.Items {
			e.Items[i] = p.visitPatternItem(item, in)
		}

	case *js_ast.EObject:
		for i := range e.Properties {
			property := &e.Properties[i]
			if property.Kind != js_ast.PropertySpread {
				property.Key = p.visitExpr(property.Key)
			}
			if property.Value != nil {
				*property.Value = p.visitPatternItem(*property.Value, in)
			}
			if property.Initializer != nil {
				*property.Initializer = p.visitExpr(*property.Initializer)
			}
		}

	case *js_ast.ESpread:
		e.Value = p.visitExprInOut(e.Value, in)

	case *js_ast.EImport:
		e.Expr = p.visitExpr(e.Expr)

		// Track calls to "import()" whose path is known ahead of time
		if str, ok := e.Expr.Data.(*js_ast.EString); ok {
			r := p.source.RangeOfString(e.Expr.Loc)
			importRecordIndex := p.addImportRecord(ast.ImportDynamic, r, helpers.UTF16ToString(str.Value))
			e.ImportRecordIndex = &importRecordIndex
		} else if p.options.IsBundling {
			p.log.AddWarning(p.source, e.Expr.Loc,
				"This dynamic import will not be bundled because the argument is not a string literal")
		}

	case *js_ast.ECall:
		_, wasIdentifierBeforeVisit := e.Target.Data.(*js_ast.EIdentifier)
		e.Target = p.visitExpr(e.Target)
		for i, arg := range e.Args {
			e.Args[i] = p.visitExpr(arg)
		}

		if id, ok := e.Target.Data.(*js_ast.EIdentifier); ok && wasIdentifierBeforeVisit {
			symbol := p.symbols[id.Ref.InnerIndex]

			// A call to the global "eval" can see every enclosing scope
			if symbol.Kind == js_ast.SymbolUnbound && symbol.OriginalName == "eval" && e.OptionalChain == js_ast.OptionalChainNone {
				e.IsDirectEval = true
				for s := p.currentScope; s != nil; s = s.Parent {
					s.ContainsDirectEval = true
				}
			}

			// Track calls to "require()" that are not shadowed by a local name
			if symbol.Kind == js_ast.SymbolUnbound && symbol.OriginalName == "require" &&
				(p.options.IsBundling || p.options.Platform == config.PlatformNode) {
				if len(e.Args) == 1 {
					if str, ok := e.Args[0].Data.(*js_ast.EString); ok {
						// The call no longer references "require"
						p.ignoreUsage(id.Ref)

						r := p.source.RangeOfString(e.Args[0].Loc)
						importRecordIndex := p.addImportRecord(ast.ImportRequire, r, helpers.UTF16ToString(str.Value))
						return js_ast.Expr{Loc: expr.Loc, Data: &js_ast.ERequire{ImportRecordIndex: importRecordIndex}}
					}

					if p.options.IsBundling {
						p.log.AddWarning(p.source, e.Args[0].Loc,
							"This call to \"require\" will not be bundled because the argument is not a string literal")
					}
				} else if p.options.IsBundling {
					p.log.AddWarning(p.source, expr.Loc, fmt.Sprintf(
						"This call to \"require\" will not be bundled because it has %d arguments", len(e.Args)))
				}
			}
		}

	case *js_ast.ENew:
		e.Target = p.visitExpr(e.Target)
		for i, arg := range e.Args {
			e.Args[i] = p.visitExpr(arg)
		}

	case *js_ast.EArrow:
		oldJumps := p.jumps
		p.jumps = jumpTargets{}

		p.pushScopeForVisitPass(js_ast.ScopeFunctionArgs, expr.Loc)
		p.visitArgs(e.Args)
		p.pushScopeForVisitPass(js_ast.ScopeFunctionBody, e.Body.Loc)
		e.Body.Stmts = p.visitStmts(e.Body.Stmts)
		p.popScope()
		p.popScope()

		p.jumps = oldJumps

	case *js_ast.EFunction:
		p.visitFn(&e.Fn, expr.Loc)

	case *js_ast.EClass:
		p.visitClass(expr.Loc, &e.Class, true /* isExpr */)

	default:
		panic(fmt.Sprintf("Internal error: Unexpected expression of type %T", expr.Data))
	}

	return expr
}

// Fills in the import and export tables that the linker reads. This runs
// after binding so that every clause item already has its final symbol.
func (p *parser) scanForImportsAndExports(stmts []js_ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.Data.(type) {
		case *js_ast.SImport:
			if s.DefaultName != nil {
				p.namedImports[s.DefaultName.Ref] = js_ast.NamedImport{
					Alias:             "default",
					AliasLoc:          s.DefaultName.Loc,
					NamespaceRef:      s.NamespaceRef,
					ImportRecordIndex: s.ImportRecordIndex,
				}
			}

			if s.StarNameLoc != nil {
				p.namedImports[s.NamespaceRef] = js_ast.NamedImport{
					AliasIsStar:       true,
					AliasLoc:          *s.StarNameLoc,
					NamespaceRef:      js_ast.InvalidRef,
					ImportRecordIndex: s.ImportRecordIndex,
				}
			}

			if s.Items != nil {
				for _, item := range *s.Items {
					p.namedImports[item.Name.Ref] = js_ast.NamedImport{
						Alias:             item.Alias,
						AliasLoc:          item.AliasLoc,
						NamespaceRef:      s.NamespaceRef,
						ImportRecordIndex: s.ImportRecordIndex,
					}
				}
			}

		case *js_ast.SExportStar:
			if s.Alias != nil {
				// "export * as ns from 'path'" is an import of the namespace
				p.namedImports[s.NamespaceRef] = js_ast.NamedImport{
					AliasIsStar:       true,
					AliasLoc:          s.Alias.Loc,
					NamespaceRef:      js_ast.InvalidRef,
					ImportRecordIndex: s.ImportRecordIndex,
					IsExported:        true,
				}
			} else {
				// "export * from 'path'"
				p.exportStarImportRecords = append(p.exportStarImportRecords, s.ImportRecordIndex)
			}

		case *js_ast.SExportFrom:
			for _, item := range s.Items {
				// Note that the imported identifier is the original name, not
				// the exported alias
				p.namedImports[item.Name.Ref] = js_ast.NamedImport{
					Alias:             item.OriginalName,
					AliasLoc:          item.Name.Loc,
					NamespaceRef:      s.NamespaceRef,
					ImportRecordIndex: s.ImportRecordIndex,
					IsExported:        true,
				}
			}
		}
	}

	// "import {x} from 'path'; export {x}" re-exports the import
	for _, stmt := range stmts {
		if s, ok := stmt.Data.(*js_ast.SExportClause); ok {
			for _, item := range s.Items {
				if namedImport, ok := p.namedImports[item.Name.Ref]; ok {
					namedImport.IsExported = true
					p.namedImports[item.Name.Ref] = namedImport
				}
			}
		}
	}
}
