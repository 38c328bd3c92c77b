package js_ast

import (
	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/logger"
)

func Assign(a Expr, b Expr) Expr {
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpAssign, Left: a, Right: b}}
}

func JoinWithComma(a Expr, b Expr) Expr {
	if a.Data == nil {
		return b
	}
	if b.Data == nil {
		return a
	}
	return Expr{Loc: a.Loc, Data: &EBinary{Op: BinOpComma, Left: a, Right: b}}
}

func JoinAllWithComma(all []Expr) (result Expr) {
	for _, value := range all {
		result = JoinWithComma(result, value)
	}
	return
}

func IsPropertyAccess(expr Expr) bool {
	switch expr.Data.(type) {
	case *EDot, *EIndex:
		return true
	}
	return false
}

func IsOptionalChain(value Expr) bool {
	switch e := value.Data.(type) {
	case *EDot:
		return e.OptionalChain != OptionalChainNone
	case *EIndex:
		return e.OptionalChain != OptionalChainNone
	case *ECall:
		return e.OptionalChain != OptionalChainNone
	}
	return false
}

// Calls "visit" for every identifier bound by this binding, in source order
func ForEachIdentifierBinding(binding Binding, visit func(loc logger.Loc, b *BIdentifier)) {
	switch b := binding.Data.(type) {
	case *BMissing:

	case *BIdentifier:
		visit(binding.Loc, b)

	case *BArray:
		for _, item := range b.Items {
			ForEachIdentifierBinding(item.Binding, visit)
		}

	case *BObject:
		for _, property := range b.Properties {
			ForEachIdentifierBinding(property.Value, visit)
		}

	default:
		panic("Internal error")
	}
}

// Returns a new expression equivalent to the binding. The binding itself is
// left untouched.
func ConvertBindingToExpr(binding Binding, wrapIdentifier func(logger.Loc, Ref) Expr) Expr {
	loc := binding.Loc

	switch b := binding.Data.(type) {
	case *BMissing:
		return Expr{Loc: loc, Data: &EMissing{}}

	case *BIdentifier:
		if wrapIdentifier != nil {
			return wrapIdentifier(loc, b.Ref)
		}
		return Expr{Loc: loc, Data: &EIdentifier{Ref: b.Ref}}

	case *BArray:
		exprs := make([]Expr, len(b.Items))
		for i, item := range b.Items {
			expr := ConvertBindingToExpr(item.Binding, wrapIdentifier)
			if b.HasSpread && i+1 == len(b.Items) {
				expr = Expr{Loc: expr.Loc, Data: &ESpread{Value: expr}}
			} else if item.DefaultValue != nil {
				expr = Assign(expr, *item.DefaultValue)
			}
			exprs[i] = expr
		}
		return Expr{Loc: loc, Data: &EArray{Items: exprs}}

	case *BObject:
		properties := make([]Property, len(b.Properties))
		for i, property := range b.Properties {
			value := ConvertBindingToExpr(property.Value, wrapIdentifier)
			kind := PropertyNormal
			if property.IsSpread {
				kind = PropertySpread
			}
			properties[i] = Property{
				Kind:        kind,
				IsComputed:  property.IsComputed,
				Key:         property.Key,
				Value:       &value,
				Initializer: property.DefaultValue,
			}
		}
		return Expr{Loc: loc, Data: &EObject{Properties: properties}}

	default:
		panic("Internal error")
	}
}

// Reports whether the object literal property "key: value" may be written
// using the shorthand "{key}" form, given the name that will be printed for
// each symbol.
//
// Only a bare identifier with the same printed name qualifies. An import
// identifier qualifies only when the linker bound it statically. If the
// symbol it follows to has a namespace alias, the value really is a property
// access like "ns.key" and the shorthand would silently change its meaning.
func CanUseShorthandProperty(symbols SymbolMap, key []uint16, value Expr, nameForSymbol func(Ref) string) bool {
	var ref Ref

	switch e := value.Data.(type) {
	case *EIdentifier:
		ref = e.Ref

	case *EImportIdentifier:
		ref = FollowSymbolsReadOnly(symbols, e.Ref)
		if symbols.Get(ref).NamespaceAlias != nil {
			return false
		}

	default:
		return false
	}

	return helpers.UTF16EqualsString(key, nameForSymbol(ref))
}
