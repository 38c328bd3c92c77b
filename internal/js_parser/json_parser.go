package js_parser

import (
	"fmt"

	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_lexer"
	"github.com/evanw/esbind/internal/logger"
)

// JSON files produce a single expression and no symbols, so this doesn't
// need any of the scope machinery in the main parser
type jsonParser struct {
	log    logger.Log
	source logger.Source
	lexer  js_lexer.Lexer
}

// Returns false if the list ends here, either because there is no comma or
// because the comma was trailing
func (p *jsonParser) parseCommaBefore(closeToken js_lexer.T) bool {
	if p.lexer.Token != js_lexer.TComma {
		return false
	}
	commaRange := p.lexer.Range()
	p.lexer.Next()

	if p.lexer.Token == closeToken {
		p.log.AddRangeError(p.source, commaRange, "JSON does not support trailing commas")
		return false
	}
	return true
}

func (p *jsonParser) parseValue() js_ast.Expr {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TFalse, js_lexer.TTrue:
		value := p.lexer.Token == js_lexer.TTrue
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: value}}

	case js_lexer.TNull:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}

	case js_lexer.TStringLiteral:
		value := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: value}}

	case js_lexer.TNumericLiteral:
		value := p.lexer.Number
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: value}}

	case js_lexer.TMinus:
		p.lexer.Next()
		value := p.lexer.Number
		p.lexer.Expect(js_lexer.TNumericLiteral)
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: -value}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.Expr{}

		if p.lexer.Token != js_lexer.TCloseBracket {
			for {
				items = append(items, p.parseValue())
				if !p.parseCommaBefore(js_lexer.TCloseBracket) {
					break
				}
			}
		}

		p.lexer.Expect(js_lexer.TCloseBracket)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.Property{}
		seenKeys := make(map[string]bool)

		if p.lexer.Token != js_lexer.TCloseBrace {
			for {
				keyRange := p.lexer.Range()
				keyValue := p.lexer.StringLiteral
				p.lexer.Expect(js_lexer.TStringLiteral)

				// Later keys silently win in JSON.parse, which is rarely intended
				keyText := helpers.UTF16ToString(keyValue)
				if seenKeys[keyText] {
					p.log.AddRangeWarning(p.source, keyRange, fmt.Sprintf("Duplicate key: %q", keyText))
				}
				seenKeys[keyText] = true

				p.lexer.Expect(js_lexer.TColon)
				value := p.parseValue()
				properties = append(properties, js_ast.Property{
					Kind:  js_ast.PropertyNormal,
					Key:   js_ast.Expr{Loc: keyRange.Loc, Data: &js_ast.EString{Value: keyValue}},
					Value: &value,
				})

				if !p.parseCommaBefore(js_lexer.TCloseBrace) {
					break
				}
			}
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: properties}}

	default:
		p.lexer.Unexpected()
		return js_ast.Expr{}
	}
}

// Parses a JSON file into a single expression. Syntax errors return false.
func ParseJSON(log logger.Log, source logger.Source) (result js_ast.Expr, ok bool) {
	ok = true
	defer func() {
		r := recover()
		if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	p := &jsonParser{
		log:    log,
		source: source,
		lexer:  js_lexer.NewLexerJSON(log, source),
	}

	result = p.parseValue()
	p.lexer.Expect(js_lexer.TEndOfFile)
	return
}
