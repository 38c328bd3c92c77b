package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbind/internal/cache"
	"github.com/evanw/esbind/internal/cli_helpers"
	"github.com/evanw/esbind/internal/graph"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/linker"
	"github.com/evanw/esbind/internal/renamer"
)

func buildDump(result linker.Result, r renamer.Renamer, kind cli_helpers.DumpKind) *cache.Dump {
	files := make([]cache.FileDump, 0, len(result.Files))

	for _, file := range result.Files {
		fileDump := cache.FileDump{Path: file.InputFile.Source.PrettyPath}

		// JSON files don't have any symbols
		if repr, ok := file.InputFile.Repr.(*graph.JSRepr); ok {
			fileDump.Symbols = dumpSymbols(result.Symbols, r, file.InputFile.Source.Index)
			if kind == cli_helpers.DumpScopes && repr.AST.ModuleScope != nil {
				scope := dumpScope(repr.AST.ModuleScope)
				fileDump.Scope = &scope
			}
		}

		files = append(files, fileDump)
	}

	return cache.NewDump(files)
}

func dumpSymbols(symbols js_ast.SymbolMap, r renamer.Renamer, sourceIndex uint32) []cache.SymbolEntry {
	inner := symbols.Outer[sourceIndex]
	if len(inner) == 0 {
		return nil
	}
	entries := make([]cache.SymbolEntry, 0, len(inner)-1)

	// Skip the placeholder at inner index 0
	for i := 1; i < len(inner); i++ {
		ref := js_ast.Ref{OuterIndex: sourceIndex, InnerIndex: uint32(i)}
		symbol := &inner[i]
		entry := cache.SymbolEntry{
			Ref:              ref.String(),
			Name:             symbol.OriginalName,
			Kind:             symbol.Kind.String(),
			UseCount:         symbol.UseCountEstimate,
			MustNotBeRenamed: symbol.MustNotBeRenamed,
		}

		if canonical := js_ast.FollowSymbolsReadOnly(symbols, ref); canonical != ref {
			entry.Link = canonical.String()
		}
		if name := r.NameForSymbol(ref); name != symbol.OriginalName {
			entry.Renamed = name
		}
		if alias := symbol.NamespaceAlias; alias != nil {
			entry.NamespaceAlias = alias.NamespaceRef.String() + "." + alias.Alias
		}

		entries = append(entries, entry)
	}

	return entries
}

func dumpScope(scope *js_ast.Scope) cache.ScopeEntry {
	entry := cache.ScopeEntry{
		Kind:               scope.Kind.String(),
		ContainsDirectEval: scope.ContainsDirectEval,
	}

	if len(scope.Members) > 0 {
		entry.Members = make([]string, 0, len(scope.Members))
		for name := range scope.Members {
			entry.Members = append(entry.Members, name)
		}
		sort.Strings(entry.Members)
	}

	for _, child := range scope.Children {
		entry.Children = append(entry.Children, dumpScope(child))
	}
	return entry
}

func writeDump(stdout io.Writer, dump *cache.Dump, format cli_helpers.DumpFormat, out string) error {
	if format == cli_helpers.FormatMsgpack {
		if out != "" {
			return cache.WriteDumpFile(out, dump)
		}
		return cache.EncodeDump(stdout, dump)
	}

	var text []byte
	switch format {
	case cli_helpers.FormatJSON:
		bytes, err := json.MarshalIndent(dump, "", "  ")
		if err != nil {
			return fmt.Errorf("encode symbol dump: %w", err)
		}
		text = append(bytes, '\n')

	default:
		text = []byte(renderDumpText(dump))
	}

	if out == "" {
		_, err := stdout.Write(text)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	if err := os.WriteFile(out, text, 0o644); err != nil {
		return fmt.Errorf("write symbol dump: %w", err)
	}
	return nil
}

// The text form has one line per symbol followed by the scope tree:
//
//	entry.js
//	  0:1 x import uses=1 -> 1:1
//	  scope entry: x
//
func renderDumpText(dump *cache.Dump) string {
	sb := strings.Builder{}

	for _, file := range dump.Files {
		sb.WriteString(file.Path)
		sb.WriteByte('\n')

		for _, symbol := range file.Symbols {
			fmt.Fprintf(&sb, "  %s %s %s uses=%d", symbol.Ref, symbol.Name, symbol.Kind, symbol.UseCount)
			if symbol.Link != "" {
				sb.WriteString(" -> " + symbol.Link)
			}
			if symbol.Renamed != "" {
				sb.WriteString(" renamed=" + symbol.Renamed)
			}
			if symbol.NamespaceAlias != "" {
				sb.WriteString(" alias=" + symbol.NamespaceAlias)
			}
			if symbol.MustNotBeRenamed {
				sb.WriteString(" pinned")
			}
			sb.WriteByte('\n')
		}

		if file.Scope != nil {
			renderScopeText(&sb, file.Scope, 1)
		}
	}

	return sb.String()
}

func renderScopeText(sb *strings.Builder, scope *cache.ScopeEntry, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("scope " + scope.Kind)
	if len(scope.Members) > 0 {
		sb.WriteString(": " + strings.Join(scope.Members, ", "))
	}
	if scope.ContainsDirectEval {
		sb.WriteString(" (direct eval)")
	}
	sb.WriteByte('\n')

	for i := range scope.Children {
		renderScopeText(sb, &scope.Children[i], depth+1)
	}
}
