package graph

import (
	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/js_ast"
)

type EntryPointKind uint8

const (
	EntryPointNone EntryPointKind = iota
	EntryPointUserSpecified
	EntryPointDynamicImport
)

type LinkerFile struct {
	InputFile InputFile

	// This file is an entry point if and only if this is not "EntryPointNone".
	// Note that dynamically-imported files are allowed to also be specified by
	// the user as top-level entry points, so some dynamically-imported files
	// may be "EntryPointUserSpecified" instead of "EntryPointDynamicImport".
	EntryPointKind EntryPointKind
}

func (f *LinkerFile) IsEntryPoint() bool {
	return f.EntryPointKind != EntryPointNone
}

type LinkerGraph struct {
	Files   []LinkerFile
	Symbols js_ast.SymbolMap
}

// The input files are shared with the cache and with other links of the same
// scan, so everything the linker writes to is cloned here first
func MakeLinkerGraph(inputFiles []InputFile, entryPoints []uint32) LinkerGraph {
	symbols := js_ast.NewSymbolMap(len(inputFiles))
	files := make([]LinkerFile, len(inputFiles))

	for sourceIndex, inputFile := range inputFiles {
		file := LinkerFile{
			InputFile: inputFile,
		}

		switch repr := file.InputFile.Repr.(type) {
		case *JSRepr:
			// Clone the representation
			{
				clone := *repr
				repr = &clone
				file.InputFile.Repr = repr
			}

			// Clone the symbol map
			fileSymbols := append([]js_ast.Symbol{}, repr.AST.Symbols...)
			symbols.SetSourceSymbols(inputFile.Source.Index, fileSymbols)
			repr.AST.Symbols = nil

			// Clone the import records
			repr.AST.ImportRecords = append([]ast.ImportRecord{}, repr.AST.ImportRecords...)

			// Clone the export map
			resolvedExports := make(map[string]ExportData, len(repr.AST.NamedExports))
			for alias, name := range repr.AST.NamedExports {
				resolvedExports[alias] = ExportData{
					Ref:         name.Ref,
					SourceIndex: inputFile.Source.Index,
					NameLoc:     name.AliasLoc,
				}
			}

			// Also associate some default metadata with the file
			repr.Meta = JSReprMeta{
				ResolvedExports: resolvedExports,
				ImportsToBind:   make(map[js_ast.Ref]ImportData),
			}
			if repr.AST.HasCommonJSFeatures() {
				repr.Meta.Wrap = WrapCJS
			}

		case *JSONRepr:
			// Reserve the outer slot so every source index has one
			symbols.SetSourceSymbols(inputFile.Source.Index, []js_ast.Symbol{js_ast.PlaceholderSymbol()})
		}

		files[sourceIndex] = file
	}

	for _, sourceIndex := range entryPoints {
		files[sourceIndex].EntryPointKind = EntryPointUserSpecified
	}

	return LinkerGraph{
		Symbols: symbols,
		Files:   files,
	}
}
