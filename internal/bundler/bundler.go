package bundler

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"github.com/evanw/esbind/internal/ast"
	"github.com/evanw/esbind/internal/cache"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/fs"
	"github.com/evanw/esbind/internal/graph"
	"github.com/evanw/esbind/internal/linker"
	"github.com/evanw/esbind/internal/logger"
)

type Bundle struct {
	fs          fs.FS
	files       []graph.InputFile
	entryPoints []uint32
}

// The files are in source index order
func (b *Bundle) Files() []graph.InputFile {
	return b.files
}

func (b *Bundle) EntryPoints() []uint32 {
	return b.entryPoints
}

// The order the extensions are tried in when an import path has none
var defaultExtensionOrder = []string{".ts", ".js", ".mjs", ".cjs", ".json"}

type scanner struct {
	log     logger.Log
	fs      fs.FS
	caches  *cache.CacheSet
	options config.Options

	// Files are appended in the order they are discovered, so this is also the
	// source index of each file
	files   []graph.InputFile
	visited map[string]uint32
}

func ScanFiles(ctx context.Context, log logger.Log, fs fs.FS, paths []string, options config.Options) (*Bundle, error) {
	return ScanFilesWithCache(ctx, log, fs, cache.MakeCacheSet(), paths, options)
}

// Parses the files at the given paths and every file they import. Each file
// gets the next source index when it's discovered. The input paths are
// discovered first in order, and then the imports of each wave of files in
// source index order, so the indices don't depend on which parse finishes
// first even though the parses within a wave run in parallel.
func ScanFilesWithCache(
	ctx context.Context,
	log logger.Log,
	fs fs.FS,
	caches *cache.CacheSet,
	paths []string,
	options config.Options,
) (*Bundle, error) {
	s := scanner{
		log:     log,
		fs:      fs,
		caches:  caches,
		options: options,
		visited: make(map[string]uint32),
	}

	entryPoints := []uint32{}
	for _, path := range paths {
		absPath, ok := fs.Abs(path)
		if !ok {
			return nil, fmt.Errorf("invalid path %q", path)
		}

		// Files without a loader are skipped. This lets a whole directory be
		// passed on the command line.
		if sourceIndex, ok := s.maybeAddFile(absPath, nil, logger.Range{}); ok {
			if !containsIndex(entryPoints, sourceIndex) {
				entryPoints = append(entryPoints, sourceIndex)
			}
		}
	}

	for start := 0; start < len(s.files); {
		end := len(s.files)
		if err := s.parseFiles(ctx, start, end); err != nil {
			return nil, err
		}
		for sourceIndex := start; sourceIndex < end; sourceIndex++ {
			s.resolveImports(&s.files[sourceIndex])
		}
		start = end
	}

	// A scan that was cancelled publishes nothing, even if every parse happened
	// to finish anyway
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Bundle{
		fs:          fs,
		files:       s.files,
		entryPoints: entryPoints,
	}, nil
}

func (b *Bundle) Link(log logger.Log) linker.Result {
	return linker.Link(log, b.files, b.entryPoints)
}

func containsIndex(indices []uint32, index uint32) bool {
	for _, i := range indices {
		if i == index {
			return true
		}
	}
	return false
}

func (s *scanner) maxWorkers() int {
	if s.options.MaxWorkers > 0 {
		return s.options.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// Each file in the range is written by exactly one goroutine and nothing
// appends to the file array until they have all finished
func (s *scanner) parseFiles(ctx context.Context, start int, end int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers())

	for sourceIndex := start; sourceIndex < end; sourceIndex++ {
		file := &s.files[sourceIndex]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.parseFile(file)
		})
	}

	return g.Wait()
}

func (s *scanner) parseFile(file *graph.InputFile) error {
	contents, err := s.caches.FSCache.ReadFile(s.fs, file.Source.KeyPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", file.Source.PrettyPath, err)
	}
	file.Source.Contents = contents

	switch file.Loader {
	case config.LoaderJSON:
		value, ok := s.caches.JSONCache.Parse(s.log, file.Source)
		file.Repr = &graph.JSONRepr{Value: value, OK: ok}

	case config.LoaderJS, config.LoaderTS:
		options := s.options
		options.TS.Parse = file.Loader == config.LoaderTS
		tree, ok := s.caches.JSCache.Parse(s.log, file.Source, options)
		if !ok {
			file.Repr = &graph.JSRepr{AST: graph.StubAST(), IsStub: true}
		} else {
			file.Repr = &graph.JSRepr{AST: tree}
		}

	default:
		panic("Internal error")
	}
	return nil
}

// Returns the source index for a file, allocating one and queueing the file
// for the next wave if it hasn't been seen before
func (s *scanner) maybeAddFile(absPath string, importSource *logger.Source, importRange logger.Range) (uint32, bool) {
	if sourceIndex, ok := s.visited[absPath]; ok {
		return sourceIndex, true
	}

	loader := s.options.LoaderForPath(absPath)
	if loader == config.LoaderNone {
		if importSource != nil {
			s.log.AddRangeError(*importSource, importRange,
				fmt.Sprintf("No loader is configured for %q files: %s", s.fs.Ext(absPath), s.prettyPath(absPath)))
		}
		return 0, false
	}

	sourceIndex, err := safecast.Conv[uint32](len(s.files))
	if err != nil {
		panic("Internal error: Too many files")
	}
	s.visited[absPath] = sourceIndex
	s.files = append(s.files, graph.InputFile{
		Source: logger.Source{
			Index:      sourceIndex,
			KeyPath:    absPath,
			PrettyPath: s.prettyPath(absPath),
		},
		Loader: loader,
	})
	return sourceIndex, true
}

func (s *scanner) prettyPath(absPath string) string {
	if rel, ok := s.fs.Rel(s.fs.Cwd(), absPath); ok && !strings.HasPrefix(rel, "..") {
		return strings.ReplaceAll(rel, "\\", "/")
	}
	return absPath
}

func (s *scanner) resolveImports(file *graph.InputFile) {
	records := file.Repr.ImportRecords()
	if records == nil || len(*records) == 0 {
		return
	}

	// The AST may be shared with the cache, so the resolved source indices
	// are written to a copy
	*records = append([]ast.ImportRecord{}, *records...)
	sourceDir := s.fs.Dir(file.Source.KeyPath)

	for i := range *records {
		record := &(*records)[i]

		// Package paths are left alone and treated as external
		if !isExplicitPath(record.Path) {
			continue
		}

		absPath, ok := s.resolve(sourceDir, record.Path)
		if !ok {
			s.log.AddRangeError(file.Source, record.Range, fmt.Sprintf("Could not resolve %q", record.Path))
			continue
		}

		if otherSourceIndex, ok := s.maybeAddFile(absPath, &file.Source, record.Range); ok {
			record.SourceIndex = ast.MakeIndex32(otherSourceIndex)
		}
	}
}

func isExplicitPath(path string) bool {
	return strings.HasPrefix(path, "/") || strings.HasPrefix(path, "./") ||
		strings.HasPrefix(path, "../") || path == "." || path == ".."
}

func (s *scanner) resolve(sourceDir string, importPath string) (string, bool) {
	var absPath string
	if strings.HasPrefix(importPath, "/") {
		absPath = s.fs.Join(importPath)
	} else {
		absPath = s.fs.Join(sourceDir, importPath)
	}

	if path, ok := s.loadAsFile(absPath); ok {
		return path, true
	}

	// Try "index" files if it's a directory
	for _, ext := range defaultExtensionOrder {
		if path, ok := s.loadAsFile(s.fs.Join(absPath, "index"+ext)); ok {
			return path, true
		}
	}

	return "", false
}

func (s *scanner) loadAsFile(path string) (string, bool) {
	entries := s.fs.ReadDirectory(s.fs.Dir(path))
	if entries == nil {
		return "", false
	}
	base := s.fs.Base(path)

	// Try the plain path without any extensions
	if entry, ok := entries[base]; ok && entry.Kind == fs.FileEntry {
		return path, true
	}

	// Try the path with extensions
	for _, ext := range defaultExtensionOrder {
		if entry, ok := entries[base+ext]; ok && entry.Kind == fs.FileEntry {
			return path + ext, true
		}
	}

	return "", false
}
