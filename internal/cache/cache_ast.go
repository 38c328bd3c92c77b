package cache

import (
	"sync"

	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/js_parser"
	"github.com/evanw/esbind/internal/logger"
)

// This cache intends to avoid unnecessarily re-parsing files in subsequent
// builds. For a given path, parsing can be avoided if the contents of the file
// and the options for the parser are the same as last time.
//
// This cache checks if the file contents have changed even though we have
// the ability to detect if a file has changed on the file system by reading
// its metadata. If the file contents are cached then they should be the same
// string, which makes the comparison trivial.
//
// Messages from the original parse are replayed on a cache hit so that a
// rebuild reports the same warnings as the first build.

////////////////////////////////////////////////////////////////////////////////
// JSON

type JSONCache struct {
	mutex   sync.Mutex
	entries map[string]*jsonCacheEntry
}

type jsonCacheEntry struct {
	source logger.Source
	expr   js_ast.Expr
	ok     bool
	msgs   []logger.Msg
}

func (c *JSONCache) Parse(log logger.Log, source logger.Source) (js_ast.Expr, bool) {
	// Check the cache
	entry := func() *jsonCacheEntry {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		return c.entries[source.KeyPath]
	}()

	// Cache hit
	if entry != nil && entry.source == source {
		for _, msg := range entry.msgs {
			log.AddMsg(msg)
		}
		return entry.expr, entry.ok
	}

	// Cache miss
	tempLog, join := logger.NewDeferLog()
	expr, ok := js_parser.ParseJSON(tempLog, source)
	msgs := join()
	logger.SortBySource(msgs)
	for _, msg := range msgs {
		log.AddMsg(msg)
	}

	// Create the cache entry
	entry = &jsonCacheEntry{
		source: source,
		expr:   expr,
		ok:     ok,
		msgs:   msgs,
	}

	// Save for next time
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[source.KeyPath] = entry
	return expr, ok
}

////////////////////////////////////////////////////////////////////////////////
// JS

type JSCache struct {
	mutex   sync.Mutex
	entries map[string]*jsCacheEntry

	// The number of parses that were skipped. Watch mode reports this.
	hits int
}

type jsCacheEntry struct {
	source  logger.Source
	options config.Options
	ast     js_ast.AST
	ok      bool
	msgs    []logger.Msg
}

func (c *JSCache) Parse(log logger.Log, source logger.Source, options config.Options) (js_ast.AST, bool) {
	// Check the cache
	entry := func() *jsCacheEntry {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		return c.entries[source.KeyPath]
	}()

	// Cache hit
	if entry != nil && entry.source == source && entry.options.ParseEqual(&options) {
		for _, msg := range entry.msgs {
			log.AddMsg(msg)
		}
		c.mutex.Lock()
		c.hits++
		c.mutex.Unlock()
		return entry.ast, entry.ok
	}

	// Cache miss
	tempLog, join := logger.NewDeferLog()
	ast, ok := js_parser.Parse(tempLog, source, options)
	msgs := join()
	logger.SortBySource(msgs)
	for _, msg := range msgs {
		log.AddMsg(msg)
	}

	// Create the cache entry
	entry = &jsCacheEntry{
		source:  source,
		options: options,
		ast:     ast,
		ok:      ok,
		msgs:    msgs,
	}

	// Save for next time
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[source.KeyPath] = entry
	return ast, ok
}

func (c *JSCache) Hits() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.hits
}
