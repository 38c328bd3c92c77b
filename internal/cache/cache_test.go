package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/fs"
	"github.com/evanw/esbind/internal/logger"
	"github.com/evanw/esbind/internal/test"
)

func parseCaptured(c *JSCache, source logger.Source, options config.Options) (string, interface{}) {
	log, join := logger.NewDeferLog()
	ast, _ := c.Parse(log, source, options)
	text := ""
	for _, msg := range join() {
		text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
	}
	return text, ast.ModuleScope
}

func TestJSCacheReuse(t *testing.T) {
	caches := MakeCacheSet()
	source := test.SourceForTest("!a in b")
	options := config.Options{}
	warning := "<stdin>: warning: Suspicious use of the \"!\" operator inside the \"in\" operator\n"

	text1, scope1 := parseCaptured(&caches.JSCache, source, options)
	test.AssertEqual(t, text1, warning)
	test.AssertEqual(t, caches.JSCache.Hits(), 0)

	// Same contents and options: the AST is shared and the warning is replayed
	text2, scope2 := parseCaptured(&caches.JSCache, source, options)
	test.AssertEqual(t, text2, warning)
	test.AssertEqual(t, scope1 == scope2, true)
	test.AssertEqual(t, caches.JSCache.Hits(), 1)

	// Options the parser doesn't read don't matter
	options.MaxWorkers = 4
	_, scope3 := parseCaptured(&caches.JSCache, source, options)
	test.AssertEqual(t, scope1 == scope3, true)

	// Different options
	options.IsBundling = true
	_, scope4 := parseCaptured(&caches.JSCache, source, options)
	test.AssertEqual(t, scope1 == scope4, false)

	// Different contents
	source.Contents = "let x"
	text5, scope5 := parseCaptured(&caches.JSCache, source, options)
	test.AssertEqual(t, text5, "")
	test.AssertEqual(t, scope4 == scope5, false)
	test.AssertEqual(t, caches.JSCache.Hits(), 2)
}

func TestJSCacheMessagesInSourceOrder(t *testing.T) {
	caches := MakeCacheSet()
	source := test.SourceForTest("import {y} from 'm'\ny = 2\nlet a\nlet a\n")
	expected := "<stdin>: error: Cannot assign to import \"y\"\n" +
		"<stdin>: error: \"a\" has already been declared\n"

	text, _ := parseCaptured(&caches.JSCache, source, config.Options{})
	test.AssertEqual(t, text, expected)

	// The replayed messages keep the same order
	text, _ = parseCaptured(&caches.JSCache, source, config.Options{})
	test.AssertEqual(t, text, expected)
	test.AssertEqual(t, caches.JSCache.Hits(), 1)
}

func TestJSONCacheReuse(t *testing.T) {
	caches := MakeCacheSet()
	source := test.SourceForTest("{\"a\": 1, \"a\": 2}")

	text := test.CaptureLog(func(log logger.Log) {
		caches.JSONCache.Parse(log, source)
	})
	test.AssertEqual(t, text, "<stdin>: warning: Duplicate key: \"a\"\n")

	text = test.CaptureLog(func(log logger.Log) {
		_, ok := caches.JSONCache.Parse(log, source)
		test.AssertEqual(t, ok, true)
	})
	test.AssertEqual(t, text, "<stdin>: warning: Duplicate key: \"a\"\n")
}

func TestFSCache(t *testing.T) {
	caches := MakeCacheSet()

	before := fs.MockFS(map[string]string{"/a.js": "let a"})
	contents, err := caches.FSCache.ReadFile(before, "/a.js")
	test.AssertEqual(t, err, nil)
	test.AssertEqual(t, contents, "let a")

	// The mock has no modification keys, so edits are always seen
	after := fs.MockFS(map[string]string{"/a.js": "let b"})
	contents, err = caches.FSCache.ReadFile(after, "/a.js")
	test.AssertEqual(t, err, nil)
	test.AssertEqual(t, contents, "let b")

	if _, err := caches.FSCache.ReadFile(after, "/missing.js"); err == nil {
		t.Fatal("Unexpectedly found /missing.js")
	}

	caches.FSCache.Invalidate("/a.js")
	test.AssertEqual(t, len(caches.FSCache.entries), 0)
}

func TestDumpFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "symbols.mp")

	dump := NewDump([]FileDump{{
		Path: "entry.js",
		Symbols: []SymbolEntry{
			{Ref: "0:1", Name: "x", Kind: "hoisted", UseCount: 2},
			{Ref: "0:2", Name: "y", Kind: "import", Link: "1:1", NamespaceAlias: "0:3.y"},
		},
		Scope: &ScopeEntry{Kind: "entry", Members: []string{"x"}},
	}})

	if err := WriteDumpFile(path, dump); err != nil {
		t.Fatal(err)
	}

	// Only the final file is left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, len(entries), 1)
	test.AssertEqual(t, entries[0].Name(), "symbols.mp")

	read, err := ReadDumpFile(path)
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, len(read.Files), 1)
	test.AssertEqual(t, read.Files[0].Path, "entry.js")
	test.AssertEqual(t, read.Files[0].Symbols[1].Link, "1:1")
	test.AssertEqual(t, read.Files[0].Symbols[1].NamespaceAlias, "0:3.y")
	test.AssertEqual(t, read.Files[0].Scope.Members[0], "x")
}

func TestDumpSchema(t *testing.T) {
	buffer := bytes.Buffer{}
	dump := NewDump(nil)
	dump.Schema++
	if err := EncodeDump(&buffer, dump); err != nil {
		t.Fatal(err)
	}

	_, err := DecodeDump(&buffer)
	test.AssertEqual(t, errors.Is(err, ErrDumpSchema), true)

	if _, err := ReadDumpFile(filepath.Join(t.TempDir(), "missing.mp")); err == nil {
		t.Fatal("Unexpectedly read a missing dump")
	}
}
