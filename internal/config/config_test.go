package config

import (
	"testing"

	"github.com/evanw/esbind/internal/test"
)

func TestLoaderForPath(t *testing.T) {
	options := Options{}
	test.AssertEqual(t, options.LoaderForPath("/src/a.js"), LoaderJS)
	test.AssertEqual(t, options.LoaderForPath("/src/a.MJS"), LoaderJS)
	test.AssertEqual(t, options.LoaderForPath("/src/a.ts"), LoaderTS)
	test.AssertEqual(t, options.LoaderForPath("/src/data.json"), LoaderJSON)
	test.AssertEqual(t, options.LoaderForPath("/src/readme.md"), LoaderNone)
	test.AssertEqual(t, options.LoaderForPath("/src/Makefile"), LoaderNone)

	options.TS.Parse = true
	test.AssertEqual(t, options.LoaderForPath("/src/a.js"), LoaderTS)
	test.AssertEqual(t, options.LoaderForPath("/src/data.json"), LoaderJSON)

	options.ExtensionToLoader = map[string]Loader{".jsx": LoaderJS}
	test.AssertEqual(t, options.LoaderForPath("/src/a.jsx"), LoaderTS)
	test.AssertEqual(t, options.LoaderForPath("/src/a.js"), LoaderNone)
}

func TestStrings(t *testing.T) {
	test.AssertEqual(t, PlatformNode.String(), "node")
	test.AssertEqual(t, LoaderJSON.String(), "json")
}

func TestParseEqual(t *testing.T) {
	a := Options{IsBundling: true, MaxWorkers: 1}
	b := Options{IsBundling: true, MaxWorkers: 8, ExtensionToLoader: map[string]Loader{".js": LoaderJS}}
	test.AssertEqual(t, a.ParseEqual(&b), true)

	b.TS.Parse = true
	test.AssertEqual(t, a.ParseEqual(&b), false)

	b.TS.Parse = false
	b.Platform = PlatformNode
	test.AssertEqual(t, a.ParseEqual(&b), false)
}
