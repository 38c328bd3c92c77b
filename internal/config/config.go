package config

import (
	"path"
	"strings"
)

type TSOptions struct {
	// Enables "enum" and "namespace" declarations and the way TypeScript
	// lets them merge with each other and with classes and functions
	Parse bool
}

type Platform uint8

const (
	PlatformBrowser Platform = iota
	PlatformNode
)

func (p Platform) String() string {
	switch p {
	case PlatformBrowser:
		return "browser"
	case PlatformNode:
		return "node"
	default:
		panic("Internal error")
	}
}

type Loader int

const (
	LoaderNone Loader = iota
	LoaderJS
	LoaderTS
	LoaderJSON
)

func (loader Loader) String() string {
	switch loader {
	case LoaderNone:
		return "none"
	case LoaderJS:
		return "js"
	case LoaderTS:
		return "ts"
	case LoaderJSON:
		return "json"
	default:
		panic("Internal error")
	}
}

var DefaultExtensionToLoader = map[string]Loader{
	".js":   LoaderJS,
	".mjs":  LoaderJS,
	".cjs":  LoaderJS,
	".ts":   LoaderTS,
	".json": LoaderJSON,
}

type Options struct {
	// true: "exports" and "module" are declared in every file so the linker
	// can tell which files use CommonJS features, and "require()" calls are
	// recorded as imports
	// false: files are bound on their own
	IsBundling bool

	TS       TSOptions
	Platform Platform

	// The number of files parsed at the same time. Zero means one per CPU.
	MaxWorkers int

	// Files with an extension missing from this map are skipped by the scan.
	// A nil map means DefaultExtensionToLoader.
	ExtensionToLoader map[string]Loader
}

// Returns the loader for a file path. TypeScript syntax is parsed for every
// file when the "TS.Parse" option is set, so a ".js" file gets LoaderTS too.
func (options *Options) LoaderForPath(filePath string) Loader {
	extensionToLoader := options.ExtensionToLoader
	if extensionToLoader == nil {
		extensionToLoader = DefaultExtensionToLoader
	}
	loader, ok := extensionToLoader[strings.ToLower(path.Ext(filePath))]
	if !ok {
		return LoaderNone
	}
	if loader == LoaderJS && options.TS.Parse {
		return LoaderTS
	}
	return loader
}

// Reports whether the parser would produce the same AST for the same file
// under both sets of options. Options that only the scan reads are ignored.
func (options *Options) ParseEqual(other *Options) bool {
	return options.IsBundling == other.IsBundling &&
		options.TS == other.TS &&
		options.Platform == other.Platform
}
