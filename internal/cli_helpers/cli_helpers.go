// This package contains internal CLI-related code that must be shared with
// other internal code outside of the CLI package.

package cli_helpers

import (
	"fmt"
	"strings"

	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/logger"
)

type ErrorWithNote struct {
	Text string
	Note string
}

func MakeErrorWithNote(text string, note string) *ErrorWithNote {
	return &ErrorWithNote{
		Text: text,
		Note: note,
	}
}

func (e *ErrorWithNote) Error() string {
	if e.Note == "" {
		return e.Text
	}
	return e.Text + " (" + e.Note + ")"
}

func ParseLoader(text string) (config.Loader, *ErrorWithNote) {
	switch text {
	case "js":
		return config.LoaderJS, nil
	case "json":
		return config.LoaderJSON, nil
	case "ts":
		return config.LoaderTS, nil
	default:
		return config.LoaderNone, MakeErrorWithNote(
			fmt.Sprintf("Invalid loader value: %q", text),
			"Valid values are \"js\", \"json\", or \"ts\".",
		)
	}
}

// Parses a map of "--loader:.ext=name" values on top of the default table.
// Extensions must start with a dot.
func ParseLoaders(values map[string]string) (map[string]config.Loader, *ErrorWithNote) {
	loaders := make(map[string]config.Loader, len(config.DefaultExtensionToLoader)+len(values))
	for ext, loader := range config.DefaultExtensionToLoader {
		loaders[ext] = loader
	}
	for ext, text := range values {
		if !strings.HasPrefix(ext, ".") {
			return nil, MakeErrorWithNote(
				fmt.Sprintf("Invalid file extension: %q", ext),
				fmt.Sprintf("Did you mean %q?", "."+ext),
			)
		}
		loader, err := ParseLoader(text)
		if err != nil {
			return nil, err
		}
		loaders[strings.ToLower(ext)] = loader
	}
	return loaders, nil
}

func ParseColor(text string) (logger.StderrColor, *ErrorWithNote) {
	switch text {
	case "", "auto":
		return logger.ColorIfTerminal, nil
	case "always", "true":
		return logger.ColorAlways, nil
	case "never", "false":
		return logger.ColorNever, nil
	default:
		return logger.ColorIfTerminal, MakeErrorWithNote(
			fmt.Sprintf("Invalid color value: %q", text),
			"Valid values are \"auto\", \"always\", or \"never\".",
		)
	}
}

func ParsePlatform(text string) (config.Platform, *ErrorWithNote) {
	switch text {
	case "", "browser":
		return config.PlatformBrowser, nil
	case "node":
		return config.PlatformNode, nil
	default:
		return config.PlatformBrowser, MakeErrorWithNote(
			fmt.Sprintf("Invalid platform value: %q", text),
			"Valid values are \"browser\" or \"node\".",
		)
	}
}

type DumpKind uint8

const (
	DumpNone DumpKind = iota
	DumpSymbols
	DumpScopes
)

func ParseDumpKind(text string) (DumpKind, *ErrorWithNote) {
	switch text {
	case "", "none":
		return DumpNone, nil
	case "symbols":
		return DumpSymbols, nil
	case "scopes":
		return DumpScopes, nil
	default:
		return DumpNone, MakeErrorWithNote(
			fmt.Sprintf("Invalid dump value: %q", text),
			"Valid values are \"none\", \"symbols\", or \"scopes\".",
		)
	}
}

type DumpFormat uint8

const (
	FormatText DumpFormat = iota
	FormatJSON
	FormatMsgpack
)

func ParseDumpFormat(text string) (DumpFormat, *ErrorWithNote) {
	switch text {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	default:
		return FormatText, MakeErrorWithNote(
			fmt.Sprintf("Invalid format value: %q", text),
			"Valid values are \"text\", \"json\", or \"msgpack\".",
		)
	}
}
