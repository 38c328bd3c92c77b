package cli_helpers

import (
	"testing"

	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/logger"
	"github.com/evanw/esbind/internal/test"
)

func TestParseLoaders(t *testing.T) {
	loaders, err := ParseLoaders(map[string]string{".ES": "js", ".jsonc": "json"})
	if err != nil {
		t.Fatal(err.Error())
	}
	test.AssertEqual(t, loaders[".es"], config.LoaderJS)
	test.AssertEqual(t, loaders[".jsonc"], config.LoaderJSON)
	test.AssertEqual(t, loaders[".ts"], config.LoaderTS)

	// The default table is copied, not changed
	_, ok := config.DefaultExtensionToLoader[".es"]
	test.AssertEqual(t, ok, false)

	_, err = ParseLoaders(map[string]string{"es": "js"})
	test.AssertEqual(t, err.Error(), "Invalid file extension: \"es\" (Did you mean \".es\"?)")

	_, err = ParseLoaders(map[string]string{".es": "jsx"})
	test.AssertEqual(t, err.Text, "Invalid loader value: \"jsx\"")
}

func TestParseFlagValues(t *testing.T) {
	color, err := ParseColor("never")
	test.AssertEqual(t, err == nil, true)
	test.AssertEqual(t, color, logger.ColorNever)

	color, err = ParseColor("")
	test.AssertEqual(t, err == nil, true)
	test.AssertEqual(t, color, logger.ColorIfTerminal)

	_, err = ParseColor("sometimes")
	test.AssertEqual(t, err.Note, "Valid values are \"auto\", \"always\", or \"never\".")

	platform, err := ParsePlatform("node")
	test.AssertEqual(t, err == nil, true)
	test.AssertEqual(t, platform, config.PlatformNode)

	kind, err := ParseDumpKind("scopes")
	test.AssertEqual(t, err == nil, true)
	test.AssertEqual(t, kind, DumpScopes)

	format, err := ParseDumpFormat("msgpack")
	test.AssertEqual(t, err == nil, true)
	test.AssertEqual(t, format, FormatMsgpack)

	_, err = ParseDumpFormat("yaml")
	test.AssertEqual(t, err.Text, "Invalid format value: \"yaml\"")
}
