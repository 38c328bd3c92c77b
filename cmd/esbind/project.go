package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const projectFileName = "esbind.toml"

// The settings in "esbind.toml". Every key has a matching flag on the "bind"
// command, and a flag that was set on the command line wins over the file.
type projectConfig struct {
	EntryPoints []string          `toml:"entry-points"`
	TS          bool              `toml:"ts"`
	Bundle      bool              `toml:"bundle"`
	Platform    string            `toml:"platform"`
	Workers     int               `toml:"workers"`
	ErrorLimit  int               `toml:"error-limit"`
	Color       string            `toml:"color"`
	Loader      map[string]string `toml:"loader"`
	Dump        dumpConfig        `toml:"dump"`
}

type dumpConfig struct {
	Kind   string `toml:"kind"`
	Format string `toml:"format"`
	Out    string `toml:"out"`
}

type projectFile struct {
	Path   string
	Config projectConfig
	Meta   toml.MetaData
}

// Returns nil without an error if "path" is empty and there is no project
// file in the current directory. A path given on the command line must exist.
func loadProjectFile(path string) (*projectFile, error) {
	explicit := path != ""
	if !explicit {
		path = projectFileName
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = fmt.Sprintf("%q", key.String())
		}
		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	// Entry points are relative to the directory containing the file
	dir := filepath.Dir(path)
	for i, entry := range cfg.EntryPoints {
		if !filepath.IsAbs(entry) {
			cfg.EntryPoints[i] = filepath.Join(dir, filepath.FromSlash(entry))
		}
	}
	if cfg.Dump.Out != "" && !filepath.IsAbs(cfg.Dump.Out) {
		cfg.Dump.Out = filepath.Join(dir, filepath.FromSlash(cfg.Dump.Out))
	}

	return &projectFile{Path: path, Config: cfg, Meta: meta}, nil
}

func (p *projectFile) isDefined(key ...string) bool {
	return p != nil && p.Meta.IsDefined(key...)
}
