package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evanw/esbind/internal/bundler"
	"github.com/evanw/esbind/internal/cache"
	"github.com/evanw/esbind/internal/cli_helpers"
	"github.com/evanw/esbind/internal/config"
	"github.com/evanw/esbind/internal/exitcode"
	"github.com/evanw/esbind/internal/fs"
	"github.com/evanw/esbind/internal/logger"
	"github.com/evanw/esbind/internal/renamer"
)

type bindFlags struct {
	ts         bool
	bundle     bool
	platform   string
	errorLimit int
	color      string
	workers    int
	configPath string
	dump       string
	format     string
	out        string
	watch      bool
	loaders    map[string]string
}

type bindOptions struct {
	entryPoints []string
	options     config.Options
	stderr      logger.StderrOptions
	dump        cli_helpers.DumpKind
	format      cli_helpers.DumpFormat
	out         string
	watch       bool
}

func newBindCommand(flags *bindFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bind [files...]",
		Short: "Parse, bind and link files and report binding errors",
		Long: `Parses every file given on the command line and every file they import,
then binds imports to exports across files. Directories are expanded to the
files directly inside them. Without arguments the entry points from
esbind.toml are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveBindOptions(cmd, *flags, args)
			if err != nil {
				return err
			}
			if opts.watch {
				return watchAndBind(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			_, err = runBind(cmd.Context(), opts, cache.MakeCacheSet(), cmd.OutOrStdout())
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.ts, "ts", false, "parse TypeScript syntax in every file")
	f.BoolVar(&flags.bundle, "bundle", false, "track CommonJS exports and require() calls")
	f.StringVar(&flags.platform, "platform", "browser", "platform target (browser|node)")
	f.IntVar(&flags.errorLimit, "error-limit", 10, "maximum error count or 0 to disable")
	f.StringVar(&flags.color, "color", "auto", "use color escapes in messages (auto|always|never)")
	f.IntVar(&flags.workers, "workers", 0, "maximum number of files parsed at once (0 means one per CPU)")
	f.StringVar(&flags.configPath, "config", "", "project file to read instead of ./"+projectFileName)
	f.StringVar(&flags.dump, "dump", "none", "what to print after binding (none|symbols|scopes)")
	f.StringVar(&flags.format, "format", "text", "format of the dump (text|json|msgpack)")
	f.StringVarP(&flags.out, "out", "o", "", "write the dump to this file instead of stdout")
	f.BoolVarP(&flags.watch, "watch", "w", false, "bind again whenever an input file changes")
	f.StringToStringVar(&flags.loaders, "loader", nil, "use a loader for a file extension (e.g. .es=js)")
	return cmd
}

// Flags that were set explicitly win over the project file, which wins over
// the flag defaults
func resolveBindOptions(cmd *cobra.Command, flags bindFlags, args []string) (bindOptions, error) {
	project, err := loadProjectFile(flags.configPath)
	if err != nil {
		return bindOptions{}, err
	}

	fromProject := func(flag string, key ...string) bool {
		return !cmd.Flags().Changed(flag) && project.isDefined(key...)
	}
	if project != nil {
		cfg := &project.Config
		if fromProject("ts", "ts") {
			flags.ts = cfg.TS
		}
		if fromProject("bundle", "bundle") {
			flags.bundle = cfg.Bundle
		}
		if fromProject("platform", "platform") {
			flags.platform = cfg.Platform
		}
		if fromProject("workers", "workers") {
			flags.workers = cfg.Workers
		}
		if fromProject("error-limit", "error-limit") {
			flags.errorLimit = cfg.ErrorLimit
		}
		if fromProject("color", "color") {
			flags.color = cfg.Color
		}
		if fromProject("dump", "dump", "kind") {
			flags.dump = cfg.Dump.Kind
		}
		if fromProject("format", "dump", "format") {
			flags.format = cfg.Dump.Format
		}
		if fromProject("out", "dump", "out") {
			flags.out = cfg.Dump.Out
		}

		// Loaders are merged per extension
		loaders := make(map[string]string, len(cfg.Loader)+len(flags.loaders))
		for ext, loader := range cfg.Loader {
			loaders[ext] = loader
		}
		for ext, loader := range flags.loaders {
			loaders[ext] = loader
		}
		flags.loaders = loaders

		if len(args) == 0 {
			args = cfg.EntryPoints
		}
	}

	if len(args) == 0 {
		return bindOptions{}, errors.New("no input files (pass some files or list entry-points in " + projectFileName + ")")
	}
	if flags.workers < 0 {
		return bindOptions{}, fmt.Errorf("invalid worker count %d", flags.workers)
	}

	opts := bindOptions{
		entryPoints: args,
		out:         flags.out,
		watch:       flags.watch,
		options: config.Options{
			IsBundling: flags.bundle,
			TS:         config.TSOptions{Parse: flags.ts},
			MaxWorkers: flags.workers,
		},
		stderr: logger.StderrOptions{
			IncludeSource: true,
			ErrorLimit:    flags.errorLimit,
		},
	}

	// These return a concrete pointer type, so they get their own variable
	// instead of reusing "err"
	platform, note := cli_helpers.ParsePlatform(flags.platform)
	if note != nil {
		return bindOptions{}, note
	}
	opts.options.Platform = platform

	color, note := cli_helpers.ParseColor(flags.color)
	if note != nil {
		return bindOptions{}, note
	}
	opts.stderr.Color = color

	kind, note := cli_helpers.ParseDumpKind(flags.dump)
	if note != nil {
		return bindOptions{}, note
	}
	opts.dump = kind

	format, note := cli_helpers.ParseDumpFormat(flags.format)
	if note != nil {
		return bindOptions{}, note
	}
	opts.format = format

	if len(flags.loaders) > 0 {
		loaders, note := cli_helpers.ParseLoaders(flags.loaders)
		if note != nil {
			return bindOptions{}, note
		}
		opts.options.ExtensionToLoader = loaders
	}

	return opts, nil
}

// Directories are replaced by the files directly inside them in sorted order.
// Anything else is passed through for the scan to report.
func expandPaths(fsys fs.FS, args []string) []string {
	paths := []string{}
	for _, arg := range args {
		if absPath, ok := fsys.Abs(arg); ok {
			if entries := fsys.ReadDirectory(absPath); entries != nil {
				for _, name := range fs.SortedFileNames(entries) {
					paths = append(paths, fsys.Join(absPath, name))
				}
				continue
			}
		}
		paths = append(paths, arg)
	}
	return paths
}

// Runs one scan, link and dump. The returned bundle is nil only if the scan
// itself failed, and watch mode uses it to pick the directories to watch.
func runBind(ctx context.Context, opts bindOptions, caches *cache.CacheSet, stdout io.Writer) (*bundler.Bundle, error) {
	// A new file system each time so directory listings are never stale
	fsys := fs.RealFS()
	paths := expandPaths(fsys, opts.entryPoints)

	log, join := logger.NewStderrLog(opts.stderr)
	bundle, err := bundler.ScanFilesWithCache(ctx, log, fsys, caches, paths, opts.options)
	if err != nil {
		join()
		return nil, err
	}

	// Linking files that failed to scan only adds noise to the messages
	if log.HasErrors() {
		counts := join()
		return bundle, exitcode.Reported(fmt.Errorf("bind failed with %s", counts.String()), 1)
	}

	result := bundle.Link(log)
	if counts := join(); counts.Errors > 0 {
		return bundle, exitcode.Reported(fmt.Errorf("bind failed with %s", counts.String()), 1)
	}

	if opts.dump == cli_helpers.DumpNone {
		return bundle, nil
	}
	r := renamer.RenameFiles(result.Symbols, result.Files, opts.options.MaxWorkers)
	dump := buildDump(result, r, opts.dump)
	return bundle, writeDump(stdout, dump, opts.format, opts.out)
}
