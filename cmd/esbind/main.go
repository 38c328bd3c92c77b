package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evanw/esbind/internal/exitcode"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "esbind",
		Short: "Bind the symbols of JavaScript and TypeScript files",
		Long: `esbind parses JavaScript, TypeScript and JSON files, resolves every
identifier to a symbol, and links imports across files to the exports they
name. The result can be dumped as text, JSON or msgpack.`,
		Version: esbindVersion,

		// Binding errors are printed by the logger and other errors by main
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newBindCommand(&bindFlags{}))
	root.AddCommand(newVersionCommand())
	root.AddCommand(newDemoCommand())
	return root
}

func main() {
	// Watch mode runs until it's interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil && !exitcode.IsReported(err) {
		fmt.Fprintf(os.Stderr, "esbind: error: %s\n", err)
	}
	exitcode.Exit(err)
}
