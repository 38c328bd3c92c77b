package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evanw/esbind/internal/helpers"
	"github.com/evanw/esbind/internal/js_ast"
	"github.com/evanw/esbind/internal/logger"
)

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Print an empty message count, the terminal width and a comma expression",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runDemo(cmd.OutOrStdout(), logger.GetTerminalInfo(os.Stdout))
		},
	}
}

func runDemo(w io.Writer, terminalInfo logger.TerminalInfo) {
	fmt.Fprintln(w, logger.MsgCounts{}.String())

	if terminalInfo.IsTTY && terminalInfo.Width > 0 {
		fmt.Fprintf(w, "%d columns\n", terminalInfo.Width)
	} else {
		fmt.Fprintln(w, "no terminal size")
	}

	expr := js_ast.JoinAllWithComma([]js_ast.Expr{
		{Loc: logger.Loc{Start: 0}, Data: &js_ast.ENull{}},
		{Loc: logger.Loc{Start: 1}, Data: &js_ast.EString{Value: []uint16{1, 2}}},
	})
	if expr.Data == nil {
		fmt.Fprintln(w, "no expr")
	} else {
		fmt.Fprintf(w, "%s at %d\n", describeExpr(expr), expr.Loc.Start)
	}
}

func describeExpr(expr js_ast.Expr) string {
	switch e := expr.Data.(type) {
	case *js_ast.ENull:
		return "null"

	case *js_ast.EString:
		return strconv.Quote(helpers.UTF16ToString(e.Value))

	case *js_ast.EBinary:
		if e.Op == js_ast.BinOpComma {
			return fmt.Sprintf("(%s, %s)", describeExpr(e.Left), describeExpr(e.Right))
		}
	}
	return fmt.Sprintf("%T", expr.Data)
}
