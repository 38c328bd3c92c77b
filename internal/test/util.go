package test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/evanw/esbind/internal/logger"
)

// Slices and maps are compared element by element. Values that print on more
// than one line are shown as a line diff.
func AssertEqual(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if !reflect.DeepEqual(a, b) {
		stringA := fmt.Sprintf("%v", a)
		stringB := fmt.Sprintf("%v", b)
		if strings.Contains(stringA, "\n") {
			t.Fatal(diff.Diff(stringB, stringA))
		} else {
			t.Fatalf("%s != %s", stringA, stringB)
		}
	}
}

func SourceForTest(contents string) logger.Source {
	return logger.Source{
		Index:      0,
		KeyPath:    "<stdin>",
		PrettyPath: "<stdin>",
		Contents:   contents,
	}
}

// Collects the messages written to a log while "run" executes, rendered the
// way they are printed without source context
func CaptureLog(run func(log logger.Log)) string {
	log, join := logger.NewDeferLog()
	run(log)
	text := ""
	for _, msg := range join() {
		text += msg.String(logger.StderrOptions{}, logger.TerminalInfo{})
	}
	return text
}
