package logger

import (
	"bytes"
	"testing"
)

func assertEqual(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if a != b {
		t.Fatalf("%s != %s", a, b)
	}
}

func TestMsgCounts(t *testing.T) {
	assertEqual(t, MsgCounts{}.String(), "no errors")
	assertEqual(t, MsgCounts{Errors: 1}.String(), "1 error")
	assertEqual(t, MsgCounts{Errors: 3}.String(), "3 errors")
	assertEqual(t, MsgCounts{Warnings: 1}.String(), "1 warning")
	assertEqual(t, MsgCounts{Warnings: 2, Errors: 1}.String(), "2 warnings and 1 error")
}

func TestComputeLineAndColumn(t *testing.T) {
	line, column, start := ComputeLineAndColumn("ab\ncd\r\nef")
	assertEqual(t, line, 2)
	assertEqual(t, column, 2)
	assertEqual(t, start, 7)
}

func TestMsgString(t *testing.T) {
	source := Source{PrettyPath: "in.js", Contents: "let x = 1;\nlet x = 2;\n"}
	msg := Msg{Source: source, Start: 15, Length: 1, Text: "\"x\" has already been declared", Kind: Error}

	assertEqual(t, msg.String(StderrOptions{}, TerminalInfo{}),
		"in.js: error: \"x\" has already been declared\n")
	assertEqual(t, msg.String(StderrOptions{IncludeSource: true}, TerminalInfo{}),
		"in.js:2:4: error: \"x\" has already been declared\nlet x = 2;\n    ^\n")

	msg.Start = 11
	msg.Length = 3
	msg.Kind = Warning
	msg.Text = "Suspicious"
	assertEqual(t, msg.String(StderrOptions{IncludeSource: true}, TerminalInfo{}),
		"in.js:2:0: warning: Suspicious\nlet x = 2;\n~~~\n")

	noPath := Msg{Text: "Oops", Kind: Error}
	assertEqual(t, noPath.String(StderrOptions{IncludeSource: true}, TerminalInfo{}), "error: Oops\n")
}

func TestMsgStringTabsAndWideCharacters(t *testing.T) {
	source := Source{PrettyPath: "in.js", Contents: "\tlet 変数 = x"}
	msg := Msg{Source: source, Start: 5, Length: 6, Text: "Bad", Kind: Error}
	assertEqual(t, msg.String(StderrOptions{IncludeSource: true}, TerminalInfo{}),
		"in.js:1:5: error: Bad\n  let 変数 = x\n      ~~~~\n")
}

func TestDeferLog(t *testing.T) {
	log, join := NewDeferLog()
	source := Source{Index: 1, PrettyPath: "a.js", Contents: "x"}
	log.AddWarning(source, Loc{}, "first")
	assertEqual(t, log.HasErrors(), false)
	log.AddRangeError(source, Range{Len: 1}, "second")
	assertEqual(t, log.HasErrors(), true)

	msgs := join()
	assertEqual(t, len(msgs), 2)
	assertEqual(t, msgs[0].Text, "first")
	assertEqual(t, msgs[0].Kind, Warning)
	assertEqual(t, msgs[1].Text, "second")
	assertEqual(t, msgs[1].Length, int32(1))
}

func TestSortBySource(t *testing.T) {
	a := Source{KeyPath: "/a.js"}
	b := Source{KeyPath: "/b.js"}
	msgs := []Msg{
		{Source: b, Start: 1, Text: "b1"},
		{Source: a, Start: 9, Text: "a9"},
		{Source: a, Start: 2, Length: 3, Text: "a2-long"},
		{Source: a, Start: 2, Text: "a2-first"},
		{Source: a, Start: 2, Text: "a2-second"},
		{Source: b, Start: 0, Text: "b0"},
	}
	SortBySource(msgs)

	order := ""
	for _, msg := range msgs {
		order += msg.Text + " "
	}
	assertEqual(t, order, "a2-first a2-second a2-long a9 b0 b1 ")
}

func TestStderrLogErrorLimit(t *testing.T) {
	buffer := bytes.Buffer{}
	oldStderr, oldExit := stderr, exit
	stderr = &buffer
	exitCode := -1
	exit = func(code int) { exitCode = code }
	defer func() { stderr, exit = oldStderr, oldExit }()

	log, join := NewStderrLog(StderrOptions{ErrorLimit: 2, ExitWhenLimitIsHit: true, Color: ColorNever})
	for i := 0; i < 4; i++ {
		log.AddError(Source{}, Loc{}, "bad")
	}
	counts := join()

	assertEqual(t, counts.Errors, 4)
	assertEqual(t, exitCode, 1)
	assertEqual(t, buffer.String(),
		"error: bad\nerror: bad\n2 errors reached (disable error limit with --error-limit=0)\n4 errors\n")
}

func TestRangeOfString(t *testing.T) {
	source := Source{Contents: `import "a\"b" x`}
	r := source.RangeOfString(Loc{Start: 7})
	assertEqual(t, source.TextForRange(r), `"a\"b"`)
	assertEqual(t, source.RangeOfString(Loc{Start: 0}).Len, int32(0))
}
