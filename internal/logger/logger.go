package logger

// Logging is designed to look and feel like clang's error format. Messages
// are streamed asynchronously through a buffered channel as they happen so
// that reporting a problem never blocks the binder. Each message contains
// the contents of the line with the problem, and the error count is limited
// by default.

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-runewidth"
)

// This is large enough that parsing and binding never wait on the sink
// under normal operation.
const MsgBufferSize = 1024

type Log struct {
	msgs   chan Msg
	errors *int32
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		panic("Internal error")
	}
}

type Msg struct {
	Source Source
	Start  int32
	Length int32
	Text   string
	Kind   MsgKind
}

// Orders messages by file and then by position within the file. Use it with
// "sort.Stable" so messages at the same position keep the order they were
// logged in.
type SortableMsgs []Msg

func (a SortableMsgs) Len() int          { return len(a) }
func (a SortableMsgs) Swap(i int, j int) { a[i], a[j] = a[j], a[i] }

func (a SortableMsgs) Less(i int, j int) bool {
	ai := a[i]
	aj := a[j]
	if ai.Source.KeyPath != aj.Source.KeyPath {
		return ai.Source.KeyPath < aj.Source.KeyPath
	}
	if ai.Start != aj.Start {
		return ai.Start < aj.Start
	}
	return ai.Length < aj.Length
}

// The parser reports declaration errors in its first pass and binding errors
// in its second, so a file's messages are sorted before anyone sees them
func SortBySource(msgs []Msg) {
	sort.Stable(SortableMsgs(msgs))
}

type Loc struct {
	// This is the 0-based index of this location from the start of the file, in bytes
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

type Source struct {
	// This is the global outer index of the symbols for this file
	Index uint32

	// This is used as a unique key to identify this source file. It should
	// never be shown to the user (e.g. never print this to the terminal).
	KeyPath string

	// This is used for error messages and the metadata JSON file.
	PrettyPath string

	Contents string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start : r.Loc.Start+r.Len]
}

func (s *Source) RangeOfString(loc Loc) Range {
	text := s.Contents[loc.Start:]
	if len(text) == 0 {
		return Range{Loc: loc, Len: 0}
	}

	quote := text[0]
	if quote == '"' || quote == '\'' || quote == '`' {
		// Search for the matching quote character
		for i := 1; i < len(text); i++ {
			c := text[i]
			if c == quote {
				return Range{Loc: loc, Len: int32(i + 1)}
			} else if c == '\\' {
				i += 1
			}
		}
	}

	return Range{Loc: loc, Len: 0}
}

func NewLog(msgs chan Msg) Log {
	return Log{msgs: msgs, errors: new(int32)}
}

// This is safe to call from any goroutine. It reflects every error that has
// been added so far, even ones the sink has not rendered yet.
func (log Log) HasErrors() bool {
	return atomic.LoadInt32(log.errors) > 0
}

func (log Log) AddMsg(msg Msg) {
	if msg.Kind == Error {
		atomic.AddInt32(log.errors, 1)
	}
	log.msgs <- msg
}

func (log Log) AddError(source Source, loc Loc, text string) {
	log.AddMsg(Msg{Source: source, Start: loc.Start, Text: text, Kind: Error})
}

func (log Log) AddWarning(source Source, loc Loc, text string) {
	log.AddMsg(Msg{Source: source, Start: loc.Start, Text: text, Kind: Warning})
}

func (log Log) AddRangeError(source Source, r Range, text string) {
	log.AddMsg(Msg{Source: source, Start: r.Loc.Start, Length: r.Len, Text: text, Kind: Error})
}

func (log Log) AddRangeWarning(source Source, r Range, text string) {
	log.AddMsg(Msg{Source: source, Start: r.Loc.Start, Length: r.Len, Text: text, Kind: Warning})
}

type MsgCounts struct {
	Errors   int
	Warnings int
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func (counts MsgCounts) String() string {
	if counts.Errors == 0 {
		if counts.Warnings == 0 {
			return "no errors"
		}
		return plural("warning", counts.Warnings)
	}
	if counts.Warnings == 0 {
		return plural("error", counts.Errors)
	}
	return fmt.Sprintf("%s and %s",
		plural("warning", counts.Warnings),
		plural("error", counts.Errors))
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type StderrOptions struct {
	IncludeSource      bool
	ErrorLimit         int
	ExitWhenLimitIsHit bool
	Color              StderrColor
}

// Tests replace these to observe the sink without touching the process.
var stderr io.Writer = os.Stderr
var exit = os.Exit

func NewStderrLog(options StderrOptions) (Log, func() MsgCounts) {
	msgs := make(chan Msg, MsgBufferSize)
	done := make(chan MsgCounts)
	log := NewLog(msgs)
	terminalInfo := GetTerminalInfo(os.Stderr)

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	go func(msgs chan Msg, done chan MsgCounts) {
		counts := MsgCounts{}
		limitWasHit := false
		for msg := range msgs {
			switch msg.Kind {
			case Error:
				counts.Errors++
			case Warning:
				counts.Warnings++
			}
			if limitWasHit {
				continue
			}
			io.WriteString(stderr, msg.String(options, terminalInfo))
			if options.ErrorLimit != 0 && counts.Errors >= options.ErrorLimit {
				limitWasHit = true
				fmt.Fprintf(stderr, "%s reached (disable error limit with --error-limit=0)\n", counts.String())
				if options.ExitWhenLimitIsHit {
					exit(1)
				}
			}
		}
		done <- counts
	}(msgs, done)

	return log, func() MsgCounts {
		close(log.msgs)
		counts := <-done
		if counts.Warnings != 0 || counts.Errors != 0 {
			fmt.Fprintf(stderr, "%s\n", counts.String())
		}
		return counts
	}
}

func NewDeferLog() (Log, func() []Msg) {
	msgs := make(chan Msg, MsgBufferSize)
	done := make(chan []Msg)
	log := NewLog(msgs)

	go func(msgs chan Msg, done chan []Msg) {
		result := []Msg{}
		for msg := range msgs {
			result = append(result, msg)
		}
		done <- result
	}(msgs, done)

	return log, func() []Msg {
		close(log.msgs)
		return <-done
	}
}

const colorReset = "\033[0m"
const colorRed = "\033[31m"
const colorGreen = "\033[32m"
const colorMagenta = "\033[35m"
const colorBold = "\033[1m"
const colorResetBold = "\033[0;1m"

func (msg Msg) String(options StderrOptions, terminalInfo TerminalInfo) string {
	kind := msg.Kind.String()
	kindColor := colorRed

	if msg.Kind == Warning {
		kindColor = colorMagenta
	}

	if msg.Source.PrettyPath == "" {
		if terminalInfo.UseColorEscapes {
			return fmt.Sprintf("%s%s%s: %s%s%s\n",
				colorBold, kindColor, kind,
				colorResetBold, msg.Text,
				colorReset)
		}

		return fmt.Sprintf("%s: %s\n", kind, msg.Text)
	}

	if !options.IncludeSource {
		if terminalInfo.UseColorEscapes {
			return fmt.Sprintf("%s%s: %s%s: %s%s%s\n",
				colorBold, msg.Source.PrettyPath,
				kindColor, kind,
				colorResetBold, msg.Text,
				colorReset)
		}

		return fmt.Sprintf("%s: %s: %s\n", msg.Source.PrettyPath, kind, msg.Text)
	}

	d := detailStruct(msg, terminalInfo)

	if terminalInfo.UseColorEscapes {
		return fmt.Sprintf("%s%s:%d:%d: %s%s: %s%s\n%s%s%s%s%s%s\n%s%s%s%s\n",
			colorBold, d.Path,
			d.Line,
			d.Column,
			kindColor, d.Kind,
			colorResetBold, d.Message,
			colorReset, d.SourceBefore, colorGreen, d.SourceMarked, colorReset, d.SourceAfter,
			colorGreen, d.Indent, d.Marker,
			colorReset)
	}

	return fmt.Sprintf("%s:%d:%d: %s: %s\n%s\n%s%s\n",
		d.Path, d.Line, d.Column, d.Kind, d.Message, d.Source, d.Indent, d.Marker)
}

type MsgDetail struct {
	Path    string
	Line    int
	Column  int
	Kind    string
	Message string

	// Source == SourceBefore + SourceMarked + SourceAfter
	Source       string
	SourceBefore string
	SourceMarked string
	SourceAfter  string

	Indent string
	Marker string
}

func ComputeLineAndColumn(text string) (lineCount int, columnCount, lastLineStart int) {
	var prevCodePoint rune

	for i, codePoint := range text {
		switch codePoint {
		case '\n':
			lastLineStart = i + 1
			if prevCodePoint != '\r' {
				lineCount++
			}
		case '\r':
			lastLineStart = i + 1
			lineCount++
		case '\u2028', '\u2029':
			lastLineStart = i + 3 // These take three bytes to encode in UTF-8
			lineCount++
		}
		prevCodePoint = codePoint
	}

	columnCount = len(text) - lastLineStart
	return
}

func detailStruct(msg Msg, terminalInfo TerminalInfo) MsgDetail {
	contents := msg.Source.Contents
	lineCount, columnCount, lineStart := ComputeLineAndColumn(contents[0:msg.Start])
	lineEnd := len(contents)

loop:
	for i, codePoint := range contents[lineStart:] {
		switch codePoint {
		case '\r', '\n', '\u2028', '\u2029':
			lineEnd = lineStart + i
			break loop
		}
	}

	spacesPerTab := 2
	lineText := renderTabStops(contents[lineStart:lineEnd], spacesPerTab)
	markerStart := len(renderTabStops(contents[lineStart:msg.Start], spacesPerTab))
	markerEnd := markerStart

	// Extend markers to cover the full range of the error
	if msg.Length > 0 {
		end := int(msg.Start + msg.Length)
		if end > lineEnd {
			end = lineEnd
		}
		markerEnd = len(renderTabStops(contents[lineStart:end], spacesPerTab))
	}

	// Clip the marker to the bounds of the line
	if markerStart > len(lineText) {
		markerStart = len(lineText)
	}
	if markerEnd > len(lineText) {
		markerEnd = len(lineText)
	}
	if markerEnd < markerStart {
		markerEnd = markerStart
	}

	// Trim the line to fit the terminal width
	if terminalInfo.Width > 0 && len(lineText) > terminalInfo.Width {
		// Try to center the error
		sliceStart := (markerStart + markerEnd - terminalInfo.Width) / 2
		if sliceStart > markerStart-terminalInfo.Width/5 {
			sliceStart = markerStart - terminalInfo.Width/5
		}
		if sliceStart < 0 {
			sliceStart = 0
		}
		if sliceStart > len(lineText)-terminalInfo.Width {
			sliceStart = len(lineText) - terminalInfo.Width
		}
		sliceEnd := sliceStart + terminalInfo.Width

		// Slice the line
		slicedLine := lineText[sliceStart:sliceEnd]
		markerStart -= sliceStart
		markerEnd -= sliceStart
		if markerStart < 0 {
			markerStart = 0
		}
		if markerEnd > len(slicedLine) {
			markerEnd = len(slicedLine)
		}

		// Truncate the ends with "..."
		if len(slicedLine) > 3 && sliceStart > 0 {
			slicedLine = "..." + slicedLine[3:]
			if markerStart < 3 {
				markerStart = 3
			}
		}
		if len(slicedLine) > 3 && sliceEnd < len(lineText) {
			slicedLine = slicedLine[:len(slicedLine)-3] + "..."
			if markerEnd > len(slicedLine)-3 {
				markerEnd = len(slicedLine) - 3
			}
			if markerEnd < markerStart {
				markerEnd = markerStart
			}
		}

		lineText = slicedLine
	}

	// The indent and marker are measured in terminal columns, not bytes, so
	// they still line up under wide or multi-byte characters
	indent := strings.Repeat(" ", runewidth.StringWidth(lineText[:markerStart]))
	marker := "^"
	if width := runewidth.StringWidth(lineText[markerStart:markerEnd]); width > 1 {
		marker = strings.Repeat("~", width)
	}

	return MsgDetail{
		Path:    msg.Source.PrettyPath,
		Line:    lineCount + 1,
		Column:  columnCount,
		Kind:    msg.Kind.String(),
		Message: msg.Text,

		Source:       lineText,
		SourceBefore: lineText[:markerStart],
		SourceMarked: lineText[markerStart:markerEnd],
		SourceAfter:  lineText[markerEnd:],

		Indent: indent,
		Marker: marker,
	}
}

func renderTabStops(withTabs string, spacesPerTab int) string {
	if !strings.ContainsRune(withTabs, '\t') {
		return withTabs
	}

	withoutTabs := strings.Builder{}
	count := 0

	for _, c := range withTabs {
		if c == '\t' {
			spaces := spacesPerTab - count%spacesPerTab
			for i := 0; i < spaces; i++ {
				withoutTabs.WriteRune(' ')
				count++
			}
		} else {
			withoutTabs.WriteRune(c)
			count++
		}
	}

	return withoutTabs.String()
}
