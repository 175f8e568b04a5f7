package errors

import (
	"fmt"
	"strings"
)

// Spanned is implemented by errors that can locate themselves in source
// text via a Span.
type Spanned interface {
	error
	spanOf() Span
}

func (e *TableNotFoundError) spanOf() Span          { return e.Span }
func (e *AlreadyExistsError) spanOf() Span          { return e.Span }
func (e *UndefinedError) spanOf() Span              { return e.Span }
func (e *AmbiguousReferenceError) spanOf() Span     { return e.Span }
func (e *MismatchingTypesError) spanOf() Span       { return e.Span }
func (e *InvalidTypeError) spanOf() Span            { return e.Span }
func (e *InvalidCountError) spanOf() Span           { return e.Span }
func (e *ParseError) spanOf() Span                  { return e.Span }

// Render produces a human-readable, line-and-caret-annotated message for
// err against the original input text it was parsed from. Errors without a
// usable span (zero-width, or plain errors not implementing Spanned) fall
// back to err.Error() alone.
func Render(input string, err error) string {
	sp, ok := err.(Spanned)
	if !ok {
		return err.Error()
	}
	span := sp.spanOf()
	if span.Start >= span.End || span.End > len(input) {
		return err.Error()
	}
	return fmtErrorMessage(input, span, err.Error())
}

// fmtErrorMessage renders a single-line caret block under the source line
// containing span, with the message centered beneath the underline.
func fmtErrorMessage(input string, span Span, message string) string {
	lineStart, lineEnd, lineNo := lineBounds(input, span.Start)
	if span.End > lineEnd {
		// Multi-line span: no good way to underline a single line, so just
		// point at the line the span starts on.
		span.End = lineEnd
	}
	line := input[lineStart:lineEnd]

	var b strings.Builder
	fmt.Fprintf(&b, "    --> ERROR\n")
	fmt.Fprintf(&b, "     |\n")
	fmt.Fprintf(&b, "%4d | %s\n", lineNo+1, line)
	b.WriteString("     | ")

	offset := span.Start - lineStart
	length := span.End - span.Start
	b.WriteString(strings.Repeat(" ", offset))
	b.WriteString(strings.Repeat("^", length))
	b.WriteByte('\n')

	msgOffset := offset + length/2 - len(message)/2
	if msgOffset < 0 {
		msgOffset = 0
	}
	b.WriteString("     * ")
	b.WriteString(strings.Repeat(" ", msgOffset))
	b.WriteString(message)
	b.WriteByte('\n')

	return b.String()
}

// lineBounds finds the [start, end) byte range of the line containing pos,
// along with its zero-based line number.
func lineBounds(input string, pos int) (start, end, lineNo int) {
	start = 0
	for i := 0; i < pos && i < len(input); i++ {
		if input[i] == '\n' {
			start = i + 1
			lineNo++
		}
	}
	end = len(input)
	if idx := strings.IndexByte(input[start:], '\n'); idx >= 0 {
		end = start + idx
	}
	return start, end, lineNo
}
