package textedit

import (
	"fmt"
	"regexp"
	"strings"
)

// Operation identifies one of the seven structural edits.
type Operation int

const (
	OpReplace Operation = iota
	OpDelete
	OpAppend
	OpInsertBefore
	OpInsertAfter
	OpBlockReplace
	OpBlockDelete
)

var operationNames = map[Operation]string{
	OpReplace:      "replace",
	OpDelete:       "delete",
	OpAppend:       "append",
	OpInsertBefore: "insert_before",
	OpInsertAfter:  "insert_after",
	OpBlockReplace: "block_replace",
	OpBlockDelete:  "block_delete",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// ParseOperation maps a wire-level operation name to its Operation. ok is
// false for unrecognized names.
func ParseOperation(name string) (Operation, bool) {
	for op, n := range operationNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

// Op is the parameter bundle for a single edit.
type Op struct {
	Operation Operation

	// Content is the replacement or inserted text. Group references in
	// replace content use Python-style \1 syntax.
	Content string

	// Pattern anchors replace, delete and insert operations.
	Pattern string

	// StartPattern and EndPattern delimit block operations.
	StartPattern string
	EndPattern   string

	// InheritIndent copies the anchor line's leading whitespace onto inserted
	// content. On by default via NewOp.
	InheritIndent bool

	// Flags holds regex flag names: IGNORECASE, MULTILINE, DOTALL, VERBOSE.
	Flags []string
}

// NewOp returns an Op with defaults applied (indentation inheritance on).
func NewOp(operation Operation) Op {
	return Op{Operation: operation, InheritIndent: true}
}

// Result is the outcome of an edit. When OK is false NewContent is always
// nil and the input document is untouched.
type Result struct {
	OK         bool
	Message    string
	NewContent *string
}

func failure(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

func success(op Operation, content string) Result {
	return Result{
		OK:         true,
		Message:    fmt.Sprintf("Successfully performed %s operation", op),
		NewContent: &content,
	}
}

// Apply runs op against original and returns the edit outcome. It never
// touches the filesystem; EditFile layers file I/O and the corruption guard
// on top.
func Apply(original string, op Op) Result {
	eol := DetectEOL(original)
	lines := SplitLines(original)

	switch op.Operation {
	case OpReplace:
		return applyReplace(lines, op, eol)
	case OpDelete:
		return applyDelete(lines, op)
	case OpAppend:
		return applyAppend(lines, op, eol)
	case OpInsertBefore, OpInsertAfter:
		return applyInsert(lines, op, eol)
	case OpBlockReplace, OpBlockDelete:
		return applyBlock(lines, op, eol)
	default:
		return failure("Unknown operation: %s", op.Operation)
	}
}

// anchorLine finds the single line required by replace and insert operations,
// enforcing the exactly-one-match rule.
func anchorLine(lines []string, op Op) (int, *Result) {
	matches := matchLines(lines, compilePattern(op.Pattern, op.Flags))
	if len(matches) == 0 {
		r := failure("Pattern '%s' not found in file", op.Pattern)
		return 0, &r
	}
	if len(matches) > 1 {
		r := failure("Pattern '%s' found %d times, expected exactly one match",
			op.Pattern, len(matches))
		return 0, &r
	}
	return matches[0], nil
}

func applyReplace(lines []string, op Op, eol string) Result {
	if op.Pattern == "" {
		return failure("Pattern is required for replace operation")
	}
	idx, fail := anchorLine(lines, op)
	if fail != nil {
		return *fail
	}

	re := compilePattern(op.Pattern, op.Flags)
	replaced := re.ReplaceAllString(TrimEOL(lines[idx]), expandReplacement(op.Content))
	replaced = normalizeEOL(replaced, eol)
	if replaced != "" && !strings.HasSuffix(replaced, eol) {
		replaced += eol
	}

	out := make([]string, len(lines))
	copy(out, lines)
	out[idx] = replaced
	return success(op.Operation, strings.Join(out, ""))
}

func applyDelete(lines []string, op Op) Result {
	if op.Pattern == "" {
		return failure("Pattern is required for delete operation")
	}
	matches := matchLines(lines, compilePattern(op.Pattern, op.Flags))
	if len(matches) == 0 {
		return failure("Pattern '%s' not found in file", op.Pattern)
	}

	drop := make(map[int]bool, len(matches))
	for _, i := range matches {
		drop[i] = true
	}
	var out []string
	for i, line := range lines {
		if !drop[i] {
			out = append(out, line)
		}
	}
	return success(op.Operation, strings.Join(out, ""))
}

func applyAppend(lines []string, op Op, eol string) Result {
	content := normalizeEOL(op.Content, eol)

	out := make([]string, len(lines))
	copy(out, lines)

	// An unterminated last line gets its terminator first, unless the new
	// content leads with one and already serves as the separator.
	last := len(out) - 1
	if last >= 0 && out[last] != "" && !strings.HasSuffix(out[last], eol) &&
		!strings.HasPrefix(content, eol) {
		out[last] = TrimEOL(out[last]) + eol
	}

	if content != "" && !strings.HasSuffix(content, eol) {
		content += eol
	}
	out = append(out, content)
	return success(op.Operation, strings.Join(out, ""))
}

func applyInsert(lines []string, op Op, eol string) Result {
	if op.Pattern == "" {
		return failure("Pattern is required for %s operation", op.Operation)
	}
	idx, fail := anchorLine(lines, op)
	if fail != nil {
		return *fail
	}

	var content string
	if op.InheritIndent {
		content = inheritIndent(op.Content, leadingWhitespace(lines[idx]), eol)
	} else {
		content = normalizeEOL(op.Content, eol)
	}
	if content != "" && !strings.HasSuffix(content, eol) {
		content += eol
	}

	at := idx
	if op.Operation == OpInsertAfter {
		at = idx + 1
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, content)
	out = append(out, lines[at:]...)
	return success(op.Operation, strings.Join(out, ""))
}

func applyBlock(lines []string, op Op, eol string) Result {
	if op.StartPattern == "" || op.EndPattern == "" {
		return failure("Start and end patterns are required for %s operation", op.Operation)
	}

	startRe := compilePattern(op.StartPattern, op.Flags)
	endRe := compilePattern(op.EndPattern, op.Flags)
	start, end, ok := findBlock(lines, startRe, endRe)
	if !ok {
		return failure("Block from '%s' to '%s' not found in file",
			op.StartPattern, op.EndPattern)
	}

	if start == end {
		if op.Operation == OpBlockDelete {
			// Nothing lies between markers on the same line.
			return success(op.Operation, strings.Join(lines, ""))
		}
		return spliceSameLine(lines, start, startRe, endRe, op, eol)
	}

	out := make([]string, 0, len(lines))
	out = append(out, lines[:start+1]...)
	if op.Operation == OpBlockReplace {
		content := normalizeEOL(op.Content, eol)
		if content != "" && !strings.HasSuffix(content, eol) {
			content += eol
		}
		out = append(out, content)
	}
	out = append(out, lines[end:]...)
	return success(op.Operation, strings.Join(out, ""))
}

// spliceSameLine replaces the text between the start and end marker
// occurrences on a single physical line. The marker texts come from the regex
// matches and are relocated with plain substring search.
func spliceSameLine(lines []string, idx int, startRe, endRe *regexp.Regexp, op Op, eol string) Result {
	text := TrimEOL(lines[idx])
	terminator := lines[idx][len(text):]

	startText := startRe.FindString(text)
	startPos := strings.Index(text, startText)
	if startText == "" || startPos < 0 {
		return failure("Block markers not found on line during replacement")
	}
	afterStart := startPos + len(startText)

	endText := endRe.FindString(text[afterStart:])
	endPos := strings.Index(text[afterStart:], endText)
	if endText == "" || endPos < 0 {
		return failure("Block markers not found on line during replacement")
	}
	endAbs := afterStart + endPos

	spliced := text[:afterStart] + normalizeEOL(op.Content, eol) + text[endAbs:]

	out := make([]string, len(lines))
	copy(out, lines)
	out[idx] = spliced + terminator
	return success(op.Operation, strings.Join(out, ""))
}
