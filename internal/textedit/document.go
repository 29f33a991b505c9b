// Package textedit implements the pattern-anchored line edit engine behind the
// edit_file tool. It splits a file into physical lines, locates anchor lines or
// block bounds with regular expressions, applies one of seven structural
// operations, and serializes the result preserving the file's dominant
// end-of-line style.
package textedit

import "strings"

// LF and CRLF are the two supported end-of-line styles. The dominant style is
// detected once per edit and applied to all content written during it.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// DetectEOL returns the dominant end-of-line style for content. Any occurrence
// of CRLF marks the whole document as CRLF; otherwise LF.
func DetectEOL(content string) string {
	if strings.Contains(content, CRLF) {
		return CRLF
	}
	return LF
}

// SplitLines splits content into physical lines, each retaining its own
// terminator. The final line may have none. Joining the result reproduces the
// input byte-for-byte.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i+1])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

// TrimEOL strips the trailing terminator from a physical line, handling both
// LF and CRLF.
func TrimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// leadingWhitespace returns the run of spaces and tabs at the start of line.
func leadingWhitespace(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}

// normalizeEOL rewrites every terminator in content to the given EOL style.
func normalizeEOL(content, eol string) string {
	content = strings.ReplaceAll(content, CRLF, LF)
	if eol == LF {
		return content
	}
	return strings.ReplaceAll(content, LF, eol)
}

// inheritIndent splits content into logical lines, drops trailing empty lines,
// prefixes every non-blank line with leading, and rejoins with eol. Blank
// lines stay unindented.
func inheritIndent(content, leading, eol string) string {
	lines := strings.Split(strings.ReplaceAll(content, CRLF, LF), "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	indented := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			indented[i] = leading + line
		} else {
			indented[i] = line
		}
	}
	return strings.Join(indented, eol)
}
