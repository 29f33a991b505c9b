package textedit

import (
	"regexp"
	"strings"
)

// compilePattern compiles pattern with the requested flags applied as an
// inline group. A compile failure yields a nil regexp: callers treat the
// pattern as matching nothing, so malformed patterns surface as "not found"
// rather than a distinct error. That mirrors the behavior callers already
// rely on.
func compilePattern(pattern string, flags []string) *regexp.Regexp {
	prefix := flagPrefix(flags)
	re, err := regexp.Compile(prefix + pattern)
	if err != nil {
		return nil
	}
	return re
}

// flagPrefix converts the flag name list to an inline RE2 flag group. Names
// are matched case-insensitively and unknown names are skipped. VERBOSE is
// accepted for compatibility but has no RE2 equivalent and is ignored.
func flagPrefix(flags []string) string {
	var letters strings.Builder
	for _, f := range flags {
		switch strings.ToUpper(strings.TrimSpace(f)) {
		case "IGNORECASE":
			letters.WriteByte('i')
		case "MULTILINE":
			letters.WriteByte('m')
		case "DOTALL":
			letters.WriteByte('s')
		case "VERBOSE":
			// no RE2 equivalent
		}
	}
	if letters.Len() == 0 {
		return ""
	}
	return "(?" + letters.String() + ")"
}

// matchLines returns the indices of every physical line whose terminator-
// stripped content contains a match for re, in physical order. A nil re
// matches nothing.
func matchLines(lines []string, re *regexp.Regexp) []int {
	if re == nil {
		return nil
	}
	var matched []int
	for i, line := range lines {
		if re.MatchString(TrimEOL(line)) {
			matched = append(matched, i)
		}
	}
	return matched
}

// findBlock locates the first line matching startRe and the first line at or
// after it matching endRe. Both patterns may land on the same physical line.
// ok is false when no complete pair exists before end of document.
func findBlock(lines []string, startRe, endRe *regexp.Regexp) (start, end int, ok bool) {
	if startRe == nil || endRe == nil {
		return 0, 0, false
	}
	start = -1
	for i, line := range lines {
		text := TrimEOL(line)
		if start < 0 {
			if !startRe.MatchString(text) {
				continue
			}
			start = i
		}
		if start >= 0 && endRe.MatchString(text) {
			return start, i, true
		}
	}
	return 0, 0, false
}

// expandReplacement translates Python-style replacement text to Go's expand
// syntax: backslash-digit and \g<n> group references become ${n}, escaped
// backslashes collapse, and literal dollar signs are protected from
// expansion.
func expandReplacement(content string) string {
	var out strings.Builder
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '$':
			out.WriteString("$$")
		case c == '\\' && i+1 < len(content):
			next := content[i+1]
			if next >= '0' && next <= '9' {
				j := i + 1
				for j < len(content) && content[j] >= '0' && content[j] <= '9' {
					j++
				}
				out.WriteString("${" + content[i+1:j] + "}")
				i = j - 1
			} else if next == 'g' && i+2 < len(content) && content[i+2] == '<' {
				end := strings.IndexByte(content[i+3:], '>')
				if end < 0 {
					out.WriteByte(c)
					break
				}
				out.WriteString("${" + content[i+3:i+3+end] + "}")
				i += 3 + end
			} else if next == '\\' {
				out.WriteByte('\\')
				i++
			} else {
				out.WriteByte(c)
			}
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}
