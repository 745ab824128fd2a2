package flow

import (
	"fmt"
	"strings"
)

// Rescan re-establishes string literal boundaries in a single left to right
// pass over the bytes of doc.
//
// Inside a literal every raw control byte (< 0x20) is replaced by its JSON
// escape, so no raw control character reaches the parser inside a string.
// Escape sequences are copied verbatim and never re-interpreted. Bytes
// outside of literals are copied unchanged.
//
// A closing quote that is not followed by , } ] : whitespace or the end of
// input is still treated as the end of the literal and only reported as a
// diagnostic. The repair loop deals with whatever follows it.
//
// When the input ends inside a literal a closing quote is appended.
func Rescan(doc string) (string, []Diagnostic) {
	var diags []Diagnostic
	out := make([]byte, 0, len(doc)+16)

	inString := false
	isEscaped := false
	stringStart := -1
	escapedControls := 0

	for i := 0; i < len(doc); i++ {
		c := doc[i]

		if !inString {
			if c == '"' {
				inString = true
				stringStart = i
			}
			out = append(out, c)
			continue
		}

		if isEscaped {
			isEscaped = false
			if c < 0x20 {
				// a backslash followed by a raw control byte is not a valid
				// escape; keep the backslash literal and escape the byte
				out = append(out, '\\')
				out = appendControlEscape(out, c)
				escapedControls++
				continue
			}
			out = append(out, c)
			continue
		}

		switch {
		case c == '\\':
			isEscaped = true
			out = append(out, c)
		case c == '"':
			inString = false
			stringStart = -1
			out = append(out, c)
			if i+1 < len(doc) && !isContinuation(doc[i+1]) {
				diags = append(diags, note(StageRescan, "unexpected_after_string", i+1,
					"string closed before %q", doc[i+1]))
			}
		case c < 0x20:
			out = appendControlEscape(out, c)
			escapedControls++
		default:
			out = append(out, c)
		}
	}

	if escapedControls > 0 {
		diags = append(diags, note(StageRescan, "control_characters", -1,
			"escaped %d raw control character(s) inside strings", escapedControls))
	}

	if inString {
		if isEscaped {
			out = out[:len(out)-1]
		}
		out = append(out, '"')
		diags = append(diags, note(StageRescan, "unterminated_string", stringStart,
			"closed string opened at offset %d", stringStart))
	}

	return string(out), diags
}

func isContinuation(c byte) bool {
	switch c {
	case ',', '}', ']', ':', ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func appendControlEscape(out []byte, c byte) []byte {
	switch c {
	case '\n':
		return append(out, '\\', 'n')
	case '\r':
		return append(out, '\\', 'r')
	case '\t':
		return append(out, '\\', 't')
	}
	return append(out, fmt.Sprintf("\\u%04x", c)...)
}

// escapeControls escapes every raw control byte in s.
func escapeControls(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return r < 0x20 }) == -1 {
		return s
	}
	out := make([]byte, 0, len(s)+8)
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			out = appendControlEscape(out, s[i])
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
