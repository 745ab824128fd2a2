package flow

import "strings"

// segment is a run of text that is either entirely inside a string literal
// (quotes included) or entirely outside of one.
type segment struct {
	text     string
	inString bool
}

// splitLiterals cuts s into alternating literal and non-literal segments.
// An unterminated literal runs to the end of s.
func splitLiterals(s string) []segment {
	var segs []segment
	start := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				segs = append(segs, segment{text: s[start : i+1], inString: true})
				start = i + 1
				inString = false
			}
			continue
		}
		if c == '"' {
			if i > start {
				segs = append(segs, segment{text: s[start:i]})
			}
			start = i
			inString = true
		}
	}
	if start < len(s) {
		segs = append(segs, segment{text: s[start:], inString: inString})
	}
	return segs
}

// mapOutsideLiterals applies fn to every part of s that is not inside a
// string literal.
func mapOutsideLiterals(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range splitLiterals(s) {
		if seg.inString {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(fn(seg.text))
	}
	return b.String()
}

// braceBalance counts '{' minus '}' outside string literals.
func braceBalance(s string) int {
	n := 0
	for _, seg := range splitLiterals(s) {
		if seg.inString {
			continue
		}
		n += strings.Count(seg.text, "{") - strings.Count(seg.text, "}")
	}
	return n
}
