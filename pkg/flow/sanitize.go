package flow

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// PlaceholderURLPath replaces a URL the model cut off right after its scheme.
const PlaceholderURLPath = "//example.com"

var (
	quoteReplacer = strings.NewReplacer("“", `"`, "”", `"`, "＂", `"`)

	reDoubleColon    = regexp.MustCompile(`"\s*:(?:\s*:)+`)
	reEllipsis       = regexp.MustCompile(`\.{3,}`)
	reTrailingComma  = regexp.MustCompile(`,(?:\s*,)*(\s*[}\]])`)
	reURLLineBreak   = regexp.MustCompile(`(https?:/{0,2})[ \t]*(?:\r\n|\r|\n)\s*`)
	reURLMissingPath = regexp.MustCompile(`(https?:)/{0,2}([",}\]])`)
)

type sanitizeStep struct {
	code  string
	apply func(string) string
}

// Steps run in this order; later steps assume the earlier ones already ran.
var sanitizeSteps = []sanitizeStep{
	{"quote_normalization", normalizeQuotes},
	{"double_colon", func(s string) string { return reDoubleColon.ReplaceAllString(s, `":`) }},
	{"ellipsis", func(s string) string { return reEllipsis.ReplaceAllString(s, "") }},
	{"comments", stripComments},
	{"trailing_comma", func(s string) string {
		return mapOutsideLiterals(s, func(seg string) string {
			return reTrailingComma.ReplaceAllString(seg, "$1")
		})
	}},
	{"broken_url", repairURLs},
}

// Sanitize applies the text level normalizations to doc. The step sequence
// is repeated until it stops changing the text, so Sanitize is idempotent.
// Each step that changed something is reported once.
//
// Every step but the URL placeholder only deletes bytes, and a placeholder
// consumes the scheme it was inserted for, so the loop reaches a fixed point
// in fewer passes than doc has bytes.
func Sanitize(doc string) (string, []Diagnostic) {
	var diags []Diagnostic
	seen := make(map[string]bool, len(sanitizeSteps))

	for pass := 0; pass <= len(doc); pass++ {
		before := doc
		for _, step := range sanitizeSteps {
			out := step.apply(doc)
			if out == doc {
				continue
			}
			if !seen[step.code] {
				seen[step.code] = true
				diags = append(diags, note(StageSanitize, step.code, -1, "%s %s", step.code, sizeChange(len(doc), len(out))))
			}
			doc = out
		}
		if doc == before {
			break
		}
	}

	return doc, diags
}

func normalizeQuotes(s string) string {
	s = quoteReplacer.Replace(s)
	return mapOutsideLiterals(s, func(seg string) string {
		return strings.Map(narrowPunct, seg)
	})
}

// narrowPunct maps full-width JSON punctuation to its ASCII form.
func narrowPunct(r rune) rune {
	switch r {
	case '，', '：', '｛', '｝', '［', '］':
		return width.LookupRune(r).Narrow()
	}
	return r
}

// stripComments removes // and /* */ comments outside string literals.
func stripComments(s string) string {
	if !strings.Contains(s, "//") && !strings.Contains(s, "/*") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
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
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '/':
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					b.WriteByte('\n')
				}
				continue
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end == -1 {
					return b.String()
				}
				i += end + 3
				continue
			}
		}
		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

// repairURLs fixes URLs inside string literals only. A scheme outside a
// literal is left to the repair loop.
func repairURLs(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range splitLiterals(s) {
		if !seg.inString {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(repairLiteralURL(seg.text))
	}
	return b.String()
}

func repairLiteralURL(s string) string {
	s = reURLLineBreak.ReplaceAllString(s, "$1")
	return reURLMissingPath.ReplaceAllStringFunc(s, func(m string) string {
		sub := reURLMissingPath.FindStringSubmatch(m)
		scheme, term := sub[1], sub[2]
		if term == `"` {
			return scheme + PlaceholderURLPath + `"`
		}
		return scheme + PlaceholderURLPath + `"` + term
	})
}

func sizeChange(before, after int) string {
	switch {
	case after < before:
		return fmt.Sprintf("removed %d byte(s)", before-after)
	case after > before:
		return fmt.Sprintf("added %d byte(s)", after-before)
	}
	return "rewrote text in place"
}
