package flow

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const (
	// DefaultMaxAttempts is the number of parse attempts, the first one included.
	DefaultMaxAttempts = 3
	// DefaultWindowRadius is the number of bytes on each side of a reported
	// syntax error that a localized fix may touch.
	DefaultWindowRadius = 50
)

// RepairOptions bounds the parse-and-repair loop.
type RepairOptions struct {
	MaxAttempts  int
	WindowRadius int
}

func (o RepairOptions) withDefaults() RepairOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.WindowRadius <= 0 {
		o.WindowRadius = DefaultWindowRadius
	}
	return o
}

// Repair parses doc and, on failure, applies a fix local to the reported
// error offset before parsing again. It performs at most opts.MaxAttempts
// parses. When no localized fix applies, the whole document is passed once
// through jsonrepair. The returned string is valid JSON.
func Repair(doc string, opts RepairOptions) (string, []Diagnostic, error) {
	opts = opts.withDefaults()
	var diags []Diagnostic
	usedFallback := false

	for attempt := 1; ; attempt++ {
		err := parseDocument(doc)
		if err == nil {
			return doc, diags, nil
		}

		var syn *json.SyntaxError
		if !errors.As(err, &syn) {
			return "", diags, &UnrecoverableSyntaxError{LastMessage: err.Error(), Attempts: attempt}
		}
		if attempt >= opts.MaxAttempts {
			return "", diags, &UnrecoverableSyntaxError{LastMessage: syn.Error(), Attempts: attempt}
		}

		offset := int(syn.Offset)
		fixed, code := repairAt(doc, offset, syn.Error(), opts.WindowRadius)
		if fixed == doc {
			if usedFallback {
				return "", diags, &UnrecoverableSyntaxError{LastMessage: syn.Error(), Attempts: attempt}
			}
			usedFallback = true
			repaired, rerr := jsonrepair.JSONRepair(doc)
			if rerr != nil || repaired == doc {
				return "", diags, &UnrecoverableSyntaxError{LastMessage: syn.Error(), Attempts: attempt}
			}
			fixed, code = repaired, "jsonrepair"
		}

		diags = append(diags, note(StageRepair, code, offset, "attempt %d: %s", attempt, syn.Error()))
		doc = fixed
	}
}

// ParseWithRepair runs Repair and validates the structure of the result.
func ParseWithRepair(doc string, opts RepairOptions) (*ParsedGraph, []Diagnostic, error) {
	repaired, diags, err := Repair(doc, opts)
	if err != nil {
		return nil, diags, err
	}
	graph, sdiags, err := ValidateStructure(repaired)
	diags = append(diags, sdiags...)
	if err != nil {
		return nil, diags, err
	}
	return graph, diags, nil
}

// parseDocument checks syntax only. Numbers outside the float64 range are
// valid JSON and are rejected later by ValidateStructure.
func parseDocument(doc string) error {
	var v json.RawMessage
	return json.Unmarshal([]byte(doc), &v)
}

// repairAt returns doc with a fix applied around offset and the name of the
// fix. doc is returned unchanged when no fix applies.
func repairAt(doc string, offset int, msg string, radius int) (string, string) {
	if offset > len(doc) {
		offset = len(doc)
	}
	pos := offset - 1
	lo := max(0, offset-radius)
	hi := min(len(doc), offset+radius)

	switch {
	case strings.Contains(msg, "unexpected end of JSON input"):
		return closeTail(doc), "close_truncated"

	case strings.Contains(msg, "in string literal"):
		return escapeWindow(doc, pos, lo, hi), "escape_window"

	case pos < 0:
		return doc, ""

	case strings.Contains(msg, "after object key:value pair"), strings.Contains(msg, "after array element"):
		if startsValue(doc[pos]) {
			return doc[:pos] + "," + doc[pos:], "insert_comma"
		}

	case strings.Contains(msg, "after object key"):
		return doc[:pos] + ":" + doc[pos:], "insert_colon"

	case strings.Contains(msg, "looking for beginning of"):
		if doc[pos] == '}' || doc[pos] == ']' {
			if i := prevNonSpace(doc, pos, lo); i >= 0 && doc[i] == ',' {
				return doc[:i] + doc[i+1:], "remove_comma"
			}
		}

	case strings.Contains(msg, "after top-level value"):
		return strings.TrimSpace(doc[:pos]), "trailing_data"
	}

	return doc, ""
}

// escapeWindow escapes raw control bytes of the literal around pos, limited
// to [lo, hi).
func escapeWindow(doc string, pos, lo, hi int) string {
	if pos < lo {
		pos = lo
	}
	start := lo
	for i := pos - 1; i >= lo; i-- {
		if doc[i] == '"' && !escapedAt(doc, i) {
			start = i + 1
			break
		}
	}
	end := hi
	for i := pos; i < hi; i++ {
		if doc[i] == '"' && !escapedAt(doc, i) {
			end = i
			break
		}
	}
	if start >= end {
		return doc
	}
	return doc[:start] + escapeControls(doc[start:end]) + doc[end:]
}

// closeTail completes a truncated document by closing the open literal and
// every open array or object. A trailing object key without a value is
// dropped together with its comma.
func closeTail(doc string) string {
	var stack []byte
	inString := false
	escaped := false
	lastString := -1
	for i := 0; i < len(doc); i++ {
		c := doc[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			lastString = i
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		if escaped {
			doc = doc[:len(doc)-1]
		}
		doc += `"`
	}
	doc = strings.TrimRight(doc, " \t\r\n")

	if lastString >= 0 && strings.HasSuffix(doc, `"`) && len(stack) > 0 && stack[len(stack)-1] == '}' {
		if p := prevNonSpace(doc, lastString, 0); p >= 0 && (doc[p] == '{' || doc[p] == ',') {
			doc = strings.TrimRight(doc[:lastString], " \t\r\n")
		}
	}
	doc = strings.TrimSuffix(doc, ",")
	if strings.HasSuffix(doc, ":") {
		doc += "null"
	}

	var b strings.Builder
	b.WriteString(doc)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

func escapedAt(doc string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && doc[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func prevNonSpace(doc string, pos, lo int) int {
	for i := pos - 1; i >= lo; i-- {
		switch doc[i] {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return i
	}
	return -1
}

func startsValue(c byte) bool {
	switch c {
	case '"', '{', '[', '-', 't', 'f', 'n':
		return true
	}
	return c >= '0' && c <= '9'
}
