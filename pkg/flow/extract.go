package flow

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reFenced     = regexp.MustCompile("(?s)`{3}[\\w.+-]*[^\\S\\n]*\\n?(.*?)`{3}")
	reOpenFenced = regexp.MustCompile("(?s)`{3}[\\w.+-]*[^\\S\\n]*\\n?(.*)$")
)

// Extract strips markdown code fences and prose around the JSON object in
// raw. It never fails; when no object can be located the trimmed input is
// returned so the parser can report a classified error later.
func Extract(raw string) (string, []Diagnostic) {
	var diags []Diagnostic
	doc := strings.TrimSpace(raw)

	if strings.HasPrefix(doc, `"`) {
		var decoded string
		if err := json.Unmarshal([]byte(doc), &decoded); err == nil {
			doc = strings.TrimSpace(decoded)
			diags = append(diags, note(StageExtract, "double_encoded", -1, "decoded JSON string wrapping the document"))
		}
	}

	if inner, ok := unfence(doc); ok {
		doc = strings.TrimSpace(inner)
		diags = append(diags, note(StageExtract, "code_fence", -1, "stripped markdown code fence"))
	} else if m := reOpenFenced.FindStringSubmatch(doc); m != nil {
		doc = strings.TrimSpace(m[1])
		diags = append(diags, note(StageExtract, "open_code_fence", -1, "stripped unterminated markdown code fence"))
	}

	start := strings.IndexByte(doc, '{')
	end := strings.LastIndexByte(doc, '}')
	if start == -1 || end == -1 || end < start {
		return doc, diags
	}
	if start > 0 || end < len(doc)-1 {
		diags = append(diags, note(StageExtract, "surrounding_text", start,
			"dropped %d byte(s) of text around the object", start+len(doc)-1-end))
	}
	doc = doc[start : end+1]

	if rest := strings.TrimSpace(doc[1:]); strings.HasPrefix(rest, "{") && braceBalance(doc) > 0 {
		doc = rest
		diags = append(diags, note(StageExtract, "duplicate_brace", 0, "collapsed duplicated leading brace"))
	}

	return doc, diags
}

// unfence returns the body of the first fenced block that holds an object,
// falling back to the first fenced block.
func unfence(s string) (string, bool) {
	matches := reFenced.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return "", false
	}
	for _, m := range matches {
		if strings.Contains(m[1], "{") {
			return m[1], true
		}
	}
	return matches[0][1], true
}
