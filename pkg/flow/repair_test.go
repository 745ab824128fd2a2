package flow

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRepair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		code  string
	}{
		{
			name:  "valid document",
			input: `{"a":[1,2]}`,
			want:  `{"a":[1,2]}`,
		},
		{
			name:  "truncated inside arrays",
			input: `{"nodes":[{"title":"A"`,
			want:  `{"nodes":[{"title":"A"}]}`,
			code:  "close_truncated",
		},
		{
			name:  "truncated after comma",
			input: "{\"a\":[1,2,\n",
			want:  `{"a":[1,2]}`,
			code:  "close_truncated",
		},
		{
			name:  "truncated after colon",
			input: `{"a":`,
			want:  `{"a":null}`,
			code:  "close_truncated",
		},
		{
			name:  "truncated after dangling key",
			input: `{"a":1,"b"`,
			want:  `{"a":1}`,
			code:  "close_truncated",
		},
		{
			name:  "truncated inside string",
			input: `{"a":"tex`,
			want:  `{"a":"tex"}`,
			code:  "close_truncated",
		},
		{
			name:  "missing comma between members",
			input: `{"a":1 "b":2}`,
			want:  `{"a":1 ,"b":2}`,
			code:  "insert_comma",
		},
		{
			name:  "missing comma between elements",
			input: `[{"a":1} {"b":2}]`,
			want:  `[{"a":1} ,{"b":2}]`,
			code:  "insert_comma",
		},
		{
			name:  "stray comma before closer",
			input: `[1,2, ]`,
			want:  `[1,2 ]`,
			code:  "remove_comma",
		},
		{
			name:  "missing colon",
			input: `{"a" 1}`,
			want:  `{"a" :1}`,
			code:  "insert_colon",
		},
		{
			name:  "raw control character in string",
			input: "{\"a\":\"x\ny\"}",
			want:  `{"a":"x\ny"}`,
			code:  "escape_window",
		},
		{
			name:  "trailing data",
			input: `{"a":1}}`,
			want:  `{"a":1}`,
			code:  "trailing_data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags, err := Repair(tt.input, RepairOptions{})
			if err != nil {
				t.Fatalf("Repair() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Repair() = %q, want %q", got, tt.want)
			}
			if tt.code != "" && !hasCode(diags, tt.code) {
				t.Fatalf("Repair() diagnostics = %v, want code %q", diags, tt.code)
			}
			if !json.Valid([]byte(got)) {
				t.Fatalf("Repair() returned invalid JSON %q", got)
			}
		})
	}
}

func TestRepair_FallsBackToJSONRepair(t *testing.T) {
	got, diags, err := Repair(`{nodes: [], edges: []}`, RepairOptions{})
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if !hasCode(diags, "jsonrepair") {
		t.Fatalf("Repair() diagnostics = %v, want jsonrepair fallback", diags)
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(got), &v); err != nil {
		t.Fatalf("repaired document does not parse: %v", err)
	}
	if _, ok := v["nodes"]; !ok {
		t.Fatalf("repaired document lost nodes: %s", got)
	}
}

func TestRepair_Bounded(t *testing.T) {
	input := `{"a":1 "b":2 "c":3 "d":4 "e":5}`

	for _, max := range []int{1, 2, 3} {
		_, diags, err := Repair(input, RepairOptions{MaxAttempts: max})
		var syntaxErr *UnrecoverableSyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("MaxAttempts=%d: error = %v, want UnrecoverableSyntaxError", max, err)
		}
		if syntaxErr.Attempts != max {
			t.Fatalf("MaxAttempts=%d: attempts = %d", max, syntaxErr.Attempts)
		}
		if syntaxErr.LastMessage == "" {
			t.Fatalf("MaxAttempts=%d: missing last message", max)
		}
		if len(diags) != max-1 {
			t.Fatalf("MaxAttempts=%d: %d repairs recorded, want %d", max, len(diags), max-1)
		}
		if !errors.Is(err, ErrPipeline) {
			t.Fatalf("MaxAttempts=%d: error does not match ErrPipeline", max)
		}
	}

	got, _, err := Repair(input, RepairOptions{MaxAttempts: 5})
	if err != nil {
		t.Fatalf("MaxAttempts=5: error = %v", err)
	}
	if !json.Valid([]byte(got)) {
		t.Fatalf("MaxAttempts=5: invalid JSON %q", got)
	}
}

func TestRepair_WindowLimitsEscaping(t *testing.T) {
	// the second newline is far outside the window of the first error
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	input := "{\"a\":\"1\n" + string(long) + "\n2\"}"

	got, _, err := Repair(input, RepairOptions{MaxAttempts: 3, WindowRadius: 20})
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	var v struct {
		A string `json:"a"`
	}
	if err := json.Unmarshal([]byte(got), &v); err != nil {
		t.Fatalf("repaired document does not parse: %v", err)
	}
	if want := "1\n" + string(long) + "\n2"; v.A != want {
		t.Fatalf("decoded value changed")
	}
}

func TestParseWithRepair(t *testing.T) {
	doc := `{"nodes":[{"id":"n1","title":"A","content":"x","position":{"x":1,"y":2}}],"edges":[{"source":"n1","target":"n1"}`

	graph, diags, err := ParseWithRepair(doc, RepairOptions{})
	if err != nil {
		t.Fatalf("ParseWithRepair() error = %v", err)
	}
	if len(graph.Nodes) != 1 || len(graph.Edges) != 1 {
		t.Fatalf("ParseWithRepair() = %d nodes, %d edges, want 1, 1", len(graph.Nodes), len(graph.Edges))
	}
	if !hasCode(diags, "close_truncated") {
		t.Fatalf("ParseWithRepair() diagnostics = %v", diags)
	}
}

func TestParseWithRepair_EmptyDocument(t *testing.T) {
	graph, _, err := ParseWithRepair("", RepairOptions{})
	if err == nil {
		t.Fatalf("ParseWithRepair() = %+v, want error", graph)
	}
	if !errors.Is(err, ErrPipeline) {
		t.Fatalf("error = %v, want pipeline error", err)
	}
}
