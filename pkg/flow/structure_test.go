package flow

import (
	"errors"
	"testing"
)

func TestValidateStructure(t *testing.T) {
	doc := `{
		"nodes": [
			{"id": "n1", "type": "product", "title": " Login ", "content": "User signs in", "position": {"x": 1.5, "y": 2}},
			{"id": 7, "type": "external_service", "data": {"label": "Stripe", "content": "Charge card"}, "position": {"x": 0, "y": 0}},
			{"type": "gizmo", "title": "Note", "content": "Why", "position": {"x": -1, "y": 3}}
		],
		"edges": [
			{"source": "n1", "target": 7, "label": "pays"},
			{"source": "Login", "target": "Note", "data": {"label": "explains"}}
		]
	}`

	graph, diags, err := ValidateStructure(doc)
	if err != nil {
		t.Fatalf("ValidateStructure() error = %v", err)
	}
	if len(graph.Nodes) != 3 || len(graph.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges, want 3, 2", len(graph.Nodes), len(graph.Edges))
	}

	first := graph.Nodes[0]
	if first.SourceID != "n1" || first.Title != "Login" || first.Type != NodeTypeProduct {
		t.Fatalf("first node = %+v", first)
	}
	if first.Position != (Position{X: 1.5, Y: 2}) {
		t.Fatalf("first node position = %+v", first.Position)
	}

	second := graph.Nodes[1]
	if second.SourceID != "7" || second.Title != "Stripe" || second.Content != "Charge card" {
		t.Fatalf("second node = %+v", second)
	}
	if second.Type != NodeTypeExternal {
		t.Fatalf("second node type = %q, want external", second.Type)
	}

	third := graph.Nodes[2]
	if third.SourceID != "" || third.Type != NodeTypeProduct {
		t.Fatalf("third node = %+v", third)
	}
	if !hasCode(diags, "unknown_node_type") {
		t.Fatalf("diagnostics = %v, want unknown_node_type", diags)
	}

	if e := graph.Edges[0]; e.SourceRef != "n1" || e.TargetRef != "7" || e.Label != "pays" {
		t.Fatalf("first edge = %+v", e)
	}
	if e := graph.Edges[1]; e.Label != "explains" {
		t.Fatalf("second edge label = %q, want explains", e.Label)
	}
}

func TestValidateStructure_EmptyGraph(t *testing.T) {
	graph, diags, err := ValidateStructure(`{"nodes":[],"edges":[]}`)
	if err != nil {
		t.Fatalf("ValidateStructure() error = %v", err)
	}
	if len(graph.Nodes) != 0 || len(graph.Edges) != 0 || len(diags) != 0 {
		t.Fatalf("ValidateStructure() = %+v, %v", graph, diags)
	}
}

func TestValidateStructure_MissingField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"edges absent", `{"nodes":[]}`, "edges"},
		{"nodes absent", `{"edges":[]}`, "nodes"},
		{"nodes not an array", `{"nodes":{},"edges":[]}`, "nodes"},
		{"edges not an array", `{"nodes":[],"edges":"none"}`, "edges"},
		{"root is an array", `[{"nodes":[]}]`, "nodes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidateStructure(tt.input)
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("error = %v, want MissingFieldError", err)
			}
			if missing.Name != tt.field {
				t.Fatalf("missing field = %q, want %q", missing.Name, tt.field)
			}
			if !errors.Is(err, ErrPipeline) {
				t.Fatalf("error does not match ErrPipeline")
			}
		})
	}
}

func TestValidateStructure_InvalidNode(t *testing.T) {
	tests := []struct {
		name   string
		node   string
		reason string
	}{
		{"not an object", `"n1"`, "not an object"},
		{"missing title", `{"content":"x","position":{"x":0,"y":0}}`, "missing title"},
		{"blank title", `{"title":"  ","content":"x","position":{"x":0,"y":0}}`, "missing title"},
		{"missing content", `{"title":"A","position":{"x":0,"y":0}}`, "missing content"},
		{"missing position", `{"title":"A","content":"x"}`, "missing position"},
		{"string coordinate", `{"title":"A","content":"x","position":{"x":"1","y":0}}`, "position.x is not a number"},
		{"missing y", `{"title":"A","content":"x","position":{"x":1}}`, "position.y is not a number"},
		{"coordinate overflows", `{"title":"A","content":"x","position":{"x":1e400,"y":0}}`, "position.x is out of range"},
		{"negative overflow", `{"title":"A","content":"x","position":{"x":0,"y":-2e308}}`, "position.y is out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"nodes":[{"title":"ok","content":"ok","position":{"x":0,"y":0}},` + tt.node + `],"edges":[]}`
			_, _, err := ValidateStructure(doc)
			var invalid *InvalidNodeError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want InvalidNodeError", err)
			}
			if invalid.Index != 1 || invalid.Reason != tt.reason {
				t.Fatalf("error = %+v, want index 1 reason %q", invalid, tt.reason)
			}
		})
	}
}

func TestValidateStructure_InvalidEdge(t *testing.T) {
	tests := []struct {
		name   string
		edge   string
		reason string
	}{
		{"not an object", `["a","b"]`, "not an object"},
		{"missing source", `{"target":"a"}`, "missing source"},
		{"blank source", `{"source":" ","target":"a"}`, "missing source"},
		{"missing target", `{"source":"a"}`, "missing target"},
		{"null target", `{"source":"a","target":null}`, "missing target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"nodes":[],"edges":[` + tt.edge + `]}`
			_, _, err := ValidateStructure(doc)
			var invalid *InvalidEdgeError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want InvalidEdgeError", err)
			}
			if invalid.Index != 0 || invalid.Reason != tt.reason {
				t.Fatalf("error = %+v, want index 0 reason %q", invalid, tt.reason)
			}
		})
	}
}

func TestParseNodeType(t *testing.T) {
	tests := []struct {
		tag   string
		want  NodeType
		known bool
	}{
		{"product", NodeTypeProduct, true},
		{"ProductNode", NodeTypeProduct, true},
		{"external", NodeTypeExternal, true},
		{"External-Service", NodeTypeExternal, true},
		{"externalService", NodeTypeExternal, true},
		{" context ", NodeTypeContext, true},
		{"note", NodeTypeContext, true},
		{"", NodeTypeProduct, false},
		{"decision", NodeTypeProduct, false},
	}

	for _, tt := range tests {
		got, known := ParseNodeType(tt.tag)
		if got != tt.want || known != tt.known {
			t.Fatalf("ParseNodeType(%q) = %q, %v, want %q, %v", tt.tag, got, known, tt.want, tt.known)
		}
	}
}
