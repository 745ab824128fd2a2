package flow

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Field lookup order. The model places the same value at different paths
// depending on whether it imitates a flow-canvas export or a flat record.
var (
	titlePaths     = []string{"title", "data.label", "data.title"}
	contentPaths   = []string{"content", "data.content"}
	typePaths      = []string{"type", "data.type"}
	edgeLabelPaths = []string{"label", "data.label"}
)

// ValidateStructure checks that doc, which must be valid JSON, has the
// nodes/edges shape and converts it into a ParsedGraph. Unknown node types
// are not fatal: they default to NodeTypeProduct and produce a diagnostic.
func ValidateStructure(doc string) (*ParsedGraph, []Diagnostic, error) {
	var diags []Diagnostic
	root := gjson.Parse(doc)
	if !root.IsObject() {
		return nil, nil, &MissingFieldError{Name: "nodes"}
	}

	nodes := root.Get("nodes")
	if !nodes.IsArray() {
		return nil, nil, &MissingFieldError{Name: "nodes"}
	}
	edges := root.Get("edges")
	if !edges.IsArray() {
		return nil, nil, &MissingFieldError{Name: "edges"}
	}

	graph := &ParsedGraph{}
	for i, n := range nodes.Array() {
		node, diag, err := parseNode(i, n)
		if err != nil {
			return nil, diags, err
		}
		if diag != nil {
			diags = append(diags, *diag)
		}
		graph.Nodes = append(graph.Nodes, node)
	}

	for i, e := range edges.Array() {
		edge, err := parseEdge(i, e)
		if err != nil {
			return nil, diags, err
		}
		graph.Edges = append(graph.Edges, edge)
	}

	return graph, diags, nil
}

func parseNode(index int, n gjson.Result) (GeneratedNode, *Diagnostic, error) {
	if !n.IsObject() {
		return GeneratedNode{}, nil, &InvalidNodeError{Index: index, Reason: "not an object"}
	}

	title, ok := nodeTitle(n)
	if !ok {
		return GeneratedNode{}, nil, &InvalidNodeError{Index: index, Reason: "missing title"}
	}
	content, ok := nodeContent(n)
	if !ok {
		return GeneratedNode{}, nil, &InvalidNodeError{Index: index, Reason: "missing content"}
	}
	pos, reason := nodePosition(n)
	if reason != "" {
		return GeneratedNode{}, nil, &InvalidNodeError{Index: index, Reason: reason}
	}

	var diag *Diagnostic
	tag, _ := firstString(n, typePaths...)
	nodeType, known := ParseNodeType(tag)
	if !known {
		d := note(StageStructure, "unknown_node_type", -1, "node %d: type %q defaulted to %s", index, tag, nodeType)
		diag = &d
	}

	id, _ := reference(n.Get("id"))

	return GeneratedNode{
		SourceID: id,
		Type:     nodeType,
		Title:    title,
		Content:  content,
		Position: pos,
	}, diag, nil
}

func parseEdge(index int, e gjson.Result) (GeneratedEdge, error) {
	if !e.IsObject() {
		return GeneratedEdge{}, &InvalidEdgeError{Index: index, Reason: "not an object"}
	}
	source, ok := reference(e.Get("source"))
	if !ok {
		return GeneratedEdge{}, &InvalidEdgeError{Index: index, Reason: "missing source"}
	}
	target, ok := reference(e.Get("target"))
	if !ok {
		return GeneratedEdge{}, &InvalidEdgeError{Index: index, Reason: "missing target"}
	}
	label, _ := firstString(e, edgeLabelPaths...)

	return GeneratedEdge{SourceRef: source, TargetRef: target, Label: label}, nil
}

func nodeTitle(n gjson.Result) (string, bool) {
	title, ok := firstString(n, titlePaths...)
	return strings.TrimSpace(title), ok
}

func nodeContent(n gjson.Result) (string, bool) {
	return firstString(n, contentPaths...)
}

func nodePosition(n gjson.Result) (Position, string) {
	p := n.Get("position")
	if !p.IsObject() {
		return Position{}, "missing position"
	}
	x, y := p.Get("x"), p.Get("y")
	if x.Type != gjson.Number {
		return Position{}, "position.x is not a number"
	}
	if y.Type != gjson.Number {
		return Position{}, "position.y is not a number"
	}
	pos := Position{X: x.Float(), Y: y.Float()}
	if math.IsInf(pos.X, 0) {
		return Position{}, "position.x is out of range"
	}
	if math.IsInf(pos.Y, 0) {
		return Position{}, "position.y is out of range"
	}
	return pos, ""
}

// firstString returns the first non-blank string found at paths, in order.
func firstString(r gjson.Result, paths ...string) (string, bool) {
	for _, path := range paths {
		v := r.Get(path)
		if v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return v.Str, true
		}
	}
	return "", false
}

// reference reads a node reference, which the model writes as a string or
// as a bare number.
func reference(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		return s, s != ""
	case gjson.Number:
		return v.Raw, true
	}
	return "", false
}
