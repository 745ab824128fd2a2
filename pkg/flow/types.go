package flow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeType identifies the kind of step a node represents in a product flow.
type NodeType string

const (
	// NodeTypeProduct is a feature or screen of the product itself.
	NodeTypeProduct NodeType = "product"
	// NodeTypeExternal is an integration with a third-party service.
	NodeTypeExternal NodeType = "external"
	// NodeTypeContext is an explanatory note that is not part of the flow.
	NodeTypeContext NodeType = "context"
)

var nodeTypeAliases = map[string]NodeType{
	"product":          NodeTypeProduct,
	"productnode":      NodeTypeProduct,
	"feature":          NodeTypeProduct,
	"external":         NodeTypeExternal,
	"externalnode":     NodeTypeExternal,
	"externalservice":  NodeTypeExternal,
	"external_service": NodeTypeExternal,
	"service":          NodeTypeExternal,
	"context":          NodeTypeContext,
	"contextnode":      NodeTypeContext,
	"note":             NodeTypeContext,
}

// ParseNodeType resolves a model supplied type tag. The second return value
// is false when the tag is unknown, in which case NodeTypeProduct is returned.
func ParseNodeType(tag string) (NodeType, bool) {
	key := strings.ToLower(strings.TrimSpace(tag))
	key = strings.ReplaceAll(key, "-", "_")
	if t, ok := nodeTypeAliases[key]; ok {
		return t, true
	}
	if t, ok := nodeTypeAliases[strings.ReplaceAll(key, "_", "")]; ok {
		return t, true
	}
	return NodeTypeProduct, false
}

// Position is the canvas coordinate of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GeneratedNode is a node exactly as the model wrote it. SourceID may be
// empty when the model omitted the id.
type GeneratedNode struct {
	SourceID string
	Type     NodeType
	Title    string
	Content  string
	Position Position
}

// GeneratedEdge is an edge exactly as the model wrote it. SourceRef and
// TargetRef point at a node's SourceID or its Title; the model is not
// consistent about which one it uses.
type GeneratedEdge struct {
	SourceRef string
	TargetRef string
	Label     string
}

// ParsedGraph is the structurally valid but not yet reconciled graph.
type ParsedGraph struct {
	Nodes []GeneratedNode
	Edges []GeneratedEdge
}

// Node is a vertex of a NormalizedGraph.
//
// ID is generated by the pipeline and unique within the graph. SourceID
// keeps the model's own identifier for tracing only and must not be used as
// a reference.
type Node struct {
	ID       string   `json:"id"`
	SourceID string   `json:"source_id,omitempty"`
	Type     NodeType `json:"type"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Position Position `json:"position"`
}

// Edge is a directed relationship between two nodes of a NormalizedGraph.
// Source and Target always hold the ID of an existing Node.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// NormalizedGraph is the final artifact handed to storage and presentation
// layers.
//
// Invariants:
//   - every node ID is unique;
//   - every edge endpoint is the ID of a node in Nodes;
//   - positions are rounded to two decimal places.
type NormalizedGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node returns the node with the given ID.
func (g *NormalizedGraph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// MarshalIndent renders the graph as indented JSON.
func (g *NormalizedGraph) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// Stage names the pipeline stage that emitted a Diagnostic.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageSanitize  Stage = "sanitize"
	StageRescan    Stage = "rescan"
	StageRepair    Stage = "repair"
	StageStructure Stage = "structure"
	StageNormalize Stage = "normalize"
)

// Diagnostic is a human readable note about a fix or relaxation applied by
// the pipeline. Diagnostics are informational and never drive control flow.
// Offset is -1 when the note is not tied to a position.
type Diagnostic struct {
	Stage   Stage  `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Offset  int    `json:"offset"`
}

func (d Diagnostic) String() string {
	if d.Offset >= 0 {
		return fmt.Sprintf("[%s] %s at %d: %s", d.Stage, d.Code, d.Offset, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Stage, d.Code, d.Message)
}

func note(stage Stage, code string, offset int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Stage:   stage,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	}
}
