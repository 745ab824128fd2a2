package flow

import (
	"github.com/invopop/jsonschema"
)

type schemaPosition struct {
	X float64 `json:"x" jsonschema_description:"Horizontal canvas coordinate"`
	Y float64 `json:"y" jsonschema_description:"Vertical canvas coordinate"`
}

type schemaNode struct {
	ID       string         `json:"id" jsonschema_description:"Unique identifier of the node, referenced by edges"`
	Type     string         `json:"type" jsonschema:"enum=product,enum=external,enum=context" jsonschema_description:"product for features, external for third-party services, context for notes"`
	Title    string         `json:"title" jsonschema_description:"Short name of the step"`
	Content  string         `json:"content" jsonschema_description:"Description of what happens in this step. External nodes must name the service they integrate"`
	Position schemaPosition `json:"position" jsonschema_description:"Position of the node on the canvas"`
}

type schemaEdge struct {
	Source string `json:"source" jsonschema_description:"id of the node the edge starts at"`
	Target string `json:"target" jsonschema_description:"id of the node the edge points to"`
	Label  string `json:"label,omitempty" jsonschema_description:"Optional description of the transition"`
}

type schemaGraph struct {
	Nodes []schemaNode `json:"nodes" jsonschema_description:"Steps of the product flow"`
	Edges []schemaEdge `json:"edges" jsonschema_description:"Directed transitions between steps"`
}

// ResponseSchema returns the JSON Schema of the document the model is asked
// to produce. It is meant for clients that support structured output.
func ResponseSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&schemaGraph{})
}
