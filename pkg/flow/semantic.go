package flow

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SemanticRules configures ValidateSemantics.
type SemanticRules struct {
	// MinContentLength applies to every node.
	MinContentLength int
	// MinExternalServiceContentLength applies to external nodes that do not
	// name a known service.
	MinExternalServiceContentLength int
	// KnownExternalServiceNames are matched case-insensitively against the
	// title and content of external nodes.
	KnownExternalServiceNames []string
}

// DefaultSemanticRules returns the rules used when nothing is configured.
func DefaultSemanticRules() SemanticRules {
	return SemanticRules{
		MinContentLength:                10,
		MinExternalServiceContentLength: 40,
		KnownExternalServiceNames: []string{
			"Stripe", "PayPal", "Google", "Apple", "AWS", "Azure", "Firebase",
			"Auth0", "Twilio", "SendGrid", "Mailchimp", "Slack", "GitHub",
			"OpenAI", "Shopify", "Salesforce", "Zapier", "Supabase",
		},
	}
}

// Semantic rule names.
const (
	RuleMinContent      = "min_content_length"
	RuleExternalService = "external_service_detail"
)

// SemanticViolation describes one node that broke a content rule.
type SemanticViolation struct {
	NodeID  string `json:"node_id"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v SemanticViolation) String() string {
	return fmt.Sprintf("node %d %q: %s", v.Index, v.Title, v.Message)
}

// ValidateSemantics applies rules to every node of graph and returns all
// violations. An empty result means the graph passed; a nil graph has no
// nodes and always passes.
func ValidateSemantics(graph *NormalizedGraph, rules SemanticRules) []SemanticViolation {
	if graph == nil {
		return nil
	}
	var violations []SemanticViolation

	for i, n := range graph.Nodes {
		length := utf8.RuneCountInString(strings.TrimSpace(n.Content))

		if length < rules.MinContentLength {
			violations = append(violations, SemanticViolation{
				NodeID:  n.ID,
				Index:   i,
				Title:   n.Title,
				Rule:    RuleMinContent,
				Message: fmt.Sprintf("content has %d characters, need at least %d", length, rules.MinContentLength),
			})
		}

		if n.Type != NodeTypeExternal {
			continue
		}
		if length >= rules.MinExternalServiceContentLength || namesKnownService(n, rules.KnownExternalServiceNames) {
			continue
		}
		violations = append(violations, SemanticViolation{
			NodeID: n.ID,
			Index:  i,
			Title:  n.Title,
			Rule:   RuleExternalService,
			Message: fmt.Sprintf(
				"external service node names no known service and has %d characters, need at least %d",
				length, rules.MinExternalServiceContentLength,
			),
		})
	}

	return violations
}

func namesKnownService(n Node, names []string) bool {
	title := strings.ToLower(n.Title)
	content := strings.ToLower(n.Content)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if strings.Contains(title, name) || strings.Contains(content, name) {
			return true
		}
	}
	return false
}
