package flow

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/OFFIS-RIT/flowgen/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// IDGenerator returns a fresh identifier on every call.
type IDGenerator func() (string, error)

// NanoID is the default IDGenerator.
func NanoID() (string, error) {
	return gonanoid.New()
}

// maxIDCollisions bounds regeneration when a generator repeats itself.
const maxIDCollisions = 8

// Normalize assigns fresh ids to every node and edge and resolves edge
// references. A reference is matched against node source ids first, then
// exact titles, then case-insensitive titles. Edges with an unresolved
// endpoint are dropped and reported as diagnostics; self loops are kept.
func Normalize(parsed *ParsedGraph, newID IDGenerator) (*NormalizedGraph, []Diagnostic, error) {
	if parsed == nil {
		return nil, nil, errors.New("no graph to normalize")
	}
	if newID == nil {
		newID = NanoID
	}
	var diags []Diagnostic
	used := make(map[string]struct{}, len(parsed.Nodes)+len(parsed.Edges))

	next := func() (string, error) {
		for range maxIDCollisions {
			id, err := newID()
			if err != nil {
				return "", err
			}
			if _, dup := used[id]; !dup {
				used[id] = struct{}{}
				return id, nil
			}
		}
		return "", fmt.Errorf("id generator repeated itself %d times", maxIDCollisions)
	}

	byID := make(map[string]string, len(parsed.Nodes))
	byTitle := make(map[string]string, len(parsed.Nodes))
	byFoldedTitle := make(map[string]string, len(parsed.Nodes))

	graph := &NormalizedGraph{
		Nodes: make([]Node, 0, len(parsed.Nodes)),
		Edges: make([]Edge, 0, len(parsed.Edges)),
	}

	for _, n := range parsed.Nodes {
		id, err := next()
		if err != nil {
			return nil, diags, fmt.Errorf("failed to generate ID for node: %w", err)
		}
		if n.SourceID != "" {
			if _, ok := byID[n.SourceID]; ok {
				diags = append(diags, note(StageNormalize, "duplicate_source_id", -1, "source id %q used by more than one node", n.SourceID))
			} else {
				byID[n.SourceID] = id
			}
		}
		if _, ok := byTitle[n.Title]; !ok {
			byTitle[n.Title] = id
		}
		if folded := foldTitle(n.Title); folded != "" {
			if _, ok := byFoldedTitle[folded]; !ok {
				byFoldedTitle[folded] = id
			}
		}

		graph.Nodes = append(graph.Nodes, Node{
			ID:       id,
			SourceID: n.SourceID,
			Type:     n.Type,
			Title:    n.Title,
			Content:  n.Content,
			Position: Position{X: round2(n.Position.X), Y: round2(n.Position.Y)},
		})
	}

	resolve := func(ref string) (string, bool) {
		if id, ok := byID[ref]; ok {
			return id, true
		}
		if id, ok := byTitle[ref]; ok {
			return id, true
		}
		id, ok := byFoldedTitle[foldTitle(ref)]
		return id, ok
	}

	for i, e := range parsed.Edges {
		source, okSource := resolve(e.SourceRef)
		target, okTarget := resolve(e.TargetRef)
		if !okSource || !okTarget {
			logger.Warn("[Flow] Dropping edge with unresolved endpoint", "index", i, "source", e.SourceRef, "target", e.TargetRef)
			diags = append(diags, note(StageNormalize, "unresolved_edge", -1, "dropped edge %d (%s -> %s)", i, e.SourceRef, e.TargetRef))
			continue
		}
		id, err := next()
		if err != nil {
			return nil, diags, fmt.Errorf("failed to generate ID for edge: %w", err)
		}
		graph.Edges = append(graph.Edges, Edge{
			ID:     id,
			Source: source,
			Target: target,
			Label:  e.Label,
		})
	}

	return graph, diags, nil
}

func foldTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// round2 rounds to two decimals. Values too large to scale are already
// integral and returned as is.
func round2(v float64) float64 {
	scaled := v * 100
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return v
	}
	return math.Round(scaled) / 100
}
