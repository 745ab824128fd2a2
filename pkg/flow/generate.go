package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/flowgen/internal/util"
	"github.com/OFFIS-RIT/flowgen/pkg/logger"
)

// Generator produces raw model output. feedback is empty on the first call
// and otherwise explains why the previous output was rejected, so the
// caller can clarify its prompt. Timeouts around the model call are the
// generator's responsibility.
type Generator func(ctx context.Context, feedback string) (string, error)

// GenerateOptions configures Pipeline.Generate.
type GenerateOptions struct {
	// MaxGenerations is the number of times gen is called at most.
	MaxGenerations int
	// Strict rejects graphs with semantic violations.
	Strict bool
}

// Generate calls gen and runs its output through the pipeline until a graph
// is accepted or MaxGenerations is reached. On failure the last Result (if
// any) is returned with the last error.
func (p *Pipeline) Generate(ctx context.Context, gen Generator, opts GenerateOptions) (*Result, error) {
	feedback := ""
	var last *Result

	res, err := util.RetryWithContext(ctx, opts.MaxGenerations, func(ctx context.Context, generation int) (*Result, error) {
		raw, err := gen(ctx, feedback)
		if err != nil {
			return nil, fmt.Errorf("failed to generate flow: %w", err)
		}

		res, err := p.Process(raw)
		last = res
		if err == nil && opts.Strict && !res.Accepted() {
			err = &SemanticError{Violations: res.Violations}
		}
		if err != nil {
			feedback = Feedback(err)
			logger.Info("[Flow] Rejected generation", "generation", generation, "err", err)
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return last, err
	}
	return res, nil
}

// Feedback turns a pipeline or semantic error into an instruction for the
// next generation.
func Feedback(err error) string {
	var (
		syntaxErr   *UnrecoverableSyntaxError
		missingErr  *MissingFieldError
		nodeErr     *InvalidNodeError
		edgeErr     *InvalidEdgeError
		semanticErr *SemanticError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return "The previous answer was not valid JSON (" + syntaxErr.LastMessage + "). " +
			"Answer with a single JSON object only, without markdown, comments or text around it, " +
			"and escape line breaks inside strings."
	case errors.As(err, &missingErr):
		return fmt.Sprintf("The previous answer had no %q array. The object must contain both \"nodes\" and \"edges\" arrays.", missingErr.Name)
	case errors.As(err, &nodeErr):
		return fmt.Sprintf("Node %d of the previous answer was invalid: %s. "+
			"Every node needs id, type, title, content and a numeric position {x, y}.", nodeErr.Index, nodeErr.Reason)
	case errors.As(err, &edgeErr):
		return fmt.Sprintf("Edge %d of the previous answer was invalid: %s. "+
			"Every edge needs a source and a target node id.", edgeErr.Index, edgeErr.Reason)
	case errors.As(err, &semanticErr):
		var b strings.Builder
		b.WriteString("Some nodes of the previous answer were too vague:\n")
		for _, v := range semanticErr.Violations {
			fmt.Fprintf(&b, "- %s: %s\n", v.Title, v.Message)
		}
		b.WriteString("Describe these nodes in more detail and name the concrete external service where one is used.")
		return b.String()
	case err != nil:
		return "The previous answer could not be used: " + err.Error()
	}
	return ""
}
