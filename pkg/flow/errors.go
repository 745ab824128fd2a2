package flow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPipeline is matched by every fatal error the pipeline returns.
//
//	if errors.Is(err, flow.ErrPipeline) { /* ask the model again */ }
var ErrPipeline = errors.New("flow pipeline error")

// UnrecoverableSyntaxError is returned when the parse-and-repair loop runs
// out of attempts or cannot locate the syntax error.
type UnrecoverableSyntaxError struct {
	LastMessage string
	Attempts    int
}

func (e *UnrecoverableSyntaxError) Error() string {
	return fmt.Sprintf("unrecoverable syntax after %d attempt(s): %s", e.Attempts, e.LastMessage)
}

func (e *UnrecoverableSyntaxError) Is(target error) bool { return target == ErrPipeline }

// MissingFieldError is returned when the top-level nodes or edges array is
// absent or not an array.
type MissingFieldError struct {
	Name string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Name)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrPipeline }

// InvalidNodeError reports the first node that failed structural validation.
type InvalidNodeError struct {
	Index  int
	Reason string
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("invalid node %d: %s", e.Index, e.Reason)
}

func (e *InvalidNodeError) Is(target error) bool { return target == ErrPipeline }

// InvalidEdgeError reports the first edge that failed structural validation.
type InvalidEdgeError struct {
	Index  int
	Reason string
}

func (e *InvalidEdgeError) Error() string {
	return fmt.Sprintf("invalid edge %d: %s", e.Index, e.Reason)
}

func (e *InvalidEdgeError) Is(target error) bool { return target == ErrPipeline }

// SemanticError carries semantic violations when a caller decides to treat
// them as a failure. The pipeline itself never returns it from Process.
type SemanticError struct {
	Violations []SemanticViolation
}

func (e *SemanticError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("%d semantic violation(s): %s", len(e.Violations), strings.Join(msgs, "; "))
}
