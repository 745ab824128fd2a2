package flow

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/flowgen/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Pipeline turns raw model output into a NormalizedGraph. It holds no
// mutable state, so one Pipeline may serve any number of concurrent calls.
//
// A Pipeline should be created using NewPipeline.
type Pipeline struct {
	rules         SemanticRules
	repair        RepairOptions
	skipSemantics bool
	parallel      int
	newID         IDGenerator
}

// NewPipelineParams defines the configuration for NewPipeline.
//
// MaxAttempts and WindowRadius bound the parse-and-repair loop and default
// to DefaultMaxAttempts and DefaultWindowRadius. Parallel limits ProcessAll
// and defaults to 4. IDGenerator defaults to NanoID.
type NewPipelineParams struct {
	Rules         SemanticRules
	MaxAttempts   int
	WindowRadius  int
	SkipSemantics bool
	Parallel      int
	IDGenerator   IDGenerator
}

// NewPipeline creates a Pipeline from params.
//
// Example:
//
//	p := flow.NewPipeline(flow.NewPipelineParams{
//		Rules:       flow.DefaultSemanticRules(),
//		MaxAttempts: 3,
//	})
//	res, err := p.Process(completion)
func NewPipeline(params NewPipelineParams) *Pipeline {
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 4
	}
	newID := params.IDGenerator
	if newID == nil {
		newID = NanoID
	}
	return &Pipeline{
		rules: params.Rules,
		repair: RepairOptions{
			MaxAttempts:  params.MaxAttempts,
			WindowRadius: params.WindowRadius,
		}.withDefaults(),
		skipSemantics: params.SkipSemantics,
		parallel:      parallel,
		newID:         newID,
	}
}

// Result is the outcome of one pipeline invocation.
//
// Graph is nil when Process returned an error. Diagnostics list every fix
// and relaxation in stage order. Violations are semantic warnings; they
// never cause Process to fail.
type Result struct {
	Graph       *NormalizedGraph    `json:"graph,omitempty"`
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty"`
	Violations  []SemanticViolation `json:"violations,omitempty"`
}

// Accepted reports whether the graph passed semantic validation.
func (r *Result) Accepted() bool {
	return r.Graph != nil && len(r.Violations) == 0
}

// Process runs the full pipeline over raw with default repair options.
func Process(raw string, rules SemanticRules) (*Result, error) {
	return NewPipeline(NewPipelineParams{Rules: rules}).Process(raw)
}

// Process runs extraction, sanitization, boundary scanning, parse-and-repair,
// structural validation, normalization and, unless disabled, semantic
// validation. The returned error is one of the pipeline error types and
// matches ErrPipeline; the Result is returned alongside it so callers can
// log the diagnostics.
func (p *Pipeline) Process(raw string) (*Result, error) {
	start := time.Now()
	res := &Result{}

	doc, diags := Extract(raw)
	res.Diagnostics = append(res.Diagnostics, diags...)

	doc, diags = Sanitize(doc)
	res.Diagnostics = append(res.Diagnostics, diags...)

	doc, diags = Rescan(doc)
	res.Diagnostics = append(res.Diagnostics, diags...)

	parsed, diags, err := ParseWithRepair(doc, p.repair)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		logDiagnostics(res.Diagnostics)
		logger.Warn("[Flow] Pipeline failed", "err", err)
		return res, err
	}

	graph, diags, err := Normalize(parsed, p.newID)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		logDiagnostics(res.Diagnostics)
		return res, err
	}
	res.Graph = graph

	if !p.skipSemantics {
		res.Violations = ValidateSemantics(graph, p.rules)
		for _, v := range res.Violations {
			logger.Warn("[Flow] Semantic violation", "rule", v.Rule, "node", v.Title, "message", v.Message)
		}
	}

	logDiagnostics(res.Diagnostics)
	logger.Debug("[Flow] Processed",
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
		"diagnostics", len(res.Diagnostics),
		"violations", len(res.Violations),
		"duration", time.Since(start),
	)

	return res, nil
}

// ProcessAll runs Process for every input concurrently, at most Parallel at
// a time. results[i] and errs[i] belong to raws[i]. Inputs not started
// before ctx is done get ctx.Err().
func (p *Pipeline) ProcessAll(ctx context.Context, raws []string) ([]*Result, []error) {
	results := make([]*Result, len(raws))
	errs := make([]error, len(raws))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.parallel)
	for i, raw := range raws {
		eg.Go(func() error {
			if err := gCtx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = p.Process(raw)
			return nil
		})
	}
	_ = eg.Wait()

	return results, errs
}

// Rules returns the semantic rules the pipeline applies.
func (p *Pipeline) Rules() SemanticRules {
	return p.rules
}

func logDiagnostics(diags []Diagnostic) {
	for _, d := range diags {
		logger.Debug("[Flow] "+d.Message, "stage", d.Stage, "code", d.Code, "offset", d.Offset)
	}
}
