package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/OFFIS-RIT/flowgen/internal/config"
	"github.com/OFFIS-RIT/flowgen/pkg/flow"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	strict      bool
	pretty      bool
	diagnostics bool
}

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate -- command [args...]",
		Short: "Run a model command until it produces a usable graph",
		Long: `Runs the given command and parses its stdout as model output. When the
output cannot be used the command is run again, with an explanation of the
problem on its stdin and in FLOW_FEEDBACK, up to FLOW_MAX_GENERATIONS times.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, cfg, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "regenerate while a graph has semantic violations")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&opts.diagnostics, "diagnostics", false, "include repair diagnostics in the output")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, opts *generateOptions, args []string) error {
	pipeline := flow.NewPipeline(cfg.PipelineParams())
	gen := commandGenerator(args[0], args[1:]...)

	res, err := pipeline.Generate(cmd.Context(), gen, cfg.GenerateOptions(opts.strict))

	out := parseOutput{Source: strings.Join(args, " ")}
	if res != nil {
		out.Graph = res.Graph
		out.Violations = res.Violations
		if opts.diagnostics {
			out.Diagnostics = res.Diagnostics
		}
	}
	if err != nil {
		out.Error = err.Error()
	}
	if werr := writeJSON(cmd.OutOrStdout(), out, opts.pretty); werr != nil {
		return werr
	}

	var semanticErr *flow.SemanticError
	if errors.As(err, &semanticErr) {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return err
}

// commandGenerator runs name with args once per generation and returns its
// stdout. Feedback goes to stdin and to the FLOW_FEEDBACK variable.
func commandGenerator(name string, args ...string) flow.Generator {
	return func(ctx context.Context, feedback string) (string, error) {
		var stdout, stderr bytes.Buffer
		c := exec.CommandContext(ctx, name, args...)
		c.Stdin = strings.NewReader(feedback)
		c.Stdout = &stdout
		c.Stderr = &stderr
		c.Env = append(os.Environ(), "FLOW_FEEDBACK="+feedback)

		if err := c.Run(); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), nil
	}
}
