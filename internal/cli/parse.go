package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OFFIS-RIT/flowgen/internal/config"
	"github.com/OFFIS-RIT/flowgen/pkg/flow"
	"github.com/OFFIS-RIT/flowgen/pkg/logger"

	"github.com/spf13/cobra"
)

type parseOptions struct {
	skipSemantics bool
	strict        bool
	pretty        bool
	diagnostics   bool
}

type parseOutput struct {
	Source      string                   `json:"source"`
	Graph       *flow.NormalizedGraph    `json:"graph,omitempty"`
	Error       string                   `json:"error,omitempty"`
	Violations  []flow.SemanticViolation `json:"violations,omitempty"`
	Diagnostics []flow.Diagnostic        `json:"diagnostics,omitempty"`
}

func newParseCmd(cfg *config.Config) *cobra.Command {
	opts := &parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse model output into a normalized graph",
		Long: `Reads model output from the given files, or from stdin when no file is
given, and prints one JSON result per input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, cfg, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.skipSemantics, "skip-semantics", false, "only check structure, skip content rules")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when a graph has semantic violations")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&opts.diagnostics, "diagnostics", false, "include repair diagnostics in the output")
	return cmd
}

func runParse(cmd *cobra.Command, cfg *config.Config, opts *parseOptions, args []string) error {
	sources, inputs, err := readInputs(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	params := cfg.PipelineParams()
	params.SkipSemantics = opts.skipSemantics
	pipeline := flow.NewPipeline(params)

	results, errs := pipeline.ProcessAll(cmd.Context(), inputs)

	outputs := make([]parseOutput, len(inputs))
	failed, rejected := 0, 0
	for i := range inputs {
		out := parseOutput{Source: sources[i]}
		if res := results[i]; res != nil {
			out.Graph = res.Graph
			out.Violations = res.Violations
			if opts.diagnostics {
				out.Diagnostics = res.Diagnostics
			}
			if res.Graph != nil && len(res.Violations) > 0 {
				rejected++
			}
		}
		if errs[i] != nil {
			out.Error = errs[i].Error()
			failed++
			logger.Error("Failed to parse flow", "source", sources[i], "err", errs[i])
		}
		outputs[i] = out
	}

	var payload any = outputs
	if len(outputs) == 1 {
		payload = outputs[0]
	}
	if err := writeJSON(cmd.OutOrStdout(), payload, opts.pretty); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d input(s) failed: %w", failed, len(inputs), flow.ErrPipeline)
	}
	if opts.strict && rejected > 0 {
		return fmt.Errorf("%d of %d input(s): %w", rejected, len(inputs), ErrRejected)
	}
	return nil
}

func writeJSON(w io.Writer, payload any, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func readInputs(stdin io.Reader, args []string) ([]string, []string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []string{"-"}, []string{string(data)}, nil
	}

	sources := make([]string, 0, len(args))
	inputs := make([]string, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, path)
		inputs = append(inputs, string(data))
	}
	return sources, inputs, nil
}

// ExitCode maps an error returned by the command tree to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrRejected):
		return 2
	default:
		return 1
	}
}
