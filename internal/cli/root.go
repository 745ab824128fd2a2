package cli

import (
	"errors"

	"github.com/OFFIS-RIT/flowgen/internal/config"

	"github.com/spf13/cobra"
)

// ErrRejected is returned by parse --strict when a graph has semantic
// violations.
var ErrRejected = errors.New("graph rejected by semantic validation")

// NewRootCmd builds the flowgen command tree around cfg.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "flowgen",
		Short: "Recover product-flow graphs from language model output",
		Long: `flowgen turns the text a language model produced when asked for a
flow graph into validated JSON with stable node ids.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newParseCmd(cfg))
	root.AddCommand(newGenerateCmd(cfg))
	root.AddCommand(newSchemaCmd())
	return root
}
