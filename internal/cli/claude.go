package cli

import (
	"github.com/spf13/cobra"

	"github.com/jamesnordlund/sessionbook/internal/capture"
)

// newClaudeCmd wraps the claude binary. Flag parsing is disabled so
// every argument, including flags like --continue or --help, reaches
// claude untouched.
func newClaudeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                "claude [args...]",
		Short:              "Run claude and save the sessions it writes",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := buildConverter(opts)
			if err != nil {
				return err
			}
			opts.exitCode = capture.NewSupervisor(conv).Run(args)
			return nil
		},
	}
	return cmd
}
