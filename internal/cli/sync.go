package cli

import (
	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [session-id]",
		Short: "Convert existing sessions for this project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := buildConverter(opts)
			if err != nil {
				return err
			}
			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			opts.exitCode = conv.Sync(sessionID)
			return nil
		},
	}
	return cmd
}
