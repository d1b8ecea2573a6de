package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/cobra"

	"github.com/jamesnordlund/sessionbook/internal/config"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create or update the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := config.NewStore(opts.configPath)
			if err != nil {
				return err
			}

			// A broken existing file should not wedge init, which is
			// the tool for fixing it.
			cfg, err := store.Load()
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Existing config is unreadable (%v); starting from defaults.\n", err)
				cfg = config.Default()
			}

			r := bufio.NewReader(os.Stdin)

			style := prompt(r, "Highlight style", cfg.HighlightStyle)
			if _, ok := styles.Registry[style]; !ok {
				_, _ = fmt.Fprintf(os.Stderr, "Unknown style %q; the fallback style will be used for code blocks.\n", style)
			}

			outDir := promptOutputDir(r, cfg.OutputDirName)

			claudeDir := prompt(r, "Claude data dir (blank for auto-detect)", cfg.ClaudeDir)
			if claudeDir != "" {
				if st, err := os.Stat(claudeDir); err != nil || !st.IsDir() {
					_, _ = fmt.Fprintf(os.Stderr, "Warning: %s is not a directory right now.\n", claudeDir)
				}
			}

			cfg.HighlightStyle = style
			cfg.OutputDirName = outDir
			cfg.ClaudeDir = claudeDir

			if err := store.Save(cfg); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved config to %s\n", store.Path())
			return nil
		},
	}
	return cmd
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		_, _ = fmt.Fprintf(os.Stderr, "%s [%s]: ", label, def)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "%s: ", label)
	}
	s, _ := r.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// promptOutputDir keeps asking until it gets a bare directory name.
// Transcripts always land directly under the project root.
func promptOutputDir(r *bufio.Reader, def string) string {
	for {
		v := prompt(r, "Output directory name", def)
		if v != "" && v != "." && v != ".." && !strings.ContainsAny(v, `/\`) {
			return v
		}
		_, _ = fmt.Fprintln(os.Stderr, "Output directory must be a bare directory name.")
	}
}
