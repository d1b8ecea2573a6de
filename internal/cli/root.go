package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jamesnordlund/sessionbook/internal/capture"
	"github.com/jamesnordlund/sessionbook/internal/claudelog"
	"github.com/jamesnordlund/sessionbook/internal/config"
	"github.com/jamesnordlund/sessionbook/internal/render"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type rootOptions struct {
	configPath string
	verbose    bool
	exitCode   int
}

// Execute runs the command tree and returns the process exit code. The
// claude and sync commands report their own codes through rootOptions so
// a wrapped claude's exit status passes through untouched.
func Execute() int {
	opts := &rootOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return opts.exitCode
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sessionbook",
		Short:         "Save Claude Code sessions as self-contained HTML files",
		SilenceErrors: false,
		SilenceUsage:  true,
		Version:       buildVersion(),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(opts.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			opts.exitCode = 1
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Override config file path (default: OS user config dir)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newClaudeCmd(opts),
		newSyncCmd(opts),
		newListCmd(opts),
		newInitCmd(opts),
	)

	return cmd
}

func buildVersion() string {
	v := version
	if commit != "" {
		v += " (" + commit + ")"
	}
	if date != "" {
		v += " " + date
	}
	return v
}

// setupLogging routes diagnostics to stderr. Timestamps are dropped when
// stderr is a terminal so the wrapper's output stays unobtrusive next to
// the wrapped command's own.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose || os.Getenv("SESSIONBOOK_DEBUG") == "1" {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		hopts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, hopts)))
}

// loadedConfig reads the config file named by --config, the
// SESSIONBOOK_CONFIG environment variable, or the default path. The env
// var matters for the claude command, whose argv is forwarded verbatim
// and so cannot carry wrapper flags.
func loadedConfig(opts *rootOptions) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv("SESSIONBOOK_CONFIG")
	}
	store, err := config.NewStore(path)
	if err != nil {
		return config.Config{}, err
	}
	return store.Load()
}

func buildConverter(opts *rootOptions) (*capture.Converter, error) {
	cfg, err := loadedConfig(opts)
	if err != nil {
		return nil, err
	}
	claudeDir, err := claudelog.ResolveClaudeDir(cfg.ClaudeDir)
	if err != nil {
		return nil, err
	}
	return &capture.Converter{
		ClaudeDir:  claudeDir,
		OutDirName: cfg.OutputDirName,
		Renderer:   render.New(render.Config{HighlightStyle: cfg.HighlightStyle}),
	}, nil
}
