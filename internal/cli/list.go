package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesnordlund/sessionbook/internal/claudelog"
	"github.com/jamesnordlund/sessionbook/internal/output"
)

type sessionRow struct {
	SessionID    string    `json:"sessionId"`
	File         string    `json:"file"`
	FirstPrompt  string    `json:"firstPrompt,omitempty"`
	MessageCount int       `json:"messageCount"`
	ModifiedAt   time.Time `json:"modifiedAt"`
	Converted    bool      `json:"converted"`
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List this project's sessions and their conversion status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadedConfig(opts)
			if err != nil {
				return err
			}
			claudeDir, err := claudelog.ResolveClaudeDir(cfg.ClaudeDir)
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			rows, err := collectSessionRows(claudeDir, cwd, cfg.OutputDirName)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No sessions found for this project.")
				return nil
			}
			for _, row := range rows {
				status := " "
				if row.Converted {
					status = "✓"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %-40s %4d msgs  %s  %s\n",
					status, row.SessionID, row.MessageCount,
					row.ModifiedAt.Format("2006-01-02 15:04"), firstPromptPreview(row.FirstPrompt))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func collectSessionRows(claudeDir, cwd, outDirName string) ([]sessionRow, error) {
	projectDir := claudelog.ProjectDir(claudeDir, cwd)
	paths, err := claudelog.SessionFiles(projectDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no session logs for this project under %s", projectDir)
		}
		return nil, err
	}

	seen := output.NewDir(filepath.Join(cwd, outDirName)).ExistingSessionIDs()

	rows := make([]sessionRow, 0, len(paths))
	for _, path := range paths {
		meta, err := claudelog.ReadFileMeta(path)
		if err != nil {
			slog.Warn("cannot read session file", "path", path, "err", err)
			continue
		}
		rows = append(rows, sessionRow{
			SessionID:    meta.SessionID,
			File:         filepath.Base(path),
			FirstPrompt:  meta.FirstPrompt,
			MessageCount: meta.MessageCount,
			ModifiedAt:   meta.ModifiedAt,
			Converted:    seen[meta.SessionID],
		})
	}
	return rows, nil
}

// firstPromptPreview flattens whitespace and trims the prompt to one
// short display line.
func firstPromptPreview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return s
}
