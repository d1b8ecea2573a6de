package claudelog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const EnvClaudeDir = "CLAUDE_DIR"

func ResolveClaudeDir(override string) (string, error) {
	if v := strings.TrimSpace(override); v != "" {
		return filepath.Clean(os.ExpandEnv(v)), nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvClaudeDir)); v != "" {
		return filepath.Clean(os.ExpandEnv(v)), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude"), nil
}

// EncodeProjectPath converts an absolute working directory into the name
// Claude Code uses for the per-project session directory:
// /Users/james/foo -> -Users-james-foo.
func EncodeProjectPath(cwd string) string {
	return strings.ReplaceAll(cwd, "/", "-")
}

func ProjectDir(claudeDir, cwd string) string {
	return filepath.Join(claudeDir, "projects", EncodeProjectPath(cwd))
}

func isSessionFile(name string) bool {
	return strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".jsonl.xz")
}

// DiscoverSessions parses every session log under projectDir, in name
// order, skipping files modified before start (zero start keeps all) and,
// when sessionID is set, sessions whose parsed id differs. projectDir must
// resolve to a path under claudeDir's projects root before anything is
// opened.
func DiscoverSessions(claudeDir, projectDir string, start time.Time, sessionID string) ([]*Session, error) {
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project directory not found: %s", projectDir)
	}
	if !underDir(filepath.Join(claudeDir, "projects"), projectDir) {
		slog.Warn("project directory is outside the Claude data dir", "dir", projectDir)
		return nil, nil
	}

	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("read project directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || !isSessionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(projectDir, entry.Name())
		if !start.IsZero() {
			fi, err := entry.Info()
			if err != nil || fi.ModTime().Before(start) {
				continue
			}
		}
		session, err := ParseSession(path)
		if err != nil {
			slog.Warn("cannot read session file", "path", path, "err", err)
			continue
		}
		if session == nil {
			continue
		}
		if sessionID != "" && session.SessionID != sessionID {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// SessionFiles returns the session log paths under projectDir in name
// order, without parsing them.
func SessionFiles(projectDir string) ([]string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("read project directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isSessionFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(projectDir, entry.Name()))
	}
	return paths, nil
}

func underDir(parent, child string) bool {
	resolvedParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return false
	}
	resolvedChild, err := filepath.EvalSymlinks(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(resolvedParent, resolvedChild)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
