package capture

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesnordlund/sessionbook/internal/claudelog"
	"github.com/jamesnordlund/sessionbook/internal/output"
	"github.com/jamesnordlund/sessionbook/internal/render"
)

// Converter turns session logs for the current project into saved
// transcripts. The output directory lives under the working directory,
// so transcripts stay with the project they came from.
type Converter struct {
	ClaudeDir  string
	OutDirName string
	Renderer   *render.Renderer
}

// ConvertSince converts sessions modified at or after start. Failures
// are logged and skipped so one bad session never blocks the rest.
func (c *Converter) ConvertSince(start time.Time) {
	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("determine working directory", "error", err)
		return
	}
	projectDir := claudelog.ProjectDir(c.ClaudeDir, cwd)

	sessions, err := claudelog.DiscoverSessions(c.ClaudeDir, projectDir, start, "")
	if err != nil {
		slog.Warn("skipping conversion", "error", err)
		return
	}
	if len(sessions) == 0 {
		slog.Info("no session data found")
		return
	}

	dir := output.NewDir(filepath.Join(cwd, c.OutDirName))
	seen := dir.ExistingSessionIDs()
	for _, session := range sessions {
		if seen[session.SessionID] {
			slog.Info("skipping already-saved session", "session", session.SessionID)
			continue
		}
		if len(session.Turns) == 0 {
			slog.Info("skipping empty session", "session", session.SessionID)
			continue
		}
		if c.save(dir, session) {
			seen[session.SessionID] = true
		}
	}
}

// Sync converts all existing sessions for the current project,
// optionally restricted to a single session id, and returns the process
// exit code.
func (c *Converter) Sync(sessionID string) int {
	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("determine working directory", "error", err)
		return 1
	}
	projectDir := claudelog.ProjectDir(c.ClaudeDir, cwd)

	sessions, err := claudelog.DiscoverSessions(c.ClaudeDir, projectDir, time.Time{}, sessionID)
	if err != nil {
		slog.Warn("no sessions to convert", "error", err)
		return 1
	}

	dir := output.NewDir(filepath.Join(cwd, c.OutDirName))
	seen := dir.ExistingSessionIDs()
	count := 0
	for _, session := range sessions {
		if seen[session.SessionID] {
			slog.Info("skipping already-saved session", "session", session.SessionID)
			continue
		}
		if len(session.Turns) == 0 {
			slog.Info("session has no extractable turns, skipping", "session", session.SessionID)
			continue
		}
		if c.save(dir, session) {
			seen[session.SessionID] = true
			count++
		}
	}

	slog.Info("converted sessions", "count", count)
	return 0
}

// save renders one session and writes it out, reporting whether the
// transcript landed on disk.
func (c *Converter) save(dir *output.Dir, session *claudelog.Session) bool {
	doc := c.Renderer.Render(session)
	path, err := dir.Save(session, doc)
	if err != nil {
		slog.Error("failed to save session", "session", session.SessionID, "error", err)
		return false
	}
	slog.Info("saved session transcript",
		"file", filepath.Base(path),
		"turns", len(session.Turns),
		"thinking_blocks", session.ThinkingCount(),
		"sub_agents", session.SubAgentCount())
	return true
}
