package claudelog

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

type ThinkingBlock struct {
	Text string
}

type UserChoice struct {
	Question      string
	Options       []string
	SelectedIndex int
}

type SubAgentRef struct {
	AgentID        string
	SubagentType   string
	Description    string
	Summary        string
	DurationMS     *float64
	ToolUseCount   *int
	TranscriptPath string
}

type Turn struct {
	Role      string
	Text      string
	Timestamp string
	Thinking  []ThinkingBlock
	Choice    *UserChoice
	SubAgents []SubAgentRef
}

type Session struct {
	SessionID string
	FilePath  string
	Turns     []Turn
	// Progress keeps raw agent_progress records grouped by the parent
	// tool-use id for later transcript reconstruction.
	Progress map[string][]json.RawMessage
}

func (s *Session) ThinkingCount() int {
	n := 0
	for _, turn := range s.Turns {
		n += len(turn.Thinking)
	}
	return n
}

func (s *Session) SubAgentCount() int {
	n := 0
	for _, turn := range s.Turns {
		n += len(turn.SubAgents)
	}
	return n
}

// Agent ids end up in file and link targets, so anything outside this
// allow-list is rejected outright.
var agentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func ValidAgentID(id string) bool {
	return agentIDPattern.MatchString(id)
}

func ParseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}
