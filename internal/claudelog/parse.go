package claudelog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

type recordEnvelope struct {
	Type            string          `json:"type"`
	IsMeta          bool            `json:"isMeta"`
	IsSidechain     bool            `json:"isSidechain"`
	SessionID       string          `json:"sessionId"`
	Timestamp       string          `json:"timestamp"`
	ParentToolUseID string          `json:"parentToolUseID"`
	Message         json.RawMessage `json:"message"`
	Data            json.RawMessage `json:"data"`
	ToolUseResult   json.RawMessage `json:"toolUseResult"`
}

type recordMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type recordClass int

const (
	classIgnore recordClass = iota
	classUser
	classAssistant
	classProgress
)

// classifyRecord applies the acceptance rules in order. Progress records
// are only kept when they carry an agent_progress payload and a parent
// tool-use id to group them under.
func classifyRecord(env recordEnvelope) (recordClass, string) {
	if env.Type == "progress" {
		if isAgentProgress(env.Data) && env.ParentToolUseID != "" {
			return classProgress, env.ParentToolUseID
		}
		return classIgnore, ""
	}
	if env.Type != "user" && env.Type != "assistant" {
		return classIgnore, ""
	}
	if env.IsMeta {
		return classIgnore, ""
	}
	if env.IsSidechain {
		return classIgnore, ""
	}
	if env.Type == "user" {
		return classUser, ""
	}
	return classAssistant, ""
}

func isAgentProgress(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var data struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return false
	}
	return data.Type == "agent_progress"
}

func decodeMessage(raw json.RawMessage) recordMessage {
	if len(raw) == 0 {
		return recordMessage{}
	}
	var msg recordMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return recordMessage{}
	}
	return msg
}

func contentAsString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func contentAsList(raw json.RawMessage) ([]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func numberField(m map[string]any, key string) (float64, bool) {
	n, ok := m[key].(float64)
	return n, ok
}

// extractText returns string content verbatim; list content collapses to
// the text-typed blocks joined by newline. Anything else is empty.
func extractText(raw json.RawMessage) string {
	if s, ok := contentAsString(raw); ok {
		return s
	}
	items, ok := contentAsList(raw)
	if !ok {
		return ""
	}
	var parts []string
	for _, item := range items {
		block, ok := item.(map[string]any)
		if !ok || stringField(block, "type") != "text" {
			continue
		}
		parts = append(parts, stringField(block, "text"))
	}
	return strings.Join(parts, "\n")
}

func isCommandEcho(text string) bool {
	return strings.HasPrefix(text, "<command-") || strings.HasPrefix(text, "<local-command-")
}

type taskInvocation struct {
	subagentType string
	description  string
}

// turnFolder accumulates streamed assistant fragments until a real user
// message or end of stream flushes them as a single merged turn.
type turnFolder struct {
	turns        []Turn
	textParts    []string
	thinking     []ThinkingBlock
	subAgents    []SubAgentRef
	timestamp    string
	pendingTasks map[string]taskInvocation
	pendingAsks  map[string]any
}

func newTurnFolder() *turnFolder {
	return &turnFolder{
		pendingTasks: map[string]taskInvocation{},
		pendingAsks:  map[string]any{},
	}
}

func (f *turnFolder) addUser(env recordEnvelope, msg recordMessage) {
	if items, ok := contentAsList(msg.Content); ok {
		f.correlateToolResults(env, items)
		if onlyToolPlumbing(items) {
			return
		}
	}
	if s, ok := contentAsString(msg.Content); ok {
		if isCommandEcho(strings.TrimSpace(s)) {
			return
		}
	}
	text := extractText(msg.Content)
	if strings.TrimSpace(text) == "" {
		return
	}
	f.flush()
	f.turns = append(f.turns, Turn{Role: "user", Text: text, Timestamp: env.Timestamp})
}

func (f *turnFolder) addAssistant(env recordEnvelope, msg recordMessage) {
	items, ok := contentAsList(msg.Content)
	if !ok {
		return
	}
	var textParts []string
	for _, item := range items {
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch stringField(block, "type") {
		case "text":
			textParts = append(textParts, stringField(block, "text"))
		case "thinking":
			if text := stringField(block, "thinking"); text != "" {
				f.thinking = append(f.thinking, ThinkingBlock{Text: text})
				slog.Debug("extracted thinking block", "chars", len(text))
			}
		case "tool_use":
			f.registerToolUse(block)
		}
	}
	text := strings.Join(textParts, "\n")
	if text == "" {
		return
	}
	if len(f.textParts) == 0 {
		f.timestamp = env.Timestamp
	}
	f.textParts = append(f.textParts, text)
}

func (f *turnFolder) registerToolUse(block map[string]any) {
	id := stringField(block, "id")
	if id == "" {
		return
	}
	input, _ := block["input"].(map[string]any)
	switch stringField(block, "name") {
	case "Task":
		f.pendingTasks[id] = taskInvocation{
			subagentType: stringField(input, "subagent_type"),
			description:  stringField(input, "description"),
		}
	case "AskUserQuestion":
		f.pendingAsks[id] = input["questions"]
	}
}

func (f *turnFolder) correlateToolResults(env recordEnvelope, items []any) {
	for _, item := range items {
		block, ok := item.(map[string]any)
		if !ok || stringField(block, "type") != "tool_result" {
			continue
		}
		id := stringField(block, "tool_use_id")
		if task, ok := f.pendingTasks[id]; ok {
			delete(f.pendingTasks, id)
			if ref, ok := buildSubAgentRef(task, block, env.ToolUseResult); ok {
				f.subAgents = append(f.subAgents, ref)
			} else {
				slog.Warn("dropping sub-agent reference with missing or invalid agent id")
			}
		}
		if _, ok := f.pendingAsks[id]; ok {
			delete(f.pendingAsks, id)
			slog.Debug("AskUserQuestion result found, structured parsing not implemented")
		}
	}
}

func buildSubAgentRef(task taskInvocation, block map[string]any, sidecar json.RawMessage) (SubAgentRef, bool) {
	var meta map[string]any
	if len(sidecar) > 0 {
		_ = json.Unmarshal(sidecar, &meta)
	}
	agentID := stringField(meta, "agentId")
	if !ValidAgentID(agentID) {
		return SubAgentRef{}, false
	}

	var summaryParts []string
	if resultContent, ok := block["content"].([]any); ok {
		for _, part := range resultContent {
			pb, ok := part.(map[string]any)
			if !ok || stringField(pb, "type") != "text" {
				continue
			}
			text := stringField(pb, "text")
			if !strings.HasPrefix(text, "agentId:") {
				summaryParts = append(summaryParts, text)
			}
		}
	}

	ref := SubAgentRef{
		AgentID:      agentID,
		SubagentType: task.subagentType,
		Description:  task.description,
		Summary:      strings.Join(summaryParts, "\n"),
	}
	if ms, ok := numberField(meta, "totalDurationMs"); ok {
		ref.DurationMS = &ms
	}
	if n, ok := numberField(meta, "totalToolUseCount"); ok {
		count := int(n)
		ref.ToolUseCount = &count
	}
	return ref, true
}

func onlyToolPlumbing(items []any) bool {
	for _, item := range items {
		block, ok := item.(map[string]any)
		if !ok {
			return false
		}
		switch stringField(block, "type") {
		case "tool_result", "file_history_snapshot":
		default:
			return false
		}
	}
	return true
}

func (f *turnFolder) flush() {
	if len(f.textParts) > 0 {
		combined := strings.Join(f.textParts, "")
		if strings.TrimSpace(combined) != "" {
			f.turns = append(f.turns, Turn{
				Role:      "assistant",
				Text:      combined,
				Timestamp: f.timestamp,
				Thinking:  f.thinking,
				SubAgents: f.subAgents,
			})
		}
	}
	f.textParts = nil
	f.thinking = nil
	f.subAgents = nil
	f.timestamp = ""
}

func (f *turnFolder) finish() []Turn {
	f.flush()
	return f.turns
}

// SessionStem is the session file name without its .jsonl or .jsonl.xz
// suffix, used as the fallback session id.
func SessionStem(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".xz")
	return strings.TrimSuffix(name, ".jsonl")
}

type xzFile struct {
	*xz.Reader
	file *os.File
}

func (x *xzFile) Close() error { return x.file.Close() }

func openSessionFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".xz") {
		r, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &xzFile{Reader: r, file: f}, nil
	}
	return f, nil
}

// ParseSession folds one session log into a Session. It returns (nil, nil)
// when the file yields no conversation turns.
func ParseSession(path string) (*Session, error) {
	f, err := openSessionFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	folder := newTurnFolder()
	progress := map[string][]json.RawMessage{}
	sessionID := ""

	reader := bufio.NewReader(f)
	lineno := 0
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		lineno++
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var env recordEnvelope
			if json.Unmarshal(trimmed, &env) != nil {
				slog.Warn("skipping malformed line", "line", lineno, "file", filepath.Base(path))
			} else {
				switch class, parentID := classifyRecord(env); class {
				case classProgress:
					progress[parentID] = append(progress[parentID], json.RawMessage(trimmed))
				case classUser, classAssistant:
					if sessionID == "" {
						if id := strings.TrimSpace(env.SessionID); id != "" {
							sessionID = id
						}
					}
					msg := decodeMessage(env.Message)
					if class == classUser {
						folder.addUser(env, msg)
					} else {
						folder.addAssistant(env, msg)
					}
				}
			}
		}
		if err == io.EOF {
			break
		}
	}

	turns := folder.finish()
	if len(turns) == 0 {
		return nil, nil
	}
	if sessionID == "" {
		sessionID = SessionStem(path)
	}
	return &Session{
		SessionID: sessionID,
		FilePath:  path,
		Turns:     turns,
		Progress:  progress,
	}, nil
}
