package render

import (
	"strings"
	"testing"
	"time"

	"github.com/jamesnordlund/sessionbook/internal/claudelog"
)

func newTestRenderer() *Renderer {
	r := New(Config{HighlightStyle: "friendly"})
	r.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func sessionWith(turns ...claudelog.Turn) *claudelog.Session {
	return &claudelog.Session{
		SessionID: "sess-render",
		FilePath:  "sess-render.jsonl",
		Turns:     turns,
	}
}

func TestRenderDocumentStructure(t *testing.T) {
	r := newTestRenderer()
	doc := r.Render(sessionWith(claudelog.Turn{
		Role:      "user",
		Text:      "Hello",
		Timestamp: "2026-02-07T14:00:00Z",
	}))

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		`<meta charset="UTF-8">`,
		`<meta name="sessionbook-session-id" content="sess-render">`,
		`<meta name="sessionbook-converted" content="2026-03-01T12:00:00Z">`,
		"<title>Claude Code Session - sess-render</title>",
		"<h1>Claude Code Session</h1>",
		`<span class="session-id">sess-render</span>`,
		`<span class="session-date">2026-02-07 14:00:00</span>`,
		"</html>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}

	t.Run("stylesheet is inlined", func(t *testing.T) {
		if !strings.Contains(doc, "<style>") || !strings.Contains(doc, "</style>") {
			t.Fatal("style element missing")
		}
		if !strings.Contains(doc, ".thinking-block") {
			t.Error("shared stylesheet missing from document")
		}
		if !strings.Contains(doc, ".chroma") {
			t.Error("highlight class rules missing from document")
		}
	})

	t.Run("render is deterministic", func(t *testing.T) {
		again := r.Render(sessionWith(claudelog.Turn{
			Role:      "user",
			Text:      "Hello",
			Timestamp: "2026-02-07T14:00:00Z",
		}))
		if doc != again {
			t.Error("rendering the same session twice produced different documents")
		}
	})
}

func TestRenderTurnStructure(t *testing.T) {
	r := newTestRenderer()
	doc := r.Render(sessionWith(
		claudelog.Turn{Role: "user", Text: "first", Timestamp: "2026-02-07T14:00:00Z"},
		claudelog.Turn{Role: "assistant", Text: "second", Timestamp: "2026-02-07T14:00:05Z"},
	))

	for _, want := range []string{
		`<article class="turn turn-user" id="turn-0">`,
		`<article class="turn turn-assistant" id="turn-1">`,
		`<span class="turn-role">User</span>`,
		`<span class="turn-role">Assistant</span>`,
		`<span class="turn-timestamp">2026-02-07T14:00:00Z</span>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}

	if strings.Index(doc, `id="turn-0"`) > strings.Index(doc, `id="turn-1"`) {
		t.Error("turns rendered out of order")
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	r := newTestRenderer()

	t.Run("script block is neutralized", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "user",
			Text: "<script>alert(1)</script>",
		}))
		if strings.Contains(doc, "<script>") {
			t.Fatal("live script tag leaked into document")
		}
		if !strings.Contains(doc, "&lt;script&gt;") {
			t.Error("script tag not preserved as escaped text")
		}
	})

	t.Run("inline html is neutralized", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: `click <a href="javascript:alert(1)">here</a> now`,
		}))
		if strings.Contains(doc, `<a href="javascript:`) {
			t.Fatal("live anchor tag leaked into document")
		}
		if !strings.Contains(doc, "&lt;a href=") {
			t.Error("anchor tag not preserved as escaped text")
		}
	})

	t.Run("timestamp is escaped", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role:      "user",
			Text:      "hi",
			Timestamp: `2026-01-01T00:00:00Z<img src=x>`,
		}))
		if strings.Contains(doc, "<img") {
			t.Fatal("live img tag leaked into document")
		}
		if !strings.Contains(doc, "&lt;img src=x&gt;") {
			t.Error("timestamp not escaped")
		}
	})

	t.Run("session id is escaped", func(t *testing.T) {
		s := sessionWith(claudelog.Turn{Role: "user", Text: "hi"})
		s.SessionID = `x"><script>`
		doc := r.Render(s)
		if strings.Contains(doc, "<script>") {
			t.Fatal("live script tag leaked into document")
		}
	})
}

func TestRenderMarkdown(t *testing.T) {
	r := newTestRenderer()

	t.Run("formatting", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "# Title\n\nSome **bold** text and `inline code`.",
		}))
		for _, want := range []string{
			"<h1>Title</h1>",
			"<strong>bold</strong>",
			"<code>inline code</code>",
		} {
			if !strings.Contains(doc, want) {
				t.Errorf("document missing %q", want)
			}
		}
	})

	t.Run("fenced code is highlighted", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "```go\nfunc main() {}\n```",
		}))
		if !strings.Contains(doc, `class="chroma"`) {
			t.Error("highlighted block missing chroma wrapper")
		}
		if !strings.Contains(doc, `class="kd"`) {
			t.Error("keyword span missing from highlighted block")
		}
	})

	t.Run("unknown language stays escaped", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "```nosuchlang\n<danger>&stuff\n```",
		}))
		if strings.Contains(doc, "<danger>") {
			t.Fatal("code content leaked unescaped")
		}
		if !strings.Contains(doc, "&lt;danger&gt;") {
			t.Error("code content not preserved as escaped text")
		}
	})

	t.Run("bare urls are linkified", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "see https://example.com/docs for details",
		}))
		if !strings.Contains(doc, `<a href="https://example.com/docs">`) {
			t.Error("bare url not turned into a link")
		}
	})
}

func TestRenderThinkingBlocks(t *testing.T) {
	r := newTestRenderer()
	doc := r.Render(sessionWith(claudelog.Turn{
		Role: "assistant",
		Text: "Answer",
		Thinking: []claudelog.ThinkingBlock{
			{Text: "First I should *check* the input."},
			{Text: "<script>steal()</script>"},
		},
	}))

	if got := strings.Count(doc, `<details class="thinking-block">`); got != 2 {
		t.Fatalf("got %d thinking blocks, want 2", got)
	}
	if !strings.Contains(doc, "<summary>Thinking</summary>") {
		t.Error("thinking block missing summary")
	}
	if !strings.Contains(doc, "<em>check</em>") {
		t.Error("thinking content not rendered as markdown")
	}
	if strings.Contains(doc, "<script>") {
		t.Error("live script tag leaked from thinking block")
	}
}

func TestRenderChoiceCard(t *testing.T) {
	r := newTestRenderer()
	doc := r.Render(sessionWith(claudelog.Turn{
		Role: "user",
		Text: "Picked one",
		Choice: &claudelog.UserChoice{
			Question:      "Which <approach>?",
			Options:       []string{"Fast & loose", "Slow & careful"},
			SelectedIndex: 1,
		},
	}))

	if !strings.Contains(doc, `<div class="choice-question">Which &lt;approach&gt;?</div>`) {
		t.Error("choice question missing or unescaped")
	}
	if !strings.Contains(doc, `<li class="choice-option">Fast &amp; loose</li>`) {
		t.Error("unselected option rendered wrong")
	}
	if !strings.Contains(doc, `<li class="choice-option choice-selected">Slow &amp; careful</li>`) {
		t.Error("selected option missing choice-selected class")
	}

	t.Run("out of range selection marks nothing", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "user",
			Text: "Picked none",
			Choice: &claudelog.UserChoice{
				Question:      "Pick",
				Options:       []string{"A", "B"},
				SelectedIndex: -1,
			},
		}))
		if strings.Contains(doc, "choice-selected") {
			t.Error("no option should be marked selected")
		}
	})
}

func TestRenderSubAgentCard(t *testing.T) {
	r := newTestRenderer()

	duration := 45200.0
	toolUses := 7

	t.Run("full card", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "Delegated",
			SubAgents: []claudelog.SubAgentRef{{
				AgentID:        "agent-123",
				SubagentType:   "researcher",
				Description:    "Research the topic",
				Summary:        "Research complete.",
				DurationMS:     &duration,
				ToolUseCount:   &toolUses,
				TranscriptPath: "agent-agent-123.html",
			}},
		}))

		for _, want := range []string{
			`<div class="sub-agent-card">`,
			`<span class="sub-agent-type">researcher</span>`,
			"<span>Research the topic</span>",
			`<div class="sub-agent-summary">Research complete.</div>`,
			`<a href="agent-agent-123.html" class="sub-agent-link">View transcript →</a>`,
		} {
			if !strings.Contains(doc, want) {
				t.Errorf("document missing %q", want)
			}
		}
		if !strings.Contains(doc, "Duration: 45.2s") {
			t.Error("duration missing from card meta")
		}
		if !strings.Contains(doc, "Tool uses: 7") {
			t.Error("tool use count missing from card meta")
		}
	})

	t.Run("meta line omitted when no stats", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "Delegated",
			SubAgents: []claudelog.SubAgentRef{{
				AgentID:      "agent-1",
				SubagentType: "worker",
				Summary:      "Done.",
			}},
		}))
		if strings.Contains(doc, "sub-agent-meta") {
			t.Error("card should not carry an empty meta line")
		}
	})

	t.Run("missing transcript shows placeholder", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "Delegated",
			SubAgents: []claudelog.SubAgentRef{{
				AgentID:      "agent-1",
				SubagentType: "worker",
				Summary:      "Done.",
			}},
		}))
		if !strings.Contains(doc, `<span class="sub-agent-broken-link">Transcript not available</span>`) {
			t.Error("placeholder missing for absent transcript")
		}
		if strings.Contains(doc, "sub-agent-link") {
			t.Error("card should not carry a link without a transcript")
		}
	})

	t.Run("long summary is truncated", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "Delegated",
			SubAgents: []claudelog.SubAgentRef{{
				AgentID:      "agent-1",
				SubagentType: "worker",
				Summary:      strings.Repeat("a", 600),
			}},
		}))
		if !strings.Contains(doc, strings.Repeat("a", 500)+"...") {
			t.Error("summary not truncated at the cap")
		}
		if strings.Contains(doc, strings.Repeat("a", 501)) {
			t.Error("summary exceeds the cap")
		}
	})

	t.Run("invalid agent id drops the card", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role: "assistant",
			Text: "Delegated",
			SubAgents: []claudelog.SubAgentRef{{
				AgentID:      "../../etc/passwd",
				SubagentType: "worker",
				Summary:      "Done.",
			}},
		}))
		if strings.Contains(doc, "sub-agent-card") {
			t.Error("card with invalid agent id should not render")
		}
	})
}

func TestRenderSessionDate(t *testing.T) {
	r := newTestRenderer()

	t.Run("unparseable first timestamp", func(t *testing.T) {
		doc := r.Render(sessionWith(claudelog.Turn{
			Role:      "user",
			Text:      "hi",
			Timestamp: "not a time",
		}))
		if !strings.Contains(doc, `<span class="session-date">Unknown date</span>`) {
			t.Error("unparseable timestamp should fall back to Unknown date")
		}
	})

	t.Run("no turns", func(t *testing.T) {
		doc := r.Render(sessionWith())
		if !strings.Contains(doc, `<span class="session-date">Unknown date</span>`) {
			t.Error("empty session should fall back to Unknown date")
		}
	})
}
