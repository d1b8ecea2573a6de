package render

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/jamesnordlund/sessionbook/internal/claudelog"
)

const summaryCap = 500

// Config selects the renderer options that vary by user configuration.
// It is built once at startup from the loaded settings.
type Config struct {
	HighlightStyle string
}

// Renderer turns Sessions into self-contained HTML documents. All
// user-controlled text is escaped; only the Markdown engine may emit
// markup, and it runs with raw HTML neutralized.
type Renderer struct {
	md  goldmark.Markdown
	css string
	now func() time.Time
}

func New(cfg Config) *Renderer {
	return &Renderer{
		md:  newMarkdown(cfg.HighlightStyle),
		css: buildCSS(cfg.HighlightStyle),
		now: time.Now,
	}
}

func (r *Renderer) Render(session *claudelog.Session) string {
	sessionID := escapeHTML(session.SessionID)
	conversionTime := r.now().Format(time.RFC3339)

	sessionDate := "Unknown date"
	if len(session.Turns) > 0 {
		if ts := claudelog.ParseTime(session.Turns[0].Timestamp); !ts.IsZero() {
			sessionDate = ts.Format("2006-01-02 15:04:05")
		}
	}

	parts := []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		"<head>",
		`    <meta charset="UTF-8">`,
		`    <meta name="viewport" content="width=device-width, initial-scale=1.0">`,
		fmt.Sprintf(`    <meta name="sessionbook-session-id" content="%s">`, sessionID),
		fmt.Sprintf(`    <meta name="sessionbook-converted" content="%s">`, conversionTime),
		fmt.Sprintf("    <title>Claude Code Session - %s</title>", sessionID),
		"    <style>",
		r.css,
		"    </style>",
		"</head>",
		"<body>",
		`    <div class="container">`,
		`        <header class="session-header">`,
		"            <h1>Claude Code Session</h1>",
		`            <div class="session-meta">`,
		fmt.Sprintf(`                <span class="session-id">%s</span>`, sessionID),
		fmt.Sprintf(`                <span class="session-date">%s</span>`, escapeHTML(sessionDate)),
		"            </div>",
		"        </header>",
	}

	for i, turn := range session.Turns {
		parts = append(parts, r.renderTurn(turn, i))
	}

	parts = append(parts,
		"    </div>",
		"</body>",
		"</html>",
	)

	return strings.Join(parts, "\n")
}

func (r *Renderer) renderTurn(turn claudelog.Turn, index int) string {
	parts := []string{
		fmt.Sprintf(`        <article class="turn turn-%s" id="turn-%d">`, turn.Role, index),
		`            <div class="turn-meta">`,
		fmt.Sprintf(`                <span class="turn-role">%s</span>`, capitalize(turn.Role)),
		fmt.Sprintf(`                <span class="turn-timestamp">%s</span>`, escapeHTML(turn.Timestamp)),
		"            </div>",
		fmt.Sprintf(`            <div class="turn-content">%s</div>`, r.markdown(turn.Text)),
	}

	for _, block := range turn.Thinking {
		parts = append(parts, r.renderThinkingBlock(block))
	}
	if turn.Choice != nil {
		parts = append(parts, renderUserChoice(*turn.Choice))
	}
	for _, ref := range turn.SubAgents {
		if claudelog.ValidAgentID(ref.AgentID) {
			parts = append(parts, renderSubAgentCard(ref))
		} else {
			slog.Warn("skipping sub-agent card with invalid agent id")
		}
	}

	parts = append(parts, "        </article>")
	return strings.Join(parts, "\n")
}

func (r *Renderer) renderThinkingBlock(block claudelog.ThinkingBlock) string {
	return strings.Join([]string{
		`            <details class="thinking-block">`,
		"                <summary>Thinking</summary>",
		fmt.Sprintf(`                <div class="thinking-content">%s</div>`, r.markdown(block.Text)),
		"            </details>",
	}, "\n")
}

func renderUserChoice(choice claudelog.UserChoice) string {
	parts := []string{
		`            <div class="choice-card">`,
		fmt.Sprintf(`                <div class="choice-question">%s</div>`, escapeHTML(choice.Question)),
		`                <ul class="choice-options">`,
	}
	for i, option := range choice.Options {
		class := "choice-option"
		if i == choice.SelectedIndex {
			class = "choice-option choice-selected"
		}
		parts = append(parts, fmt.Sprintf(`                    <li class="%s">%s</li>`, class, escapeHTML(option)))
	}
	parts = append(parts,
		"                </ul>",
		"            </div>",
	)
	return strings.Join(parts, "\n")
}

func renderSubAgentCard(ref claudelog.SubAgentRef) string {
	summary := ref.Summary
	if runes := []rune(summary); len(runes) > summaryCap {
		summary = string(runes[:summaryCap]) + "..."
	}

	parts := []string{
		`            <div class="sub-agent-card">`,
		`                <div class="sub-agent-header">`,
		fmt.Sprintf(`                    <span class="sub-agent-type">%s</span>`, escapeHTML(ref.SubagentType)),
		fmt.Sprintf("                    <span>%s</span>", escapeHTML(ref.Description)),
		"                </div>",
	}

	var metaParts []string
	if ref.DurationMS != nil {
		metaParts = append(metaParts, fmt.Sprintf("Duration: %.1fs", *ref.DurationMS/1000))
	}
	if ref.ToolUseCount != nil {
		metaParts = append(metaParts, fmt.Sprintf("Tool uses: %d", *ref.ToolUseCount))
	}
	if len(metaParts) > 0 {
		parts = append(parts, fmt.Sprintf(`                <div class="sub-agent-meta">%s</div>`, escapeHTML(strings.Join(metaParts, " • "))))
	}

	parts = append(parts, fmt.Sprintf(`                <div class="sub-agent-summary">%s</div>`, escapeHTML(summary)))

	if ref.TranscriptPath != "" {
		parts = append(parts, fmt.Sprintf(`                <a href="%s" class="sub-agent-link">View transcript →</a>`, escapeHTML(ref.TranscriptPath)))
	} else {
		parts = append(parts, `                <span class="sub-agent-broken-link">Transcript not available</span>`)
	}

	parts = append(parts, "            </div>")
	return strings.Join(parts, "\n")
}

func (r *Renderer) markdown(text string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + escapeHTML(text) + "</p>\n"
	}
	return buf.String()
}

func escapeHTML(s string) string {
	return stdhtml.EscapeString(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
