package render

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

const cssHead = `
/* Reset and base styles */
* {
    margin: 0;
    padding: 0;
    box-sizing: border-box;
}

body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
    line-height: 1.6;
    color: #202124;
    background: #f8f9fa;
    padding: 20px;
}

/* Container */
.container {
    max-width: 900px;
    margin: 0 auto;
    background: white;
    padding: 40px;
    border-radius: 8px;
    box-shadow: 0 1px 3px rgba(60,64,67,0.15), 0 4px 8px rgba(60,64,67,0.08);
}

/* Session header */
.session-header {
    border-bottom: 2px solid #e8eaed;
    padding-bottom: 20px;
    margin-bottom: 40px;
}

.session-header h1 {
    font-size: 28px;
    font-weight: 500;
    color: #202124;
    margin-bottom: 8px;
}

.session-meta {
    font-size: 14px;
    color: #5f6368;
    display: flex;
    gap: 16px;
}

.session-id {
    font-family: 'Monaco', 'Menlo', 'Consolas', monospace;
    background: #f1f3f4;
    padding: 2px 6px;
    border-radius: 3px;
}

/* Turn styles */
.turn {
    margin-bottom: 24px;
    padding: 20px;
    border-radius: 8px;
    border-left: 4px solid;
}

.turn-user {
    background: #e8f0fe;
    border-left-color: #1a73e8;
}

.turn-assistant {
    background: #f8f9fa;
    border-left-color: #34a853;
}

.turn-meta {
    font-size: 12px;
    color: #5f6368;
    margin-bottom: 12px;
    display: flex;
    gap: 12px;
}

.turn-role {
    font-weight: 600;
    text-transform: uppercase;
    letter-spacing: 0.5px;
}

.turn-content {
    font-size: 15px;
    line-height: 1.6;
    color: #202124;
    word-wrap: break-word;
}

/* Markdown styling within turn-content and thinking-content */
.turn-content p, .thinking-content p {
    margin-bottom: 12px;
}

.turn-content p:last-child, .thinking-content p:last-child {
    margin-bottom: 0;
}

.turn-content h1, .turn-content h2, .turn-content h3,
.thinking-content h1, .thinking-content h2, .thinking-content h3 {
    margin-top: 16px;
    margin-bottom: 8px;
    font-weight: 600;
}

.turn-content h1, .thinking-content h1 { font-size: 1.4em; }
.turn-content h2, .thinking-content h2 { font-size: 1.25em; }
.turn-content h3, .thinking-content h3 { font-size: 1.1em; }

.turn-content code, .thinking-content code {
    font-family: 'Monaco', 'Menlo', 'Consolas', monospace;
    background: rgba(0,0,0,0.05);
    padding: 2px 4px;
    border-radius: 3px;
    font-size: 0.9em;
}

.turn-content pre, .thinking-content pre {
    background: #202124;
    color: #f8f9fa;
    padding: 16px;
    border-radius: 6px;
    margin: 12px 0;
    overflow-x: auto;
}

.turn-content pre code, .thinking-content pre code {
    background: transparent;
    color: inherit;
    padding: 0;
    font-size: 0.85em;
}

.turn-content ul, .turn-content ol,
.thinking-content ul, .thinking-content ol {
    margin: 12px 0;
    padding-left: 24px;
}

.turn-content li, .thinking-content li {
    margin-bottom: 4px;
}

/* Syntax highlighting */
`

const cssTail = `
/* Thinking blocks */
.thinking-block {
    margin-top: 16px;
    border: 1px solid #dadce0;
    border-radius: 6px;
    background: #fefefe;
}

.thinking-block summary {
    padding: 10px 14px;
    cursor: pointer;
    font-weight: 500;
    font-size: 13px;
    color: #5f6368;
    user-select: none;
    display: flex;
    align-items: center;
}

.thinking-block summary:hover {
    background: #f8f9fa;
}

.thinking-block summary::before {
    content: "▸ ";
    display: inline-block;
    margin-right: 6px;
    transition: transform 0.2s;
}

.thinking-block[open] summary::before {
    transform: rotate(90deg);
}

.thinking-content {
    padding: 14px;
    font-size: 13px;
    line-height: 1.5;
    border-top: 1px solid #e8eaed;
    color: #3c4043;
    background: #fafafa;
}

/* User choice card */
.choice-card {
    margin-top: 16px;
    padding: 16px;
    border: 2px solid #f9ab00;
    border-radius: 6px;
    background: #fef7e0;
}

.choice-question {
    font-weight: 600;
    font-size: 14px;
    margin-bottom: 12px;
    color: #e37400;
}

.choice-options {
    list-style: none;
    margin: 0;
    padding: 0;
}

.choice-option {
    padding: 8px 12px;
    margin: 6px 0;
    border-radius: 4px;
    background: white;
    font-size: 14px;
    border: 1px solid #f9ab00;
}

.choice-selected {
    background: #fbbc04;
    font-weight: 600;
    border-color: #e37400;
    color: #3c4043;
}

.choice-selected::before {
    content: "✓ ";
    color: #e37400;
    font-weight: bold;
}

/* Sub-agent card */
.sub-agent-card {
    margin-top: 16px;
    padding: 16px;
    border: 2px solid #8430ce;
    border-radius: 6px;
    background: #f3e8fd;
}

.sub-agent-header {
    font-weight: 600;
    font-size: 14px;
    margin-bottom: 8px;
    color: #6a1b9a;
    display: flex;
    align-items: center;
    gap: 8px;
}

.sub-agent-type {
    font-family: 'Monaco', 'Menlo', 'Consolas', monospace;
    background: #e1bee7;
    padding: 2px 6px;
    border-radius: 3px;
    font-size: 12px;
}

.sub-agent-meta {
    font-size: 12px;
    color: #7b1fa2;
    margin-bottom: 10px;
}

.sub-agent-summary {
    font-size: 13px;
    color: #4a148c;
    margin-bottom: 12px;
    white-space: pre-wrap;
    line-height: 1.5;
}

.sub-agent-link {
    display: inline-block;
    padding: 8px 16px;
    background: #8430ce;
    color: white;
    text-decoration: none;
    border-radius: 4px;
    font-size: 13px;
    font-weight: 500;
    transition: background 0.2s;
}

.sub-agent-link:hover {
    background: #6a1b9a;
}

.sub-agent-broken-link {
    font-size: 13px;
    color: #9e9e9e;
    font-style: italic;
}

/* Responsive design */
@media (max-width: 768px) {
    body {
        padding: 12px;
    }

    .container {
        padding: 20px;
    }

    .turn {
        padding: 16px;
    }
}
`

// buildCSS assembles the inline stylesheet with the chroma class rules for
// the configured highlight style injected between the shared halves.
func buildCSS(styleName string) string {
	style := styles.Get(styleName)
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return cssHead + cssTail
	}
	return cssHead + buf.String() + cssTail
}
