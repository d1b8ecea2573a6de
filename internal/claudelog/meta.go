package claudelog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"
)

// FileMeta is a cheap per-file summary for listings. It scans envelopes
// without running the full turn fold.
type FileMeta struct {
	SessionID    string
	FirstPrompt  string
	MessageCount int
	ModifiedAt   time.Time
}

func ReadFileMeta(path string) (FileMeta, error) {
	var meta FileMeta
	f, err := openSessionFile(path)
	if err != nil {
		return meta, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return meta, err
		}
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var env recordEnvelope
			if json.Unmarshal(trimmed, &env) == nil {
				meta.scan(env)
			}
		}
		if err == io.EOF {
			break
		}
	}

	if meta.ModifiedAt.IsZero() {
		if st, err := os.Stat(path); err == nil {
			meta.ModifiedAt = st.ModTime()
		}
	}
	if meta.SessionID == "" {
		meta.SessionID = SessionStem(path)
	}
	return meta, nil
}

func (meta *FileMeta) scan(env recordEnvelope) {
	if meta.SessionID == "" {
		if id := strings.TrimSpace(env.SessionID); id != "" {
			meta.SessionID = id
		}
	}
	class, _ := classifyRecord(env)
	if class != classUser && class != classAssistant {
		return
	}
	text := strings.TrimSpace(extractText(decodeMessage(env.Message).Content))
	if text == "" || isCommandEcho(text) {
		return
	}
	meta.MessageCount++
	if class == classUser && meta.FirstPrompt == "" {
		meta.FirstPrompt = text
	}
	if ts := ParseTime(env.Timestamp); !ts.IsZero() && ts.After(meta.ModifiedAt) {
		meta.ModifiedAt = ts
	}
}
