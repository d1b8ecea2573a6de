// Package output persists rendered session transcripts under a project's
// output directory with collision-safe names and an idempotency index.
package output

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/jamesnordlund/sessionbook/internal/claudelog"
)

const fileTimeLayout = "2006-01-02T15-04-05"

// Dir is a transcript output directory, typically .sessionbook under the
// project being wrapped.
type Dir struct {
	path string
	now  func() time.Time
}

func NewDir(path string) *Dir {
	return &Dir{path: path, now: time.Now}
}

// Save writes doc under a name derived from the session's last turn
// timestamp, never overwriting an existing transcript. A numeric suffix
// resolves collisions. The write goes through a temp file in the same
// directory so readers only ever see complete documents. Concurrent
// writers are serialized through an advisory lock on the directory; if
// the lock cannot be taken the write proceeds without it.
func (d *Dir) Save(session *claudelog.Session, doc string) (string, error) {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(d.path, ".lock"))
	if err := lock.Lock(); err != nil {
		slog.Warn("could not lock output directory, continuing without lock", "error", err)
	} else {
		defer func() { _ = lock.Unlock() }()
	}

	filename := d.filename(session)
	final := filepath.Join(d.path, filename)
	if fileExists(final) {
		stem := strings.TrimSuffix(filename, ".html")
		suffix := 1
		for fileExists(final) {
			final = filepath.Join(d.path, fmt.Sprintf("%s-%d.html", stem, suffix))
			suffix++
			if suffix > 1000 {
				return "", fmt.Errorf("too many filename collisions for %s", filename)
			}
		}
		slog.Debug("filename collision resolved", "from", filename, "to", filepath.Base(final))
	}

	tmp, err := os.CreateTemp(d.path, "*.html.tmp")
	if err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return final, nil
}

// filename derives the output name from the last turn's timestamp in
// local time, falling back to the current time when the session carries
// no usable timestamp.
func (d *Dir) filename(session *claudelog.Session) string {
	last := ""
	if n := len(session.Turns); n > 0 {
		last = session.Turns[n-1].Timestamp
	}
	if strings.TrimSpace(last) != "" {
		if ts := claudelog.ParseTime(last); !ts.IsZero() {
			return ts.Local().Format(fileTimeLayout) + ".html"
		}
		slog.Warn("malformed session timestamp, using current time", "timestamp", last)
	}
	return d.now().Format(fileTimeLayout) + ".html"
}

// ExistingSessionIDs scans saved transcripts for their session-id meta
// tags. Sessions in the returned set have already been converted and can
// be skipped.
func (d *Dir) ExistingSessionIDs() map[string]bool {
	ids := make(map[string]bool)
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return ids
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		if id := readSessionIDMeta(filepath.Join(d.path, entry.Name())); id != "" {
			ids[id] = true
		}
	}
	return ids
}

// readSessionIDMeta pulls the session id out of a transcript's meta tag.
// The tag sits in the document head, so only the first 50 lines are read.
func readSessionIDMeta(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for lineno := 0; lineno < 50 && scanner.Scan(); lineno++ {
		line := scanner.Text()
		if !strings.Contains(line, `name="sessionbook-session-id"`) || !strings.Contains(line, `content="`) {
			continue
		}
		rest := line[strings.Index(line, `content="`)+len(`content="`):]
		end := strings.Index(rest, `"`)
		if end <= 0 {
			continue
		}
		return rest[:end]
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
