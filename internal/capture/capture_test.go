//go:build !windows

package capture

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/jamesnordlund/sessionbook/internal/claudelog"
	"github.com/jamesnordlund/sessionbook/internal/render"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-claude")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func testSupervisor(t *testing.T, bin string) *Supervisor {
	t.Helper()
	conv := &Converter{
		ClaudeDir:  t.TempDir(),
		OutDirName: ".sessionbook",
		Renderer:   render.New(render.Config{HighlightStyle: "friendly"}),
	}
	s := NewSupervisor(conv)
	s.bin = bin
	return s
}

func TestRunExitCodePassthrough(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		bin := writeScript(t, "#!/bin/sh\nexit 0\n")
		if got := testSupervisor(t, bin).Run(nil); got != 0 {
			t.Fatalf("got exit code %d, want 0", got)
		}
	})

	t.Run("child exit code", func(t *testing.T) {
		bin := writeScript(t, "#!/bin/sh\nexit 7\n")
		if got := testSupervisor(t, bin).Run(nil); got != 7 {
			t.Fatalf("got exit code %d, want 7", got)
		}
	})

	t.Run("signal death becomes 128 plus signal", func(t *testing.T) {
		bin := writeScript(t, "#!/bin/sh\nkill -TERM $$\n")
		if got := testSupervisor(t, bin).Run(nil); got != 143 {
			t.Fatalf("got exit code %d, want 143", got)
		}
	})

	t.Run("binary missing from PATH", func(t *testing.T) {
		if got := testSupervisor(t, "sessionbook-no-such-binary").Run(nil); got != 1 {
			t.Fatalf("got exit code %d, want 1", got)
		}
	})

	t.Run("unrunnable binary", func(t *testing.T) {
		bin := writeScript(t, "exit 0\n")
		if got := testSupervisor(t, bin).Run(nil); got != 126 {
			t.Fatalf("got exit code %d, want 126", got)
		}
	})
}

func TestRunForwardsArgs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args.txt")
	t.Setenv("CAPTURE_TEST_OUT", out)
	bin := writeScript(t, "#!/bin/sh\necho \"$@\" > \"$CAPTURE_TEST_OUT\"\n")

	if got := testSupervisor(t, bin).Run([]string{"--continue", "hello world"}); got != 0 {
		t.Fatalf("got exit code %d, want 0", got)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read args file: %v", err)
	}
	if want := "--continue hello world\n"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSignalForwarding(t *testing.T) {
	bin := writeScript(t, "#!/bin/sh\ntrap 'exit 9' TERM\nsleep 5 &\nwait\nexit 0\n")
	s := testSupervisor(t, bin)

	done := make(chan struct{})
	go func() {
		select {
		case <-time.After(500 * time.Millisecond):
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
		case <-done:
		}
	}()

	got := s.Run(nil)
	close(done)
	if got != 9 {
		t.Fatalf("got exit code %d, want 9", got)
	}
}

func TestForwardToleratesExitedChild(t *testing.T) {
	s := NewSupervisor(&Converter{})
	s.forward(syscall.SIGTERM)
}

func TestExitCode(t *testing.T) {
	t.Run("nil means success", func(t *testing.T) {
		if got := exitCode(nil); got != 0 {
			t.Fatalf("got %d, want 0", got)
		}
	})

	t.Run("plain exit", func(t *testing.T) {
		err := exec.Command("sh", "-c", "exit 3").Run()
		if err == nil {
			t.Fatal("expected exit error")
		}
		if got := exitCode(err); got != 3 {
			t.Fatalf("got %d, want 3", got)
		}
	})

	t.Run("signal death", func(t *testing.T) {
		err := exec.Command("sh", "-c", "kill -9 $$").Run()
		if err == nil {
			t.Fatal("expected exit error")
		}
		if got := exitCode(err); got != 137 {
			t.Fatalf("got %d, want 137", got)
		}
	})

	t.Run("other errors map to 1", func(t *testing.T) {
		if got := exitCode(errors.New("boom")); got != 1 {
			t.Fatalf("got %d, want 1", got)
		}
	})
}

func TestRunConvertsAfterExit(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	claudeDir := t.TempDir()
	projectDir := filepath.Join(claudeDir, "projects", claudelog.EncodeProjectPath(cwd))
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("mkdir project dir: %v", err)
	}

	// The fake claude drops a session log the way the real one would.
	t.Setenv("CAPTURE_TEST_SESSION", filepath.Join(projectDir, "live.jsonl"))
	line := `{"type":"user","sessionId":"sess-live","timestamp":"2026-02-07T14:00:00Z","message":{"role":"user","content":"From the wrapped run"}}`
	bin := writeScript(t, "#!/bin/sh\nprintf '%s\\n' '"+line+"' > \"$CAPTURE_TEST_SESSION\"\nexit 0\n")

	conv := &Converter{
		ClaudeDir:  claudeDir,
		OutDirName: ".sessionbook",
		Renderer:   render.New(render.Config{HighlightStyle: "friendly"}),
	}
	s := NewSupervisor(conv)
	s.bin = bin

	if got := s.Run(nil); got != 0 {
		t.Fatalf("got exit code %d, want 0", got)
	}

	entries, err := os.ReadDir(filepath.Join(cwd, ".sessionbook"))
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	var htmls []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".html") {
			htmls = append(htmls, entry.Name())
		}
	}
	if len(htmls) != 1 {
		t.Fatalf("got %d transcripts, want 1", len(htmls))
	}
	content, err := os.ReadFile(filepath.Join(cwd, ".sessionbook", htmls[0]))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(content), "From the wrapped run") {
		t.Error("transcript missing session content")
	}
	if !strings.Contains(string(content), `content="sess-live"`) {
		t.Error("transcript missing session id meta tag")
	}
}
