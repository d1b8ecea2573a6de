// Package capture supervises the wrapped claude process and converts
// the session logs it leaves behind into saved transcripts.
package capture

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jamesnordlund/sessionbook/internal/proc"
)

// Supervisor runs the claude binary with stdio passed through, forwards
// termination signals to it, and reports its exit code unchanged so the
// wrapper is invisible to callers and shell scripts.
type Supervisor struct {
	mu    sync.Mutex
	child *os.Process

	conv *Converter
	bin  string
}

func NewSupervisor(conv *Converter) *Supervisor {
	return &Supervisor{conv: conv, bin: "claude"}
}

// Run execs claude with args, waits for it to exit, then converts any
// sessions written during the run. Conversion never alters the exit
// code: whatever claude returned is what Run returns.
func (s *Supervisor) Run(args []string) int {
	path, err := exec.LookPath(s.bin)
	if err != nil {
		slog.Error("claude not found on PATH")
		return 1
	}

	wd, err := os.Getwd()
	if err != nil {
		slog.Error("determine working directory", "error", err)
		return 1
	}
	slog.Info("wrapping claude", "dir", wd)

	// Sessions written during the run have mtimes at or after this point.
	start := time.Now()

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		slog.Error("start claude", "error", err)
		return 126
	}

	s.mu.Lock()
	s.child = cmd.Process
	s.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	stopForward := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				s.forward(sig)
			case <-stopForward:
				return
			}
		}
	}()

	waitErr := cmd.Wait()

	signal.Stop(sigCh)
	close(stopForward)
	s.mu.Lock()
	s.child = nil
	s.mu.Unlock()

	code := exitCode(waitErr)
	s.conv.ConvertSince(start)
	return code
}

// forward relays a received signal to the child, tolerating a child
// that has already exited.
func (s *Supervisor) forward(sig os.Signal) {
	s.mu.Lock()
	child := s.child
	s.mu.Unlock()

	if child == nil || !proc.IsAlive(child.Pid) {
		return
	}
	if err := child.Signal(sig); err != nil {
		slog.Debug("forward signal", "signal", sig, "error", err)
	}
}

// exitCode maps a Wait result to the shell convention: the child's own
// code when it exited, 128 plus the signal number when it was killed.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return ee.ExitCode()
	}
	slog.Error("wait for claude", "error", err)
	return 1
}
