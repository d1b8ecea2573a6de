//go:build !windows

package proc

import "golang.org/x/sys/unix"

// IsAlive reports whether a process with the given pid exists. Signal 0
// performs the existence check without delivering anything; EPERM still
// means the process is there.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
