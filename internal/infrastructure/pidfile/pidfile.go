package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const killTimeout = 10 * time.Second

// ErrAlreadyRunning is returned when another live process holds the PID file
var ErrAlreadyRunning = errors.New("gatherbot daemon is already running")

// PIDFile keeps a single daemon per host
type PIDFile struct {
	path string
}

// New creates a PID file manager for path
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire writes the current PID, replacing a stale file left by a dead process
func (p *PIDFile) Acquire() error {
	if pid, ok := p.readPID(); ok && isProcessRunning(pid) && pid != os.Getpid() {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}

	if err := os.WriteFile(p.path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// KillExisting sends SIGTERM to the process named in the PID file and waits
// for it to exit, then removes the file
func (p *PIDFile) KillExisting() error {
	pid, ok := p.readPID()
	if !ok || pid == os.Getpid() {
		return p.Release()
	}
	if isProcessRunning(pid) {
		process, err := os.FindProcess(pid)
		if err != nil {
			return fmt.Errorf("failed to find process %d: %w", pid, err)
		}
		if err := process.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("failed to signal process %d: %w", pid, err)
		}
		deadline := time.Now().Add(killTimeout)
		for isProcessRunning(pid) {
			if time.Now().After(deadline) {
				return fmt.Errorf("process %d did not exit within %s", pid, killTimeout)
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
	return p.Release()
}

// Path returns the managed file path
func (p *PIDFile) Path() string {
	return p.path
}

func (p *PIDFile) readPID() (int, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// isProcessRunning probes pid with signal 0
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		return true
	default:
		return false
	}
}
