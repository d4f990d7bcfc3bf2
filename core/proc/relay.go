package proc

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"
)

// pollInterval is how often an untracked process is checked for exit.
const pollInterval = 50 * time.Millisecond

// Relay sends job control signals. It doesn't check that a target was
// started by this session; any process the user may signal is fair game.
type Relay struct {
	Supervisor *Supervisor
}

// NewRelay creates a relay that waits on jobs tracked by s.
func NewRelay(s *Supervisor) *Relay {
	return &Relay{Supervisor: s}
}

// Pause stops pid. A negative pid stops a whole process group.
func (r *Relay) Pause(pid int) error {
	return signalPid(pid, unix.SIGSTOP)
}

// ResumeBackground continues pid and returns without waiting.
func (r *Relay) ResumeBackground(pid int) error {
	return signalPid(pid, unix.SIGCONT)
}

// ResumeForeground continues pid and blocks until it terminates. The exit
// code is known only for jobs this session tracks, -1 otherwise.
func (r *Relay) ResumeForeground(pid int) (int, error) {
	if err := signalPid(pid, unix.SIGCONT); err != nil {
		return -1, err
	}

	// Never read: the notify only holds off SIGINT while the job runs.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	if r.Supervisor != nil {
		if job, ok := r.Supervisor.JobFor(pid); ok {
			<-job.Done()
			return job.ExitCode(), nil
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
			break
		}
	}
	return -1, nil
}

func signalPid(pid int, sig unix.Signal) error {
	// 0 and -1 would address our own group or every process.
	if pid == 0 || pid == -1 {
		return fmt.Errorf("%d: %w", pid, ErrNoSuchProcess)
	}
	switch err := unix.Kill(pid, sig); {
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("%d: %w", pid, ErrNoSuchProcess)
	case err != nil:
		return fmt.Errorf("%d: %w", pid, err)
	}
	return nil
}
