package proc

import (
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// reapedPid returns the pid of a process that has already exited and been
// waited for.
func reapedPid(t *testing.T) int {
	t.Helper()

	path, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}
	cmd := exec.Command(path)
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

func TestRelayNoSuchProcess(t *testing.T) {
	r := NewRelay(nil)
	pid := reapedPid(t)

	t.Run("pause", func(t *testing.T) {
		assert.True(t, errors.Is(r.Pause(pid), ErrNoSuchProcess))
	})

	t.Run("background", func(t *testing.T) {
		assert.True(t, errors.Is(r.ResumeBackground(pid), ErrNoSuchProcess))
	})

	t.Run("foreground", func(t *testing.T) {
		code, err := r.ResumeForeground(pid)
		assert.True(t, errors.Is(err, ErrNoSuchProcess))
		assert.Equal(t, -1, code)
	})

	for _, bad := range []int{0, -1} {
		assert.True(t, errors.Is(r.Pause(bad), ErrNoSuchProcess), "pid %d", bad)
	}
}

func TestRelayPauseResume(t *testing.T) {
	s := testSupervisor(t, "sleep")
	r := NewRelay(s)

	res := runWithTimeout(t, s, mustParse(t, "sleep 30 &"), Stdio{})
	job := res.Job
	pid := res.Procs[0].Pid()

	require.NoError(t, r.Pause(pid))
	require.NoError(t, r.ResumeBackground(-job.Pgid))
	assert.False(t, job.Finished())

	require.NoError(t, unix.Kill(pid, unix.SIGKILL))
	waitJob(t, job)
	assert.Equal(t, "Killed SIGKILL", job.Status())
	assert.Equal(t, 128+int(unix.SIGKILL), job.ExitCode())
}

func TestRelayResumeForegroundTracked(t *testing.T) {
	s := testSupervisor(t, "sleep")
	r := NewRelay(s)

	res := runWithTimeout(t, s, mustParse(t, "sleep 0.2 &"), Stdio{})
	pid := res.Procs[0].Pid()
	require.NoError(t, r.Pause(pid))

	done := make(chan int, 1)
	go func() {
		code, err := r.ResumeForeground(pid)
		assert.NoError(t, err)
		done <- code
	}()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(10 * time.Second):
		t.Fatal("resumed job never finished")
	}
	assert.True(t, res.Job.Finished())
}

func TestRelayResumeForegroundUntracked(t *testing.T) {
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	cmd := exec.Command(path, "0.2")
	require.NoError(t, cmd.Start())

	// Reap it as the owner would so the pid disappears once it exits.
	go cmd.Wait()

	r := NewRelay(NewSupervisor(nil))
	done := make(chan error, 1)
	go func() {
		_, err := r.ResumeForeground(cmd.Process.Pid)
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("untracked process never finished")
	}
}
