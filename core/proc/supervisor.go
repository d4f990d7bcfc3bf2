package proc

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/cansudoganay/shellgibi-shell/core/shell"
	"golang.org/x/sys/unix"
)

// Job is a pipeline running in the background.
type Job struct {
	ID    int
	Pgid  int
	Line  string
	Procs []*Process

	done  chan struct{}
	codes []int
}

// Done is closed once every started process of the job has been reaped.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Finished reports whether the job has been reaped.
func (j *Job) Finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit code of the job's terminal stage. It's only
// meaningful once the job is finished.
func (j *Job) ExitCode() int {
	if !j.Finished() || len(j.codes) == 0 {
		return -1
	}
	return j.codes[len(j.codes)-1]
}

// Status renders the job's state the way job notices show it.
func (j *Job) Status() string {
	if !j.Finished() {
		return "Running"
	}
	return StatusText(j.Procs[len(j.Procs)-1])
}

// Pids returns the process ids of the job's started stages.
func (j *Job) Pids() []int {
	var out []int
	for _, p := range j.Procs {
		if p.Started() {
			out = append(out, p.Pid())
		}
	}
	return out
}

func (j *Job) owns(pid int) bool {
	if pid < 0 {
		return -pid == j.Pgid
	}
	for _, p := range j.Pids() {
		if p == pid {
			return true
		}
	}
	return false
}

// Result describes a pipeline after the supervisor is done with it.
type Result struct {
	Procs []*Process
	// Job is set for background pipelines.
	Job *Job
	// ExitCode is the terminal stage's exit code, -1 if it never ran or
	// the pipeline was detached.
	ExitCode int
}

// Err returns the first stage start error, if any.
func (r *Result) Err() error {
	for _, p := range r.Procs {
		if p.Err != nil {
			return p.Err
		}
	}
	return nil
}

// Supervisor runs pipelines and keeps the table of background jobs.
type Supervisor struct {
	Launcher *Launcher

	mu     sync.Mutex
	jobs   map[int]*Job
	lastID int
}

// NewSupervisor creates a supervisor that starts pipelines with l.
func NewSupervisor(l *Launcher) *Supervisor {
	return &Supervisor{
		Launcher: l,
		jobs:     make(map[int]*Job),
	}
}

// Run launches p. Foreground pipelines are waited for with SIGINT held off
// so only the children see it; background pipelines are recorded as a job
// and reaped as they finish.
func (s *Supervisor) Run(p *shell.Pipeline, stdio Stdio) (*Result, error) {
	procs, err := s.Launcher.Launch(p, stdio)
	if err != nil {
		return nil, err
	}
	res := &Result{Procs: procs, ExitCode: -1}
	if len(procs) == 0 {
		return res, nil
	}

	if p.Background() {
		res.Job = s.detach(p, procs)
		return res, nil
	}

	// Never read: the notify only holds off SIGINT while the job runs.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	codes := waitAll(procs)
	res.ExitCode = codes[len(codes)-1]
	return res, nil
}

func (s *Supervisor) detach(p *shell.Pipeline, procs []*Process) *Job {
	job := &Job{
		Line:  p.String(),
		Procs: procs,
		done:  make(chan struct{}),
	}
	for _, proc := range procs {
		if proc.Started() {
			job.Pgid = proc.Pid()
			break
		}
	}

	s.mu.Lock()
	s.lastID++
	job.ID = s.lastID
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go func() {
		job.codes = waitAll(procs)
		close(job.done)
	}()

	return job
}

// waitAll reaps every started process in order and returns their exit
// codes, -1 for stages that never started.
func waitAll(procs []*Process) []int {
	codes := make([]int, len(procs))
	for i, proc := range procs {
		codes[i] = -1
		if !proc.Started() {
			continue
		}
		// Non-zero exits surface through ProcessState.
		_ = proc.Cmd.Wait()
		codes[i] = ExitCode(proc)
	}
	return codes
}

// ExitCode returns the exit code of a reaped process, 128+n for a process
// killed by signal n, and -1 otherwise.
func ExitCode(p *Process) int {
	if !p.Started() || p.Cmd.ProcessState == nil {
		return -1
	}
	state := p.Cmd.ProcessState
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// StatusText describes how a reaped process ended: "Done", "Exit N" or the
// signal that killed it.
func StatusText(p *Process) string {
	if p.Err != nil {
		return "Exit 127"
	}
	if !p.Started() || p.Cmd.ProcessState == nil {
		return "Running"
	}
	if ws, ok := p.Cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		if name := unix.SignalName(unix.Signal(ws.Signal())); name != "" {
			return "Killed " + name
		}
		return fmt.Sprintf("Killed %d", int(ws.Signal()))
	}
	if code := p.Cmd.ProcessState.ExitCode(); code != 0 {
		return fmt.Sprintf("Exit %d", code)
	}
	return "Done"
}

// Reap removes finished jobs from the table and returns them, oldest first.
func (s *Supervisor) Reap() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Job
	for id, job := range s.jobs {
		if job.Finished() {
			out = append(out, job)
			delete(s.jobs, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Jobs lists the tracked jobs, oldest first.
func (s *Supervisor) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns the job with the given id.
func (s *Supervisor) Lookup(id int) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	return job, ok
}

// LastJob returns the most recently started job that is still tracked.
func (s *Supervisor) LastJob() (*Job, bool) {
	jobs := s.Jobs()
	if len(jobs) == 0 {
		return nil, false
	}
	return jobs[len(jobs)-1], true
}

// JobFor returns the tracked job that owns pid. A negative pid names a
// process group.
func (s *Supervisor) JobFor(pid int) (*Job, bool) {
	for _, job := range s.Jobs() {
		if job.owns(pid) {
			return job, true
		}
	}
	return nil, false
}

// Target turns a job argument into a signal target. Plain numbers are
// process ids; "%N" and "%%" name tracked jobs and resolve to the negated
// process group id so the whole pipeline is signaled.
func (s *Supervisor) Target(arg string) (int, error) {
	if strings.HasPrefix(arg, "%") {
		var (
			job *Job
			ok  bool
		)
		if arg == "%%" || arg == "%+" {
			job, ok = s.LastJob()
		} else {
			id, err := strconv.Atoi(arg[1:])
			if err != nil {
				return 0, fmt.Errorf("%s: invalid job spec", arg)
			}
			job, ok = s.Lookup(id)
		}
		if !ok || job.Pgid == 0 {
			return 0, fmt.Errorf("%s: no such job: %w", arg, ErrNoSuchProcess)
		}
		return -job.Pgid, nil
	}

	pid, err := strconv.Atoi(arg)
	switch {
	case errors.Is(err, strconv.ErrSyntax), errors.Is(err, strconv.ErrRange):
		return 0, fmt.Errorf("%s: arguments must be process or job IDs", arg)
	case err != nil:
		return 0, err
	case pid <= 0:
		return 0, fmt.Errorf("%d: %w", pid, ErrNoSuchProcess)
	}
	return pid, nil
}
