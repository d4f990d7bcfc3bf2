package proc

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"github.com/cansudoganay/shellgibi-shell/core/shell"
)

// Stdio holds the streams a pipeline inherits from the session.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Process is one launched stage.
type Process struct {
	Stage *shell.Stage
	Path  string
	Cmd   *exec.Cmd

	// Err is set when the stage never started.
	Err error
}

// Started reports whether the stage's program is running or has run.
func (p *Process) Started() bool {
	return p.Err == nil && p.Cmd != nil && p.Cmd.Process != nil
}

// Pid returns the process id, or 0 if the stage never started.
func (p *Process) Pid() int {
	if !p.Started() {
		return 0
	}
	return p.Cmd.Process.Pid
}

// Launcher starts a pipeline as one OS process per stage.
type Launcher struct {
	Resolver *Resolver

	// Dir is the working directory of started programs, empty for the
	// current one.
	Dir string
	// Env is the environment of started programs, nil to inherit.
	Env []string

	// Warn is told about redirects that lose to pipe wiring.
	Warn func(st *shell.Stage, msg string)
}

// NewLauncher creates a launcher that resolves names with r.
func NewLauncher(r *Resolver) *Launcher {
	return &Launcher{Resolver: r}
}

type pipePair struct {
	r, w *os.File
}

// Launch starts every stage of p. All pipes are created before the first
// program starts and the parent's copy of each descriptor is closed as soon
// as the process that needs it has started.
//
// The returned error is set only when the whole pipeline had to be
// abandoned before anything ran: the head's input file can't be opened or
// pipes can't be allocated. Per-stage failures are recorded on the
// returned processes.
func (l *Launcher) Launch(p *shell.Pipeline, stdio Stdio) ([]*Process, error) {
	stages := p.Stages()
	if p.Blank() || len(stages) == 0 {
		return nil, nil
	}

	var input io.Reader = stdio.In
	head := stages[0]
	if head.RedirectIn != "" {
		fd, err := OpenInput(head.RedirectIn)
		if err != nil {
			return nil, err
		}
		defer fd.Close()
		input = fd
	}

	pipes := make([]pipePair, len(stages)-1)
	for i := range pipes {
		r, w, err := os.Pipe()
		if err != nil {
			for _, pp := range pipes[:i] {
				pp.r.Close()
				pp.w.Close()
			}
			return nil, err
		}
		pipes[i] = pipePair{r: r, w: w}
	}

	background := p.Background()
	pgid := 0
	procs := make([]*Process, 0, len(stages))
	for i, st := range stages {
		last := i == len(stages)-1
		l.warnOverridden(st, i, last)

		proc := &Process{Stage: st, Path: l.Resolver.Resolve(st.Name)}
		procs = append(procs, proc)

		cmd := &exec.Cmd{
			Path:   proc.Path,
			Args:   st.Argv(),
			Dir:    l.Dir,
			Env:    l.Env,
			Stderr: stdio.Err,
		}
		proc.Cmd = cmd

		if i == 0 {
			cmd.Stdin = input
		} else {
			cmd.Stdin = pipes[i-1].r
		}

		var outFile *os.File
		if last {
			cmd.Stdout = stdio.Out
			if target, appendMode := st.OutputRedirect(); target != "" {
				fd, err := OpenOutput(target, appendMode)
				if err != nil {
					proc.Err = err
				} else {
					outFile = fd
					cmd.Stdout = fd
				}
			}
		} else {
			cmd.Stdout = pipes[i].w
		}

		if background {
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
		}

		if proc.Err == nil {
			if err := cmd.Start(); err != nil {
				proc.Err = startError(st, proc.Path, err)
			} else if background && pgid == 0 {
				pgid = cmd.Process.Pid
			}
		}

		if outFile != nil {
			outFile.Close()
		}
		if i > 0 {
			pipes[i-1].r.Close()
		}
		if !last {
			pipes[i].w.Close()
		}
	}

	return procs, nil
}

func (l *Launcher) warnOverridden(st *shell.Stage, i int, last bool) {
	if l.Warn == nil {
		return
	}
	if target, _ := st.OutputRedirect(); target != "" && !last {
		l.Warn(st, "output redirect to "+target+" ignored, output is piped")
	}
	if st.RedirectIn != "" && i > 0 {
		l.Warn(st, "input redirect from "+st.RedirectIn+" ignored, input is piped")
	}
}

// OpenInput opens an input redirection target read-only.
func OpenInput(target string) (*os.File, error) {
	fd, err := os.Open(target)
	if err != nil {
		return nil, &RedirectionError{Path: target, Mode: RedirectRead, Err: err}
	}
	return fd, nil
}

// OpenOutput opens an output redirection target, creating it if needed and
// either truncating or appending.
func OpenOutput(target string, appendMode bool) (*os.File, error) {
	flags, mode := os.O_WRONLY|os.O_CREATE|os.O_TRUNC, RedirectTruncate
	if appendMode {
		flags, mode = os.O_WRONLY|os.O_CREATE|os.O_APPEND, RedirectAppend
	}
	fd, err := os.OpenFile(target, flags, 0644)
	if err != nil {
		return nil, &RedirectionError{Path: target, Mode: mode, Err: err}
	}
	return fd, nil
}

func startError(st *shell.Stage, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		err = ErrExecutableNotFound
	}
	return &ExecError{Stage: st.Name, Path: path, Err: err}
}
