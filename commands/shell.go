package commands

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/user"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/cansudoganay/shellgibi-shell/core/config"
	"github.com/cansudoganay/shellgibi-shell/core/logger"
	"github.com/cansudoganay/shellgibi-shell/core/proc"
	"github.com/cansudoganay/shellgibi-shell/core/shell"
	"github.com/spf13/afero"
)

// Status tells the interactive loop what to do after a line.
type Status int

const (
	// Success continues the loop.
	Success Status = iota
	// Exit ends the loop.
	Exit
	// Unknown continues the loop after a program couldn't be run.
	Unknown
)

func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case Exit:
		return "Exit"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

const (
	exitSyntaxError = 2
	exitNotFound    = 127
)

// LineReader supplies the interactive loop with lines.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	ResetHistory()
	Close() error
}

type Shell struct {
	Config     *config.Configuration
	Supervisor *proc.Supervisor
	Relay      *proc.Relay
	Reporter   *proc.Reporter
	Events     *logger.SessionLogger
	Colors     *ColorPrinter
	// Fs is used by builtins that read or write files.
	Fs afero.Fs
	// Log receives diagnostics that aren't about the user's command.
	Log *log.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	User string
	Host string
	Home string

	// Debug dumps every parsed pipeline before it runs.
	Debug bool

	input   LineReader
	history []string
	lastRet int

	// Set to true to quit the shell
	quit bool
}

// NewShell creates a shell using cfg, the built in configuration if nil.
func NewShell(cfg *config.Configuration, stdio proc.Stdio) *Shell {
	if cfg == nil {
		cfg = config.Default()
	}

	launcher := proc.NewLauncher(proc.NewResolver(cfg.DefaultBinDir, cfg.KnownTools))
	supervisor := proc.NewSupervisor(launcher)

	s := &Shell{
		Config:     cfg,
		Supervisor: supervisor,
		Relay:      proc.NewRelay(supervisor),
		Events:     logger.Discard().Sessionless(),
		Colors:     NewColorPrinter(cfg.Color, stdio.Out),
		Fs:         afero.NewOsFs(),
		Log:        log.New(stdio.Err, "", 0),
		Stdin:      stdio.In,
		Stdout:     stdio.Out,
		Stderr:     stdio.Err,
	}
	s.Reporter = &proc.Reporter{
		Name:  cfg.Sysname,
		W:     stdio.Err,
		Color: NewColorPrinter(cfg.Color, stdio.Err).Forced(ColorBoldRed),
	}
	launcher.Warn = func(st *shell.Stage, msg string) {
		fmt.Fprintf(s.Stderr, "-%s: %s: warning: %s\n", s.sysname(), st.Name, msg)
	}

	s.Init()
	return s
}

// Init fills in the user, host and home directory from the environment.
func (s *Shell) Init() {
	if u, err := user.Current(); err == nil {
		s.User = u.Username
		s.Home = u.HomeDir
	}
	if name := os.Getenv("USER"); name != "" {
		s.User = name
	}
	if home, err := os.UserHomeDir(); err == nil {
		s.Home = home
	}
	if host, err := os.Hostname(); err == nil {
		s.Host = strings.SplitN(host, ".", 2)[0]
	}
}

func (s *Shell) sysname() string {
	if s.Config.Sysname == "" {
		return "shellgibi"
	}
	return s.Config.Sysname
}

// ExitCode returns the exit code of the last command.
func (s *Shell) ExitCode() int {
	return s.lastRet
}

// RunInteractive reads and runs lines until exit or end of input.
func (s *Shell) RunInteractive(input LineReader) int {
	s.input = input
	defer func() { s.input = nil }()

	for !s.quit {
		s.notifyDone()
		input.SetPrompt(s.prompt())
		line, err := input.Readline()

		switch {
		case err == io.EOF:
			return s.lastRet // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			if s.Reporter.Report(proc.ScopeSession, "readline", err) {
				return 1
			}
			continue
		}

		if strings.TrimSpace(line) != "" {
			s.history = append(s.history, line)
		}
		s.RunCommand(line)
	}
	return s.lastRet
}

// RunCommand parses and runs one line.
func (s *Shell) RunCommand(line string) Status {
	p, err := shell.Parse(line)
	if err != nil {
		s.lastRet = exitSyntaxError
		s.record(&logger.InvalidInvocation{Line: line, Error: err.Error()})
		s.Reporter.Report(proc.ScopePipeline, "", err)
		return Success
	}

	if s.Debug {
		p.Describe(s.Stderr)
	}

	switch {
	case p.AutoComplete:
		s.listCompletions(p)
		return Success
	case p.Blank():
		return Success
	}

	if builtin, ok := AllBuiltins[p.Head.Name]; ok && p.Head.Next == nil {
		return s.runBuiltin(p, builtin)
	}

	return s.runPipeline(p, proc.Stdio{In: s.Stdin, Out: s.Stdout, Err: s.Stderr})
}

func (s *Shell) runBuiltin(p *shell.Pipeline, builtin ShellBuiltin) Status {
	st := p.Head
	ec := &ExecContext{
		Shell:  s,
		Args:   st.Argv(),
		Stdin:  s.Stdin,
		Stdout: s.Stdout,
		Stderr: s.Stderr,
	}

	if st.RedirectIn != "" {
		fd, err := proc.OpenInput(st.RedirectIn)
		if err != nil {
			s.lastRet = 1
			s.Reporter.Report(proc.ScopePipeline, st.Name, err)
			return Success
		}
		defer fd.Close()
		ec.Stdin = fd
	}
	if target, appendMode := st.OutputRedirect(); target != "" {
		fd, err := proc.OpenOutput(target, appendMode)
		if err != nil {
			s.lastRet = 1
			s.Reporter.Report(proc.ScopePipeline, st.Name, err)
			return Success
		}
		defer fd.Close()
		ec.Stdout = fd
	}

	s.lastRet = builtin.Main(ec)
	s.record(&logger.RunCommand{
		Line:     p.Line,
		Builtin:  true,
		Stages:   []logger.StageInfo{{Command: st.Argv()}},
		ExitCode: s.lastRet,
	})

	if s.quit {
		return Exit
	}
	return Success
}

func (s *Shell) runPipeline(p *shell.Pipeline, stdio proc.Stdio) Status {
	res, err := s.Supervisor.Run(p, stdio)
	if err != nil {
		s.lastRet = 1
		s.Reporter.Report(proc.ScopePipeline, p.Head.Name, err)
		return Success
	}

	status := Success
	event := &logger.RunCommand{
		Line:       p.Line,
		Background: p.Background(),
		ExitCode:   res.ExitCode,
	}
	for _, pr := range res.Procs {
		event.Stages = append(event.Stages, logger.StageInfo{
			Command:      pr.Stage.Argv(),
			ResolvedPath: pr.Path,
			Pid:          pr.Pid(),
		})
		if pr.Err == nil {
			continue
		}

		s.Reporter.Report(proc.ScopeStage, pr.Stage.Name, pr.Err)
		var execErr *proc.ExecError
		if errors.As(pr.Err, &execErr) {
			status = Unknown
			s.record(&logger.UnknownCommand{
				Command:      pr.Stage.Argv(),
				ResolvedPath: pr.Path,
				ErrorMessage: proc.Message(pr.Err),
			})
		}
	}
	s.record(event)

	switch {
	case res.Job != nil:
		s.lastRet = 0
		if res.Job.Pgid != 0 {
			fmt.Fprintf(s.Stderr, "[%d] %d\n", res.Job.ID, res.Job.Pgid)
		}
	case res.ExitCode >= 0:
		s.lastRet = res.ExitCode
	case status == Unknown:
		s.lastRet = exitNotFound
	default:
		s.lastRet = 1
	}
	return status
}

// runProgram runs argv as a foreground program on the builtin's streams.
func (s *Shell) runProgram(ec *ExecContext, argv ...string) int {
	p := &shell.Pipeline{
		Head: &shell.Stage{Name: argv[0], Args: argv[1:]},
	}
	p.Line = p.String()

	s.runPipeline(p, proc.Stdio{In: ec.Stdin, Out: ec.Stdout, Err: ec.Stderr})
	return s.lastRet
}

// notifyDone announces background jobs that finished since the last call.
func (s *Shell) notifyDone() {
	for _, job := range s.Supervisor.Reap() {
		fmt.Fprintf(s.Stdout, "[%d] %s %s\n", job.ID, job.Status(), job.Line)
		s.record(&logger.JobDone{
			JobID:  job.ID,
			Line:   job.Line,
			Status: job.Status(),
		})
	}
}

func (s *Shell) record(event logger.LogType) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Record(event); err != nil {
		s.Log.Printf("event log: %v", err)
	}
}
