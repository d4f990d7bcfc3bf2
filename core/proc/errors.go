package proc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/fatih/color"
)

var (
	// ErrExecutableNotFound is returned when the resolved path of a stage
	// does not name a program.
	ErrExecutableNotFound = errors.New("command not found")

	// ErrNoSuchProcess is returned when a signal target does not exist.
	ErrNoSuchProcess = errors.New("no such process")
)

// ExecError is set on a stage whose program could not be started.
type ExecError struct {
	Stage string
	Path  string
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// RedirectMode is the way a redirection target is opened.
type RedirectMode int

const (
	RedirectRead RedirectMode = iota
	RedirectTruncate
	RedirectAppend
)

func (m RedirectMode) String() string {
	switch m {
	case RedirectRead:
		return "read"
	case RedirectTruncate:
		return "truncate"
	case RedirectAppend:
		return "append"
	default:
		return fmt.Sprintf("RedirectMode(%d)", int(m))
	}
}

// RedirectionError is returned when a redirection target can't be opened.
type RedirectionError struct {
	Path string
	Mode RedirectMode
	Err  error
}

func (e *RedirectionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *RedirectionError) Unwrap() error {
	return e.Err
}

// Scope identifies how much of the session an error affects.
type Scope int

const (
	// ScopeStage errors only fail one process of a pipeline.
	ScopeStage Scope = iota
	// ScopePipeline errors abort the current command line.
	ScopePipeline
	// ScopeSession errors end the interactive loop.
	ScopeSession
)

func (s Scope) String() string {
	switch s {
	case ScopeStage:
		return "stage"
	case ScopePipeline:
		return "pipeline"
	case ScopeSession:
		return "session"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// Reporter writes user visible errors as "-<name>: <subject>: <message>".
type Reporter struct {
	Name string
	W    io.Writer
	// Color paints the message, nil writes plain text.
	Color *color.Color
}

// Report writes err and returns true if the session has to end.
func (r *Reporter) Report(scope Scope, subject string, err error) bool {
	if err == nil {
		return false
	}

	var (
		execErr  *ExecError
		redirErr *RedirectionError
	)
	switch {
	case errors.As(err, &execErr):
		subject = execErr.Stage
	case errors.As(err, &redirErr):
		subject = redirErr.Path
	}

	line := fmt.Sprintf("-%s: %s", r.Name, Message(err))
	if subject != "" {
		line = fmt.Sprintf("-%s: %s: %s", r.Name, subject, Message(err))
	}
	if r.Color != nil {
		line = r.Color.Sprint(line)
	}
	fmt.Fprintln(r.W, line)

	return scope == ScopeSession
}

// Message returns the part of err worth showing a user, without the
// subject it is about.
func Message(err error) string {
	var (
		execErr  *ExecError
		redirErr *RedirectionError
		pathErr  *fs.PathError
	)
	switch {
	case errors.Is(err, ErrExecutableNotFound):
		return ErrExecutableNotFound.Error()
	case errors.As(err, &execErr):
		err = execErr.Err
	case errors.As(err, &redirErr):
		err = redirErr.Err
	}
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
