package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/cansudoganay/shellgibi-shell/core/config"
	"github.com/cansudoganay/shellgibi-shell/core/logger"
	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/term"
)

// ExecContext is what a builtin runs with: its arguments, its streams after
// redirection and the shell that invoked it.
type ExecContext struct {
	Shell *Shell
	// Args holds the builtin's name followed by its arguments.
	Args []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// LogInvalidInvocation records bad arguments to a builtin.
func (ec *ExecContext) LogInvalidInvocation(err error) {
	ec.Shell.record(&logger.InvalidInvocation{
		Command: ec.Args,
		Error:   err.Error(),
	})
}

// Errorf writes a message in the shell's error format.
func (ec *ExecContext) Errorf(format string, a ...interface{}) {
	fmt.Fprintf(ec.Stderr, "-%s: %s: %s\n", ec.Shell.sysname(), ec.Args[0], fmt.Sprintf(format, a...))
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a sone line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and
	// always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback.
func (s *SimpleCommand) Run(ec *ExecContext, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(ec.Args, nil)
	if err != nil {
		ec.LogInvalidInvocation(err)
	}

	if err != nil && !s.NeverBail {
		fmt.Fprintf(ec.Stderr, "error: %s\n\n", err)

		s.PrintHelp(ec.Stdout)
		return 2
	}

	if *s.ShowHelp {
		s.PrintHelp(ec.Stdout)
		return 0
	}

	return callback()
}

// RunEachArg runs the callback once per positional argument. Errors are
// reported and make the command fail without stopping the remaining
// arguments.
func (s *SimpleCommand) RunEachArg(ec *ExecContext, callback func(string) error) int {
	return s.Run(ec, func() int {
		anyFailed := false
		for _, arg := range s.Args() {
			if err := callback(arg); err != nil {
				ec.Errorf("%v", err)
				anyFailed = true
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	})
}

// Args returns the positional arguments left after flag parsing.
func (s *SimpleCommand) Args() []string {
	return s.Flags().Args()
}

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// ColorPrinter decides whether output gets colored and applies it.
type ColorPrinter struct {
	mode string
	out  io.Writer
}

// NewColorPrinter creates a printer for one of the configured color modes.
// In auto mode output is colored only when out is a terminal.
func NewColorPrinter(mode string, out io.Writer) *ColorPrinter {
	return &ColorPrinter{mode: mode, out: out}
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case c == nil || c.mode == config.ColorNever:
		return false
	case c.mode == config.ColorAlways:
		return true
	default:
		fd, ok := c.out.(*os.File)
		return ok && term.IsTerminal(int(fd.Fd()))
	}
}

// Forced returns a copy of col that ignores the global no-color setting
// when this printer colors, nil otherwise.
func (c *ColorPrinter) Forced(col *color.Color) *color.Color {
	if !c.ShouldColor() {
		return nil
	}
	forced := *col
	forced.EnableColor()
	return &forced
}

func (c *ColorPrinter) Sprint(col *color.Color, a ...interface{}) string {
	if forced := c.Forced(col); forced != nil {
		return forced.Sprint(a...)
	}
	return fmt.Sprint(a...)
}

func (c *ColorPrinter) Sprintf(col *color.Color, format string, a ...interface{}) string {
	if forced := c.Forced(col); forced != nil {
		return forced.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
