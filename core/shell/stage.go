package shell

import (
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Stage is a single command in a pipeline.
type Stage struct {
	// Name is the program name or path, empty only for a blank line.
	Name string
	// Args holds the program arguments, excluding the program name.
	Args []string

	// RedirectIn is the file to read standard input from.
	RedirectIn string
	// RedirectOut is the file standard output is truncated into.
	RedirectOut string
	// RedirectAppend is the file standard output is appended to.
	RedirectAppend string

	// Background is only ever set on the terminal stage of a chain.
	Background bool

	// Next is the stage this one pipes its output to.
	Next *Stage
}

// ArgCount returns the number of ordinary arguments.
func (s *Stage) ArgCount() int {
	return len(s.Args)
}

// Argv returns the argument vector as passed to exec, Name first.
func (s *Stage) Argv() []string {
	return append([]string{s.Name}, s.Args...)
}

// OutputRedirect returns the output target and whether it appends.
func (s *Stage) OutputRedirect() (path string, appendMode bool) {
	if s.RedirectAppend != "" {
		return s.RedirectAppend, true
	}
	return s.RedirectOut, false
}

// String renders the stage back to shell syntax, quoting words that need it.
func (s *Stage) String() string {
	var words []string
	words = append(words, quoteWord(s.Name, true))
	for _, w := range s.Args {
		words = append(words, quoteWord(w, false))
	}
	if s.RedirectIn != "" {
		words = append(words, "<"+quoteWord(s.RedirectIn, false))
	}
	if s.RedirectOut != "" {
		words = append(words, ">"+quoteWord(s.RedirectOut, false))
	}
	if s.RedirectAppend != "" {
		words = append(words, ">>"+quoteWord(s.RedirectAppend, false))
	}
	return strings.Join(words, " ")
}

// quoteWord quotes w for the shell. Reserved words only need quoting in
// command position.
func quoteWord(w string, command bool) string {
	if !command && syntax.IsKeyword(w) {
		return w
	}
	quoted, err := syntax.Quote(w, syntax.LangBash)
	if err != nil {
		return w
	}
	return quoted
}

// Pipeline is a parsed input line.
type Pipeline struct {
	// Line is the raw line the pipeline was parsed from.
	Line string
	// Head is the first stage; a pipeline always has at least one.
	Head *Stage
	// AutoComplete is set when the line ended with a '?'.
	AutoComplete bool
}

// Blank reports whether the line contained no command at all.
func (p *Pipeline) Blank() bool {
	return p.Head == nil || p.Head.Name == ""
}

// Stages returns the chain as a slice, head first.
func (p *Pipeline) Stages() []*Stage {
	var out []*Stage
	for s := p.Head; s != nil; s = s.Next {
		out = append(out, s)
	}
	return out
}

// Terminal returns the last stage of the chain.
func (p *Pipeline) Terminal() *Stage {
	s := p.Head
	for s != nil && s.Next != nil {
		s = s.Next
	}
	return s
}

// Background reports whether the pipeline should run without blocking.
func (p *Pipeline) Background() bool {
	if t := p.Terminal(); t != nil {
		return t.Background
	}
	return false
}

// String renders the whole pipeline back to shell syntax.
func (p *Pipeline) String() string {
	var parts []string
	for _, s := range p.Stages() {
		parts = append(parts, s.String())
	}
	out := strings.Join(parts, " | ")
	if p.Background() {
		out += " &"
	}
	return out
}

// Describe writes a human readable dump of the pipeline.
func (p *Pipeline) Describe(w io.Writer) {
	describeStage(w, p.Head, p.AutoComplete)
}

func describeStage(w io.Writer, s *Stage, autoComplete bool) {
	if s == nil {
		return
	}
	fmt.Fprintf(w, "Command: <%s>\n", s.Name)
	fmt.Fprintf(w, "\tIs Background: %s\n", yesNo(s.Background))
	fmt.Fprintf(w, "\tNeeds Auto-complete: %s\n", yesNo(autoComplete))
	fmt.Fprintln(w, "\tRedirects:")
	for i, r := range []string{s.RedirectIn, s.RedirectOut, s.RedirectAppend} {
		if r == "" {
			r = "N/A"
		}
		fmt.Fprintf(w, "\t\t%d: %s\n", i, r)
	}
	fmt.Fprintf(w, "\tArguments (%d):\n", s.ArgCount())
	for i, arg := range s.Args {
		fmt.Fprintf(w, "\t\tArg %d: %s\n", i, arg)
	}
	if s.Next != nil {
		fmt.Fprintln(w, "\tPiped to:")
		describeStage(w, s.Next, false)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
