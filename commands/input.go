package commands

import (
	"os"

	"github.com/abiosoft/readline"
	"golang.org/x/term"
)

var _ LineReader = (*readline.Instance)(nil)

// NewLineReader creates the interactive line editor for s, with history
// saved next to the configuration and TAB completion.
func NewLineReader(s *Shell) (*readline.Instance, error) {
	cfg := &readline.Config{
		Stdin:           readline.NewCancelableStdin(s.Stdin),
		Stdout:          s.Stdout,
		Stderr:          s.Stderr,
		HistoryFile:     s.Config.HistoryPath(),
		HistoryLimit:    s.Config.HistoryLimit,
		AutoComplete:    &completer{shell: s},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		FuncIsTerminal: func() bool {
			fd, ok := s.Stdin.(*os.File)
			return ok && term.IsTerminal(int(fd.Fd()))
		},
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	return readline.NewEx(cfg)
}
