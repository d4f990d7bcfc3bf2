package commands

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/cansudoganay/shellgibi-shell/core/proc"
	"github.com/cansudoganay/shellgibi-shell/core/shell"
	"github.com/spf13/afero"
)

// matchEntries lists the names in dir starting with prefix, sorted, with a
// trailing slash on directories. Hidden files are left out unless prefix
// asks for them.
func matchEntries(fs afero.Fs, dir, prefix string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, info := range infos {
		name := info.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if info.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	return out, nil
}

// listCompletions prints the working directory entries that complete the
// last word of the line.
func (s *Shell) listCompletions(p *shell.Pipeline) {
	st := p.Terminal()

	var word string
	if n := len(st.Args); n > 0 {
		word = st.Args[n-1]
	}
	dir, prefix := path.Split(word)
	if dir == "" {
		dir = "."
	}

	names, err := matchEntries(s.Fs, dir, prefix)
	if err != nil {
		s.lastRet = 1
		s.Reporter.Report(proc.ScopePipeline, dir, err)
		return
	}
	for _, name := range names {
		fmt.Fprintln(s.Stdout, name)
	}
	s.lastRet = 0
}

// commandNames lists builtins, known tools and programs in the default
// directory that start with prefix.
func (s *Shell) commandNames(prefix string) []string {
	seen := make(map[string]bool)
	add := func(name string) {
		if strings.HasPrefix(name, prefix) {
			seen[name] = true
		}
	}

	for name := range AllBuiltins {
		add(name)
	}
	for name := range s.Config.KnownTools {
		add(name)
	}
	if infos, err := afero.ReadDir(s.Fs, s.Config.DefaultBinDir); err == nil {
		for _, info := range infos {
			if !info.IsDir() {
				add(info.Name())
			}
		}
	}

	var out []string
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type completer struct {
	shell *Shell
}

// Do implements readline.AutoCompleter. The first word of a stage completes
// to command names, later words to file names.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	head := string(line[:pos])
	start := strings.LastIndexAny(head, " \t|<>") + 1
	word := head[start:]
	before := strings.TrimSpace(head[:start])

	var candidates []string
	if strings.ContainsAny(word, "/") || (before != "" && !strings.HasSuffix(before, "|")) {
		dir, prefix := path.Split(word)
		lookIn := dir
		if lookIn == "" {
			lookIn = "."
		}
		names, _ := matchEntries(c.shell.Fs, lookIn, prefix)
		for _, name := range names {
			if !strings.HasSuffix(name, "/") {
				name += " "
			}
			candidates = append(candidates, dir+name)
		}
	} else {
		for _, name := range c.shell.commandNames(word) {
			candidates = append(candidates, name+" ")
		}
	}

	var out [][]rune
	for _, candidate := range candidates {
		out = append(out, []rune(strings.TrimPrefix(candidate, word)))
	}
	return out, len([]rune(word))
}
