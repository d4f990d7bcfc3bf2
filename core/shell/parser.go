package shell

import (
	"errors"
	"fmt"
	"strings"
)

/**
1. The line is trimmed of blanks. A trailing '?' asks for completion, a
trailing '&' sends the whole pipeline to the background. The sentinel is
removed before the line is split.

2. The line is split into words on blanks. Quoted words are not split.

3. The first word names the program. Every following word is one of:

	|        the rest of the line is a new stage fed by this one
	&        ignored
	<file    read standard input from file
	>file    truncate file and write standard output to it
	>>file   append standard output to file
	         (a bare operator takes the following word as its file)
	other    an argument, with one layer of matching quotes removed

4. Only the terminal stage can be in the background. A stage whose output
is piped ignores its own output redirect; the pipe always wins.
**/

// Parse turns a raw input line into a pipeline. A blank line yields a
// pipeline with one stage whose name is empty.
func Parse(line string) (*Pipeline, error) {
	toks, err := Tokenize(line)
	if err != nil {
		return nil, withLine(err, line)
	}

	head := &Stage{}
	if err := parseStage(cursor{words: toks.Words}, head); err != nil {
		return nil, withLine(err, line)
	}

	p := &Pipeline{
		Line:         line,
		Head:         head,
		AutoComplete: toks.AutoComplete,
	}
	if toks.Background && !p.Blank() {
		p.Terminal().Background = true
	}

	return p, nil
}

// parseStage fills st from the words at c. When it meets a pipe it parses
// the remainder into a new stage and returns; that call owns the rest of
// the line.
func parseStage(c cursor, st *Stage) error {
	name, c, ok := c.next()
	if !ok {
		return nil
	}
	if name == "|" {
		return &ParseError{Reason: "unexpected token `|'"}
	}
	st.Name = stripQuotes(name)

	for {
		var (
			word string
			err  error
		)
		word, c, ok = c.next()
		if !ok {
			return nil
		}

		word = strings.Trim(word, blanks)
		if len(word) == 0 {
			continue
		}

		switch {
		case word == "|":
			next := &Stage{}
			if err := parseStage(c, next); err != nil {
				return err
			}
			if next.Name == "" {
				return &ParseError{Reason: "expected a command after `|'"}
			}
			st.Next = next
			return nil

		case word == "&":
			continue

		case strings.HasPrefix(word, "<"):
			var target string
			target, c, err = redirectTarget(word[1:], "<", c)
			if err != nil {
				return err
			}
			st.RedirectIn = target

		case strings.HasPrefix(word, ">>"):
			var target string
			target, c, err = redirectTarget(word[2:], ">>", c)
			if err != nil {
				return err
			}
			if st.RedirectOut != "" {
				return ambiguousOutput(st)
			}
			st.RedirectAppend = target

		case strings.HasPrefix(word, ">"):
			var target string
			target, c, err = redirectTarget(word[1:], ">", c)
			if err != nil {
				return err
			}
			if st.RedirectAppend != "" {
				return ambiguousOutput(st)
			}
			st.RedirectOut = target

		default:
			st.Args = append(st.Args, stripQuotes(word))
		}
	}
}

// redirectTarget returns the file named by a redirect word. When the word
// is only the operator, the file is the next word.
func redirectTarget(rest, op string, c cursor) (string, cursor, error) {
	if rest == "" {
		var ok bool
		if rest, c, ok = c.next(); !ok || rest == "|" || rest == "&" {
			return "", c, &ParseError{Reason: fmt.Sprintf("missing file name after `%s'", op)}
		}
	}
	target := stripQuotes(rest)
	if target == "" {
		return "", c, &ParseError{Reason: fmt.Sprintf("missing file name after `%s'", op)}
	}
	return target, c, nil
}

func withLine(err error, line string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Line = line
	}
	return err
}

func ambiguousOutput(st *Stage) error {
	return &ParseError{Reason: fmt.Sprintf("%s: both `>' and `>>' given", st.Name)}
}
