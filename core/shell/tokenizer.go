package shell

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/anmitsu/go-shlex"
)

const (
	// blanks are the only characters that separate words.
	blanks = " \t"

	sentinelAutoComplete = '?'
	sentinelBackground   = '&'
)

// wordTokenizer splits on blanks only. Quotes are kept in the token so the
// parser can decide how to strip them.
type wordTokenizer struct {
	shlex.DefaultTokenizer
}

func (*wordTokenizer) IsWhitespace(r rune) bool {
	return strings.ContainsRune(blanks, r)
}

var _ shlex.Tokenizer = (*wordTokenizer)(nil)

// Tokens is the result of tokenizing one line.
type Tokens struct {
	// Words holds the tokens in order, quotes intact.
	Words []string

	// Background is set when the line ended with '&'.
	Background bool
	// AutoComplete is set when the line ended with '?'.
	AutoComplete bool
}

// Tokenize trims the line, strips a trailing '?' or '&' sentinel and splits
// the rest into words. A quoted word keeps its quotes and is never split on
// the blanks inside it.
func Tokenize(line string) (*Tokens, error) {
	out := &Tokens{}

	line = strings.Trim(line, blanks)
	if n := len(line); n > 0 {
		switch line[n-1] {
		case sentinelAutoComplete:
			out.AutoComplete = true
			line = strings.TrimRight(line[:n-1], blanks)
		case sentinelBackground:
			out.Background = true
			line = strings.TrimRight(line[:n-1], blanks)
		}
	}

	// The lexer reads runes, so invalid bytes would come out as U+FFFD.
	if !utf8.ValidString(line) {
		return nil, &ParseError{Line: line, Reason: "invalid UTF-8 in input"}
	}

	lexer := shlex.NewLexerString(line, false, true)
	lexer.SetTokenizer(&wordTokenizer{})
	words, err := lexer.Split()
	switch {
	case errors.Is(err, shlex.ErrNoClosing):
		return nil, &ParseError{Line: line, Reason: "unexpected end of line while looking for matching quote", Err: err}
	case err != nil:
		return nil, &ParseError{Line: line, Reason: err.Error(), Err: err}
	}
	out.Words = words

	return out, nil
}

// cursor is a read position in an immutable token list. It is passed by
// value, so a recursive parse never disturbs its caller's position.
type cursor struct {
	words []string
	pos   int
}

func (c cursor) next() (string, cursor, bool) {
	if c.pos >= len(c.words) {
		return "", c, false
	}
	word := c.words[c.pos]
	c.pos++
	return word, c, true
}

// stripQuotes removes one layer of matching quotes from words longer than
// two bytes.
func stripQuotes(word string) string {
	n := len(word)
	if n > 2 && word[0] == word[n-1] && (word[0] == '"' || word[0] == '\'') {
		return word[1 : n-1]
	}
	return word
}
