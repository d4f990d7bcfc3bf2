package commands

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

const DefaultPrompt = `\u@\h:\w\$ `

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-8][0-8]?[0-8]?`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\b`, "\b", // backspace
		`\a`, "\a", // alert
		`\f`, "\f", // form feed
		`\v`, "\v", // vertical tab
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	s = unescapeOctal.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 8, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseInt(arg[2:], 16, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	return s
}

type promptVars struct {
	User    string
	Host    string
	Cwd     string
	Home    string
	Sysname string
	Root    bool
}

// expandPrompt fills in a prompt template. It understands \u (user),
// \h (host), \w (working directory, ~ for home), \s (shell name) and \$
// (# for root, $ otherwise) along with echo style escapes.
func expandPrompt(tmpl string, vars promptVars, colors *ColorPrinter) string {
	if tmpl == "" {
		tmpl = DefaultPrompt
	}

	cwd := vars.Cwd
	if vars.Home != "" && (cwd == vars.Home || strings.HasPrefix(cwd, vars.Home+"/")) {
		cwd = "~" + strings.TrimPrefix(cwd, vars.Home)
	}

	dollar := "$"
	if vars.Root {
		dollar = "#"
	}

	// Escapes go first so the substituted values are never reinterpreted.
	tmpl = strings.NewReplacer(`\u`, "\x00u", `\h`, "\x00h", `\w`, "\x00w", `\s`, "\x00s", `\$`, "\x00$").Replace(tmpl)
	tmpl = unescape(tmpl)

	return strings.NewReplacer(
		"\x00u", colors.Sprint(ColorBoldGreen, vars.User),
		"\x00h", colors.Sprint(ColorBoldGreen, vars.Host),
		"\x00w", colors.Sprint(ColorBoldBlue, cwd),
		"\x00s", colors.Sprint(ColorBoldCyan, vars.Sysname),
		"\x00$", dollar,
	).Replace(tmpl)
}

func (s *Shell) prompt() string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "?"
	}

	return expandPrompt(s.Config.Prompt, promptVars{
		User:    s.User,
		Host:    s.Host,
		Cwd:     cwd,
		Home:    s.Home,
		Sysname: s.sysname(),
		Root:    os.Geteuid() == 0,
	}, s.Colors)
}
