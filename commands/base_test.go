package commands

import (
	"bytes"
	"testing"

	"github.com/cansudoganay/shellgibi-shell/core/config"
	"github.com/stretchr/testify/assert"
)

func TestSimpleCommand(t *testing.T) {
	cases := map[string]struct {
		args     []string
		code     int
		called   bool
		stdout   string
		stderr   string
		verbose  bool
		leftover []string
	}{
		"no-args": {
			args:   []string{"cmd"},
			called: true,
		},
		"flag-and-args": {
			args:     []string{"cmd", "-v", "a", "b"},
			called:   true,
			verbose:  true,
			leftover: []string{"a", "b"},
		},
		"help": {
			args:   []string{"cmd", "--help"},
			stdout: "usage: cmd [-v] ARG...\nDoes a thing.\n\nFlags:\n",
		},
		"bad-flag": {
			args:   []string{"cmd", "-q"},
			code:   2,
			stderr: "error: ",
			stdout: "usage: cmd [-v] ARG...\nDoes a thing.\n\nFlags:\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			var stdout, stderr bytes.Buffer
			ec := &ExecContext{Shell: ts.Shell, Args: tc.args, Stdout: &stdout, Stderr: &stderr}

			cmd := &SimpleCommand{
				Use:   "cmd [-v] ARG...",
				Short: "Does a thing.",
			}
			verbose := cmd.Flags().Bool('v', "be verbose")

			called := false
			code := cmd.Run(ec, func() int {
				called = true
				assert.Equal(t, tc.verbose, *verbose)
				assert.Equal(t, tc.leftover, nilIfEmpty(cmd.Args()))
				return 0
			})

			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.called, called)
			if tc.stderr == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), tc.stderr)
			}
			assert.Contains(t, stdout.String(), tc.stdout)
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestColorPrinter(t *testing.T) {
	var buf bytes.Buffer

	cases := map[string]struct {
		printer  *ColorPrinter
		expected string
	}{
		"nil":            {nil, "hi"},
		"never":          {NewColorPrinter(config.ColorNever, &buf), "hi"},
		"always":         {NewColorPrinter(config.ColorAlways, &buf), "\x1b[31;1mhi\x1b[0m"},
		"auto-not-a-tty": {NewColorPrinter(config.ColorAuto, &buf), "hi"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.printer.Sprint(ColorBoldRed, "hi"))
			assert.Equal(t, tc.expected, tc.printer.Sprintf(ColorBoldRed, "%s", "hi"))
		})
	}
}

func TestForcedLeavesOriginal(t *testing.T) {
	forced := NewColorPrinter(config.ColorAlways, nil).Forced(ColorBoldRed)

	assert.NotNil(t, forced)
	assert.NotSame(t, ColorBoldRed, forced)
	assert.Nil(t, NewColorPrinter(config.ColorNever, nil).Forced(ColorBoldRed))
}
