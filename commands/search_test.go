package commands

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	cases := map[string]struct {
		line     string
		code     int
		expected string
	}{
		"nested": {
			line:     "search notes.txt",
			expected: "/home/tester/docs/deep/notes.txt\n",
		},
		"depth-first": {
			line:     "search dup",
			expected: "/home/tester/a/x/dup\n",
		},
		"directory": {
			line:     "search deep",
			expected: "/home/tester/docs/deep\n",
		},
		"missing": {
			line:     "search nothing.here",
			code:     1,
			expected: "nothing.here is searched, but could not be found.\n",
		},
		"outside-home": {
			line:     "search passwd",
			code:     1,
			expected: "passwd is searched, but could not be found.\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)
			for _, name := range []string{
				"/home/tester/docs/deep/notes.txt",
				"/home/tester/a/x/dup",
				"/home/tester/b/dup",
				"/etc/passwd",
			} {
				require.NoError(t, afero.WriteFile(ts.Fs, name, nil, 0644))
			}

			ts.RunCommand(tc.line)

			assert.Equal(t, tc.code, ts.ExitCode())
			assert.Equal(t, tc.expected, ts.stdout.String())
		})
	}
}

func TestSearchUsage(t *testing.T) {
	ts := newTestShell(t)

	ts.RunCommand("search")

	assert.Equal(t, 2, ts.ExitCode())
	assert.Equal(t, "-shellgibi: search: usage: search <name>\n", ts.stderr.String())
}
