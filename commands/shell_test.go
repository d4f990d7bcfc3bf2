package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abiosoft/readline"
	"github.com/cansudoganay/shellgibi-shell/core/config"
	"github.com/cansudoganay/shellgibi-shell/core/logger"
	"github.com/cansudoganay/shellgibi-shell/core/proc"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testShell struct {
	*Shell
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	events *bytes.Buffer
}

// newTestShell creates a shell on an in memory filesystem whose programs
// resolve through the host PATH. Tests skip when a program is missing.
func newTestShell(t *testing.T, programs ...string) *testShell {
	t.Helper()

	cfg := config.Default()
	cfg.Color = config.ColorNever
	cfg.KnownTools = make(map[string]string)
	for _, name := range programs {
		p, err := exec.LookPath(name)
		if err != nil {
			t.Skipf("%s not available: %v", name, err)
		}
		cfg.KnownTools[name] = p
	}

	ts := &testShell{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		events: &bytes.Buffer{},
	}
	ts.Shell = NewShell(cfg, proc.Stdio{
		In:  strings.NewReader(""),
		Out: ts.stdout,
		Err: ts.stderr,
	})
	ts.Fs = afero.NewMemMapFs()
	ts.Events = logger.NewJsonLinesLogRecorder(ts.events).NewSession()
	ts.User = "tester"
	ts.Host = "box"
	ts.Home = "/home/tester"

	return ts
}

// withTool registers an extra known tool under a different name.
func (ts *testShell) withTool(t *testing.T, name, program string) {
	t.Helper()

	p, err := exec.LookPath(program)
	if err != nil {
		t.Skipf("%s not available: %v", program, err)
	}
	ts.Config.KnownTools[name] = p
	ts.Supervisor.Launcher.Resolver.KnownTools[name] = p
}

func (ts *testShell) loggedEvents(t *testing.T) []logger.LogEntry {
	t.Helper()

	var entries []logger.LogEntry
	err := logger.ReadJSONLinesLog(bytes.NewReader(ts.events.Bytes()), func(le *logger.LogEntry) {
		entries = append(entries, *le)
	})
	require.NoError(t, err)
	return entries
}

// chdir moves the test process and restores the old directory afterwards.
func chdir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

type fakeReader struct {
	lines   []string
	prompts []string
	resets  int
	err     error
}

func (f *fakeReader) SetPrompt(prompt string) {
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeReader) Readline() (string, error) {
	if len(f.lines) == 0 {
		if f.err != nil {
			return "", f.err
		}
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeReader) ResetHistory() {
	f.resets++
}

func (f *fakeReader) Close() error {
	return nil
}

var _ LineReader = (*fakeReader)(nil)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Success", Success.String())
	assert.Equal(t, "Exit", Exit.String())
	assert.Equal(t, "Unknown", Unknown.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestRunCommandProgram(t *testing.T) {
	ts := newTestShell(t, "echo")

	status := ts.RunCommand(`echo "hello world"`)

	assert.Equal(t, Success, status)
	assert.Equal(t, "hello world\n", ts.stdout.String())
	assert.Empty(t, ts.stderr.String())
	assert.Equal(t, 0, ts.ExitCode())
}

func TestRunCommandPipeline(t *testing.T) {
	ts := newTestShell(t, "echo", "tr")

	status := ts.RunCommand(`echo abc | tr a-z A-Z`)

	assert.Equal(t, Success, status)
	assert.Equal(t, "ABC\n", ts.stdout.String())
}

func TestRunCommandExitCode(t *testing.T) {
	ts := newTestShell(t, "sh")

	status := ts.RunCommand(`sh -c 'exit 4'`)

	assert.Equal(t, Success, status)
	assert.Equal(t, 4, ts.ExitCode())
}

func TestRunCommandUnknown(t *testing.T) {
	ts := newTestShell(t)

	status := ts.RunCommand("no-such-program-here --flag")

	assert.Equal(t, Unknown, status)
	assert.Equal(t, "-shellgibi: no-such-program-here: command not found\n", ts.stderr.String())
	assert.Equal(t, 127, ts.ExitCode())

	var unknown *logger.UnknownCommand
	for _, entry := range ts.loggedEvents(t) {
		if entry.UnknownCommand != nil {
			unknown = entry.UnknownCommand
		}
	}
	require.NotNil(t, unknown)
	assert.Equal(t, []string{"no-such-program-here", "--flag"}, unknown.Command)
	assert.Equal(t, "/bin/no-such-program-here", unknown.ResolvedPath)
}

func TestRunCommandParseError(t *testing.T) {
	ts := newTestShell(t)

	status := ts.RunCommand(`echo "unterminated`)

	assert.Equal(t, Success, status)
	assert.Equal(t, 2, ts.ExitCode())
	assert.True(t, strings.HasPrefix(ts.stderr.String(), "-shellgibi: syntax error"), ts.stderr.String())

	entries := ts.loggedEvents(t)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].InvalidInvocation)
	assert.Equal(t, `echo "unterminated`, entries[0].InvalidInvocation.Line)
}

func TestRunCommandBlank(t *testing.T) {
	ts := newTestShell(t)

	for _, line := range []string{"", "   ", "\t"} {
		assert.Equal(t, Success, ts.RunCommand(line))
	}
	assert.Empty(t, ts.stdout.String())
	assert.Empty(t, ts.stderr.String())
	assert.Empty(t, ts.loggedEvents(t))
}

func TestRunCommandBadRedirect(t *testing.T) {
	ts := newTestShell(t, "cat")
	missing := filepath.Join(t.TempDir(), "missing")

	status := ts.RunCommand("cat < " + missing)

	assert.Equal(t, Success, status)
	assert.Equal(t, 1, ts.ExitCode())
	assert.Equal(t, "-shellgibi: "+missing+": no such file or directory\n", ts.stderr.String())
}

func TestRunCommandBuiltinRedirect(t *testing.T) {
	ts := newTestShell(t)
	out := filepath.Join(t.TempDir(), "help.txt")

	status := ts.RunCommand("help > " + out)
	require.Equal(t, Success, status)
	assert.Empty(t, ts.stdout.String())

	contents, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "myfg\n")

	ts.RunCommand("help >> " + out)
	appended, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, string(contents)+string(contents), string(appended))
}

func TestRunCommandBuiltinInPipelineIsAProgram(t *testing.T) {
	ts := newTestShell(t, "cat")

	status := ts.RunCommand("help | cat")

	assert.Equal(t, Unknown, status)
	assert.Equal(t, "-shellgibi: help: command not found\n", ts.stderr.String())
}

func TestRunCommandDebug(t *testing.T) {
	ts := newTestShell(t)
	ts.Debug = true

	ts.RunCommand("jobs")

	assert.Contains(t, ts.stderr.String(), "Command: <jobs>\n")
}

func TestRunCommandBackground(t *testing.T) {
	ts := newTestShell(t, "sleep")

	status := ts.RunCommand("sleep 0.1 &")
	require.Equal(t, Success, status)

	jobs := ts.Supervisor.Jobs()
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, fmt.Sprintf("[1] %d\n", job.Pgid), ts.stderr.String())
	assert.Equal(t, 0, ts.ExitCode())

	select {
	case <-job.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("background job never finished")
	}

	ts.notifyDone()
	assert.Equal(t, "[1] Done sleep 0.1 &\n", ts.stdout.String())
	assert.Empty(t, ts.Supervisor.Jobs())

	var done *logger.JobDone
	for _, entry := range ts.loggedEvents(t) {
		if entry.JobDone != nil {
			done = entry.JobDone
		}
	}
	require.NotNil(t, done)
	assert.Equal(t, "Done", done.Status)
}

func TestRunCommandExit(t *testing.T) {
	cases := map[string]struct {
		line string
		code int
	}{
		"bare":    {"exit", 0},
		"code":    {"exit 3", 3},
		"wraps":   {"exit 257", 1},
		"garbage": {"exit soon", 2},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t)

			assert.Equal(t, Exit, ts.RunCommand(tc.line))
			assert.Equal(t, tc.code, ts.ExitCode())
		})
	}

	t.Run("too-many", func(t *testing.T) {
		ts := newTestShell(t)

		assert.Equal(t, Success, ts.RunCommand("exit 1 2"))
		assert.Equal(t, "-shellgibi: exit: too many arguments\n", ts.stderr.String())
	})
}

func TestRunInteractive(t *testing.T) {
	ts := newTestShell(t)
	input := &fakeReader{lines: []string{"jobs", "", "history", "history -c", "history", "exit 5", "jobs"}}

	code := ts.RunInteractive(input)

	assert.Equal(t, 5, code)
	assert.Equal(t, []string{"jobs"}, input.lines, "lines after exit aren't read")
	assert.Equal(t, 1, input.resets)
	assert.Len(t, input.prompts, 6)
	assert.Equal(t, "    0  jobs\n    1  history\n    0  history\n", ts.stdout.String())
}

func TestRunInteractiveEOF(t *testing.T) {
	ts := newTestShell(t)
	input := &fakeReader{lines: []string{"exit 1 2"}}

	code := ts.RunInteractive(input)

	assert.Equal(t, 1, code)
}

func TestRunInteractiveInterrupt(t *testing.T) {
	ts := newTestShell(t)
	input := &interruptingReader{fakeReader: fakeReader{lines: []string{"exit 7"}}}

	code := ts.RunInteractive(input)

	assert.Equal(t, 7, code)
	assert.True(t, input.interrupted)
}

type interruptingReader struct {
	fakeReader
	interrupted bool
}

func (r *interruptingReader) Readline() (string, error) {
	if !r.interrupted {
		r.interrupted = true
		return "half typed", readline.ErrInterrupt
	}
	return r.fakeReader.Readline()
}

func TestRunInteractiveReadError(t *testing.T) {
	ts := newTestShell(t)
	input := &fakeReader{err: errors.New("terminal went away")}

	code := ts.RunInteractive(input)

	assert.Equal(t, 1, code)
	assert.Equal(t, "-shellgibi: readline: terminal went away\n", ts.stderr.String())
}

func TestEventRecorderFailure(t *testing.T) {
	ts := newTestShell(t)
	ts.Events = (&logger.Logger{Record: func(*logger.LogEntry) error {
		return errors.New("disk full")
	}}).Sessionless()

	ts.RunCommand("jobs")

	assert.Equal(t, "event log: disk full\n", ts.stderr.String())
}

func TestHelp(t *testing.T) {
	ts := newTestShell(t)

	ts.RunCommand("help")

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)
	g.Assert(t, "help", ts.stdout.Bytes())
}
