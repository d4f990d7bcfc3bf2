package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordAll(t *testing.T, l *SessionLogger, events ...LogType) {
	t.Helper()

	for _, event := range events {
		require.NoError(t, l.Record(event))
	}
}

func TestJSONLinesRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	session := NewJsonLinesLogRecorder(buf).NewSession()

	recordAll(t, session,
		&RunCommand{Line: "ls -l | wc -l", Stages: []StageInfo{
			{Command: []string{"ls", "-l"}, ResolvedPath: "/bin/ls", Pid: 10},
			{Command: []string{"wc", "-l"}, ResolvedPath: "/bin/wc", Pid: 11},
		}},
		&UnknownCommand{Command: []string{"lss"}, ResolvedPath: "/bin/lss", ErrorMessage: "command not found"},
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entries []*LogEntry
	require.NoError(t, ReadJSONLinesLog(buf, func(le *LogEntry) {
		entries = append(entries, le)
	}))
	require.Len(t, entries, 2)

	for _, le := range entries {
		assert.Equal(t, session.SessionID(), le.SessionID)
		assert.NotZero(t, le.TimestampMicros)
	}

	rc, ok := entries[0].GetLogType().(*RunCommand)
	require.True(t, ok)
	assert.Equal(t, "ls -l | wc -l", rc.Line)
	assert.Equal(t, 11, rc.Stages[1].Pid)

	uc, ok := entries[1].GetLogType().(*UnknownCommand)
	require.True(t, ok)
	assert.Equal(t, "/bin/lss", uc.ResolvedPath)
}

func TestSessionless(t *testing.T) {
	var recorded *LogEntry
	l := &Logger{Record: func(le *LogEntry) error {
		recorded = le
		return nil
	}}

	require.NoError(t, l.Sessionless().Record(&JobDone{JobID: 1, Line: "sleep 1 &", Status: "Done"}))
	assert.Empty(t, recorded.SessionID)
	assert.NotNil(t, recorded.JobDone)
}

func TestRecorderError(t *testing.T) {
	l := &Logger{Record: func(*LogEntry) error { return errors.New("disk full") }}
	assert.EqualError(t, l.NewSession().Record(&JobDone{}), "disk full")
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard().NewSession().Record(&RunCommand{Line: "ls"}))
}

func TestReport(t *testing.T) {
	var report Report
	for _, event := range sampleEvents() {
		le := &LogEntry{SessionID: "1"}
		require.NoError(t, le.setLogType(event))
		report.Update(le)
	}
	report.Update(&LogEntry{})

	assert.Equal(t, 8, report.LogEntries)
	assert.Equal(t, 1, report.InvalidEntries.Count("<nil>"))

	assert.Equal(t, 2, report.RunCommand.CommandNames.Count("ls"))
	assert.Equal(t, 1, report.RunCommand.CommandNames.Count("wc"))
	assert.Equal(t, 2, report.RunCommand.ResolvedCommandPaths.Count("/bin/ls"))
	assert.Equal(t, 1, report.RunCommand.PipelineLengths.Count("2"))
	assert.Equal(t, 1, report.RunCommand.Background)
	assert.Equal(t, 1, report.RunCommand.Builtins)

	assert.Equal(t, 1, report.UnknownCommand.CommandNames.Count("lss"))
	assert.Equal(t, 1, report.InvalidInvocation.Errors.Count("syntax error: unexpected token `|'"))
	assert.Equal(t, 1, report.JobSignal.Signals.Count("SIGSTOP"))
	assert.Equal(t, 1, report.JobSignal.Failures)
	assert.Equal(t, 1, report.JobDone.Statuses.Count("Done"))

	_, err := json.Marshal(report)
	assert.NoError(t, err)
}

func TestBugReport(t *testing.T) {
	report := NewBugReport()
	for _, event := range sampleEvents() {
		le := &LogEntry{}
		require.NoError(t, le.setLogType(event))
		report.Update(le)
	}

	assert.Equal(t, 1, report.UnknownCommands.Count("lss", "/bin/lss", "command not found"))
	assert.Equal(t, 1, report.InvalidInvocations.Count("| wc", "syntax error: unexpected token `|'"))

	out, err := json.Marshal(report.UnknownCommands)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"count":1,"event":{"command":"lss","path":"/bin/lss","error":"command not found"}}]`, string(out))
}

func TestPathCounterColumns(t *testing.T) {
	ctr := NewPathCounter("a", "b")
	assert.Panics(t, func() { ctr.Increment("only-one") })
}

func TestInteractionReport(t *testing.T) {
	var report InteractionReport
	for _, event := range sampleEvents() {
		le := &LogEntry{SessionID: "abc"}
		require.NoError(t, le.setLogType(event))
		report.Update(le)
	}
	report.Update(&LogEntry{RunCommand: &RunCommand{Line: "ignored"}})

	session, ok := report.Session("abc")
	require.True(t, ok)
	assert.Equal(t, []string{"ls -l | wc -l", "ls &", "cd /tmp", "| wc"}, session.Commands)
	assert.Equal(t, []string{"[1] Done ls &"}, session.Jobs)
	assert.Len(t, session.Signals, 1)

	_, ok = report.Session("")
	assert.False(t, ok)
}

func sampleEvents() []LogType {
	return []LogType{
		&RunCommand{Line: "ls -l | wc -l", Stages: []StageInfo{
			{Command: []string{"ls", "-l"}, ResolvedPath: "/bin/ls"},
			{Command: []string{"wc", "-l"}, ResolvedPath: "/bin/wc"},
		}},
		&RunCommand{Line: "ls &", Background: true, Stages: []StageInfo{
			{Command: []string{"ls"}, ResolvedPath: "/bin/ls"},
		}},
		&RunCommand{Line: "cd /tmp", Builtin: true, Stages: []StageInfo{
			{Command: []string{"cd", "/tmp"}},
		}},
		&UnknownCommand{Command: []string{"lss"}, ResolvedPath: "/bin/lss", ErrorMessage: "command not found"},
		&InvalidInvocation{Line: "| wc", Error: "syntax error: unexpected token `|'"},
		&JobSignal{Builtin: "pause", Target: "99999", Signal: "SIGSTOP", Error: "no such process"},
		&JobDone{JobID: 1, Line: "ls &", Status: "Done"},
	}
}
