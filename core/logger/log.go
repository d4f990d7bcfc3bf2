package logger

import "fmt"

// LogType is implemented by every event that can be recorded.
type LogType interface {
	isLogType()
}

// LogEntry is a single line of the event log. Exactly one event field is
// set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	RunCommand        *RunCommand        `json:"run_command,omitempty"`
	UnknownCommand    *UnknownCommand    `json:"unknown_command,omitempty"`
	InvalidInvocation *InvalidInvocation `json:"invalid_invocation,omitempty"`
	JobSignal         *JobSignal         `json:"job_signal,omitempty"`
	JobDone           *JobDone           `json:"job_done,omitempty"`
}

// GetLogType returns the event carried by the entry, nil if there's none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.RunCommand != nil:
		return le.RunCommand
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.InvalidInvocation != nil:
		return le.InvalidInvocation
	case le.JobSignal != nil:
		return le.JobSignal
	case le.JobDone != nil:
		return le.JobDone
	default:
		return nil
	}
}

func (le *LogEntry) setLogType(event LogType) error {
	switch event := event.(type) {
	case *RunCommand:
		le.RunCommand = event
	case *UnknownCommand:
		le.UnknownCommand = event
	case *InvalidInvocation:
		le.InvalidInvocation = event
	case *JobSignal:
		le.JobSignal = event
	case *JobDone:
		le.JobDone = event
	default:
		return fmt.Errorf("unknown log type %T", event)
	}
	return nil
}

// StageInfo describes one process of an executed pipeline.
type StageInfo struct {
	Command      []string `json:"command"`
	ResolvedPath string   `json:"resolved_path,omitempty"`
	Pid          int      `json:"pid,omitempty"`
}

// RunCommand is recorded for every executed line.
type RunCommand struct {
	Line       string      `json:"line"`
	Builtin    bool        `json:"builtin,omitempty"`
	Background bool        `json:"background,omitempty"`
	Stages     []StageInfo `json:"stages"`
	ExitCode   int         `json:"exit_code"`
}

// UnknownCommand is recorded when a stage's program can't be started.
type UnknownCommand struct {
	Command      []string `json:"command"`
	ResolvedPath string   `json:"resolved_path"`
	ErrorMessage string   `json:"error_message"`
}

// InvalidInvocation is recorded for lines or builtin arguments that can't
// be understood.
type InvalidInvocation struct {
	Command []string `json:"command,omitempty"`
	Line    string   `json:"line,omitempty"`
	Error   string   `json:"error"`
}

// JobSignal is recorded when a job control builtin signals a process.
type JobSignal struct {
	Builtin string `json:"builtin"`
	Target  string `json:"target"`
	Signal  string `json:"signal"`
	Error   string `json:"error,omitempty"`
}

// JobDone is recorded when a background job is reaped.
type JobDone struct {
	JobID  int    `json:"job_id"`
	Line   string `json:"line"`
	Status string `json:"status"`
}

func (*RunCommand) isLogType()        {}
func (*UnknownCommand) isLogType()    {}
func (*InvalidInvocation) isLogType() {}
func (*JobSignal) isLogType()         {}
func (*JobDone) isLogType()           {}
