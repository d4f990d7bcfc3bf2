package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

func NewBugReport() *BugReport {
	return &BugReport{
		InvalidInvocations: NewPathCounter("command", "error"),
		UnknownCommands:    NewPathCounter("command", "path", "error"),
	}
}

// BugReport pulls events that point at mistyped or missing programs.
type BugReport struct {
	LogEntries int `json:"log_entries"`

	InvalidInvocations *PathCounter `json:"invalid_invocations"`
	UnknownCommands    *PathCounter `json:"unknown_commands"`
}

func (r *BugReport) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetLogType().(type) {
	case *UnknownCommand:
		r.UnknownCommands.Increment(firstWord(event.Command), event.ResolvedPath, event.ErrorMessage)
	case *InvalidInvocation:
		name := firstWord(event.Command)
		if name == "" {
			name = event.Line
		}
		r.InvalidInvocations.Increment(name, event.Error)
	}
}

type InteractionReport struct {
	// Map of sessionID -> interactions
	interactions map[string]*InteractiveSession
}

type InteractiveSession struct {
	LogEntries int      `json:"log_entries"`
	Commands   []string `json:"commands"`
	Jobs       []string `json:"jobs,omitempty"`
	Signals    []string `json:"signals,omitempty"`
}

func (i *InteractiveSession) Update(le *LogEntry) {
	i.LogEntries++

	switch event := le.GetLogType().(type) {
	case *RunCommand:
		i.Commands = append(i.Commands, event.Line)
	case *InvalidInvocation:
		if event.Line != "" {
			i.Commands = append(i.Commands, event.Line)
		}
	case *JobDone:
		i.Jobs = append(i.Jobs, fmt.Sprintf("[%d] %s %s", event.JobID, event.Status, event.Line))
	case *JobSignal:
		i.Signals = append(i.Signals, fmt.Sprintf("%s %s -> %s", event.Builtin, event.Signal, event.Target))
	}
}

func (i *InteractionReport) init() {
	if i.interactions == nil {
		i.interactions = make(map[string]*InteractiveSession)
	}
}

// MarshalJSON implemnts custom JSON marshaler.
func (i *InteractionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.interactions)
}

// Session returns the interactions recorded for sessionID.
func (i *InteractionReport) Session(sessionID string) (*InteractiveSession, bool) {
	i.init()

	report, ok := i.interactions[sessionID]
	return report, ok
}

func (i *InteractionReport) Update(le *LogEntry) {
	i.init()

	sessionID := le.SessionID
	if sessionID == "" {
		return
	}
	report, ok := i.interactions[sessionID]
	if !ok {
		report = &InteractiveSession{}
		i.interactions[sessionID] = report
	}

	report.Update(le)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunCommand        RunCommandReport        `json:"run_command_report"`
	UnknownCommand    UnknownCommandReport    `json:"unknown_command_report"`
	InvalidInvocation InvalidInvocationReport `json:"invalid_invocation_report"`
	JobSignal         JobSignalReport         `json:"job_signal_report"`
	JobDone           JobDoneReport           `json:"job_done_report"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetLogType().(type) {
	case *RunCommand:
		r.RunCommand.update(event)
	case *UnknownCommand:
		r.UnknownCommand.update(event)
	case *InvalidInvocation:
		r.InvalidInvocation.update(event)
	case *JobSignal:
		r.JobSignal.update(event)
	case *JobDone:
		r.JobDone.update(event)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type RunCommandReport struct {
	// Name of the resolved command
	ResolvedCommandPaths StrCounter `json:"resolved_command_names"`
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
	// Number of stages in each pipeline
	PipelineLengths StrCounter `json:"pipeline_lengths"`
	Background      int        `json:"background"`
	Builtins        int        `json:"builtins"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	for _, stage := range rc.Stages {
		if stage.ResolvedPath != "" {
			r.ResolvedCommandPaths.Increment(stage.ResolvedPath)
		}
		if len(stage.Command) > 0 {
			r.CommandNames.Increment(stage.Command[0])
		}
	}
	r.PipelineLengths.Increment(fmt.Sprintf("%d", len(rc.Stages)))
	if rc.Background {
		r.Background++
	}
	if rc.Builtin {
		r.Builtins++
	}
}

type UnknownCommandReport struct {
	CommandNames StrCounter `json:"command_names"`
	Errors       StrCounter `json:"errors"`
}

func (r *UnknownCommandReport) update(logEntry *UnknownCommand) {
	if len(logEntry.Command) > 0 {
		r.CommandNames.Increment(logEntry.Command[0])
	}

	r.Errors.Increment(logEntry.ErrorMessage)
}

type InvalidInvocationReport struct {
	CommandNames StrCounter `json:"command_counts"`
	Errors       StrCounter `json:"errors"`
}

func (r *InvalidInvocationReport) update(logEntry *InvalidInvocation) {
	if len(logEntry.Command) > 0 {
		r.CommandNames.Increment(logEntry.Command[0])
	}
	r.Errors.Increment(logEntry.Error)
}

type JobSignalReport struct {
	Signals  StrCounter `json:"signals"`
	Builtins StrCounter `json:"builtins"`
	Failures int        `json:"failures"`
}

func (r *JobSignalReport) update(js *JobSignal) {
	r.Signals.Increment(js.Signal)
	r.Builtins.Increment(js.Builtin)
	if js.Error != "" {
		r.Failures++
	}
}

type JobDoneReport struct {
	Count    int        `json:"count"`
	Statuses StrCounter `json:"statuses"`
}

func (r *JobDoneReport) update(jd *JobDone) {
	r.Count++
	r.Statuses.Increment(jd.Status)
}

func firstWord(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns how many times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of strings seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns how many times the given path was seen.
func (ctr *PathCounter) Count(path ...string) int {
	return ctr.internal[toKey(path...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
