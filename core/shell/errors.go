package shell

import "fmt"

// ParseError is returned for lines that cannot be turned into a pipeline.
// The line is discarded; nothing has been executed.
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
