package errors

import (
	"errors"
	"fmt"
)

// Op names the place an error came from, rendered as "module:name".
type Op struct {
	Module string
	Name   string
}

func (o Op) String() string {
	return o.Module + ":" + o.Name
}

// Wrap attaches o and a readable summary to err. The summary is formatted
// with args. Returns nil for a nil err.
func (o Op) Wrap(err error, summary string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		summary = fmt.Sprintf(summary, args...)
	}
	return &OpError{Op: o, Summary: summary, Err: err}
}

// OpError is an error tagged with where it happened and a summary fit for
// logs and status pages. The cause stays reachable through errors.Is/As.
type OpError struct {
	Op      Op
	Summary string
	Err     error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Op, e.Summary, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Summary returns the summary of the outermost OpError in err's chain, or
// err's message when there is none.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Summary
	}
	return err.Error()
}
