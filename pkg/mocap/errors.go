package mocap

import (
	"errors"
	"fmt"
)

// ErrMotionNotFound is returned when a requested motion key is absent.
var ErrMotionNotFound = errors.New("motion not found in container")

// SchemaError reports malformed or inconsistent input data. It carries enough
// context (motion key, frame index, field) to be actionable without rerunning.
// Frame is -1 when the error is not tied to a specific frame.
type SchemaError struct {
	Motion string
	Frame  int
	Field  string
	Reason string
	Want   int
	Got    int
}

func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Motion != "" {
		msg += fmt.Sprintf(" in motion %q", e.Motion)
	}
	if e.Frame >= 0 {
		msg += fmt.Sprintf(" at frame %d", e.Frame)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %s)", e.Field)
	}
	msg += ": " + e.Reason
	if e.Want != 0 || e.Got != 0 {
		msg += fmt.Sprintf(" (want %d, got %d)", e.Want, e.Got)
	}
	return msg
}
