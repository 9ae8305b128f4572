package kinematics

import "fmt"

// KinematicError reports an invalid joint reference or a malformed tree.
type KinematicError struct {
	Link   string
	Joint  string
	Reason string
}

func (e *KinematicError) Error() string {
	msg := "kinematic error"
	if e.Link != "" {
		msg += fmt.Sprintf(" (link %q)", e.Link)
	}
	if e.Joint != "" {
		msg += fmt.Sprintf(" (joint %q)", e.Joint)
	}
	return msg + ": " + e.Reason
}
