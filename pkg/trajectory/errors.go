package trajectory

import (
	"fmt"
	"strings"
)

// FrameRangeError reports an out-of-range frame index.
type FrameRangeError struct {
	Index int
	Count int
}

func (e *FrameRangeError) Error() string {
	return fmt.Sprintf("frame index %d out of range [0, %d)", e.Index, e.Count)
}

// CompatibilityError reports a mismatch between an artifact's metadata and a
// consumer's expectations. Checked before any frame data is used.
type CompatibilityError struct {
	Field    string
	Expected []string
	Actual   []string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("incompatible trajectory: %s mismatch (expected [%s], got [%s])",
		e.Field, strings.Join(e.Expected, " "), strings.Join(e.Actual, " "))
}

// ValidateCompatibility checks the artifact's joint and link orderings
// against a consumer's expected orderings. Nil slices skip that check.
func ValidateCompatibility(rt *ReferenceTrajectory, jointNames, linkNames []string) error {
	if jointNames != nil && !equalStrings(rt.Meta.JointNames, jointNames) {
		return &CompatibilityError{Field: "joint_names", Expected: jointNames, Actual: rt.Meta.JointNames}
	}
	if linkNames != nil && !equalStrings(rt.Meta.LinkNames, linkNames) {
		return &CompatibilityError{Field: "link_names", Expected: linkNames, Actual: rt.Meta.LinkNames}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
