// Package mocap normalizes third-party motion-capture containers into a
// canonical joint-angle time series.
//
// A container holds one or more named motions, each a sequence of keyframes
// with a root pose and a fixed joint-angle vector. The normalizer validates
// the container once at ingestion and produces a MotionSequence with explicit
// units (radians, seconds, meters) and a wxyz unit-quaternion root rotation.
package mocap

import "math"

// KeyframeRecord is one mocap sample.
//
// RootQuat is stored wxyz with a non-negative scalar part. Joints holds one
// angle in radians per joint, in the owning sequence's joint order.
type KeyframeRecord struct {
	Time     float64
	RootPos  [3]float64
	RootQuat [4]float64
	Joints   []float64
}

// MotionSequence is an ordered sequence of keyframes at a declared native
// sample rate with a fixed joint ordering.
type MotionSequence struct {
	// Name identifies the source motion (container key).
	Name string

	// Rate is the native sample rate in frames per second.
	Rate float64

	// JointNames is the joint ordering shared by every frame.
	JointNames []string

	// Frames are the keyframes, strictly increasing in time.
	Frames []KeyframeRecord
}

// NumJoints returns the number of joints per frame.
func (s *MotionSequence) NumJoints() int {
	return len(s.JointNames)
}

// Duration returns the time extent covered by the sequence in seconds.
func (s *MotionSequence) Duration() float64 {
	if len(s.Frames) < 2 {
		return 0
	}
	return s.Frames[len(s.Frames)-1].Time - s.Frames[0].Time
}

// Validate checks the sequence invariants: non-empty, strictly increasing
// timestamps, a consistent joint count, and finite values throughout.
func (s *MotionSequence) Validate() error {
	if len(s.Frames) == 0 {
		return &SchemaError{Motion: s.Name, Frame: -1, Reason: "sequence has no frames"}
	}
	if s.Rate <= 0 {
		return &SchemaError{Motion: s.Name, Frame: -1, Reason: "sample rate must be positive"}
	}
	for i, f := range s.Frames {
		if len(f.Joints) != len(s.JointNames) {
			return &SchemaError{
				Motion: s.Name, Frame: i,
				Reason: "joint count does not match joint names",
				Want:   len(s.JointNames), Got: len(f.Joints),
			}
		}
		if i > 0 && f.Time <= s.Frames[i-1].Time {
			return &SchemaError{
				Motion: s.Name, Frame: i,
				Reason: "timestamps are not strictly increasing",
			}
		}
		if !recordFinite(f) {
			return &SchemaError{Motion: s.Name, Frame: i, Reason: "non-finite value"}
		}
	}
	return nil
}

// Clone returns a deep copy of the sequence.
func (s *MotionSequence) Clone() *MotionSequence {
	out := &MotionSequence{
		Name:       s.Name,
		Rate:       s.Rate,
		JointNames: append([]string(nil), s.JointNames...),
		Frames:     make([]KeyframeRecord, len(s.Frames)),
	}
	for i, f := range s.Frames {
		g := f
		g.Joints = append([]float64(nil), f.Joints...)
		out.Frames[i] = g
	}
	return out
}

func recordFinite(f KeyframeRecord) bool {
	for _, v := range f.RootPos {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range f.RootQuat {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range f.Joints {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return !math.IsNaN(f.Time) && !math.IsInf(f.Time, 0)
}
