// Package resample re-times a motion sequence to a target control rate.
//
// Root position and joint angles are linearly interpolated; the root
// orientation is spherically interpolated so intermediate rotations stay on
// the unit-quaternion manifold instead of drifting through renormalization.
package resample

import (
	"math"
	"sort"

	"github.com/bitbots/go-retarget/pkg/mocap"
)

// RateTolerance is the relative rate difference below which resampling is a
// pass-through: re-interpolating at the native rate only accumulates
// floating-point drift.
const RateTolerance = 1e-6

// Resample produces a new sequence sampled uniformly at targetRate, spanning
// the same time extent as seq (clamped to its first and last timestamp).
//
// When targetRate matches the native rate within RateTolerance the input is
// returned unchanged.
func Resample(seq *mocap.MotionSequence, targetRate float64) (*mocap.MotionSequence, error) {
	if targetRate <= 0 {
		return nil, &ResampleError{Rate: targetRate, Reason: "target rate must be positive"}
	}
	if len(seq.Frames) < 2 {
		return nil, &ResampleError{
			Rate: targetRate, Frames: len(seq.Frames),
			Reason: "interpolation needs at least 2 frames",
		}
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	if math.Abs(targetRate-seq.Rate) <= RateTolerance*seq.Rate {
		return seq, nil
	}

	t0 := seq.Frames[0].Time
	t1 := seq.Frames[len(seq.Frames)-1].Time
	dt := 1.0 / targetRate
	count := int(math.Floor((t1-t0)*targetRate)) + 1

	out := &mocap.MotionSequence{
		Name:       seq.Name,
		Rate:       targetRate,
		JointNames: append([]string(nil), seq.JointNames...),
		Frames:     make([]mocap.KeyframeRecord, count),
	}

	times := make([]float64, len(seq.Frames))
	for i, f := range seq.Frames {
		times[i] = f.Time
	}

	for i := 0; i < count; i++ {
		t := t0 + float64(i)*dt
		if t > t1 {
			t = t1
		}
		out.Frames[i] = sampleAt(seq, times, t)
	}
	return out, nil
}

// sampleAt interpolates the sequence at time t. Callers guarantee t lies
// within [first, last].
func sampleAt(seq *mocap.MotionSequence, times []float64, t float64) mocap.KeyframeRecord {
	// First interval whose start is past t.
	idx := sort.Search(len(times), func(i int) bool {
		return times[i] > t
	})
	if idx == 0 {
		return cloneRecord(seq.Frames[0], t)
	}
	if idx >= len(times) {
		return cloneRecord(seq.Frames[len(times)-1], t)
	}

	prev := seq.Frames[idx-1]
	next := seq.Frames[idx]
	alpha := (t - prev.Time) / (next.Time - prev.Time)

	rec := mocap.KeyframeRecord{
		Time:   t,
		Joints: make([]float64, len(prev.Joints)),
	}
	for k := range rec.RootPos {
		rec.RootPos[k] = lerp(prev.RootPos[k], next.RootPos[k], alpha)
	}
	rec.RootQuat = slerp(prev.RootQuat, next.RootQuat, alpha)
	for k := range rec.Joints {
		rec.Joints[k] = lerp(prev.Joints[k], next.Joints[k], alpha)
	}
	return rec
}

func cloneRecord(f mocap.KeyframeRecord, t float64) mocap.KeyframeRecord {
	g := f
	g.Time = t
	g.Joints = append([]float64(nil), f.Joints...)
	return g
}

// lerp performs linear interpolation.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// slerp performs spherical interpolation between two wxyz unit quaternions,
// taking the shorter arc. Nearly-parallel inputs fall back to normalized
// linear interpolation to avoid dividing by a vanishing sine.
func slerp(a, b [4]float64, t float64) [4]float64 {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		for i := range b {
			b[i] = -b[i]
		}
		dot = -dot
	}

	var out [4]float64
	if dot > 1-1e-9 {
		for i := range out {
			out[i] = lerp(a[i], b[i], t)
		}
		return normalizeQuat(out)
	}

	theta := math.Acos(math.Min(dot, 1))
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta
	for i := range out {
		out[i] = wa*a[i] + wb*b[i]
	}
	return out
}

func normalizeQuat(q [4]float64) [4]float64 {
	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if norm < 1e-12 {
		return [4]float64{1, 0, 0, 0}
	}
	for i := range q {
		q[i] /= norm
	}
	return q
}
