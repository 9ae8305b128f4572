package resample

import (
	"errors"
	"math"
	"testing"

	"github.com/bitbots/go-retarget/pkg/mocap"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func makeSequence(rate float64, times []float64, angles []float64) *mocap.MotionSequence {
	seq := &mocap.MotionSequence{
		Name:       "test",
		Rate:       rate,
		JointNames: []string{"j0"},
		Frames:     make([]mocap.KeyframeRecord, len(times)),
	}
	for i := range times {
		seq.Frames[i] = mocap.KeyframeRecord{
			Time:     times[i],
			RootPos:  [3]float64{angles[i], 0, 0},
			RootQuat: [4]float64{1, 0, 0, 0},
			Joints:   []float64{angles[i]},
		}
	}
	return seq
}

func TestResample_Upsample(t *testing.T) {
	// 3 frames at 30 Hz, joint moving at a constant 3 units/sec.
	seq := makeSequence(30, []float64{0, 0.033, 0.067}, []float64{0, 0.1, 0.2})

	out, err := Resample(seq, 60)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	if out.Rate != 60 {
		t.Errorf("Rate: got %g, want 60", out.Rate)
	}
	// floor(0.067*60)+1 frames spanning the same extent.
	if len(out.Frames) != 5 {
		t.Fatalf("Frame count: got %d, want 5", len(out.Frames))
	}

	want := []float64{0, 0.05, 0.1, 0.15, 0.2}
	for i, w := range want {
		got := out.Frames[i].Joints[0]
		if math.Abs(got-w) > 0.005 {
			t.Errorf("Frame %d: got %v, want ~%v", i, got, w)
		}
		if math.Abs(out.Frames[i].RootPos[0]-w) > 0.005 {
			t.Errorf("Frame %d root: got %v, want ~%v", i, out.Frames[i].RootPos[0], w)
		}
	}

	// Uniform spacing at the target rate.
	for i := 1; i < len(out.Frames)-1; i++ {
		dt := out.Frames[i].Time - out.Frames[i-1].Time
		if !floatEquals(dt, 1.0/60) {
			t.Errorf("Frame %d spacing: got %v", i, dt)
		}
	}
}

func TestResample_NativeRatePassThrough(t *testing.T) {
	seq := makeSequence(30, []float64{0, 1.0 / 30, 2.0 / 30}, []float64{0, 0.1, 0.2})
	out, err := Resample(seq, 30)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if out != seq {
		t.Error("Expected the input sequence back at the native rate")
	}
}

func TestResample_TwoFrames(t *testing.T) {
	seq := makeSequence(10, []float64{0, 0.1}, []float64{0, 1})
	out, err := Resample(seq, 20)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(out.Frames) != 3 {
		t.Fatalf("Frame count: got %d, want 3", len(out.Frames))
	}
	if !floatEquals(out.Frames[1].Joints[0], 0.5) {
		t.Errorf("Midpoint: got %v, want 0.5", out.Frames[1].Joints[0])
	}
}

func TestResample_OneFrameFails(t *testing.T) {
	seq := makeSequence(10, []float64{0}, []float64{0})
	_, err := Resample(seq, 20)
	var re *ResampleError
	if !errors.As(err, &re) {
		t.Fatalf("Expected ResampleError, got %v", err)
	}
	if re.Frames != 1 {
		t.Errorf("Frames: got %d, want 1", re.Frames)
	}
}

func TestResample_BadRate(t *testing.T) {
	seq := makeSequence(10, []float64{0, 0.1}, []float64{0, 1})
	var re *ResampleError
	if _, err := Resample(seq, 0); !errors.As(err, &re) {
		t.Errorf("Expected ResampleError for zero rate, got %v", err)
	}
	if _, err := Resample(seq, -5); !errors.As(err, &re) {
		t.Errorf("Expected ResampleError for negative rate, got %v", err)
	}
}

func TestResample_Downsample(t *testing.T) {
	times := make([]float64, 11)
	angles := make([]float64, 11)
	for i := range times {
		times[i] = float64(i) / 100
		angles[i] = float64(i)
	}
	seq := makeSequence(100, times, angles)

	out, err := Resample(seq, 50)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(out.Frames) != 6 {
		t.Fatalf("Frame count: got %d, want 6", len(out.Frames))
	}
	for i, f := range out.Frames {
		if math.Abs(f.Joints[0]-float64(2*i)) > 1e-9 {
			t.Errorf("Frame %d: got %v, want %v", i, f.Joints[0], float64(2*i))
		}
	}
}

func TestSlerp_Halfway(t *testing.T) {
	a := [4]float64{1, 0, 0, 0}
	// 90 degrees about Z.
	b := [4]float64{math.Cos(math.Pi / 4), 0, 0, math.Sin(math.Pi / 4)}

	got := slerp(a, b, 0.5)

	// 45 degrees about Z.
	want := [4]float64{math.Cos(math.Pi / 8), 0, 0, math.Sin(math.Pi / 8)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Component %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSlerp_ShortestArc(t *testing.T) {
	// Equivalent rotations with opposite signs must not interpolate the
	// long way around.
	a := [4]float64{math.Cos(0.1), 0, 0, math.Sin(0.1)}
	b := [4]float64{-math.Cos(0.2), 0, 0, -math.Sin(0.2)}

	got := slerp(a, b, 0.5)
	want := [4]float64{math.Cos(0.15), 0, 0, math.Sin(0.15)}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Component %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSlerp_NearlyParallel(t *testing.T) {
	a := [4]float64{1, 0, 0, 0}
	got := slerp(a, a, 0.3)
	norm := math.Sqrt(got[0]*got[0] + got[1]*got[1] + got[2]*got[2] + got[3]*got[3])
	if !floatEquals(norm, 1) {
		t.Errorf("Result not unit length: %v", got)
	}
}

func TestResample_QuaternionStaysUnit(t *testing.T) {
	seq := &mocap.MotionSequence{
		Name:       "spin",
		Rate:       10,
		JointNames: []string{"j0"},
		Frames: []mocap.KeyframeRecord{
			{Time: 0, RootQuat: [4]float64{1, 0, 0, 0}, Joints: []float64{0}},
			{Time: 0.1, RootQuat: [4]float64{math.Cos(0.6), 0, 0, math.Sin(0.6)}, Joints: []float64{0}},
		},
	}
	out, err := Resample(seq, 50)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	for i, f := range out.Frames {
		q := f.RootQuat
		norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("Frame %d quaternion norm: %v", i, norm)
		}
	}
}
