package mocap

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

const floatTolerance = 1e-7

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

const testContainer = `{
	"walk": {
		"fps": 30,
		"joint_names": ["hip", "knee"],
		"root_pos": [[0, 0, 0.9], [0.01, 0, 0.9]],
		"root_rot": [[0, 0, 0, 1], [0, 0, 0.0871557, 0.9961947]],
		"dof": [[0.1, 0.2], [0.15, 0.25]]
	},
	"run": {
		"fps": 60,
		"joint_names": ["hip", "knee"],
		"root_pos": [[0, 0, 0.9]],
		"root_rot": [[0, 0, 0, 1]],
		"dof": [[0.5, 0.6]]
	}
}`

func TestParseContainer(t *testing.T) {
	c, err := ParseContainer([]byte(testContainer))
	if err != nil {
		t.Fatalf("ParseContainer failed: %v", err)
	}

	infos := c.Motions()
	if len(infos) != 2 {
		t.Fatalf("Expected 2 motions, got %d", len(infos))
	}
	// Sorted by key.
	if infos[0].Key != "run" || infos[1].Key != "walk" {
		t.Errorf("Unexpected motion order: %v", infos)
	}
	if infos[1].Frames != 2 || infos[1].FPS != 30 {
		t.Errorf("walk: got %d frames at %g fps", infos[1].Frames, infos[1].FPS)
	}
	if c.FirstKey() != "run" {
		t.Errorf("FirstKey: got %q", c.FirstKey())
	}
}

func TestNormalize(t *testing.T) {
	c, err := ParseContainer([]byte(testContainer))
	if err != nil {
		t.Fatalf("ParseContainer failed: %v", err)
	}

	seq, err := c.Normalize("walk", NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if seq.Name != "walk" || seq.Rate != 30 {
		t.Errorf("Got name=%q rate=%g", seq.Name, seq.Rate)
	}
	if len(seq.Frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(seq.Frames))
	}
	if !floatEquals(seq.Frames[1].Time, 1.0/30) {
		t.Errorf("Frame 1 time: got %v", seq.Frames[1].Time)
	}

	// xyzw identity becomes wxyz identity.
	q := seq.Frames[0].RootQuat
	if !floatEquals(q[0], 1) || !floatEquals(q[1], 0) {
		t.Errorf("Expected wxyz identity, got %v", q)
	}

	// 10 degrees about Z, still unit length after conversion.
	q = seq.Frames[1].RootQuat
	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if !floatEquals(norm, 1) {
		t.Errorf("Quaternion not normalized: %v (norm %v)", q, norm)
	}
	if q[0] < 0 {
		t.Errorf("Expected non-negative scalar part, got %v", q)
	}
}

func TestNormalize_MotionNotFound(t *testing.T) {
	c, _ := ParseContainer([]byte(testContainer))
	_, err := c.Normalize("sprint", NormalizeOptions{})
	if !errors.Is(err, ErrMotionNotFound) {
		t.Errorf("Expected ErrMotionNotFound, got %v", err)
	}
}

func TestNormalize_SchemaErrors(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"missing fps", `{"m": {"joint_names": ["a"], "root_pos": [[0,0,0]], "root_rot": [[0,0,0,1]], "dof": [[0]]}}`},
		{"missing joint names", `{"m": {"fps": 30, "root_pos": [[0,0,0]], "root_rot": [[0,0,0,1]], "dof": [[0]]}}`},
		{"varying joint count", `{"m": {"fps": 30, "joint_names": ["a"], "root_pos": [[0,0,0],[0,0,0]], "root_rot": [[0,0,0,1],[0,0,0,1]], "dof": [[0],[0,1]]}}`},
		{"root pos mismatch", `{"m": {"fps": 30, "joint_names": ["a"], "root_pos": [[0,0,0]], "root_rot": [[0,0,0,1],[0,0,0,1]], "dof": [[0],[1]]}}`},
		{"degenerate quat", `{"m": {"fps": 30, "joint_names": ["a"], "root_pos": [[0,0,0]], "root_rot": [[0,0,0,0]], "dof": [[0]]}}`},
		{"bad unit", `{"m": {"fps": 30, "angle_unit": "furlongs", "joint_names": ["a"], "root_pos": [[0,0,0]], "root_rot": [[0,0,0,1]], "dof": [[0]]}}`},
	}

	for _, tc := range cases {
		c, err := ParseContainer([]byte(tc.json))
		if err != nil {
			t.Fatalf("%s: ParseContainer failed: %v", tc.name, err)
		}
		_, err = c.Normalize("m", NormalizeOptions{})
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Errorf("%s: expected SchemaError, got %v", tc.name, err)
		}
	}
}

func TestNormalize_DegreesConverted(t *testing.T) {
	data := `{"m": {"fps": 30, "angle_unit": "deg", "joint_names": ["a"], "root_pos": [[0,0,0]], "root_rot": [[0,0,0,1]], "dof": [[90]]}}`
	c, err := ParseContainer([]byte(data))
	if err != nil {
		t.Fatalf("ParseContainer failed: %v", err)
	}
	seq, err := c.Normalize("m", NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !floatEquals(seq.Frames[0].Joints[0], math.Pi/2) {
		t.Errorf("Expected pi/2, got %v", seq.Frames[0].Joints[0])
	}
}

func TestNormalize_WxyzOrder(t *testing.T) {
	data := `{"m": {"fps": 30, "quat_order": "wxyz", "joint_names": ["a"], "root_pos": [[0,0,0]], "root_rot": [[1,0,0,0]], "dof": [[0]]}}`
	c, err := ParseContainer([]byte(data))
	if err != nil {
		t.Fatalf("ParseContainer failed: %v", err)
	}
	seq, err := c.Normalize("m", NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	q := seq.Frames[0].RootQuat
	if !floatEquals(q[0], 1) {
		t.Errorf("Expected identity, got %v", q)
	}
}

func TestJointMap(t *testing.T) {
	source := []string{"hip", "knee"}
	target := []string{"hip", "knee", "ankle"}
	jm := NewJointMap(source, target)

	missing := jm.Missing()
	if len(missing) != 1 || missing[0] != "ankle" {
		t.Errorf("Missing: got %v", missing)
	}

	seq := &MotionSequence{
		Name:       "m",
		Rate:       30,
		JointNames: source,
		Frames: []KeyframeRecord{
			{Time: 0, RootQuat: [4]float64{1, 0, 0, 0}, Joints: []float64{0.1, 0.2}},
		},
	}
	out, err := jm.Apply(seq)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	got := out.Frames[0].Joints
	if len(got) != 3 || !floatEquals(got[0], 0.1) || !floatEquals(got[1], 0.2) || !floatEquals(got[2], 0) {
		t.Errorf("Remapped joints: got %v", got)
	}
}

func TestJointMap_Reorder(t *testing.T) {
	jm := NewJointMap([]string{"a", "b"}, []string{"b", "a"})
	seq := &MotionSequence{
		Name:       "m",
		Rate:       30,
		JointNames: []string{"a", "b"},
		Frames: []KeyframeRecord{
			{Time: 0, RootQuat: [4]float64{1, 0, 0, 0}, Joints: []float64{1, 2}},
		},
	}
	out, err := jm.Apply(seq)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !floatEquals(out.Frames[0].Joints[0], 2) || !floatEquals(out.Frames[0].Joints[1], 1) {
		t.Errorf("Reordered joints: got %v", out.Frames[0].Joints)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	c, _ := ParseContainer([]byte(testContainer))
	seq, err := c.Normalize("walk", NormalizeOptions{})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "walk.csv")
	if err := WriteCSV(seq, path); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	got, err := ReadCSV(path, 30)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if len(got.Frames) != len(seq.Frames) {
		t.Fatalf("Frame count: got %d, want %d", len(got.Frames), len(seq.Frames))
	}
	if got.Rate != 30 {
		t.Errorf("Rate: got %g", got.Rate)
	}
	for i := range seq.JointNames {
		if got.JointNames[i] != seq.JointNames[i] {
			t.Errorf("Joint %d: got %q, want %q", i, got.JointNames[i], seq.JointNames[i])
		}
	}
	for i, f := range seq.Frames {
		g := got.Frames[i]
		if math.Abs(g.Time-f.Time) > 1e-6 {
			t.Errorf("Frame %d time: got %v, want %v", i, g.Time, f.Time)
		}
		for k := range f.Joints {
			if math.Abs(g.Joints[k]-f.Joints[k]) > 1e-6 {
				t.Errorf("Frame %d joint %d: got %v, want %v", i, k, g.Joints[k], f.Joints[k])
			}
		}
		for k := range f.RootQuat {
			if math.Abs(g.RootQuat[k]-f.RootQuat[k]) > 1e-6 {
				t.Errorf("Frame %d quat %d: got %v, want %v", i, k, g.RootQuat[k], f.RootQuat[k])
			}
		}
	}
}

func TestReadCSV_InferredRate(t *testing.T) {
	c, _ := ParseContainer([]byte(testContainer))
	seq, _ := c.Normalize("walk", NormalizeOptions{})

	path := filepath.Join(t.TempDir(), "walk.csv")
	if err := WriteCSV(seq, path); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	got, err := ReadCSV(path, 0)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if math.Abs(got.Rate-30) > 0.1 {
		t.Errorf("Inferred rate: got %g, want ~30", got.Rate)
	}
}

func TestValidate_NonMonotonic(t *testing.T) {
	seq := &MotionSequence{
		Name:       "m",
		Rate:       30,
		JointNames: []string{"a"},
		Frames: []KeyframeRecord{
			{Time: 0.1, RootQuat: [4]float64{1, 0, 0, 0}, Joints: []float64{0}},
			{Time: 0.1, RootQuat: [4]float64{1, 0, 0, 0}, Joints: []float64{0}},
		},
	}
	var se *SchemaError
	if err := seq.Validate(); !errors.As(err, &se) {
		t.Errorf("Expected SchemaError for duplicate timestamps, got %v", err)
	}
}
