package mocap

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// rawMotion mirrors one motion entry in the container JSON. The field layout
// follows the retargeted-motion datasets: per-frame root translation, root
// rotation quaternion, and a DOF matrix, plus the capture rate.
type rawMotion struct {
	FPS        float64     `json:"fps"`
	AngleUnit  string      `json:"angle_unit,omitempty"` // "rad" (default) or "deg"
	QuatOrder  string      `json:"quat_order,omitempty"` // "xyzw" (default) or "wxyz"
	JointNames []string    `json:"joint_names"`
	RootPos    [][]float64 `json:"root_pos"`
	RootRot    [][]float64 `json:"root_rot"`
	DOF        [][]float64 `json:"dof"`
}

// Container is a parsed mocap container holding one or more named motions.
type Container struct {
	motions map[string]rawMotion
}

// MotionInfo summarizes one motion in a container.
type MotionInfo struct {
	Key    string
	Frames int
	FPS    float64
}

// NormalizeOptions tunes container normalization.
type NormalizeOptions struct {
	// JointMap remaps the source joint set to a target ordering,
	// zero-filling joints the source rig does not have. Nil keeps the
	// source ordering.
	JointMap *JointMap
}

// LoadContainer reads and parses a mocap container file.
func LoadContainer(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}
	return ParseContainer(data)
}

// ParseContainer parses container JSON bytes.
func ParseContainer(data []byte) (*Container, error) {
	var motions map[string]rawMotion
	if err := json.Unmarshal(data, &motions); err != nil {
		return nil, &SchemaError{Frame: -1, Reason: fmt.Sprintf("invalid container JSON: %v", err)}
	}
	if len(motions) == 0 {
		return nil, &SchemaError{Frame: -1, Reason: "container holds no motions"}
	}
	return &Container{motions: motions}, nil
}

// Motions lists the motions in the container, sorted by key.
func (c *Container) Motions() []MotionInfo {
	keys := make([]string, 0, len(c.motions))
	for k := range c.motions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	infos := make([]MotionInfo, 0, len(keys))
	for _, k := range keys {
		m := c.motions[k]
		infos = append(infos, MotionInfo{Key: k, Frames: len(m.DOF), FPS: m.FPS})
	}
	return infos
}

// FirstKey returns the first motion key in sorted order.
func (c *Container) FirstKey() string {
	infos := c.Motions()
	if len(infos) == 0 {
		return ""
	}
	return infos[0].Key
}

// Normalize converts one motion into a canonical MotionSequence: timestamps
// derived from the capture rate, angles in radians, root quaternion in wxyz
// order normalized to unit length with a non-negative scalar part.
func (c *Container) Normalize(key string, opts NormalizeOptions) (*MotionSequence, error) {
	raw, ok := c.motions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMotionNotFound, key)
	}

	if raw.FPS <= 0 {
		return nil, &SchemaError{Motion: key, Frame: -1, Field: "fps", Reason: "missing or non-positive sample rate"}
	}
	n := len(raw.DOF)
	if n == 0 {
		return nil, &SchemaError{Motion: key, Frame: -1, Field: "dof", Reason: "motion has no frames"}
	}
	if len(raw.RootPos) != n {
		return nil, &SchemaError{
			Motion: key, Frame: -1, Field: "root_pos",
			Reason: "frame count mismatch", Want: n, Got: len(raw.RootPos),
		}
	}
	if len(raw.RootRot) != n {
		return nil, &SchemaError{
			Motion: key, Frame: -1, Field: "root_rot",
			Reason: "frame count mismatch", Want: n, Got: len(raw.RootRot),
		}
	}

	numJoints := len(raw.DOF[0])
	jointNames := raw.JointNames
	if len(jointNames) == 0 {
		return nil, &SchemaError{Motion: key, Frame: -1, Field: "joint_names", Reason: "missing joint names"}
	}
	if len(jointNames) != numJoints {
		return nil, &SchemaError{
			Motion: key, Frame: -1, Field: "joint_names",
			Reason: "joint name count does not match dof width",
			Want:   numJoints, Got: len(jointNames),
		}
	}

	toRadians := 1.0
	switch raw.AngleUnit {
	case "", "rad":
	case "deg":
		toRadians = math.Pi / 180.0
	default:
		return nil, &SchemaError{Motion: key, Frame: -1, Field: "angle_unit", Reason: fmt.Sprintf("unknown unit %q", raw.AngleUnit)}
	}

	wxyz := false
	switch raw.QuatOrder {
	case "", "xyzw":
	case "wxyz":
		wxyz = true
	default:
		return nil, &SchemaError{Motion: key, Frame: -1, Field: "quat_order", Reason: fmt.Sprintf("unknown order %q", raw.QuatOrder)}
	}

	seq := &MotionSequence{
		Name:       key,
		Rate:       raw.FPS,
		JointNames: append([]string(nil), jointNames...),
		Frames:     make([]KeyframeRecord, n),
	}

	dt := 1.0 / raw.FPS
	for i := 0; i < n; i++ {
		if len(raw.RootPos[i]) != 3 {
			return nil, &SchemaError{Motion: key, Frame: i, Field: "root_pos", Reason: "expected 3 components", Want: 3, Got: len(raw.RootPos[i])}
		}
		if len(raw.RootRot[i]) != 4 {
			return nil, &SchemaError{Motion: key, Frame: i, Field: "root_rot", Reason: "expected 4 components", Want: 4, Got: len(raw.RootRot[i])}
		}
		if len(raw.DOF[i]) != numJoints {
			return nil, &SchemaError{
				Motion: key, Frame: i, Field: "dof",
				Reason: "joint count varies across frames",
				Want:   numJoints, Got: len(raw.DOF[i]),
			}
		}

		rec := KeyframeRecord{
			Time:   float64(i) * dt,
			Joints: make([]float64, numJoints),
		}
		copy(rec.RootPos[:], raw.RootPos[i])

		q, err := canonicalQuat(raw.RootRot[i], wxyz)
		if err != nil {
			return nil, &SchemaError{Motion: key, Frame: i, Field: "root_rot", Reason: err.Error()}
		}
		rec.RootQuat = q

		for j, v := range raw.DOF[i] {
			rec.Joints[j] = v * toRadians
		}
		seq.Frames[i] = rec
	}

	if opts.JointMap != nil {
		var err error
		seq, err = opts.JointMap.Apply(seq)
		if err != nil {
			return nil, err
		}
	}

	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}

// canonicalQuat converts a raw quaternion to wxyz order, unit length,
// non-negative scalar part.
func canonicalQuat(raw []float64, wxyz bool) ([4]float64, error) {
	var q [4]float64
	if wxyz {
		copy(q[:], raw)
	} else {
		q[0], q[1], q[2], q[3] = raw[3], raw[0], raw[1], raw[2]
	}

	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if norm < 1e-8 || math.IsNaN(norm) {
		return q, fmt.Errorf("degenerate quaternion")
	}
	for i := range q {
		q[i] /= norm
	}
	if q[0] < 0 {
		for i := range q {
			q[i] = -q[i]
		}
	}
	return q, nil
}
