package mocap

// JointMap remaps a source rig's joint ordering to a target ordering.
//
// Retargeted datasets often ship a joint subset (the openhe dumps carry 23
// DOF, no wrists) while the robot expects its full ordering. The map pairs
// joints by name and zero-fills target joints the source rig does not have.
type JointMap struct {
	target []string
	// index into the source joint vector for each target joint, -1 when
	// the source rig has no such joint.
	srcIndex []int
}

// NewJointMap builds a map from a source joint ordering to a target ordering.
func NewJointMap(source, target []string) *JointMap {
	idx := make(map[string]int, len(source))
	for i, name := range source {
		idx[name] = i
	}

	m := &JointMap{
		target:   append([]string(nil), target...),
		srcIndex: make([]int, len(target)),
	}
	for i, name := range target {
		if j, ok := idx[name]; ok {
			m.srcIndex[i] = j
		} else {
			m.srcIndex[i] = -1
		}
	}
	return m
}

// TargetNames returns the target joint ordering.
func (m *JointMap) TargetNames() []string {
	return append([]string(nil), m.target...)
}

// Missing returns the target joints absent from the source rig.
func (m *JointMap) Missing() []string {
	var missing []string
	for i, j := range m.srcIndex {
		if j < 0 {
			missing = append(missing, m.target[i])
		}
	}
	return missing
}

// Apply remaps every frame of seq to the target ordering. The source
// sequence's joint names must match the map's source ordering width.
func (m *JointMap) Apply(seq *MotionSequence) (*MotionSequence, error) {
	out := &MotionSequence{
		Name:       seq.Name,
		Rate:       seq.Rate,
		JointNames: m.TargetNames(),
		Frames:     make([]KeyframeRecord, len(seq.Frames)),
	}
	for i, f := range seq.Frames {
		for _, j := range m.srcIndex {
			if j >= len(f.Joints) {
				return nil, &SchemaError{
					Motion: seq.Name, Frame: i, Field: "dof",
					Reason: "joint map source index out of range",
					Want:   j + 1, Got: len(f.Joints),
				}
			}
		}
		g := f
		g.Joints = make([]float64, len(m.target))
		for k, j := range m.srcIndex {
			if j >= 0 {
				g.Joints[k] = f.Joints[j]
			}
		}
		out.Frames[i] = g
	}
	return out, nil
}
