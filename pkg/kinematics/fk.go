package kinematics

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bitbots/go-retarget/pkg/mocap"
)

// FKFrame is the full-body state at one resampled timestep: world pose of
// every link plus finite-difference velocities, in the tree's link order.
//
// Velocities need a previous frame; they are undefined at the first frame of
// a sequence. VelocityValid distinguishes that case from a true zero.
type FKFrame struct {
	Index int
	Time  float64

	// JointPos is the originating joint-angle vector.
	JointPos []float64

	BodyPos  [][3]float64 // world position per link
	BodyQuat [][4]float64 // world orientation per link, wxyz

	BodyLinVel    [][3]float64
	BodyAngVel    [][3]float64
	VelocityValid bool
}

// Evaluator computes FK frames over a fixed tree. Velocity differencing makes
// it stateful across calls: frames must be fed in sequence order. It is not
// safe for concurrent use.
type Evaluator struct {
	tree *Tree
	dt   float64

	// anglesFor[i] is the tree joint slot driven by input joint i.
	anglesFor []int

	// jointSlot[id] is the joint slot for actuated links, -1 otherwise.
	jointSlot []int

	prev  *FKFrame
	index int
}

// NewEvaluator builds an evaluator for the given input joint ordering and a
// fixed inter-frame time step. Every input joint must exist in the tree;
// this is checked once here, not per frame. Tree joints absent from the
// input ordering hold angle zero.
func NewEvaluator(tree *Tree, jointNames []string, dt float64) (*Evaluator, error) {
	if dt <= 0 {
		return nil, &KinematicError{Reason: fmt.Sprintf("time step must be positive, got %g", dt)}
	}

	slot := make(map[string]int, len(tree.jointNames))
	for i, name := range tree.jointNames {
		slot[name] = i
	}

	anglesFor := make([]int, len(jointNames))
	for i, name := range jointNames {
		s, ok := slot[name]
		if !ok {
			return nil, &KinematicError{Joint: name, Reason: "joint not present in kinematic tree"}
		}
		anglesFor[i] = s
	}

	jointSlot := make([]int, tree.NumLinks())
	for i := range jointSlot {
		jointSlot[i] = -1
	}
	for s, id := range tree.jointLink {
		jointSlot[id] = s
	}

	return &Evaluator{tree: tree, dt: dt, anglesFor: anglesFor, jointSlot: jointSlot}, nil
}

// Reset clears the previous-frame state so a new sequence can be evaluated.
func (e *Evaluator) Reset() {
	e.prev = nil
	e.index = 0
}

// Evaluate computes the FK frame for one keyframe record. The first frame
// after construction or Reset has VelocityValid == false.
func (e *Evaluator) Evaluate(rec mocap.KeyframeRecord) (*FKFrame, error) {
	if len(rec.Joints) != len(e.anglesFor) {
		return nil, &KinematicError{Reason: fmt.Sprintf(
			"joint vector has %d angles, evaluator expects %d", len(rec.Joints), len(e.anglesFor))}
	}

	// Scatter input angles into tree joint slots.
	angles := make([]float64, len(e.tree.jointNames))
	for i, s := range e.anglesFor {
		angles[s] = rec.Joints[i]
	}

	t := e.tree
	n := len(t.links)
	pos := make([]r3.Vec, n)
	rot := make([]quat.Number, n)

	rootQ := quat.Number{Real: rec.RootQuat[0], Imag: rec.RootQuat[1], Jmag: rec.RootQuat[2], Kmag: rec.RootQuat[3]}

	for _, id := range t.order {
		l := t.links[id]
		if l.Parent < 0 {
			pos[id] = r3.Vec{X: rec.RootPos[0], Y: rec.RootPos[1], Z: rec.RootPos[2]}
			rot[id] = quat.Mul(rootQ, l.OffsetQuat)
			continue
		}

		pPos := pos[l.Parent]
		pRot := rot[l.Parent]

		pos[id] = r3.Add(pPos, rotateVec(pRot, l.OffsetPos))
		frame := quat.Mul(pRot, l.OffsetQuat)

		switch l.JointType {
		case JointRevolute:
			frame = quat.Mul(frame, axisAngleQuat(l.Axis, angles[e.jointSlot[id]]))
		case JointPrismatic:
			d := angles[e.jointSlot[id]]
			pos[id] = r3.Add(pos[id], rotateVec(frame, r3.Scale(d, l.Axis)))
		}
		rot[id] = frame
	}

	frame := &FKFrame{
		Index:    e.index,
		Time:     rec.Time,
		JointPos: append([]float64(nil), rec.Joints...),
		BodyPos:  make([][3]float64, n),
		BodyQuat: make([][4]float64, n),
	}
	for i, id := range t.order {
		frame.BodyPos[i] = [3]float64{pos[id].X, pos[id].Y, pos[id].Z}
		q := rot[id]
		if q.Real < 0 {
			q = quat.Scale(-1, q)
		}
		frame.BodyQuat[i] = [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
	}

	if e.prev != nil {
		frame.BodyLinVel = make([][3]float64, n)
		frame.BodyAngVel = make([][3]float64, n)
		for i := 0; i < n; i++ {
			for k := 0; k < 3; k++ {
				frame.BodyLinVel[i][k] = (frame.BodyPos[i][k] - e.prev.BodyPos[i][k]) / e.dt
			}
			frame.BodyAngVel[i] = angularVelocity(e.prev.BodyQuat[i], frame.BodyQuat[i], e.dt)
		}
		frame.VelocityValid = true
	}

	e.prev = frame
	e.index++
	return frame, nil
}

// EvaluateSequence evaluates every frame of a uniformly-sampled sequence.
// The evaluator is reset first; ctx aborts between frames.
func (e *Evaluator) EvaluateSequence(ctx context.Context, seq *mocap.MotionSequence) ([]*FKFrame, error) {
	e.Reset()
	frames := make([]*FKFrame, 0, len(seq.Frames))
	for i := range seq.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := e.Evaluate(seq.Frames[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// rotateVec rotates v by the unit quaternion q.
func rotateVec(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// axisAngleQuat builds the rotation of angle radians about a unit axis.
func axisAngleQuat(axis r3.Vec, angle float64) quat.Number {
	half := angle / 2
	s := math.Sin(half)
	return quat.Number{Real: math.Cos(half), Imag: s * axis.X, Jmag: s * axis.Y, Kmag: s * axis.Z}
}

// angularVelocity derives the world-frame angular velocity from two wxyz
// orientations one time step apart, via the relative rotation's axis-angle.
// Using the relative rotation keeps the result correct across the ±π wrap.
func angularVelocity(prev, cur [4]float64, dt float64) [3]float64 {
	qp := quat.Number{Real: prev[0], Imag: prev[1], Jmag: prev[2], Kmag: prev[3]}
	qc := quat.Number{Real: cur[0], Imag: cur[1], Jmag: cur[2], Kmag: cur[3]}

	rel := quat.Mul(qc, quat.Conj(qp))
	if rel.Real < 0 {
		rel = quat.Scale(-1, rel)
	}

	vecNorm := math.Sqrt(rel.Imag*rel.Imag + rel.Jmag*rel.Jmag + rel.Kmag*rel.Kmag)
	if vecNorm < 1e-12 {
		return [3]float64{}
	}
	angle := 2 * math.Atan2(vecNorm, rel.Real)
	scale := angle / (vecNorm * dt)
	return [3]float64{rel.Imag * scale, rel.Jmag * scale, rel.Kmag * scale}
}
