// Package trajectory packages forward-kinematics output into the reference
// motion artifact consumed by training and evaluation.
//
// The artifact is a zip container of NumPy arrays (an NPZ) plus a JSON
// metadata entry. Arrays are two-dimensional, one row per frame, so any
// frame is addressable in O(1) once loaded; training consumers sample
// episode starts at random offsets.
package trajectory

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/bitbots/go-retarget/pkg/kinematics"
)

// Array names inside the artifact.
const (
	entryMetadata  = "metadata.json"
	entryJointPos  = "joint_pos.npy"
	entryBodyPos   = "body_pos_w.npy"
	entryBodyQuat  = "body_quat_w.npy"
	entryLinVel    = "body_lin_vel_w.npy"
	entryAngVel    = "body_ang_vel_w.npy"
)

// Metadata describes an artifact well enough for a consumer to validate
// compatibility before touching frame data.
type Metadata struct {
	FrameRate  float64   `json:"frame_rate"`
	FrameCount int       `json:"frame_count"`
	JointNames []string  `json:"joint_names"`
	LinkNames  []string  `json:"link_names"`
	SourceID   string    `json:"source_identifier"`
	ArtifactID string    `json:"artifact_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReferenceTrajectory is a loaded (or freshly packaged) reference motion.
//
// Row layouts: JointPos is T×J; BodyPos/BodyLinVel/BodyAngVel are T×3L and
// BodyQuat is T×4L with links in metadata order. Velocity rows at frame 0
// hold NaN: velocities are undefined there, not zero.
type ReferenceTrajectory struct {
	Meta Metadata

	JointPos   *mat.Dense
	BodyPos    *mat.Dense
	BodyQuat   *mat.Dense
	BodyLinVel *mat.Dense
	BodyAngVel *mat.Dense
}

// NumFrames returns the frame count.
func (rt *ReferenceTrajectory) NumFrames() int { return rt.Meta.FrameCount }

// Duration returns the trajectory length in seconds.
func (rt *ReferenceTrajectory) Duration() time.Duration {
	if rt.Meta.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(rt.Meta.FrameCount) / rt.Meta.FrameRate * float64(time.Second))
}

// FrameAt reconstructs the FK frame at index i. The velocity slices of frame
// 0 are nil and VelocityValid is false.
func (rt *ReferenceTrajectory) FrameAt(i int) (*kinematics.FKFrame, error) {
	if i < 0 || i >= rt.Meta.FrameCount {
		return nil, &FrameRangeError{Index: i, Count: rt.Meta.FrameCount}
	}

	numLinks := len(rt.Meta.LinkNames)
	numJoints := len(rt.Meta.JointNames)

	f := &kinematics.FKFrame{
		Index:    i,
		Time:     float64(i) / rt.Meta.FrameRate,
		JointPos: make([]float64, numJoints),
		BodyPos:  make([][3]float64, numLinks),
		BodyQuat: make([][4]float64, numLinks),
	}
	mat.Row(f.JointPos, i, rt.JointPos)

	for l := 0; l < numLinks; l++ {
		for k := 0; k < 3; k++ {
			f.BodyPos[l][k] = rt.BodyPos.At(i, l*3+k)
		}
		for k := 0; k < 4; k++ {
			f.BodyQuat[l][k] = rt.BodyQuat.At(i, l*4+k)
		}
	}

	if velocityDefined(rt.BodyLinVel, i) {
		f.BodyLinVel = make([][3]float64, numLinks)
		f.BodyAngVel = make([][3]float64, numLinks)
		for l := 0; l < numLinks; l++ {
			for k := 0; k < 3; k++ {
				f.BodyLinVel[l][k] = rt.BodyLinVel.At(i, l*3+k)
				f.BodyAngVel[l][k] = rt.BodyAngVel.At(i, l*3+k)
			}
		}
		f.VelocityValid = true
	}
	return f, nil
}

// velocityDefined reports whether a velocity row holds real data.
func velocityDefined(m *mat.Dense, row int) bool {
	if m == nil {
		return false
	}
	return !math.IsNaN(m.At(row, 0))
}
