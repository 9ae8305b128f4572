// Package x02 bundles the kinematic description of the BitBots x02 humanoid.
//
// The robot description ships embedded so converter tools work without an
// asset checkout. Joint orderings follow the conventions of the retargeted
// mocap datasets: the full robot has 29 actuated joints; the common source
// rigs carry 23 (no wrists).
package x02

import (
	"embed"

	"github.com/bitbots/go-retarget/pkg/kinematics"
)

//go:embed data/x02.json
var assets embed.FS

// StandingHeight is the pelvis height of the home keyframe in meters.
const StandingHeight = 0.87

// JointNames is the 29-joint ordering used in intermediate CSV files and
// reference artifacts.
var JointNames = []string{
	"left_hip_pitch",
	"left_hip_roll",
	"left_hip_yaw",
	"left_knee",
	"left_ankle_pitch",
	"left_ankle_roll",
	"right_hip_pitch",
	"right_hip_roll",
	"right_hip_yaw",
	"right_knee",
	"right_ankle_pitch",
	"right_ankle_roll",
	"waist_yaw",
	"waist_roll",
	"waist_pitch",
	"left_shoulder_pitch",
	"left_shoulder_roll",
	"left_shoulder_yaw",
	"left_elbow",
	"left_wrist_roll",
	"left_wrist_pitch",
	"left_wrist_yaw",
	"right_shoulder_pitch",
	"right_shoulder_roll",
	"right_shoulder_yaw",
	"right_elbow",
	"right_wrist_roll",
	"right_wrist_pitch",
	"right_wrist_yaw",
}

// JointNames23 is the wrist-less ordering found in the openhe retargeted
// dumps. Normalizing such a motion against JointNames zero-fills the six
// wrist joints.
var JointNames23 = []string{
	"left_hip_pitch",
	"left_hip_roll",
	"left_hip_yaw",
	"left_knee",
	"left_ankle_pitch",
	"left_ankle_roll",
	"right_hip_pitch",
	"right_hip_roll",
	"right_hip_yaw",
	"right_knee",
	"right_ankle_pitch",
	"right_ankle_roll",
	"waist_yaw",
	"waist_roll",
	"waist_pitch",
	"left_shoulder_pitch",
	"left_shoulder_roll",
	"left_shoulder_yaw",
	"left_elbow",
	"right_shoulder_pitch",
	"right_shoulder_roll",
	"right_shoulder_yaw",
	"right_elbow",
}

// homePose holds the non-zero joints of the home keyframe.
var homePose = map[string]float64{
	"left_hip_pitch":       -0.1,
	"right_hip_pitch":      -0.1,
	"left_knee":            0.3,
	"right_knee":           0.3,
	"left_ankle_pitch":     -0.2,
	"right_ankle_pitch":    -0.2,
	"left_shoulder_pitch":  0.2,
	"right_shoulder_pitch": 0.2,
	"left_elbow":           0.5,
	"right_elbow":          0.5,
}

// HomeJointPos returns the home keyframe angles in JointNames order.
func HomeJointPos() []float64 {
	out := make([]float64, len(JointNames))
	for i, name := range JointNames {
		out[i] = homePose[name]
	}
	return out
}

// Tree loads the embedded x02 kinematic tree.
func Tree() (*kinematics.Tree, error) {
	data, err := assets.ReadFile("data/x02.json")
	if err != nil {
		return nil, err
	}
	return kinematics.ParseTree(data)
}
