// Package kinematics evaluates forward kinematics over a fixed robot tree.
//
// The tree is an arena of links indexed by integer id with a topological
// order fixed at construction, so evaluation is a single deterministic
// parent-before-child pass per frame. Structural problems (cycles, unknown
// parents, bad joint axes) are rejected once at load time, never per frame.
package kinematics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Joint types.
const (
	JointFixed     = "fixed"
	JointRevolute  = "revolute"
	JointPrismatic = "prismatic"
)

// LinkSpec describes one link in a robot description file.
type LinkSpec struct {
	Name       string     `json:"name"`
	Parent     string     `json:"parent"`
	OffsetPos  [3]float64 `json:"offset_pos"`
	OffsetQuat [4]float64 `json:"offset_quat,omitempty"` // wxyz, identity when omitted
	Joint      JointSpec  `json:"joint"`
}

// JointSpec describes the joint connecting a link to its parent.
type JointSpec struct {
	Name string     `json:"name,omitempty"`
	Type string     `json:"type"`
	Axis [3]float64 `json:"axis,omitempty"`
}

// TreeSpec is the serialized robot description.
type TreeSpec struct {
	Name  string     `json:"name"`
	Links []LinkSpec `json:"links"`
}

// Link is one resolved link in the arena.
type Link struct {
	Name       string
	Parent     int // -1 for the root
	OffsetPos  r3.Vec
	OffsetQuat quat.Number
	JointName  string
	JointType  string
	Axis       r3.Vec
}

// Tree is an immutable kinematic tree: links in an arena, a precomputed
// parent-before-child traversal order, and the ordering of actuated joints.
type Tree struct {
	name   string
	links  []Link
	order  []int // topological traversal order
	root   int
	byName map[string]int

	jointNames []string
	jointLink  []int // joint slot -> link id
}

// LoadTree reads a robot description from a JSON file.
func LoadTree(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read robot description: %w", err)
	}
	return ParseTree(data)
}

// ParseTree parses a robot description from JSON bytes.
func ParseTree(data []byte) (*Tree, error) {
	var spec TreeSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, &KinematicError{Reason: fmt.Sprintf("invalid robot description JSON: %v", err)}
	}
	return NewTree(spec)
}

// NewTree builds and validates a tree from its description. All structural
// checks happen here.
func NewTree(spec TreeSpec) (*Tree, error) {
	if len(spec.Links) == 0 {
		return nil, &KinematicError{Reason: "robot description has no links"}
	}

	t := &Tree{
		name:   spec.Name,
		links:  make([]Link, len(spec.Links)),
		byName: make(map[string]int, len(spec.Links)),
	}

	for i, ls := range spec.Links {
		if ls.Name == "" {
			return nil, &KinematicError{Reason: fmt.Sprintf("link %d has no name", i)}
		}
		if _, dup := t.byName[ls.Name]; dup {
			return nil, &KinematicError{Link: ls.Name, Reason: "duplicate link name"}
		}
		t.byName[ls.Name] = i
	}

	seenJoint := make(map[string]bool)
	rootSeen := false
	for i, ls := range spec.Links {
		link := Link{
			Name:      ls.Name,
			Parent:    -1,
			OffsetPos: r3.Vec{X: ls.OffsetPos[0], Y: ls.OffsetPos[1], Z: ls.OffsetPos[2]},
			JointName: ls.Joint.Name,
			JointType: ls.Joint.Type,
		}

		if ls.OffsetQuat == ([4]float64{}) {
			link.OffsetQuat = quat.Number{Real: 1}
		} else {
			q, err := unitQuat(ls.OffsetQuat)
			if err != nil {
				return nil, &KinematicError{Link: ls.Name, Reason: err.Error()}
			}
			link.OffsetQuat = q
		}

		if ls.Parent == "" {
			if rootSeen {
				return nil, &KinematicError{Link: ls.Name, Reason: "multiple root links"}
			}
			rootSeen = true
			t.root = i
		} else {
			p, ok := t.byName[ls.Parent]
			if !ok {
				return nil, &KinematicError{Link: ls.Name, Reason: fmt.Sprintf("unknown parent %q", ls.Parent)}
			}
			if p == i {
				return nil, &KinematicError{Link: ls.Name, Reason: "link is its own parent"}
			}
			link.Parent = p
		}

		switch ls.Joint.Type {
		case "", JointFixed:
			link.JointType = JointFixed
		case JointRevolute, JointPrismatic:
			axis := r3.Vec{X: ls.Joint.Axis[0], Y: ls.Joint.Axis[1], Z: ls.Joint.Axis[2]}
			n := r3.Norm(axis)
			if n < 1e-9 {
				return nil, &KinematicError{Link: ls.Name, Joint: ls.Joint.Name, Reason: "joint axis is zero"}
			}
			link.Axis = r3.Scale(1/n, axis)
			if ls.Joint.Name == "" {
				return nil, &KinematicError{Link: ls.Name, Reason: "actuated joint has no name"}
			}
			if seenJoint[ls.Joint.Name] {
				return nil, &KinematicError{Link: ls.Name, Joint: ls.Joint.Name, Reason: "duplicate joint name"}
			}
			seenJoint[ls.Joint.Name] = true
		default:
			return nil, &KinematicError{Link: ls.Name, Joint: ls.Joint.Name, Reason: fmt.Sprintf("unknown joint type %q", ls.Joint.Type)}
		}

		t.links[i] = link
	}

	if err := t.computeOrder(); err != nil {
		return nil, err
	}

	// Joint ordering follows traversal order, so a joint vector indexed by
	// this ordering is always resolved parent-first.
	for _, id := range t.order {
		l := t.links[id]
		if l.JointType != JointFixed {
			t.jointNames = append(t.jointNames, l.JointName)
			t.jointLink = append(t.jointLink, id)
		}
	}

	return t, nil
}

// computeOrder runs Kahn's algorithm over the parent relation. Any link left
// unvisited sits on a cycle (or hangs off one).
func (t *Tree) computeOrder() error {
	children := make([][]int, len(t.links))
	roots := 0
	for i, l := range t.links {
		if l.Parent < 0 {
			roots++
			continue
		}
		children[l.Parent] = append(children[l.Parent], i)
	}
	if roots != 1 {
		return &KinematicError{Reason: fmt.Sprintf("expected exactly one root link, found %d", roots)}
	}

	t.order = make([]int, 0, len(t.links))
	queue := []int{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		t.order = append(t.order, id)
		queue = append(queue, children[id]...)
	}

	if len(t.order) != len(t.links) {
		var orphans []string
		visited := make(map[int]bool, len(t.order))
		for _, id := range t.order {
			visited[id] = true
		}
		for i, l := range t.links {
			if !visited[i] {
				orphans = append(orphans, l.Name)
			}
		}
		return &KinematicError{Reason: fmt.Sprintf("links form a cycle: %v", orphans)}
	}
	return nil
}

// Name returns the robot name.
func (t *Tree) Name() string { return t.name }

// NumLinks returns the number of links.
func (t *Tree) NumLinks() int { return len(t.links) }

// LinkNames returns link names in traversal order.
func (t *Tree) LinkNames() []string {
	names := make([]string, len(t.order))
	for i, id := range t.order {
		names[i] = t.links[id].Name
	}
	return names
}

// JointNames returns the actuated joint ordering.
func (t *Tree) JointNames() []string {
	return append([]string(nil), t.jointNames...)
}

// unitQuat converts a wxyz array to a normalized quat.Number.
func unitQuat(a [4]float64) (quat.Number, error) {
	q := quat.Number{Real: a[0], Imag: a[1], Jmag: a[2], Kmag: a[3]}
	n := quat.Abs(q)
	if n < 1e-9 || math.IsNaN(n) {
		return q, fmt.Errorf("degenerate offset quaternion")
	}
	return quat.Scale(1/n, q), nil
}
