// refinfo - Inspect a reference trajectory artifact.
//
// Prints the metadata header and optionally validates the artifact against a
// robot's joint and link orderings, the same check training consumers run
// before using a trajectory.
//
// Usage:
//
//	refinfo -input walk.npz
//	refinfo -input walk.npz -validate
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bitbots/go-retarget/pkg/kinematics"
	"github.com/bitbots/go-retarget/pkg/robots/x02"
	"github.com/bitbots/go-retarget/pkg/trajectory"
)

func main() {
	var (
		input     = flag.String("input", "", "path to the artifact (required)")
		validate  = flag.Bool("validate", false, "validate against the selected robot")
		robotFile = flag.String("robot-file", "", "custom robot description (default: bundled x02)")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		flag.Usage()
		os.Exit(1)
	}

	rt, err := trajectory.Load(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := rt.Meta
	fmt.Printf("Artifact: %s\n", *input)
	fmt.Printf("  artifact_id: %s\n", m.ArtifactID)
	fmt.Printf("  source:      %s\n", m.SourceID)
	fmt.Printf("  created:     %s\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  frames:      %d at %g fps (%.2fs)\n", m.FrameCount, m.FrameRate, rt.Duration().Seconds())
	fmt.Printf("  joints:      %d\n", len(m.JointNames))
	fmt.Printf("  links:       %d\n", len(m.LinkNames))

	if !*validate {
		return
	}

	var tree *kinematics.Tree
	if *robotFile != "" {
		tree, err = kinematics.LoadTree(*robotFile)
	} else {
		tree, err = x02.Tree()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := trajectory.ValidateCompatibility(rt, nil, tree.LinkNames()); err != nil {
		fmt.Fprintf(os.Stderr, "Incompatible: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Compatible with robot %q\n", tree.Name())
}
