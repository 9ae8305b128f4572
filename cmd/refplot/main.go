// refplot - Plot a joint-angle trace from an intermediate CSV or a reference
// artifact. Handy for eyeballing interpolation quality after resampling.
//
// Usage:
//
//	refplot -input walk.csv -joint left_knee -output knee.png
//	refplot -input walk.npz -joint left_knee -output knee.png
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bitbots/go-retarget/pkg/mocap"
	"github.com/bitbots/go-retarget/pkg/trajectory"
)

func main() {
	var (
		input  = flag.String("input", "", "CSV or artifact path (required)")
		joint  = flag.String("joint", "", "joint name to plot (required)")
		output = flag.String("output", "plot.png", "output image path")
	)
	flag.Parse()

	if *input == "" || *joint == "" {
		fmt.Fprintln(os.Stderr, "Error: -input and -joint are required")
		flag.Usage()
		os.Exit(1)
	}

	pts, err := jointTrace(*input, *joint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := plot.New()
	p.Title.Text = *joint
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = "angle [rad]"

	line, err := plotter.NewLine(pts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved plot: %s (%d points)\n", *output, len(pts))
}

// jointTrace extracts (time, angle) samples for one joint from either input
// format.
func jointTrace(path, joint string) (plotter.XYs, error) {
	if strings.HasSuffix(path, ".npz") {
		rt, err := trajectory.Load(path)
		if err != nil {
			return nil, err
		}
		col := indexOf(rt.Meta.JointNames, joint)
		if col < 0 {
			return nil, fmt.Errorf("joint %q not in artifact (joints: %v)", joint, rt.Meta.JointNames)
		}
		pts := make(plotter.XYs, rt.Meta.FrameCount)
		for i := 0; i < rt.Meta.FrameCount; i++ {
			pts[i] = plotter.XY{
				X: float64(i) / rt.Meta.FrameRate,
				Y: rt.JointPos.At(i, col),
			}
		}
		return pts, nil
	}

	seq, err := mocap.ReadCSV(path, 0)
	if err != nil {
		return nil, err
	}
	col := indexOf(seq.JointNames, joint)
	if col < 0 {
		return nil, fmt.Errorf("joint %q not in csv (joints: %v)", joint, seq.JointNames)
	}
	pts := make(plotter.XYs, len(seq.Frames))
	for i, f := range seq.Frames {
		pts[i] = plotter.XY{X: f.Time, Y: f.Joints[col]}
	}
	return pts, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
