// mocap2csv - Convert a raw mocap container to the intermediate CSV format.
//
// The container is a JSON dump of retargeted motions; one motion is selected
// by key (the first, by default) and normalized to the canonical joint-angle
// time series. Use -list to inspect the available motions.
//
// Usage:
//
//	mocap2csv -input motions.json -output walk.csv
//	mocap2csv -input motions.json -list
//	mocap2csv -input motions.json -output walk.csv -key walk_01 -remap
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bitbots/go-retarget/internal/config"
	"github.com/bitbots/go-retarget/internal/log"
	"github.com/bitbots/go-retarget/pkg/mocap"
	"github.com/bitbots/go-retarget/pkg/robots/x02"
)

func main() {
	var (
		input  = flag.String("input", "", "path to the mocap container (required)")
		output = flag.String("output", "", "path for the output CSV")
		key    = flag.String("key", "", "motion key inside the container (default: first)")
		list   = flag.Bool("list", false, "list available motion keys and exit")
		remap  = flag.Bool("remap", false, "expand the source joint set to the full x02 ordering")
	)
	flag.Parse()
	log.Init(config.LogLevel())

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		flag.Usage()
		os.Exit(1)
	}

	container, err := mocap.LoadContainer(*input)
	if err != nil {
		fatal(err)
	}

	if *list {
		fmt.Println("Available motions:")
		for _, info := range container.Motions() {
			fmt.Printf("  %q - %d frames, %g fps\n", info.Key, info.Frames, info.FPS)
		}
		return
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -output is required")
		os.Exit(1)
	}

	k := *key
	if k == "" {
		k = container.FirstKey()
		fmt.Printf("Using motion key: %q\n", k)
	}

	var opts mocap.NormalizeOptions
	seq, err := container.Normalize(k, opts)
	if err != nil {
		fatal(err)
	}

	if *remap {
		jm := mocap.NewJointMap(seq.JointNames, x02.JointNames)
		if missing := jm.Missing(); len(missing) > 0 {
			fmt.Printf("Zero-filling %d joints absent from source rig: %v\n", len(missing), missing)
		}
		seq, err = jm.Apply(seq)
		if err != nil {
			fatal(err)
		}
	}

	if err := mocap.WriteCSV(seq, *output); err != nil {
		fatal(err)
	}

	fmt.Printf("Saved CSV: %s (%d frames, %d joints, %g fps)\n",
		*output, len(seq.Frames), seq.NumJoints(), seq.Rate)
	fmt.Println("\nNext step - convert to a reference artifact:")
	fmt.Printf("  csv2ref -input %s -input-fps %g -output <name>.npz\n", *output, seq.Rate)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
