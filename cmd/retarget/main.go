// retarget - Run the whole conversion pipeline in one step.
//
// Takes a raw mocap container, normalizes one motion, resamples it to the
// control rate, runs forward kinematics, and writes the reference artifact.
// Equivalent to mocap2csv followed by csv2ref without the intermediate file.
//
// Usage:
//
//	retarget -input motions.json -key walk_01 -fps 50 -output walk.npz
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitbots/go-retarget/internal/config"
	"github.com/bitbots/go-retarget/internal/log"
	"github.com/bitbots/go-retarget/pkg/pipeline"
	"github.com/bitbots/go-retarget/pkg/registry"
)

func main() {
	var (
		input     = flag.String("input", "", "path to the mocap container (required)")
		output    = flag.String("output", "", "path for the output artifact (required)")
		key       = flag.String("key", "", "motion key inside the container (default: first)")
		fps       = flag.Float64("fps", config.DefaultTargetFPS, "target control rate")
		robot     = flag.String("robot", config.DefaultRobot, "bundled robot name")
		robotFile = flag.String("robot-file", "", "custom robot description (overrides -robot)")
		remap     = flag.Bool("remap", true, "expand the source joint set to the robot's full ordering")
		device    = flag.String("device", "cpu", "compute backend tag recorded in logs")
		publish   = flag.Bool("publish", false, "publish to the registry from REGISTRY_URL/REGISTRY_BUCKET")
	)
	flag.Parse()
	log.Init(config.LogLevel())

	if *input == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -input and -output are required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := pipeline.Config{
		InputPath:      *input,
		MotionKey:      *key,
		OutputPath:     *output,
		TargetRate:     *fps,
		Robot:          *robot,
		RobotPath:      *robotFile,
		Remap:          *remap,
		Device:         *device,
		PushgatewayURL: config.PushgatewayURL(),
	}
	if *publish {
		if url := config.RegistryURL(); url != "" {
			cfg.Publisher = registry.NewHTTPPublisher(url)
		} else if bucket := config.RegistryBucket(); bucket != "" {
			pub, err := registry.NewGCSPublisher(ctx, bucket, "motions")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			cfg.Publisher = pub
		} else {
			fmt.Fprintln(os.Stderr, "Error: -publish requires REGISTRY_URL or REGISTRY_BUCKET")
			os.Exit(1)
		}
	}

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Saved reference trajectory: %s\n", res.ArtifactPath)
	fmt.Printf("  artifact_id: %s\n", res.ArtifactID)
	fmt.Printf("  frames: %d at %g fps\n", res.FrameCount, *fps)
	if res.Warning != nil {
		fmt.Printf("Warning: %v\n", res.Warning)
	}
}
