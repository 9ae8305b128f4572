// csv2ref - Convert an intermediate CSV motion to a reference trajectory.
//
// The CSV is resampled to the target control rate, run through forward
// kinematics on the selected robot, and packaged as an indexed NPZ artifact.
// Publishing to a registry is best-effort: a failed upload is a warning, the
// local artifact stays valid.
//
// Usage:
//
//	csv2ref -input walk.csv -input-fps 30 -fps 50 -output walk.npz
//	REGISTRY_URL=https://registry/api/motions csv2ref -input walk.csv -output walk.npz -publish
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
		input     = flag.String("input", "", "path to the intermediate CSV (required)")
		output    = flag.String("output", "", "path for the output artifact (required)")
		inputFPS  = flag.Float64("input-fps", 0, "native rate of the CSV (default: inferred from timestamps)")
		fps       = flag.Float64("fps", config.DefaultTargetFPS, "target control rate")
		robot     = flag.String("robot", config.DefaultRobot, "bundled robot name")
		robotFile = flag.String("robot-file", "", "custom robot description (overrides -robot)")
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
		FromCSV:        true,
		InputRate:      *inputFPS,
		OutputPath:     *output,
		TargetRate:     *fps,
		Robot:          *robot,
		RobotPath:      *robotFile,
		Device:         *device,
		PushgatewayURL: config.PushgatewayURL(),
	}
	if *publish {
		pub, err := buildPublisher(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Publisher = pub
	}

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Saved reference trajectory: %s (%d frames at %g fps)\n",
		res.ArtifactPath, res.FrameCount, *fps)
	if res.Warning != nil {
		fmt.Printf("Warning: %v\n", res.Warning)
	}
}

// buildPublisher picks a registry backend from the environment: an HTTP
// endpoint when REGISTRY_URL is set, else a GCS bucket from REGISTRY_BUCKET.
func buildPublisher(ctx context.Context) (registry.Publisher, error) {
	if url := config.RegistryURL(); url != "" {
		return registry.NewHTTPPublisher(url), nil
	}
	if bucket := config.RegistryBucket(); bucket != "" {
		return registry.NewGCSPublisher(ctx, bucket, "motions")
	}
	return nil, fmt.Errorf("-publish requires REGISTRY_URL or REGISTRY_BUCKET")
}
