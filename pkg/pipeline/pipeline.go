// Package pipeline wires the conversion stages into a single batch run:
// normalize, resample, forward kinematics, package, export.
//
// Each run owns its own state; there are no process-wide singletons. All
// knobs arrive through Config, filled by the CLI layer.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/bitbots/go-retarget/internal/log"
	"github.com/bitbots/go-retarget/pkg/kinematics"
	"github.com/bitbots/go-retarget/pkg/mocap"
	"github.com/bitbots/go-retarget/pkg/registry"
	"github.com/bitbots/go-retarget/pkg/resample"
	"github.com/bitbots/go-retarget/pkg/robots/x02"
	"github.com/bitbots/go-retarget/pkg/trajectory"
)

// Config is the explicit configuration for one conversion run.
type Config struct {
	// InputPath is the raw mocap container (or intermediate CSV when
	// FromCSV is set).
	InputPath string
	FromCSV   bool

	// MotionKey selects a motion inside the container; empty means the
	// first key in sorted order.
	MotionKey string

	// InputRate overrides the native rate when reading CSV input (0 means
	// infer from timestamps).
	InputRate float64

	// OutputPath is the destination artifact path.
	OutputPath string

	// TargetRate is the control frequency of the reference trajectory.
	TargetRate float64

	// Robot names a bundled robot ("x02") unless RobotPath points to a
	// custom description file.
	Robot     string
	RobotPath string

	// Remap expands a source joint subset to the robot's full ordering,
	// zero-filling missing joints.
	Remap bool

	// Publisher is optional; a nil publisher disables export.
	Publisher registry.Publisher

	// PushgatewayURL receives run metrics when set.
	PushgatewayURL string

	// Device tags the artifact's compute backend in logs. The pipeline is
	// CPU-only; the tag exists for parity with downstream tooling.
	Device string
}

// Result summarizes a completed run.
type Result struct {
	ArtifactPath string
	ArtifactID   string
	FrameCount   int

	// Warning is non-nil when the best-effort publish failed. The local
	// artifact is valid regardless.
	Warning *registry.PublishWarning
}

// Run executes the full conversion pipeline. On error no artifact is left
// visible at cfg.OutputPath.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()
	res, err := run(ctx, cfg)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
	} else {
		runsTotal.WithLabelValues("ok").Inc()
	}
	pushMetrics(cfg.PushgatewayURL)
	log.Info("run finished", "elapsed", time.Since(start), "ok", err == nil)
	return res, err
}

func run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.InputPath == "" || cfg.OutputPath == "" {
		return nil, fmt.Errorf("input and output paths are required")
	}
	if cfg.TargetRate <= 0 {
		return nil, &resample.ResampleError{Rate: cfg.TargetRate, Reason: "target rate must be positive"}
	}

	tree, err := loadTree(cfg)
	if err != nil {
		return nil, err
	}

	seq, err := ingest(cfg, tree)
	if err != nil {
		return nil, err
	}
	log.Info("normalized motion",
		"motion", seq.Name, "frames", len(seq.Frames), "native_rate", seq.Rate,
		"joints", seq.NumJoints(), "device", cfg.Device)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart := time.Now()
	uniform, err := resample.Resample(seq, cfg.TargetRate)
	if err != nil {
		return nil, err
	}
	stageDuration.WithLabelValues("resample").Observe(time.Since(stageStart).Seconds())
	log.Info("resampled motion", "frames", len(uniform.Frames), "rate", cfg.TargetRate)

	stageStart = time.Now()
	eval, err := kinematics.NewEvaluator(tree, uniform.JointNames, 1.0/cfg.TargetRate)
	if err != nil {
		return nil, err
	}
	frames, err := eval.EvaluateSequence(ctx, uniform)
	if err != nil {
		return nil, err
	}
	stageDuration.WithLabelValues("fk").Observe(time.Since(stageStart).Seconds())
	framesProcessed.Add(float64(len(frames)))

	stageStart = time.Now()
	rt, err := trajectory.Package(frames, cfg.TargetRate, uniform.JointNames, tree.LinkNames(), seq.Name)
	if err != nil {
		return nil, err
	}
	if err := trajectory.Write(rt, cfg.OutputPath); err != nil {
		return nil, err
	}
	stageDuration.WithLabelValues("package").Observe(time.Since(stageStart).Seconds())
	log.Info("wrote artifact",
		"path", cfg.OutputPath, "artifact_id", rt.Meta.ArtifactID, "frames", rt.Meta.FrameCount)

	result := &Result{
		ArtifactPath: cfg.OutputPath,
		ArtifactID:   rt.Meta.ArtifactID,
		FrameCount:   rt.Meta.FrameCount,
	}

	if cfg.Publisher != nil {
		if warn := registry.NewSink(cfg.Publisher).Export(ctx, cfg.OutputPath, rt.Meta); warn != nil {
			publishFailures.Inc()
			log.Warn("artifact not published", "warning", warn.Error())
			result.Warning = warn
		}
	}

	return result, nil
}

// ingest produces the canonical sequence from either a raw container or an
// intermediate CSV.
func ingest(cfg Config, tree *kinematics.Tree) (*mocap.MotionSequence, error) {
	if cfg.FromCSV {
		return mocap.ReadCSV(cfg.InputPath, cfg.InputRate)
	}

	container, err := mocap.LoadContainer(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	key := cfg.MotionKey
	if key == "" {
		key = container.FirstKey()
		log.Info("no motion key given, using first", "key", key)
	}

	seq, err := container.Normalize(key, mocap.NormalizeOptions{})
	if err != nil {
		return nil, err
	}

	if cfg.Remap {
		// The remap target is the robot's joint ordering, so the FK
		// stage sees every joint the tree expects.
		jm := mocap.NewJointMap(seq.JointNames, tree.JointNames())
		if missing := jm.Missing(); len(missing) > 0 {
			log.Info("zero-filling joints absent from source rig", "joints", missing)
		}
		return jm.Apply(seq)
	}
	return seq, nil
}

// loadTree resolves the robot description from config.
func loadTree(cfg Config) (*kinematics.Tree, error) {
	if cfg.RobotPath != "" {
		return kinematics.LoadTree(cfg.RobotPath)
	}
	switch cfg.Robot {
	case "", "x02":
		return x02.Tree()
	default:
		return nil, fmt.Errorf("unknown robot %q (use -robot-file for custom descriptions)", cfg.Robot)
	}
}
