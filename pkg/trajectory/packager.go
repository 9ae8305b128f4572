package trajectory

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/bitbots/go-retarget/pkg/kinematics"
)

// Package assembles FK frames into a ReferenceTrajectory ready for writing.
// Frames must be in sequence order at a fixed rate; frame 0's velocities are
// stored as NaN.
func Package(frames []*kinematics.FKFrame, frameRate float64, jointNames, linkNames []string, sourceID string) (*ReferenceTrajectory, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("cannot package empty trajectory")
	}
	if frameRate <= 0 {
		return nil, fmt.Errorf("cannot package trajectory with rate %g", frameRate)
	}

	numFrames := len(frames)
	numJoints := len(jointNames)
	numLinks := len(linkNames)

	rt := &ReferenceTrajectory{
		Meta: Metadata{
			FrameRate:  frameRate,
			FrameCount: numFrames,
			JointNames: append([]string(nil), jointNames...),
			LinkNames:  append([]string(nil), linkNames...),
			SourceID:   sourceID,
			ArtifactID: uuid.NewString(),
			CreatedAt:  time.Now().UTC(),
		},
		JointPos:   mat.NewDense(numFrames, numJoints, nil),
		BodyPos:    mat.NewDense(numFrames, numLinks*3, nil),
		BodyQuat:   mat.NewDense(numFrames, numLinks*4, nil),
		BodyLinVel: mat.NewDense(numFrames, numLinks*3, nil),
		BodyAngVel: mat.NewDense(numFrames, numLinks*3, nil),
	}

	for i, f := range frames {
		if len(f.JointPos) != numJoints {
			return nil, fmt.Errorf("frame %d: %d joint angles, expected %d", i, len(f.JointPos), numJoints)
		}
		if len(f.BodyPos) != numLinks {
			return nil, fmt.Errorf("frame %d: %d link poses, expected %d", i, len(f.BodyPos), numLinks)
		}
		if i > 0 && !f.VelocityValid {
			return nil, fmt.Errorf("frame %d: missing velocities (only frame 0 may omit them)", i)
		}

		rt.JointPos.SetRow(i, f.JointPos)
		for l := 0; l < numLinks; l++ {
			for k := 0; k < 3; k++ {
				rt.BodyPos.Set(i, l*3+k, f.BodyPos[l][k])
			}
			for k := 0; k < 4; k++ {
				rt.BodyQuat.Set(i, l*4+k, f.BodyQuat[l][k])
			}
			for k := 0; k < 3; k++ {
				if f.VelocityValid {
					rt.BodyLinVel.Set(i, l*3+k, f.BodyLinVel[l][k])
					rt.BodyAngVel.Set(i, l*3+k, f.BodyAngVel[l][k])
				} else {
					rt.BodyLinVel.Set(i, l*3+k, math.NaN())
					rt.BodyAngVel.Set(i, l*3+k, math.NaN())
				}
			}
		}
	}

	return rt, nil
}

// Write persists the trajectory to path. The artifact is written to a
// temporary file in the same directory and renamed into place, so a partial
// artifact is never visible to consumers.
func Write(rt *ReferenceTrajectory, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)

	mw, err := zw.Create(entryMetadata)
	if err != nil {
		return fmt.Errorf("failed to create metadata entry: %w", err)
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rt.Meta); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	arrays := []struct {
		name string
		m    *mat.Dense
	}{
		{entryJointPos, rt.JointPos},
		{entryBodyPos, rt.BodyPos},
		{entryBodyQuat, rt.BodyQuat},
		{entryLinVel, rt.BodyLinVel},
		{entryAngVel, rt.BodyAngVel},
	}
	for _, a := range arrays {
		w, err := zw.Create(a.name)
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", a.name, err)
		}
		if err := npyio.Write(w, a.m); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", a.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}
