package trajectory

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Load reads a reference trajectory artifact from disk and validates its
// internal consistency (array shapes against the metadata header).
func Load(path string) (*ReferenceTrajectory, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	rt := &ReferenceTrajectory{}

	metaFile, ok := entries[entryMetadata]
	if !ok {
		return nil, fmt.Errorf("artifact %s: missing %s", path, entryMetadata)
	}
	if err := readJSONEntry(metaFile, &rt.Meta); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	if rt.Meta.FrameCount <= 0 || rt.Meta.FrameRate <= 0 {
		return nil, fmt.Errorf("artifact %s: invalid metadata (frames=%d, rate=%g)",
			path, rt.Meta.FrameCount, rt.Meta.FrameRate)
	}

	numLinks := len(rt.Meta.LinkNames)
	arrays := []struct {
		name string
		dst  **mat.Dense
		cols int
	}{
		{entryJointPos, &rt.JointPos, len(rt.Meta.JointNames)},
		{entryBodyPos, &rt.BodyPos, numLinks * 3},
		{entryBodyQuat, &rt.BodyQuat, numLinks * 4},
		{entryLinVel, &rt.BodyLinVel, numLinks * 3},
		{entryAngVel, &rt.BodyAngVel, numLinks * 3},
	}
	for _, a := range arrays {
		f, ok := entries[a.name]
		if !ok {
			return nil, fmt.Errorf("artifact %s: missing %s", path, a.name)
		}
		m, err := readArrayEntry(f)
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", path, err)
		}
		rows, cols := m.Dims()
		if rows != rt.Meta.FrameCount || cols != a.cols {
			return nil, fmt.Errorf("artifact %s: %s is %dx%d, metadata implies %dx%d",
				path, a.name, rows, cols, rt.Meta.FrameCount, a.cols)
		}
		*a.dst = m
	}

	return rt, nil
}

func readJSONEntry(f *zip.File, v interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}
	return nil
}

func readArrayEntry(f *zip.File) (*mat.Dense, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	// npyio needs the whole entry; zip readers are not seekable.
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}

	var m mat.Dense
	if err := npyio.Read(bytes.NewReader(data), &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}
	return &m, nil
}
