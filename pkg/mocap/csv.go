package mocap

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CSV is the hand-off format between the normalizer and the resampler stage,
// and the format external inspection tooling reads. One row per frame:
//
//	time,root_px,root_py,root_pz,root_qw,root_qx,root_qy,root_qz,<joint...>
//
// Values are written with 8 decimal places, matching the upstream dataset
// dumps.

var csvFixedColumns = []string{
	"time",
	"root_px", "root_py", "root_pz",
	"root_qw", "root_qx", "root_qy", "root_qz",
}

// WriteCSV writes the sequence to path in the intermediate CSV format.
func WriteCSV(seq *MotionSequence, path string) error {
	if err := seq.Validate(); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	header := append(append([]string(nil), csvFixedColumns...), seq.JointNames...)
	fmt.Fprintf(w, "%s\n", strings.Join(header, ","))

	for _, f := range seq.Frames {
		fmt.Fprintf(w, "%.8f", f.Time)
		for _, v := range f.RootPos {
			fmt.Fprintf(w, ",%.8f", v)
		}
		for _, v := range f.RootQuat {
			fmt.Fprintf(w, ",%.8f", v)
		}
		for _, v := range f.Joints {
			fmt.Fprintf(w, ",%.8f", v)
		}
		fmt.Fprintf(w, "\n")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ReadCSV reads a sequence from the intermediate CSV format. The native rate
// is inferred from the timestamp spacing unless rate > 0 overrides it.
func ReadCSV(path string, rate float64) (*MotionSequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<22)

	if !scanner.Scan() {
		return nil, &SchemaError{Frame: -1, Field: "header", Reason: "empty csv"}
	}
	header := strings.Split(scanner.Text(), ",")
	if len(header) < len(csvFixedColumns)+1 {
		return nil, &SchemaError{
			Frame: -1, Field: "header",
			Reason: "too few columns",
			Want:   len(csvFixedColumns) + 1, Got: len(header),
		}
	}
	for i, want := range csvFixedColumns {
		if header[i] != want {
			return nil, &SchemaError{
				Frame: -1, Field: "header",
				Reason: fmt.Sprintf("column %d is %q, expected %q", i, header[i], want),
			}
		}
	}

	seq := &MotionSequence{
		JointNames: append([]string(nil), header[len(csvFixedColumns):]...),
	}
	numCols := len(header)

	for row := 0; scanner.Scan(); row++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != numCols {
			return nil, &SchemaError{
				Frame: row, Reason: "column count varies across rows",
				Want:  numCols, Got: len(fields),
			}
		}

		vals := make([]float64, numCols)
		for i, s := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, &SchemaError{
					Frame: row, Field: header[i],
					Reason: fmt.Sprintf("invalid number %q", s),
				}
			}
			vals[i] = v
		}

		rec := KeyframeRecord{
			Time:   vals[0],
			Joints: vals[len(csvFixedColumns):],
		}
		copy(rec.RootPos[:], vals[1:4])
		copy(rec.RootQuat[:], vals[4:8])
		seq.Frames = append(seq.Frames, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if rate > 0 {
		seq.Rate = rate
	} else {
		seq.Rate = inferRate(seq.Frames)
	}

	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}

// inferRate derives the sample rate from the mean timestamp spacing.
func inferRate(frames []KeyframeRecord) float64 {
	if len(frames) < 2 {
		return 0
	}
	span := frames[len(frames)-1].Time - frames[0].Time
	if span <= 0 {
		return 0
	}
	return float64(len(frames)-1) / span
}
