package resample

import "fmt"

// ResampleError reports an invalid resampling request.
type ResampleError struct {
	Rate   float64
	Frames int
	Reason string
}

func (e *ResampleError) Error() string {
	return fmt.Sprintf("resample error (rate=%g, frames=%d): %s", e.Rate, e.Frames, e.Reason)
}
