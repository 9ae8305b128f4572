// Package registry publishes reference-motion artifacts to shared storage.
//
// Publication is best-effort: the artifact on local disk is the source of
// truth, and a failed publish degrades to a warning instead of failing the
// pipeline. Publishing never re-runs any computation, so it is independently
// retryable.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/bitbots/go-retarget/internal/log"
	"github.com/bitbots/go-retarget/pkg/trajectory"
)

// Publisher pushes a locally-written artifact to a registry backend.
type Publisher interface {
	// Name identifies the backend (for logging).
	Name() string

	// Publish uploads the artifact at path with its metadata.
	Publish(ctx context.Context, path string, meta trajectory.Metadata) error
}

// PublishWarning is the non-fatal outcome of a failed publish. It satisfies
// error so callers can log or inspect it, but pipelines must never treat it
// as a run failure.
type PublishWarning struct {
	Target   string
	Attempts int
	Err      error
}

func (w *PublishWarning) Error() string {
	return fmt.Sprintf("publish to %s failed after %d attempts: %v (local artifact remains valid)",
		w.Target, w.Attempts, w.Err)
}

func (w *PublishWarning) Unwrap() error { return w.Err }

// Sink drives a publisher with retries.
type Sink struct {
	pub      Publisher
	attempts int
	backoff  time.Duration
}

// NewSink wraps a publisher with the default retry policy: 3 attempts with
// exponential backoff starting at one second.
func NewSink(pub Publisher) *Sink {
	return &Sink{pub: pub, attempts: 3, backoff: time.Second}
}

// Export publishes the artifact at path. A nil return means the publish
// succeeded (or no publisher is configured); otherwise the returned
// PublishWarning describes the failure. Export never returns a fatal error.
func (s *Sink) Export(ctx context.Context, path string, meta trajectory.Metadata) *PublishWarning {
	if s == nil || s.pub == nil {
		return nil
	}

	var last error
	delay := s.backoff
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.pub.Publish(ctx, path, meta)
		if err == nil {
			log.Info("published artifact",
				"target", s.pub.Name(), "artifact_id", meta.ArtifactID, "attempt", attempt)
			return nil
		}
		last = err
		log.Warn("publish attempt failed",
			"target", s.pub.Name(), "attempt", attempt, "error", err)

		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return &PublishWarning{Target: s.pub.Name(), Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
			delay *= 2
		}
	}

	return &PublishWarning{Target: s.pub.Name(), Attempts: s.attempts, Err: last}
}
