package registry

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/bitbots/go-retarget/pkg/trajectory"
)

// GCSPublisher uploads artifacts to a Google Cloud Storage bucket using
// application default credentials.
type GCSPublisher struct {
	Bucket string
	Prefix string

	svc *storage.Service
}

// NewGCSPublisher creates a publisher for the given bucket. Objects are
// named <prefix>/<artifact filename>.
func NewGCSPublisher(ctx context.Context, bucket, prefix string) (*GCSPublisher, error) {
	hc, err := google.DefaultClient(ctx, storage.DevstorageReadWriteScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load GCS credentials: %w", err)
	}
	svc, err := storage.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSPublisher{Bucket: bucket, Prefix: prefix, svc: svc}, nil
}

// Name returns the bucket target.
func (p *GCSPublisher) Name() string {
	return "gs://" + path.Join(p.Bucket, p.Prefix)
}

// Publish uploads the artifact object with its identifying metadata attached.
func (p *GCSPublisher) Publish(ctx context.Context, filePath string, meta trajectory.Metadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	obj := &storage.Object{
		Name: path.Join(p.Prefix, filepath.Base(filePath)),
		Metadata: map[string]string{
			"artifact_id": meta.ArtifactID,
			"source":      meta.SourceID,
			"frame_rate":  fmt.Sprintf("%g", meta.FrameRate),
			"frame_count": fmt.Sprintf("%d", meta.FrameCount),
		},
	}

	_, err = p.svc.Objects.Insert(p.Bucket, obj).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("GCS upload failed: %w", err)
	}
	return nil
}
