package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bitbots/go-retarget/internal/httpc"
	"github.com/bitbots/go-retarget/pkg/trajectory"
)

// HTTPPublisher uploads artifacts to a registry endpoint as a multipart POST
// with a "metadata" JSON field and an "artifact" file field.
type HTTPPublisher struct {
	URL    string
	Token  string // optional bearer token
	Client *http.Client
}

// NewHTTPPublisher creates a publisher for the given registry URL.
func NewHTTPPublisher(url string) *HTTPPublisher {
	return &HTTPPublisher{URL: url, Client: httpc.Client}
}

// Name returns the registry URL.
func (p *HTTPPublisher) Name() string { return p.URL }

// Publish uploads the artifact.
func (p *HTTPPublisher) Publish(ctx context.Context, path string, meta trajectory.Metadata) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := mw.WriteField("metadata", string(metaJSON)); err != nil {
		return fmt.Errorf("failed to write metadata field: %w", err)
	}

	fw, err := mw.CreateFormFile("artifact", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create artifact field: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return fmt.Errorf("failed to buffer artifact: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	client := p.Client
	if client == nil {
		client = httpc.Client
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("registry returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}
