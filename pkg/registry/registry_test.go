package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitbots/go-retarget/pkg/trajectory"
)

func writeTestArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "walk.npz")
	if err := os.WriteFile(path, []byte("not a real artifact"), 0o644); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}
	return path
}

func testMeta() trajectory.Metadata {
	return trajectory.Metadata{
		FrameRate:  50,
		FrameCount: 3,
		JointNames: []string{"hip"},
		LinkNames:  []string{"pelvis"},
		SourceID:   "walk",
		ArtifactID: "test-artifact",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestHTTPPublisher(t *testing.T) {
	var gotMeta string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method: got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotMeta = r.FormValue("metadata")
		f, _, err := r.FormFile("artifact")
		if err != nil {
			t.Errorf("FormFile failed: %v", err)
			http.Error(w, "missing artifact", http.StatusBadRequest)
			return
		}
		defer f.Close()
		buf := make([]byte, 64)
		n, _ := f.Read(buf)
		gotFile = buf[:n]
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	pub := NewHTTPPublisher(srv.URL)
	if err := pub.Publish(context.Background(), writeTestArtifact(t), testMeta()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if gotMeta == "" || !containsAll(gotMeta, `"artifact_id"`, `"test-artifact"`) {
		t.Errorf("Metadata field: got %q", gotMeta)
	}
	if string(gotFile) != "not a real artifact" {
		t.Errorf("Artifact body: got %q", gotFile)
	}
}

func TestHTTPPublisher_BearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	pub := NewHTTPPublisher(srv.URL)
	pub.Token = "sekrit"
	if err := pub.Publish(context.Background(), writeTestArtifact(t), testMeta()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if gotAuth != "Bearer sekrit" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
}

func TestHTTPPublisher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "registry on fire", http.StatusInternalServerError)
	}))
	defer srv.Close()

	pub := NewHTTPPublisher(srv.URL)
	err := pub.Publish(context.Background(), writeTestArtifact(t), testMeta())
	if err == nil {
		t.Fatal("Expected error on 500 response")
	}
}

// countingPublisher fails a fixed number of times before succeeding.
type countingPublisher struct {
	failures int
	calls    int
}

func (p *countingPublisher) Name() string { return "counting" }

func (p *countingPublisher) Publish(ctx context.Context, path string, meta trajectory.Metadata) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("transient failure")
	}
	return nil
}

func TestSink_RetriesThenSucceeds(t *testing.T) {
	pub := &countingPublisher{failures: 2}
	sink := &Sink{pub: pub, attempts: 3, backoff: time.Millisecond}

	warn := sink.Export(context.Background(), "walk.npz", testMeta())
	if warn != nil {
		t.Fatalf("Export returned warning: %v", warn)
	}
	if pub.calls != 3 {
		t.Errorf("Calls: got %d, want 3", pub.calls)
	}
}

func TestSink_ExhaustedReturnsWarning(t *testing.T) {
	pub := &countingPublisher{failures: 10}
	sink := &Sink{pub: pub, attempts: 3, backoff: time.Millisecond}

	warn := sink.Export(context.Background(), "walk.npz", testMeta())
	if warn == nil {
		t.Fatal("Expected a warning after exhausted retries")
	}
	if warn.Attempts != 3 || warn.Target != "counting" {
		t.Errorf("Warning: %+v", warn)
	}
	// The warning is an error but never a silent success.
	var err error = warn
	if err.Error() == "" {
		t.Error("Warning must render an error string")
	}
	if pub.calls != 3 {
		t.Errorf("Calls: got %d, want 3", pub.calls)
	}
}

func TestSink_NilPublisher(t *testing.T) {
	var sink *Sink
	if warn := sink.Export(context.Background(), "walk.npz", testMeta()); warn != nil {
		t.Errorf("Nil sink must be a no-op, got %v", warn)
	}
	if warn := NewSink(nil).Export(context.Background(), "walk.npz", testMeta()); warn != nil {
		t.Errorf("Nil publisher must be a no-op, got %v", warn)
	}
}

func TestSink_ContextCancelled(t *testing.T) {
	pub := &countingPublisher{failures: 10}
	sink := &Sink{pub: pub, attempts: 3, backoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	warn := sink.Export(ctx, "walk.npz", testMeta())
	if warn == nil {
		t.Fatal("Expected a warning on cancellation")
	}
	if !errors.Is(warn, context.Canceled) {
		t.Errorf("Expected wrapped context.Canceled, got %v", warn.Err)
	}
	if pub.calls != 1 {
		t.Errorf("Calls: got %d, want 1", pub.calls)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
