package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const (
	ProviderGCS   = "gcs"
	ProviderLocal = "local"
)

// Provider persists uploaded source files and returns a durable path for the
// session record.
type Provider interface {
	Save(ctx context.Context, objectName, mime string, r io.Reader) (string, error)
}

type GCSProvider struct {
	client *gcs.Client
	bucket string
}

// NewGCS uses Application Default Credentials unless an inline JSON blob is
// provided.
func NewGCS(ctx context.Context, bucket, credentialsJSON string) (*GCSProvider, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return &GCSProvider{client: client, bucket: bucket}, nil
}

func (p *GCSProvider) Save(ctx context.Context, objectName, mime string, r io.Reader) (string, error) {
	wc := p.client.Bucket(p.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = mime
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("write gcs object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close gcs object %s: %w", objectName, err)
	}
	return fmt.Sprintf("gs://%s/%s", p.bucket, objectName), nil
}

type LocalProvider struct {
	dir string
}

func NewLocal(dir string) (*LocalProvider, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalProvider{dir: dir}, nil
}

func (p *LocalProvider) Save(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	// Object names embed client-supplied filenames; a name that cleans to a
	// path outside the upload dir is rejected rather than written.
	clean := filepath.Clean(filepath.FromSlash(objectName))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe object name %q", objectName)
	}
	path := filepath.Join(p.dir, clean)
	if rel, err := filepath.Rel(p.dir, path); err != nil || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe object name %q", objectName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return path, nil
}
