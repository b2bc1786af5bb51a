package collab

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStorage stores encrypted payloads as objects in a Google Cloud Storage
// bucket. The bucket only ever sees ciphertext; the per-submission key never
// reaches this layer.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage builds a client for the given bucket. credentialsFile may be
// empty to use ambient application-default credentials.
func NewGCSStorage(ctx context.Context, bucket, credentialsFile string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Upload(ctx context.Context, hint string, data []byte, metadata map[string]string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(hint).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	w.CacheControl = "no-cache, no-store, must-revalidate"
	if len(metadata) > 0 {
		w.Metadata = metadata
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("write object %s: %w", hint, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", hint, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, hint), nil
}

func (s *GCSStorage) UploadBlob(ctx context.Context, hint string, blob []byte) (string, error) {
	return s.Upload(ctx, hint, blob, nil)
}

// Close releases the underlying client.
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
