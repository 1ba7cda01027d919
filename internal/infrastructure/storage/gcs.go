package storage

import (
	"context"
	"io"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/amy-emails/pkg/helpers"
)

// GCS stores email attachments in a bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

func (g *GCS) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, g.client, g.bucket, objectPath, contentType, r)
}

// Open streams an attachment back, used by the worker to attach files.
func (g *GCS) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	return g.client.Bucket(g.bucket).Object(objectPath).NewReader(ctx)
}
