package gcs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

// New opens a storage client with application default credentials and
// checks that bucket is reachable.
func New(ctx context.Context, bucket string) (*storage.Client, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket is empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client failed: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Bucket(bucket).Attrs(checkCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check bucket %s failed: %w", bucket, err)
	}
	return client, nil
}
