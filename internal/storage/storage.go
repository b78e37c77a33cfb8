// Package storage uploads checkpoints to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/Strasser-Pablo/trainlaunch/internal/checkpoint"
	"github.com/Strasser-Pablo/trainlaunch/internal/config"
)

// ObjectPutter is the part of the MinIO client the uploader needs.
type ObjectPutter interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// NewClient connects to the configured endpoint and makes sure the bucket exists.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return client, nil
}

// Uploader copies checkpoints of one run into a bucket.
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
	runID  string
	log    *zap.Logger
}

// NewUploader creates an uploader for the run identified by runID.
func NewUploader(client ObjectPutter, bucket, prefix, runID string, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		runID:  runID,
		log:    log,
	}
}

// ObjectKey returns <prefix>/<run_id>/model_<epoch>.tar.
func (u *Uploader) ObjectKey(c checkpoint.Checkpoint) string {
	return path.Join(u.prefix, u.runID, checkpoint.FileName(c.Epoch))
}

// Upload copies one checkpoint.
func (u *Uploader) Upload(ctx context.Context, c checkpoint.Checkpoint) error {
	key := u.ObjectKey(c)
	info, err := u.client.FPutObject(ctx, u.bucket, key, c.Path, minio.PutObjectOptions{
		ContentType: "application/x-tar",
		UserMetadata: map[string]string{
			"run-id": u.runID,
			"epoch":  fmt.Sprint(c.Epoch),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", c.Path, err)
	}

	u.log.Info("checkpoint uploaded",
		zap.String("bucket", u.bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size),
	)
	return nil
}

// Sink adapts the uploader to a checkpoint watcher. Failures are logged and
// never affect the run.
func (u *Uploader) Sink() checkpoint.Sink {
	return func(ctx context.Context, c checkpoint.Checkpoint) {
		if err := u.Upload(ctx, c); err != nil {
			u.log.Warn("checkpoint upload failed", zap.Int("epoch", c.Epoch), zap.Error(err))
		}
	}
}
