package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
)

// BackupUploader pushes config snapshots to S3-compatible storage after
// each successful persist. Without an endpoint configured it is disabled
// and uploads become no-ops.
type BackupUploader struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// NewBackupUploader creates the snapshot uploader. An empty endpoint
// yields a disabled uploader rather than an error.
func NewBackupUploader(cfg *config.S3Config, logger zerolog.Logger) (*BackupUploader, error) {
	log := logger.With().Str("component", "config_backup").Logger()

	if cfg.Endpoint == "" {
		log.Info().Msg("S3 endpoint not configured, config backups disabled")
		return &BackupUploader{logger: log}, nil
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &BackupUploader{
		client: client,
		bucket: cfg.Bucket,
		logger: log,
	}, nil
}

// Enabled reports whether snapshots actually reach storage.
func (u *BackupUploader) Enabled() bool {
	return u.client != nil
}

// EnsureBucket creates the backup bucket if it doesn't exist. Backups
// stay private; no read policy is attached.
func (u *BackupUploader) EnsureBucket(ctx context.Context) error {
	if u.client == nil {
		return nil
	}

	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		u.logger.Info().Str("bucket", u.bucket).Msg("created S3 bucket")
	}

	return nil
}

// UploadSnapshot stores one serialized config document under a
// timestamped key, keeping earlier snapshots as history.
func (u *BackupUploader) UploadSnapshot(ctx context.Context, data []byte) error {
	if u.client == nil {
		return nil
	}

	objectKey := fmt.Sprintf("config/config_%s.json", time.Now().UTC().Format("20060102T150405Z"))

	reader := bytes.NewReader(data)
	_, err := u.client.PutObject(ctx, u.bucket, objectKey, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload config snapshot: %w", err)
	}

	u.logger.Debug().
		Str("object_key", objectKey).
		Int("bytes", len(data)).
		Msg("uploaded config snapshot")
	return nil
}
