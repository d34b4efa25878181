package s3

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ItsOrv/Telegram-Panel-sub000/config"
)

func TestNewBackupUploader_Disabled(t *testing.T) {
	uploader, err := NewBackupUploader(&config.S3Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected no error for empty endpoint, got %v", err)
	}
	if uploader.Enabled() {
		t.Error("Expected disabled uploader with empty endpoint")
	}

	// disabled operations are no-ops
	if err := uploader.EnsureBucket(context.Background()); err != nil {
		t.Errorf("Expected disabled EnsureBucket to succeed, got %v", err)
	}
	if err := uploader.UploadSnapshot(context.Background(), []byte(`{}`)); err != nil {
		t.Errorf("Expected disabled upload to succeed, got %v", err)
	}
}

func TestNewBackupUploader_MissingBucket(t *testing.T) {
	_, err := NewBackupUploader(&config.S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, zerolog.Nop())
	if err == nil {
		t.Error("Expected error for missing bucket, got nil")
	}
	if err.Error() != "s3 bucket is required" {
		t.Errorf("Expected 's3 bucket is required', got %v", err)
	}
}

func TestNewBackupUploader_Valid(t *testing.T) {
	uploader, err := NewBackupUploader(&config.S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "panel-backups",
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !uploader.Enabled() {
		t.Error("Expected enabled uploader with endpoint configured")
	}
}
