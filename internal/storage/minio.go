package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/refhub/backend/internal/config"
	"github.com/refhub/backend/pkg/logger"
)

// DefaultGroupAvatar is the shared placeholder object; it is never
// removed when a group is disbanded or its avatar replaced.
const DefaultGroupAvatar = "group-avatar/default.png"

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOClient{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

func (m *MinIOClient) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("minio_upload_failed", err, map[string]interface{}{
			"object_name": objectName,
			"size":        size,
			"bucket":      m.bucket,
		})
	}
	return err
}

// RemoveAll unlinks the given objects after the owning rows are already
// committed away. Failures never surface to the caller: the database is
// the source of truth, an orphaned object is only a warning for offline
// cleanup.
func (m *MinIOClient) RemoveAll(ctx context.Context, objectNames []string) {
	for _, objectName := range objectNames {
		if objectName == "" || objectName == DefaultGroupAvatar {
			continue
		}
		err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
		if err != nil {
			logger.Warn("orphaned_object", map[string]interface{}{
				"object_name": objectName,
				"bucket":      m.bucket,
				"error":       err.Error(),
			})
		}
	}
}
