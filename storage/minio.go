// Package storage wraps the MinIO object store used for mirrored album
// artwork and other binary assets.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"unifm/config"
	"unifm/logger"
)

var minioClient *minio.Client

// InitMinio connects to the object store and makes sure the configured
// bucket exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created object storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("Connected to object storage", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// GetMinioClient returns the shared client, nil when object storage is
// disabled.
func GetMinioClient() *minio.Client {
	return minioClient
}

// PutObject uploads one object.
func PutObject(ctx context.Context, bucket, name string, reader io.Reader, size int64, contentType string) error {
	if minioClient == nil {
		return fmt.Errorf("object storage not initialized")
	}
	_, err := minioClient.PutObject(ctx, bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, name, err)
	}
	return nil
}

// ObjectExists reports whether an object is already stored.
func ObjectExists(ctx context.Context, bucket, name string) bool {
	if minioClient == nil {
		return false
	}
	_, err := minioClient.StatObject(ctx, bucket, name, minio.StatObjectOptions{})
	return err == nil
}

// GetObject opens one stored object for reading. The caller closes it.
func GetObject(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("object storage not initialized")
	}
	obj, err := minioClient.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s/%s: %w", bucket, name, err)
	}
	return obj, nil
}
