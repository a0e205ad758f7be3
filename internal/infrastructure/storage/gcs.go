// Package storage 封装对象存储，负责工作表产物（PDF、预览图）的上传
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"

	"upllyft-worksheet-api/internal/config"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
)

var tracer = otel.Tracer("storage")

// ObjectStore 对象存储接口
type ObjectStore interface {
	// Upload 上传对象并返回公开访问 URL
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete 删除对象，对象不存在视为成功
	Delete(ctx context.Context, key string) error
}

// GCSStore 基于 Google Cloud Storage 的对象存储实现
type GCSStore struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
	pathPrefix    string
}

// NewGCSStore 创建 GCS 存储客户端
func NewGCSStore(ctx context.Context, cfg *config.GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	publicBase := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://storage.googleapis.com/%s", cfg.Bucket)
	}

	return &GCSStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase,
		pathPrefix:    strings.Trim(cfg.PathPrefix, "/"),
	}, nil
}

// Upload 上传对象并返回公开访问 URL
func (s *GCSStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.GCSStore.Upload")
	span.SetAttributes(
		attribute.String("storage.key", key),
		attribute.Int("storage.bytes", len(data)),
	)
	defer span.End()

	objectKey := s.objectKey(key)
	w := s.client.Bucket(s.bucket).Object(objectKey).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		span.RecordError(err)
		return "", apperrors.ErrStorageError.WithError(err)
	}
	if err := w.Close(); err != nil {
		span.RecordError(err)
		return "", apperrors.ErrStorageError.WithError(err)
	}

	url := fmt.Sprintf("%s/%s", s.publicBaseURL, objectKey)
	logger.Debug(ctx, "object uploaded", "bucket", s.bucket, "key", objectKey, "size", len(data))
	return url, nil
}

// Delete 删除对象，对象不存在视为成功
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "storage.GCSStore.Delete")
	defer span.End()

	err := s.client.Bucket(s.bucket).Object(s.objectKey(key)).Delete(ctx)
	if err != nil && err != gcs.ErrObjectNotExist {
		span.RecordError(err)
		return apperrors.ErrStorageError.WithError(err)
	}
	return nil
}

// Close 关闭底层客户端
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.pathPrefix == "" {
		return key
	}
	return path.Join(s.pathPrefix, key)
}
