package viewer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ontree-co/sitegen/internal/config"
	"github.com/ontree-co/sitegen/internal/telemetry"
	"github.com/ontree-co/sitegen/internal/website"
)

// BucketSink uploads artifacts to an S3-compatible object store. Objects are
// stored under <prefix>/<id>/<file name>.
type BucketSink struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewBucketSink creates a sink from the storage settings. bucket and prefix
// override the configured values when non-empty.
func NewBucketSink(cfg config.StorageConfig, bucket, prefix string) (*BucketSink, error) {
	if !cfg.Enabled() {
		return nil, errors.New("object storage endpoint is not configured")
	}
	if bucket == "" {
		bucket = cfg.Bucket
	}
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &BucketSink{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *BucketSink) Name() string { return "bucket" }

// ObjectKey returns the key an artifact of job id is stored under.
func (s *BucketSink) ObjectKey(id, fileName string) string {
	return objectKey(s.prefix, id, fileName)
}

func objectKey(prefix, id, fileName string) string {
	if prefix == "" {
		return path.Join(id, fileName)
	}
	return path.Join(prefix, id, fileName)
}

// Open makes sure the bucket exists.
func (s *BucketSink) Open(ctx context.Context, id string) (Batch, error) {
	if err := website.ValidateID(id); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartSpan(ctx, "sink.bucket.ensure")
	defer span.End()
	span.SetAttributes(attribute.String("storage.bucket", s.bucket))

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return &bucketBatch{sink: s, id: id}, nil
}

type bucketBatch struct {
	sink *BucketSink
	id   string
}

func (b *bucketBatch) Put(ctx context.Context, a website.Artifact) (string, error) {
	key := b.sink.ObjectKey(b.id, a.FileName)

	ctx, span := telemetry.StartSpan(ctx, "sink.bucket.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("storage.bucket", b.sink.bucket),
		attribute.String("storage.key", key),
		attribute.Int("storage.size", len(a.Content)),
	)

	_, err := b.sink.client.PutObject(ctx, b.sink.bucket, key, strings.NewReader(a.Content), int64(len(a.Content)), minio.PutObjectOptions{
		ContentType: a.ContentType,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to upload %s: %w", a.FileName, err)
	}
	return fmt.Sprintf("s3://%s/%s", b.sink.bucket, key), nil
}

func (b *bucketBatch) Close() error { return nil }
