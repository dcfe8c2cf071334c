package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const s3Scheme = "s3://"

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectStore reads CV documents kept in S3-compatible storage.
type ObjectStore struct {
	client objectGetter
	logger *zap.Logger
}

// NewObjectStore builds a client from the default AWS credential chain.
// A non-empty endpoint targets an S3-compatible service such as R2 or MinIO.
func NewObjectStore(ctx context.Context, endpoint string, logger *zap.Logger) (*ObjectStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint = strings.TrimSpace(endpoint)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	if logger == nil {
		logger = zap.NewNop()
	}

	return &ObjectStore{client: client, logger: logger}, nil
}

// IsS3Location reports whether location uses the s3:// scheme.
func IsS3Location(location string) bool {
	return strings.HasPrefix(strings.TrimSpace(location), s3Scheme)
}

// ParseS3Location splits s3://bucket/key into its parts.
func ParseS3Location(location string) (bucket, key string, err error) {
	location = strings.TrimSpace(location)
	if !strings.HasPrefix(location, s3Scheme) {
		return "", "", fmt.Errorf("location %q is not an s3 url", location)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("location %q must look like s3://bucket/key", location)
	}

	return bucket, key, nil
}

// Download fetches the object at location as a Document named after its key.
func (s *ObjectStore) Download(ctx context.Context, location string) (*Document, error) {
	if s == nil || s.client == nil {
		return nil, &IngestionError{Source: location, Err: errors.New("object store is not configured")}
	}

	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, &IngestionError{Source: location, Err: err}
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &IngestionError{Source: location, Err: fmt.Errorf("get object: %w", err)}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &IngestionError{Source: location, Err: fmt.Errorf("read object body: %w", err)}
	}

	s.logger.Debug("downloaded document",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)

	return &Document{Name: path.Base(key), Data: data}, nil
}
