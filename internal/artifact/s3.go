package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the configuration for S3 artifact publication.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Store wraps LogStore and additionally uploads the artifact file to S3,
// filling the record's URL.
type S3Store struct {
	*LogStore
	client *s3.Client
	bucket string
	region string
}

// NewS3Store creates an S3Store.
func NewS3Store(logger *slog.Logger, cfg S3Config) (*S3Store, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		LogStore: NewLogStore(logger),
		client:   s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:   cfg.Bucket,
		region:   cfg.Region,
	}, nil
}

// Publish implements Store. The artifact file is uploaded under
// <name>/<filename> and the record's URL points at the uploaded object.
func (s *S3Store) Publish(ctx context.Context, rec Record) (Record, error) {
	f, err := os.Open(rec.Path)
	if err != nil {
		return rec, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := rec.Name + "/" + filepath.Base(rec.Path)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return rec, fmt.Errorf("upload artifact to S3: %w", err)
	}

	rec.URL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	return s.LogStore.Publish(ctx, rec)
}

// Verify interface implementation at compile time.
var _ Store = (*S3Store)(nil)
