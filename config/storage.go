package config

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3 client and bucket info for the generation archive
type S3Config struct {
	Client     *s3.Client
	BucketName string
	Prefix     string
}

// NewS3Config initializes the S3 client from the storage section. It returns
// nil without error when no bucket is configured.
func NewS3Config(ctx context.Context, storage StorageConfig) (*S3Config, error) {
	if storage.Bucket == "" {
		return nil, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if storage.Region != "" {
		opts = append(opts, awsconfig.WithRegion(storage.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Config{
		Client:     s3.NewFromConfig(awsCfg),
		BucketName: storage.Bucket,
		Prefix:     storage.Prefix,
	}, nil
}
