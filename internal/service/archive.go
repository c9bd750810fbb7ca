package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pageza/fusion-kitchen/backend/config"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// GenerationRecord is the archived trace of one generation
type GenerationRecord struct {
	UserID    uuid.UUID               `json:"userId"`
	Request   types.GenerationRequest `json:"request"`
	Prompt    string                  `json:"prompt"`
	Raw       []types.RawRecipe       `json:"raw"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Archiver stores generation records for later inspection
type Archiver interface {
	Archive(ctx context.Context, record GenerationRecord) error
}

// ObjectPutter is the subset of the S3 client used by S3Archiver
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Archiver returns nil when cfg is nil, i.e. archiving is disabled
func NewS3Archiver(cfg *config.S3Config) *S3Archiver {
	if cfg == nil {
		return nil
	}
	return &S3Archiver{client: cfg.Client, bucket: cfg.BucketName, prefix: cfg.Prefix}
}

// Key returns the object key for record
func (a *S3Archiver) Key(record GenerationRecord) string {
	name := record.CreatedAt.UTC().Format("20060102T150405.000Z") + ".json"
	return path.Join(a.prefix, record.UserID.String(), name)
}

func (a *S3Archiver) Archive(ctx context.Context, record GenerationRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal generation record: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(record)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload generation record: %w", err)
	}
	return nil
}
