package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"emprendyup-catalog/internal/config"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 writes images straight to a bucket under uuid keys.
type S3 struct {
	client        putObjectAPI
	bucket        string
	prefix        string
	publicBaseURL string
	newKey        func() string
}

func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3(s3.NewFromConfig(awsCfg), cfg), nil
}

func newS3(client putObjectAPI, cfg config.S3Config) *S3 {
	return &S3{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		newKey:        uuid.NewString,
	}
}

func (s *S3) Upload(ctx context.Context, file File) (Result, error) {
	key := s.newKey() + strings.ToLower(filepath.Ext(file.Name))
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file.Body,
		ContentType: aws.String(file.ContentType),
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Result{}, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return Result{Key: key, URL: s.publicBaseURL + "/" + key}, nil
}

func (s *S3) String() string { return fmt.Sprintf("s3(%s/%s)", s.bucket, s.prefix) }
