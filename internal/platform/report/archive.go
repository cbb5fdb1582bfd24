package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// DirArchive writes reports into a local directory.
type DirArchive struct {
	dir string
}

// NewDirArchive returns an archive rooted at dir, creating it if needed.
func NewDirArchive(dir string) (*DirArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &DirArchive{dir: dir}, nil
}

// Store writes f under the archive directory and returns its path.
func (a *DirArchive) Store(_ context.Context, f *File) (string, error) {
	p := filepath.Join(a.dir, filepath.Base(f.Name))
	if err := os.WriteFile(p, f.Data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// PutObjectAPI is the subset of the S3 client used by S3Archive.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive uploads reports to an S3 compatible bucket.
type S3Archive struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Archive returns an archive writing to bucket under prefix.
func NewS3Archive(client PutObjectAPI, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// Store uploads f and returns its object key.
func (a *S3Archive) Store(ctx context.Context, f *File) (string, error) {
	key := path.Join(a.prefix, uuid.NewString(), path.Base(f.Name))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(f.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("put report %s: %w", key, err)
	}
	return key, nil
}

// S3Config configures the S3 client.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Client builds an S3 client. Static credentials are used when an access
// key is set, the default AWS chain otherwise. A custom endpoint switches to
// path-style addressing for MinIO and similar servers.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
