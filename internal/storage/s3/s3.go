package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/news-publishing-api/internal/storage"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing
	PublicURL       string // Base URL objects are publicly served from
}

// Backend is an S3-compatible implementation of storage.BlobStore
type Backend struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	publicURL string
}

// New creates a new S3-compatible blob store
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	publicURL := config.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", config.Bucket, config.Region)
	}

	return &Backend{
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    config.Bucket,
		publicURL: publicURL,
	}, nil
}

// Store uploads the file under dir with a generated key
func (b *Backend) Store(ctx context.Context, dir string, upload *storage.Upload) (string, error) {
	if upload == nil || upload.Body == nil {
		return "", &storage.Error{Op: "store", Err: errors.New("empty upload")}
	}

	key := storage.NewBlobPath(dir, upload)
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   upload.Body,
	}
	if upload.ContentType != "" {
		input.ContentType = aws.String(upload.ContentType)
	}

	if _, err := b.uploader.Upload(ctx, input); err != nil {
		return "", &storage.Error{Op: "store", Path: key, Err: err}
	}
	return key, nil
}

// URL returns the public URL of an object
func (b *Backend) URL(blobPath string) string {
	return storage.JoinURL(b.publicURL, blobPath)
}

// Exists reports whether an object is stored under key
func (b *Backend) Exists(ctx context.Context, blobPath string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(blobPath),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, &storage.Error{Op: "head", Path: blobPath, Err: err}
}

// Delete removes an object. S3 deletes are already idempotent.
func (b *Backend) Delete(ctx context.Context, blobPath string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(blobPath),
	})
	if err != nil && !isNotFound(err) {
		return &storage.Error{Op: "delete", Path: blobPath, Err: err}
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
