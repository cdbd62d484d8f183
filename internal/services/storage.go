package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectStorage uploads image blobs and returns their public URL.
type ObjectStorage interface {
	UploadImage(ctx context.Context, body io.Reader, contentType string) (string, error)
}

type S3Storage struct {
	client        *s3.Client
	bucket        string
	prefix        string
	publicBaseURL string
}

func NewS3Storage(ctx context.Context) (*S3Storage, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-southeast-2"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET environment variable is not set")
	}

	publicBaseURL := os.Getenv("S3_PUBLIC_BASE_URL")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &S3Storage{
		client:        s3.NewFromConfig(awsCfg),
		bucket:        bucket,
		prefix:        "uploads/",
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// UploadImage stores the blob under a fresh UUID key and returns the
// public URL.
func (s *S3Storage) UploadImage(ctx context.Context, body io.Reader, contentType string) (string, error) {
	ext := extensionFor(contentType)
	key := s.prefix + uuid.NewString() + ext

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})

	if err != nil {
		log.Printf("S3 upload failed for key %s: %v", key, err)
		return "", err
	}

	return s.publicBaseURL + "/" + key, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
