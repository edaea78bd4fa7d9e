package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedType is returned for files outside the image allow-list.
var ErrUnsupportedType = errors.New("file type is not supported")

// ImageStore stores post images in S3-compatible object storage.
type ImageStore struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewImageStore creates an image store. accessKey/secretKey are optional;
// when empty the default credential chain is used. endpoint switches the
// client to an S3-compatible provider with path-style addressing.
func NewImageStore(ctx context.Context, region, bucket, accessKey, secretKey, endpoint string) (*ImageStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &ImageStore{
		client:   client,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

// AllowedExtension reports whether name has a supported image extension.
func AllowedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Upload stores the image and returns its public URL and the object key
// used for later deletion. Files outside the image allow-list are
// rejected before anything is sent.
func (s *ImageStore) Upload(ctx context.Context, postID, filename, contentType string, body io.Reader) (url, key string, err error) {
	if !AllowedExtension(filename) {
		return "", "", fmt.Errorf("%s: %w", filename, ErrUnsupportedType)
	}

	key = fmt.Sprintf("posts/%s%s", postID, strings.ToLower(filepath.Ext(filename)))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.publicURL(key), key, nil
}

// Destroy removes a previously uploaded image
func (s *ImageStore) Destroy(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (s *ImageStore) publicURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
