package cloud

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Client archives daily export files.
type S3Client struct {
	svc    s3API
	bucket string
	prefix string
}

func NewS3Client(cfg aws.Config, bucket string) *S3Client {
	return &S3Client{svc: s3.NewFromConfig(cfg), bucket: bucket, prefix: "hygiene-logs/"}
}

// Upload stores data under the export prefix and returns the object key.
func (c *S3Client) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := c.prefix + name
	_, err := c.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return key, nil
}
