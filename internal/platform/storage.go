// internal/platform/storage.go
package platform

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	awsclient "talent-intake/internal/common/aws"
	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// CVKey names an uploaded CV: upload time in unix millis, then the sanitized file name.
func CVKey(now time.Time, fileName string) string {
	return fmt.Sprintf("%d_%s", now.UnixMilli(), unsafeKeyChars.ReplaceAllString(fileName, "_"))
}

// S3Storage stores CV files and hands out signed read URLs.
type S3Storage struct {
	client    awsclient.S3API
	presigner awsclient.S3Presigner
	timeout   time.Duration
	logger    logger.Logger
}

func NewS3Storage(client awsclient.S3API, presigner awsclient.S3Presigner, timeout time.Duration, log logger.Logger) *S3Storage {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &S3Storage{
		client:    client,
		presigner: presigner,
		timeout:   timeout,
		logger:    logger.ForComponent(log, "storage"),
	}
}

// Upload writes body under bucket/key and returns the stored path (the key).
func (s *S3Storage) Upload(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("cv upload failed", map[string]interface{}{
			"bucket": bucket,
			"key":    key,
			"error":  err,
		})
		return "", errors.NewCVUploadFailedError(err)
	}

	s.logger.Info("cv uploaded", map[string]interface{}{
		"bucket": bucket,
		"key":    key,
		"size":   len(body),
	})
	return key, nil
}

// SignedURL returns a GET URL for bucket/key valid for ttl.
func (s *S3Storage) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", errors.NewFetchFailedError("cv signed url", err)
	}
	return req.URL, nil
}
