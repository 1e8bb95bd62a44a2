// ABOUTME: S3 object byte source for s3://bucket/key locations
// ABOUTME: Streams the GetObject body and maps missing keys to os.ErrNotExist
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the part of the S3 API used here. *s3.Client satisfies it.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config describes how to reach an S3 compatible store.
type S3Config struct {
	Region   string
	Endpoint string
	// AccessKey and SecretKey are optional; anonymous access is used when
	// both are empty.
	AccessKey string
	SecretKey string
}

// NewS3Client builds a client for cfg. A custom endpoint switches to
// path-style addressing, which MinIO and similar stores expect.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.AnonymousCredentials{},
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		creds := aws.Credentials{AccessKeyID: cfg.AccessKey, SecretAccessKey: cfg.SecretKey, Source: "oggplay"}
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// ParseS3Location splits s3://bucket/key.
func ParseS3Location(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 location: %s", location)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 location needs bucket and key: %s", location)
	}
	return bucket, key, nil
}

// OpenS3 streams an object body.
func OpenS3(ctx context.Context, client S3Client, bucket, key string) (io.ReadCloser, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("s3 object %s/%s: %w", bucket, key, os.ErrNotExist)
		}
		return nil, err
	}
	if out.ContentType != nil && !isOggContentType(*out.ContentType) {
		log.Printf("[source] unexpected content type %q for s3://%s/%s", *out.ContentType, bucket, key)
	}
	return out.Body, nil
}

func openS3Location(ctx context.Context, location string, client S3Client) (io.ReadCloser, error) {
	if client == nil {
		return nil, errors.New("no s3 client configured")
	}
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	return OpenS3(ctx, client, bucket, key)
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
