package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3 connection settings.
type Config struct {
	EndpointURL     string
	Region          string
	UseSSL          bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3Client implements ObjectStore using the minio-go SDK.
type S3Client struct {
	client *minio.Client
	cfg    *Config
}

// NewS3Client creates an S3 client. Without static keys it falls back to the
// AWS environment variables, the shared credentials file and then the
// instance/task role.
func NewS3Client(cfg *Config) (*S3Client, error) {
	if cfg == nil {
		return nil, wrapError(CodeEndpointUnreachable, false, fmt.Errorf("config is required"))
	}
	if cfg.EndpointURL == "" {
		return nil, wrapError(CodeEndpointUnreachable, false, fmt.Errorf("endpoint URL is required"))
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, false, fmt.Errorf("invalid endpoint URL: %w", err))
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}
	useSSL := cfg.UseSSL || u.Scheme == "https"

	var creds *credentials.Credentials
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("failed to create minio client: %w", err))
	}
	return &S3Client{client: client, cfg: cfg}, nil
}

func (s *S3Client) ReadLines(ctx context.Context, bucket, key string) (LineReader, error) {
	if bucket == "" || key == "" {
		return nil, wrapError(CodeObjectNotFound, false, fmt.Errorf("bucket and key are required"))
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	// GetObject is lazy; Stat surfaces missing objects before the first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, classifyMinioError(err)
	}
	return newScannerLines(obj, classifyMinioError), nil
}

func (s *S3Client) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if bucket == "" {
		return nil, wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket is required"))
	}

	var objects []ObjectInfo
	objectCh := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, classifyMinioError(obj.Err)
		}
		objects = append(objects, ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	return objects, nil
}

func (s *S3Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		return nil, wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket is required"))
	}
	if key == "" {
		return nil, wrapError(CodeObjectNotFound, false, fmt.Errorf("object key is required"))
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinioError(err)
	}
	return data, nil
}

func (s *S3Client) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if bucket == "" {
		return wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket is required"))
	}
	if key == "" {
		return wrapError(CodeWriteFailed, false, fmt.Errorf("object key is required"))
	}

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return classifyMinioError(err)
	}
	return nil
}

// classifyMinioError converts minio-go errors to *Error.
func classifyMinioError(err error) *Error {
	if err == nil {
		return nil
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch minioErr.Code {
		case "NoSuchBucket":
			return wrapError(CodeBucketNotFound, false, err)
		case "NoSuchKey":
			return wrapError(CodeObjectNotFound, false, err)
		case "AccessDenied":
			return wrapError(CodePermissionDenied, false, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return wrapError(CodeAuthInvalid, false, err)
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "no such bucket"):
		return wrapError(CodeBucketNotFound, false, err)
	case strings.Contains(errStr, "no such key"), strings.Contains(errStr, "does not exist"):
		return wrapError(CodeObjectNotFound, false, err)
	case strings.Contains(errStr, "access denied"):
		return wrapError(CodePermissionDenied, false, err)
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return wrapError(CodeTimeout, true, err)
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "no such host"):
		return wrapError(CodeEndpointUnreachable, true, err)
	}
	return wrapError(CodeReadFailed, true, err)
}
