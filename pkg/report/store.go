package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Store persists named artifacts
type Store interface {
	Put(ctx context.Context, name string, body []byte) error
	// Location returns where an artifact of the given name is stored
	Location(name string) string
}

type DirStore struct {
	dir string
}

// NewDirStore returns a store writing into dir, creating it if needed
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (store *DirStore) Put(ctx context.Context, name string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(store.Location(name), body, 0o644); err != nil {
		return fmt.Errorf("cannot write %v: %w", name, err)
	}
	return nil
}

func (store *DirStore) Location(name string) string {
	return filepath.Join(store.dir, name)
}

// s3API is the subset of the S3 client used by S3Store
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store loads the default AWS configuration (environment, shared files) and checks that
// the bucket is reachable
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	store := newS3Store(s3.NewFromConfig(awsConfig), bucket, prefix)
	if _, err := store.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return nil, fmt.Errorf("head bucket failed for %v: %w", bucket, describeAPIError(err))
	}
	return store, nil
}

func newS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (store *S3Store) Put(ctx context.Context, name string, body []byte) error {
	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(store.key(name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return fmt.Errorf("put failed for %v: %w", store.Location(name), describeAPIError(err))
	}
	return nil
}

func (store *S3Store) Location(name string) string {
	return fmt.Sprintf("s3://%v/%v", store.bucket, store.key(name))
}

func (store *S3Store) key(name string) string {
	if store.prefix == "" {
		return name
	}
	return path.Join(store.prefix, name)
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".csv":
		return "text/csv"
	default:
		return "text/plain"
	}
}

// describeAPIError prefixes service errors with their error code
func describeAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%v: %w", apiErr.ErrorCode(), err)
	}
	return err
}
