// Package archive copies generated illustrations into an S3-compatible
// bucket so exported reports do not depend on short-lived provider URLs.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures the bucket connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Fetcher downloads the source image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// objectPutter is the subset of *minio.Client the mirror uses.
type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// bucketAdmin is the subset of *minio.Client used to prepare the bucket.
type bucketAdmin interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucket, policy string) error
}

const keyPrefix = "illustrations/"

// Mirror uploads illustrations to a bucket.
type Mirror struct {
	objects objectPutter
	fetcher Fetcher
	bucket  string
	baseURL string
	newKey  func(contentType string) string
}

// New connects to the bucket, creating it when missing.
func New(ctx context.Context, opts Options, fetcher Fetcher) (*Mirror, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: connect: %w", err)
	}

	if err := ensureBucket(ctx, cli, opts.Bucket, opts.Region); err != nil {
		return nil, err
	}

	endpoint := cli.EndpointURL()
	return newMirror(cli, fetcher, opts.Bucket, endpoint.Scheme+"://"+endpoint.Host), nil
}

// ensureBucket creates the bucket when missing and lets anonymous clients
// read the illustrations, since browsers and the ZIP export fetch the
// returned URLs without credentials.
func ensureBucket(ctx context.Context, admin bucketAdmin, bucket, region string) error {
	exists, err := admin.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("archive: bucket exists: %w", err)
	}
	if !exists {
		if err := admin.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("archive: make bucket: %w", err)
		}
	}
	policy, err := readPolicy(bucket)
	if err != nil {
		return err
	}
	if err := admin.SetBucketPolicy(ctx, bucket, policy); err != nil {
		return fmt.Errorf("archive: set bucket policy: %w", err)
	}
	return nil
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// readPolicy grants public s3:GetObject on the illustration prefix only.
func readPolicy(bucket string) (string, error) {
	data, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/" + keyPrefix + "*"},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("archive: encode policy: %w", err)
	}
	return string(data), nil
}

func newMirror(objects objectPutter, fetcher Fetcher, bucket, baseURL string) *Mirror {
	return &Mirror{
		objects: objects,
		fetcher: fetcher,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		newKey:  objectKey,
	}
}

// Store downloads src and uploads it, returning the object URL.
func (m *Mirror) Store(ctx context.Context, src string) (string, error) {
	body, contentType, err := m.fetcher.Fetch(ctx, src)
	if err != nil {
		return "", fmt.Errorf("archive: fetch: %w", err)
	}
	if contentType == "" {
		contentType = "image/png"
	}

	key := m.newKey(contentType)
	_, err = m.objects.PutObject(ctx, m.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("archive: put %s: %w", key, err)
	}

	return m.baseURL + "/" + path.Join(m.bucket, key), nil
}

func objectKey(contentType string) string {
	ext := ".png"
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		ext = ".jpg"
	case strings.HasPrefix(contentType, "image/webp"):
		ext = ".webp"
	}
	return keyPrefix + uuid.NewString() + ext
}

// Host returns the bucket endpoint host, for logging.
func (m *Mirror) Host() string {
	u, err := url.Parse(m.baseURL)
	if err != nil {
		return m.baseURL
	}
	return u.Host
}
